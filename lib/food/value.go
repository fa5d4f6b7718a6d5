package food

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unknown is written in place of a number that could not be read off a
// nutrition label.
const Unknown = "N/A"

// Value is an optional amount read from a nutrition label.
type Value struct {
	Amount float64
	Known  bool
}

func Amount(v float64) Value {
	return Value{Amount: v, Known: true}
}

func (v Value) String() string {
	if !v.Known || math.IsNaN(v.Amount) {
		return Unknown
	}
	return strconv.FormatFloat(v.Amount, 'f', -1, 64)
}

var numberRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

var unknownSpellings = map[string]struct{}{
	"":    {},
	"n/a": {},
	"na":  {},
	"nan": {},
	"--":  {},
	"-":   {},
}

// ParseValue takes the first decimal number out of label text such as
// "10g", "480mg" or "<1g". Anything without digits is unknown.
func ParseValue(text string) Value {
	text = strings.TrimSpace(text)
	if _, ok := unknownSpellings[strings.ToLower(text)]; ok {
		return Value{}
	}
	match := numberRegex.FindString(text)
	if match == "" {
		return Value{}
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Value{}
	}
	return Amount(amount)
}

var gramsRegex = regexp.MustCompile(`\((\d+)\s*g\)`)

// ParseServingGrams extracts the gram weight from serving text like
// "4oz (129g)".
func ParseServingGrams(serving string) Value {
	groups := gramsRegex.FindStringSubmatch(serving)
	if len(groups) < 2 {
		return Value{}
	}
	grams, err := strconv.Atoi(groups[1])
	if err != nil {
		return Value{}
	}
	return Amount(float64(grams))
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Known {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}

// UnmarshalJSON accepts a number, null, or label text like "12g".
func (v *Value) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		*v = ParseValue(unquoted)
		return nil
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return err
	}
	*v = Amount(amount)
	return nil
}
