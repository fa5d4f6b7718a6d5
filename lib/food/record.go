package food

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRecord is returned when a record lacks the fields needed to
// build its identity key.
var ErrMalformedRecord = errors.New("malformed food record")

// KeyDelimiter joins the name and calories of an identity key, it is not
// expected to show up in food names.
const KeyDelimiter = "_"

// Record is a single food item as it appears on one dining hall menu.
type Record struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Meal     string `json:"meal"`
	Name     string `json:"name"`

	ServingGrams Value `json:"serving_grams"`
	Calories     Value `json:"calories"`

	TotalFat      Value `json:"total_fat"`
	SaturatedFat  Value `json:"saturated_fat"`
	Carbohydrates Value `json:"carbohydrates"`
	Protein       Value `json:"protein"`
	Sugars        Value `json:"sugars"`
	Sodium        Value `json:"sodium"`

	TransFat        Value  `json:"trans_fat"`
	Cholesterol     Value  `json:"cholesterol"`
	DietaryFiber    Value  `json:"dietary_fiber"`
	CaloriesFromFat Value  `json:"calories_from_fat"`
	VitaminA        Value  `json:"vitamin_a"`
	VitaminC        Value  `json:"vitamin_c"`
	Calcium         Value  `json:"calcium"`
	Iron            Value  `json:"iron"`
	ServingSize     string `json:"serving_size"`
	Ingredients     string `json:"ingredients"`
}

// Validate reports whether an identity key can be derived from the record.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing food name", ErrMalformedRecord)
	}
	return nil
}

// IdentityKey is the name and calories of the record, two records with the
// same key are the same food no matter what the rest of the label says.
func (r Record) IdentityKey() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r.Name + KeyDelimiter + r.Calories.String(), nil
}

// SplitKey returns the food name portion of an identity key.
func SplitKey(key string) (name string, calories string) {
	idx := strings.LastIndex(key, KeyDelimiter)
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+len(KeyDelimiter):]
}
