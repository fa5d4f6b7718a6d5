package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanText trims text scraped off a page and collapses runs of whitespace
// (including newlines and tabs) into a single space.
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	return whitespaceRegex.ReplaceAllString(text, " ")
}

// NormalizeName lowercases a food name and drops whitespace and
// punctuation so "Buttermilk  Biscuit" and "buttermilk-biscuit" compare
// equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	var out strings.Builder
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}
