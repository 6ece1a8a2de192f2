package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize folds accents, lowercases and collapses every run of characters
// outside [a-z0-9] into a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.TrimSpace(nonAlnumPattern.ReplaceAllString(folded, " "))
}

// Tokens splits the normalized form of s on spaces.
func Tokens(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
