package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	subtitleSeparators = regexp.MustCompile(`[,:\-–—]`)
	subtitleDot        = regexp.MustCompile(`\.\s+`)
)

// subtitleMatchThreshold is the similarity a short title needs against the
// base of a longer one to count as the same work.
const subtitleMatchThreshold = 95

// CompareTitles scores two titles like Similarity, except that a title equal
// to the base of the other (the part before a subtitle separator) scores 100.
// "El nombrador" against "El nombrador, una película sobre Daniel Toro" is 100.
func CompareTitles(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 100
	}

	lenA, lenB := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if lenB > lenA {
		if base, ok := titleBase(b); ok && similarityNormalized(na, base) >= subtitleMatchThreshold {
			return 100
		}
	}
	if lenA > lenB {
		if base, ok := titleBase(a); ok && similarityNormalized(nb, base) >= subtitleMatchThreshold {
			return 100
		}
	}
	return similarityNormalized(na, nb)
}

// titleBase returns the normalized text before the first subtitle separator.
// A ". " only counts when no other separator appears, so "Dr." stays intact.
func titleBase(title string) (string, bool) {
	if parts := subtitleSeparators.Split(title, 2); len(parts) > 1 {
		return Normalize(strings.TrimSpace(parts[0])), true
	}
	if parts := subtitleDot.Split(title, 2); len(parts) > 1 {
		return Normalize(strings.TrimSpace(parts[0])), true
	}
	return "", false
}
