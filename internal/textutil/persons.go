package textutil

import (
	"fmt"
	"strings"
)

// Confidence grades a person-name match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NameMatch is the outcome of ComparePersonNames.
type NameMatch struct {
	Match      bool
	Confidence Confidence
	Reason     string
}

const (
	fullNameThreshold  = 90
	tokenThreshold     = 85
	partialThreshold   = 70
	minPrefixRunes     = 3
	minPersonTokenSize = 2
)

// ComparePersonNames decides whether two spellings name the same person. It
// tolerates added middle names ("Gustavo Giannini" / "Gustavo Alex Giannini"),
// nicknames contained in the full first name ("Polo" / "Leopoldo") and
// shortened surnames ("Ekian" / "Ekmekdjian"). Single-letter initials are
// ignored.
func ComparePersonNames(a, b string) NameMatch {
	tokensA := personTokens(a)
	tokensB := personTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return NameMatch{Confidence: ConfidenceLow, Reason: "empty or too short name"}
	}

	full := Similarity(a, b)
	if full >= fullNameThreshold {
		return NameMatch{Match: true, Confidence: ConfidenceHigh, Reason: fmt.Sprintf("similarity %d%%", full)}
	}

	firstA, firstB := tokensA[0], tokensB[0]
	lastA, lastB := tokensA[len(tokensA)-1], tokensB[len(tokensB)-1]
	sameLast := similarityNormalized(lastA, lastB) >= tokenThreshold
	sameFirst := similarityNormalized(firstA, firstB) >= tokenThreshold
	bothCompound := len(tokensA) >= 2 && len(tokensB) >= 2

	if sameLast && bothCompound {
		if isSubsequence(firstA, firstB) {
			return NameMatch{Match: true, Confidence: ConfidenceHigh, Reason: fmt.Sprintf("same surname, first name contained (%s in %s)", firstA, firstB)}
		}
		if isSubsequence(firstB, firstA) {
			return NameMatch{Match: true, Confidence: ConfidenceHigh, Reason: fmt.Sprintf("same surname, first name contained (%s in %s)", firstB, firstA)}
		}
		if sharePrefix(firstA, firstB) {
			return NameMatch{Match: true, Confidence: ConfidenceMedium, Reason: "same surname, first names share a prefix"}
		}
	}

	if sameFirst && bothCompound {
		if isSubsequence(lastA, lastB) || isSubsequence(lastB, lastA) {
			return NameMatch{Match: true, Confidence: ConfidenceHigh, Reason: "same first name, surname contained"}
		}
		if sharePrefix(lastA, lastB) {
			return NameMatch{Match: true, Confidence: ConfidenceMedium, Reason: "same first name, surnames share a prefix"}
		}
	}

	shorter, longer := tokensA, tokensB
	if len(tokensA) > len(tokensB) {
		shorter, longer = tokensB, tokensA
	}
	if allFound(shorter, longer) {
		if sameLast {
			confidence := ConfidenceMedium
			if len(shorter) >= 2 {
				confidence = ConfidenceHigh
			}
			return NameMatch{Match: true, Confidence: confidence, Reason: fmt.Sprintf("name contained (%s in %s)", strings.Join(shorter, " "), strings.Join(longer, " "))}
		}
		if containsSimilar(longer, shorter[len(shorter)-1]) {
			return NameMatch{Match: true, Confidence: ConfidenceHigh, Reason: fmt.Sprintf("name contained with surname (%s in %s)", strings.Join(shorter, " "), strings.Join(longer, " "))}
		}
	}

	if sameFirst && bothCompound {
		for _, token := range tokensA[1:] {
			if containsSimilar(tokensB[1:], token) {
				return NameMatch{Match: true, Confidence: ConfidenceMedium, Reason: "same first name and a common surname"}
			}
		}
	}

	if bothCompound {
		crossed := containsSimilar(tokensB[:len(tokensB)-1], firstA) || containsSimilar(tokensA[:len(tokensA)-1], firstB)
		if crossed && (containsSimilar(tokensB, lastA) || containsSimilar(tokensA, lastB)) {
			return NameMatch{Match: true, Confidence: ConfidenceMedium, Reason: "crossed first name and a common surname"}
		}
	}

	if full >= partialThreshold {
		return NameMatch{Confidence: ConfidenceLow, Reason: fmt.Sprintf("partial similarity %d%%, needs review", full)}
	}
	return NameMatch{Confidence: ConfidenceLow, Reason: fmt.Sprintf("insufficient similarity (%d%%)", full)}
}

func personTokens(name string) []string {
	raw := Tokens(name)
	tokens := raw[:0]
	for _, token := range raw {
		if len(token) >= minPersonTokenSize {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// isSubsequence reports whether needle's letters appear in haystack in order:
// "polo" is a subsequence of "leopoldo".
func isSubsequence(needle, haystack string) bool {
	if len(needle) > len(haystack) {
		return false
	}
	i := 0
	for j := 0; j < len(haystack) && i < len(needle); j++ {
		if haystack[j] == needle[i] {
			i++
		}
	}
	return i == len(needle)
}

// sharePrefix requires a common prefix of at least max(3, half the shorter).
func sharePrefix(a, b string) bool {
	shortest := min(len(a), len(b))
	required := max(minPrefixRunes, shortest/2)
	common := 0
	for common < shortest && a[common] == b[common] {
		common++
	}
	return common >= required
}

func containsSimilar(tokens []string, target string) bool {
	for _, token := range tokens {
		if token == target || similarityNormalized(token, target) >= tokenThreshold {
			return true
		}
	}
	return false
}

func allFound(shorter, longer []string) bool {
	for _, token := range shorter {
		if !containsSimilar(longer, token) {
			return false
		}
	}
	return true
}
