package textutil

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// Similarity returns round((1 - distance/maxLen) * 100) over the normalized
// inputs. Identical inputs score 100 and an empty side scores 0.
func Similarity(a, b string) int {
	return similarityNormalized(Normalize(a), Normalize(b))
}

func similarityNormalized(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := max(len(a), len(b))
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round((1 - float64(distance)/float64(maxLen)) * 100))
}
