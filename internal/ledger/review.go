package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// NameReviewColumns is the header of the name split review file.
var NameReviewColumns = []string{"full_name", "first_name", "last_name", "gender", "reason"}

// NameReview is a person name whose split needs a human decision.
type NameReview struct {
	FullName  string
	FirstName string
	LastName  string
	Gender    string
	Reason    string
}

// WriteNameReviews writes review rows to path, replacing any previous file.
func WriteNameReviews(path string, reviews []NameReview) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create review directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create review file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(NameReviewColumns); err != nil {
		return fmt.Errorf("write review header: %w", err)
	}
	for _, review := range reviews {
		if err := writer.Write([]string{review.FullName, review.FirstName, review.LastName, review.Gender, review.Reason}); err != nil {
			return fmt.Errorf("write review row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush review file: %w", err)
	}
	return file.Close()
}
