package store

import (
	"fmt"
	"strings"
)

// PartialDate is a calendar date where month and day may be unknown (zero).
type PartialDate struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether the year is unknown.
func (d PartialDate) IsZero() bool {
	return d.Year <= 0
}

// String renders YYYY, YYYY-MM or YYYY-MM-DD depending on known parts.
func (d PartialDate) String() string {
	if d.IsZero() {
		return ""
	}
	if d.Month <= 0 {
		return fmt.Sprintf("%04d", d.Year)
	}
	if d.Day <= 0 {
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Movie is a local film still lacking an external identifier.
type Movie struct {
	ID        int64
	Title     string
	Year      int
	Duration  int
	Directors []string
	IMDbID    string
}

// Person is a local person still lacking an external identifier.
type Person struct {
	ID          int64
	FirstName   string
	LastName    string
	Birth       PartialDate
	Death       PartialDate
	IMDbID      string
	MovieCount  int
	MovieTitles []string
}

// FullName joins first and last name with a single space.
func (p Person) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(p.FirstName+" "+p.LastName), " "))
}
