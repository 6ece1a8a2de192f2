package matching

import (
	"strconv"
	"strings"

	"cinematch/internal/store"
)

// ParseDate reads a catalog "YYYY-MM-DD" date. Missing or malformed parts
// are left at zero.
func ParseDate(value string) store.PartialDate {
	parts := strings.SplitN(strings.TrimSpace(value), "-", 3)
	var date store.PartialDate
	fields := []*int{&date.Year, &date.Month, &date.Day}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			break
		}
		*fields[i] = n
	}
	return date
}

// CompareDates scores how well two partial dates agree: 50 for the same
// year, then 30 more for the same month and 20 more for the same day. Years
// one apart score 20. Unknown years score 0.
func CompareDates(a, b store.PartialDate) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	if a.Year != b.Year {
		if a.Year-b.Year == 1 || b.Year-a.Year == 1 {
			return 20
		}
		return 0
	}
	score := 50
	if a.Month > 0 && b.Month > 0 && a.Month == b.Month {
		score += 30
		if a.Day > 0 && b.Day > 0 && a.Day == b.Day {
			score += 20
		}
	}
	return score
}
