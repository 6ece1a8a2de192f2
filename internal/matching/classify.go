package matching

import (
	"fmt"
	"strings"
)

const (
	noteFilmOverride   = "[Auto: exact title + director]"
	notePersonOverride = "[Auto: exact name + films]"
	maxAlternatives    = 2
)

// Classify assigns a status to the best of ranked candidates (sorted by
// score, best first) and returns an optional note for the ledger.
//
// Rules apply in order: a director mismatch or a missing title/name tier
// caps the outcome at review; the auto threshold accepts; the exact
// title+director (films) or exact name+shared films (people) override
// accepts; a second candidate above the review threshold makes the record
// multiple; otherwise review or no_match by the review threshold.
func Classify(kind Kind, ranked []Scored, t Thresholds) (Status, string) {
	if len(ranked) == 0 {
		return StatusNoMatch, ""
	}
	best := ranked[0]

	if best.DirectorMismatch() || !best.HasTitleTier() {
		if best.Score >= t.Review {
			return StatusReview, ""
		}
		return StatusNoMatch, ""
	}
	if best.Score >= t.AutoAccept {
		return StatusAutoAccept, ""
	}
	if note, ok := override(kind, best, t); ok {
		return StatusAutoAccept, note
	}
	if best.Score >= t.Review {
		if len(ranked) > 1 && ranked[1].Score >= t.Review {
			return StatusMultiple, alternativesNote(ranked[1:])
		}
		return StatusReview, ""
	}
	return StatusNoMatch, ""
}

func override(kind Kind, best Scored, t Thresholds) (string, bool) {
	switch kind {
	case KindMovie:
		if best.Has(ReasonExactTitle) && best.Has(ReasonDirectorMatch) {
			return noteFilmOverride, true
		}
	case KindPerson:
		shared, ok := best.Reason(ReasonSharedFilms)
		if best.Has(ReasonExactName) && ok && t.OverrideSharedFilms > 0 && shared.Count >= t.OverrideSharedFilms {
			return notePersonOverride, true
		}
	}
	return "", false
}

func alternativesNote(others []Scored) string {
	if len(others) > maxAlternatives {
		others = others[:maxAlternatives]
	}
	parts := make([]string, 0, len(others))
	for _, alt := range others {
		parts = append(parts, fmt.Sprintf("%s (%d)", alt.Title, alt.Score))
	}
	return "[Alternatives: " + strings.Join(parts, ", ") + "]"
}
