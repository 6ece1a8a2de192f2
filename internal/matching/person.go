package matching

import (
	"fmt"
	"strings"

	"cinematch/internal/catalog"
	"cinematch/internal/store"
	"cinematch/internal/textutil"
)

// DefaultBirthplaceKeywords are the normalized place fragments that earn the
// birthplace bonus.
var DefaultBirthplaceKeywords = []string{"argentina", "buenos aires", "cordoba", "rosario", "mendoza"}

// PersonOptions tunes person scoring and classification.
type PersonOptions struct {
	Thresholds         Thresholds
	BirthplaceKeywords []string
	BirthplaceBonus    int
	MaxCandidates      int
	MaxLocalTitles     int
}

// DefaultPersonOptions returns the person scoring defaults.
func DefaultPersonOptions() PersonOptions {
	return PersonOptions{
		Thresholds:         DefaultThresholds(),
		BirthplaceKeywords: append([]string(nil), DefaultBirthplaceKeywords...),
		BirthplaceBonus:    15,
		MaxCandidates:      MaxHydrated,
		MaxLocalTitles:     20,
	}
}

// nameTier maps a name similarity to the 30/20/10 person tiers.
func nameTier(similarity int) (ReasonCode, int) {
	switch {
	case similarity >= 95:
		return ReasonExactName, 30
	case similarity >= 80:
		return ReasonSimilarName, 20
	case similarity >= 60:
		return ReasonPartialName, 10
	default:
		return "", 0
	}
}

// ScorePerson scores a hydrated catalog person against a local person.
func ScorePerson(local store.Person, candidate *catalog.PersonDetails, opts PersonOptions) Scored {
	scored := Scored{
		CandidateID: candidate.ID,
		Title:       candidate.Name,
		IMDbID:      strings.TrimSpace(candidate.IMDbID),
		Birth:       strings.TrimSpace(candidate.Birthday),
		Place:       strings.TrimSpace(candidate.PlaceOfBirth),
	}
	fullName := local.FullName()

	similarity := textutil.Similarity(fullName, candidate.Name)
	if code, points := nameTier(similarity); points > 0 {
		scored.add(code, points, fmt.Sprintf("name %d%%", similarity))
	}
	for _, alias := range candidate.AlsoKnownAs {
		aliasSimilarity := textutil.Similarity(fullName, alias)
		if aliasSimilarity >= 90 && aliasSimilarity > similarity {
			scored.add(ReasonAliasMatch, 10, fmt.Sprintf("alias match: %s", alias))
			break
		}
	}

	scoreDate(&scored, ReasonBirthDate, "birth", local.Birth, candidate.Birthday)
	scoreDate(&scored, ReasonDeathDate, "death", local.Death, candidate.Deathday)

	if place := textutil.Normalize(candidate.PlaceOfBirth); place != "" {
		for _, keyword := range opts.BirthplaceKeywords {
			keyword = textutil.Normalize(keyword)
			if keyword != "" && strings.Contains(place, keyword) {
				scored.add(ReasonBirthplace, opts.BirthplaceBonus, "born in "+candidate.PlaceOfBirth)
				break
			}
		}
	}

	if shared := sharedFilms(local.MovieTitles, candidate.CreditTitles(), opts.MaxLocalTitles); shared > 0 {
		scored.Score += min(shared*10, 30)
		scored.Reasons = append(scored.Reasons, Reason{
			Code:   ReasonSharedFilms,
			Points: min(shared*10, 30),
			Count:  shared,
			Detail: fmt.Sprintf("%d shared film(s)", shared),
		})
	}
	return scored
}

func scoreDate(scored *Scored, code ReasonCode, label string, local store.PartialDate, remote string) {
	if local.IsZero() || strings.TrimSpace(remote) == "" {
		return
	}
	score := CompareDates(local, ParseDate(remote))
	if score < 50 {
		return
	}
	scored.add(code, score/2, fmt.Sprintf("%s date matches (%d%%)", label, score))
}

// sharedFilms counts local titles (newest first, capped at limit) that are
// at least 80% similar to a credited catalog title.
func sharedFilms(localTitles, creditTitles []string, limit int) int {
	if len(localTitles) == 0 || len(creditTitles) == 0 {
		return 0
	}
	if limit > 0 && len(localTitles) > limit {
		localTitles = localTitles[:limit]
	}
	credits := make([]string, 0, len(creditTitles))
	for _, title := range creditTitles {
		if normalized := textutil.Normalize(title); normalized != "" {
			credits = append(credits, normalized)
		}
	}
	count := 0
	for _, title := range localTitles {
		normalized := textutil.Normalize(title)
		if normalized == "" {
			continue
		}
		for _, credit := range credits {
			if textutil.Similarity(normalized, credit) >= 80 {
				count++
				break
			}
		}
	}
	return count
}
