package matching

import (
	"fmt"
	"strings"

	"cinematch/internal/catalog"
	"cinematch/internal/store"
	"cinematch/internal/textutil"
)

// MovieOptions tunes film scoring and classification.
type MovieOptions struct {
	Thresholds        Thresholds
	DirectorBonus     int
	CountryBonus      int
	TargetCountry     string
	DurationTolerance int
	DurationBonus     int
	MaxCandidates     int
}

// DefaultMovieOptions returns the film scoring defaults.
func DefaultMovieOptions() MovieOptions {
	return MovieOptions{
		Thresholds:        DefaultThresholds(),
		DirectorBonus:     30,
		CountryBonus:      20,
		TargetCountry:     "AR",
		DurationTolerance: 10,
		DurationBonus:     10,
		MaxCandidates:     MaxHydrated,
	}
}

// titleTier maps a similarity value to the shared 40/30/15 title tiers.
func titleTier(similarity int) (ReasonCode, int) {
	switch {
	case similarity >= 95:
		return ReasonExactTitle, 40
	case similarity >= 80:
		return ReasonSimilarTitle, 30
	case similarity >= 60:
		return ReasonPartialTitle, 15
	default:
		return "", 0
	}
}

// ScoreFilm scores a hydrated catalog movie against a local film.
func ScoreFilm(local store.Movie, candidate *catalog.MovieDetails, opts MovieOptions) Scored {
	scored := Scored{
		CandidateID: candidate.ID,
		Title:       candidate.Title,
		Year:        candidate.Year(),
		IMDbID:      strings.TrimSpace(candidate.IMDbID),
	}

	similarity := textutil.CompareTitles(local.Title, candidate.Title)
	if candidate.OriginalTitle != "" {
		similarity = max(similarity, textutil.CompareTitles(local.Title, candidate.OriginalTitle))
	}
	if code, points := titleTier(similarity); points > 0 {
		scored.add(code, points, fmt.Sprintf("title %d%%", similarity))
	}

	if local.Year > 0 && scored.Year > 0 {
		switch diff := local.Year - scored.Year; {
		case diff == 0:
			scored.add(ReasonYearExact, 25, "exact year")
		case diff == 1 || diff == -1:
			scored.add(ReasonYearNear, 15, fmt.Sprintf("year ±1 (%d vs %d)", local.Year, scored.Year))
		}
	}

	scoreDirectors(&scored, local.Directors, candidate.Directors(), opts.DirectorBonus)

	if opts.TargetCountry != "" && candidate.HasCountry(opts.TargetCountry) {
		scored.add(ReasonCountry, opts.CountryBonus, "production country "+strings.ToUpper(opts.TargetCountry))
	}

	if local.Duration > 0 && candidate.Runtime > 0 {
		diff := local.Duration - candidate.Runtime
		if diff < 0 {
			diff = -diff
		}
		if diff <= opts.DurationTolerance {
			scored.add(ReasonDuration, opts.DurationBonus, fmt.Sprintf("similar runtime (%d vs %d min)", local.Duration, candidate.Runtime))
		}
	}
	return scored
}

func scoreDirectors(scored *Scored, local, remote []string, bonus int) {
	local = nonEmpty(local)
	remote = nonEmpty(remote)
	if len(local) == 0 || len(remote) == 0 {
		return
	}
	for _, l := range local {
		for _, r := range remote {
			if m := textutil.ComparePersonNames(l, r); m.Match {
				scored.add(ReasonDirectorMatch, bonus, fmt.Sprintf("director match: %s (%s)", r, m.Confidence))
				return
			}
		}
	}
	scored.Reasons = append(scored.Reasons, Reason{
		Code:   ReasonDirectorMismatch,
		Detail: fmt.Sprintf("director mismatch (local: %s; catalog: %s)", strings.Join(local, ", "), strings.Join(remote, ", ")),
	})
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
