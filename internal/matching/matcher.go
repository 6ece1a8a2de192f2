package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"cinematch/internal/catalog"
	"cinematch/internal/logging"
	"cinematch/internal/store"
)

const (
	detailNoResults    = "no results"
	detailBelowMinimum = "no candidate above minimum score"
	detailEmptyName    = "empty name"
)

// Catalog is the subset of the catalog client the matcher needs.
type Catalog interface {
	SearchMovies(ctx context.Context, query string, year int) (*catalog.MovieSearchResponse, error)
	MovieDetails(ctx context.Context, id int64) (*catalog.MovieDetails, error)
	SearchPeople(ctx context.Context, query string) (*catalog.PersonSearchResponse, error)
	PersonDetails(ctx context.Context, id int64) (*catalog.PersonDetails, error)
}

// Matcher resolves local records against the catalog.
type Matcher struct {
	catalog Catalog
	movie   MovieOptions
	person  PersonOptions
	logger  *slog.Logger
}

// NewMatcher wires a matcher over a catalog client.
func NewMatcher(cat Catalog, movie MovieOptions, person PersonOptions, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{catalog: cat, movie: movie, person: person, logger: logger}
}

// MatchMovie searches, scores and classifies one local film. An error is
// returned only when the search itself fails or ctx is done; an empty pool
// is reported as a no_match result.
func (m *Matcher) MatchMovie(ctx context.Context, movie store.Movie) (Result, error) {
	result := Result{Kind: KindMovie, LocalID: movie.ID, Status: StatusNoMatch}
	searcher := NewSearcher(m.movie.MaxCandidates, m.logger)
	pool, err := searcher.Collect(ctx, FilmQueries(movie.Title, movie.Year), func(ctx context.Context, q Query) ([]int64, error) {
		resp, err := m.catalog.SearchMovies(ctx, q.Text, q.Year)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(resp.Results))
		for _, r := range resp.Results {
			ids = append(ids, r.ID)
		}
		return ids, nil
	})
	if errors.Is(err, ErrNoCandidates) {
		result.Detail = detailNoResults
		m.logDecision(ctx, result, pool)
		return result, nil
	}
	if err != nil {
		return result, err
	}

	var ranked []Scored
	var skipped []string
	for idx, id := range pool.IDs {
		details, err := m.catalog.MovieDetails(ctx, id)
		if err != nil {
			note, herr := m.hydrationFailure(ctx, idx, id, err)
			if herr != nil {
				return result, herr
			}
			skipped = append(skipped, note)
			continue
		}
		scored := ScoreFilm(movie, details, m.movie)
		m.logCandidate(ctx, idx, scored)
		if scored.Score > 0 {
			ranked = append(ranked, scored)
		}
	}
	return m.finish(ctx, KindMovie, result, pool, ranked, skipped, m.movie.Thresholds), nil
}

// MatchPerson searches, scores and classifies one local person.
func (m *Matcher) MatchPerson(ctx context.Context, person store.Person) (Result, error) {
	result := Result{Kind: KindPerson, LocalID: person.ID, Status: StatusNoMatch}
	name := person.FullName()
	if name == "" {
		result.Detail = detailEmptyName
		m.logDecision(ctx, result, Pool{})
		return result, nil
	}
	searcher := NewSearcher(m.person.MaxCandidates, m.logger)
	pool, err := searcher.Collect(ctx, PersonQueries(name), func(ctx context.Context, q Query) ([]int64, error) {
		resp, err := m.catalog.SearchPeople(ctx, q.Text)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(resp.Results))
		for _, r := range resp.Results {
			ids = append(ids, r.ID)
		}
		return ids, nil
	})
	if errors.Is(err, ErrNoCandidates) {
		result.Detail = detailNoResults
		m.logDecision(ctx, result, pool)
		return result, nil
	}
	if err != nil {
		return result, err
	}

	var ranked []Scored
	var skipped []string
	for idx, id := range pool.IDs {
		details, err := m.catalog.PersonDetails(ctx, id)
		if err != nil {
			note, herr := m.hydrationFailure(ctx, idx, id, err)
			if herr != nil {
				return result, herr
			}
			skipped = append(skipped, note)
			continue
		}
		scored := ScorePerson(person, details, m.person)
		m.logCandidate(ctx, idx, scored)
		if scored.Score > 0 {
			ranked = append(ranked, scored)
		}
	}
	return m.finish(ctx, KindPerson, result, pool, ranked, skipped, m.person.Thresholds), nil
}

// hydrationFailure turns a catalog error on a detail call into a skip note.
// Any other error, including cancellation, aborts the record.
func (m *Matcher) hydrationFailure(ctx context.Context, idx int, id int64, err error) (string, error) {
	var catErr *catalog.CatalogError
	if !errors.As(err, &catErr) || ctx.Err() != nil {
		return "", fmt.Errorf("hydrate candidate %d: %w", id, err)
	}
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "candidate skipped", "candidate_hydration_failed",
		logging.Int64("tmdb_id", id),
		logging.Int("candidate_index", idx+1),
		logging.Int("status_code", catErr.StatusCode),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "catalog detail request failed; the remaining candidates are still scored"),
		logging.String(logging.FieldImpact, "candidate excluded from ranking"),
	)
	return fmt.Sprintf("candidate %d skipped: %v", id, err), nil
}

func (m *Matcher) finish(ctx context.Context, kind Kind, result Result, pool Pool, ranked []Scored, skipped []string, t Thresholds) Result {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) == 0 {
		result.Detail = joinDetail(detailBelowMinimum, stageNote(pool), strings.Join(skipped, "; "))
		m.logDecision(ctx, result, pool)
		return result
	}

	best := ranked[0]
	status, note := Classify(kind, ranked, t)
	result.CandidateID = best.CandidateID
	result.CandidateTitle = best.Title
	result.CandidateYear = best.Year
	result.CandidateBirth = best.Birth
	result.CandidatePlace = best.Place
	result.IMDbID = best.IMDbID
	result.Score = best.Score
	result.Reasons = best.Reasons
	result.Status = status
	result.Detail = joinDetail(best.Details(), note, stageNote(pool), strings.Join(skipped, "; "))
	m.logDecision(ctx, result, pool)
	return result
}

func (m *Matcher) logCandidate(ctx context.Context, idx int, scored Scored) {
	m.logger.DebugContext(ctx, "candidate scored",
		logging.Int("candidate_index", idx+1),
		logging.Int64("tmdb_id", scored.CandidateID),
		logging.String("title", scored.Title),
		logging.Int("year", scored.Year),
		logging.Int("score", scored.Score),
		logging.String("reasons", scored.Details()))
}

func (m *Matcher) logDecision(ctx context.Context, result Result, pool Pool) {
	attrs := logging.DecisionAttrs("match_classification", string(result.Status), result.Detail)
	attrs = append(attrs,
		logging.String("record_kind", string(result.Kind)),
		logging.Int64("local_id", result.LocalID),
		logging.Int64("tmdb_id", result.CandidateID),
		logging.String("tmdb_title", result.CandidateTitle),
		logging.Int("score", result.Score),
		logging.Int("pool_size", len(pool.IDs)),
		logging.String("stages", strings.Join(pool.Stages, ",")),
	)
	m.logger.InfoContext(ctx, "match decision", logging.Args(attrs...)...)
}

// stageNote records fallback stages so reviewers know the match did not come
// from the primary query.
func stageNote(pool Pool) string {
	stage := pool.Stage()
	if stage == "" || len(pool.Stages) <= 1 {
		return ""
	}
	return "[Search: " + stage + "]"
}

func joinDetail(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "; ")
}

