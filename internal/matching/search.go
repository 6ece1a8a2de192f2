package matching

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"cinematch/internal/logging"
	"cinematch/internal/services"
)

// MaxHydrated is the default number of unique candidates fetched in detail.
const MaxHydrated = 5

// Search stage names recorded in Pool.Stages.
const (
	StageTitleYear    = "title+year"
	StageTitle        = "title"
	StageNoSequel     = "sequel stripped"
	StageCommaPrefix  = "comma prefix"
	StageColonPrefix  = "colon prefix"
	StageExactName    = "exact name"
	minPrefixLength   = 3
	minStrippedLength = 3
)

// ErrNoCandidates reports that every search stage came back empty.
var ErrNoCandidates = fmt.Errorf("no candidates: %w", services.ErrNotFound)

var (
	romanSequelPattern  = regexp.MustCompile(`\b[IVX]{2,}\b\s*[:.\-]?`)
	arabicSequelPattern = regexp.MustCompile(`\b\d+\s*[:.\-]`)
	spacesPattern       = regexp.MustCompile(`\s+`)
)

// Query is one search attempt of the cascade.
type Query struct {
	Stage string
	Text  string
	Year  int
}

func (q Query) key() string {
	return fmt.Sprintf("%s|%d", strings.ToLower(q.Text), q.Year)
}

// FilmQueries builds the film search cascade for a local title and year.
func FilmQueries(title string, year int) []Query {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	queries := make([]Query, 0, 5)
	if year > 0 {
		queries = append(queries, Query{Stage: StageTitleYear, Text: title, Year: year})
	}
	queries = append(queries, Query{Stage: StageTitle, Text: title})
	if stripped := StripSequelMarkers(title); stripped != title && len([]rune(stripped)) > minStrippedLength {
		queries = append(queries, Query{Stage: StageNoSequel, Text: stripped})
	}
	if prefix, ok := prefixBefore(title, ","); ok {
		queries = append(queries, Query{Stage: StageCommaPrefix, Text: prefix})
	}
	if prefix, ok := prefixBefore(title, ":"); ok {
		queries = append(queries, Query{Stage: StageColonPrefix, Text: prefix})
	}
	return dedupeQueries(queries)
}

// PersonQueries builds the person search cascade. People are searched by
// exact name only.
func PersonQueries(name string) []Query {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return []Query{{Stage: StageExactName, Text: name}}
}

// StripSequelMarkers removes multi-letter roman numerals and numbered
// prefixes such as "2:" from a title.
func StripSequelMarkers(title string) string {
	stripped := romanSequelPattern.ReplaceAllString(title, " ")
	stripped = arabicSequelPattern.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(spacesPattern.ReplaceAllString(stripped, " "))
}

func prefixBefore(title, sep string) (string, bool) {
	idx := strings.Index(title, sep)
	if idx < 0 {
		return "", false
	}
	prefix := strings.TrimSpace(title[:idx])
	if len([]rune(prefix)) < minPrefixLength {
		return "", false
	}
	return prefix, true
}

func dedupeQueries(queries []Query) []Query {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if _, ok := seen[q.key()]; ok {
			continue
		}
		seen[q.key()] = struct{}{}
		out = append(out, q)
	}
	return out
}

// SearchFunc runs a single query and returns candidate ids in catalog order.
type SearchFunc func(ctx context.Context, q Query) ([]int64, error)

// Pool is the outcome of a search cascade.
type Pool struct {
	IDs    []int64
	Stages []string
	// Found is the number of unique ids before the hydration cap.
	Found int
}

// Stage returns the stage that produced the pool, or "" when empty.
func (p Pool) Stage() string {
	if len(p.IDs) == 0 || len(p.Stages) == 0 {
		return ""
	}
	return p.Stages[len(p.Stages)-1]
}

// Searcher runs search cascades.
type Searcher struct {
	limit  int
	logger *slog.Logger
}

// NewSearcher returns a Searcher that keeps at most limit unique ids.
// A non-positive limit falls back to MaxHydrated.
func NewSearcher(limit int, logger *slog.Logger) *Searcher {
	if limit <= 0 {
		limit = MaxHydrated
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Searcher{limit: limit, logger: logger}
}

// Collect runs queries in order and stops after the first stage that returns
// at least one id. It returns ErrNoCandidates when every stage is empty.
func (s *Searcher) Collect(ctx context.Context, queries []Query, fn SearchFunc) (Pool, error) {
	var pool Pool
	seen := make(map[int64]struct{})
	for _, q := range dedupeQueries(append([]Query(nil), queries...)) {
		if err := ctx.Err(); err != nil {
			return pool, err
		}
		pool.Stages = append(pool.Stages, q.Stage)
		ids, err := fn(ctx, q)
		if err != nil {
			return pool, fmt.Errorf("search %s %q: %w", q.Stage, q.Text, err)
		}
		for _, id := range ids {
			if id <= 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			pool.Found++
			if len(pool.IDs) < s.limit {
				pool.IDs = append(pool.IDs, id)
			}
		}
		s.logger.DebugContext(ctx, "search stage complete",
			logging.String("stage", q.Stage),
			logging.String("query", q.Text),
			logging.Int("year", q.Year),
			logging.Int("results", len(ids)))
		if len(pool.IDs) > 0 {
			return pool, nil
		}
	}
	return pool, ErrNoCandidates
}
