package enrich

import (
	"context"

	"cinematch/internal/matching"
	"cinematch/internal/store"
)

// Record is one local film or person awaiting a match.
type Record struct {
	Kind   matching.Kind
	Movie  store.Movie
	Person store.Person
}

// ID returns the local id.
func (r Record) ID() int64 {
	if r.Kind == matching.KindPerson {
		return r.Person.ID
	}
	return r.Movie.ID
}

// Label is a short human description for logs and progress output.
func (r Record) Label() string {
	if r.Kind == matching.KindPerson {
		return r.Person.FullName()
	}
	return r.Movie.Title
}

// Extra carries optional values written alongside an accepted match.
type Extra struct {
	IMDbID string
}

// Source reads unmatched records and applies accepted matches.
type Source interface {
	Kind() matching.Kind
	FetchUnmatched(ctx context.Context, page store.Page) ([]Record, error)
	Apply(ctx context.Context, localID, candidateID int64, extra Extra) error
}

// MovieStore is the store surface used for films.
type MovieStore interface {
	FetchUnmatchedMovies(ctx context.Context, page store.Page) ([]store.Movie, error)
	ApplyMovie(ctx context.Context, id, tmdbID int64, imdbID string) error
}

// PersonStore is the store surface used for people.
type PersonStore interface {
	FetchUnmatchedPeople(ctx context.Context, page store.Page) ([]store.Person, error)
	ApplyPerson(ctx context.Context, id, tmdbID int64, imdbID string) error
}

// MovieSource adapts a MovieStore to Source.
type MovieSource struct {
	Store MovieStore
}

// Kind implements Source.
func (MovieSource) Kind() matching.Kind { return matching.KindMovie }

// FetchUnmatched implements Source.
func (s MovieSource) FetchUnmatched(ctx context.Context, page store.Page) ([]Record, error) {
	movies, err := s.Store.FetchUnmatchedMovies(ctx, page)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(movies))
	for _, movie := range movies {
		records = append(records, Record{Kind: matching.KindMovie, Movie: movie})
	}
	return records, nil
}

// Apply implements Source.
func (s MovieSource) Apply(ctx context.Context, localID, candidateID int64, extra Extra) error {
	return s.Store.ApplyMovie(ctx, localID, candidateID, extra.IMDbID)
}

// PersonSource adapts a PersonStore to Source.
type PersonSource struct {
	Store PersonStore
}

// Kind implements Source.
func (PersonSource) Kind() matching.Kind { return matching.KindPerson }

// FetchUnmatched implements Source.
func (s PersonSource) FetchUnmatched(ctx context.Context, page store.Page) ([]Record, error) {
	people, err := s.Store.FetchUnmatchedPeople(ctx, page)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(people))
	for _, person := range people {
		records = append(records, Record{Kind: matching.KindPerson, Person: person})
	}
	return records, nil
}

// Apply implements Source.
func (s PersonSource) Apply(ctx context.Context, localID, candidateID int64, extra Extra) error {
	return s.Store.ApplyPerson(ctx, localID, candidateID, extra.IMDbID)
}
