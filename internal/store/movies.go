package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func (s *Store) directorAggregate() string {
	if s.driver == DriverPostgres {
		return "STRING_AGG(CONCAT(p.first_name, ' ', p.last_name), '|')"
	}
	return "GROUP_CONCAT(TRIM(COALESCE(p.first_name, '') || ' ' || COALESCE(p.last_name, '')), '|')"
}

// FetchUnmatchedMovies returns films without an IMDb id, newest first, with
// their credited directors.
func (s *Store) FetchUnmatchedMovies(ctx context.Context, page Page) ([]Movie, error) {
	pageSQL, pageArgs := s.pageClause(page)
	query := `SELECT m.id, m.title, m.year, m.duration, m.imdb_id, ` + s.directorAggregate() + ` AS director_names
        FROM movies m
        LEFT JOIN movie_crew mc ON m.id = mc.movie_id AND mc.role_id = ?
        LEFT JOIN people p ON mc.person_id = p.id
        WHERE m.imdb_id IS NULL OR m.imdb_id = ''
        GROUP BY m.id, m.title, m.year, m.duration, m.imdb_id
        ORDER BY m.year DESC NULLS LAST, m.id ` + pageSQL
	args := append([]any{s.directorRoleID}, pageArgs...)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query unmatched movies: %w", err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var (
			movie     Movie
			year      sql.NullInt64
			duration  sql.NullInt64
			imdbID    sql.NullString
			directors sql.NullString
		)
		if err := rows.Scan(&movie.ID, &movie.Title, &year, &duration, &imdbID, &directors); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movie.Year = int(year.Int64)
		movie.Duration = int(duration.Int64)
		movie.IMDbID = imdbID.String
		movie.Directors = splitDirectors(directors.String)
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

func splitDirectors(joined string) []string {
	var names []string
	for _, name := range strings.Split(joined, "|") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ApplyMovie writes the catalog and IMDb ids of an accepted film match.
func (s *Store) ApplyMovie(ctx context.Context, id, tmdbID int64, imdbID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE movies SET imdb_id = COALESCE(?, imdb_id), tmdb_id = ? WHERE id = ?`),
		nullableString(imdbID), nullableInt64(tmdbID), id)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", id, MapError(err))
	}
	return requireRow(res, "movie", id)
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
