package store

import (
	"context"
	"fmt"
)

// InsertMovie adds a film and returns its id.
func (s *Store) InsertMovie(ctx context.Context, m Movie) (int64, error) {
	return s.insertReturningID(ctx,
		`INSERT INTO movies (title, year, duration, imdb_id) VALUES (?, ?, ?, ?)`,
		m.Title, nullableInt64(int64(m.Year)), nullableInt64(int64(m.Duration)), nullableString(m.IMDbID))
}

// InsertPerson adds a person and returns its id.
func (s *Store) InsertPerson(ctx context.Context, p Person) (int64, error) {
	return s.insertReturningID(ctx,
		`INSERT INTO people (first_name, last_name, birth_year, birth_month, birth_day, death_year, death_month, death_day, imdb_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(p.FirstName), nullableString(p.LastName),
		nullableInt64(int64(p.Birth.Year)), nullableInt64(int64(p.Birth.Month)), nullableInt64(int64(p.Birth.Day)),
		nullableInt64(int64(p.Death.Year)), nullableInt64(int64(p.Death.Month)), nullableInt64(int64(p.Death.Day)),
		nullableString(p.IMDbID))
}

// AddCast credits a person as cast of a film.
func (s *Store) AddCast(ctx context.Context, movieID, personID int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO movie_cast (movie_id, person_id) VALUES (?, ?)`), movieID, personID)
	if err != nil {
		return fmt.Errorf("insert cast: %w", err)
	}
	return nil
}

// AddCrew credits a person with a crew role on a film.
func (s *Store) AddCrew(ctx context.Context, movieID, personID, roleID int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO movie_crew (movie_id, person_id, role_id) VALUES (?, ?, ?)`), movieID, personID, roleID)
	if err != nil {
		return fmt.Errorf("insert crew: %w", err)
	}
	return nil
}

// AddDirector credits a person as director using the configured role id.
func (s *Store) AddDirector(ctx context.Context, movieID, personID int64) error {
	return s.AddCrew(ctx, movieID, personID, s.directorRoleID)
}

func (s *Store) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert: %w", MapError(err))
		}
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", MapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}
