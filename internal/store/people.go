package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MaxPersonTitles caps the filmography loaded per person.
const MaxPersonTitles = 20

// FetchUnmatchedPeople returns people without a catalog id who are credited
// in at least page.MinMovies films, most credited first. Each person carries
// up to MaxPersonTitles of their film titles, newest first.
func (s *Store) FetchUnmatchedPeople(ctx context.Context, page Page) ([]Person, error) {
	minMovies := page.MinMovies
	if minMovies < 0 {
		minMovies = 0
	}
	pageSQL, pageArgs := s.pageClause(page)
	query := `WITH person_movies AS (
            SELECT person_id, COUNT(DISTINCT movie_id) AS movie_count
            FROM (
                SELECT person_id, movie_id FROM movie_cast
                UNION ALL
                SELECT person_id, movie_id FROM movie_crew
            ) credits
            GROUP BY person_id
        )
        SELECT p.id, p.first_name, p.last_name,
               p.birth_year, p.birth_month, p.birth_day,
               p.death_year, p.death_month, p.death_day,
               p.imdb_id, COALESCE(pm.movie_count, 0) AS movie_count
        FROM people p
        LEFT JOIN person_movies pm ON pm.person_id = p.id
        WHERE (p.tmdb_id IS NULL OR p.tmdb_id = 0)
          AND COALESCE(pm.movie_count, 0) >= ?
        ORDER BY movie_count DESC, p.id ` + pageSQL
	args := append([]any{minMovies}, pageArgs...)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query unmatched people: %w", err)
	}
	var people []Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	rows.Close()

	for i := range people {
		titles, err := s.PersonMovieTitles(ctx, people[i].ID, MaxPersonTitles)
		if err != nil {
			return nil, err
		}
		people[i].MovieTitles = titles
	}
	return people, nil
}

func scanPerson(rows *sql.Rows) (Person, error) {
	var person Person
	var first, last, imdbID sql.NullString
	var birthY, birthM, birthD, deathY, deathM, deathD sql.NullInt64
	if err := rows.Scan(&person.ID, &first, &last,
		&birthY, &birthM, &birthD,
		&deathY, &deathM, &deathD,
		&imdbID, &person.MovieCount); err != nil {
		return Person{}, fmt.Errorf("scan person: %w", err)
	}
	person.FirstName = first.String
	person.LastName = last.String
	person.IMDbID = imdbID.String
	person.Birth = PartialDate{Year: int(birthY.Int64), Month: int(birthM.Int64), Day: int(birthD.Int64)}
	person.Death = PartialDate{Year: int(deathY.Int64), Month: int(deathM.Int64), Day: int(deathD.Int64)}
	return person, nil
}

// PersonMovieTitles lists distinct titles a person is credited in (cast or
// crew), newest first.
func (s *Store) PersonMovieTitles(ctx context.Context, personID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxPersonTitles
	}
	query := `SELECT DISTINCT m.title, m.year
        FROM movies m
        JOIN (
            SELECT movie_id FROM movie_cast WHERE person_id = ?
            UNION
            SELECT movie_id FROM movie_crew WHERE person_id = ?
        ) credits ON credits.movie_id = m.id
        ORDER BY m.year DESC NULLS LAST
        LIMIT ?`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), personID, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("query titles for person %d: %w", personID, err)
	}
	defer rows.Close()
	var titles []string
	for rows.Next() {
		var (
			title string
			year  sql.NullInt64
		)
		if err := rows.Scan(&title, &year); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return titles, nil
}

// ApplyPerson writes the catalog id of an accepted person match. The IMDb id
// is only replaced when the catalog provided one.
func (s *Store) ApplyPerson(ctx context.Context, id, tmdbID int64, imdbID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE people SET tmdb_id = ?, imdb_id = COALESCE(?, imdb_id) WHERE id = ?`),
		nullableInt64(tmdbID), nullableString(imdbID), id)
	if err != nil {
		return fmt.Errorf("update person %d: %w", id, MapError(err))
	}
	return requireRow(res, "person", id)
}
