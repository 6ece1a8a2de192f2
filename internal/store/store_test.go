package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"cinematch/internal/store"
)

func openTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := store.Open(context.Background(), store.Options{Driver: store.DriverSQLite, URL: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func mustInsertMovie(t *testing.T, s *store.Store, m store.Movie) int64 {
	t.Helper()
	id, err := s.InsertMovie(context.Background(), m)
	if err != nil {
		t.Fatalf("insert movie: %v", err)
	}
	return id
}

func mustInsertPerson(t *testing.T, s *store.Store, p store.Person) int64 {
	t.Helper()
	id, err := s.InsertPerson(context.Background(), p)
	if err != nil {
		t.Fatalf("insert person: %v", err)
	}
	return id
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := store.Open(context.Background(), store.Options{Driver: "mysql", URL: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := store.Open(context.Background(), store.Options{Driver: store.DriverSQLite}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestFetchUnmatchedMoviesOrderAndDirectors(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	older := mustInsertMovie(t, s, store.Movie{Title: "Nueve reinas", Year: 2000, Duration: 114})
	newer := mustInsertMovie(t, s, store.Movie{Title: "La ciénaga", Year: 2001})
	undated := mustInsertMovie(t, s, store.Movie{Title: "Sin fecha"})
	mustInsertMovie(t, s, store.Movie{Title: "Ya vinculada", Year: 2010, IMDbID: "tt0000001"})

	martel := mustInsertPerson(t, s, store.Person{FirstName: "Lucrecia", LastName: "Martel"})
	bielinsky := mustInsertPerson(t, s, store.Person{FirstName: "Fabián", LastName: "Bielinsky"})
	if err := s.AddDirector(ctx, newer, martel); err != nil {
		t.Fatal(err)
	}
	if err := s.AddDirector(ctx, older, bielinsky); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCrew(ctx, older, martel, 99); err != nil {
		t.Fatal(err)
	}

	movies, err := s.FetchUnmatchedMovies(ctx, store.Page{})
	if err != nil {
		t.Fatalf("FetchUnmatchedMovies: %v", err)
	}
	var ids []int64
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	if !reflect.DeepEqual(ids, []int64{newer, older, undated}) {
		t.Fatalf("order = %v", ids)
	}
	if !reflect.DeepEqual(movies[0].Directors, []string{"Lucrecia Martel"}) {
		t.Fatalf("directors = %v", movies[0].Directors)
	}
	if !reflect.DeepEqual(movies[1].Directors, []string{"Fabián Bielinsky"}) || movies[1].Duration != 114 {
		t.Fatalf("movie = %+v", movies[1])
	}
	if len(movies[2].Directors) != 0 {
		t.Fatalf("undated directors = %v", movies[2].Directors)
	}

	page, err := s.FetchUnmatchedMovies(ctx, store.Page{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("paged fetch: %v", err)
	}
	if len(page) != 1 || page[0].ID != older {
		t.Fatalf("page = %+v", page)
	}
	offsetOnly, err := s.FetchUnmatchedMovies(ctx, store.Page{Offset: 2})
	if err != nil {
		t.Fatalf("offset fetch: %v", err)
	}
	if len(offsetOnly) != 1 || offsetOnly[0].ID != undated {
		t.Fatalf("offset page = %+v", offsetOnly)
	}
}

func TestApplyMovie(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	id := mustInsertMovie(t, s, store.Movie{Title: "Zama", Year: 2017})

	if err := s.ApplyMovie(ctx, id, 400, "tt4183692"); err != nil {
		t.Fatalf("ApplyMovie: %v", err)
	}
	movies, err := s.FetchUnmatchedMovies(ctx, store.Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 0 {
		t.Fatalf("applied movie still unmatched: %+v", movies)
	}
	var tmdbID int64
	var imdbID string
	if err := s.DB().QueryRow(`SELECT tmdb_id, imdb_id FROM movies WHERE id = ?`, id).Scan(&tmdbID, &imdbID); err != nil {
		t.Fatal(err)
	}
	if tmdbID != 400 || imdbID != "tt4183692" {
		t.Fatalf("stored %d %s", tmdbID, imdbID)
	}
	if err := s.ApplyMovie(ctx, 9999, 1, "tt1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchUnmatchedPeople(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	m1 := mustInsertMovie(t, s, store.Movie{Title: "Primera", Year: 1950})
	m2 := mustInsertMovie(t, s, store.Movie{Title: "Segunda", Year: 1960})
	m3 := mustInsertMovie(t, s, store.Movie{Title: "Tercera"})

	busy := mustInsertPerson(t, s, store.Person{FirstName: "Tita", LastName: "Merello", Birth: store.PartialDate{Year: 1904, Month: 10}})
	single := mustInsertPerson(t, s, store.Person{FirstName: "Luis", LastName: "Sandrini"})
	mustInsertPerson(t, s, store.Person{FirstName: "Sin", LastName: "Películas"})

	for _, m := range []int64{m1, m2, m3} {
		if err := s.AddCast(ctx, m, busy); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddCrew(ctx, m1, busy, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCast(ctx, m2, single); err != nil {
		t.Fatal(err)
	}

	people, err := s.FetchUnmatchedPeople(ctx, store.Page{MinMovies: 1})
	if err != nil {
		t.Fatalf("FetchUnmatchedPeople: %v", err)
	}
	if len(people) != 2 || people[0].ID != busy || people[1].ID != single {
		t.Fatalf("people = %+v", people)
	}
	if people[0].MovieCount != 3 {
		t.Fatalf("movie count = %d, want 3", people[0].MovieCount)
	}
	if !reflect.DeepEqual(people[0].MovieTitles, []string{"Segunda", "Primera", "Tercera"}) {
		t.Fatalf("titles = %v", people[0].MovieTitles)
	}
	if people[0].Birth != (store.PartialDate{Year: 1904, Month: 10}) || people[0].FullName() != "Tita Merello" {
		t.Fatalf("person = %+v", people[0])
	}

	all, err := s.FetchUnmatchedPeople(ctx, store.Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("min movies 0 should include everyone, got %d", len(all))
	}
}

func TestApplyPersonKeepsExistingIMDbID(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	id := mustInsertPerson(t, s, store.Person{FirstName: "Niní", LastName: "Marshall", IMDbID: "nm0550956"})

	if err := s.ApplyPerson(ctx, id, 1234, ""); err != nil {
		t.Fatalf("ApplyPerson: %v", err)
	}
	var tmdbID int64
	var imdbID string
	if err := s.DB().QueryRow(`SELECT tmdb_id, imdb_id FROM people WHERE id = ?`, id).Scan(&tmdbID, &imdbID); err != nil {
		t.Fatal(err)
	}
	if tmdbID != 1234 || imdbID != "nm0550956" {
		t.Fatalf("stored %d %s", tmdbID, imdbID)
	}
}

func TestFirstNameGenders(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	if err := s.InsertFirstNameGender(ctx, "Jorge", "MALE"); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertFirstNameGender(ctx, `"Jorge"`, "FEMALE"); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertFirstNameGender(ctx, "Andrea", ""); err != nil {
		t.Fatal(err)
	}
	genders, err := s.FirstNameGenders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"jorge": "MALE", "andrea": ""}
	if !reflect.DeepEqual(genders, want) {
		t.Fatalf("genders = %v, want %v", genders, want)
	}

	_, err = s.DB().Exec(`INSERT INTO first_name_genders (name, gender) VALUES ('JORGE', 'MALE')`)
	if !errors.Is(store.MapError(err), store.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	s, path := openTestStore(t)
	if _, err := s.DB().Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	_, err := store.Open(context.Background(), store.Options{Driver: store.DriverSQLite, URL: path})
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
