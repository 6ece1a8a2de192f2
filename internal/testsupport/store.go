package testsupport

import (
	"context"
	"testing"

	"cinematch/internal/config"
	"cinematch/internal/store"
)

// MustOpenStore opens the local catalog described by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), store.Options{
		Driver:         cfg.Database.Driver,
		URL:            cfg.Database.URL,
		DirectorRoleID: cfg.Database.DirectorRoleID,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// Seeded holds the local ids SeedCatalog created, keyed by title or full name.
type Seeded struct {
	Movies map[string]int64
	People map[string]int64
}

// SeedCatalog inserts a small Argentine catalogue: two films, their
// directors, and one actor credited in both.
func SeedCatalog(t testing.TB, st *store.Store) Seeded {
	t.Helper()
	ctx := context.Background()
	seeded := Seeded{Movies: map[string]int64{}, People: map[string]int64{}}

	movie := func(m store.Movie) int64 {
		id, err := st.InsertMovie(ctx, m)
		if err != nil {
			t.Fatalf("insert movie %q: %v", m.Title, err)
		}
		seeded.Movies[m.Title] = id
		return id
	}
	person := func(p store.Person) int64 {
		id, err := st.InsertPerson(ctx, p)
		if err != nil {
			t.Fatalf("insert person %q: %v", p.FullName(), err)
		}
		seeded.People[p.FullName()] = id
		return id
	}

	reinas := movie(store.Movie{Title: "Nueve reinas", Year: 2000, Duration: 114})
	cienaga := movie(store.Movie{Title: "La ciénaga", Year: 2001, Duration: 103})

	bielinsky := person(store.Person{
		FirstName: "Fabián",
		LastName:  "Bielinsky",
		Birth:     store.PartialDate{Year: 1959, Month: 2, Day: 3},
		Death:     store.PartialDate{Year: 2006, Month: 6, Day: 29},
	})
	martel := person(store.Person{
		FirstName: "Lucrecia",
		LastName:  "Martel",
		Birth:     store.PartialDate{Year: 1966, Month: 12, Day: 14},
	})
	darin := person(store.Person{
		FirstName: "Ricardo",
		LastName:  "Darín",
		Birth:     store.PartialDate{Year: 1957, Month: 1, Day: 16},
	})

	for _, link := range []struct{ movie, person int64 }{{reinas, bielinsky}, {cienaga, martel}} {
		if err := st.AddDirector(ctx, link.movie, link.person); err != nil {
			t.Fatalf("add director: %v", err)
		}
	}
	for _, movieID := range []int64{reinas, cienaga} {
		if err := st.AddCast(ctx, movieID, darin); err != nil {
			t.Fatalf("add cast: %v", err)
		}
	}
	return seeded
}
