package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cinematch/internal/catalog"
	"cinematch/internal/textutil"
)

// FakeTMDB serves the four TMDB endpoints the catalog client uses from
// in-memory fixtures. Searches match when every normalized query token
// appears in the title or name.
type FakeTMDB struct {
	Server *httptest.Server

	mu     sync.Mutex
	movies []catalog.MovieDetails
	people []catalog.PersonDetails
	fail   map[string]int
	paths  []string
}

// NewFakeTMDB starts a server and registers cleanup.
func NewFakeTMDB(t testing.TB) *FakeTMDB {
	t.Helper()
	fake := &FakeTMDB{fail: map[string]int{}}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Server.Close)
	return fake
}

// URL is the base url to configure the catalog client with.
func (f *FakeTMDB) URL() string {
	return f.Server.URL
}

// AddMovie registers a movie fixture.
func (f *FakeTMDB) AddMovie(movie catalog.MovieDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = append(f.movies, movie)
}

// AddPerson registers a person fixture.
func (f *FakeTMDB) AddPerson(person catalog.PersonDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.people = append(f.people, person)
}

// FailPath makes requests to path answer with status.
func (f *FakeTMDB) FailPath(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = status
}

// Paths returns the request paths seen so far, in order.
func (f *FakeTMDB) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *FakeTMDB) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)

	if status, ok := f.fail[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}

	query := r.URL.Query()
	switch {
	case r.URL.Path == "/configuration":
		writeJSON(w, map[string]any{"images": map[string]any{}})
	case r.URL.Path == "/search/movie":
		year, _ := strconv.Atoi(query.Get("year"))
		var results []catalog.MovieResult
		for _, movie := range f.movies {
			if year > 0 && movie.Year() != year {
				continue
			}
			if tokensMatch(query.Get("query"), movie.Title, movie.OriginalTitle) {
				results = append(results, movie.MovieResult)
			}
		}
		writeJSON(w, catalog.MovieSearchResponse{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)})
	case r.URL.Path == "/search/person":
		var results []catalog.PersonResult
		for _, person := range f.people {
			if tokensMatch(query.Get("query"), person.Name, person.OriginalName) {
				results = append(results, person.PersonResult)
			}
		}
		writeJSON(w, catalog.PersonSearchResponse{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)})
	case strings.HasPrefix(r.URL.Path, "/movie/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/movie/"), 10, 64)
		for _, movie := range f.movies {
			if movie.ID == id {
				writeJSON(w, movie)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case strings.HasPrefix(r.URL.Path, "/person/"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/person/"), 10, 64)
		for _, person := range f.people {
			if person.ID == id {
				writeJSON(w, person)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func tokensMatch(query string, fields ...string) bool {
	want := textutil.Tokens(query)
	if len(want) == 0 {
		return false
	}
	for _, field := range fields {
		have := make(map[string]struct{})
		for _, token := range textutil.Tokens(field) {
			have[token] = struct{}{}
		}
		matched := true
		for _, token := range want {
			if _, ok := have[token]; !ok {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
