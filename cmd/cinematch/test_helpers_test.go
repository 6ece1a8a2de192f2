package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cinematch/internal/catalog"
	"cinematch/internal/config"
	"cinematch/internal/store"
	"cinematch/internal/testsupport"
)

const reinasTMDBID = 8834

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	seeded     testsupport.Seeded
	tmdb       *testsupport.FakeTMDB
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())
	for _, key := range []string{"TMDB_API_KEY", "TMDB_ACCESS_TOKEN", "DATABASE_URL", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	tmdb := testsupport.NewFakeTMDB(t)
	tmdb.AddMovie(catalog.MovieDetails{
		MovieResult: catalog.MovieResult{
			ID:            reinasTMDBID,
			Title:         "Nueve reinas",
			OriginalTitle: "Nueve reinas",
			ReleaseDate:   "2000-08-31",
		},
		IMDbID:              "tt0247586",
		Runtime:             114,
		ProductionCountries: []catalog.Country{{Code: "AR", Name: "Argentina"}},
		Credits: catalog.Credits{
			Crew: []catalog.CrewMember{{ID: 1, Name: "Fabián Bielinsky", Job: "Director", Department: "Directing"}},
		},
	})

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithTMDB(tmdb.URL())}, opts...)...)
	configPath := filepath.Join(home, ".config", "cinematch", "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{cfg: cfg, tmdb: tmdb, configPath: configPath}
	if cfg.Database.URL != "" {
		env.store = testsupport.MustOpenStore(t, cfg)
		env.seeded = testsupport.SeedCatalog(t, env.store)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func movieTMDBID(t *testing.T, st *store.Store, id int64) int64 {
	t.Helper()
	var tmdbID *int64
	if err := st.DB().QueryRow(`SELECT tmdb_id FROM movies WHERE id = ?`, id).Scan(&tmdbID); err != nil {
		t.Fatalf("query tmdb_id: %v", err)
	}
	if tmdbID == nil {
		return 0
	}
	return *tmdbID
}

// chdir stands in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() { os.Chdir(wd) })
}
