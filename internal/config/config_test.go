package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cinematch/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())
	for _, key := range []string{"TMDB_API_KEY", "TMDB_ACCESS_TOKEN", "DATABASE_URL", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	home := isolate(t)
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/cine")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(home, ".config", "cinematch", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantReports := filepath.Join(home, ".local", "share", "cinematch", "reports")
	if cfg.Paths.ReportsDir != wantReports {
		t.Fatalf("unexpected reports dir: got %q want %q", cfg.Paths.ReportsDir, wantReports)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Database.URL != "postgres://localhost/cine" {
		t.Fatalf("expected database url from env, got %q", cfg.Database.URL)
	}
	if cfg.TMDB.Language != "es-AR" {
		t.Fatalf("unexpected language: %q", cfg.TMDB.Language)
	}
	if cfg.TMDB.RequestIntervalMS != 300 {
		t.Fatalf("unexpected request interval: %d", cfg.TMDB.RequestIntervalMS)
	}
	if cfg.Database.DirectorRoleID != 2 {
		t.Fatalf("unexpected director role id: %d", cfg.Database.DirectorRoleID)
	}
	if cfg.Batch.FlushEvery != 10 {
		t.Fatalf("unexpected flush cadence: %d", cfg.Batch.FlushEvery)
	}
	if err := cfg.RequireTMDB(); err != nil {
		t.Fatalf("RequireTMDB: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		t.Fatalf("RequireDatabase: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ReportsDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadWithoutCredentialsSucceedsButRequireFails(t *testing.T) {
	isolate(t)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.RequireTMDB(); err == nil || !strings.Contains(err.Error(), "cinematch config init") {
		t.Fatalf("expected tmdb credential hint, got %v", err)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Fatal("expected missing database url error")
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "cinematch.toml")

	type payload struct {
		TMDB struct {
			AccessToken string `toml:"access_token"`
			BaseURL     string `toml:"base_url"`
		} `toml:"tmdb"`
		Database struct {
			Driver string `toml:"driver"`
			URL    string `toml:"url"`
		} `toml:"database"`
		Matching struct {
			Person struct {
				BirthplaceKeywords []string `toml:"birthplace_keywords"`
			} `toml:"person"`
		} `toml:"matching"`
	}
	custom := payload{}
	custom.TMDB.AccessToken = "token"
	custom.TMDB.BaseURL = "https://example.com/tmdb/"
	custom.Database.Driver = "SQLite3"
	custom.Database.URL = "catalog.db"
	custom.Matching.Person.BirthplaceKeywords = []string{" Córdoba ", "cordoba", "La Plata"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.AccessToken != "token" || !cfg.TMDBConfigured() {
		t.Fatalf("expected access token from file, got %q", cfg.TMDB.AccessToken)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trimmed base url, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver alias to normalize, got %q", cfg.Database.Driver)
	}
	if !filepath.IsAbs(cfg.Database.URL) {
		t.Fatalf("expected sqlite path to be absolute, got %q", cfg.Database.URL)
	}
	got := strings.Join(cfg.Matching.Person.BirthplaceKeywords, ",")
	if got != "cordoba,la plata" {
		t.Fatalf("unexpected birthplace keywords: %q", got)
	}
	if cfg.Matching.Movie.AutoAcceptScore != 80 {
		t.Fatalf("expected untouched sections to keep defaults, got %d", cfg.Matching.Movie.AutoAcceptScore)
	}
}

func TestLoadProjectConfigFromWorkingDirectory(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("cinematch.toml", []byte("[batch]\nflush_every = 3\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "cinematch.toml" {
		t.Fatalf("expected project config to be found, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Batch.FlushEvery != 3 {
		t.Fatalf("expected flush_every 3, got %d", cfg.Batch.FlushEvery)
	}
}

func TestFileValuesWinOverEnvironment(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "cinematch.toml")
	if err := os.WriteFile(configPath, []byte("[tmdb]\napi_key = \"file-key\"\n[llm]\napi_key = \"file-llm\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Errorf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.LLM.APIKey != "file-llm" {
		t.Errorf("expected LLM key from file, got %q", cfg.LLM.APIKey)
	}
}

func TestDotEnvFillsCredentials(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".env", []byte("TMDB_ACCESS_TOKEN=dotenv-token\nOPENROUTER_API_KEY=dotenv-llm\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.AccessToken != "dotenv-token" {
		t.Fatalf("expected access token from .env, got %q", cfg.TMDB.AccessToken)
	}
	if !cfg.LLMConfigured() {
		t.Fatal("expected llm key from .env")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.ReportsDir, "cinematch") {
		t.Fatalf("expected reports dir to contain cinematch, got %q", cfg.Paths.ReportsDir)
	}
	defaults := config.Default()
	if cfg.Matching.Movie != defaults.Matching.Movie {
		t.Fatalf("sample movie matching drifted from defaults: %+v", cfg.Matching.Movie)
	}
	if cfg.Batch != defaults.Batch {
		t.Fatalf("sample batch drifted from defaults: %+v", cfg.Batch)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"review above auto", func(c *config.Config) { c.Matching.Movie.ReviewScore = 90 }, "matching.movie.review_score"},
		{"person max candidates", func(c *config.Config) { c.Matching.Person.MaxCandidates = 0 }, "matching.person.max_candidates"},
		{"too many candidates", func(c *config.Config) { c.Matching.Movie.MaxCandidates = 25 }, "at most 20"},
		{"country code", func(c *config.Config) { c.Matching.Movie.TargetCountry = "ARG" }, "target_country"},
		{"flush cadence", func(c *config.Config) { c.Batch.FlushEvery = 0 }, "batch.flush_every"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative interval", func(c *config.Config) { c.TMDB.RequestIntervalMS = -1 }, "request_interval_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
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
