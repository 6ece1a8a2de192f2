package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories cinematch writes to.
type Paths struct {
	ReportsDir string `toml:"reports_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string `toml:"api_key"`
	AccessToken       string `toml:"access_token"`
	BaseURL           string `toml:"base_url"`
	Language          string `toml:"language"`
	RequestIntervalMS int    `toml:"request_interval_ms"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Database contains the local catalog connection.
type Database struct {
	Driver         string `toml:"driver"`
	URL            string `toml:"url"`
	MaxOpenConns   int    `toml:"max_open_conns"`
	DirectorRoleID int64  `toml:"director_role_id"`
}

// LLM contains the name oracle connection settings.
type LLM struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// MovieMatching tunes film scoring and classification.
type MovieMatching struct {
	AutoAcceptScore          int    `toml:"auto_accept_score"`
	ReviewScore              int    `toml:"review_score"`
	DirectorMatchBonus       int    `toml:"director_match_bonus"`
	CountryBonus             int    `toml:"country_bonus"`
	TargetCountry            string `toml:"target_country"`
	DurationToleranceMinutes int    `toml:"duration_tolerance_minutes"`
	DurationMatchBonus       int    `toml:"duration_match_bonus"`
	MaxCandidates            int    `toml:"max_candidates"`
}

// PersonMatching tunes person scoring and classification.
type PersonMatching struct {
	AutoAcceptScore        int      `toml:"auto_accept_score"`
	ReviewScore            int      `toml:"review_score"`
	OverrideMinSharedFilms int      `toml:"override_min_shared_films"`
	BirthplaceKeywords     []string `toml:"birthplace_keywords"`
	MaxCandidates          int      `toml:"max_candidates"`
	MaxLocalTitles         int      `toml:"max_local_titles"`
}

// Matching groups the per-kind scoring sections.
type Matching struct {
	Movie  MovieMatching  `toml:"movie"`
	Person PersonMatching `toml:"person"`
}

// Batch contains batch driver settings.
type Batch struct {
	FlushEvery int `toml:"flush_every"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinematch.
//
// Configuration sections by subsystem:
//   - Paths: ledger, log and checkpoint directories
//   - TMDB: catalog credentials and request pacing
//   - Database: local catalog connection
//   - LLM: name oracle used when splitting person names
//   - Matching: scoring weights and thresholds per record kind
//   - Batch: checkpoint flush cadence
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	TMDB     TMDB     `toml:"tmdb"`
	Database Database `toml:"database"`
	LLM      LLM      `toml:"llm"`
	Matching Matching `toml:"matching"`
	Batch    Batch    `toml:"batch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A .env file in
// the working directory is read first so its variables can fill credentials.
// The returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// A missing .env is the common case.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinematch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the report, log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ReportsDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// TMDBConfigured reports whether any TMDB credential is present.
func (c *Config) TMDBConfigured() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != "" || strings.TrimSpace(c.TMDB.AccessToken) != ""
}

// LLMConfigured reports whether the name oracle has credentials.
func (c *Config) LLMConfigured() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}
