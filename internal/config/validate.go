package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked by
// RequireTMDB and RequireDatabase so commands that never reach the network
// still run without them.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Batch.FlushEvery <= 0 {
		return errors.New("batch.flush_every must be positive")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.RequestIntervalMS < 0 {
		return errors.New("tmdb.request_interval_ms must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.timeout_seconds": c.TMDB.TimeoutSeconds,
	})
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 0 {
		return errors.New("database.max_open_conns must not be negative")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds": c.LLM.TimeoutSeconds,
	})
}

func (c *Config) validateMatching() error {
	movie := c.Matching.Movie
	person := c.Matching.Person
	if err := ensurePositiveMap(map[string]int{
		"matching.movie.auto_accept_score":          movie.AutoAcceptScore,
		"matching.movie.review_score":               movie.ReviewScore,
		"matching.movie.duration_tolerance_minutes": movie.DurationToleranceMinutes,
		"matching.movie.max_candidates":             movie.MaxCandidates,
		"matching.person.auto_accept_score":         person.AutoAcceptScore,
		"matching.person.review_score":              person.ReviewScore,
		"matching.person.override_min_shared_films": person.OverrideMinSharedFilms,
		"matching.person.max_candidates":            person.MaxCandidates,
		"matching.person.max_local_titles":          person.MaxLocalTitles,
	}); err != nil {
		return err
	}
	if movie.ReviewScore >= movie.AutoAcceptScore {
		return errors.New("matching.movie.review_score must be lower than matching.movie.auto_accept_score")
	}
	if person.ReviewScore >= person.AutoAcceptScore {
		return errors.New("matching.person.review_score must be lower than matching.person.auto_accept_score")
	}
	if movie.DirectorMatchBonus < 0 || movie.CountryBonus < 0 || movie.DurationMatchBonus < 0 {
		return errors.New("matching.movie bonuses must not be negative")
	}
	if movie.MaxCandidates > 20 || person.MaxCandidates > 20 {
		return errors.New("matching max_candidates must be at most 20 (one search page)")
	}
	if code := movie.TargetCountry; code != "" && len(code) != 2 {
		return fmt.Errorf("matching.movie.target_country must be an ISO 3166-1 alpha-2 code, got %q", code)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

// RequireTMDB reports a configuration error when no TMDB credential is set.
func (c *Config) RequireTMDB() error {
	if c.TMDBConfigured() {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("tmdb.api_key or tmdb.access_token is required. Set TMDB_API_KEY or TMDB_ACCESS_TOKEN, or edit %s (create with 'cinematch config init')", defaultPath)
}

// RequireDatabase reports a configuration error when no database url is set.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.Database.URL) != "" {
		return nil
	}
	return errors.New("database.url is required. Set DATABASE_URL or edit the [database] section")
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
