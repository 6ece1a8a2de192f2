package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/catalog"
	"cinematch/internal/config"
	"cinematch/internal/logging"
	"cinematch/internal/matching"
	"cinematch/internal/names"
	"cinematch/internal/services/llm"
	"cinematch/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if level := c.logLevel(); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore connects to the local catalog. The caller closes it.
func (c *commandContext) openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{
		Driver:         cfg.Database.Driver,
		URL:            cfg.Database.URL,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		DirectorRoleID: cfg.Database.DirectorRoleID,
		Logger:         logger,
	})
}

func (c *commandContext) newCatalog() (*catalog.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireTMDB(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	gate := catalog.NewGate(time.Duration(cfg.TMDB.RequestIntervalMS) * time.Millisecond)
	client, err := catalog.New(catalog.Config{
		APIKey:      cfg.TMDB.APIKey,
		AccessToken: cfg.TMDB.AccessToken,
		BaseURL:     cfg.TMDB.BaseURL,
		Language:    cfg.TMDB.Language,
		Timeout:     time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second,
	}, catalog.WithGate(gate), catalog.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	return client, nil
}

func (c *commandContext) newMatcher(cat matching.Catalog) (*matching.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return matching.NewMatcher(cat, movieOptions(cfg.Matching.Movie), personOptions(cfg.Matching.Person), logger), nil
}

func movieOptions(m config.MovieMatching) matching.MovieOptions {
	opts := matching.DefaultMovieOptions()
	opts.Thresholds.AutoAccept = m.AutoAcceptScore
	opts.Thresholds.Review = m.ReviewScore
	opts.DirectorBonus = m.DirectorMatchBonus
	opts.CountryBonus = m.CountryBonus
	opts.TargetCountry = m.TargetCountry
	opts.DurationTolerance = m.DurationToleranceMinutes
	opts.DurationBonus = m.DurationMatchBonus
	opts.MaxCandidates = m.MaxCandidates
	return opts
}

func personOptions(p config.PersonMatching) matching.PersonOptions {
	opts := matching.DefaultPersonOptions()
	opts.Thresholds.AutoAccept = p.AutoAcceptScore
	opts.Thresholds.Review = p.ReviewScore
	opts.Thresholds.OverrideSharedFilms = p.OverrideMinSharedFilms
	opts.BirthplaceKeywords = p.BirthplaceKeywords
	opts.MaxCandidates = p.MaxCandidates
	opts.MaxLocalTitles = p.MaxLocalTitles
	return opts
}

// newSplitter loads the first-name table and wires the oracle when an LLM
// key is configured.
func (c *commandContext) newSplitter(ctx context.Context, st *store.Store) (*names.Splitter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	cache, err := names.LoadCache(ctx, st)
	if err != nil {
		return nil, err
	}
	var oracle names.Oracle
	if cfg.LLMConfigured() {
		oracle = llm.NewClient(llm.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			Referer:           cfg.LLM.Referer,
			Title:             cfg.LLM.Title,
			TimeoutSeconds:    cfg.LLM.TimeoutSeconds,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		}, llm.WithLogger(logger))
	} else {
		logging.WarnWithContext(logger, "name oracle disabled", "llm_not_configured",
			logging.String(logging.FieldErrorHint, "set OPENROUTER_API_KEY to resolve unknown first names"),
			logging.String(logging.FieldImpact, "names with unknown first names are flagged for review"),
		)
	}
	return names.NewSplitter(cache, oracle, st, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
