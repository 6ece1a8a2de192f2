package config

const (
	defaultConfigPath            = "~/.config/cinematch/config.toml"
	defaultReportsDir            = "~/.local/share/cinematch/reports"
	defaultLogDir                = "~/.local/share/cinematch/logs"
	defaultStateDir              = "~/.local/share/cinematch/state"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBLanguage          = "es-AR"
	defaultTMDBRequestIntervalMS = 300
	defaultTMDBTimeoutSeconds    = 15
	defaultDatabaseDriver        = "postgres"
	defaultDatabaseMaxOpenConns  = 4
	defaultDirectorRoleID        = 2
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/cinematch/cinematch"
	defaultLLMTitle              = "cinematch name splitter"
	defaultLLMTimeoutSeconds     = 30
	defaultLLMRequestsPerMinute  = 60
	defaultFlushEvery            = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultBirthplaceKeywords = []string{"argentina", "buenos aires", "cordoba", "rosario", "mendoza"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ReportsDir: defaultReportsDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestIntervalMS: defaultTMDBRequestIntervalMS,
			TimeoutSeconds:    defaultTMDBTimeoutSeconds,
		},
		Database: Database{
			Driver:         defaultDatabaseDriver,
			MaxOpenConns:   defaultDatabaseMaxOpenConns,
			DirectorRoleID: defaultDirectorRoleID,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultLLMRequestsPerMinute,
		},
		Matching: Matching{
			Movie: MovieMatching{
				AutoAcceptScore:          80,
				ReviewScore:              50,
				DirectorMatchBonus:       30,
				CountryBonus:             20,
				TargetCountry:            "AR",
				DurationToleranceMinutes: 10,
				DurationMatchBonus:       10,
				MaxCandidates:            5,
			},
			Person: PersonMatching{
				AutoAcceptScore:        80,
				ReviewScore:            50,
				OverrideMinSharedFilms: 2,
				BirthplaceKeywords:     append([]string(nil), defaultBirthplaceKeywords...),
				MaxCandidates:          5,
				MaxLocalTitles:         20,
			},
		},
		Batch: Batch{
			FlushEvery: defaultFlushEvery,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
