package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// With a prefix, GREENHOUSE_PORT wins over PORT; unprefixed names still apply.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.greenhouse
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/greenhouse.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of keys allowed to mutate sessions.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// SearchDebounceMS is the quiet period for search text, in milliseconds.
	// Env: SEARCH_DEBOUNCE_MS (default: 300)
	SearchDebounceMS int `envconfig:"SEARCH_DEBOUNCE_MS" default:"300"`

	// SearchDebounceFilters applies the text debounce to filter toggles too.
	// Env: SEARCH_DEBOUNCE_FILTERS (default: false)
	SearchDebounceFilters bool `envconfig:"SEARCH_DEBOUNCE_FILTERS" default:"false"`

	// SearchLimit caps the plants returned per query (0 means unbounded).
	// Env: SEARCH_LIMIT (default: 0)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"0"`

	// UnsplashBaseURL is the photo API root.
	// Env: UNSPLASH_BASE_URL (default: https://api.unsplash.com)
	UnsplashBaseURL string `envconfig:"UNSPLASH_BASE_URL" default:"https://api.unsplash.com"`

	// UnsplashAccessKey enables the gallery when set.
	// Env: UNSPLASH_ACCESS_KEY
	UnsplashAccessKey string `envconfig:"UNSPLASH_ACCESS_KEY"`

	// UnsplashPageSize is the number of photos per page.
	// Env: UNSPLASH_PAGE_SIZE (default: 25)
	UnsplashPageSize int `envconfig:"UNSPLASH_PAGE_SIZE" default:"25"`

	// UnsplashMaxPages is the number of pages fetched per search.
	// Env: UNSPLASH_MAX_PAGES (default: 1)
	UnsplashMaxPages int `envconfig:"UNSPLASH_MAX_PAGES" default:"1"`

	// UnsplashCacheDir caches successful photo API responses on disk.
	// Env: UNSPLASH_CACHE_DIR
	UnsplashCacheDir string `envconfig:"UNSPLASH_CACHE_DIR"`

	// SeedFile is a catalog file (.json or .yaml) imported at startup.
	// Env: SEED_FILE
	SeedFile string `envconfig:"SEED_FILE"`

	// SeedSyncIntervalSeconds re-imports SEED_FILE when it changes. 0 disables.
	// Env: SEED_SYNC_INTERVAL_SECONDS (default: 0)
	SeedSyncIntervalSeconds int `envconfig:"SEED_SYNC_INTERVAL_SECONDS" default:"0"`
}

// LoadFromEnv loads configuration from unprefixed environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix("")
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "GREENHOUSE" reads GREENHOUSE_DATA_DIR before DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	var opts []AppConfigOption

	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		opts = append(opts, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}

	search := NewSearchConfig().
		WithDebounce(time.Duration(e.SearchDebounceMS) * time.Millisecond).
		WithDebounceFilters(e.SearchDebounceFilters).
		WithLimit(e.SearchLimit)
	opts = append(opts, WithSearchConfig(search))

	unsplashOpts := []UnsplashOption{
		WithUnsplashAccessKey(e.UnsplashAccessKey),
		WithUnsplashPageSize(e.UnsplashPageSize),
		WithUnsplashMaxPages(e.UnsplashMaxPages),
		WithUnsplashCacheDir(e.UnsplashCacheDir),
	}
	if e.UnsplashBaseURL != "" {
		unsplashOpts = append(unsplashOpts, WithUnsplashBaseURL(e.UnsplashBaseURL))
	}
	opts = append(opts, WithUnsplashConfig(NewUnsplashConfigWithOptions(unsplashOpts...)))

	if e.SeedFile != "" {
		opts = append(opts, WithSeedFile(e.SeedFile))
	}
	if e.SeedSyncIntervalSeconds > 0 {
		opts = append(opts, WithSeedSyncInterval(time.Duration(e.SeedSyncIntervalSeconds)*time.Second))
	}

	return NewAppConfigWithOptions(opts...)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
