// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultLogLevel         = "INFO"
	DefaultSearchDebounce   = 300 * time.Millisecond
	DefaultSearchLimit      = 0
	DefaultDatabaseFile     = "greenhouse.db"
	DefaultUnsplashBaseURL  = "https://api.unsplash.com"
	DefaultUnsplashPageSize = 25
	DefaultUnsplashMaxPages = 1
	DefaultEnvPrefix        = "GREENHOUSE"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// SearchConfig configures the plant list pipeline.
type SearchConfig struct {
	debounce        time.Duration
	debounceFilters bool
	limit           int
}

// NewSearchConfig creates a new SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		debounce: DefaultSearchDebounce,
		limit:    DefaultSearchLimit,
	}
}

// Debounce returns the quiet period applied to search text.
func (s SearchConfig) Debounce() time.Duration { return s.debounce }

// DebounceFilters reports whether filter toggles share the text debounce.
func (s SearchConfig) DebounceFilters() bool { return s.debounceFilters }

// Limit returns the maximum number of plants per result (0 means unbounded).
func (s SearchConfig) Limit() int { return s.limit }

// WithDebounce returns a new config with the specified debounce.
func (s SearchConfig) WithDebounce(d time.Duration) SearchConfig {
	if d >= 0 {
		s.debounce = d
	}
	return s
}

// WithDebounceFilters returns a new config with filter debouncing toggled.
func (s SearchConfig) WithDebounceFilters(enabled bool) SearchConfig {
	s.debounceFilters = enabled
	return s
}

// WithLimit returns a new config with the specified result limit.
func (s SearchConfig) WithLimit(n int) SearchConfig {
	if n >= 0 {
		s.limit = n
	}
	return s
}

// UnsplashConfig configures the photo gallery backend.
type UnsplashConfig struct {
	baseURL   string
	accessKey string
	pageSize  int
	maxPages  int
	cacheDir  string
}

// NewUnsplashConfig creates a new UnsplashConfig with defaults.
func NewUnsplashConfig() UnsplashConfig {
	return UnsplashConfig{
		baseURL:  DefaultUnsplashBaseURL,
		pageSize: DefaultUnsplashPageSize,
		maxPages: DefaultUnsplashMaxPages,
	}
}

// BaseURL returns the API base URL.
func (u UnsplashConfig) BaseURL() string { return u.baseURL }

// AccessKey returns the API access key.
func (u UnsplashConfig) AccessKey() string { return u.accessKey }

// PageSize returns the number of photos requested per page.
func (u UnsplashConfig) PageSize() int { return u.pageSize }

// MaxPages returns how many pages a single search fetches.
func (u UnsplashConfig) MaxPages() int { return u.maxPages }

// CacheDir returns the HTTP response cache directory ("" disables caching).
func (u UnsplashConfig) CacheDir() string { return u.cacheDir }

// IsConfigured returns true if an access key is present.
func (u UnsplashConfig) IsConfigured() bool {
	return u.accessKey != ""
}

// UnsplashOption is a functional option for UnsplashConfig.
type UnsplashOption func(*UnsplashConfig)

// WithUnsplashBaseURL sets the API base URL.
func WithUnsplashBaseURL(url string) UnsplashOption {
	return func(u *UnsplashConfig) { u.baseURL = url }
}

// WithUnsplashAccessKey sets the API access key.
func WithUnsplashAccessKey(key string) UnsplashOption {
	return func(u *UnsplashConfig) { u.accessKey = key }
}

// WithUnsplashPageSize sets the page size.
func WithUnsplashPageSize(n int) UnsplashOption {
	return func(u *UnsplashConfig) {
		if n > 0 {
			u.pageSize = n
		}
	}
}

// WithUnsplashMaxPages sets the number of pages per search.
func WithUnsplashMaxPages(n int) UnsplashOption {
	return func(u *UnsplashConfig) {
		if n > 0 {
			u.maxPages = n
		}
	}
}

// WithUnsplashCacheDir sets the HTTP response cache directory.
func WithUnsplashCacheDir(dir string) UnsplashOption {
	return func(u *UnsplashConfig) { u.cacheDir = dir }
}

// NewUnsplashConfigWithOptions creates an UnsplashConfig with options.
func NewUnsplashConfigWithOptions(opts ...UnsplashOption) UnsplashConfig {
	u := NewUnsplashConfig()
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host      string
	port      int
	dataDir   string
	dbURL     string
	logLevel  string
	logFormat LogFormat
	apiKeys   []string
	search    SearchConfig
	unsplash  UnsplashConfig
	seedFile  string
	seedSync  time.Duration
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".greenhouse"
	}
	return filepath.Join(home, ".greenhouse")
}

// DefaultDBURL returns the SQLite URL for a data directory.
func DefaultDBURL(dataDir string) string {
	return "sqlite:///" + filepath.Join(dataDir, DefaultDatabaseFile)
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		dataDir:   dataDir,
		dbURL:     DefaultDBURL(dataDir),
		logLevel:  DefaultLogLevel,
		logFormat: LogFormatPretty,
		apiKeys:   []string{},
		search:    NewSearchConfig(),
		unsplash:  NewUnsplashConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns a copy of the API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// Search returns the plant list pipeline configuration.
func (c AppConfig) Search() SearchConfig { return c.search }

// Unsplash returns the gallery backend configuration.
func (c AppConfig) Unsplash() UnsplashConfig { return c.unsplash }

// SeedFile returns the catalog file imported at startup ("" for none).
func (c AppConfig) SeedFile() string { return c.seedFile }

// SeedSyncInterval returns how often the seed file is checked for changes.
// Zero disables the check.
func (c AppConfig) SeedSyncInterval() time.Duration { return c.seedSync }

// EnsureDataDir ensures the data directory exists.
func (c AppConfig) EnsureDataDir() error {
	_, err := PrepareDataDir(c.dataDir)
	return err
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory. A database URL still pointing at the
// old default follows the new directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if c.dbURL == DefaultDBURL(c.dataDir) {
			c.dbURL = DefaultDBURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithSearchConfig sets the plant list pipeline configuration.
func WithSearchConfig(s SearchConfig) AppConfigOption {
	return func(c *AppConfig) { c.search = s }
}

// WithUnsplashConfig sets the gallery backend configuration.
func WithUnsplashConfig(u UnsplashConfig) AppConfigOption {
	return func(c *AppConfig) { c.unsplash = u }
}

// WithSeedFile sets the catalog file imported at startup.
func WithSeedFile(path string) AppConfigOption {
	return func(c *AppConfig) { c.seedFile = path }
}

// WithSeedSyncInterval sets how often the seed file is re-imported when it
// changes. Negative values disable the check.
func WithSeedSyncInterval(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d < 0 {
			d = 0
		}
		c.seedSync = d
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	c.apiKeys = c.APIKeys()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("log_level", c.logLevel),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Duration("search_debounce", c.search.Debounce()),
		slog.Bool("search_debounce_filters", c.search.DebounceFilters()),
		slog.Int("search_limit", c.search.Limit()),
		slog.String("unsplash_base_url", c.unsplash.BaseURL()),
		slog.Bool("unsplash_configured", c.unsplash.IsConfigured()),
		slog.String("seed_file", c.seedFile),
		slog.Duration("seed_sync_interval", c.seedSync),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
