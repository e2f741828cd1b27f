package greenhouse

import (
	"io"
	"log/slog"
	"time"

	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/infrastructure/unsplash"
	"github.com/helixml/greenhouse/internal/config"
	"github.com/helixml/greenhouse/internal/metrics"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
	databaseURL
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	database        databaseType
	dbPath          string
	dbDSN           string
	dataDir         string
	logger          *slog.Logger
	apiKeys         []string
	debounce        time.Duration
	debounceFilters bool
	searchLimit     int
	unsplashKey     string
	unsplashOpts    []unsplash.Option
	photos          service.PhotoSource
	metrics         *metrics.Metrics
	seedFiles       []string
	seedSync        time.Duration
	closers         []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		debounce:    config.DefaultSearchDebounce,
		searchLimit: config.DefaultSearchLimit,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores the catalog in a SQLite file. Use ":memory:" for a
// throwaway database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres stores the catalog in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDBURL opens the database named by a sqlite:/// or postgres:// URL.
func WithDBURL(url string) Option {
	return func(c *clientConfig) {
		if url == "" {
			return
		}
		c.database = databaseURL
		c.dbDSN = url
	}
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		if dir != "" {
			c.dataDir = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the keys accepted by write-protected HTTP routes.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithDebounce sets the quiet period applied to session search text.
// Negative values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithDebouncedFilters applies the search debounce to filter toggles too.
func WithDebouncedFilters(enabled bool) Option {
	return func(c *clientConfig) {
		c.debounceFilters = enabled
	}
}

// WithSearchLimit caps catalog query results. Zero means no cap.
func WithSearchLimit(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.searchLimit = n
		}
	}
}

// WithUnsplash enables the photo gallery backed by the Unsplash search API.
func WithUnsplash(accessKey string, opts ...unsplash.Option) Option {
	return func(c *clientConfig) {
		c.unsplashKey = accessKey
		c.unsplashOpts = opts
	}
}

// WithUnsplashConfig enables the photo gallery from loaded configuration.
// It does nothing when no access key is configured.
func WithUnsplashConfig(cfg config.UnsplashConfig) Option {
	return func(c *clientConfig) {
		if !cfg.IsConfigured() {
			return
		}
		c.unsplashKey = cfg.AccessKey()
		c.unsplashOpts = []unsplash.Option{
			unsplash.WithBaseURL(cfg.BaseURL()),
			unsplash.WithPageSize(cfg.PageSize()),
			unsplash.WithMaxPages(cfg.MaxPages()),
		}
		if dir := cfg.CacheDir(); dir != "" {
			c.unsplashOpts = append(c.unsplashOpts, unsplash.WithCacheDir(dir))
		}
	}
}

// WithPhotoSource enables the photo gallery with a custom source.
// It takes precedence over WithUnsplash.
func WithPhotoSource(src service.PhotoSource) Option {
	return func(c *clientConfig) {
		c.photos = src
	}
}

// WithMetrics records query metrics into m instead of a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// WithSeedFile imports catalog files when the client starts.
func WithSeedFile(paths ...string) Option {
	return func(c *clientConfig) {
		for _, p := range paths {
			if p != "" {
				c.seedFiles = append(c.seedFiles, p)
			}
		}
	}
}

// WithSeedSync re-imports the seed files every d when they change on disk.
// Zero disables it.
func WithSeedSync(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.seedSync = d
		}
	}
}

// WithCloser registers a resource to close with the client.
func WithCloser(cl io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, cl)
	}
}

// FromConfig translates loaded application configuration into client options.
func FromConfig(cfg config.AppConfig) []Option {
	search := cfg.Search()
	return []Option{
		WithDataDir(cfg.DataDir()),
		WithDBURL(cfg.DBURL()),
		WithAPIKeys(cfg.APIKeys()...),
		WithDebounce(search.Debounce()),
		WithDebouncedFilters(search.DebounceFilters()),
		WithSearchLimit(search.Limit()),
		WithUnsplashConfig(cfg.Unsplash()),
		WithSeedFile(cfg.SeedFile()),
		WithSeedSync(cfg.SeedSyncInterval()),
	}
}
