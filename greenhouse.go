// Package greenhouse provides a reactive plant catalog: live plant list
// sessions that combine a debounced search text with type filters, and a
// photo gallery search backed by Unsplash.
//
// Basic usage:
//
//	client, err := greenhouse.New(
//	    greenhouse.WithSQLite(".greenhouse/greenhouse.db"),
//	    greenhouse.WithSeedFile("plants.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	session, err := client.Sessions.Open("")
//	list := session.List()
//	list.SetSearchText("dahlia")
//	list.ToggleFilter(plant.TypeFlower)
//
//	for ev := range list.Events() {
//	    fmt.Println(ev.Kind, len(ev.Value))
//	}
package greenhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/infrastructure/persistence"
	"github.com/helixml/greenhouse/infrastructure/unsplash"
	"github.com/helixml/greenhouse/internal/config"
	"github.com/helixml/greenhouse/internal/database"
	"github.com/helixml/greenhouse/internal/metrics"
	"github.com/helixml/greenhouse/internal/scope"
)

// Version is reported by the CLI, the MCP server and the API root.
// It is overridden at build time with -ldflags.
var Version = "dev"

// Client is the main entry point for the greenhouse library.
//
// Access resources via struct fields:
//
//	client.Catalog.Query(ctx, query.ByName("rose"))
//	client.Sessions.Open("")
type Client struct {
	// Catalog answers plant queries and imports seed data.
	Catalog *service.Catalog
	// Sessions keeps the open plant list sessions.
	Sessions *service.Sessions

	db       database.Database
	seeds    *service.CatalogSync
	metrics  *metrics.Metrics
	photos   service.PhotoSource
	listOpts []service.Option
	cancel   context.CancelFunc
	closers  []io.Closer

	logger  *slog.Logger
	dataDir string
	apiKeys []string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	dbURL, err := buildDatabaseURL(cfg, dataDir)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	photos, err := buildPhotoSource(cfg)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("photo source: %w", err), errClose)
	}

	m := cfg.metrics
	if m == nil {
		m = metrics.New()
	}

	catalog := service.NewCatalog(persistence.NewPlantStore(db), logger.With(slog.String("component", "catalog")),
		service.WithSearchLimit(cfg.searchLimit),
	)

	seeds := service.NewCatalogSync(catalog, cfg.seedFiles, cfg.seedSync, logger.With(slog.String("component", "catalog_sync")))
	if _, err := seeds.Sync(ctx); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("seed catalog: %w", err), errClose)
	}

	listOpts := []service.Option{
		service.WithDebounce(cfg.debounce),
		service.WithDebouncedFilters(cfg.debounceFilters),
		service.WithObserver(m.Observer("plant_list")),
	}

	runCtx, cancel := context.WithCancel(ctx)
	seeds.Start(runCtx)
	states := func(namespace string) service.StateStore {
		return persistence.NewStateStore(db, namespace)
	}

	client := &Client{
		Catalog:  catalog,
		Sessions: service.NewSessions(runCtx, catalog, states, logger, listOpts...),
		db:       db,
		seeds:    seeds,
		metrics:  m,
		photos:   photos,
		listOpts: listOpts,
		cancel:   cancel,
		closers:  cfg.closers,
		logger:   logger,
		dataDir:  dataDir,
		apiKeys:  cfg.apiKeys,
	}
	return client, nil
}

// Close tears down every session and releases the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sessions.CloseAll()
	c.seeds.Stop()
	c.cancel()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("greenhouse client closed")
	return nil
}

// NewPlantList starts a plant list under sc that is not registered as a
// session. state may be nil.
func (c *Client) NewPlantList(sc *scope.Scope, state service.StateStore) (*service.PlantList, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	opts := append([]service.Option{service.WithLogger(c.logger)}, c.listOpts...)
	return service.NewPlantList(sc, c.Catalog, state, opts...)
}

// StateStore returns the saved state kept under namespace.
func (c *Client) StateStore(namespace string) service.StateStore {
	return persistence.NewStateStore(c.db, namespace)
}

// NewGallery starts a photo gallery under sc searching for initial.
func (c *Client) NewGallery(sc *scope.Scope, initial string) (*service.Gallery, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if c.photos == nil {
		return nil, ErrGalleryDisabled
	}
	return service.NewGallery(sc, c.photos, initial,
		service.WithLogger(c.logger),
		service.WithObserver(c.metrics.Observer("gallery")),
	)
}

// GalleryEnabled reports whether a photo source is configured.
func (c *Client) GalleryEnabled() bool {
	return c.photos != nil
}

// Seed imports the plants from catalog files.
func (c *Client) Seed(ctx context.Context, paths ...string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	plants, err := service.LoadCatalogFiles(ctx, paths...)
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	if err := c.Catalog.Import(ctx, plants); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	return len(plants), nil
}

// Metrics returns the query metrics registry.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// APIKeys returns the keys accepted by write-protected routes.
func (c *Client) APIKeys() []string {
	return c.apiKeys
}

// DataDir returns the prepared data directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

func buildDatabaseURL(cfg *clientConfig, dataDir string) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		path := cfg.dbPath
		if path == "" {
			path = filepath.Join(dataDir, config.DefaultDatabaseFile)
		}
		return "sqlite:///" + path, nil
	case databasePostgres, databaseURL:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

func buildPhotoSource(cfg *clientConfig) (service.PhotoSource, error) {
	if cfg.photos != nil {
		return cfg.photos, nil
	}
	if cfg.unsplashKey == "" {
		return nil, nil
	}
	client, err := unsplash.NewClient(cfg.unsplashKey, cfg.unsplashOpts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
