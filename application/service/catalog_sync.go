package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// CatalogSync imports seed files into a Catalog and, once started, imports
// them again whenever one of them changes on disk.
type CatalogSync struct {
	catalog  *Catalog
	paths    []string
	logger   *slog.Logger
	interval time.Duration

	seen map[string]time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCatalogSync creates a CatalogSync for paths. An interval of zero
// disables the background check; Sync still works.
func NewCatalogSync(catalog *Catalog, paths []string, interval time.Duration, logger *slog.Logger) *CatalogSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogSync{
		catalog:  catalog,
		paths:    paths,
		logger:   logger,
		interval: interval,
		seen:     make(map[string]time.Time, len(paths)),
	}
}

// Sync imports every file whose modification time differs from the last
// import and returns the number of plants imported.
func (s *CatalogSync) Sync(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make([]string, 0, len(s.paths))
	stamps := make(map[string]time.Time, len(s.paths))
	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stat catalog file %s: %w", path, err)
		}
		if seen, ok := s.seen[path]; ok && seen.Equal(info.ModTime()) {
			continue
		}
		changed = append(changed, path)
		stamps[path] = info.ModTime()
	}
	if len(changed) == 0 {
		return 0, nil
	}

	plants, err := LoadCatalogFiles(ctx, changed...)
	if err != nil {
		return 0, err
	}
	if err := s.catalog.Import(ctx, plants); err != nil {
		return 0, err
	}
	for path, t := range stamps {
		s.seen[path] = t
	}
	return len(plants), nil
}

// Start begins checking for changes in a background goroutine.
// If the interval is zero or there are no files, this is a no-op.
func (s *CatalogSync) Start(ctx context.Context) {
	if s.interval <= 0 || len(s.paths) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Go(func() {
		s.run(ctx)
	})

	s.logger.Info("catalog sync started", slog.Duration("interval", s.interval), slog.Int("files", len(s.paths)))
}

// Stop cancels the background goroutine and waits for it to finish.
func (s *CatalogSync) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("catalog sync stopped")
}

func (s *CatalogSync) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sync(ctx)
			switch {
			case err != nil && ctx.Err() != nil:
				return
			case err != nil:
				s.logger.Warn("catalog sync failed", slog.Any("error", err))
			case n > 0:
				s.logger.Info("catalog reimported", slog.Int("plants", n))
			}
		}
	}
}
