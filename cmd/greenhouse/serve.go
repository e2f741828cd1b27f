package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/infrastructure/api"
	apimiddleware "github.com/helixml/greenhouse/infrastructure/api/middleware"
	"github.com/helixml/greenhouse/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long open requests get to finish.
const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		host    string
		port    int
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.greenhouse)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/greenhouse.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated list of valid API keys
  SEED_FILE                    Plant catalog JSON or YAML imported at startup
  SEED_SYNC_INTERVAL_SECONDS   Re-import SEED_FILE when it changes (default: 0, off)

  SEARCH_DEBOUNCE_MS           Search text quiet period (default: 300)
  SEARCH_DEBOUNCE_FILTERS      Debounce filter toggles too (default: false)
  SEARCH_LIMIT                 Maximum plants per live result (default: 0, unlimited)

  UNSPLASH_ACCESS_KEY          Enables the photo gallery
  UNSPLASH_BASE_URL            Unsplash API base URL
  UNSPLASH_PAGE_SIZE           Photos per page (default: 25)
  UNSPLASH_MAX_PAGES           Pages fetched per search (default: 1)
  UNSPLASH_CACHE_DIR           Response cache directory`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), applyServeOverrides(cfg, host, port), origins)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Allowed CORS origins (default: any)")

	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig, origins []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, slogger, err := openClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient(client, slogger)

	apiServer := api.NewAPIServer(client, client.APIKeys()).WithAllowedOrigins(origins...)
	router := apiServer.Router()

	// Middleware must be registered before MountRoutes.
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(slogger))

	apiServer.MountRoutes()

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"greenhouse","version":%q,"docs":"/docs","gallery":%t}`, greenhouse.Version, client.GalleryEnabled())
	})

	docsRouter := apiServer.DocsRouter("/docs/openapi.json")
	router.Mount("/docs", docsRouter.Routes())

	server := api.NewServer(cfg.Addr(), slogger)
	server.Router().Mount("/", router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Event streams only end once their sessions close.
		client.Sessions.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	slogger.Info("starting greenhouse", slog.String("addr", cfg.Addr()), slog.String("version", greenhouse.Version))
	return g.Wait()
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
