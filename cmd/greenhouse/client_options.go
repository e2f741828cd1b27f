package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/internal/config"
	"github.com/helixml/greenhouse/internal/log"
)

// openClient builds the logger and the greenhouse client every subcommand
// shares. extra options are applied after the configured ones.
func openClient(cfg config.AppConfig, extra ...greenhouse.Option) (*greenhouse.Client, *slog.Logger, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	slogger := log.NewLogger(cfg).Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelDebug, "configuration loaded", attrs...)

	opts := append(greenhouse.FromConfig(cfg), greenhouse.WithLogger(slogger))
	client, err := greenhouse.New(append(opts, extra...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("create greenhouse client: %w", err)
	}
	return client, slogger, nil
}

func closeClient(client *greenhouse.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close greenhouse client", slog.Any("error", err))
	}
}
