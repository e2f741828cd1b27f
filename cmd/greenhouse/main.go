// Package main is the entry point for the greenhouse CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	greenhouse.Version = version
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "greenhouse",
		Short:         "Greenhouse plant catalog server",
		Long:          `Greenhouse serves a searchable plant catalog with live, debounced plant list sessions and a photo gallery.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(seedCmd())
	cmd.AddCommand(browseCmd())
	cmd.AddCommand(galleryCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
