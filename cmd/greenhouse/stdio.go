package main

import (
	"log/slog"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants search the plant catalog. Logs go to stderr so
stdout carries only protocol messages.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, slogger, err := openClient(cfg)
			if err != nil {
				return err
			}
			defer closeClient(client, slogger)

			slogger.Info("starting MCP server",
				slog.String("version", greenhouse.Version),
				slog.String("data_dir", client.DataDir()),
			)

			return mcp.NewServer(client.Catalog, greenhouse.Version, slogger).ServeStdio()
		},
	}
}
