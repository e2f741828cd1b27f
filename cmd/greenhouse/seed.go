package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import plants into the catalog",
		Long: `Import plants from JSON or YAML catalog files.

Plants are upserted by ID, so seeding the same file twice is harmless.
SEED_FILE, when set, is imported as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files = append(files, args...)
			if len(files) == 0 {
				return fmt.Errorf("no catalog files given")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, slogger, err := openClient(cfg)
			if err != nil {
				return err
			}
			defer closeClient(client, slogger)

			n, err := client.Seed(cmd.Context(), files...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d plants\n", n)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Catalog file to import (repeatable)")

	return cmd
}
