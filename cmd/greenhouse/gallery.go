package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/helixml/greenhouse/internal/scope"
	"github.com/spf13/cobra"
)

func galleryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gallery [query]",
		Short: "Search Unsplash photos interactively",
		Long: `Search photos from the terminal.

Every input line replaces the search; a search still loading is cancelled.
Enter /quit to exit. Requires UNSPLASH_ACCESS_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, slogger, err := openClient(cfg)
			if err != nil {
				return err
			}
			defer closeClient(client, slogger)

			sc := scope.New(cmd.Context(), scope.WithLogger(slogger), scope.WithName("gallery"))
			defer sc.TearDown()

			g, err := client.NewGallery(sc, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return runGallery(sc, g, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runGallery feeds input lines to g as searches and prints its pages.
func runGallery(sc *scope.Scope, g *service.Gallery, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}

	if err := sc.Spawn(func(ctx context.Context) {
		printPhotoEvents(ctx, g.Events(), w)
	}); err != nil {
		return fmt.Errorf("start gallery: %w", err)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			return nil
		}
		g.Search(line)
	}
	return scanner.Err()
}

func printPhotoEvents(ctx context.Context, events <-chan service.PhotoEvent, w *syncWriter) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case dispatch.EventLoading:
				if ev.Loading {
					w.printf("searching...\n")
				}
			case dispatch.EventFailed:
				w.printf("search failed: %v\n", ev.Err)
			case dispatch.EventResult:
				page := ev.Value
				w.printf("page %d/%d (%s photos total)\n", page.Number, page.TotalPages, humanize.Comma(int64(page.Total)))
				for _, p := range page.Photos {
					w.printf("  %s  %s by %s\n", p.RegularURL, p.Description, p.Photographer)
				}
			}
		}
	}
}
