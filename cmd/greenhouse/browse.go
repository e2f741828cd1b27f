package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/helixml/greenhouse/internal/scope"
	"github.com/spf13/cobra"
)

const browseHelp = `Type text to search plant names.
  /toggle <type>   toggle a filter (flower, vegetable, fruit)
  /filters         show the active filters
  /help            show this help
  /quit            exit`

func browseCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Search the catalog interactively",
		Long: `Search the plant catalog from the terminal.

Results follow every keystroke line: search text is debounced, filters apply
at once and only the latest answer is printed. The search text and filters are
saved under --profile and restored on the next run.

` + browseHelp,
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

			sc := scope.New(cmd.Context(), scope.WithLogger(slogger), scope.WithName("browse"))
			defer sc.TearDown()

			var state service.StateStore
			if profile != "" {
				state = client.StateStore("cli:" + profile)
			}
			list, err := client.NewPlantList(sc, state)
			if err != nil {
				return err
			}
			return runBrowse(sc, list, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "default", "Name the saved search is stored under (empty disables saving)")

	return cmd
}

// syncWriter serializes writes from the event printer and the prompt loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, format, args...)
}

// settleMargin is how long past the debounce interval a piped session waits
// for a query to start before it is considered answered.
const settleMargin = 100 * time.Millisecond

// settleLimit bounds the wait for the last answer after input ends.
const settleLimit = 10 * time.Second

// runBrowse reads commands from in until EOF or /quit while printing the
// list's events to out. The inputs are saved on the way out. At EOF it first
// waits for the answer to the last line, so piped input prints its results.
func runBrowse(sc *scope.Scope, list *service.PlantList, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}
	status := newQueryStatus()

	if text := list.SearchText(); text != "" || list.ActiveFilterCount() > 0 {
		w.printf("restored search %q with filters %s\n", text, list.Filters())
	}

	if err := sc.Spawn(func(ctx context.Context) {
		printPlantEvents(ctx, list.Events(), w, status)
	}); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := browseCommand(list, strings.TrimSpace(scanner.Text()), w); quit {
			return saveList(sc.Context(), list)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	status.settle(sc.Context(), list.Debounce()+settleMargin, settleLimit)
	return saveList(sc.Context(), list)
}

func saveList(ctx context.Context, list *service.PlantList) error {
	if err := list.Save(ctx); err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

// queryStatus tracks whether the latest query has answered yet.
type queryStatus struct {
	mu       sync.Mutex
	busy     bool
	activity chan struct{}
}

func newQueryStatus() *queryStatus {
	return &queryStatus{activity: make(chan struct{}, 1)}
}

func (s *queryStatus) observe(ev service.PlantEvent) {
	s.mu.Lock()
	if ev.Kind == dispatch.EventLoading {
		s.busy = ev.Loading
	}
	s.mu.Unlock()

	select {
	case s.activity <- struct{}{}:
	default:
	}
}

func (s *queryStatus) isBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// settle returns once no event has arrived for quiet and no query is
// loading, or after limit.
func (s *queryStatus) settle(ctx context.Context, quiet, limit time.Duration) {
	deadline := time.NewTimer(limit)
	defer deadline.Stop()
	idle := time.NewTimer(quiet)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-s.activity:
			idle.Reset(quiet)
		case <-idle.C:
			if !s.isBusy() {
				return
			}
			idle.Reset(quiet)
		}
	}
}

// browseCommand applies one input line and reports whether to exit.
func browseCommand(list *service.PlantList, line string, w *syncWriter) bool {
	if !strings.HasPrefix(line, "/") {
		list.SetSearchText(line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		w.printf("%s\n", browseHelp)
	case "/filters":
		w.printf("filters: %s (%d active)\n", list.Filters(), list.ActiveFilterCount())
	case "/toggle":
		if len(fields) != 2 {
			w.printf("usage: /toggle <type>\n")
			return false
		}
		t, err := plant.ParseType(fields[1])
		if err != nil {
			w.printf("%v\n", err)
			return false
		}
		w.printf("filters: %s\n", list.ToggleFilter(t))
	default:
		w.printf("unknown command %s; try /help\n", fields[0])
	}
	return false
}

func printPlantEvents(ctx context.Context, events <-chan service.PlantEvent, w *syncWriter, status *queryStatus) {
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
			case dispatch.EventResult:
				w.printf("%s\n", formatPlants(ev.Value))
			case dispatch.EventFailed:
				w.printf("search failed: %v\n", ev.Err)
			}
			status.observe(ev)
		}
	}
}

func formatPlants(plants []plant.Plant) string {
	if len(plants) == 0 {
		return "no plants found"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d plants:", len(plants))
	for _, p := range plants {
		fmt.Fprintf(&b, "\n  %-24s %s", p.Name(), p.Type())
	}
	return b.String()
}
