package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/greenhouse"
	"github.com/helixml/greenhouse/application/service"
	"github.com/helixml/greenhouse/domain/gallery"
	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/helixml/greenhouse/internal/scope"
)

const seedPlants = `[
  {"plantId": "tulipa", "name": "Tulip", "plantType": "flower"},
  {"plantId": "solanum", "name": "Tomato", "plantType": "vegetable"}
]`

func newTestClient(t *testing.T, opts ...greenhouse.Option) *greenhouse.Client {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "plants.json")
	require.NoError(t, os.WriteFile(seed, []byte(seedPlants), 0o644))

	client, err := greenhouse.New(append([]greenhouse.Option{
		greenhouse.WithSQLite(":memory:"),
		greenhouse.WithDataDir(dir),
		greenhouse.WithDebounce(0),
		greenhouse.WithSeedFile(seed),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newList(t *testing.T) *service.PlantList {
	t.Helper()
	client := newTestClient(t)

	sc := scope.New(context.Background())
	t.Cleanup(sc.TearDown)
	list, err := client.NewPlantList(sc, nil)
	require.NoError(t, err)
	return list
}

func TestVersionCmd(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "greenhouse version dev")
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "stdio", "seed", "browse", "gallery", "version"})
}

func TestSeedCmd_RequiresFiles(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"seed"})
	assert.ErrorContains(t, cmd.Execute(), "no catalog files")
}

func TestBrowseCommand(t *testing.T) {
	list := newList(t)
	var out bytes.Buffer
	w := &syncWriter{w: &out}

	assert.False(t, browseCommand(list, "tom", w))
	assert.Equal(t, "tom", list.SearchText())

	assert.False(t, browseCommand(list, "/toggle vegetable", w))
	assert.True(t, list.IsFilterEnabled(plant.TypeVegetable))

	assert.False(t, browseCommand(list, "/toggle tree", w))
	assert.False(t, browseCommand(list, "/toggle", w))
	assert.False(t, browseCommand(list, "/filters", w))
	assert.False(t, browseCommand(list, "/nope", w))
	assert.True(t, browseCommand(list, "/quit", w))

	got := out.String()
	assert.Contains(t, got, "usage: /toggle <type>")
	assert.Contains(t, got, "1 active")
	assert.Contains(t, got, "unknown command /nope")
}

func TestRunBrowse_PrintsResults(t *testing.T) {
	list := newList(t)
	sc := scope.New(context.Background())
	t.Cleanup(sc.TearDown)

	pr, pw := io.Pipe()
	var out lockedBuffer
	done := make(chan error, 1)
	go func() { done <- runBrowse(sc, list, pr, &out) }()

	_, _ = pw.Write([]byte("tul\n"))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 plants:")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Tulip")

	_, _ = pw.Write([]byte("/quit\n"))
	require.NoError(t, <-done)
	_ = pw.Close()
}

func TestRunBrowse_PipedInputWaitsForLastAnswer(t *testing.T) {
	list := newList(t)
	sc := scope.New(context.Background())
	t.Cleanup(sc.TearDown)

	var out lockedBuffer
	require.NoError(t, runBrowse(sc, list, strings.NewReader("tul\n"), &out))

	assert.Contains(t, out.String(), "1 plants:")
	assert.Contains(t, out.String(), "Tulip")
}

func TestRunBrowse_QuitSavesUnsettledInput(t *testing.T) {
	client := newTestClient(t, greenhouse.WithDebounce(time.Hour))
	state := client.StateStore("cli:test")

	sc := scope.New(context.Background())
	t.Cleanup(sc.TearDown)
	list, err := client.NewPlantList(sc, state)
	require.NoError(t, err)

	var out lockedBuffer
	require.NoError(t, runBrowse(sc, list, strings.NewReader("tom\n/toggle vegetable\n/quit\n"), &out))

	ctx := context.Background()
	text, err := state.LoadSearchText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tom", text)
	filters, err := state.LoadFilters(ctx)
	require.NoError(t, err)
	assert.True(t, filters.Contains(plant.TypeVegetable))
}

func TestFormatPlants(t *testing.T) {
	assert.Equal(t, "no plants found", formatPlants(nil))
	got := formatPlants([]plant.Plant{plant.New("tulipa", "Tulip", plant.TypeFlower)})
	assert.True(t, strings.HasPrefix(got, "1 plants:"))
	assert.Contains(t, got, "flower")
}

func TestPrintPhotoEvents(t *testing.T) {
	events := make(chan service.PhotoEvent, 4)
	events <- service.PhotoEvent{Kind: dispatch.EventLoading, Loading: true}
	events <- service.PhotoEvent{Kind: dispatch.EventResult, Value: gallery.Page{
		Number: 1, TotalPages: 2, Total: 1200,
		Photos: []gallery.Photo{{RegularURL: "https://img/1", Photographer: "Ada"}},
	}}
	events <- service.PhotoEvent{Kind: dispatch.EventFailed, Err: errors.New("boom")}
	close(events)

	var out bytes.Buffer
	printPhotoEvents(context.Background(), events, &syncWriter{w: &out})

	got := out.String()
	assert.Contains(t, got, "searching...")
	assert.Contains(t, got, "page 1/2 (1,200 photos total)")
	assert.Contains(t, got, "https://img/1")
	assert.Contains(t, got, "search failed: boom")
}

func TestRunGallery_SearchesEachLine(t *testing.T) {
	photos := dispatch.SourceFunc[string, gallery.Page](func(_ context.Context, q string) iter.Seq2[gallery.Page, error] {
		return func(yield func(gallery.Page, error) bool) {
			yield(gallery.Page{Number: 1, TotalPages: 1, Total: 1,
				Photos: []gallery.Photo{{RegularURL: "https://img/" + q, Photographer: "Ada"}},
			}, nil)
		}
	})
	client, err := greenhouse.New(
		greenhouse.WithSQLite(":memory:"),
		greenhouse.WithDataDir(t.TempDir()),
		greenhouse.WithPhotoSource(photos),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sc := scope.New(context.Background())
	t.Cleanup(sc.TearDown)
	g, err := client.NewGallery(sc, "")
	require.NoError(t, err)

	pr, pw := io.Pipe()
	var out lockedBuffer
	done := make(chan error, 1)
	go func() { done <- runGallery(sc, g, pr, &out) }()

	_, _ = pw.Write([]byte("fern\n"))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "https://img/fern")
	}, 5*time.Second, 10*time.Millisecond)

	_, _ = pw.Write([]byte("/quit\n"))
	require.NoError(t, <-done)
	_ = pw.Close()
}
