package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/helixml/greenhouse/domain/plant"
	"github.com/helixml/greenhouse/domain/query"
	"github.com/helixml/greenhouse/domain/repository"
	"github.com/helixml/greenhouse/internal/dispatch"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	apple  = plant.New("malus-pumila", "Apple", plant.TypeFruit)
	tulip  = plant.New("tulipa", "Tulip", plant.TypeFlower)
	tomato = plant.New("solanum-lycopersicum", "Tomato", plant.TypeVegetable)
)

// recordingSource records every spec it runs and yields result once.
type recordingSource struct {
	mu     sync.Mutex
	specs  []query.Spec
	result []plant.Plant
	block  bool
}

func (s *recordingSource) Execute(ctx context.Context, spec query.Spec) iter.Seq2[[]plant.Plant, error] {
	return func(yield func([]plant.Plant, error) bool) {
		s.mu.Lock()
		s.specs = append(s.specs, spec)
		s.mu.Unlock()
		if s.block {
			<-ctx.Done()
			return
		}
		yield(s.result, nil)
	}
}

func (s *recordingSource) Specs() []query.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]query.Spec(nil), s.specs...)
}

type memoryState struct {
	mu          sync.Mutex
	filters     plant.Filters
	text        string
	filterSaves int
	textSaves   int
	loadErr     error
}

func (m *memoryState) LoadFilters(context.Context) (plant.Filters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters, m.loadErr
}

func (m *memoryState) SaveFilters(_ context.Context, f plant.Filters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = f
	m.filterSaves++
	return nil
}

func (m *memoryState) LoadSearchText(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.loadErr
}

func (m *memoryState) SaveSearchText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.textSaves++
	return nil
}

func (m *memoryState) snapshot() (plant.Filters, string, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters, m.text, m.filterSaves, m.textSaves
}

// memoryStore is a plant.Store that only honours id equality conditions.
type memoryStore struct {
	mu      sync.Mutex
	plants  []plant.Plant
	options [][]repository.Option
	findErr error
}

func (m *memoryStore) Find(_ context.Context, options ...repository.Option) ([]plant.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = append(m.options, options)
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, c := range repository.Build(options...).Conditions() {
		if c.Field() != "id" {
			continue
		}
		for _, p := range m.plants {
			if p.ID() == c.Value() {
				return []plant.Plant{p}, nil
			}
		}
		return nil, nil
	}
	return append([]plant.Plant(nil), m.plants...), nil
}

func (m *memoryStore) Count(context.Context, ...repository.Option) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.plants)), nil
}

func (m *memoryStore) Save(ctx context.Context, p plant.Plant) error {
	return m.SaveAll(ctx, []plant.Plant{p})
}

func (m *memoryStore) SaveAll(_ context.Context, plants []plant.Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range plants {
		i := slices.IndexFunc(m.plants, func(q plant.Plant) bool { return q.ID() == p.ID() })
		if i >= 0 {
			m.plants[i] = p
			continue
		}
		m.plants = append(m.plants, p)
	}
	return nil
}

var errStateUnavailable = errors.New("state unavailable")

// collect reads ch in the background until it closes.
func collect[T any](ch <-chan T) func() []T {
	var got []T
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range ch {
			got = append(got, v)
		}
	}()
	return func() []T {
		<-done
		return got
	}
}

func kinds(events []PlantEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Kind.String()
		if ev.Kind == dispatch.EventLoading {
			out[i] = fmt.Sprintf("loading:%t", ev.Loading)
		}
	}
	return out
}
