package plant

import "github.com/helixml/greenhouse/domain/repository"

// WithNameContaining matches plants whose name contains text, ignoring case.
func WithNameContaining(text string) repository.Option {
	return repository.WithConditionContains("name", text)
}

// WithTypeIn matches plants of any type in f.
func WithTypeIn(f Filters) repository.Option {
	names := make([]string, 0, f.Len())
	for _, t := range f.Types() {
		names = append(names, string(t))
	}
	return repository.WithConditionIn("plant_type", names)
}

// WithOrderByName sorts plants by name.
func WithOrderByName() repository.Option {
	return repository.WithOrderAsc("name")
}

// WithID matches the plant with the given identifier.
func WithID(id string) repository.Option {
	return repository.WithCondition("id", id)
}
