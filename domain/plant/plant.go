package plant

// DefaultWateringInterval is the watering interval, in days, used when none is given.
const DefaultWateringInterval = 7

// Plant is a catalog entry. It is an immutable value object keyed by its ID.
type Plant struct {
	id               string
	name             string
	description      string
	typ              Type
	growZone         int
	wateringInterval int
	imageURL         string
}

// Option configures optional Plant attributes.
type Option func(*Plant)

// WithDescription sets the plant's description.
func WithDescription(description string) Option {
	return func(p *Plant) { p.description = description }
}

// WithGrowZone sets the hardiness zone the plant grows in.
func WithGrowZone(zone int) Option {
	return func(p *Plant) { p.growZone = zone }
}

// WithWateringInterval sets the watering interval in days. Values below one are ignored.
func WithWateringInterval(days int) Option {
	return func(p *Plant) {
		if days > 0 {
			p.wateringInterval = days
		}
	}
}

// WithImageURL sets the plant's image URL.
func WithImageURL(url string) Option {
	return func(p *Plant) { p.imageURL = url }
}

// New creates a plant.
func New(id, name string, typ Type, opts ...Option) Plant {
	p := Plant{
		id:               id,
		name:             name,
		typ:              typ,
		wateringInterval: DefaultWateringInterval,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ID returns the plant identifier.
func (p Plant) ID() string { return p.id }

// Name returns the display name.
func (p Plant) Name() string { return p.name }

// Description returns the plant description.
func (p Plant) Description() string { return p.description }

// Type returns the plant's category.
func (p Plant) Type() Type { return p.typ }

// GrowZone returns the hardiness zone.
func (p Plant) GrowZone() int { return p.growZone }

// WateringInterval returns the watering interval in days.
func (p Plant) WateringInterval() int { return p.wateringInterval }

// ImageURL returns the plant's image URL.
func (p Plant) ImageURL() string { return p.imageURL }

func (p Plant) String() string { return p.name }
