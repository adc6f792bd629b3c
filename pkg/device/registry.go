package device

import "fmt"

// Registry is the static catalog of controls. It is immutable after construction
// and safe for concurrent reads.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// NewRegistry validates descs and builds a registry that lists them in the given order.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: no controls", ErrInvalidCatalog)
	}

	r := &Registry{
		order: make([]string, 0, len(descs)),
		byID:  make(map[string]Descriptor, len(descs)),
	}
	for i, d := range descs {
		if err := validateDescriptor(d); err != nil {
			return nil, fmt.Errorf("%w: control %d: %v", ErrInvalidCatalog, i, err)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, d.ID)
		}
		if d.Range != nil {
			rng := *d.Range
			d.Range = &rng
		}
		if d.Type == "" {
			d.Type = DeviceTypeGeneric
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}
	return r, nil
}

func validateDescriptor(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("empty id")
	}
	switch d.Kind {
	case KindToggle:
		if d.Range != nil {
			return fmt.Errorf("%q: toggle control cannot carry a range", d.ID)
		}
	case KindRange:
		if d.Range == nil {
			return fmt.Errorf("%q: range control needs a range", d.ID)
		}
		if !(d.Range.Min < d.Range.Max) {
			return fmt.Errorf("%q: range min %g must be below max %g", d.ID, d.Range.Min, d.Range.Max)
		}
		if d.Range.Step <= 0 {
			return fmt.Errorf("%q: range step must be positive", d.ID)
		}
	default:
		return fmt.Errorf("%q: unknown kind %q", d.ID, d.Kind)
	}
	return nil
}

// ListAll returns copies of every descriptor in catalog order.
func (r *Registry) ListAll() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.copyOf(id))
	}
	return out
}

// Get returns the descriptor for id, or ErrUnknownDevice.
func (r *Registry) Get(id string) (Descriptor, error) {
	if _, ok := r.byID[id]; !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
	}
	return r.copyOf(id), nil
}

// Has reports whether id is in the catalog.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of controls.
func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) copyOf(id string) Descriptor {
	d := r.byID[id]
	if d.Range != nil {
		rng := *d.Range
		d.Range = &rng
	}
	return d
}
