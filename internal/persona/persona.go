package persona

import (
	"fmt"
	"strings"
)

// DefaultID is the identifier of the persona used when none is requested.
const DefaultID = "bible-chat"

// Persona is a named behavioral profile that biases the assistant's tone and
// content focus.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"-"`
}

// Registry is an immutable, order-stable set of personas with unique
// identifiers. The first persona is the default.
type Registry struct {
	personas []Persona
	byID     map[string]int
}

// NewRegistry builds a registry from personas in the given order.
func NewRegistry(personas ...Persona) (*Registry, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("persona registry requires at least one persona")
	}

	r := &Registry{
		personas: make([]Persona, 0, len(personas)),
		byID:     make(map[string]int, len(personas)),
	}
	for _, p := range personas {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("persona %q has an empty identifier", p.Name)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate persona identifier %q", id)
		}
		p.ID = id
		p.Prompt = strings.TrimSpace(p.Prompt)
		r.byID[id] = len(r.personas)
		r.personas = append(r.personas, p)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on an invalid persona set.
func MustNewRegistry(personas ...Persona) *Registry {
	r, err := NewRegistry(personas...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the persona with the given id.
func (r *Registry) Get(id string) (Persona, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Persona{}, false
	}
	return r.personas[i], true
}

// Lookup returns the persona with the given id, or the default persona when
// the id is empty or unknown. It never fails.
func (r *Registry) Lookup(id string) Persona {
	if p, ok := r.Get(id); ok {
		return p
	}
	return r.Default()
}

// Default returns the first registered persona.
func (r *Registry) Default() Persona {
	return r.personas[0]
}

// All returns the personas in registration order.
func (r *Registry) All() []Persona {
	out := make([]Persona, len(r.personas))
	copy(out, r.personas)
	return out
}
