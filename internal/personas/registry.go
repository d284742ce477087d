// Package personas holds the persona catalog: the built-in characters
// plus any loaded from a persona directory.
package personas

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

//go:embed personas.yaml
var builtinYAML []byte

// Registry resolves persona ids to their configuration. Registries are
// immutable after construction.
type Registry struct {
	byID  map[string]models.Persona
	order []string
}

// NewRegistry builds a registry from the built-in catalog plus extra
// personas. An extra persona with a built-in id overrides the built-in.
func NewRegistry(extra ...models.Persona) (*Registry, error) {
	var builtin []models.Persona
	if err := yaml.Unmarshal(builtinYAML, &builtin); err != nil {
		return nil, fmt.Errorf("parse builtin personas: %w", err)
	}

	r := &Registry{byID: make(map[string]models.Persona)}
	for _, p := range append(builtin, extra...) {
		if p.ID == "" {
			return nil, fmt.Errorf("persona %q has no id", p.Name)
		}
		if p.SystemPrompt == "" {
			return nil, fmt.Errorf("persona %s has no system prompt", p.ID)
		}
		if _, exists := r.byID[p.ID]; !exists {
			r.order = append(r.order, p.ID)
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// Get resolves a persona id.
func (r *Registry) Get(id string) (models.Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every persona, built-ins first in catalog order, loaded
// personas after them in the order given to NewRegistry.
func (r *Registry) All() []models.Persona {
	out := make([]models.Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every persona id in catalog order.
func (r *Registry) IDs() []string {
	out := append([]string(nil), r.order...)
	return out
}

func sortByID(ps []models.Persona) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
