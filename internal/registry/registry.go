// Package registry holds the catalog of views a workspace can reference.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Descriptor describes one view. Handle names the renderer that draws it.
type Descriptor struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Route  string `json:"route,omitempty" yaml:"route,omitempty"`
	Handle string `json:"handle" yaml:"handle"`
}

// Lookup resolves view ids to descriptors.
type Lookup interface {
	Lookup(id string) (Descriptor, bool)
}

// Registry is an immutable catalog built once per session.
type Registry struct {
	byID  map[string]Descriptor
	order []string
}

// New builds a registry. Ids must be unique and non-empty.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]Descriptor, len(descs))}
	for i, d := range descs {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("view %d: empty id", i)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("view %q registered twice", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		if d.Handle == "" {
			d.Handle = d.ID
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered views.
func (r *Registry) Len() int { return len(r.order) }

// Suggest returns up to n registered ids closest to id by edit distance,
// ignoring those further than half the length of id.
func (r *Registry) Suggest(id string, n int) []string {
	type cand struct {
		id   string
		dist int
	}
	limit := len(id)/2 + 1
	var cands []cand
	needle := strings.ToLower(id)
	for _, known := range r.order {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(known))
		if d <= limit {
			cands = append(cands, cand{known, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.id)
	}
	return out
}

// UnknownViewError reports a view id missing from the registry.
type UnknownViewError struct {
	ID          string
	Suggestions []string
}

func (e *UnknownViewError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown view %q", e.ID)
	}
	return fmt.Sprintf("unknown view %q (did you mean %s?)", e.ID, strings.Join(e.Suggestions, ", "))
}

// Resolve returns the descriptor for id or an *UnknownViewError carrying
// close matches.
func (r *Registry) Resolve(id string) (Descriptor, error) {
	if d, ok := r.byID[id]; ok {
		return d, nil
	}
	return Descriptor{}, &UnknownViewError{ID: id, Suggestions: r.Suggest(id, 3)}
}
