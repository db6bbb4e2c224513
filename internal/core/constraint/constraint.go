// Package constraint computes which slots are force-disabled for one call.
//
// Force-disable is distinct from a user disabling a slot: it is derived from
// the active modes and current values every time and never stored.
package constraint

import (
	"sort"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

// Modes are the global outfit toggles.
type Modes struct {
	FullBody  bool `json:"full_body_mode"`
	UpperBody bool `json:"upper_body_mode"`
}

// Normalize resolves the mutual exclusion: full-body wins.
func (m Modes) Normalize() Modes {
	if m.FullBody {
		m.UpperBody = false
	}
	return m
}

// Set is a set of slot names.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolver evaluates the constraint rules against catalog metadata.
type Resolver struct {
	index    *catalog.Index
	registry *slot.Registry
}

// NewResolver returns a resolver bound to index and registry.
func NewResolver(index *catalog.Index, registry *slot.Registry) *Resolver {
	return &Resolver{index: index, registry: registry}
}

// ForceDisabled returns the slots suppressed under modes given the current
// slot values (slot name -> item id).
func (r *Resolver) ForceDisabled(modes Modes, current map[string]string) Set {
	out := Set{}
	modes = modes.Normalize()
	switch {
	case modes.FullBody:
		out[slot.UpperBody] = struct{}{}
		out[slot.LowerBody] = struct{}{}
	case modes.UpperBody:
		out[slot.LowerBody] = struct{}{}
		out[slot.Legs] = struct{}{}
		out[slot.Feet] = struct{}{}
	}
	if item, ok := r.currentItem(slot.LowerBody, current); ok && item.CoversLegs {
		out[slot.Legs] = struct{}{}
	}
	if item, ok := r.currentItem(slot.Pose, current); ok && item.UsesHands {
		out[slot.Gesture] = struct{}{}
	}
	return out
}

func (r *Resolver) currentItem(name string, current map[string]string) (catalog.Item, bool) {
	valueID := current[name]
	if valueID == "" {
		return catalog.Item{}, false
	}
	def, ok := r.registry.Lookup(name)
	if !ok {
		return catalog.Item{}, false
	}
	return r.index.Item(def.CatalogRef, valueID)
}
