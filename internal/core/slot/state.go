package slot

import (
	"math"
)

const (
	MinWeight     = 0.1
	MaxWeight     = 2.0
	DefaultWeight = 1.0
)

// ClampWeight bounds w to [MinWeight, MaxWeight]. NaN becomes DefaultWeight.
func ClampWeight(w float64) float64 {
	switch {
	case math.IsNaN(w):
		return DefaultWeight
	case w < MinWeight:
		return MinWeight
	case w > MaxWeight:
		return MaxWeight
	default:
		return w
	}
}

// State is the runtime state of one slot. Empty ValueID and Color mean
// "none".
type State struct {
	Enabled bool    `json:"enabled" toml:"enabled" yaml:"enabled"`
	Locked  bool    `json:"locked" toml:"locked" yaml:"locked"`
	ValueID string  `json:"value_id,omitempty" toml:"value_id,omitempty" yaml:"value_id,omitempty"`
	Color   string  `json:"color,omitempty" toml:"color,omitempty" yaml:"color,omitempty"`
	Weight  float64 `json:"weight" toml:"weight" yaml:"weight"`
}

// NewState returns an enabled, empty state at the default weight.
func NewState() State {
	return State{Enabled: true, Weight: DefaultWeight}
}

// Normalized returns s with the weight clamped and the color dropped when
// the slot cannot carry one. A zero weight is treated as unset.
func (s State) Normalized(def Definition) State {
	if s.Weight == 0 {
		s.Weight = DefaultWeight
	}
	s.Weight = ClampWeight(s.Weight)
	if !def.HasColor {
		s.Color = ""
	}
	return s
}

// Config maps slot names to states: one character configuration.
type Config map[string]State

// NewConfig returns a configuration with every registry slot enabled and
// empty.
func NewConfig(r *Registry) Config {
	cfg := make(Config, r.Len())
	for _, def := range r.defs {
		cfg[def.Name] = NewState()
	}
	return cfg
}

// Clone returns an independent copy.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for name, state := range c {
		out[name] = state
	}
	return out
}

// Values returns the slot -> value snapshot used by constraint checks.
// Disabled slots are omitted when enabledOnly is set.
func (c Config) Values(enabledOnly bool) map[string]string {
	out := make(map[string]string, len(c))
	for name, state := range c {
		if state.ValueID == "" || (enabledOnly && !state.Enabled) {
			continue
		}
		out[name] = state.ValueID
	}
	return out
}

// Locked returns the set of locked slot names.
func (c Config) Locked() map[string]bool {
	out := map[string]bool{}
	for name, state := range c {
		if state.Locked {
			out[name] = true
		}
	}
	return out
}

// Delta is a change to one slot produced by randomization or parsing.
type Delta struct {
	Slot    string  `json:"slot"`
	ValueID string  `json:"value_id,omitempty"`
	Color   string  `json:"color,omitempty"`
	// Weight of zero leaves the current weight untouched.
	Weight float64 `json:"weight,omitempty"`
	// Enable forces the slot on.
	Enable bool `json:"enable,omitempty"`
}

// Apply writes deltas into a copy of c. Unknown slots are skipped; weight
// and color invariants are enforced on every touched slot.
func (c Config) Apply(r *Registry, deltas []Delta) Config {
	out := c.Clone()
	for _, delta := range deltas {
		def, ok := r.Lookup(delta.Slot)
		if !ok {
			continue
		}
		state, exists := out[delta.Slot]
		if !exists {
			state = NewState()
		}
		state.ValueID = delta.ValueID
		state.Color = delta.Color
		if delta.Weight != 0 {
			state.Weight = delta.Weight
		}
		if delta.Enable {
			state.Enabled = true
		}
		out[delta.Slot] = state.Normalized(def)
	}
	return out
}

// Normalize returns a copy without unknown slots and with every state
// normalized.
func (c Config) Normalize(r *Registry) Config {
	out := make(Config, len(c))
	for name, state := range c {
		def, ok := r.Lookup(name)
		if !ok {
			continue
		}
		out[name] = state.Normalized(def)
	}
	return out
}
