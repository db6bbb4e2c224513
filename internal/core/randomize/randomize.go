// Package randomize picks catalog items and colors for prompt slots.
package randomize

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

// ColorMode selects how colorable slots receive a color.
type ColorMode string

const (
	ColorNone       ColorMode = "none"
	ColorIndividual ColorMode = "individual"
	ColorPalette    ColorMode = "palette"
)

// ErrInvalidColorMode is returned for an unrecognized color mode.
var ErrInvalidColorMode = errors.New("invalid color mode")

// ParseColorMode maps a case-insensitive name onto a ColorMode. Blank input
// means ColorNone.
func ParseColorMode(value string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ColorNone:
		return ColorNone, nil
	case ColorIndividual:
		return ColorIndividual, nil
	case ColorPalette:
		return ColorPalette, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidColorMode, value)
	}
}

// UnknownSlotError reports a slot name missing from the registry.
type UnknownSlotError struct {
	Slot string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("unknown slot %q", e.Slot)
}

// UnknownPaletteError reports a palette id missing from the catalogs.
type UnknownPaletteError struct {
	PaletteID string
}

func (e *UnknownPaletteError) Error() string {
	return fmt.Sprintf("unknown palette %q", e.PaletteID)
}

// Value is a slot's value and color. Empty strings mean none.
type Value struct {
	ValueID string `json:"value_id,omitempty"`
	Color   string `json:"color,omitempty"`
}

// Request describes one randomization call.
type Request struct {
	// Slots lists the slots to randomize in processing order.
	Slots     []string
	Locked    map[string]bool
	ColorMode ColorMode
	PaletteID string
	Modes     constraint.Modes
	// Current is the pre-call snapshot every slot is resolved against.
	Current map[string]Value
	// Inactive slots keep their snapshot value for locking but are left out
	// of constraint evaluation.
	Inactive map[string]bool
	Seed     int64
}

// Outcome is the randomized value of one slot.
type Outcome struct {
	Slot          string `json:"slot"`
	ValueID       string `json:"value_id,omitempty"`
	Color         string `json:"color,omitempty"`
	Locked        bool   `json:"locked,omitempty"`
	ForceDisabled bool   `json:"force_disabled,omitempty"`
}

// Result holds the outcomes in processing order.
type Result struct {
	Outcomes []Outcome
	Seed     int64
}

// Deltas converts the outcomes of unlocked slots into slot deltas.
func (r Result) Deltas() []slot.Delta {
	out := make([]slot.Delta, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if outcome.Locked {
			continue
		}
		out = append(out, slot.Delta{Slot: outcome.Slot, ValueID: outcome.ValueID, Color: outcome.Color})
	}
	return out
}

// Map indexes the outcomes by slot name.
func (r Result) Map() map[string]Outcome {
	out := make(map[string]Outcome, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		out[outcome.Slot] = outcome
	}
	return out
}

// Randomizer draws slot values from an immutable catalog index.
type Randomizer struct {
	index    *catalog.Index
	registry *slot.Registry
	resolver *constraint.Resolver
}

// New returns a Randomizer bound to index and registry.
func New(index *catalog.Index, registry *slot.Registry) *Randomizer {
	return &Randomizer{
		index:    index,
		registry: registry,
		resolver: constraint.NewResolver(index, registry),
	}
}

// Randomize picks a value and color for every requested slot.
//
// # Determinism
//
// Randomize is deterministic with respect to Request.Seed: the same seed,
// slot order, and snapshot always produce the same Result. Every slot is
// resolved against Request.Current, never against values picked earlier in
// the same call.
//
// # Per-slot rules
//
//   - Locked slots keep their current value and color.
//   - Force-disabled slots get no value and no color.
//   - Other slots get a uniform pick from their catalog; an empty or
//     missing catalog yields no value.
//   - Colorable slots with a value get a color according to ColorMode.
//     Palette lookups are deterministic: category mapping, then the palette
//     fallback, then none.
//
// Repeated slot names are processed once.
//
// # Errors
//
//   - *UnknownSlotError when a requested slot is not in the registry.
//   - *UnknownPaletteError when ColorMode is palette and PaletteID is unknown.
//   - ErrInvalidColorMode for an unrecognized ColorMode.
func (r *Randomizer) Randomize(req Request) (Result, error) {
	mode := req.ColorMode
	if mode == "" {
		mode = ColorNone
	}
	var palette catalog.Palette
	switch mode {
	case ColorNone, ColorIndividual:
	case ColorPalette:
		p, ok := r.index.Palette(req.PaletteID)
		if !ok {
			return Result{}, &UnknownPaletteError{PaletteID: req.PaletteID}
		}
		palette = p
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidColorMode, mode)
	}

	defs := make([]slot.Definition, 0, len(req.Slots))
	seen := make(map[string]bool, len(req.Slots))
	for _, name := range req.Slots {
		if seen[name] {
			continue
		}
		def, ok := r.registry.Lookup(name)
		if !ok {
			return Result{}, &UnknownSlotError{Slot: name}
		}
		seen[name] = true
		defs = append(defs, def)
	}

	currentValues := make(map[string]string, len(req.Current))
	for name, value := range req.Current {
		if value.ValueID != "" && !req.Inactive[name] {
			currentValues[name] = value.ValueID
		}
	}
	disabled := r.resolver.ForceDisabled(req.Modes, currentValues)
	colors := r.index.Colors()
	rng := rand.New(rand.NewSource(req.Seed))

	outcomes := make([]Outcome, 0, len(defs))
	for _, def := range defs {
		outcome := Outcome{Slot: def.Name}
		switch {
		case req.Locked[def.Name]:
			current := req.Current[def.Name]
			outcome.ValueID = current.ValueID
			outcome.Color = current.Color
			outcome.Locked = true
		case disabled.Has(def.Name):
			outcome.ForceDisabled = true
		default:
			outcome.ValueID = r.pick(rng, def)
			if def.HasColor && outcome.ValueID != "" {
				outcome.Color = pickColor(rng, mode, def, palette, colors)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return Result{Outcomes: outcomes, Seed: req.Seed}, nil
}

// RandomizeAll randomizes every registry slot in registry order against one
// shared snapshot.
func (r *Randomizer) RandomizeAll(req Request) (Result, error) {
	req.Slots = r.registry.Names()
	return r.Randomize(req)
}

func (r *Randomizer) pick(rng *rand.Rand, def slot.Definition) string {
	c, ok := r.index.Catalog(def.CatalogRef)
	if !ok || c.Len() == 0 {
		return ""
	}
	return c.At(rng.Intn(c.Len())).ID
}

func pickColor(rng *rand.Rand, mode ColorMode, def slot.Definition, palette catalog.Palette, colors []catalog.Color) string {
	switch mode {
	case ColorIndividual:
		if len(colors) == 0 {
			return ""
		}
		return colors[rng.Intn(len(colors))].ID
	case ColorPalette:
		return palette.ColorFor(def.ColorCategory)
	default:
		return ""
	}
}
