// Package preset defines saved character configurations and repairs them
// against the current catalogs.
package preset

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

// Snapshot is a named, complete studio state.
type Snapshot struct {
	Name          string        `json:"name" toml:"name" yaml:"name"`
	CreatedAt     time.Time     `json:"created_at" toml:"created_at" yaml:"created_at"`
	Locale        locale.Locale `json:"locale" toml:"locale" yaml:"locale"`
	Prefix        string        `json:"prefix" toml:"prefix" yaml:"prefix"`
	ColorMode     string        `json:"color_mode,omitempty" toml:"color_mode,omitempty" yaml:"color_mode,omitempty"`
	PaletteID     string        `json:"palette_id,omitempty" toml:"palette_id,omitempty" yaml:"palette_id,omitempty"`
	FullBodyMode  bool          `json:"full_body_mode" toml:"full_body_mode" yaml:"full_body_mode"`
	UpperBodyMode bool          `json:"upper_body_mode" toml:"upper_body_mode" yaml:"upper_body_mode"`
	Slots         slot.Config   `json:"slots" toml:"slots" yaml:"slots"`
}

// Dropped records one value removed during validation.
type Dropped struct {
	Slot   string `json:"slot,omitempty"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

const (
	ReasonUnknownSlot    = "unknown slot"
	ReasonUnknownValue   = "unknown value"
	ReasonColorless      = "slot has no color"
	ReasonUnknownPalette = "unknown palette"
	ReasonBadColorMode   = "invalid color mode"
)

// Validate returns a copy of snap that only references known slots,
// items and palettes. Values stored as a display name in any locale are
// resolved back to their item id. Nothing here is fatal: each removal is
// logged and reported.
func Validate(index *catalog.Index, registry *slot.Registry, snap Snapshot) (Snapshot, []Dropped) {
	var dropped []Dropped
	drop := func(d Dropped) {
		log.Printf("preset %q: dropping %s %q: %s", snap.Name, d.Field, d.Value, d.Reason)
		dropped = append(dropped, d)
	}

	out := snap
	out.Name = strings.TrimSpace(snap.Name)
	out.Locale = locale.Normalize(string(snap.Locale))

	mode, err := randomize.ParseColorMode(snap.ColorMode)
	if err != nil {
		drop(Dropped{Field: "color_mode", Value: snap.ColorMode, Reason: ReasonBadColorMode})
		mode = randomize.ColorNone
	}
	out.ColorMode = string(mode)
	if out.PaletteID != "" {
		if _, ok := index.Palette(out.PaletteID); !ok {
			drop(Dropped{Field: "palette_id", Value: out.PaletteID, Reason: ReasonUnknownPalette})
			out.PaletteID = ""
		}
	}

	names := make([]string, 0, len(snap.Slots))
	for name := range snap.Slots {
		names = append(names, name)
	}
	sort.Strings(names)

	out.Slots = make(slot.Config, len(snap.Slots))
	for _, name := range names {
		state := snap.Slots[name]
		def, ok := registry.Lookup(name)
		if !ok {
			drop(Dropped{Slot: name, Field: "slot", Value: name, Reason: ReasonUnknownSlot})
			continue
		}
		if state.ValueID != "" {
			id, ok := resolveItem(index, def.CatalogRef, state.ValueID)
			if !ok {
				drop(Dropped{Slot: name, Field: "value_id", Value: state.ValueID, Reason: ReasonUnknownValue})
				state.ValueID = ""
				state.Color = ""
			} else {
				state.ValueID = id
			}
		}
		if state.Color != "" {
			if def.HasColor {
				state.Color = resolveColor(index, state.Color)
			} else {
				drop(Dropped{Slot: name, Field: "color", Value: state.Color, Reason: ReasonColorless})
			}
		}
		out.Slots[name] = state.Normalized(def)
	}
	return out, dropped
}

// resolveItem accepts either an item id or a display name in any locale.
func resolveItem(index *catalog.Index, ref, value string) (string, bool) {
	c, ok := index.Catalog(ref)
	if !ok {
		return "", false
	}
	if item, ok := c.Item(value); ok {
		return item.ID, true
	}
	for _, item := range c.Items() {
		for _, loc := range locale.Supported() {
			if strings.EqualFold(item.DisplayName(loc), value) {
				return item.ID, true
			}
		}
	}
	return "", false
}

// resolveColor maps a localized color name back to its token. Unknown
// tokens are kept as free-form colors.
func resolveColor(index *catalog.Index, value string) string {
	if _, ok := index.Color(value); ok {
		return value
	}
	for _, color := range index.ColorVocabulary() {
		for _, loc := range locale.Supported() {
			if strings.EqualFold(color.DisplayName(loc), value) {
				return color.ID
			}
		}
	}
	return value
}

// FromConfig captures a configuration under name.
func FromConfig(name string, cfg slot.Config, loc locale.Locale, prefix string, now time.Time) Snapshot {
	return Snapshot{
		Name:      name,
		CreatedAt: now.UTC(),
		Locale:    loc,
		Prefix:    prefix,
		Slots:     cfg.Clone(),
	}
}
