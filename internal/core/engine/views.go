package engine

import (
	"sort"

	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

// Option is one catalog item rendered for display.
type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// SlotView describes one slot for display.
type SlotView struct {
	Name     string       `json:"name"`
	Section  slot.Section `json:"section"`
	HasColor bool         `json:"has_color"`
	Options  []Option     `json:"options"`
}

// SlotListing is the full slot layout plus the constraint flag lists.
type SlotListing struct {
	Slots               []SlotView `json:"slots"`
	LowerBodyCoversLegs []string   `json:"lower_body_covers_legs"`
	PoseUsesHands       []string   `json:"pose_uses_hands"`
}

// Slots lists every slot in registry order with options named in loc.
func (e *Engine) Slots(loc locale.Locale) SlotListing {
	listing := SlotListing{
		Slots:               make([]SlotView, 0, e.registry.Len()),
		LowerBodyCoversLegs: []string{},
		PoseUsesHands:       []string{},
	}
	for _, def := range e.registry.Definitions() {
		view := SlotView{Name: def.Name, Section: def.Section, HasColor: def.HasColor, Options: []Option{}}
		if c, ok := e.index.Catalog(def.CatalogRef); ok {
			for _, item := range c.Items() {
				view.Options = append(view.Options, Option{ID: item.ID, Name: item.DisplayName(loc), Group: item.Group})
			}
			switch def.Name {
			case slot.LowerBody:
				listing.LowerBodyCoversLegs = append(listing.LowerBodyCoversLegs, c.CoversLegsIDs()...)
			case slot.Pose:
				listing.PoseUsesHands = append(listing.PoseUsesHands, c.UsesHandsIDs()...)
			}
		}
		listing.Slots = append(listing.Slots, view)
	}
	return listing
}

// ColorView is a color token with its localized name.
type ColorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Colors lists the individual colors in source order.
func (e *Engine) Colors(loc locale.Locale) []ColorView {
	colors := e.index.Colors()
	out := make([]ColorView, 0, len(colors))
	for _, color := range colors {
		out = append(out, ColorView{ID: color.ID, Name: color.DisplayName(loc)})
	}
	return out
}

// PaletteView is a palette with localized names for its colors.
type PaletteView struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	CategoryColors map[string]ColorView `json:"category_colors"`
	Fallback       *ColorView           `json:"fallback,omitempty"`
}

// Palettes lists the palettes in source order.
func (e *Engine) Palettes(loc locale.Locale) []PaletteView {
	palettes := e.index.Palettes()
	out := make([]PaletteView, 0, len(palettes))
	for _, p := range palettes {
		view := PaletteView{ID: p.ID, Name: p.DisplayName(loc), CategoryColors: map[string]ColorView{}}
		categories := make([]string, 0, len(p.CategoryColors))
		for category := range p.CategoryColors {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			token := p.CategoryColors[category]
			view.CategoryColors[category] = ColorView{ID: token, Name: e.index.ColorName(token, loc)}
		}
		if p.Fallback != "" {
			view.Fallback = &ColorView{ID: p.Fallback, Name: e.index.ColorName(p.Fallback, loc)}
		}
		out = append(out, view)
	}
	return out
}
