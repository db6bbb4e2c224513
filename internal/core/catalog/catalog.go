// Package catalog loads and indexes the localized option lists behind every
// prompt slot, together with the individual color set and the palettes.
//
// An Index is built once at startup and never mutated afterward, so it can
// be shared by concurrent callers without locking.
package catalog

import (
	"sort"

	"github.com/louisbranch/promptforge/internal/core/locale"
)

// Item is one selectable option of a catalog.
type Item struct {
	ID string
	// Name is the locale-independent default name.
	Name       string
	Names      map[locale.Locale]string
	Group      string
	CoversLegs bool
	UsesHands  bool
}

// DisplayName resolves the item name for loc, falling back to the default
// locale, then the default name, then the raw id.
func (i Item) DisplayName(loc locale.Locale) string {
	return resolveName(i.Names, i.Name, i.ID, loc)
}

// Catalog is the ordered item list backing one or more slots.
type Catalog struct {
	Ref   string
	items []Item
	byID  map[string]int
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the item at position i in source order.
func (c *Catalog) At(i int) Item {
	return c.items[i]
}

// Items returns a copy of the items in source order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// CoversLegsIDs lists the ids of items flagged covers_legs.
func (c *Catalog) CoversLegsIDs() []string {
	return c.flagged(func(item Item) bool { return item.CoversLegs })
}

// UsesHandsIDs lists the ids of items flagged uses_hands.
func (c *Catalog) UsesHandsIDs() []string {
	return c.flagged(func(item Item) bool { return item.UsesHands })
}

func (c *Catalog) flagged(keep func(Item) bool) []string {
	out := []string{}
	if c == nil {
		return out
	}
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item.ID)
		}
	}
	return out
}

// Color is a color token with localized names.
type Color struct {
	ID    string
	Name  string
	Names map[locale.Locale]string
}

// DisplayName resolves the color name with the same fallback chain as items.
func (c Color) DisplayName(loc locale.Locale) string {
	return resolveName(c.Names, c.Name, c.ID, loc)
}

// Palette maps color categories to fixed color tokens.
type Palette struct {
	ID             string
	Name           string
	Names          map[locale.Locale]string
	CategoryColors map[string]string
	// Fallback applies to categories without an explicit mapping.
	Fallback string
}

// DisplayName resolves the palette name.
func (p Palette) DisplayName(loc locale.Locale) string {
	return resolveName(p.Names, p.Name, p.ID, loc)
}

// ColorFor returns the token for category, the palette fallback, or "".
func (p Palette) ColorFor(category string) string {
	if token, ok := p.CategoryColors[category]; ok && token != "" {
		return token
	}
	return p.Fallback
}

// Index is the immutable result of loading every catalog source.
type Index struct {
	catalogs  map[string]*Catalog
	colors    []Color
	colorByID map[string]int
	palettes  []Palette
	paletteBy map[string]int
}

// Catalog returns the catalog registered under ref.
func (ix *Index) Catalog(ref string) (*Catalog, bool) {
	if ix == nil {
		return nil, false
	}
	c, ok := ix.catalogs[ref]
	return c, ok
}

// CatalogRefs returns the sorted catalog refs.
func (ix *Index) CatalogRefs() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, 0, len(ix.catalogs))
	for ref := range ix.catalogs {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Item looks up one item of catalog ref.
func (ix *Index) Item(ref, id string) (Item, bool) {
	c, ok := ix.Catalog(ref)
	if !ok {
		return Item{}, false
	}
	return c.Item(id)
}

// Colors returns the individual colors in source order.
func (ix *Index) Colors() []Color {
	if ix == nil {
		return nil
	}
	out := make([]Color, len(ix.colors))
	copy(out, ix.colors)
	return out
}

// Color looks up a color token.
func (ix *Index) Color(id string) (Color, bool) {
	if ix == nil {
		return Color{}, false
	}
	idx, ok := ix.colorByID[id]
	if !ok {
		return Color{}, false
	}
	return ix.colors[idx], true
}

// ColorName localizes a color token. Tokens outside the individual set
// render as themselves.
func (ix *Index) ColorName(token string, loc locale.Locale) string {
	if color, ok := ix.Color(token); ok {
		return color.DisplayName(loc)
	}
	return token
}

// Palettes returns the palettes in source order.
func (ix *Index) Palettes() []Palette {
	if ix == nil {
		return nil
	}
	out := make([]Palette, len(ix.palettes))
	copy(out, ix.palettes)
	return out
}

// Palette looks up a palette by id.
func (ix *Index) Palette(id string) (Palette, bool) {
	if ix == nil {
		return Palette{}, false
	}
	idx, ok := ix.paletteBy[id]
	if !ok {
		return Palette{}, false
	}
	return ix.palettes[idx], true
}

// ColorVocabulary returns every known color token: the individual colors
// plus tokens only referenced by palettes, sorted by id.
func (ix *Index) ColorVocabulary() []Color {
	if ix == nil {
		return nil
	}
	out := ix.Colors()
	seen := make(map[string]bool, len(out))
	for _, color := range out {
		seen[color.ID] = true
	}
	for _, palette := range ix.palettes {
		tokens := make([]string, 0, len(palette.CategoryColors)+1)
		for _, token := range palette.CategoryColors {
			tokens = append(tokens, token)
		}
		tokens = append(tokens, palette.Fallback)
		for _, token := range tokens {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, Color{ID: token, Name: token})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func resolveName(names map[locale.Locale]string, fallback, id string, loc locale.Locale) string {
	if name := names[loc]; name != "" {
		return name
	}
	if name := names[locale.Default]; name != "" {
		return name
	}
	if fallback != "" {
		return fallback
	}
	return id
}
