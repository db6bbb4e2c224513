// Package slot defines the static slot registry and the per-slot runtime
// state that together make up a character configuration.
package slot

import (
	"fmt"
	"strings"
)

// Section groups slots for display. It has no effect on generation.
type Section string

const (
	SectionAppearance Section = "appearance"
	SectionBody       Section = "body"
	SectionClothing   Section = "clothing"
)

// Slot names referenced by constraint rules and tests.
const (
	HairColor       = "hair_color"
	HairLength      = "hair_length"
	HairStyle       = "hair_style"
	HairTexture     = "hair_texture"
	EyeColor        = "eye_color"
	EyeExpression   = "eye_expression_quality"
	EyeShape        = "eye_shape"
	EyePupilState   = "eye_pupil_state"
	EyeState        = "eye_state"
	EyeAccessories  = "eye_accessories"
	BodyType        = "body_type"
	Height          = "height"
	Skin            = "skin"
	AgeAppearance   = "age_appearance"
	SpecialFeatures = "special_features"
	Expression      = "expression"
	FullBody        = "full_body"
	Head            = "head"
	Neck            = "neck"
	UpperBody       = "upper_body"
	Waist           = "waist"
	LowerBody       = "lower_body"
	Outerwear       = "outerwear"
	Hands           = "hands"
	Legs            = "legs"
	Feet            = "feet"
	Accessory       = "accessory"
	ViewAngle       = "view_angle"
	Pose            = "pose"
	Gesture         = "gesture"
	Background      = "background"
)

// Definition describes one slot.
type Definition struct {
	Name       string
	Section    Section
	HasColor   bool
	CatalogRef string
	// ColorCategory keys palette lookups; empty when HasColor is false.
	ColorCategory string
}

// Registry is an ordered, immutable set of slot definitions. Its order is
// the prompt output order and the parser's tie-break order.
type Registry struct {
	defs     []Definition
	position map[string]int
}

// NewRegistry validates defs and keeps them in the given order.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		defs:     make([]Definition, 0, len(defs)),
		position: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("slot name is required")
		}
		if _, exists := r.position[def.Name]; exists {
			return nil, fmt.Errorf("duplicate slot %q", def.Name)
		}
		if def.CatalogRef == "" {
			def.CatalogRef = def.Name
		}
		if def.HasColor && def.ColorCategory == "" {
			return nil, fmt.Errorf("slot %q: color category is required for colorable slots", def.Name)
		}
		if !def.HasColor {
			def.ColorCategory = ""
		}
		r.position[def.Name] = len(r.defs)
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(defaultDefinitions)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultDefinitions = []Definition{
	{Name: HairColor, Section: SectionAppearance},
	{Name: HairLength, Section: SectionAppearance},
	{Name: HairStyle, Section: SectionAppearance},
	{Name: HairTexture, Section: SectionAppearance},
	{Name: EyeColor, Section: SectionAppearance},
	{Name: EyeExpression, Section: SectionAppearance},
	{Name: EyeShape, Section: SectionAppearance},
	{Name: EyePupilState, Section: SectionAppearance},
	{Name: EyeState, Section: SectionAppearance},
	{Name: EyeAccessories, Section: SectionAppearance},
	{Name: BodyType, Section: SectionBody},
	{Name: Height, Section: SectionBody},
	{Name: Skin, Section: SectionBody},
	{Name: AgeAppearance, Section: SectionBody},
	{Name: SpecialFeatures, Section: SectionBody},
	{Name: Expression, Section: SectionBody},
	{Name: FullBody, Section: SectionClothing, HasColor: true, ColorCategory: "dress"},
	{Name: Head, Section: SectionClothing, HasColor: true, ColorCategory: "headwear"},
	{Name: Neck, Section: SectionClothing, HasColor: true, ColorCategory: "neckwear"},
	{Name: UpperBody, Section: SectionClothing, HasColor: true, ColorCategory: "top"},
	{Name: Waist, Section: SectionClothing, HasColor: true, ColorCategory: "waist"},
	{Name: LowerBody, Section: SectionClothing, HasColor: true, ColorCategory: "bottom"},
	{Name: Outerwear, Section: SectionClothing, HasColor: true, ColorCategory: "outerwear"},
	{Name: Hands, Section: SectionClothing, HasColor: true, ColorCategory: "handwear"},
	{Name: Legs, Section: SectionClothing, HasColor: true, ColorCategory: "legwear"},
	{Name: Feet, Section: SectionClothing, HasColor: true, ColorCategory: "footwear"},
	{Name: Accessory, Section: SectionClothing, HasColor: true, ColorCategory: "accessory"},
	{Name: ViewAngle, Section: SectionBody},
	{Name: Pose, Section: SectionBody},
	{Name: Gesture, Section: SectionBody},
	{Name: Background, Section: SectionClothing},
}

// Len returns the number of slots.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Definitions returns the definitions in registry order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Names returns the slot names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.defs))
	for i, def := range r.defs {
		out[i] = def.Name
	}
	return out
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	idx, ok := r.position[name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[idx], true
}

// Position returns the registry index of name, or -1.
func (r *Registry) Position(name string) int {
	idx, ok := r.position[name]
	if !ok {
		return -1
	}
	return idx
}

// Sections returns the sections in first-appearance order.
func (r *Registry) Sections() []Section {
	seen := map[Section]bool{}
	var out []Section
	for _, def := range r.defs {
		if seen[def.Section] {
			continue
		}
		seen[def.Section] = true
		out = append(out, def.Section)
	}
	return out
}

// InSection returns the definitions of one section in registry order.
func (r *Registry) InSection(section Section) []Definition {
	var out []Definition
	for _, def := range r.defs {
		if def.Section == section {
			out = append(out, def)
		}
	}
	return out
}
