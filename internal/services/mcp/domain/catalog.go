package domain

import (
	"context"

	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CatalogInput selects the display locale for catalog listings.
type CatalogInput struct {
	Locale string `json:"locale,omitempty" jsonschema:"display locale: en or zh"`
}

// SlotsResult lists every slot with its options.
type SlotsResult struct {
	Locale              string            `json:"locale" jsonschema:"display locale"`
	Slots               []engine.SlotView `json:"slots" jsonschema:"slots in registry order"`
	LowerBodyCoversLegs []string          `json:"lower_body_covers_legs" jsonschema:"lower body items that hide legs"`
	PoseUsesHands       []string          `json:"pose_uses_hands" jsonschema:"poses that occupy both hands"`
}

// SlotsTool defines the MCP tool schema for listing slots.
func SlotsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_slots",
		Description: "Lists slots and their localized options",
	}
}

// SlotsHandler lists slots in the requested locale.
func SlotsHandler(eng *engine.Engine, defaults Defaults) mcp.ToolHandlerFor[CatalogInput, SlotsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CatalogInput) (*mcp.CallToolResult, SlotsResult, error) {
		loc, err := defaults.locale(input.Locale)
		if err != nil {
			return nil, SlotsResult{}, err
		}
		listing := eng.Slots(loc)
		return &mcp.CallToolResult{}, SlotsResult{
			Locale:              string(loc),
			Slots:               listing.Slots,
			LowerBodyCoversLegs: listing.LowerBodyCoversLegs,
			PoseUsesHands:       listing.PoseUsesHands,
		}, nil
	}
}

// PalettesResult lists colors and palettes.
type PalettesResult struct {
	Locale   string               `json:"locale" jsonschema:"display locale"`
	Colors   []engine.ColorView   `json:"colors" jsonschema:"individual colors"`
	Palettes []engine.PaletteView `json:"palettes" jsonschema:"color palettes"`
}

// PalettesTool defines the MCP tool schema for listing colors and palettes.
func PalettesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_palettes",
		Description: "Lists individual colors and palettes with localized names",
	}
}

// PalettesHandler lists colors and palettes in the requested locale.
func PalettesHandler(eng *engine.Engine, defaults Defaults) mcp.ToolHandlerFor[CatalogInput, PalettesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CatalogInput) (*mcp.CallToolResult, PalettesResult, error) {
		loc, err := defaults.locale(input.Locale)
		if err != nil {
			return nil, PalettesResult{}, err
		}
		return &mcp.CallToolResult{}, PalettesResult{
			Locale:   string(loc),
			Colors:   eng.Colors(loc),
			Palettes: eng.Palettes(loc),
		}, nil
	}
}
