package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/promptforge/internal/core/assemble"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Defaults fills prompt settings a tool call leaves blank.
type Defaults struct {
	Locale locale.Locale
	Prefix string
}

func (d Defaults) locale(raw string) (locale.Locale, error) {
	if raw == "" {
		if d.Locale.Valid() {
			return d.Locale, nil
		}
		return locale.Default, nil
	}
	loc, ok := locale.Parse(raw)
	if !ok {
		return "", fmt.Errorf("unsupported locale %q", raw)
	}
	return loc, nil
}

func (d Defaults) prefix(p *string) string {
	if p != nil {
		return *p
	}
	if d.Prefix == "" {
		return engine.DefaultPrefix
	}
	return d.Prefix
}

// RandomizeInput represents the MCP tool input for randomizing slots.
type RandomizeInput struct {
	Slots         []string    `json:"slots,omitempty" jsonschema:"slot names to randomize"`
	Config        slot.Config `json:"config,omitempty" jsonschema:"current slot configuration; locked slots are kept"`
	ColorMode     string      `json:"color_mode,omitempty" jsonschema:"none, individual or palette"`
	PaletteID     string      `json:"palette_id,omitempty" jsonschema:"palette id when color_mode is palette"`
	FullBodyMode  bool        `json:"full_body_mode,omitempty" jsonschema:"use a full-body outfit instead of top and bottom"`
	UpperBodyMode bool        `json:"upper_body_mode,omitempty" jsonschema:"omit lower body, legs and feet"`
	Seed          *int64      `json:"seed,omitempty" jsonschema:"fixed seed for reproducible results"`
}

func (in RandomizeInput) engineInput() (engine.RandomizeInput, error) {
	mode, err := randomize.ParseColorMode(in.ColorMode)
	if err != nil {
		return engine.RandomizeInput{}, err
	}
	return engine.RandomizeInput{
		Slots:     in.Slots,
		Config:    in.Config,
		ColorMode: mode,
		PaletteID: in.PaletteID,
		Modes:     constraint.Modes{FullBody: in.FullBodyMode, UpperBody: in.UpperBodyMode},
		Seed:      in.Seed,
	}, nil
}

// OutcomeResult is the new value drawn for one slot.
type OutcomeResult struct {
	Slot          string `json:"slot" jsonschema:"slot name"`
	ValueID       string `json:"value_id,omitempty" jsonschema:"catalog item id"`
	Color         string `json:"color,omitempty" jsonschema:"color token"`
	Locked        bool   `json:"locked,omitempty" jsonschema:"slot was locked and kept its value"`
	ForceDisabled bool   `json:"force_disabled,omitempty" jsonschema:"slot was suppressed by a constraint"`
}

// RandomizeResult represents the MCP tool output for randomization.
type RandomizeResult struct {
	Seed     int64           `json:"seed" jsonschema:"seed used for the draw"`
	Outcomes []OutcomeResult `json:"outcomes" jsonschema:"per-slot outcomes in processing order"`
	Config   slot.Config     `json:"config" jsonschema:"configuration with the outcomes applied"`
}

func outcomeResults(outcomes []randomize.Outcome) []OutcomeResult {
	out := make([]OutcomeResult, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, OutcomeResult{
			Slot:          o.Slot,
			ValueID:       o.ValueID,
			Color:         o.Color,
			Locked:        o.Locked,
			ForceDisabled: o.ForceDisabled,
		})
	}
	return out
}

// RandomizeTool defines the MCP tool schema for randomizing selected slots.
func RandomizeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prompt_randomize",
		Description: "Draws new values for the named slots, keeping locked slots",
	}
}

// RandomizeAllTool defines the MCP tool schema for randomizing every slot.
func RandomizeAllTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prompt_randomize_all",
		Description: "Draws new values for every unlocked slot",
	}
}

// RandomizeHandler randomizes the requested slots.
func RandomizeHandler(eng *engine.Engine) mcp.ToolHandlerFor[RandomizeInput, RandomizeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RandomizeInput) (*mcp.CallToolResult, RandomizeResult, error) {
		if len(input.Slots) == 0 {
			return nil, RandomizeResult{}, fmt.Errorf("at least one slot is required")
		}
		return randomizeSlots(ctx, eng, input)
	}
}

// RandomizeAllHandler randomizes every slot. Input slots are ignored.
func RandomizeAllHandler(eng *engine.Engine) mcp.ToolHandlerFor[RandomizeInput, RandomizeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RandomizeInput) (*mcp.CallToolResult, RandomizeResult, error) {
		input.Slots = nil
		return randomizeSlots(ctx, eng, input)
	}
}

func randomizeSlots(ctx context.Context, eng *engine.Engine, input RandomizeInput) (*mcp.CallToolResult, RandomizeResult, error) {
	in, err := input.engineInput()
	if err != nil {
		return nil, RandomizeResult{}, err
	}
	out, err := eng.Randomize(ctx, in)
	if err != nil {
		return nil, RandomizeResult{}, fmt.Errorf("randomize failed: %w", err)
	}
	return &mcp.CallToolResult{}, RandomizeResult{
		Seed:     out.Result.Seed,
		Outcomes: outcomeResults(out.Result.Outcomes),
		Config:   out.Config,
	}, nil
}

// GenerateInput represents the MCP tool input for generating a prompt.
type GenerateInput struct {
	Config        slot.Config `json:"config,omitempty" jsonschema:"current slot configuration; locked slots are kept"`
	ColorMode     string      `json:"color_mode,omitempty" jsonschema:"none, individual or palette"`
	PaletteID     string      `json:"palette_id,omitempty" jsonschema:"palette id when color_mode is palette"`
	FullBodyMode  bool        `json:"full_body_mode,omitempty" jsonschema:"use a full-body outfit instead of top and bottom"`
	UpperBodyMode bool        `json:"upper_body_mode,omitempty" jsonschema:"omit lower body, legs and feet"`
	Seed          *int64      `json:"seed,omitempty" jsonschema:"fixed seed for reproducible results"`
	Prefix        *string     `json:"prefix,omitempty" jsonschema:"leading prompt tokens; empty string disables the default"`
	Locale        string      `json:"locale,omitempty" jsonschema:"output locale: en or zh"`
}

func (in GenerateInput) randomizeInput() RandomizeInput {
	return RandomizeInput{
		Config:        in.Config,
		ColorMode:     in.ColorMode,
		PaletteID:     in.PaletteID,
		FullBodyMode:  in.FullBodyMode,
		UpperBodyMode: in.UpperBodyMode,
		Seed:          in.Seed,
	}
}

// GenerateResult represents the MCP tool output for prompt generation.
type GenerateResult struct {
	Prompt   string          `json:"prompt" jsonschema:"assembled prompt"`
	Locale   string          `json:"locale" jsonschema:"output locale"`
	Seed     int64           `json:"seed" jsonschema:"seed used for the draw"`
	Outcomes []OutcomeResult `json:"outcomes" jsonschema:"per-slot outcomes"`
	Config   slot.Config     `json:"config" jsonschema:"configuration behind the prompt"`
}

// GenerateTool defines the MCP tool schema for prompt generation.
func GenerateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prompt_generate",
		Description: "Randomizes every unlocked slot and assembles the prompt",
	}
}

// GenerateHandler randomizes all unlocked slots and renders the prompt.
func GenerateHandler(eng *engine.Engine, defaults Defaults) mcp.ToolHandlerFor[GenerateInput, GenerateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, GenerateResult, error) {
		loc, err := defaults.locale(input.Locale)
		if err != nil {
			return nil, GenerateResult{}, err
		}
		in, err := input.randomizeInput().engineInput()
		if err != nil {
			return nil, GenerateResult{}, err
		}
		out, err := eng.Generate(ctx, engine.GenerateInput{
			RandomizeInput: in,
			Prefix:         defaults.prefix(input.Prefix),
			Locale:         loc,
		})
		if err != nil {
			return nil, GenerateResult{}, fmt.Errorf("generate failed: %w", err)
		}
		return &mcp.CallToolResult{}, GenerateResult{
			Prompt:   out.Prompt,
			Locale:   string(loc),
			Seed:     out.Seed,
			Outcomes: outcomeResults(out.Result.Outcomes),
			Config:   out.Config,
		}, nil
	}
}

// AssembleInput represents the MCP tool input for rendering a configuration.
type AssembleInput struct {
	Config        slot.Config `json:"config" jsonschema:"slot configuration to render"`
	Prefix        *string     `json:"prefix,omitempty" jsonschema:"leading prompt tokens; empty string disables the default"`
	Locale        string      `json:"locale,omitempty" jsonschema:"output locale: en or zh"`
	FullBodyMode  bool        `json:"full_body_mode,omitempty" jsonschema:"suppress top and bottom"`
	UpperBodyMode bool        `json:"upper_body_mode,omitempty" jsonschema:"suppress lower body, legs and feet"`
}

// AssembleResult represents the MCP tool output for assembly.
type AssembleResult struct {
	Prompt string `json:"prompt" jsonschema:"assembled prompt"`
	Locale string `json:"locale" jsonschema:"output locale"`
}

// AssembleTool defines the MCP tool schema for prompt assembly.
func AssembleTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prompt_assemble",
		Description: "Renders a slot configuration as a prompt string",
	}
}

// AssembleHandler renders a configuration.
func AssembleHandler(eng *engine.Engine, defaults Defaults) mcp.ToolHandlerFor[AssembleInput, AssembleResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssembleInput) (*mcp.CallToolResult, AssembleResult, error) {
		loc, err := defaults.locale(input.Locale)
		if err != nil {
			return nil, AssembleResult{}, err
		}
		prompt := eng.Assemble(ctx, input.Config, assemble.Options{
			Prefix: defaults.prefix(input.Prefix),
			Locale: loc,
			Modes:  constraint.Modes{FullBody: input.FullBodyMode, UpperBody: input.UpperBodyMode},
		})
		return &mcp.CallToolResult{}, AssembleResult{Prompt: prompt, Locale: string(loc)}, nil
	}
}

// ParseInput represents the MCP tool input for parsing prompt text.
type ParseInput struct {
	Text    string      `json:"text" jsonschema:"prompt text to parse"`
	Config  slot.Config `json:"config,omitempty" jsonschema:"configuration the matches are applied to"`
	Locales []string    `json:"locales,omitempty" jsonschema:"restrict matching to these locales"`
}

// ParseResult represents the MCP tool output for parsing.
type ParseResult struct {
	Matches    []parse.Match `json:"matches" jsonschema:"phrases resolved to slot values"`
	Unmatched  []parse.Span  `json:"unmatched_spans" jsonschema:"phrases with no catalog match"`
	Ignored    []parse.Span  `json:"ignored_spans" jsonschema:"skipped tokens such as 1girl"`
	Confidence float64       `json:"confidence" jsonschema:"matched share of non-ignored phrases"`
	Config     slot.Config   `json:"config" jsonschema:"configuration with the matches applied"`
}

// ParseTool defines the MCP tool schema for prompt parsing.
func ParseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prompt_parse",
		Description: "Maps prompt text back onto slot values",
	}
}

// ParseHandler parses text and applies the matches to the given config.
func ParseHandler(eng *engine.Engine) mcp.ToolHandlerFor[ParseInput, ParseResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ParseInput) (*mcp.CallToolResult, ParseResult, error) {
		locales := locale.ParseList(input.Locales)
		if len(input.Locales) > 0 && len(locales) == 0 {
			return nil, ParseResult{}, fmt.Errorf("no supported locales in %v", input.Locales)
		}
		out, err := eng.Parse(ctx, input.Config, input.Text, parse.Options{Locales: locales})
		if err != nil {
			return nil, ParseResult{}, fmt.Errorf("parse failed: %w", err)
		}
		return &mcp.CallToolResult{}, ParseResult{
			Matches:    nonNilSlice(out.Result.Matches),
			Unmatched:  nonNilSlice(out.Result.Unmatched),
			Ignored:    nonNilSlice(out.Result.Ignored),
			Confidence: out.Result.Confidence,
			Config:     out.Config,
		}, nil
	}
}

func nonNilSlice[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
