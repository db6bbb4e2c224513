// Package engine is the single entry point the transports use to drive the
// prompt core: randomize, assemble, parse, and list the catalogs.
//
// The engine holds only immutable state. Callers own the slot.Config they
// pass in and receive updated copies back.
package engine

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/louisbranch/promptforge/internal/core/assemble"
	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"github.com/louisbranch/promptforge/internal/random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/promptforge/internal/core/engine"

// DefaultPrefix is prepended to generated prompts unless overridden.
const DefaultPrefix = "1girl"

// Engine wires the core components around one catalog index.
type Engine struct {
	index      *catalog.Index
	registry   *slot.Registry
	randomizer *randomize.Randomizer
	assembler  *assemble.Assembler
	parser     *parse.Parser
	tracer     trace.Tracer
	newSeed    func() (int64, error)
}

// New builds an engine over an already loaded index.
func New(index *catalog.Index, registry *slot.Registry) *Engine {
	if registry == nil {
		registry = slot.Default()
	}
	return &Engine{
		index:      index,
		registry:   registry,
		randomizer: randomize.New(index, registry),
		assembler:  assemble.New(index, registry),
		parser:     parse.New(index, registry),
		tracer:     otel.Tracer(tracerName),
		newSeed:    random.NewSeed,
	}
}

// Load reads catalogs from fsys and builds an engine with the default
// registry.
func Load(ctx context.Context, fsys fs.FS) (*Engine, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.Load")
	defer span.End()

	index, err := catalog.LoadFS(ctx, fsys)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return New(index, slot.Default()), nil
}

// Index returns the catalog index.
func (e *Engine) Index() *catalog.Index { return e.index }

// Registry returns the slot registry.
func (e *Engine) Registry() *slot.Registry { return e.registry }

// RandomizeInput describes a randomization against a configuration.
type RandomizeInput struct {
	// Slots to randomize; empty means every slot in registry order.
	Slots     []string
	Config    slot.Config
	ColorMode randomize.ColorMode
	PaletteID string
	Modes     constraint.Modes
	// Seed fixes the draw; nil picks a fresh seed.
	Seed *int64
}

// RandomizeOutput carries the raw outcomes and the updated configuration.
type RandomizeOutput struct {
	Result randomize.Result
	Config slot.Config
}

// Randomize draws new values for the requested slots. Locked slots in
// Config are left unchanged.
func (e *Engine) Randomize(ctx context.Context, in RandomizeInput) (RandomizeOutput, error) {
	_, span := e.tracer.Start(ctx, "engine.Randomize")
	defer span.End()

	seed, err := e.seed(in.Seed)
	if err != nil {
		return RandomizeOutput{}, err
	}
	cfg := in.Config
	if cfg == nil {
		cfg = slot.NewConfig(e.registry)
	}
	cfg = cfg.Normalize(e.registry)
	current := make(map[string]randomize.Value, len(cfg))
	inactive := map[string]bool{}
	for name, state := range cfg {
		current[name] = randomize.Value{ValueID: state.ValueID, Color: state.Color}
		if !state.Enabled {
			inactive[name] = true
		}
	}
	req := randomize.Request{
		Slots:     in.Slots,
		Locked:    cfg.Locked(),
		ColorMode: in.ColorMode,
		PaletteID: in.PaletteID,
		Modes:     in.Modes.Normalize(),
		Current:   current,
		Inactive:  inactive,
		Seed:      seed,
	}
	span.SetAttributes(
		attribute.Int64("promptforge.seed", seed),
		attribute.String("promptforge.color_mode", string(in.ColorMode)),
		attribute.Int("promptforge.slots", len(in.Slots)),
	)

	var res randomize.Result
	if len(in.Slots) == 0 {
		res, err = e.randomizer.RandomizeAll(req)
	} else {
		res, err = e.randomizer.Randomize(req)
	}
	if err != nil {
		span.RecordError(err)
		return RandomizeOutput{}, err
	}
	return RandomizeOutput{Result: res, Config: e.Apply(cfg, res.Deltas())}, nil
}

// GenerateInput randomizes every unlocked slot and assembles the result.
type GenerateInput struct {
	RandomizeInput
	Prefix string
	Locale locale.Locale
}

// GenerateOutput is the generated prompt with the configuration behind it.
type GenerateOutput struct {
	Prompt string
	Seed   int64
	Config slot.Config
	Result randomize.Result
}

// Generate randomizes all unlocked slots, applies the outcomes, and renders
// the prompt.
func (e *Engine) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Generate")
	defer span.End()

	rin := in.RandomizeInput
	rin.Slots = nil
	out, err := e.Randomize(ctx, rin)
	if err != nil {
		return GenerateOutput{}, err
	}
	prompt := e.Assemble(ctx, out.Config, assemble.Options{Prefix: in.Prefix, Locale: in.Locale, Modes: in.Modes})
	return GenerateOutput{Prompt: prompt, Seed: out.Result.Seed, Config: out.Config, Result: out.Result}, nil
}

// Assemble renders cfg.
func (e *Engine) Assemble(ctx context.Context, cfg slot.Config, opts assemble.Options) string {
	_, span := e.tracer.Start(ctx, "engine.Assemble")
	defer span.End()

	opts.Modes = opts.Modes.Normalize()
	return e.assembler.Assemble(cfg.Normalize(e.registry), opts)
}

// ParseOutput is a parse result plus cfg with its deltas applied.
type ParseOutput struct {
	Result parse.Result
	Config slot.Config
}

// Parse maps text onto slot values and applies the matches to cfg. A nil
// cfg starts from an empty configuration.
func (e *Engine) Parse(ctx context.Context, cfg slot.Config, text string, opts parse.Options) (ParseOutput, error) {
	_, span := e.tracer.Start(ctx, "engine.Parse")
	defer span.End()

	res, err := e.parser.Parse(text, opts)
	if err != nil {
		span.RecordError(err)
		return ParseOutput{}, err
	}
	span.SetAttributes(
		attribute.Int("promptforge.matches", len(res.Matches)),
		attribute.Float64("promptforge.confidence", res.Confidence),
	)
	return ParseOutput{Result: res, Config: e.Apply(cfg, res.Deltas)}, nil
}

// Apply normalizes cfg and writes deltas into the copy, so every returned
// state is clamped whether or not a delta touched it. A nil cfg starts from
// an empty configuration.
func (e *Engine) Apply(cfg slot.Config, deltas []slot.Delta) slot.Config {
	if cfg == nil {
		cfg = slot.NewConfig(e.registry)
	}
	return cfg.Normalize(e.registry).Apply(e.registry, deltas)
}

// ValidatePreset repairs snap against the loaded catalogs.
func (e *Engine) ValidatePreset(snap preset.Snapshot) (preset.Snapshot, []preset.Dropped) {
	return preset.Validate(e.index, e.registry, snap)
}

func (e *Engine) seed(fixed *int64) (int64, error) {
	if fixed != nil {
		return *fixed, nil
	}
	seed, err := e.newSeed()
	if err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}
