package promptctl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"github.com/louisbranch/promptforge/internal/random"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	seed      string
	fullBody  bool
	upperBody bool
	locks     []string
	preset    string
	asJSON    bool
}

type generateOutput struct {
	Prompt string        `json:"prompt"`
	Locale locale.Locale `json:"locale"`
	Seed   int64         `json:"seed"`
	Config slot.Config   `json:"config"`
}

func (a *app) generateCommand() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Randomize every unlocked slot and print the prompt",
		Example: `  promptctl generate --seed 42
  promptctl generate --color-mode palette --palette school --lock hair_style=twin_tails
  promptctl generate --preset "school day" --locale zh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.seed, "seed", "", "fixed seed for reproducible output")
	flags.String("color-mode", "", "color mode: none, individual or palette")
	flags.String("palette", "", "palette id for palette color mode")
	flags.BoolVar(&opts.fullBody, "full-body", false, "use a full-body outfit instead of top and bottom")
	flags.BoolVar(&opts.upperBody, "upper-body", false, "omit lower body, legs and feet")
	flags.StringArrayVar(&opts.locks, "lock", nil, "lock a slot as slot=value[:color] (repeatable)")
	flags.StringVar(&opts.preset, "preset", "", "start from a saved preset")
	flags.BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	mustBindFlags(a.v, flags, map[string]string{
		keyColorMode: "color-mode",
		keyPalette:   "palette",
	})
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts generateOptions) error {
	ctx := cmd.Context()
	eng, settings, err := a.engine(ctx)
	if err != nil {
		return err
	}
	seed, err := random.ParseSeed(opts.seed)
	if err != nil {
		return err
	}

	cfg := slot.NewConfig(eng.Registry())
	prefix := settings.Prefix
	loc := settings.Locale
	colorMode := settings.ColorMode
	paletteID := settings.Palette
	modes := constraint.Modes{FullBody: opts.fullBody, UpperBody: opts.upperBody}

	if opts.preset != "" {
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		stored, err := store.GetPreset(ctx, opts.preset)
		if err != nil {
			return fmt.Errorf("load preset %q: %w", opts.preset, err)
		}
		snap, _ := eng.ValidatePreset(stored.Snapshot)
		for name, state := range snap.Slots {
			cfg[name] = state
		}
		changed := cmd.Flags().Changed
		if !changed("prefix") {
			prefix = snap.Prefix
		}
		if !changed("locale") && snap.Locale.Valid() {
			loc = snap.Locale
		}
		if !changed("color-mode") && snap.ColorMode != "" {
			colorMode = snap.ColorMode
		}
		if !changed("palette") && snap.PaletteID != "" {
			paletteID = snap.PaletteID
		}
		if !changed("full-body") {
			modes.FullBody = snap.FullBodyMode
		}
		if !changed("upper-body") {
			modes.UpperBody = snap.UpperBodyMode
		}
	}

	for _, raw := range opts.locks {
		if err := applyLock(eng, cfg, raw); err != nil {
			return err
		}
	}

	mode, err := randomize.ParseColorMode(colorMode)
	if err != nil {
		return err
	}
	out, err := eng.Generate(ctx, engine.GenerateInput{
		RandomizeInput: engine.RandomizeInput{
			Config:    cfg,
			ColorMode: mode,
			PaletteID: paletteID,
			Modes:     modes,
			Seed:      seed,
		},
		Prefix: prefix,
		Locale: loc,
	})
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(generateOutput{Prompt: out.Prompt, Locale: loc, Seed: out.Seed, Config: out.Config})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Prompt)
	fmt.Fprintf(cmd.ErrOrStderr(), "seed: %d\n", out.Seed)
	return nil
}

// applyLock parses slot=value[:color] and locks that slot in cfg.
func applyLock(eng *engine.Engine, cfg slot.Config, raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("invalid lock %q: want slot=value[:color]", raw)
	}
	def, ok := eng.Registry().Lookup(name)
	if !ok {
		return fmt.Errorf("invalid lock %q: unknown slot %q", raw, name)
	}
	valueID, color, _ := strings.Cut(value, ":")
	valueID = strings.TrimSpace(valueID)
	color = strings.TrimSpace(color)
	if valueID != "" {
		if _, ok := eng.Index().Item(def.CatalogRef, valueID); !ok {
			return fmt.Errorf("invalid lock %q: unknown value %q", raw, valueID)
		}
	}
	if color != "" && !def.HasColor {
		return fmt.Errorf("invalid lock %q: slot %s has no color", raw, name)
	}

	state := cfg[name]
	if state.Weight == 0 {
		state.Weight = slot.DefaultWeight
	}
	state.Enabled = true
	state.Locked = true
	state.ValueID = valueID
	state.Color = color
	cfg[name] = state
	return nil
}
