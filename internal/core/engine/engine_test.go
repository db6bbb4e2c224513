package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/louisbranch/promptforge/internal/core/assemble"
	"github.com/louisbranch/promptforge/internal/core/catalog/catalogtest"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(catalogtest.Index(t), slot.Default())
}

func seedPtr(v int64) *int64 { return &v }

func TestLoadFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"catalogs/fixture.json": {Data: []byte(catalogtest.CatalogJSON)},
		"colors/colors.json":    {Data: []byte(catalogtest.ColorsJSON)},
	}
	e, err := Load(context.Background(), fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Registry().Len() != slot.Default().Len() {
		t.Fatalf("registry len = %d", e.Registry().Len())
	}
	if _, ok := e.Index().Item("hair_style", "twin_tails"); !ok {
		t.Fatal("expected twin_tails in loaded index")
	}
}

func TestRandomizeKeepsLockedAndUsesSeed(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	cfg := slot.NewConfig(e.Registry())
	cfg[slot.HairStyle] = slot.State{Enabled: true, Locked: true, ValueID: "bob_cut", Weight: 1.4}

	first, err := e.Randomize(context.Background(), RandomizeInput{Config: cfg, ColorMode: randomize.ColorIndividual, Seed: seedPtr(9)})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	second, err := e.Randomize(context.Background(), RandomizeInput{Config: cfg, ColorMode: randomize.ColorIndividual, Seed: seedPtr(9)})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed produced different output")
	}
	if got := first.Config[slot.HairStyle]; got != cfg[slot.HairStyle] {
		t.Fatalf("locked slot changed to %+v", got)
	}
	if first.Result.Seed != 9 {
		t.Fatalf("seed = %d", first.Result.Seed)
	}
	if cfg[slot.Pose].ValueID != "" {
		t.Fatal("Randomize mutated its input config")
	}
}

func TestRandomizeClampsUntouchedWeights(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	cfg := slot.NewConfig(e.Registry())
	cfg[slot.HairStyle] = slot.State{Enabled: true, Locked: true, ValueID: "twin_tails", Weight: 7.5}
	cfg[slot.Expression] = slot.State{Enabled: true, Weight: -3}

	out, err := e.Randomize(context.Background(), RandomizeInput{Slots: []string{slot.HairColor}, Config: cfg, Seed: seedPtr(4)})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	for name, state := range out.Config {
		if state.Weight < slot.MinWeight || state.Weight > slot.MaxWeight {
			t.Fatalf("%s weight = %v after randomize", name, state.Weight)
		}
	}
	if got := out.Config[slot.HairStyle]; got.ValueID != "twin_tails" || got.Weight != slot.MaxWeight {
		t.Fatalf("locked hair style = %+v", got)
	}

	parsed, err := e.Parse(context.Background(), cfg, "smile", parse.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for name, state := range parsed.Config {
		if state.Weight < slot.MinWeight || state.Weight > slot.MaxWeight {
			t.Fatalf("%s weight = %v after parse", name, state.Weight)
		}
	}
}

func TestRandomizeKeepsLockedDisabledSlot(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	cfg := slot.NewConfig(e.Registry())
	cfg[slot.HairStyle] = slot.State{Enabled: false, Locked: true, ValueID: "bob_cut", Weight: 1}

	out, err := e.Randomize(context.Background(), RandomizeInput{Slots: []string{slot.HairStyle}, Config: cfg, Seed: seedPtr(2)})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	outcome := out.Result.Outcomes[0]
	if !outcome.Locked || outcome.ValueID != "bob_cut" {
		t.Fatalf("outcome = %+v, want locked bob_cut", outcome)
	}
	if got := out.Config[slot.HairStyle]; got.ValueID != "bob_cut" || got.Enabled {
		t.Fatalf("config = %+v", got)
	}
}

func TestRandomizeDrawsSeedWhenUnset(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	e.newSeed = func() (int64, error) { return 77, nil }
	out, err := e.Randomize(context.Background(), RandomizeInput{Slots: []string{slot.Pose}})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	if out.Result.Seed != 77 || len(out.Result.Outcomes) != 1 {
		t.Fatalf("result = %+v", out.Result)
	}

	e.newSeed = func() (int64, error) { return 0, errors.New("entropy exhausted") }
	if _, err := e.Randomize(context.Background(), RandomizeInput{}); err == nil {
		t.Fatal("expected seed error")
	}
}

func TestRandomizePropagatesCoreErrors(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	_, err := e.Randomize(context.Background(), RandomizeInput{Slots: []string{"wings"}, Seed: seedPtr(1)})
	var slotErr *randomize.UnknownSlotError
	if !errors.As(err, &slotErr) {
		t.Fatalf("expected UnknownSlotError, got %v", err)
	}
}

func TestGenerateFullBodyMode(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	out, err := e.Generate(context.Background(), GenerateInput{
		RandomizeInput: RandomizeInput{
			ColorMode: randomize.ColorPalette,
			PaletteID: "school",
			Modes:     constraint.Modes{FullBody: true},
			Seed:      seedPtr(3),
		},
		Prefix: "1girl",
		Locale: locale.English,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out.Prompt, "1girl") {
		t.Fatalf("prompt = %q", out.Prompt)
	}
	for _, token := range []string{"shirt", "sailor blouse", "skirt", "jeans"} {
		if strings.Contains(out.Prompt, token) {
			t.Fatalf("full body prompt %q contains %q", out.Prompt, token)
		}
	}
	if out.Config[slot.FullBody].ValueID == "" {
		t.Fatalf("full body not generated: %+v", out.Config[slot.FullBody])
	}
	if out.Seed != 3 {
		t.Fatalf("seed = %d", out.Seed)
	}
}

func TestAssembleNormalizesInput(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	cfg := slot.Config{
		slot.HairStyle: {Enabled: true, ValueID: "twin_tails", Color: "red", Weight: 9},
		"wings":        {Enabled: true, ValueID: "feathered"},
	}
	got := e.Assemble(context.Background(), cfg, assemble.Options{Locale: locale.English})
	if got != "(twin tails:2.00)" {
		t.Fatalf("Assemble = %q", got)
	}
}

func TestParseAppliesDeltas(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	cfg := slot.NewConfig(e.Registry())
	cfg[slot.Pose] = slot.State{Enabled: false, ValueID: "standing", Weight: 1}

	out, err := e.Parse(context.Background(), cfg, "white shirt, (hands on hips:1.5)", parse.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := out.Config[slot.UpperBody]; got.ValueID != "shirt" || got.Color != "white" || !got.Enabled {
		t.Fatalf("upper body = %+v", got)
	}
	if got := out.Config[slot.Pose]; got.ValueID != "hands_on_hips" || got.Weight != 1.5 || !got.Enabled {
		t.Fatalf("pose = %+v", got)
	}

	_, err = e.Parse(context.Background(), nil, "(broken", parse.Options{})
	var malformed *parse.MalformedPromptError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedPromptError, got %v", err)
	}
}

func TestSlotsListing(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	listing := e.Slots(locale.Chinese)
	if len(listing.Slots) != e.Registry().Len() {
		t.Fatalf("slots = %d", len(listing.Slots))
	}
	var hairStyle SlotView
	for _, view := range listing.Slots {
		if view.Name == slot.HairStyle {
			hairStyle = view
		}
	}
	if len(hairStyle.Options) != 3 || hairStyle.Options[0].Name != "双马尾" || hairStyle.Options[0].Group != "tails" {
		t.Fatalf("hair style = %+v", hairStyle)
	}
	if !reflect.DeepEqual(listing.LowerBodyCoversLegs, []string{"long_skirt", "jeans"}) {
		t.Fatalf("covers legs = %v", listing.LowerBodyCoversLegs)
	}
	if !reflect.DeepEqual(listing.PoseUsesHands, []string{"hands_on_hips"}) {
		t.Fatalf("uses hands = %v", listing.PoseUsesHands)
	}
}

func TestColorsAndPalettes(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	colors := e.Colors(locale.Chinese)
	if len(colors) != 5 || colors[0].Name != "红色" {
		t.Fatalf("colors = %+v", colors)
	}
	palettes := e.Palettes(locale.Chinese)
	if len(palettes) != 3 {
		t.Fatalf("palettes = %+v", palettes)
	}
	school := palettes[0]
	if school.Name != "校园" || school.CategoryColors["bottom"].Name != "海军蓝" || school.Fallback == nil || school.Fallback.ID != "black" {
		t.Fatalf("school = %+v", school)
	}
	if palettes[1].Fallback != nil {
		t.Fatalf("bare fallback = %+v", palettes[1].Fallback)
	}
}

func TestValidatePreset(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	snap, dropped := e.ValidatePreset(preset.Snapshot{Slots: slot.Config{slot.Pose: {Enabled: true, ValueID: "站立"}}})
	if len(dropped) != 0 || snap.Slots[slot.Pose].ValueID != "standing" {
		t.Fatalf("snap = %+v dropped = %+v", snap, dropped)
	}
}
