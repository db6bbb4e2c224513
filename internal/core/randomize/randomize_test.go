package randomize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/promptforge/internal/core/catalog/catalogtest"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

func newRandomizer(t *testing.T) *Randomizer {
	t.Helper()
	return New(catalogtest.Index(t), slot.Default())
}

func TestRandomizeDeterministicForSeed(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	req := Request{ColorMode: ColorIndividual, Seed: 42}
	first, err := r.RandomizeAll(req)
	if err != nil {
		t.Fatalf("randomize all: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.RandomizeAll(req)
		if err != nil {
			t.Fatalf("randomize all: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("seed 42 produced different results:\n%v\n%v", first, again)
		}
	}
	if first.Seed != 42 {
		t.Fatalf("seed = %d", first.Seed)
	}
	if len(first.Outcomes) != slot.Default().Len() {
		t.Fatalf("outcomes = %d", len(first.Outcomes))
	}
}

func TestRandomizePicksFromCatalog(t *testing.T) {
	t.Parallel()

	ix := catalogtest.Index(t)
	r := New(ix, slot.Default())
	for seed := int64(0); seed < 20; seed++ {
		res, err := r.Randomize(Request{Slots: []string{slot.HairStyle, slot.HairLength}, Seed: seed})
		if err != nil {
			t.Fatalf("randomize: %v", err)
		}
		got := res.Map()
		if _, ok := ix.Item("hair_style", got[slot.HairStyle].ValueID); !ok {
			t.Fatalf("seed %d: hair style %q not in catalog", seed, got[slot.HairStyle].ValueID)
		}
		if got[slot.HairStyle].Color != "" {
			t.Fatalf("non-color slot got color %q", got[slot.HairStyle].Color)
		}
		if got[slot.HairLength].ValueID != "" {
			t.Fatalf("slot without catalog got %q", got[slot.HairLength].ValueID)
		}
	}
}

func TestRandomizeAllKeepsLockedSlots(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	current := map[string]Value{
		slot.HairStyle: {ValueID: "bob_cut"},
		slot.UpperBody: {ValueID: "shirt", Color: "blue"},
		slot.Legs:      {},
	}
	locked := map[string]bool{slot.HairStyle: true, slot.UpperBody: true, slot.Legs: true}

	for seed := int64(0); seed < 25; seed++ {
		res, err := r.RandomizeAll(Request{
			Locked:    locked,
			Current:   current,
			ColorMode: ColorIndividual,
			Modes:     constraint.Modes{FullBody: true},
			Seed:      seed,
		})
		if err != nil {
			t.Fatalf("randomize all: %v", err)
		}
		got := res.Map()
		for name := range locked {
			want := current[name]
			if got[name].ValueID != want.ValueID || got[name].Color != want.Color || !got[name].Locked {
				t.Fatalf("seed %d: locked slot %s changed to %+v", seed, name, got[name])
			}
		}
	}
}

func TestRandomizeForceDisabled(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	res, err := r.Randomize(Request{
		Slots: []string{slot.UpperBody, slot.LowerBody, slot.Legs, slot.Gesture, slot.FullBody},
		Modes: constraint.Modes{FullBody: true},
		Current: map[string]Value{
			slot.LowerBody: {ValueID: "long_skirt"},
			slot.Pose:      {ValueID: "hands_on_hips"},
		},
		ColorMode: ColorIndividual,
		Seed:      7,
	})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	got := res.Map()
	for _, name := range []string{slot.UpperBody, slot.LowerBody, slot.Legs, slot.Gesture} {
		outcome := got[name]
		if !outcome.ForceDisabled || outcome.ValueID != "" || outcome.Color != "" {
			t.Fatalf("%s = %+v, want force disabled", name, outcome)
		}
	}
	if got[slot.FullBody].ValueID == "" || got[slot.FullBody].Color == "" {
		t.Fatalf("full body = %+v, want value and color", got[slot.FullBody])
	}
}

func TestRandomizeInactiveSlotsKeepLockedValueWithoutConstraining(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	res, err := r.Randomize(Request{
		Slots:    []string{slot.LowerBody, slot.Legs},
		Locked:   map[string]bool{slot.LowerBody: true},
		Current:  map[string]Value{slot.LowerBody: {ValueID: "long_skirt", Color: "black"}},
		Inactive: map[string]bool{slot.LowerBody: true},
		Seed:     5,
	})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	got := res.Map()
	if lower := got[slot.LowerBody]; !lower.Locked || lower.ValueID != "long_skirt" || lower.Color != "black" {
		t.Fatalf("lower body = %+v, want locked long_skirt/black", lower)
	}
	if legs := got[slot.Legs]; legs.ForceDisabled || legs.ValueID == "" {
		t.Fatalf("legs = %+v, want a value from an inactive covering bottom", legs)
	}
}

func TestRandomizeUsesSnapshotNotPartialResults(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	// Legs are resolved against the snapshot's pleated skirt even though the
	// same call may pick a covering bottom.
	for seed := int64(0); seed < 25; seed++ {
		res, err := r.Randomize(Request{
			Slots:   []string{slot.LowerBody, slot.Legs},
			Current: map[string]Value{slot.LowerBody: {ValueID: "pleated_skirt"}},
			Seed:    seed,
		})
		if err != nil {
			t.Fatalf("randomize: %v", err)
		}
		if legs := res.Map()[slot.Legs]; legs.ForceDisabled || legs.ValueID != "thighhighs" {
			t.Fatalf("seed %d: legs = %+v", seed, legs)
		}
	}
}

func TestRandomizePaletteColors(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	tests := []struct {
		palette string
		want    map[string]string
	}{
		{palette: "school", want: map[string]string{slot.UpperBody: "white", slot.LowerBody: "navy_blue", slot.Feet: "black"}},
		{palette: "bare", want: map[string]string{slot.UpperBody: "red", slot.LowerBody: "", slot.Feet: ""}},
	}
	for _, tt := range tests {
		res, err := r.Randomize(Request{
			Slots:     []string{slot.UpperBody, slot.LowerBody, slot.Feet},
			ColorMode: ColorPalette,
			PaletteID: tt.palette,
			Seed:      3,
		})
		if err != nil {
			t.Fatalf("%s: randomize: %v", tt.palette, err)
		}
		got := res.Map()
		for name, color := range tt.want {
			if got[name].Color != color {
				t.Fatalf("%s: %s color = %q, want %q", tt.palette, name, got[name].Color, color)
			}
		}
	}
}

func TestRandomizeNoneColorMode(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	res, err := r.Randomize(Request{Slots: []string{slot.UpperBody}, Seed: 1})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	if got := res.Outcomes[0]; got.ValueID == "" || got.Color != "" {
		t.Fatalf("outcome = %+v", got)
	}
}

func TestRandomizeErrors(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)

	_, err := r.Randomize(Request{Slots: []string{"tail"}})
	var slotErr *UnknownSlotError
	if !errors.As(err, &slotErr) || slotErr.Slot != "tail" {
		t.Fatalf("expected UnknownSlotError, got %v", err)
	}

	_, err = r.Randomize(Request{Slots: []string{slot.UpperBody}, ColorMode: ColorPalette, PaletteID: "neon"})
	var paletteErr *UnknownPaletteError
	if !errors.As(err, &paletteErr) || paletteErr.PaletteID != "neon" {
		t.Fatalf("expected UnknownPaletteError, got %v", err)
	}

	_, err = r.Randomize(Request{Slots: []string{slot.UpperBody}, ColorMode: "rainbow"})
	if !errors.Is(err, ErrInvalidColorMode) {
		t.Fatalf("expected ErrInvalidColorMode, got %v", err)
	}
}

func TestRandomizeSkipsDuplicateSlots(t *testing.T) {
	t.Parallel()

	r := newRandomizer(t)
	res, err := r.Randomize(Request{Slots: []string{slot.Pose, slot.Pose}, Seed: 5})
	if err != nil {
		t.Fatalf("randomize: %v", err)
	}
	if len(res.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(res.Outcomes))
	}
}

func TestResultDeltasSkipLocked(t *testing.T) {
	t.Parallel()

	res := Result{Outcomes: []Outcome{
		{Slot: slot.HairStyle, ValueID: "bob_cut", Locked: true},
		{Slot: slot.Pose, ValueID: "standing"},
	}}
	deltas := res.Deltas()
	if len(deltas) != 1 || deltas[0].Slot != slot.Pose {
		t.Fatalf("deltas = %+v", deltas)
	}
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]ColorMode{"": ColorNone, "Palette": ColorPalette, " individual ": ColorIndividual} {
		got, err := ParseColorMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseColorMode(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseColorMode("rgb"); !errors.Is(err, ErrInvalidColorMode) {
		t.Fatalf("expected ErrInvalidColorMode, got %v", err)
	}
}
