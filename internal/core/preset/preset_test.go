package preset

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/promptforge/internal/core/catalog/catalogtest"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

func TestValidateRepairsSnapshot(t *testing.T) {
	t.Parallel()

	ix := catalogtest.Index(t)
	snap := Snapshot{
		Name:      " school day ",
		Locale:    "zh-CN",
		ColorMode: "Palette",
		PaletteID: "neon",
		Slots: slot.Config{
			slot.HairStyle: {Enabled: true, ValueID: "双马尾", Color: "red", Weight: 5},
			slot.UpperBody: {Enabled: true, ValueID: "shirt", Color: "海军蓝", Weight: 1.2},
			slot.LowerBody: {Enabled: true, ValueID: "drill_skirt", Color: "black", Weight: 1},
			slot.Legs:      {Enabled: false, ValueID: "Thighhighs", Color: "ivory"},
			"tail":         {Enabled: true, ValueID: "fox_tail", Weight: 1},
		},
	}

	got, dropped := Validate(ix, slot.Default(), snap)

	if got.Name != "school day" || got.Locale != locale.Chinese || got.ColorMode != "palette" || got.PaletteID != "" {
		t.Fatalf("header = %+v", got)
	}
	want := slot.Config{
		slot.HairStyle: {Enabled: true, ValueID: "twin_tails", Weight: slot.MaxWeight},
		slot.UpperBody: {Enabled: true, ValueID: "shirt", Color: "navy_blue", Weight: 1.2},
		slot.LowerBody: {Enabled: true, Weight: 1},
		slot.Legs:      {Enabled: false, ValueID: "thighhighs", Color: "ivory", Weight: slot.DefaultWeight},
	}
	if !reflect.DeepEqual(got.Slots, want) {
		t.Fatalf("slots = %+v\nwant %+v", got.Slots, want)
	}

	reasons := map[string]bool{}
	for _, d := range dropped {
		reasons[d.Field+":"+d.Reason] = true
	}
	for _, key := range []string{
		"palette_id:" + ReasonUnknownPalette,
		"color:" + ReasonColorless,
		"value_id:" + ReasonUnknownValue,
		"slot:" + ReasonUnknownSlot,
	} {
		if !reasons[key] {
			t.Fatalf("missing drop %s in %+v", key, dropped)
		}
	}
	if len(dropped) != 4 {
		t.Fatalf("dropped = %+v", dropped)
	}

	if snap.Slots[slot.HairStyle].ValueID != "双马尾" {
		t.Fatal("Validate mutated its input")
	}
}

func TestValidateBadColorMode(t *testing.T) {
	t.Parallel()

	got, dropped := Validate(catalogtest.Index(t), slot.Default(), Snapshot{ColorMode: "rainbow"})
	if got.ColorMode != "none" || len(dropped) != 1 || dropped[0].Reason != ReasonBadColorMode {
		t.Fatalf("got %+v, dropped %+v", got, dropped)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.json":        FormatJSON,
		"dir/b.TOML":    FormatTOML,
		"c.yaml":        FormatYAML,
		"/tmp/d.yml":    FormatYAML,
		"preset.backup": "",
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if want == "" {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Fatalf("%s: expected ErrUnknownFormat, got %v", path, err)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v", path, got, err)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Name:          "twin",
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Locale:        locale.English,
		Prefix:        "1girl",
		ColorMode:     "individual",
		FullBodyMode:  true,
		UpperBodyMode: false,
		Slots: slot.Config{
			slot.HairStyle: {Enabled: true, Locked: true, ValueID: "twin_tails", Weight: 1.3},
			slot.FullBody:  {Enabled: true, ValueID: "kimono", Color: "red", Weight: 1},
		},
	}
	for _, format := range []Format{FormatJSON, FormatTOML, FormatYAML} {
		var buf bytes.Buffer
		if err := Encode(&buf, format, snap); err != nil {
			t.Fatalf("%s: encode: %v", format, err)
		}
		got, err := Decode(&buf, format)
		if err != nil {
			t.Fatalf("%s: decode: %v", format, err)
		}
		if !got.CreatedAt.Equal(snap.CreatedAt) {
			t.Fatalf("%s: created_at = %v", format, got.CreatedAt)
		}
		got.CreatedAt = snap.CreatedAt
		if !reflect.DeepEqual(got, snap) {
			t.Fatalf("%s: decoded %+v\nwant %+v", format, got, snap)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader("{"), FormatJSON); err == nil {
		t.Fatal("expected json error")
	}
	if _, err := Decode(strings.NewReader(""), "ini"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
