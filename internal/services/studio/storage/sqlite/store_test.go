package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "presets.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Reopening must not re-run the applied migration.
	store, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	_ = store.Close()
}

func TestCreateGetPresetRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	input := storage.Preset{
		Name: " school day ",
		Snapshot: preset.Snapshot{
			Locale:    locale.Chinese,
			Prefix:    "1girl",
			ColorMode: "palette",
			PaletteID: "school_uniform",
			Slots: slot.Config{
				slot.HairStyle: {Enabled: true, Locked: true, ValueID: "twin_tails", Color: "black", Weight: 1.3},
			},
		},
		CreatedAt: now,
	}
	if err := store.CreatePreset(context.Background(), input); err != nil {
		t.Fatalf("create preset: %v", err)
	}

	got, err := store.GetPreset(context.Background(), "school day")
	if err != nil {
		t.Fatalf("get preset: %v", err)
	}
	if got.Name != "school day" || got.Snapshot.Name != "school day" {
		t.Fatalf("name = %q / %q", got.Name, got.Snapshot.Name)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Snapshot.PaletteID != "school_uniform" || got.Snapshot.Locale != locale.Chinese {
		t.Fatalf("snapshot = %+v", got.Snapshot)
	}
	if state := got.Snapshot.Slots[slot.HairStyle]; state.ValueID != "twin_tails" || !state.Locked || state.Weight != 1.3 {
		t.Fatalf("hair style = %+v", state)
	}
}

func TestCreatePresetReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := storage.Preset{Name: "dup"}
	if err := store.CreatePreset(context.Background(), input); err != nil {
		t.Fatalf("create initial preset: %v", err)
	}
	err := store.CreatePreset(context.Background(), input)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestCreatePresetRequiresName(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreatePreset(context.Background(), storage.Preset{Name: "  "}); !errors.Is(err, storage.ErrNameRequired) {
		t.Fatalf("error = %v, want %v", err, storage.ErrNameRequired)
	}
}

func TestPutPresetKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	first, err := store.PutPreset(context.Background(), storage.Preset{
		Name:      "kimono",
		Snapshot:  preset.Snapshot{Prefix: "1girl"},
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("put preset: %v", err)
	}
	if !first.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v", first.CreatedAt)
	}

	second, err := store.PutPreset(context.Background(), storage.Preset{
		Name:      "kimono",
		Snapshot:  preset.Snapshot{Prefix: "1boy"},
		CreatedAt: updated,
		UpdatedAt: updated,
	})
	if err != nil {
		t.Fatalf("replace preset: %v", err)
	}
	if !second.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed to %v", second.CreatedAt)
	}
	if !second.UpdatedAt.Equal(updated) {
		t.Fatalf("updated_at = %v", second.UpdatedAt)
	}
	if second.Snapshot.Prefix != "1boy" {
		t.Fatalf("prefix = %q", second.Snapshot.Prefix)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetPreset(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListPresetsPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for i := 5; i >= 1; i-- {
		if err := store.CreatePreset(context.Background(), storage.Preset{Name: fmt.Sprintf("preset-%d", i)}); err != nil {
			t.Fatalf("create preset %d: %v", i, err)
		}
	}

	var names []string
	token := ""
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("pagination did not terminate")
		}
		page, err := store.ListPresets(context.Background(), 2, token)
		if err != nil {
			t.Fatalf("list presets: %v", err)
		}
		for _, p := range page.Presets {
			names = append(names, p.Name)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	want := []string{"preset-1", "preset-2", "preset-3", "preset-4", "preset-5"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}

	if _, err := store.ListPresets(context.Background(), 0, ""); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestDeletePreset(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreatePreset(context.Background(), storage.Preset{Name: "gone"}); err != nil {
		t.Fatalf("create preset: %v", err)
	}
	if err := store.DeletePreset(context.Background(), "gone"); err != nil {
		t.Fatalf("delete preset: %v", err)
	}
	if err := store.DeletePreset(context.Background(), "gone"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetPreset(ctx, "any"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.CreatePreset(context.Background(), storage.Preset{Name: "x"}); err == nil {
		t.Fatal("expected unconfigured store error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "presets.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
