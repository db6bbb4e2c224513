// Package storage defines persistence contracts for studio presets.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/promptforge/internal/core/preset"
	apperrors "github.com/louisbranch/promptforge/internal/platform/errors"
)

var (
	// ErrNotFound indicates a requested preset is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "preset not found")
	// ErrAlreadyExists indicates a preset with the same name is already stored.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "preset already exists")
	// ErrNameRequired indicates a preset was written without a name.
	ErrNameRequired = apperrors.New(apperrors.CodePresetNameEmpty, "preset name is required")
)

// Preset is one stored snapshot keyed by its name.
type Preset struct {
	Name      string
	Snapshot  preset.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PresetPage is one page of presets ordered by name.
type PresetPage struct {
	Presets       []Preset
	NextPageToken string
}

// PresetStore persists presets.
type PresetStore interface {
	CreatePreset(ctx context.Context, p Preset) error
	PutPreset(ctx context.Context, p Preset) (Preset, error)
	GetPreset(ctx context.Context, name string) (Preset, error)
	ListPresets(ctx context.Context, pageSize int, pageToken string) (PresetPage, error)
	DeletePreset(ctx context.Context, name string) error
}
