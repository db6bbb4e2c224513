package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
)

const (
	defaultPresetPageSize = 50
	maxPresetPageSize     = 200
)

type presetSummary struct {
	Name      string        `json:"name"`
	Locale    locale.Locale `json:"locale"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type presetListResponse struct {
	Presets       []presetSummary `json:"presets"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type presetResponse struct {
	Preset    preset.Snapshot  `json:"preset"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Dropped   []preset.Dropped `json:"dropped"`
}

func (a *api) handleListPresets(w http.ResponseWriter, r *http.Request) {
	pageSize := defaultPresetPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.writeError(w, r, invalidRequest("page_size must be a positive integer", err))
			return
		}
		pageSize = min(n, maxPresetPageSize)
	}
	page, err := a.store.ListPresets(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := presetListResponse{
		Presets:       make([]presetSummary, 0, len(page.Presets)),
		NextPageToken: page.NextPageToken,
	}
	for _, p := range page.Presets {
		resp.Presets = append(resp.Presets, presetSummary{
			Name:      p.Name,
			Locale:    p.Snapshot.Locale,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var snap preset.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		a.writeError(w, r, err)
		return
	}
	snap, dropped := a.engine.ValidatePreset(snap)
	if err := a.store.CreatePreset(r.Context(), storage.Preset{Name: snap.Name, Snapshot: snap}); err != nil {
		a.writeError(w, r, err)
		return
	}
	stored, err := a.store.GetPreset(r.Context(), snap.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, presetResponse{
		Preset:    stored.Snapshot,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Dropped:   nonNil(dropped),
	})
}

func (a *api) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	stored, err := a.store.GetPreset(r.Context(), r.PathValue("name"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	// Catalogs may have changed since the preset was saved.
	snap, dropped := a.engine.ValidatePreset(stored.Snapshot)
	writeJSON(w, http.StatusOK, presetResponse{
		Preset:    snap,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Dropped:   nonNil(dropped),
	})
}

func (a *api) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	var snap preset.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		a.writeError(w, r, err)
		return
	}
	snap.Name = r.PathValue("name")
	snap, dropped := a.engine.ValidatePreset(snap)
	stored, err := a.store.PutPreset(r.Context(), storage.Preset{
		Name:      snap.Name,
		Snapshot:  snap,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presetResponse{
		Preset:    stored.Snapshot,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		Dropped:   nonNil(dropped),
	})
}

func (a *api) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeletePreset(r.Context(), r.PathValue("name")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(dropped []preset.Dropped) []preset.Dropped {
	if dropped == nil {
		return []preset.Dropped{}
	}
	return dropped
}
