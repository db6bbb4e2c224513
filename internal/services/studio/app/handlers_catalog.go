package server

import (
	"net/http"

	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

type slotView struct {
	engine.SlotView
	Label string `json:"label"`
}

type sectionView struct {
	ID    slot.Section `json:"id"`
	Label string       `json:"label"`
	Slots []slotView   `json:"slots"`
}

type slotsResponse struct {
	Locale              locale.Locale `json:"locale"`
	UILocale            string        `json:"ui_locale"`
	Sections            []sectionView `json:"sections"`
	LowerBodyCoversLegs []string      `json:"lower_body_covers_legs"`
	PoseUsesHands       []string      `json:"pose_uses_hands"`
}

func (a *api) handleSlots(w http.ResponseWriter, r *http.Request) {
	loc, err := a.outputLocale(r.URL.Query().Get("lang"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ui := a.uiLocale(r)
	listing := a.engine.Slots(loc)

	bySection := make(map[slot.Section][]slotView)
	for _, view := range listing.Slots {
		label := a.bundle.Label(ui, "studio.slot."+view.Name, view.Name)
		bySection[view.Section] = append(bySection[view.Section], slotView{SlotView: view, Label: label})
	}
	resp := slotsResponse{
		Locale:              loc,
		UILocale:            ui,
		Sections:            make([]sectionView, 0, len(bySection)),
		LowerBodyCoversLegs: listing.LowerBodyCoversLegs,
		PoseUsesHands:       listing.PoseUsesHands,
	}
	for _, section := range a.engine.Registry().Sections() {
		resp.Sections = append(resp.Sections, sectionView{
			ID:    section,
			Label: a.bundle.Label(ui, "studio.section."+string(section), string(section)),
			Slots: bySection[section],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleColors(w http.ResponseWriter, r *http.Request) {
	loc, err := a.outputLocale(r.URL.Query().Get("lang"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locale": loc, "colors": a.engine.Colors(loc)})
}

func (a *api) handlePalettes(w http.ResponseWriter, r *http.Request) {
	loc, err := a.outputLocale(r.URL.Query().Get("lang"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locale": loc, "palettes": a.engine.Palettes(loc)})
}
