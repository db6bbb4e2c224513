package server

import (
	"net/http"

	"github.com/louisbranch/promptforge/internal/core/assemble"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/louisbranch/promptforge/internal/core/randomize"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

type randomizeRequest struct {
	Slots         []string    `json:"slots,omitempty"`
	Config        slot.Config `json:"config,omitempty"`
	ColorMode     string      `json:"color_mode,omitempty"`
	PaletteID     string      `json:"palette_id,omitempty"`
	FullBodyMode  bool        `json:"full_body_mode,omitempty"`
	UpperBodyMode bool        `json:"upper_body_mode,omitempty"`
	Seed          *int64      `json:"seed,omitempty"`
}

func (req randomizeRequest) input() (engine.RandomizeInput, error) {
	mode, err := randomize.ParseColorMode(req.ColorMode)
	if err != nil {
		return engine.RandomizeInput{}, err
	}
	return engine.RandomizeInput{
		Slots:     req.Slots,
		Config:    req.Config,
		ColorMode: mode,
		PaletteID: req.PaletteID,
		Modes:     constraint.Modes{FullBody: req.FullBodyMode, UpperBody: req.UpperBodyMode},
		Seed:      req.Seed,
	}, nil
}

type randomizeResponse struct {
	Seed     int64               `json:"seed"`
	Outcomes []randomize.Outcome `json:"outcomes"`
	Config   slot.Config         `json:"config"`
}

func (a *api) handleRandomize(w http.ResponseWriter, r *http.Request) {
	var req randomizeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(req.Slots) == 0 {
		a.writeError(w, r, invalidRequest("slots are required", nil))
		return
	}
	a.randomize(w, r, req)
}

func (a *api) handleRandomizeAll(w http.ResponseWriter, r *http.Request) {
	var req randomizeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Slots = nil
	a.randomize(w, r, req)
}

func (a *api) randomize(w http.ResponseWriter, r *http.Request, req randomizeRequest) {
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.engine.Randomize(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, randomizeResponse{
		Seed:     out.Result.Seed,
		Outcomes: out.Result.Outcomes,
		Config:   out.Config,
	})
}

type assembleRequest struct {
	Config slot.Config `json:"config"`
	// Prefix nil means the server default; an empty string disables it.
	Prefix        *string `json:"prefix,omitempty"`
	Locale        string  `json:"locale,omitempty"`
	FullBodyMode  bool    `json:"full_body_mode,omitempty"`
	UpperBodyMode bool    `json:"upper_body_mode,omitempty"`
}

type promptResponse struct {
	Prompt string        `json:"prompt"`
	Locale locale.Locale `json:"locale"`
}

func (a *api) prefix(p *string) string {
	if p == nil {
		return a.promptPrefix
	}
	return *p
}

func (a *api) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var req assembleRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	loc, err := a.outputLocale(req.Locale)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	prompt := a.engine.Assemble(r.Context(), req.Config, assemble.Options{
		Prefix: a.prefix(req.Prefix),
		Locale: loc,
		Modes:  constraint.Modes{FullBody: req.FullBodyMode, UpperBody: req.UpperBodyMode},
	})
	writeJSON(w, http.StatusOK, promptResponse{Prompt: prompt, Locale: loc})
}

type generateRequest struct {
	randomizeRequest
	Prefix *string `json:"prefix,omitempty"`
	Locale string  `json:"locale,omitempty"`
}

type generateResponse struct {
	Prompt   string              `json:"prompt"`
	Locale   locale.Locale       `json:"locale"`
	Seed     int64               `json:"seed"`
	Outcomes []randomize.Outcome `json:"outcomes"`
	Config   slot.Config         `json:"config"`
}

func (a *api) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	loc, err := a.outputLocale(req.Locale)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.engine.Generate(r.Context(), engine.GenerateInput{
		RandomizeInput: in,
		Prefix:         a.prefix(req.Prefix),
		Locale:         loc,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Prompt:   out.Prompt,
		Locale:   loc,
		Seed:     out.Seed,
		Outcomes: out.Result.Outcomes,
		Config:   out.Config,
	})
}

type parseRequest struct {
	Text    string      `json:"text"`
	Config  slot.Config `json:"config,omitempty"`
	Locales []string    `json:"locales,omitempty"`
}

type parseResponse struct {
	parse.Result
	Config slot.Config `json:"config"`
}

func (a *api) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	locales := locale.ParseList(req.Locales)
	if len(req.Locales) > 0 && len(locales) == 0 {
		a.writeError(w, r, invalidRequest("no supported locales requested", nil))
		return
	}
	res, err := a.parses.Parse(r.Context(), req.Text, locales)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Result: res,
		Config: a.engine.Apply(req.Config, res.Deltas),
	})
}
