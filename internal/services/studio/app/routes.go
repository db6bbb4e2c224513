package server

import (
	"net/http"
	"strings"

	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	i18ncatalog "github.com/louisbranch/promptforge/internal/platform/i18n/catalog"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
)

type api struct {
	engine       *engine.Engine
	store        storage.PresetStore
	bundle       *i18ncatalog.Bundle
	promptLocale locale.Locale
	promptPrefix string
	parses       *parseCache
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/slots", a.handleSlots)
	mux.HandleFunc("GET /api/colors", a.handleColors)
	mux.HandleFunc("GET /api/palettes", a.handlePalettes)

	mux.HandleFunc("POST /api/randomize", a.handleRandomize)
	mux.HandleFunc("POST /api/randomize-all", a.handleRandomizeAll)
	mux.HandleFunc("POST /api/assemble", a.handleAssemble)
	mux.HandleFunc("POST /api/generate", a.handleGenerate)
	mux.HandleFunc("POST /api/parse", a.handleParse)

	mux.HandleFunc("GET /api/presets", a.handleListPresets)
	mux.HandleFunc("POST /api/presets", a.handleCreatePreset)
	mux.HandleFunc("GET /api/presets/{name}", a.handleGetPreset)
	mux.HandleFunc("PUT /api/presets/{name}", a.handlePutPreset)
	mux.HandleFunc("DELETE /api/presets/{name}", a.handleDeletePreset)
	return mux
}

// uiLocale picks the bundle locale for labels and error messages from ?ui=
// or Accept-Language.
func (a *api) uiLocale(r *http.Request) string {
	preference := strings.TrimSpace(r.URL.Query().Get("ui"))
	if preference == "" {
		preference = r.Header.Get("Accept-Language")
	}
	return a.bundle.Match(preference)
}

// outputLocale resolves a prompt locale code, falling back to the server
// default when raw is blank.
func (a *api) outputLocale(raw string) (locale.Locale, error) {
	if strings.TrimSpace(raw) == "" {
		return a.promptLocale, nil
	}
	loc, ok := locale.Parse(raw)
	if !ok {
		return "", invalidRequest("unsupported locale "+raw, nil)
	}
	return loc, nil
}
