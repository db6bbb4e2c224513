package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/promptforge/internal/core/catalog/catalogtest"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/slot"
	studiosqlite "github.com/louisbranch/promptforge/internal/services/studio/storage/sqlite"
)

func newTestHandler(t *testing.T, config Config) http.Handler {
	t.Helper()
	store, err := studiosqlite.Open(context.Background(), filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewHandler(engine.New(catalogtest.Index(t), slot.Default()), store, config)
}

func do(t *testing.T, h http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &payload)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestNewServerRequiresAddrAndDBPath(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(context.Background(), Config{DBPath: "x.db"}); err == nil {
		t.Fatal("expected error for empty HTTP address")
	}
	if _, err := NewServer(context.Background(), Config{HTTPAddr: "127.0.0.1:0"}); err == nil {
		t.Fatal("expected error for empty db path")
	}
}

func TestListenAndServeNilServer(t *testing.T) {
	t.Parallel()

	var s *Server
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := NewServer(ctx, Config{
		HTTPAddr: "127.0.0.1:0",
		DBPath:   filepath.Join(t.TempDir(), "studio.db"),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer server.Close()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(ctx)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on cancel")
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestHandler(t, Config{}), http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSlotsAreLocalized(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rr := do(t, h, http.MethodGet, "/api/slots?lang=zh&ui=zh-CN", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[slotsResponse](t, rr)
	if resp.UILocale != "zh-CN" || resp.Locale != "zh" {
		t.Fatalf("locales = %q / %q", resp.UILocale, resp.Locale)
	}
	if len(resp.Sections) != 3 || resp.Sections[0].Label != "外貌" {
		t.Fatalf("sections = %+v", resp.Sections)
	}
	var hairStyle slotView
	for _, view := range resp.Sections[0].Slots {
		if view.Name == slot.HairStyle {
			hairStyle = view
		}
	}
	if hairStyle.Label != "发型" || len(hairStyle.Options) == 0 || hairStyle.Options[0].Name != "双马尾" {
		t.Fatalf("hair style = %+v", hairStyle)
	}
	if len(resp.PoseUsesHands) != 1 || resp.PoseUsesHands[0] != "hands_on_hips" {
		t.Fatalf("pose uses hands = %v", resp.PoseUsesHands)
	}

	rr = do(t, h, http.MethodGet, "/api/slots", nil, "Accept-Language", "fr-FR")
	resp = decode[slotsResponse](t, rr)
	if resp.UILocale != "en-US" || resp.Sections[0].Label != "Appearance" {
		t.Fatalf("fallback = %q %q", resp.UILocale, resp.Sections[0].Label)
	}

	if rr := do(t, h, http.MethodGet, "/api/slots?lang=klingon", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("unsupported lang status = %d", rr.Code)
	}
}

func TestColorsAndPalettes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rr := do(t, h, http.MethodGet, "/api/colors?lang=zh-CN", nil)
	colors := decode[struct {
		Colors []engine.ColorView `json:"colors"`
	}](t, rr)
	if len(colors.Colors) != 5 || colors.Colors[0].Name != "红色" {
		t.Fatalf("colors = %+v", colors.Colors)
	}

	rr = do(t, h, http.MethodGet, "/api/palettes", nil)
	palettes := decode[struct {
		Palettes []engine.PaletteView `json:"palettes"`
	}](t, rr)
	if len(palettes.Palettes) != 3 || palettes.Palettes[0].ID != "school" {
		t.Fatalf("palettes = %+v", palettes.Palettes)
	}
}

func TestGenerateIsReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	body := map[string]any{"seed": 11, "color_mode": "individual", "locale": "en"}
	first := decode[generateResponse](t, do(t, h, http.MethodPost, "/api/generate", body))
	second := decode[generateResponse](t, do(t, h, http.MethodPost, "/api/generate", body))
	if first.Prompt != second.Prompt || first.Seed != 11 {
		t.Fatalf("first = %+v second = %+v", first, second)
	}
	if !strings.HasPrefix(first.Prompt, "1girl") {
		t.Fatalf("prompt = %q", first.Prompt)
	}
	if len(first.Outcomes) != slot.Default().Len() {
		t.Fatalf("outcomes = %d", len(first.Outcomes))
	}
}

func TestAssembleHonorsExplicitEmptyPrefix(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	cfg := slot.Config{slot.HairStyle: {Enabled: true, ValueID: "twin_tails", Weight: 1.3}}

	rr := do(t, h, http.MethodPost, "/api/assemble", map[string]any{"config": cfg, "prefix": ""})
	if got := decode[promptResponse](t, rr).Prompt; got != "(twin tails:1.30)" {
		t.Fatalf("prompt = %q", got)
	}
	rr = do(t, h, http.MethodPost, "/api/assemble", map[string]any{"config": cfg, "locale": "zh"})
	if got := decode[promptResponse](t, rr).Prompt; got != "1girl, (双马尾:1.30)" {
		t.Fatalf("prompt = %q", got)
	}
}

func TestRandomizeErrors(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{name: "missing slots", path: "/api/randomize", body: map[string]any{}, code: "INVALID_REQUEST"},
		{name: "unknown slot", path: "/api/randomize", body: map[string]any{"slots": []string{"wings"}}, code: "UNKNOWN_SLOT"},
		{name: "bad color mode", path: "/api/randomize-all", body: map[string]any{"color_mode": "rainbow"}, code: "INVALID_COLOR_MODE"},
		{name: "unknown palette", path: "/api/randomize-all", body: map[string]any{"color_mode": "palette", "palette_id": "neon"}, code: "UNKNOWN_PALETTE"},
		{name: "unknown field", path: "/api/randomize-all", body: map[string]any{"colour": "red"}, code: "INVALID_REQUEST"},
	}
	for _, tc := range tests {
		rr := do(t, h, http.MethodPost, tc.path, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, rr.Code)
		}
		if got := decode[errorBody](t, rr).Error.Code; got != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.name, got, tc.code)
		}
	}
}

func TestRandomizeKeepsLockedSlots(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	cfg := slot.NewConfig(slot.Default())
	cfg[slot.HairStyle] = slot.State{Enabled: true, Locked: true, ValueID: "bob_cut", Weight: 1}
	rr := do(t, h, http.MethodPost, "/api/randomize", map[string]any{
		"slots":  []string{slot.HairStyle, slot.Pose},
		"config": cfg,
		"seed":   3,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[randomizeResponse](t, rr)
	if resp.Config[slot.HairStyle].ValueID != "bob_cut" {
		t.Fatalf("locked slot changed: %+v", resp.Config[slot.HairStyle])
	}
	if resp.Config[slot.Pose].ValueID == "" {
		t.Fatalf("pose not randomized: %+v", resp.Config[slot.Pose])
	}
}

func TestParseAppliesDeltasAndCaches(t *testing.T) {
	t.Parallel()

	eng := engine.New(catalogtest.Index(t), slot.Default())
	a := &api{engine: eng, parses: newParseCache(eng, time.Minute)}

	for i := 0; i < 2; i++ {
		rr := do(t, a.routes(), http.MethodPost, "/api/parse", map[string]any{"text": "red twin tails, (双马尾:1.30)"})
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
		}
		resp := decode[parseResponse](t, rr)
		if len(resp.Matches) != 2 {
			t.Fatalf("matches = %+v", resp.Matches)
		}
		if got := resp.Config[slot.HairStyle]; got.ValueID != "twin_tails" || got.Weight != 1.3 || !got.Enabled {
			t.Fatalf("hair style = %+v", got)
		}
	}
	if a.parses.Len() != 1 {
		t.Fatalf("cached parses = %d", a.parses.Len())
	}
}

func TestParseClampsUnmentionedSlots(t *testing.T) {
	t.Parallel()

	eng := engine.New(catalogtest.Index(t), slot.Default())
	a := &api{engine: eng, parses: newParseCache(eng, time.Minute)}

	cfg := slot.Config{
		slot.Pose:       {Enabled: true, ValueID: "standing", Weight: 9},
		slot.Expression: {Enabled: true, Weight: -3},
	}
	rr := do(t, a.routes(), http.MethodPost, "/api/parse", map[string]any{"text": "twin tails", "config": cfg})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[parseResponse](t, rr)
	if got := resp.Config[slot.Pose]; got.ValueID != "standing" || got.Weight != slot.MaxWeight {
		t.Fatalf("pose = %+v", got)
	}
	if got := resp.Config[slot.Expression].Weight; got != slot.MinWeight {
		t.Fatalf("expression weight = %v", got)
	}
}

func TestParseMalformedIsLocalized(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	rr := do(t, h, http.MethodPost, "/api/parse", map[string]any{"text": "(smile"}, "Accept-Language", "zh-CN,zh;q=0.9")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if body.Error.Code != "MALFORMED_PROMPT" || !strings.Contains(body.Error.Message, "括号") || !strings.Contains(body.Error.Message, "(smile") {
		t.Fatalf("error = %+v", body.Error)
	}

	rr = do(t, h, http.MethodPost, "/api/parse", map[string]any{"text": "smile", "locales": []string{"fr"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unsupported locales status = %d", rr.Code)
	}
}

func TestPresetLifecycle(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{})
	snap := map[string]any{
		"name":       "school day",
		"locale":     "en",
		"prefix":     "1girl",
		"color_mode": "individual",
		"slots": map[string]any{
			slot.HairStyle: map[string]any{"enabled": true, "value_id": "双马尾", "weight": 1.2},
			"tail":         map[string]any{"enabled": true, "value_id": "fox"},
		},
	}

	rr := do(t, h, http.MethodPost, "/api/presets", snap)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rr.Code, rr.Body.String())
	}
	created := decode[presetResponse](t, rr)
	if created.Preset.Slots[slot.HairStyle].ValueID != "twin_tails" || len(created.Dropped) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if rr := do(t, h, http.MethodPost, "/api/presets", snap); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/presets/school%20day", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	snap["prefix"] = "1boy"
	rr = do(t, h, http.MethodPut, "/api/presets/school%20day", snap)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d body = %s", rr.Code, rr.Body.String())
	}
	updated := decode[presetResponse](t, rr)
	if updated.Preset.Prefix != "1boy" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("updated = %+v", updated)
	}

	list := decode[presetListResponse](t, do(t, h, http.MethodGet, "/api/presets?page_size=10", nil))
	if len(list.Presets) != 1 || list.Presets[0].Name != "school day" {
		t.Fatalf("list = %+v", list)
	}
	if rr := do(t, h, http.MethodGet, "/api/presets?page_size=zero", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad page size status = %d", rr.Code)
	}

	if rr := do(t, h, http.MethodDelete, "/api/presets/school%20day", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/api/presets/school%20day", nil)
	if rr.Code != http.StatusNotFound || decode[errorBody](t, rr).Error.Code != "NOT_FOUND" {
		t.Fatalf("get after delete = %d %s", rr.Code, rr.Body.String())
	}
}

func TestCreatePresetRequiresName(t *testing.T) {
	t.Parallel()

	rr := do(t, newTestHandler(t, Config{}), http.MethodPost, "/api/presets", map[string]any{"prefix": "1girl"})
	if rr.Code != http.StatusBadRequest || decode[errorBody](t, rr).Error.Code != "PRESET_NAME_EMPTY" {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, Config{RateLimit: 0.001, RateBurst: 1})
	if rr := do(t, h, http.MethodGet, "/api/colors", nil); rr.Code != http.StatusOK {
		t.Fatalf("first status = %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/api/colors", nil)
	if rr.Code != http.StatusTooManyRequests || decode[errorBody](t, rr).Error.Code != "RATE_LIMITED" {
		t.Fatalf("second status = %d body = %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, h, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
}
