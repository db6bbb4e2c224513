// Package server wires the studio HTTP API: catalog listings, prompt
// generation and parsing, and preset storage.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/promptforge/internal/content"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	i18ncatalog "github.com/louisbranch/promptforge/internal/platform/i18n/catalog"
	"github.com/louisbranch/promptforge/internal/platform/timeouts"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
	studiosqlite "github.com/louisbranch/promptforge/internal/services/studio/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultRateLimit     = 20
	defaultRateBurst     = 40
	defaultParseCacheTTL = 10 * time.Minute
)

// Config defines the inputs for the studio HTTP service.
type Config struct {
	HTTPAddr   string
	DBPath     string
	ContentDir string
	// PromptLocale is used when a request names no output locale.
	PromptLocale      locale.Locale
	PromptPrefix      string
	RateLimit         float64
	RateBurst         int
	ParseCacheTTL     time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the studio HTTP process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *studiosqlite.Store
}

// NewServer loads the catalogs, opens the preset store, and builds the
// HTTP server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.DBPath) == "" {
		return nil, errors.New("db path is required")
	}
	config = withDefaults(config)

	eng, err := engine.Load(ctx, content.Open(config.ContentDir))
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	store, err := studiosqlite.Open(ctx, config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open preset store: %w", err)
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(eng, store, config),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           store,
	}, nil
}

// NewHandler builds the instrumented, rate limited studio routes over eng
// and store.
func NewHandler(eng *engine.Engine, store storage.PresetStore, config Config) http.Handler {
	config = withDefaults(config)
	api := &api{
		engine:       eng,
		store:        store,
		bundle:       i18ncatalog.Default(),
		promptLocale: config.PromptLocale,
		promptPrefix: config.PromptPrefix,
		parses:       newParseCache(eng, config.ParseCacheTTL),
	}
	limited := rateLimit(api.routes(), config.RateLimit, config.RateBurst, api)
	return otelhttp.NewHandler(limited, "studio")
}

func withDefaults(config Config) Config {
	if !config.PromptLocale.Valid() {
		config.PromptLocale = locale.Default
	}
	if strings.TrimSpace(config.PromptPrefix) == "" {
		config.PromptPrefix = engine.DefaultPrefix
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaultRateLimit
	}
	if config.RateBurst <= 0 {
		config.RateBurst = defaultRateBurst
	}
	if config.ParseCacheTTL <= 0 {
		config.ParseCacheTTL = defaultParseCacheTTL
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	return config
}

// Run creates and serves a studio server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(ctx, config)
	if err != nil {
		return fmt.Errorf("init studio server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve studio: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("studio server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("studio server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close preset store: %v", err)
		}
	}
}
