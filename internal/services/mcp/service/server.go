package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/promptforge/internal/content"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "promptforge MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// defaultHTTPAddr keeps the HTTP transport bound to localhost.
	defaultHTTPAddr = "localhost:8086"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport  TransportKind
	HTTPAddr   string
	ContentDir string
	// PromptLocale is used when a tool call names no locale.
	PromptLocale locale.Locale
	PromptPrefix string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New loads the catalogs and registers every tool module.
func New(ctx context.Context, cfg Config) (*Server, error) {
	eng, err := engine.Load(ctx, content.Open(cfg.ContentDir))
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	return newServer(eng, domain.Defaults{Locale: cfg.PromptLocale, Prefix: cfg.PromptPrefix})
}

func newServer(eng *engine.Engine, defaults domain.Defaults) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range newMCPRegistrationModules(eng, defaults) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer}, nil
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Transport == TransportHTTP {
		httpAddr := strings.TrimSpace(cfg.HTTPAddr)
		if httpAddr == "" {
			httpAddr = defaultHTTPAddr
		}
		return NewHTTPTransport(httpAddr, server.mcpServer).Start(ctx)
	}
	return server.Serve(ctx)
}

// Serve runs the MCP server on stdio until the client disconnects or ctx
// ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
