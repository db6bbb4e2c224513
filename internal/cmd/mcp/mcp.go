// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"

	"github.com/louisbranch/promptforge/internal/core/locale"
	entrypoint "github.com/louisbranch/promptforge/internal/platform/cmd"
	"github.com/louisbranch/promptforge/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr     string `env:"MCP_HTTP_ADDR" envDefault:"localhost:8086"`
	Transport    string `env:"MCP_TRANSPORT" envDefault:"stdio"`
	ContentDir   string `env:"CONTENT_DIR"`
	PromptLocale string `env:"PROMPT_LOCALE" envDefault:"en"`
	PromptPrefix string `env:"PROMPT_PREFIX" envDefault:"1girl"`
}

// ParseConfig parses environ and flags into a Config. A nil environ reads
// the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.ContentDir, "content-dir", cfg.ContentDir, "catalog directory (empty uses bundled content)")
	fs.StringVar(&cfg.PromptLocale, "locale", cfg.PromptLocale, "default prompt locale")
	fs.StringVar(&cfg.PromptPrefix, "prefix", cfg.PromptPrefix, "default prompt prefix")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, ok := locale.Parse(cfg.PromptLocale); !ok {
		return Config{}, fmt.Errorf("unsupported prompt locale %q", cfg.PromptLocale)
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return service.Run(ctx, service.Config{
			Transport:    service.TransportKind(cfg.Transport),
			HTTPAddr:     cfg.HTTPAddr,
			ContentDir:   cfg.ContentDir,
			PromptLocale: locale.Normalize(cfg.PromptLocale),
			PromptPrefix: cfg.PromptPrefix,
		})
	})
}
