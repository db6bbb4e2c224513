// Package studio parses studio command flags and starts the HTTP API.
package studio

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/louisbranch/promptforge/internal/core/locale"
	entrypoint "github.com/louisbranch/promptforge/internal/platform/cmd"
	server "github.com/louisbranch/promptforge/internal/services/studio/app"
)

// Config holds studio command configuration.
type Config struct {
	HTTPAddr      string        `env:"STUDIO_HTTP_ADDR"       envDefault:"localhost:8085"`
	DBPath        string        `env:"STUDIO_DB_PATH"         envDefault:"data/promptforge-studio.db"`
	RateLimit     float64       `env:"STUDIO_RATE_LIMIT"      envDefault:"20"`
	RateBurst     int           `env:"STUDIO_RATE_BURST"      envDefault:"40"`
	ParseCacheTTL time.Duration `env:"STUDIO_PARSE_CACHE_TTL" envDefault:"10m"`
	ContentDir    string        `env:"CONTENT_DIR"`
	PromptLocale  string        `env:"PROMPT_LOCALE"          envDefault:"en"`
	PromptPrefix  string        `env:"PROMPT_PREFIX"          envDefault:"1girl"`
}

// ParseConfig parses environ and flags into a Config. A nil environ reads
// the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "studio HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "preset database path")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "requests per second")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "rate limit burst")
	fs.DurationVar(&cfg.ParseCacheTTL, "parse-cache-ttl", cfg.ParseCacheTTL, "parse result cache TTL")
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

// Run starts the studio HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStudio, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:      cfg.HTTPAddr,
			DBPath:        cfg.DBPath,
			ContentDir:    cfg.ContentDir,
			PromptLocale:  locale.Normalize(cfg.PromptLocale),
			PromptPrefix:  cfg.PromptPrefix,
			RateLimit:     cfg.RateLimit,
			RateBurst:     cfg.RateBurst,
			ParseCacheTTL: cfg.ParseCacheTTL,
		})
	})
}
