package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// parseCache memoizes parse results per (locales, text). Identical parses
// in flight share one call.
type parseCache struct {
	engine *engine.Engine
	cache  *cache.Cache
	group  singleflight.Group
}

func newParseCache(eng *engine.Engine, ttl time.Duration) *parseCache {
	return &parseCache{
		engine: eng,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func parseKey(text string, locales []locale.Locale) string {
	codes := make([]string, len(locales))
	for i, loc := range locales {
		codes[i] = string(loc)
	}
	return strings.Join(codes, ",") + "\x00" + text
}

// Parse returns the parse of text restricted to locales. Errors are not
// cached.
func (c *parseCache) Parse(ctx context.Context, text string, locales []locale.Locale) (parse.Result, error) {
	key := parseKey(text, locales)
	if cached, ok := c.cache.Get(key); ok {
		if res, ok := cached.(parse.Result); ok {
			return res, nil
		}
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		out, err := c.engine.Parse(ctx, nil, text, parse.Options{Locales: locales})
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, out.Result)
		return out.Result, nil
	})
	if err != nil {
		return parse.Result{}, err
	}
	res, ok := val.(parse.Result)
	if !ok {
		return parse.Result{}, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return res, nil
}

// Len reports the number of cached results.
func (c *parseCache) Len() int {
	return c.cache.ItemCount()
}
