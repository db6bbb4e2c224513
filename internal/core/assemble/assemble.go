// Package assemble renders a character configuration into prompt text.
package assemble

import (
	"math"
	"strconv"
	"strings"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/constraint"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
)

// Separator joins prompt tokens. The parser splits on the same delimiter.
const Separator = ", "

// Options control one assembly.
type Options struct {
	Prefix string
	Locale locale.Locale
	Modes  constraint.Modes
}

// Assembler renders configurations against an immutable catalog index.
type Assembler struct {
	index    *catalog.Index
	registry *slot.Registry
	resolver *constraint.Resolver
}

// New returns an Assembler bound to index and registry.
func New(index *catalog.Index, registry *slot.Registry) *Assembler {
	return &Assembler{
		index:    index,
		registry: registry,
		resolver: constraint.NewResolver(index, registry),
	}
}

// Assemble renders cfg in registry order. Disabled, empty, stale and
// force-disabled slots are skipped, and slot tokens already present in the
// prefix are dropped. The result depends only on its inputs.
func (a *Assembler) Assemble(cfg slot.Config, opts Options) string {
	loc := opts.Locale
	if !loc.Valid() {
		loc = locale.Default
	}
	disabled := a.resolver.ForceDisabled(opts.Modes, cfg.Values(true))

	prefix := strings.TrimSpace(opts.Prefix)
	inPrefix := map[string]bool{}
	for _, token := range strings.Split(prefix, ",") {
		if key := tokenKey(token); key != "" {
			inPrefix[key] = true
		}
	}

	tokens := make([]string, 0, a.registry.Len()+1)
	if prefix != "" {
		tokens = append(tokens, prefix)
	}
	for _, def := range a.registry.Definitions() {
		state, ok := cfg[def.Name]
		if !ok || !state.Enabled || state.ValueID == "" || disabled.Has(def.Name) {
			continue
		}
		item, ok := a.index.Item(def.CatalogRef, state.ValueID)
		if !ok {
			continue
		}
		text := item.DisplayName(loc)
		if def.HasColor && state.Color != "" {
			text = a.index.ColorName(state.Color, loc) + " " + text
		}
		if inPrefix[tokenKey(text)] {
			continue
		}
		tokens = append(tokens, Weighted(text, state.Weight))
	}
	return strings.Join(tokens, Separator)
}

// Weighted applies emphasis syntax. Weights that round to 1.00 (and the
// zero value) leave text unchanged; others render as "(text:1.30)".
func Weighted(text string, weight float64) string {
	if weight == 0 {
		return text
	}
	weight = slot.ClampWeight(weight)
	rounded := math.Round(weight*100) / 100
	if rounded == slot.DefaultWeight {
		return text
	}
	return "(" + text + ":" + strconv.FormatFloat(rounded, 'f', 2, 64) + ")"
}

func tokenKey(token string) string {
	return strings.ToLower(strings.Join(strings.Fields(token), " "))
}
