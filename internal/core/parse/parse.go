// Package parse maps free-form prompt text back onto slot values.
//
// Parsing is best-effort: phrases that match no catalog item are reported
// as data, and only structurally broken emphasis syntax is an error.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"golang.org/x/text/cases"
)

// DefaultIgnore lists subject tokens that are neither slot values nor
// unmatched text.
var DefaultIgnore = []string{"1girl", "1boy", "girl", "boy", "solo"}

// Span locates a segment in the input by character (rune) offsets.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Match is one phrase resolved to a slot value.
type Match struct {
	Slot   string        `json:"slot"`
	ItemID string        `json:"item_id"`
	Color  string        `json:"color,omitempty"`
	Weight float64       `json:"weight"`
	Locale locale.Locale `json:"locale"`
	Span   Span          `json:"span"`
}

// Result carries every match in input order plus the regions that did not
// match. Deltas keep the last match per slot, in registry order.
type Result struct {
	Matches    []Match      `json:"matches"`
	Unmatched  []Span       `json:"unmatched_spans"`
	Ignored    []Span       `json:"ignored_spans"`
	Deltas     []slot.Delta `json:"deltas"`
	Confidence float64      `json:"confidence"`
}

// MalformedPromptError reports unbalanced emphasis parentheses.
type MalformedPromptError struct {
	// Offset is the character offset of the offending segment.
	Offset int
	// Position is the character offset of the offending parenthesis.
	Position int
	Segment  string
	Reason   string
}

func (e *MalformedPromptError) Error() string {
	return fmt.Sprintf("malformed prompt at offset %d: %s: %q", e.Offset, e.Reason, e.Segment)
}

// Options control one parse.
type Options struct {
	// Locales restricts the searched name sets; empty searches all.
	Locales []locale.Locale
	// Ignore overrides DefaultIgnore when non-nil.
	Ignore []string
}

type entry struct {
	position int
	slot     string
	itemID   string
	hasColor bool
}

// Parser holds name indexes built once from the catalogs. It is safe for
// concurrent use.
type Parser struct {
	registry      *slot.Registry
	names         map[locale.Locale]map[string][]entry
	colors        map[string]string
	maxColorWords int
}

// New indexes every slot's items under their display name in each
// supported locale, and every color token under its localized names.
func New(index *catalog.Index, registry *slot.Registry) *Parser {
	caser := cases.Fold()
	p := &Parser{
		registry: registry,
		names:    map[locale.Locale]map[string][]entry{},
		colors:   map[string]string{},
	}
	for _, loc := range locale.Supported() {
		p.names[loc] = map[string][]entry{}
	}
	for position, def := range registry.Definitions() {
		c, ok := index.Catalog(def.CatalogRef)
		if !ok {
			continue
		}
		for _, item := range c.Items() {
			for _, loc := range locale.Supported() {
				key := foldKey(caser, item.DisplayName(loc))
				p.names[loc][key] = append(p.names[loc][key], entry{
					position: position,
					slot:     def.Name,
					itemID:   item.ID,
					hasColor: def.HasColor,
				})
			}
		}
	}
	for _, color := range index.ColorVocabulary() {
		names := []string{color.ID}
		for _, loc := range locale.Supported() {
			names = append(names, color.DisplayName(loc))
		}
		for _, name := range names {
			key := foldKey(caser, name)
			if key == "" {
				continue
			}
			if _, exists := p.colors[key]; exists {
				continue
			}
			p.colors[key] = color.ID
			if words := len(strings.Fields(key)); words > p.maxColorWords {
				p.maxColorWords = words
			}
		}
	}
	return p
}

// Parse splits text on top-level commas and matches each segment.
//
// Each segment loses its surrounding whitespace and emphasis parentheses;
// a trailing ":number" inside a group sets the weight (clamped, default
// 1.0). A leading color phrase followed by whitespace is stripped before
// lookup. Matching is exact after Unicode case folding and whitespace
// collapsing; when several slots match, the earliest in registry order
// wins.
func (p *Parser) Parse(text string, opts Options) (Result, error) {
	segments, err := split(text)
	if err != nil {
		return Result{}, err
	}

	searched := make([]locale.Locale, 0, len(opts.Locales))
	for _, loc := range opts.Locales {
		if loc.Valid() {
			searched = append(searched, loc)
		}
	}
	if len(searched) == 0 {
		searched = locale.Supported()
	}

	caser := cases.Fold()
	ignoreList := opts.Ignore
	if ignoreList == nil {
		ignoreList = DefaultIgnore
	}
	ignore := make(map[string]bool, len(ignoreList))
	for _, token := range ignoreList {
		ignore[foldKey(caser, token)] = true
	}

	result := Result{Matches: []Match{}, Unmatched: []Span{}, Ignored: []Span{}, Deltas: []slot.Delta{}}
	for _, seg := range segments {
		span, ok := trimmedSpan(text, seg)
		if !ok {
			continue
		}
		phrase, weight := unwrap(span.Text)
		if phrase == "" {
			continue
		}
		if ignore[foldKey(caser, phrase)] {
			result.Ignored = append(result.Ignored, span)
			continue
		}
		match, ok := p.match(caser, phrase, searched)
		if !ok {
			result.Unmatched = append(result.Unmatched, span)
			continue
		}
		match.Weight = weight
		match.Span = span
		result.Matches = append(result.Matches, match)
	}

	latest := make(map[string]Match, len(result.Matches))
	for _, match := range result.Matches {
		latest[match.Slot] = match
	}
	for _, name := range p.registry.Names() {
		match, ok := latest[name]
		if !ok {
			continue
		}
		result.Deltas = append(result.Deltas, slot.Delta{
			Slot:    match.Slot,
			ValueID: match.ItemID,
			Color:   match.Color,
			Weight:  match.Weight,
			Enable:  true,
		})
	}
	if total := len(result.Matches) + len(result.Unmatched); total > 0 {
		result.Confidence = float64(len(result.Matches)) / float64(total)
	}
	return result, nil
}

// match prefers, in order: a colorable slot matched by the phrase without
// its leading color, any slot matched by the whole phrase, then any slot
// matched without the color (which is then dropped).
func (p *Parser) match(caser cases.Caser, phrase string, searched []locale.Locale) (Match, bool) {
	words := strings.Fields(phrase)
	color, rest := "", ""
	for k := min(p.maxColorWords, len(words)-1); k >= 1; k-- {
		if token, ok := p.colors[foldKey(caser, strings.Join(words[:k], " "))]; ok {
			color = token
			rest = strings.Join(words[k:], " ")
			break
		}
	}
	if color != "" {
		if match, ok := p.lookup(caser, rest, searched, true); ok {
			match.Color = color
			return match, true
		}
	}
	if match, ok := p.lookup(caser, phrase, searched, false); ok {
		return match, true
	}
	if color != "" {
		return p.lookup(caser, rest, searched, false)
	}
	return Match{}, false
}

func (p *Parser) lookup(caser cases.Caser, phrase string, searched []locale.Locale, colorOnly bool) (Match, bool) {
	key := foldKey(caser, phrase)
	if key == "" {
		return Match{}, false
	}
	var (
		best    entry
		bestLoc locale.Locale
		found   bool
	)
	for _, loc := range searched {
		for _, candidate := range p.names[loc][key] {
			if colorOnly && !candidate.hasColor {
				continue
			}
			if !found || candidate.position < best.position {
				best, bestLoc, found = candidate, loc, true
			}
		}
	}
	if !found {
		return Match{}, false
	}
	return Match{Slot: best.slot, ItemID: best.itemID, Locale: bestLoc}, true
}

type segment struct {
	start, end int
}

// split cuts text at commas outside parentheses. Offsets are byte offsets.
func split(text string) ([]segment, error) {
	var segments []segment
	depth, start, openAt := 0, 0, -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			if depth == 0 {
				openAt = i
			}
			depth++
		case ')':
			if depth == 0 {
				return nil, malformed(text, segment{start: start, end: segmentEnd(text, i)}, i, "unbalanced closing parenthesis")
			}
			depth--
		case ',':
			if depth == 0 {
				segments = append(segments, segment{start: start, end: i})
				start = i + 1
			}
		}
	}
	if depth > 0 {
		return nil, malformed(text, segment{start: start, end: len(text)}, openAt, "unterminated emphasis parenthesis")
	}
	return append(segments, segment{start: start, end: len(text)}), nil
}

func segmentEnd(text string, from int) int {
	if idx := strings.IndexByte(text[from:], ','); idx >= 0 {
		return from + idx
	}
	return len(text)
}

func malformed(text string, seg segment, position int, reason string) *MalformedPromptError {
	span, ok := trimmedSpan(text, seg)
	if !ok {
		span = Span{Start: runeOffset(text, seg.start)}
	}
	return &MalformedPromptError{
		Offset:   span.Start,
		Position: runeOffset(text, position),
		Segment:  span.Text,
		Reason:   reason,
	}
}

// trimmedSpan returns the segment without surrounding whitespace, or false
// when nothing remains.
func trimmedSpan(text string, seg segment) (Span, bool) {
	raw := text[seg.start:seg.end]
	trimmedLeft := strings.TrimLeftFunc(raw, unicode.IsSpace)
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	if trimmed == "" {
		return Span{}, false
	}
	startByte := seg.start + len(raw) - len(trimmedLeft)
	endByte := startByte + len(trimmed)
	return Span{
		Start: runeOffset(text, startByte),
		End:   runeOffset(text, endByte),
		Text:  trimmed,
	}, true
}

func runeOffset(text string, byteOffset int) int {
	return utf8.RuneCountInString(text[:byteOffset])
}

// unwrap strips nested outer emphasis groups and returns the phrase and its
// clamped weight.
func unwrap(s string) (string, float64) {
	weight := slot.DefaultWeight
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && closesAtEnd(s) {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if idx := strings.LastIndexByte(inner, ':'); idx >= 0 {
			if w, err := strconv.ParseFloat(strings.TrimSpace(inner[idx+1:]), 64); err == nil {
				weight = w
				inner = strings.TrimSpace(inner[:idx])
			}
		}
		s = inner
	}
	return s, slot.ClampWeight(weight)
}

// closesAtEnd reports whether the opening parenthesis at s[0] is closed by
// the last byte of s.
func closesAtEnd(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func foldKey(caser cases.Caser, s string) string {
	return caser.String(strings.Join(strings.Fields(s), " "))
}
