// Package locale defines the closed set of prompt-output locales.
//
// Prompt locales are deliberately coarse: a catalog name is authored per
// language, not per region, so "zh-CN" and "zh-TW" both resolve to Chinese.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies one supported prompt-output language.
type Locale string

const (
	// English is the default locale and the first fallback for names.
	English Locale = "en"
	// Chinese covers every zh-* variant.
	Chinese Locale = "zh"
)

// Default is used when a locale is missing or unsupported.
const Default = English

var supported = []Locale{English, Chinese}

var supportedTags = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(supportedTags)

// Supported returns all supported locales, default first.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// String returns the locale code.
func (l Locale) String() string {
	return string(l)
}

// Valid reports whether l belongs to the supported set.
func (l Locale) Valid() bool {
	for _, candidate := range supported {
		if candidate == l {
			return true
		}
	}
	return false
}

// Tag returns the BCP 47 tag for the locale.
func (l Locale) Tag() language.Tag {
	for i, candidate := range supported {
		if candidate == l {
			return supportedTags[i]
		}
	}
	return supportedTags[0]
}

// Parse maps an arbitrary locale code onto a supported locale by base
// language. It reports false for blank, malformed, or unsupported codes.
func Parse(code string) (Locale, bool) {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}
	for i, candidate := range supportedTags {
		candidateBase, _ := candidate.Base()
		if candidateBase == base {
			return supported[i], true
		}
	}
	return "", false
}

// Normalize returns Parse(code) or Default.
func Normalize(code string) Locale {
	if loc, ok := Parse(code); ok {
		return loc
	}
	return Default
}

// Match picks the best supported locale for a list of preferences, such as
// the entries of an Accept-Language header.
func Match(preferences ...string) Locale {
	tags := make([]language.Tag, 0, len(preferences))
	for _, pref := range preferences {
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence != language.No {
		return supported[index]
	}
	// Script mismatches (zh-Hant against zh) are rejected by the matcher but
	// still share a catalog language.
	for _, tag := range tags {
		if loc, ok := Parse(tag.String()); ok {
			return loc
		}
	}
	return Default
}

// ParseList normalizes a list of codes, dropping unsupported entries and
// duplicates. An empty result means "all locales" to callers.
func ParseList(codes []string) []Locale {
	seen := make(map[Locale]bool, len(codes))
	out := make([]Locale, 0, len(codes))
	for _, code := range codes {
		loc, ok := Parse(code)
		if !ok || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}
