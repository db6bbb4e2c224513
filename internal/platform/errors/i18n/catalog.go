// Package i18n renders coded errors as localized user messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/louisbranch/promptforge/internal/platform/errors"
	i18ncatalog "github.com/louisbranch/promptforge/internal/platform/i18n/catalog"
)

const namespace = "errors"

// Catalog maps error codes to message templates for one UI locale.
type Catalog struct {
	locale    string
	templates map[apperrors.Code]*template.Template
	raw       map[apperrors.Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog for locale, matched against the bundled
// UI locales. Unknown locales resolve to the base locale.
func GetCatalog(locale string) *Catalog {
	bundle := i18ncatalog.Default()
	resolved := bundle.Match(strings.TrimSpace(locale))

	if c, ok := lookupCatalog(resolved); ok {
		return c
	}
	resolved, messages := bundle.NamespaceMessagesWithFallback(resolved, namespace)
	if c, ok := lookupCatalog(resolved); ok {
		return c
	}
	return storeCatalogIfAbsent(resolved, NewCatalog(resolved, messages))
}

// NewCatalog compiles messages keyed by error code. Templates that fail to
// parse render verbatim.
func NewCatalog(locale string, messages map[string]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		templates: make(map[apperrors.Code]*template.Template, len(messages)),
		raw:       make(map[apperrors.Code]string, len(messages)),
	}
	for key, value := range messages {
		code := apperrors.Code(key)
		c.raw[code] = value
		if t, err := template.New(key).Option("missingkey=zero").Parse(value); err == nil {
			c.templates[code] = t
		}
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for code with metadata. Unknown codes render
// as the code itself.
func (c *Catalog) Format(code apperrors.Code, metadata map[string]string) string {
	raw, ok := c.raw[code]
	if !ok {
		return string(code)
	}
	t, ok := c.templates[code]
	if !ok {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return raw
	}
	return buf.String()
}

// Message localizes err for locale.
func Message(locale string, err *apperrors.Error) string {
	if err == nil {
		return ""
	}
	return GetCatalog(locale).Format(err.Code, err.Metadata)
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}

func storeCatalogIfAbsent(locale string, candidate *Catalog) *Catalog {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[locale]; ok {
		return existing
	}
	catalogs[locale] = candidate
	return candidate
}
