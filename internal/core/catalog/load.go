package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/louisbranch/promptforge/internal/core/locale"
	"golang.org/x/sync/errgroup"
)

// SourceKind tells Load how to decode a source.
type SourceKind string

const (
	// KindCatalog sources map catalog refs to item lists.
	KindCatalog SourceKind = "catalog"
	// KindColors sources carry individual colors and palettes.
	KindColors SourceKind = "colors"
)

// Source is one raw JSON document.
type Source struct {
	Name string
	Kind SourceKind
	Data []byte
}

// LoadError reports a malformed catalog source. Loading stops at the first
// error.
type LoadError struct {
	Source  string
	Catalog string
	ID      string
	Reason  string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load catalog source %q", e.Source)
	if e.Catalog != "" {
		fmt.Fprintf(&b, " catalog %q", e.Catalog)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " id %q", e.ID)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type itemRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	NameI18n   map[string]string `json:"name_i18n"`
	Group      string            `json:"group"`
	CoversLegs bool              `json:"covers_legs"`
	UsesHands  bool              `json:"uses_hands"`
}

type catalogFile struct {
	Catalogs map[string][]itemRecord `json:"catalogs"`
}

type colorRecord struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	NameI18n map[string]string `json:"name_i18n"`
}

type paletteRecord struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	NameI18n       map[string]string `json:"name_i18n"`
	CategoryColors map[string]string `json:"category_colors"`
	Fallback       string            `json:"fallback"`
}

type colorsFile struct {
	IndividualColors []colorRecord   `json:"individual_colors"`
	Palettes         []paletteRecord `json:"palettes"`
}

// Load decodes and validates every source into an Index.
func Load(sources []Source) (*Index, error) {
	ix := &Index{
		catalogs:  map[string]*Catalog{},
		colorByID: map[string]int{},
		paletteBy: map[string]int{},
	}
	for _, src := range sources {
		switch src.Kind {
		case KindCatalog:
			if err := ix.addCatalogSource(src); err != nil {
				return nil, err
			}
		case KindColors:
			if err := ix.addColorsSource(src); err != nil {
				return nil, err
			}
		default:
			return nil, &LoadError{Source: src.Name, Reason: fmt.Sprintf("unknown source kind %q", src.Kind)}
		}
	}
	return ix, nil
}

func (ix *Index) addCatalogSource(src Source) error {
	var file catalogFile
	if err := json.Unmarshal(src.Data, &file); err != nil {
		return &LoadError{Source: src.Name, Reason: "decode json", Err: err}
	}
	refs := make([]string, 0, len(file.Catalogs))
	for ref := range file.Catalogs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	for _, rawRef := range refs {
		ref := strings.TrimSpace(rawRef)
		if ref == "" {
			return &LoadError{Source: src.Name, Reason: "catalog ref is required"}
		}
		c, ok := ix.catalogs[ref]
		if !ok {
			c = &Catalog{Ref: ref, byID: map[string]int{}}
			ix.catalogs[ref] = c
		}
		for _, record := range file.Catalogs[rawRef] {
			id := strings.TrimSpace(record.ID)
			if id == "" {
				return &LoadError{Source: src.Name, Catalog: ref, Reason: "item id is required"}
			}
			if _, exists := c.byID[id]; exists {
				return &LoadError{Source: src.Name, Catalog: ref, ID: id, Reason: "duplicate item id"}
			}
			name, names, err := buildNames(record.Name, record.NameI18n)
			if err != nil {
				return &LoadError{Source: src.Name, Catalog: ref, ID: id, Reason: err.Error()}
			}
			c.byID[id] = len(c.items)
			c.items = append(c.items, Item{
				ID:         id,
				Name:       name,
				Names:      names,
				Group:      strings.TrimSpace(record.Group),
				CoversLegs: record.CoversLegs,
				UsesHands:  record.UsesHands,
			})
		}
	}
	return nil
}

func (ix *Index) addColorsSource(src Source) error {
	var file colorsFile
	if err := json.Unmarshal(src.Data, &file); err != nil {
		return &LoadError{Source: src.Name, Reason: "decode json", Err: err}
	}
	for _, record := range file.IndividualColors {
		id := strings.TrimSpace(record.ID)
		if id == "" {
			return &LoadError{Source: src.Name, Reason: "color id is required"}
		}
		if _, exists := ix.colorByID[id]; exists {
			return &LoadError{Source: src.Name, ID: id, Reason: "duplicate color id"}
		}
		name, names, err := buildNames(record.Name, record.NameI18n)
		if err != nil {
			return &LoadError{Source: src.Name, ID: id, Reason: err.Error()}
		}
		ix.colorByID[id] = len(ix.colors)
		ix.colors = append(ix.colors, Color{ID: id, Name: name, Names: names})
	}
	for _, record := range file.Palettes {
		id := strings.TrimSpace(record.ID)
		if id == "" {
			return &LoadError{Source: src.Name, Reason: "palette id is required"}
		}
		if _, exists := ix.paletteBy[id]; exists {
			return &LoadError{Source: src.Name, ID: id, Reason: "duplicate palette id"}
		}
		name, names, err := buildNames(record.Name, record.NameI18n)
		if err != nil {
			return &LoadError{Source: src.Name, ID: id, Reason: err.Error()}
		}
		categories := make(map[string]string, len(record.CategoryColors))
		for category, token := range record.CategoryColors {
			category = strings.TrimSpace(category)
			token = strings.TrimSpace(token)
			if category == "" || token == "" {
				continue
			}
			categories[category] = token
		}
		ix.paletteBy[id] = len(ix.palettes)
		ix.palettes = append(ix.palettes, Palette{
			ID:             id,
			Name:           name,
			Names:          names,
			CategoryColors: categories,
			Fallback:       strings.TrimSpace(record.Fallback),
		})
	}
	return nil
}

// buildNames normalizes locale keys and picks the default name. Names for
// unsupported locales are ignored.
func buildNames(defaultName string, i18n map[string]string) (string, map[locale.Locale]string, error) {
	names := make(map[locale.Locale]string, len(i18n))
	for code, value := range i18n {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		loc, ok := locale.Parse(code)
		if !ok {
			continue
		}
		if existing, exists := names[loc]; exists && existing != value {
			return "", nil, fmt.Errorf("conflicting names for locale %s", loc)
		}
		names[loc] = value
	}
	name := strings.TrimSpace(defaultName)
	if name == "" {
		for _, loc := range locale.Supported() {
			if value := names[loc]; value != "" {
				name = value
				break
			}
		}
	}
	if name == "" {
		return "", nil, fmt.Errorf("no usable display name")
	}
	for _, value := range append([]string{name}, mapValues(names)...) {
		if strings.ContainsAny(value, ",()") {
			return "", nil, fmt.Errorf("display name %q contains a prompt delimiter", value)
		}
	}
	return name, names, nil
}

func mapValues(names map[locale.Locale]string) []string {
	out := make([]string, 0, len(names))
	for _, value := range names {
		out = append(out, value)
	}
	return out
}

// LoadFS reads catalogs/*.json and colors/*.json from fsys concurrently and
// loads them in path order.
func LoadFS(ctx context.Context, fsys fs.FS) (*Index, error) {
	catalogPaths, err := fs.Glob(fsys, "catalogs/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob catalog sources: %w", err)
	}
	if len(catalogPaths) == 0 {
		return nil, &LoadError{Source: "catalogs", Reason: "no catalog sources found"}
	}
	colorPaths, err := fs.Glob(fsys, "colors/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob color sources: %w", err)
	}
	sort.Strings(catalogPaths)
	sort.Strings(colorPaths)

	sources := make([]Source, 0, len(catalogPaths)+len(colorPaths))
	for _, p := range catalogPaths {
		sources = append(sources, Source{Name: p, Kind: KindCatalog})
	}
	for _, p := range colorPaths {
		sources = append(sources, Source{Name: p, Kind: KindColors})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, sources[i].Name)
			if err != nil {
				return fmt.Errorf("read %s: %w", path.Clean(sources[i].Name), err)
			}
			sources[i].Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Load(sources)
}
