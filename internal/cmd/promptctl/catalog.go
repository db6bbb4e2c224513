package promptctl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/promptforge/internal/content"
	"github.com/louisbranch/promptforge/internal/core/catalog"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/slot"
	"github.com/spf13/cobra"
)

func (a *app) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect catalog content",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [dir]",
		Short: "Load a content directory and report problems",
		Long: `Check loads catalogs/*.json and colors/*.json from dir (or the configured
content directory, or the bundled content) and reports slots without items,
items missing a localized name, and palettes mapping unknown categories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.settings()
			if err != nil {
				return err
			}
			dir := settings.ContentDir
			if len(args) == 1 {
				dir = args[0]
			}
			ix, err := catalog.LoadFS(cmd.Context(), content.Open(dir))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			problems := checkIndex(ix, slot.Default())
			for _, problem := range problems {
				fmt.Fprintf(w, "problem: %s\n", problem)
			}
			if len(problems) > 0 {
				return fmt.Errorf("catalog check found %d problems", len(problems))
			}
			items := 0
			for _, ref := range ix.CatalogRefs() {
				c, _ := ix.Catalog(ref)
				items += c.Len()
			}
			fmt.Fprintf(w, "ok: %d catalogs, %d items, %d colors, %d palettes\n",
				len(ix.CatalogRefs()), items, len(ix.Colors()), len(ix.Palettes()))
			return nil
		},
	})
	return cmd
}

// checkIndex lists content problems that loading alone does not reject.
func checkIndex(ix *catalog.Index, registry *slot.Registry) []string {
	var problems []string
	categories := map[string]bool{}
	// Names shared across slots render identical tokens, and the parser can
	// only map such a token back to one of them.
	owners := map[locale.Locale]map[string]string{}
	for _, def := range registry.Definitions() {
		if def.HasColor {
			categories[def.ColorCategory] = true
		}
		c, ok := ix.Catalog(def.CatalogRef)
		if !ok || c.Len() == 0 {
			problems = append(problems, fmt.Sprintf("slot %s: no items in catalog %q", def.Name, def.CatalogRef))
			continue
		}
		for _, item := range c.Items() {
			for _, loc := range locale.Supported() {
				name, ok := item.Names[loc]
				if !ok {
					problems = append(problems, fmt.Sprintf("slot %s: item %s has no %s name", def.Name, item.ID, loc))
					continue
				}
				if owners[loc] == nil {
					owners[loc] = map[string]string{}
				}
				key := strings.ToLower(strings.Join(strings.Fields(name), " "))
				owner, taken := owners[loc][key]
				switch {
				case !taken:
					owners[loc][key] = def.Name + "/" + item.ID
				case !strings.HasPrefix(owner, def.Name+"/"):
					problems = append(problems, fmt.Sprintf("slot %s: item %s %s name %q collides with %s", def.Name, item.ID, loc, name, owner))
				}
			}
		}
	}
	for _, p := range ix.Palettes() {
		names := make([]string, 0, len(p.CategoryColors))
		for category := range p.CategoryColors {
			names = append(names, category)
		}
		sort.Strings(names)
		for _, category := range names {
			if !categories[category] {
				problems = append(problems, fmt.Sprintf("palette %s: unknown category %q", p.ID, category))
			}
		}
	}
	return problems
}
