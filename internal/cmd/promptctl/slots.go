package promptctl

import (
	"fmt"
	"strings"
	"text/tabwriter"

	i18ncatalog "github.com/louisbranch/promptforge/internal/platform/i18n/catalog"
	"github.com/spf13/cobra"
)

func (a *app) slotsCommand() *cobra.Command {
	var uiLocale string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List slots by section with labels and item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, settings, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			bundle := i18ncatalog.Default()
			ui := uiLocale
			if strings.TrimSpace(ui) == "" {
				ui = string(settings.Locale)
			}
			ui = bundle.Match(ui)

			listing := eng.Slots(settings.Locale)
			counts := make(map[string]int, len(listing.Slots))
			for _, view := range listing.Slots {
				counts[view.Name] = len(view.Options)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, section := range eng.Registry().Sections() {
				fmt.Fprintf(tw, "%s\n", bundle.Label(ui, "studio.section."+string(section), string(section)))
				for _, def := range eng.Registry().InSection(section) {
					color := ""
					if def.HasColor {
						color = "color"
					}
					label := bundle.Label(ui, "studio.slot."+def.Name, def.Name)
					fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n", def.Name, label, counts[def.Name], color)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&uiLocale, "ui", "", "label language (defaults to the prompt locale)")
	return cmd
}
