package promptctl

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/core/parse"
	"github.com/spf13/cobra"
)

type parseOptions struct {
	locales   []string
	highlight bool
	asJSON    bool
}

func (a *app) parseCommand() *cobra.Command {
	var opts parseOptions
	cmd := &cobra.Command{
		Use:   "parse [text...]",
		Short: "Map prompt text back onto slot values",
		Long: `Parse splits prompt text on commas, resolves each phrase against the
catalogs and reports matches, unmatched phrases and a confidence ratio.
With no arguments, or "-", the text is read from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runParse(cmd, args, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.locales, "locales", nil, "restrict matching to these locales")
	cmd.Flags().BoolVar(&opts.highlight, "highlight", false, "print the text with matched and unmatched spans styled")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the parse result as JSON")
	return cmd
}

func (a *app) runParse(cmd *cobra.Command, args []string, opts parseOptions) error {
	text := strings.Join(args, " ")
	if len(args) == 0 || text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	locales := locale.ParseList(opts.locales)
	if len(opts.locales) > 0 && len(locales) == 0 {
		return fmt.Errorf("no supported locales in %v", opts.locales)
	}

	eng, _, err := a.engine(cmd.Context())
	if err != nil {
		return err
	}
	out, err := eng.Parse(cmd.Context(), nil, text, parse.Options{Locales: locales})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Result)
	}
	if opts.highlight {
		fmt.Fprintln(w, highlight(lipgloss.NewRenderer(w), text, out.Result))
	}
	return writeParseTable(w, out.Result)
}

func writeParseTable(w io.Writer, res parse.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tVALUE\tCOLOR\tWEIGHT\tTEXT")
	for _, m := range res.Matches {
		color := m.Color
		if color == "" {
			color = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", m.Slot, m.ItemID, color, m.Weight, m.Span.Text)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, span := range res.Unmatched {
		fmt.Fprintf(w, "unmatched: %s\n", span.Text)
	}
	_, err := fmt.Fprintf(w, "confidence: %.2f\n", res.Confidence)
	return err
}

type styledSpan struct {
	span  parse.Span
	style lipgloss.Style
}

// highlight renders text with every reported span styled by kind. Offsets
// are rune offsets.
func highlight(r *lipgloss.Renderer, text string, res parse.Result) string {
	matched := r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	unmatched := r.NewStyle().Foreground(lipgloss.Color("9")).Underline(true)
	ignored := r.NewStyle().Faint(true)

	spans := make([]styledSpan, 0, len(res.Matches)+len(res.Unmatched)+len(res.Ignored))
	for _, m := range res.Matches {
		spans = append(spans, styledSpan{span: m.Span, style: matched})
	}
	for _, s := range res.Unmatched {
		spans = append(spans, styledSpan{span: s, style: unmatched})
	}
	for _, s := range res.Ignored {
		spans = append(spans, styledSpan{span: s, style: ignored})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].span.Start < spans[j].span.Start })

	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		start, end := s.span.Start, s.span.End
		if start < pos || end > len(runes) || start > end {
			continue
		}
		b.WriteString(string(runes[pos:start]))
		b.WriteString(s.style.Render(string(runes[start:end])))
		pos = end
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}
