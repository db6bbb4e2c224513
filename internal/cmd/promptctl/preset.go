package promptctl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/louisbranch/promptforge/internal/core/preset"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
	"github.com/spf13/cobra"
)

const presetListPageSize = 50

func (a *app) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved presets",
	}
	cmd.AddCommand(
		a.presetListCommand(),
		a.presetShowCommand(),
		a.presetExportCommand(),
		a.presetImportCommand(),
		a.presetDeleteCommand(),
	)
	return cmd
}

func (a *app) presetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLOCALE\tSLOTS\tUPDATED")
			token := ""
			for {
				page, err := store.ListPresets(ctx, presetListPageSize, token)
				if err != nil {
					return err
				}
				for _, p := range page.Presets {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.Name, p.Snapshot.Locale, len(p.Snapshot.Slots), p.UpdatedAt.Format(time.RFC3339))
				}
				if page.NextPageToken == "" {
					break
				}
				token = page.NextPageToken
			}
			return tw.Flush()
		},
	}
}

func (a *app) presetShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			p, err := store.GetPreset(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load preset %q: %w", args[0], err)
			}
			return preset.Encode(cmd.OutOrStdout(), preset.Format(format), p.Snapshot)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(preset.FormatYAML), "output format: json, toml or yaml")
	return cmd
}

func (a *app) presetExportCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a preset to a JSON, TOML or YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			f, err := resolveFormat(format, path)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			p, err := store.GetPreset(ctx, name)
			if err != nil {
				return fmt.Errorf("load preset %q: %w", name, err)
			}

			var buf bytes.Buffer
			if err := preset.Encode(&buf, f, p.Snapshot); err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", p.Name, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "file format (defaults to the file extension)")
	return cmd
}

func (a *app) presetImportCommand() *cobra.Command {
	var (
		format  string
		name    string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a preset file into the store",
		Long: `Import decodes a JSON, TOML or YAML preset, repairs it against the
catalogs and saves it. Values that no longer exist are dropped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := resolveFormat(format, path)
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			snap, err := preset.Decode(file, f)
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) != "" {
				snap.Name = name
			}

			ctx := cmd.Context()
			eng, _, err := a.engine(ctx)
			if err != nil {
				return err
			}
			snap, dropped := eng.ValidatePreset(snap)
			for _, d := range dropped {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped %s %s %q: %s\n", d.Slot, d.Field, d.Value, d.Reason)
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			p := storage.Preset{Name: snap.Name, Snapshot: snap}
			if replace {
				p, err = store.PutPreset(ctx, p)
			} else {
				err = store.CreatePreset(ctx, p)
			}
			if errors.Is(err, storage.ErrAlreadyExists) {
				return fmt.Errorf("preset %q already exists (use --replace)", snap.Name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", snap.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "file format (defaults to the file extension)")
	cmd.Flags().StringVar(&name, "name", "", "save under this name instead of the file's")
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite an existing preset")
	return cmd
}

func (a *app) presetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeletePreset(ctx, args[0]); err != nil {
				return fmt.Errorf("delete preset %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func resolveFormat(flag, path string) (preset.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return preset.Format(strings.ToLower(strings.TrimSpace(flag))), nil
	}
	return preset.FormatFromPath(path)
}
