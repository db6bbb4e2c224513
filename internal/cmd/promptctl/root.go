// Package promptctl implements the promptforge command-line tool.
//
// Settings resolve in the order flag, PROMPTFORGE_* environment, config
// file ($XDG_CONFIG_HOME/promptforge/config.toml), then built-in defaults.
package promptctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/louisbranch/promptforge/internal/content"
	"github.com/louisbranch/promptforge/internal/core/engine"
	"github.com/louisbranch/promptforge/internal/core/locale"
	"github.com/louisbranch/promptforge/internal/platform/timeouts"
	studiosqlite "github.com/louisbranch/promptforge/internal/services/studio/storage/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configRelPath = "promptforge/config.toml"
	dataRelDir    = "promptforge"
	envPrefix     = "PROMPTFORGE"
)

// Config keys shared by the config file, env and flags.
const (
	keyContentDir = "content_dir"
	keyDBPath     = "db_path"
	keyLocale     = "locale"
	keyPrefix     = "prefix"
	keyPalette    = "palette"
	keyColorMode  = "color_mode"
)

// Settings is the resolved CLI configuration.
type Settings struct {
	ContentDir string
	DBPath     string
	Locale     locale.Locale
	Prefix     string
	Palette    string
	ColorMode  string
}

type app struct {
	v       *viper.Viper
	cfgFile string
}

// Execute runs promptctl with args, writing to stdout and stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "promptctl",
		Short:         "Generate, parse and manage character prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/"+configRelPath+")")
	flags.String("content-dir", "", "catalog directory (empty uses bundled content)")
	flags.String("db-path", "", "preset database path")
	flags.String("locale", "", "prompt locale (en or zh)")
	flags.String("prefix", "", "prompt prefix")

	a.v.SetDefault(keyDBPath, filepath.Join(xdg.DataHome, dataRelDir, "presets.db"))
	a.v.SetDefault(keyLocale, string(locale.Default))
	a.v.SetDefault(keyPrefix, engine.DefaultPrefix)
	a.v.SetDefault(keyColorMode, "none")
	mustBindFlags(a.v, flags, map[string]string{
		keyContentDir: "content-dir",
		keyDBPath:     "db-path",
		keyLocale:     "locale",
		keyPrefix:     "prefix",
	})

	root.AddCommand(
		a.generateCommand(),
		a.parseCommand(),
		a.slotsCommand(),
		a.catalogCommand(),
		a.presetCommand(),
	)
	return root
}

// bindFlags binds each config key to the named flag.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %q to %q: %w", name, key, err)
		}
	}
	return nil
}

// mustBindFlags panics when a binding names a flag that was never defined.
func mustBindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) {
	if err := bindFlags(v, flags, bindings); err != nil {
		panic(err)
	}
}

func (a *app) initConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()
	a.v.SetConfigType("toml")

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
		return nil
	}
	path, err := xdg.SearchConfigFile(configRelPath)
	if err != nil {
		// No config file is fine.
		return nil
	}
	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (a *app) settings() (Settings, error) {
	raw := a.v.GetString(keyLocale)
	loc, ok := locale.Parse(raw)
	if !ok {
		return Settings{}, fmt.Errorf("unsupported locale %q", raw)
	}
	return Settings{
		ContentDir: a.v.GetString(keyContentDir),
		DBPath:     a.v.GetString(keyDBPath),
		Locale:     loc,
		Prefix:     a.v.GetString(keyPrefix),
		Palette:    a.v.GetString(keyPalette),
		ColorMode:  a.v.GetString(keyColorMode),
	}, nil
}

func (a *app) engine(ctx context.Context) (*engine.Engine, Settings, error) {
	settings, err := a.settings()
	if err != nil {
		return nil, Settings{}, err
	}
	eng, err := engine.Load(ctx, content.Open(settings.ContentDir))
	if err != nil {
		return nil, Settings{}, fmt.Errorf("load catalogs: %w", err)
	}
	return eng, settings, nil
}

func (a *app) openStore(ctx context.Context) (*studiosqlite.Store, error) {
	settings, err := a.settings()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(settings.DBPath) == "" {
		return nil, errors.New("db path is required")
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	defer cancel()
	store, err := studiosqlite.Open(ctx, settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open preset store: %w", err)
	}
	return store, nil
}
