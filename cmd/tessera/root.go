package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/config"
	"github.com/chazu/tessera/pkg/engine"
	"github.com/chazu/tessera/pkg/kernel/sdfx"
	"github.com/chazu/tessera/pkg/logging"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	catalogPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var gf globalFlags
	root := &cobra.Command{
		Use:           "tessera",
		Short:         "Wave-function-collapse solver for 3-D tiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&gf.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&gf.catalogPath, "catalog", "", "tile catalog source (overrides catalog.path)")
	root.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")

	root.AddCommand(newRunCmd(&gf), newFingerprintsCmd(&gf), newWatchCmd(&gf))
	return root
}

// setup loads the config, applies flag overrides and builds a logger
// writing to the command's error stream.
func setup(cmd *cobra.Command, gf *globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if gf.catalogPath != "" {
		cfg.Catalog.Path = gf.catalogPath
	}
	if gf.logLevel != "" {
		cfg.Log.Level = gf.logLevel
	}
	if cfg.Catalog.Path == "" {
		return config.Config{}, nil, fmt.Errorf("no catalog: pass --catalog or set catalog.path")
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// loadCatalog evaluates the catalog file and logs its warnings.
func loadCatalog(cfg config.Config, log *slog.Logger) (*catalog.Catalog, []catalog.Warning, error) {
	src, err := os.ReadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog: %w", err)
	}
	eng := engine.NewEngine(sdfx.New(), engine.WithDetail(cfg.Catalog.Detail))
	cat, warnings, err := eng.Load(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfg.Catalog.Path, err)
	}
	for _, w := range warnings {
		log.Warn("catalog", "tile", w.Tile, "warning", w.Message)
	}
	log.Info("catalog loaded", "path", cfg.Catalog.Path, "models", cat.Len())
	return cat, warnings, nil
}
