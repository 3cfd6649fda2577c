package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/config"
	"github.com/chazu/tessera/pkg/export"
	"github.com/chazu/tessera/pkg/runner"
	"github.com/chazu/tessera/pkg/solver"
	"github.com/chazu/tessera/pkg/tessellate"
	"github.com/spf13/cobra"
)

type runFlags struct {
	seed   uint64
	out    string
	obj    string
	width  int
	height int
	depth  int
}

func newRunCmd(gf *globalFlags) *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve one grid and write it as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, gf)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, &cfg, rf)
			if err := cfg.Validate(); err != nil {
				return err
			}
			cat, _, err := loadCatalog(cfg, log)
			if err != nil {
				return err
			}

			s, _, err := solve(cmd.Context(), cfg, cat, log)
			if err != nil {
				return err
			}
			return writeOutputs(cmd.OutOrStdout(), rf, s)
		},
	}
	cmd.Flags().Uint64Var(&rf.seed, "seed", 0, "random seed (overrides solver.seed)")
	cmd.Flags().StringVarP(&rf.out, "out", "o", "-", "YAML output path, - for stdout")
	cmd.Flags().StringVar(&rf.obj, "obj", "", "also write the tessellated grid as Wavefront OBJ")
	cmd.Flags().IntVar(&rf.width, "width", 0, "grid width (overrides grid.width)")
	cmd.Flags().IntVar(&rf.height, "height", 0, "grid height (overrides grid.height)")
	cmd.Flags().IntVar(&rf.depth, "depth", 0, "grid depth (overrides grid.depth)")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, rf runFlags) {
	if cmd.Flags().Changed("seed") {
		seed := rf.seed
		cfg.Solver.Seed = &seed
	}
	if cmd.Flags().Changed("width") {
		cfg.Grid.Width = rf.width
	}
	if cmd.Flags().Changed("height") {
		cfg.Grid.Height = rf.height
	}
	if cmd.Flags().Changed("depth") {
		cfg.Grid.Depth = rf.depth
	}
}

// solve runs one grid to completion under the configured limits.
func solve(ctx context.Context, cfg config.Config, cat *catalog.Catalog, log *slog.Logger, extra ...solver.Option) (*solver.Solver, runner.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := append(cfg.Solver.Options(), solver.WithLogger(log))
	s := solver.New(append(opts, extra...)...)
	if err := s.Start(cfg.Grid, cat, cfg.Solver.ZoneFunc()); err != nil {
		return nil, runner.Result{}, err
	}
	log.Info("solving", "dims", cfg.Grid, "seed", s.Seed())

	res, err := runner.Run(ctx, s, cfg.Run, log)
	if err != nil {
		return nil, res, fmt.Errorf("solve: %w", err)
	}
	return s, res, nil
}

func writeOutputs(stdout io.Writer, rf runFlags, s *solver.Solver) error {
	snap := s.Snapshot()
	doc := export.FromSnapshot(snap)

	if rf.out == "" || rf.out == "-" {
		if err := export.WriteYAML(stdout, doc); err != nil {
			return err
		}
	} else if err := writeFile(rf.out, func(w io.Writer) error { return export.WriteYAML(w, doc) }); err != nil {
		return err
	}

	if rf.obj != "" {
		meshes := tessellate.Tessellate(snap.Cells)
		if err := writeFile(rf.obj, func(w io.Writer) error { return export.WriteOBJ(w, meshes) }); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
