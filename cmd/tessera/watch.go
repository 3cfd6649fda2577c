package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chazu/tessera/pkg/config"
	"github.com/chazu/tessera/pkg/metrics"
	"github.com/chazu/tessera/pkg/solver"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// reloadDelay coalesces the burst of events editors emit on save.
const reloadDelay = 200 * time.Millisecond

func newWatchCmd(gf *globalFlags) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-solve whenever the catalog file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, gf)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			rec, err := metrics.New(reg)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, reg, log)
				defer srv.Close()
			}
			return watch(ctx, cfg, rec, log)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "addr", addr, "err", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return srv
}

// watch solves once, then again after every change to the catalog file,
// until ctx is done. Failures are logged; the watch keeps going.
func watch(ctx context.Context, cfg config.Config, rec *metrics.Recorder, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors often replace the file on save.
	target := filepath.Clean(cfg.Catalog.Path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	attempt := func() {
		cat, _, err := loadCatalog(cfg, log)
		if err != nil {
			log.Error("catalog", "err", err)
			return
		}
		s, res, err := solve(ctx, cfg, cat, log, solver.WithRecorder(rec))
		if err != nil {
			log.Error("solve failed", "err", err, "steps", res.Steps, "restarts", res.Restarts)
			return
		}
		log.Info("solved", "generation", s.Generation(), "components", res.Components,
			"steps", res.Steps, "restarts", res.Restarts)
	}
	attempt()

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("catalog changed", "op", ev.Op.String())
			timer.Reset(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher", "err", err)
		case <-timer.C:
			attempt()
		}
	}
}
