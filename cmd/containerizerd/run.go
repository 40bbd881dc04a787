package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cuemby/containerizer/pkg/cgroup"
	"github.com/cuemby/containerizer/pkg/checkpoint"
	"github.com/cuemby/containerizer/pkg/config"
	"github.com/cuemby/containerizer/pkg/containerizer"
	"github.com/cuemby/containerizer/pkg/engine"
	"github.com/cuemby/containerizer/pkg/log"
	"github.com/cuemby/containerizer/pkg/usage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the containerizer agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})
		logger := log.WithComponent("containerizerd")

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		store, err := checkpoint.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open checkpoint store: %w", err)
		}
		defer store.Close()

		probe, err := usage.NewProcProbe()
		if err != nil {
			logger.Warn().Err(err).Msg("usage probe unavailable on this platform")
		}

		mgr := containerizer.New(containerizer.Config{
			Engine:     engine.NewCLIClient(cfg.EngineBin),
			Cgroups:    cgroup.NewController(),
			Checkpoint: store,
			Probe:      probe,
			Prefix:     cfg.NamePrefix,
			SlaveID:    cfg.SlaveID,
			EngineBin:  cfg.EngineBin,
		})
		defer mgr.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Recovery reads persisted run state through a separate,
		// agent-owned snapshot; this daemon has no such upstream wired
		// yet, so it recovers against an empty snapshot, which still
		// performs phase 2 orphan reconciliation against the engine.
		if err := mgr.Recover(ctx, nil); err != nil {
			return fmt.Errorf("recover: %w", err)
		}
		logger.Info().Msg("recovery complete")

		if cfg.MetricsAddr != "" {
			reg := prometheus.NewRegistry()
			for _, c := range mgr.MetricsCollectors() {
				reg.MustRegister(c)
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error().Err(err).Msg("metrics server failed")
				}
			}()
			defer srv.Close()
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info().Msg("shutting down")
		return nil
	},
}
