package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mipexport/internal/exporter"
	"mipexport/internal/history"
	"mipexport/internal/logging"
)

type exportOverrides struct {
	workers int
	verify  bool
}

func runExport(cmd *cobra.Command, ctx *commandContext, overrides exportOverrides) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("workers") {
		if overrides.workers < 1 {
			return errors.New("--workers must be at least 1")
		}
		cfg.Export.Workers = overrides.workers
	}
	if overrides.verify {
		cfg.Export.Verify = true
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var opts []exporter.Option
	if cfg.History.Enabled {
		store := history.NewLazy(cfg.HistoryPath())
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("history close failed", "error", err)
			}
		}()
		opts = append(opts, exporter.WithRecorder(store))
	}

	exp, err := exporter.NewFromConfig(cfg, logger, ctx.executor, opts...)
	if err != nil {
		return err
	}
	result, err := exp.Run(signalCtx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s (%d levels)\n", result.Stitched, len(result.Levels))
	if result.Published != "" {
		fmt.Fprintf(out, "Published %s\n", result.Published)
	}
	return nil
}
