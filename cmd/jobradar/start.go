package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/scheduler"
	"github.com/freese/jobradar/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pipeline daemon",
	Long:  "Runs one immediate cycle, then repeats on the configured schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip enrichment (fetch and filter only, no API key needed)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"candidates", len(cfg.Candidates),
		"ai_enabled", cfg.AI.Enabled,
	)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	runner := buildRunner(cfg, st, noLLM, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(cfg.Schedule, func(ctx context.Context) {
		if err := runner.Run(ctx, cfg.Candidates); err != nil {
			logger.Error("pipeline cycle aborted", "error", err)
		}
	}, logger)

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
