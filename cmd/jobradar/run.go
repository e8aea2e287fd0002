package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/store"
)

var (
	noLLM      bool
	candidates []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pipeline cycle and exit",
	Long:  "Fetches all sources for every enabled (candidate, search-profile) pair, reconciles the results into the database, and exits.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip enrichment (fetch and filter only, no API key needed)")
	runCmd.Flags().StringSliceVar(&candidates, "candidate", nil, "only run these candidates (default: all)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	cands := filterCandidates(cfg.Candidates, candidates)
	if len(cands) == 0 {
		logger.Error("no matching candidates", "filter", candidates)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := buildRunner(cfg, st, noLLM, logger)
	if err := runner.Run(ctx, cands); err != nil {
		logger.Error("pipeline aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("pipeline complete")
	return nil
}
