package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/config"
	"github.com/freese/jobradar/internal/enrich"
	"github.com/freese/jobradar/internal/model"
	"github.com/freese/jobradar/internal/pipeline"
	"github.com/freese/jobradar/internal/source"
	"github.com/freese/jobradar/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobradar",
	Short: "Job radar — personal job-search aggregator",
	Long:  "jobradar polls job-listing sources, filters by profile rules, enriches matches via Claude, and keeps everything in a local SQLite database.",
	// Default to `run` so a bare `jobradar` in a crontab runs one cycle.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBRADAR_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBRADAR_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupAnalyzer(cfg *config.Config, noLLM bool, logger *slog.Logger) model.Analyzer {
	if noLLM || !cfg.AI.Enabled {
		logger.Info("enrichment disabled, listings will be stored with raw fields only")
		return enrich.NewNopAnalyzer()
	}
	provider := enrich.NewClaudeProvider(cfg.AnthropicAPIKey, cfg.AI)
	return enrich.NewAnalyzer(provider, logger)
}

func buildSources(cfg *config.Config, logger *slog.Logger) []source.Source {
	return []source.Source{
		source.NewArbeitsagentur(cfg.Sources.Arbeitsagentur, logger),
		source.NewArbeitnow(cfg.Sources.Arbeitnow, logger),
	}
}

func buildRunner(cfg *config.Config, st *store.Store, noLLM bool, logger *slog.Logger) *pipeline.Runner {
	return pipeline.NewRunner(st, buildSources(cfg, logger), setupAnalyzer(cfg, noLLM, logger), logger)
}

// filterCandidates narrows the configured candidates to the given names
// (case-insensitive). An empty filter keeps everyone.
func filterCandidates(candidates []config.CandidateProfile, names []string) []config.CandidateProfile {
	if len(names) == 0 {
		return candidates
	}
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[strings.ToLower(n)] = struct{}{}
	}
	var out []config.CandidateProfile
	for _, c := range candidates {
		if _, ok := allowed[strings.ToLower(c.Name)]; ok {
			out = append(out, c)
		}
	}
	return out
}
