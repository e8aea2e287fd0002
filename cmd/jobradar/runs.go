package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/model"
	"github.com/freese/jobradar/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(runsLimit)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s\n", headerStyle.Render(fmt.Sprintf(
		"%4s  %-24s  %-19s  %-8s  %7s  %4s  %4s  %4s  %4s",
		"id", "profile", "started", "status", "fetched", "new", "upd", "skip", "fail",
	)))

	for _, r := range runs {
		row := fmt.Sprintf("%4d  %-24s  %-19s  %-8s  %7d  %4d  %4d  %4d  %4d",
			r.ID,
			trunc(r.SearchProfile, 24),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			r.Counts.Fetched, r.Counts.New, r.Counts.Updated, r.Counts.Skipped, r.Counts.Failed,
		)
		switch r.Status {
		case model.RunError:
			fmt.Fprintln(os.Stdout, poorFitStyle.Render(row))
			if r.ErrorMsg != "" {
				fmt.Fprintln(os.Stdout, dimStyle.Render("      "+trunc(r.ErrorMsg, 90)))
			}
		case model.RunRunning:
			fmt.Fprintln(os.Stdout, dimStyle.Render(row))
		default:
			fmt.Fprintln(os.Stdout, row)
		}
	}

	return nil
}
