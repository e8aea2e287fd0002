package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/model"
	"github.com/freese/jobradar/internal/store"
)

var (
	jobsProfile    string
	jobsStatus     string
	jobsMinScore   int
	jobsDuplicates bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored listings, best fit first",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsProfile, "profile", "", "only this search profile (candidate_profile key)")
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by lifecycle status (active, presumably_filled)")
	jobsCmd.Flags().IntVar(&jobsMinScore, "min-score", 0, "minimum fit score (1-5)")
	jobsCmd.Flags().BoolVar(&jobsDuplicates, "duplicates", false, "include listings flagged as duplicates")
	rootCmd.AddCommand(jobsCmd)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	goodFitStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	okFitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	poorFitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	filledStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score == 0:
		return dimStyle
	case score >= 4:
		return goodFitStyle
	case score >= 3:
		return okFitStyle
	default:
		return poorFitStyle
	}
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	listings, err := st.List(store.ListFilter{
		SearchProfile:  jobsProfile,
		Status:         model.Status(jobsStatus),
		MinFitScore:    jobsMinScore,
		HideDuplicates: !jobsDuplicates,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\n%s\n\n", headerStyle.Render(fmt.Sprintf("%d listing(s)", len(listings))))
	fmt.Fprintf(os.Stdout, "%s\n", headerStyle.Render(fmt.Sprintf(
		"%-10s  %-40s  %-25s  %-14s  %-8s  %5s  %-10s",
		"id", "title", "employer", "location", "remote", "score", "fetched",
	)))

	for _, l := range listings {
		row := fmt.Sprintf("%-10s  %-40s  %-25s  %-14s  %-8s  %5s  %-10s",
			tail(l.ExternalID, 10),
			trunc(l.Title, 40),
			trunc(l.Employer, 25),
			trunc(l.Location, 14),
			l.Remote,
			scoreLabel(l.FitScore),
			l.FetchedAt.Format("2006-01-02"),
		)
		style := scoreStyle(l.FitScore)
		if l.Status == model.StatusPresumablyFilled {
			style = filledStyle
		}
		fmt.Fprintln(os.Stdout, style.Render(row))
	}

	return nil
}

func trunc(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func tail(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

func scoreLabel(score int) string {
	if score == 0 {
		return ""
	}
	return fmt.Sprintf("%d", score)
}
