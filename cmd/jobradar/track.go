package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freese/jobradar/internal/model"
	"github.com/freese/jobradar/internal/store"
)

var (
	trackStatus      string
	trackDraftFile   string
	trackSources     string
	trackDuplicateOf string
)

var trackCmd = &cobra.Command{
	Use:   "track <external-id>",
	Short: "Update application-tracking fields for a listing",
	Long:  "Patches only the supplied fields. Use this to record a drafted or sent application, the sources used while drafting, or a duplicate flag.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackStatus, "status", "", "application status, e.g. draft or sent")
	trackCmd.Flags().StringVar(&trackDraftFile, "draft", "", "path to a draft file to attach")
	trackCmd.Flags().StringVar(&trackSources, "sources", "", "sources used while drafting")
	trackCmd.Flags().StringVar(&trackDuplicateOf, "duplicate-of", "", "external id of the listing this duplicates")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	var patch store.ApplicationPatch
	if cmd.Flags().Changed("status") {
		patch.Status = &trackStatus
	}
	if cmd.Flags().Changed("sources") {
		patch.Sources = &trackSources
	}
	if cmd.Flags().Changed("duplicate-of") {
		patch.DuplicateOf = &trackDuplicateOf
	}
	if cmd.Flags().Changed("draft") {
		data, err := os.ReadFile(trackDraftFile)
		if err != nil {
			return fmt.Errorf("read draft: %w", err)
		}
		draft := string(data)
		patch.Draft = &draft
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpdateApplication(id, patch); err != nil {
		return err
	}

	l, err := st.Get(id)
	if err != nil {
		return err
	}
	fmt.Printf("%s — %s (%s)\n", l.ExternalID, l.Title, l.Employer)
	if l.ApplicationStatus != "" {
		fmt.Printf("  application: %s\n", l.ApplicationStatus)
	}
	if url := model.ListingURL(l.ExternalID, l.Source); url != "" {
		fmt.Printf("  %s\n", url)
	}
	return nil
}
