package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gravitrone/lectern/internal/config"
	"github.com/gravitrone/lectern/internal/journal"
)

// DraftsCmd returns the `lectern drafts` command group for autosaved work.
func DraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage autosaved unsaved drafts",
	}
	cmd.AddCommand(draftsListCmd())
	cmd.AddCommand(draftsClearCmd())
	return cmd
}

func openJournal(cmd *cobra.Command) (*journal.Journal, error) {
	cfg, _ := config.Load()
	j, err := journal.Open(cmd.Context(), cfg.Journal())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

func draftsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List courses with autosaved drafts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no drafts found")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "  %s  saved %s\n", e.CourseID, e.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func draftsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <course-id>",
		Short: "Drop the autosaved draft of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			if err := j.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "draft cleared")
			return nil
		},
	}
}
