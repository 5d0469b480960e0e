package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gravitrone/lectern/internal/api"
	"github.com/gravitrone/lectern/internal/cmd"
	"github.com/gravitrone/lectern/internal/config"
	"github.com/gravitrone/lectern/internal/journal"
	"github.com/gravitrone/lectern/internal/logger"
	"github.com/gravitrone/lectern/internal/ui"
)

func main() {
	root := &cobra.Command{
		Use:   "lectern [course-id]",
		Short: "Lectern - course authoring drafts",
		Long:  "Lectern CLI: edit courses offline as drafts, then save or publish them to the content server in one go.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			courseID := ""
			if len(args) == 1 {
				courseID = args[0]
			}
			return runTUI(courseID)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(cmd.LoginCmd())
	root.AddCommand(cmd.CourseCmd())
	root.AddCommand(cmd.DraftsCmd())
	root.AddCommand(cmd.ServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Force truecolor so hex colors render correctly
	// Must be set before any lipgloss style initialization
	os.Setenv("COLORTERM", "truecolor")
}

func runTUI(courseID string) error {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !isInteractiveTerminal(os.Stdin) || !isInteractiveTerminal(os.Stdout) {
				fmt.Println("not logged in. run 'lectern login' first.")
				return err
			}
			cfg = nil
		} else {
			return err
		}
	}

	log, err := cmd.NewLogger(cfg)
	if err != nil {
		log = logger.Nop()
	}
	defer log.Sync()

	apiKey := ""
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	opts := ui.Options{
		Backend:  api.NewClient(cfg.Server(), apiKey),
		Config:   cfg,
		Logger:   log,
		Media:    api.Media(cfg.Media()),
		CourseID: courseID,
	}

	j, err := journal.Open(context.Background(), cfg.Journal())
	if err != nil {
		log.Warn("draft journal unavailable", "error", err)
	} else {
		defer j.Close()
		opts.Journal = j
	}

	p := tea.NewProgram(ui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func isInteractiveTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
