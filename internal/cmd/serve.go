package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gravitrone/lectern/internal/devserver"
	"github.com/gravitrone/lectern/internal/logger"
)

// ServeCmd returns the `lectern serve` command.
func ServeCmd() *cobra.Command {
	var (
		addr    string
		apiKey  string
		noSeed  bool
		logMode string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory content server for local authoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(logMode, "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			srv := devserver.New(devserver.Options{APIKey: apiKey, Logger: log})
			if !noSeed {
				id := srv.SeedDemo()
				fmt.Fprintf(cmd.OutOrStdout(), "demo course: %s\n", id)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8420", "listen address")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "require this bearer key on /api routes")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "start without the demo course")
	cmd.Flags().StringVar(&logMode, "log-mode", "development", "development or production")
	return cmd
}
