package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gravitrone/lectern/internal/api"
	"github.com/gravitrone/lectern/internal/config"
)

// RunInteractiveLogin prompts for a server and API key, verifies both against
// the server, and persists config.
func RunInteractiveLogin(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	def := (*config.Config)(nil).Server()
	fmt.Fprintf(out, "server url [%s]: ", def)
	server, _ := reader.ReadString('\n')
	server = strings.TrimSpace(server)
	if server == "" {
		server = def
	}

	fmt.Fprint(out, "api key: ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("api key is required")
	}

	client := api.NewClient(server, apiKey, 10*time.Second)
	if _, err := client.Health(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	courses, err := client.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cfg := &config.Config{
		ServerURL: client.BaseURL(),
		APIKey:    apiKey,
		Theme:     "dark",
		VimKeys:   true,
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(out, "logged in to %s (%d courses)\n", client.BaseURL(), len(courses))
	fmt.Fprintf(out, "config saved to %s\n", config.Path())
	return nil
}

// LoginCmd returns the `lectern login` command.
func LoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Connect to a course content server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunInteractiveLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
