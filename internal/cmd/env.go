package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gravitrone/lectern/internal/api"
	"github.com/gravitrone/lectern/internal/config"
	"github.com/gravitrone/lectern/internal/logger"
)

// loadClient reads the config and builds a client for the configured server.
func loadClient() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("not logged in: %w", err)
	}
	return cfg, api.NewClient(cfg.Server(), cfg.APIKey), nil
}

// NewLogger builds the logger described by cfg. Output always goes to a file
// so it never interleaves with terminal output.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	mode, path := "development", ""
	if cfg != nil {
		if m := strings.TrimSpace(cfg.LogMode); m != "" {
			mode = m
		}
		path = cfg.LogFile
	}
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(config.Dir(), "lectern.log")
	}
	return logger.New(mode, path)
}
