package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is used when neither the file nor the environment names a server.
	DefaultServerURL = "http://localhost:8420"

	EnvServerURL = "LECTERN_SERVER_URL"
	EnvAPIKey    = "LECTERN_API_KEY"
)

// Config holds CLI configuration stored at ~/.lectern/config.
type Config struct {
	ServerURL    string `yaml:"server_url"`
	APIKey       string `yaml:"api_key"`
	MediaBaseURL string `yaml:"media_base_url,omitempty"`
	LogMode      string `yaml:"log_mode,omitempty"`
	LogFile      string `yaml:"log_file,omitempty"`
	JournalPath  string `yaml:"journal_path,omitempty"`
	Theme        string `yaml:"theme,omitempty"`
	VimKeys      bool   `yaml:"vim_keys,omitempty"`
}

// Dir returns the directory holding the config, journal and log.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lectern")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config")
}

// Load reads and parses the config file, then applies environment overrides.
// Returns error if missing or insecure.
func Load() (*Config, error) {
	path := Path()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config not found: %w", err)
	}

	perm := info.Mode().Perm()
	if perm != 0600 {
		return nil, fmt.Errorf("config permissions too open: %04o (want 0600)", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("config missing api_key")
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.APIKey = v
	}
}

// Server returns the configured server URL or the default.
func (c *Config) Server() string {
	if c == nil || strings.TrimSpace(c.ServerURL) == "" {
		if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
			return v
		}
		return DefaultServerURL
	}
	return strings.TrimRight(c.ServerURL, "/")
}

// Media returns the base URL stable media links are built from. It falls back
// to the server URL.
func (c *Config) Media() string {
	if c != nil && strings.TrimSpace(c.MediaBaseURL) != "" {
		return strings.TrimRight(c.MediaBaseURL, "/")
	}
	return c.Server()
}

// Journal returns the sqlite path for unsaved drafts.
func (c *Config) Journal() string {
	if c != nil && strings.TrimSpace(c.JournalPath) != "" {
		return c.JournalPath
	}
	return filepath.Join(Dir(), "drafts.db")
}

// Save writes the config to disk with secure permissions.
func (c *Config) Save() error {
	path := Path()
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(path, 0600)
}
