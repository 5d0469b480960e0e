package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvAPIKey, "")
	return dir
}

func writeRaw(t *testing.T, home, body string) {
	t.Helper()
	cfgDir := filepath.Join(home, ".lectern")
	require.NoError(t, os.MkdirAll(cfgDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config"), []byte(body), 0600))
}

func TestSaveConfigCreatesDirectories(t *testing.T) {
	withHome(t)

	cfg := Config{APIKey: "test-key"}
	require.NoError(t, cfg.Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadConfigNonExistent(t *testing.T) {
	withHome(t)

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoadRoundtripWithAllFields(t *testing.T) {
	withHome(t)

	original := Config{
		ServerURL:    "https://courses.example.com",
		APIKey:       "lct_verylongkeystring12345",
		MediaBaseURL: "https://cdn.example.com",
		LogMode:      "production",
		LogFile:      "/tmp/lectern.log",
		JournalPath:  "/tmp/drafts.db",
		Theme:        "dark",
		VimKeys:      true,
	}
	require.NoError(t, original.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, original, *loaded)
}

func TestSaveConfigOverwritesExisting(t *testing.T) {
	withHome(t)

	require.NoError(t, (&Config{APIKey: "key1"}).Save())
	require.NoError(t, (&Config{APIKey: "key2"}).Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key2", loaded.APIKey)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	home := withHome(t)
	writeRaw(t, home, "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	home := withHome(t)
	writeRaw(t, home, "invalid: yaml: content:")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	home := withHome(t)
	writeRaw(t, home, "server_url: http://localhost:9000\n")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestConfigPermissionsStrictlyEnforced(t *testing.T) {
	withHome(t)

	require.NoError(t, (&Config{APIKey: "secret"}).Save())
	require.NoError(t, os.Chmod(Path(), 0644))

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")

	// saving again tightens the mode
	require.NoError(t, (&Config{APIKey: "secret"}).Save())
	_, err = Load()
	assert.NoError(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	home := withHome(t)
	writeRaw(t, home, "server_url: http://file\napi_key: from-file\n")

	t.Setenv(EnvServerURL, "http://env:8420")
	t.Setenv(EnvAPIKey, "from-env")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env:8420", loaded.ServerURL)
	assert.Equal(t, "from-env", loaded.APIKey)
}

func TestEnvironmentSuppliesMissingAPIKey(t *testing.T) {
	home := withHome(t)
	writeRaw(t, home, "server_url: http://file\n")
	t.Setenv(EnvAPIKey, "from-env")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.APIKey)
}

func TestDerivedSettings(t *testing.T) {
	home := withHome(t)

	var missing *Config
	assert.Equal(t, DefaultServerURL, missing.Server())
	assert.Equal(t, DefaultServerURL, missing.Media())
	assert.Equal(t, filepath.Join(home, ".lectern", "drafts.db"), missing.Journal())

	cfg := &Config{ServerURL: "http://api.local/", MediaBaseURL: "https://cdn.local/"}
	assert.Equal(t, "http://api.local", cfg.Server())
	assert.Equal(t, "https://cdn.local", cfg.Media())

	cfg.MediaBaseURL = ""
	assert.Equal(t, "http://api.local", cfg.Media())

	t.Setenv(EnvServerURL, "http://env")
	assert.Equal(t, "http://env", (&Config{}).Server())
}

func TestPathReturnsCorrectLocation(t *testing.T) {
	path := Path()
	assert.Contains(t, path, ".lectern")
	assert.Contains(t, path, "config")
}
