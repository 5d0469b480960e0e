package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunTUIMissingConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", dir)
	defer os.Setenv("HOME", oldHome)

	err := runTUI("")
	assert.Error(t, err)
}

func TestRunTUIInsecureConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", dir)
	defer os.Setenv("HOME", oldHome)

	assert.NoError(t, os.MkdirAll(dir+"/.lectern", 0o700))
	assert.NoError(t, os.WriteFile(dir+"/.lectern/config", []byte("api_key: lct_x\n"), 0o644))

	err := runTUI("crs_1")
	assert.ErrorContains(t, err, "permissions too open")
}

func TestMainHelpFlagDoesNotExit(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"lectern", "--help"}
	defer func() { os.Args = oldArgs }()

	// main() should return normally for help (no os.Exit).
	main()
}
