package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig_FlagTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaultNS: fromFlag\n"), 0o644))

	cfg, err := resolveConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fromFlag", cfg.DefaultNS.Value)
}

func TestResolveConfig_MissingFlagValueErrors(t *testing.T) {
	_, err := resolveConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestResolveConfig_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, "translation", cfg.DefaultNS.Value)
}
