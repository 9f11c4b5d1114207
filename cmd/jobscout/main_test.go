package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	cfg, err := loadConfigFile("")
	require.NoError(t, err)
	assert.Zero(t, cfg)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ledger_path": "/tmp/l.db", "max_pages": 4}`), 0o644))

	cfg, err = loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/l.db", cfg.LedgerPath)
	assert.Equal(t, 4, cfg.MaxPages)

	_, err = loadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	expected := []string{"acquire", "check", "assemble", "transition", "runs", "packages"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		assert.True(t, registered[name], "command %s not registered", name)
	}
}

func TestAcquireRequiredFlags(t *testing.T) {
	for _, flag := range []string{"search", "candidate"} {
		f := acquireCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
	}
}
