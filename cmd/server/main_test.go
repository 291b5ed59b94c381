package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalconsole/internal/config"
)

func TestServeFlagsOverrideFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\nstore:\n  driver: mongo\n"), 0o600))
	t.Setenv("SERVED_POLICY", "rule")

	f := NewServeFlags()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	f.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--listen", ":7070", "--store", "memory", "--policy", "ltr"}))

	cfg, err := f.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, config.StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "ltr", string(cfg.DefaultPolicyKind()))
}

func TestServeFlagsRejectInvalidPolicy(t *testing.T) {
	f := NewServeFlags()
	f.ConfigPath = filepath.Join(t.TempDir(), "absent.yaml")
	f.ServedPolicy = "coinflip"
	_, err := f.LoadConfig()
	assert.Error(t, err)
}
