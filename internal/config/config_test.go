package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "pinvault.db", c.DatabasePath)
	assert.Equal(t, 5*time.Minute, c.AutoLockAfter)
	assert.Equal(t, 15*time.Second, c.AutoLockCheckInterval)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "pinvault.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Minute, cfg.AutoLockAfter)
}

func TestLockFilePath(t *testing.T) {
	c := Config{DatabasePath: "/tmp/vault.db"}
	assert.Equal(t, "/tmp/vault.db.lock", c.LockFilePath())
}
