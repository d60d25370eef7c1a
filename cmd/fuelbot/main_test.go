package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "fuelbot dev (local)\n", out.String())
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yaml", defaultConfigPath())
	t.Setenv("CONFIG_PATH", "/etc/fuelbot.yaml")
	assert.Equal(t, "/etc/fuelbot.yaml", defaultConfigPath())
}

func TestMigrateRejectsMemoryDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	rootCmd.SetArgs([]string{"migrate", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, rootCmd.Execute())
}
