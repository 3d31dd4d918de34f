package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, 8080, cfg.Port)
	require.Empty(t, cfg.JWTSecret)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, int64(32768), cfg.ReadLimit)
	require.Equal(t, 54*time.Second, cfg.PingPeriod)
	require.Equal(t, 64, cfg.SendBuffer)
	require.Equal(t, 10, cfg.MessageRate)
	require.Equal(t, 10*time.Second, cfg.MessageWindow)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	file := filepath.Join(dir, "config", "config.test.yaml")
	require.NoError(t, os.WriteFile(file, []byte("port: 9090\nmessage_rate: 3\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CONFIG_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 3, cfg.MessageRate)
	require.Equal(t, "release", cfg.Mode, "unset keys fall back to defaults")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")
	t.Setenv("LOUNGEFM_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Port)
}
