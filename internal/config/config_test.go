package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sf_session", cfg.Server.SessionCookie)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Backend.MaxAttempts)
	assert.Equal(t, 350*time.Millisecond, cfg.Browse.Debounce)
	assert.True(t, cfg.Checkout.CompensateOnFailure)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Server.VisitorIdleTimeout)
	assert.Equal(t, time.Minute, cfg.Server.SweepInterval)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server_port: 9090\nbackend_base_url: http://api.test/api/\nbrowse_debounce: 400ms\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://api.test/api", cfg.Backend.BaseURL)
	assert.Equal(t, 400*time.Millisecond, cfg.Browse.Debounce)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "ten seconds")

	cfg, err := Load("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_RejectsNonPositiveSweepSettings(t *testing.T) {
	for _, key := range []string{"SERVER_SWEEP_INTERVAL", "SERVER_VISITOR_IDLE_TIMEOUT"} {
		for _, value := range []string{"0s", "-1m"} {
			t.Run(key+"="+value, func(t *testing.T) {
				t.Setenv(key, value)

				cfg, err := Load("")
				require.Error(t, err)
				assert.Contains(t, err.Error(), key)
				assert.Nil(t, cfg)
			})
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
