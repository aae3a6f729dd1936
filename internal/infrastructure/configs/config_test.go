package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, 64, cfg.Relay.ClientBuffer)
	assert.Equal(t, 256, cfg.Relay.DispatchBuffer)
	assert.Equal(t, 25*time.Second, cfg.Relay.PollWait)
	assert.Equal(t, 2*time.Minute, cfg.Relay.PollSessionTTL)
	assert.Equal(t, int64(4<<20), cfg.Uploads.MaxImageBytes)
	assert.Equal(t, int64(16<<20), cfg.Uploads.MaxVideoBytes)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  port: 9090
relay:
  client_buffer: 8
  poll_wait: 5s
uploads:
  dir: "/tmp/chat-uploads"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.Equal(t, 8, cfg.Relay.ClientBuffer)
	assert.Equal(t, 5*time.Second, cfg.Relay.PollWait)
	assert.Equal(t, "/tmp/chat-uploads", cfg.Uploads.Dir)

	// Untouched keys keep their defaults.
	assert.Equal(t, 256, cfg.Relay.DispatchBuffer)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesBeatDefaults(t *testing.T) {
	t.Setenv("RELAY_CLIENT_BUFFER", "32")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Relay.ClientBuffer)
	assert.Equal(t, "debug", cfg.Logger.Level)
}
