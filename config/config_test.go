package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pulse/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
env:
  env: test
  serviceName: pulse
  log:
    level: debug
realtime:
  serverUrl: wss://alerts.example.com/ws
  authToken: token-123
  dialTimeout: 5s
  backoff:
    initialInterval: 500ms
geolocation:
  significanceMeters: 150
  route:
    - lat: 25.0339
      lng: 121.5645
notification:
  enabled: true
  volume: 0.8
  severities:
    low: false
`

func writeTestConfig(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testYAML), 0o600))
	t.Chdir(dir)
}

func TestLoadWithEnv(t *testing.T) {
	writeTestConfig(t)

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)

	assert.Equal(t, "wss://alerts.example.com/ws", cfg.Realtime.ServerURL)
	assert.Equal(t, "token-123", cfg.Realtime.AuthToken)
	assert.Equal(t, 5*time.Second, cfg.Realtime.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Realtime.Backoff.InitialInterval)
	assert.InDelta(t, 150, cfg.Geolocation.SignificanceMeters, 0.0001)
	require.Len(t, cfg.Geolocation.Route, 1)
	assert.InDelta(t, 25.0339, cfg.Geolocation.Route[0].Lat, 0.0001)
	assert.True(t, cfg.Notification.Enabled)
	assert.False(t, cfg.Notification.Severities["low"])
}

func TestLoadWithEnv_EnvOverride(t *testing.T) {
	writeTestConfig(t)
	t.Setenv("REALTIME_AUTHTOKEN", "env-token")

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Realtime.AuthToken)
	// Keys not overridden keep their file values.
	assert.Equal(t, "wss://alerts.example.com/ws", cfg.Realtime.ServerURL)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 10*time.Second, cfg.Realtime.DialTimeout)
	assert.Equal(t, 5*time.Second, cfg.Realtime.WriteTimeout)
	assert.Equal(t, time.Second, cfg.Realtime.Backoff.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Realtime.Backoff.MaxInterval)
	assert.InDelta(t, 2, cfg.Realtime.Backoff.Multiplier, 0.0001)
	assert.Equal(t, 64, cfg.Realtime.EventBufferSize)
	assert.InDelta(t, 100, cfg.Geolocation.SignificanceMeters, 0.0001)
	assert.Equal(t, 30*time.Second, cfg.Geolocation.FixTimeout)
	assert.Equal(t, entity.WorldBounds(), cfg.Geolocation.Bounds)
	assert.InDelta(t, 1, cfg.Notification.Volume, 0.0001)
}

func TestConfig_Preference(t *testing.T) {
	cfg := &Config{}
	cfg.Notification.Enabled = true
	cfg.Notification.Volume = 0.7
	cfg.Notification.Severities = map[string]bool{
		"LOW":     false,
		"unknown": true, // Ignored.
	}

	pref := cfg.Preference()

	assert.True(t, pref.Enabled)
	assert.InDelta(t, 0.7, pref.Volume, 0.0001)
	assert.False(t, pref.PerSeverity[entity.SeverityLow])
	assert.True(t, pref.PerSeverity[entity.SeverityCritical])
}
