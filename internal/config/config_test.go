package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carrito.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, InitConfig(writeConfig(t, "")))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultBaseURL+"/ws", cfg.LiveURL)
	assert.Equal(t, DefaultLivePath, cfg.LivePath)
	assert.Equal(t, int64(DefaultDeviceID), cfg.DeviceID)
	assert.Equal(t, DefaultTimeZone, cfg.TimeZone)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
}

func TestLoad_FileValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, `
base_url: "http://10.0.0.2:5500/"
live_url: "http://10.0.0.2:5600/ws"
device_id: 4
tz: "UTC"
log:
  level: debug
`)
	require.NoError(t, InitConfig(path))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:5500", cfg.BaseURL)
	assert.Equal(t, "http://10.0.0.2:5600/ws", cfg.LiveURL)
	assert.Equal(t, int64(4), cfg.DeviceID)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CARRITO_DEVICE_ID", "9")
	t.Setenv("CARRITO_LOG_LEVEL", "error")

	require.NoError(t, InitConfig(writeConfig(t, "device_id: 4\n")))
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(9), cfg.DeviceID)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_RejectsBadDevice(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, InitConfig(writeConfig(t, "device_id: 0\n")))
	_, err := Load()
	assert.Error(t, err)
}

func TestSaveSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeConfig(t, "device_id: 1\n")
	require.NoError(t, InitConfig(path))
	require.NoError(t, SaveSettings(map[string]any{"device_id": 3, "tz": "UTC"}))

	viper.Reset()
	require.NoError(t, InitConfig(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.DeviceID)
	assert.Equal(t, "UTC", cfg.TimeZone)
}
