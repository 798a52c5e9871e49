package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/mosqmon/internal/errors"
	"github.com/Dicklesworthstone/mosqmon/internal/model"
)

func loadArgs(t *testing.T, path string, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("mosqmon", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(fs, path)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 1883, cfg.Port)
	assert.Equal(t, 60, cfg.Keepalive)
	assert.False(t, cfg.NewMosquitto)
	assert.Equal(t, 50*time.Millisecond, cfg.PollTimeout)
	assert.True(t, strings.HasPrefix(cfg.ClientID, "mosqmon-"))
	assert.NoError(t, cfg.Validate())
}

func TestNewClientID(t *testing.T) {
	a, b := NewClientID(), NewClientID()

	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, len(a), 23, "MQTT 3.1 client ids are limited to 23 bytes")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadArgs(t, "")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 1883, cfg.Port)
	assert.Equal(t, 60, cfg.Keepalive)
	assert.Equal(t, model.NamingLegacy, cfg.Naming())
	assert.NotEmpty(t, cfg.ClientID)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := loadArgs(t, "",
		"--host", "broker.local", "-p", "8883", "-k", "30", "-n",
		"--client-id", "dash-1", "--poll", "10ms", "--debug")
	require.NoError(t, err)

	assert.Equal(t, "broker.local", cfg.Host)
	assert.Equal(t, 8883, cfg.Port)
	assert.Equal(t, 30, cfg.Keepalive)
	assert.True(t, cfg.NewMosquitto)
	assert.Equal(t, model.NamingCurrent, cfg.Naming())
	assert.Equal(t, "dash-1", cfg.ClientID)
	assert.Equal(t, 10*time.Millisecond, cfg.PollTimeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("MOSQMON_HOST", "env-broker")
	t.Setenv("MOSQMON_NEW_MOSQUITTO", "true")

	cfg, err := loadArgs(t, "")
	require.NoError(t, err)

	assert.Equal(t, "env-broker", cfg.Host)
	assert.True(t, cfg.NewMosquitto)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("MOSQMON_HOST", "env-broker")

	cfg, err := loadArgs(t, "", "--host", "flag-broker")
	require.NoError(t, err)

	assert.Equal(t, "flag-broker", cfg.Host)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mosqmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: file-broker\nport: 1884\nkeepalive: 15\n"), 0o644))

	cfg, err := loadArgs(t, path, "-k", "20")
	require.NoError(t, err)

	assert.Equal(t, "file-broker", cfg.Host)
	assert.Equal(t, 1884, cfg.Port)
	assert.Equal(t, 20, cfg.Keepalive)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := loadArgs(t, filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty host", func(c *Config) { c.Host = "" }, false},
		{"port zero", func(c *Config) { c.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Port = 70000 }, false},
		{"keepalive disabled", func(c *Config) { c.Keepalive = 0 }, true},
		{"negative keepalive", func(c *Config) { c.Keepalive = -1 }, false},
		{"zero poll", func(c *Config) { c.PollTimeout = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	_, err := loadArgs(t, "", "--port", "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port 0 is out of range")
}

func TestAddress(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:1883", cfg.Address())

	cfg.Host = "::1"
	assert.Equal(t, "[::1]:1883", cfg.Address())
}
