package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "/opt/comfy")
	require.NoError(t, err)

	require.Equal(t, ModeDefault, cfg.Mode())
	require.Equal(t, "/opt/comfy", cfg.Root)
	require.Equal(t, 5, cfg.Retries)
	require.Equal(t, 600*time.Second, cfg.Timeout)
	require.Equal(t, 3, cfg.TransportRetries)
	require.False(t, cfg.Insecure)
	require.False(t, cfg.KeepPartial)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--url", "https://example.com/vae.safetensors",
		"--destination", "models/vae/vae.safetensors",
		"--retries", "2",
		"--timeout", "30s",
		"--insecure",
		"--log-format", "json",
	}, "/opt/comfy")
	require.NoError(t, err)

	require.Equal(t, ModeSingle, cfg.Mode())
	require.Equal(t, "https://example.com/vae.safetensors", cfg.URL)
	require.Equal(t, "models/vae/vae.safetensors", cfg.Destination)
	require.Equal(t, 2, cfg.Retries)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.True(t, cfg.Insecure)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MODELFETCH_ALL", "true")
	t.Setenv("MODELFETCH_RETRIES", "7")
	t.Setenv("MODELFETCH_TIMEOUT", "2m")
	t.Setenv("MODELFETCH_LOG_LEVEL", "debug")

	cfg, err := Load(nil, "/opt/comfy")
	require.NoError(t, err)
	require.Equal(t, ModeAll, cfg.Mode())
	require.Equal(t, 7, cfg.Retries)
	require.Equal(t, 2*time.Minute, cfg.Timeout)
	require.Equal(t, "debug", cfg.LogLevel)

	// Explicit flags win over the environment.
	cfg, err = Load([]string{"--retries", "1"}, "/opt/comfy")
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Retries)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"url without destination", []string{"--url", "https://example.com/a"}},
		{"destination without url", []string{"--destination", "a"}},
		{"all with url", []string{"--all", "--url", "https://example.com/a", "--destination", "a"}},
		{"zero retries", []string{"--retries", "0"}},
		{"zero timeout", []string{"--timeout", "0s"}},
		{"negative transport retries", []string{"--transport-retries", "-1"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"unknown flag", []string{"--resume"}},
		{"positional argument", []string{"model.safetensors"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, "/opt/comfy")
			require.Error(t, err)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"}, "/opt/comfy")
	require.True(t, errors.Is(err, pflag.ErrHelp))
}
