package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goktmcan.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[decoder]
emit_unmapped = true
enable_assertions = true

[source]
interface = "can0"
require_up = true

[output]
format = "json"
only = ["0x120", "0x12B"]

[log]
level = "debug"

[metrics]
listen = "127.0.0.1:9108"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Decoder.EmitUnmapped)
	require.True(t, cfg.Decoder.EnableAssertions)
	require.False(t, cfg.Decoder.StopOnError)
	require.Equal(t, "can0", cfg.Source.Interface)
	require.True(t, cfg.Source.RequireUp)
	require.Equal(t, FormatJSON, cfg.Output.Format)
	require.Equal(t, []string{"0x120", "0x12B"}, cfg.Output.Only)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, FormatText, cfg.Log.Format)
	require.Equal(t, "127.0.0.1:9108", cfg.Metrics.Listen)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.False(t, cfg.Decoder.EmitUnmapped)
	require.False(t, cfg.Decoder.EnableAssertions)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[decoder]\nemit_unmaped = true\n",
		"both sources":   "[source]\ninterface = \"can0\"\nfile = \"ride.log\"\n",
		"bad format":     "[output]\nformat = \"xml\"\n",
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"bad log format": "[log]\nformat = \"yaml\"\n",
		"syntax":         "[decoder\n",
		"bad listen":     "[metrics]\nlisten = \"9108\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestConfigureLogger(t *testing.T) {
	logger := logrus.New()
	require.NoError(t, LogConfig{Level: "warn", Format: FormatJSON}.ConfigureLogger(logger))
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	require.Error(t, LogConfig{Level: "nope"}.ConfigureLogger(logger))
}
