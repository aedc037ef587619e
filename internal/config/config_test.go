package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = `
[Station]
TempUnit = F
PressureUnit = inHg
RainUnit = in
LogInterval = 5

[Graphs]
GraphHours = 48
ChartHeight = 420
NonIncremental = true

[Paths]
DataDir = /var/lib/station/data
WindDataURL = http://station.local/
`

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleINI))
	require.NoError(t, err)

	assert.True(t, cfg.IsFahrenheit())
	assert.Equal(t, "inHg", cfg.Station.PressureUnit)
	assert.Equal(t, 5*time.Minute, cfg.LogIntervalDuration())
	assert.Equal(t, 48*time.Hour, cfg.GraphWindow())
	assert.Equal(t, 420, cfg.Graphs.ChartHeight)
	assert.True(t, cfg.Graphs.NonIncremental)
	assert.Equal(t, "/var/lib/station/data", cfg.Paths.DataDir)
	assert.Equal(t, "http://station.local/", cfg.Paths.WindDataURL)

	// untouched keys keep their defaults
	assert.Equal(t, 30, cfg.Graphs.DailyGraphDays)
	assert.Equal(t, "web", cfg.Paths.OutputDir)
	assert.Equal(t, "black", cfg.Graphs.WindBarbColor)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Graphs]\nGraphHours = 24\n"), 0644))

	t.Setenv("CHARTS_OUTPUT_DIR", "/srv/www")
	t.Setenv("CHARTS_NON_INCREMENTAL", "true")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Graphs.GraphHours)
	assert.Equal(t, "/srv/www", cfg.Paths.OutputDir)
	assert.True(t, cfg.Graphs.NonIncremental)
	assert.Equal(t, "local", cfg.Env.Storage)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 72, cfg.Graphs.GraphHours)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"temp unit", func(c *Config) { c.Station.TempUnit = "K" }},
		{"pressure unit", func(c *Config) { c.Station.PressureUnit = "atm" }},
		{"rain unit", func(c *Config) { c.Station.RainUnit = "cm" }},
		{"log interval", func(c *Config) { c.Station.LogInterval = 0 }},
		{"graph hours", func(c *Config) { c.Graphs.GraphHours = -1 }},
		{"daily days", func(c *Config) { c.Graphs.DailyGraphDays = 0 }},
		{"gcs without bucket", func(c *Config) { c.Env.Storage = "gcs" }},
		{"unknown storage", func(c *Config) { c.Env.Storage = "ftp" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
