package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6500, cfg.HighTemp)
	assert.Equal(t, 4000, cfg.LowTemp)
	assert.Equal(t, 60, cfg.DurationMinutes)
	assert.Equal(t, 1.0, cfg.Gamma)
	assert.Equal(t, "absolute", cfg.TimerMode)
	assert.False(t, cfg.MQTTEnabled())
	assert.False(t, cfg.SolarDuration())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"equal temperatures", func(c *Config) { c.LowTemp = c.HighTemp }},
		{"latitude out of range", func(c *Config) { c.Latitude = 91 }},
		{"longitude out of range", func(c *Config) { c.Longitude = -181 }},
		{"zero gamma", func(c *Config) { c.Gamma = 0 }},
		{"negative gamma", func(c *Config) { c.Gamma = -1.5 }},
		{"unknown timer mode", func(c *Config) { c.TimerMode = "hybrid" }},
		{"inverted poll bounds", func(c *Config) { c.PollMinSeconds = 60; c.PollMaxSeconds = 10 }},
		{"unknown transport", func(c *Config) { c.Transport = "drm" }},
		{"degenerate sim ramp", func(c *Config) { c.SimRampSize = 1 }},
		{"bad mqtt port", func(c *Config) { c.MQTTBroker = "localhost"; c.MQTTPort = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSolarDurationSentinel(t *testing.T) {
	cfg := NewConfig()
	cfg.DurationMinutes = DurationSolar
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.SolarDuration())

	cfg.DurationMinutes = 45
	assert.False(t, cfg.SolarDuration())
	assert.Equal(t, 45*time.Minute, cfg.Duration())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOLARTONE_HIGH_TEMP", "6000")
	t.Setenv("SOLARTONE_LOW_TEMP", "3200")
	t.Setenv("SOLARTONE_LATITUDE", "60.17")
	t.Setenv("SOLARTONE_LONGITUDE", "24.94")
	t.Setenv("SOLARTONE_DURATION_MINUTES", "-1")
	t.Setenv("SOLARTONE_MQTT_BROKER", "broker.local")
	t.Setenv("SOLARTONE_LOG_LEVEL", "debug")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, 6000, cfg.HighTemp)
	assert.Equal(t, 3200, cfg.LowTemp)
	assert.InDelta(t, 60.17, cfg.Latitude, 0.001)
	assert.InDelta(t, 24.94, cfg.Longitude, 0.001)
	assert.True(t, cfg.SolarDuration())
	assert.True(t, cfg.MQTTEnabled())
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTTAddress())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SOLARTONE_HIGH_TEMP", "warm")

	cfg := NewConfig()
	cfg.LoadFromEnv()
	assert.Equal(t, 6500, cfg.HighTemp)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solartone.yaml")
	content := `
high_temp: 5800
low_temp: 3400
latitude: 40.41
longitude: -3.70
duration_minutes: 30
timer_mode: poll
health_port: 8090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 5800, cfg.HighTemp)
	assert.Equal(t, 3400, cfg.LowTemp)
	assert.Equal(t, 30, cfg.DurationMinutes)
	assert.Equal(t, "poll", cfg.TimerMode)
	assert.Equal(t, 8090, cfg.HealthPort)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, cfg.LoadFromFile("/nonexistent/solartone.yaml"))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("high_temp: [oops"), 0o644))
	assert.Error(t, cfg.LoadFromFile(path))

	// Empty path means "no file", not an error
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestPollBounds(t *testing.T) {
	cfg := NewConfig()
	cfg.PollMinSeconds = 2
	cfg.PollMaxSeconds = 120

	min, max := cfg.PollBounds()
	assert.Equal(t, 2*time.Second, min)
	assert.Equal(t, 120*time.Second, max)
}
