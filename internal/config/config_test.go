package config

import (
	"log/slog"
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

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grx2-turbine", cfg.Profile)
	assert.Zero(t, cfg.Seed)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "TELEMETRY", cfg.NATS.Stream)
	assert.Equal(t, "telemetry.sensors", cfg.NATS.Subject)

	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "mqtt://localhost:1883", cfg.MQTT.BrokerURL)
	assert.Equal(t, "v1/devices/me/telemetry", cfg.MQTT.Topic)

	assert.Equal(t, 50.0, cfg.Edge.Thresholds.TemperatureCriticalC)
	assert.Equal(t, 2.0, cfg.Edge.Thresholds.VibrationAnomalyAmpG)
	assert.Equal(t, 10*time.Second, cfg.Edge.Timeout)

	assert.Equal(t, ":8000", cfg.Agent.ListenAddr)
	assert.Equal(t, 42.0, cfg.Agent.BaselineTemperatureC)
	assert.Equal(t, 3, cfg.Agent.MaxPromptSnippets)
	assert.Equal(t, 0.70, cfg.Agent.ConfidenceThreshold)

	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "incident", cfg.ServiceNow.Table)
	assert.Empty(t, cfg.OpsRamp.Endpoint)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logLevel: debug
profile: bench-demo
seed: 42
nats:
  url: nats://broker:4222
mqttEnabled: true
edge:
  thresholds:
    temperatureCriticalC: 48.5
agent:
  confidenceThreshold: 0.9
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "bench-demo", cfg.Profile)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, 48.5, cfg.Edge.Thresholds.TemperatureCriticalC)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2.0, cfg.Edge.Thresholds.VibrationAnomalyAmpG)
	assert.Equal(t, 0.9, cfg.Agent.ConfidenceThreshold)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLogger_LevelParsing(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := App{LogLevel: tt.level}
			logger := cfg.Logger()
			assert.True(t, logger.Enabled(t.Context(), tt.enabled))
			if tt.enabled > slog.LevelDebug {
				assert.False(t, logger.Enabled(t.Context(), tt.enabled-4))
			}
		})
	}
}
