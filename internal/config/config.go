// Package config holds the application configuration shared by the three
// binaries. One YAML file (or environment variables) configures the whole
// demo pipeline; each binary reads the sections it needs.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/arloliu/fuda"
	"github.com/arloliu/otx"

	"github.com/arloliu/turbsim/internal/agent"
	"github.com/arloliu/turbsim/internal/edge"
	"github.com/arloliu/turbsim/internal/llm"
	"github.com/arloliu/turbsim/internal/opsramp"
	"github.com/arloliu/turbsim/internal/ticket"
	"github.com/arloliu/turbsim/internal/transport"
)

// App is the root configuration document.
type App struct {
	LogLevel string `yaml:"logLevel" default:"info" env:"LOG_LEVEL"`

	// Profile selects an embedded sensor profile; ProfileFile overrides it
	// with a YAML profile definition.
	Profile     string `yaml:"profile" default:"grx2-turbine" env:"SENSOR_PROFILE"`
	ProfileFile string `yaml:"profileFile" env:"SENSOR_PROFILE_FILE"`

	// Seed fixes the simulation RNG; zero derives a seed from the clock.
	Seed uint64 `yaml:"seed" env:"SENSOR_SEED"`

	NATS transport.NATSConfig `yaml:"nats"`

	// MQTTEnabled turns on the dashboard platform fan-out.
	MQTTEnabled bool                 `yaml:"mqttEnabled" default:"false" env:"MQTT_ENABLED"`
	MQTT        transport.MQTTConfig `yaml:"mqtt"`

	Edge edge.Config `yaml:"edge"`

	Agent      agent.Config   `yaml:"agent"`
	LLM        llm.Config     `yaml:"llm"`
	ServiceNow ticket.Config  `yaml:"servicenow"`
	OpsRamp    opsramp.Config `yaml:"opsramp"`

	// Telemetry configures OTel tracing for the binaries; nil or disabled
	// means no tracer provider is installed.
	Telemetry *otx.TelemetryConfig `yaml:"telemetry,omitempty"`
}

// Load reads the configuration file when path is non-empty, otherwise builds
// the configuration from struct defaults and environment variables.
func Load(path string) (*App, error) {
	var cfg App

	if path != "" {
		if err := fuda.LoadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}

		return &cfg, nil
	}

	if err := fuda.SetDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := fuda.LoadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config environment overrides: %w", err)
	}

	return &cfg, nil
}

// Logger builds the process logger at the configured level. Unknown levels
// fall back to info.
func (c *App) Logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
