// Package opsramp ships structured operational event logs to an OpsRamp-style
// log ingestion endpoint. Delivery is best-effort: callers log send failures
// and move on, event logging must never affect the pipeline it observes.
package opsramp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	otxhttp "github.com/arloliu/otx/http"

	"github.com/arloliu/turbsim/internal/telemetry"
)

// Log levels accepted by the ingestion endpoint.
const (
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Config configures the event log connector. An empty endpoint disables it.
type Config struct {
	Endpoint string        `yaml:"endpoint" env:"OPSRAMP_LOGS_ENDPOINT"`
	SourceID string        `yaml:"sourceId" default:"turbsim"`
	Timeout  time.Duration `yaml:"timeout" default:"5s"`
}

// LogEvent is the wire format of one operational event.
type LogEvent struct {
	SourceID  string         `json:"source_id"`
	Timestamp string         `json:"timestamp"`
	LogLevel  string         `json:"log_level"`
	AssetID   string         `json:"asset_id"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// Connector posts LogEvents over HTTP.
type Connector struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// New creates a connector. The returned connector is safe to use even when
// cfg.Endpoint is empty; SendLog becomes a no-op.
func New(cfg Config) *Connector {
	return &Connector{
		cfg:    cfg,
		client: otxhttp.NewClient(otxhttp.WithTimeout(cfg.Timeout)),
		now:    time.Now,
	}
}

// Enabled reports whether an ingestion endpoint is configured.
func (c *Connector) Enabled() bool {
	return c.cfg.Endpoint != ""
}

// SendLog posts one event. The level is normalized to upper case and the
// timestamp is stamped by the connector.
func (c *Connector) SendLog(ctx context.Context, assetID, level, message string, details map[string]any) error {
	if !c.Enabled() {
		return nil
	}

	event := LogEvent{
		SourceID:  c.cfg.SourceID,
		Timestamp: telemetry.FormatTimestamp(c.now()),
		LogLevel:  strings.ToUpper(level),
		AssetID:   assetID,
		Message:   message,
		Details:   details,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode log event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build log request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post log event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("log ingestion returned status %d", resp.StatusCode)
	}

	return nil
}
