package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	otxhttp "github.com/arloliu/otx/http"

	"github.com/arloliu/turbsim/internal/opsramp"
	"github.com/arloliu/turbsim/internal/telemetry"
)

// Config configures the edge processor.
type Config struct {
	DeviceID   string        `yaml:"deviceId" default:"aruba-edge-01"`
	Thresholds Thresholds    `yaml:"thresholds"`
	AgentURL   string        `yaml:"agentUrl" default:"http://localhost:8000/api/v1/analyze_trigger" env:"AGENT_TRIGGER_ENDPOINT"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
}

// Trigger is the escalation payload posted to the diagnosis agent when a new
// anomaly episode starts.
type Trigger struct {
	SourceComponent  string            `json:"source_component"`
	AssetID          string            `json:"asset_id"`
	TriggerTimestamp string            `json:"trigger_timestamp"`
	Anomalies        []Anomaly         `json:"edge_detected_anomalies"`
	Reading          telemetry.Reading `json:"full_sensor_data_at_trigger"`
}

// EventLogger receives operational events mirrored off the processing path.
// *opsramp.Connector satisfies it.
type EventLogger interface {
	SendLog(ctx context.Context, assetID, level, message string, details map[string]any) error
}

// Processor applies alert-state hysteresis on top of the detector: exactly
// one trigger per anomaly episode, exactly one clear event when the episode
// ends. Escalation failures are logged and never propagate back to the
// message consumer.
type Processor struct {
	cfg      Config
	detector *Detector
	client   *http.Client
	events   EventLogger
	logger   *slog.Logger
	now      func() time.Time

	alertActive bool
}

// NewProcessor creates a processor. events may be nil when no event log
// endpoint is configured.
func NewProcessor(cfg Config, events EventLogger, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:      cfg,
		detector: NewDetector(cfg.Thresholds),
		client:   otxhttp.NewClient(otxhttp.WithTimeout(cfg.Timeout)),
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one reading through detection and the alert state machine.
func (p *Processor) Process(ctx context.Context, r telemetry.Reading) {
	anomalies := p.detector.Detect(r)

	switch {
	case len(anomalies) > 0 && !p.alertActive:
		p.alertActive = true
		p.logger.Warn("new gross anomaly detected, alert state active",
			"device", p.cfg.DeviceID, "asset", r.AssetID, "anomalies", len(anomalies))
		p.sendEvent(ctx, r.AssetID, opsramp.LevelCritical,
			fmt.Sprintf("Edge Detection: %s on %s", anomalies[0].Type, r.AssetID),
			map[string]any{"triggering_anomaly": anomalies[0]})
		p.sendTrigger(ctx, r, anomalies)

	case len(anomalies) == 0 && p.alertActive:
		p.alertActive = false
		p.logger.Info("anomaly condition cleared, alert state inactive",
			"device", p.cfg.DeviceID, "asset", r.AssetID)
		p.sendEvent(ctx, r.AssetID, opsramp.LevelInfo,
			fmt.Sprintf("Edge Event: Anomaly Condition Cleared on %s", r.AssetID),
			map[string]any{"status": "Normal"})

	default:
		p.logger.Debug("reading processed",
			"device", p.cfg.DeviceID, "asset", r.AssetID, "alert_active", p.alertActive)
	}
}

// AlertActive reports whether an anomaly episode is currently open.
func (p *Processor) AlertActive() bool {
	return p.alertActive
}

func (p *Processor) sendTrigger(ctx context.Context, r telemetry.Reading, anomalies []Anomaly) {
	trigger := Trigger{
		SourceComponent:  p.cfg.DeviceID,
		AssetID:          r.AssetID,
		TriggerTimestamp: telemetry.FormatTimestamp(p.now()),
		Anomalies:        anomalies,
		Reading:          r,
	}

	body, err := json.Marshal(trigger)
	if err != nil {
		p.logger.Error("failed to encode trigger payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.AgentURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to build trigger request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("trigger escalation failed", "url", p.cfg.AgentURL, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		p.logger.Error("agent rejected trigger",
			"url", p.cfg.AgentURL, "status", resp.StatusCode)
		return
	}

	p.logger.Info("anomaly trigger sent to agent",
		"asset", r.AssetID, "url", p.cfg.AgentURL, "status", resp.StatusCode)
}

func (p *Processor) sendEvent(ctx context.Context, assetID, level, message string, details map[string]any) {
	if p.events == nil {
		return
	}
	if err := p.events.SendLog(ctx, assetID, level, message, details); err != nil {
		p.logger.Warn("event log delivery failed", "error", err)
	}
}
