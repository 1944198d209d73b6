// Package edge implements the on-premise edge device logic: gross anomaly
// detection against static thresholds and escalation of new anomaly episodes
// to the diagnosis agent.
package edge

import (
	"fmt"

	"github.com/arloliu/turbsim/internal/telemetry"
)

// Anomaly type identifiers reported to the agent.
const (
	AnomalyCriticalTemperature    = "CriticalTemperature"
	AnomalyHighAmplitudeVibration = "HighAmplitudeVibration"
)

// Thresholds are the static breach limits applied to every reading.
type Thresholds struct {
	TemperatureCriticalC float64 `yaml:"temperatureCriticalC" default:"50.0" validate:"gt=0"`
	VibrationAnomalyAmpG float64 `yaml:"vibrationAnomalyAmpG" default:"2.0" validate:"gt=0"`
}

// Anomaly describes one threshold breach found in a reading.
type Anomaly struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Detector performs stateless threshold checks. Hysteresis lives in
// Processor; Detect reports every breach on every call.
type Detector struct {
	thresholds Thresholds
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// Detect returns all threshold breaches present in the reading, in a fixed
// order: temperature first, vibration second. A nil slice means the reading
// is within limits.
func (d *Detector) Detect(r telemetry.Reading) []Anomaly {
	var anomalies []Anomaly

	if r.TemperatureC > d.thresholds.TemperatureCriticalC {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyCriticalTemperature,
			Message: fmt.Sprintf("Temperature %.4g°C exceeds threshold %.4g°C.", r.TemperatureC, d.thresholds.TemperatureCriticalC),
		})
	}

	if r.VibrationG > d.thresholds.VibrationAnomalyAmpG {
		anomalies = append(anomalies, Anomaly{
			Type:    AnomalyHighAmplitudeVibration,
			Message: fmt.Sprintf("Vibration anomaly %.4gg exceeds threshold %.4gg.", r.VibrationG, d.thresholds.VibrationAnomalyAmpG),
		})
	}

	return anomalies
}
