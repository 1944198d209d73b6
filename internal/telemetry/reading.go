package telemetry

import (
	"math"
	"time"
)

// Status is the discrete operational status attached to a Reading.
type Status string

const (
	StatusNormal  Status = "NORMAL"
	StatusAnomaly Status = "ANOMALY"
)

// timestampLayout renders ISO-8601 UTC with millisecond precision and a "Z"
// suffix. The caller must convert to UTC before formatting.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the wire timestamp format shared by readings,
// edge triggers and event logs.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Reading is the record emitted once per tick. Channel values are rounded to
// four decimals at emission time only; the internal state keeps full
// precision to avoid compounding quantization error across ticks.
type Reading struct {
	AssetID              string   `json:"asset_id"`
	Timestamp            string   `json:"timestamp"`
	VibrationG           float64  `json:"vibration_g"`
	TemperatureC         float64  `json:"temperature_c"`
	AcousticDB           float64  `json:"acoustic_db"`
	DominantFrequencyHz  float64  `json:"dominant_frequency_hz"`
	SignatureFrequencyHz *float64 `json:"signature_frequency_hz"`
	Status               Status   `json:"status"`
	AnomalyActive        bool     `json:"anomaly_active"`
}

// emit builds the Reading for the current (already advanced) state. While a
// fault is active the dominant frequency pins to the configured anomaly
// frequency and the signature harmonic appears; otherwise the dominant
// frequency is drawn fresh from the idle band each tick.
func (g *Generator) emit() Reading {
	cfg, st := g.cfg, g.state
	anomalous := st.Phase != PhaseNormal

	r := Reading{
		AssetID:       g.assetID,
		Timestamp:     FormatTimestamp(g.now()),
		VibrationG:    round4(st.Vibration),
		TemperatureC:  round4(st.Temperature),
		AcousticDB:    round4(st.Acoustic),
		Status:        StatusNormal,
		AnomalyActive: anomalous,
	}

	if anomalous {
		r.Status = StatusAnomaly
		r.DominantFrequencyHz = round4(cfg.DominantFreqHz)
		sig := round4(cfg.SignatureFreqHz)
		r.SignatureFrequencyHz = &sig
	} else {
		r.DominantFrequencyHz = round4(cfg.IdleFreqLo + g.rng.Float64()*(cfg.IdleFreqHi-cfg.IdleFreqLo))
	}

	return r
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
