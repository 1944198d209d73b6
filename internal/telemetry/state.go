package telemetry

// Phase is the current stage of the anomaly lifecycle state machine.
// Transitions are strictly cyclic: Normal → RampUp → Hold → RampDown → Normal.
type Phase string

const (
	PhaseNormal   Phase = "normal"
	PhaseRampUp   Phase = "ramp_up"
	PhaseHold     Phase = "hold"
	PhaseRampDown Phase = "ramp_down"
)

// SensorState is the mutable per-sensor state advanced by the generator on
// every tick. One instance lives for the process lifetime; there is exactly
// one writer (the tick loop) and no concurrent reader.
type SensorState struct {
	Phase Phase

	Vibration   float64 // g
	Temperature float64 // °C
	Acoustic    float64 // dB

	// HoldTicks counts ticks spent in the hold phase.
	HoldTicks int
	// NormalTicks counts ticks spent in the normal phase since the last
	// transition; it gates the initial guaranteed-normal period.
	NormalTicks int
}

// NewState returns a SensorState seeded at the configured baselines in the
// normal phase.
func NewState(cfg *Config) *SensorState {
	return &SensorState{
		Phase:       PhaseNormal,
		Vibration:   cfg.Vibration.Base,
		Temperature: cfg.Temperature.Base,
		Acoustic:    cfg.Acoustic.Base,
	}
}
