package telemetry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Generator advances a SensorState by one tick at a time and emits Readings.
// Randomness and the clock are injected so tests can run deterministically.
type Generator struct {
	cfg     *Config
	state   *SensorState
	rng     *rand.Rand
	assetID string
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the wall clock used for Reading timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithState replaces the initial state. Useful for resuming or for driving
// the machine into a specific phase under test.
func WithState(state *SensorState) Option {
	return func(g *Generator) {
		g.state = state
	}
}

// New creates a Generator for one sensor instance.
func New(cfg *Config, assetID string, rng *rand.Rand, opts ...Option) *Generator {
	g := &Generator{
		cfg:     cfg,
		state:   NewState(cfg),
		rng:     rng,
		assetID: assetID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// State returns the mutable sensor state.
func (g *Generator) State() *SensorState {
	return g.state
}

// AssetID returns the asset identifier stamped on emitted readings.
func (g *Generator) AssetID() string {
	return g.assetID
}

// Tick advances the state machine by exactly one step and returns the
// emitted Reading. It mutates the state in place and never fails; all
// numeric operations are total over their clamped domains.
func (g *Generator) Tick() Reading {
	switch g.state.Phase {
	case PhaseNormal:
		g.tickNormal()
	case PhaseRampUp:
		g.tickRampUp()
	case PhaseHold:
		g.tickHold()
	case PhaseRampDown:
		g.tickRampDown()
	}

	g.sanitize()

	return g.emit()
}

// tickNormal jitters each channel around its baseline. A single shared
// Gaussian sample nudges all three channels (scaled per channel) before the
// independent per-channel noise, producing subtle positive cross-channel
// correlation.
func (g *Generator) tickNormal() {
	cfg, st := g.cfg, g.state

	common := g.rng.NormFloat64() * cfg.CommonNoiseStd
	st.Vibration += common*cfg.Vibration.CommonScale + g.rng.NormFloat64()*cfg.Vibration.NoiseStd
	st.Temperature += common*cfg.Temperature.CommonScale + g.rng.NormFloat64()*cfg.Temperature.NoiseStd
	st.Acoustic += common*cfg.Acoustic.CommonScale + g.rng.NormFloat64()*cfg.Acoustic.NoiseStd

	st.Vibration = clamp(st.Vibration, cfg.Vibration.ClampLo, cfg.Vibration.ClampHi)
	st.Temperature = clamp(st.Temperature, cfg.Temperature.ClampLo, cfg.Temperature.ClampHi)
	st.Acoustic = clamp(st.Acoustic, cfg.Acoustic.ClampLo, cfg.Acoustic.ClampHi)

	// Guaranteed clean baseline: no anomaly sampling for the first
	// InitialNormalTicks ticks of any normal phase.
	if st.NormalTicks < cfg.InitialNormalTicks {
		st.NormalTicks++
		return
	}

	if g.rng.Float64() < cfg.StartProbability {
		st.Phase = PhaseRampUp
		st.HoldTicks = 0
		st.NormalTicks = 0
	}
}

// tickRampUp climbs each channel toward its anomaly target with amplified
// jitter. The hold phase begins only once all three channels have reached
// their targets; the slowest channel gates the transition.
func (g *Generator) tickRampUp() {
	cfg, st := g.cfg, g.state
	jf := cfg.AnomalyJitterFactor

	st.Vibration += cfg.Vibration.RampStep + g.rng.NormFloat64()*cfg.Vibration.NoiseStd*jf
	st.Temperature += cfg.Temperature.RampStep + g.rng.NormFloat64()*cfg.Temperature.NoiseStd*jf
	st.Acoustic += cfg.Acoustic.RampStep + g.rng.NormFloat64()*cfg.Acoustic.NoiseStd*jf

	st.Vibration = math.Min(st.Vibration, cfg.Vibration.Target*overshootLimit)
	st.Temperature = math.Min(st.Temperature, cfg.Temperature.Target*overshootLimit)
	st.Acoustic = math.Min(st.Acoustic, cfg.Acoustic.Target*overshootLimit)

	if st.Vibration >= cfg.Vibration.Target &&
		st.Temperature >= cfg.Temperature.Target &&
		st.Acoustic >= cfg.Acoustic.Target {
		st.Phase = PhaseHold
	}
}

// tickHold resamples each channel around the anomaly target. Hold readings
// are i.i.d. noisy plateau samples with no memory of the prior value, not a
// random walk.
func (g *Generator) tickHold() {
	cfg, st := g.cfg, g.state
	jf := cfg.AnomalyJitterFactor * holdJitterBoost

	st.Vibration = cfg.Vibration.Target + g.rng.NormFloat64()*cfg.Vibration.NoiseStd*jf
	st.Temperature = cfg.Temperature.Target + g.rng.NormFloat64()*cfg.Temperature.NoiseStd*jf
	st.Acoustic = cfg.Acoustic.Target + g.rng.NormFloat64()*cfg.Acoustic.NoiseStd*jf

	st.HoldTicks++
	if st.HoldTicks >= cfg.HoldDurationTicks {
		st.Phase = PhaseRampDown
	}
}

// tickRampDown descends each channel back toward baseline. No clamping on
// the way down: values may transiently dip below base so the reached-baseline
// test stays reliable under noise. On arrival, channels snap exactly to base
// to shed accumulated float drift.
func (g *Generator) tickRampDown() {
	cfg, st := g.cfg, g.state
	jf := cfg.AnomalyJitterFactor

	st.Vibration -= cfg.Vibration.RampStep + g.rng.NormFloat64()*cfg.Vibration.NoiseStd*jf
	st.Temperature -= cfg.Temperature.RampStep + g.rng.NormFloat64()*cfg.Temperature.NoiseStd*jf
	st.Acoustic -= cfg.Acoustic.RampStep + g.rng.NormFloat64()*cfg.Acoustic.NoiseStd*jf

	if st.Vibration <= cfg.Vibration.Base+transitionEpsilon &&
		st.Temperature <= cfg.Temperature.Base+transitionEpsilon &&
		st.Acoustic <= cfg.Acoustic.Base+transitionEpsilon {
		st.Vibration = cfg.Vibration.Base
		st.Temperature = cfg.Temperature.Base
		st.Acoustic = cfg.Acoustic.Base
		st.Phase = PhaseNormal
		st.NormalTicks = 0
	}
}

// sanitize resets any non-finite channel to its baseline so NaN/Inf can never
// propagate across ticks.
func (g *Generator) sanitize() {
	cfg, st := g.cfg, g.state
	if !isFinite(st.Vibration) {
		st.Vibration = cfg.Vibration.Base
	}
	if !isFinite(st.Temperature) {
		st.Temperature = cfg.Temperature.Base
	}
	if !isFinite(st.Acoustic) {
		st.Acoustic = cfg.Acoustic.Base
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
