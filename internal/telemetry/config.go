// Package telemetry implements the sensor telemetry generator: a finite-state
// anomaly lifecycle simulator producing physically-plausible turbine readings
// with correlated multi-channel noise.
package telemetry

import (
	"fmt"
)

const (
	// transitionEpsilon tolerates floating-point residue when testing whether
	// a channel has returned to its baseline during ramp-down.
	transitionEpsilon = 0.001

	// overshootLimit bounds ramp-up growth to target*1.1 so the threshold
	// crossing can still trigger under noise without runaway values.
	overshootLimit = 1.1

	// holdJitterBoost widens hold-phase jitter relative to ramp jitter.
	holdJitterBoost = 1.5
)

// Range is a [lo, hi] interval. It supports YAML parsing from a two-element
// list, e.g. "vibrationNormalRange: [0.1, 0.5]".
type Range struct {
	Lo float64
	Hi float64
}

// MarshalYAML implements yaml.Marshaler.
func (r Range) MarshalYAML() (any, error) {
	return []float64{r.Lo, r.Hi}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Range) UnmarshalYAML(unmarshal func(any) error) error {
	var pair [2]float64
	if err := unmarshal(&pair); err != nil {
		return err
	}
	r.Lo = pair[0]
	r.Hi = pair[1]

	return nil
}

// Mid returns the arithmetic midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Lo + r.Hi) / 2.0
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Lo == 0 && r.Hi == 0
}

// Params holds the raw generator configuration.
// Uses fuda struct tags for defaults, env binding and validation.
type Params struct {
	// Normal operating ranges per channel.
	VibrationNormalRange Range   `yaml:"vibrationNormalRange"`                                          // g
	AcousticNormalRange  Range   `yaml:"acousticNormalRange"`                                           // dB
	BaseTemperatureC     float64 `yaml:"baseTemperatureC" default:"42.0" env:"SENSOR_BASE_TEMPERATURE"` // °C
	TemperatureFlexC     float64 `yaml:"temperatureFlexC" default:"2.0" validate:"gte=0"`

	// Anomaly targets, derived multiplicatively/additively from the normal ranges.
	AnomalyVibrationFactor       float64 `yaml:"anomalyVibrationFactor" default:"5.0" validate:"gt=0"`
	TemperatureCriticalIncreaseC float64 `yaml:"temperatureCriticalIncreaseC" default:"15.0" validate:"gt=0"`
	AcousticAnomalyFactor        float64 `yaml:"acousticAnomalyFactor" default:"1.5" validate:"gt=0"`

	// Lifecycle timing.
	RampDurationTicks       int     `yaml:"rampDurationTicks" default:"10" validate:"gt=0"`
	HoldDurationTicks       int     `yaml:"holdDurationTicks" default:"15" validate:"gt=0"`
	InitialNormalTicks      int     `yaml:"initialNormalTicks" default:"6" validate:"gte=0"`
	AnomalyStartProbability float64 `yaml:"anomalyStartProbability" default:"0.15" validate:"gte=0,lte=1"`

	// Per-channel Gaussian noise during the normal phase.
	VibrationNoiseStd   float64 `yaml:"vibrationNoiseStd" default:"0.02" validate:"gte=0"`
	TemperatureNoiseStd float64 `yaml:"temperatureNoiseStd" default:"0.2" validate:"gte=0"`
	AcousticNoiseStd    float64 `yaml:"acousticNoiseStd" default:"0.5" validate:"gte=0"`

	// Shared latent fluctuation: one Gaussian sample per tick nudges all three
	// channels, scaled per channel. The only cross-channel coupling.
	CommonNoiseStd             float64 `yaml:"commonNoiseStd" default:"0.005" validate:"gte=0"`
	CommonInfluenceVibration   float64 `yaml:"commonInfluenceVibration" default:"1.0"`
	CommonInfluenceTemperature float64 `yaml:"commonInfluenceTemperature" default:"10.0"`
	CommonInfluenceAcoustic    float64 `yaml:"commonInfluenceAcoustic" default:"5.0"`

	// AnomalyJitterFactor multiplies the normal noise std during anomaly phases.
	AnomalyJitterFactor float64 `yaml:"anomalyJitterFactor" default:"2.0" validate:"gte=0"`

	// Fault-signature frequencies reported during non-normal phases, and the
	// idle band sampled while normal.
	AnomalyDominantFrequencyHz  float64 `yaml:"anomalyDominantFrequencyHz" default:"121.0"`
	AnomalySignatureFrequencyHz float64 `yaml:"anomalySignatureFrequencyHz" default:"121.38"`
	IdleFrequencyBand           Range   `yaml:"idleFrequencyBand"`
}

// applyRangeDefaults fills unset Range fields. Scalar defaults come from the
// fuda struct tags; Range is a wrapper type fuda can't default via tags.
func (p *Params) applyRangeDefaults() {
	if p.VibrationNormalRange.IsZero() {
		p.VibrationNormalRange = Range{Lo: 0.1, Hi: 0.5}
	}
	if p.AcousticNormalRange.IsZero() {
		p.AcousticNormalRange = Range{Lo: 20.0, Hi: 35.0}
	}
	if p.IdleFrequencyBand.IsZero() {
		p.IdleFrequencyBand = Range{Lo: 55.0, Hi: 65.0}
	}
}

// validate rejects programmer errors the tick function cannot recover from.
func (p *Params) validate() error {
	if p.RampDurationTicks <= 0 {
		return fmt.Errorf("telemetry: rampDurationTicks must be > 0, got %d", p.RampDurationTicks)
	}
	if p.HoldDurationTicks <= 0 {
		return fmt.Errorf("telemetry: holdDurationTicks must be > 0, got %d", p.HoldDurationTicks)
	}
	if p.InitialNormalTicks < 0 {
		return fmt.Errorf("telemetry: initialNormalTicks must be >= 0, got %d", p.InitialNormalTicks)
	}
	if p.AnomalyStartProbability < 0 || p.AnomalyStartProbability > 1 {
		return fmt.Errorf("telemetry: anomalyStartProbability must be in [0,1], got %g", p.AnomalyStartProbability)
	}
	if p.VibrationNormalRange.Lo > p.VibrationNormalRange.Hi {
		return fmt.Errorf("telemetry: vibrationNormalRange is inverted: [%g, %g]",
			p.VibrationNormalRange.Lo, p.VibrationNormalRange.Hi)
	}
	if p.AcousticNormalRange.Lo > p.AcousticNormalRange.Hi {
		return fmt.Errorf("telemetry: acousticNormalRange is inverted: [%g, %g]",
			p.AcousticNormalRange.Lo, p.AcousticNormalRange.Hi)
	}
	if p.IdleFrequencyBand.Lo > p.IdleFrequencyBand.Hi {
		return fmt.Errorf("telemetry: idleFrequencyBand is inverted: [%g, %g]",
			p.IdleFrequencyBand.Lo, p.IdleFrequencyBand.Hi)
	}

	return nil
}

// ChannelConfig holds the derived fixed quantities for one physical channel.
type ChannelConfig struct {
	// Base is the normal-phase baseline (midpoint of the normal range, or the
	// configured base temperature).
	Base float64
	// Target is the anomaly peak value the channel ramps toward.
	Target float64
	// RampStep is the per-tick linear step (Target-Base)/RampDurationTicks.
	RampStep float64
	// NoiseStd is the normal-phase Gaussian noise std-dev.
	NoiseStd float64
	// CommonScale scales the shared latent fluctuation for this channel.
	CommonScale float64
	// ClampLo/ClampHi bound the channel while in the normal phase.
	ClampLo float64
	ClampHi float64
}

// Config is the validated, derived generator configuration.
// Produced once by Configure; treated as immutable afterwards.
type Config struct {
	Vibration   ChannelConfig
	Temperature ChannelConfig
	Acoustic    ChannelConfig

	CommonNoiseStd      float64
	AnomalyJitterFactor float64

	RampDurationTicks  int
	HoldDurationTicks  int
	InitialNormalTicks int
	StartProbability   float64

	DominantFreqHz  float64
	SignatureFreqHz float64
	IdleFreqLo      float64
	IdleFreqHi      float64
}

// Configure validates raw parameters and derives the fixed quantities the
// tick function needs: baseline midpoints, anomaly targets and linear ramp
// steps per channel.
func Configure(params Params) (*Config, error) {
	params.applyRangeDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}

	rampTicks := float64(params.RampDurationTicks)

	vibBase := params.VibrationNormalRange.Mid()
	vibTarget := params.VibrationNormalRange.Hi * params.AnomalyVibrationFactor

	tempBase := params.BaseTemperatureC
	tempTarget := params.BaseTemperatureC + params.TemperatureCriticalIncreaseC

	acouBase := params.AcousticNormalRange.Mid()
	acouTarget := params.AcousticNormalRange.Hi * params.AcousticAnomalyFactor

	return &Config{
		Vibration: ChannelConfig{
			Base:        vibBase,
			Target:      vibTarget,
			RampStep:    (vibTarget - vibBase) / rampTicks,
			NoiseStd:    params.VibrationNoiseStd,
			CommonScale: params.CommonInfluenceVibration,
			ClampLo:     params.VibrationNormalRange.Lo,
			ClampHi:     params.VibrationNormalRange.Hi,
		},
		Temperature: ChannelConfig{
			Base:        tempBase,
			Target:      tempTarget,
			RampStep:    (tempTarget - tempBase) / rampTicks,
			NoiseStd:    params.TemperatureNoiseStd,
			CommonScale: params.CommonInfluenceTemperature,
			ClampLo:     tempBase - params.TemperatureFlexC,
			ClampHi:     tempBase + params.TemperatureFlexC,
		},
		Acoustic: ChannelConfig{
			Base:        acouBase,
			Target:      acouTarget,
			RampStep:    (acouTarget - acouBase) / rampTicks,
			NoiseStd:    params.AcousticNoiseStd,
			CommonScale: params.CommonInfluenceAcoustic,
			ClampLo:     params.AcousticNormalRange.Lo,
			ClampHi:     params.AcousticNormalRange.Hi,
		},
		CommonNoiseStd:      params.CommonNoiseStd,
		AnomalyJitterFactor: params.AnomalyJitterFactor,
		RampDurationTicks:   params.RampDurationTicks,
		HoldDurationTicks:   params.HoldDurationTicks,
		InitialNormalTicks:  params.InitialNormalTicks,
		StartProbability:    params.AnomalyStartProbability,
		DominantFreqHz:      params.AnomalyDominantFrequencyHz,
		SignatureFreqHz:     params.AnomalySignatureFrequencyHz,
		IdleFreqLo:          params.IdleFrequencyBand.Lo,
		IdleFreqHi:          params.IdleFrequencyBand.Hi,
	}, nil
}
