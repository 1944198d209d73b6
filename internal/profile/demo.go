package profile

import (
	"time"

	"github.com/arloliu/turbsim/internal/telemetry"
)

// BenchDemo returns a compressed-timing profile for live demos: short
// guaranteed-normal period, fast ramps, near-certain anomaly start, and a
// one-second tick so a full cycle completes in under a minute.
func BenchDemo() *Profile {
	return &Profile{
		Name:          "bench-demo",
		Description:   "Compressed anomaly cycle for live demos and smoke tests",
		AssetIDPrefix: "BenchRig",
		AssetNumber:   1,
		Interval:      time.Second,
		Params: telemetry.Params{
			VibrationNormalRange:         telemetry.Range{Lo: 0.1, Hi: 0.5},
			AcousticNormalRange:          telemetry.Range{Lo: 20.0, Hi: 35.0},
			BaseTemperatureC:             42.0,
			TemperatureFlexC:             2.0,
			AnomalyVibrationFactor:       5.0,
			TemperatureCriticalIncreaseC: 15.0,
			AcousticAnomalyFactor:        1.5,
			RampDurationTicks:            4,
			HoldDurationTicks:            5,
			InitialNormalTicks:           3,
			AnomalyStartProbability:      0.8,
			VibrationNoiseStd:            0.02,
			TemperatureNoiseStd:          0.2,
			AcousticNoiseStd:             0.5,
			CommonNoiseStd:               0.005,
			CommonInfluenceVibration:     1.0,
			CommonInfluenceTemperature:   10.0,
			CommonInfluenceAcoustic:      5.0,
			AnomalyJitterFactor:          2.0,
			AnomalyDominantFrequencyHz:   121.0,
			AnomalySignatureFrequencyHz:  121.38,
			IdleFrequencyBand:            telemetry.Range{Lo: 55.0, Hi: 65.0},
		},
	}
}
