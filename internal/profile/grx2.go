package profile

import (
	"time"

	"github.com/arloliu/turbsim/internal/telemetry"
)

// GRX2Turbine returns the default wind turbine profile: a GRX-II gearbox
// sensor whose fault signature is the 121.38 Hz harmonic with correlated
// vibration, temperature and acoustic excursions.
func GRX2Turbine() *Profile {
	return &Profile{
		Name:          "grx2-turbine",
		Description:   "GRX-II wind turbine gearbox sensor with 121.38 Hz fault harmonic",
		AssetIDPrefix: "Turbine",
		AssetNumber:   7,
		Interval:      10 * time.Second,
		Params: telemetry.Params{
			VibrationNormalRange:         telemetry.Range{Lo: 0.1, Hi: 0.5},  // g
			AcousticNormalRange:          telemetry.Range{Lo: 20.0, Hi: 35.0}, // dB
			BaseTemperatureC:             42.0,
			TemperatureFlexC:             2.0,
			AnomalyVibrationFactor:       5.0,  // 0.5g upper bound -> 2.5g peak
			TemperatureCriticalIncreaseC: 15.0, // 42°C -> 57°C peak
			AcousticAnomalyFactor:        1.5,  // 35dB upper bound -> 52.5dB peak
			RampDurationTicks:            10,
			HoldDurationTicks:            15,
			InitialNormalTicks:           6,
			AnomalyStartProbability:      0.15,
			VibrationNoiseStd:            0.02,
			TemperatureNoiseStd:          0.2,
			AcousticNoiseStd:             0.5,
			CommonNoiseStd:               0.005,
			CommonInfluenceVibration:     1.0,
			CommonInfluenceTemperature:   10.0, // temperature reacts most to the shared fluctuation
			CommonInfluenceAcoustic:      5.0,
			AnomalyJitterFactor:          2.0,
			AnomalyDominantFrequencyHz:   121.0,
			AnomalySignatureFrequencyHz:  121.38,
			IdleFrequencyBand:            telemetry.Range{Lo: 55.0, Hi: 65.0},
		},
	}
}
