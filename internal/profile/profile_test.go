package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/turbsim/internal/telemetry"
)

func TestRegistry_EmbeddedProfiles(t *testing.T) {
	names := List()
	assert.Contains(t, names, "grx2-turbine")
	assert.Contains(t, names, "bench-demo")

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, ok := Get(name)
			require.True(t, ok)
			require.NotNil(t, p)
			assert.NotEmpty(t, p.Description)
			assert.Positive(t, p.Interval)

			// Every embedded profile must survive Configure.
			cfg, err := telemetry.Configure(p.Params)
			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func TestGet_UnknownProfile(t *testing.T) {
	p, ok := Get("no-such-profile")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestGRX2Turbine_DerivedTargets(t *testing.T) {
	p := GRX2Turbine()
	cfg, err := telemetry.Configure(p.Params)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.Vibration.Target, 1e-9)
	assert.InDelta(t, 57.0, cfg.Temperature.Target, 1e-9)
	assert.InDelta(t, 52.5, cfg.Acoustic.Target, 1e-9)
	assert.InDelta(t, 121.38, cfg.SignatureFreqHz, 1e-9)
}

func TestProfile_AssetID(t *testing.T) {
	p := &Profile{AssetIDPrefix: "Turbine", AssetNumber: 7}
	assert.Equal(t, "Turbine007", p.AssetID())

	p = &Profile{AssetIDPrefix: "BenchRig", AssetNumber: 123}
	assert.Equal(t, "BenchRig123", p.AssetID())
}

func TestLoadFromFile(t *testing.T) {
	content := `
name: custom-rig
description: Custom test rig
assetIdPrefix: Rig
assetNumber: 42
interval: 2s
params:
  vibrationNormalRange: [0.2, 0.6]
  baseTemperatureC: 50.0
  rampDurationTicks: 5
  holdDurationTicks: 5
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-rig", p.Name)
	assert.Equal(t, "Rig042", p.AssetID())
	assert.Equal(t, 2*time.Second, p.Interval)
	assert.InDelta(t, 0.2, p.Params.VibrationNormalRange.Lo, 1e-9)
	assert.InDelta(t, 0.6, p.Params.VibrationNormalRange.Hi, 1e-9)
	assert.InDelta(t, 50.0, p.Params.BaseTemperatureC, 1e-9)
}

func TestLoadFromFile_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("description: nameless\n"), 0o600))

	p, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	p, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	assert.Nil(t, p)
}
