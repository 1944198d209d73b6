package kb

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKB(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

func loadKB(t *testing.T, files map[string]string) *Store {
	t.Helper()

	s, err := Load(writeKB(t, files), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return s
}

func TestLoad_OnlyTextFiles(t *testing.T) {
	s := loadKB(t, map[string]string{
		"manual.txt":  "Gearbox maintenance manual.",
		"ignored.pdf": "binary stuff",
		"notes.txt":   "Bearing notes.",
	})

	assert.Len(t, s.docs, 2)
	assert.Equal(t, "manual.txt", s.docs[0].name)
	assert.Equal(t, "notes.txt", s.docs[1].name)
}

func TestLoad_MissingDirIsError(t *testing.T) {
	_, err := Load("/nonexistent/kb", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestQuery_KeywordSearchIsCaseInsensitiveAndDeduped(t *testing.T) {
	s := loadKB(t, map[string]string{
		"manual.txt": "Line one about GEARBOX wear.\nUnrelated line.\nAnother gearbox reference.",
	})

	// Two terms hitting the same line must yield a single snippet for it.
	got := s.Query("Turbine007", SensorContext{}, []string{"gearbox", "Gearbox wear"})

	require.Len(t, got, 2)
	assert.Equal(t, "manual.txt:L1: Line one about GEARBOX wear.", got[0])
	assert.Equal(t, "manual.txt:L3: Another gearbox reference.", got[1])
}

func TestQuery_NoMatchesReturnsFallback(t *testing.T) {
	s := loadKB(t, map[string]string{"manual.txt": "Nothing relevant here."})

	got := s.Query("Turbine007", SensorContext{}, []string{"hydraulics"})

	require.Len(t, got, 1)
	assert.Equal(t, NoMatchSnippet, got[0])
}

const gearboxManual = `GRX-II Gearbox Service Manual
Vibration in the 115-125Hz band with rising amplitude indicates gear tooth pitting on the intermediate shaft.
Persistent 120Hz spectral spikes preceded bearing assembly failure in unit G-5432 during the 2024 overhaul season.
For GRX-II units, an oil temperature rise >5°C above baseline confirms accelerated wear when paired with spectral anomalies.
`

func TestQuery_ContextualRulesFireInsideSignatureBand(t *testing.T) {
	s := loadKB(t, map[string]string{"gearbox.txt": gearboxManual})

	got := s.Query("Turbine007", SensorContext{
		SignatureFreqHz:      121.38,
		TemperatureIncreaseC: 15.0,
	}, nil)

	require.Len(t, got, 3)
	assert.Contains(t, got[0], "gear tooth pitting")
	assert.Contains(t, got[0], "(Context: Matched 121.38Hz)")
	assert.Contains(t, got[1], "G-5432")
	assert.Contains(t, got[2], "oil temperature rise >5°C")
	assert.Contains(t, got[2], "15°C rise")
}

func TestQuery_ContextualRulesSilentOutsideBand(t *testing.T) {
	s := loadKB(t, map[string]string{"gearbox.txt": gearboxManual})

	got := s.Query("Turbine007", SensorContext{
		SignatureFreqHz:      60.0,
		TemperatureIncreaseC: 15.0,
	}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, NoMatchSnippet, got[0])
}

func TestQuery_TemperatureRuleNeedsSufficientRise(t *testing.T) {
	s := loadKB(t, map[string]string{"gearbox.txt": gearboxManual})

	got := s.Query("Turbine007", SensorContext{
		SignatureFreqHz:      121.38,
		TemperatureIncreaseC: 2.0,
	}, nil)

	// Pitting and bearing rules match, oil temperature rule must not.
	require.Len(t, got, 2)
	for _, snippet := range got {
		assert.NotContains(t, snippet, "oil temperature")
	}
}

func TestQuery_ContextualSnippetsDedupeAgainstKeywordHits(t *testing.T) {
	s := loadKB(t, map[string]string{"gearbox.txt": gearboxManual})

	got := s.Query("Turbine007", SensorContext{SignatureFreqHz: 121.38},
		[]string{"gear tooth pitting"})

	// The keyword hit and the contextual hit land on the same line; the
	// contextual variant carries the annotation so both survive dedup.
	require.Len(t, got, 3)
	assert.NotContains(t, got[0], "(Context:")
	assert.Contains(t, got[1], "(Context: Matched 121.38Hz)")
}
