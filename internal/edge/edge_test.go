package edge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/turbsim/internal/telemetry"
)

func testThresholds() Thresholds {
	return Thresholds{TemperatureCriticalC: 50.0, VibrationAnomalyAmpG: 2.0}
}

func normalReading() telemetry.Reading {
	return telemetry.Reading{
		AssetID:      "Turbine007",
		Timestamp:    "2026-03-15T08:00:00.000Z",
		VibrationG:   0.3,
		TemperatureC: 42.0,
		AcousticDB:   27.5,
		Status:       telemetry.StatusNormal,
	}
}

func breachedReading() telemetry.Reading {
	r := normalReading()
	r.VibrationG = 2.4
	r.TemperatureC = 56.8
	r.Status = telemetry.StatusAnomaly
	r.AnomalyActive = true

	return r
}

func TestDetect(t *testing.T) {
	d := NewDetector(testThresholds())

	tests := []struct {
		name      string
		reading   telemetry.Reading
		wantTypes []string
	}{
		{
			name:      "within limits",
			reading:   normalReading(),
			wantTypes: nil,
		},
		{
			name: "temperature breach only",
			reading: func() telemetry.Reading {
				r := normalReading()
				r.TemperatureC = 50.1
				return r
			}(),
			wantTypes: []string{AnomalyCriticalTemperature},
		},
		{
			name: "vibration breach only",
			reading: func() telemetry.Reading {
				r := normalReading()
				r.VibrationG = 2.01
				return r
			}(),
			wantTypes: []string{AnomalyHighAmplitudeVibration},
		},
		{
			name:      "both breached, temperature reported first",
			reading:   breachedReading(),
			wantTypes: []string{AnomalyCriticalTemperature, AnomalyHighAmplitudeVibration},
		},
		{
			name: "exactly at threshold is not a breach",
			reading: func() telemetry.Reading {
				r := normalReading()
				r.TemperatureC = 50.0
				r.VibrationG = 2.0
				return r
			}(),
			wantTypes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.reading)
			require.Len(t, got, len(tt.wantTypes))
			for i, typ := range tt.wantTypes {
				assert.Equal(t, typ, got[i].Type)
				assert.NotEmpty(t, got[i].Message)
			}
		})
	}
}

type recordingEvents struct {
	levels   []string
	messages []string
}

func (r *recordingEvents) SendLog(_ context.Context, _, level, message string, _ map[string]any) error {
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, message)

	return nil
}

func newTestProcessor(t *testing.T, agentURL string) (*Processor, *recordingEvents) {
	t.Helper()

	events := &recordingEvents{}
	p := NewProcessor(Config{
		DeviceID:   "aruba-edge-01",
		Thresholds: testThresholds(),
		AgentURL:   agentURL,
		Timeout:    time.Second,
	}, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2026, 3, 15, 8, 0, 10, 0, time.UTC) }

	return p, events
}

func TestProcessor_TriggersOncePerEpisode(t *testing.T) {
	var triggers []Trigger
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tr Trigger
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tr))
		triggers = append(triggers, tr)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, events := newTestProcessor(t, srv.URL)
	ctx := context.Background()

	// Three consecutive breached readings produce exactly one trigger.
	p.Process(ctx, breachedReading())
	p.Process(ctx, breachedReading())
	p.Process(ctx, breachedReading())

	require.Len(t, triggers, 1)
	assert.True(t, p.AlertActive())

	tr := triggers[0]
	assert.Equal(t, "aruba-edge-01", tr.SourceComponent)
	assert.Equal(t, "Turbine007", tr.AssetID)
	assert.Equal(t, "2026-03-15T08:00:10.000Z", tr.TriggerTimestamp)
	require.Len(t, tr.Anomalies, 2)
	assert.Equal(t, AnomalyCriticalTemperature, tr.Anomalies[0].Type)
	assert.Equal(t, 56.8, tr.Reading.TemperatureC)

	// One critical event for the episode start.
	require.Len(t, events.levels, 1)
	assert.Equal(t, "CRITICAL", events.levels[0])
	assert.Contains(t, events.messages[0], AnomalyCriticalTemperature)
}

func TestProcessor_ClearsOnceOnRecovery(t *testing.T) {
	var triggerCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		triggerCount++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, events := newTestProcessor(t, srv.URL)
	ctx := context.Background()

	p.Process(ctx, breachedReading())
	require.True(t, p.AlertActive())

	p.Process(ctx, normalReading())
	assert.False(t, p.AlertActive())
	p.Process(ctx, normalReading())
	assert.False(t, p.AlertActive())

	// One trigger for the episode, one INFO clear event, no re-clear.
	assert.Equal(t, 1, triggerCount)
	require.Len(t, events.levels, 2)
	assert.Equal(t, "INFO", events.levels[1])
	assert.Contains(t, events.messages[1], "Cleared")
}

func TestProcessor_ReArmsAfterClear(t *testing.T) {
	var triggerCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		triggerCount++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, _ := newTestProcessor(t, srv.URL)
	ctx := context.Background()

	p.Process(ctx, breachedReading())
	p.Process(ctx, normalReading())
	p.Process(ctx, breachedReading())

	assert.Equal(t, 2, triggerCount)
	assert.True(t, p.AlertActive())
}

func TestProcessor_AgentFailureDoesNotBlockProcessing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := newTestProcessor(t, srv.URL)
	ctx := context.Background()

	// The failed escalation still opens the episode; processing continues.
	p.Process(ctx, breachedReading())
	assert.True(t, p.AlertActive())

	p.Process(ctx, normalReading())
	assert.False(t, p.AlertActive())
}

func TestProcessor_NilEventLoggerIsSafe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProcessor(Config{
		DeviceID:   "aruba-edge-01",
		Thresholds: testThresholds(),
		AgentURL:   srv.URL,
		Timeout:    time.Second,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	p.Process(context.Background(), breachedReading())
	assert.True(t, p.AlertActive())
}
