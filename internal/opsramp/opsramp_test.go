package opsramp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendLog_PostsNormalizedEvent(t *testing.T) {
	var got LogEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, SourceID: "edge-sim", Timeout: time.Second})
	c.now = func() time.Time { return time.Date(2026, 3, 15, 8, 0, 0, 250e6, time.UTC) }

	err := c.SendLog(context.Background(), "Turbine007", "warning", "anomaly detected",
		map[string]any{"temperature_c": 55.2})
	require.NoError(t, err)

	assert.Equal(t, "edge-sim", got.SourceID)
	assert.Equal(t, "2026-03-15T08:00:00.250Z", got.Timestamp)
	assert.Equal(t, LevelWarning, got.LogLevel)
	assert.Equal(t, "Turbine007", got.AssetID)
	assert.Equal(t, "anomaly detected", got.Message)
	assert.Equal(t, 55.2, got.Details["temperature_c"])
}

func TestSendLog_DisabledWithoutEndpoint(t *testing.T) {
	c := New(Config{Timeout: time.Second})

	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendLog(context.Background(), "Turbine007", LevelInfo, "noop", nil))
}

func TestSendLog_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, SourceID: "edge-sim", Timeout: time.Second})

	err := c.SendLog(context.Background(), "Turbine007", LevelInfo, "ping", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
