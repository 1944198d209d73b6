package ticket

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

func TestSNPriority(t *testing.T) {
	tests := []struct {
		priority string
		want     string
	}{
		{PriorityHigh, "1"},
		{"high", "1"},
		{PriorityMedium, "2"},
		{PriorityLow, "3"},
		{"unknown", "2"},
		{"", "2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, snPriority(tt.priority), "priority %q", tt.priority)
	}
}

func TestCreateWorkOrder(t *testing.T) {
	var got tableRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/now/table/incident", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "svc-agent", user)
		require.Equal(t, "hunter2", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":{"sys_id":"abc123","number":"INC0010042"}}`))
	}))
	defer srv.Close()

	c := New(Config{
		InstanceURL:     srv.URL,
		APIUser:         "svc-agent",
		APIPassword:     "hunter2",
		Table:           "incident",
		AssignmentGroup: "Turbine Maintenance",
		Timeout:         time.Second,
	})

	number, err := c.CreateWorkOrder(context.Background(), WorkOrder{
		AssetID:          "Turbine007",
		ShortDescription: "AI DETECTED (HIGH): Gear tooth pitting - Turbine007",
		Description:      "Full diagnosis text",
		Priority:         PriorityHigh,
		RecommendedParts: []string{"P/N G-5432", "Gearbox Oil Type XYZ"},
	})
	require.NoError(t, err)
	assert.Equal(t, "INC0010042", number)

	assert.Equal(t, "1", got.Priority)
	assert.Equal(t, "1", got.Impact)
	assert.Equal(t, "1", got.Urgency)
	assert.Equal(t, "Turbine007", got.CMDBCI.DisplayValue)
	assert.Equal(t, "Turbine Maintenance", got.AssignmentGroup.DisplayValue)
	assert.Equal(t, "svc-agent", got.CallerID)
	assert.Equal(t, "Integration", got.ContactType)
	assert.Equal(t, "P/N G-5432, Gearbox Oil Type XYZ", got.RecommendedParts)
}

func TestCreateWorkOrder_FallsBackToSysID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":{"sys_id":"abc123"}}`))
	}))
	defer srv.Close()

	c := New(Config{InstanceURL: srv.URL, APIUser: "svc-agent", Table: "incident", Timeout: time.Second})

	number, err := c.CreateWorkOrder(context.Background(), WorkOrder{AssetID: "Turbine007", Priority: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "abc123", number)
}

func TestCreateWorkOrder_RejectionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient rights", http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{InstanceURL: srv.URL, APIUser: "svc-agent", Table: "incident", Timeout: time.Second})

	_, err := c.CreateWorkOrder(context.Background(), WorkOrder{AssetID: "Turbine007"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestCreateWorkOrder_Disabled(t *testing.T) {
	c := New(Config{Timeout: time.Second})

	assert.False(t, c.Enabled())
	_, err := c.CreateWorkOrder(context.Background(), WorkOrder{AssetID: "Turbine007"})
	require.Error(t, err)
}
