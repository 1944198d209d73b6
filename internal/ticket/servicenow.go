// Package ticket files maintenance work orders through the ServiceNow table
// API.
package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	otxhttp "github.com/arloliu/otx/http"
)

// Priority levels assigned by the diagnosis pipeline.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Config configures the ServiceNow connection. An empty InstanceURL disables
// ticket creation.
type Config struct {
	InstanceURL     string        `yaml:"instanceUrl" env:"SERVICENOW_INSTANCE_URL"`
	APIUser         string        `yaml:"apiUser" env:"SERVICENOW_API_USER"`
	APIPassword     string        `yaml:"apiPassword" env:"SERVICENOW_API_PASSWORD"`
	Table           string        `yaml:"table" default:"incident"`
	AssignmentGroup string        `yaml:"assignmentGroup" default:"Turbine Maintenance"`
	Timeout         time.Duration `yaml:"timeout" default:"15s"`
}

// WorkOrder is the request to open one ticket.
type WorkOrder struct {
	AssetID          string
	ShortDescription string
	Description      string
	Priority         string
	RecommendedParts []string
}

type displayValue struct {
	DisplayValue string `json:"display_value"`
}

type tableRecord struct {
	ShortDescription string       `json:"short_description"`
	Description      string       `json:"description"`
	Priority         string       `json:"priority"`
	AssignmentGroup  displayValue `json:"assignment_group"`
	CMDBCI           displayValue `json:"cmdb_ci"`
	CallerID         string       `json:"caller_id"`
	ContactType      string       `json:"contact_type"`
	Impact           string       `json:"impact"`
	Urgency          string       `json:"urgency"`
	RecommendedParts string       `json:"u_recommended_parts"`
	SourceSystem     string       `json:"u_source_system"`
}

type tableResponse struct {
	Result struct {
		SysID  string `json:"sys_id"`
		Number string `json:"number"`
	} `json:"result"`
}

// Connector is a ServiceNow table API client authenticating with basic auth.
type Connector struct {
	cfg    Config
	client *http.Client
}

// New creates a connector. Safe to use with an empty config; CreateWorkOrder
// reports it is disabled.
func New(cfg Config) *Connector {
	return &Connector{
		cfg:    cfg,
		client: otxhttp.NewClient(otxhttp.WithTimeout(cfg.Timeout)),
	}
}

// Enabled reports whether an instance is configured.
func (c *Connector) Enabled() bool {
	return c.cfg.InstanceURL != "" && c.cfg.APIUser != ""
}

// snPriority maps pipeline priority levels to ServiceNow numeric priorities.
// Unknown levels default to medium.
func snPriority(priority string) string {
	switch strings.ToUpper(priority) {
	case PriorityHigh:
		return "1"
	case PriorityLow:
		return "3"
	default:
		return "2"
	}
}

// CreateWorkOrder opens a ticket and returns its record number (falling back
// to sys_id when the instance omits the number field).
func (c *Connector) CreateWorkOrder(ctx context.Context, wo WorkOrder) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("servicenow connector is not configured")
	}

	prio := snPriority(wo.Priority)
	record := tableRecord{
		ShortDescription: wo.ShortDescription,
		Description:      wo.Description,
		Priority:         prio,
		AssignmentGroup:  displayValue{DisplayValue: c.cfg.AssignmentGroup},
		CMDBCI:           displayValue{DisplayValue: wo.AssetID},
		CallerID:         c.cfg.APIUser,
		ContactType:      "Integration",
		Impact:           prio,
		Urgency:          prio,
		RecommendedParts: strings.Join(wo.RecommendedParts, ", "),
		SourceSystem:     "Predictive Maintenance Agent",
	}

	body, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode work order: %w", err)
	}

	url := fmt.Sprintf("%s/api/now/table/%s", strings.TrimRight(c.cfg.InstanceURL, "/"), c.cfg.Table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build work order request: %w", err)
	}
	req.SetBasicAuth(c.cfg.APIUser, c.cfg.APIPassword)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("servicenow request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("servicenow returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode servicenow response: %w", err)
	}

	if tr.Result.Number != "" {
		return tr.Result.Number, nil
	}

	return tr.Result.SysID, nil
}
