// Package llm talks to an Ollama-compatible model server and turns free-form
// completions into structured diagnoses. Models do not always honor the
// JSON-only instruction, so the extraction tolerates surrounding prose.
package llm

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

// Config configures the model server connection.
type Config struct {
	BaseURL string        `yaml:"baseUrl" default:"http://localhost:11434" env:"OLLAMA_BASE_URL"`
	Model   string        `yaml:"model" default:"llama3.1:8b" env:"OLLAMA_MODEL"`
	Timeout time.Duration `yaml:"timeout" default:"120s"`
}

// Diagnosis is the structured verdict the model is instructed to produce.
// ConfidencePercentage is on the 0-100 scale as emitted by the model; callers
// normalize to a 0-1 fraction.
type Diagnosis struct {
	DiagnosisSummary     string   `json:"diagnosis_summary"`
	ConfidencePercentage float64  `json:"confidence_percentage"`
	Reasoning            string   `json:"reasoning"`
	RecommendedActions   []string `json:"recommended_actions"`
	RequiredParts        []string `json:"required_parts"`
}

// Connector is a client for the model server's generate endpoint.
type Connector struct {
	cfg    Config
	client *http.Client
}

// New creates a connector.
func New(cfg Config) *Connector {
	return &Connector{
		cfg:    cfg,
		client: otxhttp.NewClient(otxhttp.WithTimeout(cfg.Timeout)),
	}
}

// Model returns the configured model name.
func (c *Connector) Model() string {
	return c.cfg.Model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateDiagnosis sends the prompt and parses the structured diagnosis out
// of the completion.
func (c *Connector) GenerateDiagnosis(ctx context.Context, prompt string) (*Diagnosis, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("failed to decode model server response: %w", err)
	}

	return ParseDiagnosis(gen.Response)
}

// ParseDiagnosis extracts the first balanced JSON object from the completion
// text and unmarshals it. Text before and after the object is discarded.
func ParseDiagnosis(completion string) (*Diagnosis, error) {
	raw, err := firstJSONObject(completion)
	if err != nil {
		return nil, err
	}

	var d Diagnosis
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("model output is not a valid diagnosis object: %w", err)
	}

	if d.DiagnosisSummary == "" {
		return nil, fmt.Errorf("model output is missing diagnosis_summary")
	}

	return &d, nil
}

// firstJSONObject returns the first balanced top-level {...} span, respecting
// string literals and escapes.
func firstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in model output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unterminated JSON object in model output")
}
