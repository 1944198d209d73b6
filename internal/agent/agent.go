// Package agent implements the AI diagnosis service. It receives anomaly
// triggers from the edge layer, retrieves knowledge base context, asks the
// model for a structured diagnosis and files a work order when the verdict
// warrants one.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/arloliu/otx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arloliu/turbsim/internal/edge"
	"github.com/arloliu/turbsim/internal/kb"
	"github.com/arloliu/turbsim/internal/llm"
	"github.com/arloliu/turbsim/internal/opsramp"
	"github.com/arloliu/turbsim/internal/ticket"
)

// Config configures the diagnosis service.
type Config struct {
	ListenAddr string `yaml:"listenAddr" default:":8000" env:"AGENT_LISTEN_ADDR"`
	AgentID    string `yaml:"agentId" default:"pcai-agent-grx2"`

	KnowledgeBaseDir string `yaml:"knowledgeBaseDir" default:"knowledge_base_files" env:"KNOWLEDGE_BASE_DIR"`

	// BaselineTemperatureC is the asset's healthy operating temperature, used
	// to express live readings as a rise above baseline.
	BaselineTemperatureC float64 `yaml:"baselineTemperatureC" default:"42.0"`

	// MaxPromptSnippets caps how many retrieved snippets enter the model
	// prompt; the full retrieval result is still event-logged.
	MaxPromptSnippets int `yaml:"maxPromptSnippets" default:"3" validate:"gt=0"`

	// ConfidenceThreshold gates work order creation for high priority
	// diagnoses, on the 0-1 scale.
	ConfidenceThreshold float64 `yaml:"confidenceThreshold" default:"0.70" validate:"gte=0,lte=1"`
}

// Diagnoser produces structured diagnoses from prompts. *llm.Connector
// satisfies it.
type Diagnoser interface {
	GenerateDiagnosis(ctx context.Context, prompt string) (*llm.Diagnosis, error)
	Model() string
}

// Ticketer files work orders. *ticket.Connector satisfies it.
type Ticketer interface {
	Enabled() bool
	CreateWorkOrder(ctx context.Context, wo ticket.WorkOrder) (string, error)
}

// Retriever answers knowledge base queries. *kb.Store satisfies it.
type Retriever interface {
	Query(assetID string, sc kb.SensorContext, terms []string) []string
}

// EventLogger mirrors pipeline milestones to the operational event log.
type EventLogger interface {
	SendLog(ctx context.Context, assetID, level, message string, details map[string]any) error
}

// Service runs the analysis pipeline for one trigger at a time. Analyze is
// stateless; concurrent triggers are safe.
type Service struct {
	cfg       Config
	retriever Retriever
	diagnoser Diagnoser
	ticketer  Ticketer
	events    EventLogger
	logger    *slog.Logger
}

// NewService wires the pipeline. events may be nil.
func NewService(cfg Config, retriever Retriever, diagnoser Diagnoser, ticketer Ticketer, events EventLogger, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		retriever: retriever,
		diagnoser: diagnoser,
		ticketer:  ticketer,
		events:    events,
		logger:    logger,
	}
}

// Result summarizes one completed analysis.
type Result struct {
	AssetID     string  `json:"asset_id"`
	Summary     string  `json:"diagnosis_summary"`
	Confidence  float64 `json:"confidence"`
	Priority    string  `json:"priority"`
	WorkOrderID string  `json:"work_order_id,omitempty"`
}

// criticalKeywords escalate a diagnosis to high priority regardless of the
// reported confidence.
var criticalKeywords = []string{"critical", "severe", "urgent", "immediate", "failure"}

// Analyze runs retrieval, diagnosis and ticketing for one edge trigger.
func (s *Service) Analyze(ctx context.Context, trigger edge.Trigger) Result {
	assetID := trigger.AssetID
	reading := trigger.Reading

	ctx, span := otx.StartInternal(ctx, "agent.analyze",
		trace.WithAttributes(
			attribute.String("asset.id", assetID),
			attribute.String("trigger.source", trigger.SourceComponent),
			attribute.Int("trigger.anomalies", len(trigger.Anomalies)),
		))
	defer span.End()

	s.logger.Info("processing anomaly trigger",
		"asset", assetID, "source", trigger.SourceComponent, "anomalies", len(trigger.Anomalies))
	s.sendEvent(ctx, assetID, opsramp.LevelInfo,
		"Received edge alert. Initiating AI analysis.",
		map[string]any{"trigger_summary": trigger.Anomalies})

	// Keep the derived rise on the same 4-decimal grid as the reading itself.
	sc := kb.SensorContext{
		TemperatureIncreaseC: math.Round((reading.TemperatureC-s.cfg.BaselineTemperatureC)*1e4) / 1e4,
	}
	if reading.SignatureFrequencyHz != nil {
		sc.SignatureFreqHz = *reading.SignatureFrequencyHz
	}

	snippets := s.retriever.Query(assetID, sc, s.searchTerms(assetID, sc))
	promptSnippets := snippets
	if len(promptSnippets) > s.cfg.MaxPromptSnippets {
		promptSnippets = promptSnippets[:s.cfg.MaxPromptSnippets]
	}
	for i, snippet := range snippets {
		s.sendEvent(ctx, assetID, opsramp.LevelInfo,
			fmt.Sprintf("KB snippet %d: %s", i+1, truncate(snippet, 200)), nil)
	}

	prompt := buildPrompt(assetID, reading, sc.TemperatureIncreaseC, promptSnippets)

	s.sendEvent(ctx, assetID, opsramp.LevelInfo,
		fmt.Sprintf("Querying model %s for diagnosis", s.diagnoser.Model()), nil)

	summary, confidence, reasoning, actions, parts, priority := s.runDiagnosis(ctx, assetID, prompt)

	level := opsramp.LevelInfo
	if priority == ticket.PriorityHigh {
		level = opsramp.LevelWarning
	}
	s.sendEvent(ctx, assetID, level,
		fmt.Sprintf("Diagnosis: %s (confidence %.1f%%)", summary, confidence*100),
		map[string]any{"priority": priority, "reasoning": reasoning})
	s.sendEvent(ctx, assetID, opsramp.LevelInfo,
		fmt.Sprintf("Recommended actions: %s", strings.Join(actions, "; ")),
		map[string]any{"actions": actions, "parts": parts})

	result := Result{
		AssetID:    assetID,
		Summary:    summary,
		Confidence: confidence,
		Priority:   priority,
	}

	if priority == ticket.PriorityHigh && confidence >= s.cfg.ConfidenceThreshold && s.ticketer != nil && s.ticketer.Enabled() {
		result.WorkOrderID = s.fileWorkOrder(ctx, assetID, summary, confidence, reasoning, actions, parts, promptSnippets, priority)
	} else {
		s.logger.Info("skipping work order creation",
			"asset", assetID, "priority", priority,
			"confidence", confidence, "threshold", s.cfg.ConfidenceThreshold)
	}

	span.SetAttributes(
		attribute.String("diagnosis.priority", result.Priority),
		attribute.Float64("diagnosis.confidence", result.Confidence),
	)

	return result
}

// runDiagnosis calls the model and normalizes its output, substituting safe
// defaults when the model fails or returns garbage.
func (s *Service) runDiagnosis(ctx context.Context, assetID, prompt string) (summary string, confidence float64, reasoning string, actions, parts []string, priority string) {
	summary = "LLM processing issue."
	reasoning = "N/A"
	actions = []string{"Manual inspection required."}
	parts = []string{"N/A"}
	priority = ticket.PriorityMedium

	d, err := s.diagnoser.GenerateDiagnosis(ctx, prompt)
	if err != nil {
		s.logger.Error("diagnosis generation failed", "asset", assetID, "error", err)
		s.sendEvent(ctx, assetID, opsramp.LevelError,
			"LLM interaction failed or returned malformed data.",
			map[string]any{"error": err.Error()})

		return summary, confidence, reasoning, actions, parts, priority
	}

	summary = d.DiagnosisSummary
	confidence = d.ConfidencePercentage / 100.0
	reasoning = d.Reasoning
	if len(d.RecommendedActions) > 0 {
		actions = d.RecommendedActions
	}
	if len(d.RequiredParts) > 0 {
		parts = d.RequiredParts
	}

	lower := strings.ToLower(summary)
	escalate := false
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			escalate = true
			break
		}
	}

	switch {
	case confidence > 0.75 || escalate:
		priority = ticket.PriorityHigh
	case confidence > 0.50:
		priority = ticket.PriorityMedium
	default:
		priority = ticket.PriorityLow
	}

	s.logger.Info("diagnosis complete",
		"asset", assetID, "summary", summary,
		"confidence", confidence, "priority", priority)

	return summary, confidence, reasoning, actions, parts, priority
}

func (s *Service) fileWorkOrder(ctx context.Context, assetID, summary string, confidence float64, reasoning string, actions, parts, snippets []string, priority string) string {
	s.sendEvent(ctx, assetID, opsramp.LevelInfo,
		"Initiating work order creation (high priority, high confidence).", nil)

	number, err := s.ticketer.CreateWorkOrder(ctx, ticket.WorkOrder{
		AssetID:          assetID,
		ShortDescription: fmt.Sprintf("AI DETECTED (%s): %s - %s", priority, truncate(summary, 80), assetID),
		Description:      buildWorkOrderDescription(s.diagnoser.Model(), summary, confidence, reasoning, actions, parts, snippets),
		Priority:         priority,
		RecommendedParts: parts,
	})
	if err != nil {
		s.logger.Error("work order creation failed", "asset", assetID, "error", err)
		s.sendEvent(ctx, assetID, opsramp.LevelError,
			"Failed to create work order.", map[string]any{"error": err.Error()})

		return ""
	}

	s.logger.Info("work order created", "asset", assetID, "work_order", number)
	s.sendEvent(ctx, assetID, opsramp.LevelInfo,
		fmt.Sprintf("Work order %s created.", number), nil)

	return number
}

// searchTerms builds the retrieval query: fixed domain terms, the asset id,
// and the signature frequency rendered as e.g. "121hz" when present.
func (s *Service) searchTerms(assetID string, sc kb.SensorContext) []string {
	terms := []string{"failure", "maintenance", "vibration", "temperature", "acoustic", "GRX-II", assetID}
	if sc.SignatureFreqHz > 0 {
		terms = append(terms, fmt.Sprintf("%dhz", int(sc.SignatureFreqHz)))
	}

	return terms
}

func (s *Service) sendEvent(ctx context.Context, assetID, level, message string, details map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.SendLog(ctx, assetID, level, message, details); err != nil {
		s.logger.Warn("event log delivery failed", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
