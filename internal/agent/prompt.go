package agent

import (
	"fmt"
	"strings"

	"github.com/arloliu/turbsim/internal/kb"
	"github.com/arloliu/turbsim/internal/telemetry"
)

const promptTemplate = `You are an expert AI Predictive Maintenance diagnostician for industrial wind turbines, model GRX-II.
Your task is to analyze the provided live sensor data and contextual information from the knowledge base to diagnose potential faults.

Current Live Sensor Data:
%s

%s
Based on all the above information, please provide a diagnosis.
Your response MUST be a single, valid JSON object. Do not include any text outside of this JSON object.
The JSON object must have the following exact keys and data types:
- "diagnosis_summary": (string) A concise summary of the most probable fault. If no specific fault is clear, state that further investigation is needed.
- "confidence_percentage": (float) Your confidence in this diagnosis, as a percentage (e.g., 85.5 for 85.5%%). This should be a numerical value.
- "reasoning": (string) A brief explanation of how you arrived at the diagnosis, referencing specific sensor data points and knowledge base snippets if applicable.
- "recommended_actions": (list of strings) A list of 1 to 3 actionable steps for maintenance personnel.
- "required_parts": (list of strings) A list of part numbers or names potentially required for the repair. Use an empty list [] if no specific parts can be determined.

Ensure the output is only the JSON object, starting with { and ending with }.

Now, generate ONLY the JSON output for the provided data:
`

// buildPrompt renders the diagnosis prompt from the live reading and the
// retrieved knowledge base snippets.
func buildPrompt(assetID string, r telemetry.Reading, tempIncreaseC float64, snippets []string) string {
	var sensor strings.Builder
	fmt.Fprintf(&sensor, "Asset ID: %s\n", assetID)
	fmt.Fprintf(&sensor, "Timestamp of data: %s\n", r.Timestamp)
	fmt.Fprintf(&sensor, "Temperature: %g°C (Increase from baseline: %g°C)\n", r.TemperatureC, tempIncreaseC)
	fmt.Fprintf(&sensor, "Overall Vibration: %gg @ %gHz\n", r.VibrationG, r.DominantFrequencyHz)
	if r.SignatureFrequencyHz != nil {
		fmt.Fprintf(&sensor, "Specific Vibration Anomaly Signature: %gHz\n", *r.SignatureFrequencyHz)
	}
	fmt.Fprintf(&sensor, "Acoustic Overall: %gdB", r.AcousticDB)

	var kbContext strings.Builder
	kbContext.WriteString("Relevant information from knowledge base (if any):\n")
	if len(snippets) > 0 && snippets[0] != kb.NoMatchSnippet {
		for i, snippet := range snippets {
			fmt.Fprintf(&kbContext, "KB%d: %s\n", i+1, snippet)
		}
	} else {
		kbContext.WriteString("No specific highly relevant articles were found for the immediate sensor readings and query.\n")
	}

	return fmt.Sprintf(promptTemplate, sensor.String(), kbContext.String())
}

// buildWorkOrderDescription renders the free-text body of a work order from
// the diagnosis and its supporting context.
func buildWorkOrderDescription(model, summary string, confidence float64, reasoning string, actions, parts, snippets []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI Diagnosis (%s):\n%s\n\n", model, summary)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", confidence*100)
	fmt.Fprintf(&b, "AI Reasoning: %s\n\n", reasoning)

	b.WriteString("Recommended Actions:\n")
	for _, action := range actions {
		fmt.Fprintf(&b, "- %s\n", action)
	}

	fmt.Fprintf(&b, "\nPotentially Required Parts: %s\n\n", strings.Join(parts, ", "))

	b.WriteString("Key KB Snippets Considered:\n")
	if len(snippets) > 0 && snippets[0] != kb.NoMatchSnippet {
		for _, snippet := range snippets {
			fmt.Fprintf(&b, "- %s\n", truncate(snippet, 150))
		}
	} else {
		b.WriteString("- No specific KB articles retrieved.\n")
	}

	return b.String()
}
