// Package kb implements a lightweight retrieval layer over a directory of
// plain-text maintenance manuals and incident reports. Retrieval is
// line-level keyword search plus a few contextual rules keyed off the live
// sensor signature.
package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoMatchSnippet is returned when a query finds nothing, so prompts always
// carry an explicit retrieval outcome.
const NoMatchSnippet = "No specific KB articles found matching the immediate query criteria."

// SensorContext carries the live measurements that drive contextual
// retrieval rules beyond plain keyword matching.
type SensorContext struct {
	// SignatureFreqHz is the detected anomaly signature frequency, zero when
	// no signature is present.
	SignatureFreqHz float64

	// TemperatureIncreaseC is the rise above the asset's configured baseline
	// temperature.
	TemperatureIncreaseC float64
}

type document struct {
	name  string
	lines []string
}

// Store holds the loaded knowledge base. Documents are kept in memory; the
// corpus is a handful of small text files.
type Store struct {
	docs   []document
	logger *slog.Logger
}

// Load reads every .txt file in dir. Unreadable files are skipped with a
// warning; an empty corpus is not an error but is logged.
func Load(dir string, logger *slog.Logger) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base dir %s: %w", dir, err)
	}

	s := &Store{logger: logger}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn("failed to load knowledge base file", "file", entry.Name(), "error", err)
			continue
		}

		s.docs = append(s.docs, document{
			name:  entry.Name(),
			lines: strings.Split(string(content), "\n"),
		})
	}

	// ReadDir sorts by name already; keep it explicit so retrieval order is
	// stable regardless of the filesystem.
	sort.Slice(s.docs, func(i, j int) bool { return s.docs[i].name < s.docs[j].name })

	if len(s.docs) == 0 {
		logger.Warn("knowledge base is empty", "dir", dir)
	} else {
		logger.Info("knowledge base loaded", "dir", dir, "files", len(s.docs))
	}

	return s, nil
}

// Query returns deduplicated snippets matching the search terms, augmented by
// contextual rules driven by the live sensor context. Snippets are formatted
// as "file.txt:L12: line text".
func (s *Store) Query(assetID string, sc SensorContext, terms []string) []string {
	s.logger.Info("knowledge base query", "asset", assetID, "terms", terms,
		"signature_freq_hz", sc.SignatureFreqHz, "temperature_increase_c", sc.TemperatureIncreaseC)

	var snippets []string
	seen := make(map[string]struct{})
	add := func(snippet string) {
		if _, ok := seen[snippet]; !ok {
			seen[snippet] = struct{}{}
			snippets = append(snippets, snippet)
		}
	}

	for _, term := range terms {
		lower := strings.ToLower(term)
		for _, doc := range s.docs {
			for i, line := range doc.lines {
				if strings.Contains(strings.ToLower(line), lower) {
					add(fmt.Sprintf("%s:L%d: %s", doc.name, i+1, strings.TrimSpace(line)))
				}
			}
		}
	}

	// The gearbox signature band. 121.38Hz falls inside; the rules below only
	// activate for signatures in this window.
	inBand := sc.SignatureFreqHz >= 115 && sc.SignatureFreqHz <= 125

	if inBand {
		s.contextualMatch(add,
			func(content string) bool { return containsFold(content, "gear tooth pitting") },
			func(line string) bool {
				return strings.Contains(line, "115-125Hz") && strings.Contains(line, "gear tooth pitting")
			},
			fmt.Sprintf("(Context: Matched %gHz)", sc.SignatureFreqHz))

		s.contextualMatch(add,
			func(content string) bool {
				return strings.Contains(content, "G-5432") || containsFold(content, "bearing assembly failure")
			},
			func(line string) bool {
				return strings.Contains(line, "120Hz") &&
					(strings.Contains(line, "G-5432") || strings.Contains(line, "bearing assembly failure"))
			},
			fmt.Sprintf("(Context: Matched %gHz)", sc.SignatureFreqHz))
	}

	if inBand && sc.TemperatureIncreaseC > 4.5 {
		s.contextualMatch(add,
			func(content string) bool {
				return strings.Contains(content, "rise >5°C") || containsFold(content, "accelerated wear")
			},
			func(line string) bool {
				return strings.Contains(line, "GRX-II") &&
					strings.Contains(line, "oil temperature") &&
					strings.Contains(line, "rise >5°C")
			},
			fmt.Sprintf("(Context: Matched %gHz & %g°C rise)", sc.SignatureFreqHz, sc.TemperatureIncreaseC))
	}

	if len(snippets) == 0 {
		s.logger.Info("knowledge base query found no matches", "asset", assetID)
		return []string{NoMatchSnippet}
	}

	return snippets
}

// contextualMatch scans each document whose full content passes fileMatch,
// and adds the first line passing lineMatch, annotated with the context
// suffix. At most one snippet per document.
func (s *Store) contextualMatch(add func(string), fileMatch func(string) bool, lineMatch func(string) bool, context string) {
	for _, doc := range s.docs {
		if !fileMatch(strings.Join(doc.lines, "\n")) {
			continue
		}
		for i, line := range doc.lines {
			if lineMatch(line) {
				add(fmt.Sprintf("%s:L%d: %s %s", doc.name, i+1, strings.TrimSpace(line), context))
				break
			}
		}
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
