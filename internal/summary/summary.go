// Package summary counts what coding produced and flags documents that
// need a second look.
package summary

import (
	"fmt"

	"github.com/ppiankov/autocoding/internal/model"
)

// Thresholds for raising signal severity
const (
	minRecognition   = 0.8  // Below: warning
	poorRecognition  = 0.5  // Below: critical
	maxAmbiguous     = 0.25 // Above: warning
	maxUnusedWarning = 0.5  // Above: warning
)

// Summarizer builds a Summary from a coded document
type Summarizer struct{}

// NewSummarizer creates a new summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// Summarize counts occurrences by state and derives diagnostic signals
func (s *Summarizer) Summarize(doc *model.CodedDocument) *model.Summary {
	sum := &model.Summary{Sentences: len(doc.Sentences)}

	seen := make(map[string]bool)
	for _, c := range doc.Concepts {
		sum.Concepts++
		switch c.Negation {
		case model.Negated:
			sum.Negated++
		case model.Ambiguous:
			sum.Ambiguous++
		default:
			sum.Asserted++
			if !c.Used {
				sum.Unused++
			}
		}
		if c.IsHistory {
			sum.History++
		}
		if c.Section != "" && !seen[c.Section] {
			seen[c.Section] = true
			sum.Sections = append(sum.Sections, c.Section)
		}
	}

	if sum.Concepts == 0 {
		sum.Signals = append(sum.Signals, model.Signal{
			Type:        model.SignalEmpty,
			Severity:    model.SeverityCritical,
			Description: "No concepts coded",
			Data:        map[string]any{"sentences": sum.Sentences},
		})
	}

	sum.Signals = append(sum.Signals, s.recognition(doc))
	if sum.Concepts > 0 {
		sum.Signals = append(sum.Signals, s.negation(sum), s.unused(sum))
		if sum.History > 0 {
			sum.Signals = append(sum.Signals, model.Signal{
				Type:        model.SignalHistory,
				Severity:    model.SeverityInfo,
				Description: fmt.Sprintf("%d of %d occurrences are history", sum.History, sum.Concepts),
				Data:        map[string]any{"history": sum.History, "concepts": sum.Concepts},
			})
		}
	}
	return sum
}

// recognition compares concepts the rules knew against concepts skipped as unknown
func (s *Summarizer) recognition(doc *model.CodedDocument) model.Signal {
	unknown, missing := 0, 0
	for _, w := range doc.Warnings {
		switch w.Kind {
		case model.WarningUnknownConcept:
			unknown++
		case model.WarningMissingDescription:
			missing++
		}
	}

	coded := len(doc.Concepts)
	total := coded + unknown
	if total == 0 {
		return model.Signal{
			Type:        model.SignalRecognition,
			Severity:    model.SeverityInfo,
			Description: "Nothing tagged",
			Data:        map[string]any{"tagged": 0},
		}
	}

	ratio := float64(coded) / float64(total)
	severity := model.SeverityInfo
	if ratio < poorRecognition {
		severity = model.SeverityCritical
	} else if ratio < minRecognition || missing > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalRecognition,
		Severity:    severity,
		Description: fmt.Sprintf("Known concepts: %d/%d (%.0f%%)", coded, total, ratio*100),
		Data: map[string]any{
			"coded":                coded,
			"unknown":              unknown,
			"missing_descriptions": missing,
			"ratio":                ratio,
			"formula":              "coded / (coded + unknown)",
		},
	}
}

func (s *Summarizer) negation(sum *model.Summary) model.Signal {
	ratio := float64(sum.Ambiguous) / float64(sum.Concepts)
	severity := model.SeverityInfo
	if ratio > maxAmbiguous {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:     model.SignalNegation,
		Severity: severity,
		Description: fmt.Sprintf("Negation: %d asserted, %d negated, %d ambiguous",
			sum.Asserted, sum.Negated, sum.Ambiguous),
		Data: map[string]any{
			"asserted":        sum.Asserted,
			"negated":         sum.Negated,
			"ambiguous":       sum.Ambiguous,
			"ambiguous_ratio": ratio,
		},
	}
}

func (s *Summarizer) unused(sum *model.Summary) model.Signal {
	ratio := 0.0
	if sum.Asserted > 0 {
		ratio = float64(sum.Unused) / float64(sum.Asserted)
	}
	severity := model.SeverityInfo
	if ratio > maxUnusedWarning {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:        model.SignalUnused,
		Severity:    severity,
		Description: fmt.Sprintf("Uncombined asserted occurrences: %d/%d", sum.Unused, sum.Asserted),
		Data: map[string]any{
			"unused":   sum.Unused,
			"asserted": sum.Asserted,
			"ratio":    ratio,
		},
	}
}
