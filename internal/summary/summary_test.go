package summary

import (
	"testing"

	"github.com/ppiankov/autocoding/internal/model"
)

func signal(t *testing.T, sum *model.Summary, typ model.SignalType) model.Signal {
	t.Helper()
	for _, s := range sum.Signals {
		if s.Type == typ {
			return s
		}
	}
	t.Fatalf("Expected a %s signal, got %+v", typ, sum.Signals)
	return model.Signal{}
}

func TestSummarize_Counts(t *testing.T) {
	doc := &model.CodedDocument{
		Sentences: make([]*model.Sentence, 2),
		Concepts: []model.CodedConcept{
			{ConceptID: "C1", Negation: model.Asserted, Used: true, Section: "Diagnosis"},
			{ConceptID: "C2", Negation: model.Asserted, Section: "Diagnosis"},
			{ConceptID: "C3", Negation: model.Negated, Section: "Macroscopic"},
			{ConceptID: "C4", Negation: model.Ambiguous, IsHistory: true},
		},
	}

	sum := NewSummarizer().Summarize(doc)

	if sum.Sentences != 2 || sum.Concepts != 4 {
		t.Errorf("Expected 2 sentences and 4 concepts, got %d and %d", sum.Sentences, sum.Concepts)
	}
	if sum.Asserted != 2 || sum.Negated != 1 || sum.Ambiguous != 1 {
		t.Errorf("Unexpected negation counts: %+v", sum)
	}
	if sum.History != 1 {
		t.Errorf("Expected 1 history occurrence, got %d", sum.History)
	}
	if sum.Unused != 1 {
		t.Errorf("Expected 1 unused occurrence, got %d", sum.Unused)
	}
	if len(sum.Sections) != 2 || sum.Sections[0] != "Diagnosis" || sum.Sections[1] != "Macroscopic" {
		t.Errorf("Expected sections in first-seen order, got %v", sum.Sections)
	}

	signal(t, sum, model.SignalHistory)
	if s := signal(t, sum, model.SignalRecognition); s.Severity != model.SeverityInfo {
		t.Errorf("Expected info recognition with no warnings, got %s", s.Severity)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := NewSummarizer().Summarize(&model.CodedDocument{})

	s := signal(t, sum, model.SignalEmpty)
	if s.Severity != model.SeverityCritical {
		t.Errorf("Expected critical severity, got %s", s.Severity)
	}
	for _, s := range sum.Signals {
		if s.Type == model.SignalNegation || s.Type == model.SignalUnused {
			t.Errorf("Did not expect a %s signal for an empty document", s.Type)
		}
	}
}

func TestSummarize_Recognition(t *testing.T) {
	tests := []struct {
		name     string
		coded    int
		unknown  int
		missing  int
		severity model.SignalSeverity
	}{
		{"all known", 4, 0, 0, model.SeverityInfo},
		{"missing description", 4, 0, 1, model.SeverityWarning},
		{"some unknown", 3, 1, 0, model.SeverityWarning},
		{"mostly unknown", 1, 3, 0, model.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &model.CodedDocument{}
			for i := 0; i < tt.coded; i++ {
				doc.Concepts = append(doc.Concepts, model.CodedConcept{ConceptID: "C", Used: true})
			}
			for i := 0; i < tt.unknown; i++ {
				doc.Warnings = append(doc.Warnings, model.Warning{Kind: model.WarningUnknownConcept})
			}
			for i := 0; i < tt.missing; i++ {
				doc.Warnings = append(doc.Warnings, model.Warning{Kind: model.WarningMissingDescription})
			}

			s := signal(t, NewSummarizer().Summarize(doc), model.SignalRecognition)
			if s.Severity != tt.severity {
				t.Errorf("Expected %s, got %s (%s)", tt.severity, s.Severity, s.Description)
			}
		})
	}
}

func TestSummarize_AmbiguousWarning(t *testing.T) {
	doc := &model.CodedDocument{Concepts: []model.CodedConcept{
		{ConceptID: "C1", Negation: model.Ambiguous},
		{ConceptID: "C2", Negation: model.Ambiguous},
		{ConceptID: "C3", Negation: model.Asserted, Used: true},
	}}

	s := signal(t, NewSummarizer().Summarize(doc), model.SignalNegation)
	if s.Severity != model.SeverityWarning {
		t.Errorf("Expected warning for 2/3 ambiguous, got %s", s.Severity)
	}
}
