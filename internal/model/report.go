package model

import "time"

// CodedDocument is the finalized result of completing one document
type CodedDocument struct {
	ID        string    `json:"id"`        // ULID assigned when coding started
	Name      string    `json:"name"`      // Source name (file path or "stdin")
	Solution  string    `json:"solution"`  // Solution that supplied the hooks
	CodedAt   time.Time `json:"coded_at"`  // When completion finished
	Document  string    `json:"document"`  // Prepared document text

	Sentences []*Sentence    `json:"sentences"`
	Concepts  []CodedConcept `json:"concepts"`           // Flattened view of every occurrence
	Warnings  []Warning      `json:"warnings,omitempty"` // Data warnings raised while coding
	Summary   *Summary       `json:"summary,omitempty"`
}

// CodedConcept is a flattened occurrence with its location
type CodedConcept struct {
	Sentence    int      `json:"sentence"` // Sentence index (0-based)
	Offset      int      `json:"offset"`   // Document offset
	Section     string   `json:"section"`
	ConceptID   string   `json:"concept_id"`
	Negation    Negation `json:"negation"`
	IsHistory   bool     `json:"is_history"`
	Used        bool     `json:"used"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
}

// WarningKind classifies a non-fatal data problem
type WarningKind string

const (
	WarningUnknownConcept     WarningKind = "unknown_concept"     // Tagger concept absent from every rule table
	WarningMissingDescription WarningKind = "missing_description" // No configured description for a concept
)

// Warning is a data problem that was logged and skipped
type Warning struct {
	Kind      WarningKind `json:"kind"`
	ConceptID string      `json:"concept_id,omitempty"`
	Offset    int         `json:"offset"`
	Message   string      `json:"message"`
}

// Flatten lists every occurrence in sentence then offset order
func Flatten(sentences []*Sentence) []CodedConcept {
	var out []CodedConcept
	for i, s := range sentences {
		for _, offset := range s.Concepts.Offsets() {
			for _, occ := range s.Concepts[offset] {
				out = append(out, CodedConcept{
					Sentence:    i,
					Offset:      offset,
					Section:     s.Section,
					ConceptID:   occ.ConceptID,
					Negation:    occ.Negation,
					IsHistory:   occ.IsHistory,
					Used:        occ.Used,
					Text:        occ.Text,
					Description: occ.Description,
				})
			}
		}
	}
	return out
}
