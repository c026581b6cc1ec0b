// Package rules holds the compiled, read-only rule tables that drive
// document completion, and loads them from a YAML rules file.
package rules

import (
	"regexp"

	"github.com/ppiankov/autocoding/internal/model"
)

// AllSections is the negation-list section name that applies everywhere
const AllSections = "All"

// Tables is the full rule configuration. Build it with Compile; never
// mutate it afterwards, it is shared by every document in flight.
type Tables struct {
	// History and sections
	HistoryMarkers []HistoryMarker
	PreHistory     []*regexp.Regexp
	SectionMarkers []SectionMarker

	// Concept identity
	Equivalents  map[string]string // Recognized id -> substituted id
	Descriptions map[string]string
	known        map[string]struct{}
	other        map[string]struct{}

	// Negation decision
	ButBoundaries          []*regexp.Regexp
	PreNegation            []ScopedPattern
	ImmediatePreNegation   []ScopedPattern
	PreAmbiguous           []ScopedPattern
	ImmediatePreAmbiguous  []ScopedPattern
	PostNegation           []ExceptPattern
	ImmediatePostNegation  []ExceptPattern
	PostAmbiguous          []ExceptPattern
	ImmediatePostAmbiguous []ExceptPattern

	// Rewriting and extension
	PreModifiers     map[string]Modifier
	PostModifiers    map[string]Modifier
	SentenceConcepts []SentenceConcept
	GrossNegations   []GrossNegation

	// Negation lists keyed by trigger concept
	SentenceNegationLists map[string][]NegationList
	DocumentNegationLists map[string][]NegationList

	// Concept sets in matching order
	SentenceSequenceSets []SequentialSet
	SentenceSets         []UnorderedSet
	DocumentSequenceSets []SequentialSet
	DocumentSets         []UnorderedSet

	// Prepare stage substitutions
	Labels []Substitution
	Terms  []Substitution
}

// IsKnown reports whether any rule table references the concept
func (t *Tables) IsKnown(conceptID string) bool {
	_, ok := t.known[conceptID]
	return ok
}

// IsOther reports whether the concept is on the quiet allow-list
func (t *Tables) IsOther(conceptID string) bool {
	_, ok := t.other[conceptID]
	return ok
}

// KnownCount returns the size of the known-concepts set
func (t *Tables) KnownCount() int {
	return len(t.known)
}

// Description returns the configured description of a concept
func (t *Tables) Description(conceptID string) (string, bool) {
	desc, ok := t.Descriptions[conceptID]
	return desc, ok
}

// HistoryMarker starts history (IsStart) or ends it
type HistoryMarker struct {
	Pattern *regexp.Regexp
	IsStart bool
}

// SectionMarker names the section that begins where Pattern matches
type SectionMarker struct {
	Pattern *regexp.Regexp
	Section string
}

// ScopedPattern is a preceding trigger, optionally limited to some concepts
type ScopedPattern struct {
	Pattern  *regexp.Regexp
	Concepts map[string]struct{} // Empty applies to every concept
}

// AppliesTo reports whether the pattern may affect conceptID
func (p ScopedPattern) AppliesTo(conceptID string) bool {
	if len(p.Concepts) == 0 {
		return true
	}
	_, ok := p.Concepts[conceptID]
	return ok
}

// ExceptPattern is a following trigger cancelled when Except also matches
type ExceptPattern struct {
	Pattern *regexp.Regexp
	Except  *regexp.Regexp // Optional
}

// Cancelled reports whether the exception matches text
func (p ExceptPattern) Cancelled(text string) bool {
	return p.Except != nil && p.Except.MatchString(text)
}

// Modifier rewrites a concept when Pattern matches next to it
type Modifier struct {
	Requires    model.Negation // Negation the occurrence must have
	NewConcept  string
	NewNegation model.Negation
	Pattern     *regexp.Regexp
}

// SentenceConcept is a concept found by pattern in sentence text
type SentenceConcept struct {
	Concept  string
	Negation model.Negation // Default negation of a match
	Pattern  *regexp.Regexp
	Text     string // Readable form of the pattern
}

// GrossNegation negates everything between Start and End within Sentences sentences
type GrossNegation struct {
	Start     *regexp.Regexp
	End       *regexp.Regexp
	Sentences int
}

// NegationList cascades a negated trigger to Targets within Section
type NegationList struct {
	Section string // AllSections or a section name
	Negate  bool   // True negates targets, false makes them ambiguous
	Targets map[string]struct{}
}

// AppliesIn reports whether the list is active in section
func (l NegationList) AppliesIn(section string) bool {
	return l.Section == AllSections || l.Section == section
}

// Has reports whether conceptID is a target
func (l NegationList) Has(conceptID string) bool {
	_, ok := l.Targets[conceptID]
	return ok
}

// Substitution replaces Pattern matches with Replacement
type Substitution struct {
	Pattern     *regexp.Regexp
	Replacement string
}
