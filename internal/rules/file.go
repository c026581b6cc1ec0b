package rules

import (
	"os"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a rules file
type File struct {
	Solution      SolutionSection   `yaml:"solution"`
	Descriptions  map[string]string `yaml:"descriptions"`
	OtherConcepts []string          `yaml:"otherConcepts"`
	Equivalents   []EquivalentRow   `yaml:"equivalents"`

	Labels []SubstitutionRow `yaml:"labels"`
	Terms  []SubstitutionRow `yaml:"terms"`

	HistoryMarkers []MarkerRow  `yaml:"historyMarkers"`
	PreHistory     []string     `yaml:"preHistory"`
	SectionMarkers []SectionRow `yaml:"sectionMarkers"`

	ButBoundaries          []string    `yaml:"butBoundaries"`
	PreNegation            []ScopedRow `yaml:"preNegation"`
	ImmediatePreNegation   []ScopedRow `yaml:"immediatePreNegation"`
	PreAmbiguous           []ScopedRow `yaml:"preAmbiguous"`
	ImmediatePreAmbiguous  []ScopedRow `yaml:"immediatePreAmbiguous"`
	PostNegation           []ExceptRow `yaml:"postNegation"`
	ImmediatePostNegation  []ExceptRow `yaml:"immediatePostNegation"`
	PostAmbiguous          []ExceptRow `yaml:"postAmbiguous"`
	ImmediatePostAmbiguous []ExceptRow `yaml:"immediatePostAmbiguous"`

	PreModifiers     []ModifierRow        `yaml:"preModifiers"`
	PostModifiers    []ModifierRow        `yaml:"postModifiers"`
	SentenceConcepts []SentenceConceptRow `yaml:"sentenceConcepts"`
	GrossNegations   []GrossNegationRow   `yaml:"grossNegations"`

	SentenceNegationLists []NegationListRow `yaml:"sentenceNegationLists"`
	DocumentNegationLists []NegationListRow `yaml:"documentNegationLists"`

	ConceptSets []ConceptSetRow `yaml:"conceptSets"`
}

// SolutionSection selects the solution and carries its private data
type SolutionSection struct {
	Name string    `yaml:"name"`
	Data yaml.Node `yaml:"data"`
}

type EquivalentRow struct {
	Concept     string   `yaml:"concept"`     // Substituted id
	Equivalents []string `yaml:"equivalents"` // Recognized ids replaced by Concept
}

type SubstitutionRow struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

type MarkerRow struct {
	Pattern string `yaml:"pattern"`
	Case    bool   `yaml:"case"`  // Case sensitive
	Start   bool   `yaml:"start"` // Starts history; false ends it
}

type SectionRow struct {
	Pattern string `yaml:"pattern"`
	Section string `yaml:"section"`
	Case    bool   `yaml:"case"`
}

type ScopedRow struct {
	Pattern  string   `yaml:"pattern"`
	Concepts []string `yaml:"concepts,omitempty"`
}

type ExceptRow struct {
	Pattern string `yaml:"pattern"`
	Except  string `yaml:"except,omitempty"`
}

// ModifierRow uses concept notation: "-C1" negated, "?C1" ambiguous
type ModifierRow struct {
	Concept    string `yaml:"concept"`
	NewConcept string `yaml:"newConcept"`
	Modifier   string `yaml:"modifier"`
}

type SentenceConceptRow struct {
	Concept string `yaml:"concept"` // Notation carries the default negation
	Pattern string `yaml:"pattern"`
}

type GrossNegationRow struct {
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Sentences int    `yaml:"sentences"`
}

type NegationListRow struct {
	Trigger string   `yaml:"trigger"`
	Section string   `yaml:"section"`
	Negate  bool     `yaml:"negate"`
	Targets []string `yaml:"targets"`
}

// ConceptSetRow describes one set; Kind is "sequence" or "set",
// Scope is "sentence" or "document".
type ConceptSetRow struct {
	Concept   string   `yaml:"concept"`
	Kind      string   `yaml:"kind"`
	Scope     string   `yaml:"scope"`
	Strict    bool     `yaml:"strict,omitempty"`
	Sentences int      `yaml:"sentences,omitempty"`
	Asserted  bool     `yaml:"asserted"`
	Members   []string `yaml:"members"`
}

// Load reads a rules file without compiling it
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, internalerr.Configf("read rules: %v", err)
	}
	return Parse(data)
}

// Parse decodes rules YAML
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, internalerr.Configf("parse rules: %v", err)
	}
	return &f, nil
}
