// Package complete refines tagger output into fully negotiated,
// history-aware and section-aware concept annotations.
//
// A CompletionContext carries exactly one document through the fixed
// sequence of stages in Run. Rule tables are shared and read-only; all
// mutable state lives on the context.
package complete

import (
	"fmt"
	"strings"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

// State is the position of a document in the completion sequence
type State int

const (
	Unsegmented State = iota
	Segmented
	ConceptsPlaced
	NegationExtended
	SetsResolved
	Finalized
)

func (s State) String() string {
	switch s {
	case Unsegmented:
		return "unsegmented"
	case Segmented:
		return "segmented"
	case ConceptsPlaced:
		return "concepts placed"
	case NegationExtended:
		return "negation extended"
	case SetsResolved:
		return "sets resolved"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NounTag is the part-of-speech given to pattern matched and synthesized concepts
const NounTag = "NN"

// NoSection is the section of sentences before the first section marker
const NoSection = "None"

var (
	negationTags = tagSet("NN", "NNP", "NNS", "NNPS", "JJ", "JJR", "JJS", "RB", "RBR", "RBS", "NOUN", "ADJ", "ADV")
	extendTags   = tagSet("NN", "NNP", "NNS", "NNPS", "JJ", "JJR", "JJS", "NOUN", "ADJ")
)

func tagSet(tags ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// IsNegationTag reports whether the negation decision runs for a tag (nouns, adjectives, adverbs)
func IsNegationTag(tag string) bool {
	_, ok := negationTags[strings.ToUpper(tag)]
	return ok
}

// IsExtensionTag reports whether negation extends across a tag (nouns, adjectives)
func IsExtensionTag(tag string) bool {
	_, ok := extendTags[strings.ToUpper(tag)]
	return ok
}

// CompletionContext holds one document's sentences while it is completed
type CompletionContext struct {
	Tables    *rules.Tables
	Solution  Solution
	Document  string
	Sentences []*model.Sentence
	Warnings  []model.Warning

	state State
	log   logger.Logger
}

// Option customizes a CompletionContext
type Option func(*CompletionContext)

// WithLogger sets the logger used for diagnostics
func WithLogger(l logger.Logger) Option {
	return func(cc *CompletionContext) {
		if l != nil {
			cc.log = l
		}
	}
}

// NewCompletionContext prepares a context for one prepared document
func NewCompletionContext(tables *rules.Tables, solution Solution, document string, opts ...Option) *CompletionContext {
	if solution == nil {
		solution = BaseSolution{}
	}
	cc := &CompletionContext{
		Tables:   tables,
		Solution: solution,
		Document: document,
		log:      logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// State returns the current stage of the document
func (cc *CompletionContext) State() State {
	return cc.state
}

// Log returns the context's logger
func (cc *CompletionContext) Log() logger.Logger {
	return cc.log
}

func (cc *CompletionContext) advance(from, to State) error {
	if cc.state != from {
		return fmt.Errorf("cannot move to %s from %s", to, cc.state)
	}
	cc.state = to
	cc.log.Debug("completion state", "state", to.String())
	return nil
}

// Occurrence returns the occurrence at (sentence, offset, index) or nil
func (cc *CompletionContext) Occurrence(sentence, offset, index int) *model.ConceptOccurrence {
	if sentence < 0 || sentence >= len(cc.Sentences) {
		return nil
	}
	alternates := cc.Sentences[sentence].Concepts[offset]
	if index < 0 || index >= len(alternates) {
		return nil
	}
	return alternates[index]
}

func (cc *CompletionContext) warn(kind model.WarningKind, conceptID string, offset int, msg string) {
	cc.Warnings = append(cc.Warnings, model.Warning{Kind: kind, ConceptID: conceptID, Offset: offset, Message: msg})
	cc.log.Warn(msg, "concept", conceptID, "offset", offset)
}

// describe returns the configured description, or "unknown" with a warning
func (cc *CompletionContext) describe(conceptID string, offset int) string {
	if desc, ok := cc.Tables.Description(conceptID); ok {
		return desc
	}
	cc.warn(model.WarningMissingDescription, conceptID, offset, "no description configured")
	return "unknown"
}
