package complete

import (
	"math"
	"regexp"

	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

// Outcome is what the negation decision does to an occurrence
type Outcome int

const (
	NoChange Outcome = iota
	Negate
	MakeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case Negate:
		return "negate"
	case MakeAmbiguous:
		return "ambiguous"
	default:
		return "no change"
	}
}

// Decision explains an Outcome
type Decision struct {
	Outcome  Outcome
	Pattern  string // Pattern that decided, empty for NoChange
	Category string // Table the pattern came from
}

// Apply returns the negation an occurrence gets from the decision
func (d Decision) Apply(current model.Negation) model.Negation {
	switch d.Outcome {
	case Negate:
		return model.Negated
	case MakeAmbiguous:
		return model.Ambiguous
	default:
		return current
	}
}

type scopedTable struct {
	category string
	outcome  Outcome
	patterns []rules.ScopedPattern
}

type exceptTable struct {
	category string
	outcome  Outcome
	patterns []rules.ExceptPattern
}

// DecideNegation inspects the text around a concept, limited to the
// nearest but-boundaries on either side. The latest preceding trigger
// wins; following triggers are consulted only when nothing precedes, and
// the earliest one wins. Negation triggers are skipped for a concept that
// is already Negated. Pattern matched concepts pass model.Asserted.
func (cc *CompletionContext) DecideNegation(conceptID, matchedText string, offset, sentence int, current model.Negation) Decision {
	s := cc.Sentences[sentence]
	text := s.Text
	rel := clamp(offset-s.CharStart, 0, len(text))

	lo, hi := 0, len(text)
	for _, but := range cc.Tables.ButBoundaries {
		for _, loc := range but.FindAllStringIndex(text, -1) {
			if loc[0] < rel && loc[0] > lo {
				lo = loc[0]
			}
			if loc[0] > rel && loc[0] < hi {
				hi = loc[0]
			}
		}
	}
	before := text[lo:rel]
	after := ""
	if end := rel + len(matchedText); end < hi {
		after = text[end:hi]
	}

	var pre []scopedTable
	if current != model.Negated {
		pre = append(pre,
			scopedTable{"pre-negation", Negate, cc.Tables.PreNegation},
			scopedTable{"immediate pre-negation", Negate, cc.Tables.ImmediatePreNegation})
	}
	pre = append(pre,
		scopedTable{"immediate pre-ambiguous", MakeAmbiguous, cc.Tables.ImmediatePreAmbiguous},
		scopedTable{"pre-ambiguous", MakeAmbiguous, cc.Tables.PreAmbiguous})

	best := -1
	decision := Decision{}
	for _, table := range pre {
		for _, p := range table.patterns {
			if !p.AppliesTo(conceptID) {
				continue
			}
			if start := lastMatch(p.Pattern, before); start > best {
				best = start
				decision = Decision{Outcome: table.outcome, Pattern: p.Pattern.String(), Category: table.category}
			}
		}
	}
	if decision.Outcome != NoChange {
		return decision
	}

	post := []exceptTable{
		{"post-ambiguous", MakeAmbiguous, cc.Tables.PostAmbiguous},
		{"immediate post-ambiguous", MakeAmbiguous, cc.Tables.ImmediatePostAmbiguous},
	}
	if current != model.Negated {
		post = append(post,
			exceptTable{"post-negation", Negate, cc.Tables.PostNegation},
			exceptTable{"immediate post-negation", Negate, cc.Tables.ImmediatePostNegation})
	}

	best = math.MaxInt
	for _, table := range post {
		for _, p := range table.patterns {
			if p.Cancelled(after) {
				continue
			}
			if loc := p.Pattern.FindStringIndex(after); loc != nil && loc[0] < best {
				best = loc[0]
				decision = Decision{Outcome: table.outcome, Pattern: p.Pattern.String(), Category: table.category}
			}
		}
	}
	return decision
}

// lastMatch returns the start of the last non-overlapping match, or -1
func lastMatch(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return -1
	}
	return matches[len(matches)-1][0]
}

// CombineNegation merges a pattern's configured default with a decision.
// Agreeing unambiguous inputs assert, disagreeing ones negate, and an
// ambiguous side wins unless the decision negates it.
func CombineNegation(def model.Negation, outcome Outcome) model.Negation {
	switch outcome {
	case Negate:
		if def == model.Negated {
			return model.Asserted
		}
		return model.Negated
	case MakeAmbiguous:
		return model.Ambiguous
	default:
		return def
	}
}
