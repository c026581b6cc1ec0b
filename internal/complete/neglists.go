package complete

import (
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

type listFiring struct {
	sentence int
	trigger  *model.ConceptOccurrence
	list     rules.NegationList
}

// PropagateNegationLists cascades every negated trigger to its targets,
// first within the trigger's sentence, then across the document. A list
// fires when its section is "All" or the trigger's section; once fired,
// a document list reaches targets anywhere in the document.
func (cc *CompletionContext) PropagateNegationLists() {
	for _, f := range cc.firings(cc.Tables.SentenceNegationLists) {
		cc.applyNegationList(f, f.sentence, f.sentence)
	}
	for _, f := range cc.firings(cc.Tables.DocumentNegationLists) {
		cc.applyNegationList(f, 0, len(cc.Sentences)-1)
	}
}

func (cc *CompletionContext) firings(lists map[string][]rules.NegationList) []listFiring {
	if len(lists) == 0 {
		return nil
	}
	var out []listFiring
	for i, s := range cc.Sentences {
		for _, offset := range s.Concepts.Offsets() {
			for _, occ := range s.Concepts[offset] {
				if occ.Negation != model.Negated {
					continue
				}
				for _, l := range lists[occ.ConceptID] {
					if l.AppliesIn(s.Section) {
						out = append(out, listFiring{i, occ, l})
					}
				}
			}
		}
	}
	return out
}

func (cc *CompletionContext) applyNegationList(f listFiring, first, last int) {
	negation := model.Ambiguous
	if f.list.Negate {
		negation = model.Negated
	}
	for i := first; i <= last; i++ {
		for _, alternates := range cc.Sentences[i].Concepts {
			for _, occ := range alternates {
				if occ == f.trigger || !f.list.Has(occ.ConceptID) || occ.Negation == negation {
					continue
				}
				cc.log.Debug("negation list applied", "trigger", f.trigger.ConceptID, "target", occ.ConceptID, "negation", negation.String())
				occ.Negation = negation
			}
		}
	}
}
