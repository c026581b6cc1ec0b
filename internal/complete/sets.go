package complete

import (
	"math"

	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

// setHit is a matched member of a concept set
type setHit struct {
	sentence int
	offset   int
	occ      *model.ConceptOccurrence
}

// MatchConceptSets finds every configured concept set among occurrences
// whose history state equals history, in the order sentence sequences,
// sentence sets, document sequences, document sets.
func (cc *CompletionContext) MatchConceptSets(history bool) error {
	for _, set := range cc.Tables.SentenceSequenceSets {
		if err := cc.matchSequence(set, history, "sentence sequence"); err != nil {
			return err
		}
	}
	for _, set := range cc.Tables.SentenceSets {
		if err := cc.matchUnordered(set, history, "sentence set"); err != nil {
			return err
		}
	}
	for _, set := range cc.Tables.DocumentSequenceSets {
		if err := cc.matchSequence(set, history, "document sequence"); err != nil {
			return err
		}
	}
	for _, set := range cc.Tables.DocumentSets {
		if err := cc.matchUnordered(set, history, "document set"); err != nil {
			return err
		}
	}
	return nil
}

// windowEnd returns the last sentence and the document offset closing a
// window that opens at sentence first. A span of 0 is the whole document.
func (cc *CompletionContext) windowEnd(first, span int) (int, int) {
	if span <= 0 {
		return len(cc.Sentences) - 1, math.MaxInt
	}
	last := min(first+span-1, len(cc.Sentences)-1)
	return last, cc.Sentences[last].End()
}

func (cc *CompletionContext) eligible(occ *model.ConceptOccurrence, offset int, history bool, limit int) bool {
	return occ.IsHistory == history &&
		!occ.Used &&
		offset+occ.Length <= limit &&
		cc.Tables.IsKnown(occ.ConceptID)
}

func (cc *CompletionContext) matchSequence(set rules.SequentialSet, history bool, kind string) error {
	if len(set.Members) == 0 {
		return nil
	}
	var found []setHit
	lastSentence, limit := -1, 0

	for i, s := range cc.Sentences {
		if len(found) == 0 {
			lastSentence, limit = cc.windowEnd(i, set.Sentences)
		}
		for _, offset := range s.Concepts.Offsets() {
			want := set.Members[len(found)]
			var matched, restart *model.ConceptOccurrence
			considered := false
			for _, occ := range s.Concepts[offset] {
				if !cc.eligible(occ, offset, history, limit) {
					continue
				}
				considered = true
				if want.Matches(occ.ConceptID, occ.Negation) {
					matched = occ
					break
				}
				if restart == nil && len(found) > 0 && set.Members[0].Matches(occ.ConceptID, occ.Negation) {
					restart = occ
				}
			}

			switch {
			case matched != nil:
				found = append(found, setHit{i, offset, matched})
				if len(found) == len(set.Members) {
					if err := cc.completeSet(set.Higher, found, kind); err != nil {
						return err
					}
					found = nil
					lastSentence, limit = cc.windowEnd(i, set.Sentences)
				}
			case restart != nil:
				lastSentence, limit = cc.windowEnd(i, set.Sentences)
				found = []setHit{{i, offset, restart}}
			case set.Strict && considered && len(found) > 0:
				found = nil
				lastSentence, limit = cc.windowEnd(i, set.Sentences)
			}
		}
		if len(found) > 0 && i >= lastSentence {
			found = nil
		}
	}
	return nil
}

func (cc *CompletionContext) matchUnordered(set rules.UnorderedSet, history bool, kind string) error {
	if len(set.Members) == 0 {
		return nil
	}
	var found []setHit
	remaining := set.Counts()
	lastSentence, limit := -1, 0

	for i, s := range cc.Sentences {
		if len(found) == 0 {
			lastSentence, limit = cc.windowEnd(i, set.Sentences)
		}
		for _, offset := range s.Concepts.Offsets() {
			for _, occ := range s.Concepts[offset] {
				if !cc.eligible(occ, offset, history, limit) {
					continue
				}
				member := rules.Member{Concept: occ.ConceptID, Negation: occ.Negation}
				if remaining[member] == 0 {
					continue
				}
				remaining[member]--
				found = append(found, setHit{i, offset, occ})
				if len(found) == len(set.Members) {
					if err := cc.completeSet(set.Higher, found, kind); err != nil {
						return err
					}
					found = nil
					remaining = set.Counts()
					lastSentence, limit = cc.windowEnd(i, set.Sentences)
					break
				}
			}
		}
		if len(found) > 0 && i >= lastSentence {
			found = nil
			remaining = set.Counts()
		}
	}
	return nil
}

// completeSet synthesizes the higher concept at the offset of the member
// that completed the set and marks members used as the set requests.
func (cc *CompletionContext) completeSet(higher rules.Higher, found []setHit, kind string) error {
	trigger := found[len(found)-1]
	source := indexOf(cc.Sentences[trigger.sentence].Concepts[trigger.offset], trigger.occ)
	reason := kind + " " + higher.Concept
	if err := cc.AddAdditionalConcept(higher.Concept, trigger.sentence, trigger.offset, source, "", higher.Negation, reason, 0); err != nil {
		return err
	}

	if !higher.Asserted && !cc.Solution.HigherConceptFound(cc, higher.Concept) {
		return nil
	}
	for _, hit := range found {
		if higher.Asserted || cc.Solution.SetConcept(cc, higher.Concept, hit.occ.ConceptID) {
			hit.occ.MarkUsed()
		}
	}
	return nil
}

func indexOf(alternates []*model.ConceptOccurrence, occ *model.ConceptOccurrence) int {
	for i, a := range alternates {
		if a == occ {
			return i
		}
	}
	return -1
}
