package complete

import (
	"fmt"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// PlaceConcepts puts every recognized concept into its sentence. Unknown
// concepts are dropped, with a warning unless they are on the "other"
// list. Equivalents are substituted and nouns, adjectives and adverbs get
// a negation decision before the solution may veto the concept.
func (cc *CompletionContext) PlaceConcepts(concepts []model.RawConcept) error {
	for _, rc := range concepts {
		index, s := cc.owningSentence(rc.Start)
		if s == nil {
			return fmt.Errorf("%w: concept %s at offset %d", internalerr.ErrNoSentence, rc.ID, rc.Start)
		}
		offset := rc.Start + s.Shift

		id := rc.ID
		if !cc.Tables.IsKnown(id) {
			if !cc.Tables.IsOther(id) {
				cc.warn(model.WarningUnknownConcept, id, offset, fmt.Sprintf("concept %s (%s) is not used by any rule", id, rc.Text))
			}
			continue
		}

		var desc string
		if eq, ok := cc.Tables.Equivalents[id]; ok {
			desc = cc.describe(eq, offset) + " (was:" + id + ")"
			id = eq
		} else {
			desc = cc.describe(id, offset)
		}

		negation := model.Asserted
		if rc.IsNegated {
			negation = model.Negated
		}
		if IsNegationTag(rc.PartOfSpeech) {
			d := cc.DecideNegation(id, rc.Text, offset, index, negation)
			if d.Outcome != NoChange {
				cc.log.Debug("negation decided", "concept", id, "offset", offset, "outcome", d.Outcome.String(), "category", d.Category, "pattern", d.Pattern)
			}
			negation = d.Apply(negation)
		}

		length := rc.Length
		if length <= 0 {
			length = len(rc.Text)
		}
		cand := Candidate{
			ConceptID:    id,
			Negation:     negation,
			PartOfSpeech: rc.PartOfSpeech,
			IsHistory:    s.IsHistoryAt(offset),
			Sentence:     index,
			Offset:       offset,
			Length:       length,
			Text:         rc.Text,
		}
		if !cc.Solution.RequireConcept(cc, cand) {
			cc.log.Debug("concept not required", "concept", id, "offset", offset)
			continue
		}

		at, added := s.Concepts.Insert(offset, &model.ConceptOccurrence{
			ConceptID:    cand.ConceptID,
			Negation:     cand.Negation,
			Text:         cand.Text,
			Length:       cand.Length,
			IsHistory:    cand.IsHistory,
			PartOfSpeech: cand.PartOfSpeech,
			Description:  desc,
		})
		if !added {
			continue
		}
		cc.applyModifiers(index, offset, at)
	}
	return nil
}

// applyModifiers rewrites a freshly placed occurrence when a modifier for
// its concept and negation matches the text before or after it
func (cc *CompletionContext) applyModifiers(sentence, offset, index int) {
	s := cc.Sentences[sentence]
	occ := s.Concepts[offset][index]
	rel := clamp(offset-s.CharStart, 0, len(s.Text))

	// Both tables are keyed by the concept as tagged
	tagged, negation := occ.ConceptID, occ.Negation

	if m, ok := cc.Tables.PreModifiers[tagged]; ok && negation == m.Requires && m.Pattern.MatchString(s.Text[:rel]) {
		cc.rewrite(s, offset, occ, m.NewConcept, m.NewNegation, "pre-modifier")
	}
	end := clamp(rel+occ.Length, rel, len(s.Text))
	if m, ok := cc.Tables.PostModifiers[tagged]; ok && negation == m.Requires && m.Pattern.MatchString(s.Text[end:]) {
		cc.rewrite(s, offset, occ, m.NewConcept, m.NewNegation, "post-modifier")
	}
}

func (cc *CompletionContext) rewrite(s *model.Sentence, offset int, occ *model.ConceptOccurrence, concept string, negation model.Negation, kind string) {
	if concept != occ.ConceptID && s.Concepts.Find(offset, concept) >= 0 {
		cc.log.Debug("modifier target already present", "concept", occ.ConceptID, "new_concept", concept, "offset", offset)
		return
	}
	old := occ.ConceptID
	if desc, ok := cc.Tables.Description(concept); ok {
		occ.Description = desc + " (was:" + old + ")"
	} else {
		occ.Description = "unknown (was:" + old + " - " + occ.Description + ")"
	}
	occ.ConceptID = concept
	occ.Negation = negation
	cc.log.Info("concept modified", "kind", kind, "from", old, "to", concept, "negation", negation.String(), "offset", offset)
}

// MatchSentencePatterns adds the configured pattern concepts found in
// sentence text. Each match gets its own negation decision, combined with
// the pattern's default negation.
func (cc *CompletionContext) MatchSentencePatterns() {
	for _, sc := range cc.Tables.SentenceConcepts {
		for i, s := range cc.Sentences {
			for _, loc := range sc.Pattern.FindAllStringIndex(s.Text, -1) {
				if loc[1] == loc[0] {
					continue
				}
				offset := s.CharStart + loc[0]
				matched := s.Text[loc[0]:loc[1]]
				d := cc.DecideNegation(sc.Concept, matched, offset, i, model.Asserted)

				desc, ok := cc.Tables.Description(sc.Concept)
				if !ok {
					desc = sc.Text
				}
				at, added := s.Concepts.Insert(offset, &model.ConceptOccurrence{
					ConceptID:    sc.Concept,
					Negation:     CombineNegation(sc.Negation, d.Outcome),
					Text:         matched,
					Length:       len(matched),
					IsHistory:    s.IsHistoryAt(offset),
					PartOfSpeech: NounTag,
					Description:  desc,
				})
				if !added {
					continue
				}
				cc.log.Debug("sentence pattern matched", "concept", sc.Concept, "offset", offset, "pattern", sc.Text)
				cc.applyModifiers(i, offset, at)
			}
		}
	}
}
