package complete

import (
	"sort"

	"github.com/ppiankov/autocoding/internal/model"
)

// ExtendNegation applies gross negation spans, then carries negation
// forward across consecutive nouns and adjectives of each sentence until
// a but-boundary.
func (cc *CompletionContext) ExtendNegation() {
	cc.extendGross()
	cc.extendSequential()
}

func (cc *CompletionContext) extendGross() {
	for _, g := range cc.Tables.GrossNegations {
		for i := range cc.Sentences {
			last := min(i+max(g.Sentences, 1)-1, len(cc.Sentences)-1)
			base := cc.Sentences[i].CharStart
			span := cc.Document[base:cc.Sentences[last].End()]

			start := g.Start.FindStringIndex(span)
			if start == nil {
				continue
			}
			end := g.End.FindStringIndex(span[start[1]:])
			if end == nil {
				continue
			}
			from, to := base+start[1], base+start[1]+end[0]
			for k := i; k <= last; k++ {
				for offset, alternates := range cc.Sentences[k].Concepts {
					if offset < from || offset >= to {
						continue
					}
					for _, occ := range alternates {
						occ.Negation = model.Negated
					}
				}
			}
		}
	}
}

func (cc *CompletionContext) extendSequential() {
	cc.Solution.InitializeNegation(cc)
	for i, s := range cc.Sentences {
		var buts []int
		for _, but := range cc.Tables.ButBoundaries {
			for _, loc := range but.FindAllStringIndex(s.Text, -1) {
				buts = append(buts, s.CharStart+loc[0])
			}
		}
		sort.Ints(buts)

		carried := model.Asserted
		next := 0
		for _, offset := range s.Concepts.Offsets() {
			for next < len(buts) && buts[next] <= offset {
				carried = model.Asserted
				next++
			}
			current := carried
			for _, occ := range s.Concepts[offset] {
				if !IsExtensionTag(occ.PartOfSpeech) || !cc.Tables.IsKnown(occ.ConceptID) {
					continue
				}
				if occ.Negation.IsSet() {
					current = occ.Negation
				} else if carried.IsSet() {
					occ.Negation = carried
				}
			}
			cc.Solution.ExtendNegation(cc, i, offset, carried, current)
			carried = current
		}
	}
}
