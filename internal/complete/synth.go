package complete

import (
	"fmt"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// maxSynthesisDepth bounds cascades of solution-added concepts
const maxSynthesisDepth = 5

// AddAdditionalConcept synthesizes conceptID at (sentence, offset), copying
// text, length and history from the alternate at index source. It is a
// no-op when the concept is already there. The solution hook is then
// called with depth+1 so it may cascade further additions.
func (cc *CompletionContext) AddAdditionalConcept(conceptID string, sentence, offset, source int, description string, negation model.Negation, reason string, depth int) error {
	if depth > maxSynthesisDepth {
		return fmt.Errorf("%w: adding %s at offset %d", internalerr.ErrRecursionDepth, conceptID, offset)
	}
	src := cc.Occurrence(sentence, offset, source)
	if src == nil {
		return internalerr.Configf("no source concept %d at sentence %d offset %d for %s", source, sentence, offset, conceptID)
	}
	s := cc.Sentences[sentence]
	if s.Concepts.Find(offset, conceptID) >= 0 {
		return nil
	}

	if description == "" {
		description = cc.describe(conceptID, offset)
	}
	s.Concepts.Insert(offset, &model.ConceptOccurrence{
		ConceptID:    conceptID,
		Negation:     negation,
		Text:         src.Text,
		Length:       src.Length,
		IsHistory:    src.IsHistory,
		PartOfSpeech: NounTag,
		Description:  description,
	})
	cc.log.Info("concept added", "concept", conceptID, "negation", negation.String(), "offset", offset, "reason", reason)

	return cc.Solution.AddAdditionalConcept(cc, Addition{
		ConceptID: conceptID,
		Sentence:  sentence,
		Offset:    offset,
		Source:    source,
		Negation:  negation,
	}, depth+1)
}
