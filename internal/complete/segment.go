package complete

import (
	"fmt"
	"strings"

	"github.com/ppiankov/autocoding/internal/model"
)

// Segment builds the sentence records from the tagger's sentences,
// aligning each one with the prepared document, and annotates history
// and section for every sentence in order.
func (cc *CompletionContext) Segment(tagged []model.TaggedSentence) error {
	cursor := 0
	inHistory := false
	section := NoSection

	for _, ts := range tagged {
		start, length := cc.align(ts, cursor)
		s := &model.Sentence{
			CharStart: start,
			Length:    length,
			Text:      cc.Document[start : start+length],
			Concepts:  model.MiniDocument{},
			Shift:     start - ts.Start,

			TaggerLength: len(ts.Text),
		}
		section = cc.classifySection(s.Text, section)
		s.Section = section

		cc.Sentences = append(cc.Sentences, s)
		end, err := cc.annotateHistory(len(cc.Sentences)-1, inHistory)
		if err != nil {
			return fmt.Errorf("sentence %d: %w", len(cc.Sentences)-1, err)
		}
		inHistory = end
		cursor = max(cursor, start+length)
	}
	return nil
}

// align locates a tagger sentence in the document. The reported offset is
// trusted when the text is found there; otherwise the text is searched for
// from cursor, also in its other line-ending form, since the tagger may
// count a CRLF pair as one character.
func (cc *CompletionContext) align(ts model.TaggedSentence, cursor int) (int, int) {
	doc := cc.Document
	if ts.Start >= cursor && ts.Start+len(ts.Text) <= len(doc) && doc[ts.Start:ts.Start+len(ts.Text)] == ts.Text {
		return ts.Start, len(ts.Text)
	}
	for _, candidate := range []string{
		ts.Text,
		strings.ReplaceAll(ts.Text, "\r\n", "\n"),
		strings.ReplaceAll(strings.ReplaceAll(ts.Text, "\r\n", "\n"), "\n", "\r\n"),
	} {
		if candidate == "" {
			continue
		}
		if i := strings.Index(doc[cursor:], candidate); i >= 0 {
			return cursor + i, len(candidate)
		}
	}

	start := clamp(ts.Start, cursor, len(doc))
	length := clamp(len(ts.Text), 0, len(doc)-start)
	cc.log.Warn("sentence text not found in document", "offset", ts.Start, "length", len(ts.Text))
	return start, length
}

// owningSentence returns the sentence containing a tagger offset. Both
// bounds are in tagger coordinates.
func (cc *CompletionContext) owningSentence(taggerOffset int) (int, *model.Sentence) {
	for i, s := range cc.Sentences {
		start := s.CharStart - s.Shift
		if taggerOffset >= start && taggerOffset < start+s.TaggerLength {
			return i, s
		}
	}
	return -1, nil
}
