package complete

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

func compileRules(t *testing.T, src string, extraKnown ...string) *rules.Tables {
	t.Helper()
	f, err := rules.Parse([]byte(src))
	require.NoError(t, err)
	tables, err := f.Compile(extraKnown...)
	require.NoError(t, err)
	return tables
}

// testDoc builds a document and the tagger response describing it
type testDoc struct {
	text string
	resp model.TaggerResponse
}

// newTestDoc joins sentences with single spaces
func newTestDoc(sentences ...string) *testDoc {
	d := &testDoc{}
	for i, s := range sentences {
		if i > 0 {
			d.text += " "
		}
		d.resp.Sentences = append(d.resp.Sentences, model.TaggedSentence{Start: len(d.text), Text: s})
		d.text += s
	}
	return d
}

// concept tags the first occurrence of text at or after from
func (d *testDoc) concept(id, text string, from int) int {
	start := from + strings.Index(d.text[from:], text)
	d.resp.Concepts = append(d.resp.Concepts, model.RawConcept{
		ID:           id,
		Start:        start,
		Length:       len(text),
		PartOfSpeech: "NN",
		Text:         text,
	})
	return start
}

func newTestContext(tables *rules.Tables, sol Solution, d *testDoc) *CompletionContext {
	return NewCompletionContext(tables, sol, d.text, WithLogger(logger.NewLogger(logger.TestConfig())))
}

func occurrence(t *testing.T, cc *CompletionContext, offset int, id string) *model.ConceptOccurrence {
	t.Helper()
	for _, s := range cc.Sentences {
		if i := s.Concepts.Find(offset, id); i >= 0 {
			return s.Concepts[offset][i]
		}
	}
	t.Fatalf("no %s at offset %d", id, offset)
	return nil
}

func countConcept(cc *CompletionContext, id string) int {
	n := 0
	for _, c := range model.Flatten(cc.Sentences) {
		if c.ConceptID == id {
			n++
		}
	}
	return n
}
