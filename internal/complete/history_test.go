package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

const historyRules = `
historyMarkers:
  - pattern: history of
    start: true
  - pattern: now
    start: false
preHistory:
  - previously
sectionMarkers:
  - pattern: "^DIAGNOSIS"
    section: Diagnosis
    case: true
  - pattern: "^GROSS"
    section: Gross
    case: true
`

func TestSegmentHistoryMarkers(t *testing.T) {
	tables := compileRules(t, historyRules, "C1", "C2", "C3")
	d := newTestDoc("History of fever.", "Now cough.", "Cough with history of asthma.")
	fever := d.concept("C1", "fever", 0)
	cough := d.concept("C2", "Cough", 0)
	asthma := d.concept("C3", "asthma", 0)

	cc := newTestContext(tables, nil, d)
	require.NoError(t, cc.Segment(d.resp.Sentences))
	require.NoError(t, cc.PlaceConcepts(d.resp.Concepts))

	t.Run("Should toggle the starting state for a change at offset zero", func(t *testing.T) {
		assert.True(t, cc.Sentences[0].StartsInHistory)
		assert.False(t, cc.Sentences[0].HasHistoryChange)
		assert.False(t, cc.Sentences[1].StartsInHistory)
	})

	t.Run("Should record flips inside a sentence", func(t *testing.T) {
		s := cc.Sentences[2]
		assert.False(t, s.StartsInHistory)
		assert.True(t, s.HasHistoryChange)
		assert.Equal(t, []int{11}, s.HistoryFlips)
	})

	t.Run("Should derive occurrence history from start state and flips", func(t *testing.T) {
		assert.True(t, occurrence(t, cc, fever, "C1").IsHistory)
		assert.False(t, occurrence(t, cc, cough, "C2").IsHistory)
		assert.True(t, occurrence(t, cc, asthma, "C3").IsHistory)
	})
}

func TestIsHistoryAtXOR(t *testing.T) {
	s := &model.Sentence{CharStart: 100, Length: 50, StartsInHistory: true, HistoryFlips: []int{10, 20, 30}}

	cases := map[int]bool{100: true, 109: true, 110: false, 119: false, 120: true, 130: false, 149: false}
	for offset, want := range cases {
		assert.Equal(t, want, s.IsHistoryAt(offset), "offset %d", offset)
	}
}

func TestClassifyHistory(t *testing.T) {
	tables := compileRules(t, historyRules)
	cc := newTestContext(tables, nil, newTestDoc(""))

	t.Run("Should return the earliest start marker", func(t *testing.T) {
		res := cc.ClassifyHistory(false, "fever, history of asthma, history of gout", nil)
		assert.True(t, res.Found)
		assert.Equal(t, 7, res.Offset)
		assert.Equal(t, len("history of"), res.Length)
	})

	t.Run("Should ignore start markers while in history", func(t *testing.T) {
		res := cc.ClassifyHistory(true, "history of asthma", nil)
		assert.False(t, res.Found)
	})

	t.Run("Should check pre-history markers only outside history", func(t *testing.T) {
		res := cc.ClassifyHistory(false, "previously treated", nil)
		assert.True(t, res.Found)
		assert.Equal(t, 0, res.Offset)

		res = cc.ClassifyHistory(true, "previously treated", nil)
		assert.False(t, res.Found)
	})
}

func TestSegmentSections(t *testing.T) {
	tables := compileRules(t, historyRules)
	d := newTestDoc("Intro.", "DIAGNOSIS: benign.", "More text.", "GROSS: firm.")

	cc := newTestContext(tables, nil, d)
	require.NoError(t, cc.Segment(d.resp.Sentences))

	var got []string
	for _, s := range cc.Sentences {
		got = append(got, s.Section)
	}
	assert.Equal(t, []string{NoSection, "Diagnosis", "Diagnosis", "Gross"}, got)
}

func TestSegmentAlignsShiftedSentences(t *testing.T) {
	tables := compileRules(t, historyRules)
	doc := "First line.\r\nSecond line."
	cc := newTestContext(tables, nil, &testDoc{text: doc})

	// The tagger counted the CRLF pair as one character
	require.NoError(t, cc.Segment([]model.TaggedSentence{
		{Start: 0, Text: "First line."},
		{Start: 12, Text: "Second line."},
	}))

	require.Len(t, cc.Sentences, 2)
	assert.Equal(t, 13, cc.Sentences[1].CharStart)
	assert.Equal(t, 1, cc.Sentences[1].Shift)
	assert.Equal(t, "Second line.", cc.Sentences[1].Text)
}

// alwaysEarlier claims history changed one sentence back whenever it can
type alwaysEarlier struct {
	BaseSolution
}

func (alwaysEarlier) CheckHistory(_ *CompletionContext, _ bool, _ string, prior []*model.Sentence) HistoryChange {
	if len(prior) == 0 {
		return NoHistoryChange
	}
	return HistoryChange{SentencesAgo: 1}
}

func TestSegmentCorrectionDepth(t *testing.T) {
	tables := compileRules(t, "")

	t.Run("Should allow corrections two levels deep", func(t *testing.T) {
		d := newTestDoc("One.", "Two.", "Three.", "Four.")
		cc := newTestContext(tables, alwaysEarlier{}, d)
		assert.NoError(t, cc.Segment(d.resp.Sentences))
	})

	t.Run("Should fail beyond two levels", func(t *testing.T) {
		d := newTestDoc("One.", "Two.", "Three.", "Four.", "Five.")
		cc := newTestContext(tables, alwaysEarlier{}, d)
		err := cc.Segment(d.resp.Sentences)
		require.Error(t, err)
		assert.ErrorIs(t, err, internalerr.ErrRecursionDepth)
		assert.True(t, internalerr.IsConfiguration(err))
	})
}
