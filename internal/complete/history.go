package complete

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// maxHistoryDepth bounds nested retroactive history corrections
const maxHistoryDepth = 2

// HistoryResult is the first history change found in a stretch of text
type HistoryResult struct {
	Found        bool
	Offset       int // Relative to the scanned text
	Length       int
	SentencesAgo int // > 0 when the change happened in earlier sentences
}

// ClassifyHistory finds the earliest history change in text. Configured
// markers win; the solution is asked only when none match, and the
// pre-history markers are tried last when not already in history.
func (cc *CompletionContext) ClassifyHistory(inHistory bool, text string, prior []*model.Sentence) HistoryResult {
	res := HistoryResult{Offset: -1}
	for _, m := range cc.Tables.HistoryMarkers {
		if m.IsStart == inHistory {
			continue
		}
		if loc := m.Pattern.FindStringIndex(text); loc != nil && (res.Offset < 0 || loc[0] < res.Offset) {
			res.Offset, res.Length = loc[0], loc[1]-loc[0]
		}
	}
	if res.Offset >= 0 {
		res.Found = true
		return res
	}

	change := cc.Solution.CheckHistory(cc, inHistory, text, prior)
	switch {
	case change.SentencesAgo == 0:
		offset := clamp(change.Offset, 0, len(text))
		return HistoryResult{Found: true, Offset: offset, Length: clamp(change.Length, 0, len(text)-offset)}
	case change.SentencesAgo > 0:
		return HistoryResult{SentencesAgo: change.SentencesAgo}
	}

	if inHistory {
		return HistoryResult{}
	}
	for _, p := range cc.Tables.PreHistory {
		if loc := p.FindStringIndex(text); loc != nil && (res.Offset < 0 || loc[0] < res.Offset) {
			res.Offset, res.Length = loc[0], loc[1]-loc[0]
		}
	}
	if res.Offset >= 0 {
		res.Found = true
		return res
	}
	return HistoryResult{}
}

// historyFrame is one sentence on the correction worklist
type historyFrame struct {
	index       int  // Sentence being scanned
	state       bool // History state at pos
	pos         int  // Next unscanned byte of the sentence
	depth       int
	last        int  // Last sentence of the range this frame belongs to
	waiting     bool // Paused while earlier sentences are re-scanned
	correctedAt int  // pos of the last correction this frame asked for
}

// annotateHistory records the history changes of sentence index, which
// starts in state inHistory, and returns the state at its end. When the
// solution reports that history changed some sentences back, those
// sentences are reset and re-scanned before this one continues.
func (cc *CompletionContext) annotateHistory(index int, inHistory bool) (bool, error) {
	cc.Sentences[index].ResetHistory(inHistory)
	stack := []*historyFrame{{index: index, state: inHistory, last: index, correctedAt: -1}}
	rangeEnd := inHistory

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		s := cc.Sentences[f.index]

		if f.waiting {
			f.waiting = false
			if rangeEnd != f.state {
				recordFlip(s, f.pos)
				f.state = rangeEnd
			}
		}

		for {
			if f.pos >= len(s.Text) {
				stack = stack[:len(stack)-1]
				if f.index < f.last {
					next := cc.Sentences[f.index+1]
					next.ResetHistory(f.state)
					stack = append(stack, &historyFrame{index: f.index + 1, state: f.state, depth: f.depth, last: f.last, correctedAt: -1})
				} else {
					rangeEnd = f.state
				}
				break
			}

			tail := s.Text[f.pos:]
			res := cc.ClassifyHistory(f.state, tail, cc.Sentences[:f.index])

			if res.SentencesAgo > 0 && f.correctedAt != f.pos {
				if f.depth > maxHistoryDepth {
					return false, fmt.Errorf("%w: history corrected %d levels deep at sentence %d",
						internalerr.ErrRecursionDepth, f.depth, f.index)
				}
				back := min(res.SentencesAgo, f.index)
				if back == 0 {
					recordFlip(s, f.pos)
					f.state = !f.state
					f.correctedAt = f.pos
					continue
				}
				first := f.index - back
				cc.log.Debug("history changed earlier", "sentence", f.index, "sentences_ago", back)
				f.waiting = true
				f.correctedAt = f.pos
				cc.Sentences[first].ResetHistory(!f.state)
				stack = append(stack, &historyFrame{index: first, state: !f.state, depth: f.depth + 1, last: f.index - 1, correctedAt: -1})
				break
			}

			if !res.Found {
				f.pos = len(s.Text)
				continue
			}

			recordFlip(s, f.pos+res.Offset)
			f.state = !f.state
			advance := res.Offset + res.Length
			if res.Length == 0 {
				_, size := utf8.DecodeRuneInString(tail[res.Offset:])
				advance += max(size, 1)
			}
			f.pos += advance
		}
	}
	return rangeEnd, nil
}

// recordFlip notes a history toggle at a sentence-relative offset. A
// toggle before anything else at offset 0 changes the starting state.
func recordFlip(s *model.Sentence, at int) {
	if at == 0 && len(s.HistoryFlips) == 0 {
		s.StartsInHistory = !s.StartsInHistory
		return
	}
	s.HistoryFlips = append(s.HistoryFlips, at)
	s.HasHistoryChange = true
}

// classifySection returns the section of a sentence given the previous one
func (cc *CompletionContext) classifySection(text, previous string) string {
	for _, m := range cc.Tables.SectionMarkers {
		if m.Pattern.MatchString(text) {
			return m.Section
		}
	}
	return previous
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
