package model

import "sort"

// Sentence is one contiguous span of the prepared document
type Sentence struct {
	HasHistoryChange bool         `json:"has_history_change"`      // True when history toggles inside the sentence
	StartsInHistory  bool         `json:"starts_in_history"`       // History state at the first character
	CharStart        int          `json:"char_start"`              // Byte offset of the sentence in the document
	Length           int          `json:"length"`                  // Byte length of the sentence
	Text             string       `json:"text"`                    // Sentence text as found in the document
	HistoryFlips     []int        `json:"history_flips,omitempty"` // Offsets relative to CharStart where history toggles
	Concepts         MiniDocument `json:"concepts"`                // Concept occurrences keyed by document offset
	Section          string       `json:"section"`                 // Section name, "None" before the first section marker

	Shift        int `json:"-"` // Document offset minus the tagger's reported offset
	TaggerLength int `json:"-"` // Sentence length as the tagger counts it
}

// End returns the document offset just past the sentence
func (s *Sentence) End() int {
	return s.CharStart + s.Length
}

// Contains reports whether the document offset falls inside the sentence
func (s *Sentence) Contains(offset int) bool {
	return offset >= s.CharStart && offset < s.End()
}

// IsHistoryAt reports the history state at a document offset inside the sentence:
// StartsInHistory XOR an odd count of flips at or before the offset.
func (s *Sentence) IsHistoryAt(offset int) bool {
	rel := offset - s.CharStart
	history := s.StartsInHistory
	for _, flip := range s.HistoryFlips {
		if flip > rel {
			break
		}
		history = !history
	}
	return history
}

// ResetHistory clears recorded history changes and sets the starting state
func (s *Sentence) ResetHistory(startsInHistory bool) {
	s.HasHistoryChange = false
	s.StartsInHistory = startsInHistory
	s.HistoryFlips = nil
}

// ConceptOccurrence is one recognized or synthesized concept instance
type ConceptOccurrence struct {
	ConceptID    string   `json:"concept_id"`
	Negation     Negation `json:"negation"`
	Text         string   `json:"text"`                  // Surface text that was coded
	Length       int      `json:"length"`                // Byte length of the surface text
	IsHistory    bool     `json:"is_history"`            // Concept describes past information
	PartOfSpeech string   `json:"part_of_speech"`        // Tagger part-of-speech tag
	Used         bool     `json:"used"`                  // Consumed by a higher concept
	Description  string   `json:"description,omitempty"` // Human readable description
}

// MarkUsed sets Used. There is no way back: used never resets within a run.
func (c *ConceptOccurrence) MarkUsed() {
	c.Used = true
}

// MiniDocument maps document offsets to the alternate concepts found there
type MiniDocument map[int][]*ConceptOccurrence

// Offsets returns the populated offsets in increasing order
func (m MiniDocument) Offsets() []int {
	offsets := make([]int, 0, len(m))
	for offset := range m {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)
	return offsets
}

// Find returns the index of conceptID at offset, or -1
func (m MiniDocument) Find(offset int, conceptID string) int {
	for i, occ := range m[offset] {
		if occ.ConceptID == conceptID {
			return i
		}
	}
	return -1
}

// Insert appends occ at offset unless the same concept is already there.
// It returns the index of the occurrence and whether it was added.
func (m MiniDocument) Insert(offset int, occ *ConceptOccurrence) (int, bool) {
	if i := m.Find(offset, occ.ConceptID); i >= 0 {
		return i, false
	}
	m[offset] = append(m[offset], occ)
	return len(m[offset]) - 1, true
}

// Count returns the total number of occurrences
func (m MiniDocument) Count() int {
	n := 0
	for _, alternates := range m {
		n += len(alternates)
	}
	return n
}
