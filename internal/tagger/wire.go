package tagger

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// wireResponse mirrors the service JSON. Each concept is a single-key object
// mapping the concept id to its attributes.
type wireResponse struct {
	Concepts  []map[string]wireConcept `json:"concepts"`
	Sentences []wireSentence           `json:"sentences"`
}

type wireConcept struct {
	Start        int    `json:"start"`
	Length       int    `json:"length"`
	PartOfSpeech string `json:"partOfSpeech"`
	Text         string `json:"text"`
	IsNegated    bool   `json:"isNegated"`
}

type wireSentence struct {
	Start int    `json:"start"`
	Text  string `json:"text"`
}

// decodeResponse parses a service body and converts its character offsets
// into byte offsets of document.
func decodeResponse(body []byte, document string) (*model.TaggerResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, internalerr.Servicef("malformed response: %v", err)
	}

	idx := newRuneIndex(document)
	resp := &model.TaggerResponse{
		Sentences: make([]model.TaggedSentence, 0, len(wire.Sentences)),
		Concepts:  make([]model.RawConcept, 0, len(wire.Concepts)),
	}

	for i, s := range wire.Sentences {
		start, err := idx.byteOffset(s.Start)
		if err != nil {
			return nil, internalerr.Servicef("sentence %d: %v", i, err)
		}
		resp.Sentences = append(resp.Sentences, model.TaggedSentence{Start: start, Text: s.Text})
	}

	for i, entry := range wire.Concepts {
		if len(entry) != 1 {
			return nil, internalerr.Servicef("concept %d: expected one id, got %d", i, len(entry))
		}
		for id, c := range entry {
			start, err := idx.byteOffset(c.Start)
			if err != nil {
				return nil, internalerr.Servicef("concept %s: %v", id, err)
			}
			end, err := idx.byteOffset(c.Start + c.Length)
			if err != nil {
				return nil, internalerr.Servicef("concept %s: %v", id, err)
			}
			resp.Concepts = append(resp.Concepts, model.RawConcept{
				ID:           id,
				Start:        start,
				Length:       end - start,
				PartOfSpeech: c.PartOfSpeech,
				Text:         c.Text,
				IsNegated:    c.IsNegated,
			})
		}
	}

	return resp, nil
}

// runeIndex maps character offsets to byte offsets. offsets stays nil for ASCII text.
type runeIndex struct {
	offsets []int
	size    int
}

func newRuneIndex(document string) *runeIndex {
	idx := &runeIndex{size: len(document)}
	if utf8.RuneCountInString(document) == len(document) {
		return idx
	}
	idx.offsets = make([]int, 0, utf8.RuneCountInString(document)+1)
	for i := range document {
		idx.offsets = append(idx.offsets, i)
	}
	idx.offsets = append(idx.offsets, len(document))
	return idx
}

func (r *runeIndex) byteOffset(char int) (int, error) {
	if r.offsets == nil {
		if char < 0 || char > r.size {
			return 0, fmt.Errorf("offset %d outside document of %d characters", char, r.size)
		}
		return char, nil
	}
	if char < 0 || char >= len(r.offsets) {
		return 0, fmt.Errorf("offset %d outside document of %d characters", char, len(r.offsets)-1)
	}
	return r.offsets[char], nil
}
