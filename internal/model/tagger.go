package model

// TaggedSentence is a sentence as reported by the concept-recognition service
type TaggedSentence struct {
	Start int    `json:"start"` // Offset reported by the service
	Text  string `json:"text"`
}

// RawConcept is one concept recognized by the concept-recognition service
type RawConcept struct {
	ID           string `json:"id"`
	Start        int    `json:"start"`
	Length       int    `json:"length"`
	PartOfSpeech string `json:"part_of_speech"`
	Text         string `json:"text"`
	IsNegated    bool   `json:"is_negated"`
}

// TaggerResponse is the decoded service response for one document
type TaggerResponse struct {
	Sentences []TaggedSentence `json:"sentences"`
	Concepts  []RawConcept     `json:"concepts"`
}
