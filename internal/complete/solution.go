package complete

import "github.com/ppiankov/autocoding/internal/model"

// HistoryChange is a solution's verdict on history for one stretch of text.
// SentencesAgo is -1 for no change, 0 for a change inside the text at
// Offset, and N > 0 when history began or ended N sentences back.
type HistoryChange struct {
	SentencesAgo int
	Offset       int
	Length       int
}

// NoHistoryChange reports that the solution sees no change
var NoHistoryChange = HistoryChange{SentencesAgo: -1}

// Candidate is a concept about to be placed, offered to RequireConcept
type Candidate struct {
	ConceptID    string
	Negation     model.Negation
	PartOfSpeech string
	IsHistory    bool
	Sentence     int
	Offset       int // Document offset
	Length       int
	Text         string
}

// Addition describes a concept just synthesized at (Sentence, Offset).
// Source indexes the alternate the new concept was copied from.
type Addition struct {
	ConceptID string
	Sentence  int
	Offset    int
	Source    int
	Negation  model.Negation
}

// Solution supplies the domain specific hooks the engine calls out to
type Solution interface {
	Name() string

	// CheckHistory is consulted when no configured history marker matches.
	// prior holds the sentences before the one being scanned.
	CheckHistory(cc *CompletionContext, inHistory bool, text string, prior []*model.Sentence) HistoryChange

	// RequireConcept returns false to suppress a recognized concept
	RequireConcept(cc *CompletionContext, c Candidate) bool

	AddRawConcepts(cc *CompletionContext) error

	InitializeNegation(cc *CompletionContext)

	// ExtendNegation sees every offset of the sequential extension pass.
	// model.Asserted stands for "no carried state".
	ExtendNegation(cc *CompletionContext, sentence, offset int, prior, current model.Negation)

	HigherConceptFound(cc *CompletionContext, higher string) bool
	SetConcept(cc *CompletionContext, higher, member string) bool

	// AddAdditionalConcept may cascade synthesis by calling
	// cc.AddAdditionalConcept with the depth it was given.
	AddAdditionalConcept(cc *CompletionContext, add Addition, depth int) error

	AddSolutionConcepts(cc *CompletionContext) error
	AddFinalConcepts(cc *CompletionContext) error
	Complete(cc *CompletionContext) error
}

// BaseSolution implements every hook as a no-op. Embed it and override
// the hooks a solution needs.
type BaseSolution struct{}

func (BaseSolution) Name() string { return "default" }

func (BaseSolution) CheckHistory(*CompletionContext, bool, string, []*model.Sentence) HistoryChange {
	return NoHistoryChange
}

func (BaseSolution) RequireConcept(*CompletionContext, Candidate) bool { return true }
func (BaseSolution) AddRawConcepts(*CompletionContext) error           { return nil }
func (BaseSolution) InitializeNegation(*CompletionContext)              {}

func (BaseSolution) ExtendNegation(*CompletionContext, int, int, model.Negation, model.Negation) {}

func (BaseSolution) HigherConceptFound(*CompletionContext, string) bool  { return false }
func (BaseSolution) SetConcept(*CompletionContext, string, string) bool { return false }

func (BaseSolution) AddAdditionalConcept(*CompletionContext, Addition, int) error { return nil }

func (BaseSolution) AddSolutionConcepts(*CompletionContext) error { return nil }
func (BaseSolution) AddFinalConcepts(*CompletionContext) error    { return nil }
func (BaseSolution) Complete(*CompletionContext) error            { return nil }
