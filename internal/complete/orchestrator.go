package complete

import (
	"fmt"

	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

// Run completes the document from the tagger's response. The stages run
// in a fixed order and the first error aborts the document.
func (cc *CompletionContext) Run(resp *model.TaggerResponse) error {
	if resp == nil {
		resp = &model.TaggerResponse{}
	}

	if err := cc.Segment(resp.Sentences); err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	if err := cc.advance(Unsegmented, Segmented); err != nil {
		return err
	}

	if err := cc.PlaceConcepts(resp.Concepts); err != nil {
		return fmt.Errorf("place concepts: %w", err)
	}
	cc.MatchSentencePatterns()
	if err := cc.Solution.AddRawConcepts(cc); err != nil {
		return fmt.Errorf("add raw concepts: %w", err)
	}
	if err := cc.advance(Segmented, ConceptsPlaced); err != nil {
		return err
	}

	cc.ExtendNegation()
	if err := cc.advance(ConceptsPlaced, NegationExtended); err != nil {
		return err
	}

	if err := cc.Solution.AddSolutionConcepts(cc); err != nil {
		return fmt.Errorf("add solution concepts: %w", err)
	}
	cc.PropagateNegationLists()
	if err := cc.MatchConceptSets(true); err != nil {
		return fmt.Errorf("history concept sets: %w", err)
	}
	if err := cc.MatchConceptSets(false); err != nil {
		return fmt.Errorf("concept sets: %w", err)
	}
	cc.PropagateNegationLists()
	if err := cc.advance(NegationExtended, SetsResolved); err != nil {
		return err
	}

	if err := cc.Solution.AddFinalConcepts(cc); err != nil {
		return fmt.Errorf("add final concepts: %w", err)
	}
	if err := cc.Solution.Complete(cc); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return cc.advance(SetsResolved, Finalized)
}

// Engine pairs shared rule tables with a solution and completes documents
type Engine struct {
	tables *rules.Tables
	newSol func() Solution
	log    logger.Logger
}

// NewEngine creates an engine. newSolution is called once per document so
// that solutions may keep per-document state.
func NewEngine(tables *rules.Tables, newSolution func() Solution, log logger.Logger) *Engine {
	if newSolution == nil {
		newSolution = func() Solution { return BaseSolution{} }
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Engine{tables: tables, newSol: newSolution, log: log}
}

// Tables returns the engine's rule tables
func (e *Engine) Tables() *rules.Tables {
	return e.tables
}

// Complete runs one prepared document through every stage. Options
// apply after the engine's own, so a caller may pass a per-document logger.
func (e *Engine) Complete(document string, resp *model.TaggerResponse, opts ...Option) (*CompletionContext, error) {
	opts = append([]Option{WithLogger(e.log)}, opts...)
	cc := NewCompletionContext(e.tables, e.newSol(), document, opts...)
	if err := cc.Run(resp); err != nil {
		return cc, err
	}
	return cc, nil
}
