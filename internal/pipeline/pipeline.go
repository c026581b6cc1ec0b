// Package pipeline codes raw documents end to end: prepare, tag, complete, store.
package pipeline

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ppiankov/autocoding/internal/cache"
	"github.com/ppiankov/autocoding/internal/complete"
	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/prepare"
	"github.com/ppiankov/autocoding/internal/rules"
	"github.com/ppiankov/autocoding/internal/solution"
	"github.com/ppiankov/autocoding/internal/store"
	"github.com/ppiankov/autocoding/internal/summary"
	"github.com/ppiankov/autocoding/internal/tagger"
)

// Tagger recognizes concepts and sentences in a prepared document
type Tagger interface {
	Tag(ctx context.Context, document string) (*model.TaggerResponse, error)
}

// Store persists coded documents
type Store interface {
	Save(ctx context.Context, doc *model.CodedDocument) error
}

// Pipeline orchestrates coding of one document at a time. It is safe for
// concurrent use: rule tables are shared read-only and every document gets
// its own completion context.
type Pipeline struct {
	engine      *complete.Engine
	solution    string
	tagger      Tagger
	preparer    *prepare.Preparer
	extractHTML bool
	store       Store
	closer      func() error
	summarizer  *summary.Summarizer
	log         logger.Logger

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStore saves every coded document
func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithHTMLExtraction strips markup from documents that look like HTML
func WithHTMLExtraction(enabled bool) Option {
	return func(p *Pipeline) { p.extractHTML = enabled }
}

// WithPreparer replaces the default preparer
func WithPreparer(pr *prepare.Preparer) Option {
	return func(p *Pipeline) { p.preparer = pr }
}

// WithLogger sets the pipeline logger
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline wires an engine to a tagger
func NewPipeline(engine *complete.Engine, solutionName string, t Tagger, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:     engine,
		solution:   solutionName,
		tagger:     t,
		preparer:   prepare.NewPreparer(engine.Tables(), true),
		summarizer: summary.NewSummarizer(),
		log:        logger.GetDefault(),
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadEngine reads and compiles the rules file and configures its solution
func LoadEngine(path string, log logger.Logger) (*complete.Engine, solution.Definition, error) {
	file, err := rules.Load(path)
	if err != nil {
		return nil, nil, err
	}
	def, err := solution.New(file.Solution.Name, &file.Solution.Data)
	if err != nil {
		return nil, nil, err
	}
	tables, err := file.Compile(def.KnownConcepts()...)
	if err != nil {
		return nil, nil, err
	}
	return complete.NewEngine(tables, def.New, log), def, nil
}

// New builds a pipeline from configuration: rules, tagger client, cache and store
func New(cfg *model.Config, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	engine, def, err := LoadEngine(cfg.Rules.Path, log)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	tagOpts := []tagger.Option{tagger.WithLogger(log)}
	if c := cache.New(cfg.Cache); c != nil {
		tagOpts = append(tagOpts, tagger.WithCache(c, cfg.Cache.TTL))
	}
	client := tagger.NewClient(cfg.Tagger, tagOpts...)

	opts := []Option{
		WithLogger(log),
		WithHTMLExtraction(cfg.Prepare.ExtractHTML),
		WithPreparer(prepare.NewPreparer(engine.Tables(), cfg.Prepare.TerminateLines)),
	}

	var closer func() error
	if cfg.Store.Enabled {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStore(s))
		closer = s.Close
	}

	p := NewPipeline(engine, def.Name(), client, opts...)
	p.closer = closer

	log.Debug("pipeline ready", "solution", def.Name(), "concepts", engine.Tables().KnownCount(), "tagger", client.URL())
	return p, nil
}

// Close releases the store opened by New
func (p *Pipeline) Close() error {
	if p.closer != nil {
		return p.closer()
	}
	return nil
}

// Solution names the solution supplying the hooks
func (p *Pipeline) Solution() string {
	return p.solution
}

// CodeDocument prepares, tags and completes one raw document
func (p *Pipeline) CodeDocument(ctx context.Context, name, raw string) (*model.CodedDocument, error) {
	id := p.newID()
	log := p.log.With("document", name, "id", id)

	// 1. Strip markup
	if p.extractHTML && prepare.LooksLikeHTML(raw) {
		text, err := prepare.ExtractText(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}
		raw = text
	}

	// 2. Prepare
	text := p.preparer.Prepare(raw)

	// 3. Recognize concepts
	resp, err := p.tagger.Tag(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	log.Debug("tagged", "sentences", len(resp.Sentences), "concepts", len(resp.Concepts))

	// 4. Complete
	cc, err := p.engine.Complete(text, resp, complete.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("complete %s: %w", name, err)
	}

	doc := &model.CodedDocument{
		ID:        id,
		Name:      name,
		Solution:  p.solution,
		CodedAt:   time.Now().UTC(),
		Document:  text,
		Sentences: cc.Sentences,
		Concepts:  model.Flatten(cc.Sentences),
		Warnings:  cc.Warnings,
	}
	doc.Summary = p.summarizer.Summarize(doc)

	// 5. Persist
	if p.store != nil {
		if err := p.store.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	log.Info("coded", "concepts", len(doc.Concepts), "warnings", len(doc.Warnings))
	return doc, nil
}

func (p *Pipeline) newID() string {
	p.idMu.Lock()
	defer p.idMu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}
