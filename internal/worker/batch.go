package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
)

// Coder codes one raw document
type Coder interface {
	CodeDocument(ctx context.Context, name, raw string) (*model.CodedDocument, error)
}

// DocumentJob codes the document stored at Path
type DocumentJob struct {
	Index   int
	Path    string
	Coder   Coder
	onFatal func(error)
}

// Execute reads and codes the document
func (j *DocumentJob) Execute(ctx context.Context) Result {
	result := &DocumentResult{Index: j.Index, Path: j.Path}

	raw, err := os.ReadFile(j.Path)
	if err != nil {
		result.Error = fmt.Errorf("read document: %w", err)
		return result
	}

	doc, err := j.Coder.CodeDocument(ctx, j.Path, string(raw))
	if err != nil {
		result.Error = err
		if internalerr.IsConfiguration(err) && j.onFatal != nil {
			j.onFatal(err)
		}
		return result
	}
	result.Document = doc
	return result
}

// DocumentResult is the outcome of one document in a batch
type DocumentResult struct {
	Index    int
	Path     string
	Document *model.CodedDocument
	Error    error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor codes many documents concurrently.
// A configuration error stops the batch; any other error fails only its document.
type BatchProcessor struct {
	coder       Coder
	concurrency int
	log         logger.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(coder Coder, concurrency int, log logger.Logger) *BatchProcessor {
	if log == nil {
		log = logger.GetDefault()
	}
	return &BatchProcessor{
		coder:       coder,
		concurrency: concurrency,
		log:         log,
	}
}

// ProcessPaths codes the documents at paths. Results keep the order of paths.
// The returned error is the configuration error that stopped the batch, if any.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) ([]*DocumentResult, error) {
	if len(paths) == 0 {
		return []*DocumentResult{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		fatalOnce sync.Once
		fatal     error
	)
	onFatal := func(err error) {
		fatalOnce.Do(func() {
			fatal = err
			cancel()
		})
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		job := &DocumentJob{Index: i, Path: path, Coder: b.coder, onFatal: onFatal}
		if !pool.Submit(job) {
			break
		}
	}

	results := make([]*DocumentResult, len(paths))
	for _, r := range pool.Wait() {
		dr := r.(*DocumentResult)
		results[dr.Index] = dr
	}

	for i, r := range results {
		if r == nil {
			reason := ctx.Err()
			if fatal != nil {
				reason = fatal
			}
			results[i] = &DocumentResult{Index: i, Path: paths[i], Error: fmt.Errorf("skipped: %w", reason)}
			continue
		}
		if r.Error != nil {
			b.log.Warn("document failed", "path", r.Path, "error", r.Error)
			continue
		}
		b.log.Info("document coded", "path", r.Path, "concepts", len(r.Document.Concepts))
	}

	return results, fatal
}

// ProcessFile reads document paths from listPath and codes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths)
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
