package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
)

// mockCoder fails documents whose text names an error class
type mockCoder struct {
	calls atomic.Int32
}

func (m *mockCoder) CodeDocument(ctx context.Context, name, raw string) (*model.CodedDocument, error) {
	m.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	switch {
	case strings.Contains(raw, "SERVICE"):
		return nil, internalerr.Servicef("unexpected status: 502")
	case strings.Contains(raw, "CONFIG"):
		return nil, internalerr.Configf("rules: bad pattern")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &model.CodedDocument{
		Name:     name,
		Document: raw,
		Concepts: []model.CodedConcept{{ConceptID: "C1"}},
	}, nil
}

func writeDocs(t *testing.T, texts ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(texts))
	for i, text := range texts {
		paths[i] = filepath.Join(dir, "doc"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(paths[i], []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func testLogger() logger.Logger {
	return logger.NewLogger(logger.TestConfig())
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	paths := writeDocs(t, "Benign.", "Carcinoma.", "No dysplasia.")
	processor := NewBatchProcessor(&mockCoder{}, 2, testLogger())

	results, err := processor.ProcessPaths(context.Background(), paths)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d out of order: %s", i, res.Path)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Document == nil {
			t.Errorf("expected document for %s", res.Path)
		}
	}
}

func TestBatchProcessor_ServiceErrorFailsOneDocument(t *testing.T) {
	paths := writeDocs(t, "Benign.", "SERVICE", "Carcinoma.")
	processor := NewBatchProcessor(&mockCoder{}, 1, testLogger())

	results, err := processor.ProcessPaths(context.Background(), paths)
	if err != nil {
		t.Fatalf("service errors must not stop the batch: %v", err)
	}

	if !internalerr.IsService(results[1].Error) {
		t.Errorf("expected service error, got %v", results[1].Error)
	}
	if results[1].Document != nil {
		t.Error("expected nil document on error")
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Errorf("other documents should succeed: %v, %v", results[0].Error, results[2].Error)
	}
}

func TestBatchProcessor_ConfigurationErrorStopsBatch(t *testing.T) {
	texts := []string{"CONFIG"}
	for i := 0; i < 20; i++ {
		texts = append(texts, "Benign.")
	}
	paths := writeDocs(t, texts...)
	coder := &mockCoder{}
	processor := NewBatchProcessor(coder, 1, testLogger())

	results, err := processor.ProcessPaths(context.Background(), paths)
	if !internalerr.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	if len(results) != len(paths) {
		t.Fatalf("expected a result per path, got %d", len(results))
	}
	if !internalerr.IsConfiguration(results[0].Error) {
		t.Errorf("expected first document to carry the configuration error, got %v", results[0].Error)
	}
	if int(coder.calls.Load()) == len(paths) {
		t.Error("expected remaining documents to be skipped")
	}

	skipped := 0
	for _, res := range results[1:] {
		if res.Error != nil && strings.HasPrefix(res.Error.Error(), "skipped") {
			skipped++
		}
	}
	if skipped == 0 {
		t.Error("expected skipped results after the configuration error")
	}
}

func TestBatchProcessor_MissingFile(t *testing.T) {
	processor := NewBatchProcessor(&mockCoder{}, 2, testLogger())

	results, err := processor.ProcessPaths(context.Background(), []string{filepath.Join(t.TempDir(), "missing.txt")})
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if results[0].Error == nil {
		t.Error("expected read error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockCoder{}, 2, testLogger())

	results, err := processor.ProcessPaths(context.Background(), []string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	docs := writeDocs(t, "Benign.", "Carcinoma.")
	list := filepath.Join(t.TempDir(), "batch.txt")
	content := docs[0] + "\n# comment\n\n" + docs[1] + "\n" + docs[0] + "\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&mockCoder{}, 2, testLogger())
	results, err := processor.ProcessFile(context.Background(), list)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockCoder{}, 2, testLogger())

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := "reports/a.txt\n# comment\nreports/b.txt\n   \nreports/c.txt   \nreports/a.txt\n"
	list := filepath.Join(t.TempDir(), "paths.txt")
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"reports/a.txt", "reports/b.txt", "reports/c.txt"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected path %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestDocumentResult_GetError(t *testing.T) {
	r1 := &DocumentResult{Path: "a.txt"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("coding failed")
	r2 := &DocumentResult{Path: "a.txt", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
