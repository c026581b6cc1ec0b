// Package store persists coded documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

const schemaVersion = 1

// timeLayout is fixed width so coded_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps coded documents and a queryable row per concept occurrence
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// Summary is a stored document without its sentences
type Summary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Solution string    `json:"solution"`
	CodedAt  time.Time `json:"coded_at"`
	Concepts int       `json:"concepts"`
	Warnings int       `json:"warnings"`
}

// Open opens or creates the database at path
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// Pragmas are per connection; one connection keeps foreign keys on everywhere
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			solution TEXT NOT NULL,
			coded_at TEXT NOT NULL,
			document TEXT NOT NULL,
			sentences TEXT NOT NULL,
			warnings TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_coded_at ON documents(coded_at DESC);

		CREATE TABLE IF NOT EXISTS concepts (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			sentence INTEGER NOT NULL,
			position INTEGER NOT NULL,
			section TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			negation TEXT NOT NULL,
			is_history INTEGER NOT NULL,
			used INTEGER NOT NULL,
			text TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (document_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_concepts_concept_id ON concepts(concept_id);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}
	_, err := s.conn.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, schemaVersion)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file
func (s *SQLiteStore) Path() string {
	return s.path
}

// Save inserts or replaces a coded document
func (s *SQLiteStore) Save(ctx context.Context, doc *model.CodedDocument) error {
	sentences, err := json.Marshal(doc.Sentences)
	if err != nil {
		return fmt.Errorf("marshal sentences: %w", err)
	}
	warnings, err := json.Marshal(doc.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, solution, coded_at, document, sentences, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.Solution, doc.CodedAt.UTC().Format(timeLayout),
		doc.Document, string(sentences), string(warnings),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO concepts (document_id, seq, sentence, position, section, concept_id, negation, is_history, used, text, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare concepts: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, c := range doc.Concepts {
		_, err := stmt.ExecContext(ctx, doc.ID, i, c.Sentence, c.Offset, c.Section, c.ConceptID,
			c.Negation.String(), c.IsHistory, c.Used, c.Text, c.Description)
		if err != nil {
			return fmt.Errorf("insert concept %s: %w", c.ConceptID, err)
		}
	}

	return tx.Commit()
}

// Get loads one document. Missing ids give internalerr.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.CodedDocument, error) {
	var (
		doc       model.CodedDocument
		codedAt   string
		sentences string
		warnings  string
	)
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, name, solution, coded_at, document, sentences, warnings
		FROM documents WHERE id = ?`, id)
	err := row.Scan(&doc.ID, &doc.Name, &doc.Solution, &codedAt, &doc.Document, &sentences, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.CodedAt, err = time.Parse(timeLayout, codedAt); err != nil {
		return nil, fmt.Errorf("parse coded_at: %w", err)
	}
	if err := json.Unmarshal([]byte(sentences), &doc.Sentences); err != nil {
		return nil, fmt.Errorf("unmarshal sentences: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &doc.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}

	doc.Concepts, err = s.concepts(ctx, `WHERE document_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the most recently coded documents first. limit <= 0 lists all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT d.id, d.name, d.solution, d.coded_at, d.warnings,
			(SELECT COUNT(*) FROM concepts c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.coded_at DESC, d.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			codedAt  string
			warnings string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Solution, &codedAt, &warnings, &sum.Concepts); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if sum.CodedAt, err = time.Parse(timeLayout, codedAt); err != nil {
			return nil, fmt.Errorf("parse coded_at: %w", err)
		}
		var ws []model.Warning
		if err := json.Unmarshal([]byte(warnings), &ws); err == nil {
			sum.Warnings = len(ws)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// FindConcept lists stored occurrences of one concept across documents
func (s *SQLiteStore) FindConcept(ctx context.Context, conceptID string) ([]Occurrence, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT document_id, sentence, position, section, concept_id, negation, is_history, used, text, description
		FROM concepts WHERE concept_id = ? ORDER BY document_id, seq`, conceptID)
	if err != nil {
		return nil, fmt.Errorf("find concept: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Occurrence
	for rows.Next() {
		var occ Occurrence
		if err := scanConcept(rows, &occ.DocumentID, &occ.CodedConcept); err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

// Occurrence is a stored concept with the document it came from
type Occurrence struct {
	DocumentID string `json:"document_id"`
	model.CodedConcept
}

// Delete removes a document and its concepts
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) concepts(ctx context.Context, where string, args ...any) ([]model.CodedConcept, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT document_id, sentence, position, section, concept_id, negation, is_history, used, text, description
		FROM concepts `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CodedConcept
	for rows.Next() {
		var (
			docID string
			c     model.CodedConcept
		)
		if err := scanConcept(rows, &docID, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConcept(rows *sql.Rows, docID *string, c *model.CodedConcept) error {
	var negation string
	if err := rows.Scan(docID, &c.Sentence, &c.Offset, &c.Section, &c.ConceptID, &negation,
		&c.IsHistory, &c.Used, &c.Text, &c.Description); err != nil {
		return fmt.Errorf("scan concept: %w", err)
	}
	n, err := model.ParseNegation(negation)
	if err != nil {
		return fmt.Errorf("concept %s: %w", c.ConceptID, err)
	}
	c.Negation = n
	return nil
}
