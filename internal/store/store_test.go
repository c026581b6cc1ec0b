package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "autocoding.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func codedDocument(id string, codedAt time.Time) *model.CodedDocument {
	sentence := &model.Sentence{
		CharStart: 0,
		Length:    21,
		Text:      "No invasive carcinoma",
		Section:   "Diagnosis",
		Concepts: model.MiniDocument{
			12: {{ConceptID: "C0007097", Negation: model.Negated, Text: "carcinoma", Length: 9, PartOfSpeech: "NN"}},
		},
	}
	sentences := []*model.Sentence{sentence}
	return &model.CodedDocument{
		ID:        id,
		Name:      "report.txt",
		Solution:  "default",
		CodedAt:   codedAt,
		Document:  "No invasive carcinoma",
		Sentences: sentences,
		Concepts:  model.Flatten(sentences),
		Warnings: []model.Warning{
			{Kind: model.WarningUnknownConcept, ConceptID: "C9", Offset: 3, Message: "unknown concept"},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Should round trip a coded document", func(t *testing.T) {
		s := openTestStore(t)
		doc := codedDocument("01HZX0000000000000000000AA", now)
		require.NoError(t, s.Save(ctx, doc))

		got, err := s.Get(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.Name, got.Name)
		assert.True(t, now.Equal(got.CodedAt))
		require.Len(t, got.Concepts, 1)
		assert.Equal(t, "C0007097", got.Concepts[0].ConceptID)
		assert.Equal(t, model.Negated, got.Concepts[0].Negation)
		assert.Equal(t, 12, got.Concepts[0].Offset)
		assert.Equal(t, "Diagnosis", got.Concepts[0].Section)
		require.Len(t, got.Sentences, 1)
		require.Len(t, got.Sentences[0].Concepts[12], 1)
		assert.Equal(t, model.Negated, got.Sentences[0].Concepts[12][0].Negation)
		assert.Len(t, got.Warnings, 1)
	})

	t.Run("Should replace a document saved twice", func(t *testing.T) {
		s := openTestStore(t)
		doc := codedDocument("01HZX0000000000000000000AB", now)
		require.NoError(t, s.Save(ctx, doc))
		doc.Name = "renamed.txt"
		require.NoError(t, s.Save(ctx, doc))

		list, err := s.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "renamed.txt", list[0].Name)
		assert.Equal(t, 1, list[0].Concepts)
	})

	t.Run("Should list newest first with a limit", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Save(ctx, codedDocument("A", now)))
		require.NoError(t, s.Save(ctx, codedDocument("B", now.Add(time.Hour))))
		require.NoError(t, s.Save(ctx, codedDocument("C", now.Add(30*time.Minute))))

		list, err := s.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "B", list[0].ID)
		assert.Equal(t, "C", list[1].ID)
		assert.Equal(t, 1, list[0].Warnings)
	})

	t.Run("Should report missing documents as not found", func(t *testing.T) {
		s := openTestStore(t)
		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, internalerr.ErrNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, "missing"), internalerr.ErrNotFound))
	})

	t.Run("Should cascade deletes to concepts", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Save(ctx, codedDocument("A", now)))
		require.NoError(t, s.Delete(ctx, "A"))

		hits, err := s.FindConcept(ctx, "C0007097")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Should find a concept across documents", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Save(ctx, codedDocument("A", now)))
		require.NoError(t, s.Save(ctx, codedDocument("B", now)))

		hits, err := s.FindConcept(ctx, "C0007097")
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "A", hits[0].DocumentID)
		assert.Equal(t, "carcinoma", hits[0].Text)
	})

	t.Run("Should reopen an existing database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "autocoding.db")
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, codedDocument("A", now)))
		require.NoError(t, s.Close())

		s, err = Open(path)
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		_, err = s.Get(ctx, "A")
		assert.NoError(t, err)
	})
}
