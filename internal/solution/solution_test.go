package solution

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/complete"
	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/rules"
)

const histopathologyRules = `
solution:
  name: histopathology
  data:
    sites:
      S1: {description: cervix}
    findings:
      F1: {description: carcinoma}
      F2: {description: dysplasia}
      F3: {description: atypia}
    procedures:
      P1: {description: biopsy}
    diagnosisImplied:
      X1:
        - {site: S1, finding: F1}
    procedureImplied:
      F1: P1
preNegation:
  - pattern: "no"
`

// engine loads rules the way the pipeline does
func engine(t *testing.T, src string) (*complete.Engine, Definition) {
	t.Helper()
	f, err := rules.Parse([]byte(src))
	require.NoError(t, err)
	def, err := New(f.Solution.Name, &f.Solution.Data)
	require.NoError(t, err)
	tables, err := f.Compile(def.KnownConcepts()...)
	require.NoError(t, err)
	return complete.NewEngine(tables, def.New, logger.NewLogger(logger.TestConfig())), def
}

type doc struct {
	text string
	resp model.TaggerResponse
}

func newDoc(sentences ...string) *doc {
	d := &doc{}
	for i, s := range sentences {
		if i > 0 {
			d.text += " "
		}
		d.resp.Sentences = append(d.resp.Sentences, model.TaggedSentence{Start: len(d.text), Text: s})
		d.text += s
	}
	return d
}

func (d *doc) tag(id, text, pos string) int {
	start := strings.Index(d.text, text)
	d.resp.Concepts = append(d.resp.Concepts, model.RawConcept{ID: id, Start: start, Length: len(text), PartOfSpeech: pos, Text: text})
	return start
}

func find(cc *complete.CompletionContext, offset int, id string) *model.ConceptOccurrence {
	for _, s := range cc.Sentences {
		if i := s.Concepts.Find(offset, id); i >= 0 {
			return s.Concepts[offset][i]
		}
	}
	return nil
}

func TestRegistry(t *testing.T) {
	t.Run("Should list built in solutions", func(t *testing.T) {
		assert.Subset(t, Names(), []string{DefaultName, HistopathologyName})
	})

	t.Run("Should default to the no-op solution", func(t *testing.T) {
		def, err := New("", nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultName, def.Name())
		assert.Equal(t, "default", def.New().Name())
	})

	t.Run("Should reject unknown names", func(t *testing.T) {
		_, err := New("radiology", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, internalerr.ErrUnknownSolution)
		assert.True(t, internalerr.IsConfiguration(err))
		assert.Contains(t, err.Error(), HistopathologyName)
	})

	t.Run("Should panic on duplicate registration", func(t *testing.T) {
		assert.Panics(t, func() { Register(DefaultName, nil) })
	})
}

func TestHistopathologyData(t *testing.T) {
	t.Run("Should know every concept its data references", func(t *testing.T) {
		_, def := engine(t, histopathologyRules)
		assert.Equal(t, []string{"F1", "F2", "F3", "P1", "S1", "X1"}, def.KnownConcepts())
	})

	t.Run("Should reject implications of undefined concepts", func(t *testing.T) {
		f, err := rules.Parse([]byte(`
solution:
  name: histopathology
  data:
    siteImplied:
      F1: [S9]
`))
		require.NoError(t, err)
		_, err = New(f.Solution.Name, &f.Solution.Data)
		require.Error(t, err)
		assert.True(t, internalerr.IsConfiguration(err))
		assert.Contains(t, err.Error(), "S9")
	})
}

func TestHistopathologyHistory(t *testing.T) {
	e, _ := engine(t, histopathologyRules)
	d := newDoc("CLINICAL", "INFORMATION: carcinoma.")
	offset := d.tag("F1", "carcinoma", "NN")

	cc, err := e.Complete(d.text, &d.resp)
	require.NoError(t, err)

	assert.True(t, cc.Sentences[0].StartsInHistory)
	assert.True(t, cc.Sentences[1].StartsInHistory)
	require.NotNil(t, find(cc, offset, "F1"))
	assert.True(t, find(cc, offset, "F1").IsHistory)
}

func TestHistopathologyHistoryInOneSentence(t *testing.T) {
	e, _ := engine(t, histopathologyRules)
	d := newDoc("CLINICAL INFORMATION: carcinoma.")

	cc, err := e.Complete(d.text, &d.resp)
	require.NoError(t, err)

	s := cc.Sentences[0]
	assert.False(t, s.StartsInHistory)
	assert.Equal(t, []int{len("CLINICAL ")}, s.HistoryFlips)
}

func TestHistopathologyQuery(t *testing.T) {
	e, _ := engine(t, histopathologyRules)
	d := newDoc("Biopsy of cervix ?", "Carcinoma.")
	offset := d.tag("F1", "Carcinoma", "NN")

	cc, err := e.Complete(d.text, &d.resp)
	require.NoError(t, err)
	assert.Nil(t, find(cc, offset, "F1"))
}

func TestHistopathologyImpliedConcepts(t *testing.T) {
	e, _ := engine(t, histopathologyRules)
	d := newDoc("Cervical carcinoma seen.")
	offset := d.tag("X1", "Cervical carcinoma", "NN")

	cc, err := e.Complete(d.text, &d.resp)
	require.NoError(t, err)

	require.NotNil(t, find(cc, offset, "S1"))
	require.NotNil(t, find(cc, offset, "F1"))
	require.NotNil(t, find(cc, offset, "P1"), "the implied finding implies its procedure")
	assert.Equal(t, "cervix", find(cc, offset, "S1").Description)
	assert.Equal(t, "Cervical carcinoma", find(cc, offset, "F1").Text)
	assert.True(t, find(cc, offset, "X1").Used)
}

func TestHistopathologyNegationExtension(t *testing.T) {
	e, _ := engine(t, histopathologyRules)
	d := newDoc("No carcinoma, dysplasia, cervix with atypia.")
	carcinoma := d.tag("F1", "carcinoma", "NN")
	dysplasia := d.tag("F2", "dysplasia", "VB")
	d.tag("S1", "cervix", "VB")
	atypia := d.tag("F3", "atypia", "VB")

	cc, err := e.Complete(d.text, &d.resp)
	require.NoError(t, err)

	assert.Equal(t, model.Negated, find(cc, carcinoma, "F1").Negation)
	assert.Equal(t, model.Negated, find(cc, dysplasia, "F2").Negation)
	assert.Equal(t, model.Asserted, find(cc, atypia, "F3").Negation)
}

func TestHistopathologySetConsent(t *testing.T) {
	def, err := New(HistopathologyName, nil)
	require.NoError(t, err)
	sol := def.New()

	assert.False(t, sol.HigherConceptFound(nil, "S1"))
	assert.False(t, sol.SetConcept(nil, "S1", "F1"))
}
