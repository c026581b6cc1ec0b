package prepare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/rules"
)

func tables(t *testing.T, src string) *rules.Tables {
	t.Helper()
	f, err := rules.Parse([]byte(src))
	require.NoError(t, err)
	tbl, err := f.Compile()
	require.NoError(t, err)
	return tbl
}

func TestPrepare(t *testing.T) {
	tbl := tables(t, `
labels:
  - pattern: "Clin Hx:"
    replacement: "CLINICAL INFORMATION:"
terms:
  - pattern: CA
    replacement: carcinoma
`)

	t.Run("Should normalize line endings", func(t *testing.T) {
		out := NewPreparer(nil, false).Prepare("one\r\ntwo\rthree\n")
		assert.Equal(t, "one\ntwo\nthree\n", out)
	})

	t.Run("Should substitute labels only at line start", func(t *testing.T) {
		out := NewPreparer(tbl, false).Prepare("Clin Hx: bleeding\nsee Clin Hx: above")
		assert.Equal(t, "CLINICAL INFORMATION: bleeding\nsee Clin Hx: above", out)
	})

	t.Run("Should substitute whole terms", func(t *testing.T) {
		out := NewPreparer(tbl, false).Prepare("Invasive CA. CARE plan.")
		assert.Equal(t, "Invasive carcinoma. CARE plan.", out)
	})
}

func TestTerminateLines(t *testing.T) {
	in := "CLINICAL\nINFORMATION: bleeding\n\nDIAGNOSIS:\nBenign tissue\n"
	want := "CLINICAL.\nINFORMATION: bleeding.\n\nDIAGNOSIS:.\nBenign tissue.\n"
	assert.Equal(t, want, TerminateLines(in))
	assert.Equal(t, "Done.", TerminateLines("  Done.  "))
}

func TestExtractText(t *testing.T) {
	doc := `<!DOCTYPE html>
<html><head><title>Report</title><style>p {}</style></head>
<body>
  <h1>DIAGNOSIS</h1>
  <p>Benign   cervical
     tissue.</p>
  <script>var x = 1;</script>
  <ul><li>No dysplasia.</li><li>No <b>malignancy</b>.</li></ul>
</body></html>`

	require.True(t, LooksLikeHTML(doc))
	out, err := ExtractText(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "DIAGNOSIS\nBenign cervical tissue.\nNo dysplasia.\nNo malignancy.\n", out)
	assert.False(t, LooksLikeHTML("CLINICAL INFORMATION: <none>"))
}
