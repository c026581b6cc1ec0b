// Package prepare turns raw clinical documents into the text that is sent
// to the tagger and completed.
package prepare

import (
	"regexp"
	"strings"

	"github.com/ppiankov/autocoding/internal/rules"
)

var (
	allCaps   = regexp.MustCompile(`^[A-Z\s]*[A-Z][:.\s]*$`)
	endsInDot = regexp.MustCompile(`\.\s*$`)
)

// Preparer applies the rule tables' label and term substitutions
type Preparer struct {
	tables         *rules.Tables
	terminateLines bool
}

// NewPreparer creates a preparer. With terminateLines, ALL CAPS headings
// and the last line of each paragraph get a closing period so the tagger
// ends a sentence there.
func NewPreparer(tables *rules.Tables, terminateLines bool) *Preparer {
	return &Preparer{tables: tables, terminateLines: terminateLines}
}

// Prepare normalizes line endings to LF and applies the substitutions
func (p *Preparer) Prepare(text string) string {
	text = NormalizeLineEndings(text)
	if p.tables != nil {
		for _, s := range p.tables.Labels {
			text = s.Pattern.ReplaceAllString(text, s.Replacement)
		}
		for _, s := range p.tables.Terms {
			text = s.Pattern.ReplaceAllString(text, s.Replacement)
		}
	}
	if p.terminateLines {
		text = TerminateLines(text)
	}
	return text
}

// NormalizeLineEndings converts CRLF and lone CR to LF
func NormalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// TerminateLines trims every line and closes headings and paragraphs
// with a period. Blank lines are kept.
func TerminateLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if n := len(out); n > 0 {
				out[n-1] = terminate(out[n-1])
			}
			out = append(out, line)
			continue
		}
		if allCaps.MatchString(line) {
			line = terminate(line)
		}
		out = append(out, line)
	}
	if n := len(out); n > 0 {
		out[n-1] = terminate(out[n-1])
	}
	return strings.Join(out, "\n")
}

func terminate(line string) string {
	if line == "" || endsInDot.MatchString(line) {
		return line
	}
	return line + "."
}
