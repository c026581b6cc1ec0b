package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// Affixes wrapped around configured patterns, per table. Immediate
// patterns are anchored so they match only text directly touching the
// concept: a pre pattern must end the text before it, a post pattern must
// open the text after it.
const (
	immediatePreSuffix  = `\s+$`
	immediatePostPrefix = `^\s*`
	preModifierSuffix   = `\s.*$`
	postModifierPrefix  = `^\s*`
)

// ParseConcept splits rule notation into id and negation:
// "-C1" is negated, "?C1" ambiguous, "C1" asserted.
func ParseConcept(notation string) (string, model.Negation) {
	notation = strings.TrimSpace(notation)
	switch {
	case strings.HasPrefix(notation, "-"):
		return notation[1:], model.Negated
	case strings.HasPrefix(notation, "?"):
		return notation[1:], model.Ambiguous
	default:
		return notation, model.Asserted
	}
}

// WordBounded adds \b to each end of pattern that is a letter or digit
func WordBounded(pattern string) string {
	if pattern == "" {
		return ""
	}
	runes := []rune(pattern)
	var b strings.Builder
	if isAlnum(runes[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(pattern)
	if isAlnum(runes[len(runes)-1]) {
		b.WriteString(`\b`)
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// compiler accumulates the known-concepts set while building tables
type compiler struct {
	known map[string]struct{}
}

func (c *compiler) know(ids ...string) {
	for _, id := range ids {
		if id != "" {
			c.known[id] = struct{}{}
		}
	}
}

func (c *compiler) pattern(table string, row int, pattern, prefix, suffix string, caseSensitive bool) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, internalerr.Configf("%s row %d: empty pattern", table, row+1)
	}
	flags := "(?is)"
	if caseSensitive {
		flags = "(?s)"
	}
	re, err := regexp.Compile(flags + prefix + WordBounded(pattern) + suffix)
	if err != nil {
		return nil, internalerr.Configf("%s row %d: %v", table, row+1, err)
	}
	return re, nil
}

func (c *compiler) patterns(table string, rows []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(rows))
	for i, row := range rows {
		re, err := c.pattern(table, i, row, "", "", false)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func (c *compiler) scoped(table string, rows []ScopedRow, suffix string) ([]ScopedPattern, error) {
	out := make([]ScopedPattern, 0, len(rows))
	for i, row := range rows {
		re, err := c.pattern(table, i, row.Pattern, "", suffix, false)
		if err != nil {
			return nil, err
		}
		sp := ScopedPattern{Pattern: re}
		if len(row.Concepts) > 0 {
			sp.Concepts = make(map[string]struct{}, len(row.Concepts))
			for _, id := range row.Concepts {
				sp.Concepts[id] = struct{}{}
				c.know(id)
			}
		}
		out = append(out, sp)
	}
	return out, nil
}

func (c *compiler) except(table string, rows []ExceptRow, prefix string) ([]ExceptPattern, error) {
	out := make([]ExceptPattern, 0, len(rows))
	for i, row := range rows {
		re, err := c.pattern(table, i, row.Pattern, prefix, "", false)
		if err != nil {
			return nil, err
		}
		ep := ExceptPattern{Pattern: re}
		if strings.TrimSpace(row.Except) != "" {
			if ep.Except, err = c.pattern(table+" exception", i, row.Except, prefix, "", false); err != nil {
				return nil, err
			}
		}
		out = append(out, ep)
	}
	return out, nil
}

func (c *compiler) modifiers(table string, rows []ModifierRow, prefix, suffix string) (map[string]Modifier, error) {
	out := make(map[string]Modifier, len(rows))
	for i, row := range rows {
		concept, requires := ParseConcept(row.Concept)
		newConcept, newNegation := ParseConcept(row.NewConcept)
		if concept == "" || newConcept == "" {
			return nil, internalerr.Configf("%s row %d: concept and newConcept are required", table, i+1)
		}
		if _, dup := out[concept]; dup {
			return nil, internalerr.Configf("%s row %d: duplicate modifier for %s", table, i+1, concept)
		}
		re, err := c.pattern(table, i, row.Modifier, prefix, suffix, false)
		if err != nil {
			return nil, err
		}
		c.know(concept, newConcept)
		out[concept] = Modifier{Requires: requires, NewConcept: newConcept, NewNegation: newNegation, Pattern: re}
	}
	return out, nil
}

func (c *compiler) negationLists(table string, rows []NegationListRow) (map[string][]NegationList, error) {
	out := make(map[string][]NegationList)
	for i, row := range rows {
		if row.Trigger == "" || len(row.Targets) == 0 {
			return nil, internalerr.Configf("%s row %d: trigger and targets are required", table, i+1)
		}
		section := row.Section
		if section == "" {
			section = AllSections
		}
		list := NegationList{Section: section, Negate: row.Negate, Targets: make(map[string]struct{}, len(row.Targets))}
		for _, id := range row.Targets {
			list.Targets[id] = struct{}{}
		}
		c.know(row.Trigger)
		c.know(row.Targets...)
		out[row.Trigger] = append(out[row.Trigger], list)
	}
	return out, nil
}

// Compile validates f and builds immutable Tables. extraKnown adds
// concepts a solution references outside the rule tables.
func (f *File) Compile(extraKnown ...string) (*Tables, error) {
	c := &compiler{known: make(map[string]struct{})}
	c.know(extraKnown...)
	t := &Tables{
		Equivalents:  make(map[string]string),
		Descriptions: make(map[string]string, len(f.Descriptions)),
		other:        make(map[string]struct{}, len(f.OtherConcepts)),
	}
	var err error

	for id, desc := range f.Descriptions {
		t.Descriptions[id] = desc
	}
	for _, id := range f.OtherConcepts {
		t.other[id] = struct{}{}
	}
	for i, row := range f.Equivalents {
		if row.Concept == "" {
			return nil, internalerr.Configf("equivalents row %d: concept is required", i+1)
		}
		c.know(row.Concept)
		for _, eq := range row.Equivalents {
			t.Equivalents[eq] = row.Concept
			c.know(eq)
		}
	}

	for i, row := range f.Labels {
		re, err := regexp.Compile(`(?m)^` + WordBounded(row.Pattern))
		if err != nil || row.Pattern == "" {
			return nil, internalerr.Configf("labels row %d: invalid pattern %q", i+1, row.Pattern)
		}
		t.Labels = append(t.Labels, Substitution{Pattern: re, Replacement: row.Replacement})
	}
	for i, row := range f.Terms {
		re, err := c.pattern("terms", i, row.Pattern, "", "", false)
		if err != nil {
			return nil, err
		}
		t.Terms = append(t.Terms, Substitution{Pattern: re, Replacement: row.Replacement})
	}

	for i, row := range f.HistoryMarkers {
		re, err := c.pattern("historyMarkers", i, row.Pattern, "", "", row.Case)
		if err != nil {
			return nil, err
		}
		t.HistoryMarkers = append(t.HistoryMarkers, HistoryMarker{Pattern: re, IsStart: row.Start})
	}
	if t.PreHistory, err = c.patterns("preHistory", f.PreHistory); err != nil {
		return nil, err
	}
	for i, row := range f.SectionMarkers {
		if row.Section == "" {
			return nil, internalerr.Configf("sectionMarkers row %d: section is required", i+1)
		}
		re, err := c.pattern("sectionMarkers", i, row.Pattern, "", "", row.Case)
		if err != nil {
			return nil, err
		}
		t.SectionMarkers = append(t.SectionMarkers, SectionMarker{Pattern: re, Section: row.Section})
	}

	if t.ButBoundaries, err = c.patterns("butBoundaries", f.ButBoundaries); err != nil {
		return nil, err
	}
	if t.PreNegation, err = c.scoped("preNegation", f.PreNegation, ""); err != nil {
		return nil, err
	}
	if t.ImmediatePreNegation, err = c.scoped("immediatePreNegation", f.ImmediatePreNegation, immediatePreSuffix); err != nil {
		return nil, err
	}
	if t.PreAmbiguous, err = c.scoped("preAmbiguous", f.PreAmbiguous, ""); err != nil {
		return nil, err
	}
	if t.ImmediatePreAmbiguous, err = c.scoped("immediatePreAmbiguous", f.ImmediatePreAmbiguous, immediatePreSuffix); err != nil {
		return nil, err
	}
	if t.PostNegation, err = c.except("postNegation", f.PostNegation, ""); err != nil {
		return nil, err
	}
	if t.ImmediatePostNegation, err = c.except("immediatePostNegation", f.ImmediatePostNegation, immediatePostPrefix); err != nil {
		return nil, err
	}
	if t.PostAmbiguous, err = c.except("postAmbiguous", f.PostAmbiguous, ""); err != nil {
		return nil, err
	}
	if t.ImmediatePostAmbiguous, err = c.except("immediatePostAmbiguous", f.ImmediatePostAmbiguous, immediatePostPrefix); err != nil {
		return nil, err
	}

	if t.PreModifiers, err = c.modifiers("preModifiers", f.PreModifiers, "", preModifierSuffix); err != nil {
		return nil, err
	}
	if t.PostModifiers, err = c.modifiers("postModifiers", f.PostModifiers, postModifierPrefix, ""); err != nil {
		return nil, err
	}

	for i, row := range f.SentenceConcepts {
		concept, negation := ParseConcept(row.Concept)
		if concept == "" {
			return nil, internalerr.Configf("sentenceConcepts row %d: concept is required", i+1)
		}
		re, err := c.pattern("sentenceConcepts", i, row.Pattern, "", "", false)
		if err != nil {
			return nil, err
		}
		c.know(concept)
		t.SentenceConcepts = append(t.SentenceConcepts, SentenceConcept{
			Concept:  concept,
			Negation: negation,
			Pattern:  re,
			Text:     readable(row.Pattern),
		})
	}

	for i, row := range f.GrossNegations {
		if row.Sentences < 1 {
			return nil, internalerr.Configf("grossNegations row %d: sentences must be at least 1", i+1)
		}
		start, err := c.pattern("grossNegations start", i, row.Start, "", "", false)
		if err != nil {
			return nil, err
		}
		end, err := c.pattern("grossNegations end", i, row.End, "", "", false)
		if err != nil {
			return nil, err
		}
		t.GrossNegations = append(t.GrossNegations, GrossNegation{Start: start, End: end, Sentences: row.Sentences})
	}

	if t.SentenceNegationLists, err = c.negationLists("sentenceNegationLists", f.SentenceNegationLists); err != nil {
		return nil, err
	}
	if t.DocumentNegationLists, err = c.negationLists("documentNegationLists", f.DocumentNegationLists); err != nil {
		return nil, err
	}

	if err := c.sets(t, f.ConceptSets); err != nil {
		return nil, err
	}

	t.known = c.known
	return t, nil
}

func (c *compiler) sets(t *Tables, rows []ConceptSetRow) error {
	for i, row := range rows {
		concept, negation := ParseConcept(row.Concept)
		if concept == "" || len(row.Members) == 0 {
			return internalerr.Configf("conceptSets row %d: concept and members are required", i+1)
		}
		higher := Higher{Concept: concept, Negation: negation, Asserted: row.Asserted}
		members := make([]Member, 0, len(row.Members))
		for _, m := range row.Members {
			id, neg := ParseConcept(m)
			members = append(members, Member{Concept: id, Negation: neg})
			c.know(id)
		}
		c.know(concept)

		window := row.Sentences
		switch row.Scope {
		case "", "sentence":
			if window < 1 {
				window = 1
			}
		case "document":
			window = 0
		default:
			return internalerr.Configf("conceptSets row %d: unknown scope %q", i+1, row.Scope)
		}

		switch row.Kind {
		case "sequence":
			set := SequentialSet{Higher: higher, Strict: row.Strict, Sentences: window, Members: members}
			if window == 0 {
				t.DocumentSequenceSets = append(t.DocumentSequenceSets, set)
			} else {
				t.SentenceSequenceSets = append(t.SentenceSequenceSets, set)
			}
		case "set", "unordered":
			set := UnorderedSet{Higher: higher, Sentences: window, Members: members}
			if window == 0 {
				t.DocumentSets = append(t.DocumentSets, set)
			} else {
				t.SentenceSets = append(t.SentenceSets, set)
			}
		default:
			return internalerr.Configf("conceptSets row %d: unknown kind %q", i+1, row.Kind)
		}
	}
	return nil
}

var multiSpace = regexp.MustCompile(`\s+`)

// readable strips regular expression noise from a pattern for descriptions
func readable(pattern string) string {
	text := multiSpace.ReplaceAllString(pattern, " ")
	text = strings.ReplaceAll(text, `\b`, "")
	text = strings.ReplaceAll(text, `\(`, "(")
	text = strings.ReplaceAll(text, `\)`, ")")
	return strings.TrimSpace(text)
}
