package solution

import (
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/autocoding/internal/complete"
	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

// HistopathologyName is the registry name of the histopathology solution
const HistopathologyName = "histopathology"

// clinicalLookBack is how many sentences may separate CLINICAL from INFORMATION:
const clinicalLookBack = 4

var (
	queryLine   = regexp.MustCompile(`\s\?\s*$`)
	clinical    = regexp.MustCompile(`^\s*CLINICAL`)
	information = regexp.MustCompile(`\bINFORMATION\s*:`)
)

func init() {
	Register(HistopathologyName, newHistopathology)
}

// Concept is a solution concept with its description
type Concept struct {
	Description string `yaml:"description"`
}

// Diagnosis is an implied site and finding pair
type Diagnosis struct {
	Site    string `yaml:"site"`
	Finding string `yaml:"finding"`
}

// HistopathologyData is the solution.data section of a histopathology rules file
type HistopathologyData struct {
	Sites            map[string]Concept     `yaml:"sites"`
	Findings         map[string]Concept     `yaml:"findings"`
	Procedures       map[string]Concept     `yaml:"procedures"`
	SiteImplied      map[string][]string    `yaml:"siteImplied"`      // Concept -> implied sites
	FindingImplied   map[string][]string    `yaml:"findingImplied"`   // Concept -> implied findings
	DiagnosisImplied map[string][]Diagnosis `yaml:"diagnosisImplied"` // Concept -> implied site/finding pairs
	ProcedureImplied map[string]string      `yaml:"procedureImplied"` // Concept -> implied procedure
}

func (d *HistopathologyData) validate() error {
	for concept, sites := range d.SiteImplied {
		for _, site := range sites {
			if _, ok := d.Sites[site]; !ok {
				return internalerr.Configf("siteImplied %s: %s is not a site", concept, site)
			}
		}
	}
	for concept, findings := range d.FindingImplied {
		for _, finding := range findings {
			if _, ok := d.Findings[finding]; !ok {
				return internalerr.Configf("findingImplied %s: %s is not a finding", concept, finding)
			}
		}
	}
	for concept, pairs := range d.DiagnosisImplied {
		for _, p := range pairs {
			if _, ok := d.Sites[p.Site]; !ok {
				return internalerr.Configf("diagnosisImplied %s: %s is not a site", concept, p.Site)
			}
			if _, ok := d.Findings[p.Finding]; !ok {
				return internalerr.Configf("diagnosisImplied %s: %s is not a finding", concept, p.Finding)
			}
		}
	}
	for concept, procedure := range d.ProcedureImplied {
		if _, ok := d.Procedures[procedure]; !ok {
			return internalerr.Configf("procedureImplied %s: %s is not a procedure", concept, procedure)
		}
	}
	return nil
}

type histopathologyDefinition struct {
	data *HistopathologyData
}

func newHistopathology(node *yaml.Node) (Definition, error) {
	data := &HistopathologyData{}
	if err := decode(node, data); err != nil {
		return nil, err
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &histopathologyDefinition{data: data}, nil
}

func (d *histopathologyDefinition) Name() string { return HistopathologyName }

func (d *histopathologyDefinition) KnownConcepts() []string {
	seen := make(map[string]struct{})
	add := func(ids ...string) {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	for _, table := range []map[string]Concept{d.data.Sites, d.data.Findings, d.data.Procedures} {
		for id := range table {
			add(id)
		}
	}
	for id, implied := range d.data.SiteImplied {
		add(id)
		add(implied...)
	}
	for id, implied := range d.data.FindingImplied {
		add(id)
		add(implied...)
	}
	for id, pairs := range d.data.DiagnosisImplied {
		add(id)
		for _, p := range pairs {
			add(p.Site, p.Finding)
		}
	}
	for id, procedure := range d.data.ProcedureImplied {
		add(id, procedure)
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (d *histopathologyDefinition) New() complete.Solution {
	return &Histopathology{data: d.data}
}

// Histopathology codes pathology reports into site/finding diagnoses
type Histopathology struct {
	complete.BaseSolution
	data         *HistopathologyData
	lastNegation model.Negation // Asserted when findings are not being negated
}

func (h *Histopathology) Name() string { return HistopathologyName }

func (h *Histopathology) isSite(id string) bool {
	_, ok := h.data.Sites[id]
	return ok
}

func (h *Histopathology) isFinding(id string) bool {
	_, ok := h.data.Findings[id]
	return ok
}

func (h *Histopathology) isProcedure(id string) bool {
	_, ok := h.data.Procedures[id]
	return ok
}

// RequireConcept drops nouns, adjectives and adverbs that follow a line
// ending in a question mark: "? ulcer" suggests further testing, it is
// not a finding.
func (h *Histopathology) RequireConcept(cc *complete.CompletionContext, c complete.Candidate) bool {
	if !complete.IsNegationTag(c.PartOfSpeech) || c.Sentence == 0 {
		return true
	}
	return !queryLine.MatchString(cc.Sentences[c.Sentence-1].Text)
}

// CheckHistory finds a "CLINICAL INFORMATION:" heading split across up to
// four sentences.
func (h *Histopathology) CheckHistory(_ *complete.CompletionContext, inHistory bool, text string, prior []*model.Sentence) complete.HistoryChange {
	if inHistory {
		return complete.NoHistoryChange
	}
	loc := information.FindStringIndex(text)
	if loc == nil {
		return complete.NoHistoryChange
	}

	found := -1
	if len(prior) == 0 && clinical.MatchString(text) {
		found = 0
	}
	for back := 1; back <= clinicalLookBack && back <= len(prior); back++ {
		if clinical.MatchString(prior[len(prior)-back].Text) {
			found = back
		}
	}

	switch {
	case found < 0:
		return complete.NoHistoryChange
	case found == 0:
		return complete.HistoryChange{SentencesAgo: 0, Offset: loc[0], Length: loc[1] - loc[0]}
	default:
		return complete.HistoryChange{SentencesAgo: found}
	}
}

func (h *Histopathology) InitializeNegation(*complete.CompletionContext) {
	h.lastNegation = model.Asserted
}

// ExtendNegation carries a negated or ambiguous finding onto the findings
// that follow, until an asserted site or procedure.
func (h *Histopathology) ExtendNegation(cc *complete.CompletionContext, sentence, offset int, prior, _ model.Negation) {
	if !prior.IsSet() {
		h.lastNegation = model.Asserted
	}
	for _, occ := range cc.Sentences[sentence].Concepts[offset] {
		finding := h.isFinding(occ.ConceptID)
		if !finding && !h.isSite(occ.ConceptID) && !h.isProcedure(occ.ConceptID) {
			continue
		}
		switch {
		case h.lastNegation.IsSet() && finding:
			if occ.Negation != h.lastNegation {
				cc.Log().Info("extending negation", "concept", occ.ConceptID, "negation", h.lastNegation.String(), "offset", offset)
				occ.Negation = h.lastNegation
			}
		case h.lastNegation.IsSet():
			if occ.Negation == model.Asserted {
				h.lastNegation = model.Asserted
			}
		case finding && occ.Negation.IsSet():
			h.lastNegation = occ.Negation
		}
	}
}

func (h *Histopathology) HigherConceptFound(_ *complete.CompletionContext, higher string) bool {
	_, diagnosis := h.data.DiagnosisImplied[higher]
	return diagnosis || h.isFinding(higher)
}

func (h *Histopathology) SetConcept(cc *complete.CompletionContext, higher, member string) bool {
	return h.HigherConceptFound(cc, higher) && (h.isSite(member) || h.isFinding(member))
}

func (h *Histopathology) AddAdditionalConcept(cc *complete.CompletionContext, add complete.Addition, depth int) error {
	return h.imply(cc, add.ConceptID, add.Sentence, add.Offset, add.Source, add.Negation, depth)
}

// AddFinalConcepts adds what unused asserted concepts imply
func (h *Histopathology) AddFinalConcepts(cc *complete.CompletionContext) error {
	for i, s := range cc.Sentences {
		for _, offset := range s.Concepts.Offsets() {
			n := len(s.Concepts[offset])
			for j := 0; j < n; j++ {
				occ := s.Concepts[offset][j]
				if occ.Used || occ.Negation != model.Asserted {
					continue
				}
				if err := h.imply(cc, occ.ConceptID, i, offset, j, occ.Negation, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// imply adds the procedures, diagnoses, sites and findings concept implies.
// A concept implying a diagnosis is marked used so it joins no other pair.
func (h *Histopathology) imply(cc *complete.CompletionContext, concept string, sentence, offset, source int, negation model.Negation, depth int) error {
	if procedure, ok := h.data.ProcedureImplied[concept]; ok {
		if err := cc.AddAdditionalConcept(procedure, sentence, offset, source, h.data.Procedures[procedure].Description,
			negation, "procedure implied by "+concept, depth); err != nil {
			return err
		}
	}

	if pairs, ok := h.data.DiagnosisImplied[concept]; ok {
		for _, p := range pairs {
			if err := cc.AddAdditionalConcept(p.Site, sentence, offset, source, h.data.Sites[p.Site].Description,
				negation, "diagnosis site implied by "+concept, depth); err != nil {
				return err
			}
			if err := cc.AddAdditionalConcept(p.Finding, sentence, offset, source, h.data.Findings[p.Finding].Description,
				negation, "diagnosis finding implied by "+concept, depth); err != nil {
				return err
			}
		}
		alternates := cc.Sentences[sentence].Concepts
		if i := alternates.Find(offset, concept); i >= 0 {
			alternates[offset][i].MarkUsed()
		}
	}

	for _, site := range h.data.SiteImplied[concept] {
		if err := cc.AddAdditionalConcept(site, sentence, offset, source, h.data.Sites[site].Description,
			negation, "site implied by "+concept, depth); err != nil {
			return err
		}
	}
	for _, finding := range h.data.FindingImplied[concept] {
		if err := cc.AddAdditionalConcept(finding, sentence, offset, source, h.data.Findings[finding].Description,
			negation, "finding implied by "+concept, depth); err != nil {
			return err
		}
	}
	return nil
}
