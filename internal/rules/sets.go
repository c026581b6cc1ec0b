package rules

import "github.com/ppiankov/autocoding/internal/model"

// Member is one (concept, desired negation) element of a concept set
type Member struct {
	Concept  string
	Negation model.Negation
}

// Matches reports whether an occurrence satisfies the member
func (m Member) Matches(conceptID string, negation model.Negation) bool {
	return m.Concept == conceptID && m.Negation == negation
}

// Higher is the concept synthesized when a set completes
type Higher struct {
	Concept  string
	Negation model.Negation
	Asserted bool // Mark every matched member used
}

// ConceptSet is either a SequentialSet or an UnorderedSet
type ConceptSet interface {
	Result() Higher
	Window() int
	Elements() []Member
	conceptSet()
}

// SequentialSet must be found in member order
type SequentialSet struct {
	Higher
	Strict    bool // No intervening concepts allowed
	Sentences int  // Window in sentences, 0 for the whole document
	Members   []Member
}

func (s SequentialSet) Result() Higher     { return s.Higher }
func (s SequentialSet) Window() int        { return s.Sentences }
func (s SequentialSet) Elements() []Member { return s.Members }
func (SequentialSet) conceptSet()          {}

// UnorderedSet must be found in any order, honouring repeated members
type UnorderedSet struct {
	Higher
	Sentences int
	Members   []Member
}

func (s UnorderedSet) Result() Higher     { return s.Higher }
func (s UnorderedSet) Window() int        { return s.Sentences }
func (s UnorderedSet) Elements() []Member { return s.Members }
func (UnorderedSet) conceptSet()          {}

// Counts returns how many times each member is required
func (s UnorderedSet) Counts() map[Member]int {
	counts := make(map[Member]int, len(s.Members))
	for _, m := range s.Members {
		counts[m]++
	}
	return counts
}
