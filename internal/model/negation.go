package model

import (
	"fmt"
	"strings"
)

// Negation is the assertion status of a concept occurrence
type Negation int

const (
	Asserted  Negation = iota // Concept is present
	Negated                   // Concept is denied
	Ambiguous                 // Concept is uncertain
)

// String returns the lowercase name of the negation state
func (n Negation) String() string {
	switch n {
	case Asserted:
		return "asserted"
	case Negated:
		return "negated"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("negation(%d)", int(n))
	}
}

// Symbol returns the single character prefix used in rule notation ("", "-" or "?")
func (n Negation) Symbol() string {
	switch n {
	case Negated:
		return "-"
	case Ambiguous:
		return "?"
	default:
		return ""
	}
}

// IsSet reports whether n denies or doubts the concept.
func (n Negation) IsSet() bool {
	return n == Negated || n == Ambiguous
}

// ParseNegation accepts names, notation symbols and the legacy digit codes.
// The legacy "strongly ambiguous" code 3 folds into Ambiguous.
func ParseNegation(s string) (Negation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asserted", "+", "0":
		return Asserted, nil
	case "negated", "-", "1":
		return Negated, nil
	case "ambiguous", "?", "2", "3":
		return Ambiguous, nil
	}
	return Asserted, fmt.Errorf("unknown negation %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (n Negation) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (n *Negation) UnmarshalText(text []byte) error {
	parsed, err := ParseNegation(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
