package model

// Summary is a count of what coding produced, with diagnostic signals
type Summary struct {
	Sentences int      `json:"sentences"`
	Concepts  int      `json:"concepts"`
	Asserted  int      `json:"asserted"`
	Negated   int      `json:"negated"`
	Ambiguous int      `json:"ambiguous"`
	History   int      `json:"history"` // Occurrences in patient history
	Unused    int      `json:"unused"`  // Asserted occurrences no higher concept absorbed
	Sections  []string `json:"sections,omitempty"`
	Signals   []Signal `json:"signals"`
}

// Signal is a diagnostic observation about a coded document
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"` // Inputs behind the description
}

// SignalType classifies a signal
type SignalType string

const (
	SignalRecognition SignalType = "recognition" // Share of tagged concepts the rules know
	SignalNegation    SignalType = "negation"    // Balance of asserted, negated and ambiguous
	SignalHistory     SignalType = "history"     // Share of occurrences in history
	SignalUnused      SignalType = "unused"      // Asserted occurrences left uncombined
	SignalEmpty       SignalType = "empty"       // Nothing was coded
)

// SignalSeverity indicates how much attention a signal needs
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
