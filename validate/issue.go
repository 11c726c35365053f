package validate

import "fmt"

// Severity classifies an issue. Error-severity issues make the validation
// result invalid; warnings are reported but do not.
type Severity int

// Severity levels.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	default:
		return "warning"
	}
}

// Issue codes emitted by the built-in rules and the parser.
const (
	CodeParseError             = "PARSE_ERROR"
	CodeDisallowedIdentifier   = "DISALLOWED_IDENTIFIER"
	CodeNoCallTargetAssignment = "NO_CALL_TARGET_ASSIGNMENT"
)

// Location is a source span in 1-based line/column coordinates.
type Location struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine,omitempty"`
	EndColumn int `json:"endColumn,omitempty"`
}

// Issue is a single validation finding. Issues are never mutated after
// creation.
type Issue struct {
	// Code is the stable machine-readable issue code.
	Code string `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Severity is the issue severity, defaulted from the emitting rule.
	Severity Severity `json:"severity"`

	// Location is the source span of the offending construct, when known.
	Location *Location `json:"location,omitempty"`

	// Data carries rule-specific details, such as the offending
	// identifier or the violation kind.
	Data map[string]any `json:"data,omitempty"`
}

// String returns a compact single-line rendering of the issue.
func (i Issue) String() string {
	if i.Location != nil {
		return fmt.Sprintf("%s [%s] %s (line %d, col %d)",
			i.Severity, i.Code, i.Message, i.Location.Line, i.Location.Column)
	}
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
}
