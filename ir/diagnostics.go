package ir

import "fmt"

// Severity is a Diagnostic's urgency (spec.md §7).
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Category is the error taxonomy spec.md §7 enumerates: schema, type,
// reference, structural, bounds. It has no behavioral effect on the
// validator; it exists so tooling can group/filter diagnostics.
type Category uint8

const (
	CategorySchema Category = iota
	CategoryType
	CategoryReference
	CategoryStructural
	CategoryBounds
)

func (c Category) String() string {
	switch c {
	case CategorySchema:
		return "schema"
	case CategoryType:
		return "type"
	case CategoryReference:
		return "reference"
	case CategoryStructural:
		return "structural"
	case CategoryBounds:
		return "bounds"
	default:
		return "unknown"
	}
}

// Diagnostic is a single validator finding. It is a plain value, never
// a thrown error: the validator always returns its full diagnostic
// list rather than stopping at the first failure (spec.md §7).
type Diagnostic struct {
	FunctionID string
	NodeID     string // empty if not node-scoped
	Category   Category
	Severity   Severity
	Message    string
}

func (d Diagnostic) String() string {
	loc := d.FunctionID
	if d.NodeID != "" {
		loc = fmt.Sprintf("%s/%s", d.FunctionID, d.NodeID)
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, loc, d.Message)
}

func errorf(functionID, nodeID string, cat Category, format string, args ...any) Diagnostic {
	return Diagnostic{
		FunctionID: functionID,
		NodeID:     nodeID,
		Category:   cat,
		Severity:   SeverityError,
		Message:    fmt.Sprintf(format, args...),
	}
}

// HasErrors reports whether any diagnostic in diags is SeverityError.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
