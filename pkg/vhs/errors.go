package vhs

import "fmt"

// Kind classifies a core diagnostic. Only MalformedInput and
// InternalInvariantViolation are surfaced as errors; NoSignal and
// LowConfidence are reported as values (an empty detection slice with a
// reason, or a field on OffsetReport) and are never returned as errors.
type Kind int

const (
	MalformedInput Kind = iota
	NoSignal
	LowConfidence
	InternalInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case MalformedInput:
		return "MalformedInput"
	case NoSignal:
		return "NoSignal"
	case LowConfidence:
		return "LowConfidence"
	case InternalInvariantViolation:
		return "InternalInvariantViolation"
	default:
		return "Unknown"
	}
}

// Diagnostic is a structured, prose-free description of a core failure or
// notable outcome. Context carries named fields (e.g. "frame_id",
// "sample_count") rather than a formatted message, so callers can build
// their own user-visible text; the core returns structured diagnostics,
// never prose.
type Diagnostic struct {
	Kind    Kind
	Reason  string
	Context map[string]any
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %v", d.Kind, d.Reason, d.Context)
}

// DiagnosticError wraps a Diagnostic for the two Kinds that are
// caller-actionable failures rather than normal empty-result outcomes.
type DiagnosticError struct {
	Diagnostic
}

func (e *DiagnosticError) Error() string { return e.Diagnostic.String() }

// NewMalformedInput builds a caller-actionable error for input the core
// cannot proceed with: missing parameters, non-aligned buffers, inconsistent
// dimensions. Callers across pkg/vhs's subpackages construct these at their
// own validation boundaries, since Kind and Diagnostic are shared but each
// subpackage owns its own notion of what counts as malformed.
func NewMalformedInput(reason string, ctx map[string]any) *DiagnosticError {
	return &DiagnosticError{Diagnostic{Kind: MalformedInput, Reason: reason, Context: ctx}}
}

// NewInvariantViolation builds an error for a state the core's own math
// guarantees should be unreachable (e.g. a computed region with non-positive
// width). Seeing one means a bug in the core, not bad input.
func NewInvariantViolation(reason string, ctx map[string]any) *DiagnosticError {
	return &DiagnosticError{Diagnostic{Kind: InternalInvariantViolation, Reason: reason, Context: ctx}}
}
