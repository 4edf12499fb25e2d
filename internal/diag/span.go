// Package diag implements the compiler's diagnostic and debug-logging
// machinery: source spans, the three error families of §7 (Syntax,
// TypeCheck, ICE), and a build-tag-gated debug logger modeled on the
// teacher's internal/debug package.
package diag

import "fmt"

// Span is a source location, attached to every type term, slot, and RHIF/RTL
// operand (§4.6 "Kind-level diagnostics").
//
// RHDL's front-end macro is an external collaborator (§1); this package
// never constructs a Span from source text, only carries the ones the AST
// attaches to each node.
type Span struct {
	File            string
	Line, Col       int
	EndLine, EndCol int
}

// String renders a span as "file:line:col".
func (s Span) String() string {
	if s.File == "" && s.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// IsZero reports whether s carries no location information.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Label pairs a span with a short description, used for the secondary
// spans in a unification error ("expected this type because of this
// expression").
type Label struct {
	Span Span
	Text string
}

// Report is the diagnostic-report contract required by §7: every error the
// pipeline returns implements it.
type Report interface {
	error
	// Primary is the span most directly responsible for the error.
	Primary() Span
	// Secondary returns any additional labeled spans providing context.
	Secondary() []Label
}
