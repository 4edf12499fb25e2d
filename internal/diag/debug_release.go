//go:build !rhdl.debug

package diag

// Enabled is false in ordinary builds; [Log] becomes a no-op and [Assert]
// compiles away its message formatting.
const Enabled = false

// Log is a no-op outside of rhdl.debug builds.
func Log(Session, string, string, ...any) {}

// Assert is a no-op outside of rhdl.debug builds: stages that would trip an
// assertion are expected to have already returned a proper [InternalError].
func Assert(cond bool, at Span, why string, args ...any) {}
