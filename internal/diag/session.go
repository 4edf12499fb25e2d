package diag

import "github.com/google/uuid"

// Session is a short correlation id for one call to Compile, threaded
// through [Log] calls so that interleaved debug output from nested
// sub-kernel compiles (§4.2 "Sub-kernel calls") can be told apart.
//
// Session is purely a logging aid. It is minted by NewSession; Compile
// does not create one itself. It is never read by any stage that produces a Slot, RHIF op,
// or RTL op — the determinism invariant of §5 ("equal input AST must
// produce byte-equal RTL") does not depend on it.
type Session string

// NewSession mints a fresh session id. The zero Session ("") is valid and
// simply omits the "sess=" field from debug log lines.
func NewSession() Session {
	return Session(uuid.NewString()[:8])
}
