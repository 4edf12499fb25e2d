//go:build rhdl.debug

package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true when the compiler is built with the rhdl.debug tag.
const Enabled = true

// Log prints a structured debug line to stderr: pkg/file:line [g<goid>
// sess=<id>] op: msg. Call sites pass a session obtained from [NewSession];
// a zero-value Session just omits the "sess=" field.
//
// This never affects Slot allocation, op order, or bit layout — it exists
// purely for following a compile by eye, mirroring the teacher's debug.Log.
func Log(sess Session, op, format string, args ...any) {
	pc, file, line, _ := runtime.Caller(1)

	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
		name = name[slash+1:]
	}
	pkg := name
	if dot := strings.IndexByte(pkg, '.'); dot >= 0 {
		pkg = pkg[:dot]
	}
	file = filepath.Base(file)

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s/%s:%d [g%04d", pkg, file, line, routine.Goid())
	if sess != "" {
		fmt.Fprintf(&buf, " sess=%s", sess)
	}
	fmt.Fprintf(&buf, "] %s: ", op)
	fmt.Fprintf(&buf, format, args...)
	buf.WriteByte('\n')

	_, _ = os.Stderr.WriteString(buf.String())
}

// Assert panics with an [InternalError] if cond is false. Only active in
// debug builds; release builds rely on the stages having already been
// proven correct against the invariants of §8.
func Assert(cond bool, at Span, why string, args ...any) {
	if !cond {
		panic(&InternalError{
			Kind: UnexpectedStructuralTemplate,
			At:   at,
			Why:  fmt.Sprintf(why, args...),
		})
	}
}
