package rhdl

import (
	"fmt"
	"io"
)

// Options configures a single Compile call (§A.3: "the core takes no
// environment variables, flags, or files"; this struct is the only
// configuration surface, not a loaded file).
type Options struct {
	// IntegerDefaultWidth is the bit width an unconstrained integer
	// literal defaults to when nothing else pins its width (§4.4
	// "Defaulting"). Zero means DefaultOptions' value.
	IntegerDefaultWidth int

	// FixpointPasses bounds how many times the Inferencer re-runs its
	// delayed rule list before giving up (§4.4 "a bounded number of
	// passes — five is sufficient in practice"). Zero means
	// DefaultOptions' value.
	FixpointPasses int

	// Trace, if non-nil, receives a line per compilation stage entered
	// (MIR build, inference, RTL lowering) for debugging. Nil disables
	// tracing.
	Trace io.Writer
}

// DefaultOptions mirrors the constants §4.4 documents: a 128-bit integer
// default and a 5-pass fixpoint bound.
func DefaultOptions() Options {
	return Options{
		IntegerDefaultWidth: 128,
		FixpointPasses:      5,
	}
}

func (o Options) withDefaults() Options {
	if o.IntegerDefaultWidth == 0 {
		o.IntegerDefaultWidth = 128
	}
	if o.FixpointPasses == 0 {
		o.FixpointPasses = 5
	}
	return o
}

func (o Options) tracef(format string, args ...any) {
	if o.Trace == nil {
		return
	}
	fmt.Fprintf(o.Trace, format, args...)
}
