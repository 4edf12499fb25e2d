// Package rhdl implements the RHDL kernel-function compiler: a five-stage
// pipeline (MIR Builder -> Type Context -> Type Inferencer -> RHIF Object
// -> RTL Lowerer) that turns a typed, Rust-like kernel-function AST into
// bit-accurate RTL (§2 "Pipeline").
package rhdl

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/infer"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rtl"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// Compile runs the full pipeline over kernel and returns its bit-accurate
// RTL Object. Registry resolves any named struct/enum types kernel's body
// uses (sub-kernel calls carry their callee's AST directly and are not
// looked up in it); a nil Registry is treated as one with no named types
// or kernels registered.
func Compile(kernel *ast.Kernel, reg *mir.Registry, opts Options) (*rtl.Object, error) {
	opts = opts.withDefaults()
	if reg == nil {
		reg = &mir.Registry{Types: map[string]kind.Kind{}, Kernels: map[string]*ast.Kernel{}}
	}

	ctx := ty.NewContext()
	b := mir.NewBuilder(ctx, reg)

	opts.tracef("mir: building %q\n", kernel.Name)
	m, err := b.Build(kernel)
	if err != nil {
		return nil, err
	}

	opts.tracef("infer: resolving types for %q\n", kernel.Name)
	obj, err := infer.InferWithConfig(ctx, m, infer.Config{
		IntegerDefaultWidth: opts.IntegerDefaultWidth,
		FixpointPasses:      opts.FixpointPasses,
	})
	if err != nil {
		return nil, err
	}

	opts.tracef("rtl: lowering %q\n", kernel.Name)
	return rtl.Lower(obj)
}
