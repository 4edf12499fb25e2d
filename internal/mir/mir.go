// Package mir implements the MIR Builder of §4.2: a scope-aware
// translation from the AST shape of internal/ast into the three-address
// RHIF instruction set of internal/rhif, threading a shared internal/ty
// Context so every slot leaves this stage with either a concrete type
// term or a fresh variable the Inferencer will resolve.
package mir

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// LiteralInfo is a literal's value exactly as written in source, before
// the Inferencer casts it into its resolved Kind (§4.4 "Output": "literal
// coercion").
type LiteralInfo struct {
	Lit ast.LitKind

	Value  int64
	Signed bool
	Width  int // meaningful only for ast.LitTypedBits
}

// Mir is compile_mir's output (§4.2): "Mir = { ops, literals, ty (partial
// Kind table), ty_equate, arguments, return_slot, stash, symbols }".
type Mir struct {
	Ops      []rhif.Op
	Literals map[rhif.Slot]LiteralInfo

	// Types is the partial Kind table: every slot's inference type term,
	// some already concrete (explicit annotations, named-type fields),
	// most still a fresh ty.Var the Inferencer will pin down.
	Types map[rhif.Slot]ty.Term

	// TyEquate records slot pairs the Inferencer must treat as the same
	// type (§4.2 "Both the old and new slots are recorded in ty_equate").
	TyEquate [][2]rhif.Slot

	Arguments  []rhif.Slot
	ReturnSlot rhif.Slot
	Stash      map[rhif.FuncID]*Mir
	Symbols    map[rhif.Slot]string

	// DynamicIndexSlots maps a kind.Elem.Slot handle (opaque here, §3
	// "Path") back to the rhif.Slot holding that dynamic index's runtime
	// value. Handles are their own namespace, distinct from register and
	// literal slot ids, since those two id spaces independently start at
	// zero and would otherwise collide.
	DynamicIndexSlots map[int]rhif.Slot
}

// Registry resolves named types during MIR construction. It is supplied
// by the caller (ultimately backed by whatever catalog the front-end macro
// produces) rather than owned by the Builder. The Builder reads only
// Types; Kernels is not consulted, since an ast.Call carries its callee.
type Registry struct {
	Types   map[string]kind.Kind
	Kernels map[string]*ast.Kernel
}

func newMir() *Mir {
	return &Mir{
		Literals:          make(map[rhif.Slot]LiteralInfo),
		Types:             make(map[rhif.Slot]ty.Term),
		Stash:             make(map[rhif.FuncID]*Mir),
		Symbols:           make(map[rhif.Slot]string),
		DynamicIndexSlots: make(map[int]rhif.Slot),
	}
}
