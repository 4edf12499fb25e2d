package mir

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// Builder holds the mutable state of one compile_mir invocation: the
// Type Context every term is allocated against, the Mir being assembled,
// and the monotonic slot/func counters (§3 "Slots are created
// monotonically").
type Builder struct {
	ctx *ty.Context
	reg *Registry
	out *Mir

	nextReg    int
	nextLit    int
	nextFunc   rhif.FuncID
	nextDynIdx int

	earlyReturn rhif.Slot
	returnSlot  rhif.Slot
}

// NewBuilder returns a Builder sharing ctx with the rest of the
// compilation (so a sub-kernel's types can unify against its caller's).
func NewBuilder(ctx *ty.Context, reg *Registry) *Builder {
	return &Builder{ctx: ctx, reg: reg, out: newMir()}
}

// Build implements compile_mir(kernel, mode) -> Mir (§4.2).
func (b *Builder) Build(k *ast.Kernel) (*Mir, error) {
	root := newScope(nil)

	for _, p := range k.Params {
		term, err := b.resolveTypeName(k.Body.Loc(), p.TypeName)
		if err != nil {
			return nil, err
		}
		slot := b.newRegister(term, p.Name)
		root.bind(p.Name, slot)
		b.out.Arguments = append(b.out.Arguments, slot)
	}

	at := k.Body.Loc()
	b.earlyReturn = b.newRegister(b.ctx.FromKind(at, kind.BitsKind{N: 1}), "__early_return")
	b.emitLiteralInto(b.earlyReturn, at, ast.LitBool, 0)

	retTerm, err := b.resolveTypeName(at, k.ReturnType)
	if err != nil {
		return nil, err
	}
	b.returnSlot = b.newRegister(retTerm, "return_slot")

	// The initial value is never observed at runtime (the epilogue/each
	// compileReturn Select only picks this branch once __early_return is
	// true, and by then a return has already overwritten it) but RTL still needs
	// a concrete wire on both sides of that mux, so seed it with a zero
	// literal typed as a fresh variable -- not rhif.Empty, whose type is
	// pinned to Empty and would then fail to unify against a non-unit
	// ReturnType once the epilogue Select joins it with the body's result.
	zero := b.newLiteral(b.ctx.Fresh(at), LiteralInfo{Lit: ast.LitInt, Value: 0})
	b.emit(rhif.Assign{Lhs: b.returnSlot, Rhs: zero})

	result, err := b.compileExpr(k.Body, root)
	if err != nil {
		return nil, err
	}

	// Epilogue: return_slot := select(__early_return, return_slot, block_result)
	joined := b.newRegister(retTerm, "")
	b.emit(rhif.Select{Lhs: joined, Cond: b.earlyReturn, True: b.returnSlot, False: result})
	b.returnSlot = joined
	b.out.ReturnSlot = b.returnSlot

	return b.out, nil
}

// resolveTypeName converts a source type name to a ty.Term. An empty name
// (an omitted return type annotation) gets a fresh variable rather than a
// fixed Empty, same as any other unresolved name: a kernel whose body ends
// in a value unifies the variable with that value's type, while a kernel
// whose body is a bare statement block unifies it with Empty via its own
// result slot, so both cases resolve correctly without a separate check.
func (b *Builder) resolveTypeName(at diag.Span, name string) (ty.Term, error) {
	if name == "" {
		return b.ctx.Fresh(at), nil
	}
	switch name {
	case "bool":
		return b.ctx.FromKind(at, kind.BitsKind{N: 1}), nil
	}
	if k, ok := b.reg.Types[name]; ok {
		return b.ctx.FromKind(at, k), nil
	}
	return b.ctx.Fresh(at), nil
}

func (b *Builder) newRegister(term ty.Term, symbol string) rhif.Slot {
	slot := rhif.Slot{Kind: rhif.SlotRegister, ID: b.nextReg}
	b.nextReg++
	b.out.Types[slot] = term
	if symbol != "" {
		b.out.Symbols[slot] = symbol
	}
	return slot
}

func (b *Builder) newLiteral(term ty.Term, info LiteralInfo) rhif.Slot {
	slot := rhif.Slot{Kind: rhif.SlotLiteral, ID: b.nextLit}
	b.nextLit++
	b.out.Types[slot] = term
	b.out.Literals[slot] = info
	return slot
}

func (b *Builder) emit(op rhif.Op) { b.out.Ops = append(b.out.Ops, op) }

// dynamicIndexHandle allocates a fresh kind.Elem.Slot handle for a
// dynamic-index path element and records which rhif.Slot it refers to.
func (b *Builder) dynamicIndexHandle(idx rhif.Slot) int {
	h := b.nextDynIdx
	b.nextDynIdx++
	b.out.DynamicIndexSlots[h] = idx
	return h
}

func (b *Builder) equate(a, c rhif.Slot) {
	b.out.TyEquate = append(b.out.TyEquate, [2]rhif.Slot{a, c})
}

// emitLiteralInto writes a fresh literal slot's value directly into an
// existing register via Assign, used for the prologue's __early_return :=
// false initialization where the destination slot already exists.
func (b *Builder) emitLiteralInto(dst rhif.Slot, at diag.Span, litKind ast.LitKind, value int64) {
	lit := b.newLiteral(b.ctx.TyInteger(at), LiteralInfo{Lit: litKind, Value: value})
	b.emit(rhif.Assign{Lhs: dst, Rhs: lit})
}

// syntaxErr is a small helper so every MIR failure mode carries a span and
// a stable SyntaxErrorKind, per §4.2 "Failure modes".
func syntaxErr(errKind diag.SyntaxErrorKind, at diag.Span, detail string) error {
	return &diag.SyntaxError{Kind: errKind, At: at, Detail: detail}
}
