package mir

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// compileStmt lowers one block statement for effect (§4.2 "Scoping").
func (b *Builder) compileStmt(s ast.Stmt, sc *scope) error {
	switch n := s.(type) {
	case ast.Let:
		return b.compileLet(n, sc)
	case ast.Assign:
		return b.compileAssign(n, sc)
	default:
		return syntaxErr(diag.UnsupportedPattern, s.Loc(), "unsupported statement shape")
	}
}

// compileLet implements §4.2 "Pattern lowering" (initialize_local):
// a refutable pattern is rejected outright, and a structural pattern is
// walked leaf by leaf, synthesizing one Index projection per leaf so each
// name binds to its own slot rather than aliasing the whole value.
func (b *Builder) compileLet(n ast.Let, sc *scope) error {
	if n.Pattern.Fallible {
		return syntaxErr(diag.FallibleLet, n.At, "let pattern must always match")
	}
	val, err := b.compileExpr(n.Value, sc)
	if err != nil {
		return err
	}
	return b.initializeLocal(n.At, n.Pattern, val, sc)
}

// initializeLocal recursively destructures pattern against the value held
// in val, binding every leaf name it contains.
func (b *Builder) initializeLocal(at diag.Span, pattern ast.LetPattern, val rhif.Slot, sc *scope) error {
	if pattern.Name != "" {
		sc.bind(pattern.Name, val)
		return nil
	}
	for i, elem := range pattern.Elems {
		leaf := b.newRegister(b.ctx.Fresh(at), "")
		b.emit(rhif.Index{Lhs: leaf, Arg: val, Path: kind.Path{kind.TupleIndex(int64(i))}})
		if err := b.initializeLocal(at, elem, leaf, sc); err != nil {
			return err
		}
	}
	for _, fp := range pattern.Fields {
		leaf := b.newRegister(b.ctx.Fresh(at), "")
		b.emit(rhif.Index{Lhs: leaf, Arg: val, Path: kind.Path{kind.Field(fp.Name)}})
		if err := b.initializeLocal(at, fp.Pattern, leaf, sc); err != nil {
			return err
		}
	}
	return nil
}

// compileAssign implements §4.2 "assignment ... performs a rebind". A nil
// Target is a bare expression statement, kept only for its side effects
// (a sub-kernel Call or a `?` early-return) and otherwise discarded. A
// Target with a non-empty Path splices the new value into the named root
// through each projection step and rebinds the root to the spliced
// result, since RHIF has no mutation: every assignment is a new value.
func (b *Builder) compileAssign(n ast.Assign, sc *scope) error {
	val, err := b.compileExpr(n.Value, sc)
	if err != nil {
		return err
	}
	if n.Target == nil {
		return nil
	}

	root, _, ok := sc.lookup(n.Target.Name)
	if !ok {
		return syntaxErr(diag.ComplexPathLHS, n.At, "assignment to unbound name "+n.Target.Name)
	}
	if len(n.Target.Path) == 0 {
		sc.rebind(n.Target.Name, val)
		return nil
	}

	path := make(kind.Path, 0, len(n.Target.Path))
	for _, step := range n.Target.Path {
		switch step.Kind {
		case ast.AssignField:
			path = append(path, kind.Field(step.Name))
		case ast.AssignIndex:
			if lit, ok := step.IndexExpr.(ast.Lit); ok && lit.Kind != ast.LitTypedBits {
				path = append(path, kind.Index(lit.Value))
				continue
			}
			idxSlot, err := b.compileExpr(step.IndexExpr, sc)
			if err != nil {
				return err
			}
			path = append(path, kind.DynamicIndex(b.dynamicIndexHandle(idxSlot)))
		}
	}

	spliced := b.newRegister(b.ctx.Fresh(n.At), "")
	b.emit(rhif.Splice{Lhs: spliced, Arg: root, Value: val, Path: path})
	sc.rebind(n.Target.Name, spliced)
	return nil
}
