package mir

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// compileExpr lowers one AST expression node into RHIF ops, returning the
// slot holding its value.
func (b *Builder) compileExpr(e ast.Expr, sc *scope) (rhif.Slot, error) {
	switch n := e.(type) {
	case ast.Lit:
		return b.compileLit(n), nil
	case ast.Path:
		slot, _, ok := sc.lookup(n.Name)
		if !ok {
			return rhif.Slot{}, syntaxErr(diag.ComplexPathLHS, n.Loc(), "reference to unbound name "+n.Name)
		}
		return slot, nil
	case ast.Field:
		return b.compileProjection(n.Loc(), n.Recv, sc, kind.Field(n.Name))
	case ast.Index:
		return b.compileIndexExpr(n, sc)
	case ast.Tuple:
		elems, err := b.compileExprList(n.Elems, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Tuple{Lhs: slot, Elems: elems})
		return slot, nil
	case ast.Array:
		elems, err := b.compileExprList(n.Elems, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Array{Lhs: slot, Elems: elems})
		return slot, nil
	case ast.StructLit:
		return b.compileStructLit(n, sc)
	case ast.EnumLit:
		return b.compileEnumLit(n, sc)
	case ast.Binary:
		return b.compileBinary(n, sc)
	case ast.Unary:
		return b.compileUnary(n, sc)
	case ast.If:
		return b.compileIf(n, sc)
	case ast.Match:
		return b.compileMatch(n, sc)
	case ast.For:
		return b.compileFor(n, sc)
	case ast.Block:
		return b.compileBlock(n, sc)
	case ast.Return:
		return b.compileReturn(n, sc)
	case ast.Try:
		return b.compileTry(n, sc)
	case ast.MethodCall:
		return b.compileMethodCall(n, sc)
	case ast.BitsCtor:
		return b.compileBitsCtor(n, sc)
	case ast.Call:
		return b.compileCall(n, sc)
	default:
		return rhif.Slot{}, syntaxErr(diag.UnsupportedPattern, e.Loc(), "unrecognized expression node")
	}
}

func (b *Builder) compileExprList(es []ast.Expr, sc *scope) ([]rhif.Slot, error) {
	out := make([]rhif.Slot, len(es))
	for i, e := range es {
		s, err := b.compileExpr(e, sc)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (b *Builder) compileLit(n ast.Lit) rhif.Slot {
	switch n.Kind {
	case ast.LitTypedBits:
		var k kind.Kind
		if n.Signed {
			k = kind.SignedKind{N: n.Width}
		} else {
			k = kind.BitsKind{N: n.Width}
		}
		return b.newLiteral(b.ctx.FromKind(n.Loc(), k), LiteralInfo{
			Lit: n.Kind, Value: n.Value, Signed: n.Signed, Width: n.Width,
		})
	case ast.LitBool:
		return b.newLiteral(b.ctx.FromKind(n.Loc(), kind.BitsKind{N: 1}), LiteralInfo{
			Lit: n.Kind, Value: n.Value,
		})
	default: // LitInt: width/sign unresolved until inference/defaulting
		return b.newLiteral(b.ctx.TyInteger(n.Loc()), LiteralInfo{
			Lit: n.Kind, Value: n.Value,
		})
	}
}

// compileProjection lowers a single-element path projection (field, tuple
// index, enum discriminant/payload, signal value) through an Index op.
func (b *Builder) compileProjection(at diag.Span, recv ast.Expr, sc *scope, el kind.Elem) (rhif.Slot, error) {
	argSlot, err := b.compileExpr(recv, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	slot := b.newRegister(b.ctx.Fresh(at), "")
	b.emit(rhif.Index{Lhs: slot, Arg: argSlot, Path: kind.Path{el}})
	return slot, nil
}

// compileIndexExpr lowers `recv[idx]`, where idx may be a literal (static
// path element) or an arbitrary expression (dynamic; the dynamic slot's
// identity is carried in the Path element for the RTL Lowerer to resolve,
// §4.5).
func (b *Builder) compileIndexExpr(n ast.Index, sc *scope) (rhif.Slot, error) {
	argSlot, err := b.compileExpr(n.Recv, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	if lit, ok := n.IndexExpr.(ast.Lit); ok && lit.Kind != ast.LitTypedBits {
		slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Index{Lhs: slot, Arg: argSlot, Path: kind.Path{kind.Index(lit.Value)}})
		return slot, nil
	}
	idxSlot, err := b.compileExpr(n.IndexExpr, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	handle := b.dynamicIndexHandle(idxSlot)
	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Index{Lhs: slot, Arg: argSlot, Path: kind.Path{kind.DynamicIndex(handle)}})
	return slot, nil
}

func (b *Builder) compileStructLit(n ast.StructLit, sc *scope) (rhif.Slot, error) {
	var base rhif.Slot
	haveBase := false
	if n.Rest != nil {
		s, err := b.compileExpr(n.Rest, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		base, haveBase = s, true
	}

	k, ok := b.reg.Types[n.TypeName]
	var sk kind.StructKind
	if ok {
		sk, _ = k.(kind.StructKind)
	}

	fieldVals := make(map[string]rhif.Slot, len(n.Fields))
	for _, f := range n.Fields {
		s, err := b.compileExpr(f.Expr, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		fieldVals[f.Name] = s
	}

	term := b.ctx.Fresh(n.Loc())
	if ok {
		term = b.ctx.FromKind(n.Loc(), sk)
	}

	if !haveBase {
		order := make([]rhif.Slot, 0, len(n.Fields))
		if ok {
			for _, fd := range sk.Fields {
				order = append(order, fieldVals[fd.Name])
			}
		} else {
			for _, f := range n.Fields {
				order = append(order, fieldVals[f.Name])
			}
		}
		slot := b.newRegister(term, "")
		b.emit(rhif.Struct{Lhs: slot, Fields: order})
		return slot, nil
	}

	// Rest spread: start from base, splice each explicitly-given field in,
	// in source order so the emitted op sequence is deterministic.
	cur := base
	for _, f := range n.Fields {
		next := b.newRegister(term, "")
		b.emit(rhif.Splice{Lhs: next, Arg: cur, Value: fieldVals[f.Name], Path: kind.Path{kind.Field(f.Name)}})
		cur = next
	}
	return cur, nil
}

func (b *Builder) compileEnumLit(n ast.EnumLit, sc *scope) (rhif.Slot, error) {
	var payload rhif.Slot
	switch {
	case len(n.Positional) == 1:
		s, err := b.compileExpr(n.Positional[0], sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		payload = s
	case len(n.Positional) > 1:
		elems, err := b.compileExprList(n.Positional, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		tup := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Tuple{Lhs: tup, Elems: elems})
		payload = tup
	case len(n.Named) > 0:
		fields := make([]rhif.Slot, len(n.Named))
		for i, f := range n.Named {
			s, err := b.compileExpr(f.Expr, sc)
			if err != nil {
				return rhif.Slot{}, err
			}
			fields[i] = s
		}
		st := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Struct{Lhs: st, Fields: fields})
		payload = st
	default:
		payload = rhif.Empty
	}

	term := b.ctx.Fresh(n.Loc())
	if k, ok := b.reg.Types[n.TypeName]; ok {
		term = b.ctx.FromKind(n.Loc(), k)
	}
	slot := b.newRegister(term, "")
	b.emit(rhif.Enum{Lhs: slot, TypeName: n.TypeName, VariantName: n.VariantName, Payload: payload})
	return slot, nil
}
