package mir

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// surfaceBinOp maps a surface ast.BinOp to its RHIF opcode. Arithmetic
// (+, -, *) always lowers to the X-prefixed cross-width family: a
// kernel's `+`/`-`/`*` may combine operands of different widths, and the
// X-ops are what carries the "grow by one bit, preserve the mathematical
// value" promotion rule of §4.4's delayed XAdd/XMul/XSub constraints. The
// plain Add/Sub/Mul opcodes exist for the RTL Lowerer's own internal use
// once operands have already been resize-cast to a common width (§4.5).
func surfaceBinOp(op ast.BinOp) rhif.BinOp {
	switch op {
	case ast.OpAdd:
		return rhif.XAdd
	case ast.OpSub:
		return rhif.XSub
	case ast.OpMul:
		return rhif.XMul
	case ast.OpBitAnd:
		return rhif.BitAnd
	case ast.OpBitOr:
		return rhif.BitOr
	case ast.OpBitXor:
		return rhif.BitXor
	case ast.OpShl:
		return rhif.Shl
	case ast.OpShr:
		return rhif.Shr
	case ast.OpEq:
		return rhif.Eq
	case ast.OpNe:
		return rhif.Ne
	case ast.OpLt:
		return rhif.Lt
	case ast.OpLe:
		return rhif.Le
	case ast.OpGt:
		return rhif.Gt
	default: // OpGe
		return rhif.Ge
	}
}

func (b *Builder) compileBinary(n ast.Binary, sc *scope) (rhif.Slot, error) {
	l, err := b.compileExpr(n.Lhs, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	r, err := b.compileExpr(n.Rhs, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Binary{Lhs: slot, L: l, R: r, Op: surfaceBinOp(n.Op)})
	return slot, nil
}

func (b *Builder) compileUnary(n ast.Unary, sc *scope) (rhif.Slot, error) {
	arg, err := b.compileExpr(n.Recv, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	op := rhif.Not
	if n.Op == ast.OpNeg {
		op = rhif.Neg
	}
	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Unary{Lhs: slot, Arg: arg, Op: op})
	return slot, nil
}

func (b *Builder) compileMethodCall(n ast.MethodCall, sc *scope) (rhif.Slot, error) {
	arg, err := b.compileExpr(n.Recv, sc)
	if err != nil {
		return rhif.Slot{}, err
	}

	if n.Method == ast.MethodResize {
		width, ok := methodWidthArg(n)
		if !ok {
			return rhif.Slot{}, syntaxErr(diag.UnsupportedMethodCall, n.Loc(), "resize requires a literal width argument")
		}
		slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Resize{Lhs: slot, Arg: arg, Len: width})
		return slot, nil
	}

	var op rhif.UnOp
	switch n.Method {
	case ast.MethodAny:
		op = rhif.Any
	case ast.MethodAll:
		op = rhif.All
	case ast.MethodXor:
		op = rhif.Xor
	case ast.MethodAsSigned:
		op = rhif.Signed
	case ast.MethodAsUnsigned:
		op = rhif.Unsigned
	case ast.MethodVal:
		op = rhif.Val
	default:
		return rhif.Slot{}, syntaxErr(diag.UnsupportedMethodCall, n.Loc(), "method not in the supported vocabulary")
	}
	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Unary{Lhs: slot, Arg: arg, Op: op})
	return slot, nil
}

func methodWidthArg(n ast.MethodCall) (int, bool) {
	if len(n.Args) != 1 {
		return 0, false
	}
	lit, ok := n.Args[0].(ast.Lit)
	if !ok || lit.Kind == ast.LitBool {
		return 0, false
	}
	return int(lit.Value), true
}

func (b *Builder) compileBitsCtor(n ast.BitsCtor, sc *scope) (rhif.Slot, error) {
	arg, err := b.compileExpr(n.Arg, sc)
	if err != nil {
		return rhif.Slot{}, err
	}
	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	if n.Ctor == ast.CtorSigned {
		b.emit(rhif.AsSigned{Lhs: slot, Arg: arg, Len: n.Width})
	} else {
		b.emit(rhif.AsBits{Lhs: slot, Arg: arg, Len: n.Width})
	}
	return slot, nil
}

func (b *Builder) compileCall(n ast.Call, sc *scope) (rhif.Slot, error) {
	args, err := b.compileExprList(n.Args, sc)
	if err != nil {
		return rhif.Slot{}, err
	}

	sub := NewBuilder(b.ctx, b.reg)
	sub.nextFunc = b.nextFunc
	subMir, err := sub.Build(n.Callee)
	if err != nil {
		return rhif.Slot{}, err
	}

	id := b.nextFunc
	b.nextFunc++
	b.out.Stash[id] = subMir

	for i, arg := range args {
		if i < len(subMir.Arguments) {
			b.equate(arg, subMir.Arguments[i])
		}
	}

	slot := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.equate(slot, subMir.ReturnSlot)
	b.emit(rhif.Exec{Lhs: slot, Func: id, Args: args})
	return slot, nil
}
