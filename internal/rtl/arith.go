package rtl

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// lowerBinary passes same-width ops straight through; the X-prefixed
// cross-width family (§4.5) is expanded into a resize-then-Binary sequence
// first.
func (l *lowerer) lowerBinary(o rhif.Binary) error {
	switch o.Op {
	case rhif.XAdd, rhif.XMul:
		return l.lowerXAddMul(o)
	case rhif.XSub:
		return l.lowerXSub(o)
	default:
		l.emit(Binary{opBase{o.At}, o.Lhs, o.L, o.R, o.Op})
		return nil
	}
}

// resizeTo resizes s to n bits, preserving its own signedness (zero-extend
// if unsigned, sign-extend if signed, or truncate).
func (l *lowerer) resizeTo(at diag.Span, s rhif.Slot, n int) (rhif.Slot, error) {
	k, err := l.kindOf(at, s)
	if err != nil {
		return rhif.Slot{}, err
	}
	out := l.newRegister(RegKind{Signed: kind.IsSigned(k), Len: n})
	l.emit(Cast{opBase{at}, out, s, n, CastResize})
	return out, nil
}

// lowerXAddMul implements §4.5 "XAdd/XMul: resize-cast both operands to
// the result width (sign preserved), emit Binary at the result width."
func (l *lowerer) lowerXAddMul(o rhif.Binary) error {
	lhsKind, err := l.kindOf(o.At, o.Lhs)
	if err != nil {
		return err
	}
	n := lhsKind.Bits()
	lr, err := l.resizeTo(o.At, o.L, n)
	if err != nil {
		return err
	}
	rr, err := l.resizeTo(o.At, o.R, n)
	if err != nil {
		return err
	}
	op := rhif.Add
	if o.Op == rhif.XMul {
		op = rhif.Mul
	}
	l.emit(Binary{opBase{o.At}, o.Lhs, lr, rr, op})
	return nil
}

// lowerXSub implements §4.5 "XSub: first resize-cast each operand to
// result_len with its own sign; then re-cast to Signed(result_len); emit
// Binary::Sub. This preserves the mathematical value even when the
// operands were unsigned."
func (l *lowerer) lowerXSub(o rhif.Binary) error {
	lhsKind, err := l.kindOf(o.At, o.Lhs)
	if err != nil {
		return err
	}
	n := lhsKind.Bits()
	lr, err := l.resizeTo(o.At, o.L, n)
	if err != nil {
		return err
	}
	rr, err := l.resizeTo(o.At, o.R, n)
	if err != nil {
		return err
	}

	ls := l.newRegister(RegKind{Signed: true, Len: n})
	l.emit(Cast{opBase{o.At}, ls, lr, n, CastSigned})
	rs := l.newRegister(RegKind{Signed: true, Len: n})
	l.emit(Cast{opBase{o.At}, rs, rr, n, CastSigned})

	l.emit(Binary{opBase{o.At}, o.Lhs, ls, rs, rhif.Sub})
	return nil
}

// lowerUnary passes plain reductions/bit ops straight through; the
// X-prefixed cross-width family is expanded per §4.5's bullet list.
func (l *lowerer) lowerUnary(o rhif.Unary) error {
	switch o.Op {
	case rhif.XExt:
		// "resize-cast to lhs.len": the cast itself is the whole op.
		return l.lowerCastToLhs(o.At, o.Lhs, o.Arg, CastResize)
	case rhif.XShl:
		return l.lowerXShl(o)
	case rhif.XShr:
		return l.lowerXShr(o)
	case rhif.XNeg:
		return l.lowerXNeg(o)
	case rhif.XSgn:
		return l.lowerXSgn(o)
	default:
		l.emit(Unary{opBase{o.At}, o.Lhs, o.Arg, o.Op, o.N})
		return nil
	}
}

// lowerXShl implements §4.5 "XShl(n): zero-extend or sign-extend arg to
// arg_len + n, then shift left by the literal n."
func (l *lowerer) lowerXShl(o rhif.Unary) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	extLen := argKind.Bits() + o.N
	ext := l.newRegister(RegKind{Signed: kind.IsSigned(argKind), Len: extLen})
	l.emit(Cast{opBase{o.At}, ext, o.Arg, extLen, CastResize})
	l.emit(Unary{opBase{o.At}, o.Lhs, ext, rhif.XShl, o.N})
	return nil
}

// lowerXShr implements §4.5 "XShr(n): shift right first (preserves sign),
// then resize to arg_len - n."
func (l *lowerer) lowerXShr(o rhif.Unary) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	shifted := l.newRegister(RegKind{Signed: kind.IsSigned(argKind), Len: argKind.Bits()})
	l.emit(Unary{opBase{o.At}, shifted, o.Arg, rhif.XShr, o.N})
	l.emit(Cast{opBase{o.At}, o.Lhs, shifted, argKind.Bits() - o.N, CastResize})
	return nil
}

// lowerXNeg implements §4.5 "XNeg: extend arg by one bit (preserving
// sign), convert to signed if unsigned, negate."
func (l *lowerer) lowerXNeg(o rhif.Unary) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	extLen := argKind.Bits() + 1
	ext := l.newRegister(RegKind{Signed: kind.IsSigned(argKind), Len: extLen})
	l.emit(Cast{opBase{o.At}, ext, o.Arg, extLen, CastResize})

	signedArg := ext
	if !kind.IsSigned(argKind) {
		signedArg = l.newRegister(RegKind{Signed: true, Len: extLen})
		l.emit(Cast{opBase{o.At}, signedArg, ext, extLen, CastSigned})
	}
	l.emit(Unary{opBase{o.At}, o.Lhs, signedArg, rhif.XNeg, 0})
	return nil
}

// lowerXSgn implements §4.5 "XSgn: extend arg by one bit (as unsigned),
// reinterpret-cast to signed."
func (l *lowerer) lowerXSgn(o rhif.Unary) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	n := argKind.Bits()

	asUnsigned := l.newRegister(RegKind{Signed: false, Len: n})
	l.emit(Cast{opBase{o.At}, asUnsigned, o.Arg, n, CastUnsigned})

	ext := l.newRegister(RegKind{Signed: false, Len: n + 1})
	l.emit(Cast{opBase{o.At}, ext, asUnsigned, n + 1, CastResize})

	signedExt := l.newRegister(RegKind{Signed: true, Len: n + 1})
	l.emit(Cast{opBase{o.At}, signedExt, ext, n + 1, CastSigned})

	l.emit(Unary{opBase{o.At}, o.Lhs, signedExt, rhif.XSgn, 0})
	return nil
}
