package infer

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// queueDelayed appends a closure to i.delayed for any op whose constraint
// depends on operand shapes that may not be resolved until a later
// fixpoint pass (§4.4 "Delayed rules"): Binary, Unary, Index and Splice.
// Everything else is handled immediately by strongConstraint.
func (i *Inferencer) queueDelayed(m *mir.Mir, op rhif.Op) {
	switch o := op.(type) {
	case rhif.Binary:
		i.delayed = append(i.delayed, func() error { return i.delayedBinary(m, o) })
	case rhif.Unary:
		i.delayed = append(i.delayed, func() error { return i.delayedUnary(m, o) })
	case rhif.Index:
		i.delayed = append(i.delayed, func() error { return i.delayedIndex(m, o) })
	case rhif.Splice:
		i.delayed = append(i.delayed, func() error { return i.delayedSplice(m, o) })
	}
}

var comparisons = map[rhif.BinOp]bool{
	rhif.Eq: true, rhif.Ne: true, rhif.Lt: true, rhif.Le: true, rhif.Gt: true, rhif.Ge: true,
}

func (i *Inferencer) delayedBinary(m *mir.Mir, o rhif.Binary) error {
	c := i.ctx
	lhs, l, r := i.typeOf(m, o.Lhs), i.typeOf(m, o.L), i.typeOf(m, o.R)

	switch {
	case o.Op == rhif.Shl || o.Op == rhif.Shr:
		// Shifts: lhs = arg1 (the shifted value); the shift count's sign
		// unifies with unsigned.
		if err := c.Unify(lhs, l); err != nil {
			return err
		}
		rSign, err := c.ProjectSignFlag(r)
		if err != nil {
			return err
		}
		return c.Unify(rSign, ty.ConstTerm{At: o.At, Tag: ty.CSigned, Sign: false})

	case o.Op == rhif.XAdd || o.Op == rhif.XMul || o.Op == rhif.XSub:
		return i.delayedCrossWidth(m, o)

	case comparisons[o.Op]:
		// lhs = Bool, possibly lifted to Signal(Bool, clock); the data
		// parts of the two operands unify with each other.
		return i.enforceDataBinary(o.At, lhs, l, r, true)

	default:
		// Plain data binops (Add/Sub/Mul/BitAnd/BitOr/BitXor):
		// a.data == b.data; lhs takes the signal envelope of whichever
		// operand is a signal (both clocks unify if both are), else
		// lhs == a == b.
		return i.enforceDataBinary(o.At, lhs, l, r, false)
	}
}

// enforceDataBinary implements §4.4's enforce_data_types_binary. When
// forceBool is true (comparisons), lhs is pinned to Bool (optionally
// signaled) instead of sharing a's own data type.
func (i *Inferencer) enforceDataBinary(at diag.Span, lhs, l, r ty.Term, forceBool bool) error {
	c := i.ctx
	lIsSignal := isSignalShaped(c, l)
	rIsSignal := isSignalShaped(c, r)

	var lData, rData ty.Term = l, r
	var clock ty.Term

	if lIsSignal {
		d, err := c.ProjectSignalValue(l)
		if err != nil {
			return err
		}
		ck, err := c.ProjectSignalClock(l)
		if err != nil {
			return err
		}
		lData, clock = d, ck
	}
	if rIsSignal {
		d, err := c.ProjectSignalValue(r)
		if err != nil {
			return err
		}
		ck, err := c.ProjectSignalClock(r)
		if err != nil {
			return err
		}
		rData = d
		if clock != nil {
			if err := c.Unify(clock, ck); err != nil {
				return err
			}
		} else {
			clock = ck
		}
	}

	if err := c.Unify(lData, rData); err != nil {
		return err
	}

	result := lData
	if forceBool {
		result = i.boolTerm(at)
	}
	if lIsSignal || rIsSignal {
		if clock == nil {
			clock = c.Fresh(at)
		}
		return c.Unify(lhs, c.TySignal(at, result, clock))
	}
	return c.Unify(lhs, result)
}

// delayedCrossWidth implements the XAdd/XMul ("grow by one bit, sign
// inherited") and XSub ("as XAdd, but lhs.sign = signed always") rules.
func (i *Inferencer) delayedCrossWidth(m *mir.Mir, o rhif.Binary) error {
	c := i.ctx
	lhs, l, r := i.typeOf(m, o.Lhs), i.typeOf(m, o.L), i.typeOf(m, o.R)

	lLen, err := c.ProjectBitLength(l)
	if err != nil {
		return err
	}
	rLen, err := c.ProjectBitLength(r)
	if err != nil {
		return err
	}
	lSign, err := c.ProjectSignFlag(l)
	if err != nil {
		return err
	}
	rSign, err := c.ProjectSignFlag(r)
	if err != nil {
		return err
	}

	var lhsSign ty.Term
	if o.Op == rhif.XSub {
		lhsSign = ty.ConstTerm{At: o.At, Tag: ty.CSigned, Sign: true}
	} else {
		lhsSign = c.Fresh(o.At)
		if err := c.Unify(lhsSign, lSign); err != nil {
			return err
		}
		if err := c.Unify(lhsSign, rSign); err != nil {
			return err
		}
	}

	ln, lok := asConcreteLength(c, lLen)
	rn, rok := asConcreteLength(c, rLen)
	lhsLen := c.Fresh(o.At)
	if lok && rok {
		n := ln
		if rn > n {
			n = rn
		}
		lhsLen = c.TyLength(o.At, n+1)
	}

	return c.Unify(lhs, ty.BitsTerm{At: o.At, SignFlag: lhsSign, Len: lhsLen})
}

var reductions = map[rhif.UnOp]bool{rhif.All: true, rhif.Any: true, rhif.Xor: true}

func (i *Inferencer) delayedUnary(m *mir.Mir, o rhif.Unary) error {
	c := i.ctx
	lhs, arg := i.typeOf(m, o.Lhs), i.typeOf(m, o.Arg)

	switch {
	case reductions[o.Op]:
		if isSignalShaped(c, arg) {
			clock, err := c.ProjectSignalClock(arg)
			if err != nil {
				return err
			}
			return c.Unify(lhs, c.TySignal(o.At, i.boolTerm(o.At), clock))
		}
		return c.Unify(lhs, i.boolTerm(o.At))

	case o.Op == rhif.XExt:
		// Pad: lhs.len = arg.len + 1, same sign.
		argLen, err := c.ProjectBitLength(arg)
		if err != nil {
			return err
		}
		argSign, err := c.ProjectSignFlag(arg)
		if err != nil {
			return err
		}
		n, ok := asConcreteLength(c, argLen)
		lhsLen := c.Fresh(o.At)
		if ok {
			lhsLen = c.TyLength(o.At, n+1)
		}
		return c.Unify(lhs, ty.BitsTerm{At: o.At, SignFlag: argSign, Len: lhsLen})

	case o.Op == rhif.Neg || o.Op == rhif.Not:
		// Bitwise/arithmetic complement: same data shape in and out.
		return c.Unify(lhs, arg)

	case o.Op == rhif.Signed, o.Op == rhif.Unsigned:
		signFlag, err := c.ProjectSignFlag(arg)
		if err != nil {
			return err
		}
		want := o.Op == rhif.Signed
		if err := c.Unify(signFlag, ty.ConstTerm{At: o.At, Tag: ty.CSigned, Sign: want}); err != nil {
			return &diag.TypeError{Kind: diag.CannotUnify, At: o.At, Detail: "as_signed/as_unsigned sign flag mismatch"}
		}
		return c.Unify(lhs, arg)

	case o.Op == rhif.Val:
		return c.Unify(lhs, arg)

	default: // XShl/XShr/XNeg/XSgn: only ever synthesized post-inference by the RTL Lowerer
		return nil
	}
}

// delayedIndex implements §4.4's "simulate the path by successively
// projecting the composite type".
func (i *Inferencer) delayedIndex(m *mir.Mir, o rhif.Index) error {
	projected, err := i.projectPath(m, o.At, i.typeOf(m, o.Arg), o.Path)
	if err != nil || projected == nil {
		return err
	}
	return i.ctx.Unify(i.typeOf(m, o.Lhs), projected)
}

// delayedSplice mirrors delayedIndex: the spliced-in value must match the
// type found at the end of the path, and the whole (lhs) shares the
// argument's outer type.
func (i *Inferencer) delayedSplice(m *mir.Mir, o rhif.Splice) error {
	c := i.ctx
	if err := c.Unify(i.typeOf(m, o.Lhs), i.typeOf(m, o.Arg)); err != nil {
		return err
	}
	projected, err := i.projectPath(m, o.At, i.typeOf(m, o.Arg), o.Path)
	if err != nil || projected == nil {
		return err
	}
	return c.Unify(i.typeOf(m, o.Value), projected)
}

// projectPath walks path one element at a time, narrowing base's term.
// Each step requires base to already be resolved to the matching
// composite shape; if base is still an unbound variable the whole
// projection is skipped for this pass and retried on the next (returns
// nil, nil), since an earlier delayed rule elsewhere may still pin it
// down. A DynamicIndex element additionally constrains its slot's own
// type to an unsigned bit-vector ("usize") when still unconstrained.
func (i *Inferencer) projectPath(m *mir.Mir, at diag.Span, base ty.Term, path kind.Path) (ty.Term, error) {
	c := i.ctx
	cur := c.Apply(base)
	for _, el := range path {
		if _, ok := cur.(ty.VarTerm); ok {
			return nil, nil
		}
		switch el.Tag {
		case kind.ElemField:
			st, ok := cur.(ty.StructTerm)
			if !ok {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "field projection into a non-struct type"}
			}
			found := false
			for _, f := range st.Fields {
				if f.Name == el.Name {
					cur = c.Apply(f.Term)
					found = true
					break
				}
			}
			if !found {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "no field " + el.Name}
			}

		case kind.ElemTupleIndex:
			tt, ok := cur.(ty.TupleTerm)
			if !ok || int(el.Index) >= len(tt.Elems) {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "tuple-index projection out of range"}
			}
			cur = c.Apply(tt.Elems[el.Index])

		case kind.ElemIndex, kind.ElemDynamicIndex:
			arr, ok := cur.(ty.ArrayTerm)
			if !ok {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "index projection into a non-array type"}
			}
			if el.Tag == kind.ElemDynamicIndex {
				if idx, ok := m.DynamicIndexSlots[el.Slot]; ok {
					idxSign, err := c.ProjectSignFlag(i.typeOf(m, idx))
					if err == nil {
						_ = c.Unify(idxSign, ty.ConstTerm{At: at, Tag: ty.CSigned, Sign: false})
					}
				}
			}
			cur = c.Apply(arr.Base)

		case kind.ElemEnumDiscriminant:
			et, ok := cur.(ty.EnumTerm)
			if !ok {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "discriminant projection into a non-enum type"}
			}
			cur = c.Apply(et.Discriminant)

		case kind.ElemEnumPayload:
			et, ok := cur.(ty.EnumTerm)
			if !ok {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "payload projection into a non-enum type"}
			}
			found := false
			for _, vt := range et.Variants {
				if vt.Tag == el.Name {
					cur = c.Apply(vt.Term)
					found = true
					break
				}
			}
			if !found {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "no variant " + el.Name}
			}

		case kind.ElemEnumPayloadByValue:
			et, ok := cur.(ty.EnumTerm)
			if !ok {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "payload projection into a non-enum type"}
			}
			found := false
			for _, vt := range et.Variants {
				if vt.Discriminant == el.Index {
					cur = c.Apply(vt.Term)
					found = true
					break
				}
			}
			if !found {
				return nil, &diag.TypeError{Kind: diag.PathMismatch, At: at, Detail: "no variant with that discriminant"}
			}

		case kind.ElemSignalValue:
			d, err := c.ProjectSignalValue(cur)
			if err != nil {
				return nil, err
			}
			cur = c.Apply(d)
		}
	}
	return cur, nil
}

func isSignalShaped(c *ty.Context, t ty.Term) bool {
	_, ok := c.Apply(t).(ty.SignalTerm)
	return ok
}

func asConcreteLength(c *ty.Context, t ty.Term) (int, bool) {
	ct, ok := c.Apply(t).(ty.ConstTerm)
	if !ok || ct.Tag != ty.CLength {
		return 0, false
	}
	return ct.N, true
}
