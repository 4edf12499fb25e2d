package infer

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// boolTerm is the Bits{unsigned, 1} shape every boolean-valued slot (a
// condition, a comparison result, a reduction result) unifies against.
func (i *Inferencer) boolTerm(at diag.Span) ty.Term {
	return ty.BitsTerm{
		At:       at,
		SignFlag: ty.ConstTerm{At: at, Tag: ty.CSigned, Sign: false},
		Len:      ty.ConstTerm{At: at, Tag: ty.CLength, N: 1},
	}
}

// strongConstraint applies the immediate, unconditional unifications of
// §4.4's "strong constraints per opcode" table. Binary, Unary, Index and
// Splice are handled as delayed rules instead (delayed.go) since their
// constraints depend on operand shapes that may not be resolved yet.
func (i *Inferencer) strongConstraint(m *mir.Mir, op rhif.Op) error {
	c := i.ctx
	switch o := op.(type) {
	case rhif.Array:
		elem := c.Fresh(o.At)
		if err := c.Unify(i.typeOf(m, o.Lhs), c.TyArray(o.At, elem, c.TyLength(o.At, len(o.Elems)))); err != nil {
			return err
		}
		for _, e := range o.Elems {
			if err := c.Unify(i.typeOf(m, e), elem); err != nil {
				return err
			}
		}
		return nil

	case rhif.Assign:
		return c.Unify(i.typeOf(m, o.Lhs), i.typeOf(m, o.Rhs))

	case rhif.AsBits:
		lenTerm := lengthTermOrFresh(c, o.At, o.Len)
		if err := c.Unify(i.typeOf(m, o.Lhs), unsignedBits(o.At, lenTerm)); err != nil {
			return err
		}
		return c.Unify(i.typeOf(m, o.Arg), unsignedBits(o.At, c.TyLength(o.At, 128)))

	case rhif.AsSigned:
		lenTerm := lengthTermOrFresh(c, o.At, o.Len)
		if err := c.Unify(i.typeOf(m, o.Lhs), signedBits(o.At, lenTerm)); err != nil {
			return err
		}
		return c.Unify(i.typeOf(m, o.Arg), signedBits(o.At, c.TyLength(o.At, 128)))

	case rhif.Resize:
		signFlag := c.Fresh(o.At)
		lenTerm := lengthTermOrFresh(c, o.At, o.Len)
		if err := c.Unify(i.typeOf(m, o.Lhs), ty.BitsTerm{At: o.At, SignFlag: signFlag, Len: lenTerm}); err != nil {
			return err
		}
		argSign, err := c.ProjectSignFlag(i.typeOf(m, o.Arg))
		if err != nil {
			return err
		}
		return c.Unify(signFlag, argSign)

	case rhif.Retime:
		lhsTerm := c.TySignal(o.At, i.typeOf(m, o.Arg), c.TyClock(o.At, o.Color))
		return c.Unify(i.typeOf(m, o.Lhs), lhsTerm)

	case rhif.Struct:
		return i.strongStruct(m, o)

	case rhif.Enum:
		return i.strongEnum(m, o)

	case rhif.Tuple:
		elems := make([]ty.Term, len(o.Elems))
		for idx, e := range o.Elems {
			elems[idx] = i.typeOf(m, e)
		}
		return c.Unify(i.typeOf(m, o.Lhs), c.TyTuple(o.At, elems))

	case rhif.Repeat:
		if err := c.Unify(i.typeOf(m, o.Lhs), c.TyArray(o.At, i.typeOf(m, o.Elem), c.TyLength(o.At, o.Count))); err != nil {
			return err
		}
		return nil

	case rhif.Case:
		// The discriminant slot's own type is pinned by whatever produced
		// it (an Index projection or the scrutinee itself); here each
		// arm's result unifies with the join's lhs (§4.4 "unify each
		// result with lhs").
		for _, arm := range o.Arms {
			if err := c.Unify(i.typeOf(m, arm.Result), i.typeOf(m, o.Lhs)); err != nil {
				return err
			}
		}
		return nil

	case rhif.Select:
		if err := c.Unify(i.typeOf(m, o.Cond), i.boolTerm(o.At)); err != nil {
			return err
		}
		if err := c.Unify(i.typeOf(m, o.True), i.typeOf(m, o.Lhs)); err != nil {
			return err
		}
		return c.Unify(i.typeOf(m, o.False), i.typeOf(m, o.Lhs))

	case rhif.Exec:
		return i.strongExec(m, o)

	case rhif.Wrap:
		return i.strongWrap(m, o)

	default:
		return nil
	}
}

func lengthTermOrFresh(c *ty.Context, at diag.Span, n int) ty.Term {
	if n > 0 {
		return c.TyLength(at, n)
	}
	return c.Fresh(at)
}

func unsignedBits(at diag.Span, lenTerm ty.Term) ty.Term {
	return ty.BitsTerm{At: at, SignFlag: ty.ConstTerm{At: at, Tag: ty.CSigned, Sign: false}, Len: lenTerm}
}

func signedBits(at diag.Span, lenTerm ty.Term) ty.Term {
	return ty.BitsTerm{At: at, SignFlag: ty.ConstTerm{At: at, Tag: ty.CSigned, Sign: true}, Len: lenTerm}
}

// strongStruct equates each field slot positionally against lhs's own
// StructTerm. The MIR Builder already seeds lhs with a concrete StructTerm
// whenever the literal named a registered type (compileStructLit); an
// anonymous construction with no matching named type is left for whatever
// later projects into it to pin down instead.
func (i *Inferencer) strongStruct(m *mir.Mir, o rhif.Struct) error {
	resolved := i.ctx.Apply(i.typeOf(m, o.Lhs))
	st, ok := resolved.(ty.StructTerm)
	if !ok || len(st.Fields) != len(o.Fields) {
		return nil
	}
	for idx, f := range o.Fields {
		if err := i.ctx.Unify(i.typeOf(m, f), st.Fields[idx].Term); err != nil {
			return err
		}
	}
	return nil
}

func (i *Inferencer) strongEnum(m *mir.Mir, o rhif.Enum) error {
	resolved := i.ctx.Apply(i.typeOf(m, o.Lhs))
	et, ok := resolved.(ty.EnumTerm)
	if !ok {
		return nil
	}
	for _, vt := range et.Variants {
		if vt.Tag == o.VariantName {
			return i.ctx.Unify(i.typeOf(m, o.Payload), vt.Term)
		}
	}
	return nil
}

func (i *Inferencer) strongExec(m *mir.Mir, o rhif.Exec) error {
	sub, ok := m.Stash[o.Func]
	if !ok {
		return nil
	}
	for idx, arg := range o.Args {
		if idx >= len(sub.Arguments) {
			break
		}
		if err := i.ctx.Unify(i.typeOf(m, arg), i.typeOf(sub, sub.Arguments[idx])); err != nil {
			return err
		}
	}
	return i.ctx.Unify(i.typeOf(m, o.Lhs), i.typeOf(sub, sub.ReturnSlot))
}

func (i *Inferencer) strongWrap(m *mir.Mir, o rhif.Wrap) error {
	c := i.ctx
	switch o.Op {
	case rhif.WrapSome:
		return c.Unify(i.typeOf(m, o.Lhs), c.TyOption(o.At, i.typeOf(m, o.Arg)))
	case rhif.WrapNone:
		return c.Unify(i.typeOf(m, o.Lhs), c.TyOption(o.At, c.Fresh(o.At)))
	case rhif.WrapOk:
		return c.Unify(i.typeOf(m, o.Lhs), c.TyResult(o.At, i.typeOf(m, o.Arg), c.Fresh(o.At)))
	default: // WrapErr
		return c.Unify(i.typeOf(m, o.Lhs), c.TyResult(o.At, c.Fresh(o.At), i.typeOf(m, o.Arg)))
	}
}
