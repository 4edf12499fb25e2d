package rtl

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// lowerer holds the mutable state of one rhif.Object -> rtl.Object pass:
// the source object's Kind table (for resolving an operand's layout before
// it gets erased into an RTL RegKind), the output Object being built, and
// monotonic counters for minting fresh registers/literals beyond anything
// the source object already used — needed for intermediate values the
// source never had a slot for (address registers, cast temporaries,
// zero-default literals, and the inlined copies of a callee's own slots).
type lowerer struct {
	src    *rhif.Object
	out    *Object
	nextReg int
	nextLit int
}

func newLowerer(src *rhif.Object) *lowerer {
	l := &lowerer{
		src: src,
		out: &Object{
			Literals: make(map[rhif.Slot]rhif.BitString),
			Kinds:    make(map[rhif.Slot]RegKind),
		},
	}
	for s := range src.Kinds {
		switch s.Kind {
		case rhif.SlotRegister:
			if s.ID >= l.nextReg {
				l.nextReg = s.ID + 1
			}
		case rhif.SlotLiteral:
			if s.ID >= l.nextLit {
				l.nextLit = s.ID + 1
			}
		}
	}
	return l
}

func (l *lowerer) emit(op Op) { l.out.Ops = append(l.out.Ops, op) }

// kindOf resolves a source slot's Kind, erroring with an ICE if the slot
// was never typed (the Inferencer guarantees every live slot has a Kind,
// so a miss here means an earlier pass produced an inconsistent Object).
func (l *lowerer) kindOf(at diag.Span, s rhif.Slot) (kind.Kind, error) {
	if s.Kind == rhif.SlotEmpty {
		return kind.EmptyKind{}, nil
	}
	k, ok := l.src.Kinds[s]
	if !ok {
		return nil, &diag.InternalError{Kind: diag.EmptySlotInRTL, At: at, Why: "operand slot has no resolved Kind"}
	}
	return k, nil
}

func (l *lowerer) newRegister(rk RegKind) rhif.Slot {
	s := rhif.Slot{Kind: rhif.SlotRegister, ID: l.nextReg}
	l.nextReg++
	l.out.Kinds[s] = rk
	return s
}

func (l *lowerer) newLiteral(bits kind.BitArray, signed bool) rhif.Slot {
	s := rhif.Slot{Kind: rhif.SlotLiteral, ID: l.nextLit}
	l.nextLit++
	l.out.Literals[s] = rhif.BitString{Bits: bits, Signed: signed}
	l.out.Kinds[s] = RegKind{Signed: signed, Len: len(bits)}
	return s
}

// Lower implements §4.5's compile_to_rtl(object) -> rtl::Object entrypoint.
// Sub-kernel calls are fully inlined (§4.5 "Sub-kernel inlining"), so the
// returned Object is self-contained.
//
// A rhif.FuncID only identifies a callee within the Stash map of the one
// rhif.Object that called it (each Exec call site builds its own nested
// Stash, so the same integer id recurs at unrelated tree depths); the
// cache here is keyed by *rhif.Object identity instead, which is globally
// unambiguous across the whole stash tree.
func Lower(obj *rhif.Object) (*Object, error) {
	order, err := stashOrder(obj)
	if err != nil {
		return nil, err
	}

	cache := make(map[*rhif.Object]*Object, len(order))
	for _, sub := range order {
		lowered, err := lowerOne(sub, cache)
		if err != nil {
			return nil, err
		}
		cache[sub] = lowered
	}
	return lowerOne(obj, cache)
}

// lowerOne lowers a single rhif.Object's own ops, inlining any Exec call
// it makes by splicing in the already-lowered callee from cache (every
// callee is lowered before its callers, per stashOrder's bottom-up
// ordering).
func lowerOne(obj *rhif.Object, cache map[*rhif.Object]*Object) (*Object, error) {
	l := newLowerer(obj)

	for s, k := range obj.Kinds {
		if s.Kind != rhif.SlotRegister {
			continue
		}
		l.out.Kinds[s] = regKindOf(k)
	}
	for s, lit := range obj.Literals {
		l.out.Literals[s] = lit
		if _, ok := l.out.Kinds[s]; !ok {
			l.out.Kinds[s] = RegKind{Signed: lit.Signed, Len: len(lit.Bits)}
		}
	}

	for _, op := range obj.Ops {
		if err := l.lowerOp(op, cache); err != nil {
			return nil, err
		}
	}

	l.out.Arguments = obj.Arguments
	l.out.ReturnSlot = obj.ReturnSlot
	l.out.Symbols = obj.Symbols
	return l.out, nil
}

func (l *lowerer) lowerOp(op rhif.Op, cache map[*rhif.Object]*Object) error {
	switch o := op.(type) {
	case rhif.Assign:
		l.emit(Assign{opBase{o.At}, o.Lhs, o.Rhs})
		return nil

	case rhif.AsBits:
		return l.lowerCastToLhs(o.At, o.Lhs, o.Arg, CastUnsigned)
	case rhif.AsSigned:
		return l.lowerCastToLhs(o.At, o.Lhs, o.Arg, CastSigned)
	case rhif.Resize:
		return l.lowerCastToLhs(o.At, o.Lhs, o.Arg, CastResize)

	case rhif.Retime:
		// Retime has no bit-level effect (§4.5 carries kind.Signal as
		// bit-transparent); it only existed to let the Inferencer attach a
		// clock-domain type, so it lowers to a bare copy.
		l.emit(Assign{opBase{o.At}, o.Lhs, o.Arg})
		return nil

	case rhif.Binary:
		return l.lowerBinary(o)
	case rhif.Unary:
		return l.lowerUnary(o)

	case rhif.Array:
		l.emit(Concat{opBase{o.At}, o.Lhs, o.Elems})
		return nil
	case rhif.Tuple:
		l.emit(Concat{opBase{o.At}, o.Lhs, o.Elems})
		return nil
	case rhif.Repeat:
		args := make([]rhif.Slot, o.Count)
		for i := range args {
			args[i] = o.Elem
		}
		l.emit(Concat{opBase{o.At}, o.Lhs, args})
		return nil

	case rhif.Struct:
		return l.lowerStruct(o)
	case rhif.Enum:
		return l.lowerEnum(o)

	case rhif.Index:
		return l.lowerIndex(o)
	case rhif.Splice:
		return l.lowerSplice(o)

	case rhif.Case:
		arms := make([]CaseArm, len(o.Arms))
		for i, a := range o.Arms {
			arms[i] = CaseArm{Value: a.Value, Wildcard: a.Wildcard, Result: a.Result}
		}
		l.emit(Case{opBase{o.At}, o.Lhs, o.Disc, arms})
		return nil

	case rhif.Select:
		l.emit(Select{opBase{o.At}, o.Lhs, o.Cond, o.True, o.False})
		return nil

	case rhif.Wrap:
		return l.lowerWrap(o)

	case rhif.Exec:
		return l.inlineExec(o, cache)

	case rhif.Comment:
		l.emit(Comment{opBase{o.At}, o.Text})
		return nil

	case rhif.Noop:
		return nil

	default:
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: op.Loc(), Why: "unrecognized RHIF opcode reached the RTL Lowerer"}
	}
}

// lowerCastToLhs emits a Cast whose target width is lhs's own already-
// inferred Kind (§4.4 pinned AsBits/AsSigned/Resize's lhs width during
// inference; RTL re-derives it from the Kind table rather than trusting
// the MIR-time Len field, which is 0 whenever the width came from
// inference rather than an explicit literal).
func (l *lowerer) lowerCastToLhs(at diag.Span, lhs, arg rhif.Slot, ck CastKind) error {
	lhsKind, err := l.kindOf(at, lhs)
	if err != nil {
		return err
	}
	l.emit(Cast{opBase{at}, lhs, arg, lhsKind.Bits(), ck})
	return nil
}
