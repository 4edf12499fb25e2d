package ty

import (
	"fmt"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/interner"
	"github.com/rhdl-go/rhdl/internal/kind"
)

// Context is the Type Context of §4.3: a union-find substitution map from
// inference variables to the terms they have been unified with, plus the
// structural unification, path-compressing apply, and fallible
// materialization (into_kind) operations built on top of it.
//
// A Context is not safe for concurrent use; §5 requires the whole pipeline
// to run single-threaded against one Context per compilation.
type Context struct {
	bind map[VarID]Term
	next VarID
}

// NewContext returns an empty Type Context.
func NewContext() *Context {
	return &Context{bind: make(map[VarID]Term)}
}

// BindingCount returns the number of variables currently bound. The
// substitution map only grows (§4.3: "the substitution map is monotone; no
// backtracking"), so comparing this across fixpoint passes is a cheap way
// to detect that a pass produced no new substitutions.
func (c *Context) BindingCount() int {
	return len(c.bind)
}

// Fresh allocates a new, unbound inference variable (§4.3 "fresh()").
func (c *Context) Fresh(at diag.Span) Term {
	v := c.next
	c.next++
	return VarTerm{ID: v, At: at}
}

// Constructors corresponding to §4.3's exposed type-constructor surface.

func (c *Context) TyBits(at diag.Span) Term {
	return BitsTerm{At: at, SignFlag: ConstTerm{At: at, Tag: CSigned, Sign: false}, Len: c.Fresh(at)}
}

func (c *Context) TySigned(at diag.Span) Term {
	return BitsTerm{At: at, SignFlag: ConstTerm{At: at, Tag: CSigned, Sign: true}, Len: c.Fresh(at)}
}

// TyInteger returns the type of an as-yet-unconstrained integer literal: a
// Bits term with both sign and width left as fresh variables, resolved
// later either by unification or by defaulting (§9 "Defaulting rules").
func (c *Context) TyInteger(at diag.Span) Term {
	return BitsTerm{At: at, SignFlag: c.Fresh(at), Len: c.Fresh(at)}
}

func (c *Context) TyTuple(at diag.Span, elems []Term) Term {
	return TupleTerm{At: at, Elems: elems}
}

func (c *Context) TyArray(at diag.Span, base, length Term) Term {
	return ArrayTerm{At: at, Base: base, Len: length}
}

func (c *Context) TyStruct(at diag.Span, name string, fields []FieldTerm) Term {
	return StructTerm{At: at, Name: name, Fields: fields}
}

func (c *Context) TyEnum(at diag.Span, name string, variants []VariantTerm, disc Term, align kind.Alignment) Term {
	return EnumTerm{At: at, Name: name, Variants: variants, Discriminant: disc, Alignment: align}
}

func (c *Context) TySignal(at diag.Span, data, clock Term) Term {
	return SignalTerm{At: at, Data: data, Clock: clock}
}

func (c *Context) TyClock(at diag.Span, color kind.Color) Term {
	return ConstTerm{At: at, Tag: CClock, Color: color}
}

func (c *Context) TyUnclocked(at diag.Span) Term {
	return ConstTerm{At: at, Tag: CUnclocked}
}

func (c *Context) TyEmpty(at diag.Span) Term {
	return ConstTerm{At: at, Tag: CEmpty}
}

func (c *Context) TyLength(at diag.Span, n int) Term {
	return ConstTerm{At: at, Tag: CLength, N: n}
}

func (c *Context) TyString(at diag.Span, s string) Term {
	return ConstTerm{At: at, Tag: CString, Str: interner.Intern(s)}
}

// TyOption returns Option<T> desugared to a two-variant enum, matching how
// the RHIF Wrap opcode's Some/None payloads are typed (§4.4, §6 "Wrap").
func (c *Context) TyOption(at diag.Span, elem Term) Term {
	return EnumTerm{
		At:   at,
		Name: "Option",
		Variants: []VariantTerm{
			{Tag: "None", Discriminant: 0, Term: ConstTerm{At: at, Tag: CEmpty}},
			{Tag: "Some", Discriminant: 1, Term: elem},
		},
		Discriminant: ConstTerm{At: at, Tag: CSigned, Sign: false},
		Alignment:    kind.Lsb,
	}
}

// TyResult returns Result<T, E> desugared to a two-variant enum (§6 "Wrap").
// Ok carries discriminant 1 and Err discriminant 0, matching Option's
// None=0/Some=1 layout: the MIR Builder's Try (`?`) lowering treats
// discriminant 1 as "good" uniformly for both Option and Result, extracting
// payload_by_value(1) and OR-ing the raw discriminant into the pass-through
// flag without needing to know which of the two enums it's looking at.
func (c *Context) TyResult(at diag.Span, ok, errTerm Term) Term {
	return EnumTerm{
		At:   at,
		Name: "Result",
		Variants: []VariantTerm{
			{Tag: "Err", Discriminant: 0, Term: errTerm},
			{Tag: "Ok", Discriminant: 1, Term: ok},
		},
		Discriminant: ConstTerm{At: at, Tag: CSigned, Sign: false},
		Alignment:    kind.Lsb,
	}
}

// FromKind is §3's total Kind -> Type conversion: it embeds a fully
// concrete Kind as a Term with no free variables, used by the MIR Builder
// to give a slot an already-known type (an explicit `x: T` annotation, a
// named struct/enum field, a typed-bits literal's declared width/sign).
func (c *Context) FromKind(at diag.Span, k kind.Kind) Term {
	switch v := k.(type) {
	case kind.BitsKind:
		return BitsTerm{At: at, SignFlag: ConstTerm{At: at, Tag: CSigned, Sign: false}, Len: ConstTerm{At: at, Tag: CLength, N: v.N}}
	case kind.SignedKind:
		return BitsTerm{At: at, SignFlag: ConstTerm{At: at, Tag: CSigned, Sign: true}, Len: ConstTerm{At: at, Tag: CLength, N: v.N}}
	case kind.EmptyKind:
		return ConstTerm{At: at, Tag: CEmpty}
	case kind.TupleKind:
		elems := make([]Term, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = c.FromKind(at, e)
		}
		return TupleTerm{At: at, Elems: elems}
	case kind.ArrayKind:
		return ArrayTerm{At: at, Base: c.FromKind(at, v.Base), Len: ConstTerm{At: at, Tag: CLength, N: v.Size}}
	case kind.StructKind:
		fields := make([]FieldTerm, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = FieldTerm{Name: f.Name, Term: c.FromKind(at, f.Kind)}
		}
		return StructTerm{At: at, Name: v.Name, Fields: fields}
	case kind.EnumKind:
		variants := make([]VariantTerm, len(v.Variants))
		for i, vt := range v.Variants {
			tag := vt.Name
			if vt.VariantKind == kind.Unmatched {
				tag = "Unmatched"
			}
			variants[i] = VariantTerm{Tag: tag, Discriminant: vt.Discriminant, Term: c.FromKind(at, vt.Kind)}
		}
		discSign := ConstTerm{At: at, Tag: CSigned, Sign: v.Discriminant.Sign == kind.DiscSigned}
		return EnumTerm{At: at, Name: v.Name, Variants: variants, Discriminant: discSign, Alignment: v.Discriminant.Alignment}
	case kind.SignalKind:
		return SignalTerm{At: at, Data: c.FromKind(at, v.Inner), Clock: ConstTerm{At: at, Tag: CClock, Color: v.Color}}
	default:
		return ConstTerm{At: at, Tag: CEmpty}
	}
}

// resolveTop follows one step of a Var's binding, if any, without
// recursing into the bound term's own sub-structure. Used internally by
// Unify to decide which side of a constraint is still a free variable.
func (c *Context) resolveTop(t Term) Term {
	for {
		v, ok := t.(VarTerm)
		if !ok {
			return t
		}
		bound, ok := c.bind[v.ID]
		if !ok {
			return t
		}
		t = bound
	}
}

// Apply is §4.3's apply(τ): it walks t, replacing every bound variable
// with its binding (recursively, through chains and through sub-terms),
// leaving any still-unbound variable in place.
func (c *Context) Apply(t Term) Term {
	t = c.resolveTop(t)
	switch v := t.(type) {
	case TupleTerm:
		elems := make([]Term, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = c.Apply(e)
		}
		return TupleTerm{At: v.At, Elems: elems}
	case ArrayTerm:
		return ArrayTerm{At: v.At, Base: c.Apply(v.Base), Len: c.Apply(v.Len)}
	case StructTerm:
		fields := make([]FieldTerm, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = FieldTerm{Name: f.Name, Term: c.Apply(f.Term)}
		}
		return StructTerm{At: v.At, Name: v.Name, Fields: fields}
	case EnumTerm:
		variants := make([]VariantTerm, len(v.Variants))
		for i, vt := range v.Variants {
			variants[i] = VariantTerm{Tag: vt.Tag, Discriminant: vt.Discriminant, Term: c.Apply(vt.Term)}
		}
		return EnumTerm{At: v.At, Name: v.Name, Variants: variants, Discriminant: c.Apply(v.Discriminant), Alignment: v.Alignment}
	case BitsTerm:
		return BitsTerm{At: v.At, SignFlag: c.Apply(v.SignFlag), Len: c.Apply(v.Len)}
	case SignalTerm:
		return SignalTerm{At: v.At, Data: c.Apply(v.Data), Clock: c.Apply(v.Clock)}
	default:
		return t
	}
}

// Desc renders a term for diagnostics, after fully applying substitutions
// (§4.3 "desc(τ) -> string").
func (c *Context) Desc(t Term) string {
	return c.Apply(t).String()
}

// IntoKind is §4.3's into_kind(τ): fallible materialization of a fully (or
// partially) resolved term into a concrete Kind. It fails with an
// UnableToDetermineType-flavored error if any reachable sub-term is still
// an unbound variable.
func (c *Context) IntoKind(t Term) (kind.Kind, error) {
	t = c.Apply(t)
	switch v := t.(type) {
	case VarTerm:
		return nil, c.undetermined(v.At, t)
	case ConstTerm:
		switch v.Tag {
		case CEmpty:
			return kind.EmptyKind{}, nil
		default:
			return nil, c.undetermined(v.At, t)
		}
	case TupleTerm:
		elems := make([]kind.Kind, len(v.Elems))
		for i, e := range v.Elems {
			k, err := c.IntoKind(e)
			if err != nil {
				return nil, err
			}
			elems[i] = k
		}
		return kind.TupleKind{Elems: elems}, nil
	case ArrayTerm:
		base, err := c.IntoKind(v.Base)
		if err != nil {
			return nil, err
		}
		n, ok := asLength(v.Len)
		if !ok {
			return nil, c.undetermined(v.At, v.Len)
		}
		return kind.ArrayKind{Base: base, Size: n}, nil
	case StructTerm:
		fields := make([]kind.FieldDef, len(v.Fields))
		for i, f := range v.Fields {
			k, err := c.IntoKind(f.Term)
			if err != nil {
				return nil, err
			}
			fields[i] = kind.FieldDef{Name: f.Name, Kind: k}
		}
		return kind.StructKind{Name: v.Name, Fields: fields}, nil
	case EnumTerm:
		variants := make([]kind.Variant, len(v.Variants))
		for i, vt := range v.Variants {
			k, err := c.IntoKind(vt.Term)
			if err != nil {
				return nil, err
			}
			vk := kind.Normal
			if vt.Tag == "Unmatched" {
				vk = kind.Unmatched
			}
			variants[i] = kind.Variant{Name: vt.Tag, Discriminant: vt.Discriminant, Kind: k, VariantKind: vk}
		}
		width, sign, err := c.discriminantLayout(v.Discriminant, variants)
		if err != nil {
			return nil, err
		}
		ek := kind.EnumKind{
			Name:     v.Name,
			Variants: variants,
			Discriminant: kind.DiscriminantLayout{
				Width: width, Alignment: v.Alignment, Sign: sign,
			},
		}
		if err := kind.Validate(ek); err != nil {
			return nil, diag.NewTypeError(diag.EnumInvariantViolation, v.At, err.Error())
		}
		return ek, nil
	case BitsTerm:
		n, ok := asLength(v.Len)
		if !ok {
			return nil, c.undetermined(v.At, v.Len)
		}
		signed, ok := asSign(v.SignFlag)
		if !ok {
			return nil, c.undetermined(v.At, v.SignFlag)
		}
		if signed {
			return kind.SignedKind{N: n}, nil
		}
		return kind.BitsKind{N: n}, nil
	case SignalTerm:
		inner, err := c.IntoKind(v.Data)
		if err != nil {
			return nil, err
		}
		color, ok := asClock(v.Clock)
		if !ok {
			return nil, c.undetermined(v.At, v.Clock)
		}
		return kind.SignalKind{Inner: inner, Color: color}, nil
	default:
		return nil, fmt.Errorf("ty: unreachable term kind in IntoKind: %T", t)
	}
}

func (c *Context) undetermined(at diag.Span, t Term) error {
	return diag.NewTypeError(diag.UnableToDetermineType, at, fmt.Sprintf("could not fully resolve type %s", t.String()))
}

func asLength(t Term) (int, bool) {
	c, ok := t.(ConstTerm)
	if !ok || c.Tag != CLength {
		return 0, false
	}
	return c.N, true
}

func asSign(t Term) (bool, bool) {
	c, ok := t.(ConstTerm)
	if !ok || c.Tag != CSigned {
		return false, false
	}
	return c.Sign, true
}

func asClock(t Term) (kind.Color, bool) {
	c, ok := t.(ConstTerm)
	if !ok || c.Tag != CClock {
		return 0, false
	}
	return c.Color, true
}

// discriminantLayout determines the width and sign of an enum's
// discriminant field from its declared term and variant set: the term, if
// concrete, pins the sign; the width is the minimum needed to represent
// every declared discriminant, per §3's "discriminant_layout" derivation.
func (c *Context) discriminantLayout(discTerm Term, variants []kind.Variant) (int, kind.DiscSign, error) {
	sign := kind.DiscUnsigned
	if s, ok := asSign(c.Apply(discTerm)); ok && s {
		sign = kind.DiscSigned
	}

	width := 0
	for _, v := range variants {
		if v.VariantKind == kind.Unmatched {
			continue
		}
		w := bitsNeeded(v.Discriminant, sign)
		if w > width {
			width = w
		}
	}
	if width == 0 {
		width = 1
	}
	return width, sign, nil
}

func bitsNeeded(v int64, sign kind.DiscSign) int {
	if sign == kind.DiscSigned {
		n := 1
		for v >= (1<<(uint(n)-1)) || v < -(1<<(uint(n)-1)) {
			n++
		}
		return n
	}
	n := 1
	for uint64(v) >= (uint64(1) << uint(n)) {
		n++
	}
	return n
}
