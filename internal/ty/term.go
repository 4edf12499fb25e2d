// Package ty implements the inference-time type system of §3 ("Type
// term") and the Type Context of §4.3: a union-find over type terms with
// structural unification.
//
// ty depends on kind (for Color/Alignment/DiscSign and for the fallible
// Term -> Kind materialization) but nothing else in the pipeline, matching
// §2's data-flow diagram ("the Type Context depends on Kind").
package ty

import (
	"fmt"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/interner"
	"github.com/rhdl-go/rhdl/internal/kind"
)

// VarID identifies an inference variable within one Context.
type VarID int

// Term is the inference-time type language of §3: a strict superset of
// Kind that additionally allows unresolved variables. Every Term carries a
// source location.
type Term interface {
	isTerm()
	Loc() diag.Span
	String() string
}

// VarTerm is a fresh inference variable (§3, "Var(v)").
type VarTerm struct {
	ID VarID
	At diag.Span
}

// ConstTag enumerates the constant type terms of §3 ("Const(c) where
// c ∈ {...}").
type ConstTag int

const (
	CClock ConstTag = iota
	CLength
	CSigned
	CString
	CEmpty
	CUnclocked
)

// ConstTerm is one of the non-variable, non-composite leaves of the
// inference type language.
type ConstTerm struct {
	At    diag.Span
	Tag   ConstTag
	Color kind.Color        // valid when Tag == CClock
	N     int                // valid when Tag == CLength
	Sign  bool               // valid when Tag == CSigned; true means Signed
	Str   interner.Symbol    // valid when Tag == CString
}

// TupleTerm is App(Tuple([τ])).
type TupleTerm struct {
	At    diag.Span
	Elems []Term
}

// ArrayTerm is App(Array{base, len}).
type ArrayTerm struct {
	At         diag.Span
	Base, Len Term
}

// FieldTerm is one named field of a StructTerm.
type FieldTerm struct {
	Name string
	Term Term
}

// StructTerm is App(Struct{name, fields}).
type StructTerm struct {
	At     diag.Span
	Name   string
	Fields []FieldTerm
}

// VariantTerm is one tagged arm of an EnumTerm.
type VariantTerm struct {
	Tag          string
	Discriminant int64
	Term         Term
}

// EnumTerm is App(Enum{name, variants, discriminant, alignment}).
type EnumTerm struct {
	At           diag.Span
	Name         string
	Variants     []VariantTerm
	Discriminant Term
	Alignment    kind.Alignment
}

// BitsTerm is App(Bits{sign_flag, len}): the unified representation of
// both Bits(n) and Signed(n) prior to the sign flag being resolved.
type BitsTerm struct {
	At               diag.Span
	SignFlag, Len Term
}

// SignalTerm is App(Signal{data, clock}).
type SignalTerm struct {
	At          diag.Span
	Data, Clock Term
}

func (VarTerm) isTerm()    {}
func (ConstTerm) isTerm()  {}
func (TupleTerm) isTerm()  {}
func (ArrayTerm) isTerm()  {}
func (StructTerm) isTerm() {}
func (EnumTerm) isTerm()   {}
func (BitsTerm) isTerm()   {}
func (SignalTerm) isTerm() {}

func (t VarTerm) Loc() diag.Span    { return t.At }
func (t ConstTerm) Loc() diag.Span  { return t.At }
func (t TupleTerm) Loc() diag.Span  { return t.At }
func (t ArrayTerm) Loc() diag.Span  { return t.At }
func (t StructTerm) Loc() diag.Span { return t.At }
func (t EnumTerm) Loc() diag.Span   { return t.At }
func (t BitsTerm) Loc() diag.Span   { return t.At }
func (t SignalTerm) Loc() diag.Span { return t.At }

func (t VarTerm) String() string { return fmt.Sprintf("?%d", t.ID) }

func (t ConstTerm) String() string {
	switch t.Tag {
	case CClock:
		return fmt.Sprintf("Clock(%s)", t.Color)
	case CLength:
		return fmt.Sprintf("Length(%d)", t.N)
	case CSigned:
		if t.Sign {
			return "Signed"
		}
		return "Unsigned"
	case CString:
		return fmt.Sprintf("String(%s)", t.Str)
	case CEmpty:
		return "Empty"
	case CUnclocked:
		return "Unclocked"
	default:
		return "Const(?)"
	}
}

func (t TupleTerm) String() string {
	s := "("
	for i, e := range t.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

func (t ArrayTerm) String() string {
	return fmt.Sprintf("[%s; %s]", t.Base.String(), t.Len.String())
}

func (t StructTerm) String() string {
	s := t.Name + " {"
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Term.String()
	}
	return s + "}"
}

func (t EnumTerm) String() string {
	s := t.Name + " {"
	for i, v := range t.Variants {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%d(%s)", v.Tag, v.Discriminant, v.Term.String())
	}
	return s + "}"
}

func (t BitsTerm) String() string {
	return fmt.Sprintf("Bits{sign=%s, len=%s}", t.SignFlag.String(), t.Len.String())
}

func (t SignalTerm) String() string {
	return fmt.Sprintf("Signal{data=%s, clock=%s}", t.Data.String(), t.Clock.String())
}

// constEqual reports byte-equality of two constants (§4.3 rule 5).
func constEqual(a, b ConstTerm) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case CClock:
		return a.Color == b.Color
	case CLength:
		return a.N == b.N
	case CSigned:
		return a.Sign == b.Sign
	case CString:
		return a.Str == b.Str
	default:
		return true // CEmpty, CUnclocked carry no payload
	}
}
