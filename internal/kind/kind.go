// Package kind implements the Kind algebra and bit-layout arithmetic of
// §3/§4.1: the closed set of surface types RHDL kernels can be written
// against, together with the deterministic bit assignment that gives every
// Kind a concrete width and every composite a concrete field layout.
//
// Kind has no dependencies on any other compiler package (§2: "the Kind
// algebra has no dependencies"); every other stage either produces a Kind
// (the Inferencer, §4.4) or consumes one (the RTL Lowerer, §4.5).
package kind

import (
	"fmt"
	"strings"
)

// Color is a clock-domain identifier (§3, "Signal").
type Color int

const (
	Red Color = iota
	Orange
	Yellow
	Green
	Blue
	Indigo
	Violet
)

var colorNames = [...]string{"red", "orange", "yellow", "green", "blue", "indigo", "violet"}

func (c Color) String() string {
	if int(c) < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// Alignment is where an enum's discriminant sits within the enum's total
// bit width (§3, "discriminant_layout").
type Alignment int

const (
	Lsb Alignment = iota
	Msb
)

func (a Alignment) String() string {
	if a == Msb {
		return "msb"
	}
	return "lsb"
}

// DiscSign is the signedness with which an enum's discriminant is
// interpreted.
type DiscSign int

const (
	DiscUnsigned DiscSign = iota
	DiscSigned
)

// VariantKind distinguishes an enum variant that claims a specific
// discriminant value (Normal) from the single catch-all variant an enum is
// allowed to designate (Unmatched) — invariant (3) of §3.
type VariantKind int

const (
	Normal VariantKind = iota
	Unmatched
)

// Kind is the closed algebra of §3. It is sealed: the only implementations
// are the types in this file. Callers exhaustively type-switch on Kind
// rather than adding new implementations.
type Kind interface {
	isKind()
	// Bits returns the total bit width of a value of this Kind (§3, "Kind
	// invariants" (1)).
	Bits() int
	String() string
}

// BitsKind is an unsigned bit-vector of N bits, N >= 0.
type BitsKind struct{ N int }

// SignedKind is a two's-complement bit-vector of N bits, N >= 1.
type SignedKind struct{ N int }

// EmptyKind is the zero-bit unit type.
type EmptyKind struct{}

// TupleKind is a positional product type.
type TupleKind struct{ Elems []Kind }

// ArrayKind is a homogeneous, fixed-length product type.
type ArrayKind struct {
	Base Kind
	Size int
}

// FieldDef is one field of a StructKind. Field order is layout order (§3).
type FieldDef struct {
	Name string
	Kind Kind
}

// StructKind is a named product type.
type StructKind struct {
	Name   string
	Fields []FieldDef
}

// DiscriminantLayout is the bit layout of an EnumKind's tag.
type DiscriminantLayout struct {
	Width     int
	Alignment Alignment
	Sign      DiscSign
}

// Variant is one arm of an EnumKind.
type Variant struct {
	Name         string
	Discriminant int64
	Kind         Kind
	VariantKind  VariantKind
}

// EnumKind is a tagged sum type.
type EnumKind struct {
	Name         string
	Variants     []Variant
	Discriminant DiscriminantLayout
}

// SignalKind tags a value with a clock domain. It is transparent for bit
// layout (invariant (4)) but opaque to the type unifier (§4.3 rule 3,
// §9 "Signal clock domain as a phantom").
type SignalKind struct {
	Inner Kind
	Color Color
}

func (BitsKind) isKind()   {}
func (SignedKind) isKind() {}
func (EmptyKind) isKind()  {}
func (TupleKind) isKind()  {}
func (ArrayKind) isKind()  {}
func (StructKind) isKind() {}
func (EnumKind) isKind()   {}
func (SignalKind) isKind() {}

// Bits implements Kind.
func (k BitsKind) Bits() int { return k.N }

// Bits implements Kind.
func (k SignedKind) Bits() int { return k.N }

// Bits implements Kind.
func (EmptyKind) Bits() int { return 0 }

// Bits implements Kind.
func (k TupleKind) Bits() int {
	n := 0
	for _, e := range k.Elems {
		n += e.Bits()
	}
	return n
}

// Bits implements Kind.
func (k ArrayKind) Bits() int { return k.Base.Bits() * k.Size }

// Bits implements Kind.
func (k StructKind) Bits() int {
	n := 0
	for _, f := range k.Fields {
		n += f.Kind.Bits()
	}
	return n
}

// Bits implements Kind. Per §3 invariant (1), enum payloads are right-
// padded to the widest variant before concatenation with the discriminant.
func (k EnumKind) Bits() int {
	return k.Discriminant.Width + k.MaxPayloadBits()
}

// MaxPayloadBits returns the width of the widest variant's payload.
func (k EnumKind) MaxPayloadBits() int {
	max := 0
	for _, v := range k.Variants {
		if b := v.Kind.Bits(); b > max {
			max = b
		}
	}
	return max
}

// Bits implements Kind: a Signal is bit-transparent (invariant (4)).
func (k SignalKind) Bits() int { return k.Inner.Bits() }

func (k BitsKind) String() string { return fmt.Sprintf("b%d", k.N) }
func (k SignedKind) String() string { return fmt.Sprintf("i%d", k.N) }
func (EmptyKind) String() string  { return "()" }

func (k TupleKind) String() string {
	parts := make([]string, len(k.Elems))
	for i, e := range k.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (k ArrayKind) String() string {
	return fmt.Sprintf("[%s; %d]", k.Base.String(), k.Size)
}

func (k StructKind) String() string {
	parts := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		parts[i] = f.Name + ": " + f.Kind.String()
	}
	return k.Name + " { " + strings.Join(parts, ", ") + " }"
}

func (k EnumKind) String() string {
	parts := make([]string, len(k.Variants))
	for i, v := range k.Variants {
		parts[i] = fmt.Sprintf("%s=%d(%s)", v.Name, v.Discriminant, v.Kind.String())
	}
	return k.Name + " { " + strings.Join(parts, ", ") + " }"
}

func (k SignalKind) String() string {
	return fmt.Sprintf("Signal<%s, %s>", k.Inner.String(), k.Color)
}

// IsSigned reports whether values of this Kind are two's-complement under
// RTL lowering (§4.5: "signedness derived from kind.is_signed()").
func IsSigned(k Kind) bool {
	switch v := k.(type) {
	case SignedKind:
		return true
	case SignalKind:
		return IsSigned(v.Inner)
	default:
		return false
	}
}

// GetFieldKind looks up a struct field's Kind by name.
func GetFieldKind(k Kind, member string) (Kind, bool) {
	s, ok := k.(StructKind)
	if !ok {
		return nil, false
	}
	for _, f := range s.Fields {
		if f.Name == member {
			return f.Kind, true
		}
	}
	return nil, false
}

// GetTupleKind looks up a tuple element's Kind by position.
func GetTupleKind(k Kind, i int) (Kind, bool) {
	t, ok := k.(TupleKind)
	if !ok || i < 0 || i >= len(t.Elems) {
		return nil, false
	}
	return t.Elems[i], true
}

// GetBaseKind returns an array's element Kind.
func GetBaseKind(k Kind) (Kind, bool) {
	a, ok := k.(ArrayKind)
	if !ok {
		return nil, false
	}
	return a.Base, true
}

// GetDiscriminantKind returns the Kind of an enum's discriminant field,
// taking its declared sign and width into account.
func GetDiscriminantKind(k Kind) (Kind, bool) {
	e, ok := k.(EnumKind)
	if !ok {
		return nil, false
	}
	if e.Discriminant.Sign == DiscSigned {
		return SignedKind{N: e.Discriminant.Width}, true
	}
	return BitsKind{N: e.Discriminant.Width}, true
}

// GetDiscriminantForVariantByName returns the discriminant value declared
// for a named variant.
func GetDiscriminantForVariantByName(k Kind, name string) (int64, bool) {
	e, ok := k.(EnumKind)
	if !ok {
		return 0, false
	}
	for _, v := range e.Variants {
		if v.Name == name {
			return v.Discriminant, true
		}
	}
	return 0, false
}

// VariantByDiscriminant finds the variant (if any) whose discriminant
// equals disc, or the enum's Unmatched variant if one exists and none
// matches exactly.
func VariantByDiscriminant(k EnumKind, disc int64) (Variant, bool) {
	var unmatched *Variant
	for i, v := range k.Variants {
		if v.VariantKind == Unmatched {
			unmatched = &k.Variants[i]
			continue
		}
		if v.Discriminant == disc {
			return v, true
		}
	}
	if unmatched != nil {
		return *unmatched, true
	}
	return Variant{}, false
}
