package kind

import "fmt"

// ElemTag distinguishes the kinds of projection a Path element can perform
// (§3, "Path").
type ElemTag int

const (
	ElemIndex ElemTag = iota
	ElemField
	ElemTupleIndex
	ElemEnumDiscriminant
	ElemEnumPayload
	ElemEnumPayloadByValue
	ElemDynamicIndex
	ElemSignalValue
)

// Elem is one element of a Path.
//
// DynamicIndex carries two pieces of data: Slot, an opaque identifier
// (assigned by the MIR/RTL layer, meaningless here) naming the RHIF/RTL
// operand holding the runtime index value, and Index, the literal value
// BitRange should substitute for it. §4.5's dynamic-address synthesis
// evaluates BitRange twice per dynamic index — once with Index == 0, once
// with Index advanced by one — so Index is mutable scratch space for that
// procedure, distinct from Slot's identity.
type Elem struct {
	Tag   ElemTag
	Index int64
	Name  string
	Slot  int
}

// Path is a composable projection over Kind-typed values.
type Path []Elem

func Index(n int64) Elem                { return Elem{Tag: ElemIndex, Index: n} }
func Field(name string) Elem            { return Elem{Tag: ElemField, Name: name} }
func TupleIndex(n int64) Elem           { return Elem{Tag: ElemTupleIndex, Index: n} }
func EnumDiscriminant() Elem            { return Elem{Tag: ElemEnumDiscriminant} }
func EnumPayload(name string) Elem      { return Elem{Tag: ElemEnumPayload, Name: name} }
func EnumPayloadByValue(disc int64) Elem {
	return Elem{Tag: ElemEnumPayloadByValue, Index: disc}
}
func DynamicIndex(slot int) Elem { return Elem{Tag: ElemDynamicIndex, Slot: slot} }
func SignalValue() Elem          { return Elem{Tag: ElemSignalValue} }

// WithDynamicIndexAt returns a copy of p where the i'th element (which must
// be an ElemDynamicIndex) has its substituted literal index set to value.
// Used by the RTL lowerer to evaluate BitRange at index 0 and at an
// advanced index when computing strides (§4.5 steps 1-2).
func (p Path) WithDynamicIndexAt(i int, value int64) Path {
	out := make(Path, len(p))
	copy(out, p)
	out[i].Index = value
	return out
}

// Range is a half-open bit range, [Start, End).
type Range struct {
	Start, End int
}

// Len returns the width of the range.
func (r Range) Len() int { return r.End - r.Start }

// BitRange is the arbiter of physical layout (§4.1). It computes the bit
// range and resulting Kind that path selects out of k, or fails if the
// path does not type-check against k.
//
// A Path containing an ElemDynamicIndex is resolved as if that index had
// the literal value substituted in Elem.Index (0 by default); this is what
// lets the RTL lowerer reuse BitRange verbatim for both the "base" and
// "advanced" evaluations of §4.5's address-synthesis procedure.
func BitRange(k Kind, path Path) (Range, Kind, error) {
	offset := 0
	cur := k

	for _, el := range path {
		switch el.Tag {
		case ElemSignalValue:
			sig, ok := cur.(SignalKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: SignalValue projection on non-signal type %v", cur)
			}
			cur = sig.Inner

		case ElemField:
			s, ok := cur.(StructKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: Field(%q) projection on non-struct type %v", el.Name, cur)
			}
			off, fk, ok := structFieldOffset(s, el.Name)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: struct %v has no field %q", s, el.Name)
			}
			offset += off
			cur = fk

		case ElemTupleIndex:
			t, ok := cur.(TupleKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: TupleIndex(%d) projection on non-tuple type %v", el.Index, cur)
			}
			i := int(el.Index)
			if i < 0 || i >= len(t.Elems) {
				return Range{}, nil, fmt.Errorf("kind: tuple index %d out of range for %v", i, t)
			}
			off := 0
			for _, e := range t.Elems[:i] {
				off += e.Bits()
			}
			offset += off
			cur = t.Elems[i]

		case ElemIndex, ElemDynamicIndex:
			a, ok := cur.(ArrayKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: index projection on non-array type %v", cur)
			}
			i := int(el.Index)
			if i < 0 || i >= a.Size {
				return Range{}, nil, fmt.Errorf("kind: array index %d out of range for %v", i, a)
			}
			offset += i * a.Base.Bits()
			cur = a.Base

		case ElemEnumDiscriminant:
			e, ok := cur.(EnumKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: EnumDiscriminant projection on non-enum type %v", cur)
			}
			dk, _ := GetDiscriminantKind(e)
			switch e.Discriminant.Alignment {
			case Lsb:
				offset += 0
			case Msb:
				offset += e.MaxPayloadBits()
			}
			cur = dk

		case ElemEnumPayload, ElemEnumPayloadByValue:
			e, ok := cur.(EnumKind)
			if !ok {
				return Range{}, nil, fmt.Errorf("kind: enum payload projection on non-enum type %v", cur)
			}

			var variant Variant
			var found bool
			if el.Tag == ElemEnumPayload {
				for _, v := range e.Variants {
					if v.Name == el.Name {
						variant, found = v, true
						break
					}
				}
			} else {
				variant, found = VariantByDiscriminant(e, el.Index)
			}
			if !found {
				return Range{}, nil, fmt.Errorf("kind: enum %v has no matching variant for payload projection", e)
			}

			switch e.Discriminant.Alignment {
			case Lsb:
				offset += e.Discriminant.Width
			case Msb:
				offset += 0
			}
			cur = variant.Kind

		default:
			return Range{}, nil, fmt.Errorf("kind: unknown path element tag %v", el.Tag)
		}
	}

	return Range{Start: offset, End: offset + cur.Bits()}, cur, nil
}

// structFieldOffset returns the bit offset and Kind of a named field, per
// §4.1: "field i occupies [sum_{j<i} bits(f_j), sum_{j<=i} bits(f_j))".
func structFieldOffset(s StructKind, name string) (int, Kind, bool) {
	off := 0
	for _, f := range s.Fields {
		if f.Name == name {
			return off, f.Kind, true
		}
		off += f.Kind.Bits()
	}
	return 0, nil, false
}
