package kind

import "fmt"

// Trit is a three-valued bit: 0, 1, or unknown/don't-care ("X", §6 "Bit-
// level wire format").
type Trit byte

const (
	Zero Trit = iota
	One
	X
)

func (t Trit) String() string {
	switch t {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "x"
	}
}

// BitArray is an LSB-first array of tri-state bits (§6): index 0 is the
// least-significant bit.
type BitArray []Trit

// ZeroBits returns an all-zero BitArray of the given width.
func ZeroBits(n int) BitArray {
	return make(BitArray, n)
}

// FromUint encodes v as an n-bit unsigned BitArray, truncating high bits.
func FromUint(v uint64, n int) BitArray {
	out := make(BitArray, n)
	for i := range out {
		if v&(1<<uint(i)) != 0 {
			out[i] = One
		}
	}
	return out
}

// FromInt encodes v as an n-bit two's-complement BitArray (§6 "Enum
// discriminant encoding": "negative discriminants stored as W-bit two's
// complement").
func FromInt(v int64, n int) BitArray {
	return FromUint(uint64(v)&mask(n), n)
}

func mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(n)) - 1
}

// padBits right-pads (or truncates) v to exactly width bits, appending
// zero trits at the high end — the "right-pad with zeros" half of §4.1's
// pad operation.
func padBits(v BitArray, width int) BitArray {
	if len(v) >= width {
		return append(BitArray(nil), v[:width]...)
	}
	out := make(BitArray, width)
	copy(out, v)
	for i := len(v); i < width; i++ {
		out[i] = Zero
	}
	return out
}

// Pad implements §4.1's pad(k, v): right-pads v to bits(k), and, for an
// EnumKind whose discriminant is MSB-aligned, relocates the discriminant
// from its natural (LSB, [disc|payload]) staging position to the MSB slice
// of the final width.
func Pad(k Kind, v BitArray) BitArray {
	e, ok := k.(EnumKind)
	if !ok {
		return padBits(v, k.Bits())
	}

	total := e.Bits()
	discWidth := e.Discriminant.Width
	if discWidth > len(v) {
		discWidth = len(v)
	}
	disc := append(BitArray(nil), v[:discWidth]...)
	payload := padBits(v[discWidth:], total-discWidth)

	var out BitArray
	switch e.Discriminant.Alignment {
	case Msb:
		out = append(append(BitArray(nil), payload...), disc...)
	default: // Lsb
		out = append(append(BitArray(nil), disc...), payload...)
	}
	return padBits(out, total)
}

// EnumTemplate returns a value of k's width with variant's discriminant
// placed in its declared slot and the payload slice zeroed (§4.1,
// "enum_template(k, variant) -> bits"). The RTL lowerer splices actual
// payload fields into this template (§4.5, "Enum").
func EnumTemplate(k EnumKind, variantName string) (BitArray, error) {
	var variant *Variant
	for i := range k.Variants {
		if k.Variants[i].Name == variantName {
			variant = &k.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, fmt.Errorf("kind: enum %q has no variant %q", k.Name, variantName)
	}

	total := k.Bits()
	discWidth := k.Discriminant.Width
	payloadWidth := total - discWidth

	var disc BitArray
	if k.Discriminant.Sign == DiscSigned {
		disc = FromInt(variant.Discriminant, discWidth)
	} else {
		disc = FromUint(uint64(variant.Discriminant), discWidth)
	}
	payload := ZeroBits(payloadWidth)

	switch k.Discriminant.Alignment {
	case Msb:
		return append(append(BitArray(nil), payload...), disc...), nil
	default: // Lsb
		return append(append(BitArray(nil), disc...), payload...), nil
	}
}
