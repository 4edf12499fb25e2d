package kind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhdl-go/rhdl/internal/kind"
)

func b(n int) kind.Kind { return kind.BitsKind{N: n} }

func TestBitsConservation(t *testing.T) {
	tup := kind.TupleKind{Elems: []kind.Kind{b(3), b(5), b(8)}}
	assert.Equal(t, 16, tup.Bits())

	arr := kind.ArrayKind{Base: b(4), Size: 6}
	assert.Equal(t, 24, arr.Bits())

	st := kind.StructKind{Name: "S", Fields: []kind.FieldDef{
		{Name: "a", Kind: b(4)},
		{Name: "b", Kind: b(12)},
	}}
	assert.Equal(t, 16, st.Bits())
}

func TestStructFieldLayout(t *testing.T) {
	st := kind.StructKind{Name: "S", Fields: []kind.FieldDef{
		{Name: "a", Kind: b(4)},
		{Name: "b", Kind: b(12)},
	}}

	r, k, err := kind.BitRange(st, kind.Path{kind.Field("a")})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 0, End: 4}, r)
	assert.Equal(t, b(4), k)

	r, k, err = kind.BitRange(st, kind.Path{kind.Field("b")})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 4, End: 16}, r)
	assert.Equal(t, b(12), k)
}

func TestArrayElementLayout(t *testing.T) {
	arr := kind.ArrayKind{Base: b(8), Size: 8}
	r, k, err := kind.BitRange(arr, kind.Path{kind.Index(3)})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 24, End: 32}, r)
	assert.Equal(t, b(8), k)
}

func enumABC() kind.EnumKind {
	// enum E { A, B(u8), C{x: b4, y: u8} }, LSB-aligned 2-bit discriminant.
	return kind.EnumKind{
		Name: "E",
		Variants: []kind.Variant{
			{Name: "A", Discriminant: 0, Kind: kind.EmptyKind{}},
			{Name: "B", Discriminant: 1, Kind: kind.BitsKind{N: 8}},
			{Name: "C", Discriminant: 2, Kind: kind.StructKind{Fields: []kind.FieldDef{
				{Name: "x", Kind: kind.BitsKind{N: 4}},
				{Name: "y", Kind: kind.BitsKind{N: 8}},
			}}},
			{Name: "unused", Discriminant: 3, Kind: kind.EmptyKind{}},
		},
		Discriminant: kind.DiscriminantLayout{Width: 2, Alignment: kind.Lsb},
	}
}

func TestEnumLayoutLaw(t *testing.T) {
	e := enumABC()
	require.NoError(t, kind.Validate(e))

	// Discriminant occupies the LSB slice of width 2.
	r, _, err := kind.BitRange(e, kind.Path{kind.EnumDiscriminant()})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 0, End: 2}, r)

	// Payload for C occupies the complementary slice and is wide enough.
	r, k, err := kind.BitRange(e, kind.Path{kind.EnumPayload("C")})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 2, End: 14}, r)
	assert.Equal(t, 12, k.Bits())
	assert.LessOrEqual(t, k.Bits(), e.Bits()-e.Discriminant.Width)

	// x within C's payload.
	r, _, err = kind.BitRange(e, kind.Path{kind.EnumPayload("C"), kind.Field("x")})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 2, End: 6}, r)
}

func TestEnumMissingUnmatchedOrFullCoverage(t *testing.T) {
	e := kind.EnumKind{
		Name: "Bad",
		Variants: []kind.Variant{
			{Name: "A", Discriminant: 0, Kind: kind.EmptyKind{}},
		},
		Discriminant: kind.DiscriminantLayout{Width: 2, Alignment: kind.Lsb},
	}
	assert.Error(t, kind.Validate(e))

	e.Variants = append(e.Variants, kind.Variant{Name: "Rest", VariantKind: kind.Unmatched, Kind: kind.EmptyKind{}})
	assert.NoError(t, kind.Validate(e))
}

func TestSignalTransparentForBits(t *testing.T) {
	sig := kind.SignalKind{Inner: b(12), Color: kind.Red}
	assert.Equal(t, 12, sig.Bits())

	r, k, err := kind.BitRange(kind.StructKind{Fields: []kind.FieldDef{
		{Name: "s", Kind: sig},
	}}, kind.Path{kind.Field("s"), kind.SignalValue()})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: 0, End: 12}, r)
	assert.Equal(t, b(12), k)
}

func TestEnumTemplateAndTwosComplement(t *testing.T) {
	e := kind.EnumKind{
		Name: "Signed2",
		Variants: []kind.Variant{
			{Name: "Neg", Discriminant: -1, Kind: kind.EmptyKind{}},
			{Name: "Zero", Discriminant: 0, Kind: kind.EmptyKind{}},
		},
		Discriminant: kind.DiscriminantLayout{Width: 2, Alignment: kind.Lsb, Sign: kind.DiscSigned},
	}

	tmpl, err := kind.EnumTemplate(e, "Neg")
	require.NoError(t, err)
	require.Len(t, tmpl, 2)
	assert.Equal(t, kind.One, tmpl[0])
	assert.Equal(t, kind.One, tmpl[1]) // -1 in 2 bits is 0b11
}

func TestDynamicIndexSubstitution(t *testing.T) {
	arr := kind.ArrayKind{Base: b(8), Size: 8}
	path := kind.Path{kind.DynamicIndex(42)}

	base, _, err := kind.BitRange(arr, path)
	require.NoError(t, err)
	assert.Equal(t, 0, base.Start)

	adv, _, err := kind.BitRange(arr, path.WithDynamicIndexAt(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 8, adv.Start-base.Start)
}
