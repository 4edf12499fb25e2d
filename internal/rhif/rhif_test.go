package rhif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

func TestSlotString(t *testing.T) {
	assert.Equal(t, "()", rhif.Empty.String())
	assert.Equal(t, "lit3", rhif.Slot{Kind: rhif.SlotLiteral, ID: 3}.String())
	assert.Equal(t, "r7", rhif.Slot{Kind: rhif.SlotRegister, ID: 7}.String())
}

func TestLhsReturnsDestinationSlot(t *testing.T) {
	lhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}
	rhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 2}

	s, ok := rhif.Lhs(rhif.Binary{Lhs: lhs, L: rhs, R: rhs, Op: rhif.Add})
	assert.True(t, ok)
	assert.Equal(t, lhs, s)

	s, ok = rhif.Lhs(rhif.Wrap{Lhs: lhs, Op: rhif.WrapSome, Arg: rhs})
	assert.True(t, ok)
	assert.Equal(t, lhs, s)
}

func TestLhsFalseForCommentAndNoop(t *testing.T) {
	_, ok := rhif.Lhs(rhif.Comment{Text: "note"})
	assert.False(t, ok)

	_, ok = rhif.Lhs(rhif.Noop{})
	assert.False(t, ok)
}

func TestBitStringWidthIsLenOfBits(t *testing.T) {
	bs := rhif.BitString{Bits: kind.FromUint(5, 8), Signed: true}
	assert.Equal(t, 8, len(bs.Bits))
	assert.True(t, bs.Signed)
}
