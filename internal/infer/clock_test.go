package infer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/infer"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// selectOverRetimedPair builds a one-op-family Mir: two Retime ops tag a and
// b with the given colors, then a Select joins them under cond. This is
// §8 scenario 5, hand-built since Retime/Signal have no surface AST syntax.
func selectOverRetimedPair(trueColor, falseColor kind.Color) (*ty.Context, *mir.Mir) {
	ctx := ty.NewContext()
	m := &mir.Mir{
		Literals:          map[rhif.Slot]mir.LiteralInfo{},
		Types:             map[rhif.Slot]ty.Term{},
		Stash:             map[rhif.FuncID]*mir.Mir{},
		Symbols:           map[rhif.Slot]string{},
		DynamicIndexSlots: map[int]rhif.Slot{},
	}

	cond := rhif.Slot{Kind: rhif.SlotRegister, ID: 0}
	a := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}
	b := rhif.Slot{Kind: rhif.SlotRegister, ID: 2}
	trueSig := rhif.Slot{Kind: rhif.SlotRegister, ID: 3}
	falseSig := rhif.Slot{Kind: rhif.SlotRegister, ID: 4}
	lhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 5}

	at := diag.Span{}
	m.Types[cond] = ctx.FromKind(at, kind.BitsKind{N: 1})
	m.Types[a] = ctx.FromKind(at, kind.BitsKind{N: 8})
	m.Types[b] = ctx.FromKind(at, kind.BitsKind{N: 8})
	m.Types[trueSig] = ctx.Fresh(at)
	m.Types[falseSig] = ctx.Fresh(at)
	m.Types[lhs] = ctx.Fresh(at)

	m.Ops = []rhif.Op{
		rhif.Retime{Lhs: trueSig, Arg: a, Color: trueColor},
		rhif.Retime{Lhs: falseSig, Arg: b, Color: falseColor},
		rhif.Select{Lhs: lhs, Cond: cond, True: trueSig, False: falseSig},
	}
	m.Arguments = []rhif.Slot{cond, a, b}
	m.ReturnSlot = lhs
	return ctx, m
}

// A Select joining two signals retimed onto the same clock type-checks.
func TestInferAllowsSelectUnderOneClock(t *testing.T) {
	ctx, m := selectOverRetimedPair(kind.Red, kind.Red)

	obj, err := infer.Infer(ctx, m)
	require.NoError(t, err)

	rk, ok := obj.Kinds[obj.ReturnSlot]
	require.True(t, ok)
	sk, ok := rk.(kind.SignalKind)
	require.True(t, ok, "a Select over two Red signals should itself type as a Red signal")
	assert.Equal(t, kind.Red, sk.Color)
}

// A Select joining signals retimed onto two different clocks fails
// inference: §9 "any operation mixing signals of different clocks fails
// type inference".
func TestInferRejectsSelectAcrossClocks(t *testing.T) {
	ctx, m := selectOverRetimedPair(kind.Red, kind.Blue)

	_, err := infer.Infer(ctx, m)
	require.Error(t, err)
}
