package rtl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/infer"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/rtl"
	"github.com/rhdl-go/rhdl/internal/ty"
)

func newReg() *mir.Registry {
	return &mir.Registry{Types: map[string]kind.Kind{}, Kernels: map[string]*ast.Kernel{}}
}

func compile(t *testing.T, k *ast.Kernel, reg *mir.Registry) *rhif.Object {
	t.Helper()
	if reg == nil {
		reg = newReg()
	}
	ctx := ty.NewContext()
	b := mir.NewBuilder(ctx, reg)
	m, err := b.Build(k)
	require.NoError(t, err)
	obj, err := infer.Infer(ctx, m)
	require.NoError(t, err)
	return obj
}

// A plain comparison has no cross-width promotion, so it should lower
// straight to a single rtl.Binary with no surrounding Cast.
func TestLowerPlainBinaryPassesThrough(t *testing.T) {
	k := &ast.Kernel{
		Name: "lt",
		Body: ast.Binary{
			Op:  ast.OpLt,
			Lhs: ast.Lit{Kind: ast.LitInt, Value: 1},
			Rhs: ast.Lit{Kind: ast.LitInt, Value: 2},
		},
	}
	obj := compile(t, k, nil)

	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	var binaries int
	for _, op := range out.Ops {
		if b, ok := op.(rtl.Binary); ok {
			binaries++
			assert.Equal(t, rhif.Lt, b.Op)
		}
		if _, ok := op.(rtl.Cast); ok {
			t.Fatalf("a plain comparison should not need any Cast, got %#v", op)
		}
	}
	assert.Equal(t, 1, binaries)
}

// Surface `+` always lowers to XAdd at MIR time; the RTL Lowerer must
// expand it into a resize of both operands followed by a same-width Add.
func TestLowerXAddExpandsIntoResizeAndBinary(t *testing.T) {
	k := &ast.Kernel{
		Name: "add",
		Body: ast.Binary{
			Op:  ast.OpAdd,
			Lhs: ast.Lit{Kind: ast.LitInt, Value: 1},
			Rhs: ast.Lit{Kind: ast.LitInt, Value: 2},
		},
	}
	obj := compile(t, k, nil)

	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	var casts, adds int
	for _, op := range out.Ops {
		switch o := op.(type) {
		case rtl.Cast:
			assert.Equal(t, rtl.CastResize, o.Kind)
			casts++
		case rtl.Binary:
			assert.Equal(t, rhif.Add, o.Op, "XAdd must not survive into the RTL stream")
			adds++
		}
	}
	assert.Equal(t, 2, casts, "both operands of an XAdd are resized to the result width")
	assert.Equal(t, 1, adds)
}

// A struct literal initializes an all-zero template then splices each
// field in at its bit_range.
func TestLowerStructSplicesEachField(t *testing.T) {
	reg := newReg()
	reg.Types["Pair"] = kind.StructKind{
		Name:   "Pair",
		Fields: []kind.FieldDef{{Name: "a", Kind: kind.BitsKind{N: 4}}},
	}
	k := &ast.Kernel{
		Name: "make",
		Body: ast.StructLit{
			TypeName: "Pair",
			Fields:   []ast.FieldInit{{Name: "a", Expr: ast.Lit{Kind: ast.LitInt, Value: 3}}},
		},
	}
	obj := compile(t, k, reg)

	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	var splices int
	for _, op := range out.Ops {
		if _, ok := op.(rtl.Splice); ok {
			splices++
		}
	}
	assert.Equal(t, 1, splices, "one splice per struct field")
	last := out.Ops[len(out.Ops)-1]
	assign, ok := last.(rtl.Assign)
	require.True(t, ok, "struct lowering ends by assigning the fully-spliced value into Lhs")
	assert.Equal(t, out.ReturnSlot, assign.Lhs)
}

// Enum construction splices the packed payload into the bit range its
// discriminant selects, after initializing the variant template.
func TestLowerEnumSplicesPayload(t *testing.T) {
	ek := kind.EnumKind{
		Name: "Option",
		Variants: []kind.Variant{
			{Name: "None", Discriminant: 0, Kind: kind.EmptyKind{}},
			{Name: "Some", Discriminant: 1, Kind: kind.BitsKind{N: 4}},
		},
		Discriminant: kind.DiscriminantLayout{Width: 1, Alignment: kind.Lsb, Sign: kind.DiscUnsigned},
	}
	lhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 0}
	payload := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}

	obj := &rhif.Object{
		Ops: []rhif.Op{rhif.Enum{Lhs: lhs, TypeName: "Option", VariantName: "Some", Payload: payload}},
		Kinds: map[rhif.Slot]kind.Kind{
			lhs:     ek,
			payload: kind.BitsKind{N: 4},
		},
		Literals:   map[rhif.Slot]rhif.BitString{},
		Arguments:  []rhif.Slot{payload},
		ReturnSlot: lhs,
		Stash:      map[rhif.FuncID]*rhif.Object{},
	}

	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	var found bool
	for _, op := range out.Ops {
		sp, ok := op.(rtl.Splice)
		if !ok {
			continue
		}
		found = true
		assert.Equal(t, payload, sp.Value)
		assert.Equal(t, 1, sp.Range.Start, "Some's payload sits above the 1-bit Lsb discriminant")
		assert.Equal(t, 4, sp.Range.Len())
	}
	assert.True(t, found, "enum construction should splice its payload in")
}

// Indexing an array by a runtime slot goes through the 5-step dynamic-
// address-synthesis procedure instead of a static bit_range.
func TestLowerDynamicIndexSynthesizesAddress(t *testing.T) {
	argKind := kind.ArrayKind{Base: kind.BitsKind{N: 8}, Size: 8}
	arg := rhif.Slot{Kind: rhif.SlotRegister, ID: 0}
	idx := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}
	lhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 2}

	const handle = 7
	obj := &rhif.Object{
		Ops: []rhif.Op{rhif.Index{Lhs: lhs, Arg: arg, Path: kind.Path{kind.DynamicIndex(handle)}}},
		Kinds: map[rhif.Slot]kind.Kind{
			arg: argKind,
			idx: kind.BitsKind{N: 3},
			lhs: kind.BitsKind{N: 8},
		},
		Literals:          map[rhif.Slot]rhif.BitString{},
		Arguments:         []rhif.Slot{arg, idx},
		ReturnSlot:        lhs,
		Stash:             map[rhif.FuncID]*rhif.Object{},
		DynamicIndexSlots: map[int]rhif.Slot{handle: idx},
	}

	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	last, ok := out.Ops[len(out.Ops)-1].(rtl.DynamicIndex)
	require.True(t, ok, "a dynamic path lowers to a final DynamicIndex op, got %#v", out.Ops[len(out.Ops)-1])
	assert.Equal(t, lhs, last.Lhs)
	assert.Equal(t, arg, last.Arg)
	assert.Equal(t, 8, last.Len)

	var sawMul, sawAdd bool
	for _, op := range out.Ops {
		if b, ok := op.(rtl.Binary); ok {
			switch b.Op {
			case rhif.Mul:
				sawMul = true
			case rhif.Add:
				sawAdd = true
			}
		}
	}
	assert.True(t, sawMul, "stride 8 != 1 requires a multiply by the stride")
	assert.True(t, sawAdd, "the base offset and the index term are summed")
}

// Exec is fully inlined: the callee's ops are spliced into the caller
// under fresh registers, and no Exec-shaped op remains.
func TestLowerInlinesExec(t *testing.T) {
	calleeArg := rhif.Slot{Kind: rhif.SlotRegister, ID: 0}
	calleeRet := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}
	callee := &rhif.Object{
		Ops: []rhif.Op{rhif.Binary{Lhs: calleeRet, L: calleeArg, R: calleeArg, Op: rhif.Add}},
		Kinds: map[rhif.Slot]kind.Kind{
			calleeArg: kind.BitsKind{N: 8},
			calleeRet: kind.BitsKind{N: 8},
		},
		Literals:   map[rhif.Slot]rhif.BitString{},
		Arguments:  []rhif.Slot{calleeArg},
		ReturnSlot: calleeRet,
		Stash:      map[rhif.FuncID]*rhif.Object{},
	}

	callerArg := rhif.Slot{Kind: rhif.SlotRegister, ID: 0}
	callerLhs := rhif.Slot{Kind: rhif.SlotRegister, ID: 1}
	caller := &rhif.Object{
		Ops: []rhif.Op{rhif.Exec{Lhs: callerLhs, Func: rhif.FuncID(0), Args: []rhif.Slot{callerArg}}},
		Kinds: map[rhif.Slot]kind.Kind{
			callerArg: kind.BitsKind{N: 8},
			callerLhs: kind.BitsKind{N: 8},
		},
		Literals:   map[rhif.Slot]rhif.BitString{},
		Arguments:  []rhif.Slot{callerArg},
		ReturnSlot: callerLhs,
		Stash:      map[rhif.FuncID]*rhif.Object{0: callee},
	}

	out, err := rtl.Lower(caller)
	require.NoError(t, err)

	var binaries int
	for _, op := range out.Ops {
		if _, ok := op.(rtl.Binary); ok {
			binaries++
		}
	}
	assert.Equal(t, 1, binaries, "the callee's one Binary op should be inlined verbatim")

	last, ok := out.Ops[len(out.Ops)-1].(rtl.Assign)
	require.True(t, ok, "inlining ends by assigning the remapped return slot into the caller's Exec destination")
	assert.Equal(t, callerLhs, last.Lhs)
}
