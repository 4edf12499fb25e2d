package rhdl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rhdl "github.com/rhdl-go/rhdl"
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/rtl"
)

// Compiling `1 + 2` end to end should produce a flat RTL object with no
// surviving cross-width op and a concrete register width on the result.
func TestCompileAddEndToEnd(t *testing.T) {
	k := &ast.Kernel{
		Name: "add",
		Body: ast.Binary{
			Op:  ast.OpAdd,
			Lhs: ast.Lit{Kind: ast.LitInt, Value: 1},
			Rhs: ast.Lit{Kind: ast.LitInt, Value: 2},
		},
	}

	obj, err := rhdl.Compile(k, nil, rhdl.DefaultOptions())
	require.NoError(t, err)

	rk, ok := obj.Kinds[obj.ReturnSlot]
	require.True(t, ok)
	assert.Equal(t, 129, rk.Len, "two defaulted 128-bit operands XAdd to 129 bits")
	assert.True(t, rk.Signed)

	for _, op := range obj.Ops {
		if b, isBinary := op.(rtl.Binary); isBinary {
			assert.NotEqual(t, rhif.XAdd, b.Op, "no XAdd should survive lowering")
		}
	}
}

// A zero-value Options still compiles, falling back to the §4.4 defaults.
func TestCompileZeroOptionsUsesDefaults(t *testing.T) {
	k := &ast.Kernel{
		Name: "lt",
		Body: ast.Binary{
			Op:  ast.OpLt,
			Lhs: ast.Lit{Kind: ast.LitInt, Value: 1},
			Rhs: ast.Lit{Kind: ast.LitInt, Value: 2},
		},
	}

	obj, err := rhdl.Compile(k, nil, rhdl.Options{})
	require.NoError(t, err)

	rk, ok := obj.Kinds[obj.ReturnSlot]
	require.True(t, ok)
	assert.Equal(t, 1, rk.Len)
	assert.False(t, rk.Signed)
}

// A registered named struct type flows all the way through to a
// registered-width register in the final RTL object.
func TestCompileStructEndToEnd(t *testing.T) {
	reg := &mir.Registry{Types: map[string]kind.Kind{}, Kernels: map[string]*ast.Kernel{}}
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

	obj, err := rhdl.Compile(k, reg, rhdl.DefaultOptions())
	require.NoError(t, err)

	rk, ok := obj.Kinds[obj.ReturnSlot]
	require.True(t, ok)
	assert.Equal(t, 4, rk.Len)
}
