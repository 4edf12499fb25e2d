package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
)

func TestBlockResultDefaultsToNilMeansCallerSuppliesEmpty(t *testing.T) {
	blk := ast.Block{
		Stmts: []ast.Stmt{
			ast.Let{
				Pattern: ast.LetPattern{Name: "x"},
				Value:   ast.Lit{Kind: ast.LitInt, Value: 1},
			},
		},
	}
	assert.Len(t, blk.Stmts, 1)
	assert.Nil(t, blk.Result)
}

func TestEnumLiteralShapes(t *testing.T) {
	unit := ast.EnumLit{TypeName: "E", VariantName: "A"}
	assert.Nil(t, unit.Positional)
	assert.Nil(t, unit.Named)

	tuple := ast.EnumLit{TypeName: "E", VariantName: "B", Positional: []ast.Expr{
		ast.Lit{Kind: ast.LitInt, Value: 7},
	}}
	assert.Len(t, tuple.Positional, 1)
}

func TestAssignPathWithIndexStep(t *testing.T) {
	at := diag.Span{File: "k.rhdl", Line: 3}
	assign := ast.Assign{
		At: at,
		Target: &ast.AssignPath{
			Name: "buf",
			Path: []ast.AssignElem{
				{Kind: ast.AssignIndex, IndexExpr: ast.Lit{Kind: ast.LitInt, Value: 2}},
			},
		},
		Value: ast.Lit{Kind: ast.LitInt, Value: 9},
	}
	assert.Equal(t, at, assign.Loc())
	assert.Equal(t, "buf", assign.Target.Name)
}

func TestMethodCallVocabulary(t *testing.T) {
	mc := ast.MethodCall{
		Recv:   ast.Path{Name: "x"},
		Method: ast.MethodResize,
		Args:   []ast.Expr{ast.Lit{Kind: ast.LitInt, Value: 16}},
	}
	assert.Equal(t, ast.MethodResize, mc.Method)
	assert.Len(t, mc.Args, 1)
}
