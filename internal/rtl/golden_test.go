package rtl_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/rtl"
)

// Each archive bundles a kernel fixture (built with ast test helpers, since
// textual parsing is out of scope per spec §1) with an "expect" file of
// key=value assertions against the compiled RTL Object, following the
// archive-of-inputs-and-goldens convention (SPEC_FULL.md §A.4).

// §8 scenario 1 (cross-width arithmetic core): `fn add(a: b8, b: b8) { a + b }`.
// The return type is left for the Inferencer to determine from the body
// (XAdd grows its result by one bit over the wider operand, §4.4) rather
// than declared, since a declared `-> b8` would demand an explicit resize
// the surface kernel never performs.
var addArchive = txtar.Parse([]byte(`
-- kernel.txt --
fn add(a: b8, b: b8) { a + b }
-- expect.txt --
return_width=9
return_signed=false
binary_add_count=1
cast_count=2
`))

// §8 scenario 3: `fn foo(a: [b8; 8], b: b3) -> b8 { a[b] }`.
var dynIndexArchive = txtar.Parse([]byte(`
-- kernel.txt --
fn foo(a: [b8; 8], b: b3) -> b8 { a[b] }
-- expect.txt --
return_width=8
dynamic_index_count=1
binary_mul_count=1
binary_add_count=1
`))

func parseExpect(t *testing.T, a *txtar.Archive) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, f := range a.Files {
		if f.Name != "expect.txt" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSpace(string(f.Data)), "\n") {
			if line == "" {
				continue
			}
			kv := strings.SplitN(line, "=", 2)
			require.Len(t, kv, 2, "malformed expect.txt line %q", line)
			out[kv[0]] = kv[1]
		}
	}
	return out
}

func TestGoldenAddTwoOperandsCrossWidth(t *testing.T) {
	expect := parseExpect(t, addArchive)

	reg := newReg()
	reg.Types["b8"] = kind.BitsKind{N: 8}
	k := &ast.Kernel{
		Name:   "add",
		Params: []ast.Param{{Name: "a", TypeName: "b8"}, {Name: "b", TypeName: "b8"}},
		Body: ast.Binary{
			Op:  ast.OpAdd,
			Lhs: ast.Path{Name: "a"},
			Rhs: ast.Path{Name: "b"},
		},
	}
	obj := compile(t, k, reg)
	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	rk := out.Kinds[out.ReturnSlot]
	wantWidth, err := strconv.Atoi(expect["return_width"])
	require.NoError(t, err)
	assert.Equal(t, wantWidth, rk.Len)
	assert.Equal(t, expect["return_signed"] == "true", rk.Signed)

	var adds, casts int
	for _, op := range out.Ops {
		switch o := op.(type) {
		case rtl.Binary:
			if o.Op == rhif.Add {
				adds++
			}
		case rtl.Cast:
			if o.Kind == rtl.CastResize {
				casts++
			}
		}
	}
	wantAdds, err := strconv.Atoi(expect["binary_add_count"])
	require.NoError(t, err)
	wantCasts, err := strconv.Atoi(expect["cast_count"])
	require.NoError(t, err)
	assert.Equal(t, wantAdds, adds, "one Add per surface `+`, each expanded from an XAdd")
	assert.Equal(t, wantCasts, casts, "each XAdd resizes both its operands once")
}

func TestGoldenDynamicIndexIntoArray(t *testing.T) {
	expect := parseExpect(t, dynIndexArchive)

	reg := newReg()
	reg.Types["b3"] = kind.BitsKind{N: 3}
	reg.Types["arr8"] = kind.ArrayKind{Base: kind.BitsKind{N: 8}, Size: 8}
	k := &ast.Kernel{
		Name:       "foo",
		Params:     []ast.Param{{Name: "a", TypeName: "arr8"}, {Name: "b", TypeName: "b3"}},
		ReturnType: "b8",
		Body:       ast.Index{Recv: ast.Path{Name: "a"}, IndexExpr: ast.Path{Name: "b"}},
	}
	obj := compile(t, k, reg)
	out, err := rtl.Lower(obj)
	require.NoError(t, err)

	rk := out.Kinds[out.ReturnSlot]
	wantWidth, err := strconv.Atoi(expect["return_width"])
	require.NoError(t, err)
	assert.Equal(t, wantWidth, rk.Len)

	var dynIdx, muls, adds int
	for _, op := range out.Ops {
		switch o := op.(type) {
		case rtl.DynamicIndex:
			dynIdx++
		case rtl.Binary:
			switch o.Op {
			case rhif.Mul:
				muls++
			case rhif.Add:
				adds++
			}
		}
	}
	wantDynIdx, err := strconv.Atoi(expect["dynamic_index_count"])
	require.NoError(t, err)
	assert.Equal(t, wantDynIdx, dynIdx)

	wantMuls, err := strconv.Atoi(expect["binary_mul_count"])
	require.NoError(t, err)
	assert.Equal(t, wantMuls, muls, "array stride 8 requires one multiply")

	wantAdds, err := strconv.Atoi(expect["binary_add_count"])
	require.NoError(t, err)
	assert.Equal(t, wantAdds, adds, "the base offset and index term are summed once")
}
