package ty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/ty"
)

func TestUnifyConstTrivial(t *testing.T) {
	c := ty.NewContext()
	a := c.TyLength(diag.Span{}, 8)
	b := c.TyLength(diag.Span{}, 8)
	require.NoError(t, c.Unify(a, b))

	bad := c.TyLength(diag.Span{}, 9)
	assert.Error(t, c.Unify(a, bad))
}

func TestUnifyBindsVariable(t *testing.T) {
	c := ty.NewContext()
	v := c.Fresh(diag.Span{})
	lit := c.TyLength(diag.Span{}, 16)
	require.NoError(t, c.Unify(v, lit))
	assert.Equal(t, lit, c.Apply(v))
}

func TestUnifyOccursCheck(t *testing.T) {
	c := ty.NewContext()
	v := c.Fresh(diag.Span{})
	arr := c.TyArray(diag.Span{}, v, c.TyLength(diag.Span{}, 4))
	err := c.Unify(v, arr)
	require.Error(t, err)
	var te *diag.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, diag.OccursCheck, te.Kind)
}

func TestUnifyStructural(t *testing.T) {
	c := ty.NewContext()
	at := diag.Span{}

	v1 := c.Fresh(at)
	t1 := c.TyTuple(at, []ty.Term{v1, c.TyLength(at, 4)})
	t2 := c.TyTuple(at, []ty.Term{c.TyLength(at, 8), c.TyLength(at, 4)})

	require.NoError(t, c.Unify(t1, t2))
	assert.Equal(t, c.TyLength(at, 8), c.Apply(v1))
}

func TestUnclockedUnifiesPermissively(t *testing.T) {
	c := ty.NewContext()
	at := diag.Span{}
	unclocked := c.TyUnclocked(at)
	red := c.TyClock(at, kind.Red)
	require.NoError(t, c.Unify(unclocked, red))

	green := c.TyClock(at, kind.Green)
	other := c.TyClock(at, kind.Green)
	require.NoError(t, c.Unify(green, other))

	blue := c.TyClock(at, kind.Blue)
	assert.Error(t, c.Unify(red, blue))
}

func TestIntoKindBits(t *testing.T) {
	c := ty.NewContext()
	at := diag.Span{}
	b := c.TyBits(at)

	lenVar, err := c.ProjectBitLength(b)
	require.NoError(t, err)
	require.NoError(t, c.Unify(lenVar, c.TyLength(at, 12)))

	k, err := c.IntoKind(b)
	require.NoError(t, err)
	assert.Equal(t, kind.BitsKind{N: 12}, k)
}

func TestIntoKindUndeterminedVariable(t *testing.T) {
	c := ty.NewContext()
	v := c.Fresh(diag.Span{})
	_, err := c.IntoKind(v)
	require.Error(t, err)
	var te *diag.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, diag.UnableToDetermineType, te.Kind)
}

func TestIntoKindSignal(t *testing.T) {
	c := ty.NewContext()
	at := diag.Span{}
	sig := c.TySignal(at, c.TyBits(at), c.TyClock(at, kind.Yellow))

	data, err := c.ProjectSignalValue(sig)
	require.NoError(t, err)
	lenVar, err := c.ProjectBitLength(data)
	require.NoError(t, err)
	require.NoError(t, c.Unify(lenVar, c.TyLength(at, 4)))

	k, err := c.IntoKind(sig)
	require.NoError(t, err)
	assert.Equal(t, kind.SignalKind{Inner: kind.BitsKind{N: 4}, Color: kind.Yellow}, k)
}

func TestIntoKindEnumDerivesWidth(t *testing.T) {
	c := ty.NewContext()
	at := diag.Span{}
	e := c.TyEnum(at, "E", []ty.VariantTerm{
		{Tag: "A", Discriminant: 0, Term: c.TyEmpty(at)},
		{Tag: "B", Discriminant: 1, Term: c.TyEmpty(at)},
		{Tag: "C", Discriminant: 2, Term: c.TyEmpty(at)},
		{Tag: "D", Discriminant: 3, Term: c.TyEmpty(at)},
	}, c.TyLength(at, 0), kind.Lsb)

	// Discriminant term deliberately left as an unsigned sign-flag const;
	// width is derived from the widest declared discriminant (3 -> 2 bits).
	ek, ok := e.(ty.EnumTerm)
	require.True(t, ok)
	ek.Discriminant = ty.ConstTerm{Tag: ty.CSigned, Sign: false}

	k, err := c.IntoKind(ek)
	require.NoError(t, err)
	enumKind, ok := k.(kind.EnumKind)
	require.True(t, ok)
	assert.Equal(t, 2, enumKind.Discriminant.Width)
}
