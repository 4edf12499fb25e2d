package interner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhdl-go/rhdl/internal/interner"
)

func TestInternRoundTrip(t *testing.T) {
	a := interner.Intern("clock")
	b := interner.Intern("clock")
	c := interner.Intern("reset")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "clock", a.String())
	assert.Equal(t, "reset", c.String())
	assert.Equal(t, "", interner.Symbol(0).String())
}
