package diag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhdl-go/rhdl/internal/diag"
)

func TestErrorFamilies(t *testing.T) {
	at := diag.Span{File: "k.rhdl", Line: 3, Col: 5}

	syn := &diag.SyntaxError{Kind: diag.RangeOutsideForLoop, At: at}
	assert.True(t, errors.Is(syn, diag.ErrSyntax))
	assert.Equal(t, at, syn.Primary())
	assert.Contains(t, syn.Error(), "for-loop")

	ty := &diag.TypeError{
		Kind: diag.CannotUnify,
		At:   at,
		Labels: []diag.Label{
			{Span: at, Text: "expected here"},
		},
	}
	assert.True(t, errors.Is(ty, diag.ErrTypeCheck))
	assert.Len(t, ty.Secondary(), 1)

	ice := &diag.InternalError{Kind: diag.ReturnSlotNotFound, At: at, Why: "epilogue missing"}
	assert.True(t, errors.Is(ice, diag.ErrInternal))
	assert.Contains(t, ice.Error(), "epilogue missing")
}
