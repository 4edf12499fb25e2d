package rtl

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// lowerWrap implements §4.5's lifting of a value into an Option/Result enum
// (Wrap(Ok/Err/Some/None)). ty.Context.TyOption/TyResult model both as
// ordinary two-variant kind.EnumKinds (None/Err at discriminant 0, Some/Ok
// at discriminant 1), so Wrap reuses exactly the template-init-then-splice
// machinery lowerEnum already implements, just deriving the variant name
// from the WrapOp instead of from a VariantName field.
func (l *lowerer) lowerWrap(o rhif.Wrap) error {
	k, err := l.kindOf(o.At, o.Lhs)
	if err != nil {
		return err
	}
	ek, ok := k.(kind.EnumKind)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "Wrap lhs Kind is not an EnumKind"}
	}

	variantName := wrapVariantName(o.Op)
	tmpl, err := kind.EnumTemplate(ek, variantName)
	if err != nil {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
	}
	base := l.newLiteral(tmpl, false)

	disc, ok := kind.GetDiscriminantForVariantByName(ek, variantName)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "no discriminant for variant " + variantName}
	}
	payloadKind, ok := lookupVariantKind(ek, variantName)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "no payload Kind for variant " + variantName}
	}
	if payloadKind.Bits() == 0 {
		l.emit(Assign{opBase{o.At}, o.Lhs, base})
		return nil
	}

	rng, _, err := kind.BitRange(k, kind.Path{kind.EnumPayloadByValue(disc)})
	if err != nil {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
	}
	l.emit(Splice{opBase{o.At}, o.Lhs, base, o.Arg, rng})
	return nil
}

func wrapVariantName(op rhif.WrapOp) string {
	switch op {
	case rhif.WrapOk:
		return "Ok"
	case rhif.WrapErr:
		return "Err"
	case rhif.WrapSome:
		return "Some"
	default:
		return "None"
	}
}
