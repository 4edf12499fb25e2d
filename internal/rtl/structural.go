package rtl

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// lowerStruct implements §4.5 "Struct": initialize from an all-default
// (zero) literal, then for each field compute bit_range(kind, Field(name))
// and splice the field's slot in. RHIF's Struct op always lists a complete,
// positionally-ordered field list (the MIR Builder lowers a `..rest`
// spread to Splice ops on the rest value and never emits a Struct op for
// it), so there is no separate "rest" source to initialize from here.
func (l *lowerer) lowerStruct(o rhif.Struct) error {
	k, err := l.kindOf(o.At, o.Lhs)
	if err != nil {
		return err
	}
	st, ok := k.(kind.StructKind)
	if !ok || len(st.Fields) != len(o.Fields) {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "Struct lhs Kind is not a matching StructKind"}
	}

	cur := l.newLiteral(kind.ZeroBits(k.Bits()), false)
	for idx, f := range o.Fields {
		rng, _, err := kind.BitRange(k, kind.Path{kind.Field(st.Fields[idx].Name)})
		if err != nil {
			return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
		}
		next := l.newRegister(regKindOf(k))
		l.emit(Splice{opBase{o.At}, next, cur, f, rng})
		cur = next
	}
	l.emit(Assign{opBase{o.At}, o.Lhs, cur})
	return nil
}

// lowerEnum implements §4.5 "Enum": initialize from the variant template
// (discriminant placed, payload zeroed), then splice the single Payload
// slot into the bit range bit_range(kind, payload_by_value(disc)) selects.
// RHIF packs a variant's whole payload (even a multi-field one) into one
// composite slot upstream (§4.2, compileEnumLit building a Tuple or Struct
// op for it), so only one splice is ever needed here, not one per field.
func (l *lowerer) lowerEnum(o rhif.Enum) error {
	k, err := l.kindOf(o.At, o.Lhs)
	if err != nil {
		return err
	}
	ek, ok := k.(kind.EnumKind)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "Enum lhs Kind is not an EnumKind"}
	}

	tmpl, err := kind.EnumTemplate(ek, o.VariantName)
	if err != nil {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
	}
	base := l.newLiteral(tmpl, false)

	disc, ok := kind.GetDiscriminantForVariantByName(ek, o.VariantName)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "no discriminant for variant " + o.VariantName}
	}
	payloadKind, ok := lookupVariantKind(ek, o.VariantName)
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "no payload Kind for variant " + o.VariantName}
	}
	if payloadKind.Bits() == 0 {
		l.emit(Assign{opBase{o.At}, o.Lhs, base})
		return nil
	}

	rng, _, err := kind.BitRange(k, kind.Path{kind.EnumPayloadByValue(disc)})
	if err != nil {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
	}
	l.emit(Splice{opBase{o.At}, o.Lhs, base, o.Payload, rng})
	return nil
}

func lookupVariantKind(ek kind.EnumKind, name string) (kind.Kind, bool) {
	for _, v := range ek.Variants {
		if v.Name == name {
			return v.Kind, true
		}
	}
	return nil, false
}
