package kind

import "fmt"

// Validate checks the structural invariants of §3 that are not already
// enforced by construction. It is called on every EnumKind the Inferencer
// materializes (§4.4 "Output").
func Validate(k Kind) error {
	switch v := k.(type) {
	case EnumKind:
		return validateEnum(v)
	case StructKind:
		for _, f := range v.Fields {
			if err := Validate(f.Kind); err != nil {
				return err
			}
		}
	case TupleKind:
		for _, e := range v.Elems {
			if err := Validate(e); err != nil {
				return err
			}
		}
	case ArrayKind:
		return Validate(v.Base)
	case SignalKind:
		return Validate(v.Inner)
	}
	return nil
}

// validateEnum enforces invariant (3): an enum must either enumerate all
// 2^width discriminant values, or contain exactly one Unmatched variant.
func validateEnum(e EnumKind) error {
	seen := make(map[int64]bool, len(e.Variants))
	unmatched := 0
	for _, v := range e.Variants {
		if v.VariantKind == Unmatched {
			unmatched++
			continue
		}
		if seen[v.Discriminant] {
			return fmt.Errorf("kind: enum %q declares discriminant %d more than once", e.Name, v.Discriminant)
		}
		seen[v.Discriminant] = true
		if err := Validate(v.Kind); err != nil {
			return err
		}
	}

	if unmatched > 1 {
		return fmt.Errorf("kind: enum %q declares more than one Unmatched variant", e.Name)
	}

	if unmatched == 1 {
		return nil
	}

	full := int64(1) << uint(e.Discriminant.Width)
	if e.Discriminant.Width >= 63 {
		// Widths this large always enumerate a superset of any variant
		// list we could construct in memory; treat as satisfied.
		return nil
	}
	if int64(len(seen)) != full {
		return fmt.Errorf(
			"kind: enum %q must enumerate all %d discriminant values or declare one Unmatched variant, has %d",
			e.Name, full, len(seen),
		)
	}
	return nil
}
