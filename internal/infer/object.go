package infer

import (
	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// materialize implements §4.4's "Output": a final Object with every slot's
// Kind concrete, every literal cast into its inferred kind, and every
// stashed sub-kernel recursively materialized into an Object of its own.
func (i *Inferencer) materialize(m *mir.Mir) (*rhif.Object, error) {
	kinds := make(map[rhif.Slot]kind.Kind, len(m.Types))
	for slot, term := range m.Types {
		k, err := i.ctx.IntoKind(term)
		if err != nil {
			return nil, err
		}
		kinds[slot] = k
	}

	literals := make(map[rhif.Slot]rhif.BitString, len(m.Literals))
	for slot, info := range m.Literals {
		k, ok := kinds[slot]
		if !ok {
			continue
		}
		literals[slot] = castLiteral(k, info)
	}

	stash := make(map[rhif.FuncID]*rhif.Object, len(m.Stash))
	for id, sub := range m.Stash {
		obj, err := i.materialize(sub)
		if err != nil {
			return nil, err
		}
		stash[id] = obj
	}

	maxReg := -1
	for slot := range m.Types {
		if slot.Kind == rhif.SlotRegister && slot.ID > maxReg {
			maxReg = slot.ID
		}
	}
	symbols := make([]string, maxReg+1)
	for slot, name := range m.Symbols {
		if slot.Kind == rhif.SlotRegister {
			symbols[slot.ID] = name
		}
	}

	return &rhif.Object{
		Ops:               m.Ops,
		Literals:          literals,
		Kinds:             kinds,
		Arguments:         m.Arguments,
		ReturnSlot:        m.ReturnSlot,
		Stash:             stash,
		Symbols:           symbols,
		DynamicIndexSlots: m.DynamicIndexSlots,
	}, nil
}

// castLiteral casts a literal's source-written value into its finally
// inferred kind (§4.4 "literals each cast to the inferred kind (integer
// parsing honors 0b/0o/0x prefixes)" -- prefix parsing itself happens
// upstream of MIR construction; Value already carries the parsed
// two's-complement payload, so this step is purely the width/sign cast).
func castLiteral(k kind.Kind, info mir.LiteralInfo) rhif.BitString {
	signed := info.Signed
	if info.Lit != ast.LitTypedBits {
		switch k.(type) {
		case kind.SignedKind:
			signed = true
		case kind.BitsKind:
			signed = false
		}
	}
	n := k.Bits()
	var bits kind.BitArray
	if signed {
		bits = kind.FromInt(info.Value, n)
	} else {
		bits = kind.FromUint(uint64(info.Value), n)
	}
	return rhif.BitString{Bits: bits, Signed: signed}
}
