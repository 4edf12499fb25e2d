package mir

import (
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// scope is one node of the scope tree of §3 ("Scope tree (MIR only)"): a
// name->slot map plus a link to its parent. Lookup walks toward the root;
// a new scope is pushed for each block, match arm, and for-loop body
// (§4.2 "Scoping").
type scope struct {
	vars   map[string]rhif.Slot
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]rhif.Slot), parent: parent}
}

// lookup resolves name by walking toward the root, returning the slot and
// the scope that defines it (needed by rebind to know where to write the
// new mapping).
func (s *scope) lookup(name string) (rhif.Slot, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if slot, ok := cur.vars[name]; ok {
			return slot, cur, true
		}
	}
	return rhif.Slot{}, nil, false
}

// bind introduces a brand-new binding in this exact scope (used by `let`).
func (s *scope) bind(name string, slot rhif.Slot) {
	s.vars[name] = slot
}

// rebind resolves name to the scope that defines it and overwrites the
// mapping there with a fresh slot, leaving the old slot's value immutable
// (§3 "SSA-by-renaming"). It panics if name is unbound, which the Builder
// never allows to happen: every rebind target was bound by an earlier
// `let` or function parameter.
func (s *scope) rebind(name string, slot rhif.Slot) {
	_, owner, ok := s.lookup(name)
	if !ok {
		owner = s
	}
	owner.vars[name] = slot
}

// snapshot returns a flat name->slot view of everything visible from s,
// innermost binding winning. Used to compute which names changed slot
// across a branch (§4.2 step 3).
func (s *scope) snapshot() map[string]rhif.Slot {
	out := make(map[string]rhif.Slot)
	chain := []*scope{}
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			out[k] = v
		}
	}
	return out
}
