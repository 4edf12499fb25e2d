package rtl

import (
	"iter"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/scc"
)

// stashOrder walks root's full sub-kernel stash tree and returns every
// object it transitively reaches (not root itself) in bottom-up order: a
// callee always precedes every caller that Execs it.
//
// Recursion is forbidden in RHDL kernels (§5), so this graph is always a
// tree in practice; scc.Sort's cycle detection is still worth keeping
// since a stray self-reference should surface as a compiler error here
// rather than an infinite inlining loop later.
func stashOrder(root *rhif.Object) ([]*rhif.Object, error) {
	graph := func(o *rhif.Object) iter.Seq[*rhif.Object] {
		return func(yield func(*rhif.Object) bool) {
			for _, sub := range o.Stash {
				if !yield(sub) {
					return
				}
			}
		}
	}

	dag := scc.Sort(root, graph)
	var order []*rhif.Object
	for comp := range dag.Topological() {
		members := comp.Members()
		if len(members) != 1 {
			return nil, &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, Why: "sub-kernel call graph contains a cycle"}
		}
		if members[0] == root {
			continue
		}
		order = append(order, members[0])
	}
	return order, nil
}

// inlineExec implements §4.5 "Sub-kernel inlining": the callee (already
// lowered and cached by Lower's bottom-up pass) is spliced directly into
// the caller's instruction stream under freshly remapped registers, so
// the result has no remaining Exec op at all.
func (l *lowerer) inlineExec(o rhif.Exec, cache map[*rhif.Object]*Object) error {
	callee, ok := l.src.Stash[o.Func]
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "Exec references a FuncID absent from this object's Stash"}
	}
	lowered, ok := cache[callee]
	if !ok {
		return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: "callee was not lowered before its caller"}
	}

	remap := make(map[rhif.Slot]rhif.Slot, len(lowered.Kinds))
	for s, rk := range lowered.Kinds {
		if s.Kind == rhif.SlotLiteral {
			lit := lowered.Literals[s]
			remap[s] = l.newLiteral(lit.Bits, lit.Signed)
			continue
		}
		remap[s] = l.newRegister(rk)
	}

	for i, calleeArg := range lowered.Arguments {
		if i >= len(o.Args) {
			break
		}
		l.emit(Assign{opBase{o.At}, remap[calleeArg], o.Args[i]})
	}

	for _, op := range lowered.Ops {
		l.emit(remapOp(op, remap))
	}

	l.emit(Assign{opBase{o.At}, o.Lhs, remap[lowered.ReturnSlot]})
	return nil
}

// remapOp clones op with every rhif.Slot operand translated through remap.
// Every slot a lowered Object's Ops can reference is a key of its own
// Kinds table, so remap (built from that same table) is total over them.
func remapOp(op Op, remap map[rhif.Slot]rhif.Slot) Op {
	rs := func(s rhif.Slot) rhif.Slot {
		if s.Kind == rhif.SlotEmpty {
			return s
		}
		if r, ok := remap[s]; ok {
			return r
		}
		return s
	}
	rslice := func(ss []rhif.Slot) []rhif.Slot {
		out := make([]rhif.Slot, len(ss))
		for i, s := range ss {
			out[i] = rs(s)
		}
		return out
	}

	switch o := op.(type) {
	case Assign:
		return Assign{o.opBase, rs(o.Lhs), rs(o.Rhs)}
	case Binary:
		return Binary{o.opBase, rs(o.Lhs), rs(o.L), rs(o.R), o.Op}
	case Unary:
		return Unary{o.opBase, rs(o.Lhs), rs(o.Arg), o.Op, o.N}
	case Cast:
		return Cast{o.opBase, rs(o.Lhs), rs(o.Arg), o.Len, o.Kind}
	case Concat:
		return Concat{o.opBase, rs(o.Lhs), rslice(o.Args)}
	case Index:
		return Index{o.opBase, rs(o.Lhs), rs(o.Arg), o.Range}
	case Splice:
		return Splice{o.opBase, rs(o.Lhs), rs(o.Arg), rs(o.Value), o.Range}
	case DynamicIndex:
		return DynamicIndex{o.opBase, rs(o.Lhs), rs(o.Arg), rs(o.Offset), o.Len}
	case DynamicSplice:
		return DynamicSplice{o.opBase, rs(o.Lhs), rs(o.Arg), rs(o.Offset), rs(o.Value), o.Len}
	case Case:
		arms := make([]CaseArm, len(o.Arms))
		for i, a := range o.Arms {
			arms[i] = CaseArm{Value: a.Value, Wildcard: a.Wildcard, Result: rs(a.Result)}
		}
		return Case{o.opBase, rs(o.Lhs), rs(o.Disc), arms}
	case Select:
		return Select{o.opBase, rs(o.Lhs), rs(o.Cond), rs(o.True), rs(o.False)}
	case Comment:
		return o
	default:
		return o
	}
}
