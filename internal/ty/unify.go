package ty

import (
	"github.com/rhdl-go/rhdl/internal/diag"
)

// Unify implements §4.3's five structural unification rules:
//
//  1. An unbound variable unifies with anything, binding the variable
//     (subject to the occurs check).
//  2. Two App terms of the same constructor unify if their corresponding
//     sub-terms unify pairwise.
//  3. Unclocked unifies permissively with any Clock(_) constant, and with
//     itself; this is the sole exception to rule 5's strict equality
//     (§9 "Signal clock domain as a phantom").
//  4. Two App terms of different constructors (or an App and a Const)
//     never unify.
//  5. Two equal Const terms unify trivially; two unequal ones never do.
func (c *Context) Unify(a, b Term) error {
	a = c.resolveTop(a)
	b = c.resolveTop(b)

	if av, ok := a.(VarTerm); ok {
		if bv, ok := b.(VarTerm); ok && av.ID == bv.ID {
			return nil
		}
		return c.bindVar(av, b)
	}
	if bv, ok := b.(VarTerm); ok {
		return c.bindVar(bv, a)
	}

	if ac, ok := a.(ConstTerm); ok && ac.Tag == CUnclocked {
		return c.unifyUnclocked(a, b)
	}
	if bc, ok := b.(ConstTerm); ok && bc.Tag == CUnclocked {
		return c.unifyUnclocked(b, a)
	}

	switch av := a.(type) {
	case ConstTerm:
		bv, ok := b.(ConstTerm)
		if !ok || !constEqual(av, bv) {
			return c.cannotUnify(a, b, "")
		}
		return nil

	case TupleTerm:
		bv, ok := b.(TupleTerm)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return c.cannotUnify(a, b, "tuple arity mismatch")
		}
		for i := range av.Elems {
			if err := c.Unify(av.Elems[i], bv.Elems[i]); err != nil {
				return err
			}
		}
		return nil

	case ArrayTerm:
		bv, ok := b.(ArrayTerm)
		if !ok {
			return c.cannotUnify(a, b, "")
		}
		if err := c.Unify(av.Base, bv.Base); err != nil {
			return err
		}
		return c.Unify(av.Len, bv.Len)

	case StructTerm:
		bv, ok := b.(StructTerm)
		if !ok || av.Name != bv.Name || len(av.Fields) != len(bv.Fields) {
			return c.cannotUnify(a, b, "struct shape mismatch")
		}
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name {
				return c.cannotUnify(a, b, "struct field name mismatch")
			}
			if err := c.Unify(av.Fields[i].Term, bv.Fields[i].Term); err != nil {
				return err
			}
		}
		return nil

	case EnumTerm:
		bv, ok := b.(EnumTerm)
		if !ok || av.Name != bv.Name || len(av.Variants) != len(bv.Variants) {
			return c.cannotUnify(a, b, "enum shape mismatch")
		}
		if err := c.Unify(av.Discriminant, bv.Discriminant); err != nil {
			return err
		}
		for i := range av.Variants {
			if av.Variants[i].Tag != bv.Variants[i].Tag || av.Variants[i].Discriminant != bv.Variants[i].Discriminant {
				return c.cannotUnify(a, b, "enum variant tag/discriminant mismatch")
			}
			if err := c.Unify(av.Variants[i].Term, bv.Variants[i].Term); err != nil {
				return err
			}
		}
		return nil

	case BitsTerm:
		bv, ok := b.(BitsTerm)
		if !ok {
			return c.cannotUnify(a, b, "")
		}
		if err := c.Unify(av.SignFlag, bv.SignFlag); err != nil {
			return err
		}
		return c.Unify(av.Len, bv.Len)

	case SignalTerm:
		bv, ok := b.(SignalTerm)
		if !ok {
			return c.cannotUnify(a, b, "")
		}
		if err := c.Unify(av.Data, bv.Data); err != nil {
			return err
		}
		return c.Unify(av.Clock, bv.Clock)

	default:
		return c.cannotUnify(a, b, "")
	}
}

// unifyUnclocked implements rule 3: Unclocked unifies with any Clock(_)
// constant or another Unclocked outright, and unifies permissively with any
// App term by recursively unifying each of that term's sub-terms with
// Unclocked in turn — this is what lets a const-folded expression built
// from clocked sub-values still participate in an otherwise-unclocked
// context (§9 "Signal clock domain as a phantom").
func (c *Context) unifyUnclocked(unclocked, other Term) error {
	switch o := other.(type) {
	case ConstTerm:
		if o.Tag == CClock || o.Tag == CUnclocked {
			return nil
		}
		return c.cannotUnify(unclocked, other, "Unclocked only unifies with a clock color or another Unclocked")
	case TupleTerm:
		for _, e := range o.Elems {
			if err := c.unifyUnclocked(unclocked, c.resolveTop(e)); err != nil {
				return err
			}
		}
		return nil
	case ArrayTerm:
		if err := c.unifyUnclocked(unclocked, c.resolveTop(o.Base)); err != nil {
			return err
		}
		return c.unifyUnclocked(unclocked, c.resolveTop(o.Len))
	case StructTerm:
		for _, f := range o.Fields {
			if err := c.unifyUnclocked(unclocked, c.resolveTop(f.Term)); err != nil {
				return err
			}
		}
		return nil
	case EnumTerm:
		if err := c.unifyUnclocked(unclocked, c.resolveTop(o.Discriminant)); err != nil {
			return err
		}
		for _, vt := range o.Variants {
			if err := c.unifyUnclocked(unclocked, c.resolveTop(vt.Term)); err != nil {
				return err
			}
		}
		return nil
	case BitsTerm:
		if err := c.unifyUnclocked(unclocked, c.resolveTop(o.SignFlag)); err != nil {
			return err
		}
		return c.unifyUnclocked(unclocked, c.resolveTop(o.Len))
	case SignalTerm:
		if err := c.unifyUnclocked(unclocked, c.resolveTop(o.Data)); err != nil {
			return err
		}
		return c.unifyUnclocked(unclocked, c.resolveTop(o.Clock))
	case VarTerm:
		return c.bindVar(o, unclocked)
	default:
		return c.cannotUnify(unclocked, other, "")
	}
}

// bindVar binds an unbound variable to t, subject to the occurs check
// (§4.3: "unify fails ... if the variable occurs within the term").
func (c *Context) bindVar(v VarTerm, t Term) error {
	t = c.resolveTop(t)
	if tv, ok := t.(VarTerm); ok && tv.ID == v.ID {
		return nil
	}
	if c.occursIn(v.ID, t) {
		return &diag.TypeError{
			Kind: diag.OccursCheck,
			At:   v.At,
			Detail: v.String() + " occurs within " + t.String(),
		}
	}
	c.bind[v.ID] = t
	return nil
}

// occursIn reports whether variable id appears anywhere within t, resolving
// bound variables as it walks so that chains of bindings are seen through.
func (c *Context) occursIn(id VarID, t Term) bool {
	t = c.resolveTop(t)
	switch v := t.(type) {
	case VarTerm:
		return v.ID == id
	case TupleTerm:
		for _, e := range v.Elems {
			if c.occursIn(id, e) {
				return true
			}
		}
	case ArrayTerm:
		return c.occursIn(id, v.Base) || c.occursIn(id, v.Len)
	case StructTerm:
		for _, f := range v.Fields {
			if c.occursIn(id, f.Term) {
				return true
			}
		}
	case EnumTerm:
		if c.occursIn(id, v.Discriminant) {
			return true
		}
		for _, vt := range v.Variants {
			if c.occursIn(id, vt.Term) {
				return true
			}
		}
	case BitsTerm:
		return c.occursIn(id, v.SignFlag) || c.occursIn(id, v.Len)
	case SignalTerm:
		return c.occursIn(id, v.Data) || c.occursIn(id, v.Clock)
	}
	return false
}

func (c *Context) cannotUnify(a, b Term, why string) error {
	detail := c.Apply(a).String() + " vs " + c.Apply(b).String()
	if why != "" {
		detail += ": " + why
	}
	return &diag.TypeError{Kind: diag.CannotUnify, At: a.Loc(), Detail: detail}
}

// ProjectBitLength unifies t with a fresh Bits(sign, len) shape if t is not
// already known to have one, and returns the len sub-term. Used by the
// Inferencer's delayed rules to pull the bit-width operand out of a
// possibly-unresolved slot type (§4.4 "reductions", "pad").
func (c *Context) ProjectBitLength(t Term) (Term, error) {
	bt, err := c.projectBits(t)
	if err != nil {
		return nil, err
	}
	return bt.Len, nil
}

// ProjectSignFlag mirrors ProjectBitLength for the sign component.
func (c *Context) ProjectSignFlag(t Term) (Term, error) {
	bt, err := c.projectBits(t)
	if err != nil {
		return nil, err
	}
	return bt.SignFlag, nil
}

func (c *Context) projectBits(t Term) (BitsTerm, error) {
	rt := c.resolveTop(t)
	if bt, ok := rt.(BitsTerm); ok {
		return bt, nil
	}
	shape := BitsTerm{At: t.Loc(), SignFlag: c.Fresh(t.Loc()), Len: c.Fresh(t.Loc())}
	if err := c.Unify(t, shape); err != nil {
		return BitsTerm{}, err
	}
	return shape, nil
}

// ProjectSignalClock unifies t with a fresh Signal(data, clock) shape if
// necessary and returns the clock sub-term (§4.4 "signal clock domain
// checks").
func (c *Context) ProjectSignalClock(t Term) (Term, error) {
	st, err := c.projectSignal(t)
	if err != nil {
		return nil, err
	}
	return st.Clock, nil
}

// ProjectSignalValue mirrors ProjectSignalClock for the data component.
func (c *Context) ProjectSignalValue(t Term) (Term, error) {
	st, err := c.projectSignal(t)
	if err != nil {
		return nil, err
	}
	return st.Data, nil
}

func (c *Context) projectSignal(t Term) (SignalTerm, error) {
	rt := c.resolveTop(t)
	if st, ok := rt.(SignalTerm); ok {
		return st, nil
	}
	shape := SignalTerm{At: t.Loc(), Data: c.Fresh(t.Loc()), Clock: c.Fresh(t.Loc())}
	if err := c.Unify(t, shape); err != nil {
		return SignalTerm{}, &diag.TypeError{
			Kind: diag.ExpectedSignalValue, At: t.Loc(), Detail: c.Desc(t),
		}
	}
	return shape, nil
}
