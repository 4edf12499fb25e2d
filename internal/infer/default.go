package infer

import (
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// integerLiteralDefaultWidth is §4.4 "Defaulting"'s bit-length default for
// a literal whose width was never pinned by unification.
const integerLiteralDefaultWidth = 128

// runDefaulting implements §4.4's two defaulting sweeps: first any literal
// slot with a free bit-length defaults to 128 bits, then any literal slot
// with a free sign flag defaults to Signed. The delayed rule list is
// re-run after each sweep so downstream slots depending on a just-defaulted
// literal can themselves resolve.
func (i *Inferencer) runDefaulting(m *mir.Mir) error {
	lits := i.collectLiteralTypes(m)

	for _, t := range lits {
		bt, ok := i.ctx.Apply(t).(ty.BitsTerm)
		if !ok {
			continue
		}
		if _, isVar := i.ctx.Apply(bt.Len).(ty.VarTerm); isVar {
			if err := i.ctx.Unify(bt.Len, i.ctx.TyLength(t.Loc(), i.cfg.IntegerDefaultWidth)); err != nil {
				return err
			}
		}
	}
	if err := i.runFixpoint(); err != nil {
		return err
	}

	for _, t := range lits {
		bt, ok := i.ctx.Apply(t).(ty.BitsTerm)
		if !ok {
			continue
		}
		if _, isVar := i.ctx.Apply(bt.SignFlag).(ty.VarTerm); isVar {
			if err := i.ctx.Unify(bt.SignFlag, ty.ConstTerm{At: t.Loc(), Tag: ty.CSigned, Sign: true}); err != nil {
				return err
			}
		}
	}
	return i.runFixpoint()
}

// collectLiteralTypes gathers every literal slot's type term across m and
// every stashed sub-Mir.
func (i *Inferencer) collectLiteralTypes(m *mir.Mir) []ty.Term {
	var out []ty.Term
	for slot := range m.Literals {
		out = append(out, i.typeOf(m, slot))
	}
	for _, sub := range m.Stash {
		out = append(out, i.collectLiteralTypes(sub)...)
	}
	return out
}
