// Package infer implements the Type Inferencer of §4.4: it walks a
// MIR Builder's output, emitting strong constraints immediately and
// queuing delayed rules to a bounded fixpoint, then defaults any type
// still carrying a free variable and materializes a fully-typed
// internal/rhif Object.
package infer

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/mir"
	"github.com/rhdl-go/rhdl/internal/rhif"
	"github.com/rhdl-go/rhdl/internal/ty"
)

// maxFixpointPasses bounds the delayed-rule re-evaluation loop (§4.4:
// "a bounded number of passes -- five is sufficient in practice"). This is
// Config's default; Infer uses it directly, InferWithConfig lets a caller
// (the root package's Options) override it.
const maxFixpointPasses = 5

// Config tunes the two numbers §4.4 calls out as re-implementer knobs
// (root package Options threads these through from Compile).
type Config struct {
	IntegerDefaultWidth int
	FixpointPasses      int
}

func defaultConfig() Config {
	return Config{IntegerDefaultWidth: integerLiteralDefaultWidth, FixpointPasses: maxFixpointPasses}
}

// Inferencer holds the mutable state of one infer(mir) -> Object run: the
// shared Type Context every Mir's slots were allocated against, and the
// list of delayed constraints collected while walking every stashed
// sub-kernel's ops.
type Inferencer struct {
	ctx     *ty.Context
	cfg     Config
	delayed []func() error
}

// Infer implements §4.4's infer(mir) -> Object entrypoint. ctx must be the
// same Context the MIR Builder allocated m's (and every stashed sub-Mir's)
// type terms against.
func Infer(ctx *ty.Context, m *mir.Mir) (*rhif.Object, error) {
	return InferWithConfig(ctx, m, defaultConfig())
}

// InferWithConfig is Infer with the defaulting width and fixpoint bound
// overridden by cfg; a zero field falls back to the §4.4 default.
func InferWithConfig(ctx *ty.Context, m *mir.Mir, cfg Config) (*rhif.Object, error) {
	if cfg.IntegerDefaultWidth == 0 {
		cfg.IntegerDefaultWidth = integerLiteralDefaultWidth
	}
	if cfg.FixpointPasses == 0 {
		cfg.FixpointPasses = maxFixpointPasses
	}
	i := &Inferencer{ctx: ctx, cfg: cfg}

	if err := i.collect(m); err != nil {
		return nil, err
	}
	if err := i.runFixpoint(); err != nil {
		return nil, err
	}
	if err := i.runDefaulting(m); err != nil {
		return nil, err
	}
	return i.materialize(m)
}

// collect walks m's ops (and recursively every stashed sub-Mir's), applying
// strong constraints immediately and appending delayed ones, then equates
// every ty_equate pair recorded by the MIR Builder (§4.2 "Both the old and
// new slots are recorded in ty_equate").
func (i *Inferencer) collect(m *mir.Mir) error {
	for _, op := range m.Ops {
		if err := i.strongConstraint(m, op); err != nil {
			return err
		}
		i.queueDelayed(m, op)
	}
	for _, pair := range m.TyEquate {
		if err := i.ctx.Unify(i.typeOf(m, pair[0]), i.typeOf(m, pair[1])); err != nil {
			return err
		}
	}
	for _, sub := range m.Stash {
		if err := i.collect(sub); err != nil {
			return err
		}
	}
	return nil
}

// runFixpoint re-runs every delayed rule up to cfg.FixpointPasses times,
// stopping early once a full pass adds no new substitutions (§4.4
// "terminating early when one pass yields no substitution-map changes").
func (i *Inferencer) runFixpoint() error {
	for pass := 0; pass < i.cfg.FixpointPasses; pass++ {
		before := i.ctx.BindingCount()
		for _, rule := range i.delayed {
			if err := rule(); err != nil {
				return err
			}
		}
		if i.ctx.BindingCount() == before {
			break
		}
	}
	return nil
}

// typeOf resolves a slot's inference-time term. rhif.Empty always types as
// Empty regardless of which Mir is asking, since every Builder shares the
// one Empty sentinel without a per-Mir type entry.
func (i *Inferencer) typeOf(m *mir.Mir, s rhif.Slot) ty.Term {
	if s.Kind == rhif.SlotEmpty {
		return i.ctx.TyEmpty(diag.Span{})
	}
	return m.Types[s]
}
