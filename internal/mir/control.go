package mir

import (
	"sort"

	"github.com/tiendc/go-deepcopy"

	"github.com/rhdl-go/rhdl/internal/ast"
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// cloneScope deep-copies a flattened name->slot snapshot into a new,
// parent-less scope so that compiling a branch can rebind names without
// disturbing the shared ancestor scope the sibling branch starts from
// (§4.2 "Control flow and phi" step 1).
func cloneScope(snapshot map[string]rhif.Slot) (*scope, error) {
	cloned := make(map[string]rhif.Slot, len(snapshot))
	if err := deepcopy.Copy(&cloned, snapshot); err != nil {
		return nil, err
	}
	return &scope{vars: cloned}, nil
}

// changedNames returns, in a deterministic order, every name whose slot in
// at least one of arms differs from its slot in pre (§4.2 step 3).
func changedNames(pre map[string]rhif.Slot, arms ...map[string]rhif.Slot) []string {
	seen := map[string]bool{}
	for _, arm := range arms {
		for name, slot := range arm {
			if pre[name] != slot {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// armSlotFor returns the slot name resolves to within arm, falling back to
// its pre-branch slot if that arm never rebound it.
func armSlotFor(name string, pre, arm map[string]rhif.Slot) rhif.Slot {
	if s, ok := arm[name]; ok {
		return s
	}
	return pre[name]
}

func (b *Builder) compileIf(n ast.If, sc *scope) (rhif.Slot, error) {
	cond, err := b.compileExpr(n.Cond, sc)
	if err != nil {
		return rhif.Slot{}, err
	}

	pre := sc.snapshot()

	thenClone, err := cloneScope(pre)
	if err != nil {
		return rhif.Slot{}, err
	}
	thenResult, err := b.compileExpr(n.Then, thenClone)
	if err != nil {
		return rhif.Slot{}, err
	}
	thenSnap := thenClone.snapshot()

	var elseResult rhif.Slot
	elseSnap := pre
	if n.Else != nil {
		elseClone, err := cloneScope(pre)
		if err != nil {
			return rhif.Slot{}, err
		}
		elseResult, err = b.compileExpr(n.Else, elseClone)
		if err != nil {
			return rhif.Slot{}, err
		}
		elseSnap = elseClone.snapshot()
	} else {
		elseResult = rhif.Empty // §4.2 "Missing else branches default to Empty"
	}

	for _, name := range changedNames(pre, thenSnap, elseSnap) {
		t := armSlotFor(name, pre, thenSnap)
		f := armSlotFor(name, pre, elseSnap)
		joined := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Select{Lhs: joined, Cond: cond, True: t, False: f})
		sc.rebind(name, joined)
	}

	result := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Select{Lhs: result, Cond: cond, True: thenResult, False: elseResult})
	return result, nil
}

func (b *Builder) compileMatch(n ast.Match, sc *scope) (rhif.Slot, error) {
	scrutinee, err := b.compileExpr(n.Scrutinee, sc)
	if err != nil {
		return rhif.Slot{}, err
	}

	hasEnumArm := false
	for _, arm := range n.Arms {
		if arm.Pattern.Kind == ast.PatEnum {
			hasEnumArm = true
			break
		}
	}
	disc := scrutinee
	if hasEnumArm {
		disc = b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Index{Lhs: disc, Arg: scrutinee, Path: kind.Path{kind.EnumDiscriminant()}})
	}

	pre := sc.snapshot()
	armSnaps := make([]map[string]rhif.Slot, len(n.Arms))
	caseArms := make([]rhif.CaseArm, len(n.Arms))

	for i, arm := range n.Arms {
		clone, err := cloneScope(pre)
		if err != nil {
			return rhif.Slot{}, err
		}
		if arm.Pattern.Kind == ast.PatEnum {
			if err := b.bindEnumPattern(arm.Pattern, scrutinee, clone); err != nil {
				return rhif.Slot{}, err
			}
		}
		res, err := b.compileExpr(arm.Body, clone)
		if err != nil {
			return rhif.Slot{}, err
		}
		armSnaps[i] = clone.snapshot()

		switch arm.Pattern.Kind {
		case ast.PatWildcard:
			caseArms[i] = rhif.CaseArm{Wildcard: true, Result: res}
		case ast.PatConstant:
			caseArms[i] = rhif.CaseArm{Value: arm.Pattern.ConstValue, Result: res}
		case ast.PatEnum:
			discVal, ok := b.enumDiscriminantValue(arm.Pattern)
			if !ok {
				return rhif.Slot{}, syntaxErr(diag.UnsupportedPattern, arm.Pattern.At, "could not resolve discriminant for "+arm.Pattern.VariantName)
			}
			caseArms[i] = rhif.CaseArm{Value: discVal, Result: res}
		default:
			return rhif.Slot{}, syntaxErr(diag.UnsupportedPattern, arm.Pattern.At, "unsupported match pattern")
		}
	}

	for _, name := range changedNames(pre, armSnaps...) {
		arms := make([]rhif.CaseArm, len(n.Arms))
		for i, arm := range n.Arms {
			s := armSlotFor(name, pre, armSnaps[i])
			arms[i] = rhif.CaseArm{Value: caseArms[i].Value, Wildcard: caseArms[i].Wildcard, Result: s}
		}
		joined := b.newRegister(b.ctx.Fresh(n.Loc()), "")
		b.emit(rhif.Case{Lhs: joined, Disc: disc, Arms: arms})
		sc.rebind(name, joined)
	}

	result := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Case{Lhs: result, Disc: disc, Arms: caseArms})
	return result, nil
}

// enumDiscriminantValue resolves a PatEnum pattern's numeric discriminant
// via the Registry's concrete type table. Concrete struct/enum layouts are
// user-declared (not themselves inferred), so this information is always
// available at MIR-construction time.
func (b *Builder) enumDiscriminantValue(p ast.Pattern) (int64, bool) {
	k, ok := b.reg.Types[p.TypeName]
	if !ok {
		return 0, false
	}
	return kind.GetDiscriminantForVariantByName(k, p.VariantName)
}

// bindEnumPattern binds a PatEnum arm's payload names to freshly-projected
// sub-slots of the scrutinee's payload (§4.2 "initialize_local"-style
// destructuring, specialized to one enum variant).
func (b *Builder) bindEnumPattern(p ast.Pattern, scrutinee rhif.Slot, clone *scope) error {
	if len(p.Binds) == 0 && len(p.Fields) == 0 {
		return nil
	}
	payload := b.newRegister(b.ctx.Fresh(p.At), "")
	b.emit(rhif.Index{Lhs: payload, Arg: scrutinee, Path: kind.Path{kind.EnumPayload(p.VariantName)}})

	if len(p.Fields) > 0 {
		for i, name := range p.Binds {
			leaf := b.newRegister(b.ctx.Fresh(p.At), name)
			b.emit(rhif.Index{Lhs: leaf, Arg: payload, Path: kind.Path{kind.Field(p.Fields[i])}})
			clone.bind(name, leaf)
		}
		return nil
	}
	for i, name := range p.Binds {
		leaf := b.newRegister(b.ctx.Fresh(p.At), name)
		b.emit(rhif.Index{Lhs: leaf, Arg: payload, Path: kind.Path{kind.TupleIndex(int64(i))}})
		clone.bind(name, leaf)
	}
	return nil
}

// compileFor fully unrolls a for-loop over a literal integer range
// (§4.2 "For loop"): the body is emitted once per iteration with the loop
// variable rebound to each literal value in turn.
func (b *Builder) compileFor(n ast.For, sc *scope) (rhif.Slot, error) {
	result := rhif.Empty
	for i := n.Start; i < n.End; i++ {
		iter := newScope(sc)
		lit := b.newLiteral(b.ctx.TyInteger(n.Loc()), LiteralInfo{Lit: ast.LitInt, Value: i})
		iter.bind(n.Var, lit)

		res, err := b.compileExpr(n.Body, iter)
		if err != nil {
			return rhif.Slot{}, err
		}
		result = res

		// Names rebound inside the loop body that were already visible
		// outside it propagate back into sc, in iteration order, so the
		// next unrolled iteration (and code after the loop) observes
		// them; this is the unrolled analog of a loop-carried value.
		bodySnap := iter.snapshot()
		pre := sc.snapshot()
		for _, name := range changedNames(pre, bodySnap) {
			if _, _, ok := sc.lookup(name); ok {
				sc.rebind(name, bodySnap[name])
			}
		}
	}
	return result, nil
}

// compileBlock pushes a fresh scope (§4.2 "Scoping": "a new scope is
// pushed for each block"), compiles each statement for effect, and
// returns the block's result expression's slot (Empty if omitted).
func (b *Builder) compileBlock(n ast.Block, sc *scope) (rhif.Slot, error) {
	blockScope := newScope(sc)
	for _, stmt := range n.Stmts {
		if err := b.compileStmt(stmt, blockScope); err != nil {
			return rhif.Slot{}, err
		}
	}
	if n.Result == nil {
		return rhif.Empty, nil
	}
	return b.compileExpr(n.Result, blockScope)
}

// compileReturn implements §4.2 "Early return": rewritten into the
// return_slot/__early_return latch rather than an actual non-local jump.
func (b *Builder) compileReturn(n ast.Return, sc *scope) (rhif.Slot, error) {
	var val rhif.Slot = rhif.Empty
	if n.Value != nil {
		v, err := b.compileExpr(n.Value, sc)
		if err != nil {
			return rhif.Slot{}, err
		}
		val = v
	}

	newReturn := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Select{Lhs: newReturn, Cond: b.earlyReturn, True: b.returnSlot, False: val})
	b.returnSlot = newReturn

	newFlag := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	trueLit := b.newLiteral(b.ctx.TyInteger(n.Loc()), LiteralInfo{Lit: ast.LitBool, Value: 1})
	b.emit(rhif.Select{Lhs: newFlag, Cond: b.earlyReturn, True: b.earlyReturn, False: trueLit})
	b.earlyReturn = newFlag

	return rhif.Empty, nil
}

// compileTry implements §4.2 "Try (?) expression": extracts the payload,
// and ORs the discriminant (1 meaning success) with __early_return into a
// pass-through flag that drives the same select pattern return uses.
func (b *Builder) compileTry(n ast.Try, sc *scope) (rhif.Slot, error) {
	recv, err := b.compileExpr(n.Recv, sc)
	if err != nil {
		return rhif.Slot{}, err
	}

	payload := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Index{Lhs: payload, Arg: recv, Path: kind.Path{kind.EnumPayloadByValue(1), kind.TupleIndex(0)}})

	discriminant := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Index{Lhs: discriminant, Arg: recv, Path: kind.Path{kind.EnumDiscriminant()}})

	// pass_flag = earlyReturn OR discriminant (discriminant 1 == Ok/Some, the
	// convention internal/ty/context.go and internal/rtl/wrap.go both use):
	// true whenever the function must NOT bail out here, either because an
	// earlier statement already returned or because this try succeeded.
	passThrough := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Binary{Lhs: passThrough, L: b.earlyReturn, R: discriminant, Op: rhif.BitOr})

	newReturn := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	b.emit(rhif.Select{Lhs: newReturn, Cond: passThrough, True: b.returnSlot, False: recv})

	newFlag := b.newRegister(b.ctx.Fresh(n.Loc()), "")
	trueLit := b.newLiteral(b.ctx.TyInteger(n.Loc()), LiteralInfo{Lit: ast.LitBool, Value: 1})
	b.emit(rhif.Select{Lhs: newFlag, Cond: passThrough, True: b.earlyReturn, False: trueLit})
	b.returnSlot = newReturn
	b.earlyReturn = newFlag

	return payload, nil
}
