package rtl

import (
	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// lowerIndex implements §4.5 "Index(path)": a static path resolves straight
// to bit_range; a path carrying a dynamic index goes through address
// synthesis first.
func (l *lowerer) lowerIndex(o rhif.Index) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	if !hasDynamicIndex(o.Path) {
		rng, _, err := kind.BitRange(argKind, o.Path)
		if err != nil {
			return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
		}
		l.emit(Index{opBase{o.At}, o.Lhs, o.Arg, rng})
		return nil
	}
	offset, ln, err := l.synthesizeDynamicAddress(o.At, argKind, o.Path)
	if err != nil {
		return err
	}
	l.emit(DynamicIndex{opBase{o.At}, o.Lhs, o.Arg, offset, ln})
	return nil
}

// lowerSplice implements §4.5 "Splice(path)", symmetric to lowerIndex.
func (l *lowerer) lowerSplice(o rhif.Splice) error {
	argKind, err := l.kindOf(o.At, o.Arg)
	if err != nil {
		return err
	}
	if !hasDynamicIndex(o.Path) {
		rng, _, err := kind.BitRange(argKind, o.Path)
		if err != nil {
			return &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: o.At, Why: err.Error()}
		}
		l.emit(Splice{opBase{o.At}, o.Lhs, o.Arg, o.Value, rng})
		return nil
	}
	offset, ln, err := l.synthesizeDynamicAddress(o.At, argKind, o.Path)
	if err != nil {
		return err
	}
	l.emit(DynamicSplice{opBase{o.At}, o.Lhs, o.Arg, offset, o.Value, ln})
	return nil
}

func hasDynamicIndex(path kind.Path) bool {
	for _, el := range path {
		if el.Tag == kind.ElemDynamicIndex {
			return true
		}
	}
	return false
}

// addressWidth is ceil(log2(n)), floored at 1: an address register always
// has at least one bit, even selecting between only two elements.
func addressWidth(n int) int {
	w := 0
	for (1 << w) < n {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// synthesizeDynamicAddress implements §4.5's 5-step dynamic-path procedure:
//
//  1. base_range = bit_range(kind, path with every dynamic index at 0) —
//     which is exactly what BitRange(kind, path) already computes, since
//     Elem.Index defaults to 0.
//  2. For each dynamic index element, stride_i = bit_range(kind, path with
//     that index advanced by one).start - base_range.start.
//  3. Validate every advanced range has base's width and Kind shape (an
//     array's stride and element type must be uniform).
//  4. Build an address register of width ceil(log2(kind.bits())) by
//     summing base_range.start with each index's own runtime value
//     (resized to the address width) times its stride.
//  5. Return the address slot and base_range's width, for the caller to
//     emit DynamicIndex/DynamicSplice with.
func (l *lowerer) synthesizeDynamicAddress(at diag.Span, argKind kind.Kind, path kind.Path) (rhif.Slot, int, error) {
	base, baseKind, err := kind.BitRange(argKind, path)
	if err != nil {
		return rhif.Slot{}, 0, &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: at, Why: err.Error()}
	}

	addrLen := addressWidth(argKind.Bits())
	addr := l.newLiteral(kind.FromUint(uint64(base.Start), addrLen), false)

	for i, el := range path {
		if el.Tag != kind.ElemDynamicIndex {
			continue
		}

		advanced := path.WithDynamicIndexAt(i, el.Index+1)
		advRange, advKind, err := kind.BitRange(argKind, advanced)
		if err != nil {
			return rhif.Slot{}, 0, &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: at, Why: err.Error()}
		}
		if advRange.Len() != base.Len() || advKind.Bits() != baseKind.Bits() || kind.IsSigned(advKind) != kind.IsSigned(baseKind) {
			return rhif.Slot{}, 0, &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: at, Why: "dynamic index stride produced a differently-shaped element"}
		}
		stride := advRange.Start - base.Start

		idxSlot, ok := l.src.DynamicIndexSlots[el.Slot]
		if !ok {
			return rhif.Slot{}, 0, &diag.InternalError{Kind: diag.UnexpectedStructuralTemplate, At: at, Why: "dynamic index has no registered operand slot"}
		}

		idxAddr := l.newRegister(RegKind{Signed: false, Len: addrLen})
		l.emit(Cast{opBase{at}, idxAddr, idxSlot, addrLen, CastResize})

		term := idxAddr
		if stride != 1 {
			strideSlot := l.newLiteral(kind.FromUint(uint64(stride), addrLen), false)
			product := l.newRegister(RegKind{Signed: false, Len: addrLen})
			l.emit(Binary{opBase{at}, product, idxAddr, strideSlot, rhif.Mul})
			term = product
		}

		next := l.newRegister(RegKind{Signed: false, Len: addrLen})
		l.emit(Binary{opBase{at}, next, addr, term, rhif.Add})
		addr = next
	}

	return addr, base.Len(), nil
}
