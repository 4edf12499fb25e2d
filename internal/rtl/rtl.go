// Package rtl implements the RTL Lowerer of §4.5: it consumes a typed
// internal/rhif Object and produces a flat, bit-accurate Object over
// registers whose type is exactly Unsigned(n) or Signed(n), with every
// structural op expanded to splice/concat, every path projection resolved
// to a concrete bit range (static or dynamically addressed), every
// cross-width arithmetic op expanded to its resize-then-binary expansion,
// and every sub-kernel call inlined.
package rtl

import (
	"fmt"

	"github.com/rhdl-go/rhdl/internal/diag"
	"github.com/rhdl-go/rhdl/internal/kind"
	"github.com/rhdl-go/rhdl/internal/rhif"
)

// RegKind is an RTL register's type (§3 "RTL opcode": "typed registers
// whose type is exactly Unsigned(n) or Signed(n)").
type RegKind struct {
	Signed bool
	Len    int
}

func (k RegKind) String() string {
	if k.Signed {
		return fmt.Sprintf("i%d", k.Len)
	}
	return fmt.Sprintf("u%d", k.Len)
}

func regKindOf(k kind.Kind) RegKind {
	return RegKind{Signed: kind.IsSigned(k), Len: k.Bits()}
}

// CastKind distinguishes a bit-pattern reinterpretation (Signed/Unsigned)
// from a numeric resize (Resize, which sign/zero-extends or truncates).
type CastKind int

const (
	CastUnsigned CastKind = iota
	CastSigned
	CastResize
)

// Op is one RTL instruction (§3 "RTL opcode"). All concrete op types embed
// a Loc span and implement this marker so every consumer can exhaustively
// type-switch.
type Op interface {
	isOp()
	Loc() diag.Span
}

type opBase struct{ At diag.Span }

func (opBase) isOp()            {}
func (o opBase) Loc() diag.Span { return o.At }

// Assign copies Rhs into Lhs verbatim.
type Assign struct {
	opBase
	Lhs, Rhs rhif.Slot
}

// Binary applies a rhif.BinOp (restricted to the non-X-prefixed family;
// cross-width ops are expanded away before reaching this op) to two
// same-width operands.
type Binary struct {
	opBase
	Lhs, L, R rhif.Slot
	Op        rhif.BinOp
}

// Unary applies a rhif.UnOp to one operand. XShl/XShr/XNeg/XSgn/XExt carry
// their already-resolved shift amount or are only ever produced here as
// the expansion of a cross-width Unary op; N is meaningful only for
// XShl/XShr.
type Unary struct {
	opBase
	Lhs, Arg rhif.Slot
	Op       rhif.UnOp
	N        int
}

// Cast reinterprets or numerically resizes Arg into Lhs.
type Cast struct {
	opBase
	Lhs, Arg rhif.Slot
	Len      int
	Kind     CastKind
}

// Concat builds Lhs by concatenating Args LSB-first: Args[0] occupies the
// low bits, Args[len(Args)-1] the high bits (§6 "Bit-level wire format":
// BitArray is LSB-first, matching field/element layout order).
type Concat struct {
	opBase
	Lhs  rhif.Slot
	Args []rhif.Slot
}

// Index extracts the bit range Range out of Arg.
type Index struct {
	opBase
	Lhs, Arg rhif.Slot
	Range    kind.Range
}

// Splice writes Value into Arg's Range, producing a new whole value in Lhs.
type Splice struct {
	opBase
	Lhs, Arg, Value rhif.Slot
	Range           kind.Range
}

// DynamicIndex extracts a Len-bit range starting at the runtime bit Offset
// out of Arg (§4.5 "Dynamic paths").
type DynamicIndex struct {
	opBase
	Lhs, Arg, Offset rhif.Slot
	Len              int
}

// DynamicSplice writes Value into a Len-bit range starting at the runtime
// bit Offset of Arg, producing a new whole value in Lhs.
type DynamicSplice struct {
	opBase
	Lhs, Arg, Offset, Value rhif.Slot
	Len                     int
}

// CaseArm pairs a discriminant-or-wildcard value with the slot holding
// that arm's result.
type CaseArm struct {
	Value    int64
	Wildcard bool
	Result   rhif.Slot
}

// Case selects among several result slots based on Disc's runtime value.
type Case struct {
	opBase
	Lhs  rhif.Slot
	Disc rhif.Slot
	Arms []CaseArm
}

// Select chooses True or False according to Cond's runtime value.
type Select struct {
	opBase
	Lhs        rhif.Slot
	Cond       rhif.Slot
	True, False rhif.Slot
}

// Comment is a no-op annotation carried through for diagnostic traces.
type Comment struct {
	opBase
	Text string
}

func (Assign) isOp()        {}
func (Binary) isOp()        {}
func (Unary) isOp()         {}
func (Cast) isOp()          {}
func (Concat) isOp()        {}
func (Index) isOp()         {}
func (Splice) isOp()        {}
func (DynamicIndex) isOp()  {}
func (DynamicSplice) isOp() {}
func (Case) isOp()          {}
func (Select) isOp()        {}
func (Comment) isOp()       {}

// Object is the flat, bit-accurate program the RTL Lowerer produces: every
// sub-kernel call has been inlined, so unlike rhif.Object it carries no
// Stash (§4.5 "Sub-kernel inlining").
type Object struct {
	Ops        []Op
	Literals   map[rhif.Slot]rhif.BitString
	Kinds      map[rhif.Slot]RegKind
	Arguments  []rhif.Slot
	ReturnSlot rhif.Slot
	Symbols    []string
}
