package rtl

import (
	"fmt"
	"strings"
)

// Dump renders obj as deterministic text: a line of argument slot widths,
// then one line per op in program order, then the return slot's width. It
// is not used at runtime (and no test calls it yet), so it only ever
// walks obj's slices -- never its maps -- to stay free of iteration-order
// nondeterminism.
func Dump(obj *Object) string {
	var b strings.Builder

	fmt.Fprintf(&b, "args:")
	for _, a := range obj.Arguments {
		fmt.Fprintf(&b, " %s:%s", a, obj.Kinds[a])
	}
	fmt.Fprintf(&b, "\n")

	for _, op := range obj.Ops {
		fmt.Fprintf(&b, "%s\n", dumpOp(op))
	}

	fmt.Fprintf(&b, "return: %s:%s\n", obj.ReturnSlot, obj.Kinds[obj.ReturnSlot])
	return b.String()
}

func dumpOp(op Op) string {
	switch o := op.(type) {
	case Assign:
		return fmt.Sprintf("%s = assign %s", o.Lhs, o.Rhs)
	case Binary:
		return fmt.Sprintf("%s = %v %s, %s", o.Lhs, o.Op, o.L, o.R)
	case Unary:
		return fmt.Sprintf("%s = %v(%d) %s", o.Lhs, o.Op, o.N, o.Arg)
	case Cast:
		return fmt.Sprintf("%s = cast(%d, %d) %s", o.Lhs, o.Kind, o.Len, o.Arg)
	case Concat:
		return fmt.Sprintf("%s = concat %v", o.Lhs, o.Args)
	case Index:
		return fmt.Sprintf("%s = index[%d:%d] %s", o.Lhs, o.Range.Start, o.Range.End, o.Arg)
	case Splice:
		return fmt.Sprintf("%s = splice[%d:%d] %s, %s", o.Lhs, o.Range.Start, o.Range.End, o.Arg, o.Value)
	case DynamicIndex:
		return fmt.Sprintf("%s = dynindex(len %d) %s @ %s", o.Lhs, o.Len, o.Arg, o.Offset)
	case DynamicSplice:
		return fmt.Sprintf("%s = dynsplice(len %d) %s @ %s, %s", o.Lhs, o.Len, o.Arg, o.Offset, o.Value)
	case Case:
		return fmt.Sprintf("%s = case %s (%d arms)", o.Lhs, o.Disc, len(o.Arms))
	case Select:
		return fmt.Sprintf("%s = select %s ? %s : %s", o.Lhs, o.Cond, o.True, o.False)
	case Comment:
		return fmt.Sprintf("// %s", o.Text)
	default:
		return fmt.Sprintf("%#v", op)
	}
}
