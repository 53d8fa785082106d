package bytecode

import "strconv"

// BlockLabel names a bytecode block. Labels are allocated by a
// monotonic per-function counter and are meaningless across functions.
type BlockLabel uint16

func (l BlockLabel) String() string {
	return "L" + strconv.Itoa(int(l))
}

// NopLabel tags the placeholder no-op materialized into a block that
// is reachable only through `break` and would otherwise be empty.
type NopLabel BlockLabel

func (l NopLabel) String() string {
	return "nop#" + BlockLabel(l).String()
}
