package bytecode

import (
	"fmt"
	"mvir-compiler/internal/pkg/common"
	"strings"
)

// Block is a labeled, single-entry/single-exit instruction sequence.
// Its last instruction is its only control transfer.
type Block struct {
	Label BlockLabel
	Ops   []Op
}

func (b *Block) Terminator() (Op, bool) {
	if len(b.Ops) == 0 {
		return nil, false
	}
	last := b.Ops[len(b.Ops)-1]
	return last, last.IsTerminator()
}

func (b *Block) String() string {
	sb := strings.Builder{}
	sb.WriteString(b.Label.String())
	sb.WriteString(":\n")
	for _, op := range b.Ops {
		sb.WriteString("  ")
		sb.WriteString(op.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Blocks is a lowered function body, ordered by first emission.
type Blocks []*Block

func (bs Blocks) FindBlock(label BlockLabel) (*Block, bool) {
	return common.Find(func(b *Block) bool { return b.Label == label }, bs)
}

func (bs Blocks) String() string {
	sb := strings.Builder{}
	for _, b := range bs {
		sb.WriteString(b.String())
	}
	return sb.String()
}

// Validate enforces the structural invariants of a lowered body. A
// violation is a lowering defect, so callers panic with the returned
// error instead of reporting it as a diagnostic.
func (bs Blocks) Validate() error {
	seen := map[BlockLabel]struct{}{}
	for _, b := range bs {
		if _, ok := seen[b.Label]; ok {
			return common.NewCompilerError(fmt.Sprintf("duplicate block label %s", b.Label))
		}
		seen[b.Label] = struct{}{}

		if len(b.Ops) == 0 {
			return common.NewCompilerError(fmt.Sprintf("empty block %s", b.Label))
		}
		for i, op := range b.Ops {
			if op.IsTerminator() != (i == len(b.Ops)-1) {
				return common.NewCompilerError(fmt.Sprintf("block %s: terminator misplaced at %d", b.Label, i))
			}
		}
	}

	for _, b := range bs {
		term, _ := b.Terminator()
		for _, target := range jumpTargets(term) {
			if _, ok := seen[target]; !ok {
				return common.NewCompilerError(fmt.Sprintf("block %s: dangling target %s", b.Label, target))
			}
		}
	}
	return nil
}

func jumpTargets(op Op) []BlockLabel {
	switch t := op.(type) {
	case Jump:
		return []BlockLabel{t.Target}
	case CondBranch:
		return []BlockLabel{t.True, t.False}
	case Ret, Abort:
		return nil
	}
	return nil
}
