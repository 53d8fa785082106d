package processors

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/bytecode"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
)

// loopFrame is one entry of the loop-target stack: where `continue`
// and `break` transfer for the loop it belongs to.
type loopFrame struct {
	label      ast.Identifier // loop's source label, empty when unlabeled
	continueTo bytecode.BlockLabel
	breakTo    bytecode.BlockLabel
	breakOnly  bool // exit reachable exclusively via break (Loop, not While)
	breaks     int
}

// lowerer threads the per-function lowering state through the
// recursive descent. The label counter and the loop-target stack are
// private to one function's lowering, so functions lower in parallel
// without coordination.
type lowerer struct {
	next     bytecode.BlockLabel
	blocks   bytecode.Blocks
	current  *bytecode.Block
	loops    []loopFrame
	nopExits map[bytecode.BlockLabel]struct{}
}

// LowerFunction lowers a function's statement tree into bytecode
// blocks, returning a new Function value with a LoweredBody. Native
// and already-lowered bodies pass through unchanged; the input is
// never mutated.
func LowerFunction(fn *ir.Function) (*ir.Function, error) {
	body, ok := fn.Body.(ir.SourceBody)
	if !ok {
		return fn, nil
	}
	blocks, err := LowerBlocks(body.Block)
	if err != nil {
		return nil, err
	}
	lowered := *fn
	lowered.Body = ir.LoweredBody{Blocks: blocks}
	return &lowered, nil
}

// LowerBlocks lowers a statement tree with a fresh label allocator.
func LowerBlocks(body *ir.Block) (bytecode.Blocks, error) {
	l := &lowerer{nopExits: map[bytecode.BlockLabel]struct{}{}}
	l.startBlock(l.allocLabel())
	if err := l.lowerBlock(body); err != nil {
		return nil, err
	}
	l.finish()

	if len(l.loops) != 0 {
		panic(common.NewCompilerError("loop-target stack not empty at function exit"))
	}
	if err := l.blocks.Validate(); err != nil {
		panic(err)
	}
	return l.blocks, nil
}

func (l *lowerer) allocLabel() bytecode.BlockLabel {
	label := l.next
	l.next++
	return label
}

func (l *lowerer) startBlock(label bytecode.BlockLabel) {
	b := &bytecode.Block{Label: label}
	l.blocks = append(l.blocks, b)
	l.current = b
}

func (l *lowerer) emit(op bytecode.Op) {
	if l.terminated() {
		panic(common.NewCompilerError("emit into a terminated block"))
	}
	l.current.Ops = append(l.current.Ops, op)
}

func (l *lowerer) terminated() bool {
	_, ok := l.current.Terminator()
	return ok
}

// finish closes the trailing block. An empty unreferenced block is an
// artifact of the last statement ending in a terminator and is
// removed, unless it is the entry block; an empty break-only loop exit
// keeps the NopLabel placeholder; any other fallthrough off the end
// returns.
func (l *lowerer) finish() {
	if l.terminated() {
		return
	}
	if len(l.current.Ops) == 0 {
		_, isNopExit := l.nopExits[l.current.Label]
		if !isNopExit && len(l.blocks) > 1 && !l.referenced(l.current.Label) {
			l.blocks = l.blocks[:len(l.blocks)-1]
			l.current = nil
			return
		}
		if isNopExit {
			nop := bytecode.NopLabel(l.current.Label)
			l.emit(bytecode.Nop{Label: &nop})
		}
	}
	l.emit(bytecode.Ret{})
}

func (l *lowerer) referenced(label bytecode.BlockLabel) bool {
	for _, b := range l.blocks {
		term, ok := b.Terminator()
		if !ok {
			continue
		}
		switch t := term.(type) {
		case bytecode.Jump:
			if t.Target == label {
				return true
			}
		case bytecode.CondBranch:
			if t.True == label || t.False == label {
				return true
			}
		}
	}
	return false
}

func (l *lowerer) lowerBlock(b *ir.Block) error {
	for _, st := range b.Statements {
		if l.terminated() {
			// dead code after a terminator is dropped, not an error
			return nil
		}
		if err := l.lowerStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) lowerStatement(st ir.Statement) error {
	switch st := st.(type) {
	case *ir.Block:
		return l.lowerBlock(st)
	case *ir.IfElse:
		return l.lowerIfElse(st)
	case *ir.While:
		return l.lowerWhile(st)
	case *ir.Loop:
		return l.lowerLoop(st)
	case *ir.Assign:
		if err := l.lowerExp(st.Value); err != nil {
			return err
		}
		for i := len(st.LValues) - 1; i >= 0; i-- {
			l.emit(bytecode.StLoc{Name: st.LValues[i]})
		}
		return nil
	case *ir.CallCmd:
		return l.lowerExp(st.Call)
	case *ir.Return:
		for _, v := range st.Values {
			if err := l.lowerExp(v); err != nil {
				return err
			}
		}
		l.emit(bytecode.Ret{})
		return nil
	case *ir.Abort:
		if st.Code != nil {
			if err := l.lowerExp(st.Code); err != nil {
				return err
			}
		} else {
			l.emit(bytecode.LdConst{Value: ast.CU64{Value: 0}})
		}
		l.emit(bytecode.Abort{})
		return nil
	case *ir.Break:
		frame, err := l.findFrame(st.Label, st.Loc, common.BreakOutsideLoop)
		if err != nil {
			return err
		}
		frame.breaks++
		if frame.breakOnly {
			l.nopExits[frame.breakTo] = struct{}{}
		}
		l.emit(bytecode.Jump{Target: frame.breakTo})
		return nil
	case *ir.Continue:
		frame, err := l.findFrame(st.Label, st.Loc, common.ContinueOutsideLoop)
		if err != nil {
			return err
		}
		l.emit(bytecode.Jump{Target: frame.continueTo})
		return nil
	case *ir.Unpack:
		if err := l.lowerExp(st.Value); err != nil {
			return err
		}
		l.emit(bytecode.Unpack{Module: st.Module, Name: st.Struct})
		for i := len(st.Bindings) - 1; i >= 0; i-- {
			l.emit(bytecode.StLoc{Name: st.Bindings[i]})
		}
		return nil
	case *ir.NopCmd:
		l.emit(bytecode.Nop{})
		return nil
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled statement %T", st)))
}

func (l *lowerer) lowerIfElse(st *ir.IfElse) error {
	thenLabel := l.allocLabel()
	elseLabel := l.allocLabel()
	joinLabel := l.allocLabel()

	if err := l.lowerExp(st.Condition); err != nil {
		return err
	}
	l.emit(bytecode.CondBranch{True: thenLabel, False: elseLabel})

	l.startBlock(thenLabel)
	if err := l.lowerBlock(st.Then); err != nil {
		return err
	}
	if !l.terminated() {
		l.emit(bytecode.Jump{Target: joinLabel})
	}

	l.startBlock(elseLabel)
	if st.Else != nil {
		if err := l.lowerBlock(st.Else); err != nil {
			return err
		}
	}
	if !l.terminated() {
		l.emit(bytecode.Jump{Target: joinLabel})
	}

	l.startBlock(joinLabel)
	return nil
}

func (l *lowerer) lowerWhile(st *ir.While) error {
	headLabel := l.allocLabel()
	bodyLabel := l.allocLabel()
	exitLabel := l.allocLabel()

	l.emit(bytecode.Jump{Target: headLabel})

	l.startBlock(headLabel)
	if err := l.lowerExp(st.Condition); err != nil {
		return err
	}
	l.emit(bytecode.CondBranch{True: bodyLabel, False: exitLabel})

	l.loops = append(l.loops, loopFrame{label: st.Label, continueTo: headLabel, breakTo: exitLabel})
	l.startBlock(bodyLabel)
	if err := l.lowerBlock(st.Body); err != nil {
		return err
	}
	if !l.terminated() {
		l.emit(bytecode.Jump{Target: headLabel})
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.startBlock(exitLabel)
	return nil
}

// lowerLoop differs from lowerWhile in that the head is the body's own
// start and the only exit edge is an explicit break.
func (l *lowerer) lowerLoop(st *ir.Loop) error {
	headLabel := l.allocLabel()
	exitLabel := l.allocLabel()

	l.emit(bytecode.Jump{Target: headLabel})

	l.loops = append(l.loops, loopFrame{label: st.Label, continueTo: headLabel, breakTo: exitLabel, breakOnly: true})
	l.startBlock(headLabel)
	if err := l.lowerBlock(st.Body); err != nil {
		return err
	}
	if !l.terminated() {
		l.emit(bytecode.Jump{Target: headLabel})
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.startBlock(exitLabel)
	return nil
}

// findFrame resolves a break/continue target on the loop-target
// stack. Unlabeled commands target the innermost loop; labeled ones
// any enclosing loop carrying the name.
func (l *lowerer) findFrame(label ast.Identifier, loc ast.Location, emptyKind common.ErrorKind) (*loopFrame, error) {
	if label == "" {
		if len(l.loops) == 0 {
			return nil, common.NewError(emptyKind, loc, "no enclosing loop")
		}
		return &l.loops[len(l.loops)-1], nil
	}
	for i := len(l.loops) - 1; i >= 0; i-- {
		if l.loops[i].label == label {
			return &l.loops[i], nil
		}
	}
	return nil, common.NewError(common.LabelNotFound, loc, "no enclosing loop is labeled `%s`", label)
}

func (l *lowerer) lowerExp(e ir.Exp) error {
	switch e := e.(type) {
	case *ir.ECopy:
		l.emit(bytecode.CopyLoc{Name: e.Name})
		return nil
	case *ir.EMove:
		l.emit(bytecode.MoveLoc{Name: e.Name})
		return nil
	case *ir.EConst:
		l.emit(bytecode.LdConst{Value: e.Value})
		return nil
	case *ir.EConstant:
		l.emit(bytecode.LdNamedConst{Name: e.Name})
		return nil
	case *ir.EBorrowLocal:
		l.emit(bytecode.BorrowLoc{Name: e.Name, Mutable: e.Mutable})
		return nil
	case *ir.EDeref:
		if err := l.lowerExp(e.Value); err != nil {
			return err
		}
		l.emit(bytecode.ReadRef{})
		return nil
	case *ir.ENot:
		if err := l.lowerExp(e.Value); err != nil {
			return err
		}
		l.emit(bytecode.Not{})
		return nil
	case *ir.EBinary:
		if err := l.lowerExp(e.Left); err != nil {
			return err
		}
		if err := l.lowerExp(e.Right); err != nil {
			return err
		}
		l.emit(bytecode.BinOp{Op: e.Op})
		return nil
	case *ir.ECall:
		for _, arg := range e.Args {
			if err := l.lowerExp(arg); err != nil {
				return err
			}
		}
		l.emit(bytecode.Call{Module: e.Module, Name: e.Function})
		return nil
	case *ir.EPack:
		for _, field := range e.Fields {
			if err := l.lowerExp(field.Value); err != nil {
				return err
			}
		}
		l.emit(bytecode.Pack{Module: e.Module, Name: e.Struct})
		return nil
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled expression %T", e)))
}
