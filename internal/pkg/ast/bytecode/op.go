package bytecode

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
)

// Op is a single stack-machine instruction. Control transfers
// (IsTerminator) may only appear as the last instruction of a block;
// binary encoding of the instruction stream is an external concern.
type Op interface {
	String() string
	IsTerminator() bool
	_op()
}

// LdConst pushes a literal constant.
type LdConst struct {
	Value ast.ConstValue
}

func (LdConst) _op()               {}
func (LdConst) IsTerminator() bool { return false }
func (op LdConst) String() string  { return fmt.Sprintf("ldconst %s", op.Value) }

// LdNamedConst pushes a module-level named constant.
type LdNamedConst struct {
	Name ast.Identifier
}

func (LdNamedConst) _op()               {}
func (LdNamedConst) IsTerminator() bool { return false }
func (op LdNamedConst) String() string  { return fmt.Sprintf("ldnamed %s", op.Name) }

type CopyLoc struct {
	Name ast.Identifier
}

func (CopyLoc) _op()               {}
func (CopyLoc) IsTerminator() bool { return false }
func (op CopyLoc) String() string  { return fmt.Sprintf("copyloc %s", op.Name) }

type MoveLoc struct {
	Name ast.Identifier
}

func (MoveLoc) _op()               {}
func (MoveLoc) IsTerminator() bool { return false }
func (op MoveLoc) String() string  { return fmt.Sprintf("moveloc %s", op.Name) }

// StLoc pops the stack top into a local.
type StLoc struct {
	Name ast.Identifier
}

func (StLoc) _op()               {}
func (StLoc) IsTerminator() bool { return false }
func (op StLoc) String() string  { return fmt.Sprintf("stloc %s", op.Name) }

type BorrowLoc struct {
	Name    ast.Identifier
	Mutable bool
}

func (BorrowLoc) _op()               {}
func (BorrowLoc) IsTerminator() bool { return false }
func (op BorrowLoc) String() string {
	if op.Mutable {
		return fmt.Sprintf("mutborrowloc %s", op.Name)
	}
	return fmt.Sprintf("immborrowloc %s", op.Name)
}

type ReadRef struct{}

func (ReadRef) _op()               {}
func (ReadRef) IsTerminator() bool { return false }
func (ReadRef) String() string     { return "readref" }

type Not struct{}

func (Not) _op()               {}
func (Not) IsTerminator() bool { return false }
func (Not) String() string     { return "not" }

type BinOp struct {
	Op ast.BinaryOp
}

func (BinOp) _op()               {}
func (BinOp) IsTerminator() bool { return false }
func (op BinOp) String() string  { return fmt.Sprintf("binop %s", op.Op) }

// Call invokes a function; arguments are consumed from the stack and
// results pushed back. Module is the resolved target module name,
// empty for a call within the current module.
type Call struct {
	Module ast.Identifier
	Name   ast.Identifier
}

func (Call) _op()               {}
func (Call) IsTerminator() bool { return false }
func (op Call) String() string {
	if op.Module == "" {
		return fmt.Sprintf("call %s", op.Name)
	}
	return fmt.Sprintf("call %s.%s", op.Module, op.Name)
}

// Pack constructs a struct value from field values on the stack, in
// declared field order.
type Pack struct {
	Module ast.Identifier
	Name   ast.Identifier
}

func (Pack) _op()               {}
func (Pack) IsTerminator() bool { return false }
func (op Pack) String() string  { return fmt.Sprintf("pack %s", structRef(op.Module, op.Name)) }

// Unpack splits a struct value into its field values, pushed in
// declared field order.
type Unpack struct {
	Module ast.Identifier
	Name   ast.Identifier
}

func (Unpack) _op()               {}
func (Unpack) IsTerminator() bool { return false }
func (op Unpack) String() string  { return fmt.Sprintf("unpack %s", structRef(op.Module, op.Name)) }

func structRef(module, name ast.Identifier) string {
	if module == "" {
		return string(name)
	}
	return fmt.Sprintf("%s.%s", module, name)
}

// Nop does nothing. Label is set on the placeholder instruction that
// keeps a break-only branch target from being an empty block.
type Nop struct {
	Label *NopLabel
}

func (Nop) _op()               {}
func (Nop) IsTerminator() bool { return false }
func (op Nop) String() string {
	if op.Label != nil {
		return fmt.Sprintf("nop %s", op.Label)
	}
	return "nop"
}

// Jump transfers control unconditionally.
type Jump struct {
	Target BlockLabel
}

func (Jump) _op()               {}
func (Jump) IsTerminator() bool { return true }
func (op Jump) String() string  { return fmt.Sprintf("jump %s", op.Target) }

// CondBranch pops a boolean and transfers to True when it is set,
// False otherwise.
type CondBranch struct {
	True  BlockLabel
	False BlockLabel
}

func (CondBranch) _op()               {}
func (CondBranch) IsTerminator() bool { return true }
func (op CondBranch) String() string  { return fmt.Sprintf("br %s %s", op.True, op.False) }

// Ret returns from the function with the stack holding the results.
type Ret struct{}

func (Ret) _op()               {}
func (Ret) IsTerminator() bool { return true }
func (Ret) String() string     { return "ret" }

// Abort terminates the transaction with the abort code on the stack.
type Abort struct{}

func (Abort) _op()               {}
func (Abort) IsTerminator() bool { return true }
func (Abort) String() string     { return "abort" }
