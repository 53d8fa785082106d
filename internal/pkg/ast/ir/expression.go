package ir

import "mvir-compiler/internal/pkg/ast"

// Exp is the closed sum of expressions. The set is intentionally
// small: locals, constants, calls, struct packing and the operators
// the stack machine evaluates directly.
type Exp interface {
	Location() ast.Location
	_exp()
}

type ECopy struct {
	Loc  ast.Location
	Name ast.Identifier
}

func (*ECopy) _exp() {}

func (e *ECopy) Location() ast.Location {
	return e.Loc
}

type EMove struct {
	Loc  ast.Location
	Name ast.Identifier
}

func (*EMove) _exp() {}

func (e *EMove) Location() ast.Location {
	return e.Loc
}

type EConst struct {
	Loc   ast.Location
	Value ast.ConstValue
}

func (*EConst) _exp() {}

func (e *EConst) Location() ast.Location {
	return e.Loc
}

// EConstant references a module-level named constant.
type EConstant struct {
	Loc  ast.Location
	Name ast.Identifier
}

func (*EConstant) _exp() {}

func (e *EConstant) Location() ast.Location {
	return e.Loc
}

type ECall struct {
	Loc      ast.Location
	Module   ast.Identifier // import alias, empty for the current module
	Function ast.Identifier
	TypeArgs []Type
	Args     []Exp
}

func (*ECall) _exp() {}

func (e *ECall) Location() ast.Location {
	return e.Loc
}

type FieldExp struct {
	Name  ast.Identifier
	Value Exp
}

// EPack constructs a struct value, fields listed in declaration order.
type EPack struct {
	Loc      ast.Location
	Module   ast.Identifier
	Struct   ast.Identifier
	TypeArgs []Type
	Fields   []FieldExp
}

func (*EPack) _exp() {}

func (e *EPack) Location() ast.Location {
	return e.Loc
}

type EBorrowLocal struct {
	Loc     ast.Location
	Mutable bool
	Name    ast.Identifier
}

func (*EBorrowLocal) _exp() {}

func (e *EBorrowLocal) Location() ast.Location {
	return e.Loc
}

type EDeref struct {
	Loc   ast.Location
	Value Exp
}

func (*EDeref) _exp() {}

func (e *EDeref) Location() ast.Location {
	return e.Loc
}

type ENot struct {
	Loc   ast.Location
	Value Exp
}

func (*ENot) _exp() {}

func (e *ENot) Location() ast.Location {
	return e.Loc
}

type EBinary struct {
	Loc   ast.Location
	Op    ast.BinaryOp
	Left  Exp
	Right Exp
}

func (*EBinary) _exp() {}

func (e *EBinary) Location() ast.Location {
	return e.Loc
}
