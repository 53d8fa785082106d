package ir

import "mvir-compiler/internal/pkg/ast"

// Statement is the closed sum of the structured statement tree. The
// tree is strictly ownership-shaped: every node is owned by its
// parent, there is no sharing and no cycle, and lowering never mutates
// it.
type Statement interface {
	Location() ast.Location
	_statement()
}

// Block is an ordered statement sequence. Label is the optional
// source-level name; only loops are valid break/continue targets.
type Block struct {
	Loc        ast.Location
	Label      ast.Identifier // empty when unlabeled
	Statements []Statement
}

func (*Block) _statement() {}

func (s *Block) Location() ast.Location {
	return s.Loc
}

type IfElse struct {
	Loc       ast.Location
	Condition Exp
	Then      *Block
	Else      *Block // nil when there is no else arm
}

func (*IfElse) _statement() {}

func (s *IfElse) Location() ast.Location {
	return s.Loc
}

type While struct {
	Loc       ast.Location
	Label     ast.Identifier
	Condition Exp
	Body      *Block
}

func (*While) _statement() {}

func (s *While) Location() ast.Location {
	return s.Loc
}

// Loop repeats its body forever; the only exit is an explicit break.
type Loop struct {
	Loc   ast.Location
	Label ast.Identifier
	Body  *Block
}

func (*Loop) _statement() {}

func (s *Loop) Location() ast.Location {
	return s.Loc
}

// Assign evaluates Value and stores it into the listed locals.
type Assign struct {
	Loc     ast.Location
	LValues []ast.Identifier
	Value   Exp
}

func (*Assign) _statement() {}

func (s *Assign) Location() ast.Location {
	return s.Loc
}

// CallCmd is a call evaluated for effect.
type CallCmd struct {
	Loc  ast.Location
	Call *ECall
}

func (*CallCmd) _statement() {}

func (s *CallCmd) Location() ast.Location {
	return s.Loc
}

type Return struct {
	Loc    ast.Location
	Values []Exp
}

func (*Return) _statement() {}

func (s *Return) Location() ast.Location {
	return s.Loc
}

type Abort struct {
	Loc  ast.Location
	Code Exp // nil aborts with code 0
}

func (*Abort) _statement() {}

func (s *Abort) Location() ast.Location {
	return s.Loc
}

// Break jumps past the targeted loop. An empty Label targets the
// innermost enclosing loop.
type Break struct {
	Loc   ast.Location
	Label ast.Identifier
}

func (*Break) _statement() {}

func (s *Break) Location() ast.Location {
	return s.Loc
}

// Continue jumps to the targeted loop's head.
type Continue struct {
	Loc   ast.Location
	Label ast.Identifier
}

func (*Continue) _statement() {}

func (s *Continue) Location() ast.Location {
	return s.Loc
}

// Unpack destructures a struct value into the listed locals, one per
// declared field, in declaration order.
type Unpack struct {
	Loc      ast.Location
	Module   ast.Identifier // import alias, empty for the current module
	Struct   ast.Identifier
	TypeArgs []Type
	Bindings []ast.Identifier
	Value    Exp
}

func (*Unpack) _statement() {}

func (s *Unpack) Location() ast.Location {
	return s.Loc
}

type NopCmd struct {
	Loc ast.Location
}

func (*NopCmd) _statement() {}

func (s *NopCmd) Location() ast.Location {
	return s.Loc
}
