package ir

import (
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/bytecode"
)

type Visibility uint8

const (
	VisibilityInternal Visibility = iota
	VisibilityPublic
)

func (v Visibility) String() string {
	if v == VisibilityPublic {
		return "public"
	}
	return "internal"
}

type FunctionTypeParameter struct {
	Loc         ast.Location
	Name        ast.Identifier
	Constraints AbilitySet
}

type Parameter struct {
	Loc  ast.Location
	Name ast.Identifier
	Type Type
}

type FunctionSignature struct {
	TypeFormals []FunctionTypeParameter
	Formals     []Parameter
	Returns     []Type
}

// FunctionBody is the closed sum over the three body forms: native
// (runtime-implemented), a structured statement tree, and the lowering
// engine's output.
type FunctionBody interface {
	_functionBody()
}

type NativeBody struct{}

func (NativeBody) _functionBody() {}

type SourceBody struct {
	Block *Block
}

func (SourceBody) _functionBody() {}

type LoweredBody struct {
	Blocks bytecode.Blocks
}

func (LoweredBody) _functionBody() {}

type Function struct {
	Loc        ast.Location
	Name       ast.Identifier
	Visibility Visibility
	Signature  FunctionSignature
	Body       FunctionBody
}
