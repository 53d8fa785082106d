package ir

import "mvir-compiler/internal/pkg/ast"

// StructTypeParameter declares a type formal with its required
// abilities. A phantom parameter never contributes to the struct's own
// derived abilities and must not occur in any field type.
type StructTypeParameter struct {
	Loc         ast.Location
	Name        ast.Identifier
	Constraints AbilitySet
	IsPhantom   bool
}

type Field struct {
	Loc  ast.Location
	Name ast.Identifier
	Type Type
}

// StructFields is the closed sum over a declared field list and a
// native (fieldless, runtime-implemented) layout.
type StructFields interface {
	_structFields()
}

type DeclaredFields struct {
	Fields []Field
}

func (DeclaredFields) _structFields() {}

type NativeFields struct{}

func (NativeFields) _structFields() {}

type StructDefinition struct {
	Loc         ast.Location
	Name        ast.Identifier
	Abilities   AbilitySet // declared; copy/drop still derive structurally
	TypeFormals []StructTypeParameter
	Fields      StructFields
}

func (s *StructDefinition) DeclaredFields() []Field {
	if f, ok := s.Fields.(DeclaredFields); ok {
		return f.Fields
	}
	return nil
}
