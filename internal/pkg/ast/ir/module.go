package ir

import "mvir-compiler/internal/pkg/ast"

// ImportDefinition binds a local alias to a module. When Alias is
// empty the module's own name is the alias.
type ImportDefinition struct {
	Loc   ast.Location
	Ident ModuleIdent
	Alias ast.Identifier
}

func (i ImportDefinition) LocalAlias() ast.Identifier {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Ident.ModuleName()
}

type Constant struct {
	Loc   ast.Location
	Name  ast.Identifier
	Type  Type
	Value ast.ConstValue
}

// ModuleDependency records one external module a module's code
// touches.
type ModuleDependency struct {
	Ident ModuleIdent
}

type StructDependency struct {
	Ident QualifiedStructIdent
}

type FunctionDependency struct {
	Module ModuleIdent
	Name   ast.Identifier
}

func (d FunctionDependency) String() string {
	return d.Module.String() + "." + string(d.Name)
}

// Dependencies is the resolver's per-module output: every external
// qualified identifier touched, de-duplicated and sorted, plus a
// digest over the sorted rendering for reproducibility checks.
type Dependencies struct {
	Modules   []ModuleDependency
	Structs   []StructDependency
	Functions []FunctionDependency
	Digest    []byte
}

// ModuleDefinition owns its structs, functions and constants.
// Dependencies is computed once by the resolver and cached for the
// rest of compilation.
type ModuleDefinition struct {
	Loc          ast.Location
	Ident        ModuleIdent
	Imports      []ImportDefinition
	Structs      []*StructDefinition
	Functions    []*Function
	Constants    []Constant
	Dependencies *Dependencies
}

func (m *ModuleDefinition) Struct(name ast.Identifier) (*StructDefinition, bool) {
	for _, s := range m.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

func (m *ModuleDefinition) Function(name ast.Identifier) (*Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (m *ModuleDefinition) Constant(name ast.Identifier) (Constant, bool) {
	for _, c := range m.Constants {
		if c.Name == name {
			return c, true
		}
	}
	return Constant{}, false
}

// Script is the single transaction entry point: imports plus a main
// function, resolved and lowered through the same paths as module
// functions.
type Script struct {
	Loc          ast.Location
	Imports      []ImportDefinition
	Main         *Function
	Dependencies *Dependencies
}

// Program is an ordered module sequence plus one script. Module names
// must be unique within a program.
type Program struct {
	Modules []*ModuleDefinition
	Script  *Script
}
