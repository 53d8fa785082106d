package ir

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
)

// ModuleIdent is the resolution target of every cross-module
// reference: either a module published in the same transaction,
// referenced by bare name, or an external address-qualified module.
// Equality is structural.
type ModuleIdent interface {
	ModuleName() ast.Identifier
	EqualsTo(o ModuleIdent) bool
	String() string
	_moduleIdent()
}

// TransactionIdent references a module defined earlier in the same
// program.
type TransactionIdent struct {
	Name ast.Identifier
}

func (TransactionIdent) _moduleIdent() {}

func (i TransactionIdent) ModuleName() ast.Identifier {
	return i.Name
}

func (i TransactionIdent) EqualsTo(o ModuleIdent) bool {
	if y, ok := o.(TransactionIdent); ok {
		return i.Name == y.Name
	}
	return false
}

func (i TransactionIdent) String() string {
	return string(i.Name)
}

// QualifiedModuleIdent references a published module by account
// address and name.
type QualifiedModuleIdent struct {
	Address ast.Address
	Name    ast.Identifier
}

func (QualifiedModuleIdent) _moduleIdent() {}

func (i QualifiedModuleIdent) ModuleName() ast.Identifier {
	return i.Name
}

func (i QualifiedModuleIdent) EqualsTo(o ModuleIdent) bool {
	if y, ok := o.(QualifiedModuleIdent); ok {
		return i.Address == y.Address && i.Name == y.Name
	}
	return false
}

func (i QualifiedModuleIdent) String() string {
	return fmt.Sprintf("%s.%s", i.Address, i.Name)
}

// QualifiedStructIdent is a fully resolved struct reference.
type QualifiedStructIdent struct {
	Module ModuleIdent
	Name   ast.Identifier
}

func (i QualifiedStructIdent) EqualsTo(o QualifiedStructIdent) bool {
	return i.Module.EqualsTo(o.Module) && i.Name == o.Name
}

func (i QualifiedStructIdent) String() string {
	return fmt.Sprintf("%s.%s", i.Module, i.Name)
}
