package ir

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/common"
	"strings"
)

// Type is the closed sum of value types. Struct and call references
// name their module by import alias (empty for the current module);
// the resolver maps aliases to ModuleIdent once per module.
type Type interface {
	Location() ast.Location
	EqualsTo(o Type) bool
	String() string
	_type()
}

type PrimitiveKind uint8

const (
	primitiveKindNone PrimitiveKind = iota
	PrimitiveAddress
	PrimitiveBool
	PrimitiveU8
	PrimitiveU64
	PrimitiveU128
	PrimitiveBytes
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveAddress:
		return "address"
	case PrimitiveBool:
		return "bool"
	case PrimitiveU8:
		return "u8"
	case PrimitiveU64:
		return "u64"
	case PrimitiveU128:
		return "u128"
	case PrimitiveBytes:
		return "bytearray"
	}
	return "?"
}

type TPrimitive struct {
	Loc  ast.Location
	Kind PrimitiveKind
}

func (TPrimitive) _type() {}

func (t TPrimitive) Location() ast.Location {
	return t.Loc
}

func (t TPrimitive) EqualsTo(o Type) bool {
	if y, ok := o.(TPrimitive); ok {
		return t.Kind == y.Kind
	}
	return false
}

func (t TPrimitive) String() string {
	return t.Kind.String()
}

type TStruct struct {
	Loc      ast.Location
	Module   ast.Identifier // import alias, empty for the current module
	Name     ast.Identifier
	TypeArgs []Type
}

func (TStruct) _type() {}

func (t TStruct) Location() ast.Location {
	return t.Loc
}

func (t TStruct) EqualsTo(o Type) bool {
	y, ok := o.(TStruct)
	if !ok || t.Module != y.Module || t.Name != y.Name || len(t.TypeArgs) != len(y.TypeArgs) {
		return false
	}
	for i, arg := range t.TypeArgs {
		if !arg.EqualsTo(y.TypeArgs[i]) {
			return false
		}
	}
	return true
}

func (t TStruct) String() string {
	sb := strings.Builder{}
	if t.Module != "" {
		sb.WriteString(string(t.Module))
		sb.WriteString(".")
	}
	sb.WriteString(string(t.Name))
	if len(t.TypeArgs) > 0 {
		args := common.Map(Type.String, t.TypeArgs)
		sb.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	return sb.String()
}

type TReference struct {
	Loc     ast.Location
	Mutable bool
	To      Type
}

func (TReference) _type() {}

func (t TReference) Location() ast.Location {
	return t.Loc
}

func (t TReference) EqualsTo(o Type) bool {
	if y, ok := o.(TReference); ok {
		return t.Mutable == y.Mutable && t.To.EqualsTo(y.To)
	}
	return false
}

func (t TReference) String() string {
	if t.Mutable {
		return fmt.Sprintf("&mut %s", t.To)
	}
	return fmt.Sprintf("&%s", t.To)
}

// TVar is a type variable bound by the enclosing function's or
// struct's type-formal list. Free variables are a resolution error.
type TVar struct {
	Loc  ast.Location
	Name ast.Identifier
}

func (TVar) _type() {}

func (t TVar) Location() ast.Location {
	return t.Loc
}

func (t TVar) EqualsTo(o Type) bool {
	if y, ok := o.(TVar); ok {
		return t.Name == y.Name
	}
	return false
}

func (t TVar) String() string {
	return string(t.Name)
}
