package processors

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
)

// AbilityContext supplies the required-ability sets of the type
// variables bound by the enclosing function or struct.
type AbilityContext map[ast.Identifier]ir.AbilitySet

// StructLookup resolves a struct reference (import alias + name) to
// its definition. It reports false for external modules whose
// definitions are not part of this program.
type StructLookup func(module, name ast.Identifier) (*ir.StructDefinition, bool)

// AbilitiesOf derives the ability set of a type. It is a pure function
// of the type, the constraints of its free type variables and the
// struct definitions reachable through lookup.
//
// Primitives carry fixed built-in abilities. A struct instantiation
// has a declared ability (store, key) iff the struct declares it, and
// a structural ability (copy, drop) iff every field's instantiated
// type has it; phantom type parameters never contribute. Struct types
// whose definition is not available resolve to the empty set, leaving
// their checking to the later cross-module type checker.
func AbilitiesOf(t ir.Type, ctx AbilityContext, lookup StructLookup) (ir.AbilitySet, error) {
	switch t := t.(type) {
	case ir.TPrimitive:
		return ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop, ir.AbilityStore), nil
	case ir.TReference:
		return ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop), nil
	case ir.TVar:
		s, ok := ctx[t.Name]
		if !ok {
			return 0, common.NewError(common.UnboundTypeVariable, t.Loc,
				"type variable `%s` is not bound by the enclosing declaration", t.Name)
		}
		return s, nil
	case ir.TStruct:
		return structAbilities(t, ctx, lookup)
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled type %T", t)))
}

func structAbilities(t ir.TStruct, ctx AbilityContext, lookup StructLookup) (ir.AbilitySet, error) {
	def, ok := lookup(t.Module, t.Name)
	if !ok {
		return 0, nil
	}
	if _, native := def.Fields.(ir.NativeFields); native {
		return def.Abilities, nil
	}
	if len(t.TypeArgs) != len(def.TypeFormals) {
		return 0, common.NewError(common.ArityMismatch, t.Loc,
			"struct `%s` expects %d type arguments, got %d", t.Name, len(def.TypeFormals), len(t.TypeArgs))
	}

	subst := map[ast.Identifier]ir.Type{}
	for i, formal := range def.TypeFormals {
		subst[formal.Name] = t.TypeArgs[i]
	}

	result := def.Abilities.Intersect(ir.NewAbilitySet(ir.AbilityStore, ir.AbilityKey))
	structural := ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop)
	for _, field := range def.DeclaredFields() {
		if structural.IsEmpty() {
			break
		}
		fieldAbilities, err := AbilitiesOf(substituteType(field.Type, subst), ctx, lookup)
		if err != nil {
			return 0, err
		}
		structural = structural.Intersect(fieldAbilities)
	}
	return result.Union(structural), nil
}

// CheckTypeArgs verifies every type argument of a struct instantiation
// against its formal's required abilities. Phantom formals participate
// here even though they never contribute to the struct's own set.
func CheckTypeArgs(t ir.TStruct, ctx AbilityContext, lookup StructLookup) error {
	def, ok := lookup(t.Module, t.Name)
	if !ok {
		return nil
	}
	if len(t.TypeArgs) != len(def.TypeFormals) {
		return common.NewError(common.ArityMismatch, t.Loc,
			"struct `%s` expects %d type arguments, got %d", t.Name, len(def.TypeFormals), len(t.TypeArgs))
	}
	for i, formal := range def.TypeFormals {
		arg := t.TypeArgs[i]
		have, err := AbilitiesOf(arg, ctx, lookup)
		if err != nil {
			return err
		}
		if _, external := lookupMisses(arg, lookup); external {
			continue
		}
		if !have.Contains(formal.Constraints) {
			return common.NewError(common.AbilityMismatch, arg.Location(),
				"type `%s` has abilities %s but `%s.%s` requires %s",
				arg, have, t.Name, formal.Name, formal.Constraints)
		}
	}
	return nil
}

// lookupMisses reports whether the ability set of t is undecidable
// because some struct definition it mentions lives outside this
// program.
func lookupMisses(t ir.Type, lookup StructLookup) (ir.Type, bool) {
	switch t := t.(type) {
	case ir.TStruct:
		if _, ok := lookup(t.Module, t.Name); !ok {
			return t, true
		}
		for _, arg := range t.TypeArgs {
			if miss, ok := lookupMisses(arg, lookup); ok {
				return miss, true
			}
		}
	case ir.TReference:
		return lookupMisses(t.To, lookup)
	}
	return nil, false
}

// substituteType builds a new type with formal names replaced by their
// arguments. The input tree is never mutated.
func substituteType(t ir.Type, subst map[ast.Identifier]ir.Type) ir.Type {
	switch t := t.(type) {
	case ir.TVar:
		if replacement, ok := subst[t.Name]; ok {
			return replacement
		}
		return t
	case ir.TReference:
		return ir.TReference{Loc: t.Loc, Mutable: t.Mutable, To: substituteType(t.To, subst)}
	case ir.TStruct:
		args := make([]ir.Type, len(t.TypeArgs))
		for i, arg := range t.TypeArgs {
			args[i] = substituteType(arg, subst)
		}
		return ir.TStruct{Loc: t.Loc, Module: t.Module, Name: t.Name, TypeArgs: args}
	}
	return t
}
