package processors

import (
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
	"testing"
)

func u64Type() ir.Type {
	return ir.TPrimitive{Kind: ir.PrimitiveU64}
}

func boolType() ir.Type {
	return ir.TPrimitive{Kind: ir.PrimitiveBool}
}

func declared(fields ...ir.Field) ir.StructFields {
	return ir.DeclaredFields{Fields: fields}
}

// localLookup resolves unqualified struct references against the given
// definitions; anything alias-qualified is treated as external.
func localLookup(structs ...*ir.StructDefinition) StructLookup {
	return func(module, name ast.Identifier) (*ir.StructDefinition, bool) {
		if module != "" {
			return nil, false
		}
		for _, s := range structs {
			if s.Name == name {
				return s, true
			}
		}
		return nil, false
	}
}

func abilityFixtures() StructLookup {
	token := &ir.StructDefinition{
		Name:      "Token",
		Abilities: ir.NewAbilitySet(ir.AbilityStore),
		Fields:    ir.NativeFields{},
	}
	pair := &ir.StructDefinition{
		Name: "Pair",
		Fields: declared(
			ir.Field{Name: "a", Type: u64Type()},
			ir.Field{Name: "b", Type: boolType()},
		),
	}
	vault := &ir.StructDefinition{
		Name:      "Vault",
		Abilities: ir.NewAbilitySet(ir.AbilityStore, ir.AbilityKey),
		Fields: declared(
			ir.Field{Name: "t", Type: ir.TStruct{Name: "Token"}},
		),
	}
	box := &ir.StructDefinition{
		Name:        "Box",
		Abilities:   ir.NewAbilitySet(ir.AbilityStore),
		TypeFormals: []ir.StructTypeParameter{{Name: "T"}},
		Fields: declared(
			ir.Field{Name: "x", Type: ir.TVar{Name: "T"}},
		),
	}
	return localLookup(token, pair, vault, box)
}

func TestAbilitiesOf(t *testing.T) {
	lookup := abilityFixtures()
	cases := []struct {
		name string
		typ  ir.Type
		ctx  AbilityContext
		want ir.AbilitySet
	}{
		{
			name: "primitive",
			typ:  u64Type(),
			want: ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop, ir.AbilityStore),
		},
		{
			name: "reference to a resource",
			typ:  ir.TReference{To: ir.TStruct{Name: "Token"}},
			want: ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop),
		},
		{
			name: "native struct keeps its declared set",
			typ:  ir.TStruct{Name: "Token"},
			want: ir.NewAbilitySet(ir.AbilityStore),
		},
		{
			name: "copyable fields derive copy and drop",
			typ:  ir.TStruct{Name: "Pair"},
			want: ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop),
		},
		{
			name: "resource field blocks copy and drop",
			typ:  ir.TStruct{Name: "Vault"},
			want: ir.NewAbilitySet(ir.AbilityStore, ir.AbilityKey),
		},
		{
			name: "generic instantiated with a copyable argument",
			typ:  ir.TStruct{Name: "Box", TypeArgs: []ir.Type{u64Type()}},
			want: ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop, ir.AbilityStore),
		},
		{
			name: "generic instantiated with a resource argument",
			typ:  ir.TStruct{Name: "Box", TypeArgs: []ir.Type{ir.TStruct{Name: "Token"}}},
			want: ir.NewAbilitySet(ir.AbilityStore),
		},
		{
			name: "nested generic instantiation",
			typ: ir.TStruct{Name: "Box", TypeArgs: []ir.Type{
				ir.TStruct{Name: "Box", TypeArgs: []ir.Type{u64Type()}},
			}},
			want: ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop, ir.AbilityStore),
		},
		{
			name: "type variable from the context",
			typ:  ir.TVar{Name: "T"},
			ctx:  AbilityContext{"T": ir.NewAbilitySet(ir.AbilityCopy)},
			want: ir.NewAbilitySet(ir.AbilityCopy),
		},
		{
			name: "external struct is undecidable",
			typ:  ir.TStruct{Module: "ext", Name: "Coin"},
			want: 0,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := AbilitiesOf(c.typ, c.ctx, lookup)
			if err != nil {
				t.Fatalf("AbilitiesOf(%s) failed: %v", c.typ, err)
			}
			if got != c.want {
				t.Errorf("AbilitiesOf(%s) = %s, want %s", c.typ, got, c.want)
			}
		})
	}
}

func TestAbilitiesOfErrors(t *testing.T) {
	lookup := abilityFixtures()

	t.Run("free type variable", func(t *testing.T) {
		_, err := AbilitiesOf(ir.TVar{Name: "U"}, nil, lookup)
		if common.KindOf(err) != common.UnboundTypeVariable {
			t.Fatalf("err = %v, want unbound type variable", err)
		}
	})

	t.Run("type argument count mismatch", func(t *testing.T) {
		_, err := AbilitiesOf(ir.TStruct{Name: "Box"}, nil, lookup)
		if common.KindOf(err) != common.ArityMismatch {
			t.Fatalf("err = %v, want arity mismatch", err)
		}
	})
}

func TestCheckTypeArgs(t *testing.T) {
	token := &ir.StructDefinition{
		Name:      "Token",
		Abilities: ir.NewAbilitySet(ir.AbilityStore),
		Fields:    ir.NativeFields{},
	}
	holder := &ir.StructDefinition{
		Name: "Holder",
		TypeFormals: []ir.StructTypeParameter{
			{Name: "T", Constraints: ir.NewAbilitySet(ir.AbilityCopy)},
		},
		Fields: declared(ir.Field{Name: "x", Type: ir.TVar{Name: "T"}}),
	}
	marker := &ir.StructDefinition{
		Name: "Marker",
		TypeFormals: []ir.StructTypeParameter{
			{Name: "T", Constraints: ir.NewAbilitySet(ir.AbilityDrop), IsPhantom: true},
		},
		Fields: declared(),
	}
	lookup := localLookup(token, holder, marker)

	t.Run("satisfied constraint", func(t *testing.T) {
		err := CheckTypeArgs(ir.TStruct{Name: "Holder", TypeArgs: []ir.Type{u64Type()}}, nil, lookup)
		if err != nil {
			t.Fatalf("CheckTypeArgs failed: %v", err)
		}
	})

	t.Run("violated constraint", func(t *testing.T) {
		err := CheckTypeArgs(ir.TStruct{Name: "Holder", TypeArgs: []ir.Type{ir.TStruct{Name: "Token"}}}, nil, lookup)
		if common.KindOf(err) != common.AbilityMismatch {
			t.Fatalf("err = %v, want ability mismatch", err)
		}
	})

	t.Run("phantom formals are still constrained", func(t *testing.T) {
		err := CheckTypeArgs(ir.TStruct{Name: "Marker", TypeArgs: []ir.Type{ir.TStruct{Name: "Token"}}}, nil, lookup)
		if common.KindOf(err) != common.AbilityMismatch {
			t.Fatalf("err = %v, want ability mismatch", err)
		}
	})

	t.Run("undecidable argument is skipped", func(t *testing.T) {
		err := CheckTypeArgs(ir.TStruct{Name: "Holder", TypeArgs: []ir.Type{ir.TStruct{Module: "ext", Name: "Coin"}}}, nil, lookup)
		if err != nil {
			t.Fatalf("CheckTypeArgs failed: %v", err)
		}
	})

	t.Run("wrong arity", func(t *testing.T) {
		err := CheckTypeArgs(ir.TStruct{Name: "Holder"}, nil, lookup)
		if common.KindOf(err) != common.ArityMismatch {
			t.Fatalf("err = %v, want arity mismatch", err)
		}
	})

	t.Run("constraint satisfied by a context variable", func(t *testing.T) {
		ctx := AbilityContext{"U": ir.NewAbilitySet(ir.AbilityCopy, ir.AbilityDrop)}
		err := CheckTypeArgs(ir.TStruct{Name: "Holder", TypeArgs: []ir.Type{ir.TVar{Name: "U"}}}, ctx, lookup)
		if err != nil {
			t.Fatalf("CheckTypeArgs failed: %v", err)
		}
	})
}

func TestSubstituteTypeDoesNotMutate(t *testing.T) {
	original := ir.TStruct{Name: "Box", TypeArgs: []ir.Type{ir.TVar{Name: "T"}}}
	result := substituteType(original, map[ast.Identifier]ir.Type{"T": u64Type()})

	if !original.TypeArgs[0].EqualsTo(ir.TVar{Name: "T"}) {
		t.Fatalf("input type was mutated: %s", original)
	}
	want := ir.TStruct{Name: "Box", TypeArgs: []ir.Type{u64Type()}}
	if !result.EqualsTo(want) {
		t.Fatalf("substituted type = %s, want %s", result, want)
	}
}
