package processors

import (
	"fmt"
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"
)

// moduleScope is the resolution context of one module (or the
// script): the module itself, the transaction modules defined before
// it, and its import-alias table.
type moduleScope struct {
	self    *ir.ModuleDefinition // nil for the script
	prior   map[ast.Identifier]*ir.ModuleDefinition
	imports map[ast.Identifier]ir.ModuleIdent
}

// StructLookup adapts the scope for ability derivation. External
// address-qualified modules are not part of the program, so their
// definitions are reported unavailable.
func (sc *moduleScope) StructLookup(module, name ast.Identifier) (*ir.StructDefinition, bool) {
	var target *ir.ModuleDefinition
	if module == "" {
		target = sc.self
	} else if ident, ok := sc.imports[module]; ok {
		if local, ok := ident.(ir.TransactionIdent); ok {
			target = sc.prior[local.Name]
		}
	}
	if target == nil {
		return nil, false
	}
	return target.Struct(name)
}

// ResolveModule validates every module, struct and function reference
// in m against the import scope and the modules defined before it,
// and caches the resulting dependency lists on m. The first error
// aborts resolution of this module; other modules are unaffected.
func ResolveModule(m *ir.ModuleDefinition, prior map[ast.Identifier]*ir.ModuleDefinition) error {
	scope, err := buildScope(m, m.Imports, prior)
	if err != nil {
		return err
	}
	if err := checkDuplicateDefinitions(m); err != nil {
		return err
	}

	r := &resolver{scope: scope, deps: newDepCollector()}

	for _, c := range m.Constants {
		if err := r.resolveType(c.Type, typeFormalScope{}); err != nil {
			return err
		}
	}
	for _, s := range m.Structs {
		if err := r.resolveStruct(s); err != nil {
			return err
		}
	}
	for _, f := range m.Functions {
		if err := r.resolveFunction(f); err != nil {
			return err
		}
	}

	m.Dependencies = r.deps.finish()
	return nil
}

// ResolveScript resolves the transaction script against the full
// module list of its program.
func ResolveScript(s *ir.Script, modules map[ast.Identifier]*ir.ModuleDefinition) error {
	scope, err := buildScope(nil, s.Imports, modules)
	if err != nil {
		return err
	}
	r := &resolver{scope: scope, deps: newDepCollector()}
	if err := r.resolveFunction(s.Main); err != nil {
		return err
	}
	s.Dependencies = r.deps.finish()
	return nil
}

func buildScope(
	self *ir.ModuleDefinition,
	imports []ir.ImportDefinition,
	prior map[ast.Identifier]*ir.ModuleDefinition,
) (*moduleScope, error) {
	scope := &moduleScope{self: self, prior: prior, imports: map[ast.Identifier]ir.ModuleIdent{}}
	for _, imp := range imports {
		if local, ok := imp.Ident.(ir.TransactionIdent); ok {
			if _, defined := prior[local.Name]; !defined {
				return nil, common.NewError(common.UnboundModule, imp.Loc,
					"module `%s` is not defined earlier in this transaction", local.Name)
			}
		}
		alias := imp.LocalAlias()
		if existing, ok := scope.imports[alias]; ok && !existing.EqualsTo(imp.Ident) {
			return nil, common.NewError(common.DuplicateImport, imp.Loc,
				"alias `%s` already imports `%s`", alias, existing)
		}
		scope.imports[alias] = imp.Ident
	}
	return scope, nil
}

func checkDuplicateDefinitions(m *ir.ModuleDefinition) error {
	structs := map[ast.Identifier]struct{}{}
	for _, s := range m.Structs {
		if _, ok := structs[s.Name]; ok {
			return common.NewError(common.DuplicateDefinition, s.Loc, "struct `%s` defined twice", s.Name)
		}
		structs[s.Name] = struct{}{}
	}
	functions := map[ast.Identifier]struct{}{}
	for _, f := range m.Functions {
		if _, ok := functions[f.Name]; ok {
			return common.NewError(common.DuplicateDefinition, f.Loc, "function `%s` defined twice", f.Name)
		}
		functions[f.Name] = struct{}{}
	}
	constants := map[ast.Identifier]struct{}{}
	for _, c := range m.Constants {
		if _, ok := constants[c.Name]; ok {
			return common.NewError(common.DuplicateDefinition, c.Loc, "constant `%s` defined twice", c.Name)
		}
		constants[c.Name] = struct{}{}
	}
	return nil
}

// typeFormalScope is the set of type variables bound by the enclosing
// declaration. phantomBanned holds the phantom formals of a struct
// while its field types are walked; a phantom occurring there would
// have to contribute to the struct's derived abilities, which the
// phantom rule forbids.
type typeFormalScope struct {
	bound         map[ast.Identifier]struct{}
	phantomBanned map[ast.Identifier]struct{}
}

type resolver struct {
	scope *moduleScope
	deps  *depCollector
}

// resolveAlias maps an import alias to its module. An empty alias
// names the current module; selfRef is set in that case.
func (r *resolver) resolveAlias(alias ast.Identifier, loc ast.Location) (ident ir.ModuleIdent, selfRef bool, err error) {
	if alias == "" {
		if r.scope.self == nil {
			return nil, false, common.NewError(common.UnboundModule, loc,
				"a script has no current module; reference must name an import")
		}
		return nil, true, nil
	}
	ident, ok := r.scope.imports[alias]
	if !ok {
		return nil, false, common.NewError(common.UnboundModule, loc, "unbound module alias `%s`", alias)
	}
	return ident, false, nil
}

// targetModule returns the module definition behind an ident when it
// is part of this program; external modules yield nil.
func (r *resolver) targetModule(ident ir.ModuleIdent, selfRef bool) *ir.ModuleDefinition {
	if selfRef {
		return r.scope.self
	}
	if local, ok := ident.(ir.TransactionIdent); ok {
		return r.scope.prior[local.Name]
	}
	return nil
}

func (r *resolver) resolveStruct(s *ir.StructDefinition) error {
	formals := typeFormalScope{bound: map[ast.Identifier]struct{}{}, phantomBanned: map[ast.Identifier]struct{}{}}
	for _, tp := range s.TypeFormals {
		formals.bound[tp.Name] = struct{}{}
		if tp.IsPhantom {
			formals.phantomBanned[tp.Name] = struct{}{}
		}
	}
	for _, field := range s.DeclaredFields() {
		if err := r.resolveType(field.Type, formals); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveFunction(f *ir.Function) error {
	formals := typeFormalScope{bound: map[ast.Identifier]struct{}{}}
	for _, tp := range f.Signature.TypeFormals {
		formals.bound[tp.Name] = struct{}{}
	}
	for _, p := range f.Signature.Formals {
		if err := r.resolveType(p.Type, formals); err != nil {
			return err
		}
	}
	for _, t := range f.Signature.Returns {
		if err := r.resolveType(t, formals); err != nil {
			return err
		}
	}
	body, ok := f.Body.(ir.SourceBody)
	if !ok {
		return nil
	}
	return r.resolveBlock(body.Block, formals)
}

func (r *resolver) resolveType(t ir.Type, formals typeFormalScope) error {
	switch t := t.(type) {
	case ir.TPrimitive:
		return nil
	case ir.TVar:
		if _, ok := formals.bound[t.Name]; !ok {
			return common.NewError(common.UnboundTypeVariable, t.Loc,
				"type variable `%s` is not bound by the enclosing declaration", t.Name)
		}
		if _, banned := formals.phantomBanned[t.Name]; banned {
			return common.NewError(common.AbilityMismatch, t.Loc,
				"phantom type parameter `%s` cannot occur in a field type", t.Name)
		}
		return nil
	case ir.TReference:
		return r.resolveType(t.To, formals)
	case ir.TStruct:
		if err := r.resolveStructRef(t.Module, t.Name, t.Loc); err != nil {
			return err
		}
		for _, arg := range t.TypeArgs {
			if err := r.resolveType(arg, formals); err != nil {
				return err
			}
		}
		return nil
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled type %T", t)))
}

func (r *resolver) resolveStructRef(module, name ast.Identifier, loc ast.Location) error {
	ident, selfRef, err := r.resolveAlias(module, loc)
	if err != nil {
		return err
	}
	target := r.targetModule(ident, selfRef)
	if target != nil {
		if _, ok := target.Struct(name); !ok {
			return common.NewError(common.UnboundStruct, loc, "struct `%s` is not defined in `%s`", name, targetName(ident, selfRef))
		}
	}
	if !selfRef {
		r.deps.addStruct(ir.QualifiedStructIdent{Module: ident, Name: name})
	}
	return nil
}

func targetName(ident ir.ModuleIdent, selfRef bool) string {
	if selfRef {
		return "Self"
	}
	return ident.String()
}

func (r *resolver) resolveBlock(b *ir.Block, formals typeFormalScope) error {
	for _, st := range b.Statements {
		if err := r.resolveStatement(st, formals); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveStatement(st ir.Statement, formals typeFormalScope) error {
	switch st := st.(type) {
	case *ir.Block:
		return r.resolveBlock(st, formals)
	case *ir.IfElse:
		if err := r.resolveExp(st.Condition, formals); err != nil {
			return err
		}
		if err := r.resolveBlock(st.Then, formals); err != nil {
			return err
		}
		if st.Else != nil {
			return r.resolveBlock(st.Else, formals)
		}
		return nil
	case *ir.While:
		if err := r.resolveExp(st.Condition, formals); err != nil {
			return err
		}
		return r.resolveBlock(st.Body, formals)
	case *ir.Loop:
		return r.resolveBlock(st.Body, formals)
	case *ir.Assign:
		return r.resolveExp(st.Value, formals)
	case *ir.CallCmd:
		return r.resolveExp(st.Call, formals)
	case *ir.Return:
		for _, v := range st.Values {
			if err := r.resolveExp(v, formals); err != nil {
				return err
			}
		}
		return nil
	case *ir.Abort:
		if st.Code != nil {
			return r.resolveExp(st.Code, formals)
		}
		return nil
	case *ir.Break, *ir.Continue, *ir.NopCmd:
		return nil
	case *ir.Unpack:
		if err := r.resolveUnpack(st, formals); err != nil {
			return err
		}
		return r.resolveExp(st.Value, formals)
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled statement %T", st)))
}

func (r *resolver) resolveUnpack(st *ir.Unpack, formals typeFormalScope) error {
	if err := r.resolveStructRef(st.Module, st.Struct, st.Loc); err != nil {
		return err
	}
	for _, arg := range st.TypeArgs {
		if err := r.resolveType(arg, formals); err != nil {
			return err
		}
	}
	if def, ok := r.scope.StructLookup(st.Module, st.Struct); ok {
		if fields := def.DeclaredFields(); len(fields) != len(st.Bindings) {
			return common.NewError(common.ArityMismatch, st.Loc,
				"unpack of `%s` binds %d names but the struct has %d fields",
				st.Struct, len(st.Bindings), len(fields))
		}
	}
	return nil
}

func (r *resolver) resolveExp(e ir.Exp, formals typeFormalScope) error {
	switch e := e.(type) {
	case *ir.ECopy, *ir.EMove, *ir.EConst, *ir.EBorrowLocal:
		return nil
	case *ir.EConstant:
		if r.scope.self == nil {
			return common.NewError(common.UnboundConstant, e.Loc, "named constant `%s` in a script", e.Name)
		}
		if _, ok := r.scope.self.Constant(e.Name); !ok {
			return common.NewError(common.UnboundConstant, e.Loc, "constant `%s` is not defined in this module", e.Name)
		}
		return nil
	case *ir.EDeref:
		return r.resolveExp(e.Value, formals)
	case *ir.ENot:
		return r.resolveExp(e.Value, formals)
	case *ir.EBinary:
		if err := r.resolveExp(e.Left, formals); err != nil {
			return err
		}
		return r.resolveExp(e.Right, formals)
	case *ir.ECall:
		return r.resolveCall(e, formals)
	case *ir.EPack:
		return r.resolvePack(e, formals)
	}
	panic(common.NewCompilerError(fmt.Sprintf("unhandled expression %T", e)))
}

func (r *resolver) resolveCall(e *ir.ECall, formals typeFormalScope) error {
	ident, selfRef, err := r.resolveAlias(e.Module, e.Loc)
	if err != nil {
		return err
	}
	target := r.targetModule(ident, selfRef)
	if target != nil {
		fn, ok := target.Function(e.Function)
		if !ok {
			return common.NewError(common.UnboundFunction, e.Loc,
				"function `%s` is not defined in `%s`", e.Function, targetName(ident, selfRef))
		}
		if !selfRef && fn.Visibility != ir.VisibilityPublic {
			return common.NewError(common.UnboundFunction, e.Loc,
				"function `%s.%s` is not public", targetName(ident, selfRef), e.Function)
		}
		if len(e.Args) != len(fn.Signature.Formals) {
			return common.NewError(common.ArityMismatch, e.Loc,
				"call to `%s` passes %d arguments but the function takes %d",
				e.Function, len(e.Args), len(fn.Signature.Formals))
		}
		if len(e.TypeArgs) != len(fn.Signature.TypeFormals) {
			return common.NewError(common.ArityMismatch, e.Loc,
				"call to `%s` passes %d type arguments but the function declares %d",
				e.Function, len(e.TypeArgs), len(fn.Signature.TypeFormals))
		}
	}
	if !selfRef {
		r.deps.addFunction(ir.FunctionDependency{Module: ident, Name: e.Function})
	}
	for _, arg := range e.TypeArgs {
		if err := r.resolveType(arg, formals); err != nil {
			return err
		}
	}
	for _, arg := range e.Args {
		if err := r.resolveExp(arg, formals); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolvePack(e *ir.EPack, formals typeFormalScope) error {
	if err := r.resolveStructRef(e.Module, e.Struct, e.Loc); err != nil {
		return err
	}
	if def, ok := r.scope.StructLookup(e.Module, e.Struct); ok {
		if fields := def.DeclaredFields(); len(fields) != len(e.Fields) {
			return common.NewError(common.ArityMismatch, e.Loc,
				"pack of `%s` supplies %d fields but the struct has %d",
				e.Struct, len(e.Fields), len(fields))
		}
	}
	for _, arg := range e.TypeArgs {
		if err := r.resolveType(arg, formals); err != nil {
			return err
		}
	}
	for _, field := range e.Fields {
		if err := r.resolveExp(field.Value, formals); err != nil {
			return err
		}
	}
	return nil
}

// depCollector de-duplicates the external identifiers a module
// touches. The surfaced lists are sorted by rendering so repeated
// resolution of the same module yields identical output.
type depCollector struct {
	modules   map[string]ir.ModuleDependency
	structs   map[string]ir.StructDependency
	functions map[string]ir.FunctionDependency
}

func newDepCollector() *depCollector {
	return &depCollector{
		modules:   map[string]ir.ModuleDependency{},
		structs:   map[string]ir.StructDependency{},
		functions: map[string]ir.FunctionDependency{},
	}
}

func (d *depCollector) addModule(ident ir.ModuleIdent) {
	d.modules[ident.String()] = ir.ModuleDependency{Ident: ident}
}

func (d *depCollector) addStruct(ident ir.QualifiedStructIdent) {
	d.addModule(ident.Module)
	d.structs[ident.String()] = ir.StructDependency{Ident: ident}
}

func (d *depCollector) addFunction(dep ir.FunctionDependency) {
	d.addModule(dep.Module)
	d.functions[dep.String()] = dep
}

func (d *depCollector) finish() *ir.Dependencies {
	result := &ir.Dependencies{}
	sb := strings.Builder{}

	moduleKeys := common.Keys(d.modules)
	slices.Sort(moduleKeys)
	for _, k := range moduleKeys {
		result.Modules = append(result.Modules, d.modules[k])
		sb.WriteString("module " + k + "\n")
	}

	structKeys := common.Keys(d.structs)
	slices.Sort(structKeys)
	for _, k := range structKeys {
		result.Structs = append(result.Structs, d.structs[k])
		sb.WriteString("struct " + k + "\n")
	}

	functionKeys := common.Keys(d.functions)
	slices.Sort(functionKeys)
	for _, k := range functionKeys {
		result.Functions = append(result.Functions, d.functions[k])
		sb.WriteString("fn " + k + "\n")
	}

	digest := sha3.Sum256([]byte(sb.String()))
	result.Digest = digest[:]
	return result
}
