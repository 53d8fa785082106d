package processors

import (
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
	"runtime"
	"strconv"
	"sync"
)

const CompilerVersion = uint32(103)

var Version = strconv.Itoa(int(CompilerVersion)/100) + "." + strconv.Itoa(int(CompilerVersion)%100)

// Compile resolves every module of the program in order, checks
// ability constraints and lowers every function body to bytecode
// blocks. A failing unit (module or function) is abandoned at its
// first error, but independent units keep going and all errors are
// aggregated on log. Reports whether the program compiled cleanly.
func Compile(log *common.LogWriter, program *ir.Program) bool {
	resolved := map[ast.Identifier]*ir.ModuleDefinition{}

	for _, m := range program.Modules {
		name := m.Ident.ModuleName()
		if _, ok := resolved[name]; ok {
			log.Err(common.NewError(common.DuplicateDefinition, m.Loc, "module `%s` defined twice", name))
			continue
		}
		if err := ResolveModule(m, resolved); err != nil {
			log.Err(err)
			continue
		}
		if err := checkModuleAbilities(m, resolved); err != nil {
			log.Err(err)
			continue
		}
		log.Err(lowerModule(m)...)
		resolved[name] = m
	}

	if program.Script != nil {
		if err := ResolveScript(program.Script, resolved); err != nil {
			log.Err(err)
		} else {
			main, err := LowerFunction(program.Script.Main)
			if err != nil {
				log.Err(err)
			} else {
				program.Script.Main = main
			}
		}
	}

	return !log.HasErrors()
}

// checkModuleAbilities verifies every struct instantiation written in
// the module's types against the instantiated struct's type-formal
// constraints.
func checkModuleAbilities(m *ir.ModuleDefinition, prior map[ast.Identifier]*ir.ModuleDefinition) error {
	scope, err := buildScope(m, m.Imports, prior)
	if err != nil {
		return err
	}
	for _, s := range m.Structs {
		ctx := AbilityContext{}
		for _, tp := range s.TypeFormals {
			ctx[tp.Name] = tp.Constraints
		}
		for _, field := range s.DeclaredFields() {
			if err := checkTypeTree(field.Type, ctx, scope.StructLookup); err != nil {
				return err
			}
		}
	}
	for _, f := range m.Functions {
		ctx := AbilityContext{}
		for _, tp := range f.Signature.TypeFormals {
			ctx[tp.Name] = tp.Constraints
		}
		for _, p := range f.Signature.Formals {
			if err := checkTypeTree(p.Type, ctx, scope.StructLookup); err != nil {
				return err
			}
		}
		for _, t := range f.Signature.Returns {
			if err := checkTypeTree(t, ctx, scope.StructLookup); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTypeTree(t ir.Type, ctx AbilityContext, lookup StructLookup) error {
	switch t := t.(type) {
	case ir.TReference:
		return checkTypeTree(t.To, ctx, lookup)
	case ir.TStruct:
		if err := CheckTypeArgs(t, ctx, lookup); err != nil {
			return err
		}
		for _, arg := range t.TypeArgs {
			if err := checkTypeTree(arg, ctx, lookup); err != nil {
				return err
			}
		}
	}
	return nil
}

// lowerModule lowers the module's function bodies on a bounded worker
// pool. Every function gets its own lowering context, so the only
// coordination is assembling results back into the function list.
func lowerModule(m *ir.ModuleDefinition) []error {
	jobs := make(chan int)
	results := make([]*ir.Function, len(m.Functions))
	errs := make([]error, len(m.Functions))

	workers := runtime.NumCPU()
	if workers > len(m.Functions) {
		workers = len(m.Functions)
	}
	if workers < 1 {
		return nil
	}

	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = LowerFunction(m.Functions[i])
			}
		}()
	}
	for i := range m.Functions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, err)
			continue
		}
		m.Functions[i] = results[i]
	}
	return failed
}
