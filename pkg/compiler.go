package mvirc

import (
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"
	"mvir-compiler/internal/pkg/processors"
	"os"
	"slices"
)

// ParseFunc turns the collected source files (path to content) into a
// program. Parsing is an external collaborator; a host embeds its own.
type ParseFunc func(sources map[string][]byte) (*ir.Program, error)

// LoadSources fetches the packages behind urls (local paths, cached
// checkouts or git urls) and reads every .mvir source they contain.
func LoadSources(
	urls []string, cacheDir string, upgrade bool, log *common.LogWriter,
) ([]*ast.LoadedPackage, map[string][]byte, error) {
	loaded := map[ast.PackageIdentifier]*ast.LoadedPackage{}
	progress := func(value float32, message string) {
		log.Trace(message)
	}
	for _, url := range urls {
		if _, err := processors.LoadPackage(url, cacheDir, "", progress, upgrade, loaded); err != nil {
			return nil, nil, err
		}
	}

	names := common.Keys(loaded)
	slices.Sort(names)

	var packages []*ast.LoadedPackage
	sources := map[string][]byte{}
	for _, name := range names {
		pkg := loaded[name]
		packages = append(packages, pkg)
		for _, path := range pkg.Sources {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, common.NewSystemError(err)
			}
			sources[path] = content
		}
	}
	return packages, sources, nil
}

// Compile resolves and lowers an already-parsed program. Diagnostics
// accumulate on log; the return value reports a clean compile.
func Compile(program *ir.Program, log *common.LogWriter) bool {
	return processors.Compile(log, program)
}

// CompilePackages is the end-to-end path: load, parse with the
// supplied parser, resolve, lower.
func CompilePackages(
	urls []string, parse ParseFunc, cacheDir string, upgrade bool, log *common.LogWriter,
) (*ir.Program, bool) {
	_, sources, err := LoadSources(urls, cacheDir, upgrade, log)
	if err != nil {
		log.Err(err)
		return nil, false
	}
	program, err := parse(sources)
	if err != nil {
		log.Err(err)
		return nil, false
	}
	return program, Compile(program, log)
}
