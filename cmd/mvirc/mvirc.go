package main

import (
	"flag"
	"fmt"
	"mvir-compiler/internal/pkg/common"
	"mvir-compiler/internal/pkg/processors"
	mvirc "mvir-compiler/pkg"
	"os"
	"path/filepath"

	"github.com/tebeka/atexit"
)

func main() {
	homeDir, _ := os.UserHomeDir()
	defaultCacheDir := filepath.Join(homeDir, ".mvir")

	cacheDir := flag.String("cache", defaultCacheDir, "package cache directory")
	upgrade := flag.Bool("upgrade", false, "upgrade packages")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mvir compiler version: %s\n", processors.Version)
		return
	}

	log := &common.LogWriter{}
	atexit.Register(log.Flush)

	if len(flag.Args()) == 0 {
		log.Err(common.NewSystemError(fmt.Errorf("no input packages, run as `mvirc <path-to-package>`")))
		atexit.Exit(1)
	}

	// The parser is supplied by the host toolchain; from the command
	// line this fetches packages and verifies their layout.
	packages, sources, err := mvirc.LoadSources(flag.Args(), *cacheDir, *upgrade, log)
	if err != nil {
		log.Err(err)
		atexit.Exit(1)
	}

	for _, pkg := range packages {
		log.Trace(fmt.Sprintf("package %s %s (%d sources)", pkg.Package.Name, pkg.Package.Version, len(pkg.Sources)))
	}
	log.Trace(fmt.Sprintf("%d source files ready", len(sources)))
	atexit.Exit(0)
}
