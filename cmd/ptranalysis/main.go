// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ptranalysis loads the Go packages named on the command line,
// builds whole-program SSA for them, and runs the sparse flow-sensitive
// pointer analysis over the result, printing any possible
// nil-dereference findings (SPEC_FULL.md's CLI Driver module).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/analysis"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/nullcheck"
)

var logger = commonlog.GetLogger("ptranalysis")

var (
	entryFn  = flag.String("entry", "main", "name of the entry function to require")
	maxSteps = flag.Int("max-steps", 0, "bound the propagation worklist to this many steps (0 = unbounded)")
	verbose  = flag.Bool("v", false, "log the Andersen/propagation trace")
	stats    = flag.Bool("stats", false, "print result statistics after analysis")
)

func main() {
	flag.Parse()
	commonlog.Configure(1, nil)

	if flag.NArg() == 0 {
		log.Fatal("usage: ptranalysis [flags] <packages...>")
	}

	logger.Infof("loading packages: %v", flag.Args())

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, flag.Args()...)
	if err != nil {
		logger.Errorf("failed to load packages: %s", err)
		color.Red("failed to load packages: %s", err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		logger.Errorf("errors while loading packages")
		color.Red("errors while loading packages")
		os.Exit(1)
	}

	logger.Infof("building whole-program SSA for %d package(s)", len(pkgs))
	prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	allFns := ssautil.AllFunctions(prog)
	fns := make([]*ssa.Function, 0, len(allFns))
	for fn := range allFns {
		fns = append(fns, fn)
	}

	m := ir.NewModule(fns)

	acfg := analysis.DefaultConfig()
	acfg.EntryFunctionName = *entryFn
	acfg.MaxSteps = *maxSteps
	if *verbose {
		acfg.Log = os.Stderr
	}

	logger.Infof("running pointer analysis over %d function(s), entry %q", len(fns), acfg.EntryFunctionName)
	res, aerr := analysis.Analyze(m, acfg)
	if aerr != nil {
		var ae *analysis.Error
		if asError(aerr, &ae) && ae.Kind == analysis.MalformedIR {
			logger.Errorf("fatal: %s", aerr)
			color.Red("fatal: %s", aerr)
			os.Exit(1)
		}
		logger.Warningf("%s", aerr)
		color.Yellow("warning: %s", aerr)
	}

	findings := nullcheck.Check(m, res.Labels(), res)
	for _, f := range findings {
		fmt.Println(f.String())
	}
	if len(findings) == 0 {
		color.Green("no possible nil dereferences found")
	}
	logger.Infof("found %d possible nil dereference(s)", len(findings))

	if *stats {
		s := res.Stats()
		fmt.Printf("pointers=%d locations=%d alias-values=%d incomplete=%v\n",
			s.Pointers, s.Locations, s.AliasValues, res.Incomplete())
	}
}

func asError(err error, target **analysis.Error) bool {
	ae, ok := err.(*analysis.Error)
	if !ok {
		return false
	}
	*target = ae
	return true
}

