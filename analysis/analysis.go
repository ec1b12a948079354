package analysis

import (
	"github.com/themaplelab/llvm-pointer-analysis-sub000/andersen"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/domtree"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/dug"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/propagate"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/result"
)

// Analyze runs the full pipeline (spec.md §2's data flow) over m and
// returns its query surface. A non-nil error is always one of the three
// kinds in errors.go; for MissingEntry and IncompleteResult the result
// is still valid and queryable, matching spec.md §7's "Emit an empty
// result and a warning" / "queries still succeed" requirements.
func Analyze(m ir.Module, cfg Config) (res *result.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			if b, ok := p.(bailout); ok {
				err = b.err
				return
			}
			panic(p)
		}
	}()

	if cfg.EntryFunctionName != "" && m.FunctionNamed(cfg.EntryFunctionName) == nil {
		emptyLabels := label.Compute(emptyModule{}, andersen.Run(emptyModule{}, cfg.log()))
		empty := result.New(emptyLabels, propagate.Run(emptyModule{}, emptyLabels, dug.NewGraph(), cfg.log()))
		return empty, errorf(MissingEntry, cfg.EntryFunctionName,
			"no function named %q in module", cfg.EntryFunctionName)
	}

	validate(m)

	log := cfg.log()
	oracle := andersen.Run(m, log)
	labels := label.Compute(m, oracle)
	doms := domtree.NewCollaborator()
	graph := dug.Build(labels, doms)

	var pr *propagate.Result
	if cfg.MaxSteps > 0 {
		pr = propagate.RunBounded(m, labels, graph, log, cfg.MaxSteps)
	} else {
		pr = propagate.Run(m, labels, graph, log)
	}

	res = result.New(labels, pr)
	if pr.Incomplete && cfg.ReportIncomplete {
		err = errorf(IncompleteResult, cfg.EntryFunctionName,
			"propagation stopped after %d worklist steps before reaching a fixpoint", cfg.MaxSteps)
	}
	return res, err
}

// validate implements spec.md §7's MalformedIR check: it walks every
// instruction once, confirming the operand shapes the rest of the
// pipeline assumes (a Store has both operands, a Load has both, an
// Alloc yields a result) actually hold, and aborts via bailout the
// moment one doesn't. Cases spec.md's own Non-goals/Design Notes already
// resolve permissively (an unrecognized instruction kind, a return with
// no pointer-typed result) are the ir adapter's job, not this pass's
// (see SPEC_FULL.md §5's IR Adapter supplement) — they are not
// malformed, just not interesting to this analysis.
func validate(m ir.Module) {
	for _, fn := range m.Functions() {
		if fn.External() {
			continue
		}
		for _, blk := range fn.Blocks() {
			for _, instr := range blk.Instrs() {
				switch instr.Kind() {
				case ir.Store:
					if instr.StorePointer() == nil || instr.StoreValue() == nil {
						abort(fn, instr, "store instruction missing an operand")
					}
				case ir.Load:
					if instr.LoadPointer() == nil || instr.LoadResult() == nil {
						abort(fn, instr, "load instruction missing pointer operand or result")
					}
				case ir.Alloc:
					if instr.AllocResult() == nil {
						abort(fn, instr, "alloc instruction has no result value")
					}
				}
			}
		}
	}
}

func abort(fn ir.Function, instr ir.Instruction, format string, args ...any) {
	panic(bailout{errorf(MalformedIR, fn.Name()+": "+instr.String(), format, args...)})
}

// emptyModule is the zero-functions module used to build an empty,
// still-queryable Result for the MissingEntry path without special-casing
// every downstream package for a nil module.
type emptyModule struct{}

func (emptyModule) Functions() []ir.Function        { return nil }
func (emptyModule) FunctionNamed(string) ir.Function { return nil }
