// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result is the analysis's external query surface (spec.md §6):
// points_to, alias, and function_pointers, built on top of whatever
// package propagate's engine accumulated. Nothing downstream of this
// package should reach back into propagate.Result directly.
package result

import (
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/propagate"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
)

// Stats is a cheap, already-computed byproduct of the solve (SPEC_FULL.md
// §5's supplement to spec.md §6), in the teacher's own verbose-log idiom
// (pointer/gen.go's a.log trace) rather than a new instrumentation layer.
type Stats struct {
	Pointers    int // number of distinct pointers carrying a label
	Locations   int // number of locations holding at least one PTS_out entry
	AliasValues int // number of Load-result values with a non-empty alias set
}

// Result is the frozen, read-only outcome of one analysis run.
type Result struct {
	labels *label.Set
	r      *propagate.Result
	stats  Stats
}

// New wraps a propagation result and its labels into the query surface.
func New(labels *label.Set, r *propagate.Result) *Result {
	res := &Result{labels: labels, r: r}
	res.stats = computeStats(labels, r)
	return res
}

// PointsTo implements spec.md §6's `points_to(location, pointer)`: the
// points-to set of p immediately after loc executes (PTS_out), for a
// DUG-tracked pointer (an alloc site or formal parameter). Returns the
// empty set, not nil, for a location/pointer pair the engine never
// touched.
func (r *Result) PointsTo(loc ir.Instruction, p ir.Value) ptrset.Set {
	if m, ok := r.r.PTSOut[loc]; ok {
		if s, ok := m[p]; ok {
			return s
		}
	}
	return ptrset.Set{}
}

// Alias implements spec.md §6's optional `alias(location, pointer)`. For
// a Load-result value, Alias is location-independent (spec.md §4.6: once
// grown, it never shrinks and carries no per-location distinction), so
// loc is accepted for interface symmetry with PointsTo but not consulted.
func (r *Result) Alias(loc ir.Instruction, v ir.Value) ptrset.Set {
	_ = loc
	if s, ok := r.r.Alias[v]; ok {
		return s
	}
	return ptrset.Set{}
}

// FunctionPointers implements spec.md §6's `function_pointers(function)`:
// every pointer relevant to fn, for a downstream checker (nullcheck) to
// enumerate without re-walking the IR itself.
func (r *Result) FunctionPointers(fn ir.Function) []ir.Value {
	var out []ir.Value
	for _, p := range r.labels.Pointers() {
		if owningFunction(r.labels, p) == fn {
			out = append(out, p)
		}
	}
	return out
}

// Incomplete reports spec.md §7's advisory IncompleteResult condition:
// the engine was stopped before its worklist emptied. Queries still
// succeed, but callers should treat the result as a sound
// under-approximation only for locations fully processed.
func (r *Result) Incomplete() bool { return r.r.Incomplete }

// Stats returns the solve's summary counters.
func (r *Result) Stats() Stats { return r.stats }

// Labels exposes the labeling this result was built from, so a
// downstream consumer (nullcheck) can reuse the same Def/Use/LoadOf
// data the engine already computed instead of re-running the Andersen
// pre-pass and labeler a second time.
func (r *Result) Labels() *label.Set { return r.labels }

func owningFunction(labels *label.Set, p ir.Value) ir.Function {
	for _, loc := range labels.DefLocs(p) {
		if blk := loc.Block(); blk != nil {
			return blk.Function()
		}
	}
	for _, loc := range labels.UseLocs(p) {
		if blk := loc.Block(); blk != nil {
			return blk.Function()
		}
	}
	return nil
}

func computeStats(labels *label.Set, r *propagate.Result) Stats {
	s := Stats{Pointers: len(labels.Pointers()), Locations: len(r.PTSOut)}
	for _, a := range r.Alias {
		if len(a) > 0 {
			s.AliasValues++
		}
	}
	return s
}
