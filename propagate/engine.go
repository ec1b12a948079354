// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package propagate is the flow-sensitive propagation engine of spec.md
// §4.5: a worklist-driven fixpoint over the sparse def-use graph built by
// package dug, with strong/weak update, interprocedural call/return
// binding, and the alias-user maintenance of §4.6.
//
// The engine reformulates the edge-worklist spec.md describes as a
// location-worklist: when a location is dequeued, its full transfer
// function is recomputed from whatever its current inputs are (rather
// than threading a single incoming edge's delta through). This is the
// standard "node worklist" restatement of an edge-worklist dataflow
// (Kildall); it is sound because every recomputation reads monotonically
// growing tables, so re-deriving a location's output can only grow it or
// leave it unchanged, and it sidesteps needing separate bookkeeping for
// which of a store's several operands triggered the re-visit (see
// DESIGN.md).
package propagate

import (
	"io"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/dug"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
)

// callSite records one direct call, for Return's callee-to-caller
// parameter-aliasing propagation (spec.md §4.5, "Return").
type callSite struct {
	instr   ir.Instruction
	formals []ir.Value
	actuals []ir.Value
}

// Engine owns every mutable table of the flow-sensitive stage. Nothing
// here is shared across analysis runs (spec.md §5).
type Engine struct {
	log    io.Writer
	labels *label.Set
	graph  *dug.Graph

	// ptsIn[ℓ][p] / ptsOut[ℓ][p]: spec.md §3's two points-to tables, for
	// every pointer p that carries a Def or Use label (i.e. every
	// abstract memory object: alloc sites and formal parameters).
	ptsIn  map[ir.Instruction]map[ir.Value]ptrset.Set
	ptsOut map[ir.Instruction]map[ir.Value]ptrset.Set

	// alias[v]: Alias[*][v] for a pointer-typed value v that is itself
	// the result of a Load (spec.md §3's "loaded values" pointer
	// category). These values are never given Def/Use labels of their
	// own — being SSA, they are defined exactly once and their alias
	// only grows over time, never by location, so a single
	// location-independent entry per v is equivalent to (and simpler
	// than) a location-indexed table (see DESIGN.md).
	alias map[ir.Value]ptrset.Set

	// aliasUsers[v]: every instruction that reads v as an operand,
	// consulted when alias[v] grows (spec.md §4.6).
	aliasUsers map[ir.Value][]ir.Instruction

	// loadOf[v]: the Load instruction that produced v, for the same
	// "is this an alloca/param, or a loaded value" dichotomy the
	// labeler uses (package label keeps its own copy, exposed as
	// label.Set.LoadOf; the engine fills this one itself in seed).
	loadOf map[ir.Value]ir.Instruction

	// in[loc]: reverse index of graph's edges, by target location.
	in map[ir.Instruction][]dug.Edge

	// callSites[f]: every direct call targeting f.
	callSites map[ir.Function][]*callSite

	queue  []ir.Instruction
	queued map[ir.Instruction]bool
}

// Result exposes the engine's tables read-only once propagation stops
// (package result builds its query surface on top of this).
type Result struct {
	PTSIn, PTSOut map[ir.Instruction]map[ir.Value]ptrset.Set
	Alias         map[ir.Value]ptrset.Set
	Incomplete    bool
}

// Run builds the engine for module m (using its labels and def-use
// graph) and drives the worklist to completion.
func Run(m ir.Module, labels *label.Set, graph *dug.Graph, log io.Writer) *Result {
	e := newEngine(labels, graph, log)
	e.seed(m)
	e.drain(0)
	return e.result(false)
}

// RunBounded is Run, but stops after maxSteps dequeues even if the
// worklist is non-empty, tagging the result Incomplete (spec.md §7's
// IncompleteResult, and §5's "caller may bound total work" allowance).
// maxSteps <= 0 means unbounded.
func RunBounded(m ir.Module, labels *label.Set, graph *dug.Graph, log io.Writer, maxSteps int) *Result {
	e := newEngine(labels, graph, log)
	e.seed(m)
	done := e.drain(maxSteps)
	return e.result(!done)
}

func newEngine(labels *label.Set, graph *dug.Graph, log io.Writer) *Engine {
	e := &Engine{
		log:        log,
		labels:     labels,
		graph:      graph,
		ptsIn:      make(map[ir.Instruction]map[ir.Value]ptrset.Set),
		ptsOut:     make(map[ir.Instruction]map[ir.Value]ptrset.Set),
		alias:      make(map[ir.Value]ptrset.Set),
		aliasUsers: make(map[ir.Value][]ir.Instruction),
		loadOf:     make(map[ir.Value]ir.Instruction),
		in:         make(map[ir.Instruction][]dug.Edge),
		callSites:  make(map[ir.Function][]*callSite),
		queued:     make(map[ir.Instruction]bool),
	}
	for _, edge := range graph.AllEdges() {
		e.in[edge.Use] = append(e.in[edge.Use], edge)
	}
	return e
}

// seed implements spec.md §4.5's "Initial seeding": every allocation
// site's own object starts at {⊥} (invariant 2), and every call site in
// the module is recorded so Return can find its callers.
func (e *Engine) seed(m ir.Module) {
	for _, fn := range m.Functions() {
		for _, blk := range fn.Blocks() {
			for _, instr := range blk.Instrs() {
				switch instr.Kind() {
				case ir.Alloc:
					if a := instr.AllocResult(); a != nil && a.Type().Pointerlike() {
						e.setPtsOut(instr, a, ptrset.New(ptrset.Bottom))
						e.enqueue(instr)
					}
				case ir.Call:
					e.recordCallSite(instr)
				case ir.Load:
					if r := instr.LoadResult(); r != nil {
						e.loadOf[r] = instr
					}
				}
			}
		}
	}
	// Register alias-user consumers: any instruction whose operand is a
	// Load result needs to be revisited when that result's alias grows.
	for _, fn := range m.Functions() {
		for _, blk := range fn.Blocks() {
			for _, instr := range blk.Instrs() {
				e.registerAliasUsers(instr)
			}
		}
	}
}

func (e *Engine) registerAliasUsers(instr ir.Instruction) {
	record := func(v ir.Value) {
		if v == nil {
			return
		}
		e.aliasUsers[v] = append(e.aliasUsers[v], instr)
	}
	switch instr.Kind() {
	case ir.Store:
		record(instr.StorePointer())
		record(instr.StoreValue())
	case ir.Load:
		record(instr.LoadPointer())
	case ir.Call:
		for _, a := range instr.CallArgs() {
			record(a)
		}
	case ir.Return:
		record(instr.ReturnValue())
	}
}

func (e *Engine) recordCallSite(instr ir.Instruction) {
	callee := instr.CallTarget()
	if callee == nil {
		return // indirect call; ignored per spec.md's Non-goals
	}
	e.callSites[callee] = append(e.callSites[callee], &callSite{
		instr:   instr,
		formals: callee.Params(),
		actuals: instr.CallArgs(),
	})
}

func (e *Engine) enqueue(loc ir.Instruction) {
	if e.queued[loc] {
		return
	}
	e.queued[loc] = true
	e.queue = append(e.queue, loc)
}

// drain processes the worklist, stopping early after maxSteps dequeues
// if maxSteps > 0. Returns whether the worklist emptied.
func (e *Engine) drain(maxSteps int) bool {
	steps := 0
	for len(e.queue) > 0 {
		if maxSteps > 0 && steps >= maxSteps {
			return false
		}
		loc := e.queue[0]
		e.queue = e.queue[1:]
		e.queued[loc] = false
		e.process(loc)
		steps++
	}
	return true
}

func (e *Engine) result(incomplete bool) *Result {
	return &Result{PTSIn: e.ptsIn, PTSOut: e.ptsOut, Alias: e.alias, Incomplete: incomplete}
}

// ---- shared table accessors ----

func (e *Engine) getPtsIn(loc ir.Instruction, p ir.Value) ptrset.Set {
	if m, ok := e.ptsIn[loc]; ok {
		return m[p]
	}
	return nil
}

func (e *Engine) ensurePtsIn(loc ir.Instruction, p ir.Value) ptrset.Set {
	m, ok := e.ptsIn[loc]
	if !ok {
		m = make(map[ir.Value]ptrset.Set)
		e.ptsIn[loc] = m
	}
	s, ok := m[p]
	if !ok {
		s = ptrset.Set{}
		m[p] = s
	}
	return s
}

func (e *Engine) getPtsOut(loc ir.Instruction, p ir.Value) ptrset.Set {
	if m, ok := e.ptsOut[loc]; ok {
		return m[p]
	}
	return nil
}

func (e *Engine) setPtsOut(loc ir.Instruction, p ir.Value, s ptrset.Set) {
	m, ok := e.ptsOut[loc]
	if !ok {
		m = make(map[ir.Value]ptrset.Set)
		e.ptsOut[loc] = m
	}
	m[p] = s
}

// unionPtsOut grows ptsOut[loc][p] by with, reporting whether it grew.
func (e *Engine) unionPtsOut(loc ir.Instruction, p ir.Value, with ptrset.Set) bool {
	cur := e.getPtsOut(loc, p)
	if cur == nil {
		cur = ptrset.Set{}
	} else {
		cur = cur.Clone()
	}
	if !cur.AddAll(with) {
		return false
	}
	e.setPtsOut(loc, p, cur)
	return true
}
