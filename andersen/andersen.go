// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package andersen implements the flow- and context-insensitive
// inclusion-based pre-pass (spec.md §4.2). Its output, a map from every
// pointer-typed SSA value to its over-approximate points-to set, is used
// as an oracle by the labeler (package label) to decide where the
// precise flow-sensitive stage needs to look.
//
// Constraint generation follows the four classical Andersen constraint
// kinds (address-of, copy, load, store), the same four named in
// pointer/gen.go's addrConstraint/copyConstraint/loadConstraint/
// storeConstraint. Field sensitivity, heap-cloning by call site, and
// reflection-specific precision (pointer/reflect.go in the teacher) are
// out of scope per spec.md §1's Non-goals.
package andersen

import (
	"fmt"
	"io"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
)

// retSlot is a synthetic node representing a function's pointer-typed
// return value. It is never a real program value; it exists only so the
// constraint graph has somewhere to connect a Return instruction's
// operand to every direct call site's result.
type retSlot struct{ fn ir.Function }

func (r retSlot) Name() string   { return r.fn.Name() + "$ret" }
func (r retSlot) String() string { return "return-slot(" + r.fn.Name() + ")" }
func (r retSlot) Type() ir.Type  { return ptrType{} }

// contentsSlot is a synthetic node standing for "whatever is currently
// stored inside the abstract object obj", as distinct from obj itself
// used as a plain pointer-typed value. Since an alloc site's SSA value
// doubles as its own abstract object (spec.md §3), a single shared map
// keyed directly by ir.Value cannot distinguish "obj, used as a value,
// denotes {obj}" (the address-of constraint) from "obj's cell currently
// holds {...}" (what a store/load through obj chains through) — the two
// happen to collide exactly when obj is an alloc, since obj would then
// appear in its own "contents". Routing all load/store chaining through
// this wrapper key keeps the two roles in separate map entries.
type contentsSlot struct{ obj ir.Value }

func (c contentsSlot) Name() string   { return c.obj.Name() + "$contents" }
func (c contentsSlot) String() string { return "contents(" + c.obj.String() + ")" }
func (c contentsSlot) Type() ir.Type  { return ptrType{} }

type ptrType struct{}

func (ptrType) Pointerlike() bool { return true }
func (ptrType) String() string    { return "ptr" }

// Oracle is the read-only result of the pre-pass: for every pointer-
// typed value p, the over-approximate set of objects a dereference of p
// may touch.
type Oracle struct {
	pts map[ir.Value]ptrset.Set
}

// PointsTo returns the pre-pass's estimate of what a load or store
// through p may reach: the union, over every object p may itself denote
// (p's own alloc/parameter identity, plus anything it was copy-bound to
// — e.g. a formal parameter bound to an actual argument by genCall), of
// that object's contents. A nil/empty result means the pre-pass never
// observed anything stored anywhere p could reach.
func (o *Oracle) PointsTo(p ir.Value) ptrset.Set {
	if p == nil {
		return ptrset.Set{}
	}
	result := ptrset.Set{}
	for obj := range o.pts[p] {
		if v, ok := obj.(ir.Value); ok {
			result.AddAll(o.pts[contentsSlot{v}])
		}
	}
	return result
}

// solver builds and solves the Andersen constraint graph. Every key in
// pts is either a plain ir.Value (a register's own denotation: what it
// may point to) or a contentsSlot (an object's contents: what has been
// stored into it). Keeping these in separate map entries, rather than
// conflating a register with the object it allocates, is what prevents
// an alloc's self-denotation from leaking into its own contents (see
// contentsSlot's doc comment).
type solver struct {
	log io.Writer

	pts map[ir.Value]ptrset.Set

	// copyEdges[src][dst] records a live "dst ⊇ src" propagation edge,
	// over both plain registers and contentsSlot keys alike.
	copyEdges map[ir.Value]map[ir.Value]bool

	// loadBySrc[src] = dsts wanting dst ⊇ contents(o) for every o
	// currently or later found in pts[src].
	loadBySrc map[ir.Value][]ir.Value
	// storeByDst[dst] = srcs wanting contents(o) ⊇ pts[src] for every o
	// currently or later found in pts[dst].
	storeByDst map[ir.Value][]ir.Value

	worklist   []ir.Value
	onWorklist map[ir.Value]bool
}

// Run executes the Andersen pre-pass over every function in m and returns
// the resulting oracle.
func Run(m ir.Module, log io.Writer) *Oracle {
	s := &solver{
		log:        log,
		pts:        make(map[ir.Value]ptrset.Set),
		copyEdges:  make(map[ir.Value]map[ir.Value]bool),
		loadBySrc:  make(map[ir.Value][]ir.Value),
		storeByDst: make(map[ir.Value][]ir.Value),
		onWorklist: make(map[ir.Value]bool),
	}
	for _, fn := range m.Functions() {
		s.genFunc(fn)
	}
	s.solve()
	return &Oracle{pts: s.pts}
}

func (s *solver) logf(format string, args ...interface{}) {
	if s.log != nil {
		fmt.Fprintf(s.log, "andersen: "+format+"\n", args...)
	}
}

// ---- constraint generation ----

func (s *solver) genFunc(fn ir.Function) {
	for _, b := range fn.Blocks() {
		for _, instr := range b.Instrs() {
			s.genInstr(fn, instr)
		}
	}
}

func (s *solver) genInstr(fn ir.Function, instr ir.Instruction) {
	switch instr.Kind() {
	case ir.Alloc:
		v := instr.AllocResult()
		if v != nil && v.Type().Pointerlike() {
			// The alloc's own SSA value is its abstract object
			// (spec.md §3: "identified with the abstract memory
			// object it allocates"): v, used as a value, denotes {v}.
			s.addAddr(v, v)
		}

	case ir.Load:
		dst, src := instr.LoadResult(), instr.LoadPointer()
		if dst != nil && dst.Type().Pointerlike() {
			s.addLoad(dst, src)
		}

	case ir.Store:
		dst, src := instr.StorePointer(), instr.StoreValue()
		if src != nil && src.Type().Pointerlike() {
			s.addStore(dst, src)
		}

	case ir.Call:
		s.genCall(fn, instr)

	case ir.Return:
		if v := instr.ReturnValue(); v != nil && v.Type().Pointerlike() {
			s.addCopy(retSlot{fn}, v)
		}
	}
}

func (s *solver) genCall(caller ir.Function, instr ir.Instruction) {
	callee := instr.CallTarget()
	if callee == nil {
		// Indirect call: ignored per spec.md's Non-goals.
		s.logf("ignoring indirect call at %s", instr)
		return
	}

	formals := callee.Params()
	actuals := instr.CallArgs()
	for i, actual := range actuals {
		if i >= len(formals) {
			break // variadic tail, or a call shape the adapter didn't model
		}
		formal := formals[i]
		if formal != nil && formal.Type().Pointerlike() && actual != nil && actual.Type().Pointerlike() {
			s.addCopy(formal, actual)
		}
	}

	if result := instr.CallResult(); result != nil {
		// Supplement over spec.md's literal call rule (see
		// SPEC_FULL.md §5): bind the callee's return slot to the
		// call's result value so direct-call result pointers aren't
		// left with an empty oracle set.
		s.addCopy(result, retSlot{callee})
	}
}

// ---- constraint application ----

func (s *solver) ensure(v ir.Value) ptrset.Set {
	set, ok := s.pts[v]
	if !ok {
		set = ptrset.Set{}
		s.pts[v] = set
	}
	return set
}

func (s *solver) enqueue(v ir.Value) {
	if s.onWorklist[v] {
		return
	}
	s.onWorklist[v] = true
	s.worklist = append(s.worklist, v)
}

func (s *solver) addAddr(dst ir.Value, obj ptrset.Object) {
	s.logf("addr  %s = &%v", dst.Name(), obj)
	if s.ensure(dst).Add(obj) {
		s.enqueue(dst)
	}
}

func (s *solver) addCopy(dst, src ir.Value) {
	if dst == nil || src == nil || dst == src {
		return
	}
	s.logf("copy  %s = %s", dst.Name(), src.Name())
	s.addCopyEdge(src, dst)
}

// addLoad implements "dst = *src": dst ends up denoting whatever has
// been stored into each object src may currently or later point to.
func (s *solver) addLoad(dst, src ir.Value) {
	if src == nil {
		return
	}
	s.logf("load  %s = *%s", dst.Name(), src.Name())
	s.loadBySrc[src] = append(s.loadBySrc[src], dst)
	for o := range s.ensure(src) {
		if v, ok := o.(ir.Value); ok {
			s.addCopyEdge(contentsSlot{v}, dst)
		}
	}
	s.enqueue(src)
}

// addStore implements "*dst = src": every object dst may currently or
// later point to gets src's denotation unioned into its contents.
func (s *solver) addStore(dst, src ir.Value) {
	name := "?"
	if dst != nil {
		name = dst.Name()
	}
	s.logf("store *%s = %s", name, src.Name())
	if dst == nil {
		return // store through a pointer the analysis can't name
	}
	s.storeByDst[dst] = append(s.storeByDst[dst], src)
	for o := range s.ensure(dst) {
		if v, ok := o.(ir.Value); ok {
			s.addCopyEdge(src, contentsSlot{v})
		}
	}
	s.enqueue(dst)
}

// addCopyEdge installs (or reuses) a "dst ⊇ src" edge and immediately
// propagates src's current points-to set across it. src/dst may be
// plain registers or contentsSlot wrappers; the worklist treats both
// uniformly.
func (s *solver) addCopyEdge(src, dst ir.Value) {
	if src == nil || dst == nil || src == dst {
		return
	}
	succs := s.copyEdges[src]
	if succs == nil {
		succs = make(map[ir.Value]bool)
		s.copyEdges[src] = succs
	}
	if succs[dst] {
		return
	}
	succs[dst] = true
	if s.ensure(dst).AddAll(s.ensure(src)) {
		s.enqueue(dst)
	}
}

// solve runs the fixed-point worklist to closure. Termination: every
// update strictly grows some pts[v] within a finite universe of objects
// (SSA values reachable from the module, plus ⊥, which this pre-pass
// never introduces), so the worklist empties in finite time.
func (s *solver) solve() {
	for len(s.worklist) > 0 {
		v := s.worklist[0]
		s.worklist = s.worklist[1:]
		s.onWorklist[v] = false

		set := s.ensure(v)

		// Plain copy successors (covers both register-to-register
		// copies and contentsSlot-to-register load results).
		for dst := range s.copyEdges[v] {
			if s.ensure(dst).AddAll(set) {
				s.enqueue(dst)
			}
		}

		// v = *src constraints: every object o now in pts[v] needs a
		// copy edge from contents(o) into each waiting dst.
		for _, dst := range s.loadBySrc[v] {
			for o := range set {
				if ov, ok := o.(ir.Value); ok {
					s.addCopyEdge(contentsSlot{ov}, dst)
				}
			}
		}

		// *v = src constraints: every object o now in pts[v] needs a
		// copy edge from src into contents(o).
		for _, src := range s.storeByDst[v] {
			for o := range set {
				if ov, ok := o.(ir.Value); ok {
					s.addCopyEdge(src, contentsSlot{ov})
				}
			}
		}
	}
}
