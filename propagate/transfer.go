// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propagate

import (
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
)

// process is the dispatcher drain calls for every dequeued location: it
// first folds in whatever every incoming def-use edge currently offers
// (spec.md §4.5's "OUT of the predecessor becomes IN here"), then runs
// the location's own transfer rule.
func (e *Engine) process(u ir.Instruction) {
	for _, edge := range e.in[u] {
		out := e.getPtsOut(edge.Def, edge.Ptr)
		if len(out) == 0 {
			continue
		}
		e.ensurePtsIn(u, edge.Ptr).AddAll(out)
	}

	switch u.Kind() {
	case ir.Alloc:
		// Seeded once in seed(); nothing more to derive here, but the
		// object's own {⊥} still needs its DUG successors notified the
		// first time through.
		e.enqueueSuccessors(u)

	case ir.Store:
		if e.handleStore(u) {
			e.enqueueSuccessors(u)
		}

	case ir.Load:
		if e.handleLoad(u) {
			e.enqueueSuccessors(u)
		}

	case ir.Call:
		if e.handleCall(u) {
			e.enqueueSuccessors(u)
		}

	case ir.Return:
		e.handleReturn(u)

	default:
		// A synthetic join location: spec.md's "at a pure merge node,
		// OUT = IN" — the accumulation above already folded every
		// predecessor's contribution into ptsIn[u][p]; publish it.
		if p, ok := ir.IsJoinLocation(u); ok {
			if e.unionPtsOut(u, p, e.getPtsIn(u, p)) {
				e.enqueueSuccessors(u)
			}
		}
		// A function's synthetic entry location: handleCall has already
		// bound its formals' PTS_out; notify their DUG consumers.
		if _, ok := ir.IsEntryLocation(u); ok {
			e.enqueueSuccessors(u)
		}
	}
}

// aliasOfValue returns the points-to value a pointer-typed operand v
// denotes, for propagating through Store/Call (spec.md §3): a loaded
// value denotes whatever its load has accumulated in Alias so far; any
// other pointer-typed value (an alloca result, a formal parameter, a
// constant) denotes itself, since passing such a value around by copy
// doesn't dereference it. The bool reports whether v is a pointer at
// all; false means there's nothing to propagate.
func (e *Engine) aliasOfValue(v ir.Value) (ptrset.Set, bool) {
	if v == nil || !v.Type().Pointerlike() {
		return nil, false
	}
	if _, isLoad := e.loadOf[v]; isLoad {
		return e.alias[v], true
	}
	return ptrset.New(v), true
}

// handleStore implements spec.md §4.5's Store rule: every object the
// address operand may denote gets the stored value's points-to set
// folded into its PTS_out here. The target set is labels.Targets(q), the
// same Andersen-derived set the labeler used; the live flow-sensitive
// alias of q is not consulted for this decision. A singleton target
// (strong update) gets PTS_out[u][o] ← PTS_value outright, since the
// store is known to overwrite o's only possible denotation. A
// multi-target store (weak update, len(Targets(q)) > 1) cannot rule out
// o being some other aliased
// object untouched by this particular store, so it must preserve o's
// prior contents: PTS_out[u][o] ← PTS_in[u][o] ∪ PTS_value. Both cases
// still go through unionPtsOut rather than a literal replace, so a
// strong update's PTS_out only ever grows across re-processing as
// PTS_value itself grows (it is never re-shrunk once widened).
func (e *Engine) handleStore(u ir.Instruction) bool {
	instr := u
	q := instr.StorePointer()
	if q == nil {
		return false
	}
	v := instr.StoreValue()
	valuePts, ok := e.aliasOfValue(v)
	if !ok {
		return false
	}

	targets := e.labels.Targets(q)
	weak := len(targets) > 1

	changed := false
	for _, o := range targets {
		with := valuePts
		if weak {
			if in := e.getPtsIn(u, o); len(in) > 0 {
				merged := valuePts.Clone()
				merged.AddAll(in)
				with = merged
			}
		}
		if e.unionPtsOut(u, o, with) {
			changed = true
		}
	}
	return changed
}

// handleLoad implements spec.md §4.5's Load rule: PTS_out[u][o] is a
// pass-through of PTS_in[u][o] for every object the address operand may
// denote (a load never writes through its address), and the result's
// alias grows by the union of those same PTS_in[u][o] sets. The pass-
// through keeps a dereferenced object's points-to set flowing past the
// load to whatever uses it downstream; alias growth fans out through
// aliasUsers rather than the DUG, since loaded values aren't DUG nodes.
func (e *Engine) handleLoad(u ir.Instruction) bool {
	instr := u
	p := instr.LoadPointer()
	result := instr.LoadResult()
	if p == nil || result == nil || !result.Type().Pointerlike() {
		return false
	}

	changed := false
	computed := ptrset.Set{}
	for _, o := range e.labels.Targets(p) {
		in := e.getPtsIn(u, o)
		computed.AddAll(in)
		if e.unionPtsOut(u, o, in) {
			changed = true
		}
	}
	if e.growAlias(result, computed) {
		e.propagateAliasUsers(result)
	}
	return changed
}

// handleCall implements spec.md §4.5's Call rule in two parts: a
// conservative pass-through for every object reachable from a
// pointer-typed argument (the callee may write through it, and nothing
// downstream of the call should lose track of the object merely
// because it was passed somewhere), and the precise binding of each
// formal parameter's PTS_out at the callee's entry to the matching
// actual argument's resolved points-to value.
func (e *Engine) handleCall(u ir.Instruction) bool {
	instr := u
	changed := false

	for _, a := range instr.CallArgs() {
		if a == nil || !a.Type().Pointerlike() {
			continue
		}
		for _, o := range e.labels.Targets(a) {
			if e.unionPtsOut(u, o, e.getPtsIn(u, o)) {
				changed = true
			}
		}
	}

	callee := instr.CallTarget()
	if callee == nil {
		return changed // indirect call; ignored per spec.md's Non-goals
	}

	formals := callee.Params()
	actuals := instr.CallArgs()
	for i, formal := range formals {
		if formal == nil || !formal.Type().Pointerlike() || i >= len(actuals) {
			continue
		}
		actualPts, ok := e.aliasOfValue(actuals[i])
		if !ok {
			continue
		}
		entry := ir.EntryLocation(callee)
		if e.unionPtsOut(entry, formal, actualPts) {
			e.enqueue(entry)
		}
	}

	return changed
}

// handleReturn implements spec.md §4.5's Return rule: every
// pointer-typed formal parameter of the returning function carries a
// Use label at every return (label.go's labelFunc), so its PTS_in here
// is the callee's final view of that parameter object; fold it back
// into PTS_out at each recorded call site's matching actual argument.
// Call results are not modeled as first-class pointers (spec.md's Data
// Model names only alloc sites, formal parameters, and loaded values),
// so only parameter/argument aliasing is bound across the call
// boundary, not the returned value itself.
func (e *Engine) handleReturn(u ir.Instruction) {
	blk := u.Block()
	if blk == nil {
		return
	}
	fn := blk.Function()
	if fn == nil {
		return
	}

	for _, p := range fn.Params() {
		if p == nil || !p.Type().Pointerlike() {
			continue
		}
		retPts := e.getPtsIn(u, p)
		if len(retPts) == 0 {
			continue
		}
		for _, cs := range e.callSites[fn] {
			idx := indexOf(cs.formals, p)
			if idx < 0 || idx >= len(cs.actuals) {
				continue
			}
			for _, o := range e.labels.Targets(cs.actuals[idx]) {
				if e.unionPtsOut(cs.instr, o, retPts) {
					e.enqueueSuccessors(cs.instr)
				}
			}
		}
	}
}

// propagateAliasUsers re-enqueues every instruction that reads v as an
// operand (spec.md §4.6); each re-runs its full transfer function from
// whatever alias/PTS state now holds, per the location-worklist
// reformulation described in the package doc comment.
func (e *Engine) propagateAliasUsers(v ir.Value) {
	for _, instr := range e.aliasUsers[v] {
		e.enqueue(instr)
	}
}

// enqueueSuccessors enqueues every DUG consumer of loc, for any pointer.
func (e *Engine) enqueueSuccessors(loc ir.Instruction) {
	for _, edge := range e.graph.OutEdges(loc) {
		e.enqueue(edge.Use)
	}
}

// growAlias grows alias[v] by with, reporting whether it grew.
func (e *Engine) growAlias(v ir.Value, with ptrset.Set) bool {
	cur, ok := e.alias[v]
	if !ok {
		cur = ptrset.Set{}
	} else {
		cur = cur.Clone()
	}
	if !cur.AddAll(with) {
		return false
	}
	e.alias[v] = cur
	return true
}

func indexOf(vs []ir.Value, v ir.Value) int {
	for i, x := range vs {
		if x == v {
			return i
		}
	}
	return -1
}
