// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propagate_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/andersen"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/domtree"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/dug"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/fakeir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/propagate"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
)

func run(t *testing.T, m ir.Module) (*label.Set, *propagate.Result) {
	t.Helper()
	oracle := andersen.Run(m, io.Discard)
	labels := label.Compute(m, oracle)
	graph := dug.Build(labels, domtree.NewCollaborator())
	res := propagate.Run(m, labels, graph, io.Discard)
	require.False(t, res.Incomplete)
	return labels, res
}

func objs(s ptrset.Set) []ir.Value {
	var out []ir.Value
	for o := range s {
		if v, ok := o.(ir.Value); ok {
			out = append(out, v)
		}
	}
	return out
}

// Scenario 1 (spec.md §8): must-alias through straight-line code.
// a = alloc; b = alloc; store a into b; x = load b; y = load x.
func TestScenario1_MustAliasStraightLine(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	x := entry.Load("x", b)
	y := entry.Load("y", x)
	m := fakeir.NewModule(fn)

	_, res := run(t, m)

	assert.ElementsMatch(t, []ir.Value{a}, objs(res.Alias[x]), "x should alias exactly {a}")
	assert.True(t, ptrset.IsBottom(mustOne(t, res.Alias[y])), "y should alias {⊥}: a was never stored into")
}

func mustOne(t *testing.T, s ptrset.Set) ptrset.Object {
	t.Helper()
	require.Len(t, s, 1)
	for o := range s {
		return o
	}
	panic("unreachable")
}

// Scenario 2 (spec.md §8): weak update at a merge. Two branches each
// store a different alloc into p, joining at a use.
func TestScenario2_WeakUpdateAtMerge(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	p := entry.Alloc("p")
	a1 := entry.Alloc("a1")
	a2 := entry.Alloc("a2")

	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	entry.SetSuccs(left, right)
	left.SetSuccs(join)
	right.SetSuccs(join)

	left.Store(p, a1)
	right.Store(p, a2)
	join.Load("use", p)
	use := join.Instrs()[0]
	join.Return(nil)

	m := fakeir.NewModule(fn)
	_, res := run(t, m)

	got := objs(res.PTSOut[use][p])
	assert.ElementsMatch(t, []ir.Value{a1, a2}, got)
}

// Scenario 3 (spec.md §8): strong update after merge kills the merge.
func TestScenario3_StrongUpdateAfterMerge(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	p := entry.Alloc("p")
	a1 := entry.Alloc("a1")
	a2 := entry.Alloc("a2")
	a3 := entry.Alloc("a3")

	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	entry.SetSuccs(left, right)
	left.SetSuccs(join)
	right.SetSuccs(join)

	left.Store(p, a1)
	right.Store(p, a2)
	join.Store(p, a3)
	join.Load("use", p)
	use := join.Instrs()[1] // [0]=Store p a3, [1]=Load use p
	join.Return(nil)

	m := fakeir.NewModule(fn)
	_, res := run(t, m)

	got := objs(res.PTSOut[use][p])
	assert.ElementsMatch(t, []ir.Value{a3}, got, "the post-merge store should kill the merge's contribution")
}

// Scenario 5 (spec.md §8): indirect store via a single-element alias is
// a strong update.
func TestScenario5_IndirectStoreViaAlias(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	c := entry.Alloc("c")
	entry.Store(b, a)
	q := entry.Load("q", b)
	last := entry
	last.Store(q, c)

	m := fakeir.NewModule(fn)
	_, res := run(t, m)

	got := objs(res.PTSOut[last.Instrs()[len(last.Instrs())-1]][a])
	assert.ElementsMatch(t, []ir.Value{c}, got)
}

// A weak update (store through a pointer that may alias more than one
// object) must preserve each aliased object's prior contents, not kill
// them: a and b are each pre-initialized with x and y respectively, p is
// merge-aliased to {a, b} (so q = load p is a multi-target pointer), and
// a final store through q must widen both a's and b's cells to include
// c rather than replacing their existing contents.
func TestWeakUpdate_PreservesEachTargetsPriorContents(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	x := entry.Alloc("x")
	y := entry.Alloc("y")
	c := entry.Alloc("c")
	p := entry.Alloc("p")
	entry.Store(a, x)
	entry.Store(b, y)

	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()
	entry.SetSuccs(left, right)
	left.SetSuccs(join)
	right.SetSuccs(join)

	left.Store(p, a)
	right.Store(p, b)
	q := join.Load("q", p)
	join.Store(q, c)
	join.Return(nil)

	m := fakeir.NewModule(fn)
	_, res := run(t, m)

	lastStore := join.Instrs()[1] // [0]=Load q p, [1]=Store q c, [2]=Return
	assert.ElementsMatch(t, []ir.Value{x, c}, objs(res.PTSOut[lastStore][a]),
		"a's prior content x must survive the weak update through q")
	assert.ElementsMatch(t, []ir.Value{y, c}, objs(res.PTSOut[lastStore][b]),
		"b's prior content y must survive the weak update through q")
}

// Scenario 6 (spec.md §8): a = alloc; x = load a; store 0 into x leaves
// ⊥ in x's alias set, the witness a downstream checker flags.
func TestScenario6_NullDereferenceWitness(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	x := entry.Load("x", a)
	entry.Store(x, fakeir.NewValue("zero", fakeir.OtherType))

	m := fakeir.NewModule(fn)
	_, res := run(t, m)

	assert.True(t, hasBottom(res.Alias[x]))
}

func hasBottom(s ptrset.Set) bool {
	for o := range s {
		if ptrset.IsBottom(o) {
			return true
		}
	}
	return false
}

// Scenario 4 (spec.md §8): interprocedural parameter binding. call
// f(a); inside f, store a' into the formal π; after return, a's value
// at the caller should include a'.
func TestScenario4_InterproceduralParameterBinding(t *testing.T) {
	pi := fakeir.NewValue("pi", fakeir.PtrType)
	callee := fakeir.NewFunction("f", pi)
	calleeEntry := callee.Entry().(*fakeir.Block)
	aPrime := calleeEntry.Alloc("a_prime")
	calleeEntry.Store(pi, aPrime)
	calleeEntry.Return(nil)

	caller := fakeir.NewFunction("main")
	callerEntry := caller.Entry().(*fakeir.Block)
	a := callerEntry.Alloc("a")
	callerEntry.Call("call1", callee, a)
	callInstr := callerEntry.Instrs()[len(callerEntry.Instrs())-1]
	callerEntry.Return(nil)

	m := fakeir.NewModule(caller, callee)
	_, res := run(t, m)

	got := objs(res.PTSOut[callInstr][a])
	assert.Contains(t, idValues(got), "a_prime")
}

func idValues(vs []ir.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name()
	}
	return out
}
