// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package label_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/andersen"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/fakeir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
)

// An alloc's result carries an implicit Def at its own instruction, and
// a direct Store/Load through it carries both a Def and a Use (Store)
// or just a Use (Load) of the same object.
func TestLabelInstr_AllocStoreLoad(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	p := entry.Alloc("p")
	a := entry.Alloc("a")
	entry.Store(p, a)
	entry.Load("x", p)

	m := fakeir.NewModule(fn)
	labels := label.Compute(m, andersen.Run(m, io.Discard))

	allocInstr := entry.Instrs()[0]
	storeInstr := entry.Instrs()[2]
	loadInstr := entry.Instrs()[3]

	assert.True(t, labels.HasDef(allocInstr, p))
	assert.True(t, labels.HasDef(storeInstr, p), "a direct store address is both defined and used")
	assert.True(t, labels.HasUse(storeInstr, p))
	assert.True(t, labels.HasUse(loadInstr, p))
	assert.False(t, labels.HasDef(loadInstr, p), "a load never defines its address operand")
}

// A loaded value carries no Def/Use labels of its own (it isn't a DUG
// node); LoadOf identifies it as such, and Targets resolves it through
// the Andersen oracle rather than returning it verbatim.
func TestTargetsAndLoadOf_Dichotomy(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	x := entry.Load("x", b)

	m := fakeir.NewModule(fn)
	labels := label.Compute(m, andersen.Run(m, io.Discard))

	_, isLoad := labels.LoadOf(b)
	assert.False(t, isLoad, "b is a direct alloc, not a loaded value")
	assert.Equal(t, []ir.Value{b}, labels.Targets(b))

	instr, isLoad := labels.LoadOf(x)
	require.True(t, isLoad)
	assert.Equal(t, entry.Instrs()[3], instr)

	targets := labels.Targets(x)
	require.Len(t, targets, 1)
	assert.Equal(t, a, targets[0], "x was loaded from b, and b's only store was of a")

	assert.Empty(t, labels.DefLocs(x))
	assert.Empty(t, labels.UseLocs(x), "x itself never appears as a Def/Use label target")
}

// Pointers returns every value that carries at least one label, direct
// alloc/param objects only — loaded values are excluded since they
// never receive Def/Use labels.
func TestPointers_ExcludesLoadedValues(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	x := entry.Load("x", b)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	labels := label.Compute(m, andersen.Run(m, io.Discard))

	ps := labels.Pointers()
	assert.Contains(t, ps, a)
	assert.Contains(t, ps, b)
	assert.NotContains(t, ps, x)
}

// A pointer-typed formal parameter gets an implicit Def at the
// function's synthetic entry location and an implicit Use at every
// return in the function body.
func TestLabelFunc_ImplicitParamEntryAndReturnUse(t *testing.T) {
	pi := fakeir.NewValue("pi", fakeir.PtrType)
	fn := fakeir.NewFunction("f", pi)
	entry := fn.Entry().(*fakeir.Block)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	labels := label.Compute(m, andersen.Run(m, io.Discard))

	entryLoc := ir.EntryLocation(fn)
	assert.True(t, labels.HasDef(entryLoc, pi))

	retInstr := entry.Instrs()[0]
	assert.True(t, labels.HasUse(retInstr, pi))
}
