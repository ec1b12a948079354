// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nullcheck_test

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
	"github.com/themaplelab/llvm-pointer-analysis-sub000/nullcheck"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/propagate"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/result"
)

func analyze(t *testing.T, m ir.Module) (*label.Set, *result.Result) {
	t.Helper()
	oracle := andersen.Run(m, io.Discard)
	labels := label.Compute(m, oracle)
	graph := dug.Build(labels, domtree.NewCollaborator())
	r := propagate.Run(m, labels, graph, io.Discard)
	require.False(t, r.Incomplete)
	return labels, result.New(labels, r)
}

// Scenario 6 (spec.md §8): a = alloc; x = load a; store 0 into x. x was
// never stored into before being dereferenced as a store address, so it
// still denotes ⊥ and the store is flagged.
func TestCheck_FlagsDereferenceOfNeverStoredLoad(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	x := entry.Load("x", a)
	entry.Store(x, fakeir.NewValue("zero", fakeir.OtherType))

	m := fakeir.NewModule(fn)
	labels, res := analyze(t, m)

	findings := nullcheck.Check(m, labels, res)

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, fn, f.Function)
	assert.Equal(t, x, f.Pointer)
	assert.Contains(t, f.String(), "possible nil dereference")
}

// A dereference of an alloc site or formal parameter used directly as
// an address is never flagged: those are valid memory locations by
// construction, never ⊥ themselves.
func TestCheck_DirectAddressNeverFlagged(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	entry.Load("x", b)

	m := fakeir.NewModule(fn)
	labels, res := analyze(t, m)

	findings := nullcheck.Check(m, labels, res)

	assert.Empty(t, findings)
}

// A loaded value whose alias set was populated by a prior store through
// its source address is not flagged: it no longer denotes ⊥.
func TestCheck_LoadedValueAliasedToRealObjectNotFlagged(t *testing.T) {
	fn := fakeir.NewFunction("f")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	x := entry.Load("x", b)
	entry.Store(x, fakeir.NewValue("zero", fakeir.OtherType))

	m := fakeir.NewModule(fn)
	labels, res := analyze(t, m)

	findings := nullcheck.Check(m, labels, res)

	assert.Empty(t, findings, "x aliases {a}, not bottom, so dereferencing it is not flagged")
}
