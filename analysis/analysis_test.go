// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/analysis"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/fakeir"
)

func TestDefaultConfig(t *testing.T) {
	cfg := analysis.DefaultConfig()
	assert.Equal(t, "main", cfg.EntryFunctionName)
	assert.True(t, cfg.IgnoreIndirectCalls)
	assert.True(t, cfg.ReportIncomplete)
	assert.Zero(t, cfg.MaxSteps)
}

// A module with a "main" function and straightforward IR analyzes
// cleanly: no error, and the result answers queries.
func TestAnalyze_Success(t *testing.T) {
	fn := fakeir.NewFunction("main")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	entry.Load("x", b)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	res, err := analysis.Analyze(m, analysis.DefaultConfig())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Incomplete())
}

// Missing the configured entry function returns an empty, queryable
// result plus a MissingEntry error — not a panic, and not a nil result.
func TestAnalyze_MissingEntry(t *testing.T) {
	fn := fakeir.NewFunction("helper")
	m := fakeir.NewModule(fn)

	res, err := analysis.Analyze(m, analysis.DefaultConfig())

	require.Error(t, err)
	require.NotNil(t, res)
	var ae *analysis.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analysis.MissingEntry, ae.Kind)
	assert.Empty(t, res.FunctionPointers(fn))
}

// A Store instruction missing an operand is malformed IR: Analyze
// returns a nil result and a MalformedIR error, never a panic escaping
// to the caller.
func TestAnalyze_MalformedIR(t *testing.T) {
	fn := fakeir.NewFunction("main")
	entry := fn.Entry().(*fakeir.Block)
	entry.Store(nil, nil)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	res, err := analysis.Analyze(m, analysis.DefaultConfig())

	require.Error(t, err)
	assert.Nil(t, res)
	var ae *analysis.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analysis.MalformedIR, ae.Kind)
}

// Bounding MaxSteps low enough to stop before the worklist empties
// yields a partial but valid result tagged Incomplete, alongside an
// IncompleteResult advisory error (since ReportIncomplete defaults
// true).
func TestAnalyze_IncompleteResult(t *testing.T) {
	fn := fakeir.NewFunction("main")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	entry.Load("x", b)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	cfg := analysis.DefaultConfig()
	cfg.MaxSteps = 1

	res, err := analysis.Analyze(m, cfg)

	require.NotNil(t, res)
	assert.True(t, res.Incomplete())
	require.Error(t, err)
	var ae *analysis.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analysis.IncompleteResult, ae.Kind)
}

// Suppressing ReportIncomplete still tags the result Incomplete, but
// Analyze itself returns no error.
func TestAnalyze_IncompleteResultSuppressed(t *testing.T) {
	fn := fakeir.NewFunction("main")
	entry := fn.Entry().(*fakeir.Block)
	a := entry.Alloc("a")
	b := entry.Alloc("b")
	entry.Store(b, a)
	entry.Load("x", b)
	entry.Return(nil)

	m := fakeir.NewModule(fn)
	cfg := analysis.DefaultConfig()
	cfg.MaxSteps = 1
	cfg.ReportIncomplete = false

	res, err := analysis.Analyze(m, cfg)

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Incomplete())
}
