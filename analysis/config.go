// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis orchestrates the whole pipeline spec.md §2 lays out
// (IR → Andersen pre-pass → Labeler → Sparse def-use builder →
// Propagation engine → Result store) behind a single Analyze entry
// point, and defines the Config and error kinds spec.md §6/§7 specify.
package analysis

import "io"

// Config mirrors spec.md §6's recognized options. There are no
// environment variables and no persisted state.
type Config struct {
	// EntryFunctionName names the program's entry point. Its only
	// current effect is the MissingEntry check (spec.md §7); the
	// analysis itself is whole-program and does not restrict
	// propagation to functions reachable from it (spec.md §1 requires
	// "all call graph edges intended for analysis present" in the
	// input module, not a reachability filter here).
	EntryFunctionName string

	// IgnoreIndirectCalls exists only to surface the documented option;
	// it is never false (SPEC_FULL.md §9: indirect calls are always
	// ignored, per spec.md's Non-goals).
	IgnoreIndirectCalls bool

	// ReportIncomplete controls whether Analyze returns a non-nil
	// advisory error alongside a valid, partial result when MaxSteps
	// cuts the worklist off early (spec.md §7's IncompleteResult).
	ReportIncomplete bool

	// MaxSteps bounds the propagation worklist (spec.md §5's
	// caller-may-bound-total-work allowance). Zero means unbounded.
	MaxSteps int

	// Log receives the solve's verbose trace, in the teacher's own
	// a.log style (pointer/gen.go). Defaults to io.Discard.
	Log io.Writer
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		EntryFunctionName:   "main",
		IgnoreIndirectCalls: true,
		ReportIncomplete:    true,
	}
}

func (c Config) log() io.Writer {
	if c.Log == nil {
		return io.Discard
	}
	return c.Log
}
