// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import "fmt"

// Kind is one of spec.md §7's three error kinds.
type Kind int

const (
	// MalformedIR is fatal: operand shapes violate the invariants the
	// rest of the pipeline assumes. Abort with context.
	MalformedIR Kind = iota
	// MissingEntry is recoverable: no function named by
	// Config.EntryFunctionName exists. Analyze still returns an empty,
	// queryable result.
	MissingEntry
	// IncompleteResult is advisory: Config.MaxSteps cut propagation off
	// before the worklist emptied. Queries still succeed; the caller is
	// expected to check Result.Incomplete.
	IncompleteResult
)

func (k Kind) String() string {
	switch k {
	case MalformedIR:
		return "malformed IR"
	case MissingEntry:
		return "missing entry function"
	case IncompleteResult:
		return "incomplete result"
	default:
		return "unknown error"
	}
}

// Error names the offending instruction or function alongside the kind,
// in the diagnostic style of go/types/check.go's Checker.errorf (which
// names the offending node and position rather than a bare message).
type Error struct {
	Kind    Kind
	Context string // the offending instruction's or function's String()
	Msg     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Context, e.Msg)
}

func errorf(kind Kind, context string, format string, args ...any) *Error {
	return &Error{Kind: kind, Context: context, Msg: fmt.Sprintf(format, args...)}
}

// bailout unwinds out of validate on the first MalformedIR finding,
// mirroring go/types/check.go's own bailout{} panic/recover idiom for
// aborting a pass early without disturbing callers that don't expect a
// panic to cross their stack frame.
type bailout struct{ err *Error }
