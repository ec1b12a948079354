// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "go/token"

// entryLoc is the synthetic program location at a function's entry,
// used as the implicit def site for pointer-typed formal parameters
// (spec.md §4.3: "Every formal parameter π ... has an implicit def at
// the function's entry instruction"). It is not a real instruction and
// carries no operands; every accessor but Block/String is a no-op.
type entryLoc struct{ fn Function }

// EntryLocation returns fn's synthetic entry-def location. Calling it
// twice for the same fn returns values equal under ==, since fn itself
// compares by identity (spec.md §3).
func EntryLocation(fn Function) Instruction { return entryLoc{fn} }

// IsEntryLocation reports whether loc is the synthetic entry location
// for some function, returning that function if so.
func IsEntryLocation(loc Instruction) (Function, bool) {
	e, ok := loc.(entryLoc)
	if !ok {
		return nil, false
	}
	return e.fn, true
}

func (e entryLoc) Kind() InstrKind  { return Other }
func (e entryLoc) Block() BasicBlock { return e.fn.Entry() }
func (e entryLoc) Pos() token.Pos    { return token.NoPos }
func (e entryLoc) String() string    { return "entry(" + e.fn.Name() + ")" }

func (e entryLoc) StorePointer() Value  { return nil }
func (e entryLoc) StoreValue() Value    { return nil }
func (e entryLoc) LoadPointer() Value   { return nil }
func (e entryLoc) LoadResult() Value    { return nil }
func (e entryLoc) CallTarget() Function { return nil }
func (e entryLoc) CallArgs() []Value    { return nil }
func (e entryLoc) CallResult() Value    { return nil }
func (e entryLoc) ReturnValue() Value   { return nil }
func (e entryLoc) AllocResult() Value   { return nil }

// joinLoc is the synthetic program location inserted at a pointer's
// iterated dominance frontier during sparse def-use graph construction
// (spec.md §4.4 step 3: "insert synthetic join nodes at each such merge
// point"). It is specific to a (block, pointer) pair: two calls with the
// same arguments compare equal under ==, since both fields are
// themselves identity-comparable.
type joinLoc struct {
	blk  BasicBlock
	for_ Value
}

// JoinLocation returns the synthetic join location for pointer p at the
// entry of blk.
func JoinLocation(blk BasicBlock, p Value) Instruction { return joinLoc{blk, p} }

// IsJoinLocation reports whether loc is a synthetic join location,
// returning the pointer it merges if so.
func IsJoinLocation(loc Instruction) (Value, bool) {
	j, ok := loc.(joinLoc)
	if !ok {
		return nil, false
	}
	return j.for_, true
}

func (j joinLoc) Kind() InstrKind    { return Other }
func (j joinLoc) Block() BasicBlock  { return j.blk }
func (j joinLoc) Pos() token.Pos     { return token.NoPos }
func (j joinLoc) String() string     { return "join(" + j.blk.String() + ", " + j.for_.Name() + ")" }

func (j joinLoc) StorePointer() Value  { return nil }
func (j joinLoc) StoreValue() Value    { return nil }
func (j joinLoc) LoadPointer() Value   { return nil }
func (j joinLoc) LoadResult() Value    { return nil }
func (j joinLoc) CallTarget() Function { return nil }
func (j joinLoc) CallArgs() []Value    { return nil }
func (j joinLoc) CallResult() Value    { return nil }
func (j joinLoc) ReturnValue() Value   { return nil }
func (j joinLoc) AllocResult() Value   { return nil }
