// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the read-only IR adapter interface consumed by the
// rest of the analysis. It is the only package that may depend on a
// concrete intermediate representation; everything downstream (andersen,
// label, dug, propagate, result) is written against these interfaces so a
// future front end could supply a different IR without touching the
// analysis core.
package ir

import "go/token"

// InstrKind classifies an instruction for the purposes of the analysis.
// It is a closed tagged variant: the propagation engine dispatches on it
// with a single switch rather than virtual methods.
type InstrKind int

const (
	Other InstrKind = iota
	Alloc
	Store
	Load
	Call
	Return
)

func (k InstrKind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Store:
		return "store"
	case Load:
		return "load"
	case Call:
		return "call"
	case Return:
		return "return"
	default:
		return "other"
	}
}

// Type is the static type of a Value, reduced to the one distinction the
// analysis cares about: is it pointer-like.
type Type interface {
	// Pointerlike reports whether values of this type are tracked as
	// pointers by the analysis. Only *T pointer types are pointerlike;
	// the richer Go notions of interface/map/chan/slice indirection are
	// deliberately not modeled (this is a low-level, LLVM-shaped IR, not
	// full Go semantics — see SPEC_FULL.md).
	Pointerlike() bool
	String() string
}

// Value is an SSA value: a register, constant, parameter, or the result
// of an instruction. Pointers are compared by identity (Go interface
// equality over the underlying concrete pointer), never by structural
// equality.
type Value interface {
	Name() string
	String() string
	Type() Type
}

// Function is a single procedure in the module.
type Function interface {
	Name() string
	String() string

	// Blocks returns the function's basic blocks in program order.
	// Blocks()[0] is always the entry block.
	Blocks() []BasicBlock

	// Entry returns the function's entry block.
	Entry() BasicBlock

	// Params returns the function's formal parameters, in declaration
	// order. Only pointer-typed entries are meaningful to the analysis,
	// but all are returned so positional binding at call sites works.
	Params() []Value

	// External reports whether the function has no body (e.g. it is
	// declared but not defined in the loaded program).
	External() bool
}

// BasicBlock is a maximal straight-line sequence of instructions with a
// single entry and (conceptually) a single exit.
type BasicBlock interface {
	Index() int
	String() string
	Function() Function
	Instrs() []Instruction
	Preds() []BasicBlock
	Succs() []BasicBlock
}

// Instruction is a single program location. Every accessor below is safe
// to call regardless of Kind(); accessors not applicable to the
// instruction's kind return the interface's zero value (nil).
type Instruction interface {
	Kind() InstrKind
	Block() BasicBlock
	Pos() token.Pos
	String() string

	// Store: *StorePointer() = StoreValue()
	StorePointer() Value
	StoreValue() Value

	// Load: LoadResult() = *LoadPointer()
	LoadPointer() Value
	LoadResult() Value

	// Call. CallTarget is nil for indirect calls (the analysis ignores
	// these per its Non-goals) or for statically-unresolvable calls.
	CallTarget() Function
	CallArgs() []Value
	CallResult() Value // nil if the call has no (pointer-typed) result

	// Return. ReturnValue is nil if the function returns no pointer
	// value at this instruction (void, or a non-pointer return type).
	// The IR models at most one pointer-typed return value per
	// instruction, matching the single-return-value convention of the
	// LLVM IR this design was distilled from.
	ReturnValue() Value

	// Alloc.
	AllocResult() Value
}

// Module is a whole analyzable program: every function whose call graph
// edges are intended to participate in the analysis must be reachable
// from Functions().
type Module interface {
	Functions() []Function
	FunctionNamed(name string) Function // nil if absent
}
