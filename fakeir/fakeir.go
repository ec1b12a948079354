// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakeir builds minimal, hand-constructed ir.Module fragments
// for tests, exactly in the spirit of spec.md §8's scenarios ("each a
// minimal IR fragment and expected final PTS_out"). It exists purely as
// test scaffolding: no analysis package imports it outside _test.go
// files.
package fakeir

import (
	"fmt"
	"go/token"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
)

// Type is a minimal ir.Type: either pointer-like or not.
type Type struct{ ptr bool }

func (t Type) Pointerlike() bool { return t.ptr }
func (t Type) String() string {
	if t.ptr {
		return "*T"
	}
	return "T"
}

var PtrType ir.Type = Type{ptr: true}
var OtherType ir.Type = Type{ptr: false}

// Value is a minimal ir.Value: a named SSA register or constant.
type Value struct {
	name string
	typ  ir.Type
}

func NewValue(name string, typ ir.Type) ir.Value { return &Value{name: name, typ: typ} }

func (v *Value) Name() string   { return v.name }
func (v *Value) String() string { return v.name }
func (v *Value) Type() ir.Type  { return v.typ }

// Instr is a minimal ir.Instruction: a tagged struct covering every
// field the interface exposes, unused ones left nil.
type Instr struct {
	kind   ir.InstrKind
	blk    *Block
	label  string
	storeP ir.Value
	storeV ir.Value
	loadP  ir.Value
	loadR  ir.Value
	target ir.Function
	args   []ir.Value
	result ir.Value
	retV   ir.Value
	allocR ir.Value
}

func (i *Instr) Kind() ir.InstrKind    { return i.kind }
func (i *Instr) Block() ir.BasicBlock  { return i.blk }
func (i *Instr) Pos() token.Pos       { return token.NoPos }
func (i *Instr) String() string       { return fmt.Sprintf("%s %s", i.kind, i.label) }
func (i *Instr) StorePointer() ir.Value  { return i.storeP }
func (i *Instr) StoreValue() ir.Value    { return i.storeV }
func (i *Instr) LoadPointer() ir.Value   { return i.loadP }
func (i *Instr) LoadResult() ir.Value    { return i.loadR }
func (i *Instr) CallTarget() ir.Function { return i.target }
func (i *Instr) CallArgs() []ir.Value    { return i.args }
func (i *Instr) CallResult() ir.Value    { return i.result }
func (i *Instr) ReturnValue() ir.Value   { return i.retV }
func (i *Instr) AllocResult() ir.Value   { return i.allocR }

// Block is a minimal ir.BasicBlock, built incrementally.
type Block struct {
	idx    int
	fn     *Function
	instrs []ir.Instruction
	preds  []*Block
	succs  []*Block
}

func (b *Block) Index() int         { return b.idx }
func (b *Block) String() string     { return fmt.Sprintf("%s.bb%d", b.fn.name, b.idx) }
func (b *Block) Function() ir.Function { return b.fn }
func (b *Block) Instrs() []ir.Instruction { return b.instrs }

func (b *Block) Preds() []ir.BasicBlock { return wrapBlocks(b.preds) }
func (b *Block) Succs() []ir.BasicBlock { return wrapBlocks(b.succs) }

func wrapBlocks(bs []*Block) []ir.BasicBlock {
	out := make([]ir.BasicBlock, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

// SetSuccs wires b -> succs and succs' preds -> b, the way a builder
// finalizes a block's control flow once both branches exist.
func (b *Block) SetSuccs(succs ...*Block) {
	b.succs = succs
	for _, s := range succs {
		s.preds = append(s.preds, b)
	}
}

// Alloc appends an alloc instruction and returns its result value.
func (b *Block) Alloc(name string) ir.Value {
	v := NewValue(name, PtrType)
	b.instrs = append(b.instrs, &Instr{kind: ir.Alloc, blk: b, label: name, allocR: v})
	return v
}

// Store appends a store of val through addr. addr/val may be nil, to
// build a deliberately malformed instruction for error-path tests.
func (b *Block) Store(addr, val ir.Value) {
	b.instrs = append(b.instrs, &Instr{kind: ir.Store, blk: b, label: valueName(addr), storeP: addr, storeV: val})
}

// valueName is name(v), tolerating a nil v for malformed-IR test fixtures.
func valueName(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}

// Load appends a load through addr, returning the new pointer-typed
// result value.
func (b *Block) Load(name string, addr ir.Value) ir.Value {
	v := NewValue(name, PtrType)
	b.instrs = append(b.instrs, &Instr{kind: ir.Load, blk: b, label: name, loadP: addr, loadR: v})
	return v
}

// Call appends a direct call to target with args, returning a result
// value (callers that don't need the result may ignore it).
func (b *Block) Call(name string, target *Function, args ...ir.Value) ir.Value {
	v := NewValue(name, OtherType)
	b.instrs = append(b.instrs, &Instr{kind: ir.Call, blk: b, label: name, target: target, args: args, result: v})
	return v
}

// Return appends a return of v (v may be nil for a void return).
func (b *Block) Return(v ir.Value) {
	b.instrs = append(b.instrs, &Instr{kind: ir.Return, blk: b, label: "ret", retV: v})
}

// Function is a minimal ir.Function.
type Function struct {
	name     string
	blocks   []*Block
	params   []ir.Value
	external bool
}

// NewFunction starts a new function with one entry block already
// created, ready for instructions.
func NewFunction(name string, params ...ir.Value) *Function {
	f := &Function{name: name, params: params}
	f.NewBlock()
	return f
}

// NewBlock appends a fresh, unlinked block.
func (f *Function) NewBlock() *Block {
	b := &Block{idx: len(f.blocks), fn: f}
	f.blocks = append(f.blocks, b)
	return b
}

func (f *Function) Name() string   { return f.name }
func (f *Function) String() string { return f.name }

func (f *Function) Blocks() []ir.BasicBlock { return wrapBlocks(f.blocks) }
func (f *Function) Entry() ir.BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}
func (f *Function) Params() []ir.Value { return f.params }
func (f *Function) External() bool     { return f.external }

// Module is a minimal ir.Module.
type Module struct {
	fns []*Function
}

// NewModule builds a module from the given functions.
func NewModule(fns ...*Function) *Module { return &Module{fns: fns} }

func (m *Module) Functions() []ir.Function {
	out := make([]ir.Function, len(m.fns))
	for i, fn := range m.fns {
		out[i] = fn
	}
	return out
}

func (m *Module) FunctionNamed(name string) ir.Function {
	for _, fn := range m.fns {
		if fn.name == name {
			return fn
		}
	}
	return nil
}
