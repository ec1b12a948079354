// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// This file adapts golang.org/x/tools/go/ssa to the ir interfaces. See
// SPEC_FULL.md §2 for why go/ssa is the concrete IR: it is the same
// dependency the teacher lineage (golang.org/x/tools/go/pointer) requires.
//
// All wrapper types below are plain structs over comparable fields (a
// pointer or an interface value holding one; ssaInstr also carries its
// block wrapper, which the instruction itself determines), so Go's built-in
// `==` on the ir interfaces is exactly identity comparison on the
// underlying go/ssa node, as spec.md §3 requires ("Pointers are compared
// by identity").

// ssaValue wraps an ssa.Value as an ir.Value.
type ssaValue struct{ v ssa.Value }

func wrapValue(v ssa.Value) Value {
	if v == nil {
		return nil
	}
	return ssaValue{v}
}

func (w ssaValue) Name() string   { return w.v.Name() }
func (w ssaValue) String() string { return w.v.String() }
func (w ssaValue) Type() Type     { return ssaType{w.v.Type()} }

// Unwrap returns the underlying ssa.Value. Exposed so a CLI or checker
// that needs source positions / richer go/ssa detail isn't forced to
// re-derive it (the adapter is read-only, not opaque).
func Unwrap(v Value) ssa.Value {
	if v == nil {
		return nil
	}
	return v.(ssaValue).v
}

// ssaType wraps a go/types.Type as an ir.Type.
type ssaType struct{ t types.Type }

func (w ssaType) String() string { return w.t.String() }

func (w ssaType) Pointerlike() bool {
	_, ok := w.t.Underlying().(*types.Pointer)
	return ok
}

// ssaFunction wraps an *ssa.Function as an ir.Function.
type ssaFunction struct{ fn *ssa.Function }

// WrapFunction exposes the adapter for a *ssa.Function to callers (the
// CLI driver) that build the ir.Module from a whole-program ssa.Program.
func WrapFunction(fn *ssa.Function) Function { return ssaFunction{fn} }

func (w ssaFunction) Name() string   { return w.fn.Name() }
func (w ssaFunction) String() string { return w.fn.String() }

func (w ssaFunction) Blocks() []BasicBlock {
	blocks := make([]BasicBlock, len(w.fn.Blocks))
	for i, b := range w.fn.Blocks {
		blocks[i] = ssaBlock{b}
	}
	return blocks
}

func (w ssaFunction) Entry() BasicBlock {
	if len(w.fn.Blocks) == 0 {
		return nil
	}
	return ssaBlock{w.fn.Blocks[0]}
}

func (w ssaFunction) Params() []Value {
	params := make([]Value, len(w.fn.Params))
	for i, p := range w.fn.Params {
		params[i] = wrapValue(p)
	}
	return params
}

func (w ssaFunction) External() bool { return w.fn.Blocks == nil }

// ssaBlock wraps an *ssa.BasicBlock as an ir.BasicBlock.
type ssaBlock struct{ b *ssa.BasicBlock }

func (w ssaBlock) Index() int          { return w.b.Index }
func (w ssaBlock) String() string      { return w.b.String() }
func (w ssaBlock) Function() Function  { return ssaFunction{w.b.Parent()} }

func (w ssaBlock) Instrs() []Instruction {
	instrs := make([]Instruction, 0, len(w.b.Instrs))
	for _, instr := range w.b.Instrs {
		if _, ok := instr.(*ssa.DebugRef); ok {
			continue
		}
		instrs = append(instrs, ssaInstr{instr, w})
	}
	return instrs
}

func (w ssaBlock) Preds() []BasicBlock { return wrapBlocks(w.b.Preds) }
func (w ssaBlock) Succs() []BasicBlock { return wrapBlocks(w.b.Succs) }

func wrapBlocks(bs []*ssa.BasicBlock) []BasicBlock {
	out := make([]BasicBlock, len(bs))
	for i, b := range bs {
		out[i] = ssaBlock{b}
	}
	return out
}

// ssaInstr wraps an ssa.Instruction as an ir.Instruction. blk is cached
// rather than recomputed via instr.Block() so Block() never needs a nil
// check for synthetic instructions.
type ssaInstr struct {
	instr ssa.Instruction
	blk   ssaBlock
}

func (w ssaInstr) Block() BasicBlock { return w.blk }
func (w ssaInstr) Pos() token.Pos    { return w.instr.Pos() }
func (w ssaInstr) String() string    { return w.instr.String() }

func (w ssaInstr) Kind() InstrKind {
	switch instr := w.instr.(type) {
	case *ssa.Alloc:
		return Alloc
	case *ssa.Store:
		return Store
	case *ssa.UnOp:
		if instr.Op == token.MUL {
			return Load
		}
		return Other
	case ssa.CallInstruction:
		return Call
	case *ssa.Return:
		return Return
	default:
		return Other
	}
}

func (w ssaInstr) StorePointer() Value {
	if s, ok := w.instr.(*ssa.Store); ok {
		return wrapValue(s.Addr)
	}
	return nil
}

func (w ssaInstr) StoreValue() Value {
	if s, ok := w.instr.(*ssa.Store); ok {
		return wrapValue(s.Val)
	}
	return nil
}

func (w ssaInstr) LoadPointer() Value {
	if u, ok := w.instr.(*ssa.UnOp); ok && u.Op == token.MUL {
		return wrapValue(u.X)
	}
	return nil
}

func (w ssaInstr) LoadResult() Value {
	if u, ok := w.instr.(*ssa.UnOp); ok && u.Op == token.MUL {
		return wrapValue(u)
	}
	return nil
}

func (w ssaInstr) CallTarget() Function {
	ci, ok := w.instr.(ssa.CallInstruction)
	if !ok {
		return nil
	}
	fn := ci.Common().StaticCallee()
	if fn == nil {
		return nil // indirect or invoke: ignored per Non-goals
	}
	return ssaFunction{fn}
}

func (w ssaInstr) CallArgs() []Value {
	ci, ok := w.instr.(ssa.CallInstruction)
	if !ok {
		return nil
	}
	args := ci.Common().Args
	out := make([]Value, len(args))
	for i, a := range args {
		out[i] = wrapValue(a)
	}
	return out
}

func (w ssaInstr) CallResult() Value {
	call, ok := w.instr.(*ssa.Call)
	if !ok {
		return nil // *ssa.Go, *ssa.Defer never yield a result value
	}
	if !(ssaType{call.Type()}).Pointerlike() {
		return nil
	}
	return wrapValue(call)
}

func (w ssaInstr) ReturnValue() Value {
	ret, ok := w.instr.(*ssa.Return)
	if !ok {
		return nil
	}
	// Single-return-value model (see SPEC_FULL.md): pick the first
	// pointer-typed result, matching the LLVM IR this design targets.
	for _, r := range ret.Results {
		if (ssaType{r.Type()}).Pointerlike() {
			return wrapValue(r)
		}
	}
	return nil
}

func (w ssaInstr) AllocResult() Value {
	if a, ok := w.instr.(*ssa.Alloc); ok {
		return wrapValue(a)
	}
	return nil
}

// Module is an ir.Module backed by an explicit, whole-program set of
// ssa.Function values (e.g. from ssautil.AllFunctions).
type Module struct {
	fns  []*ssa.Function
	byName map[string]*ssa.Function
}

// NewModule builds a Module from the given functions. Functions without a
// body (external/intrinsic) are retained for call-target resolution but
// contribute no instructions.
func NewModule(fns []*ssa.Function) *Module {
	m := &Module{fns: fns, byName: make(map[string]*ssa.Function, len(fns))}
	for _, fn := range fns {
		if fn.Pkg != nil {
			m.byName[fn.Pkg.Pkg.Path()+"."+fn.Name()] = fn
		}
		if _, ok := m.byName[fn.Name()]; !ok {
			m.byName[fn.Name()] = fn
		}
	}
	return m
}

func (m *Module) Functions() []Function {
	out := make([]Function, len(m.fns))
	for i, fn := range m.fns {
		out[i] = ssaFunction{fn}
	}
	return out
}

func (m *Module) FunctionNamed(name string) Function {
	fn, ok := m.byName[name]
	if !ok {
		return nil
	}
	return ssaFunction{fn}
}
