// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package label implements the labeling phase of spec.md §4.3: it walks
// every instruction once and attaches ⟨pointer, Def|Use⟩ labels, using
// the Andersen oracle to resolve "a load from pv" indirection into the
// concrete objects pv may denote. The sparse def-use builder (package
// dug) consumes these labels; propagate, nullcheck and result also read
// the Set through its query methods.
package label

import (
	"github.com/themaplelab/llvm-pointer-analysis-sub000/andersen"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
)

// Kind is the label kind: a write to, or a read from, the labeled
// pointer's abstract object at a given location.
type Kind int

const (
	Def Kind = iota
	Use
)

func (k Kind) String() string {
	if k == Def {
		return "def"
	}
	return "use"
}

// Set is the labeling result: DefLocs(p) and UseLocs(p) for every
// pointer p that carries at least one label.
type Set struct {
	oracle *andersen.Oracle
	loadOf map[ir.Value]ir.Instruction
	defs   map[ir.Value]map[ir.Instruction]bool
	uses   map[ir.Value]map[ir.Instruction]bool
}

// LoadOf reports whether v is the result of a Load instruction, and
// that instruction if so. Downstream consumers (propagate, nullcheck)
// use this to distinguish a "loaded value" pointer (spec.md §3's
// category (c), tracked via Alias) from a direct alloc-site or
// parameter pointer (tracked via PTS_in/PTS_out).
func (s *Set) LoadOf(v ir.Value) (ir.Instruction, bool) {
	instr, ok := s.loadOf[v]
	return instr, ok
}

// Targets resolves v the same way the labeler did when it decided what
// v's load/store/call-arg operand denotes (spec.md §4.3): itself, if v
// is a direct pointer value, or the Andersen oracle's estimate of what
// v's defining Load actually dereferenced, if v is a loaded value. This
// lets package propagate re-derive the same object set at propagation
// time without duplicating the oracle lookup.
func (s *Set) Targets(v ir.Value) []ir.Value {
	b := &builder{oracle: s.oracle, loadOf: s.loadOf}
	return b.resolveTargets(v)
}

// DefLocs returns every location labeled ⟨p, Def⟩, in no particular order.
func (s *Set) DefLocs(p ir.Value) []ir.Instruction { return keys(s.defs[p]) }

// UseLocs returns every location labeled ⟨p, Use⟩, in no particular order.
func (s *Set) UseLocs(p ir.Value) []ir.Instruction { return keys(s.uses[p]) }

// HasUse reports whether loc carries a ⟨p, Use⟩ label.
func (s *Set) HasUse(loc ir.Instruction, p ir.Value) bool { return s.uses[p][loc] }

// HasDef reports whether loc carries a ⟨p, Def⟩ label.
func (s *Set) HasDef(loc ir.Instruction, p ir.Value) bool { return s.defs[p][loc] }

// Pointers returns every pointer carrying at least one label (defs ∪
// uses), used by result.FunctionPointers.
func (s *Set) Pointers() []ir.Value {
	seen := make(map[ir.Value]bool)
	var out []ir.Value
	for p := range s.defs {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for p := range s.uses {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func keys(m map[ir.Instruction]bool) []ir.Instruction {
	out := make([]ir.Instruction, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type builder struct {
	oracle *andersen.Oracle
	loadOf map[ir.Value]ir.Instruction // v -> the Load instruction defining v
	defs   map[ir.Value]map[ir.Instruction]bool
	uses   map[ir.Value]map[ir.Instruction]bool
}

// Compute runs the labeling pass over every function in m.
func Compute(m ir.Module, oracle *andersen.Oracle) *Set {
	b := &builder{
		oracle: oracle,
		loadOf: make(map[ir.Value]ir.Instruction),
		defs:   make(map[ir.Value]map[ir.Instruction]bool),
		uses:   make(map[ir.Value]map[ir.Instruction]bool),
	}

	// Pre-scan: record which values are the result of a Load, so
	// resolveTargets can distinguish "p is an alloca [direct]" from "p
	// is a load from pv [indirect]" per spec.md §4.3.
	for _, fn := range m.Functions() {
		for _, blk := range fn.Blocks() {
			for _, instr := range blk.Instrs() {
				if instr.Kind() == ir.Load {
					b.loadOf[instr.LoadResult()] = instr
				}
			}
		}
	}

	for _, fn := range m.Functions() {
		b.labelFunc(fn)
	}

	return &Set{oracle: oracle, loadOf: b.loadOf, defs: b.defs, uses: b.uses}
}

func (b *builder) addDef(p ir.Value, loc ir.Instruction) {
	if p == nil {
		return
	}
	m := b.defs[p]
	if m == nil {
		m = make(map[ir.Instruction]bool)
		b.defs[p] = m
	}
	m[loc] = true
}

func (b *builder) addUse(p ir.Value, loc ir.Instruction) {
	if p == nil {
		return
	}
	m := b.uses[p]
	if m == nil {
		m = make(map[ir.Instruction]bool)
		b.uses[p] = m
	}
	m[loc] = true
}

// resolveTargets implements the "is v an alloca, or a load from pv"
// dichotomy that recurs throughout spec.md §4.3: if v was produced by a
// Load instruction, the real targets are the objects its pointer operand
// may denote (the Andersen oracle); otherwise v denotes itself directly.
func (b *builder) resolveTargets(v ir.Value) []ir.Value {
	loadInstr, ok := b.loadOf[v]
	if !ok {
		return []ir.Value{v}
	}
	pv := loadInstr.LoadPointer()
	set := b.oracle.PointsTo(pv)
	targets := make([]ir.Value, 0, set.Len())
	for o := range set {
		if ov, ok := o.(ir.Value); ok {
			targets = append(targets, ov)
		}
	}
	if len(targets) == 0 {
		// Oracle never observed pv pointing anywhere; fall back to pv
		// itself rather than silently dropping the label.
		targets = append(targets, pv)
	}
	return targets
}

func (b *builder) labelFunc(fn ir.Function) {
	// Implicit parameter entry-def / return-site use (spec.md §4.3).
	var pointerParams []ir.Value
	for _, p := range fn.Params() {
		if p != nil && p.Type().Pointerlike() {
			pointerParams = append(pointerParams, p)
		}
	}

	var returns []ir.Instruction
	for _, blk := range fn.Blocks() {
		for _, instr := range blk.Instrs() {
			if instr.Kind() == ir.Return {
				returns = append(returns, instr)
			}
		}
	}

	entry := ir.EntryLocation(fn)
	for _, p := range pointerParams {
		b.addDef(p, entry)
		for _, r := range returns {
			b.addUse(p, r)
		}
	}

	for _, blk := range fn.Blocks() {
		for _, instr := range blk.Instrs() {
			b.labelInstr(instr)
		}
	}
}

func (b *builder) labelInstr(instr ir.Instruction) {
	switch instr.Kind() {
	case ir.Alloc:
		// "Every alloca a also carries an implicit ⟨a, Def⟩ at itself."
		if a := instr.AllocResult(); a != nil {
			b.addDef(a, instr)
		}

	case ir.Store:
		p := instr.StorePointer()
		if p == nil {
			return
		}
		for _, o := range b.resolveTargets(p) {
			b.addDef(o, instr)
			b.addUse(o, instr)
		}

	case ir.Load:
		p := instr.LoadPointer()
		if p == nil {
			return
		}
		for _, o := range b.resolveTargets(p) {
			b.addUse(o, instr)
		}

	case ir.Call:
		for _, a := range instr.CallArgs() {
			if a == nil || !a.Type().Pointerlike() {
				continue
			}
			for _, o := range b.resolveTargets(a) {
				b.addDef(o, instr)
				b.addUse(o, instr)
			}
		}

	case ir.Return:
		if v := instr.ReturnValue(); v != nil {
			for _, o := range b.resolveTargets(v) {
				b.addUse(o, instr)
			}
		}
	}
}
