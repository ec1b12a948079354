// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nullcheck is a minimal downstream consumer of the pointer
// analysis result (spec.md §1 names such a checker as an out-of-scope
// consumer, kept in scope here only for the interfaces it exercises —
// see SPEC_FULL.md's Null-Dereference Checker module). It flags every
// dereference (Store address, Load address) whose dereferenced value
// may still be ⊥, per spec.md §8 scenario 6.
package nullcheck

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ptrset"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/result"
)

// Finding is one possible null dereference.
type Finding struct {
	Function ir.Function
	Location ir.Instruction
	Pointer  ir.Value
	PointsTo ptrset.Set
}

// String renders a Finding the way the CLI prints it, colorized when
// stdout is a terminal (color.NoColor is set by the fatih/color package
// itself based on isatty, matching kanso-lang-kanso's reporter style).
func (f Finding) String() string {
	return fmt.Sprintf("%s: possible nil dereference of %s at %s (points-to %s)",
		color.New(color.FgYellow).Sprint("advisory"), f.Pointer.String(), f.Location.String(), f.PointsTo)
}

// Check walks every Store and Load in the module and reports a Finding
// wherever the address being dereferenced is itself a loaded value whose
// alias set still contains ⊥ (spec.md §8 scenario 6: "a = alloc; x =
// load a; store 0 into x" flags the store, since x was never stored
// into before being dereferenced and so still denotes ⊥). Only loaded
// addresses are candidates: an alloc site or formal parameter used
// directly as an address is, by construction, a valid memory location,
// never ⊥ itself — it is the *content* loaded through it that can be
// uninitialized.
func Check(m ir.Module, labels *label.Set, res *result.Result) []Finding {
	var findings []Finding
	for _, fn := range m.Functions() {
		for _, blk := range fn.Blocks() {
			for _, instr := range blk.Instrs() {
				addr := dereferencedAddress(instr)
				if addr == nil {
					continue
				}
				if _, isLoaded := labels.LoadOf(addr); !isLoaded {
					continue
				}
				alias := res.Alias(instr, addr)
				if hasBottom(alias) {
					findings = append(findings, Finding{Function: fn, Location: instr, Pointer: addr, PointsTo: alias})
				}
			}
		}
	}
	return findings
}

func dereferencedAddress(instr ir.Instruction) ir.Value {
	switch instr.Kind() {
	case ir.Store:
		return instr.StorePointer()
	case ir.Load:
		return instr.LoadPointer()
	default:
		return nil
	}
}

func hasBottom(s ptrset.Set) bool {
	for o := range s {
		if ptrset.IsBottom(o) {
			return true
		}
	}
	return false
}
