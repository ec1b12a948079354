// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dug builds the sparse per-pointer def-use graph of spec.md
// §4.4: for each pointer p, a graph whose nodes are p's labeled def/use
// locations plus synthetic join nodes at p's iterated dominance
// frontier, with edges from each location's nearest reaching def.
//
// This is the sparse-evaluation-graph technique (Choi et al.) applied
// per pointer: since DUG[def][p] only has an edge where d reaches u, its
// size is proportional to p's own defs and merge points rather than to
// the whole function, which is exactly the point of building one
// per-pointer rather than reusing one dense per-instruction CFG
// traversal (see spec.md §9, "Design Notes").
//
// Construction here is purely structural (it decides which locations
// connect to which); the strong-vs-weak update decision that spec.md
// §4.4 step 4 describes is instead made by the propagation engine
// (package propagate) when it processes a store, from the number of
// objects label.Set.Targets resolves the address to (the Andersen-based
// set), not from a flow-sensitive Alias (see DESIGN.md).
//
// The graph is built once from the labels before propagation starts;
// the propagation engine adds no labels or edges to it.
package dug

import (
	"github.com/themaplelab/llvm-pointer-analysis-sub000/domtree"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/ir"
	"github.com/themaplelab/llvm-pointer-analysis-sub000/label"
)

// Edge is a def-use edge (def_ℓ, use_ℓ, p): use_ℓ should consume the
// points-to set p held at def_ℓ.
type Edge struct {
	Def ir.Instruction
	Use ir.Instruction
	Ptr ir.Value
}

// Graph is the sparse def-use graph for every pointer in a module:
// DUG[def_ℓ][p] = {use_ℓ, …}, indexed here by source location.
type Graph struct {
	out map[ir.Instruction][]Edge
}

// NewGraph returns an empty graph, ready to have edges added by Build or
// BuildPointer.
func NewGraph() *Graph { return &Graph{out: make(map[ir.Instruction][]Edge)} }

// AddEdge inserts e if it is not already present.
func (g *Graph) AddEdge(e Edge) {
	for _, existing := range g.out[e.Def] {
		if existing == e {
			return
		}
	}
	g.out[e.Def] = append(g.out[e.Def], e)
}

// OutEdges returns the edges sourced at loc, for any pointer.
func (g *Graph) OutEdges(loc ir.Instruction) []Edge { return g.out[loc] }

// AllEdges returns every edge in the graph, in no particular order.
func (g *Graph) AllEdges() []Edge {
	var all []Edge
	for _, es := range g.out {
		all = append(all, es...)
	}
	return all
}

// Build constructs the full sparse def-use graph for every pointer
// labeled in labels.
func Build(labels *label.Set, doms *domtree.Collaborator) *Graph {
	g := NewGraph()
	for _, p := range labels.Pointers() {
		BuildPointer(g, p, labels, doms)
	}
	return g
}

// BuildPointer (re)builds the def-use edges for a single pointer p,
// adding them to g. It is safe to call again for a pointer already built
// into g (AddEdge dedupes). The propagation engine does not call it;
// only Build does.
func BuildPointer(g *Graph, p ir.Value, labels *label.Set, doms *domtree.Collaborator) {
	defLocs := labels.DefLocs(p)
	useLocs := labels.UseLocs(p)
	if len(defLocs) == 0 && len(useLocs) == 0 {
		return
	}

	fn := owningFunction(defLocs, useLocs)
	if fn == nil {
		return
	}

	tree := doms.DominatorTree(fn)
	df := doms.DominanceFrontier(fn)

	defSet := make(map[ir.Instruction]bool, len(defLocs))
	defBlockSet := make(map[ir.BasicBlock]bool)
	for _, d := range defLocs {
		defSet[d] = true
		defBlockSet[d.Block()] = true
	}
	defBlocks := make([]ir.BasicBlock, 0, len(defBlockSet))
	for b := range defBlockSet {
		defBlocks = append(defBlocks, b)
	}

	joinBlocks := make(map[ir.BasicBlock]bool)
	for _, b := range domtree.IteratedFrontier(df, defBlocks) {
		joinBlocks[b] = true
	}

	b := &builder{
		p:          p,
		tree:       tree,
		defSet:     defSet,
		joinBlocks: joinBlocks,
		blockSlots: make(map[ir.BasicBlock][]slot),
		blockPos:   make(map[ir.BasicBlock]map[ir.Instruction]int),
		startCache: make(map[ir.BasicBlock]cacheEntry),
		endCache:   make(map[ir.BasicBlock]cacheEntry),
		joinNodes:  make(map[ir.BasicBlock]ir.Instruction),
		graph:      g,
	}
	b.indexBlocks(fn)

	for _, u := range useLocs {
		if node, ok := b.reachingBefore(u); ok && node != nil {
			g.AddEdge(Edge{Def: node, Use: u, Ptr: p})
		}
	}
}

func owningFunction(defLocs, useLocs []ir.Instruction) ir.Function {
	for _, d := range defLocs {
		if blk := d.Block(); blk != nil {
			return blk.Function()
		}
	}
	for _, u := range useLocs {
		if blk := u.Block(); blk != nil {
			return blk.Function()
		}
	}
	return nil
}

// slot is one def of p within a block, at its program-order position.
type slot struct {
	pos  int
	node ir.Instruction
}

type cacheEntry struct {
	node    ir.Instruction
	present bool
}

// builder computes, for pointer p, the nearest reaching def/join node
// for any location via the sparse idom-chain technique described in the
// package doc comment.
type builder struct {
	p          ir.Value
	tree       *domtree.Tree
	defSet     map[ir.Instruction]bool
	joinBlocks map[ir.BasicBlock]bool

	blockSlots map[ir.BasicBlock][]slot
	blockPos   map[ir.BasicBlock]map[ir.Instruction]int
	joinNodes  map[ir.BasicBlock]ir.Instruction

	startCache map[ir.BasicBlock]cacheEntry
	endCache   map[ir.BasicBlock]cacheEntry

	graph *Graph
}

// indexBlocks records, for every block of fn, the program-order position
// of each of p's local defs (an entry-location def counts as position
// -1: it logically precedes the block's real instructions).
func (b *builder) indexBlocks(fn ir.Function) {
	entry := ir.EntryLocation(fn)
	for _, blk := range fn.Blocks() {
		pos := make(map[ir.Instruction]int)
		var slots []slot
		if blk == fn.Entry() && b.defSet[entry] {
			slots = append(slots, slot{pos: -1, node: entry})
		}
		for i, instr := range blk.Instrs() {
			pos[instr] = i
			if b.defSet[instr] {
				slots = append(slots, slot{pos: i, node: instr})
			}
		}
		b.blockPos[blk] = pos
		b.blockSlots[blk] = slots
	}
}

// startOf returns the reaching node flowing into the start of b: the
// join node if b is a merge point for p, else the reaching node at the
// end of b's immediate dominator (the sparse-evaluation-graph shortcut
// that makes this linear rather than a full CFG walk).
func (b *builder) startOf(blk ir.BasicBlock) ir.Instruction {
	if e, ok := b.startCache[blk]; ok {
		return e.node
	}
	var result ir.Instruction
	if b.joinBlocks[blk] {
		result = b.makeJoin(blk)
	} else if idom := b.tree.Idom(blk); idom != nil {
		result = b.endOf(idom)
	}
	b.startCache[blk] = cacheEntry{node: result, present: true}
	return result
}

// makeJoin creates (memoized) the synthetic join location for blk and
// wires an incoming edge from each CFG predecessor's reaching-end node.
func (b *builder) makeJoin(blk ir.BasicBlock) ir.Instruction {
	if n, ok := b.joinNodes[blk]; ok {
		return n
	}
	join := ir.JoinLocation(blk, b.p)
	b.joinNodes[blk] = join
	// Cache immediately: a join's own identity never depends on its
	// predecessors, so there is no risk of re-entrant recomputation
	// even though computing predecessors' endOf may recurse widely.
	b.startCache[blk] = cacheEntry{node: join, present: true}

	for _, pred := range blk.Preds() {
		if src := b.endOf(pred); src != nil {
			b.graph.AddEdge(Edge{Def: src, Use: join, Ptr: b.p})
		}
	}
	return join
}

// endOf returns the reaching node flowing out of the end of b: its last
// local def of p if any, chaining each local def to the one before it,
// else simply startOf(b).
func (b *builder) endOf(blk ir.BasicBlock) ir.Instruction {
	if e, ok := b.endCache[blk]; ok {
		return e.node
	}
	cur := b.startOf(blk)
	for _, s := range b.blockSlots[blk] {
		if cur != nil {
			b.graph.AddEdge(Edge{Def: cur, Use: s.node, Ptr: b.p})
		}
		cur = s.node
	}
	b.endCache[blk] = cacheEntry{node: cur, present: true}
	return cur
}

// reachingBefore returns the nearest node reaching u, considering only
// local defs strictly before u's program-order position (spec.md §4.4
// step 5's "OUT[u] ... or OUT[iDom]" case): if u is itself a def of p,
// this yields u's own input, not u.
func (b *builder) reachingBefore(u ir.Instruction) (ir.Instruction, bool) {
	blk := u.Block()
	if blk == nil {
		return nil, false
	}
	pos, ok := b.blockPos[blk][u]
	if !ok {
		// u is the synthetic entry location itself (never a Use in
		// practice) or not part of this function; nothing to do.
		return nil, false
	}
	cur := b.startOf(blk)
	for _, s := range b.blockSlots[blk] {
		if s.pos < pos {
			cur = s.node
		} else {
			break
		}
	}
	return cur, true
}
