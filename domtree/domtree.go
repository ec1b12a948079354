// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package domtree is the "Dominator collaborator" of spec.md §4.4/§6: it
// computes, per function, a dominator tree and its dominance frontier,
// memoized so the sparse def-use builder (package dug) can call it once
// per pointer without recomputation.
//
// The dominance-frontier construction (build, below) is adapted directly
// from ssa/lift.go's domFrontier.build (Cytron et al. 1991); the
// dominator tree itself uses the Cooper-Harvey-Kennedy iterative
// algorithm cited in that same file's header comment, since ssa/lift.go
// relies on go/ssa's unexported dominator builder rather than defining
// one we can reuse verbatim.
package domtree

import "github.com/themaplelab/llvm-pointer-analysis-sub000/ir"

// Node is one entry in a function's dominator tree.
type Node struct {
	Block    ir.BasicBlock
	Idom     *Node
	Children []*Node
}

// Tree is a function's dominator tree.
type Tree struct {
	root  *Node
	nodes map[ir.BasicBlock]*Node
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
// Unreachable blocks are dominated by nothing and dominate nothing.
func (t *Tree) Dominates(a, b ir.BasicBlock) bool {
	if a == b {
		_, ok := t.nodes[a]
		return ok
	}
	bn, ok := t.nodes[b]
	if !ok {
		return false
	}
	for cur := bn.Idom; cur != nil; cur = cur.Idom {
		if cur.Block == a {
			return true
		}
		if cur.Idom == cur {
			break
		}
	}
	return false
}

// Idom returns b's immediate dominator, or nil if b is unreachable or is
// the entry block.
func (t *Tree) Idom(b ir.BasicBlock) ir.BasicBlock {
	n, ok := t.nodes[b]
	if !ok || n.Idom == nil || n.Idom == n {
		return nil
	}
	return n.Idom.Block
}

// Node returns the tree node for b, or nil if b is unreachable.
func (t *Tree) Node(b ir.BasicBlock) *Node { return t.nodes[b] }

// Frontier maps each block to its dominance frontier (Cytron et al.):
// the blocks where control flow reaching along distinct paths from b
// first merges without b dominating the merge point.
type Frontier map[ir.BasicBlock][]ir.BasicBlock

func (df Frontier) add(u, v ir.BasicBlock) { df[u] = append(df[u], v) }

// Collaborator memoizes the dominator tree and frontier per function for
// one analysis run. It holds no state shared across analysis instances
// (spec.md §5).
type Collaborator struct {
	trees     map[ir.Function]*Tree
	frontiers map[ir.Function]Frontier
}

// NewCollaborator returns a fresh, empty memoization cache.
func NewCollaborator() *Collaborator {
	return &Collaborator{
		trees:     make(map[ir.Function]*Tree),
		frontiers: make(map[ir.Function]Frontier),
	}
}

// DominatorTree returns (and memoizes) fn's dominator tree.
func (c *Collaborator) DominatorTree(fn ir.Function) *Tree {
	if t, ok := c.trees[fn]; ok {
		return t
	}
	t := buildDomTree(fn)
	c.trees[fn] = t
	return t
}

// DominanceFrontier returns (and memoizes) fn's dominance frontier.
func (c *Collaborator) DominanceFrontier(fn ir.Function) Frontier {
	if df, ok := c.frontiers[fn]; ok {
		return df
	}
	t := c.DominatorTree(fn)
	df := buildFrontier(t)
	c.frontiers[fn] = df
	return df
}

// buildDomTree computes fn's dominator tree via the Cooper-Harvey-Kennedy
// iterative algorithm (Cooper, Harvey, Kennedy, "A Simple, Fast Dominance
// Algorithm", Software Practice and Experience 2001).
func buildDomTree(fn ir.Function) *Tree {
	entry := fn.Entry()
	if entry == nil {
		return &Tree{nodes: map[ir.BasicBlock]*Node{}}
	}

	postorder := postorderBlocks(entry)
	index := make(map[ir.BasicBlock]int, len(postorder))
	for i, b := range postorder {
		index[b] = i
	}
	// entry is always last in postorder, hence highest index.

	idom := make(map[ir.BasicBlock]ir.BasicBlock, len(postorder))
	idom[entry] = entry

	intersect := func(a, b ir.BasicBlock) ir.BasicBlock {
		for a != b {
			for index[a] < index[b] {
				a = idom[a]
			}
			for index[b] < index[a] {
				b = idom[b]
			}
		}
		return a
	}

	changed := true
	for changed {
		changed = false
		// Process in reverse postorder, i.e. descending postorder index.
		for i := len(postorder) - 2; i >= 0; i-- {
			b := postorder[i]
			var newIdom ir.BasicBlock
			for _, p := range b.Preds() {
				if _, ok := idom[p]; !ok {
					continue // not yet processed
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p)
			}
			if newIdom == nil {
				continue // unreachable from entry
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	nodes := make(map[ir.BasicBlock]*Node, len(idom))
	for b := range idom {
		nodes[b] = &Node{Block: b}
	}
	for b, id := range idom {
		n := nodes[b]
		if b == entry {
			n.Idom = n // root dominates itself
			continue
		}
		n.Idom = nodes[id]
		n.Idom.Children = append(n.Idom.Children, n)
	}

	return &Tree{root: nodes[entry], nodes: nodes}
}

// postorderBlocks returns the blocks reachable from entry in DFS
// postorder (entry last).
func postorderBlocks(entry ir.BasicBlock) []ir.BasicBlock {
	var order []ir.BasicBlock
	visited := make(map[ir.BasicBlock]bool)
	var visit func(b ir.BasicBlock)
	visit = func(b ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs() {
			visit(s)
		}
		order = append(order, b)
	}
	visit(entry)
	return order
}

// buildFrontier computes the dominance frontier for every node in t,
// adapted from ssa/lift.go's domFrontier.build: a postorder traversal of
// the dominator tree, unioning each child's frontier upward and pruning
// entries the current node itself dominates.
func buildFrontier(t *Tree) Frontier {
	df := make(Frontier)
	if t.root == nil {
		return df
	}
	var build func(u *Node)
	build = func(u *Node) {
		for _, child := range u.Children {
			build(child)
		}
		for _, succ := range u.Block.Succs() {
			if v := t.nodes[succ]; v != nil && v.Idom != u {
				df.add(u.Block, succ)
			}
		}
		for _, child := range u.Children {
			for _, v := range df[child.Block] {
				if vn := t.nodes[v]; vn != nil && vn.Idom != u {
					df.add(u.Block, v)
				}
			}
		}
	}
	build(t.root)
	return df
}

// blockSet is a small ordered set of basic blocks, used by
// IteratedFrontier; insertion order doesn't matter for correctness, only
// for determinism of the result slice.
type blockSet struct {
	seen map[ir.BasicBlock]bool
	list []ir.BasicBlock
}

func newBlockSet() *blockSet { return &blockSet{seen: make(map[ir.BasicBlock]bool)} }

func (s *blockSet) add(b ir.BasicBlock) bool {
	if s.seen[b] {
		return false
	}
	s.seen[b] = true
	s.list = append(s.list, b)
	return true
}

// IteratedFrontier computes IDF(blocks): the iterated dominance frontier
// of a set of basic blocks (spec.md §4.4 step 2), via the standard
// Cytron et al. two-set worklist (the same shape as ssa/lift.go's
// liftAlloc φ-insertion loop, generalized from one alloc's def blocks to
// an arbitrary block set).
func IteratedFrontier(df Frontier, blocks []ir.BasicBlock) []ir.BasicBlock {
	hasAlready := newBlockSet()
	work := newBlockSet()
	var W []ir.BasicBlock

	for _, b := range blocks {
		if work.add(b) {
			W = append(W, b)
		}
	}

	var result []ir.BasicBlock
	for len(W) > 0 {
		u := W[len(W)-1]
		W = W[:len(W)-1]
		for _, v := range df[u] {
			if hasAlready.add(v) {
				result = append(result, v)
				if work.add(v) {
					W = append(W, v)
				}
			}
		}
	}
	return result
}
