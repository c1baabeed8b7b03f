package flow

import "jitcore/internal/ir"

// Tree is a dominator tree, built via the iterative Cooper-Harvey-Kennedy
// algorithm.
// dominates(a, b) is O(1) via the pre/post interval recorded during a
// single post-order walk of the tree, the same technique
// ir.BuildNestingIntervals uses for EH regions.
type Tree struct {
	idom map[*ir.BasicBlock]*ir.BasicBlock
	pre  map[*ir.BasicBlock]int
	post map[*ir.BasicBlock]int
}

// BuildDominatorTree computes idom for every block reachable in rpo
// (entry must be rpo[0]) using the standard CHK fixed-point: idom starts
// undefined for every block but the entry, then each block's idom is
// repeatedly recomputed as the intersection of its already-processed
// predecessors' idoms, iterating reverse-post-order until no change.
func BuildDominatorTree(g *ir.ControlFlowGraph, table *ir.EHTable, rpo []*ir.BasicBlock, stressHash uint64) *Tree {
	if len(rpo) == 0 {
		return &Tree{idom: map[*ir.BasicBlock]*ir.BasicBlock{}, pre: map[*ir.BasicBlock]int{}, post: map[*ir.BasicBlock]int{}}
	}

	order := make(map[*ir.BasicBlock]int, len(rpo))
	for i, b := range rpo {
		order[b] = i
	}

	idom := make(map[*ir.BasicBlock]*ir.BasicBlock, len(rpo))
	entry := rpo[0]
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *ir.BasicBlock
			for _, e := range ir.PredIterOrder(b, stressHash) {
				p := e.Source
				if _, ok := idom[p]; !ok {
					continue // predecessor not yet processed this pass
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, order)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	t := &Tree{idom: idom, pre: map[*ir.BasicBlock]int{}, post: map[*ir.BasicBlock]int{}}
	t.buildIntervals(entry)
	return t
}

func intersect(a, b *ir.BasicBlock, idom map[*ir.BasicBlock]*ir.BasicBlock, order map[*ir.BasicBlock]int) *ir.BasicBlock {
	for a != b {
		for order[a] > order[b] {
			a = idom[a]
		}
		for order[b] > order[a] {
			b = idom[b]
		}
	}
	return a
}

// children returns every block whose immediate dominator is parent
// (excluding parent itself, for the root case where idom[entry] == entry).
func (t *Tree) children(parent *ir.BasicBlock) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for b, idom := range t.idom {
		if idom == parent && b != parent {
			out = append(out, b)
		}
	}
	return out
}

func (t *Tree) buildIntervals(entry *ir.BasicBlock) {
	clock := 0
	visited := make(map[*ir.BasicBlock]bool)
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		clock++
		t.pre[b] = clock
		for _, c := range t.children(b) {
			visit(c)
		}
		clock++
		t.post[b] = clock
	}
	visit(entry)
}

// IDom returns b's immediate dominator, or nil if b was not reached by the
// DFS that produced the RPO array BuildDominatorTree was given.
func (t *Tree) IDom(b *ir.BasicBlock) *ir.BasicBlock {
	return t.idom[b]
}

// Dominates reports whether a dominates b (reflexively: a dominates
// itself), in O(1) via the precomputed pre/post interval.
func (t *Tree) Dominates(a, b *ir.BasicBlock) bool {
	ap, ok := t.pre[a]
	if !ok {
		return false
	}
	bp, bok := t.pre[b]
	if !bok {
		return false
	}
	return ap <= bp && t.post[b] <= t.post[a]
}

// StrictlyDominates reports a dominates b and a != b.
func (t *Tree) StrictlyDominates(a, b *ir.BasicBlock) bool {
	return a != b && t.Dominates(a, b)
}
