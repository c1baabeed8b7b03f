// Package loop implements natural-loop discovery from back-edges,
// parent/child nesting, canonicalization, and iteration-variable analysis.
package loop

import (
	"sort"

	"jitcore/internal/flow"
	"jitcore/internal/ir"
)

// NaturalLoop is a reducible loop rooted at Header.
type NaturalLoop struct {
	Index    int
	Header   *ir.BasicBlock
	Blocks   map[*ir.BasicBlock]bool
	Parent   *NaturalLoop
	Children []*NaturalLoop

	// Preheader is populated once Canonicalize succeeds.
	Preheader *ir.BasicBlock

	Iteration *Iteration // nil if iteration analysis could not fit the loop
}

// Forest is every natural loop discovered in one pass, indexed by Index.
type Forest struct {
	Loops []*NaturalLoop
}

// Discover finds every natural loop in g using dom to test dominance of
// back edges.
func Discover(g *ir.ControlFlowGraph, table *ir.EHTable, rpo []*ir.BasicBlock, dom *flow.Tree) *Forest {
	f := &Forest{}

	order := make(map[*ir.BasicBlock]int, len(rpo))
	for i, b := range rpo {
		order[b] = i
	}

	// Collect back edges in RPO order of the header for determinism.
	type backEdge struct{ v, u *ir.BasicBlock }
	var edges []backEdge
	for _, v := range rpo {
		n := ir.NumSuccessors(v, table)
		for i := 0; i < n; i++ {
			u := ir.Successor(v, i, table)
			if u != nil && dom.Dominates(u, v) {
				edges = append(edges, backEdge{v: v, u: u})
			}
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return order[edges[i].u] < order[edges[j].u] })

	byHeader := map[*ir.BasicBlock]*NaturalLoop{}
	for _, be := range edges {
		l, ok := byHeader[be.u]
		if !ok {
			l = &NaturalLoop{Index: len(f.Loops), Header: be.u, Blocks: map[*ir.BasicBlock]bool{be.u: true}}
			f.Loops = append(f.Loops, l)
			byHeader[be.u] = l
		}
		growLoop(l, be.v, table)
	}

	nestLoops(f)
	assignLoopNumbers(f)
	return f
}

// growLoop adds every block that can reach from (the back edge's source)
// to header without going through header.
func growLoop(l *NaturalLoop, from *ir.BasicBlock, table *ir.EHTable) {
	if l.Blocks[from] {
		return
	}
	var worklist []*ir.BasicBlock
	l.Blocks[from] = true
	worklist = append(worklist, from)

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, e := range b.Preds {
			p := e.Source
			if !l.Blocks[p] {
				l.Blocks[p] = true
				worklist = append(worklist, p)
			}
		}
	}
}

// nestLoops assigns Parent/Children by inclusion: the smallest loop that
// strictly contains another loop's header is its parent.
func nestLoops(f *Forest) {
	for _, l := range f.Loops {
		var best *NaturalLoop
		for _, cand := range f.Loops {
			if cand == l || !cand.Blocks[l.Header] || cand == l {
				continue
			}
			if cand.Header == l.Header {
				continue
			}
			if len(cand.Blocks) <= len(l.Blocks) {
				continue
			}
			if best == nil || len(cand.Blocks) < len(best.Blocks) {
				best = cand
			}
		}
		l.Parent = best
		if best != nil {
			best.Children = append(best.Children, l)
		}
	}
}

func assignLoopNumbers(f *Forest) {
	for _, l := range f.Loops {
		for b := range l.Blocks {
			if b.NaturalLoopNum == -1 || len(f.Loops[b.NaturalLoopNum].Blocks) > len(l.Blocks) {
				b.NaturalLoopNum = l.Index
			}
		}
	}
}

// Canonicalize requires a unique preheader: exactly one edge enters the
// header from outside the loop, and its source is an ALWAYS block in the
// header's EH region. On success it sets l.Preheader
// and returns true.
func Canonicalize(l *NaturalLoop, table *ir.EHTable) bool {
	var entrySrc *ir.BasicBlock
	count := 0
	for _, e := range l.Header.Preds {
		if l.Blocks[e.Source] {
			continue
		}
		count++
		entrySrc = e.Source
	}
	if count != 1 {
		return false
	}
	if entrySrc.Kind != ir.KindAlways {
		return false
	}
	if entrySrc.TryIndex != l.Header.TryIndex || entrySrc.HandlerIndex != l.Header.HandlerIndex {
		return false
	}
	l.Preheader = entrySrc
	return true
}

// Contains reports whether b is a member of l.
func (l *NaturalLoop) Contains(b *ir.BasicBlock) bool {
	return l.Blocks[b]
}
