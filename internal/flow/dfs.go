// Package flow implements CFG traversal and dominance: a
// reverse-post-order DFS with pre/post numbering, reachability, and a
// dominator tree built by the iterative Cooper-Harvey-Kennedy algorithm.
//
// Grounded on golang.org/x/tools' ssa package (ssa/lift.go in the
// retrieval pack), which cites the same algorithm ("Cooper, Harvey,
// Kennedy. 2001. A Simple, Fast Dominance Algorithm") for the lifting
// pass's dominator tree.
package flow

import "jitcore/internal/ir"

// DFSResult is the outcome of one depth-first walk.
type DFSResult struct {
	RPO []*ir.BasicBlock // reverse post-order
}

// Callbacks lets a caller observe pre-order, post-order, and cross/back
// edges during the walk without the traversal itself knowing what any
// pass wants to do with them.
type Callbacks struct {
	PreOrder  func(b *ir.BasicBlock)
	PostOrder func(b *ir.BasicBlock)
	BackEdge  func(from, to *ir.BasicBlock)
}

// BuildDFS performs a standard DFS from entry, assigning PreorderNum and
// PostorderNum to every reachable block and returning the reverse
// post-order array. Every block not reached keeps PreorderNum ==
// PostorderNum == -1 and Reachable == false.
func BuildDFS(g *ir.ControlFlowGraph, table *ir.EHTable, cb Callbacks) *DFSResult {
	for _, b := range g.Blocks {
		b.PreorderNum = -1
		b.PostorderNum = -1
		b.Reachable = false
	}

	pre := 0
	var post []*ir.BasicBlock
	onStack := make(map[*ir.BasicBlock]bool)

	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		b.Reachable = true
		b.PreorderNum = pre
		pre++
		onStack[b] = true
		if cb.PreOrder != nil {
			cb.PreOrder(b)
		}

		n := ir.NumSuccessors(b, table)
		for i := 0; i < n; i++ {
			s := ir.Successor(b, i, table)
			if s == nil {
				continue
			}
			if s.PreorderNum == -1 {
				visit(s)
			} else if onStack[s] && cb.BackEdge != nil {
				cb.BackEdge(b, s)
			}
		}

		onStack[b] = false
		b.PostorderNum = len(post)
		post = append(post, b)
		if cb.PostOrder != nil {
			cb.PostOrder(b)
		}
	}

	if g.Entry != nil {
		visit(g.Entry)
	}

	rpo := make([]*ir.BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return &DFSResult{RPO: rpo}
}

// Reachable reports whether b received a post-order number, i.e. some DFS
// from the entry visited it.
func Reachable(b *ir.BasicBlock) bool {
	return b.PostorderNum != -1
}
