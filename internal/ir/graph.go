package ir

import "jitcore/internal/arena"

// blockApproxSize is the bookkeeping estimate of one BasicBlock's footprint
// fed to Arena.Alloc; it does not need to be exact, only representative
// enough for the dumper's category breakdown to be meaningful.
const blockApproxSize = 128

// ControlFlowGraph is the per-method graph a Compiler owns.
// Blocks are linked lexically via Prev/Next; Blocks is a flat index kept in
// sync for passes that want arbitrary-order iteration (dominator
// numbering, the checker's id-uniqueness scan).
type ControlFlowGraph struct {
	idgen *IDGen

	Entry               *BasicBlock
	FirstBlock, LastBlock *BasicBlock
	Blocks              []*BasicBlock

	EH *EHTable

	Locals []*LocalVar

	// Arena, when set, receives category bookkeeping for every block this
	// graph allocates. Nil is valid — a graph built outside a Compiler
	// (tests, the checker's fixtures) simply does not track.
	Arena *arena.Arena

	// PgoConsistent mirrors the source's fgPgoConsistent flag: cleared by any pass that changes edge
	// weights without rebalancing predecessor sums.
	PgoConsistent bool

	// StressHash records a per-method stress hash. No pass reads this
	// field: PredIterOrder and its callers take the hash as an explicit
	// argument.
	StressHash uint64
}

// NewControlFlowGraph creates an empty graph drawing ids from idgen.
func NewControlFlowGraph(idgen *IDGen) *ControlFlowGraph {
	return &ControlFlowGraph{idgen: idgen, EH: &EHTable{}, PgoConsistent: true}
}

// NewBlock allocates a block with a fresh id and appends it to the flat
// index; it is not linked into the lexical list until InsertAfter or
// InsertAtEnd places it.
func (g *ControlFlowGraph) NewBlock(kind BranchKind) *BasicBlock {
	if g.Arena != nil {
		g.Arena.Alloc(arena.CategoryBlock, blockApproxSize)
	}
	b := NewBasicBlock(g.idgen.Next(), kind)
	g.Blocks = append(g.Blocks, b)
	return b
}

// InsertAtEnd appends b to the tail of the lexical list.
func (g *ControlFlowGraph) InsertAtEnd(b *BasicBlock) {
	if g.LastBlock == nil {
		g.FirstBlock = b
		g.LastBlock = b
		b.Prev, b.Next = nil, nil
		return
	}
	g.LastBlock.Next = b
	b.Prev = g.LastBlock
	b.Next = nil
	g.LastBlock = b
}

// InsertAfter splices newBlock immediately after after in the lexical
// list. Used by the CALLFINALLY/CALLFINALLYRET pairing invariant and
// by the loop cloner to place preheaders and cloned bodies.
func (g *ControlFlowGraph) InsertAfter(after, newBlock *BasicBlock) {
	newBlock.Prev = after
	newBlock.Next = after.Next
	if after.Next != nil {
		after.Next.Prev = newBlock
	} else {
		g.LastBlock = newBlock
	}
	after.Next = newBlock
}

// RemoveBlock unlinks b from the lexical list and the flat index. Blocks
// are removed only after their predecessor count drops to zero and
// FlagDoNotRemove is not set; callers must check that themselves (this is
// the mechanical unlink, not the policy decision).
func (g *ControlFlowGraph) RemoveBlock(b *BasicBlock) {
	if b.Prev != nil {
		b.Prev.Next = b.Next
	} else {
		g.FirstBlock = b.Next
	}
	if b.Next != nil {
		b.Next.Prev = b.Prev
	} else {
		g.LastBlock = b.Prev
	}
	for i, x := range g.Blocks {
		if x == b {
			g.Blocks = append(g.Blocks[:i], g.Blocks[i+1:]...)
			break
		}
	}
}

// LexicalOrder materializes the lexical list into a slice.
func (g *ControlFlowGraph) LexicalOrder() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(g.Blocks))
	for b := g.FirstBlock; b != nil; b = b.Next {
		out = append(out, b)
	}
	return out
}

// Renumber assigns fresh, densely-packed Ordinal values in lexical order,
// the "renumbering-friendly ordinal"
func (g *ControlFlowGraph) Renumber() {
	ord := 0
	for b := g.FirstBlock; b != nil; b = b.Next {
		b.Ordinal = ord
		ord++
	}
}
