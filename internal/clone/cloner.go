package clone

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
	"jitcore/internal/loop"
)

// Options configures the size/weight knobs the cloner is tuned by.
type Options struct {
	SizeLimit      int     // maximum summed candidate complexity before giving up
	FastPathWeight float64 // weight share the optimized copy keeps
	SlowPathWeight float64 // weight share the pessimistic copy keeps
	MaxDerefDepth  int     // deref-tree depth bound
}

func DefaultOptions() Options {
	return Options{SizeLimit: 60, FastPathWeight: 0.99, SlowPathWeight: 0.01, MaxDerefDepth: 3}
}

// Result is what a successful Clone produced, for a caller that wants to
// inspect or dump the new structure.
type Result struct {
	FastPreheader *ir.BasicBlock // ALWAYS block at the end of the condition chain, entering the original header
	SlowPreheader *ir.BasicBlock
	ClonedHeader  *ir.BasicBlock
	BlockMap      map[*ir.BasicBlock]*ir.BasicBlock
	Conditions    []Condition
}

// Clone attempts to produce a condition-guarded fast/slow pair for l given
// candidates. On success it mutates g in place and returns a non-nil
// Result; on failure it records a diag.Decline on sink and leaves g
// untouched.
func Clone(g *ir.ControlFlowGraph, table *ir.EHTable, l *loop.NaturalLoop, candidates []Candidate, exprCloner ir.ExprCloner, opts Options, sink *diag.Sink) (*Result, bool) {
	site := fmt.Sprintf("loop@%d", l.Header.ID)

	if l.Preheader == nil {
		sink.Record(diag.NewDecline(diag.DeclineCloneNotCanonical, "loop-cloner", site, "loop has no canonical preheader"))
		return nil, false
	}
	header := l.Header
	for b := range l.Blocks {
		if b.TryIndex != header.TryIndex || b.HandlerIndex != header.HandlerIndex {
			sink.Record(diag.NewDecline(diag.DeclineCloneEHMismatch, "loop-cloner", site,
				fmt.Sprintf("block %d is in a different EH region than the header", b.ID)))
			return nil, false
		}
	}

	var allConds []Condition
	complexity := 0
	for _, c := range candidates {
		tree, ok := BuildDerefTree(c, opts.MaxDerefDepth)
		if !ok {
			sink.Record(diag.NewDecline(diag.DeclineCloneDerefDepth, "loop-cloner", site,
				fmt.Sprintf("deref tree depth exceeds %d", opts.MaxDerefDepth)))
			return nil, false
		}
		var iterFacts *IterBoundFacts
		if l.Iteration != nil && (c.Kind == KindJaggedArray || c.Kind == KindMultiDimArray) && len(c.Dims) > 0 {
			iter := l.Iteration
			var initOperand Operand
			switch iter.InitKind {
			case loop.InitConstant:
				initOperand = constOperand(iter.InitConst)
			case loop.InitInvariantLocal:
				initOperand = localOperand(iter.InitLocal)
			}
			var limitOperand Operand
			switch iter.LimitKind {
			case loop.LimitConstant:
				limitOperand = constOperand(iter.LimitConst)
			case loop.LimitInvariantLocal:
				limitOperand = localOperand(iter.LimitLocal)
			case loop.LimitArrayLength:
				limitOperand = lengthOperand(iter.LimitArrayLoc)
			}
			iterFacts = &IterBoundFacts{
				HasInit:      true,
				InitOperand:  initOperand,
				LimitOperand: limitOperand,
				LimitArray:   c.Dims[len(c.Dims)-1].Base,
				TestOp:       iter.TestOp,
				Increasing:   iter.Increasing,
			}
		}
		allConds = append(allConds, Synthesize(c, tree, iterFacts)...)
		complexity += c.Complexity
	}

	simplified, ok := Simplify(allConds)
	if !ok {
		sink.Record(diag.NewDecline(diag.DeclineCloneConditionFalse, "loop-cloner", site,
			"a synthesized condition evaluated to compile-time false"))
		return nil, false
	}
	if complexity > opts.SizeLimit {
		sink.Record(diag.NewDecline(diag.DeclineCloneSizeLimit, "loop-cloner", site,
			fmt.Sprintf("complexity %d exceeds size limit %d", complexity, opts.SizeLimit)))
		return nil, false
	}

	loopOrder := lexicalLoopBlocks(g, l)

	blockMap := make(map[*ir.BasicBlock]*ir.BasicBlock, len(loopOrder))
	tail := g.LastBlock
	blockCount := len(g.Blocks)
	for _, b := range loopOrder {
		c := g.NewBlock(b.Kind)
		if !ir.CloneBlockState(b, c, nil, nil, exprCloner) {
			// None of the new blocks is linked or wired yet: dropping them
			// from the flat index restores g.
			g.Blocks = g.Blocks[:blockCount]
			sink.Record(diag.NewDecline(diag.DeclineCloneExprDecline, "loop-cloner", site,
				fmt.Sprintf("expression cloner declined a statement in block %d", b.ID)))
			return nil, false
		}
		blockMap[b] = c
	}
	for _, b := range loopOrder {
		g.InsertAfter(tail, blockMap[b])
		tail = blockMap[b]
	}
	clonedHeader := blockMap[header]

	for _, b := range loopOrder {
		remapTargets(blockMap[b], b, blockMap)
	}
	for _, b := range loopOrder {
		wireEdges(blockMap[b], table)
	}

	origPreheader := l.Preheader

	slowPreheader := g.NewBlock(ir.KindAlways)
	slowPreheader.Target = clonedHeader
	slowPreheader.TryIndex, slowPreheader.HandlerIndex = header.TryIndex, header.HandlerIndex
	g.InsertAfter(tail, slowPreheader)
	wireEdges(slowPreheader, table)

	fastPreheader := g.NewBlock(ir.KindAlways)
	fastPreheader.Target = header
	fastPreheader.TryIndex, fastPreheader.HandlerIndex = header.TryIndex, header.HandlerIndex
	g.InsertAfter(origPreheader, fastPreheader)

	ir.RemovePredEdge(header, origPreheader)

	chainHead := buildConditionChain(g, table, origPreheader, fastPreheader, slowPreheader, simplified, header)
	origPreheader.Kind = ir.KindAlways
	origPreheader.Target = chainHead
	wireEdges(origPreheader, table)
	wireEdges(fastPreheader, table)

	for _, b := range loopOrder {
		b.Weight *= opts.FastPathWeight
		blockMap[b].Weight *= opts.SlowPathWeight
	}
	fastPreheader.Weight = origPreheader.Weight * opts.FastPathWeight
	slowPreheader.Weight = origPreheader.Weight * opts.SlowPathWeight
	g.PgoConsistent = false

	applyFastPathOptimizations(candidates)

	return &Result{
		FastPreheader: fastPreheader,
		SlowPreheader: slowPreheader,
		ClonedHeader:  clonedHeader,
		BlockMap:      blockMap,
		Conditions:    simplified,
	}, true
}

// lexicalLoopBlocks returns l's blocks in the graph's lexical order, the
// deterministic order the duplication pass walks in.
func lexicalLoopBlocks(g *ir.ControlFlowGraph, l *loop.NaturalLoop) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for b := g.FirstBlock; b != nil; b = b.Next {
		if l.Blocks[b] {
			out = append(out, b)
		}
	}
	return out
}

// remapTargets retargets a freshly cloned block's successor fields: a
// target that was itself inside the loop is redirected to its clone;
// everything else (a loop exit) is left pointing at the shared original
// destination.
func remapTargets(c, orig *ir.BasicBlock, blockMap map[*ir.BasicBlock]*ir.BasicBlock) {
	remap := func(b *ir.BasicBlock) *ir.BasicBlock {
		if b == nil {
			return nil
		}
		if m, ok := blockMap[b]; ok {
			return m
		}
		return b
	}
	c.Target = remap(orig.Target)
	c.FalseTarget = remap(orig.FalseTarget)
	c.TrueTarget = remap(orig.TrueTarget)
	if orig.SwitchTargets != nil {
		c.SwitchTargets = make([]*ir.BasicBlock, len(orig.SwitchTargets))
		for i, t := range orig.SwitchTargets {
			c.SwitchTargets[i] = remap(t)
		}
	}
}

// wireEdges (re)builds b's predecessor edges at every current successor,
// matching the successor fields CloneBlockState/remapTargets just set.
func wireEdges(b *ir.BasicBlock, table *ir.EHTable) {
	b.InvalidateSuccessorCache()
	n := ir.NumSuccessors(b, table)
	for i := 0; i < n; i++ {
		if s := ir.Successor(b, i, table); s != nil {
			ir.AddPredEdge(s, b)
		}
	}
}

// buildConditionChain emits one COND block per surviving condition between
// origPreheader and fastPreheader: each tests the condition's negation, so
// a failed guard branches (TrueTarget) to slowPreheader and a held guard
// falls through (FalseTarget) toward the next condition or the fast
// preheader. Every new block inherits origPreheader's weight and EH
// region. Returns the first block in the chain (or fastPreheader directly
// if there are no conditions).
func buildConditionChain(g *ir.ControlFlowGraph, table *ir.EHTable, origPreheader, fastPreheader, slowPreheader *ir.BasicBlock, conds []Condition, header *ir.BasicBlock) *ir.BasicBlock {
	if len(conds) == 0 {
		return fastPreheader
	}
	blocks := make([]*ir.BasicBlock, len(conds))
	tail := origPreheader
	for i, cond := range conds {
		cb := g.NewBlock(ir.KindCond)
		cb.Weight = origPreheader.Weight
		cb.TryIndex, cb.HandlerIndex = header.TryIndex, header.HandlerIndex
		cb.TrueTarget = slowPreheader
		testNode := &ir.Node{
			Kind:  ir.NodeBinOp,
			RelOp: cond.Op.Negate(),
			Op1:   operandNode(cond.Left),
			Op2:   operandNode(cond.Right),
		}
		cb.Stmts = []*ir.Statement{{Root: testNode}}
		g.InsertAfter(tail, cb)
		blocks[i] = cb
		tail = cb
	}
	for i := 0; i < len(blocks)-1; i++ {
		blocks[i].FalseTarget = blocks[i+1]
	}
	blocks[len(blocks)-1].FalseTarget = fastPreheader
	for _, cb := range blocks {
		wireEdges(cb, table)
	}
	return blocks[0]
}

// applyFastPathOptimizations bashes the bounds checks each candidate
// identified into no-ops on the (now-optimized) original blocks, and marks
// GDV-guarded indirections as non-faulting.
func applyFastPathOptimizations(candidates []Candidate) {
	for _, c := range candidates {
		for _, stmt := range c.BoundsCheckStmts {
			bashBoundsChecks(stmt.Root)
		}
	}
}

func bashBoundsChecks(n *ir.Node) {
	if n == nil {
		return
	}
	if n.Kind == ir.NodeBoundsCheck {
		n.NonFaulting = true
	}
	if n.Kind == ir.NodeIndir {
		n.NonFaulting = true
	}
	bashBoundsChecks(n.Op1)
	bashBoundsChecks(n.Op2)
	for _, c := range n.Children {
		bashBoundsChecks(c)
	}
}
