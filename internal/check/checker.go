// Package check implements the flowgraph consistency checker: a debug
// pass run between other passes that verifies the dense set of structural
// invariants a well-formed graph must hold. On any failure it returns a
// *diag.FatalError naming the violated invariant, the offending node, and
// the pass under which the check ran; there is no recovery path.
package check

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

var allowedEmptyKinds = map[ir.BranchKind]bool{
	ir.KindCallFinally:    true,
	ir.KindEHFinallyRet:   true,
	ir.KindEHFaultRet:     true,
	ir.KindEHFilterRet:    true,
	ir.KindReturn:         true,
	ir.KindAlways:         true,
	ir.KindEHCatchRet:     true,
}

// Checker runs the full invariant battery against g under table, naming
// pass in any diagnostic it produces.
type Checker struct {
	Graph *ir.ControlFlowGraph
	Table *ir.EHTable
	Pass  string
}

func New(g *ir.ControlFlowGraph, table *ir.EHTable, pass string) *Checker {
	return &Checker{Graph: g, Table: table, Pass: pass}
}

func (c *Checker) fatal(code, kind string, id int, detail string) *diag.FatalError {
	return diag.NewFatal(code, c.Pass, kind, id, detail)
}

// Run executes every check in order, returning the first
// violation found, or nil if g is consistent.
func (c *Checker) Run() *diag.FatalError {
	if err := c.checkReachability(); err != nil {
		return err
	}
	if err := c.checkEmptiness(); err != nil {
		return err
	}
	if err := c.checkImportComplete(); err != nil {
		return err
	}
	if err := c.checkCompactability(); err != nil {
		return err
	}
	if err := c.checkCondRedundancy(); err != nil {
		return err
	}
	if err := c.checkCallFinallyPairing(); err != nil {
		return err
	}
	if err := c.checkPredecessorConsistency(); err != nil {
		return err
	}
	if err := c.checkUniqueIDs(); err != nil {
		return err
	}
	if err := c.checkStatementLinks(); err != nil {
		return err
	}
	if err := c.checkPredListOrder(); err != nil {
		return err
	}
	if err := c.checkEHBoundary(); err != nil {
		return err
	}
	return nil
}

// checkReachability verifies every block other than the entry has at least
// one predecessor unless it is flagged do-not-remove. Blocks that only
// reach each other (an unreachable cycle) are not detected.
func (c *Checker) checkReachability() *diag.FatalError {
	for i, b := range c.Graph.Blocks {
		if b == c.Graph.Entry {
			continue
		}
		if len(b.Preds) > 0 || b.Flags.Has(ir.FlagDoNotRemove) {
			continue
		}
		_ = i
		return c.fatal(diag.CodeUnreachableBlock, "block", b.ID, "unreachable block not removed")
	}
	return nil
}

// checkEmptiness verifies every empty block either has a kind listed in
// allowedEmptyKinds or is flagged do-not-remove.
func (c *Checker) checkEmptiness() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if !ir.IsEmpty(b) {
			continue
		}
		if allowedEmptyKinds[b.Kind] || b.Flags.Has(ir.FlagDoNotRemove) {
			continue
		}
		return c.fatal(diag.CodeIllegalEmptyBlock, "block", b.ID, fmt.Sprintf("empty block of kind %s is not allowed to be empty", b.Kind))
	}
	return nil
}

// checkImportComplete verifies every non-internal block has been
// claimed by the importer.
func (c *Checker) checkImportComplete() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if b.Flags.Has(ir.FlagInternal) {
			continue
		}
		if !b.Flags.Has(ir.FlagImported) {
			return c.fatal(diag.CodeNotImported, "block", b.ID, "non-internal block missing imported flag")
		}
	}
	return nil
}

// checkCompactability verifies no ALWAYS-edge pair remains that should
// have been merged into a single block.
func (c *Checker) checkCompactability() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if b.Kind != ir.KindAlways || b.Target == nil {
			continue
		}
		target := b.Target
		if len(target.Preds) == 1 && target.Preds[0].Source == b && target.Preds[0].DupCount == 1 {
			return c.fatal(diag.CodeCompactableEdge, "block", b.ID, fmt.Sprintf("should have been merged with block %d", target.ID))
		}
	}
	return nil
}

// checkCondRedundancy verifies no COND block branches to the same
// target on both arms.
func (c *Checker) checkCondRedundancy() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if b.Kind == ir.KindCond && b.TrueTarget == b.FalseTarget && b.TrueTarget != nil {
			return c.fatal(diag.CodeRedundantCond, "block", b.ID, "COND block has identical true/false targets")
		}
	}
	return nil
}

// checkCallFinallyPairing verifies every CALLFINALLY block is
// immediately followed in the lexical list by its CALLFINALLYRET.
func (c *Checker) checkCallFinallyPairing() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if b.Kind != ir.KindCallFinally || b.Flags.Has(ir.FlagRetless) {
			continue
		}
		next := b.Next
		if next == nil {
			return c.fatal(diag.CodeCallFinallyUnpaired, "block", b.ID, "non-retless CALLFINALLY has no following block")
		}
		pairedKind := next.Kind == ir.KindCallFinallyRet ||
			(next.Kind == ir.KindAlways && next.Flags.Has(ir.FlagKeepAlwaysAsCallFinallyRet))
		if !pairedKind || !ir.IsEmpty(next) {
			return c.fatal(diag.CodeCallFinallyUnpaired, "block", b.ID, "CALLFINALLY not immediately followed by an empty CALLFINALLYRET")
		}
	}
	return nil
}

// checkPredecessorConsistency verifies every predecessor edge is
// mirrored by a matching successor on the source block.
func (c *Checker) checkPredecessorConsistency() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		for _, e := range b.Preds {
			if !listsAsSuccessor(e.Source, b, c.Table) {
				return c.fatal(diag.CodePredecessorMismatch, "edge", b.ID, fmt.Sprintf("block %d does not list block %d among its successors", e.Source.ID, b.ID))
			}
		}
	}
	return nil
}

func listsAsSuccessor(src, dst *ir.BasicBlock, table *ir.EHTable) bool {
	n := ir.NumSuccessors(src, table)
	for i := 0; i < n; i++ {
		if ir.Successor(src, i, table) == dst {
			return true
		}
	}
	return false
}

// checkUniqueIDs verifies no two blocks or statements share an id.
func (c *Checker) checkUniqueIDs() *diag.FatalError {
	seen := ir.NewSeen()
	for _, b := range c.Graph.Blocks {
		if prev, dup := seen.Mark(b.ID, "block"); dup {
			return c.fatal(diag.CodeDuplicateID, "block", b.ID, fmt.Sprintf("id already used by a %s", prev))
		}
		for _, stmt := range b.Stmts {
			if prev, dup := seen.Mark(stmt.ID, "statement"); dup {
				return c.fatal(diag.CodeDuplicateID, "statement", stmt.ID, fmt.Sprintf("id already used by a %s", prev))
			}
		}
	}
	return nil
}

// checkStatementLinks verifies the Prev chain within a non-linear
// block matches statement list order.
func (c *Checker) checkStatementLinks() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		if b.IsLinear {
			continue
		}
		var prev *ir.Statement
		for _, stmt := range b.Stmts {
			if stmt.Prev != prev {
				return c.fatal(diag.CodeTreeStructural, "statement", stmt.ID, "prev link does not match list order")
			}
			prev = stmt
		}
	}
	return nil
}

// checkPredListOrder verifies each block's predecessor list is sorted
// by source block id.
func (c *Checker) checkPredListOrder() *diag.FatalError {
	for _, b := range c.Graph.Blocks {
		for i := 1; i < len(b.Preds); i++ {
			if b.Preds[i-1].Source.ID > b.Preds[i].Source.ID {
				return c.fatal(diag.CodePredListOrder, "block", b.ID, "predecessor list not sorted by source id")
			}
		}
	}
	return nil
}

// checkEHBoundary verifies that every branch or fall-through targeting a
// CALLFINALLY block originates from the try region protected by the
// finally it invokes, or from a region nested inside it — the one
// exception being a branch to a CALLFINALLY that is itself the first
// block of its try, which by construction can be reached from outside.
// This is an importer invariant, not an accident of later optimization:
// relaxing it would let a flow rewrite skip live blocks inside a try and
// branch straight to its CALLFINALLY.
func (c *Checker) checkEHBoundary() *diag.FatalError {
	if len(c.Table.Regions) == 0 {
		return nil
	}
	ir.BuildNestingIntervals(c.Table)
	for _, b := range c.Graph.Blocks {
		n := ir.NumSuccessors(b, c.Table)
		for i := 0; i < n; i++ {
			succ := ir.Successor(b, i, c.Table)
			if succ == nil || succ.Kind != ir.KindCallFinally {
				continue
			}
			if succ.HandlerIndex < 0 || succ.HandlerIndex >= len(c.Table.Regions) {
				continue
			}
			region := c.Table.Regions[succ.HandlerIndex]
			if region.TryFirst() == succ {
				continue
			}
			if b.TryIndex < 0 || !ir.RegionContains(succ.HandlerIndex, b.TryIndex, c.Table) {
				return c.fatal(diag.CodeEHBoundaryViolation, "block", b.ID,
					fmt.Sprintf("branches to call-finally block %d from outside the try region it serves", succ.ID))
			}
		}
	}
	return nil
}
