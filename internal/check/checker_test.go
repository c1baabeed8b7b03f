package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

func okGraph() (*ir.ControlFlowGraph, *ir.BasicBlock, *ir.BasicBlock) {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)
	entry := g.NewBlock(ir.KindAlways)
	entry.Flags |= ir.FlagImported
	ret := g.NewBlock(ir.KindReturn)
	ret.Flags |= ir.FlagImported

	entry.Target = ret
	ir.AddPredEdge(ret, entry)

	// A second, kept edge into ret, so entry -> ret is not a compactable
	// ALWAYS pair.
	alt := g.NewBlock(ir.KindAlways)
	alt.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	alt.Target = ret
	ir.AddPredEdge(ret, alt)

	g.Entry = entry
	g.InsertAtEnd(entry)
	g.InsertAtEnd(ret)
	g.InsertAtEnd(alt)
	return g, entry, ret
}

// TestUnreachableBlockDetection exercises scenario S6: a block with zero
// predecessors and no do-not-remove flag aborts the compilation.
func TestUnreachableBlockDetection(t *testing.T) {
	g, _, _ := okGraph()
	orphan := g.NewBlock(ir.KindReturn)
	orphan.Flags |= ir.FlagImported
	g.InsertAtEnd(orphan)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeUnreachableBlock, err.Code)
	assert.Equal(t, orphan.ID, err.NodeID)
}

func TestDoNotRemoveExemptsFromReachability(t *testing.T) {
	g, _, _ := okGraph()
	orphan := g.NewBlock(ir.KindReturn)
	orphan.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	g.InsertAtEnd(orphan)

	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}

func TestEmptyBlockDisallowedKind(t *testing.T) {
	g, entry, ret := okGraph()
	cond := g.NewBlock(ir.KindCond)
	cond.Flags |= ir.FlagImported
	cond.TrueTarget = ret
	cond.FalseTarget = entry
	ir.AddPredEdge(ret, cond)
	ir.AddPredEdge(entry, cond)
	g.InsertAtEnd(cond)
	src := g.NewBlock(ir.KindAlways)
	src.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	src.Target = cond
	ir.AddPredEdge(cond, src)
	g.InsertAtEnd(src)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeIllegalEmptyBlock, err.Code)
}

func TestRedundantCondDetected(t *testing.T) {
	g, _, ret := okGraph()
	cond := g.NewBlock(ir.KindCond)
	cond.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	cond.Stmts = []*ir.Statement{{ID: 999}}
	cond.TrueTarget = ret
	cond.FalseTarget = ret
	ir.AddPredEdge(ret, cond)
	g.InsertAtEnd(cond)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeRedundantCond, err.Code)
}

func TestCallFinallyMustBePaired(t *testing.T) {
	g, _, ret := okGraph()
	cf := g.NewBlock(ir.KindCallFinally)
	cf.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	cf.Target = ret
	ir.AddPredEdge(ret, cf)
	g.InsertAtEnd(cf)
	// No CALLFINALLYRET follows.

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeCallFinallyUnpaired, err.Code)
}

func TestValidGraphPasses(t *testing.T) {
	g, _, _ := okGraph()
	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}

func TestDuplicateIDDetected(t *testing.T) {
	g, entry, _ := okGraph()
	dup := ir.NewBasicBlock(entry.ID, ir.KindReturn)
	dup.Flags |= ir.FlagImported | ir.FlagDoNotRemove
	g.Blocks = append(g.Blocks, dup)
	g.InsertAtEnd(dup)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeDuplicateID, err.Code)
}

// buildCallFinallyEHGraph builds entry -> cond -(true)-> cf -> finallyEntry
// and cond -(false)-> retNormal, with cf a paired CALLFINALLY/CALLFINALLYRET
// invoking the finally of region 0. callerTryIndex is stamped onto cond,
// and tryFirst is the block the test wants region.TryFirst() to report.
func buildCallFinallyEHGraph(callerTryIndex int, cfIsTryFirst bool) *ir.ControlFlowGraph {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)

	entry := g.NewBlock(ir.KindAlways)
	altEntry := g.NewBlock(ir.KindAlways) // second edge into cond, so it is not a compactable singleton
	cond := g.NewBlock(ir.KindCond)
	cf := g.NewBlock(ir.KindCallFinally)
	cfret := g.NewBlock(ir.KindCallFinallyRet)
	finallyEntry := g.NewBlock(ir.KindReturn)
	retNormal := g.NewBlock(ir.KindReturn)
	tryBody := g.NewBlock(ir.KindReturn)
	tryBody.Flags |= ir.FlagDoNotRemove // unreferenced placeholder for the try range
	altEntry.Flags |= ir.FlagDoNotRemove
	cfret.Flags |= ir.FlagDoNotRemove // no modeled finally-return edge back to it in this fixture

	for _, b := range []*ir.BasicBlock{entry, altEntry, cond, cf, cfret, finallyEntry, retNormal, tryBody} {
		b.Flags |= ir.FlagImported
	}

	entry.Target = cond
	altEntry.Target = cond
	cond.Stmts = []*ir.Statement{{ID: 100}}
	cond.TryIndex = callerTryIndex
	cond.TrueTarget = cf
	cond.FalseTarget = retNormal
	cf.Target = finallyEntry
	cf.HandlerIndex = 0
	cfret.Target = retNormal

	ir.AddPredEdge(cond, entry)
	ir.AddPredEdge(cond, altEntry)
	ir.AddPredEdge(cf, cond)
	ir.AddPredEdge(retNormal, cond)
	ir.AddPredEdge(finallyEntry, cf)
	ir.AddPredEdge(retNormal, cfret)

	g.Entry = entry
	for _, b := range []*ir.BasicBlock{entry, altEntry, cond, cf, cfret, finallyEntry, retNormal, tryBody} {
		g.InsertAtEnd(b)
	}

	tryFirst := tryBody
	if cfIsTryFirst {
		tryFirst = cf
	}
	g.EH.Regions = []*ir.EHRegion{
		{
			Index:             0,
			TryRanges:         []ir.BlockRange{{First: tryFirst, Last: tryFirst}},
			Handler:           ir.BlockRange{First: finallyEntry, Last: finallyEntry},
			Kind:              ir.HandlerFinally,
			EnclosingTryIndex: -1,
		},
	}
	return g
}

func TestEHBoundaryViolationFromOutsideTry(t *testing.T) {
	g := buildCallFinallyEHGraph(-1, false)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeEHBoundaryViolation, err.Code)
}

func TestEHBoundaryAllowsCallFromOwnTryRegion(t *testing.T) {
	g := buildCallFinallyEHGraph(0, false)

	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}

func TestEHBoundaryExemptsTryFirstCallFinally(t *testing.T) {
	g := buildCallFinallyEHGraph(-1, true)

	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}
