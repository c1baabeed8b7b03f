package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blk(id int) *BasicBlock { return NewBasicBlock(id, KindNone) }

func TestHandlerKindString(t *testing.T) {
	assert.Equal(t, "catch", HandlerCatch.String())
	assert.Equal(t, "filter", HandlerFilter.String())
	assert.Equal(t, "fault", HandlerFault.String())
	assert.Equal(t, "finally", HandlerFinally.String())
	assert.Equal(t, HandlerFinally.String(), HandlerFinally.Key())
	assert.Equal(t, "unknown", HandlerKind(999).String())
}

func TestRegionContainsNesting(t *testing.T) {
	table := &EHTable{
		Regions: []*EHRegion{
			{Index: 0, EnclosingTryIndex: -1},
			{Index: 1, EnclosingTryIndex: 0},
			{Index: 2, EnclosingTryIndex: 1},
			{Index: 3, EnclosingTryIndex: -1},
		},
	}
	BuildNestingIntervals(table)

	assert.True(t, RegionContains(0, 1, table))
	assert.True(t, RegionContains(0, 2, table))
	assert.True(t, RegionContains(1, 2, table))
	assert.False(t, RegionContains(2, 1, table))
	assert.False(t, RegionContains(0, 3, table))
	assert.False(t, RegionContains(3, 0, table))
}

func TestInsertRegionNestingAndSiblings(t *testing.T) {
	root := &RegionGraphNode{First: 0, Last: 100}

	outer := &EHRegion{Index: 0}
	require.NoError(t, InsertRegion(root, outer, 10, 50))

	inner := &EHRegion{Index: 1}
	require.NoError(t, InsertRegion(root, inner, 20, 30))

	sibling := &EHRegion{Index: 2}
	require.NoError(t, InsertRegion(root, sibling, 60, 70))

	require.NoError(t, VerifyRegionGraph(root))
	require.Len(t, root.Children, 2)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, inner, root.Children[0].Children[0].Region)
}

func TestInsertRegionRejectsCrossing(t *testing.T) {
	root := &RegionGraphNode{First: 0, Last: 100}
	a := &EHRegion{Index: 0}
	require.NoError(t, InsertRegion(root, a, 10, 30))

	b := &EHRegion{Index: 1}
	err := InsertRegion(root, b, 20, 40)
	assert.Error(t, err)
}

func TestAugmentedPredecessorsMemoization(t *testing.T) {
	tryFirst := blk(1)
	outside := blk(2)
	AddPredEdge(tryFirst, outside)
	tryFirst.TryIndex = 0
	tryFirst.HandlerIndex = -1

	raiser := blk(3)
	raiser.TryIndex = 0

	table := &EHTable{Regions: []*EHRegion{{
		Index:     0,
		TryRanges: []BlockRange{{First: tryFirst, Last: raiser}},
	}}}
	tryFirst.Next = raiser
	raiser.Prev = tryFirst

	canRaise := func(b *BasicBlock) bool { return b == raiser }

	preds := AugmentedPredecessors(tryFirst, table, canRaise, 0)
	assert.Contains(t, preds, outside)
	assert.Contains(t, preds, raiser)

	// Memoized: a second call without invalidation returns the same slice.
	again := AugmentedPredecessors(tryFirst, table, canRaise, 0)
	assert.Equal(t, preds, again)

	InvalidateEHPredCache(&ControlFlowGraph{Blocks: []*BasicBlock{tryFirst}})
	assert.False(t, tryFirst.ehAugPredCacheValid)
}
