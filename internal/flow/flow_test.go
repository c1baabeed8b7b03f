package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/ir"
)

// buildDiamond builds entry -> (left, right) -> join -> ret, a standard
// diamond CFG used to exercise both DFS reachability and dominance.
func buildDiamond() (*ir.ControlFlowGraph, map[string]*ir.BasicBlock) {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)

	entry := g.NewBlock(ir.KindCond)
	left := g.NewBlock(ir.KindAlways)
	right := g.NewBlock(ir.KindAlways)
	join := g.NewBlock(ir.KindReturn)

	entry.TrueTarget = left
	entry.FalseTarget = right
	left.Target = join
	right.Target = join

	ir.AddPredEdge(left, entry)
	ir.AddPredEdge(right, entry)
	ir.AddPredEdge(join, left)
	ir.AddPredEdge(join, right)

	g.Entry = entry
	g.InsertAtEnd(entry)
	g.InsertAtEnd(left)
	g.InsertAtEnd(right)
	g.InsertAtEnd(join)

	return g, map[string]*ir.BasicBlock{"entry": entry, "left": left, "right": right, "join": join}
}

func TestBuildDFSReachabilityAndRPO(t *testing.T) {
	g, b := buildDiamond()
	unreachable := g.NewBlock(ir.KindReturn)

	res := BuildDFS(g, g.EH, Callbacks{})

	assert.True(t, Reachable(b["entry"]))
	assert.True(t, Reachable(b["join"]))
	assert.False(t, Reachable(unreachable))
	require.Equal(t, b["entry"], res.RPO[0])
	assert.Equal(t, b["join"], res.RPO[len(res.RPO)-1])
}

func TestDominatorTreeDiamond(t *testing.T) {
	g, b := buildDiamond()
	res := BuildDFS(g, g.EH, Callbacks{})
	tree := BuildDominatorTree(g, g.EH, res.RPO, 0)

	assert.True(t, tree.Dominates(b["entry"], b["join"]))
	assert.True(t, tree.Dominates(b["entry"], b["left"]))
	assert.False(t, tree.Dominates(b["left"], b["join"]))
	assert.False(t, tree.Dominates(b["right"], b["join"]))
	assert.Equal(t, b["entry"], tree.IDom(b["join"]))
	assert.True(t, tree.Dominates(b["entry"], b["entry"]))
	assert.False(t, tree.StrictlyDominates(b["entry"], b["entry"]))
}

func TestBackEdgeCallback(t *testing.T) {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)
	header := g.NewBlock(ir.KindCond)
	body := g.NewBlock(ir.KindAlways)
	exit := g.NewBlock(ir.KindReturn)

	header.TrueTarget = body
	header.FalseTarget = exit
	body.Target = header

	ir.AddPredEdge(body, header)
	ir.AddPredEdge(header, body)
	ir.AddPredEdge(exit, header)

	g.Entry = header
	g.InsertAtEnd(header)
	g.InsertAtEnd(body)
	g.InsertAtEnd(exit)

	var backEdges [][2]*ir.BasicBlock
	BuildDFS(g, g.EH, Callbacks{BackEdge: func(from, to *ir.BasicBlock) {
		backEdges = append(backEdges, [2]*ir.BasicBlock{from, to})
	}})

	require.Len(t, backEdges, 1)
	assert.Equal(t, body, backEdges[0][0])
	assert.Equal(t, header, backEdges[0][1])
}
