package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/diag"
	"jitcore/internal/flow"
	"jitcore/internal/ir"
	"jitcore/internal/loop"
)

// buildJaggedLoop builds preheader -> header <-> body -> exit, the shape
// scenario "jagged-array cloning" needs, with one statement per body block
// reading a[i][j][k].
func buildJaggedLoop(t *testing.T, bodyStmtCount int) (*ir.ControlFlowGraph, *ir.IDGen, *loop.NaturalLoop, *ir.LocalVar, *ir.LocalVar, *ir.LocalVar, *ir.LocalVar) {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)

	entry := g.NewBlock(ir.KindAlways)
	preheader := g.NewBlock(ir.KindAlways)
	header := g.NewBlock(ir.KindCond)
	body := g.NewBlock(ir.KindAlways)
	exit := g.NewBlock(ir.KindReturn)

	entry.Target = preheader
	preheader.Target = header
	header.TrueTarget = body
	header.FalseTarget = exit
	body.Target = header

	ir.AddPredEdge(preheader, entry)
	ir.AddPredEdge(header, preheader)
	ir.AddPredEdge(body, header)
	ir.AddPredEdge(header, body)
	ir.AddPredEdge(exit, header)

	g.Entry = entry
	for _, b := range []*ir.BasicBlock{entry, preheader, header, body, exit} {
		g.InsertAtEnd(b)
	}

	for i := 0; i < bodyStmtCount; i++ {
		body.Stmts = append(body.Stmts, &ir.Statement{ID: ids.Next(), Root: &ir.Node{Kind: ir.NodeConst, ConstVal: int64(i)}})
	}

	a := &ir.LocalVar{ID: 1, Name: "a"}
	arrI := &ir.LocalVar{ID: 2, Name: "a_i"}
	arrIJ := &ir.LocalVar{ID: 3, Name: "a_i_j"}
	k := &ir.LocalVar{ID: 4, Name: "k"}

	boundsStmt := &ir.Statement{ID: ids.Next(), Root: &ir.Node{Kind: ir.NodeBoundsCheck, Op1: &ir.Node{Kind: ir.NodeLclVar, Lcl: k}, Op2: &ir.Node{Kind: ir.NodeArrayLen, Op1: &ir.Node{Kind: ir.NodeLclVar, Lcl: arrIJ}}}}
	body.Stmts = append(body.Stmts, boundsStmt)

	res := flow.BuildDFS(g, g.EH, flow.Callbacks{})
	dom := flow.BuildDominatorTree(g, g.EH, res.RPO, 0)
	forest := loop.Discover(g, g.EH, res.RPO, dom)
	require.Len(t, forest.Loops, 1)
	l := forest.Loops[0]
	loop.Canonicalize(l, g.EH)

	return g, ids, l, a, arrI, arrIJ, k
}

func jaggedCandidate(a, arrI, arrIJ, k *ir.LocalVar, boundsStmt *ir.Statement) Candidate {
	return Candidate{
		Kind: KindJaggedArray,
		Dims: []DimAccess{
			{Base: a, Index: arrI},
			{Base: arrI, Index: arrIJ},
			{Base: arrIJ, Index: k},
		},
		BoundsCheckStmts: []*ir.Statement{boundsStmt},
		Complexity:       3,
	}
}

func TestCloneSucceedsForJaggedArray(t *testing.T) {
	g, ids, l, a, arrI, arrIJ, k := buildJaggedLoop(t, 2)
	var bcStmt *ir.Statement
	for b := range l.Blocks {
		for _, s := range b.Stmts {
			if s.Root.Kind == ir.NodeBoundsCheck {
				bcStmt = s
			}
		}
	}
	require.NotNil(t, bcStmt)

	cand := jaggedCandidate(a, arrI, arrIJ, k, bcStmt)
	sink := diag.NewSink()
	cloner := TreeCloner{NextID: ids.Next}

	result, ok := Clone(g, g.EH, l, []Candidate{cand}, cloner, DefaultOptions(), sink)
	require.True(t, ok)
	require.NotNil(t, result)
	assert.Empty(t, sink.All())
	assert.NotNil(t, result.ClonedHeader)
	assert.NotNil(t, result.SlowPreheader)
	assert.NotNil(t, result.FastPreheader)
	assert.True(t, bcStmt.Root.NonFaulting)
	assert.False(t, g.PgoConsistent)
	assert.NotEmpty(t, result.Conditions)

	for b := g.FirstBlock; b != nil; b = b.Next {
		if b.Kind != ir.KindCond || len(b.Stmts) == 0 || b.Stmts[0].Root.Kind != ir.NodeBinOp {
			continue
		}
		test := b.Stmts[0].Root
		require.NotNil(t, test.Op1, "synthesized guard test at block %d has no left operand", b.ID)
		require.NotNil(t, test.Op2, "synthesized guard test at block %d has no right operand", b.ID)
	}
}

func TestCloneRejectedForSizeLimit(t *testing.T) {
	g, ids, l, a, arrI, arrIJ, k := buildJaggedLoop(t, 200)
	var bcStmt *ir.Statement
	for b := range l.Blocks {
		for _, s := range b.Stmts {
			if s.Root.Kind == ir.NodeBoundsCheck {
				bcStmt = s
			}
		}
	}
	require.NotNil(t, bcStmt)

	cand := jaggedCandidate(a, arrI, arrIJ, k, bcStmt)
	cand.Complexity = 1000
	sink := diag.NewSink()
	cloner := TreeCloner{NextID: ids.Next}

	result, ok := Clone(g, g.EH, l, []Candidate{cand}, cloner, DefaultOptions(), sink)
	assert.False(t, ok)
	assert.Nil(t, result)
	require.Len(t, sink.All(), 1)
	assert.Equal(t, diag.DeclineCloneSizeLimit, sink.All()[0].Code)
}

func TestSimplifyAbandonsOnStaticFalse(t *testing.T) {
	x := localOperand(&ir.LocalVar{ID: 1, Name: "x"})
	conds := []Condition{{Op: ir.RelNE, Left: x, Right: x}}
	_, ok := Simplify(conds)
	assert.False(t, ok)
}

func TestSimplifyElidesStaticTrue(t *testing.T) {
	x := localOperand(&ir.LocalVar{ID: 1, Name: "x"})
	i := localOperand(&ir.LocalVar{ID: 2, Name: "i"})
	n := localOperand(&ir.LocalVar{ID: 3, Name: "n"})
	conds := []Condition{{Op: ir.RelEQ, Left: x, Right: x}, {Op: ir.RelLT, Left: i, Right: n}}
	out, ok := Simplify(conds)
	require.True(t, ok)
	assert.Len(t, out, 1)
	assert.Equal(t, i, out[0].Left)
}

func TestSimplifyCombinesReversedDuplicate(t *testing.T) {
	i := localOperand(&ir.LocalVar{ID: 1, Name: "i"})
	n := localOperand(&ir.LocalVar{ID: 2, Name: "n"})
	conds := []Condition{
		{Op: ir.RelLT, Left: i, Right: n},
		{Op: ir.RelGT, Left: n, Right: i},
	}
	out, ok := Simplify(conds)
	require.True(t, ok)
	assert.Len(t, out, 1)
}

func TestBuildDerefTreeRejectsTooDeep(t *testing.T) {
	cand := Candidate{Dims: []DimAccess{{}, {}, {}, {}}}
	_, ok := BuildDerefTree(cand, 3)
	assert.False(t, ok)
}
