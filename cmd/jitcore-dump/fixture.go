package main

import (
	"jitcore/internal/ir"
)

// method bundles a synthetic compilation unit: the graph, its locals, and
// the pre-extracted facts the mid-end's narrow-interface passes (loop
// iteration analysis, the loop cloner, escape analysis) take in place of
// walking an expression tree themselves.
type method struct {
	Graph *ir.ControlFlowGraph
	IDs   *ir.IDGen

	Preheader, Header, Body, Exit *ir.BasicBlock

	InductionVar *ir.LocalVar
	ArrayA       *ir.LocalVar
	ArrayAI      *ir.LocalVar
	ArrayAIJ     *ir.LocalVar
	IndexK       *ir.LocalVar

	NonEscaping *ir.LocalVar // allocated in Preheader, used only locally
	Escaping    *ir.LocalVar // allocated in Exit, returned

	BoundsCheckStmt *ir.Statement
}

// buildFixture constructs a single-loop method: a jagged 3-D array walk
// (a[i][j][k]) that is a clone candidate, a preheader allocation that
// never escapes, and an exit-block allocation that escapes by being
// returned, so every pipeline stage has something to report.
func buildFixture() *method {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)

	preheader := g.NewBlock(ir.KindAlways)
	header := g.NewBlock(ir.KindCond)
	body := g.NewBlock(ir.KindAlways)
	exit := g.NewBlock(ir.KindReturn)

	for _, b := range []*ir.BasicBlock{preheader, header, body, exit} {
		b.Flags |= ir.FlagImported
	}

	preheader.Target = header
	header.TrueTarget = body
	header.FalseTarget = exit
	body.Target = header

	ir.AddPredEdge(header, preheader)
	ir.AddPredEdge(body, header)
	ir.AddPredEdge(header, body)
	ir.AddPredEdge(exit, header)

	g.Entry = preheader
	for _, b := range []*ir.BasicBlock{preheader, header, body, exit} {
		g.InsertAtEnd(b)
	}

	iv := &ir.LocalVar{ID: 1, Name: "i"}
	a := &ir.LocalVar{ID: 2, Name: "a"}
	aI := &ir.LocalVar{ID: 3, Name: "a_i"}
	aIJ := &ir.LocalVar{ID: 4, Name: "a_i_j"}
	k := &ir.LocalVar{ID: 5, Name: "k"}
	nonEscaping := &ir.LocalVar{ID: 6, Name: "point", TrackedIndex: 0}
	escaping := &ir.LocalVar{ID: 7, Name: "boxed", TrackedIndex: 1}
	g.Locals = []*ir.LocalVar{iv, a, aI, aIJ, k, nonEscaping, escaping}

	pointClass := &ir.ClassHandle{ID: 1, Name: "Point", Exact: true}

	allocStmt := &ir.Statement{ID: ids.Next(), Block: preheader, Root: &ir.Node{
		Kind: ir.NodeLclVarDef,
		Lcl:  nonEscaping,
		Op1:  &ir.Node{Kind: ir.NodeAllocObj, ClassHandle: pointClass},
	}}
	preheader.Stmts = []*ir.Statement{allocStmt}
	linkStatements(preheader)

	testStmt := &ir.Statement{ID: ids.Next(), Block: header, Root: &ir.Node{
		Kind:  ir.NodeBinOp,
		RelOp: ir.RelLT,
		Op1:   &ir.Node{Kind: ir.NodeLclVar, Lcl: iv},
		Op2:   &ir.Node{Kind: ir.NodeLclVar, Lcl: a},
	}}
	header.Stmts = []*ir.Statement{testStmt}
	linkStatements(header)

	boundsStmt := &ir.Statement{ID: ids.Next(), Block: body, Root: &ir.Node{
		Kind: ir.NodeBoundsCheck,
		Op1:  &ir.Node{Kind: ir.NodeLclVar, Lcl: k},
		Op2:  &ir.Node{Kind: ir.NodeArrayLen, Op1: &ir.Node{Kind: ir.NodeLclVar, Lcl: aIJ}},
	}}
	body.Stmts = []*ir.Statement{boundsStmt}
	linkStatements(body)

	escapeAllocStmt := &ir.Statement{ID: ids.Next(), Block: exit, Root: &ir.Node{
		Kind: ir.NodeLclVarDef,
		Lcl:  escaping,
		Op1:  &ir.Node{Kind: ir.NodeAllocObj, ClassHandle: pointClass},
	}}
	returnStmt := &ir.Statement{ID: ids.Next(), Block: exit, Root: &ir.Node{
		Kind: ir.NodeReturn,
		Op1:  &ir.Node{Kind: ir.NodeLclVar, Lcl: escaping},
	}}
	exit.Stmts = []*ir.Statement{escapeAllocStmt, returnStmt}
	linkStatements(exit)

	return &method{
		Graph:           g,
		IDs:             ids,
		Preheader:       preheader,
		Header:          header,
		Body:            body,
		Exit:            exit,
		InductionVar:    iv,
		ArrayA:          a,
		ArrayAI:         aI,
		ArrayAIJ:        aIJ,
		IndexK:          k,
		NonEscaping:     nonEscaping,
		Escaping:        escaping,
		BoundsCheckStmt: boundsStmt,
	}
}

func linkStatements(b *ir.BasicBlock) {
	var prev *ir.Statement
	for _, s := range b.Stmts {
		s.Prev = prev
		if prev != nil {
			prev.Next = s
		}
		prev = s
	}
}
