package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

func oneBlockGraph() (*ir.ControlFlowGraph, *ir.BasicBlock) {
	ids := ir.NewIDGen()
	g := ir.NewControlFlowGraph(ids)
	entry := g.NewBlock(ir.KindReturn)
	g.Entry = entry
	g.InsertAtEnd(entry)
	return g, entry
}

func addDefStmt(g *ir.ControlFlowGraph, b *ir.BasicBlock, local *ir.LocalVar, ssaNum int) *ir.Statement {
	stmt := &ir.Statement{ID: 100 + ssaNum, Root: &ir.Node{Kind: ir.NodeLclVarDef, Lcl: local, SSANum: ssaNum}, Block: b}
	b.Stmts = append(b.Stmts, stmt)
	return stmt
}

func TestValidatorAcceptsMatchingDefBlock(t *testing.T) {
	g, entry := oneBlockGraph()
	local := &ir.LocalVar{ID: 1, TrackedIndex: 0}
	addDefStmt(g, entry, local, 0)
	local.NewLifetime(0, entry)
	g.Locals = append(g.Locals, local)

	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}

func TestValidatorRejectsMismatchedDefBlock(t *testing.T) {
	g, entry := oneBlockGraph()
	other := g.NewBlock(ir.KindReturn)
	g.InsertAfter(entry, other)
	entry.Kind = ir.KindAlways
	entry.Target = other
	ir.AddPredEdge(other, entry)

	local := &ir.LocalVar{ID: 1, TrackedIndex: 0}
	addDefStmt(g, other, local, 0)
	local.NewLifetime(0, entry) // table claims entry, walk finds other

	g.Locals = append(g.Locals, local)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeSSADefBlockMismatch, err.Code)
}

func TestValidatorTreatsParamInitialValueAsTolerated(t *testing.T) {
	g, entry := oneBlockGraph()
	local := &ir.LocalVar{ID: 1, TrackedIndex: 0, IsParam: true}
	local.NewLifetime(0, entry) // no explicit def statement anywhere
	g.Locals = append(g.Locals, local)

	err := New(g, g.EH, "test-pass").Run()
	assert.Nil(t, err)
}

func TestValidatorRejectsDoubleDef(t *testing.T) {
	g, entry := oneBlockGraph()
	other := g.NewBlock(ir.KindReturn)
	g.InsertAfter(entry, other)
	entry.Kind = ir.KindAlways
	entry.Target = other
	ir.AddPredEdge(other, entry)

	local := &ir.LocalVar{ID: 1, TrackedIndex: 0}
	addDefStmt(g, entry, local, 0)
	addDefStmt(g, other, local, 0)
	local.NewLifetime(0, entry)
	g.Locals = append(g.Locals, local)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeSSAMultipleDef, err.Code)
}

func TestValidatorRejectsPhiArityMismatch(t *testing.T) {
	g, entry := oneBlockGraph()
	local := &ir.LocalVar{ID: 1, TrackedIndex: 0}
	phi := &ir.Node{Kind: ir.NodePhi, Children: []*ir.Node{{Kind: ir.NodeLclVar, Lcl: local}}}
	stmt := &ir.Statement{ID: 200, Root: &ir.Node{Kind: ir.NodeLclVarDef, Lcl: local, SSANum: 1, Op1: phi}, Block: entry}
	entry.Stmts = append(entry.Stmts, stmt)
	local.NewLifetime(1, entry)
	g.Locals = append(g.Locals, local)

	err := New(g, g.EH, "test-pass").Run()
	require.NotNil(t, err)
	assert.Equal(t, diag.CodeSSAPhiArgNotPred, err.Code)
}
