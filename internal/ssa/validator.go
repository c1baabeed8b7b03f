// Package ssa validates already-built SSA form against a method's per-local
// tables. It does not construct SSA; a method's SSA is considered valid
// from the point some upstream builder sets Compiler.SSAValid until the
// next structural change invalidates it, and this package's job is only to
// catch a builder or a careless pass leaving that claim untrue.
package ssa

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/flow"
	"jitcore/internal/ir"
)

// Validator cross-checks tracked locals' SSA lifetimes against a DFS walk
// of g, naming pass in any diagnostic it produces.
type Validator struct {
	Graph *ir.ControlFlowGraph
	Table *ir.EHTable
	Pass  string
}

func New(g *ir.ControlFlowGraph, table *ir.EHTable, pass string) *Validator {
	return &Validator{Graph: g, Table: table, Pass: pass}
}

func (v *Validator) fatal(code, kind string, id int, detail string) *diag.FatalError {
	return diag.NewFatal(code, v.Pass, kind, id, detail)
}

type defKey struct {
	local  *ir.LocalVar
	ssaNum int
}

// Run checks every tracked local's SSA lifetimes in turn: at most one def
// block per (local, SSA number), a phi's argument count matching its
// block's live predecessor count, and a def block that matches a DFS walk
// of the defining statements modulo the parameter/OSR initial-value
// tolerance (a walker finds no explicit def for SSA number 0 of a
// parameter or OSR local; the per-local table instead names the entry
// block).
func (v *Validator) Run() *diag.FatalError {
	flow.BuildDFS(v.Graph, v.Table, flow.Callbacks{})

	defBlockOf := make(map[defKey]*ir.BasicBlock)
	for _, b := range v.Graph.Blocks {
		if !b.Reachable {
			continue
		}
		for _, stmt := range b.Stmts {
			if err := v.collectDefs(stmt.Root, b, defBlockOf); err != nil {
				return err
			}
		}
	}

	for _, local := range v.Graph.Locals {
		if local.TrackedIndex < 0 {
			continue
		}
		for ssaNum, lt := range local.SSALifetimes {
			if lt == nil {
				continue
			}
			if err := v.checkLifetime(local, ssaNum, lt, defBlockOf); err != nil {
				return err
			}
		}
	}

	return v.checkPhiArity()
}

// collectDefs walks one statement's expression tree recording every SSA
// def site it finds, and flags a tracked local defined in two different
// blocks.
func (v *Validator) collectDefs(n *ir.Node, b *ir.BasicBlock, defBlockOf map[defKey]*ir.BasicBlock) *diag.FatalError {
	if n == nil {
		return nil
	}
	if n.Kind == ir.NodeLclVarDef && n.Lcl != nil && n.Lcl.TrackedIndex >= 0 {
		k := defKey{n.Lcl, n.SSANum}
		if prev, ok := defBlockOf[k]; ok && prev != b {
			return v.fatal(diag.CodeSSAMultipleDef, "local", n.Lcl.ID,
				fmt.Sprintf("ssa number %d of local %d defined in both block %d and block %d", n.SSANum, n.Lcl.ID, prev.ID, b.ID))
		}
		defBlockOf[k] = b
	}
	if err := v.collectDefs(n.Op1, b, defBlockOf); err != nil {
		return err
	}
	if err := v.collectDefs(n.Op2, b, defBlockOf); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := v.collectDefs(c, b, defBlockOf); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkLifetime(local *ir.LocalVar, ssaNum int, lt *ir.SSALifetime, defBlockOf map[defKey]*ir.BasicBlock) *diag.FatalError {
	walked, found := defBlockOf[defKey{local, ssaNum}]
	if !found {
		if ssaNum == 0 && (local.IsParam || local.IsOSR) {
			return nil
		}
		return v.fatal(diag.CodeSSADefBlockMismatch, "local", local.ID,
			fmt.Sprintf("ssa number %d recorded in the per-local table but no def found by the walk", ssaNum))
	}
	if lt.DefBlock != walked {
		return v.fatal(diag.CodeSSADefBlockMismatch, "local", local.ID,
			fmt.Sprintf("ssa number %d table says def block %d, walk found block %d", ssaNum, lt.DefBlock.ID, walked.ID))
	}
	return nil
}

// checkPhiArity verifies every phi node's argument count equals its
// block's live predecessor count: one argument per incoming edge, no more
// and no fewer, which is what "phi arguments are actual predecessors"
// reduces to given that a phi's Children are built positionally over
// block.Preds.
func (v *Validator) checkPhiArity() *diag.FatalError {
	for _, b := range v.Graph.Blocks {
		if !b.Reachable {
			continue
		}
		for _, stmt := range b.Stmts {
			if err := v.checkPhiArityNode(stmt.Root, b, stmt.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Validator) checkPhiArityNode(n *ir.Node, b *ir.BasicBlock, stmtID int) *diag.FatalError {
	if n == nil {
		return nil
	}
	if n.Kind == ir.NodePhi && len(n.Children) != len(b.Preds) {
		return v.fatal(diag.CodeSSAPhiArgNotPred, "statement", stmtID,
			fmt.Sprintf("phi has %d arguments but block %d has %d predecessors", len(n.Children), b.ID, len(b.Preds)))
	}
	if err := v.checkPhiArityNode(n.Op1, b, stmtID); err != nil {
		return err
	}
	if err := v.checkPhiArityNode(n.Op2, b, stmtID); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := v.checkPhiArityNode(c, b, stmtID); err != nil {
			return err
		}
	}
	return nil
}
