package ir

// NodeKind is the outer enum of the expression tree's tagged union: one
// discriminator, per-kind payload fields carried directly on Node rather
// than through an interface hierarchy, keeping every pass's tree walk in
// one type instead of scattered across a small type per kind.
type NodeKind int

const (
	NodeLclVar     NodeKind = iota // read of a local; Lcl set, SSANum meaningful if tracked
	NodeLclVarDef                  // def of a local (SSA def site); Lcl, SSANum set
	NodeConst                      // compile-time constant; ConstVal set
	NodeAssign                     // Op1 = Op2 (locals, or Op1 a field/indir target)
	NodeCall                       // call; Children are args; NoEscapeArgs marks per-arg no-escape
	NodeAllocObj                   // new T(); ClassHandle set, HasSideEffects per helper contract
	NodeAllocArr                   // new T[n]; ClassHandle set, Op1 = length
	NodeBox                        // box of a value class; ClassHandle set, Op1 = boxed value
	NodeIndir                      // *addr; Op1 = address
	NodeAddr                       // &local / &field
	NodeField                      // Op1.Field; FieldOffset set
	NodeReturn                     // return Op1 (Op1 nil for void)
	NodeThrow                      // throw Op1
	NodeBoundsCheck                // BOUNDS_CHECK(index, len); Op1=index, Op2=len; may be no-op'd by cloner
	NodeComma                      // (Op1, Op2) — sequence point wrapping a BOUNDS_CHECK etc.
	NodeTypeTest                   // indir(Op1) == ClassHandle (GDV guard test)
	NodeBinOp                      // Op1 <op> Op2; RelOp set when this feeds a COND
	NodePhi                        // phi node local to SSA bookkeeping; Children are per-pred args
	NodeArrayLen                   // length of Op1 (array/collection)
)

// RelOp identifies the comparison a NodeBinOp performs when it is the test
// of a loop or a cloning condition.
type RelOp int

const (
	RelNone RelOp = iota
	RelLT
	RelLE
	RelGT
	RelGE
	RelEQ
	RelNE
)

func (r RelOp) Reverse() RelOp {
	switch r {
	case RelLT:
		return RelGT
	case RelLE:
		return RelGE
	case RelGT:
		return RelLT
	case RelGE:
		return RelLE
	default:
		return r
	}
}

// Negate returns the logical negation of r: the operator that is true
// exactly when r is false. This is distinct from Reverse, which swaps
// operand order instead — Negate is what a branch-on-guard-failure test
// needs, Reverse is what recognizing "i<n" and "n>i" as the same fact
// needs.
func (r RelOp) Negate() RelOp {
	switch r {
	case RelLT:
		return RelGE
	case RelLE:
		return RelGT
	case RelGT:
		return RelLE
	case RelGE:
		return RelLT
	case RelEQ:
		return RelNE
	case RelNE:
		return RelEQ
	default:
		return r
	}
}

func (r RelOp) String() string {
	switch r {
	case RelLT:
		return "<"
	case RelLE:
		return "<="
	case RelGT:
		return ">"
	case RelGE:
		return ">="
	case RelEQ:
		return "=="
	case RelNE:
		return "!="
	default:
		return "?"
	}
}

// ClassHandle stands in for the runtime's opaque class handle; the core never interprets it beyond
// equality and the handful of runtime queries in internal/compiler.
type ClassHandle struct {
	ID     int
	Name   string
	Exact  bool // false for an inexact generic handle
}

// Node is one expression-tree node. Only the fields relevant to Kind are
// meaningful; payload fields live directly on Node rather than behind an
// interface per kind, which would scatter the walks later passes need
// across many small types.
type Node struct {
	ID          int
	Kind        NodeKind
	Op1, Op2    *Node
	Children    []*Node
	Lcl         *LocalVar
	SSANum      int // -1 if the local is not tracked or this use predates SSA numbering
	ConstVal    int64
	ClassHandle *ClassHandle
	FieldOffset int
	RelOp       RelOp
	HasSideEffects bool // for NodeAllocObj: the allocation helper has arbitrary side effects
	NoEscapeArgs   []bool // per-Children no-escape annotation for NodeCall
	StackArray     bool   // NodeAllocArr rewritten to a stack array
	NonFaulting    bool   // NodeIndir/NodeBoundsCheck marked non-faulting after cloning/rewrite
	TargetNotHeap  bool   // NodeIndir retyped to point at a stack slot (write-barrier elision)
}

// Statement is one entry in a basic block's statement list, rooted at an
// expression tree. Blocks in linear-instruction form (BasicBlock.IsLinear)
// use Linear instead and never populate Stmts.
type Statement struct {
	ID    int
	Root  *Node
	Block *BasicBlock
	Prev, Next *Statement // doubly-linked within the block; Prev is nil at the head of the list
}

// ExprCloner is the external collaborator CloneBlockState delegates to for
// copying expression trees: front-end tree cloning is out of this core's scope, so the
// core only defines the contract and reacts to its success/failure.
type ExprCloner interface {
	// CloneStatement clones stmt, substituting replacementValue for every
	// use of localToReplace, and reports false if it declines to clone
	// (e.g. the statement contains a construct the cloner does not know
	// how to duplicate safely).
	CloneStatement(stmt *Statement, localToReplace *LocalVar, replacementValue *Node) (*Statement, bool)
}
