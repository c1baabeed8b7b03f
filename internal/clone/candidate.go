// Package clone implements the loop cloner: it takes a canonicalized
// natural loop plus a set of collected candidates, synthesizes a
// conjunction of runtime conditions guarding a faster variant of the loop
// body, and on success duplicates the loop into a condition-guarded
// fast/slow pair.
package clone

import "jitcore/internal/ir"

// CandidateKind is the shape of invariant that makes a loop body eligible
// for a faster cloned variant.
type CandidateKind int

const (
	KindJaggedArray    CandidateKind = iota // a[i][j]...[iv] with invariant bases
	KindMultiDimArray                       // same principle, one indexed dimension per level
	KindTypeTest                            // dominating indir(local) == typeHandle, invariant
	KindMethodAddrTest                      // delegate-dispatch analogue of KindTypeTest
)

// DimAccess is one dimension of an array/jagged access: the base local
// holding the array reference at this level, and the index local used to
// step into it. Index is nil for the final dereference that merely reads
// the element (no further indexing).
type DimAccess struct {
	Base  *ir.LocalVar
	Index *ir.LocalVar
}

// Candidate bundles the facts the cloner needs about one walk-collected
// site; a real collector derives these from the loop's statement trees,
// which is front-end-adjacent tree-walking out of this core's narrower
// scope, so Candidate takes them pre-extracted.
type Candidate struct {
	Kind CandidateKind

	// Dims is the chain of dereferences for KindJaggedArray/KindMultiDimArray,
	// outermost first; Dims[len(Dims)-1].Index is the loop's induction
	// variable for a true jagged-array candidate.
	Dims []DimAccess

	// TypeHandle/GuardedLocal are set for KindTypeTest/KindMethodAddrTest.
	TypeHandle   *ir.ClassHandle
	GuardedLocal *ir.LocalVar

	// BoundsCheckStmts are statements containing a BOUNDS_CHECK node this
	// candidate's fast path can bash to a no-op once cloned.
	BoundsCheckStmts []*ir.Statement

	// Complexity is a cost estimate (statement count) used for the size
	// budget; a real collector would sum over exactly the blocks this
	// candidate's conditions let the fast path skip.
	Complexity int
}
