package loop

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

// LimitKind discriminates the form of a loop's limit.
type LimitKind int

const (
	LimitConstant LimitKind = iota
	LimitInvariantLocal
	LimitArrayLength // length of an invariant array/collection reference
)

// InitKind discriminates the form of a loop's initial value.
type InitKind int

const (
	InitConstant InitKind = iota
	InitInvariantLocal
)

// maxAbsStride bounds an induction variable's stride magnitude, guarding
// against an array index overflowing by one stride near the platform's
// max array length.
const maxAbsStride = 58

// Iteration is the analyzed `for (iv = init; iv testOp limit; iv +=
// stride)` shape of a loop, when one was found.
type Iteration struct {
	InductionVar *ir.LocalVar
	InitKind     InitKind
	InitConst    int64
	InitLocal    *ir.LocalVar

	LimitKind     LimitKind
	LimitConst    int64
	LimitLocal    *ir.LocalVar
	LimitArrayLoc *ir.LocalVar // the array/collection whose length is the limit

	TestOp ir.RelOp
	Stride int64

	Increasing bool // true if Stride > 0
}

// Candidate bundles the facts Analyze needs about the loop's induction
// variable; a real builder derives these from SSA and the expression
// trees, which are out of this core's narrower expression-level scope, so
// Analyze takes them pre-extracted.
type Candidate struct {
	InductionVar   *ir.LocalVar
	SingleDefInLoop bool
	InitKind       InitKind
	InitConst      int64
	InitLocal      *ir.LocalVar
	LimitKind      LimitKind
	LimitConst     int64
	LimitLocal     *ir.LocalVar
	LimitArrayLoc  *ir.LocalVar
	TestOp         ir.RelOp
	Stride         int64
}

// Analyze attempts to fit l to the `for (iv = init; iv testOp limit; iv
// += stride)` induction-variable pattern. On success it sets l.Iteration
// and returns true. On failure it returns false and records a
// diag.Decline on sink explaining why, rather than failing the
// compilation.
func Analyze(l *NaturalLoop, c Candidate, sink *diag.Sink) bool {
	site := fmt.Sprintf("loop@%d", l.Header.ID)

	if c.InductionVar == nil || !c.SingleDefInLoop || c.InductionVar.AddressExposed {
		sink.Record(diag.NewDecline(diag.DeclineIterNoInductionVar, "iteration-analysis", site,
			"no single-def, non-address-exposed induction variable"))
		return false
	}

	switch c.TestOp {
	case ir.RelLT, ir.RelLE, ir.RelGT, ir.RelGE:
	default:
		sink.Record(diag.NewDecline(diag.DeclineIterBadTestOp, "iteration-analysis", site,
			fmt.Sprintf("test operator %s is not one of < <= > >=", c.TestOp)))
		return false
	}

	if c.Stride == 0 || abs64(c.Stride) >= maxAbsStride {
		sink.Record(diag.NewDecline(diag.DeclineIterBadStride, "iteration-analysis", site,
			fmt.Sprintf("stride %d is zero or |stride| >= %d", c.Stride, maxAbsStride)))
		return false
	}

	increasing := c.Stride > 0
	monotonic := (increasing && (c.TestOp == ir.RelLT || c.TestOp == ir.RelLE)) ||
		(!increasing && (c.TestOp == ir.RelGT || c.TestOp == ir.RelGE))
	if !monotonic {
		sink.Record(diag.NewDecline(diag.DeclineIterNotMonotonic, "iteration-analysis", site,
			fmt.Sprintf("stride sign and test operator %s are inconsistent", c.TestOp)))
		return false
	}

	l.Iteration = &Iteration{
		InductionVar:  c.InductionVar,
		InitKind:      c.InitKind,
		InitConst:     c.InitConst,
		InitLocal:     c.InitLocal,
		LimitKind:     c.LimitKind,
		LimitConst:    c.LimitConst,
		LimitLocal:    c.LimitLocal,
		LimitArrayLoc: c.LimitArrayLoc,
		TestOp:        c.TestOp,
		Stride:        c.Stride,
		Increasing:    increasing,
	}
	return true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
