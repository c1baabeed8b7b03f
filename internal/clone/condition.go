package clone

import "jitcore/internal/ir"

// ConditionKind discriminates the predicate families a candidate can
// contribute to the cloning conjunction.
type ConditionKind int

const (
	CondNotNull    ConditionKind = iota // level 0: base != null
	CondBounds                          // level k>0: (unsigned) index < base.length
	CondTypeTest                        // indir(local) == handle
	CondIterBound                       // init >= 0, limit >= 0, limit <= a.length (or <)
)

// OperandKind discriminates what an Operand's runtime value is when a
// Condition is lowered to an actual test expression.
type OperandKind int

const (
	OperandLocal    OperandKind = iota // Local's value
	OperandLength                      // length of Local
	OperandConst                       // Const
	OperandTypeTest                    // indir(Local) == Handle, as a 0/1 value
)

// Operand is a condition's comparable operand: a real reference back into
// the method's IR rather than an opaque label, so the chain-building step
// can emit an actual test tree instead of a name. Operand is comparable
// with ==, which is what staticEvaluate and combine rely on to recognize
// two conditions as referring to the same value.
type Operand struct {
	Kind   OperandKind
	Local  *ir.LocalVar
	Const  int64
	Handle *ir.ClassHandle
}

func localOperand(l *ir.LocalVar) Operand  { return Operand{Kind: OperandLocal, Local: l} }
func lengthOperand(l *ir.LocalVar) Operand { return Operand{Kind: OperandLength, Local: l} }
func constOperand(v int64) Operand         { return Operand{Kind: OperandConst, Const: v} }
func typeTestOperand(l *ir.LocalVar, h *ir.ClassHandle) Operand {
	return Operand{Kind: OperandTypeTest, Local: l, Handle: h}
}

// operandNode builds the expression-tree node an Operand stands for, for
// the test buildConditionChain synthesizes.
func operandNode(o Operand) *ir.Node {
	switch o.Kind {
	case OperandLocal:
		return &ir.Node{Kind: ir.NodeLclVar, Lcl: o.Local}
	case OperandLength:
		return &ir.Node{Kind: ir.NodeArrayLen, Op1: &ir.Node{Kind: ir.NodeLclVar, Lcl: o.Local}}
	case OperandTypeTest:
		return &ir.Node{Kind: ir.NodeTypeTest, Op1: &ir.Node{Kind: ir.NodeLclVar, Lcl: o.Local}, ClassHandle: o.Handle}
	default:
		return &ir.Node{Kind: ir.NodeConst, ConstVal: o.Const}
	}
}

// Condition is one predicate in the synthesized conjunction. Left/Right
// are real operand references (a local, a length, a type test, or a
// constant); two Conditions with equal (Op, Left, Right) are the same
// condition for combining purposes.
type Condition struct {
	Kind  ConditionKind
	Op    ir.RelOp
	Left  Operand
	Right Operand

	// Resolved is set once static evaluation has decided this condition's
	// truth value; nil means still runtime-dependent.
	Resolved *bool
}

// Synthesize builds the condition list for one candidate's deref tree plus,
// for a jagged/multi-dim candidate whose innermost index is the loop's
// induction variable, the iteration-bound conditions from it.
func Synthesize(c Candidate, tree *DerefNode, iter *IterBoundFacts) []Condition {
	var out []Condition
	switch c.Kind {
	case KindJaggedArray, KindMultiDimArray:
		out = append(out, synthesizeDerefConditions(tree)...)
		if iter != nil {
			out = append(out, synthesizeIterConditions(*iter)...)
		}
	case KindTypeTest, KindMethodAddrTest:
		out = append(out, Condition{Kind: CondTypeTest, Op: ir.RelEQ,
			Left: typeTestOperand(c.GuardedLocal, c.TypeHandle), Right: constOperand(1)})
	}
	return out
}

func synthesizeDerefConditions(n *DerefNode) []Condition {
	if n == nil {
		return nil
	}
	var out []Condition
	out = append(out, Condition{Kind: CondNotNull, Op: ir.RelNE, Left: localOperand(n.Access.Base), Right: constOperand(0)})
	if n.Access.Index != nil {
		out = append(out, Condition{Kind: CondBounds, Op: ir.RelLT, Left: localOperand(n.Access.Index), Right: lengthOperand(n.Access.Base)})
	}
	for _, child := range n.Children {
		out = append(out, synthesizeDerefConditions(child)...)
	}
	return out
}

// IterBoundFacts is the pre-extracted iteration shape needed for the
// "limit <= a.length" family of conditions; a real caller derives this
// from loop.Iteration.
type IterBoundFacts struct {
	HasInit     bool
	InitOperand Operand // the loop's initial value, constant or invariant local

	LimitOperand Operand      // the loop's bound, constant, invariant local, or another array's length
	LimitArray   *ir.LocalVar // the array dimension this candidate needs in bounds

	TestOp     ir.RelOp
	Increasing bool
}

func synthesizeIterConditions(f IterBoundFacts) []Condition {
	var out []Condition
	if f.HasInit {
		op := ir.RelGE
		if !f.Increasing {
			op = ir.RelLE
		}
		out = append(out, Condition{Kind: CondIterBound, Op: op, Left: f.InitOperand, Right: constOperand(0)})
	}
	if f.LimitArray != nil {
		limitOp := ir.RelLE
		if f.TestOp == ir.RelLT || f.TestOp == ir.RelGT {
			limitOp = ir.RelLT
		}
		out = append(out, Condition{Kind: CondIterBound, Op: ir.RelGE, Left: f.LimitOperand, Right: constOperand(0)})
		out = append(out, Condition{Kind: CondIterBound, Op: limitOp, Left: f.LimitOperand, Right: lengthOperand(f.LimitArray)})
	}
	return out
}

// Simplify runs the two fixpoint phases: "static evaluation"
// and "combining". It returns the surviving conditions and false if any
// condition was proven statically false (the whole clone must then be
// abandoned).
func Simplify(conds []Condition) ([]Condition, bool) {
	conds = staticEvaluate(conds)
	for _, c := range conds {
		if c.Resolved != nil && !*c.Resolved {
			return nil, false
		}
	}
	var kept []Condition
	for _, c := range conds {
		if c.Resolved != nil && *c.Resolved {
			continue // proven true, elided
		}
		kept = append(kept, c)
	}
	return combine(kept), true
}

// staticEvaluate resolves a condition whose two operands are identical:
// true for {=, <=, >=}, false for {!=, <, >}.
func staticEvaluate(conds []Condition) []Condition {
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = c
		if c.Left != c.Right {
			continue
		}
		v := isReflexiveTrue(c.Op)
		out[i].Resolved = &v
	}
	return out
}

func isReflexiveTrue(op ir.RelOp) bool {
	switch op {
	case ir.RelEQ, ir.RelLE, ir.RelGE:
		return true
	default:
		return false
	}
}

// combine collapses duplicate conditions, including a condition and its
// operand-reversed form under the reversed operator (i < n and n > i are
// the same runtime test).
func combine(conds []Condition) []Condition {
	var out []Condition
	for _, c := range conds {
		dup := false
		for _, o := range out {
			if sameCondition(c, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

func sameCondition(a, b Condition) bool {
	if a.Op == b.Op && a.Left == b.Left && a.Right == b.Right {
		return true
	}
	return a.Op == b.Op.Reverse() && a.Left == b.Right && a.Right == b.Left
}
