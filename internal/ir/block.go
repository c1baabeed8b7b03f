package ir

import "github.com/iancoleman/strcase"

// BranchKind is the outer discriminator for a block's terminator.
type BranchKind int

const (
	KindNone           BranchKind = iota // fall through
	KindAlways                           // unconditional jump to Target
	KindCond                             // fall-through FalseTarget, explicit TrueTarget
	KindSwitch                           // ordered SwitchTargets table
	KindReturn
	KindThrow
	KindLeave          // pre-EH-normalization cross-region branch
	KindCallFinally    // paired with a following KindCallFinallyRet
	KindCallFinallyRet
	KindEHCatchRet
	KindEHFilterRet
	KindEHFinallyRet
	KindEHFaultRet
)

func (k BranchKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAlways:
		return "always"
	case KindCond:
		return "cond"
	case KindSwitch:
		return "switch"
	case KindReturn:
		return "return"
	case KindThrow:
		return "throw"
	case KindLeave:
		return "leave"
	case KindCallFinally:
		return "call_finally"
	case KindCallFinallyRet:
		return "call_finally_ret"
	case KindEHCatchRet:
		return "eh_catch_ret"
	case KindEHFilterRet:
		return "eh_filter_ret"
	case KindEHFinallyRet:
		return "eh_finally_ret"
	case KindEHFaultRet:
		return "eh_fault_ret"
	default:
		return "unknown"
	}
}

var branchKindGoNames = [...]string{
	"None", "Always", "Cond", "Switch", "Return", "Throw", "Leave",
	"CallFinally", "CallFinallyRet", "EHCatchRet", "EHFilterRet",
	"EHFinallyRet", "EHFaultRet",
}

// Key renders k as the snake_case key structured diagnostics and the
// dumper use, derived from the constant's Go name rather than hand
// written per kind the way String's human-facing word is.
func (k BranchKind) Key() string {
	if int(k) < 0 || int(k) >= len(branchKindGoNames) {
		return "unknown"
	}
	return strcase.ToSnake(branchKindGoNames[k])
}

// BlockFlags is a bitset of per-block attributes.
type BlockFlags uint32

const (
	FlagDoNotRemove BlockFlags = 1 << iota
	FlagImported
	FlagRetless  // CALLFINALLY with no paired CALLFINALLYRET
	FlagInternal // compiler-introduced, exempt from the "imported" check
	FlagProfileWeightValid
	FlagKeepAlwaysAsCallFinallyRet // legacy ALWAYS serving as a CALLFINALLYRET
)

func (f BlockFlags) Has(bit BlockFlags) bool { return f&bit != 0 }

// BadILOffset is the sentinel for a block with no IL byte range.
const BadILOffset = -1

// MaxWeight is the sentinel "maximum" block weight.
const MaxWeight = 1e308

// BasicBlock is a node of the control-flow graph.
type BasicBlock struct {
	ID      int
	Ordinal int

	CodeOffs, CodeOffsEnd int

	Flags BlockFlags
	Kind  BranchKind

	// Kind-specific targets.
	Target      *BasicBlock // NONE (fallthrough)/ALWAYS/LEAVE/CALLFINALLY/CALLFINALLYRET/EHCATCHRET
	FalseTarget *BasicBlock // COND fallthrough
	TrueTarget  *BasicBlock // COND branch-taken

	SwitchTargets        []*BasicBlock
	SwitchHasDefault     bool
	SwitchDefaultIndex   int
	DominantCaseIndex    int // -1 if none
	DominantCaseFraction float64

	Weight float64

	TryIndex     int // -1 if not in a try region
	HandlerIndex int // -1 if not a handler/filter entry
	CatchType    *ClassHandle

	// Exactly one of these is populated (invariant: statement XOR linear
	// form); IsLinear selects which.
	Stmts    []*Statement
	Linear   []*Node
	IsLinear bool

	// Lexical doubly-linked list.
	Prev, Next *BasicBlock

	// Canonical predecessor list, sorted by Source.ID.
	Preds []*FlowEdge

	Reachable                 bool
	PreorderNum, PostorderNum int // -1 until a DFS assigns them

	NaturalLoopNum int // -1 if not a loop member

	// ehSuccCache memoizes the (expensive) EHFINALLYRET successor
	// computation; invalidated by InvalidateSuccessorCache. SWITCH
	// successors are not cached.
	ehSuccCache      []*BasicBlock
	ehSuccCacheValid bool

	// ehAugPredCache memoizes the augmented try-entry predecessor set;
	// invalidated by InvalidateEHPredCache. Kept on the block itself
	// rather than a package-level map so distinct Compiler instances
	// never share mutable cache state across goroutines.
	ehAugPredCache      []*BasicBlock
	ehAugPredCacheValid bool
}

// NewBasicBlock allocates a block with default sentinel fields. Callers
// (the graph builder, the cloner) are responsible for linking it into the
// lexical list and setting kind-specific fields.
func NewBasicBlock(id int, kind BranchKind) *BasicBlock {
	return &BasicBlock{
		ID:                 id,
		CodeOffs:           BadILOffset,
		CodeOffsEnd:        BadILOffset,
		Kind:               kind,
		TryIndex:           -1,
		HandlerIndex:       -1,
		DominantCaseIndex:  -1,
		PreorderNum:        -1,
		PostorderNum:       -1,
		NaturalLoopNum:     -1,
		SwitchDefaultIndex: -1,
	}
}

// InvalidateSuccessorCache drops the memoized EHFINALLYRET successor set;
// any pass that changes b's kind or the enclosing handler's call-finally
// set must call this. SWITCH successors are recomputed on every query.
func (b *BasicBlock) InvalidateSuccessorCache() {
	b.ehSuccCache = nil
	b.ehSuccCacheValid = false
}

// IsEmpty reports whether b carries no statements/instructions.
func IsEmpty(b *BasicBlock) bool {
	if b.IsLinear {
		return len(b.Linear) == 0
	}
	return len(b.Stmts) == 0
}

// FallsThrough reports whether control can reach b.Target (or
// b.FalseTarget for COND) by falling off the end of b's predecessor in
// lexical order, per the kinds in the successor-count table.
func FallsThrough(b *BasicBlock) bool {
	switch b.Kind {
	case KindNone, KindCond:
		return true
	default:
		return false
	}
}

// NumSuccessors returns the successor count for b's kind.
// table is the EH table needed to compute the EHFINALLYRET case.
func NumSuccessors(b *BasicBlock, table *EHTable) int {
	switch b.Kind {
	case KindThrow, KindReturn, KindEHFaultRet:
		return 0
	case KindEHFinallyRet:
		return len(ehFinallyRetSuccessors(b, table))
	case KindEHFilterRet:
		return 1
	case KindAlways, KindLeave, KindCallFinally, KindCallFinallyRet, KindEHCatchRet, KindNone:
		return 1
	case KindCond:
		if b.TrueTarget == b.FalseTarget {
			return 1
		}
		return 2
	case KindSwitch:
		return len(uniqueSwitchTargets(b))
	default:
		return 0
	}
}

// Successor returns the i'th successor of b per the same ordering
// NumSuccessors enumerates.
func Successor(b *BasicBlock, i int, table *EHTable) *BasicBlock {
	switch b.Kind {
	case KindEHFinallyRet:
		succs := ehFinallyRetSuccessors(b, table)
		if i < 0 || i >= len(succs) {
			return nil
		}
		return succs[i]
	case KindEHFilterRet:
		return b.Target
	case KindAlways, KindLeave, KindCallFinally, KindCallFinallyRet, KindEHCatchRet, KindNone:
		return b.Target
	case KindCond:
		if i == 0 {
			return b.FalseTarget
		}
		return b.TrueTarget
	case KindSwitch:
		u := uniqueSwitchTargets(b)
		if i < 0 || i >= len(u) {
			return nil
		}
		return u[i]
	default:
		return nil
	}
}

// uniqueSwitchTargets computes, on every call, the distinct-target set a SWITCH enumerates, preserving first-seen
// order.
func uniqueSwitchTargets(b *BasicBlock) []*BasicBlock {
	seen := make(map[*BasicBlock]bool, len(b.SwitchTargets))
	out := make([]*BasicBlock, 0, len(b.SwitchTargets))
	for _, t := range b.SwitchTargets {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// ehFinallyRetSuccessors computes the successor set of an EHFINALLYRET
// block from its enclosing handler's call-finally set.
func ehFinallyRetSuccessors(b *BasicBlock, table *EHTable) []*BasicBlock {
	if b.ehSuccCacheValid {
		return b.ehSuccCache
	}
	var out []*BasicBlock
	if table != nil {
		out = table.callFinallyRetSuccessors(b)
	}
	b.ehSuccCache = out
	b.ehSuccCacheValid = true
	return out
}

// UniquePredecessor returns b's single predecessor block, or nil if b has
// zero or more than one distinct predecessor source.
func UniquePredecessor(b *BasicBlock) *BasicBlock {
	if len(b.Preds) == 0 {
		return nil
	}
	first := b.Preds[0].Source
	for _, e := range b.Preds[1:] {
		if e.Source != first {
			return nil
		}
	}
	return first
}

// UniqueSuccessor returns b's single successor block, or nil if b has zero
// or more than one distinct successor.
func UniqueSuccessor(b *BasicBlock, table *EHTable) *BasicBlock {
	n := NumSuccessors(b, table)
	if n != 1 {
		return nil
	}
	return Successor(b, 0, table)
}

// CloneBlockState copies every block-level attribute of src into dst (flags,
// weight, reachability, EH region indices, catch type, code offset range,
// natural-loop number), then walks src's statement list delegating each
// statement to cloner. If cloner declines any statement, CloneBlockState
// stops and reports false; dst is left partially populated and the caller
// must discard it.
func CloneBlockState(src, dst *BasicBlock, localToReplace *LocalVar, replacementValue *Node, cloner ExprCloner) bool {
	dst.Flags = src.Flags &^ FlagDoNotRemove // a clone is never itself load-bearing for reachability
	dst.Weight = src.Weight
	dst.Reachable = src.Reachable
	dst.TryIndex = src.TryIndex
	dst.HandlerIndex = src.HandlerIndex
	dst.CatchType = src.CatchType
	dst.CodeOffs = src.CodeOffs
	dst.CodeOffsEnd = src.CodeOffsEnd
	dst.NaturalLoopNum = src.NaturalLoopNum
	dst.Kind = src.Kind
	dst.DominantCaseIndex = src.DominantCaseIndex
	dst.DominantCaseFraction = src.DominantCaseFraction

	if src.IsLinear {
		dst.IsLinear = true
		dst.Linear = append(dst.Linear[:0:0], src.Linear...)
		return true
	}

	dst.IsLinear = false
	dst.Stmts = dst.Stmts[:0]
	var prev *Statement
	for _, stmt := range src.Stmts {
		cloned, ok := cloner.CloneStatement(stmt, localToReplace, replacementValue)
		if !ok {
			return false
		}
		cloned.Block = dst
		cloned.Prev = prev
		if prev != nil {
			prev.Next = cloned
		}
		prev = cloned
		dst.Stmts = append(dst.Stmts, cloned)
	}
	return true
}
