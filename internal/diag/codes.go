package diag

// Diagnostic codes for the jitcore mid-end. Codes are partitioned into
// ranges by pass and severity: every range here names an invariant
// family or a give-up family rather than a source-language error.
//
// Code ranges:
// F0001-F0099: flowgraph consistency checker invariant violations (fatal)
// F0100-F0199: SSA validator invariant violations (fatal)
// F0200-F0299: EH region tree structural violations (fatal)
// F0300-F0399: arena / runtime-interface fatal failures
// D0001-D0099: loop cloner give-ups (non-fatal)
// D0100-D0199: iteration analysis give-ups (non-fatal)
// D0200-D0299: escape analyzer give-ups (non-fatal)

const (
	// Consistency checker
	CodeUnreachableBlock       = "F0001"
	CodeIllegalEmptyBlock      = "F0002"
	CodeNotImported            = "F0003"
	CodeCompactableEdge        = "F0004"
	CodeRedundantCond          = "F0005"
	CodeCallFinallyUnpaired    = "F0006"
	CodePredecessorMismatch    = "F0007"
	CodeEHBoundaryViolation    = "F0008"
	CodeSSASanity              = "F0009"
	CodeTreeStructural         = "F0010"
	CodeDuplicateID            = "F0011"
	CodePredListOrder          = "F0012"

	// SSA validator
	CodeSSADefBlockMismatch = "F0100"
	CodeSSAMultipleDef      = "F0101"
	CodeSSAPhiArgNotPred    = "F0102"
	CodeSSAUntrackedHasSSA  = "F0103"

	// EH region tree
	CodeEHRegionCrosses   = "F0200"
	CodeEHNestingViolated = "F0201"

	// Arena / runtime interface
	CodeArenaExhausted   = "F0300"
	CodeRuntimeIfaceFail = "F0301"

	// Loop cloner give-ups
	DeclineCloneSizeLimit      = "D0001"
	DeclineCloneEHMismatch     = "D0002"
	DeclineCloneDerefDepth     = "D0003"
	DeclineCloneConditionFalse = "D0004"
	DeclineCloneNotCanonical   = "D0005"
	DeclineCloneExprDecline    = "D0006"

	// Iteration analysis give-ups
	DeclineIterNoInductionVar = "D0100"
	DeclineIterBadTestOp      = "D0101"
	DeclineIterBadStride      = "D0102"
	DeclineIterNotMonotonic   = "D0103"

	// Escape analyzer give-ups
	DeclineEscapeInLoop       = "D0200"
	DeclineEscapeColdBlock    = "D0201"
	DeclineEscapeTooLarge     = "D0202"
	DeclineEscapeInexactClass = "D0203"
	DeclineEscapeNotAllocatable = "D0204"
	DeclineEscapeCloneOverlap = "D0205"
	DeclineEscapeOSRDominance = "D0206"
)

// descriptions gives a one-line human-readable explanation per code.
var descriptions = map[string]string{
	CodeUnreachableBlock:    "block has zero predecessors and is not flagged do-not-remove",
	CodeIllegalEmptyBlock:   "empty block has a kind not in the allowed-to-be-empty set",
	CodeNotImported:         "non-internal block is missing its imported flag",
	CodeCompactableEdge:     "an ALWAYS edge to a block with no other predecessor should have been merged",
	CodeRedundantCond:       "a COND block has identical true and false targets",
	CodeCallFinallyUnpaired: "a non-retless CALLFINALLY is not immediately followed by its CALLFINALLYRET",
	CodePredecessorMismatch: "a predecessor edge's source does not list the destination as a successor",
	CodeEHBoundaryViolation: "a branch crosses an EH region boundary illegally",
	CodeSSASanity:          "SSA facts are inconsistent while SSA is marked valid",
	CodeTreeStructural:     "statement or local linked-list structure is inconsistent",
	CodeDuplicateID:        "two IR nodes share the same unique id",
	CodePredListOrder:      "predecessor list is not sorted by source id",

	CodeSSADefBlockMismatch: "recorded def block does not match the block found by a DFS walk",
	CodeSSAMultipleDef:      "an SSA number has more than one def block",
	CodeSSAPhiArgNotPred:    "a phi argument block is not an actual predecessor of the phi's block",
	CodeSSAUntrackedHasSSA:  "a non-tracked local carries an SSA number",

	CodeEHRegionCrosses:   "two EH regions share blocks without proper nesting",
	CodeEHNestingViolated: "an EH region's interval is not contained in its parent's",

	CodeArenaExhausted:   "arena allocation failed",
	CodeRuntimeIfaceFail: "runtime interface call returned failure",

	DeclineCloneSizeLimit:      "cloned region exceeds the configured size limit",
	DeclineCloneEHMismatch:     "cloning would move a block across an EH region boundary",
	DeclineCloneDerefDepth:     "deref tree depth exceeds maxLoopCloneConds",
	DeclineCloneConditionFalse: "a synthesized condition evaluated to compile-time false",
	DeclineCloneNotCanonical:   "loop has no canonical single preheader to clone from",
	DeclineCloneExprDecline:    "the expression cloner declined to duplicate a loop statement",

	DeclineIterNoInductionVar: "no single-def, non-address-exposed induction variable found",
	DeclineIterBadTestOp:      "loop test operator is not one of < <= > >=",
	DeclineIterBadStride:      "stride is not a constant with |stride| < 58",
	DeclineIterNotMonotonic:   "stride sign and test operator are not consistent",

	DeclineEscapeInLoop:         "allocation block is inside a loop",
	DeclineEscapeColdBlock:      "allocation block has no profile data or executes below the cost/benefit threshold",
	DeclineEscapeTooLarge:       "object size exceeds the configured stack allocation maximum",
	DeclineEscapeInexactClass:   "target class handle is not exact (generic)",
	DeclineEscapeNotAllocatable: "runtime reports the class is not stack-allocatable",
	DeclineEscapeCloneOverlap:   "two conditional-escape clone regions would overlap",
	DeclineEscapeOSRDominance:   "conditional escape analysis is disabled under OSR",
}

// Description returns a human-readable explanation of code, or "" if code
// is unrecognized.
func Description(code string) string {
	return descriptions[code]
}

// IsFatal reports whether code names an invariant violation (category F)
// as opposed to a non-fatal give-up (category D).
func IsFatal(code string) bool {
	return len(code) > 0 && code[0] == 'F'
}
