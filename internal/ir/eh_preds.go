package ir

// InvalidateEHPredCache drops the memoized augmented predecessor set on
// every block of g. Any pass that adds or removes a block inside a try
// region, or changes which block is a try's entry, must call this before
// the next query.
func InvalidateEHPredCache(g *ControlFlowGraph) {
	for _, b := range g.Blocks {
		b.ehAugPredCacheValid = false
		b.ehAugPredCache = nil
	}
}

// AugmentedPredecessors returns b's ordinary Preds plus, if b is the entry
// of a try-protected region, every predecessor of the try's first block
// and every block inside the try that can raise (excluding
// CALLFINALLYRET tails).
//
// canRaise reports whether a block can raise an exception (e.g. it ends in
// THROW, or contains a call/indirection that is not provably safe); this
// core takes it as a caller-supplied predicate since "can raise" is a
// property of the expression trees inside the block, which are outside
// this core's expression-level scope.
func AugmentedPredecessors(b *BasicBlock, table *EHTable, canRaise func(*BasicBlock) bool, stressHash uint64) []*BasicBlock {
	if b.ehAugPredCacheValid {
		return b.ehAugPredCache
	}

	out := make([]*BasicBlock, 0, len(b.Preds))
	for _, e := range PredIterOrder(b, stressHash) {
		out = append(out, e.Source)
	}

	if b.HandlerIndex < 0 && b.TryIndex >= 0 && table != nil && b.TryIndex < len(table.Regions) {
		region := table.Regions[b.TryIndex]
		if region.TryFirst() == b {
			if first := region.TryFirst(); first != nil {
				for _, e := range first.Preds {
					out = append(out, e.Source)
				}
			}
			for _, rng := range region.TryRanges {
				for blk := rng.First; blk != nil; blk = blk.Next {
					if blk.Kind != KindCallFinallyRet {
						if canRaise != nil && canRaise(blk) {
							out = append(out, blk)
						}
					}
					if blk == rng.Last {
						break
					}
				}
			}
		}
	}

	b.ehAugPredCache = out
	b.ehAugPredCacheValid = true
	return out
}
