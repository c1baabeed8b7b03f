package ir

import "sort"

// FlowEdge is a directed predecessor edge. A switch
// that targets the same block more than once is represented as one
// FlowEdge with DupCount equal to the number of kind-level occurrences
// rather than as repeated entries.
type FlowEdge struct {
	Source, Dest *BasicBlock
	DupCount     int
	WeightMin    float64
	WeightMax    float64
}

// findPredEdge returns the existing edge from src to dst in dst.Preds, or
// nil.
func findPredEdge(dst, src *BasicBlock) *FlowEdge {
	for _, e := range dst.Preds {
		if e.Source == src {
			return e
		}
	}
	return nil
}

// AddPredEdge records one more kind-level occurrence of an edge src->dst:
// if an edge from src already exists it is bumped to DupCount+1 (e.g. two
// switch arms targeting the same block), otherwise a new sorted-position
// entry is inserted. Returns the (possibly pre-existing) edge.
func AddPredEdge(dst, src *BasicBlock) *FlowEdge {
	if e := findPredEdge(dst, src); e != nil {
		e.DupCount++
		return e
	}
	e := &FlowEdge{Source: src, Dest: dst, DupCount: 1, WeightMin: 0, WeightMax: src.Weight}
	idx := sort.Search(len(dst.Preds), func(i int) bool { return dst.Preds[i].Source.ID >= src.ID })
	dst.Preds = append(dst.Preds, nil)
	copy(dst.Preds[idx+1:], dst.Preds[idx:])
	dst.Preds[idx] = e
	return e
}

// RemovePredEdge removes the edge src->dst entirely (regardless of
// DupCount): a switch that used to target dst twice and is rewritten to
// target it zero times removes the whole FlowEdge, not one occurrence.
// Callers that remove a single kind-level occurrence should decrement
// DupCount directly instead.
func RemovePredEdge(dst, src *BasicBlock) {
	for i, e := range dst.Preds {
		if e.Source == src {
			dst.Preds = append(dst.Preds[:i], dst.Preds[i+1:]...)
			return
		}
	}
}

// predListSorted reports whether dst.Preds is already in increasing
// Source.ID order (non-strictly when duplication groupings are adjacent,
// which AddPredEdge already guarantees by construction — this check exists
// for the predecessor-order consistency check and for EnsurePredListOrder's fast path).
func predListSorted(dst *BasicBlock) bool {
	for i := 1; i < len(dst.Preds); i++ {
		if dst.Preds[i-1].Source.ID > dst.Preds[i].Source.ID {
			return false
		}
	}
	return true
}

// EnsurePredListOrder restores the sorted-by-source-id invariant on dst's
// predecessor list, first checking order cheaply and only sorting if
// necessary. Returns true if a resort was needed.
func EnsurePredListOrder(dst *BasicBlock) bool {
	if predListSorted(dst) {
		return false
	}
	sort.SliceStable(dst.Preds, func(i, j int) bool {
		return dst.Preds[i].Source.ID < dst.Preds[j].Source.ID
	})
	return true
}

// PredIterOrder returns the predecessor edges of b in the order passes
// should iterate them: the canonical sorted order, or — when stressHash is
// non-zero — a deterministic-per-method permutation of it, so downstream
// code cannot accidentally depend on traversal order. The canonical order used by
// invariant checks is always the sorted one in b.Preds; this is an
// auxiliary view.
func PredIterOrder(b *BasicBlock, stressHash uint64) []*FlowEdge {
	if stressHash == 0 || len(b.Preds) < 2 {
		return b.Preds
	}
	out := append([]*FlowEdge(nil), b.Preds...)
	// A small deterministic Fisher-Yates seeded by (stressHash, block id)
	// keeps the permutation stable across runs of the same method.
	seed := stressHash ^ uint64(b.ID)*0x9E3779B97F4A7C15
	for i := len(out) - 1; i > 0; i-- {
		seed = seed*6364136223846793005 + 1442695040888963407
		j := int(seed % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
