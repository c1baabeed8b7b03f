package ir

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// HandlerKind identifies the shape of an EH handler region.
type HandlerKind int

const (
	HandlerCatch HandlerKind = iota
	HandlerFilter
	HandlerFault
	HandlerFinally
	HandlerFaultWasFinally
)

var handlerKindGoNames = [...]string{
	"Catch", "Filter", "Fault", "Finally", "FaultWasFinally",
}

func (k HandlerKind) String() string {
	if int(k) < 0 || int(k) >= len(handlerKindGoNames) {
		return "unknown"
	}
	return strcase.ToSnake(handlerKindGoNames[k])
}

// Key renders k as the snake_case diagnostic key, the same rendering
// BranchKind.Key uses for the dumper and structured diagnostics.
func (k HandlerKind) Key() string {
	return k.String()
}

// BlockRange is a [First, Last] contiguous lexical range. A try region is
// one BlockRange at construction time but may become several after
// funclet extraction splits it.
type BlockRange struct {
	First, Last *BasicBlock
}

// EHRegion is one entry of the flat, outer-first EH descriptor array.
type EHRegion struct {
	Index int

	TryRanges []BlockRange // contiguous at construction: len == 1
	Handler   BlockRange
	Filter    *BlockRange // nil unless Kind == HandlerFilter

	Kind HandlerKind

	EnclosingTryIndex int // -1 if outermost

	// CallFinallyBlocks is this handler's call-site set: every CALLFINALLY
	// block that invokes this finally, split into two logical ranges
	// searched separately (regular blocks, then funclets) since funclet
	// extraction can split a handler's call sites across the boundary.
	CallFinallyBlocksRegular []*BasicBlock
	CallFinallyBlocksFunclet []*BasicBlock

	// nestPre/nestPost give RegionContains an O(1) interval check once
	// BuildNestingIntervals has run.
	nestPre, nestPost int
}

// TryFirst/TryLast report the first range's bounds for callers that have
// not yet split the try across funclets.
func (r *EHRegion) TryFirst() *BasicBlock {
	if len(r.TryRanges) == 0 {
		return nil
	}
	return r.TryRanges[0].First
}

func (r *EHRegion) TryLast() *BasicBlock {
	if len(r.TryRanges) == 0 {
		return nil
	}
	return r.TryRanges[len(r.TryRanges)-1].Last
}

// EHTable is the forest of EH regions for one compilation, stored
// outer-first.
type EHTable struct {
	Regions []*EHRegion
}

// callFinallyRetSuccessors finds the enclosing finally region whose
// filter/handler b belongs to and returns its combined call-finally set.
// b is expected to be an EHFINALLYRET block; its HandlerIndex names the
// finally region.
func (t *EHTable) callFinallyRetSuccessors(b *BasicBlock) []*BasicBlock {
	if b.HandlerIndex < 0 || b.HandlerIndex >= len(t.Regions) {
		return nil
	}
	r := t.Regions[b.HandlerIndex]
	out := make([]*BasicBlock, 0, len(r.CallFinallyBlocksRegular)+len(r.CallFinallyBlocksFunclet))
	out = append(out, r.CallFinallyBlocksRegular...)
	out = append(out, r.CallFinallyBlocksFunclet...)
	return out
}

// BuildNestingIntervals assigns each region a pre/post order over the
// EnclosingTryIndex forest so RegionContains becomes an O(1) interval
// check.
func BuildNestingIntervals(t *EHTable) {
	children := make(map[int][]int)
	roots := []int{}
	for _, r := range t.Regions {
		if r.EnclosingTryIndex < 0 {
			roots = append(roots, r.Index)
		} else {
			children[r.EnclosingTryIndex] = append(children[r.EnclosingTryIndex], r.Index)
		}
	}
	clock := 0
	var visit func(idx int)
	visit = func(idx int) {
		r := t.Regions[idx]
		clock++
		r.nestPre = clock
		for _, c := range children[idx] {
			visit(c)
		}
		clock++
		r.nestPost = clock
	}
	for _, root := range roots {
		visit(root)
	}
}

// RegionContains reports whether outer properly contains (or equals)
// inner, in O(1) via the precomputed nesting interval.
func RegionContains(outer, inner int, t *EHTable) bool {
	if outer < 0 || outer >= len(t.Regions) || inner < 0 || inner >= len(t.Regions) {
		return false
	}
	o, i := t.Regions[outer], t.Regions[inner]
	return o.nestPre <= i.nestPre && i.nestPost <= o.nestPost
}

// RegionGraphNode is the lexical-extent tree used by the diagnostic dumper
// and reused by the cloner/checker for containment queries.
type RegionGraphNode struct {
	First, Last int // block ordinals
	Region      *EHRegion
	Children    []*RegionGraphNode
}

// InsertRegion inserts a new region's [firstOrdinal, lastOrdinal] lexical
// extent into the tree rooted at root, asserting proper nesting: regions
// may share a start or end block but never cross.
func InsertRegion(root *RegionGraphNode, region *EHRegion, firstOrdinal, lastOrdinal int) error {
	return insertInto(root, region, firstOrdinal, lastOrdinal)
}

func insertInto(parent *RegionGraphNode, region *EHRegion, first, last int) error {
	newNode := &RegionGraphNode{First: first, Last: last, Region: region}

	// Partition parent's existing children into: entirely-before,
	// nested-inside-one-child, straddling-some-children, entirely-after.
	var before, straddled, after []*RegionGraphNode
	placedInChild := false

	for _, child := range parent.Children {
		switch {
		case last < child.First:
			after = append(after, child)
		case first > child.Last:
			before = append(before, child)
		case child.First <= first && last <= child.Last:
			if placedInChild {
				return fmt.Errorf("region %d nests inside more than one child of region graph", region.Index)
			}
			if err := insertInto(child, region, first, last); err != nil {
				return err
			}
			placedInChild = true
		case first <= child.First && child.Last <= last:
			straddled = append(straddled, child)
		default:
			return fmt.Errorf("region %d crosses region graph node [%d,%d] without nesting", region.Index, child.First, child.Last)
		}
	}

	if placedInChild {
		return nil
	}

	newNode.Children = straddled
	parent.Children = append(append(before, newNode), after...)
	return nil
}

// VerifyRegionGraph walks the tree asserting each child's interval is
// contained in its parent's and siblings are non-overlapping and ordered.
func VerifyRegionGraph(root *RegionGraphNode) error {
	return verifyNode(root)
}

func verifyNode(n *RegionGraphNode) error {
	prevLast := n.First - 1
	for _, c := range n.Children {
		if c.First <= prevLast {
			return fmt.Errorf("region graph children out of order or overlapping at ordinal %d", c.First)
		}
		if c.First < n.First || c.Last > n.Last {
			return fmt.Errorf("region graph child [%d,%d] not contained in parent [%d,%d]", c.First, c.Last, n.First, n.Last)
		}
		if err := verifyNode(c); err != nil {
			return err
		}
		prevLast = c.Last
	}
	return nil
}
