package escape

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

// RuntimeQuery is the narrow slice of the compiler's runtime collaborator
// the allocation decision needs.
type RuntimeQuery interface {
	CanAllocateOnStack(h *ir.ClassHandle) bool
	ClassSize(h *ir.ClassHandle) int
	ClassLayout(h *ir.ClassHandle) *ir.StructLayout
}

// Site is one heap-allocating statement under consideration: a
// new-object, new-array, or box-of-value-class whose destination is
// local.
type Site struct {
	Local       *ir.LocalVar
	ClassHandle *ir.ClassHandle
	Block       *ir.BasicBlock
	IsArray     bool
}

// Options bounds the allocation decision the way the tunables
// bound other passes.
type Options struct {
	MaxObjectSize int
}

func DefaultOptions() Options {
	return Options{MaxObjectSize: 512}
}

// InLoop reports whether block is a member of any natural loop; callers
// pass the membership test their loop.Forest already computed rather than
// this package depending on internal/loop.
type InLoop func(b *ir.BasicBlock) bool

// Decide applies the safety gates and, for a site whose local does not
// escape, marks it stack-allocated. It returns false (with a Decline
// recorded) for every gate that rejects the site; a false return with no
// Decline recorded means the site simply escapes, which is not a give-up,
// just the ordinary outcome of the analysis.
func Decide(site Site, g *Graph, inLoop InLoop, coldBlock func(*ir.BasicBlock) bool, runtime RuntimeQuery, opts Options, sink *diag.Sink) bool {
	siteTag := fmt.Sprintf("local@%d", site.Local.ID)

	if inLoop != nil && inLoop(site.Block) {
		sink.Record(diag.NewDecline(diag.DeclineEscapeInLoop, "escape-analyzer", siteTag, "allocation block is inside a loop"))
		return false
	}
	if coldBlock != nil && coldBlock(site.Block) {
		sink.Record(diag.NewDecline(diag.DeclineEscapeColdBlock, "escape-analyzer", siteTag, "allocation block has no profile weight"))
		return false
	}
	size := runtime.ClassSize(site.ClassHandle)
	if size > opts.MaxObjectSize {
		sink.Record(diag.NewDecline(diag.DeclineEscapeTooLarge, "escape-analyzer", siteTag, "object size exceeds the stack allocation maximum"))
		return false
	}
	if site.ClassHandle != nil && !site.ClassHandle.Exact {
		sink.Record(diag.NewDecline(diag.DeclineEscapeInexactClass, "escape-analyzer", siteTag, "target class handle is not exact"))
		return false
	}
	if !runtime.CanAllocateOnStack(site.ClassHandle) {
		sink.Record(diag.NewDecline(diag.DeclineEscapeNotAllocatable, "escape-analyzer", siteTag, "runtime reports the class is not stack-allocatable"))
		return false
	}
	if g.Escaping(g.NodeForLocal(site.Local)) {
		return false
	}

	site.Local.StackAllocated = true
	site.Local.SemType = ir.SemNativeInt
	if !site.IsArray {
		site.Local.Layout = runtime.ClassLayout(site.ClassHandle)
	}
	return true
}

// ComputeStackPointing runs the second fixed point after allocation
// decisions are made: possiblyStackPointing seeded from every
// stack-allocated site's local, possiblyHeapPointing seeded from
// unknownSource, both propagated against edge direction via the reverse
// adjacency (see Graph.reverseAdjacency). Locals possibly- but not
// definitely-stack-pointing are retyped to a byref that tolerates both
// referents; definitely-stack-pointing locals get the platform native-int
// retype Decide already applied to the allocation site itself.
func ComputeStackPointing(g *Graph, stackSites []*ir.LocalVar) {
	rev := g.reverseAdjacency()

	var stackSeeds []*Node
	for _, l := range stackSites {
		stackSeeds = append(stackSeeds, g.NodeForLocal(l))
	}
	stackSet := closeFrom(rev, stackSeeds)
	heapSet := closeFrom(rev, []*Node{g.Unknown})

	for local, n := range g.byLocal {
		local.PossiblyStackPointing = stackSet[n]
		local.PossiblyHeapPointing = heapSet[n]
		if local.StackAllocated {
			continue
		}
		if local.DefinitelyStackPointing() {
			local.SemType = ir.SemNativeInt
		} else if local.PossiblyStackPointing {
			local.SemType = ir.SemByref
		}
	}
}
