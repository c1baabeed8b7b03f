package escape

import (
	"fmt"

	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

// PseudoGuard names the GDV (guarded devirtualization) test a conditional
// escape site is routed through: a new-object store to GuardedLocal
// dominated by the success edge of indir(GuardedLocal-ish receiver) ==
// TypeHandle at GuardBlock.
type PseudoGuard struct {
	GuardedLocal *ir.LocalVar
	GuardBlock   *ir.BasicBlock
	TypeHandle   *ir.ClassHandle
}

// CloneInfo is the bookkeeping the cloner needs to rescue one pseudo: the
// blocks dominated by the guard's success edge down to (and including)
// the final assignment to the guarded local.
type CloneInfo struct {
	Guard       *PseudoGuard
	Pseudo      *Node
	CloneBlocks map[*ir.BasicBlock]bool
	Size        int
}

// Registry tracks every pseudo created during one closure pass, so the
// rescue decision can check clone-region overlap across all of them.
type Registry struct {
	Infos []*CloneInfo
}

// NewPseudoSite records rule 1 of conditional escape analysis: a
// new-object store to guard.GuardedLocal under the GDV success branch
// creates a pseudo node and its CloneInfo.
func (r *Registry) NewPseudoSite(g *Graph, guard *PseudoGuard, cloneBlocks map[*ir.BasicBlock]bool, size int) *CloneInfo {
	pseudo := g.NewPseudo(guard)
	info := &CloneInfo{Guard: guard, Pseudo: pseudo, CloneBlocks: cloneBlocks, Size: size}
	r.Infos = append(r.Infos, info)
	return info
}

// RouteThroughPseudo records rule 2: a use of the guarded local under the
// GDV failure branch adds pseudo -> local (not local -> unknown directly),
// deferring the escape decision to the pseudo.
func RouteThroughPseudo(g *Graph, info *CloneInfo) {
	g.AddEdge(info.Pseudo, g.NodeForLocal(info.Guard.GuardedLocal))
}

// Rescuable reports whether info's pseudo can be rescued by cloning:
// neither the pseudo nor the guarded local (independent of the pseudo)
// escapes. independentEscaping is the escaping set computed with every
// pseudo's outgoing edges removed, isolating whether the local escapes
// for a reason other than the conditional-escape routing.
func Rescuable(g *Graph, info *CloneInfo, independentEscaping map[*Node]bool) bool {
	if g.Escaping(info.Pseudo) {
		return false
	}
	localNode := g.NodeForLocal(info.Guard.GuardedLocal)
	return !independentEscaping[localNode]
}

// IndependentEscapingSet reruns closure on a copy of g's escaping seeds
// with every pseudo node's outgoing edges excluded, isolating escape
// routes that do not go through a conditional-escape pseudo.
func IndependentEscapingSet(g *Graph) map[*Node]bool {
	seeds := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if g.escaping[n] && n.Kind != NodeKindPseudo {
			seeds = append(seeds, n)
		}
	}
	set := make(map[*Node]bool, len(seeds))
	var worklist []*Node
	for _, s := range seeds {
		set[s] = true
		worklist = append(worklist, s)
	}
	for len(worklist) > 0 {
		a := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if a.Kind == NodeKindPseudo {
			continue // a pseudo's outgoing edge is the routed escape; excluded here
		}
		for _, b := range g.edges[a] {
			if !set[b] {
				set[b] = true
				worklist = append(worklist, b)
			}
		}
	}
	return set
}

// Overlaps reports whether a and b's clone regions share any block.
func (a *CloneInfo) Overlaps(b *CloneInfo) bool {
	small, large := a, b
	if len(small.CloneBlocks) > len(large.CloneBlocks) {
		small, large = large, small
	}
	for blk := range small.CloneBlocks {
		if large.CloneBlocks[blk] {
			return true
		}
	}
	return false
}

// ResolveRescues walks the registry in order, admitting a candidate's
// rescue only if its clone region does not overlap any already-admitted
// rescue's region and the total admitted size stays within sizeLimit.
// A rejected candidate's pseudo is marked escaping so a subsequent
// Graph.Close rerun accounts for it, per "cloning is abandoned and the
// pseudo is marked escaping, triggering a fresh closure pass".
func ResolveRescues(g *Graph, reg *Registry, sizeLimit int, sink *diag.Sink) []*CloneInfo {
	independent := IndependentEscapingSet(g)

	var admitted []*CloneInfo
	totalSize := 0
	for _, info := range reg.Infos {
		site := fmt.Sprintf("local@%d", info.Guard.GuardedLocal.ID)

		if !Rescuable(g, info, independent) {
			continue
		}
		overlap := false
		for _, other := range admitted {
			if info.Overlaps(other) {
				overlap = true
				break
			}
		}
		if overlap || totalSize+info.Size > sizeLimit {
			g.MarkEscaping(info.Pseudo)
			sink.Record(diag.NewDecline(diag.DeclineEscapeCloneOverlap, "escape-analyzer", site,
				"conditional-escape clone region overlaps another or exceeds the size limit"))
			continue
		}
		admitted = append(admitted, info)
		totalSize += info.Size
	}
	return admitted
}
