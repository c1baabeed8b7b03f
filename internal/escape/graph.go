// Package escape implements the connection-graph escape analyzer: a
// directed graph over tracked locals, compiler-reserved pseudo-nodes, and
// an unknown-source sentinel, a worklist fixed-point closure over it, and
// the stack-allocation rewrite the closure's result enables.
package escape

import (
	"github.com/iancoleman/strcase"

	"jitcore/internal/ir"
)

// NodeKind discriminates what a connection-graph node stands for: which
// partition of the bit-vector a node belongs to when the closure's result
// is dumped.
type NodeKind int

const (
	NodeKindLocal NodeKind = iota
	NodeKindPseudo
	NodeKindUnknown
)

var nodeKindGoNames = [...]string{"Local", "Pseudo", "Unknown"}

// Key renders the partition kind as the snake_case key structured
// diagnostics and the dumper use.
func (k NodeKind) Key() string {
	if int(k) < 0 || int(k) >= len(nodeKindGoNames) {
		return "unknown"
	}
	return strcase.ToSnake(nodeKindGoNames[k])
}

// Node is one bit-vector element of the connection graph.
type Node struct {
	ID    int
	Kind  NodeKind
	Local *ir.LocalVar   // set iff Kind == NodeKindLocal
	Guard *PseudoGuard    // set iff Kind == NodeKindPseudo
}

// Graph is the connection graph for one method: edge a -> b means "the
// value held by a might come from b". Escape flows in the reverse
// direction of the edge's intent but propagates by walking forward along
// it: if a escapes and a -> b, then b escapes too, because the value that
// actually escaped may have originated at b.
type Graph struct {
	nodes    []*Node
	byLocal  map[*ir.LocalVar]*Node
	Unknown  *Node
	edges    map[*Node][]*Node
	escaping map[*Node]bool
	nextID   int
}

func NewGraph() *Graph {
	g := &Graph{
		byLocal:  make(map[*ir.LocalVar]*Node),
		edges:    make(map[*Node][]*Node),
		escaping: make(map[*Node]bool),
	}
	g.Unknown = g.newNode(NodeKindUnknown)
	g.escaping[g.Unknown] = true
	return g
}

func (g *Graph) newNode(kind NodeKind) *Node {
	n := &Node{ID: g.nextID, Kind: kind}
	g.nextID++
	g.nodes = append(g.nodes, n)
	return n
}

// NodeForLocal returns l's node, creating it on first reference.
func (g *Graph) NodeForLocal(l *ir.LocalVar) *Node {
	if n, ok := g.byLocal[l]; ok {
		return n
	}
	n := g.newNode(NodeKindLocal)
	n.Local = l
	g.byLocal[l] = n
	return n
}

// NewPseudo allocates a pseudo-node for the GDV guard described by guard.
func (g *Graph) NewPseudo(guard *PseudoGuard) *Node {
	n := g.newNode(NodeKindPseudo)
	n.Guard = guard
	return n
}

// AddEdge records a -> b ("a's value might come from b").
func (g *Graph) AddEdge(a, b *Node) {
	for _, existing := range g.edges[a] {
		if existing == b {
			return
		}
	}
	g.edges[a] = append(g.edges[a], b)
}

// MarkEscaping seeds n as escaping without running closure.
func (g *Graph) MarkEscaping(n *Node) {
	g.escaping[n] = true
}

func (g *Graph) Escaping(n *Node) bool {
	return g.escaping[n]
}

// Close runs the worklist fixed point: starting from every node currently
// marked escaping, propagate along every outgoing edge until no more
// nodes are added.
func (g *Graph) Close() {
	var worklist []*Node
	for _, n := range g.nodes {
		if g.escaping[n] {
			worklist = append(worklist, n)
		}
	}
	for len(worklist) > 0 {
		a := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, b := range g.edges[a] {
			if !g.escaping[b] {
				g.escaping[b] = true
				worklist = append(worklist, b)
			}
		}
	}
}

// reverseAdjacency computes, for every node b, the set of a with an edge
// a -> b. The stack-pointing closure propagates against edge direction
// (a property seeded on b reaches every a that might read its value from
// b), the opposite of escape's forward propagation.
func (g *Graph) reverseAdjacency() map[*Node][]*Node {
	rev := make(map[*Node][]*Node, len(g.nodes))
	for a, outs := range g.edges {
		for _, b := range outs {
			rev[b] = append(rev[b], a)
		}
	}
	return rev
}

// closeFrom runs a forward-over-reverse-adjacency fixed point seeded by
// seeds, used by both halves of the stack-pointing closure.
func closeFrom(rev map[*Node][]*Node, seeds []*Node) map[*Node]bool {
	set := make(map[*Node]bool, len(seeds))
	var worklist []*Node
	for _, s := range seeds {
		if !set[s] {
			set[s] = true
			worklist = append(worklist, s)
		}
	}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, a := range rev[b] {
			if !set[a] {
				set[a] = true
				worklist = append(worklist, a)
			}
		}
	}
	return set
}
