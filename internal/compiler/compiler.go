package compiler

import (
	"jitcore/internal/arena"
	"jitcore/internal/diag"
	"jitcore/internal/ir"
)

// Compiler is the per-method compilation context every pass receives
// explicitly.
// One Compiler represents one method's compilation and owns all memory
// reachable from it via Arena.
type Compiler struct {
	Arena   *arena.Arena
	Graph   *ir.ControlFlowGraph
	Runtime *RuntimeCache
	Options Options
	IDs     *ir.IDGen

	Declines *diag.Sink

	// Validity of derived structures: any pass that adds, removes, or
	// redirects edges must rebuild these or mark them invalid.
	DFSValid   bool
	DomsValid  bool
	LoopsValid bool
	SSAValid   bool

	cancelled bool
}

// New creates a Compiler for one method compilation.
func New(rt RuntimeInterface, opts Options) *Compiler {
	ids := ir.NewIDGen()
	a := arena.New()
	g := ir.NewControlFlowGraph(ids)
	g.Arena = a
	return &Compiler{
		Arena:    a,
		Graph:    g,
		Runtime:  NewRuntimeCache(rt),
		Options:  opts,
		IDs:      ids,
		Declines: diag.NewSink(),
	}
}

// AdoptGraph replaces c.Graph with g, wiring c.Arena into it so every block
// g allocates from here on is still tracked — used when a caller builds its
// own fixture graph and then runs it through this Compiler's pipeline.
func (c *Compiler) AdoptGraph(g *ir.ControlFlowGraph) {
	g.Arena = c.Arena
	c.Graph = g
}

// Cancel marks the compilation cancelled; passes check Cancelled() at pass
// boundaries only — there are no suspension points inside a pass.
func (c *Compiler) Cancel() {
	c.cancelled = true
}

func (c *Compiler) Cancelled() bool {
	return c.cancelled
}

// Abort releases the arena if it is not already released; it is the
// reaction to either a fatal invariant violation or a caller cancellation.
func (c *Compiler) Abort() {
	if !c.Arena.Released() {
		c.Arena.Release()
	}
}

// InvalidateFlow marks the DFS/dominator/loop structures invalid after a
// pass that changed the edge set; the next pass that needs them must
// rebuild before querying.
func (c *Compiler) InvalidateFlow() {
	c.DFSValid = false
	c.DomsValid = false
	c.LoopsValid = false
	ir.InvalidateEHPredCache(c.Graph)
}

// InvalidateSSA marks SSA facts invalid, e.g. after a transform that
// introduces a new def without going through the SSA builder.
func (c *Compiler) InvalidateSSA() {
	c.SSAValid = false
}
