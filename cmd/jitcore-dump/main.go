// Command jitcore-dump runs the mid-end pipeline over a synthetic method
// fixture and dumps what each pass decided: discovered loops with the
// blocks' and EH regions' kinds, iteration facts, the loop cloner's verdict, and the
// escape analyzer's stack-allocation decisions. There is no front end here
// — the fixture stands in for a method a real JIT would hand this core
// already built as IR.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"jitcore/internal/check"
	"jitcore/internal/clone"
	"jitcore/internal/compiler"
	"jitcore/internal/diag"
	"jitcore/internal/escape"
	"jitcore/internal/flow"
	"jitcore/internal/ir"
	"jitcore/internal/loop"
	"jitcore/internal/ssa"
)

func main() {
	configPath := flag.String("config", "", "YAML file overriding the default compiler tunables")
	flag.Parse()

	opts, err := loadOptions(*configPath)
	if err != nil {
		color.Red("failed to load config %s: %v", *configPath, err)
		os.Exit(1)
	}

	c := compiler.New(newDemoRuntime(), opts)
	m := buildFixture()
	c.AdoptGraph(m.Graph)
	c.IDs = m.IDs

	reporter := diag.NewReporter()

	if fatal := runPipeline(c, m); fatal != nil {
		fmt.Print(reporter.FormatFatal(fatal))
		c.Abort()
		os.Exit(1)
	}

	fmt.Print(reporter.FormatSummary(c.Declines))
	fmt.Println(color.New(color.Bold).Sprint("arena high-water marks:"))
	for cat, bytes := range c.Arena.HighWaterMark() {
		fmt.Printf("  %s: %d bytes\n", cat, bytes)
	}
	color.Green("✅ pipeline completed")
	c.Abort()
}

func runPipeline(c *compiler.Compiler, m *method) *diag.FatalError {
	res := flow.BuildDFS(c.Graph, c.Graph.EH, flow.Callbacks{})
	c.DFSValid = true

	dom := flow.BuildDominatorTree(c.Graph, c.Graph.EH, res.RPO, c.Options.StressHash)
	c.DomsValid = true

	if fatal := check.New(c.Graph, c.Graph.EH, "post-build").Run(); fatal != nil {
		return fatal
	}

	forest := loop.Discover(c.Graph, c.Graph.EH, res.RPO, dom)
	c.LoopsValid = true
	fmt.Printf("%s %d natural loop(s)\n", color.New(color.Bold).Sprint("loops:"), len(forest.Loops))
	for _, b := range c.Graph.Blocks {
		fmt.Printf("  block %d: kind=%s\n", b.ID, b.Kind.Key())
	}
	for _, r := range c.Graph.EH.Regions {
		fmt.Printf("  eh region %d: handler_kind=%s\n", r.Index, r.Kind.Key())
	}

	var target *loop.NaturalLoop
	for _, l := range forest.Loops {
		if l.Header == m.Header {
			target = l
		}
	}
	if target == nil {
		color.Yellow("no loop rooted at the fixture's header; skipping loop-dependent passes")
	} else if !loop.Canonicalize(target, c.Graph.EH) {
		color.Yellow("loop at block %d has no unique preheader; skipping loop-dependent passes", target.Header.ID)
		target = nil
	} else {
		fmt.Printf("  preheader: block %d\n", target.Preheader.ID)
		runIterationAnalysis(target, m, c.Declines)
		runCloner(c, target, m)
	}

	if fatal := ssa.New(c.Graph, c.Graph.EH, "post-loop").Run(); fatal != nil {
		return fatal
	}
	c.SSAValid = true

	runEscapeAnalysis(c, m, target)

	if c.Options.DebugChecks {
		if fatal := check.New(c.Graph, c.Graph.EH, "final").Run(); fatal != nil {
			return fatal
		}
	}
	return nil
}

func runIterationAnalysis(l *loop.NaturalLoop, m *method, sink *diag.Sink) {
	cand := loop.Candidate{
		InductionVar:    m.InductionVar,
		SingleDefInLoop: true,
		InitKind:        loop.InitConstant,
		InitConst:       0,
		LimitKind:       loop.LimitInvariantLocal,
		LimitLocal:      m.ArrayA,
		TestOp:          ir.RelLT,
		Stride:          1,
	}
	if loop.Analyze(l, cand, sink) {
		fmt.Printf("  iteration: increasing=%v\n", l.Iteration.Increasing)
	} else {
		color.Yellow("  iteration analysis declined, see summary")
	}
}

func runCloner(c *compiler.Compiler, l *loop.NaturalLoop, m *method) {
	cand := clone.Candidate{
		Kind: clone.KindJaggedArray,
		Dims: []clone.DimAccess{
			{Base: m.ArrayA, Index: m.ArrayAI},
			{Base: m.ArrayAI, Index: m.ArrayAIJ},
			{Base: m.ArrayAIJ, Index: m.IndexK},
		},
		BoundsCheckStmts: []*ir.Statement{m.BoundsCheckStmt},
		Complexity:       len(l.Blocks),
	}
	cloner := clone.TreeCloner{NextID: c.IDs.Next}

	result, ok := clone.Clone(c.Graph, c.Graph.EH, l, []clone.Candidate{cand}, cloner, clone.DefaultOptions(), c.Declines)
	if !ok {
		color.Yellow("  clone: declined, see summary")
		return
	}
	c.InvalidateFlow()
	fmt.Printf("  clone: fast preheader block %d, slow preheader block %d, %d condition(s)\n",
		result.FastPreheader.ID, result.SlowPreheader.ID, len(result.Conditions))
}

func runEscapeAnalysis(c *compiler.Compiler, m *method, l *loop.NaturalLoop) {
	g := escape.NewGraph()
	escape.Seed(g, c.Graph.Locals, nil)
	g.EscapesDirectly(m.Escaping)
	g.Close()
	fmt.Printf("  connection graph: unknown-sentinel partition=%s\n", g.Unknown.Kind.Key())

	inLoop := func(b *ir.BasicBlock) bool {
		return l != nil && l.Contains(b)
	}

	var stackSites []*ir.LocalVar
	for _, site := range []escape.Site{
		{Local: m.NonEscaping, ClassHandle: &ir.ClassHandle{ID: 1, Name: "Point", Exact: true}, Block: m.Preheader},
		{Local: m.Escaping, ClassHandle: &ir.ClassHandle{ID: 1, Name: "Point", Exact: true}, Block: m.Exit},
	} {
		if escape.Decide(site, g, inLoop, nil, c.Runtime, escape.DefaultOptions(), c.Declines) {
			stackSites = append(stackSites, site.Local)
			fmt.Printf("  escape: local %q stack-allocated\n", site.Local.Name)
		} else {
			fmt.Printf("  escape: local %q stays on the heap\n", site.Local.Name)
		}
	}

	escape.ComputeStackPointing(g, stackSites)
}
