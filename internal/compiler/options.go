// Package compiler implements the Compiler context shared by every pass: the
// graph, per-local tables, the EH table, derived DFS/dominator/loop
// structures, the runtime interface cache, and option flags, all reachable
// as ambient context passed explicitly rather than through package
// globals.
package compiler

// Options holds every tunable knob the mid-end passes consult, all
// optional with the defaults shown below.
type Options struct {
	StackAllocMaxSize      int     // default 512
	TrackStructFields      bool    // default off
	EnableConditionalEscape bool   // default on
	MaxLoopCloneConds      int     // default 3 (deref-tree depth bound)
	CloneSizeLimit         int     // max per-region cloned-block complexity
	FastPathWeight         float64 // default 0.99
	StressHash             uint64  // 0 disables stress-mode shuffling
	DebugChecks            bool    // enable the flowgraph consistency checker between passes
}

// DefaultOptions returns the baseline configuration.
func DefaultOptions() Options {
	return Options{
		StackAllocMaxSize:       512,
		TrackStructFields:       false,
		EnableConditionalEscape: true,
		MaxLoopCloneConds:       3,
		CloneSizeLimit:          64,
		FastPathWeight:          0.99,
		StressHash:              0,
		DebugChecks:             false,
	}
}
