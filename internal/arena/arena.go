// Package arena implements the category-tagged bump allocator that backs a
// single compilation. Memory is never freed piecemeal; the whole arena is
// released when the compilation finishes or is cancelled.
package arena

import (
	"github.com/petermattis/goid"
)

// Category tags a high-water mark for debugging only; categories do not
// partition visibility — any value allocated in the arena is reachable from
// any other, regardless of category.
type Category int

const (
	CategoryBlock Category = iota
	CategoryEdge
	CategoryLocal
	CategorySSA
	CategoryEH
	CategoryLoop
	CategoryClone
	CategoryEscape
	CategoryMisc
)

func (c Category) String() string {
	switch c {
	case CategoryBlock:
		return "block"
	case CategoryEdge:
		return "edge"
	case CategoryLocal:
		return "local"
	case CategorySSA:
		return "ssa"
	case CategoryEH:
		return "eh"
	case CategoryLoop:
		return "loop"
	case CategoryClone:
		return "clone"
	case CategoryEscape:
		return "escape"
	default:
		return "misc"
	}
}

// mark records a high-water point in one category, used only so the debug
// dumper can report where memory went; it does not gate allocation.
type mark struct {
	count int
	bytes int64
}

// Arena owns every allocation made during one compilation. A compilation
// that is cancelled or fails discards its arena wholesale: there is no
// partial free.
//
// An Arena must only ever be touched by the goroutine that created it. The
// ownerGoid stamp lets AssertOwner catch accidental cross-goroutine misuse
// in debug builds; it is not a correctness mechanism for the IR itself,
// which remains single-threaded cooperative.
type Arena struct {
	ownerGoid int64
	marks     map[Category]*mark
	released  bool
}

func New() *Arena {
	return &Arena{
		ownerGoid: goid.Get(),
		marks:     make(map[Category]*mark),
	}
}

// AssertOwner panics if called from a goroutine other than the one that
// created the arena. Alloc, HighWaterMark and Release call it at entry; it
// is a cheap guard against a transform accidentally escaping to a worker
// pool.
func (a *Arena) AssertOwner() {
	if goid.Get() != a.ownerGoid {
		panic("arena: accessed from a goroutine other than its owner")
	}
}

// Alloc records category bookkeeping for an allocation of approxBytes and
// returns nothing: the actual Go allocation happens at the call site (the
// arena tracks, it does not itself allocate generic memory — this mirrors
// the source's arena which hands out typed storage per call site).
func (a *Arena) Alloc(cat Category, approxBytes int64) {
	a.AssertOwner()
	if a.released {
		panic("arena: allocation after release")
	}
	m, ok := a.marks[cat]
	if !ok {
		m = &mark{}
		a.marks[cat] = m
	}
	m.count++
	m.bytes += approxBytes
}

// HighWaterMark returns the bytes recorded so far per category, as a fresh
// map; it has no effect on allocation. After Release the map is empty.
func (a *Arena) HighWaterMark() map[Category]int64 {
	a.AssertOwner()
	out := make(map[Category]int64, len(a.marks))
	for cat, m := range a.marks {
		out[cat] = m.bytes
	}
	return out
}

// Release discards the arena's bookkeeping. After Release, Alloc panics;
// callers must not retain any IR reachable only through this arena.
func (a *Arena) Release() {
	a.AssertOwner()
	a.released = true
	a.marks = nil
}

// Released reports whether Release has already been called.
func (a *Arena) Released() bool {
	return a.released
}
