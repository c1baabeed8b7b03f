package compiler

import (
	deadlock "github.com/sasha-s/go-deadlock"

	"jitcore/internal/ir"
)

// RuntimeInterface is the immutable, reentrant collaborator consumed
// throughout a compilation. It is the only thing distinct Compiler
// instances may share across goroutines; the core itself takes no locks
// on it beyond the caching layer below, which exists purely to avoid
// redundant runtime round-trips.
type RuntimeInterface interface {
	IsValueClass(h *ir.ClassHandle) bool
	CanAllocateOnStack(h *ir.ClassHandle) bool
	ClassSize(h *ir.ClassHandle) int
	HeapClassSize(h *ir.ClassHandle) int // includes object header
	ClassLayout(h *ir.ClassHandle) *ir.StructLayout
	GetHelper(id string) uintptr
	ClassAttributes(h *ir.ClassHandle) uint32
}

// Class attribute bits returned by RuntimeInterface.ClassAttributes.
const (
	ClassAttrDelegate uint32 = 1 << iota
	ClassAttrHasFinalizer
)

// RuntimeCache memoizes RuntimeInterface lookups that are expensive enough
// to be worth sharing across the lifetime of one compilation (class
// layouts, helper addresses). It is guarded with go-deadlock's
// lock-order-checked RWMutex rather than a bare sync.RWMutex, since any
// sharing of the runtime interface across parallel compilations must go
// through a reentrant interface, and go-deadlock catches an accidental
// lock-order inversion during development that a plain mutex would only
// manifest as a rare production hang.
type RuntimeCache struct {
	rt deadlock.RWMutex

	runtime RuntimeInterface

	layouts map[int]*ir.StructLayout
	helpers map[string]uintptr
}

func NewRuntimeCache(rt RuntimeInterface) *RuntimeCache {
	return &RuntimeCache{
		runtime: rt,
		layouts: make(map[int]*ir.StructLayout),
		helpers: make(map[string]uintptr),
	}
}

func (c *RuntimeCache) ClassLayout(h *ir.ClassHandle) *ir.StructLayout {
	c.rt.RLock()
	if l, ok := c.layouts[h.ID]; ok {
		c.rt.RUnlock()
		return l
	}
	c.rt.RUnlock()

	l := c.runtime.ClassLayout(h)

	c.rt.Lock()
	c.layouts[h.ID] = l
	c.rt.Unlock()
	return l
}

func (c *RuntimeCache) GetHelper(id string) uintptr {
	c.rt.RLock()
	if addr, ok := c.helpers[id]; ok {
		c.rt.RUnlock()
		return addr
	}
	c.rt.RUnlock()

	addr := c.runtime.GetHelper(id)

	c.rt.Lock()
	c.helpers[id] = addr
	c.rt.Unlock()
	return addr
}

func (c *RuntimeCache) IsValueClass(h *ir.ClassHandle) bool        { return c.runtime.IsValueClass(h) }
func (c *RuntimeCache) CanAllocateOnStack(h *ir.ClassHandle) bool  { return c.runtime.CanAllocateOnStack(h) }
func (c *RuntimeCache) ClassSize(h *ir.ClassHandle) int            { return c.runtime.ClassSize(h) }
func (c *RuntimeCache) HeapClassSize(h *ir.ClassHandle) int        { return c.runtime.HeapClassSize(h) }
func (c *RuntimeCache) ClassAttributes(h *ir.ClassHandle) uint32   { return c.runtime.ClassAttributes(h) }
