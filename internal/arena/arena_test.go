package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAccumulatesPerCategory(t *testing.T) {
	a := New()
	a.Alloc(CategoryBlock, 128)
	a.Alloc(CategoryBlock, 128)
	a.Alloc(CategoryLocal, 32)

	marks := a.HighWaterMark()
	assert.Equal(t, int64(256), marks[CategoryBlock])
	assert.Equal(t, int64(32), marks[CategoryLocal])
	assert.Zero(t, marks[CategoryEdge])
}

func TestAllocAfterReleasePanics(t *testing.T) {
	a := New()
	a.Release()
	assert.True(t, a.Released())
	assert.Panics(t, func() { a.Alloc(CategoryBlock, 1) })
}

func TestCategoryString(t *testing.T) {
	cases := map[Category]string{
		CategoryBlock:  "block",
		CategoryEdge:   "edge",
		CategoryLocal:  "local",
		CategorySSA:    "ssa",
		CategoryEH:     "eh",
		CategoryLoop:   "loop",
		CategoryClone:  "clone",
		CategoryEscape: "escape",
		CategoryMisc:   "misc",
		Category(99):   "misc",
	}
	for cat, want := range cases {
		assert.Equal(t, want, cat.String())
	}
}

func TestAssertOwnerPanicsFromOtherGoroutine(t *testing.T) {
	a := New()
	done := make(chan struct{})
	var panicked bool
	go func() {
		defer func() {
			if recover() != nil {
				panicked = true
			}
			close(done)
		}()
		a.AssertOwner()
	}()
	<-done
	require.True(t, panicked)
}
