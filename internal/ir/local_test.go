package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSSALifetimeUseCountSaturates(t *testing.T) {
	lv := &LocalVar{ID: 1, Name: "x", TrackedIndex: 0}
	lt := lv.NewLifetime(0, NewBasicBlock(1, KindNone))

	for i := 0; i < maxSaturatingUseCount+10; i++ {
		lt.IncrUse()
	}
	assert.Equal(t, maxSaturatingUseCount, lt.UseCount())
}

func TestDefinitelyVsPossiblyStackPointing(t *testing.T) {
	lv := &LocalVar{ID: 1}
	lv.PossiblyStackPointing = true
	assert.True(t, lv.DefinitelyStackPointing())

	lv.PossiblyHeapPointing = true
	assert.False(t, lv.DefinitelyStackPointing())
}

func TestStructLayoutClone(t *testing.T) {
	orig := &StructLayout{Size: 16, SlotKind: []GCSlotType{GCSlotRef, GCSlotNone}, Padding: []int{0, 4}}
	cloned := orig.Clone()
	cloned.SlotKind[0] = GCSlotNone

	assert.Equal(t, GCSlotRef, orig.SlotKind[0])
	assert.Equal(t, GCSlotNone, cloned.SlotKind[0])
}
