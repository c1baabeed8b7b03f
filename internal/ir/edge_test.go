package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddPredEdgeDuplicateCount(t *testing.T) {
	src := NewBasicBlock(1, KindSwitch)
	dst := NewBasicBlock(2, KindReturn)

	e1 := AddPredEdge(dst, src)
	e2 := AddPredEdge(dst, src)

	assert.Same(t, e1, e2)
	assert.Equal(t, 2, e1.DupCount)
	assert.Len(t, dst.Preds, 1)
}

func TestPredListSortOrderAndIdempotence(t *testing.T) {
	dst := NewBasicBlock(100, KindReturn)
	srcs := []*BasicBlock{
		NewBasicBlock(5, KindAlways),
		NewBasicBlock(1, KindAlways),
		NewBasicBlock(3, KindAlways),
	}
	for _, s := range srcs {
		AddPredEdge(dst, s)
	}
	assert.True(t, predListSorted(dst))

	// Simulate an out-of-order insert that bypassed AddPredEdge.
	dst.Preds = append(dst.Preds, &FlowEdge{Source: NewBasicBlock(2, KindAlways), Dest: dst, DupCount: 1})
	assert.False(t, predListSorted(dst))

	resorted := EnsurePredListOrder(dst)
	assert.True(t, resorted)
	assert.True(t, predListSorted(dst))

	// Idempotence: running again makes no further changes and reports false.
	resortedAgain := EnsurePredListOrder(dst)
	assert.False(t, resortedAgain)
}

func TestRemovePredEdge(t *testing.T) {
	dst := NewBasicBlock(1, KindReturn)
	src := NewBasicBlock(2, KindAlways)
	AddPredEdge(dst, src)
	assert.Len(t, dst.Preds, 1)
	RemovePredEdge(dst, src)
	assert.Empty(t, dst.Preds)
}

func TestPredIterOrderDeterministicPerHash(t *testing.T) {
	dst := NewBasicBlock(1, KindReturn)
	for i := 2; i <= 6; i++ {
		AddPredEdge(dst, NewBasicBlock(i, KindAlways))
	}

	a := PredIterOrder(dst, 12345)
	b := PredIterOrder(dst, 12345)
	require := assert.New(t)
	require.Equal(len(a), len(b))
	for i := range a {
		require.Same(a[i], b[i])
	}

	zero := PredIterOrder(dst, 0)
	require.Equal(dst.Preds, zero)
}
