package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumSuccessorsByKind(t *testing.T) {
	table := &EHTable{}

	throw := NewBasicBlock(1, KindThrow)
	assert.Equal(t, 0, NumSuccessors(throw, table))

	ret := NewBasicBlock(2, KindReturn)
	assert.Equal(t, 0, NumSuccessors(ret, table))

	always := NewBasicBlock(3, KindAlways)
	always.Target = NewBasicBlock(4, KindReturn)
	assert.Equal(t, 1, NumSuccessors(always, table))

	condDistinct := NewBasicBlock(5, KindCond)
	condDistinct.TrueTarget = NewBasicBlock(6, KindReturn)
	condDistinct.FalseTarget = NewBasicBlock(7, KindReturn)
	assert.Equal(t, 2, NumSuccessors(condDistinct, table))

	condSame := NewBasicBlock(8, KindCond)
	same := NewBasicBlock(9, KindReturn)
	condSame.TrueTarget = same
	condSame.FalseTarget = same
	assert.Equal(t, 1, NumSuccessors(condSame, table))

	sw := NewBasicBlock(10, KindSwitch)
	t1 := NewBasicBlock(11, KindReturn)
	t2 := NewBasicBlock(12, KindReturn)
	sw.SwitchTargets = []*BasicBlock{t1, t2, t1}
	assert.Equal(t, 2, NumSuccessors(sw, table))
}

func TestFallsThrough(t *testing.T) {
	assert.True(t, FallsThrough(NewBasicBlock(1, KindNone)))
	assert.True(t, FallsThrough(NewBasicBlock(2, KindCond)))
	assert.False(t, FallsThrough(NewBasicBlock(3, KindAlways)))
	assert.False(t, FallsThrough(NewBasicBlock(4, KindThrow)))
}

func TestUniquePredecessorAndSuccessor(t *testing.T) {
	table := &EHTable{}
	a := NewBasicBlock(1, KindAlways)
	b := NewBasicBlock(2, KindReturn)
	a.Target = b
	AddPredEdge(b, a)

	assert.Equal(t, a, UniquePredecessor(b))
	assert.Equal(t, b, UniqueSuccessor(a, table))

	c := NewBasicBlock(3, KindAlways)
	c.Target = b
	AddPredEdge(b, c)
	assert.Nil(t, UniquePredecessor(b))
}

type stubCloner struct{ fail bool }

func (s stubCloner) CloneStatement(stmt *Statement, localToReplace *LocalVar, replacementValue *Node) (*Statement, bool) {
	if s.fail {
		return nil, false
	}
	return &Statement{ID: stmt.ID + 1000, Root: stmt.Root}, true
}

func TestCloneBlockStateSuccess(t *testing.T) {
	src := NewBasicBlock(1, KindNone)
	src.Weight = 42
	src.TryIndex = 2
	src.Stmts = []*Statement{{ID: 1, Root: &Node{Kind: NodeConst}}, {ID: 2, Root: &Node{Kind: NodeReturn}}}

	dst := NewBasicBlock(2, KindNone)
	ok := CloneBlockState(src, dst, nil, nil, stubCloner{})
	require.True(t, ok)
	assert.Equal(t, src.Weight, dst.Weight)
	assert.Equal(t, src.TryIndex, dst.TryIndex)
	assert.Len(t, dst.Stmts, 2)
	assert.Equal(t, dst, dst.Stmts[0].Block)
}

func TestCloneBlockStateFailureLeavesPartialState(t *testing.T) {
	src := NewBasicBlock(1, KindNone)
	src.Stmts = []*Statement{{ID: 1, Root: &Node{Kind: NodeConst}}}

	dst := NewBasicBlock(2, KindNone)
	ok := CloneBlockState(src, dst, nil, nil, stubCloner{fail: true})
	assert.False(t, ok)
}

func TestBranchKindKey(t *testing.T) {
	assert.Equal(t, "always", KindAlways.Key())
	assert.Equal(t, "cond", KindCond.Key())
	assert.Equal(t, "return", KindReturn.Key())
	assert.Equal(t, "unknown", BranchKind(999).Key())
}

func TestIsEmptyRespectsRepresentation(t *testing.T) {
	b := NewBasicBlock(1, KindReturn)
	assert.True(t, IsEmpty(b))
	b.Stmts = append(b.Stmts, &Statement{ID: 1})
	assert.False(t, IsEmpty(b))

	linear := NewBasicBlock(2, KindReturn)
	linear.IsLinear = true
	assert.True(t, IsEmpty(linear))
	linear.Linear = append(linear.Linear, &Node{Kind: NodeConst})
	assert.False(t, IsEmpty(linear))
}
