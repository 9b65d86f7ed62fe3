package reactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimisticApplyAdd(t *testing.T) {
	o := NewOptimisticCounts(map[ReactionKind]int{KindUseful: 2}, nil)

	op := o.Apply(KindUseful)

	assert.Equal(t, OpAdd, op)
	assert.Equal(t, 3, o.Count(KindUseful))
	require.NotNil(t, o.OwnVote())
	assert.Equal(t, KindUseful, *o.OwnVote())
}

func TestOptimisticApplyRemove(t *testing.T) {
	own := KindUseful
	o := NewOptimisticCounts(map[ReactionKind]int{KindUseful: 2}, &own)

	op := o.Apply(KindUseful)

	assert.Equal(t, OpRemove, op)
	assert.Equal(t, 1, o.Count(KindUseful))
	assert.Nil(t, o.OwnVote())
}

func TestOptimisticApplySwap(t *testing.T) {
	own := KindHumourous
	o := NewOptimisticCounts(map[ReactionKind]int{KindHumourous: 1, KindGameChanger: 4}, &own)

	op := o.Apply(KindGameChanger)

	assert.Equal(t, OpSwap, op)
	assert.Equal(t, 0, o.Count(KindHumourous))
	assert.Equal(t, 5, o.Count(KindGameChanger))
	require.NotNil(t, o.OwnVote())
	assert.Equal(t, KindGameChanger, *o.OwnVote())
}

func TestOptimisticRemoveFloorsAtZero(t *testing.T) {
	own := KindDebatable
	o := NewOptimisticCounts(map[ReactionKind]int{}, &own)

	o.Apply(KindDebatable)

	assert.Equal(t, 0, o.Count(KindDebatable))
}

func TestOptimisticRevertRestoresSnapshot(t *testing.T) {
	own := KindHumourous
	o := NewOptimisticCounts(map[ReactionKind]int{KindHumourous: 1, KindUseful: 3}, &own)

	o.Apply(KindUseful)
	o.Revert()

	assert.Equal(t, 1, o.Count(KindHumourous))
	assert.Equal(t, 3, o.Count(KindUseful))
	require.NotNil(t, o.OwnVote())
	assert.Equal(t, KindHumourous, *o.OwnVote())
}

func TestOptimisticRevertWithoutPendingIsNoop(t *testing.T) {
	o := NewOptimisticCounts(map[ReactionKind]int{KindUseful: 2}, nil)

	o.Revert()

	assert.Equal(t, 2, o.Count(KindUseful))
}

func TestOptimisticReconcileServerCountersWin(t *testing.T) {
	o := NewOptimisticCounts(map[ReactionKind]int{KindUseful: 2}, nil)
	o.Apply(KindUseful) // guesses 3

	// Another voter landed in between; the server reports 4.
	o.Reconcile(&Outcome{
		Operation: OpAdd,
		VoteType:  KindUseful,
		Counters:  map[ReactionKind]int{KindUseful: 4},
	})

	assert.Equal(t, 4, o.Count(KindUseful))
	require.NotNil(t, o.OwnVote())
	assert.Equal(t, KindUseful, *o.OwnVote())
}

func TestOptimisticReconcileDivergentOperation(t *testing.T) {
	// The mirror guessed add, but a concurrent request from the same account
	// means the server actually resolved a remove.
	o := NewOptimisticCounts(map[ReactionKind]int{KindUseful: 1}, nil)
	o.Apply(KindUseful)

	o.Reconcile(&Outcome{
		Operation: OpRemove,
		VoteType:  KindUseful,
		Counters:  map[ReactionKind]int{KindUseful: 0},
	})

	assert.Equal(t, 0, o.Count(KindUseful))
	assert.Nil(t, o.OwnVote())
}

func TestOptimisticReconcileNilOutcomeKeepsGuess(t *testing.T) {
	o := NewOptimisticCounts(map[ReactionKind]int{}, nil)
	o.Apply(KindInformative)

	o.Reconcile(nil)

	assert.Equal(t, 1, o.Count(KindInformative))
}
