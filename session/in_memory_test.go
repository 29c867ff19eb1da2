package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/society"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 4, 1, 19, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestInMemoryStoreRecordsRun(t *testing.T) {
	store := NewInMemoryStore()
	store.now = fixedClock()

	info := society.RunInfo{RunID: "run-1", Task: "find ramen", ToolNames: []string{"maps_geocode"}, RoundLimit: 10}
	store.RunStarted(info)

	running, err := store.Get("run-1")
	require.NoError(t, err)
	assert.False(t, running.Finished())

	store.RoundCompleted(society.RoundEvent{RunID: "run-1", Round: 1, Director: "Instruction: geocode"})
	store.RunFinished(info, society.Result{
		Answer:  "Ichiran",
		State:   society.StateDoneNormal,
		Rounds:  1,
		History: []core.ChatHistoryEntry{{Director: "Instruction: geocode", Executor: "Ichiran"}},
	}, nil)

	sess, err := store.Get("run-1")
	require.NoError(t, err)
	assert.True(t, sess.Finished())
	assert.Equal(t, "find ramen", sess.Task)
	assert.Len(t, sess.Rounds, 1)
	assert.Equal(t, "Ichiran", sess.Result.Answer)
	assert.True(t, sess.FinishedAt.After(sess.StartedAt))
	assert.Empty(t, sess.Error)
}

func TestInMemoryStoreClonesOnRead(t *testing.T) {
	store := NewInMemoryStore()
	info := society.RunInfo{RunID: "run-1", ToolNames: []string{"a"}}
	store.RunStarted(info)
	store.RunFinished(info, society.Result{History: []core.ChatHistoryEntry{{Director: "d"}}}, nil)

	sess, err := store.Get("run-1")
	require.NoError(t, err)
	sess.ToolNames[0] = "mutated"
	sess.Result.History[0].Director = "mutated"

	again, err := store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.ToolNames[0])
	assert.Equal(t, "d", again.Result.History[0].Director)
}

func TestInMemoryStoreErrorsAndOrder(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	store.RunStarted(society.RunInfo{RunID: "b"})
	store.RunStarted(society.RunInfo{RunID: "a"})
	store.RunFinished(society.RunInfo{RunID: "a"}, society.Result{}, errors.New("round 1: boom"))
	store.RoundCompleted(society.RoundEvent{RunID: "late"})

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "late"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "round 1: boom", list[1].Error)
}
