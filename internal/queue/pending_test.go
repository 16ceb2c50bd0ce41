package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
)

func request(id string, version int64) models.Change {
	return models.NewUpdateChange(models.ItemTypeRequest, id, version, json.RawMessage(`{"name":"`+id+`"}`))
}

func TestPending_EnqueueDedup(t *testing.T) {
	q := New(10)

	first := request("a", 1)
	second := request("a", 2)

	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(request("b", 1)))
	require.NoError(t, q.Enqueue(second))

	snap := q.Snapshot()
	require.Len(t, snap, 2)

	// Новая запись уходит в конец очереди
	assert.Equal(t, "b", snap[0].ItemID)
	assert.Equal(t, second.ChangeID, snap[1].ChangeID)
	assert.Equal(t, int64(2), snap[1].Version)
}

func TestPending_SameIDDifferentType(t *testing.T) {
	q := New(10)

	require.NoError(t, q.Enqueue(request("a", 1)))
	require.NoError(t, q.Enqueue(models.NewDeleteChange(models.ItemTypeFolder, "a", 3)))

	assert.Equal(t, 2, q.Len())
}

func TestPending_QueueFull(t *testing.T) {
	q := New(2)

	a := request("a", 1)
	b := request("b", 1)
	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))

	err := q.Enqueue(request("c", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, syncerr.ErrQueueFull)

	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ChangeID, snap[0].ChangeID)
	assert.Equal(t, b.ChangeID, snap[1].ChangeID)

	// Замена существующей записи помещается даже в полную очередь
	replacement := request("a", 2)
	require.NoError(t, q.Enqueue(replacement))
	assert.Equal(t, 2, q.Len())
}

func TestPending_QueueFullCapacityOne(t *testing.T) {
	q := New(1)

	a := request("a", 1)
	require.NoError(t, q.Enqueue(a))
	assert.ErrorIs(t, q.Enqueue(request("b", 1)), syncerr.ErrQueueFull)

	got, ok := q.Get(a.Key())
	require.True(t, ok)
	assert.Equal(t, a.ChangeID, got.ChangeID)
}

func TestPending_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-5).Capacity())
	assert.Equal(t, 7, New(7).Capacity())
}

func TestPending_DrainAll(t *testing.T) {
	q := New(10)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(request(fmt.Sprintf("r%d", i), 1)))
	}

	drained := q.DrainAll()
	require.Len(t, drained, 3)
	for i, c := range drained {
		assert.Equal(t, fmt.Sprintf("r%d", i), c.ItemID, "drain keeps insertion order")
	}

	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.DrainAll(), "second drain returns nothing")
}

func TestPending_Restore(t *testing.T) {
	q := New(2)

	a := request("a", 1)
	b := request("b", 1)
	require.NoError(t, q.Enqueue(a))
	require.NoError(t, q.Enqueue(b))

	drained := q.DrainAll()

	// Пока push шел, пользователь изменил b и создал c
	newerB := request("b", 2)
	c := request("c", 1)
	require.NoError(t, q.Enqueue(newerB))
	require.NoError(t, q.Enqueue(c))

	restored := q.Restore(drained)
	assert.Equal(t, 1, restored, "older b must not override newer b")

	snap := q.Snapshot()
	require.Len(t, snap, 3, "restore bypasses capacity")
	assert.Equal(t, a.ChangeID, snap[0].ChangeID)
	assert.Equal(t, newerB.ChangeID, snap[1].ChangeID)
	assert.Equal(t, c.ChangeID, snap[2].ChangeID)
}

func TestPending_FilterByItemType(t *testing.T) {
	q := New(10)
	require.NoError(t, q.Enqueue(request("a", 1)))
	require.NoError(t, q.Enqueue(models.NewCreateChange(models.ItemTypeFolder, "f", json.RawMessage(`{}`))))
	require.NoError(t, q.Enqueue(request("b", 1)))

	requests := q.FilterByItemType(models.ItemTypeRequest)
	require.Len(t, requests, 2)
	assert.Equal(t, "a", requests[0].ItemID)
	assert.Equal(t, "b", requests[1].ItemID)

	assert.Len(t, q.FilterByItemType(models.ItemTypeFolder), 1)
	assert.Empty(t, q.FilterByItemType(models.ItemTypeEnvironment))
	assert.Equal(t, 3, q.Len(), "filter does not remove")
}

func TestPending_MarkAndRemoveSynced(t *testing.T) {
	q := New(10)
	a := request("a", 1)
	b := request("b", 1)
	c := request("c", 1)
	for _, ch := range []models.Change{a, b, c} {
		require.NoError(t, q.Enqueue(ch))
	}

	assert.Equal(t, 2, q.MarkSynced(a.ChangeID, c.ChangeID, "unknown"))
	assert.Equal(t, 2, q.RemoveSynced())
	assert.Equal(t, 0, q.RemoveSynced(), "nothing left to remove")

	snap := q.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, b.ChangeID, snap[0].ChangeID)
}

func TestPending_Remove(t *testing.T) {
	q := New(10)
	a := request("a", 1)
	require.NoError(t, q.Enqueue(a))

	assert.True(t, q.Remove(a.ChangeID))
	assert.False(t, q.Remove(a.ChangeID))
	assert.True(t, q.IsEmpty())
}

func TestPending_SnapshotIsCopy(t *testing.T) {
	q := New(10)
	require.NoError(t, q.Enqueue(request("a", 1)))

	snap := q.Snapshot()
	snap[0].Data[0] = 'X'
	snap[0].Synced = true

	again := q.Snapshot()
	assert.Equal(t, byte('{'), again[0].Data[0])
	assert.False(t, again[0].Synced)
}

func TestPending_Concurrent(t *testing.T) {
	q := New(1000)

	var (
		mu       sync.Mutex
		accepted = make(map[string]struct{})
		// last последняя принятая запись по каждому ключу
		last = make(map[string]string)
	)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c := request(fmt.Sprintf("w%d-%d", w, i%10), int64(i+1))
				if q.Enqueue(c) != nil {
					continue
				}
				mu.Lock()
				accepted[c.ChangeID] = struct{}{}
				last[c.ItemID] = c.ChangeID
				mu.Unlock()
			}
		}(w)
	}

	drained := make(chan []models.Change, 1)
	go func() {
		var all []models.Change
		for i := 0; i < 20; i++ {
			all = append(all, q.DrainAll()...)
		}
		drained <- all
	}()

	wg.Wait()
	all := append(<-drained, q.DrainAll()...)
	require.True(t, q.IsEmpty())

	// Каждая выданная запись была принята и выдана ровно один раз
	seen := make(map[string]int, len(all))
	for i := range all {
		seen[all[i].ChangeID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "change %s drained more than once", id)
		assert.Contains(t, accepted, id)
	}

	// Последняя запись по ключу никогда не теряется
	require.Len(t, last, 100)
	for key, id := range last {
		assert.Contains(t, seen, id, "latest change of %s was lost", key)
	}
}

func TestPending_ConcurrentCapacity(t *testing.T) {
	q := New(25)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := q.Enqueue(request(fmt.Sprintf("w%d-%d", w, i), 1)); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 25, accepted)
	assert.Equal(t, 25, q.Len())
}
