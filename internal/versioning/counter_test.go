package versioning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/postboy/internal/models"
)

var keyA = models.ItemKey{Type: models.ItemTypeRequest, ID: "a"}

func TestCounters_PeekCommit(t *testing.T) {
	c := NewCounters()

	assert.Equal(t, int64(0), c.Current(keyA), "unknown item starts at 0")
	assert.Equal(t, int64(1), c.Peek(keyA), "first change gets version 1")

	// Peek не двигает счетчик
	assert.Equal(t, int64(1), c.Peek(keyA))

	c.Commit(keyA, 1)
	assert.Equal(t, int64(2), c.Peek(keyA))

	// Commit с меньшей версией игнорируется
	c.Commit(keyA, 0)
	assert.Equal(t, int64(1), c.Current(keyA))
}

func TestCounters_Monotonicity(t *testing.T) {
	c := NewCounters()

	var previous int64
	for i := 0; i < 100; i++ {
		next := c.Peek(keyA)
		assert.Greater(t, next, previous, "versions should always increase")
		c.Commit(keyA, next)
		previous = next
	}

	assert.Equal(t, int64(100), c.Current(keyA))
}

func TestCounters_Observe(t *testing.T) {
	tests := []struct {
		name     string
		local    int64
		remote   int64
		expected int64
	}{
		{name: "remote ahead", local: 3, remote: 7, expected: 7},
		{name: "remote behind", local: 9, remote: 4, expected: 9},
		{name: "equal", local: 5, remote: 5, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCountersFrom(map[models.ItemKey]int64{keyA: tt.local})

			assert.Equal(t, tt.expected, c.Observe(keyA, tt.remote))
			assert.Equal(t, tt.expected+1, c.Peek(keyA))
		})
	}
}

func TestCounters_KeysAreIndependent(t *testing.T) {
	c := NewCounters()
	folder := models.ItemKey{Type: models.ItemTypeFolder, ID: "a"}

	c.Commit(keyA, 4)

	assert.Equal(t, int64(1), c.Peek(folder), "same id with another type has its own counter")
}

func TestCounters_Snapshot(t *testing.T) {
	c := NewCountersFrom(map[models.ItemKey]int64{keyA: 2, {Type: models.ItemTypeFolder, ID: "zero"}: 0})

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(2), snap[keyA])

	snap[keyA] = 100
	assert.Equal(t, int64(2), c.Current(keyA), "snapshot is a copy")
}

func TestCounters_Concurrent(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			c.Observe(keyA, v)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Current(keyA))
}
