// Package queue implements the bounded, deduplicating queue of changes
// waiting to be pushed to a remote store.
package queue

import (
	"sync"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
)

// DefaultCapacity is used when a non-positive capacity is requested
const DefaultCapacity = 1000

// Pending очередь изменений, ожидающих отправки.
// Порядок вставки совпадает с порядком синхронизации. Для каждой пары
// (item_type, item_id) в очереди хранится не больше одной записи.
// Переполнение не вытесняет старые записи: Enqueue возвращает ErrQueueFull.
type Pending struct {
	changes  []models.Change
	capacity int
	mu       sync.Mutex
}

// New creates a queue with a fixed capacity
func New(capacity int) *Pending {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pending{
		changes:  make([]models.Change, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Enqueue adds change, replacing the pending change of the same item.
// When the queue would exceed its capacity the change is rejected with
// syncerr.ErrQueueFull and the queue is left untouched, including the record
// that would have been replaced.
func (q *Pending) Enqueue(change models.Change) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(change.Key())

	size := len(q.changes)
	if idx >= 0 {
		size--
	}
	if size >= q.capacity {
		return syncerr.New(syncerr.KindQueueFull, "enqueue", nil)
	}

	// Dedup фиксируется только когда новая запись помещается
	if idx >= 0 {
		q.changes = append(q.changes[:idx], q.changes[idx+1:]...)
	}
	q.changes = append(q.changes, change.Clone())

	return nil
}

// DrainAll returns every queued change in insertion order and empties the
// queue in the same critical section.
func (q *Pending) DrainAll() []models.Change {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.changes
	q.changes = make([]models.Change, 0, min(q.capacity, 64))

	return drained
}

// Restore puts drained changes back after a failed or offline push.
// A change is skipped when the queue already holds a change for the same
// item, since that one was enqueued later and supersedes it. Restored
// changes keep their relative order and go in front of newer entries.
// Capacity is not enforced here: these changes were already accepted once.
func (q *Pending) Restore(changes []models.Change) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	restored := make([]models.Change, 0, len(changes)+len(q.changes))
	seen := make(map[models.ItemKey]struct{}, len(changes))
	for _, c := range q.changes {
		seen[c.Key()] = struct{}{}
	}

	for _, c := range changes {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		c = c.Clone()
		c.Synced = false
		restored = append(restored, c)
	}

	count := len(restored)
	q.changes = append(restored, q.changes...)

	return count
}

// FilterByItemType returns copies of the queued changes of one type
func (q *Pending) FilterByItemType(itemType models.ItemType) []models.Change {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []models.Change
	for i := range q.changes {
		if q.changes[i].ItemType == itemType {
			out = append(out, q.changes[i].Clone())
		}
	}
	return out
}

// MarkSynced flags the changes with the given ids as synced and returns how
// many were found.
func (q *Pending) MarkSynced(changeIDs ...string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make(map[string]struct{}, len(changeIDs))
	for _, id := range changeIDs {
		ids[id] = struct{}{}
	}

	marked := 0
	for i := range q.changes {
		if _, ok := ids[q.changes[i].ChangeID]; ok {
			q.changes[i].MarkSynced()
			marked++
		}
	}
	return marked
}

// RemoveSynced deletes every change whose Synced flag is set and returns
// the number removed.
func (q *Pending) RemoveSynced() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.changes[:0]
	for _, c := range q.changes {
		if !c.Synced {
			kept = append(kept, c)
		}
	}
	removed := len(q.changes) - len(kept)
	clear(q.changes[len(kept):])
	q.changes = kept

	return removed
}

// Remove deletes the change with the given id
func (q *Pending) Remove(changeID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.changes {
		if q.changes[i].ChangeID == changeID {
			q.changes = append(q.changes[:i], q.changes[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the pending change of an item
func (q *Pending) Get(key models.ItemKey) (models.Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if idx := q.indexOf(key); idx >= 0 {
		return q.changes[idx].Clone(), true
	}
	return models.Change{}, false
}

// Snapshot returns copies of all queued changes in order
func (q *Pending) Snapshot() []models.Change {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Change, len(q.changes))
	for i := range q.changes {
		out[i] = q.changes[i].Clone()
	}
	return out
}

// Len returns the number of queued changes
func (q *Pending) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.changes)
}

// IsEmpty reports whether nothing is queued
func (q *Pending) IsEmpty() bool {
	return q.Len() == 0
}

// Capacity returns the fixed maximum size
func (q *Pending) Capacity() int {
	return q.capacity
}

// indexOf must be called with mu held
func (q *Pending) indexOf(key models.ItemKey) int {
	for i := range q.changes {
		if q.changes[i].Key() == key {
			return i
		}
	}
	return -1
}
