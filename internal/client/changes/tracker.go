// Package changes connects entity mutations to the pending queue and
// applies the outcome of finished sync sessions to local state.
package changes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/queue"
	"github.com/iudanet/postboy/internal/versioning"
)

// DefaultHistoryLimit is the number of sessions kept in history
const DefaultHistoryLimit = 50

// Storage is the persistence the tracker needs
type Storage interface {
	storage.ChangeStorage
	storage.SessionStorage
}

// Applier receives changes pulled from the remote. It is implemented by the
// entity layer that owns collections, requests and environments.
type Applier interface {
	ApplyRemote(ctx context.Context, changes []models.Change) error
}

// ApplierFunc adapts a function to Applier
type ApplierFunc func(ctx context.Context, changes []models.Change) error

// ApplyRemote calls f
func (f ApplierFunc) ApplyRemote(ctx context.Context, changes []models.Change) error {
	return f(ctx, changes)
}

// Tracker записывает изменения сущностей в очередь и хранилище,
// а после синхронизации чистит подтвержденные записи.
type Tracker struct {
	storage      Storage
	applier      Applier
	queue        *queue.Pending
	versions     *versioning.Counters
	logger       *slog.Logger
	historyLimit int
	mu           sync.Mutex
}

// Option configures a Tracker
type Option func(*Tracker)

// WithApplier sets the sink for pulled changes
func WithApplier(a Applier) Option {
	return func(t *Tracker) {
		t.applier = a
	}
}

// WithHistoryLimit sets how many sessions are kept
func WithHistoryLimit(n int) Option {
	return func(t *Tracker) {
		t.historyLimit = n
	}
}

// NewTracker restores version counters and pending changes from store into
// q and returns a ready tracker
func NewTracker(ctx context.Context, store Storage, q *queue.Pending, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	versions, err := store.LoadVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load versions: %w", err)
	}

	pending, err := store.LoadPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending changes: %w", err)
	}

	t := &Tracker{
		storage:      store,
		queue:        q,
		versions:     versioning.NewCountersFrom(versions),
		logger:       logger,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(t)
	}

	if restored := q.Restore(pending); restored > 0 {
		logger.Info("Restored pending changes", "count", restored)
	}

	return t, nil
}

// Queue returns the queue the tracker feeds
func (t *Tracker) Queue() *queue.Pending {
	return t.queue
}

// Version returns the last known version of an item
func (t *Tracker) Version(key models.ItemKey) int64 {
	return t.versions.Current(key)
}

// Record creates a change for one entity mutation, queues and persists it.
// The version is the next value of the item's counter. QueueFull and
// InvalidData are returned to the caller and nothing is stored.
func (t *Tracker) Record(ctx context.Context, itemType models.ItemType, itemID string, op models.Operation, payload json.RawMessage) (models.Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := models.ItemKey{Type: itemType, ID: itemID}
	change := models.NewChange(itemType, itemID, op, t.versions.Peek(key), payload)
	if err := change.Validate(); err != nil {
		return models.Change{}, err
	}

	prev, hadPrev := t.queue.Get(key)
	if err := t.queue.Enqueue(change); err != nil {
		return models.Change{}, err
	}

	if err := t.storage.SavePending(ctx, change); err != nil {
		// Откатываем очередь к состоянию до вызова
		if t.queue.Remove(change.ChangeID) && hadPrev {
			t.queue.Restore([]models.Change{prev})
		}
		return models.Change{}, fmt.Errorf("failed to persist change: %w", err)
	}

	t.versions.Commit(key, change.Version)

	t.logger.Debug("Change recorded",
		"item", key.String(),
		"operation", op,
		"version", change.Version,
		"pending", t.queue.Len())

	return change, nil
}

// PendingConflicts returns conflicts waiting for a manual decision
func (t *Tracker) PendingConflicts(ctx context.Context) ([]models.ConflictInfo, error) {
	conflicts, err := t.storage.ListConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}
	return conflicts, nil
}

// History returns up to limit finished sessions, newest first
func (t *Tracker) History(ctx context.Context, limit int) ([]models.SyncSession, error) {
	sessions, err := t.storage.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// OnSyncCompleted applies a finished session to local state:
//   - persisted records that were pushed, or whose conflict was resolved,
//     are deleted unless the item was edited again meanwhile;
//   - version counters are raised to what the remote reported;
//   - unresolved conflicts are kept for a manual decision, resolved ones dropped;
//   - the session goes to history and pulled changes go to the Applier.
func (t *Tracker) OnSyncCompleted(ctx context.Context, session *models.SyncSession) error {
	resolved := resolvedConflicts(session)

	done := make([]string, 0, len(session.ChangesPushed)+len(resolved))
	for _, c := range session.ChangesPushed {
		done = append(done, c.ChangeID)
	}
	for _, c := range resolved {
		done = append(done, c.ChangeID)
	}

	deleted, err := t.storage.DeletePending(ctx, done...)
	if err != nil {
		return fmt.Errorf("failed to delete synced changes: %w", err)
	}

	if err := t.storage.SaveVersions(ctx, t.observeVersions(session, resolved)); err != nil {
		return fmt.Errorf("failed to save versions: %w", err)
	}

	if err := t.updateConflicts(ctx, session, resolved); err != nil {
		return err
	}

	if err := t.storage.SaveSession(ctx, session, t.historyLimit); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	t.logger.Info("Sync session stored",
		"session_id", session.SessionID,
		"outcome", session.Outcome,
		"pushed", len(session.ChangesPushed),
		"pulled", len(session.ChangesPulled),
		"conflicts", len(session.Conflicts),
		"deleted", deleted)

	if t.applier != nil && len(session.ChangesPulled) > 0 {
		if err := t.applier.ApplyRemote(ctx, session.ChangesPulled); err != nil {
			return fmt.Errorf("failed to apply pulled changes: %w", err)
		}
	}

	return nil
}

// observeVersions merges remote versions and returns the counters to store
func (t *Tracker) observeVersions(session *models.SyncSession, resolved map[string]models.ConflictInfo) map[models.ItemKey]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := make(map[models.ItemKey]int64)

	for _, c := range session.ChangesPushed {
		t.versions.Commit(c.Key(), c.Version)
		changed[c.Key()] = t.versions.Current(c.Key())
	}
	for _, c := range session.ChangesPulled {
		changed[c.Key()] = t.versions.Observe(c.Key(), c.Version)
	}

	for _, r := range session.Resolutions {
		conflict, ok := resolved[r.ConflictID]
		if !ok {
			continue
		}
		key := conflict.Key()
		version := conflict.RemoteVersion
		if r.Choice != models.ChoiceRemote {
			// Удаленная сторона записывает выбранное значение поверх обеих версий
			version = max(conflict.LocalVersion, conflict.RemoteVersion) + 1
		}
		changed[key] = t.versions.Observe(key, version)
	}

	return changed
}

func (t *Tracker) updateConflicts(ctx context.Context, session *models.SyncSession, resolved map[string]models.ConflictInfo) error {
	var open []models.ConflictInfo
	for _, c := range session.Conflicts {
		if _, ok := resolved[c.ConflictID]; !ok {
			open = append(open, c)
		}
	}

	if err := t.storage.SaveConflicts(ctx, open); err != nil {
		return fmt.Errorf("failed to save conflicts: %w", err)
	}

	if len(resolved) == 0 {
		return nil
	}
	ids := make([]string, 0, len(resolved))
	for id := range resolved {
		ids = append(ids, id)
	}
	if err := t.storage.DeleteConflicts(ctx, ids...); err != nil {
		return fmt.Errorf("failed to delete resolved conflicts: %w", err)
	}
	return nil
}

// resolvedConflicts returns the session conflicts that have a resolution
func resolvedConflicts(session *models.SyncSession) map[string]models.ConflictInfo {
	byID := make(map[string]models.ConflictInfo, len(session.Conflicts))
	for _, c := range session.Conflicts {
		byID[c.ConflictID] = c
	}

	resolved := make(map[string]models.ConflictInfo, len(session.Resolutions))
	for _, r := range session.Resolutions {
		if c, ok := byID[r.ConflictID]; ok {
			resolved[r.ConflictID] = c
		}
	}
	return resolved
}
