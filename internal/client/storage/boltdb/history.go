package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
)

// sessionKey sorts sessions by start time: "<unix nano, 20 digits>/<id>"
func sessionKey(session *models.SyncSession) []byte {
	return fmt.Appendf(nil, "%020d/%s", session.StartedAt.UnixNano(), session.SessionID)
}

// SaveSession stores a finished session and drops the oldest entries so at
// most keep sessions remain. keep <= 0 disables trimming.
func (s *Storage) SaveSession(ctx context.Context, session *models.SyncSession, keep int) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSessions)
		if err := bucket.Put(sessionKey(session), data); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if keep <= 0 {
			return nil
		}

		// Stats не видит записи текущей транзакции, считаем курсором
		c := bucket.Cursor()
		total := 0
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			total++
		}

		// Ключи отсортированы по времени, самые старые в начале
		extra := total - keep
		for k, _ := c.First(); k != nil && extra > 0; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return fmt.Errorf("failed to trim session history: %w", err)
			}
			extra--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// ListSessions returns up to limit sessions, newest first
func (s *Storage) ListSessions(ctx context.Context, limit int) ([]models.SyncSession, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var sessions []models.SyncSession

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketSessions).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(sessions) >= limit {
				break
			}
			var session models.SyncSession
			if err := json.Unmarshal(v, &session); err != nil {
				return fmt.Errorf("failed to unmarshal session %s: %w", k, err)
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// SaveConflicts stores unresolved conflicts by conflict id
func (s *Storage) SaveConflicts(ctx context.Context, conflicts []models.ConflictInfo) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if len(conflicts) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)
		for i := range conflicts {
			data, err := json.Marshal(&conflicts[i])
			if err != nil {
				return fmt.Errorf("failed to marshal conflict: %w", err)
			}
			if err := bucket.Put([]byte(conflicts[i].ConflictID), data); err != nil {
				return fmt.Errorf("failed to save conflict %s: %w", conflicts[i].ConflictID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// ListConflicts returns unresolved conflicts, oldest first
func (s *Storage) ListConflicts(ctx context.Context) ([]models.ConflictInfo, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var conflicts []models.ConflictInfo

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var conflict models.ConflictInfo
			if err := json.Unmarshal(v, &conflict); err != nil {
				return fmt.Errorf("failed to unmarshal conflict %s: %w", k, err)
			}
			conflicts = append(conflicts, conflict)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
	})

	return conflicts, nil
}

// DeleteConflicts removes conflicts by id. Unknown ids are ignored.
func (s *Storage) DeleteConflicts(ctx context.Context, conflictIDs ...string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)
		for _, id := range conflictIDs {
			if err := bucket.Delete([]byte(id)); err != nil {
				return fmt.Errorf("failed to delete conflict %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
