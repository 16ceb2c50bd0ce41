package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
)

// SavePending stores the change under its item key, replacing the previous
// pending record of the item, and raises the version counter
func (s *Storage) SavePending(ctx context.Context, change models.Change) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(&change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	key := itemKey(change.Key())

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketPending).Put(key, data); err != nil {
			return fmt.Errorf("failed to save pending change: %w", err)
		}
		return raiseVersion(tx.Bucket(bucketVersions), key, change.Version)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// LoadPending returns persisted pending changes, oldest first
func (s *Storage) LoadPending(ctx context.Context) ([]models.Change, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var changes []models.Change

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPending).ForEach(func(k, v []byte) error {
			var change models.Change
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal pending change %s: %w", k, err)
			}
			changes = append(changes, change)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending changes: %w", err)
	}

	// Ключи упорядочены по сущности, а очереди нужен порядок вставки
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Timestamp.Before(changes[j].Timestamp)
	})

	return changes, nil
}

// DeletePending removes pending records whose change id matches. The record
// of an item that was edited again after the push carries a new change id
// and stays.
func (s *Storage) DeletePending(ctx context.Context, changeIDs ...string) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}
	if len(changeIDs) == 0 {
		return 0, nil
	}

	ids := make(map[string]struct{}, len(changeIDs))
	for _, id := range changeIDs {
		ids[id] = struct{}{}
	}

	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPending)

		// Удалять во время ForEach нельзя, сначала собираем ключи
		var matched [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var stored struct {
				ChangeID string `json:"change_id"`
			}
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("failed to unmarshal pending change %s: %w", k, err)
			}
			if _, ok := ids[stored.ChangeID]; ok {
				matched = append(matched, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range matched {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete pending change %s: %w", k, err)
			}
		}
		deleted = len(matched)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete transaction failed: %w", err)
	}

	return deleted, nil
}

// SaveVersions raises stored version counters
func (s *Storage) SaveVersions(ctx context.Context, versions map[models.ItemKey]int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if len(versions) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketVersions)
		for key, version := range versions {
			if err := raiseVersion(bucket, itemKey(key), version); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// LoadVersions returns all stored version counters
func (s *Storage) LoadVersions(ctx context.Context) (map[models.ItemKey]int64, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	versions := make(map[models.ItemKey]int64)

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVersions).ForEach(func(k, v []byte) error {
			key, err := parseItemKey(k)
			if err != nil {
				return err
			}
			if len(v) != 8 {
				return fmt.Errorf("malformed version of %s", k)
			}
			versions[key] = int64(binary.BigEndian.Uint64(v))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load versions: %w", err)
	}

	return versions, nil
}

// raiseVersion пишет версию, только если она больше сохраненной
func raiseVersion(bucket *bbolt.Bucket, key []byte, version int64) error {
	if version <= 0 {
		return nil
	}
	if current := bucket.Get(key); len(current) == 8 && int64(binary.BigEndian.Uint64(current)) >= version {
		return nil
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(version))

	if err := bucket.Put(key, buf); err != nil {
		return fmt.Errorf("failed to save version of %s: %w", key, err)
	}
	return nil
}
