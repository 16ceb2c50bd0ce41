package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
)

var configKey = []byte("current")

// SaveSyncConfig stores the sync configuration
func (s *Storage) SaveSyncConfig(ctx context.Context, cfg models.SyncConfig) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConfig)
		if bucket == nil {
			return fmt.Errorf("config bucket not found")
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal sync config: %w", err)
		}

		if err := bucket.Put(configKey, data); err != nil {
			return fmt.Errorf("failed to save sync config: %w", err)
		}

		return nil
	})
}

// LoadSyncConfig retrieves the stored sync configuration
func (s *Storage) LoadSyncConfig(ctx context.Context) (models.SyncConfig, error) {
	if s.db == nil {
		return models.SyncConfig{}, storage.ErrStorageClosed
	}

	var cfg models.SyncConfig

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConfig)
		if bucket == nil {
			return fmt.Errorf("config bucket not found")
		}

		data := bucket.Get(configKey)
		if data == nil {
			return storage.ErrConfigNotFound
		}

		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to unmarshal sync config: %w", err)
		}

		return nil
	})
	if err != nil {
		return models.SyncConfig{}, err
	}

	return cfg, nil
}
