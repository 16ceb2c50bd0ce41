package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
)

func TestStorage_SyncConfig(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.LoadSyncConfig(ctx)
	assert.ErrorIs(t, err, storage.ErrConfigNotFound)

	cfg := models.OnlineSyncConfig("https://sync.example.com", "secret")
	cfg.ConflictStrategy = models.StrategyManual
	cfg.MarkSynced(time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC))
	require.NoError(t, store.SaveSyncConfig(ctx, cfg))

	got, err := store.LoadSyncConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Mode, got.Mode)
	assert.Equal(t, cfg.ServerURL, got.ServerURL)
	assert.Equal(t, cfg.APIKey, got.APIKey)
	assert.Equal(t, cfg.DeviceID, got.DeviceID)
	assert.Equal(t, models.StrategyManual, got.ConflictStrategy)
	assert.Equal(t, uint64(models.DefaultAutoSyncInterval), got.AutoSyncInterval)
	require.NotNil(t, got.LastSync)
	assert.True(t, cfg.LastSync.Equal(*got.LastSync))

	// Сброс в offline перезаписывает единственную запись
	got.GoOffline()
	require.NoError(t, store.SaveSyncConfig(ctx, got))

	again, err := store.LoadSyncConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModeOffline, again.Mode)
	assert.Empty(t, again.APIKey)
	assert.Equal(t, cfg.DeviceID, again.DeviceID)
}

func TestStorage_SyncConfigBucketMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketConfig)
	})
	require.NoError(t, err)

	_, err = store.LoadSyncConfig(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config bucket not found")
}
