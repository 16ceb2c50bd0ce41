package storage

import (
	"context"

	"github.com/iudanet/postboy/internal/models"
)

// ConfigStorage хранит единственную запись SyncConfig
type ConfigStorage interface {
	// LoadSyncConfig returns ErrConfigNotFound before the first save
	LoadSyncConfig(ctx context.Context) (models.SyncConfig, error)

	// SaveSyncConfig overwrites the stored config
	SaveSyncConfig(ctx context.Context, cfg models.SyncConfig) error
}
