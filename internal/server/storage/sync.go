package storage

import (
	"context"
	"time"

	"github.com/iudanet/postboy/internal/models"
)

// PushOutcome результат применения пачки изменений.
// При непустом Conflicts ни одно изменение не применено.
type PushOutcome struct {
	Conflicts []models.ConflictInfo
	Applied   int // Applied новые или более поздние записи
	Skipped   int // Skipped повторная доставка или проигрыш по времени
}

// SyncStorage defines interface for item state persistence
type SyncStorage interface {
	// Push applies changes from one device in a single transaction.
	// A change older than the stored version produces a conflict and
	// the whole batch is left unapplied.
	Push(ctx context.Context, deviceID string, changes []models.Change) (PushOutcome, error)

	// Pull returns items changed after since (all items when since is nil)
	// as synced change records, ordered by server update time
	Pull(ctx context.Context, since *time.Time) ([]models.Change, error)

	// Resolve applies resolutions and returns how many were applied.
	// Returns ErrConflictNotFound or ErrConflictResolved and applies nothing
	// when any resolution is invalid.
	Resolve(ctx context.Context, resolutions []models.ConflictResolution) (int, error)

	// ListConflicts returns unresolved conflicts, oldest first
	ListConflicts(ctx context.Context) ([]models.ConflictInfo, error)
}

// DeviceStorage defines interface for client device registry
type DeviceStorage interface {
	// UpsertDevice creates or refreshes a device record
	UpsertDevice(ctx context.Context, device models.DeviceInfo) error

	// GetDevice returns ErrDeviceNotFound for unknown ids
	GetDevice(ctx context.Context, deviceID string) (models.DeviceInfo, error)
}
