package storage

import (
	"context"

	"github.com/iudanet/postboy/internal/models"
)

// ChangeStorage persists the pending queue and version counters so they
// survive a restart
type ChangeStorage interface {
	// SavePending stores change as the pending record of its item and raises
	// the item's version counter in the same transaction
	SavePending(ctx context.Context, change models.Change) error

	// LoadPending returns all persisted pending changes ordered by timestamp
	LoadPending(ctx context.Context) ([]models.Change, error)

	// DeletePending removes pending records whose stored change id is in
	// changeIDs. A record that was replaced by a newer change is kept.
	// Returns the number of deleted records.
	DeletePending(ctx context.Context, changeIDs ...string) (int, error)

	// SaveVersions raises the stored counters; lower values are ignored
	SaveVersions(ctx context.Context, versions map[models.ItemKey]int64) error

	// LoadVersions returns every stored counter
	LoadVersions(ctx context.Context) (map[models.ItemKey]int64, error)
}
