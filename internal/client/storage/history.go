package storage

import (
	"context"

	"github.com/iudanet/postboy/internal/models"
)

// SessionStorage keeps a bounded history of finished sync sessions and the
// conflicts still waiting for a manual decision
type SessionStorage interface {
	// SaveSession appends session and trims the history to keep entries
	SaveSession(ctx context.Context, session *models.SyncSession, keep int) error

	// ListSessions returns up to limit sessions, newest first. limit <= 0
	// returns the full history.
	ListSessions(ctx context.Context, limit int) ([]models.SyncSession, error)

	// SaveConflicts stores or replaces unresolved conflicts by id
	SaveConflicts(ctx context.Context, conflicts []models.ConflictInfo) error

	// ListConflicts returns unresolved conflicts ordered by detection time
	ListConflicts(ctx context.Context) ([]models.ConflictInfo, error)

	// DeleteConflicts removes resolved conflicts
	DeleteConflicts(ctx context.Context, conflictIDs ...string) error
}
