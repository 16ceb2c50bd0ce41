// Package sync runs synchronization sessions between the local pending
// queue and a remote provider.
package sync

import (
	"context"
	"time"

	"github.com/iudanet/postboy/internal/models"
)

//go:generate moq -out provider_mock.go . Provider

// Provider is a remote backend able to accept and return changes.
// Every method may block and must honor ctx cancellation.
type Provider interface {
	// Authenticate validates the credential against the remote
	Authenticate(ctx context.Context, credential string) (bool, error)

	// PushChanges transmits changes. When any change has a version mismatch
	// nothing is applied and the result carries the conflicts.
	PushChanges(ctx context.Context, changes []models.Change) (models.SyncResult, error)

	// PullChanges returns remote changes made after since, or all of them
	// when since is nil
	PullChanges(ctx context.Context, since *time.Time) ([]models.Change, error)

	// ResolveConflicts applies a batch of resolutions
	ResolveConflicts(ctx context.Context, resolutions []models.ConflictResolution) error
}

// LocalProvider is the offline provider: nothing leaves the device
type LocalProvider struct{}

var _ Provider = LocalProvider{}

// Authenticate always succeeds
func (LocalProvider) Authenticate(context.Context, string) (bool, error) {
	return true, nil
}

// PushChanges reports Offline and keeps nothing
func (LocalProvider) PushChanges(context.Context, []models.Change) (models.SyncResult, error) {
	return models.OfflineResult(), nil
}

// PullChanges returns no changes
func (LocalProvider) PullChanges(context.Context, *time.Time) ([]models.Change, error) {
	return nil, nil
}

// ResolveConflicts does nothing
func (LocalProvider) ResolveConflicts(context.Context, []models.ConflictResolution) error {
	return nil
}

// ProviderFactory builds the remote provider for the current config. It is
// called once per session so a changed server URL takes effect immediately.
type ProviderFactory func(cfg models.SyncConfig) (Provider, error)
