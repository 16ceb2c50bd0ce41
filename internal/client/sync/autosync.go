package sync

import (
	"context"
	"time"

	"github.com/iudanet/postboy/internal/models"
)

// DefaultIdleCheckInterval is how often a disabled auto-sync re-reads the config
const DefaultIdleCheckInterval = 30 * time.Second

// RunAutoSync periodically runs Sync until ctx is done. The config is
// re-read before every round, so switching mode or interval takes effect
// without a restart. A round that finds a session running is skipped.
func (s *Service) RunAutoSync(ctx context.Context) error {
	s.logger.Info("Auto-sync started")
	defer s.logger.Info("Auto-sync stopped")

	wait := s.nextWait(ctx)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		s.tick(ctx)
		timer.Reset(s.nextWait(ctx))
	}
}

// AutoSyncRound runs a single auto-sync round and returns the session it
// ran, nil when the round was skipped, and the delay before the next round.
// Callers that can not keep the store open between rounds use it instead of
// RunAutoSync.
func (s *Service) AutoSyncRound(ctx context.Context) (*models.SyncSession, time.Duration) {
	session := s.tick(ctx)
	return session, s.nextWait(ctx)
}

// tick runs one auto-sync round
func (s *Service) tick(ctx context.Context) *models.SyncSession {
	cfg, err := s.Config(ctx)
	if err != nil {
		s.logger.Error("Auto-sync: failed to load config", "error", err)
		return nil
	}
	if !cfg.AutoSyncEnabled() {
		return nil
	}

	if s.IsActive() {
		s.logger.Debug("Auto-sync: session in progress, skipping")
		return nil
	}

	session, err := s.Sync(ctx)
	if err != nil {
		s.logger.Warn("Auto-sync round failed", "error", err)
		return session
	}
	s.logger.Debug("Auto-sync round finished", "session_id", session.SessionID, "outcome", session.Outcome)
	return session
}

// nextWait returns the delay before the next round
func (s *Service) nextWait(ctx context.Context) time.Duration {
	cfg, err := s.Config(ctx)
	if err != nil || !cfg.AutoSyncEnabled() {
		return s.idleCheck
	}
	return cfg.Interval()
}
