package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/queue"
	"github.com/iudanet/postboy/internal/syncerr"
)

//go:generate moq -out store_mock.go . ChangeStore ConfigStore

// ErrSyncInProgress is returned when an operation needs the session slot
// while a session is running
var ErrSyncInProgress = errors.New("sync session already in progress")

const (
	// DefaultCallTimeout bounds every provider call
	DefaultCallTimeout = 30 * time.Second

	// DefaultMaxRounds bounds push/resolve rounds in one session
	DefaultMaxRounds = 3

	sessionKey = "session"
)

// ChangeStore receives finished sessions and keeps unresolved conflicts
type ChangeStore interface {
	OnSyncCompleted(ctx context.Context, session *models.SyncSession) error
	PendingConflicts(ctx context.Context) ([]models.ConflictInfo, error)
}

// ConfigStore holds the single SyncConfig record
type ConfigStore interface {
	LoadSyncConfig(ctx context.Context) (models.SyncConfig, error)
	SaveSyncConfig(ctx context.Context, cfg models.SyncConfig) error
}

// Service управляет сессиями синхронизации.
// Одновременно выполняется не больше одной сессии: параллельные вызовы
// Sync и Pull получают результат текущей.
type Service struct {
	queue       *queue.Pending
	changes     ChangeStore
	config      ConfigStore
	remote      ProviderFactory
	logger      *slog.Logger
	now         func() time.Time
	status      models.SyncStatus
	group       singleflight.Group
	callTimeout time.Duration
	idleCheck   time.Duration
	maxRounds   int
	runMu       gosync.Mutex
	configMu    gosync.Mutex
	statusMu    gosync.RWMutex
	active      atomic.Bool
}

// Option configures a Service
type Option func(*Service)

// WithProviderFactory sets how remote providers are built
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Service) {
		s.remote = f
	}
}

// WithProvider uses p for every online session
func WithProvider(p Provider) Option {
	return WithProviderFactory(func(models.SyncConfig) (Provider, error) {
		return p, nil
	})
}

// WithCallTimeout bounds each provider call
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithIdleCheckInterval sets how often auto-sync re-reads a disabled config
func WithIdleCheckInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleCheck = d
		}
	}
}

// WithMaxRounds bounds push/resolve rounds
func WithMaxRounds(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithClock replaces time.Now, used in tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a sync service over the shared pending queue
func NewService(q *queue.Pending, changes ChangeStore, config ConfigStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		queue:       q,
		changes:     changes,
		config:      config,
		logger:      logger,
		now:         time.Now,
		callTimeout: DefaultCallTimeout,
		idleCheck:   DefaultIdleCheckInterval,
		maxRounds:   DefaultMaxRounds,
		status:      models.SyncStatus{State: models.StatusIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs a full push/pull session. A call made while a session is
// running waits for it and returns the same session.
func (s *Service) Sync(ctx context.Context) (*models.SyncSession, error) {
	return s.coalesce(ctx, true)
}

// Pull runs a pull-only session
func (s *Service) Pull(ctx context.Context) (*models.SyncSession, error) {
	return s.coalesce(ctx, false)
}

func (s *Service) coalesce(ctx context.Context, push bool) (*models.SyncSession, error) {
	v, err, shared := s.group.Do(sessionKey, func() (any, error) {
		return s.runSession(ctx, push, nil)
	})
	if shared {
		s.logger.Debug("Joined in-flight sync session")
	}

	session, _ := v.(*models.SyncSession)
	return session, err
}

// ResolveConflicts applies externally chosen resolutions of pending
// conflicts and then runs a full session. It fails with ErrSyncInProgress
// while another session runs.
func (s *Service) ResolveConflicts(ctx context.Context, resolutions []models.ConflictResolution) (*models.SyncSession, error) {
	if len(resolutions) == 0 {
		return nil, syncerr.Errorf(syncerr.KindInvalidData, "resolve", "no resolutions given")
	}
	for i := range resolutions {
		if err := resolutions[i].Validate(); err != nil {
			return nil, err
		}
	}

	pending, err := s.changes.PendingConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending conflicts: %w", err)
	}

	byID := make(map[string]models.ConflictInfo, len(pending))
	for _, c := range pending {
		byID[c.ConflictID] = c
	}

	resolved := make([]models.ConflictInfo, 0, len(resolutions))
	for _, r := range resolutions {
		c, ok := byID[r.ConflictID]
		if !ok {
			return nil, syncerr.Errorf(syncerr.KindInvalidData, "resolve", "unknown conflict %s", r.ConflictID)
		}
		resolved = append(resolved, c)
	}

	if !s.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.runMu.Unlock()

	return s.runLocked(ctx, true, &manualResolution{conflicts: resolved, resolutions: resolutions})
}

// PendingConflicts returns conflicts waiting for a manual decision
func (s *Service) PendingConflicts(ctx context.Context) ([]models.ConflictInfo, error) {
	return s.changes.PendingConflicts(ctx)
}

// IsActive reports whether a session is running
func (s *Service) IsActive() bool {
	return s.active.Load()
}

// Status returns the last published sync status
func (s *Service) Status() models.SyncStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	return s.status
}

func (s *Service) setStatus(state models.StatusState, message string, conflicts int) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	s.status = models.SyncStatus{
		Timestamp: s.now(),
		State:     state,
		Message:   message,
		Conflicts: conflicts,
	}
}

// Config returns the stored sync config, creating the offline default on
// first use
func (s *Service) Config(ctx context.Context) (models.SyncConfig, error) {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	return s.loadConfig(ctx)
}

// loadConfig reads the config record. configMu must be held.
func (s *Service) loadConfig(ctx context.Context) (models.SyncConfig, error) {
	cfg, err := s.config.LoadSyncConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, storage.ErrConfigNotFound) {
		return models.SyncConfig{}, fmt.Errorf("failed to load sync config: %w", err)
	}

	cfg = models.DefaultSyncConfig()
	if err := s.config.SaveSyncConfig(ctx, cfg); err != nil {
		return models.SyncConfig{}, fmt.Errorf("failed to save default sync config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig validates and stores cfg. The device id and last sync time
// are carried over from the stored config when cfg leaves them empty.
func (s *Service) UpdateConfig(ctx context.Context, cfg models.SyncConfig) (models.SyncConfig, error) {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	current, err := s.loadConfig(ctx)
	if err != nil {
		return models.SyncConfig{}, err
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = current.DeviceID
	}
	if cfg.LastSync == nil {
		cfg.LastSync = current.LastSync
	}
	if err := cfg.Validate(); err != nil {
		return models.SyncConfig{}, syncerr.New(syncerr.KindInvalidData, "config", err)
	}
	if err := s.config.SaveSyncConfig(ctx, cfg); err != nil {
		return models.SyncConfig{}, fmt.Errorf("failed to save sync config: %w", err)
	}
	return cfg, nil
}

// markSynced records a successful session on top of the stored config.
// Settings changed while the session ran are kept.
func (s *Service) markSynced(ctx context.Context, deviceID string, at time.Time) error {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = deviceID
	}
	cfg.MarkSynced(at)
	if err := s.config.SaveSyncConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save sync config: %w", err)
	}
	return nil
}

// providerFor picks the provider of a session
func (s *Service) providerFor(cfg models.SyncConfig) (Provider, bool, error) {
	if !cfg.IsOnline() {
		return LocalProvider{}, false, nil
	}
	if !cfg.IsConfigured() {
		return nil, false, syncerr.Errorf(syncerr.KindNotConfigured, "sync", "mode %s needs server url and api key", cfg.Mode)
	}
	if s.remote == nil {
		return nil, false, syncerr.Errorf(syncerr.KindNotConfigured, "sync", "no remote provider available")
	}

	p, err := s.remote(cfg)
	if err != nil {
		return nil, false, syncerr.Classify("sync", err, syncerr.KindNotConfigured)
	}
	return p, true, nil
}

// runSession waits for the session slot and runs a session
func (s *Service) runSession(ctx context.Context, push bool, manual *manualResolution) (*models.SyncSession, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.runLocked(ctx, push, manual)
}

// runLocked prepares the session and hands it to a run. runMu must be held.
func (s *Service) runLocked(ctx context.Context, push bool, manual *manualResolution) (*models.SyncSession, error) {
	s.active.Store(true)
	defer s.active.Store(false)

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	provider, online, err := s.providerFor(cfg)
	if err != nil {
		s.setStatus(models.StatusError, err.Error(), 0)
		return nil, err
	}
	if manual != nil && !online {
		return nil, syncerr.Errorf(syncerr.KindNotConfigured, "resolve", "conflicts can only be resolved online")
	}

	session := models.NewSyncSession(s.now())
	r := &run{
		svc:      s,
		cfg:      cfg,
		provider: provider,
		online:   online,
		session:  session,
		logger:   s.logger.With("session_id", session.SessionID),
	}

	s.setStatus(models.StatusSyncing, "", 0)
	r.logger.Info("Sync session started", "mode", cfg.Mode, "push", push)

	runErr := r.execute(ctx, push, manual)
	return r.session, s.finish(ctx, r, runErr)
}

// finish persists the session outcome and publishes the status
func (s *Service) finish(ctx context.Context, r *run, runErr error) error {
	session := r.session

	if runErr != nil {
		r.restore()
		if !session.IsComplete() {
			_ = session.Fail(s.now(), runErr)
		}
	}

	// Сохраняем сессию даже при ошибке, чтобы она попала в историю
	if err := s.changes.OnSyncCompleted(context.WithoutCancel(ctx), session); err != nil {
		r.logger.Error("Failed to store sync session", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("failed to store sync session: %w", err)
		}
	}

	switch {
	case runErr != nil:
		s.setStatus(models.StatusError, runErr.Error(), 0)
		r.logger.Warn("Sync session failed", "error", runErr, "retryable", syncerr.IsRetryable(runErr))
		return runErr
	case session.Outcome == models.OutcomeConflict:
		s.setStatus(models.StatusConflict, "conflicts need resolution", len(session.Conflicts))
	default:
		s.setStatus(models.StatusSuccess, string(session.Outcome), 0)
	}

	if session.Outcome == models.OutcomeSuccess {
		// Берем начало сессии: все, что записано позже, придет при следующем pull
		if err := s.markSynced(context.WithoutCancel(ctx), r.cfg.DeviceID, session.StartedAt); err != nil {
			r.logger.Error("Failed to save last sync time", "error", err)
			return err
		}
	}

	d, _ := session.Duration()
	r.logger.Info("Sync session completed",
		"outcome", session.Outcome,
		"pushed", len(session.ChangesPushed),
		"pulled", len(session.ChangesPulled),
		"conflicts", len(session.Conflicts),
		"duration", d)

	return nil
}

// call runs one provider operation under the call timeout and classifies
// its error
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	// Истекший таймаут всегда сетевая ошибка, даже если провайдер
	// классифицировал ее иначе
	if callCtx.Err() != nil {
		if kind, ok := syncerr.KindOf(err); !ok || kind != syncerr.KindNetwork {
			return syncerr.New(syncerr.KindNetwork, op, err)
		}
	}
	return syncerr.Classify(op, err, syncerr.KindConnectionFailed)
}
