package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/iudanet/postboy/internal/client/api"
	"github.com/iudanet/postboy/internal/client/changes"
	"github.com/iudanet/postboy/internal/client/config"
	"github.com/iudanet/postboy/internal/client/storage/boltdb"
	"github.com/iudanet/postboy/internal/client/sync"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/queue"
)

// SyncService операции синхронизации, нужные командам
type SyncService interface {
	Sync(ctx context.Context) (*models.SyncSession, error)
	Pull(ctx context.Context) (*models.SyncSession, error)
	ResolveConflicts(ctx context.Context, resolutions []models.ConflictResolution) (*models.SyncSession, error)
	PendingConflicts(ctx context.Context) ([]models.ConflictInfo, error)
	Config(ctx context.Context) (models.SyncConfig, error)
	UpdateConfig(ctx context.Context, cfg models.SyncConfig) (models.SyncConfig, error)
	AutoSyncRound(ctx context.Context) (*models.SyncSession, time.Duration)
}

// ChangeTracker записывает изменения сущностей
type ChangeTracker interface {
	Record(ctx context.Context, itemType models.ItemType, itemID string, op models.Operation, payload json.RawMessage) (models.Change, error)
	Queue() *queue.Pending
	History(ctx context.Context, limit int) ([]models.SyncSession, error)
}

// App собранный клиент: хранилище, очередь, трекер и сервис
type App struct {
	Sync    SyncService
	Tracker ChangeTracker
	close   func() error
}

// Close closes the local store
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Opener builds the App for a loaded config
type Opener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error)

// Open opens the bbolt store at cfg.DBPath and wires the sync service with
// the HTTP provider
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.EnsureDBDir(); err != nil {
		return nil, err
	}

	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	q := queue.New(cfg.QueueCapacity)
	tracker, err := changes.NewTracker(ctx, store, q, logger.With("component", "tracker"),
		changes.WithHistoryLimit(cfg.HistoryLimit),
		changes.WithApplier(pulledLogger(logger)))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	device := models.DeviceInfo{
		Name:       cfg.DeviceName,
		DeviceType: models.DeviceDesktop,
		OSInfo:     runtime.GOOS + "/" + runtime.GOARCH,
	}

	svc := sync.NewService(q, tracker, store, logger.With("component", "sync"),
		sync.WithProviderFactory(api.NewProviderFactory(device, logger.With("component", "api"))),
		sync.WithCallTimeout(cfg.CallTimeout),
		sync.WithIdleCheckInterval(cfg.IdleCheckInterval))

	return &App{Sync: svc, Tracker: tracker, close: store.Close}, nil
}

// pulledLogger is the Applier of the CLI: it has no entity store of its own
// and only reports what arrived
func pulledLogger(logger *slog.Logger) changes.Applier {
	return changes.ApplierFunc(func(_ context.Context, pulled []models.Change) error {
		for i := range pulled {
			logger.Debug("Remote change", "item", pulled[i].Key().String(), "operation", pulled[i].Operation, "version", pulled[i].Version)
		}
		return nil
	})
}
