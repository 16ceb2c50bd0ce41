package boltdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/postboy/internal/client/storage"
	"github.com/iudanet/postboy/internal/models"
)

var (
	// BoltDB bucket names
	bucketPending   = []byte("pending")
	bucketVersions  = []byte("versions")
	bucketConfig    = []byte("config")
	bucketSessions  = []byte("sessions")
	bucketConflicts = []byte("conflicts")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

var (
	_ storage.ChangeStorage  = (*Storage)(nil)
	_ storage.ConfigStorage  = (*Storage)(nil)
	_ storage.SessionStorage = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; Timeout не дает зависнуть, если файл занят другим процессом
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPending, bucketVersions, bucketConfig, bucketSessions, bucketConflicts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// itemKey is the bbolt key of an item: "item_type/item_id"
func itemKey(key models.ItemKey) []byte {
	return []byte(key.String())
}

func parseItemKey(raw []byte) (models.ItemKey, error) {
	typ, id, ok := strings.Cut(string(raw), "/")
	if !ok {
		return models.ItemKey{}, fmt.Errorf("malformed item key %q", raw)
	}
	t, err := models.ParseItemType(typ)
	if err != nil {
		return models.ItemKey{}, err
	}
	return models.ItemKey{Type: t, ID: id}, nil
}
