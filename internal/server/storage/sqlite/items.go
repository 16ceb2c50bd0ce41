package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/server/storage"
)

// itemRow текущее состояние сущности на сервере
type itemRow struct {
	changedAt time.Time
	changeID  string
	operation models.Operation
	data      []byte
	version   int64
}

func (r *itemRow) change(itemType models.ItemType, itemID string) models.Change {
	return models.Change{
		ChangeID:  r.changeID,
		ItemType:  itemType,
		ItemID:    itemID,
		Operation: r.operation,
		Data:      json.RawMessage(r.data),
		Version:   r.version,
		Timestamp: r.changedAt,
		Synced:    true,
	}
}

// Push applies a batch of changes. Conflicts are detected for the whole
// batch first; when there are any they are stored and nothing is applied.
func (s *Storage) Push(ctx context.Context, deviceID string, changes []models.Change) (storage.PushOutcome, error) {
	var outcome storage.PushOutcome

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		outcome = storage.PushOutcome{}

		for i := range changes {
			c := &changes[i]
			stored, err := loadItem(ctx, tx, c.ItemType, c.ItemID)
			if err != nil {
				return err
			}
			if stored == nil || c.Version >= stored.version {
				continue
			}

			conflict, err := s.conflictFor(ctx, tx, deviceID, c, stored)
			if err != nil {
				return err
			}
			outcome.Conflicts = append(outcome.Conflicts, conflict)
		}

		if len(outcome.Conflicts) > 0 {
			return nil
		}

		now := s.now()
		for i := range changes {
			applied, err := applyChange(ctx, tx, deviceID, &changes[i], now)
			if err != nil {
				return err
			}
			if applied {
				outcome.Applied++
			} else {
				outcome.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return storage.PushOutcome{}, err
	}

	return outcome, nil
}

// applyChange writes c when it is newer than the stored item. Equal versions
// are settled by timestamp; a re-delivered change id is a no-op.
func applyChange(ctx context.Context, tx *sql.Tx, deviceID string, c *models.Change, now time.Time) (bool, error) {
	stored, err := loadItem(ctx, tx, c.ItemType, c.ItemID)
	if err != nil {
		return false, err
	}

	if stored != nil && c.Version == stored.version {
		if c.ChangeID == stored.changeID || !c.Timestamp.After(stored.changedAt) {
			return false, nil
		}
	}

	if err := writeItem(ctx, tx, deviceID, c, now); err != nil {
		return false, err
	}
	return true, nil
}

func writeItem(ctx context.Context, tx *sql.Tx, deviceID string, c *models.Change, now time.Time) error {
	var data []byte
	if c.Operation != models.OperationDelete {
		data = c.Data
	}

	query := `
		INSERT INTO items (
			item_type, item_id, version, change_id, operation,
			data, changed_at, updated_at, device_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_type, item_id) DO UPDATE SET
			version = excluded.version,
			change_id = excluded.change_id,
			operation = excluded.operation,
			data = excluded.data,
			changed_at = excluded.changed_at,
			updated_at = excluded.updated_at,
			device_id = excluded.device_id
	`

	_, err := tx.ExecContext(ctx, query,
		string(c.ItemType),
		c.ItemID,
		c.Version,
		c.ChangeID,
		string(c.Operation),
		data,
		toNanos(c.Timestamp),
		toNanos(now),
		deviceID,
	)
	if err != nil {
		return fmt.Errorf("failed to write item %s: %w", c.Key(), err)
	}
	return nil
}

// loadItem returns nil when the item was never written
func loadItem(ctx context.Context, tx *sql.Tx, itemType models.ItemType, itemID string) (*itemRow, error) {
	query := `
		SELECT version, change_id, operation, data, changed_at
		FROM items
		WHERE item_type = ? AND item_id = ?
	`

	var (
		row       itemRow
		operation string
		changedAt int64
	)
	err := tx.QueryRowContext(ctx, query, string(itemType), itemID).Scan(
		&row.version,
		&row.changeID,
		&operation,
		&row.data,
		&changedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load item %s/%s: %w", itemType, itemID, err)
	}

	row.operation = models.Operation(operation)
	row.changedAt = fromNanos(changedAt)
	return &row, nil
}

// Pull returns items updated after since
func (s *Storage) Pull(ctx context.Context, since *time.Time) ([]models.Change, error) {
	query := `
		SELECT item_type, item_id, version, change_id, operation, data, changed_at
		FROM items
		WHERE updated_at > ?
		ORDER BY updated_at, item_type, item_id
	`

	var after int64 = -1
	if since != nil {
		after = toNanos(*since)
	}

	rows, err := s.db.QueryContext(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	changes := make([]models.Change, 0)
	for rows.Next() {
		var (
			row       itemRow
			itemType  string
			itemID    string
			operation string
			changedAt int64
		)
		if err := rows.Scan(&itemType, &itemID, &row.version, &row.changeID, &operation, &row.data, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		row.operation = models.Operation(operation)
		row.changedAt = fromNanos(changedAt)
		changes = append(changes, row.change(models.ItemType(itemType), itemID))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return changes, nil
}
