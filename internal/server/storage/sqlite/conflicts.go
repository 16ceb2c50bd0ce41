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

const conflictColumns = `
	conflict_id, change_id, item_type, item_id, item_name,
	local_version, remote_version, local_value, remote_value,
	local_timestamp, remote_timestamp, created_at
`

// conflictFor returns the open conflict for the change, creating it on first
// sight. Re-pushing the same change does not multiply conflicts.
func (s *Storage) conflictFor(ctx context.Context, tx *sql.Tx, deviceID string, c *models.Change, stored *itemRow) (models.ConflictInfo, error) {
	query := `SELECT ` + conflictColumns + `
		FROM conflicts
		WHERE change_id = ? AND resolved_at IS NULL
		LIMIT 1
	`
	existing, err := scanConflict(tx.QueryRowContext(ctx, query, c.ChangeID))
	if err == nil {
		// Серверная сторона могла уйти вперед с момента первой фиксации
		existing.RemoteVersion = stored.version
		existing.RemoteValue = remoteSnapshot(stored)
		existing.RemoteTimestamp = stored.changedAt
		if _, err := tx.ExecContext(ctx,
			`UPDATE conflicts SET remote_version = ?, remote_value = ?, remote_timestamp = ? WHERE conflict_id = ?`,
			existing.RemoteVersion, []byte(existing.RemoteValue), toNanos(existing.RemoteTimestamp), existing.ConflictID,
		); err != nil {
			return models.ConflictInfo{}, fmt.Errorf("failed to refresh conflict: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, storage.ErrConflictNotFound) {
		return models.ConflictInfo{}, err
	}

	conflict, err := models.NewConflictInfo(*c, stored.change(c.ItemType, c.ItemID), "")
	if err != nil {
		return models.ConflictInfo{}, fmt.Errorf("failed to build conflict: %w", err)
	}
	conflict.CreatedAt = s.now()

	insert := `
		INSERT INTO conflicts (
			conflict_id, change_id, item_type, item_id, item_name,
			local_version, remote_version, local_value, remote_value,
			local_timestamp, remote_timestamp, device_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insert,
		conflict.ConflictID,
		conflict.ChangeID,
		string(conflict.ItemType),
		conflict.ItemID,
		conflict.ItemName,
		conflict.LocalVersion,
		conflict.RemoteVersion,
		[]byte(conflict.LocalValue),
		[]byte(conflict.RemoteValue),
		toNanos(conflict.LocalTimestamp),
		toNanos(conflict.RemoteTimestamp),
		deviceID,
		toNanos(conflict.CreatedAt),
	)
	if err != nil {
		return models.ConflictInfo{}, fmt.Errorf("failed to insert conflict: %w", err)
	}

	return conflict, nil
}

// Resolve applies resolutions in one transaction
func (s *Storage) Resolve(ctx context.Context, resolutions []models.ConflictResolution) (int, error) {
	resolved := 0

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		resolved = 0
		now := s.now()

		for i := range resolutions {
			if err := s.resolveOne(ctx, tx, &resolutions[i], now); err != nil {
				return err
			}
			resolved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return resolved, nil
}

func (s *Storage) resolveOne(ctx context.Context, tx *sql.Tx, res *models.ConflictResolution, now time.Time) error {
	query := `SELECT ` + conflictColumns + `, resolved_at FROM conflicts WHERE conflict_id = ?`

	var resolvedAt sql.NullInt64
	conflict, err := scanConflict(tx.QueryRowContext(ctx, query, res.ConflictID), &resolvedAt)
	if err != nil {
		return fmt.Errorf("conflict %s: %w", res.ConflictID, err)
	}
	if resolvedAt.Valid {
		return fmt.Errorf("conflict %s: %w", res.ConflictID, storage.ErrConflictResolved)
	}

	var value json.RawMessage
	switch res.Choice {
	case models.ChoiceLocal:
		value = conflict.LocalValue
	case models.ChoiceMerged:
		value = res.Value
	}

	if res.Choice != models.ChoiceRemote {
		stored, err := loadItem(ctx, tx, conflict.ItemType, conflict.ItemID)
		if err != nil {
			return err
		}
		version := conflict.LocalVersion
		if stored != nil && stored.version > version {
			version = stored.version
		}

		op := models.OperationUpdate
		switch {
		case isNull(value):
			op = models.OperationDelete
		case stored == nil:
			op = models.OperationCreate
		}

		change := models.NewChange(conflict.ItemType, conflict.ItemID, op, version+1, value)
		change.ChangeID = conflict.ChangeID
		change.Timestamp = now
		if err := writeItem(ctx, tx, "", &change, now); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conflicts SET resolved_at = ?, choice = ? WHERE conflict_id = ?`,
		toNanos(now), string(res.Choice), conflict.ConflictID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark conflict resolved: %w", err)
	}
	return nil
}

// ListConflicts returns unresolved conflicts, oldest first
func (s *Storage) ListConflicts(ctx context.Context) ([]models.ConflictInfo, error) {
	query := `SELECT ` + conflictColumns + `
		FROM conflicts
		WHERE resolved_at IS NULL
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	conflicts := make([]models.ConflictInfo, 0)
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conflicts: %w", err)
	}

	return conflicts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanConflict reads conflictColumns followed by extra destinations
func scanConflict(row scanner, extra ...any) (models.ConflictInfo, error) {
	var (
		c                          models.ConflictInfo
		itemType                   string
		localValue, remoteValue    []byte
		localAt, remoteAt, created int64
	)

	dest := []any{
		&c.ConflictID, &c.ChangeID, &itemType, &c.ItemID, &c.ItemName,
		&c.LocalVersion, &c.RemoteVersion, &localValue, &remoteValue,
		&localAt, &remoteAt, &created,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ConflictInfo{}, storage.ErrConflictNotFound
		}
		return models.ConflictInfo{}, fmt.Errorf("failed to scan conflict: %w", err)
	}

	c.ItemType = models.ItemType(itemType)
	c.LocalValue = json.RawMessage(localValue)
	c.RemoteValue = json.RawMessage(remoteValue)
	c.LocalTimestamp = fromNanos(localAt)
	c.RemoteTimestamp = fromNanos(remoteAt)
	c.CreatedAt = fromNanos(created)
	return c, nil
}

func remoteSnapshot(stored *itemRow) json.RawMessage {
	if len(stored.data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(stored.data)
}

func isNull(value json.RawMessage) bool {
	return len(value) == 0 || string(value) == "null"
}
