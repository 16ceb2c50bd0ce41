package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/server/storage"
)

// UpsertDevice creates or refreshes a device record
func (s *Storage) UpsertDevice(ctx context.Context, device models.DeviceInfo) error {
	query := `
		INSERT INTO devices (device_id, name, device_type, os_info, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			name = excluded.name,
			device_type = excluded.device_type,
			os_info = excluded.os_info,
			last_seen = excluded.last_seen
	`

	lastSeen := device.LastSeen
	if lastSeen.IsZero() {
		lastSeen = s.now()
	}

	_, err := s.db.ExecContext(ctx, query,
		device.DeviceID,
		device.Name,
		string(device.DeviceType),
		device.OSInfo,
		toNanos(lastSeen),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// GetDevice returns ErrDeviceNotFound for unknown ids
func (s *Storage) GetDevice(ctx context.Context, deviceID string) (models.DeviceInfo, error) {
	query := `
		SELECT device_id, name, device_type, os_info, last_seen
		FROM devices
		WHERE device_id = ?
	`

	var (
		device     models.DeviceInfo
		deviceType string
		lastSeen   int64
	)
	err := s.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.DeviceID,
		&device.Name,
		&deviceType,
		&device.OSInfo,
		&lastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceInfo{}, storage.ErrDeviceNotFound
		}
		return models.DeviceInfo{}, fmt.Errorf("failed to get device: %w", err)
	}

	device.DeviceType = models.DeviceType(deviceType)
	device.LastSeen = fromNanos(lastSeen)
	return device, nil
}
