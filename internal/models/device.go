package models

import "time"

// DeviceType тип устройства клиента
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceWeb     DeviceType = "web"
)

// DeviceInfo информация об устройстве, отправляется при аутентификации
type DeviceInfo struct {
	LastSeen   time.Time  `json:"last_seen"`
	DeviceID   string     `json:"device_id"`
	Name       string     `json:"name"`
	DeviceType DeviceType `json:"device_type"`
	OSInfo     string     `json:"os_info,omitempty"`
	IsOnline   bool       `json:"is_online"`
}

// StatusState состояние синхронизации для отображения
type StatusState string

const (
	StatusIdle     StatusState = "idle"
	StatusSyncing  StatusState = "syncing"
	StatusSuccess  StatusState = "success"
	StatusError    StatusState = "error"
	StatusConflict StatusState = "conflict"
)

// SyncStatus is the user-facing summary of the last sync activity
type SyncStatus struct {
	Timestamp time.Time   `json:"timestamp,omitzero"`
	State     StatusState `json:"state"`
	Message   string      `json:"message,omitempty"`
	Conflicts int         `json:"conflicts,omitempty"` // Conflicts число конфликтов, ждущих решения
}
