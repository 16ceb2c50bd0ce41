package api

import (
	"time"

	"github.com/iudanet/postboy/internal/models"
)

const (
	PushStatusSuccess  = "success"
	PushStatusConflict = "conflict"
)

// PushRequest отправка локальных изменений на сервер
type PushRequest struct {
	DeviceID string          `json:"device_id"`
	Changes  []models.Change `json:"changes"`
}

// PushResponse ответ на push. При status=conflict ничего не применено.
type PushResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Status    string                `json:"status"`
	Conflicts []models.ConflictInfo `json:"conflicts,omitempty"`
	Pushed    int                   `json:"pushed"`
}

// PullResponse изменения сервера после since
type PullResponse struct {
	Timestamp time.Time       `json:"timestamp"` // Timestamp время сервера на момент выборки
	Changes   []models.Change `json:"changes"`
}

// ResolveRequest решения по конфликтам
type ResolveRequest struct {
	Resolutions []models.ConflictResolution `json:"resolutions"`
}

// ResolveResponse количество примененных решений
type ResolveResponse struct {
	Resolved int `json:"resolved"`
}

// HealthResponse ответ /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ConflictsResponse нерешенные конфликты сервера
type ConflictsResponse struct {
	Conflicts []models.ConflictInfo `json:"conflicts"`
}
