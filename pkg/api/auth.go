// Package api содержит DTO HTTP протокола синхронизации
package api

import "github.com/iudanet/postboy/internal/models"

// TokenRequest запрос на получение access token по API ключу
type TokenRequest struct {
	APIKey string            `json:"api_key"` // APIKey ключ клиента
	Device models.DeviceInfo `json:"device"`  // Device устройство, от имени которого идет синхронизация
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	ExpiresIn   int64  `json:"expires_in"`   // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
