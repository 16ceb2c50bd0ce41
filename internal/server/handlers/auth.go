package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/postboy/internal/crypto"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/pkg/api"
)

// KeyVerifier проверяет API ключ клиента
type KeyVerifier interface {
	Verify(key string) error
}

// TokenIssuer выпускает access token для устройства
type TokenIssuer interface {
	GenerateAccessToken(deviceID, deviceName string) (string, int64, error)
}

// DeviceRegistry запоминает устройства, получившие токен
type DeviceRegistry interface {
	UpsertDevice(ctx context.Context, device models.DeviceInfo) error
}

// AuthHandler обрабатывает выдачу токенов
type AuthHandler struct {
	logger  *slog.Logger
	keys    KeyVerifier
	tokens  TokenIssuer
	devices DeviceRegistry
}

// NewAuthHandler создает новый handler аутентификации
func NewAuthHandler(logger *slog.Logger, keys KeyVerifier, tokens TokenIssuer, devices DeviceRegistry) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		keys:    keys,
		tokens:  tokens,
		devices: devices,
	}
}

// Token обрабатывает POST /api/v1/auth/token
// Обменивает API ключ на JWT access token, привязанный к устройству
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode token request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Device.DeviceID == "" {
		sendError(h.logger, w, "device.device_id is required", http.StatusBadRequest)
		return
	}

	if err := h.keys.Verify(req.APIKey); err != nil {
		if errors.Is(err, crypto.ErrInvalidAPIKey) {
			h.logger.WarnContext(ctx, "token request rejected", slog.String("device_id", req.Device.DeviceID))
			sendError(h.logger, w, "invalid api key", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify api key", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	req.Device.LastSeen = time.Now().UTC()
	if err := h.devices.UpsertDevice(ctx, req.Device); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to register device", slog.Any("error", err))
	}

	token, expiresIn, err := h.tokens.GenerateAccessToken(req.Device.DeviceID, req.Device.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "access token issued",
		slog.String("device_id", req.Device.DeviceID),
		slog.String("device_name", req.Device.Name))

	sendJSON(h.logger, w, api.TokenResponse{AccessToken: token, ExpiresIn: expiresIn}, http.StatusOK)
}
