package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/postboy/internal/server/storage"
	"github.com/iudanet/postboy/pkg/api"
)

// SyncHandler handles synchronization requests
type SyncHandler struct {
	logger  *slog.Logger
	storage storage.SyncStorage
	now     func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, storage storage.SyncStorage) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// deviceFromContext отвечает 401, если AuthMiddleware не положил устройство
func (h *SyncHandler) deviceFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	deviceID, ok := GetDeviceID(r.Context())
	if !ok {
		h.logger.Error("Device ID not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
	}
	return deviceID, ok
}

// Push обрабатывает POST /api/v1/sync/push
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID, ok := h.deviceFromContext(w, r)
	if !ok {
		return
	}

	var req api.PushRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode push request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.DeviceID != "" && req.DeviceID != deviceID {
		h.logger.WarnContext(ctx, "push for another device", slog.String("token_device", deviceID), slog.String("body_device", req.DeviceID))
		sendError(h.logger, w, "device_id does not match token", http.StatusForbidden)
		return
	}

	for i := range req.Changes {
		if err := req.Changes[i].Validate(); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	outcome, err := h.storage.Push(ctx, deviceID, req.Changes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to push changes", slog.Any("error", err), slog.String("device_id", deviceID))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.PushResponse{Timestamp: h.now()}
	if len(outcome.Conflicts) > 0 {
		resp.Status = api.PushStatusConflict
		resp.Conflicts = outcome.Conflicts
	} else {
		resp.Status = api.PushStatusSuccess
		resp.Pushed = outcome.Applied + outcome.Skipped
	}

	h.logger.InfoContext(ctx, "push processed",
		slog.String("device_id", deviceID),
		slog.Int("received", len(req.Changes)),
		slog.Int("applied", outcome.Applied),
		slog.Int("skipped", outcome.Skipped),
		slog.Int("conflicts", len(outcome.Conflicts)))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Pull обрабатывает GET /api/v1/sync/pull?since=RFC3339Nano
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID, ok := h.deviceFromContext(w, r)
	if !ok {
		return
	}

	var since *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid since parameter", slog.String("since", s), slog.Any("error", err))
			sendError(h.logger, w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = &parsed
	}

	// Время фиксируется до выборки, чтобы ничего не потерять на границе
	now := h.now()
	changes, err := h.storage.Pull(ctx, since)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to pull changes", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "pull processed", slog.String("device_id", deviceID), slog.Int("changes", len(changes)))

	sendJSON(h.logger, w, api.PullResponse{Timestamp: now, Changes: changes}, http.StatusOK)
}

// Resolve обрабатывает POST /api/v1/sync/resolve
func (h *SyncHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID, ok := h.deviceFromContext(w, r)
	if !ok {
		return
	}

	var req api.ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode resolve request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	for i := range req.Resolutions {
		if err := req.Resolutions[i].Validate(); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	resolved, err := h.storage.Resolve(ctx, req.Resolutions)
	switch {
	case errors.Is(err, storage.ErrConflictNotFound):
		sendError(h.logger, w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrConflictResolved):
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to resolve conflicts", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "conflicts resolved", slog.String("device_id", deviceID), slog.Int("resolved", resolved))

	sendJSON(h.logger, w, api.ResolveResponse{Resolved: resolved}, http.StatusOK)
}

// Conflicts обрабатывает GET /api/v1/sync/conflicts
func (h *SyncHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.deviceFromContext(w, r); !ok {
		return
	}

	conflicts, err := h.storage.ListConflicts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list conflicts", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.ConflictsResponse{Conflicts: conflicts}, http.StatusOK)
}
