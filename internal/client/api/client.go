// Package api implements the sync provider over the HTTP protocol of pkg/api
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	gosync "sync"
	"time"

	"github.com/iudanet/postboy/internal/client/sync"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
	"github.com/iudanet/postboy/pkg/api"
)

// DefaultTimeout ограничивает один HTTP запрос
const DefaultTimeout = 30 * time.Second

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	token      string
	credential string
	device     models.DeviceInfo
	mu         gosync.RWMutex
}

var _ sync.Provider = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string, device models.DeviceInfo, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		device:  device,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// NewProviderFactory builds an HTTP provider for every online session
func NewProviderFactory(device models.DeviceInfo, logger *slog.Logger) sync.ProviderFactory {
	return func(cfg models.SyncConfig) (sync.Provider, error) {
		if !cfg.IsConfigured() {
			return nil, syncerr.Errorf(syncerr.KindNotConfigured, "provider", "server url or api key missing")
		}
		d := device
		d.DeviceID = cfg.DeviceID
		return NewClient(cfg.ServerURL, d, logger), nil
	}
}

// Authenticate обменивает API ключ на access token.
// Отклоненный ключ возвращает false без ошибки.
func (c *Client) Authenticate(ctx context.Context, credential string) (bool, error) {
	device := c.device
	device.LastSeen = time.Now().UTC()
	device.IsOnline = true

	var resp api.TokenResponse
	err := c.doRequest(ctx, "authenticate", http.MethodPost, "/api/v1/auth/token", "",
		api.TokenRequest{APIKey: credential, Device: device}, &resp)
	if errors.Is(err, syncerr.ErrAuthenticationFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if resp.AccessToken == "" {
		return false, syncerr.Errorf(syncerr.KindServerError, "authenticate", "empty access token")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.credential = credential
	c.mu.Unlock()

	c.logger.Debug("Authenticated", "server", c.baseURL, "expires_in", resp.ExpiresIn)
	return true, nil
}

// PushChanges отправляет изменения одним запросом
func (c *Client) PushChanges(ctx context.Context, changes []models.Change) (models.SyncResult, error) {
	var resp api.PushResponse
	req := api.PushRequest{DeviceID: c.device.DeviceID, Changes: changes}
	if err := c.authorized(ctx, "push", http.MethodPost, "/api/v1/sync/push", req, &resp); err != nil {
		return models.SyncResult{}, err
	}

	switch resp.Status {
	case api.PushStatusSuccess:
		return models.SuccessResult(resp.Timestamp, resp.Pushed, 0), nil
	case api.PushStatusConflict:
		return models.ConflictResult(resp.Conflicts), nil
	default:
		return models.SyncResult{}, syncerr.Errorf(syncerr.KindServerError, "push", "unknown push status %q", resp.Status)
	}
}

// PullChanges запрашивает изменения после since
func (c *Client) PullChanges(ctx context.Context, since *time.Time) ([]models.Change, error) {
	path := "/api/v1/sync/pull"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}

	var resp api.PullResponse
	if err := c.authorized(ctx, "pull", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Changes, nil
}

// ResolveConflicts отправляет решения по конфликтам
func (c *Client) ResolveConflicts(ctx context.Context, resolutions []models.ConflictResolution) error {
	var resp api.ResolveResponse
	req := api.ResolveRequest{Resolutions: resolutions}
	if err := c.authorized(ctx, "resolve", http.MethodPost, "/api/v1/sync/resolve", req, &resp); err != nil {
		return err
	}
	if resp.Resolved != len(resolutions) {
		c.logger.Warn("Server applied fewer resolutions than sent", "sent", len(resolutions), "resolved", resp.Resolved)
	}
	return nil
}

// authorized выполняет запрос с токеном. Истекший токен обновляется один раз.
func (c *Client) authorized(ctx context.Context, op, method, path string, body, result any) error {
	c.mu.RLock()
	token, credential := c.token, c.credential
	c.mu.RUnlock()

	if token == "" {
		return syncerr.Errorf(syncerr.KindAuthenticationFailed, op, "not authenticated")
	}

	err := c.doRequest(ctx, op, method, path, token, body, result)
	if !errors.Is(err, syncerr.ErrAuthenticationFailed) || credential == "" {
		return err
	}

	c.logger.Debug("Access token rejected, re-authenticating", "op", op)
	ok, authErr := c.Authenticate(ctx, credential)
	if authErr != nil {
		return authErr
	}
	if !ok {
		return err
	}

	c.mu.RLock()
	token = c.token
	c.mu.RUnlock()
	return c.doRequest(ctx, op, method, path, token, body, result)
}

// doRequest выполняет HTTP запрос и классифицирует ошибку
func (c *Client) doRequest(ctx context.Context, op, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return syncerr.New(syncerr.KindInvalidData, op, fmt.Errorf("failed to marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return syncerr.New(syncerr.KindNotConfigured, op, fmt.Errorf("failed to create request: %w", err))
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return syncerr.New(syncerr.KindServerError, op, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// statusError maps a non-2xx response to an error kind
func statusError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
		if errResp.Message != "" {
			msg += ": " + errResp.Message
		}
	}
	cause := fmt.Errorf("status %d: %s", status, msg)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return syncerr.New(syncerr.KindAuthenticationFailed, op, cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return syncerr.New(syncerr.KindInvalidData, op, cause)
	case status == http.StatusNotFound && op == "resolve":
		return syncerr.New(syncerr.KindInvalidData, op, cause)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return syncerr.New(syncerr.KindNetwork, op, cause)
	default:
		return syncerr.New(syncerr.KindServerError, op, cause)
	}
}

// transportError различает таймаут и отказ соединения
func transportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return syncerr.New(syncerr.KindNetwork, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return syncerr.New(syncerr.KindNetwork, op, err)
	}
	return syncerr.New(syncerr.KindConnectionFailed, op, err)
}
