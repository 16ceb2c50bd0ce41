package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/syncerr"
	"github.com/iudanet/postboy/pkg/api"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testDevice() models.DeviceInfo {
	return models.DeviceInfo{DeviceID: "dev-1", Name: "laptop", DeviceType: models.DeviceDesktop}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// tokenHandler выдает токен "tok" для ключа "key"
func tokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.APIKey != "key" {
			writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid api key"})
			return
		}
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "tok", ExpiresIn: 3600})
	}
}

func newAuthedClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("POST /api/v1/auth/token", tokenHandler(t))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", testDevice(), discard)
	ok, err := client.Authenticate(t.Context(), "key")
	require.NoError(t, err)
	require.True(t, ok)
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/", testDevice(), discard)

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}

func TestClient_Authenticate(t *testing.T) {
	var device models.DeviceInfo
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/token", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		device = req.Device
		if req.APIKey != "key" {
			writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid api key"})
			return
		}
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "tok", ExpiresIn: 60})
	}))
	defer server.Close()

	client := NewClient(server.URL, testDevice(), discard)

	ok, err := client.Authenticate(t.Context(), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, client.token)

	ok, err = client.Authenticate(t.Context(), "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", client.token)
	assert.Equal(t, "dev-1", device.DeviceID)
	assert.True(t, device.IsOnline)
}

func TestClient_PushChanges(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	local := models.NewUpdateChange(models.ItemTypeRequest, "A", 2, json.RawMessage(`{"name":"a"}`))
	remote := models.NewUpdateChange(models.ItemTypeRequest, "A", 5, json.RawMessage(`{"name":"b"}`))
	conflict, err := models.NewConflictInfo(local, remote, "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		response api.PushResponse
		expected models.SyncResult
	}{
		{
			name:     "success",
			response: api.PushResponse{Status: api.PushStatusSuccess, Timestamp: at, Pushed: 1},
			expected: models.SuccessResult(at, 1, 0),
		},
		{
			name:     "conflict",
			response: api.PushResponse{Status: api.PushStatusConflict, Conflicts: []models.ConflictInfo{conflict}},
			expected: models.ConflictResult([]models.ConflictInfo{conflict}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

				var req api.PushRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "dev-1", req.DeviceID)
				require.Len(t, req.Changes, 1)
				assert.Equal(t, local.ChangeID, req.Changes[0].ChangeID)

				writeJSON(t, w, http.StatusOK, tt.response)
			})
			client := newAuthedClient(t, mux)

			result, err := client.PushChanges(t.Context(), []models.Change{local})
			require.NoError(t, err)
			assert.Equal(t, tt.expected.Kind, result.Kind)
			assert.Equal(t, tt.expected.ChangesPushed, result.ChangesPushed)
			assert.True(t, tt.expected.Timestamp.Equal(result.Timestamp))
			assert.Len(t, result.Conflicts, len(tt.expected.Conflicts))
		})
	}
}

func TestClient_PullChanges(t *testing.T) {
	since := time.Date(2026, 5, 1, 12, 0, 0, 123, time.UTC)
	remote := models.NewCreateChange(models.ItemTypeFolder, "F", json.RawMessage(`{"name":"f"}`))
	remote.MarkSynced()

	var gotSince []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		gotSince = append(gotSince, r.URL.Query().Get("since"))
		writeJSON(t, w, http.StatusOK, api.PullResponse{Timestamp: time.Now(), Changes: []models.Change{remote}})
	})
	client := newAuthedClient(t, mux)

	changes, err := client.PullChanges(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, remote.ChangeID, changes[0].ChangeID)

	_, err = client.PullChanges(t.Context(), &since)
	require.NoError(t, err)

	require.Len(t, gotSince, 2)
	assert.Empty(t, gotSince[0])
	parsed, err := time.Parse(time.RFC3339Nano, gotSince[1])
	require.NoError(t, err)
	assert.True(t, since.Equal(parsed))
}

func TestClient_ResolveConflicts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sync/resolve", func(w http.ResponseWriter, r *http.Request) {
		var req api.ResolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, res := range req.Resolutions {
			if res.ConflictID == "missing" {
				writeJSON(t, w, http.StatusNotFound, api.ErrorResponse{Error: "conflict not found"})
				return
			}
		}
		writeJSON(t, w, http.StatusOK, api.ResolveResponse{Resolved: len(req.Resolutions)})
	})
	client := newAuthedClient(t, mux)

	require.NoError(t, client.ResolveConflicts(t.Context(), []models.ConflictResolution{models.KeepLocal("c-1")}))

	err := client.ResolveConflicts(t.Context(), []models.ConflictResolution{models.KeepRemote("missing")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncerr.ErrInvalidData))
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		expected error
		status   int
	}{
		{name: "bad request", status: http.StatusBadRequest, expected: syncerr.ErrInvalidData},
		{name: "forbidden", status: http.StatusForbidden, expected: syncerr.ErrAuthenticationFailed},
		{name: "not found on push", status: http.StatusNotFound, expected: syncerr.ErrServerError},
		{name: "internal", status: http.StatusInternalServerError, expected: syncerr.ErrServerError},
		{name: "unavailable", status: http.StatusServiceUnavailable, expected: syncerr.ErrServerError},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, expected: syncerr.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, api.ErrorResponse{Error: "boom", Message: "details"})
			})
			client := newAuthedClient(t, mux)

			_, err := client.PushChanges(t.Context(), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Contains(t, err.Error(), "boom: details")
		})
	}
}

func TestClient_ReauthenticatesOnExpiredToken(t *testing.T) {
	var issued, pushes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		n := issued.Add(1)
		writeJSON(t, w, http.StatusOK, api.TokenResponse{AccessToken: "tok-" + string(rune('0'+n))})
	})
	mux.HandleFunc("POST /api/v1/sync/push", func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			writeJSON(t, w, http.StatusUnauthorized, api.ErrorResponse{Error: "token expired"})
			return
		}
		writeJSON(t, w, http.StatusOK, api.PushResponse{Status: api.PushStatusSuccess, Timestamp: time.Now()})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, testDevice(), discard)
	ok, err := client.Authenticate(t.Context(), "key")
	require.NoError(t, err)
	require.True(t, ok)

	result, err := client.PushChanges(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResultSuccess, result.Kind)
	assert.Equal(t, int32(2), issued.Load())
	assert.Equal(t, int32(2), pushes.Load())
}

func TestClient_NotAuthenticated(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", testDevice(), discard)

	_, err := client.PullChanges(t.Context(), nil)
	assert.True(t, errors.Is(err, syncerr.ErrAuthenticationFailed))
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := NewClient(url, testDevice(), discard)
		_, err := client.Authenticate(t.Context(), "key")
		require.Error(t, err)
		assert.True(t, errors.Is(err, syncerr.ErrConnectionFailed), "got %v", err)
	})

	t.Run("deadline", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		client := NewClient(server.URL, testDevice(), discard)
		_, err := client.Authenticate(ctx, "key")
		require.Error(t, err)
		assert.True(t, errors.Is(err, syncerr.ErrNetwork), "got %v", err)
	})
}

func TestNewProviderFactory(t *testing.T) {
	factory := NewProviderFactory(testDevice(), discard)

	_, err := factory(models.DefaultSyncConfig())
	assert.True(t, errors.Is(err, syncerr.ErrNotConfigured))

	cfg := models.OnlineSyncConfig("https://sync.example.com", "key")
	p, err := factory(cfg)
	require.NoError(t, err)
	client, ok := p.(*Client)
	require.True(t, ok)
	assert.Equal(t, cfg.DeviceID, client.device.DeviceID)
	assert.Equal(t, "https://sync.example.com", client.baseURL)
}
