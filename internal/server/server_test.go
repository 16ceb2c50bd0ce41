package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/postboy/internal/client/api"
	"github.com/iudanet/postboy/internal/client/changes"
	"github.com/iudanet/postboy/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/postboy/internal/client/sync"
	"github.com/iudanet/postboy/internal/crypto"
	"github.com/iudanet/postboy/internal/models"
	"github.com/iudanet/postboy/internal/queue"
	"github.com/iudanet/postboy/internal/server/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()

	key, err := crypto.GenerateAPIKey()
	require.NoError(t, err)

	cfg := &config.Config{
		Addr:            "127.0.0.1:0",
		DBPath:          ":memory:",
		JWTSecret:       "test-secret-at-least-16",
		APIKeys:         []string{key},
		TokenTTL:        time.Hour,
		ShutdownTimeout: time.Second,
		AuthRateLimit:   100,
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := New(ctx, cfg, testLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		_ = srv.Close()
	})

	return srv, ts, key
}

type testClient struct {
	svc     *clientsync.Service
	tracker *changes.Tracker
}

func newTestClient(t *testing.T, serverURL, key, name string, strategy models.ConflictStrategy) *testClient {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := models.OnlineSyncConfig(serverURL, key)
	cfg.Mode = models.ModeOnlineManual
	cfg.AutoSyncInterval = 0
	cfg.ConflictStrategy = strategy
	require.NoError(t, store.SaveSyncConfig(ctx, cfg))

	q := queue.New(100)
	tracker, err := changes.NewTracker(ctx, store, q, logger)
	require.NoError(t, err)

	device := models.DeviceInfo{Name: name, DeviceType: models.DeviceDesktop, OSInfo: "test"}
	svc := clientsync.NewService(q, tracker, store, logger,
		clientsync.WithProviderFactory(api.NewProviderFactory(device, logger)))

	return &testClient{svc: svc, tracker: tracker}
}

func (c *testClient) record(t *testing.T, id, name string) {
	t.Helper()
	_, err := c.tracker.Record(context.Background(), models.ItemTypeRequest, id, models.OperationUpdate,
		json.RawMessage(`{"name":"`+name+`"}`))
	require.NoError(t, err)
}

func TestServer_TwoClientsSync(t *testing.T) {
	srv, ts, key := setupTestServer(t)
	ctx := context.Background()

	alice := newTestClient(t, ts.URL, key, "alice", models.StrategyRemoteWins)
	bob := newTestClient(t, ts.URL, key, "bob", models.StrategyRemoteWins)

	alice.record(t, "req-1", "first")
	session, err := alice.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, session.Outcome)
	assert.Len(t, session.ChangesPushed, 1)

	session, err = bob.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, session.Outcome)
	require.Len(t, session.ChangesPulled, 1)
	assert.JSONEq(t, `{"name":"first"}`, string(session.ChangesPulled[0].Data))

	key1 := models.ItemKey{Type: models.ItemTypeRequest, ID: "req-1"}
	assert.Equal(t, int64(1), bob.tracker.Version(key1))

	// Алиса уходит на две версии вперед, Боб правит устаревшую копию
	alice.record(t, "req-1", "second")
	alice.record(t, "req-1", "third")
	_, err = alice.svc.Sync(ctx)
	require.NoError(t, err)

	bob.record(t, "req-1", "bob")
	session, err = bob.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, session.Outcome)
	assert.Len(t, session.Conflicts, 1)
	require.Len(t, session.Resolutions, 1)
	assert.Equal(t, models.ChoiceRemote, session.Resolutions[0].Choice)

	open, err := srv.storage.ListConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	items, err := srv.storage.Pull(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"name":"third"}`, string(items[0].Data))

	device, err := srv.storage.GetDevice(ctx, mustDeviceID(t, alice))
	require.NoError(t, err)
	assert.Equal(t, "alice", device.Name)
}

func mustDeviceID(t *testing.T, c *testClient) string {
	t.Helper()
	cfg, err := c.svc.Config(context.Background())
	require.NoError(t, err)
	return cfg.DeviceID
}

func TestServer_Routes(t *testing.T) {
	_, ts, _ := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "pull without token", method: http.MethodGet, path: "/api/v1/sync/pull", want: http.StatusUnauthorized},
		{name: "pull with bad token", method: http.MethodGet, path: "/api/v1/sync/pull", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong api key", method: http.MethodPost, path: "/api/v1/auth/token", body: `{"api_key":"pb_wrong","device":{"device_id":"d"}}`, want: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/api/v2/things", want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/api/v1/auth/token", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_ServeShutdown(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
