package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/postboy/internal/models"
)

func pullOne(t *testing.T, s *Storage, id string) models.Change {
	t.Helper()
	changes, err := s.Pull(context.Background(), nil)
	require.NoError(t, err)
	for _, c := range changes {
		if c.ItemID == id {
			return c
		}
	}
	t.Fatalf("item %s not found", id)
	return models.Change{}
}

func TestStorage_PushApplies(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first := request("A", 1, "v1")
	outcome, err := s.Push(ctx, "dev-1", []models.Change{first})
	require.NoError(t, err)
	assert.Empty(t, outcome.Conflicts)
	assert.Equal(t, 1, outcome.Applied)

	// Пропуск версий допустим: клиент схлопывает create+update в одну запись
	gap := request("A", 3, "v3")
	outcome, err = s.Push(ctx, "dev-1", []models.Change{gap})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Applied)

	got := pullOne(t, s, "A")
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, gap.ChangeID, got.ChangeID)
	assert.JSONEq(t, `{"name":"v3"}`, string(got.Data))
	assert.True(t, got.Synced)
}

func TestStorage_PushEqualVersion(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		offset    time.Duration
		sameID    bool
		wantApply bool
	}{
		{name: "redelivery", sameID: true, offset: time.Hour, wantApply: false},
		{name: "later wins", offset: time.Second, wantApply: true},
		{name: "earlier loses", offset: -time.Second, wantApply: false},
		{name: "tie keeps stored", offset: 0, wantApply: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, cleanup := setupTestStorage(t)
			defer cleanup()

			stored := request("A", 2, "stored")
			stored.Timestamp = base
			_, err := s.Push(ctx, "dev-1", []models.Change{stored})
			require.NoError(t, err)

			incoming := request("A", 2, "incoming")
			incoming.Timestamp = base.Add(tt.offset)
			if tt.sameID {
				incoming.ChangeID = stored.ChangeID
			}

			outcome, err := s.Push(ctx, "dev-2", []models.Change{incoming})
			require.NoError(t, err)
			assert.Empty(t, outcome.Conflicts, "equal versions never conflict")

			got := pullOne(t, s, "A")
			if tt.wantApply {
				assert.Equal(t, 1, outcome.Applied)
				assert.JSONEq(t, `{"name":"incoming"}`, string(got.Data))
			} else {
				assert.Equal(t, 1, outcome.Skipped)
				assert.JSONEq(t, `{"name":"stored"}`, string(got.Data))
			}
		})
	}
}

func TestStorage_PushConflict(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.Push(ctx, "dev-1", []models.Change{request("A", 4, "server")})
	require.NoError(t, err)

	stale := request("A", 2, "local")
	fresh := request("B", 1, "new")
	outcome, err := s.Push(ctx, "dev-2", []models.Change{fresh, stale})
	require.NoError(t, err)

	require.Len(t, outcome.Conflicts, 1)
	c := outcome.Conflicts[0]
	assert.Equal(t, stale.ChangeID, c.ChangeID)
	assert.Equal(t, int64(2), c.LocalVersion)
	assert.Equal(t, int64(4), c.RemoteVersion)
	assert.JSONEq(t, `{"name":"local"}`, string(c.LocalValue))
	assert.JSONEq(t, `{"name":"server"}`, string(c.RemoteValue))
	assert.Equal(t, "server", c.ItemName)
	assert.Zero(t, outcome.Applied)

	// Пачка не применена целиком
	changes, err := s.Pull(ctx, nil)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "A", changes[0].ItemID)

	// Повторная отправка того же изменения не плодит конфликты
	again, err := s.Push(ctx, "dev-2", []models.Change{stale})
	require.NoError(t, err)
	require.Len(t, again.Conflicts, 1)
	assert.Equal(t, c.ConflictID, again.Conflicts[0].ConflictID)

	open, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestStorage_PushDelete(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.Push(ctx, "dev-1", []models.Change{request("A", 1, "a")})
	require.NoError(t, err)

	del := models.NewDeleteChange(models.ItemTypeRequest, "A", 2)
	_, err = s.Push(ctx, "dev-1", []models.Change{del})
	require.NoError(t, err)

	got := pullOne(t, s, "A")
	assert.Equal(t, models.OperationDelete, got.Operation)
	assert.Empty(t, got.Data)
	require.NoError(t, got.Validate())
}

func TestStorage_PullSince(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	stepClock(s, start)

	_, err := s.Push(ctx, "dev-1", []models.Change{request("A", 1, "a")}) // updated_at start+1s
	require.NoError(t, err)
	_, err = s.Push(ctx, "dev-1", []models.Change{request("B", 1, "b")}) // start+2s
	require.NoError(t, err)

	tests := []struct {
		since    *time.Time
		name     string
		expected []string
	}{
		{name: "all", since: nil, expected: []string{"A", "B"}},
		{name: "between", since: timePtr(start.Add(1500 * time.Millisecond)), expected: []string{"B"}},
		{name: "exclusive bound", since: timePtr(start.Add(2 * time.Second)), expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := s.Pull(ctx, tt.since)
			require.NoError(t, err)

			ids := make([]string, 0, len(changes))
			for _, c := range changes {
				ids = append(ids, c.ItemID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
