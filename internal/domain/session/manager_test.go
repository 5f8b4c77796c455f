package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ZenCode/backend/internal/providers/store"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/id"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// recordingStore notes the withCodebase flag of every update
type recordingStore struct {
	*store.DB
	snapshots []bool
}

func (r *recordingStore) UpdateSession(ctx context.Context, s *types.Session, withCodebase bool) error {
	r.snapshots = append(r.snapshots, withCodebase)
	return r.DB.UpdateSession(ctx, s, withCodebase)
}

func newTestManager(t *testing.T) (*Manager, *recordingStore) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rs := &recordingStore{DB: db}
	return NewManager(rs, Options{}, nil), rs
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sid, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, id.HasPrefix(sid, id.SessionPrefix))

	s, err := m.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Empty(t, s.Messages)
}

func TestResolve(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sid, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	got, err := m.Resolve(ctx, sid, "user-1")
	require.NoError(t, err)
	assert.Equal(t, sid, got)

	other, err := m.Resolve(ctx, sid, "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, sid, other)

	fresh, err := m.Resolve(ctx, "sess_missing", "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, "sess_missing", fresh)

	blank, err := m.Resolve(ctx, "", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, blank)
}

func TestUpdateSkipsUnchangedCodebase(t *testing.T) {
	m, rs := newTestManager(t)
	ctx := context.Background()

	sid, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	codebase := []types.FileNode{{FileName: "App.tsx", FilePath: "src/App.tsx", FileContent: "v1"}}
	msgs := []types.ChatMessage{types.UserMessage("q1"), types.AssistantMessage("a1")}

	require.NoError(t, m.Update(ctx, sid, msgs, codebase))
	require.NoError(t, m.Update(ctx, sid, append(msgs, types.UserMessage("q2")), codebase))

	changed := []types.FileNode{{FileName: "App.tsx", FilePath: "src/App.tsx", FileContent: "v2"}}
	require.NoError(t, m.Update(ctx, sid, msgs, changed))

	assert.Equal(t, []bool{true, false, true}, rs.snapshots)

	stats := m.Stats()
	assert.Equal(t, int64(3), stats.Writes)
	assert.Equal(t, int64(1), stats.SnapshotsSkip)
}

func TestUpdatePersistsThroughCache(t *testing.T) {
	m, rs := newTestManager(t)
	ctx := context.Background()

	sid, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	codebase := []types.FileNode{{FileName: "a.ts", FilePath: "src/a.ts", FileContent: "x"}}
	require.NoError(t, m.Update(ctx, sid, []types.ChatMessage{types.UserMessage("hi")}, codebase))

	// A cold manager reads the same state back from the store
	cold := NewManager(rs, Options{}, nil)
	s, err := cold.Get(ctx, sid)
	require.NoError(t, err)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "hi", s.Messages[0].Content)
	assert.Equal(t, codebase, s.Codebase)
	assert.NotEmpty(t, s.CodebaseDigest)

	m.Forget(sid)
	assert.Equal(t, 0, m.Stats().Cached)
}

func TestGetReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sid, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	s, err := m.Get(ctx, sid)
	require.NoError(t, err)
	s.Messages = append(s.Messages, types.UserMessage("mutated"))

	again, err := m.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, again.Messages)
}

func TestUpdateUnknownSession(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Update(context.Background(), "sess_nope", nil, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewManager(db, Options{MaxEntries: 3, IdleTTL: time.Hour}, nil)
	ctx := context.Background()

	big := []types.FileNode{{FileName: "Big.tsx", FilePath: "src/Big.tsx", FileContent: strings.Repeat("x", 64*1024)}}
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		sid, err := m.Create(ctx, "user-1")
		require.NoError(t, err)
		require.NoError(t, m.Update(ctx, sid, []types.ChatMessage{types.UserMessage(fmt.Sprintf("q%d", i))}, big))
		ids = append(ids, sid)
	}

	stats := m.Stats()
	assert.Equal(t, 3, stats.Cached)
	assert.Equal(t, int64(17), stats.Evicted)

	// Evicted sessions still resolve and load through the store
	got, err := m.Resolve(ctx, ids[0], "user-1")
	require.NoError(t, err)
	assert.Equal(t, ids[0], got)

	s, err := m.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, big, s.Codebase)
	assert.Equal(t, 3, m.Stats().Cached)
}

func TestCacheDropsIdleSessions(t *testing.T) {
	m, _ := newTestManager(t)
	m.opts.IdleTTL = time.Minute
	ctx := context.Background()

	clock := time.Now()
	m.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		_, err := m.Create(ctx, "user-1")
		require.NoError(t, err)
	}
	require.Equal(t, 5, m.Stats().Cached)

	clock = clock.Add(2 * time.Minute)
	m.lastSweep = clock.Add(-2 * time.Minute)
	_, err := m.Create(ctx, "user-2")
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Cached)
	assert.Equal(t, int64(5), stats.Evicted)
}

func TestUpdateAfterEvictionKeepsDigest(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rs := &recordingStore{DB: db}

	m := NewManager(rs, Options{MaxEntries: 1}, nil)
	ctx := context.Background()

	codebase := []types.FileNode{{FileName: "a.ts", FilePath: "src/a.ts", FileContent: "x"}}
	first, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, first, nil, codebase))

	_, err = m.Create(ctx, "user-1")
	require.NoError(t, err)

	// first was evicted; its digest is reloaded from the store
	require.NoError(t, m.Update(ctx, first, []types.ChatMessage{types.UserMessage("again")}, codebase))
	assert.Equal(t, []bool{true, false}, rs.snapshots)
}
