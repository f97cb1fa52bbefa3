package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	started := time.Unix(1700000000, 0)

	run := &Run{ID: "run-1", Trigger: "cli", State: "building", Started: started}
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "building", got.State)
	assert.True(t, got.Finished.IsZero())
	assert.Zero(t, got.Duration())

	run.State = "published"
	run.Finished = started.Add(3 * time.Second)
	run.Items, run.Indexed, run.Digest = 4, 3, "abc"
	run.Target, run.Location = "directory", "/srv/site/current"
	require.NoError(t, store.Record(ctx, run))

	got, err = store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "published", got.State)
	assert.Equal(t, 3*time.Second, got.Duration())
	assert.Equal(t, 4, got.Items)
	assert.Equal(t, 3, got.Indexed)
	assert.Equal(t, "/srv/site/current", got.Location)
	assert.Equal(t, "cli", got.Trigger)
}

func TestGetMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(t.Context(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Unix(1700000000, 0)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, &Run{ID: id, Trigger: "watch", State: "published", Started: base.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransitionsInOrder(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	for _, state := range []string{"building", "build_succeeded", "publishing", "published"} {
		require.NoError(t, store.AppendTransition(ctx, Transition{RunID: "r", State: state}))
	}
	require.NoError(t, store.AppendTransition(ctx, Transition{RunID: "other", State: "building"}))

	ts, err := store.Transitions(ctx, "r")
	require.NoError(t, err)
	require.Len(t, ts, 4)
	assert.Equal(t, "building", ts[0].State)
	assert.Equal(t, "published", ts[3].State)
	assert.False(t, ts[0].At.IsZero())
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), &Run{ID: "x", Trigger: "cli", State: "build_failed", Started: time.Now(), Error: "boom"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	got, err := store.Get(t.Context(), "x")
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)
}
