package autosave

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/storage"
)

type countingStore struct {
	*storage.MemoryStore
	mu     sync.Mutex
	writes int
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *countingStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestTickSkipsUnmodifiedDocument(t *testing.T) {
	store := newCountingStore()
	engine := New(document.NewWorkspace(), store, Options{})

	key, wrote, err := engine.Tick(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, CollectionSlotKey, key)
	assert.False(t, wrote)
	assert.Zero(t, store.Writes())
}

func TestTickTwiceWithoutEditsWritesOnce(t *testing.T) {
	store := newCountingStore()
	ws := document.NewWorkspace()
	engine := New(ws, store, Options{})
	ctx := context.Background()

	ws.Edit("first draft")
	_, wrote, err := engine.Tick(ctx, t0)
	require.NoError(t, err)
	assert.True(t, wrote)

	_, wrote, err = engine.Tick(ctx, t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 1, store.Writes())
	assert.True(t, ws.Modified(), "autosave must not clear the modified flag")

	ws.Edit("second draft")
	_, wrote, err = engine.Tick(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, 2, store.Writes())
}

func TestTickRefreshesIdleSnapshot(t *testing.T) {
	store := newCountingStore()
	ws := document.NewWorkspace()
	engine := New(ws, store, Options{Window: time.Hour})
	ctx := context.Background()

	ws.Edit("left open overnight")
	_, wrote, err := engine.Tick(ctx, t0)
	require.NoError(t, err)
	require.True(t, wrote)

	_, wrote, err = engine.Tick(ctx, t0.Add(29*time.Minute))
	require.NoError(t, err)
	assert.False(t, wrote)

	_, wrote, err = engine.Tick(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, wrote, "an idle snapshot is restamped after half the window")
	assert.Equal(t, 2, store.Writes())

	raw, err := store.Get(ctx, CollectionSlotKey)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, t0.Add(30*time.Minute).UnixMilli(), snap.Timestamp)
}

func TestTickWritesRecoverySlotShape(t *testing.T) {
	store := storage.NewMemoryStore()
	ws := document.NewWorkspace()
	engine := New(ws, store, Options{})
	ctx := context.Background()

	ws.Edit("chapter text")
	_, _, err := engine.Tick(ctx, t0)
	require.NoError(t, err)

	raw, err := store.Get(ctx, CollectionSlotKey)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.EqualValues(t, t0.UnixMilli(), payload["timestamp"])
	assert.Contains(t, payload, "collection")
	assert.NotContains(t, payload, "content")

	ws.OpenFile("", "", "")
	ws.Edit("loose notes")
	key, wrote, err := engine.Tick(ctx, t0)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, FileSlotKey, key)

	raw, err = store.Get(ctx, FileSlotKey)
	require.NoError(t, err)
	var fileSnap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &fileSnap))
	require.NotNil(t, fileSnap.Content)
	assert.Equal(t, "loose notes", *fileSnap.Content)
}

func seedSnapshot(t *testing.T, store storage.KeyValueStore, key string, snap Snapshot) {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), key, string(data)))
}

func abandoned(at time.Time) Snapshot {
	return Snapshot{
		Collection: &document.Collection{
			Title:    "Lost Story",
			Chapters: []document.Chapter{{ID: 1, Title: "Chapter 1", Content: "recover me"}},
			Modified: true,
		},
		Timestamp: at.UnixMilli(),
		Session:   "previous-run",
	}
}

func TestCheckHonoursRecoveryWindow(t *testing.T) {
	tests := []struct {
		name  string
		age   time.Duration
		offer bool
	}{
		{name: "59 minutes", age: 59 * time.Minute, offer: true},
		{name: "61 minutes", age: 61 * time.Minute, offer: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			seedSnapshot(t, store, CollectionSlotKey, abandoned(t0.Add(-tt.age)))
			engine := New(document.NewWorkspace(), store, Options{})

			offer, err := engine.Check(context.Background(), t0)
			require.NoError(t, err)
			assert.Equal(t, tt.offer, offer != nil)
		})
	}
}

func TestCheckRequiresEmptyDocument(t *testing.T) {
	store := storage.NewMemoryStore()
	seedSnapshot(t, store, CollectionSlotKey, abandoned(t0.Add(-time.Minute)))
	ws := document.NewWorkspace()
	ws.Edit("already typing")
	engine := New(ws, store, Options{})

	offer, err := engine.Check(context.Background(), t0)
	require.NoError(t, err)
	assert.Nil(t, offer)
}

func TestCheckIgnoresOwnSessionAndCorruptSlots(t *testing.T) {
	store := storage.NewMemoryStore()
	engine := New(document.NewWorkspace(), store, Options{})

	own := abandoned(t0.Add(-time.Minute))
	own.Session = engine.Session()
	seedSnapshot(t, store, CollectionSlotKey, own)
	offer, err := engine.Check(context.Background(), t0)
	require.NoError(t, err)
	assert.Nil(t, offer)

	require.NoError(t, store.Set(context.Background(), CollectionSlotKey, "{broken"))
	offer, err = engine.Check(context.Background(), t0)
	require.NoError(t, err)
	assert.Nil(t, offer)
}

func TestAcceptRestoresAndMarksModified(t *testing.T) {
	store := storage.NewMemoryStore()
	seedSnapshot(t, store, CollectionSlotKey, abandoned(t0.Add(-10*time.Minute)))
	ws := document.NewWorkspace()
	engine := New(ws, store, Options{})

	offer, err := engine.Check(context.Background(), t0)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, 10*time.Minute, offer.Age)

	engine.Accept(offer)
	state := ws.State()
	assert.Equal(t, "Lost Story", state.Title)
	assert.Equal(t, "recover me", state.Buffer)
	assert.True(t, state.Modified)

	require.NoError(t, engine.Discard(context.Background(), document.ModeCollection))
	_, err = store.Get(context.Background(), CollectionSlotKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileModeRecovery(t *testing.T) {
	store := storage.NewMemoryStore()
	content := "file draft"
	seedSnapshot(t, store, FileSlotKey, Snapshot{Content: &content, Timestamp: t0.Add(-time.Minute).UnixMilli()})
	ws := document.NewWorkspace()
	ws.NewFile()
	engine := New(ws, store, Options{})

	offer, err := engine.Check(context.Background(), t0)
	require.NoError(t, err)
	require.NotNil(t, offer)
	engine.Accept(offer)
	assert.Equal(t, "file draft", ws.Buffer())
	assert.True(t, ws.Modified())
}

func TestStartArmsTimer(t *testing.T) {
	store := newCountingStore()
	ws := document.NewWorkspace()
	ws.Edit("timer text")

	ticks := make(chan Event, 4)
	engine := New(ws, store, Options{
		Interval: time.Second,
		OnTick:   func(ev Event) { ticks <- ev },
	})
	assert.Equal(t, Idle, engine.State())
	require.NoError(t, engine.Start())
	require.NoError(t, engine.Start())
	assert.Equal(t, Armed, engine.State())

	select {
	case ev := <-ticks:
		require.NoError(t, ev.Err)
		assert.True(t, ev.Wrote)
	case <-time.After(5 * time.Second):
		t.Fatal("autosave timer never fired")
	}
	engine.Stop()
	assert.Equal(t, Idle, engine.State())
	assert.GreaterOrEqual(t, store.Writes(), 1)
}
