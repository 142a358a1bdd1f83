package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/blink/internal/document"
)

func openStores(t *testing.T) map[string]KeyValueStore {
	t.Helper()
	badgerStore, err := OpenBadgerStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = badgerStore.Close() })
	return map[string]KeyValueStore{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestKeyValueStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "theme")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "theme", "dark"))
			require.NoError(t, store.Set(ctx, "fontSize", "18"))
			require.NoError(t, store.Set(ctx, "theme", "light"))

			value, err := store.Get(ctx, "theme")
			require.NoError(t, err)
			assert.Equal(t, "light", value)

			keys, err := store.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"fontSize", "theme"}, keys)

			require.NoError(t, store.Delete(ctx, "theme"))
			require.NoError(t, store.Delete(ctx, "theme"))
			_, err = store.Get(ctx, "theme")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestInMemoryBadgerStore(t *testing.T) {
	store, err := OpenBadgerStore("", nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	value, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestKVAdapter(t *testing.T) {
	ctx := context.Background()
	adapter := NewKVAdapter(NewMemoryStore())

	loc, err := adapter.Write(ctx, Request{Location: "draft"}, []byte("text"))
	require.NoError(t, err)
	assert.Equal(t, Location("draft"), loc)

	data, _, err := adapter.Read(ctx, Request{Location: "draft"})
	require.NoError(t, err)
	assert.Equal(t, "text", string(data))

	_, _, err = adapter.Read(ctx, Request{Location: "missing"})
	assert.True(t, IsIO(err))

	_, err = adapter.Write(ctx, Request{}, []byte("x"))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = adapter.PickDirectory(ctx, "Export")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSavedCollectionsLastWriteWinsByTitle(t *testing.T) {
	ctx := context.Background()
	index := NewSavedCollections(NewMemoryStore())

	list, err := index.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first := document.Persisted{Title: "Demo", Chapters: []document.Chapter{{ID: 1, Title: "A", Content: "v1"}}}
	other := document.Persisted{Title: "Other Tale", Chapters: []document.Chapter{{ID: 1, Title: "B"}}}
	second := document.Persisted{Title: "Demo", Chapters: []document.Chapter{{ID: 1, Title: "A", Content: "v2"}}}
	require.NoError(t, index.Put(ctx, first))
	require.NoError(t, index.Put(ctx, other))
	require.NoError(t, index.Put(ctx, second))

	list, err = index.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Demo", list[0].Title)

	got, err := index.Get(ctx, "Demo")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Chapters[0].Content)

	byNumber, err := index.Find(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Other Tale", byNumber.Title)

	byName, err := index.Find(ctx, "tale")
	require.NoError(t, err)
	assert.Equal(t, "Other Tale", byName.Title)

	_, err = index.Find(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
