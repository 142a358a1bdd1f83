package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedFilesRoundTripThroughKVAdapter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "theme", "dark"))
	files := NewSavedFiles(store)
	adapter := NewKVAdapter(store)

	loc, err := files.Location("notes")
	require.NoError(t, err)
	assert.Equal(t, Location("files/notes.txt"), loc)

	_, err = adapter.Write(ctx, Request{Location: loc}, []byte("draft"))
	require.NoError(t, err)
	data, _, err := adapter.Read(ctx, Request{Location: loc})
	require.NoError(t, err)
	assert.Equal(t, "draft", string(data))

	names, err := files.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, names)

	found, err := files.Exists(ctx, loc)
	require.NoError(t, err)
	assert.True(t, found)
	missing, _ := files.Location("other.md")
	found, err = files.Exists(ctx, missing)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSavedFilesRejectsUnsafeNames(t *testing.T) {
	files := NewSavedFiles(NewMemoryStore())
	for _, name := range []string{"", "  ", "..", "a/b", `a\b`, "paper.pdf"} {
		_, err := files.Location(name)
		assert.Error(t, err, "name %q", name)
	}
}
