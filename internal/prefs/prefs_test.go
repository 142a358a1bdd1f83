package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/blink/internal/storage"
)

func TestFontSizeIsClamped(t *testing.T) {
	p := Default()
	for range 20 {
		p.IncreaseFont()
	}
	assert.Equal(t, MaxFontSize, p.FontSize)
	for range 20 {
		p.DecreaseFont()
	}
	assert.Equal(t, MinFontSize, p.FontSize)
	p.ResetFont()
	assert.Equal(t, DefaultFontSize, p.FontSize)
}

func TestToggles(t *testing.T) {
	p := Default()
	p.ToggleTheme()
	assert.True(t, p.Dark())
	p.ToggleTheme()
	assert.False(t, p.Dark())
	p.ToggleSidebar()
	assert.True(t, p.SidebarCollapsed)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	want := Preferences{Theme: Dark, FontSize: 22, SidebarCollapsed: true, CollectionMode: false}
	require.NoError(t, Save(ctx, store, want))

	theme, err := store.Get(ctx, ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	loaded, err = Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, ThemeKey, "purple"))
	require.NoError(t, store.Set(ctx, FontSizeKey, "huge"))
	require.NoError(t, store.Set(ctx, CollectionModeKey, "maybe"))

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	require.NoError(t, store.Set(ctx, FontSizeKey, "100"))
	loaded, err = Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, MaxFontSize, loaded.FontSize)
}
