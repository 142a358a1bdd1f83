package prefs

import (
	"context"
	"errors"
	"strconv"

	"github.com/csheth/blink/internal/storage"
)

// Theme is the editor colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const (
	DefaultFontSize = 16
	MinFontSize     = 8
	MaxFontSize     = 32
	FontStep        = 2
)

// Store keys.
const (
	ThemeKey          = "theme"
	FontSizeKey       = "fontSize"
	CollectionModeKey = "isCollectionMode"
	SidebarKey        = "sidebarCollapsed"
)

// Preferences is the persisted UI chrome state.
type Preferences struct {
	Theme            Theme `json:"theme"`
	FontSize         int   `json:"fontSize"`
	SidebarCollapsed bool  `json:"sidebarCollapsed"`
	CollectionMode   bool  `json:"isCollectionMode"`
}

func Default() Preferences {
	return Preferences{Theme: Light, FontSize: DefaultFontSize, CollectionMode: true}
}

func (p Preferences) Dark() bool { return p.Theme == Dark }

func (p *Preferences) ToggleTheme() {
	if p.Theme == Dark {
		p.Theme = Light
	} else {
		p.Theme = Dark
	}
}

func (p *Preferences) IncreaseFont() { p.FontSize = clampFont(p.FontSize + FontStep) }
func (p *Preferences) DecreaseFont() { p.FontSize = clampFont(p.FontSize - FontStep) }
func (p *Preferences) ResetFont()    { p.FontSize = DefaultFontSize }

func (p *Preferences) ToggleSidebar() { p.SidebarCollapsed = !p.SidebarCollapsed }

func clampFont(size int) int {
	return min(max(size, MinFontSize), MaxFontSize)
}

// Load reads preferences from store. Missing or malformed values keep their
// defaults.
func Load(ctx context.Context, store storage.KeyValueStore) (Preferences, error) {
	p := Default()
	get := func(key string) (string, bool, error) {
		v, err := store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}

	if v, ok, err := get(ThemeKey); err != nil {
		return p, err
	} else if ok && (Theme(v) == Light || Theme(v) == Dark) {
		p.Theme = Theme(v)
	}
	if v, ok, err := get(FontSizeKey); err != nil {
		return p, err
	} else if ok {
		if n, convErr := strconv.Atoi(v); convErr == nil {
			p.FontSize = clampFont(n)
		}
	}
	if v, ok, err := get(CollectionModeKey); err != nil {
		return p, err
	} else if ok {
		if b, convErr := strconv.ParseBool(v); convErr == nil {
			p.CollectionMode = b
		}
	}
	if v, ok, err := get(SidebarKey); err != nil {
		return p, err
	} else if ok {
		if b, convErr := strconv.ParseBool(v); convErr == nil {
			p.SidebarCollapsed = b
		}
	}
	return p, nil
}

// Save writes every preference to store.
func Save(ctx context.Context, store storage.KeyValueStore, p Preferences) error {
	values := []struct{ key, value string }{
		{ThemeKey, string(p.Theme)},
		{FontSizeKey, strconv.Itoa(p.FontSize)},
		{CollectionModeKey, strconv.FormatBool(p.CollectionMode)},
		{SidebarKey, strconv.FormatBool(p.SidebarCollapsed)},
	}
	for _, kv := range values {
		if err := store.Set(ctx, kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}
