package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/blink/internal/prefs"
)

type styles struct {
	header        lipgloss.Style
	badge         lipgloss.Style
	sidebar       lipgloss.Style
	sidebarTitle  lipgloss.Style
	sidebarItem   lipgloss.Style
	sidebarActive lipgloss.Style
	editor        lipgloss.Style
	editorFocused lipgloss.Style
	status        lipgloss.Style
	helper        lipgloss.Style
	errorText     lipgloss.Style
	okText        lipgloss.Style
	promptTitle   lipgloss.Style
	paletteBox    lipgloss.Style
	currentLine   lipgloss.Style
}

type colorSet struct {
	accent     lipgloss.Color
	text       lipgloss.Color
	muted      lipgloss.Color
	surface    lipgloss.Color
	border     lipgloss.Color
	statusText lipgloss.Color
	statusBg   lipgloss.Color
	errorColor lipgloss.Color
	okColor    lipgloss.Color
}

var (
	lightColors = colorSet{
		accent:     lipgloss.Color("#7f5af0"),
		text:       lipgloss.Color("#1f1d2e"),
		muted:      lipgloss.Color("244"),
		surface:    lipgloss.Color("#f4f1fb"),
		border:     lipgloss.Color("#c8c2e0"),
		statusText: lipgloss.Color("#0f0f0f"),
		statusBg:   lipgloss.Color("#8ecae6"),
		errorColor: lipgloss.Color("9"),
		okColor:    lipgloss.Color("#2d6a4f"),
	}
	darkColors = colorSet{
		accent:     lipgloss.Color("#ff8c00"),
		text:       lipgloss.Color("#fff4d0"),
		muted:      lipgloss.Color("245"),
		surface:    lipgloss.Color("#2b1400"),
		border:     lipgloss.Color("#56526e"),
		statusText: lipgloss.Color("#0f0f0f"),
		statusBg:   lipgloss.Color("#ffb347"),
		errorColor: lipgloss.Color("#ff6b6b"),
		okColor:    lipgloss.Color("#a3be8c"),
	}
)

func themeStyles(theme prefs.Theme) styles {
	p := lightColors
	if theme == prefs.Dark {
		p = darkColors
	}
	return styles{
		header:        lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		badge:         lipgloss.NewStyle().Foreground(p.statusText).Background(p.accent).Padding(0, 1),
		sidebar:       lipgloss.NewStyle().Foreground(p.text).Background(p.surface).Padding(0, 1),
		sidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(p.accent).Background(p.surface),
		sidebarItem:   lipgloss.NewStyle().Foreground(p.text).Background(p.surface),
		sidebarActive: lipgloss.NewStyle().Bold(true).Foreground(p.accent).Background(p.surface),
		editor:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border),
		editorFocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.accent),
		status:        lipgloss.NewStyle().Foreground(p.statusText).Background(p.statusBg).Padding(0, 1),
		helper:        lipgloss.NewStyle().Foreground(p.muted),
		errorText:     lipgloss.NewStyle().Foreground(p.errorColor),
		okText:        lipgloss.NewStyle().Foreground(p.okColor),
		promptTitle:   lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		paletteBox:    lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(p.accent).Padding(1, 2),
		currentLine:   lipgloss.NewStyle().Foreground(p.statusText).Background(p.statusBg),
	}
}
