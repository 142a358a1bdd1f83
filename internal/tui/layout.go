package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/blink/internal/document"
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	sidebarWidth int
	editorWidth  int
	editorHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		sidebarWidth: sidebarWidth,
		editorWidth:  80,
		editorHeight: 20,
	}
}

// Update splits the window between the chapter list and the editor.
func (l *pageLayout) Update(width, height int, sidebar bool) {
	l.windowWidth = width
	l.windowHeight = height
	l.sidebarWidth = 0
	if sidebar {
		l.sidebarWidth = sidebarWidth
	}
	// the editor box draws a one-cell border on each side
	l.editorWidth = max(width-l.sidebarWidth-2, minEditorWidth)
	l.editorHeight = max(height-chromeHeight, minEditorHeight)
}

func (m *model) sidebarVisible() bool {
	return m.state.Document.Mode == document.ModeCollection && !m.state.Prefs.SidebarCollapsed
}

func (m *model) resize() {
	m.layout.Update(m.layout.windowWidth, m.layout.windowHeight, m.sidebarVisible())
	m.editor.SetWidth(m.layout.editorWidth)
	m.editor.SetHeight(m.layout.editorHeight)
	m.promptInput.Width = max(m.layout.windowWidth/2, 20)
	m.paletteInput.Width = max(m.layout.windowWidth/2, 20)
}

func (m *model) sidebarView() string {
	doc := m.state.Document
	width := m.layout.sidebarWidth - 2
	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = collectionUntitled
	}
	lines := []string{m.styles.sidebarTitle.Render(wordwrap.String(title, width)), ""}
	for i, ch := range doc.Chapters {
		label := truncate.StringWithTail(fmt.Sprintf("%d. %s", i+1, ch.Title), uint(width-2), "…")
		marker := "  "
		if m.focus == focusSidebar && i == m.sidebarCursor {
			marker = "▸ "
		}
		style := m.styles.sidebarItem
		if i == doc.CurrentIndex {
			style = m.styles.sidebarActive
		}
		lines = append(lines, style.Render(marker+label))
	}
	if m.focus == focusSidebar {
		lines = append(lines, "", m.styles.helper.Render(wordwrap.String("↵ open • a add • r rename • d delete • Tab back", width)))
	}
	return m.styles.sidebar.
		Width(m.layout.sidebarWidth - 1).
		Height(m.layout.editorHeight + 2).
		Render(strings.Join(lines, "\n"))
}
