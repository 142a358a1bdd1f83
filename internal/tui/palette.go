package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/document"
)

type paletteCommand struct {
	title       string
	shortcut    string
	description string
	collection  bool
	run         func(m *model) tea.Cmd
}

func newPaletteCommands() []paletteCommand {
	return []paletteCommand{
		{title: "New collection", shortcut: "Ctrl+N", description: "Start an empty collection", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindDocument, (*app.Controller).NewCollection)
		}},
		{title: "Open collection", shortcut: "Ctrl+O", description: "Load a collection file", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindOpen, openCollection)
		}},
		{title: "Save", shortcut: "Ctrl+S", description: "Save the collection or file", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindSave, (*app.Controller).SaveFile)
		}},
		{title: "Export collection", shortcut: "Ctrl+E", description: "Write numbered chapter files to a folder", collection: true, run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindExport, exportCollection)
		}},
		{title: "New file", shortcut: "", description: "Edit a single plain-text file", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindDocument, (*app.Controller).NewFile)
		}},
		{title: "Open file", shortcut: "", description: "Open a text, markdown or pdf file", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindOpen, openFile)
		}},
		{title: "Save file as", shortcut: "", description: "Save the text under a new name", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindSave, (*app.Controller).SaveFileAs)
		}},
		{title: "Switch mode", shortcut: "", description: "Toggle between the collection and the single file", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindDocument, toggleMode)
		}},
		{title: "Add chapter", shortcut: "Ctrl+T", description: "Append a chapter and switch to it", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindChapter, (*app.Controller).AddChapter)
		}},
		{title: "Rename chapter", shortcut: "r", description: "Retitle the active chapter", collection: true, run: func(m *model) tea.Cmd {
			return m.promptRenameChapter()
		}},
		{title: "Rename collection", shortcut: "", description: "Retitle the collection", collection: true, run: func(m *model) tea.Cmd {
			return m.promptRenameCollection()
		}},
		{title: "Delete chapter", shortcut: "d", description: "Remove the active chapter", collection: true, run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindChapter, deleteChapter(m.state.Document.CurrentIndex))
		}},
		{title: "Toggle dark mode", shortcut: "", description: "Switch between light and dark", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindPrefs, (*app.Controller).ToggleDarkMode)
		}},
		{title: "Increase font size", shortcut: "Ctrl+↑", description: "Larger text in the browser host", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindPrefs, (*app.Controller).IncreaseFont)
		}},
		{title: "Decrease font size", shortcut: "Ctrl+↓", description: "Smaller text in the browser host", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindPrefs, (*app.Controller).DecreaseFont)
		}},
		{title: "Reset font size", shortcut: "", description: "Back to the default size", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindPrefs, (*app.Controller).ResetFont)
		}},
		{title: "Toggle sidebar", shortcut: "Ctrl+B", description: "Show or hide the chapter list", run: func(m *model) tea.Cmd {
			return m.startCommand(jobKindPrefs, (*app.Controller).ToggleSidebar)
		}},
		{title: "Quit", shortcut: "Ctrl+Q", description: "Leave blink", run: func(m *model) tea.Cmd {
			return m.requestQuit()
		}},
	}
}

func (m *model) commandAvailable(cmd paletteCommand) bool {
	return !cmd.collection || m.state.Document.Mode == document.ModeCollection
}

func (m *model) filterPalette(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	m.paletteMatches = m.paletteMatches[:0]
	for _, cmd := range m.commands {
		if !m.commandAvailable(cmd) {
			continue
		}
		if query == "" || strings.Contains(strings.ToLower(cmd.title), query) || strings.Contains(strings.ToLower(cmd.description), query) {
			m.paletteMatches = append(m.paletteMatches, cmd)
		}
	}
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = max(0, len(m.paletteMatches)-1)
	}
}

func (m *model) openPalette() tea.Cmd {
	m.stage = stagePalette
	m.paletteInput.SetValue("")
	m.paletteCursor = 0
	m.filterPalette("")
	m.editor.Blur()
	return m.paletteInput.Focus()
}

func (m *model) closePalette() tea.Cmd {
	m.stage = stageEdit
	m.paletteInput.Blur()
	return m.focusEditor()
}

func (m *model) handlePaletteKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		return m, m.closePalette()
	case tea.KeyUp:
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return m, nil
	case tea.KeyEnter:
		if len(m.paletteMatches) == 0 {
			return m, nil
		}
		selected := m.paletteMatches[m.paletteCursor]
		focus := m.closePalette()
		return m, tea.Batch(focus, selected.run(m))
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	m.filterPalette(m.paletteInput.Value())
	return m, cmd
}
