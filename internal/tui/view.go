package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/document"
)

func (m *model) View() string {
	if m.stage == stagePalette {
		return strings.Join([]string{m.headerView(), m.paletteView(), m.statusView()}, "\n")
	}
	return strings.Join([]string{m.headerView(), m.bodyView(), m.messageLine(), m.statusView()}, "\n")
}

func (m *model) headerView() string {
	doc := m.state.Document
	var name string
	if doc.Mode == document.ModeCollection {
		name = doc.Title
		if strings.TrimSpace(name) == "" {
			name = collectionUntitled
		}
		if doc.ChapterTitle != "" {
			name += " › " + doc.ChapterTitle
		}
	} else {
		name = doc.FileName
	}
	badge := m.styles.badge.Render(doc.Mode.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, badge, " ", m.styles.header.Render(name))
}

func (m *model) bodyView() string {
	box := m.styles.editor
	if m.focus == focusEditor && m.stage == stageEdit {
		box = m.styles.editorFocused
	}
	editor := box.Render(m.editor.View())
	if !m.sidebarVisible() {
		return editor
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), editor)
}

func (m *model) messageLine() string {
	if m.stage == stagePrompt && m.prompt != nil {
		title := m.styles.promptTitle.Render(m.prompt.title)
		hint := m.styles.helper.Render("  Enter to confirm, Esc to cancel")
		if m.prompt.kind == promptConfirm {
			hint = m.styles.helper.Render("  y / n")
		}
		return title + " " + m.promptInput.View() + hint
	}
	width := max(m.layout.windowWidth, minEditorWidth)
	switch {
	case m.notice.Failed():
		return m.styles.errorText.Render(truncate.StringWithTail(firstLine(wordwrap.String(m.notice.Message, width)), uint(width), "…"))
	case m.notice.Kind == app.NoticeOK && m.notice.Message != "":
		return m.styles.okText.Render(truncate.StringWithTail(m.notice.Message, uint(width), "…"))
	}
	return m.styles.helper.Render(idleHint)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func (m *model) statusView() string {
	doc := m.state.Document
	name := doc.FileName
	if doc.Mode == document.ModeCollection {
		name = fmt.Sprintf("Ch %d/%d", doc.CurrentIndex+1, doc.ChapterCount)
	}
	saved := "Saved"
	if doc.Modified {
		saved = "● Modified"
	}
	info := m.editor.LineInfo()
	parts := []string{
		name,
		saved,
		fmt.Sprintf("Words %d", doc.DocumentStats.Words),
		fmt.Sprintf("Chars %d", doc.DocumentStats.Characters),
		fmt.Sprintf("Ln %d, Col %d", m.editor.Line()+1, info.StartColumn+info.ColumnOffset+1),
		fmt.Sprintf("%dpx", m.state.Prefs.FontSize),
	}
	if !m.lastAutosave.At.IsZero() && m.lastAutosave.Wrote {
		parts = append(parts, "Autosaved "+m.lastAutosave.At.Format("15:04:05"))
	}
	if label := m.jobStatusLabel(); label != "" {
		parts = append(parts, label)
	}
	return m.styles.status.Render(strings.Join(parts, "  •  "))
}

func (m *model) paletteView() string {
	var b strings.Builder
	b.WriteString(m.styles.promptTitle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(m.styles.helper.Render("Enter to run, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(m.styles.helper.Render("No commands match this filter."))
	} else {
		for idx, cmd := range m.paletteMatches {
			label := "  " + cmd.title
			if cmd.shortcut != "" {
				label += "  [" + cmd.shortcut + "]"
			}
			if idx == m.paletteCursor {
				label = m.styles.currentLine.Render("▸ " + strings.TrimPrefix(label, "  "))
			}
			b.WriteString(label)
			b.WriteRune('\n')
			b.WriteString(m.styles.helper.Render("   " + cmd.description))
			b.WriteRune('\n')
		}
	}
	return m.styles.paletteBox.Render(strings.TrimRight(b.String(), "\n"))
}
