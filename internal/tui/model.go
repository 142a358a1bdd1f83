package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/autosave"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller *app.Controller
	Prompter   *Prompter
	// Autosave delivers timer ticks from the autosave engine.
	Autosave <-chan autosave.Event
	// OpenPath is loaded at startup instead of running the recovery check.
	OpenPath string
	Logger   *log.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Prompter == nil {
		config.Prompter = NewPrompter()
	}
	logger := logging.Component(config.Logger, "tui")

	editor := textarea.New()
	editor.Placeholder = editorPlaceholder
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Focus()

	promptInput := textinput.New()
	promptInput.CharLimit = 400
	promptInput.Width = 60

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Type to filter commands…"
	paletteInput.CharLimit = 80
	paletteInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &model{
		config:       config,
		ctrl:         config.Controller,
		logger:       logger,
		jobs:         newJobBus(logger),
		running:      map[string]jobSnapshot{},
		stage:        stageEdit,
		focus:        focusEditor,
		editor:       editor,
		promptInput:  promptInput,
		paletteInput: paletteInput,
		spinner:      spin,
		layout:       newPageLayout(),
		commands:     newPaletteCommands(),
	}
	m.refresh()
	return m
}

type model struct {
	config Config
	ctrl   *app.Controller
	logger *log.Logger

	jobs    *jobBus
	running map[string]jobSnapshot

	stage  stage
	focus  focusArea
	styles styles
	layout pageLayout

	editor       textarea.Model
	promptInput  textinput.Model
	paletteInput textinput.Model
	spinner      spinner.Model

	state         app.State
	notice        app.Notice
	sidebarCursor int
	lastAutosave  autosave.Event

	prompt      *activePrompt
	promptQueue []promptRequest
	pendingKeys []tea.KeyMsg

	commands       []paletteCommand
	paletteMatches []paletteCommand
	paletteCursor  int
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.config.Prompter.wait(), waitForAutosave(m.config.Autosave)}
	if m.config.OpenPath != "" {
		cmds = append(cmds, m.startCommand(jobKindOpen, openPath(m.config.OpenPath)))
	} else {
		cmds = append(cmds, m.jobs.Start(jobKindRecovery, recoveryJob(m.ctrl)))
	}
	return tea.Batch(cmds...)
}

// refresh re-reads the controller state after a command and reloads the
// editor when the active text changed underneath it.
func (m *model) refresh() {
	m.state = m.ctrl.State()
	m.styles = themeStyles(m.state.Prefs.Theme)
	if buffer := m.state.Document.Buffer; m.editor.Value() != buffer {
		m.editor.SetValue(buffer)
	}
	if m.focus != focusSidebar || m.sidebarCursor >= len(m.state.Document.Chapters) {
		m.sidebarCursor = m.state.Document.CurrentIndex
	}
	if !m.sidebarVisible() && m.focus == focusSidebar {
		m.focus = focusEditor
	}
	m.resize()
}

func (m *model) busy() bool {
	return len(m.running) > 0
}

func (m *model) startCommand(kind jobKind, run command) tea.Cmd {
	return m.jobs.Start(kind, controllerJob(m.ctrl, run))
}

func (m *model) focusEditor() tea.Cmd {
	m.focus = focusEditor
	return m.editor.Focus()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.windowWidth = msg.Width
		m.layout.windowHeight = msg.Height
		m.resize()
		return m, nil
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, m.spinner.Tick
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		var cmd tea.Cmd
		if msg.Payload != nil {
			_, cmd = m.Update(msg.Payload)
		}
		return m, tea.Batch(cmd, m.replayKeys())
	case noticeMsg:
		m.setNotice(msg.notice)
		m.refresh()
		return m, nil
	case recoveryMsg:
		if msg.err != nil {
			m.setNotice(app.Classify(msg.err))
		} else if msg.restored {
			m.setNotice(app.Notice{Kind: app.NoticeOK, Message: "Recovered unsaved work. Save to keep it."})
		}
		m.refresh()
		return m, nil
	case autosaveMsg:
		m.lastAutosave = msg.event
		if msg.event.Err != nil {
			m.setNotice(app.Notice{Kind: app.NoticeIO, Message: "Autosave failed: " + msg.event.Err.Error()})
		}
		return m, waitForAutosave(m.config.Autosave)
	case promptRequestMsg:
		var cmd tea.Cmd
		if m.prompt != nil {
			m.promptQueue = append(m.promptQueue, msg.request)
		} else {
			cmd = m.showRequest(msg.request)
		}
		return m, tea.Batch(cmd, m.config.Prompter.wait())
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) setNotice(n app.Notice) {
	if n.Kind == app.NoticeCancelled {
		m.notice = app.Notice{}
		return
	}
	m.notice = n
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stagePrompt:
		return m.handlePromptKey(key)
	case stagePalette:
		return m.handlePaletteKey(key)
	}

	switch key.String() {
	case "ctrl+c", "ctrl+q":
		return m, m.requestQuit()
	}
	if m.busy() {
		// one command at a time; input waits for the running one
		if len(m.pendingKeys) >= maxPendingKeys {
			m.notice = app.Notice{Kind: app.NoticeIO, Message: "Still busy, input dropped"}
			return m, nil
		}
		m.pendingKeys = append(m.pendingKeys, key)
		return m, nil
	}
	switch key.String() {
	case "ctrl+k":
		return m, m.openPalette()
	case "ctrl+s":
		return m, m.startCommand(jobKindSave, (*app.Controller).SaveFile)
	case "ctrl+o":
		return m, m.startCommand(jobKindOpen, openCollection)
	case "ctrl+n":
		return m, m.startCommand(jobKindDocument, (*app.Controller).NewCollection)
	case "ctrl+e":
		if m.state.Document.Mode == document.ModeCollection {
			return m, m.startCommand(jobKindExport, exportCollection)
		}
		return m, nil
	case "ctrl+t":
		return m, m.startCommand(jobKindChapter, (*app.Controller).AddChapter)
	case "ctrl+b":
		return m, m.startCommand(jobKindPrefs, (*app.Controller).ToggleSidebar)
	case "ctrl+up":
		return m, m.startCommand(jobKindPrefs, (*app.Controller).IncreaseFont)
	case "ctrl+down":
		return m, m.startCommand(jobKindPrefs, (*app.Controller).DecreaseFont)
	case "tab":
		if m.sidebarVisible() {
			if m.focus == focusSidebar {
				return m, m.focusEditor()
			}
			m.focus = focusSidebar
			m.sidebarCursor = m.state.Document.CurrentIndex
			m.editor.Blur()
			return m, nil
		}
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(key)
	}
	return m.handleEditorKey(key)
}

// replayKeys feeds input held back while a job ran. A replayed key that
// starts another job queues the rest again.
func (m *model) replayKeys() tea.Cmd {
	if m.busy() || m.stage != stageEdit || len(m.pendingKeys) == 0 {
		return nil
	}
	pending := m.pendingKeys
	m.pendingKeys = nil
	cmds := make([]tea.Cmd, 0, len(pending))
	for _, key := range pending {
		_, cmd := m.handleKey(key)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *model) handleEditorKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(key)
	if value := m.editor.Value(); value != m.state.Document.Buffer {
		m.ctrl.Edit(value)
		m.state = m.ctrl.State()
		m.notice = app.Notice{}
	}
	return m, cmd
}

func (m *model) handleSidebarKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.state.Document.Chapters)
	switch key.String() {
	case "esc":
		return m, m.focusEditor()
	case "up", "k":
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case "down", "j":
		if m.sidebarCursor < count-1 {
			m.sidebarCursor++
		}
	case "enter":
		index := m.sidebarCursor
		focus := m.focusEditor()
		return m, tea.Batch(focus, m.startCommand(jobKindChapter, selectChapter(index)))
	case "a":
		return m, m.startCommand(jobKindChapter, (*app.Controller).AddChapter)
	case "d", "delete":
		return m, m.startCommand(jobKindChapter, deleteChapter(m.sidebarCursor))
	case "r":
		return m, m.promptRenameChapter()
	}
	return m, nil
}

func (m *model) requestQuit() tea.Cmd {
	if !m.state.Document.Modified {
		return tea.Quit
	}
	return m.openPrompt(activePrompt{
		kind:   promptConfirm,
		title:  "Quit without saving?",
		submit: func(string) tea.Cmd { return tea.Quit },
	}, "", "")
}

func (m *model) promptRenameChapter() tea.Cmd {
	return m.openPrompt(activePrompt{
		kind:  promptText,
		title: "Chapter title",
		submit: func(value string) tea.Cmd {
			return m.startCommand(jobKindChapter, renameChapter(value))
		},
	}, "Chapter title", m.state.Document.ChapterTitle)
}

func (m *model) promptRenameCollection() tea.Cmd {
	return m.openPrompt(activePrompt{
		kind:  promptText,
		title: "Collection title",
		submit: func(value string) tea.Cmd {
			return m.startCommand(jobKindDocument, renameCollection(value))
		},
	}, "Collection title", m.state.Document.Title)
}

func (m *model) showRequest(req promptRequest) tea.Cmd {
	return m.openPrompt(activePrompt{kind: req.kind, title: req.title, reply: req.reply}, req.placeholder, "")
}

func (m *model) openPrompt(p activePrompt, placeholder, value string) tea.Cmd {
	m.prompt = &p
	m.stage = stagePrompt
	m.editor.Blur()
	m.paletteInput.Blur()
	m.promptInput.Placeholder = placeholder
	if p.kind == promptConfirm {
		m.promptInput.Placeholder = "y / n"
	}
	m.promptInput.SetValue(value)
	m.promptInput.CursorEnd()
	return m.promptInput.Focus()
}

func (m *model) closePrompt(value string, err error) tea.Cmd {
	p := m.prompt
	m.prompt = nil
	m.promptInput.Blur()
	m.promptInput.SetValue("")
	m.stage = stageEdit
	var cmds []tea.Cmd
	if p != nil {
		cmds = append(cmds, p.answer(value, err))
	}
	if len(m.promptQueue) > 0 {
		next := m.promptQueue[0]
		m.promptQueue = m.promptQueue[1:]
		cmds = append(cmds, m.showRequest(next))
	} else if m.focus == focusEditor {
		cmds = append(cmds, m.editor.Focus())
	}
	cmds = append(cmds, m.replayKeys())
	return tea.Batch(cmds...)
}

func (m *model) handlePromptKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, tea.Batch(m.closePrompt("", storage.ErrCancelled), tea.Quit)
	}
	if key.Type == tea.KeyEsc {
		return m, m.closePrompt("", storage.ErrCancelled)
	}
	if m.prompt.kind == promptConfirm {
		switch key.String() {
		case "y", "Y":
			return m, m.closePrompt("y", nil)
		case "n", "N", "enter":
			return m, m.closePrompt("", storage.ErrCancelled)
		}
		return m, nil
	}
	if key.Type == tea.KeyEnter {
		value := m.promptInput.Value()
		if value == "" {
			return m, m.closePrompt("", storage.ErrCancelled)
		}
		return m, m.closePrompt(value, nil)
	}
	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(key)
	return m, cmd
}

func (m *model) jobStatusLabel() string {
	if !m.busy() {
		return ""
	}
	var kind jobKind
	for _, job := range m.running {
		kind = job.Kind
	}
	return fmt.Sprintf("%s %s…", m.spinner.View(), kind)
}
