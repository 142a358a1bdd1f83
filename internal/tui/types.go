package tui

type stage int

const (
	stageEdit stage = iota
	stagePrompt
	stagePalette
)

type focusArea int

const (
	focusEditor focusArea = iota
	focusSidebar
)

const (
	minEditorWidth  = 20
	minEditorHeight = 3
	sidebarWidth    = 28
	// header, notice or prompt line, status bar and the editor border
	chromeHeight = 5
	// keys held while a job runs
	maxPendingKeys = 256
)

const (
	editorPlaceholder  = "Start writing…"
	idleHint           = "Ctrl+K commands • Ctrl+S save • Tab chapters • Ctrl+Q quit"
	collectionUntitled = "Untitled collection"
)
