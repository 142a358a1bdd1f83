package document

import (
	"path/filepath"
	"sync"
	"time"
)

// Mode selects which document is active.
type Mode int

const (
	ModeCollection Mode = iota
	ModeSingleFile
)

func (m Mode) String() string {
	if m == ModeSingleFile {
		return "file"
	}
	return "collection"
}

// SingleFile is the active document outside collection mode.
type SingleFile struct {
	Path     string `json:"path,omitempty"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Modified bool   `json:"modified"`
}

const untitledName = "Untitled"

// NewSingleFile returns an empty untitled file.
func NewSingleFile() *SingleFile {
	return &SingleFile{Name: untitledName}
}

// Workspace owns the active document and the host's edit buffer. Hosts may
// call it from several goroutines (the autosave timer runs on its own), so
// every method serialises on one mutex.
type Workspace struct {
	mu         sync.Mutex
	mode       Mode
	collection *Collection
	file       *SingleFile
	buffer     string
}

// NewWorkspace starts in collection mode with a fresh collection.
func NewWorkspace() *Workspace {
	return &Workspace{
		mode:       ModeCollection,
		collection: NewCollection(),
		file:       NewSingleFile(),
	}
}

// Snapshot is a read-only view of the workspace used for rendering.
type Snapshot struct {
	Mode          Mode
	Title         string
	Chapters      []Chapter
	CurrentIndex  int
	ChapterTitle  string
	FileName      string
	Path          string
	Buffer        string
	Modified      bool
	SavedAt       time.Time
	ChapterCount  int
	DocumentStats Stats
}

// State captures the workspace for a view.
func (w *Workspace) State() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		Mode:          w.mode,
		Buffer:        w.buffer,
		DocumentStats: Count(w.buffer),
		FileName:      w.file.Name,
	}
	if w.mode == ModeCollection {
		c := w.collection
		s.Title = c.Title
		s.Chapters = append([]Chapter(nil), c.Chapters...)
		s.CurrentIndex = c.CurrentChapterIndex
		if current := c.Current(); current != nil {
			s.ChapterTitle = current.Title
		}
		s.Path = c.Path
		s.Modified = c.Modified
		s.SavedAt = c.SavedAt
		s.ChapterCount = len(c.Chapters)
		return s
	}
	s.Title = w.file.Name
	s.Path = w.file.Path
	s.Modified = w.file.Modified
	return s
}

// Mode reports the active mode.
func (w *Workspace) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Modified reports unsaved changes in the active document.
func (w *Workspace) Modified() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modifiedLocked()
}

func (w *Workspace) modifiedLocked() bool {
	if w.mode == ModeCollection {
		return w.collection.Modified
	}
	return w.file.Modified
}

// IsEmpty reports whether the active document is both unmodified and
// without any text.
func (w *Workspace) IsEmpty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modifiedLocked() || w.buffer != "" {
		return false
	}
	if w.mode == ModeCollection {
		return w.collection.IsBlank()
	}
	return w.file.Content == ""
}

// Buffer returns the in-progress edit text.
func (w *Workspace) Buffer() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

// Edit replaces the edit buffer. The text reaches the active chapter or file
// when the buffer is flushed.
func (w *Workspace) Edit(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if text == w.buffer {
		return
	}
	w.buffer = text
	if w.mode == ModeCollection {
		w.collection.Modified = true
		return
	}
	w.file.Modified = true
}

func (w *Workspace) flushLocked() {
	if w.mode == ModeCollection {
		if current := w.collection.Current(); current != nil {
			current.Content = w.buffer
		}
		return
	}
	w.file.Content = w.buffer
}

func (w *Workspace) loadBufferLocked() {
	if w.mode == ModeCollection {
		w.buffer = ""
		if current := w.collection.Current(); current != nil {
			w.buffer = current.Content
		}
		return
	}
	w.buffer = w.file.Content
}

// Flush writes the edit buffer into the active chapter or file.
func (w *Workspace) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

// Collection flushes the buffer and returns a copy of the collection.
func (w *Workspace) Collection() *Collection {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == ModeCollection {
		w.flushLocked()
	}
	return w.collection.Clone()
}

// File flushes the buffer and returns a copy of the single file.
func (w *Workspace) File() SingleFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == ModeSingleFile {
		w.flushLocked()
	}
	return *w.file
}

// NewCollection replaces the collection and enters collection mode.
func (w *Workspace) NewCollection() {
	w.ReplaceCollection(NewCollection())
}

// ReplaceCollection installs c wholesale, as done when a collection is
// opened.
func (w *Workspace) ReplaceCollection(c *Collection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(c.Chapters) == 0 {
		c.Chapters = []Chapter{defaultChapter(1)}
	}
	if c.CurrentChapterIndex < 0 || c.CurrentChapterIndex >= len(c.Chapters) {
		c.CurrentChapterIndex = 0
	}
	w.mode = ModeCollection
	w.collection = c
	w.loadBufferLocked()
}

// AddChapter appends a chapter and returns its index.
func (w *Workspace) AddChapter() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeCollection {
		return 0, ErrWrongMode
	}
	return w.collection.AddChapter(), nil
}

// SwitchToChapter flushes the edit buffer into the active chapter before
// moving to index and loading its text.
func (w *Workspace) SwitchToChapter(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeCollection {
		return ErrWrongMode
	}
	if err := w.collection.SwitchToChapter(index, w.buffer); err != nil {
		return err
	}
	w.loadBufferLocked()
	return nil
}

// DeleteChapter removes a chapter, keeping unsaved edits of the chapter that
// stays active.
func (w *Workspace) DeleteChapter(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeCollection {
		return ErrWrongMode
	}
	w.flushLocked()
	if err := w.collection.DeleteChapter(index); err != nil {
		return err
	}
	w.loadBufferLocked()
	return nil
}

// Chapter returns a copy of the chapter at index.
func (w *Workspace) Chapter(index int) (Chapter, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.collection.Chapters) {
		return Chapter{}, false
	}
	return w.collection.Chapters[index], true
}

// RenameChapter retitles the active chapter.
func (w *Workspace) RenameChapter(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeCollection {
		return ErrWrongMode
	}
	w.collection.RenameChapter(title)
	return nil
}

// RenameCollection retitles the collection.
func (w *Workspace) RenameCollection(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeCollection {
		return ErrWrongMode
	}
	w.collection.RenameCollection(title)
	return nil
}

// MarkCollectionSaved clears the modified flag after an explicit save.
func (w *Workspace) MarkCollectionSaved(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.collection.MarkSaved(path, at)
}

// NewFile enters single-file mode with an empty document.
func (w *Workspace) NewFile() {
	w.OpenFile("", untitledName, "")
}

// OpenFile enters single-file mode with the given content.
func (w *Workspace) OpenFile(path, name, content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if name == "" {
		name = untitledName
		if path != "" {
			name = filepath.Base(path)
		}
	}
	w.mode = ModeSingleFile
	w.file = &SingleFile{Path: path, Name: name, Content: content}
	w.loadBufferLocked()
}

// MarkFileSaved records a successful save of the single file.
func (w *Workspace) MarkFileSaved(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.file.Path = path
	w.file.Name = filepath.Base(path)
	w.file.Modified = false
}

// EnterCollectionMode switches back to the current collection without
// replacing it.
func (w *Workspace) EnterCollectionMode() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == ModeCollection {
		return
	}
	w.flushLocked()
	w.mode = ModeCollection
	w.loadBufferLocked()
}

// EnterFileMode switches to the current single file without replacing it.
func (w *Workspace) EnterFileMode() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == ModeSingleFile {
		return
	}
	w.flushLocked()
	w.mode = ModeSingleFile
	w.loadBufferLocked()
}

// RestoreCollection installs a recovered collection and marks it modified so
// the user still has to save it explicitly.
func (w *Workspace) RestoreCollection(c *Collection) {
	restored := c.Clone()
	restored.Modified = true
	w.ReplaceCollection(restored)
}

// RestoreFile installs recovered single-file content and marks it modified.
func (w *Workspace) RestoreFile(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeSingleFile
	w.file.Content = content
	w.file.Modified = true
	w.loadBufferLocked()
}

// Capture flushes and copies the active document when it carries unsaved
// changes. It is the autosave timer's only entry point.
func (w *Workspace) Capture() (mode Mode, c *Collection, content string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.modifiedLocked() {
		return w.mode, nil, "", false
	}
	w.flushLocked()
	if w.mode == ModeCollection {
		return w.mode, w.collection.Clone(), "", true
	}
	return w.mode, nil, w.file.Content, true
}
