package document

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceSwitchPreservesEdits(t *testing.T) {
	ws := NewWorkspace()
	idx, err := ws.AddChapter()
	require.NoError(t, err)

	ws.Edit("edits in A")
	require.NoError(t, ws.SwitchToChapter(idx))
	assert.Equal(t, "", ws.Buffer())

	ws.Edit("edits in B")
	require.NoError(t, ws.SwitchToChapter(0))
	assert.Equal(t, "edits in A", ws.Buffer())

	c := ws.Collection()
	assert.Equal(t, "edits in A", c.Chapters[0].Content)
	assert.Equal(t, "edits in B", c.Chapters[1].Content)
}

func TestWorkspaceDeleteKeepsActiveEdits(t *testing.T) {
	ws := NewWorkspace()
	_, _ = ws.AddChapter()
	idx, _ := ws.AddChapter()
	require.NoError(t, ws.SwitchToChapter(idx))
	ws.Edit("third")

	require.NoError(t, ws.DeleteChapter(0))
	state := ws.State()
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, "third", state.Buffer)
	assert.Equal(t, 2, state.ChapterCount)
}

func TestWorkspaceModesAreExclusive(t *testing.T) {
	ws := NewWorkspace()
	ws.OpenFile("/tmp/notes.txt", "", "hello")
	assert.Equal(t, ModeSingleFile, ws.Mode())
	assert.Equal(t, "notes.txt", ws.State().FileName)

	_, err := ws.AddChapter()
	require.ErrorIs(t, err, ErrWrongMode)

	ws.Edit("hello there")
	assert.True(t, ws.Modified())
	assert.Equal(t, "hello there", ws.File().Content)

	ws.MarkFileSaved("/tmp/other.md")
	assert.False(t, ws.Modified())
	assert.Equal(t, "other.md", ws.State().Title)

	ws.EnterCollectionMode()
	assert.Equal(t, ModeCollection, ws.Mode())
	assert.False(t, ws.Modified())
}

func TestWorkspaceModeToggleKeepsBothDocuments(t *testing.T) {
	ws := NewWorkspace()
	ws.Edit("chapter text")
	ws.EnterFileMode()
	assert.Equal(t, ModeSingleFile, ws.Mode())
	assert.Equal(t, "", ws.Buffer())

	ws.Edit("loose note")
	ws.EnterCollectionMode()
	assert.Equal(t, "chapter text", ws.Buffer())

	ws.EnterFileMode()
	assert.Equal(t, "loose note", ws.Buffer())
	assert.Equal(t, "chapter text", ws.Collection().Chapters[0].Content)
}

func TestWorkspaceIsEmpty(t *testing.T) {
	ws := NewWorkspace()
	assert.True(t, ws.IsEmpty())

	ws.Edit("x")
	assert.False(t, ws.IsEmpty())

	ws.MarkCollectionSaved("/tmp/a.json", time.Now())
	assert.False(t, ws.IsEmpty(), "saved text is still text")

	ws.NewFile()
	assert.True(t, ws.IsEmpty())
}

func TestWorkspaceCaptureOnlyWhenModified(t *testing.T) {
	ws := NewWorkspace()
	_, _, _, ok := ws.Capture()
	assert.False(t, ok)

	ws.Edit("draft")
	mode, c, _, ok := ws.Capture()
	require.True(t, ok)
	assert.Equal(t, ModeCollection, mode)
	assert.Equal(t, "draft", c.Chapters[0].Content)
	assert.True(t, ws.Modified(), "capture must not clear the modified flag")
}

func TestWorkspaceRestoreMarksModified(t *testing.T) {
	ws := NewWorkspace()
	recovered := &Collection{Title: "Lost", Chapters: []Chapter{{ID: 1, Title: "A", Content: "found"}}}
	ws.RestoreCollection(recovered)

	state := ws.State()
	assert.True(t, state.Modified)
	assert.Equal(t, "Lost", state.Title)
	assert.Equal(t, "found", state.Buffer)
	assert.False(t, recovered.Modified, "restore must not alias the snapshot")

	ws.RestoreFile("file text")
	assert.Equal(t, ModeSingleFile, ws.Mode())
	assert.True(t, ws.Modified())
	assert.Equal(t, "file text", ws.Buffer())
}

func TestWorkspaceConcurrentCapture(t *testing.T) {
	ws := NewWorkspace()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ws.Edit(string(rune('a' + i%26)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ws.Capture()
		}
	}()
	wg.Wait()
	assert.True(t, ws.Modified())
}
