package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/storage"
)

func demo() *document.Collection {
	return &document.Collection{
		Title: "Demo",
		Chapters: []document.Chapter{
			{ID: 1, Title: "Ch1", Content: "Hello"},
			{ID: 2, Title: "Ch2", Content: "World"},
		},
	}
}

type dirDialogs struct{ dir string }

func (d dirDialogs) OpenFile(context.Context, string, []storage.Filter) (string, error) {
	return "", storage.ErrCancelled
}

func (d dirDialogs) SaveFile(context.Context, string, []storage.Filter) (string, error) {
	return "", storage.ErrCancelled
}

func (d dirDialogs) OpenDirectory(context.Context, string) (string, error) {
	if d.dir == "" {
		return "", storage.ErrCancelled
	}
	return d.dir, nil
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "My_Story", SanitizeName("My/Story"))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i_", SanitizeName(`a<b>c:d"e\f|g?h*i/`))
	assert.Equal(t, "03_Part_Two.txt", ChapterFileName(2, "Part:Two"))
	assert.Equal(t, "_", SanitizeName("."))
	assert.Equal(t, "__", SanitizeName(".."))
	assert.Equal(t, ".hidden", SanitizeName(".hidden"))
	assert.Equal(t, "", SanitizeName(""))
}

func TestDirectoryExportEndToEnd(t *testing.T) {
	root := t.TempDir()
	exporter := New(storage.NewFileAdapter(dirDialogs{dir: root}, nil), nil)

	loc, err := exporter.Directory(context.Background(), demo(), "")
	require.NoError(t, err)
	assert.Equal(t, storage.Location(filepath.Join(root, "Demo")), loc)

	one, err := os.ReadFile(filepath.Join(root, "Demo", "01_Ch1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# Ch1\n\nHello", string(one))

	two, err := os.ReadFile(filepath.Join(root, "Demo", "02_Ch2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# Ch2\n\nWorld", string(two))

	meta, err := os.ReadFile(filepath.Join(root, "Demo", MetadataFile))
	require.NoError(t, err)
	parsed, err := document.ParsePersisted(meta)
	require.NoError(t, err)
	assert.Len(t, parsed.Chapters, 2)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "scratch directories must be gone")
}

func TestDirectoryExportNamesFilesInListOrder(t *testing.T) {
	root := t.TempDir()
	exporter := New(storage.NewFileAdapter(nil, nil), nil)
	c := &document.Collection{
		Title: "My/Story",
		Chapters: []document.Chapter{
			{ID: 9, Title: "Zeta"}, {ID: 2, Title: "Alpha"}, {ID: 5, Title: "Mid"},
		},
	}

	loc, err := exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)
	assert.Equal(t, "My_Story", filepath.Base(string(loc)))

	entries, err := os.ReadDir(string(loc))
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"01_Zeta.txt", "02_Alpha.txt", "03_Mid.txt", MetadataFile}, names)
}

func TestDirectoryExportIsIdempotent(t *testing.T) {
	root := t.TempDir()
	exporter := New(storage.NewFileAdapter(nil, nil), nil)
	c := demo()

	_, err := exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)
	c.Chapters = c.Chapters[:1]
	_, err = exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "Demo", "02_Ch2.txt"))
	assert.FileExists(t, filepath.Join(root, "Demo", "01_Ch1.txt"))
	assert.FileExists(t, filepath.Join(root, "Demo", MetadataFile))
}

func TestDirectoryExportKeepsUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "Notes")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "taxes-2025.xlsx"), []byte("ledger"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "07_draft.txt"), []byte("my draft"), 0o644))

	c := demo()
	c.Title = "Notes"
	exporter := New(storage.NewFileAdapter(nil, nil), nil)
	loc, err := exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)
	assert.Equal(t, storage.Location(folder), loc)

	ledger, err := os.ReadFile(filepath.Join(folder, "taxes-2025.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "ledger", string(ledger))
	assert.FileExists(t, filepath.Join(folder, "07_draft.txt"), "chapter-like files survive until the folder holds export metadata")
	assert.FileExists(t, filepath.Join(folder, "01_Ch1.txt"))

	c.Chapters = c.Chapters[:1]
	_, err = exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(folder, "taxes-2025.xlsx"))
	assert.NoFileExists(t, filepath.Join(folder, "02_Ch2.txt"))
}

func TestDirectoryExportDotTitleStaysInsideTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.md"), []byte("x"), 0o644))
	c := demo()
	c.Title = "."

	exporter := New(storage.NewFileAdapter(nil, nil), nil)
	loc, err := exporter.Directory(context.Background(), c, storage.Location(root))
	require.NoError(t, err)
	assert.Equal(t, storage.Location(filepath.Join(root, "_")), loc)
	assert.FileExists(t, filepath.Join(root, "keep.md"))
	assert.FileExists(t, filepath.Join(root, "_", "01_Ch1.txt"))
}

func TestDirectoryExportCancelledAndInvalid(t *testing.T) {
	exporter := New(storage.NewFileAdapter(dirDialogs{}, nil), nil)

	_, err := exporter.Directory(context.Background(), demo(), "")
	require.ErrorIs(t, err, storage.ErrCancelled)

	untitled := demo()
	untitled.Title = " "
	_, err = exporter.Directory(context.Background(), untitled, "")
	require.ErrorIs(t, err, document.ErrTitleRequired)
}

type failingTarget struct {
	*storage.FileAdapter
	failAfter int
	writes    int
}

func (f *failingTarget) Write(ctx context.Context, req storage.Request, data []byte) (storage.Location, error) {
	f.writes++
	if f.writes > f.failAfter {
		return "", &storage.IOError{Op: "write", Location: req.Location, Err: errors.New("disk full")}
	}
	return f.FileAdapter.Write(ctx, req, data)
}

func TestDirectoryExportFailureLeavesNoFolder(t *testing.T) {
	root := t.TempDir()
	target := &failingTarget{FileAdapter: storage.NewFileAdapter(nil, nil), failAfter: 2}
	exporter := New(target, nil)

	_, err := exporter.Directory(context.Background(), demo(), storage.Location(root))
	require.Error(t, err)
	assert.True(t, storage.IsIO(err))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTextBlob(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	name, body, err := TextBlob(demo(), now)
	require.NoError(t, err)
	assert.Equal(t, "Demo.txt", name)

	want := "Collection: Demo\n" +
		"Exported: 1/2/2026, 3:04:05 PM\n" +
		"Chapters: 2\n\n" +
		strings.Repeat("=", 50) + "\n\n" +
		"Chapter 1: Ch1\n" + strings.Repeat("-", 30) + "\nHello\n\n" +
		"Chapter 2: Ch2\n" + strings.Repeat("-", 30) + "\nWorld\n\n"
	assert.Equal(t, want, string(body))
}

func TestHTML(t *testing.T) {
	c := demo()
	c.Chapters[0].Content = "Some *emphasis* here."
	page, err := HTML(c)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Demo</title>")
	assert.Contains(t, string(page), "<h2>Ch1</h2>")
	assert.Contains(t, string(page), "<em>emphasis</em>")
}
