package export

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/yuin/goldmark"

	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
)

// MetadataFile is written next to the chapter files and holds the whole
// collection in the saved-file format.
const MetadataFile = "_collection.json"

var unsafeNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// chapterFilePattern matches files this exporter writes for chapters.
var chapterFilePattern = regexp.MustCompile(`^\d{2,}_.*\.txt$`)

// SanitizeName replaces characters that are not allowed in file names. A
// name made only of dots would address the parent or current directory, so
// its dots become underscores.
func SanitizeName(name string) string {
	name = unsafeNameChars.Replace(name)
	if name != "" && strings.Trim(name, ".") == "" {
		return strings.Repeat("_", len(name))
	}
	return name
}

// ChapterFileName names the file for the chapter at zero-based index. The
// number is padded to two digits, so collections past 99 chapters no longer
// sort lexically.
func ChapterFileName(index int, title string) string {
	return fmt.Sprintf("%02d_%s.txt", index+1, SanitizeName(title))
}

// ChapterText is the exported body of one chapter.
func ChapterText(ch document.Chapter) string {
	return fmt.Sprintf("# %s\n\n%s", ch.Title, ch.Content)
}

// Target is the filesystem capability a directory export needs.
type Target interface {
	storage.Adapter
	MkdirTemp(parent storage.Location, pattern string) (storage.Location, error)
	MkdirAll(loc storage.Location) error
	ListDir(loc storage.Location) ([]string, error)
	Rename(from, to storage.Location) error
	Remove(loc storage.Location) error
	RemoveAll(loc storage.Location) error
}

// Exporter writes collections out in derived formats.
type Exporter struct {
	target Target
	logger *log.Logger
	now    func() time.Time
}

func New(target Target, logger *log.Logger) *Exporter {
	return &Exporter{target: target, logger: logging.Component(logger, "export"), now: time.Now}
}

// Directory exports c as a folder of numbered chapter files plus metadata
// under dir, asking for a directory when dir is empty. Every file is written
// into a scratch directory first; only a complete set is moved into the
// folder. An existing folder is reused and files the exporter did not write
// are never touched. Chapter files left from an earlier export of a longer
// collection are removed when the folder holds export metadata.
func (e *Exporter) Directory(ctx context.Context, c *document.Collection, dir storage.Location) (storage.Location, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if dir == "" {
		picked, err := e.target.PickDirectory(ctx, "Select Export Location")
		if err != nil {
			return "", err
		}
		dir = picked
	}

	name := SanitizeName(c.Title)
	final := join(dir, name)
	scratch, err := e.target.MkdirTemp(dir, "."+name+".export-*")
	if err != nil {
		return "", err
	}
	defer e.removeScratch(scratch)

	files, err := e.writeTree(ctx, c, scratch)
	if err != nil {
		return "", err
	}
	if err := e.target.MkdirAll(final); err != nil {
		return "", err
	}
	existing, err := e.target.ListDir(final)
	if err != nil {
		return "", err
	}
	for _, file := range files {
		if err := e.target.Rename(join(scratch, file), join(final, file)); err != nil {
			return "", err
		}
	}
	if slices.Contains(existing, MetadataFile) {
		e.pruneChapters(final, existing, files)
	}
	e.logger.Info().Str("path", string(final)).Int("chapters", len(c.Chapters)).Msg("collection exported")
	return final, nil
}

func (e *Exporter) removeScratch(scratch storage.Location) {
	if err := e.target.RemoveAll(scratch); err != nil {
		e.logger.Warn().Err(err).Str("path", string(scratch)).Msg("failed to remove scratch export")
	}
}

// pruneChapters deletes chapter files of a previous export that the new
// export did not rewrite.
func (e *Exporter) pruneChapters(final storage.Location, existing, written []string) {
	for _, file := range existing {
		if !chapterFilePattern.MatchString(file) || slices.Contains(written, file) {
			continue
		}
		if err := e.target.Remove(join(final, file)); err != nil {
			e.logger.Warn().Err(err).Str("file", file).Msg("failed to remove stale chapter file")
		}
	}
}

// writeTree writes the metadata and chapter files into dir and returns
// their names.
func (e *Exporter) writeTree(ctx context.Context, c *document.Collection, dir storage.Location) ([]string, error) {
	meta, err := c.Serialize(e.now()).Marshal()
	if err != nil {
		return nil, err
	}
	if _, err := e.target.Write(ctx, storage.Request{Location: join(dir, MetadataFile)}, meta); err != nil {
		return nil, err
	}
	files := []string{MetadataFile}
	for i, ch := range c.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := ChapterFileName(i, ch.Title)
		if _, err := e.target.Write(ctx, storage.Request{Location: join(dir, file)}, []byte(ChapterText(ch))); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func join(dir storage.Location, name string) storage.Location {
	return storage.Location(filepath.Join(string(dir), name))
}

// TextBlob renders c as one plain-text document for download and returns
// the suggested file name.
func TextBlob(c *document.Collection, now time.Time) (string, []byte, error) {
	if err := c.Validate(); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Collection: %s\n", c.Title)
	fmt.Fprintf(&b, "Exported: %s\n", now.Format("1/2/2006, 3:04:05 PM"))
	fmt.Fprintf(&b, "Chapters: %d\n\n", len(c.Chapters))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	for i, ch := range c.Chapters {
		fmt.Fprintf(&b, "Chapter %d: %s\n", i+1, ch.Title)
		b.WriteString(strings.Repeat("-", 30) + "\n")
		b.WriteString(ch.Content + "\n\n")
	}
	return SanitizeName(c.Title) + ".txt", []byte(b.String()), nil
}

// HTML renders every chapter as markdown into a single HTML page.
func HTML(c *document.Collection) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	md := goldmark.New()
	var buf bytes.Buffer
	title := html.EscapeString(c.Title)
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", title, title)
	for _, ch := range c.Chapters {
		buf.WriteString("<section>\n")
		if err := md.Convert([]byte("## "+ch.Title+"\n\n"+ch.Content), &buf); err != nil {
			return nil, fmt.Errorf("render chapter %q: %w", ch.Title, err)
		}
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
