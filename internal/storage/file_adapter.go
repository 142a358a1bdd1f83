package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/phuslu/log"

	"github.com/csheth/blink/internal/logging"
)

// ErrPDFTarget is returned for writes addressed to a .pdf file. Text read
// from a pdf is plain text and must never replace the document.
var ErrPDFTarget = errors.New("pdf files can only be imported, save the text under another name")

// IsPDF reports whether loc names a pdf document.
func IsPDF(loc Location) bool {
	return strings.EqualFold(filepath.Ext(string(loc)), ".pdf")
}

// Dialogs is the host collaborator that asks the user for locations. Each
// method returns ErrCancelled when the user dismisses the prompt.
type Dialogs interface {
	OpenFile(ctx context.Context, title string, filters []Filter) (string, error)
	SaveFile(ctx context.Context, title string, filters []Filter) (string, error)
	OpenDirectory(ctx context.Context, title string) (string, error)
}

// FileAdapter reads and writes the local filesystem, prompting through
// Dialogs when no location is given.
type FileAdapter struct {
	dialogs Dialogs
	logger  *log.Logger
}

func NewFileAdapter(dialogs Dialogs, logger *log.Logger) *FileAdapter {
	return &FileAdapter{dialogs: dialogs, logger: logging.Component(logger, "storage")}
}

func (a *FileAdapter) Read(ctx context.Context, req Request) ([]byte, Location, error) {
	path := string(req.Location)
	if path == "" {
		picked, err := a.ask(ctx, func() (string, error) { return a.dialogs.OpenFile(ctx, req.Title, req.Filters) })
		if err != nil {
			return nil, "", err
		}
		path = picked
	}
	path = expandHome(path)
	if IsPDF(Location(path)) {
		text, err := extractPDFText(path)
		if err != nil {
			return nil, "", &IOError{Op: "read", Location: Location(path), Err: err}
		}
		return []byte(text), Location(path), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, "", &IOError{Op: "read", Location: Location(path), Err: err}
	}
	a.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("read file")
	return data, Location(path), nil
}

func (a *FileAdapter) Write(ctx context.Context, req Request, data []byte) (Location, error) {
	path := string(req.Location)
	if path == "" {
		picked, err := a.ask(ctx, func() (string, error) { return a.dialogs.SaveFile(ctx, req.Title, req.Filters) })
		if err != nil {
			return "", err
		}
		path = withDefaultExtension(picked, req.Filters)
	}
	path = expandHome(path)
	if IsPDF(Location(path)) {
		return "", &IOError{Op: "write", Location: Location(path), Err: ErrPDFTarget}
	}
	if err := writeAtomic(path, data); err != nil {
		return "", &IOError{Op: "write", Location: Location(path), Err: err}
	}
	a.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("wrote file")
	return Location(path), nil
}

func (a *FileAdapter) PickDirectory(ctx context.Context, title string) (Location, error) {
	dir, err := a.ask(ctx, func() (string, error) { return a.dialogs.OpenDirectory(ctx, title) })
	if err != nil {
		return "", err
	}
	return Location(expandHome(dir)), nil
}

// MkdirTemp creates a scratch directory next to the final destination so a
// later rename stays on one filesystem.
func (a *FileAdapter) MkdirTemp(parent Location, pattern string) (Location, error) {
	if err := os.MkdirAll(string(parent), 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Location: parent, Err: err}
	}
	dir, err := os.MkdirTemp(string(parent), pattern)
	if err != nil {
		return "", &IOError{Op: "mkdir", Location: parent, Err: err}
	}
	return Location(dir), nil
}

// MkdirAll creates loc and any missing parents. An existing directory is
// left as it is.
func (a *FileAdapter) MkdirAll(loc Location) error {
	if err := os.MkdirAll(string(loc), 0o755); err != nil {
		return &IOError{Op: "mkdir", Location: loc, Err: err}
	}
	return nil
}

// ListDir returns the names of the regular files in loc. A missing
// directory lists as empty.
func (a *FileAdapter) ListDir(loc Location) ([]string, error) {
	entries, err := os.ReadDir(string(loc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "list", Location: loc, Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Rename moves one file, replacing whatever file is at to.
func (a *FileAdapter) Rename(from, to Location) error {
	if err := os.Rename(string(from), string(to)); err != nil {
		return &IOError{Op: "rename", Location: from, Err: err}
	}
	return nil
}

// Remove deletes a single file.
func (a *FileAdapter) Remove(loc Location) error {
	if err := os.Remove(string(loc)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove", Location: loc, Err: err}
	}
	return nil
}

// RemoveAll deletes a scratch directory.
func (a *FileAdapter) RemoveAll(loc Location) error {
	if err := os.RemoveAll(string(loc)); err != nil {
		return &IOError{Op: "remove", Location: loc, Err: err}
	}
	return nil
}

func (a *FileAdapter) ask(ctx context.Context, prompt func() (string, error)) (string, error) {
	if a.dialogs == nil {
		return "", fmt.Errorf("%w: no dialog host", ErrUnsupported)
	}
	value, err := prompt()
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return value, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func withDefaultExtension(path string, filters []Filter) string {
	if filepath.Ext(path) != "" || len(filters) == 0 || len(filters[0].Extensions) == 0 {
		return path
	}
	ext := filters[0].Extensions[0]
	if ext == "*" {
		return path
	}
	return path + "." + ext
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return strings.TrimSpace(builder.String()), nil
}
