package storage

import (
	"context"
	"errors"
	"fmt"
)

// Location names where bytes live: a filesystem path or a store key.
type Location string

var (
	// ErrCancelled means the user dismissed a dialog. Callers treat it as a
	// silent no-op.
	ErrCancelled = errors.New("cancelled")
	// ErrUnsupported is returned for capabilities an adapter does not offer.
	ErrUnsupported = errors.New("operation not supported by this storage")
	// ErrNotFound is returned when a key or file does not exist.
	ErrNotFound = errors.New("not found")
)

// IOError wraps a failed read or write.
type IOError struct {
	Op       string
	Location Location
	Err      error
}

func (e *IOError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Location, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIO reports whether err is an I/O failure.
func IsIO(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// Filter narrows a file dialog to some extensions.
type Filter struct {
	Name       string
	Extensions []string
}

var (
	TextFilters = []Filter{
		{Name: "Text Files", Extensions: []string{"txt", "md", "rtf", "pdf"}},
		{Name: "All Files", Extensions: []string{"*"}},
	}
	SaveTextFilters = []Filter{
		{Name: "Text Files", Extensions: []string{"txt"}},
		{Name: "Markdown Files", Extensions: []string{"md"}},
		{Name: "All Files", Extensions: []string{"*"}},
	}
	CollectionFilters = []Filter{
		{Name: "Story Collection", Extensions: []string{"json"}},
		{Name: "All Files", Extensions: []string{"*"}},
	}
)

// Request describes a read or write. An empty Location asks the adapter to
// resolve one, which for the filesystem means prompting the user.
type Request struct {
	Location Location
	Title    string
	Filters  []Filter
}

// Adapter is the capability set both hosts implement.
type Adapter interface {
	Read(ctx context.Context, req Request) ([]byte, Location, error)
	Write(ctx context.Context, req Request, data []byte) (Location, error)
	PickDirectory(ctx context.Context, title string) (Location, error)
}

// Result is the boundary shape reported to the UI layer. Callers check
// Success rather than assume completion.
type Result struct {
	Success   bool   `json:"success"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// ResultOf converts an operation outcome into a Result.
func ResultOf(loc Location, err error) Result {
	switch {
	case err == nil:
		return Result{Success: true, Path: string(loc)}
	case errors.Is(err, ErrCancelled):
		return Result{Cancelled: true}
	default:
		return Result{Error: err.Error()}
	}
}
