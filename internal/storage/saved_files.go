package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// SavedFilePrefix namespaces single files in a KeyValueStore so they can
// never collide with preference or recovery keys.
const SavedFilePrefix = "files/"

// SavedFiles addresses single text files kept in a KeyValueStore. The
// returned locations are read and written through a KVAdapter.
type SavedFiles struct {
	store KeyValueStore
}

func NewSavedFiles(store KeyValueStore) *SavedFiles {
	return &SavedFiles{store: store}
}

// Location returns the key for a file name. A name without an extension
// gets ".txt".
func (s *SavedFiles) Location(name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Trim(name, ".") == "" || IsPDF(Location(name)) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if path.Ext(name) == "" {
		name += ".txt"
	}
	return Location(SavedFilePrefix + name), nil
}

// List returns the saved file names in key order.
func (s *SavedFiles) List(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		if name, found := strings.CutPrefix(key, SavedFilePrefix); found {
			names = append(names, name)
		}
	}
	return names, nil
}

// Exists reports whether loc holds a saved file.
func (s *SavedFiles) Exists(ctx context.Context, loc Location) (bool, error) {
	_, err := s.store.Get(ctx, string(loc))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
