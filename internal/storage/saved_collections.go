package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/csheth/blink/internal/document"
)

// SavedCollectionsKey holds the JSON array of saved collections.
const SavedCollectionsKey = "savedCollections"

// SavedCollections is a small multi-document store keyed by collection
// title. Saving a title that already exists replaces the earlier entry.
type SavedCollections struct {
	store KeyValueStore
}

func NewSavedCollections(store KeyValueStore) *SavedCollections {
	return &SavedCollections{store: store}
}

// List returns every saved collection in save order.
func (s *SavedCollections) List(ctx context.Context) ([]document.Persisted, error) {
	raw, err := s.store.Get(ctx, SavedCollectionsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []document.Persisted
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &IOError{Op: "decode", Location: SavedCollectionsKey, Err: err}
	}
	return entries, nil
}

// Put stores p, replacing any entry with the same title.
func (s *SavedCollections) Put(ctx context.Context, p document.Persisted) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].Title == p.Title {
			entries[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, p)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, SavedCollectionsKey, string(data))
}

// Get returns the collection saved under title.
func (s *SavedCollections) Get(ctx context.Context, title string) (document.Persisted, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return document.Persisted{}, err
	}
	for _, entry := range entries {
		if entry.Title == title {
			return entry, nil
		}
	}
	return document.Persisted{}, fmt.Errorf("collection %q: %w", title, ErrNotFound)
}

// Find resolves a user selection: a 1-based position in the list, or else
// the first title containing query case-insensitively.
func (s *SavedCollections) Find(ctx context.Context, query string) (document.Persisted, error) {
	query = strings.TrimSpace(query)
	entries, err := s.List(ctx)
	if err != nil {
		return document.Persisted{}, err
	}
	if n, err := strconv.Atoi(query); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], nil
	}
	if query != "" {
		lower := strings.ToLower(query)
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.Title), lower) {
				return entry, nil
			}
		}
	}
	return document.Persisted{}, fmt.Errorf("collection %q: %w", query, ErrNotFound)
}
