package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"

	"github.com/csheth/blink/internal/logging"
)

// KeyValueStore is a string-keyed store scoped to one user profile, the
// equivalent of a browser origin's local storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

type kvRecord struct {
	Key       string `badgerhold:"key"`
	Value     string
	UpdatedAt time.Time
}

// BadgerStore persists key/value pairs in an embedded Badger database.
type BadgerStore struct {
	store  *badgerhold.Store
	logger *log.Logger
}

// OpenBadgerStore opens (or creates) the database in dir. An empty dir keeps
// the database in memory.
func OpenBadgerStore(dir string, logger *log.Logger) (*BadgerStore, error) {
	logger = logging.Component(logger, "kv")
	options := badgerhold.DefaultOptions
	if dir == "" {
		options.Options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		options.Options = badger.DefaultOptions(dir)
	}
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	logger.Debug().Str("path", dir).Msg("badger store opened")
	return &BadgerStore{store: store, logger: logger}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string) (string, error) {
	var rec kvRecord
	err := s.store.Get(key, &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &IOError{Op: "get", Location: Location(key), Err: err}
	}
	return rec.Value, nil
}

func (s *BadgerStore) Set(_ context.Context, key, value string) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := s.store.Upsert(key, &rec); err != nil {
		return &IOError{Op: "set", Location: Location(key), Err: err}
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.store.Delete(key, kvRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return &IOError{Op: "delete", Location: Location(key), Err: err}
	}
	return nil
}

func (s *BadgerStore) Keys(_ context.Context) ([]string, error) {
	var records []kvRecord
	if err := s.store.Find(&records, nil); err != nil {
		return nil, &IOError{Op: "list", Err: err}
	}
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *BadgerStore) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// KVAdapter exposes a KeyValueStore through the Adapter capability set.
// Locations are keys; nothing is ever prompted for.
type KVAdapter struct {
	store KeyValueStore
}

func NewKVAdapter(store KeyValueStore) *KVAdapter {
	return &KVAdapter{store: store}
}

func (a *KVAdapter) Read(ctx context.Context, req Request) ([]byte, Location, error) {
	if req.Location == "" {
		return nil, "", fmt.Errorf("%w: key-value reads need a key", ErrUnsupported)
	}
	value, err := a.store.Get(ctx, string(req.Location))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", &IOError{Op: "read", Location: req.Location, Err: err}
		}
		return nil, "", err
	}
	return []byte(value), req.Location, nil
}

func (a *KVAdapter) Write(ctx context.Context, req Request, data []byte) (Location, error) {
	if req.Location == "" {
		return "", fmt.Errorf("%w: key-value writes need a key", ErrUnsupported)
	}
	if err := a.store.Set(ctx, string(req.Location), string(data)); err != nil {
		return "", err
	}
	return req.Location, nil
}

// PickDirectory is not available without a filesystem; exports become
// downloads instead.
func (a *KVAdapter) PickDirectory(context.Context, string) (Location, error) {
	return "", ErrUnsupported
}
