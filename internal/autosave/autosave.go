package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/storage"
)

const (
	// CollectionSlotKey is the recovery slot used in collection mode.
	CollectionSlotKey = "autoSaveCollection"
	// FileSlotKey is the recovery slot used in single-file mode.
	FileSlotKey = "autoSave"

	DefaultInterval = 30 * time.Second
	DefaultWindow   = time.Hour
)

// State is Idle until Start arms the timer.
type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Snapshot is the JSON stored in a recovery slot. Timestamp is epoch
// milliseconds.
type Snapshot struct {
	Collection *document.Collection `json:"collection,omitempty"`
	Content    *string              `json:"content,omitempty"`
	Timestamp  int64                `json:"timestamp"`
	Session    string               `json:"session,omitempty"`
}

// Time returns the capture instant.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Event reports the outcome of a timer-driven tick.
type Event struct {
	Key   string
	Wrote bool
	At    time.Time
	Err   error
}

// Options tunes an Engine. Zero values fall back to the defaults.
type Options struct {
	Interval time.Duration
	Window   time.Duration
	Logger   *log.Logger
	Now      func() time.Time
	// OnTick is called after every timer-driven tick, from the timer
	// goroutine.
	OnTick func(Event)
}

// Engine periodically copies the active document into a recovery slot and,
// at startup, offers to restore an abandoned copy.
type Engine struct {
	ws      *document.Workspace
	store   storage.KeyValueStore
	opts    Options
	logger  *log.Logger
	session string

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	written map[string]slotWrite
}

// slotWrite remembers the last snapshot stored in a slot.
type slotWrite struct {
	body []byte
	at   time.Time
}

func New(ws *document.Workspace, store storage.KeyValueStore, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		ws:      ws,
		store:   store,
		opts:    opts,
		logger:  logging.Component(opts.Logger, "autosave"),
		session: uuid.NewString(),
		written: map[string]slotWrite{},
	}
}

// Session identifies snapshots written by this engine.
func (e *Engine) Session() string { return e.session }

// State reports whether the timer is scheduled.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return Armed
	}
	return Idle
}

// Start arms the recurring timer. Calling Start on an armed engine is a
// no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return nil
	}
	c := cron.New()
	id, err := c.AddFunc(fmt.Sprintf("@every %s", e.opts.Interval), e.fire)
	if err != nil {
		return fmt.Errorf("schedule autosave: %w", err)
	}
	c.Start()
	e.cron = c
	e.entry = id
	e.logger.Info().Dur("interval", e.opts.Interval).Str("session", e.session).Msg("autosave armed")
	return nil
}

// Stop disarms the timer and waits for a running tick to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	c := e.cron
	e.cron = nil
	e.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	e.logger.Info().Msg("autosave stopped")
}

func (e *Engine) fire() {
	now := e.opts.Now()
	key, wrote, err := e.Tick(context.Background(), now)
	if err != nil {
		e.logger.Error().Err(err).Str("key", key).Msg("autosave failed")
	}
	if e.opts.OnTick != nil {
		e.opts.OnTick(Event{Key: key, Wrote: wrote, At: now, Err: err})
	}
}

// Tick writes a snapshot when the active document is modified. A tick whose
// document matches the previous write does nothing. The modified flag is
// left alone; only an explicit save clears it.
func (e *Engine) Tick(ctx context.Context, now time.Time) (string, bool, error) {
	mode, collection, content, ok := e.ws.Capture()
	key := SlotKey(mode)
	if !ok {
		return key, false, nil
	}

	var (
		snap = Snapshot{Timestamp: now.UnixMilli(), Session: e.session}
		body []byte
		err  error
	)
	if mode == document.ModeCollection {
		snap.Collection = collection
		body, err = json.Marshal(collection)
	} else {
		snap.Content = &content
		body, err = json.Marshal(content)
	}
	if err != nil {
		return key, false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// unchanged content is rewritten once it is half a window old so the
	// slot's age keeps tracking the running session
	if last, seen := e.written[key]; seen && bytes.Equal(last.body, body) && now.Sub(last.at) < e.opts.Window/2 {
		return key, false, nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return key, false, err
	}
	if err := e.store.Set(ctx, key, string(data)); err != nil {
		return key, false, err
	}
	e.written[key] = slotWrite{body: body, at: now}
	e.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("snapshot written")
	return key, true, nil
}

// SlotKey returns the recovery slot for mode.
func SlotKey(mode document.Mode) string {
	if mode == document.ModeSingleFile {
		return FileSlotKey
	}
	return CollectionSlotKey
}

// Offer is a recoverable snapshot found at startup.
type Offer struct {
	Mode     document.Mode
	Snapshot Snapshot
	Age      time.Duration
}

// Check looks for a snapshot worth offering: younger than the recovery
// window, written by another session, and only while the active document is
// still empty.
func (e *Engine) Check(ctx context.Context, now time.Time) (*Offer, error) {
	mode := e.ws.Mode()
	key := SlotKey(mode)
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable recovery slot")
		return nil, nil
	}
	if snap.Session == e.session {
		return nil, nil
	}
	if mode == document.ModeCollection && snap.Collection == nil {
		return nil, nil
	}
	if mode == document.ModeSingleFile && snap.Content == nil {
		return nil, nil
	}
	age := now.Sub(snap.Time())
	if age >= e.opts.Window {
		e.logger.Debug().Dur("age", age).Msg("recovery snapshot expired")
		return nil, nil
	}
	if !e.ws.IsEmpty() {
		return nil, nil
	}
	return &Offer{Mode: mode, Snapshot: snap, Age: age}, nil
}

// Accept restores the offered snapshot into the workspace. The document is
// left modified so the user must still save it.
func (e *Engine) Accept(offer *Offer) {
	if offer == nil {
		return
	}
	if offer.Mode == document.ModeCollection && offer.Snapshot.Collection != nil {
		e.ws.RestoreCollection(offer.Snapshot.Collection)
	} else if offer.Snapshot.Content != nil {
		e.ws.RestoreFile(*offer.Snapshot.Content)
	}
	e.logger.Info().Str("mode", offer.Mode.String()).Dur("age", offer.Age).Msg("recovered autosave")
}

// Discard clears the recovery slot for mode.
func (e *Engine) Discard(ctx context.Context, mode document.Mode) error {
	key := SlotKey(mode)
	e.mu.Lock()
	delete(e.written, key)
	e.mu.Unlock()
	return e.store.Delete(ctx, key)
}
