package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/csheth/blink/internal/autosave"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/export"
	"github.com/csheth/blink/internal/logging"
	"github.com/csheth/blink/internal/prefs"
	"github.com/csheth/blink/internal/storage"
)

// State is what a View renders after each command.
type State struct {
	Document document.Snapshot
	Prefs    prefs.Preferences
	Notice   Notice
}

// View is notified after every command.
type View interface {
	Render(State)
}

// Confirm asks the user a yes/no question. Returning false aborts the
// command as a cancellation.
type Confirm func(ctx context.Context, question string) bool

// Deps wires a Controller.
type Deps struct {
	Workspace *document.Workspace
	Adapter   storage.Adapter
	// Store persists preferences. Nil keeps them in memory.
	Store storage.KeyValueStore
	// Saved, when set, receives collection saves instead of Adapter.
	Saved    *storage.SavedCollections
	Exporter *export.Exporter
	Autosave *autosave.Engine
	Confirm  Confirm
	View     View
	Logger   *log.Logger
	Now      func() time.Time
}

// Controller is the command surface shared by the hosts. Commands run one
// at a time; none of them panics on failure, every outcome is a Notice.
type Controller struct {
	deps   Deps
	logger *log.Logger

	mu sync.Mutex

	prefsMu sync.Mutex
	prefs   prefs.Preferences
}

func New(deps Deps) *Controller {
	if deps.Workspace == nil {
		deps.Workspace = document.NewWorkspace()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Confirm == nil {
		deps.Confirm = func(context.Context, string) bool { return true }
	}
	return &Controller{
		deps:   deps,
		logger: logging.Component(deps.Logger, "app"),
		prefs:  prefs.Default(),
	}
}

// LoadPrefs reads stored preferences and restores the remembered mode.
func (c *Controller) LoadPrefs(ctx context.Context) error {
	if c.deps.Store == nil {
		return nil
	}
	p, err := prefs.Load(ctx, c.deps.Store)
	if err != nil {
		return err
	}
	c.prefsMu.Lock()
	c.prefs = p
	c.prefsMu.Unlock()
	if !p.CollectionMode && c.deps.Workspace.IsEmpty() {
		c.deps.Workspace.NewFile()
	}
	return nil
}

func (c *Controller) Workspace() *document.Workspace { return c.deps.Workspace }

func (c *Controller) Prefs() prefs.Preferences {
	c.prefsMu.Lock()
	defer c.prefsMu.Unlock()
	return c.prefs
}

// State returns the current render state with an empty notice.
func (c *Controller) State() State {
	return State{Document: c.deps.Workspace.State(), Prefs: c.Prefs()}
}

// Edit replaces the editor buffer.
func (c *Controller) Edit(text string) {
	c.deps.Workspace.Edit(text)
}

func (c *Controller) run(ctx context.Context, name string, fn func(context.Context) (Notice, error)) Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	notice, err := fn(ctx)
	if err != nil {
		notice = Classify(err)
	}
	switch notice.Kind {
	case NoticeIO:
		c.logger.Error().Err(err).Str("command", name).Msg("command failed")
	case NoticeValidation:
		c.logger.Info().Str("command", name).Str("reason", notice.Message).Msg("command rejected")
	default:
		c.logger.Debug().Str("command", name).Str("kind", string(notice.Kind)).Msg("command finished")
	}
	if c.deps.View != nil {
		c.deps.View.Render(State{Document: c.deps.Workspace.State(), Prefs: c.Prefs(), Notice: notice})
	}
	return notice
}

func (c *Controller) confirmDiscard(ctx context.Context) error {
	if !c.deps.Workspace.Modified() {
		return nil
	}
	if !c.deps.Confirm(ctx, "You have unsaved changes. Discard them?") {
		return storage.ErrCancelled
	}
	return nil
}

func (c *Controller) updatePrefs(ctx context.Context, mutate func(*prefs.Preferences)) error {
	c.prefsMu.Lock()
	mutate(&c.prefs)
	p := c.prefs
	c.prefsMu.Unlock()
	if c.deps.Store == nil {
		return nil
	}
	return prefs.Save(ctx, c.deps.Store, p)
}

func (c *Controller) rememberMode(ctx context.Context, collection bool) {
	if err := c.updatePrefs(ctx, func(p *prefs.Preferences) { p.CollectionMode = collection }); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist mode")
	}
}

// NewFile starts an empty single file.
func (c *Controller) NewFile(ctx context.Context) Notice {
	return c.run(ctx, "new-file", func(ctx context.Context) (Notice, error) {
		if err := c.confirmDiscard(ctx); err != nil {
			return Notice{}, err
		}
		c.deps.Workspace.NewFile()
		c.rememberMode(ctx, false)
		return ok("New file"), nil
	})
}

// OpenFile reads a text file into single-file mode. An empty location
// prompts.
func (c *Controller) OpenFile(ctx context.Context, loc storage.Location) Notice {
	return c.run(ctx, "open-file", func(ctx context.Context) (Notice, error) {
		if err := c.confirmDiscard(ctx); err != nil {
			return Notice{}, err
		}
		data, path, err := c.deps.Adapter.Read(ctx, storage.Request{
			Location: loc,
			Title:    "Open File",
			Filters:  storage.TextFilters,
		})
		if err != nil {
			return Notice{}, err
		}
		if storage.IsPDF(path) {
			// extracted text opens untitled so the next save asks for a name
			base := filepath.Base(string(path))
			name := strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
			c.deps.Workspace.OpenFile("", name, string(data))
			c.rememberMode(ctx, false)
			return ok("Imported text from " + base), nil
		}
		c.deps.Workspace.OpenFile(string(path), "", string(data))
		c.rememberMode(ctx, false)
		return ok("Opened " + string(path)), nil
	})
}

// SaveFile writes the single file to its path, prompting when it has none.
// In collection mode it saves the collection.
func (c *Controller) SaveFile(ctx context.Context) Notice {
	if c.deps.Workspace.Mode() == document.ModeCollection {
		return c.SaveCollection(ctx)
	}
	return c.run(ctx, "save-file", func(ctx context.Context) (Notice, error) {
		return c.saveFile(ctx, false)
	})
}

// SaveFileAs always prompts for a destination.
func (c *Controller) SaveFileAs(ctx context.Context) Notice {
	return c.run(ctx, "save-file-as", func(ctx context.Context) (Notice, error) {
		return c.saveFile(ctx, true)
	})
}

func (c *Controller) saveFile(ctx context.Context, prompt bool) (Notice, error) {
	ws := c.deps.Workspace
	var (
		content string
		path    string
	)
	if ws.Mode() == document.ModeSingleFile {
		file := ws.File()
		content, path = file.Content, file.Path
	} else {
		content = ws.Buffer()
	}
	if prompt {
		path = ""
	}
	saved, err := c.deps.Adapter.Write(ctx, storage.Request{
		Location: storage.Location(path),
		Title:    "Save File",
		Filters:  storage.SaveTextFilters,
	}, []byte(content))
	if err != nil {
		return Notice{}, err
	}
	if ws.Mode() == document.ModeSingleFile {
		ws.MarkFileSaved(string(saved))
	}
	return ok("Saved " + string(saved)), nil
}

// SaveFileTo writes the single file to loc and makes loc its path.
func (c *Controller) SaveFileTo(ctx context.Context, loc storage.Location) Notice {
	return c.run(ctx, "save-file-to", func(ctx context.Context) (Notice, error) {
		if c.deps.Workspace.Mode() != document.ModeSingleFile {
			return Notice{}, document.ErrWrongMode
		}
		file := c.deps.Workspace.File()
		saved, err := c.deps.Adapter.Write(ctx, storage.Request{Location: loc, Title: "Save File", Filters: storage.SaveTextFilters}, []byte(file.Content))
		if err != nil {
			return Notice{}, err
		}
		c.deps.Workspace.MarkFileSaved(string(saved))
		return ok("Saved " + string(saved)), nil
	})
}

// SetCollectionMode switches between the collection and the single file.
// Neither document is replaced.
func (c *Controller) SetCollectionMode(ctx context.Context, collection bool) Notice {
	return c.run(ctx, "set-mode", func(ctx context.Context) (Notice, error) {
		if collection {
			c.deps.Workspace.EnterCollectionMode()
		} else {
			c.deps.Workspace.EnterFileMode()
		}
		c.rememberMode(ctx, collection)
		return ok(""), nil
	})
}

// NewCollection replaces the collection with a fresh one.
func (c *Controller) NewCollection(ctx context.Context) Notice {
	return c.run(ctx, "new-collection", func(ctx context.Context) (Notice, error) {
		if err := c.confirmDiscard(ctx); err != nil {
			return Notice{}, err
		}
		c.deps.Workspace.NewCollection()
		c.rememberMode(ctx, true)
		return ok("New collection"), nil
	})
}

// OpenCollection loads a collection file. With a SavedCollections index the
// location is matched against saved titles instead.
func (c *Controller) OpenCollection(ctx context.Context, loc storage.Location) Notice {
	return c.run(ctx, "open-collection", func(ctx context.Context) (Notice, error) {
		if err := c.confirmDiscard(ctx); err != nil {
			return Notice{}, err
		}
		var (
			col  *document.Collection
			path string
		)
		if c.deps.Saved != nil {
			p, err := c.deps.Saved.Find(ctx, string(loc))
			if err != nil {
				return Notice{}, err
			}
			col = p.Collection()
		} else {
			data, read, err := c.deps.Adapter.Read(ctx, storage.Request{
				Location: loc,
				Title:    "Open Collection",
				Filters:  storage.CollectionFilters,
			})
			if err != nil {
				return Notice{}, err
			}
			col, err = document.Deserialize(data)
			if err != nil {
				return Notice{}, &storage.IOError{Op: "decode", Location: read, Err: err}
			}
			path = string(read)
		}
		col.Path = path
		c.deps.Workspace.ReplaceCollection(col)
		c.rememberMode(ctx, true)
		return ok(fmt.Sprintf("Opened %q", col.Title)), nil
	})
}

// SaveCollection validates and persists the collection. The modified flag
// is cleared only once the write succeeds.
func (c *Controller) SaveCollection(ctx context.Context) Notice {
	return c.run(ctx, "save-collection", func(ctx context.Context) (Notice, error) {
		ws := c.deps.Workspace
		if ws.Mode() != document.ModeCollection {
			return Notice{}, document.ErrWrongMode
		}
		col := ws.Collection()
		if err := col.Validate(); err != nil {
			return Notice{}, err
		}
		now := c.deps.Now()
		persisted := col.Serialize(now)

		if c.deps.Saved != nil {
			if err := c.deps.Saved.Put(ctx, persisted); err != nil {
				return Notice{}, err
			}
			ws.MarkCollectionSaved(col.Path, now)
			return ok(fmt.Sprintf("Saved %q", col.Title)), nil
		}

		data, err := persisted.Marshal()
		if err != nil {
			return Notice{}, err
		}
		path, err := c.deps.Adapter.Write(ctx, storage.Request{
			Location: storage.Location(col.Path),
			Title:    "Save Collection",
			Filters:  storage.CollectionFilters,
		}, data)
		if err != nil {
			return Notice{}, err
		}
		ws.MarkCollectionSaved(string(path), now)
		return ok("Saved " + string(path)), nil
	})
}

// ExportCollection writes the collection as a folder of chapter files. An
// empty dir prompts.
func (c *Controller) ExportCollection(ctx context.Context, dir storage.Location) Notice {
	return c.run(ctx, "export-collection", func(ctx context.Context) (Notice, error) {
		if c.deps.Exporter == nil {
			return Notice{}, fmt.Errorf("export: %w", storage.ErrUnsupported)
		}
		if c.deps.Workspace.Mode() != document.ModeCollection {
			return Notice{}, document.ErrWrongMode
		}
		path, err := c.deps.Exporter.Directory(ctx, c.deps.Workspace.Collection(), dir)
		if err != nil {
			return Notice{}, err
		}
		return ok("Exported to " + string(path)), nil
	})
}

// AddChapter appends a chapter and selects it.
func (c *Controller) AddChapter(ctx context.Context) Notice {
	return c.run(ctx, "add-chapter", func(context.Context) (Notice, error) {
		ws := c.deps.Workspace
		if ws.Mode() != document.ModeCollection {
			ws.EnterCollectionMode()
		}
		index, err := ws.AddChapter()
		if err != nil {
			return Notice{}, err
		}
		if err := ws.SwitchToChapter(index); err != nil {
			return Notice{}, err
		}
		return ok(""), nil
	})
}

// DeleteChapter removes the chapter at index after confirmation.
func (c *Controller) DeleteChapter(ctx context.Context, index int) Notice {
	return c.run(ctx, "delete-chapter", func(ctx context.Context) (Notice, error) {
		ws := c.deps.Workspace
		state := ws.State()
		if state.Mode != document.ModeCollection {
			return Notice{}, document.ErrWrongMode
		}
		if state.ChapterCount <= 1 {
			return Notice{}, document.ErrLastChapter
		}
		ch, found := ws.Chapter(index)
		if !found {
			return Notice{}, document.ErrChapterIndex
		}
		if !c.deps.Confirm(ctx, fmt.Sprintf("Delete %q?", ch.Title)) {
			return Notice{}, storage.ErrCancelled
		}
		if err := ws.DeleteChapter(index); err != nil {
			return Notice{}, err
		}
		return ok(fmt.Sprintf("Deleted %q", ch.Title)), nil
	})
}

// SelectChapter makes the chapter at index active.
func (c *Controller) SelectChapter(ctx context.Context, index int) Notice {
	return c.run(ctx, "select-chapter", func(context.Context) (Notice, error) {
		return ok(""), c.deps.Workspace.SwitchToChapter(index)
	})
}

func (c *Controller) RenameChapter(ctx context.Context, title string) Notice {
	return c.run(ctx, "rename-chapter", func(context.Context) (Notice, error) {
		return ok(""), c.deps.Workspace.RenameChapter(title)
	})
}

func (c *Controller) RenameCollection(ctx context.Context, title string) Notice {
	return c.run(ctx, "rename-collection", func(context.Context) (Notice, error) {
		return ok(""), c.deps.Workspace.RenameCollection(title)
	})
}

func (c *Controller) ToggleDarkMode(ctx context.Context) Notice {
	return c.prefsCommand(ctx, "toggle-dark-mode", (*prefs.Preferences).ToggleTheme)
}

func (c *Controller) IncreaseFont(ctx context.Context) Notice {
	return c.prefsCommand(ctx, "increase-font", (*prefs.Preferences).IncreaseFont)
}

func (c *Controller) DecreaseFont(ctx context.Context) Notice {
	return c.prefsCommand(ctx, "decrease-font", (*prefs.Preferences).DecreaseFont)
}

func (c *Controller) ResetFont(ctx context.Context) Notice {
	return c.prefsCommand(ctx, "reset-font", (*prefs.Preferences).ResetFont)
}

func (c *Controller) ToggleSidebar(ctx context.Context) Notice {
	return c.prefsCommand(ctx, "toggle-sidebar", (*prefs.Preferences).ToggleSidebar)
}

func (c *Controller) prefsCommand(ctx context.Context, name string, mutate func(*prefs.Preferences)) Notice {
	return c.run(ctx, name, func(ctx context.Context) (Notice, error) {
		return ok(""), c.updatePrefs(ctx, mutate)
	})
}

// CheckRecovery looks for an abandoned autosave worth offering.
func (c *Controller) CheckRecovery(ctx context.Context) (*autosave.Offer, error) {
	if c.deps.Autosave == nil {
		return nil, nil
	}
	return c.deps.Autosave.Check(ctx, c.deps.Now())
}

// AcceptRecovery restores offer into the workspace.
func (c *Controller) AcceptRecovery(ctx context.Context, offer *autosave.Offer) Notice {
	return c.run(ctx, "accept-recovery", func(context.Context) (Notice, error) {
		if c.deps.Autosave == nil || offer == nil {
			return Notice{}, errors.New("no recovery available")
		}
		c.deps.Autosave.Accept(offer)
		return ok("Recovered unsaved work"), nil
	})
}

// DiscardRecovery clears the recovery slot of the active mode.
func (c *Controller) DiscardRecovery(ctx context.Context) Notice {
	return c.run(ctx, "discard-recovery", func(ctx context.Context) (Notice, error) {
		if c.deps.Autosave == nil {
			return ok(""), nil
		}
		return ok(""), c.deps.Autosave.Discard(ctx, c.deps.Workspace.Mode())
	})
}

// Recover runs the startup recovery check, asking through Confirm whether
// to restore an offer. It reports whether anything was restored.
func (c *Controller) Recover(ctx context.Context) (bool, error) {
	offer, err := c.CheckRecovery(ctx)
	if err != nil || offer == nil {
		return false, err
	}
	question := fmt.Sprintf("Recover unsaved work from %s ago?", offer.Age.Round(time.Second))
	if !c.deps.Confirm(ctx, question) {
		if notice := c.DiscardRecovery(ctx); notice.Failed() {
			return false, errors.New(notice.Message)
		}
		return false, nil
	}
	c.AcceptRecovery(ctx, offer)
	return true, nil
}
