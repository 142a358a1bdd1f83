package tui

import (
	"context"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/blink/internal/app"
	"github.com/csheth/blink/internal/autosave"
	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/storage"
)

type noticeMsg struct {
	notice app.Notice
}

type recoveryMsg struct {
	restored bool
	err      error
}

type autosaveMsg struct {
	event autosave.Event
}

type command func(*app.Controller, context.Context) app.Notice

func controllerJob(ctrl *app.Controller, run command) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		notice := run(ctrl, ctx)
		if notice.Failed() {
			return noticeMsg{notice: notice}, noticeError(notice)
		}
		return noticeMsg{notice: notice}, nil
	}
}

func recoveryJob(ctrl *app.Controller) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		restored, err := ctrl.Recover(ctx)
		return recoveryMsg{restored: restored, err: err}, err
	}
}

func waitForAutosave(events <-chan autosave.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return autosaveMsg{event: event}
	}
}

type noticeError app.Notice

func (e noticeError) Error() string { return e.Message }

func openFile(ctrl *app.Controller, ctx context.Context) app.Notice {
	return ctrl.OpenFile(ctx, "")
}

func openCollection(ctrl *app.Controller, ctx context.Context) app.Notice {
	return ctrl.OpenCollection(ctx, "")
}

func exportCollection(ctrl *app.Controller, ctx context.Context) app.Notice {
	return ctrl.ExportCollection(ctx, "")
}

func toggleMode(ctrl *app.Controller, ctx context.Context) app.Notice {
	return ctrl.SetCollectionMode(ctx, ctrl.Workspace().Mode() != document.ModeCollection)
}

func selectChapter(index int) command {
	return func(ctrl *app.Controller, ctx context.Context) app.Notice {
		return ctrl.SelectChapter(ctx, index)
	}
}

func deleteChapter(index int) command {
	return func(ctrl *app.Controller, ctx context.Context) app.Notice {
		return ctrl.DeleteChapter(ctx, index)
	}
}

func renameChapter(title string) command {
	title = strings.TrimSpace(title)
	return func(ctrl *app.Controller, ctx context.Context) app.Notice {
		return ctrl.RenameChapter(ctx, title)
	}
}

func renameCollection(title string) command {
	title = strings.TrimSpace(title)
	return func(ctrl *app.Controller, ctx context.Context) app.Notice {
		return ctrl.RenameCollection(ctx, title)
	}
}

func openPath(path string) command {
	return func(ctrl *app.Controller, ctx context.Context) app.Notice {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return ctrl.OpenCollection(ctx, storage.Location(path))
		}
		return ctrl.OpenFile(ctx, storage.Location(path))
	}
}
