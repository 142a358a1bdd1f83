package app

import (
	"context"
	"errors"

	"github.com/csheth/blink/internal/document"
	"github.com/csheth/blink/internal/storage"
)

// NoticeKind classifies the outcome of a command.
type NoticeKind string

const (
	NoticeOK         NoticeKind = "ok"
	NoticeCancelled  NoticeKind = "cancelled"
	NoticeIO         NoticeKind = "io"
	NoticeValidation NoticeKind = "validation"
)

// Notice is the user-visible result of a command. Cancelled notices carry
// no message; hosts show nothing for them.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

func (n Notice) OK() bool { return n.Kind == NoticeOK }

// Failed reports whether the notice should be shown as an error.
func (n Notice) Failed() bool { return n.Kind == NoticeIO || n.Kind == NoticeValidation }

func ok(message string) Notice { return Notice{Kind: NoticeOK, Message: message} }

// Classify maps an error onto the notice taxonomy. A nil error is OK.
func Classify(err error) Notice {
	switch {
	case err == nil:
		return Notice{Kind: NoticeOK}
	case errors.Is(err, storage.ErrCancelled), errors.Is(err, context.Canceled):
		return Notice{Kind: NoticeCancelled}
	case document.IsValidation(err):
		return Notice{Kind: NoticeValidation, Message: validationMessage(err)}
	default:
		return Notice{Kind: NoticeIO, Message: err.Error()}
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, document.ErrLastChapter):
		return "Cannot delete the last chapter"
	case errors.Is(err, document.ErrTitleRequired):
		return "Please enter a collection title"
	}
	return err.Error()
}
