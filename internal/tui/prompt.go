package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/blink/internal/storage"
)

type promptKind int

const (
	promptText promptKind = iota
	promptConfirm
)

type promptReply struct {
	value string
	err   error
}

type promptRequest struct {
	kind        promptKind
	title       string
	placeholder string
	reply       chan promptReply
}

type promptRequestMsg struct {
	request promptRequest
}

// Prompter stands in for native dialogs. Blocking calls from command
// goroutines are turned into prompt messages for the program and wait for
// the answer typed into the prompt line.
type Prompter struct {
	requests chan promptRequest
}

func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan promptRequest)}
}

func (p *Prompter) ask(ctx context.Context, req promptRequest) (string, error) {
	req.reply = make(chan promptReply, 1)
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case reply := <-req.reply:
		return reply.value, reply.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *Prompter) OpenFile(ctx context.Context, title string, filters []storage.Filter) (string, error) {
	return p.ask(ctx, promptRequest{kind: promptText, title: title, placeholder: "Path to open (" + filterHint(filters) + ")"})
}

func (p *Prompter) SaveFile(ctx context.Context, title string, filters []storage.Filter) (string, error) {
	return p.ask(ctx, promptRequest{kind: promptText, title: title, placeholder: "Path to save (" + filterHint(filters) + ")"})
}

func (p *Prompter) OpenDirectory(ctx context.Context, title string) (string, error) {
	return p.ask(ctx, promptRequest{kind: promptText, title: title, placeholder: "Directory path"})
}

// Confirm asks a yes/no question. Any failure to get an answer counts as
// no.
func (p *Prompter) Confirm(ctx context.Context, question string) bool {
	answer, err := p.ask(ctx, promptRequest{kind: promptConfirm, title: question})
	return err == nil && answer == "y"
}

func (p *Prompter) wait() tea.Cmd {
	return func() tea.Msg {
		return promptRequestMsg{request: <-p.requests}
	}
}

func filterHint(filters []storage.Filter) string {
	var exts []string
	for _, f := range filters {
		for _, ext := range f.Extensions {
			if ext == "*" {
				continue
			}
			exts = append(exts, "."+ext)
		}
	}
	if len(exts) == 0 {
		return "any file"
	}
	return strings.Join(exts, " ")
}

// activePrompt is the prompt line currently shown. Requests from the
// Prompter carry a reply channel; prompts raised by the model itself carry
// a submit callback instead.
type activePrompt struct {
	kind   promptKind
	title  string
	reply  chan promptReply
	submit func(value string) tea.Cmd
}

func (a activePrompt) answer(value string, err error) tea.Cmd {
	if a.reply != nil {
		a.reply <- promptReply{value: value, err: err}
		return nil
	}
	if err != nil || a.submit == nil {
		return nil
	}
	return a.submit(value)
}
