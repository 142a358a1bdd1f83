package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Options selects where log lines go. A TUI host must log to a file because
// stdout belongs to the screen.
type Options struct {
	Level string
	File  string
}

// New builds a logger writing to File when set, otherwise to the console.
func New(opts Options) *log.Logger {
	level := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if opts.Level == "" {
		level = log.InfoLevel
	}
	logger := &log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
	}
	if opts.File != "" {
		logger.Writer = &log.FileWriter{
			Filename:     opts.File,
			MaxSize:      10 << 20,
			MaxBackups:   3,
			EnsureFolder: true,
		}
		return logger
	}
	logger.Writer = &log.ConsoleWriter{
		ColorOutput:    true,
		EndWithMessage: true,
		Writer:         os.Stderr,
	}
	return logger
}

// Component returns a copy of logger tagging every line with component.
func Component(logger *log.Logger, component string) *log.Logger {
	if logger == nil {
		logger = Discard()
	}
	tagged := *logger
	tagged.Context = log.NewContext(nil).Str("component", component).Value()
	return &tagged
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: log.IOWriter{Writer: io.Discard}}
}
