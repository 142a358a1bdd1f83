package document

import (
	"strings"
	"unicode/utf8"
)

// Stats summarises a block of text for the status bar.
type Stats struct {
	Words      int
	Characters int
	Lines      int
}

// Count computes word, character and line totals.
func Count(text string) Stats {
	lines := 1
	if text != "" {
		lines = strings.Count(text, "\n") + 1
	}
	return Stats{
		Words:      len(strings.Fields(text)),
		Characters: utf8.RuneCountInString(text),
		Lines:      lines,
	}
}
