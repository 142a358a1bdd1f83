package document

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Chapter is one named unit of text inside a collection.
type Chapter struct {
	ID      int    `json:"id" validate:"gte=0"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Collection is the multi-chapter document aggregate. Display order equals
// storage order.
type Collection struct {
	Title               string    `json:"title"`
	Chapters            []Chapter `json:"chapters"`
	CurrentChapterIndex int       `json:"currentChapterIndex"`
	Path                string    `json:"path,omitempty"`
	Modified            bool      `json:"modified"`
	SavedAt             time.Time `json:"savedAt,omitzero"`
}

var validate = validator.New()

type titleRule struct {
	Title    string    `validate:"required"`
	Chapters []Chapter `validate:"min=1,dive"`
}

// NewCollection returns an untitled, unmodified collection holding one
// empty chapter.
func NewCollection() *Collection {
	return &Collection{
		Chapters: []Chapter{defaultChapter(1)},
	}
}

func defaultChapter(id int) Chapter {
	return Chapter{ID: id, Title: fmt.Sprintf("Chapter %d", id)}
}

// Current returns the active chapter, or nil when the collection is empty.
func (c *Collection) Current() *Chapter {
	if c.CurrentChapterIndex < 0 || c.CurrentChapterIndex >= len(c.Chapters) {
		return nil
	}
	return &c.Chapters[c.CurrentChapterIndex]
}

// AddChapter appends a chapter whose id is one greater than every existing
// id and returns its index. The active chapter does not change.
func (c *Collection) AddChapter() int {
	next := 1
	for _, ch := range c.Chapters {
		if ch.ID >= next {
			next = ch.ID + 1
		}
	}
	c.Chapters = append(c.Chapters, defaultChapter(next))
	c.Modified = true
	return len(c.Chapters) - 1
}

// SwitchToChapter stores buffer into the active chapter and only then moves
// the cursor to index.
func (c *Collection) SwitchToChapter(index int, buffer string) error {
	if index < 0 || index >= len(c.Chapters) {
		return fmt.Errorf("%w: %d", ErrChapterIndex, index)
	}
	if current := c.Current(); current != nil && current.Content != buffer {
		current.Content = buffer
		c.Modified = true
	}
	c.CurrentChapterIndex = index
	return nil
}

// DeleteChapter removes the chapter at index. The last remaining chapter
// can never be removed.
func (c *Collection) DeleteChapter(index int) error {
	if len(c.Chapters) <= 1 {
		return ErrLastChapter
	}
	if index < 0 || index >= len(c.Chapters) {
		return fmt.Errorf("%w: %d", ErrChapterIndex, index)
	}
	c.Chapters = append(c.Chapters[:index], c.Chapters[index+1:]...)
	switch {
	case index == c.CurrentChapterIndex:
		c.CurrentChapterIndex = max(0, index-1)
	case index < c.CurrentChapterIndex:
		c.CurrentChapterIndex--
	}
	c.Modified = true
	return nil
}

// RenameChapter retitles the active chapter.
func (c *Collection) RenameChapter(title string) {
	if current := c.Current(); current != nil {
		current.Title = title
		c.Modified = true
	}
}

// RenameCollection retitles the collection.
func (c *Collection) RenameCollection(title string) {
	c.Title = title
	c.Modified = true
}

// Validate rejects collections that cannot be saved or exported.
func (c *Collection) Validate() error {
	rule := titleRule{Title: strings.TrimSpace(c.Title), Chapters: c.Chapters}
	if err := validate.Struct(rule); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Title" {
					return ErrTitleRequired
				}
			}
		}
		return fmt.Errorf("invalid collection: %w", err)
	}
	return nil
}

// MarkSaved records a successful explicit save.
func (c *Collection) MarkSaved(path string, at time.Time) {
	if path != "" {
		c.Path = path
	}
	c.SavedAt = at
	c.Modified = false
}

// IsBlank reports whether no chapter holds any text.
func (c *Collection) IsBlank() bool {
	for _, ch := range c.Chapters {
		if ch.Content != "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *Collection) Clone() *Collection {
	clone := *c
	clone.Chapters = append([]Chapter(nil), c.Chapters...)
	return &clone
}

// Serialize produces the persisted shape, stamped with the save time.
func (c *Collection) Serialize(now time.Time) Persisted {
	savedAt := now.UTC()
	return Persisted{
		Version:  SchemaVersion,
		Title:    c.Title,
		Chapters: append([]Chapter(nil), c.Chapters...),
		SavedAt:  &savedAt,
	}
}
