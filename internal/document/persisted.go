package document

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is written into every collection file. Files without a
// version field predate it and are read as version 1.
const SchemaVersion = 1

// Persisted is the on-disk collection shape shared by saved collection
// files, export metadata and the saved-collections index.
type Persisted struct {
	Version  int        `json:"version,omitempty"`
	Title    string     `json:"title"`
	Chapters []Chapter  `json:"chapters"`
	SavedAt  *time.Time `json:"savedAt,omitempty"`
}

// Marshal encodes p as indented UTF-8 JSON.
func (p Persisted) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Collection rebuilds an unmodified collection positioned on its first
// chapter.
func (p Persisted) Collection() *Collection {
	c := &Collection{
		Title:    p.Title,
		Chapters: append([]Chapter(nil), p.Chapters...),
	}
	if len(c.Chapters) == 0 {
		c.Chapters = []Chapter{defaultChapter(1)}
	}
	if p.SavedAt != nil {
		c.SavedAt = *p.SavedAt
	}
	return c
}

// Deserialize parses a collection file.
func Deserialize(data []byte) (*Collection, error) {
	p, err := ParsePersisted(data)
	if err != nil {
		return nil, err
	}
	return p.Collection(), nil
}

// ParsePersisted decodes and version-checks a collection file.
func ParsePersisted(data []byte) (Persisted, error) {
	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return Persisted{}, fmt.Errorf("decode collection: %w", err)
	}
	if p.Version == 0 {
		p.Version = SchemaVersion
	}
	if p.Version > SchemaVersion {
		return Persisted{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}
	return p, nil
}
