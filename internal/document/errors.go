package document

import "errors"

var (
	// ErrLastChapter is returned when deleting the only chapter of a collection.
	ErrLastChapter = errors.New("cannot delete the last chapter: a collection must have at least one chapter")
	// ErrChapterIndex is returned for chapter indexes outside the chapter list.
	ErrChapterIndex = errors.New("chapter index out of range")
	// ErrTitleRequired is returned when a collection is saved or exported without a title.
	ErrTitleRequired = errors.New("collection title is required")
	// ErrUnsupportedVersion is returned for collection files written by a newer release.
	ErrUnsupportedVersion = errors.New("unsupported collection file version")
	// ErrWrongMode is returned when a collection operation runs in single-file mode or vice versa.
	ErrWrongMode = errors.New("operation not available in the current mode")
)

// IsValidation reports whether err is a validation failure that blocks an
// operation before any I/O takes place.
func IsValidation(err error) bool {
	return errors.Is(err, ErrLastChapter) ||
		errors.Is(err, ErrChapterIndex) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrWrongMode)
}
