package tolino

import (
	"errors"
	"fmt"
)

// ErrNothingImported is wrapped by every ParseError that leaves the caller with no records.
var ErrNothingImported = errors.New("nothing imported")

// ParseError reports a notes export that cannot produce a single record: the file is
// missing, unreadable, empty, or none of its entries are well formed.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse notes"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil && !errors.Is(e.Err, ErrNothingImported) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type SkipReason string

const (
	SkipMissingBook   SkipReason = "missing book line"
	SkipMissingKind   SkipReason = "missing page line"
	SkipMissingDate   SkipReason = "missing date line"
	SkipBookmark      SkipReason = "bookmark without text"
	SkipEmptyBookName SkipReason = "empty book name"
)

// SkippedRecordWarning describes one entry that was left out of the output.
// Entry is the zero-based position of the entry in the export (parser) or in the
// record sequence (aggregator).
type SkippedRecordWarning struct {
	Entry    int        `json:"entry" yaml:"entry"`
	BookName string     `json:"book_name,omitempty" yaml:"book_name,omitempty"`
	Reason   SkipReason `json:"reason" yaml:"reason"`
}

func (w SkippedRecordWarning) String() string {
	if w.BookName == "" {
		return fmt.Sprintf("entry %d skipped: %s", w.Entry, w.Reason)
	}
	return fmt.Sprintf("entry %d (%s) skipped: %s", w.Entry, w.BookName, w.Reason)
}
