package entities

import "time"

type AnnotationKind string

const (
	AnnotationKindHighlight AnnotationKind = "highlight"
	AnnotationKindNote      AnnotationKind = "note"
	AnnotationKindBookmark  AnnotationKind = "bookmark"
)

// AnnotationRecord is a single entry extracted from a Tolino notes.txt export.
// Every field is kept exactly as written in the source file.
type AnnotationRecord struct {
	BookName string         `json:"book_name" yaml:"book_name"`
	Kind     AnnotationKind `json:"kind" yaml:"kind"`
	Page     string         `json:"page" yaml:"page"`
	Date     string         `json:"date" yaml:"date"`
	Time     string         `json:"time" yaml:"time"`
	NoteText string         `json:"note_text" yaml:"note_text"`
}

// BookDocument is the consolidated markdown note for one book.
// BookName is the grouping key; Title and Author only feed the header and file name.
type BookDocument struct {
	BookName string `json:"book_name" yaml:"book_name"`
	Title    string `json:"title" yaml:"title"`
	Author   string `json:"author" yaml:"author"`
	// Matched reports whether BookName followed the "Title (Last, First)" convention.
	Matched bool      `json:"matched" yaml:"matched"`
	Entries int       `json:"entries" yaml:"entries"`
	Created time.Time `json:"created" yaml:"created"`
	Body    string    `json:"body" yaml:"-"`
}
