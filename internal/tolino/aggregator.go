package tolino

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mrlokans/tolino-notes/internal/entities"
)

const (
	frontMatterDelimiter = "---"
	entryDelimiter       = "---"
	typeMarker           = "Tolino"
	createdDateLayout    = "2006-01-02"
)

// NoteAggregator groups annotation records into one markdown document per book.
// It keeps no state between calls and is safe for concurrent use.
type NoteAggregator struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewNoteAggregator(logger *slog.Logger) *NoteAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteAggregator{logger: logger, now: time.Now}
}

// WithClock returns a copy of the aggregator that reads the creation date from now.
func (a *NoteAggregator) WithClock(now func() time.Time) *NoteAggregator {
	clone := *a
	clone.now = now
	return &clone
}

type bookBuilder struct {
	doc  entities.BookDocument
	body strings.Builder
}

// Aggregate returns one document per distinct book name, in order of first occurrence.
// Records with an empty book name are logged and dropped.
func (a *NoteAggregator) Aggregate(records []entities.AnnotationRecord, tagList string) []entities.BookDocument {
	docs, _ := a.AggregateWithWarnings(records, tagList)
	return docs
}

func (a *NoteAggregator) AggregateWithWarnings(records []entities.AnnotationRecord, tagList string) ([]entities.BookDocument, []SkippedRecordWarning) {
	created := a.now()
	tags := NormalizeTags(tagList)

	books := orderedmap.New[string, *bookBuilder]()
	var warnings []SkippedRecordWarning

	for i, record := range records {
		if strings.TrimSpace(record.BookName) == "" {
			warnings = append(warnings, SkippedRecordWarning{Entry: i, Reason: SkipEmptyBookName})
			a.logger.Warn("skipping annotation without book name", "record", i, "page", record.Page)
			continue
		}

		book, seen := books.Get(record.BookName)
		if !seen {
			identity := SplitBookName(record.BookName)
			book = &bookBuilder{
				doc: entities.BookDocument{
					BookName: record.BookName,
					Title:    identity.Title,
					Author:   identity.Author(),
					Matched:  identity.Matched,
					Created:  created,
				},
			}
			writeHeader(&book.body, created, book.doc.Title, book.doc.Author, tags)
			books.Set(record.BookName, book)
		}

		writeEntry(&book.body, record)
		book.doc.Entries++
	}

	docs := make([]entities.BookDocument, 0, books.Len())
	for pair := books.Oldest(); pair != nil; pair = pair.Next() {
		doc := pair.Value.doc
		doc.Body = pair.Value.body.String()
		docs = append(docs, doc)
	}

	return docs, warnings
}

func writeHeader(sb *strings.Builder, created time.Time, title, author, tags string) {
	fmt.Fprintf(sb, "%s\n", frontMatterDelimiter)
	fmt.Fprintf(sb, "Created: %s\n", created.Format(createdDateLayout))
	fmt.Fprintf(sb, "Type: %s\n", typeMarker)
	fmt.Fprintf(sb, "Title: %s\n", title)
	fmt.Fprintf(sb, "Author: %s\n", author)
	fmt.Fprintf(sb, "Tags: %s\n", tags)
	fmt.Fprintf(sb, "%s\n\n", frontMatterDelimiter)
}

func writeEntry(sb *strings.Builder, record entities.AnnotationRecord) {
	fmt.Fprintf(sb, "**Page %s**, Created on %s %s\n", record.Page, record.Date, record.Time)
	fmt.Fprintf(sb, "%s\n", record.NoteText)
	fmt.Fprintf(sb, "%s\n", entryDelimiter)
}
