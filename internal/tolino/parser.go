package tolino

import (
	"bufio"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mrlokans/tolino-notes/internal/entities"
)

const maxLineSize = 1024 * 1024

// Regex patterns for the notes.txt layout
var (
	// "-----------------------------------" between entries. Shorter dash runs such as a
	// "---" scene break are note text.
	separatorPattern = regexp.MustCompile(`^\s*-{10,}\s*$`)

	// "Highlight on page 12: "text"", "Note on page 7: my note", "Bookmark on page 3"
	// German firmware: "Markierung auf Seite 12: „text“", "Notiz auf Seite 7: ...", "Lesezeichen auf Seite 3"
	kindPattern = regexp.MustCompile(`(?i)^(highlight|note|bookmark|markierung|notiz|lesezeichen)\s+(?:on\s+page|auf\s+seite)\s+([^\s:]+)\s*(?::\s?(.*))?$`)

	// "Added on 03/14/2023 | 21:05" or "Hinzugefügt am 14.03.2023 | 21:05"
	addedPattern = regexp.MustCompile(`(?i)^(?:added\s+on|hinzugefügt\s+am)\s+([^\s|].*?)\s*\|\s*(\S.*?)\s*$`)
)

// NoteParser turns the contents of a Tolino notes.txt export into annotation records.
//
// The input must already be normalized with Normalize: decoded as UTF-8 and with every
// U+00A0 replaced by a regular space.
type NoteParser struct {
	logger *slog.Logger
}

func NewNoteParser(logger *slog.Logger) *NoteParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteParser{logger: logger}
}

// Parse returns the well-formed records of the export in file order.
func (p *NoteParser) Parse(rawText string) ([]entities.AnnotationRecord, error) {
	records, _, err := p.ParseWithWarnings(rawText)
	return records, err
}

// ParseWithWarnings is Parse that also returns a warning for every entry it skipped.
// It fails with a ParseError only when the text is empty or holds no valid entry.
func (p *NoteParser) ParseWithWarnings(rawText string) ([]entities.AnnotationRecord, []SkippedRecordWarning, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, nil, &ParseError{Reason: "notes file is empty", Err: ErrNothingImported}
	}

	blocks, err := splitEntries(rawText)
	if err != nil {
		return nil, nil, &ParseError{Reason: "failed to read notes", Err: err}
	}

	var records []entities.AnnotationRecord
	var warnings []SkippedRecordWarning

	for i, block := range blocks {
		record, reason := parseEntry(block)
		if reason != "" {
			warning := SkippedRecordWarning{Entry: i, BookName: record.BookName, Reason: reason}
			warnings = append(warnings, warning)
			p.logger.Warn("skipping notes entry", "entry", i, "book", record.BookName, "reason", string(reason))
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, warnings, &ParseError{
			Reason: fmt.Sprintf("no valid annotations among %d entries", len(blocks)),
			Err:    ErrNothingImported,
		}
	}

	return records, warnings, nil
}

// splitEntries cuts the export on separator lines. Blocks made only of blank lines are
// dropped; each returned block has its leading and trailing blank lines removed.
func splitEntries(rawText string) ([][]string, error) {
	text := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(rawText)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var blocks [][]string
	var current []string

	flush := func() {
		if trimmed := trimBlankLines(current); len(trimmed) > 0 {
			blocks = append(blocks, trimmed)
		}
		current = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if separatorPattern.MatchString(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Last entry when the file does not end with a separator
	flush()

	return blocks, nil
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func parseEntry(lines []string) (entities.AnnotationRecord, SkipReason) {
	// First line: book name, kept verbatim apart from surrounding whitespace
	bookName := strings.TrimSpace(lines[0])
	if kindPattern.MatchString(bookName) {
		return entities.AnnotationRecord{}, SkipMissingBook
	}
	record := entities.AnnotationRecord{BookName: bookName}

	if len(lines) < 2 {
		return record, SkipMissingKind
	}

	// Second line: kind and page, optionally followed by the start of the text
	kindMatch := kindPattern.FindStringSubmatch(strings.TrimSpace(lines[1]))
	if kindMatch == nil {
		return record, SkipMissingKind
	}
	record.Kind = parseKind(kindMatch[1])
	record.Page = kindMatch[2]

	// Date line: the last "Added on" line closes the entry
	dateIdx := -1
	for i := len(lines) - 1; i >= 2; i-- {
		if m := addedPattern.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			record.Date, record.Time = m[1], m[2]
			dateIdx = i
			break
		}
	}
	if dateIdx == -1 {
		return record, SkipMissingDate
	}

	if record.Kind == entities.AnnotationKindBookmark {
		return record, SkipBookmark
	}

	textLines := make([]string, 0, dateIdx-1)
	textLines = append(textLines, kindMatch[3])
	for _, line := range lines[2:dateIdx] {
		textLines = append(textLines, strings.TrimRight(line, " \t"))
	}
	record.NoteText = strings.TrimSpace(strings.Join(textLines, "\n"))

	return record, ""
}

func parseKind(word string) entities.AnnotationKind {
	switch strings.ToLower(word) {
	case "note", "notiz":
		return entities.AnnotationKindNote
	case "bookmark", "lesezeichen":
		return entities.AnnotationKindBookmark
	default:
		return entities.AnnotationKindHighlight
	}
}
