package tolino

import (
	"regexp"
	"strings"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Matches "Title (LastName, FirstName)"
var bookNamePattern = regexp.MustCompile(`^(.*?)\s\((.*?),\s(.*?)\)$`)

// BookIdentity is the cosmetic split of a raw book name. It never takes part in grouping.
type BookIdentity struct {
	Title     string
	LastName  string
	FirstName string
	Matched   bool
}

func SplitBookName(bookName string) BookIdentity {
	matches := bookNamePattern.FindStringSubmatch(bookName)
	if len(matches) != 4 {
		return BookIdentity{Title: UnknownTitle}
	}
	return BookIdentity{
		Title:     matches[1],
		LastName:  matches[2],
		FirstName: matches[3],
		Matched:   true,
	}
}

// Author returns "FirstName LastName", or UnknownAuthor when the book name did not match.
func (b BookIdentity) Author() string {
	if !b.Matched {
		return UnknownAuthor
	}
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// DocumentFileName returns the unsanitized markdown file name for a book:
// "<title> - <firstName> <lastName>.md", or "<bookName>.md" when the naming convention
// did not match.
func DocumentFileName(bookName string) string {
	identity := SplitBookName(bookName)
	if !identity.Matched {
		return bookName + ".md"
	}
	return identity.Title + " - " + identity.Author() + ".md"
}

// NormalizeTags turns a raw setting like "#fiction, #2024" into "fiction, 2024".
func NormalizeTags(raw string) string {
	var tags []string
	for _, token := range strings.Split(raw, ",") {
		tag := strings.TrimLeft(strings.TrimSpace(token), "#")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return strings.Join(tags, ", ")
}
