package tolino

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NotesFileName is the file the reader writes its annotations to, at the root of the drive.
const NotesFileName = "notes.txt"

// Normalize prepares raw export bytes for NoteParser.Parse. It decodes the bytes as
// UTF-8 (honouring a UTF-8 or UTF-16 byte order mark when present) and replaces every
// non-breaking space with a regular space.
func Normalize(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode notes: %w", err)
	}
	return strings.ReplaceAll(string(decoded), "\u00a0", " "), nil
}
