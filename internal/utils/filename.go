package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters not allowed in file names on the filesystems the notes end up on
	invalidFilenameChars = regexp.MustCompile(`[/\\?%*:|"<>]`)
	// Control whitespace to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(` {2,}`)
)

const maxFilenameLength = 200

// SanitizeFilename makes a file name stem safe to create on disk.
// Each of / \ ? % * : | " < > is replaced with "-"; line breaks and tabs become spaces.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "-")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Leave room for the extension and collision suffixes
	if len(filename) > maxFilenameLength {
		filename = strings.TrimSpace(truncateUTF8(filename, maxFilenameLength))
	}

	if filename == "" || filename == "." || filename == ".." {
		filename = "Untitled"
	}

	return filename
}

// SanitizeMarkdownFilename sanitizes the stem of a ".md" file name and keeps the extension.
func SanitizeMarkdownFilename(filename string) string {
	return SanitizeFilename(strings.TrimSuffix(filename, ".md")) + ".md"
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	// Step back to a rune boundary
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
