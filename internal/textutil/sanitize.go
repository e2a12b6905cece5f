package textutil

import (
	"strings"
	"unicode"
)

// unsafeNameReplacer maps characters that break paths on common filesystems.
var unsafeNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName turns a chapter or slide label into a single path segment.
// Path separators, colons and asterisks become dashes; other unsafe characters
// and control characters are removed; whitespace runs become one underscore.
// Returns "" when nothing printable remains.
func SanitizeFileName(name string) string {
	name = unsafeNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), "_")
	return strings.Trim(name, "._")
}
