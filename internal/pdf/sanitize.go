// Package pdf fills the apprentice's report form: it imports the first page
// of a PDF template and draws the report text into fixed regions.
package pdf

import "strings"

var typography = strings.NewReplacer(
	"•", "-",
	"–", "-",
	"—", "-",
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"…", "...",
)

// Sanitize maps typographic punctuation to ASCII and drops every rune the
// standard Helvetica encoding cannot draw. Line breaks are kept.
func Sanitize(s string) string {
	s = typography.Replace(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r':
			return r
		case r >= 0x20 && r <= 0x7E:
			return r
		case r >= 0xA0 && r <= 0xFF:
			return r
		}
		return -1
	}, s)
}
