package property

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	octetPattern      = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	whitespacePattern = regexp.MustCompile(`[\r\n\t ]+`)
)

// SanitizeText cleans a single-line text value from a form: invalid UTF-8
// and control characters are dropped, tags and percent-encoded octets are
// stripped, and whitespace runs collapse to one space.
func SanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	if strings.Contains(s, "<") {
		s = tagPattern.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, "<", "&lt;")
	}
	s = octetPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
