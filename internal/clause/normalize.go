package clause

import (
	"regexp"
	"strings"
	"unicode"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Normalize cleans raw extracted text into the canonical line-oriented form
// the header detectors expect:
//   - non-breaking spaces become regular spaces,
//   - trailing whitespace is stripped from every line,
//   - runs of 3+ newlines collapse to exactly 2.
//
// It always succeeds and is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRightFunc(ln, unicode.IsSpace)
	}
	return blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
