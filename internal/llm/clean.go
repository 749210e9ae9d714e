package llm

import (
	"regexp"
	"strings"
)

var (
	markdownMarks = regexp.MustCompile("[*#`_>]+")
	blankLines    = regexp.MustCompile(`\n{2,}`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw model output into plain explanation text: markdown
// emphasis, heading and quote markers are stripped, literal "\n" escapes
// become real newlines, blank lines collapse, and whitespace runs collapse to
// single spaces. Raw model output is never stored without this pass.
func Clean(text string) string {
	out := markdownMarks.ReplaceAllString(text, "")
	out = strings.ReplaceAll(out, `\n`, "\n")
	out = blankLines.ReplaceAllString(out, "\n")
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
