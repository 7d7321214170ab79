package textsplitter

import (
	"github.com/dlclark/regexp2"
)

var blankLineRun = regexp2.MustCompile(`\n{2,}`, regexp2.None)

// NormalizeNewlines collapses every run of two or more newlines into a single
// blank line.
func NormalizeNewlines(text string) string {
	normalized, err := blankLineRun.Replace(text, "\n\n", -1, -1)
	if err != nil {
		return text
	}
	return normalized
}
