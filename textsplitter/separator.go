package textsplitter

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// SeparatorKind tags how a Separator is matched against text.
type SeparatorKind int

const (
	// LiteralSeparator matches its text exactly. The empty literal matches
	// between every pair of characters.
	LiteralSeparator SeparatorKind = iota
	// PatternSeparator matches a regular expression. Lookaround is supported.
	PatternSeparator
)

func (k SeparatorKind) String() string {
	switch k {
	case LiteralSeparator:
		return "literal"
	case PatternSeparator:
		return "pattern"
	default:
		return fmt.Sprintf("SeparatorKind(%d)", int(k))
	}
}

// Separator is a candidate split boundary. The position of a separator in
// Options.Separators is its priority: earlier entries are tried first.
type Separator struct {
	kind SeparatorKind
	text string
	re   *regexp2.Regexp
}

// Literal returns a separator matching text verbatim.
func Literal(text string) Separator {
	return Separator{kind: LiteralSeparator, text: text}
}

// Literals converts a list of strings into literal separators, keeping order.
func Literals(texts ...string) []Separator {
	seps := make([]Separator, 0, len(texts))
	for _, t := range texts {
		seps = append(seps, Literal(t))
	}
	return seps
}

// CompilePattern returns a separator matching the regular expression expr.
func CompilePattern(expr string) (Separator, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return Separator{}, fmt.Errorf("textsplitter: compile separator pattern %q: %w", expr, err)
	}
	return Separator{kind: PatternSeparator, text: expr, re: re}, nil
}

// Pattern is like CompilePattern but panics if expr cannot be compiled.
func Pattern(expr string) Separator {
	sep, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return sep
}

// Kind reports whether the separator is a literal or a pattern.
func (s Separator) Kind() SeparatorKind { return s.kind }

// String returns the literal text or the pattern source.
func (s Separator) String() string { return s.text }

// match is a [start, end) range of rune offsets.
type match struct {
	start, end int
}

// find returns the occurrences of the separator inside src[lo:hi], left to
// right and non-overlapping, as absolute rune offsets. Zero-width
// occurrences on the span edges cannot split it and are not reported.
func (s Separator) find(src []rune, lo, hi int) []match {
	if s.kind == PatternSeparator {
		return s.findPattern(src, lo, hi)
	}
	sep := []rune(s.text)
	if len(sep) == 0 {
		if hi-lo < 2 {
			return nil
		}
		matches := make([]match, 0, hi-lo-1)
		for i := lo + 1; i < hi; i++ {
			matches = append(matches, match{i, i})
		}
		return matches
	}
	var matches []match
	for i := lo; i+len(sep) <= hi; {
		if runesHavePrefix(src[i:hi], sep) {
			matches = append(matches, match{i, i + len(sep)})
			i += len(sep)
			continue
		}
		i++
	}
	return matches
}

// findPattern matches from lo within src[:hi], so lookbehind still sees the
// text before the span.
func (s Separator) findPattern(src []rune, lo, hi int) []match {
	if s.re == nil {
		return nil
	}
	var matches []match
	m, err := s.re.FindRunesMatchStartingAt(src[:hi], lo)
	for m != nil && err == nil {
		start := m.Index
		end := start + m.Length
		if end > start || (start > lo && start < hi) {
			matches = append(matches, match{start, end})
		}
		m, err = s.re.FindNextMatch(m)
	}
	return matches
}

func runesHavePrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
