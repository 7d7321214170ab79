package textsplitter

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// NewMarkdownTextSplitter creates a new MarkdownTextSplitter.
func NewMarkdownTextSplitter(opts ...Option) *MarkdownTextSplitter {
	options := DefaultOptions()
	for _, o := range opts {
		o(&options)
	}

	sp := &MarkdownTextSplitter{
		ChunkSize:      options.ChunkSize,
		ChunkOverlap:   options.ChunkOverlap,
		SecondSplitter: options.SecondSplitter,
		LevelHeaderFn:  options.LevelHeaderFn,
		LenFunc:        options.LenFunc,
		AddStartIndex:  options.AddStartIndex,
	}

	if sp.SecondSplitter == nil {
		sp.SecondSplitter = NewRecursiveCharacter(
			WithChunkSize(options.ChunkSize),
			WithChunkOverlap(options.ChunkOverlap),
			WithSeparators(Literals(
				"\n\n", // new line
				"\n",   // new line
				" ",    // space
			)),
			WithLenFunc(options.LenFunc),
			WithAddStartIndex(options.AddStartIndex),
			WithLogger(options.Logger),
		)
	}

	return sp
}

// MarkdownTextSplitter splits markdown into one section per top-level
// heading. Sections that fit ChunkSize keep their source text verbatim. Text
// before the first heading becomes its own section unless it is blank, and
// headings without text do not open a section.
type MarkdownTextSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	// SecondSplitter splits sections longer than ChunkSize.
	SecondSplitter TextSplitter
	LevelHeaderFn  LevelHeaderFn
	// LenFunc measures sections. Nil counts characters.
	LenFunc func(string) int
	// AddStartIndex records the rune offset of each chunk under
	// StartIndexKey. Chunks of a re-split section add the offset the second
	// splitter reports, when it reports one, to the section's offset.
	AddStartIndex bool
}

// heading is a top-level heading and the byte offset of its first line.
type heading struct {
	offset int
	level  int
	title  string
}

// SplitText splits a text into multiple text.
func (m *MarkdownTextSplitter) SplitText(s string) ([]Chunk, error) {
	if err := (Options{ChunkSize: m.ChunkSize, ChunkOverlap: m.ChunkOverlap}).Validate(); err != nil {
		return nil, err
	}

	source := []byte(s)
	headings := findHeadings(source)

	var chunks []Chunk
	var headers []string

	end := len(source)
	if len(headings) > 0 {
		end = headings[0].offset
	}
	if preamble := s[:end]; strings.TrimSpace(preamble) != "" {
		sectionChunks, err := m.splitSection(preamble, 0, headers)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sectionChunks...)
	}

	for i, h := range headings {
		if h.level != len(headers) {
			newHeaders := make([]string, h.level)
			copy(newHeaders, headers)
			headers = newHeaders
		}
		headers[h.level-1] = h.title

		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].offset
		}
		sectionChunks, err := m.splitSection(s[h.offset:end], utf8.RuneCountInString(s[:h.offset]), headers)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sectionChunks...)
	}

	return chunks, nil
}

// splitSection emits a section as one chunk when it fits and hands it to the
// second splitter otherwise. Every resulting chunk gets the header metadata.
// start is the rune offset of the section in the text.
func (m *MarkdownTextSplitter) splitSection(section string, start int, headers []string) ([]Chunk, error) {
	if m.length(section) <= m.ChunkSize {
		metadata := m.headerMetadata(headers)
		if m.AddStartIndex {
			metadata[StartIndexKey] = start
		}
		return []Chunk{{Text: section, Metadata: metadata}}, nil
	}

	parts, err := m.SecondSplitter.SplitText(section)
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		metadata := m.headerMetadata(headers)
		for k, v := range part.Metadata {
			metadata[k] = v
		}
		if m.AddStartIndex {
			offset, _ := part.Metadata[StartIndexKey].(int)
			metadata[StartIndexKey] = start + offset
		}
		chunks = append(chunks, Chunk{Text: part.Text, Metadata: metadata})
	}
	return chunks, nil
}

func (m *MarkdownTextSplitter) length(s string) int {
	if m.LenFunc == nil {
		return utf8.RuneCountInString(s)
	}
	return m.LenFunc(s)
}

// headerMetadata returns metadata related to the current set of headers.
func (m *MarkdownTextSplitter) headerMetadata(headers []string) map[string]any {
	if m.LevelHeaderFn == nil {
		return map[string]any{}
	}
	metadata := make(map[string]any, len(headers))
	for i, title := range headers {
		for k, v := range m.LevelHeaderFn(i+1, title) {
			metadata[k] = v
		}
	}
	return metadata
}

// findHeadings parses the markdown and returns its top-level headings in
// document order. Lines that only look like headings, such as those inside
// fenced code, are not reported.
func findHeadings(source []byte) []heading {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var headings []heading
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		h, ok := node.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		title := headingTitle(h, source)
		if title == "" {
			continue
		}
		start := h.Lines().At(0).Start
		headings = append(headings, heading{
			offset: bytes.LastIndexByte(source[:start], '\n') + 1,
			level:  h.Level,
			title:  title,
		})
	}
	return headings
}

func headingTitle(h *ast.Heading, source []byte) string {
	lines := h.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(line.Value(source))))
	}
	return strings.Join(parts, " ")
}
