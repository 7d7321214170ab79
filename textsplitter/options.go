package textsplitter

import (
	"fmt"
	"unicode/utf8"
)

// Options is a struct that contains options for a text splitter.
type Options struct {
	// ChunkSize is the upper bound on chunk length as measured by LenFunc.
	ChunkSize int
	// ChunkOverlap is the number of characters copied from the end of a
	// chunk to the start of the next one.
	ChunkOverlap int
	// Separators in priority order.
	Separators []Separator
	// KeepSeparator attaches each separator to the text preceding it.
	KeepSeparator bool
	// StripWhitespace collapses blank-line runs before splitting and trims
	// every chunk afterwards.
	StripWhitespace bool
	// AddStartIndex records each chunk's rune offset under StartIndexKey.
	AddStartIndex bool
	LenFunc       func(string) int
	Logger        Logger

	// SecondSplitter re-splits oversized markdown sections.
	SecondSplitter TextSplitter
	LevelHeaderFn  LevelHeaderFn
}

// LevelHeaderFn maps a markdown heading to the metadata attached to every
// chunk under it. Returning nil adds nothing.
type LevelHeaderFn func(level int, text string) map[string]any

// DefaultOptions returns the default options for all text splitter.
func DefaultOptions() Options {
	return Options{
		ChunkSize:       _defaultTokenChunkSize,
		ChunkOverlap:    _defaultTokenChunkOverlap,
		Separators:      Literals("\n\n", "\n", " ", ""),
		KeepSeparator:   true,
		StripWhitespace: true,
		LenFunc:         utf8.RuneCountInString,
		Logger:          nopLogger{},
	}
}

const (
	_defaultTokenChunkSize    = 512
	_defaultTokenChunkOverlap = 100
)

// SentenceSeparators prefers sentence boundaries, then paragraphs, lines,
// words and finally single characters.
func SentenceSeparators() []Separator {
	return append([]Separator{Pattern(`(?<=[.?!])\s+(?=[A-Z])`)}, Literals("\n\n", "\n", " ", "")...)
}

// Validate reports ErrInvalidConfiguration for an unusable size/overlap pair.
func (o Options) Validate() error {
	switch {
	case o.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size %d must be greater than zero", ErrInvalidConfiguration, o.ChunkSize)
	case o.ChunkOverlap < 0:
		return fmt.Errorf("%w: chunk overlap %d cannot be negative", ErrInvalidConfiguration, o.ChunkOverlap)
	case o.ChunkOverlap >= o.ChunkSize:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfiguration, o.ChunkOverlap, o.ChunkSize)
	}
	return nil
}

// Option is a function that can be used to set options for a text splitter.
type Option func(*Options)

// WithChunkSize sets the chunk size for a text splitter.
func WithChunkSize(chunkSize int) Option {
	return func(o *Options) {
		o.ChunkSize = chunkSize
	}
}

// WithChunkOverlap sets the chunk overlap for a text splitter.
func WithChunkOverlap(chunkOverlap int) Option {
	return func(o *Options) {
		o.ChunkOverlap = chunkOverlap
	}
}

// WithSeparators sets the separators for a text splitter.
func WithSeparators(separators []Separator) Option {
	return func(o *Options) {
		o.Separators = separators
	}
}

// WithKeepSeparator controls whether separators stay in the chunk text.
func WithKeepSeparator(keep bool) Option {
	return func(o *Options) {
		o.KeepSeparator = keep
	}
}

// WithStripWhitespace controls blank-line normalization and chunk trimming.
func WithStripWhitespace(strip bool) Option {
	return func(o *Options) {
		o.StripWhitespace = strip
	}
}

// WithAddStartIndex makes the splitter record chunk offsets in metadata.
func WithAddStartIndex(add bool) Option {
	return func(o *Options) {
		o.AddStartIndex = add
	}
}

// WithLenFunc sets the function used to measure chunk size.
func WithLenFunc(lenFunc func(string) int) Option {
	return func(o *Options) {
		o.LenFunc = lenFunc
	}
}

// WithLogger sets the logger that receives oversized-chunk warnings.
func WithLogger(logger Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSecondSplitter sets the splitter used for markdown sections that do
// not fit in a single chunk.
func WithSecondSplitter(secondSplitter TextSplitter) Option {
	return func(o *Options) {
		o.SecondSplitter = secondSplitter
	}
}

// WithLevelHeaderFn sets the markdown heading metadata function.
func WithLevelHeaderFn(levelHeaderFn LevelHeaderFn) Option {
	return func(o *Options) {
		o.LevelHeaderFn = levelHeaderFn
	}
}
