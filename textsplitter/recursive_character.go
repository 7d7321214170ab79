package textsplitter

import (
	"unicode"

	"github.com/noodnik2/docsplit/schema"
)

// RecursiveCharacter is a text splitter that will split texts recursively by different
// separators. It holds no mutable state and may be shared between goroutines.
type RecursiveCharacter struct {
	Separators      []Separator
	ChunkSize       int
	ChunkOverlap    int
	KeepSeparator   bool
	StripWhitespace bool
	AddStartIndex   bool
	LenFunc         func(string) int
	Logger          Logger
}

// NewRecursiveCharacter creates a new recursive character splitter with default values. By
// default, the separators used are "\n\n", "\n", " " and "". The chunk size is set to 512
// and chunk overlap is set to 100.
func NewRecursiveCharacter(opts ...Option) RecursiveCharacter {
	options := DefaultOptions()
	for _, o := range opts {
		o(&options)
	}
	return newRecursiveCharacter(options)
}

func newRecursiveCharacter(options Options) RecursiveCharacter {
	s := RecursiveCharacter{
		Separators:      options.Separators,
		ChunkSize:       options.ChunkSize,
		ChunkOverlap:    options.ChunkOverlap,
		KeepSeparator:   options.KeepSeparator,
		StripWhitespace: options.StripWhitespace,
		AddStartIndex:   options.AddStartIndex,
		LenFunc:         options.LenFunc,
		Logger:          options.Logger,
	}
	if s.Logger == nil {
		s.Logger = nopLogger{}
	}
	return s
}

// Split validates options and splits every document into chunks. Chunks of
// one document are contiguous and in source order; documents keep their
// input order.
func Split(documents []schema.Document, options Options) ([]schema.Document, error) {
	return newRecursiveCharacter(options).SplitDocuments(documents)
}

// SplitDocuments splits documents, validating the configuration first even
// when there is nothing to split.
func (s RecursiveCharacter) SplitDocuments(documents []schema.Document) ([]schema.Document, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return SplitDocuments(s, documents)
}

// SplitText splits a text into multiple text.
func (s RecursiveCharacter) SplitText(text string) ([]Chunk, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	if s.StripWhitespace {
		text = NormalizeNewlines(text)
	}
	r := &splitRun{splitter: s, src: []rune(text)}
	n := len(r.src)
	switch {
	case n == 0:
		return []Chunk{}, nil
	case r.length(0, n) <= s.ChunkSize:
		r.emit(span{start: 0, fresh: 0, end: n})
	case len(s.Separators) == 0:
		r.slide()
	default:
		r.splitSpan(0, n, s.Separators)
	}
	return r.chunks(), nil
}

func (s RecursiveCharacter) validate() error {
	return Options{ChunkSize: s.ChunkSize, ChunkOverlap: s.ChunkOverlap}.Validate()
}

// span is an emitted chunk as rune offsets into the normalized text. Runes
// in [start, fresh) were seeded from the previous chunk.
type span struct {
	start, fresh, end int
}

// splitRun carries the state of splitting a single text.
type splitRun struct {
	splitter RecursiveCharacter
	src      []rune
	out      []span
}

func (r *splitRun) length(lo, hi int) int {
	if r.splitter.LenFunc == nil {
		return hi - lo
	}
	return r.splitter.LenFunc(string(r.src[lo:hi]))
}

func (r *splitRun) emit(sp span) {
	r.out = append(r.out, sp)
}

// slide cuts the text into fixed windows of ChunkSize characters, each
// starting ChunkOverlap characters before the end of the previous one.
func (r *splitRun) slide() {
	n := len(r.src)
	step := r.splitter.ChunkSize - r.splitter.ChunkOverlap
	for start := 0; start < n; start += step {
		end := min(start+r.splitter.ChunkSize, n)
		r.emit(span{start: start, fresh: start, end: end})
	}
}

// splitSpan splits src[lo:hi] on the first separator of seps that occurs in
// it and packs the pieces greedily. Pieces that still do not fit recurse
// with the lower priority separators.
func (r *splitRun) splitSpan(lo, hi int, seps []Separator) {
	chosen := -1
	var matches []match
	for i, sep := range seps {
		if matches = sep.find(r.src, lo, hi); len(matches) > 0 {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		r.splitter.Logger.Warn("atomic unit exceeds chunk size",
			"size", r.length(lo, hi), "limit", r.splitter.ChunkSize, "start", lo)
		r.emit(span{start: lo, fresh: lo, end: hi})
		return
	}
	rest := seps[chosen+1:]

	var buf span
	open := false
	for _, p := range r.pieces(lo, hi, matches) {
		if r.length(p.start, p.end) > r.splitter.ChunkSize {
			if open {
				r.emit(buf)
				open = false
			}
			r.splitSpan(p.start, p.end, rest)
			continue
		}
		if open && r.length(buf.start, p.end) <= r.splitter.ChunkSize {
			buf.end = p.end
			continue
		}
		if open {
			r.emit(buf)
		}
		buf = span{start: r.seed(p), fresh: p.start, end: p.end}
		open = true
	}
	if open {
		r.emit(buf)
	}
}

// pieces cuts src[lo:hi] at the given separator matches. Kept separators
// stay at the end of the piece before them.
func (r *splitRun) pieces(lo, hi int, matches []match) []match {
	pieces := make([]match, 0, len(matches)+1)
	add := func(start, end int) {
		if end > start {
			pieces = append(pieces, match{start, end})
		}
	}
	prev := lo
	for _, m := range matches {
		if m.start < prev {
			continue
		}
		if r.splitter.KeepSeparator {
			add(prev, m.end)
		} else {
			add(prev, m.start)
		}
		prev = m.end
	}
	add(prev, hi)
	return pieces
}

// seed returns where a chunk opening with piece p starts: up to ChunkOverlap
// characters before the end of the last emitted chunk, reduced until the
// chunk fits, or p.start when no overlap applies. When whitespace is
// stripped the seed skips leading whitespace and starts after the first
// visible character of the previous chunk, so no chunk swallows the one
// before it.
func (r *splitRun) seed(p match) int {
	if r.splitter.ChunkOverlap == 0 || len(r.out) == 0 {
		return p.start
	}
	prev := r.out[len(r.out)-1]
	strip := r.splitter.StripWhitespace
	floor := prev.start
	if strip {
		for floor < prev.end && unicode.IsSpace(r.src[floor]) {
			floor++
		}
		floor++
	}
	for k := min(r.splitter.ChunkOverlap, prev.end-prev.start); k > 0; k-- {
		start := prev.end - k
		if strip {
			if start < floor {
				continue
			}
			for start < p.start && unicode.IsSpace(r.src[start]) {
				start++
			}
		}
		if r.length(start, p.end) <= r.splitter.ChunkSize {
			return start
		}
	}
	return p.start
}

func (r *splitRun) chunks() []Chunk {
	chunks := make([]Chunk, 0, len(r.out))
	for _, sp := range r.out {
		start, end := sp.start, sp.end
		if r.splitter.StripWhitespace {
			for start < end && unicode.IsSpace(r.src[start]) {
				start++
			}
			for end > start && unicode.IsSpace(r.src[end-1]) {
				end--
			}
			// nothing left but whitespace or text already in the previous chunk
			if start == end || end <= sp.fresh {
				continue
			}
		}
		chunk := Chunk{Text: string(r.src[start:end])}
		if r.splitter.AddStartIndex {
			chunk.Metadata = map[string]any{StartIndexKey: start}
		}
		chunks = append(chunks, chunk)
	}
	r.splitter.Logger.Debug("split text", "runes", len(r.src), "chunks", len(chunks))
	return chunks
}
