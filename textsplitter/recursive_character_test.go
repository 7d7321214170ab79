package textsplitter

import (
	"strings"
	"sync"
	"testing"

	"github.com/noodnik2/docsplit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func chunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	return texts
}

func TestRecursiveCharacterSplitter(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name     string
		text     string
		opts     []Option
		expected []string
	}

	testCases := []testCase{
		{
			name: "paragraphs then sentences",
			text: "A.\n\nB.\n\nC.",
			opts: []Option{
				WithSeparators(Literals("\n\n", ".")),
				WithChunkSize(3),
				WithChunkOverlap(0),
			},
			expected: []string{"A.", "B.", "C."},
		},
		{
			name: "paragraphs then sentences without separators",
			text: "A.\n\nB.\n\nC.",
			opts: []Option{
				WithSeparators(Literals("\n\n", ".")),
				WithChunkSize(3),
				WithChunkOverlap(0),
				WithKeepSeparator(false),
			},
			expected: []string{"A.", "B.", "C."},
		},
		{
			name: "raw character windows",
			text: strings.Repeat("X", 10),
			opts: []Option{
				WithSeparators(nil),
				WithChunkSize(4),
				WithChunkOverlap(1),
			},
			expected: []string{"XXXX", "XXXX", "XXXX", "X"},
		},
		{
			name: "raw character windows without overlap",
			text: "abcdefghij",
			opts: []Option{
				WithSeparators(nil),
				WithChunkSize(4),
				WithChunkOverlap(0),
			},
			expected: []string{"abcd", "efgh", "ij"},
		},
		{
			name: "character overlap between words",
			text: "one two three four five",
			opts: []Option{
				WithSeparators(Literals(" ")),
				WithChunkSize(10),
				WithChunkOverlap(4),
				WithStripWhitespace(false),
			},
			expected: []string{"one two ", "two three ", "ree four ", "our five"},
		},
		{
			name: "character overlap with trimming",
			text: "one two three four five",
			opts: []Option{
				WithSeparators(Literals(" ")),
				WithChunkSize(10),
				WithChunkOverlap(4),
			},
			expected: []string{"one two", "two three", "ree four", "our five"},
		},
		{
			name: "kept separator closes the piece before it",
			text: "a-b-c",
			opts: []Option{
				WithSeparators(Literals("-")),
				WithChunkSize(3),
				WithChunkOverlap(0),
			},
			expected: []string{"a-", "b-c"},
		},
		{
			name: "dropped separator only at chunk boundaries",
			text: "a-b-c",
			opts: []Option{
				WithSeparators(Literals("-")),
				WithChunkSize(3),
				WithChunkOverlap(0),
				WithKeepSeparator(false),
			},
			expected: []string{"a-b", "c"},
		},
		{
			name: "earlier separator wins",
			text: "a b.c d",
			opts: []Option{
				WithSeparators(Literals(".", " ")),
				WithChunkSize(4),
				WithChunkOverlap(0),
				WithStripWhitespace(false),
			},
			expected: []string{"a b.", "c d"},
		},
		{
			name: "earlier separator wins reversed",
			text: "a b.c d",
			opts: []Option{
				WithSeparators(Literals(" ", ".")),
				WithChunkSize(4),
				WithChunkOverlap(0),
				WithStripWhitespace(false),
			},
			expected: []string{"a ", "b.c ", "d"},
		},
		{
			name: "sentence boundaries with lookaround",
			text: "Hello there. General Kenobi! You are bold.",
			opts: []Option{
				WithSeparators(SentenceSeparators()),
				WithChunkSize(20),
				WithChunkOverlap(0),
			},
			expected: []string{"Hello there.", "General Kenobi!", "You are bold."},
		},
		{
			name: "lookbehind sees text before the span",
			text: "ab|cd ef",
			opts: []Option{
				WithSeparators([]Separator{Literal("|"), Pattern(`(?<=\|cd) `)}),
				WithChunkSize(3),
				WithChunkOverlap(0),
				WithKeepSeparator(false),
				WithStripWhitespace(false),
			},
			expected: []string{"ab", "cd", "ef"},
		},
		{
			name: "stripped overlap never repeats a whole chunk",
			text: "the language model",
			opts: []Option{
				WithChunkSize(8),
				WithChunkOverlap(7),
			},
			expected: []string{"the", "he langu", "e langua", "language", "ge model"},
		},
		{
			name: "text that fits is left alone",
			text: "short text",
			opts: []Option{
				WithChunkSize(64),
				WithChunkOverlap(8),
			},
			expected: []string{"short text"},
		},
		{
			name: "blank line runs are collapsed",
			text: "a\n\n\n\nb",
			opts: []Option{
				WithChunkSize(64),
				WithChunkOverlap(0),
			},
			expected: []string{"a\n\nb"},
		},
		{
			name: "blank line runs are kept without stripping",
			text: "a\n\n\n\nb",
			opts: []Option{
				WithChunkSize(64),
				WithChunkOverlap(0),
				WithStripWhitespace(false),
			},
			expected: []string{"a\n\n\n\nb"},
		},
		{
			name: "word length function",
			text: "a b c d",
			opts: []Option{
				WithSeparators(Literals(" ")),
				WithChunkSize(2),
				WithChunkOverlap(0),
				WithLenFunc(func(s string) int { return len(strings.Fields(s)) }),
			},
			expected: []string{"a b", "c d"},
		},
		{
			name:     "empty text",
			text:     "",
			opts:     nil,
			expected: []string{},
		},
		{
			name:     "whitespace only text",
			text:     "  \n\n\t ",
			opts:     nil,
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			splitter := NewRecursiveCharacter(tc.opts...)
			chunks, err := splitter.SplitText(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, chunkTexts(chunks))
		})
	}
}

func TestRecursiveCharacterSplitter_Oversized(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	splitter := NewRecursiveCharacter(
		WithSeparators(Literals(" ")),
		WithChunkSize(4),
		WithChunkOverlap(0),
		WithLogger(logger),
	)

	chunks, err := splitter.SplitText("aaaaaa bb")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaa", "bb"}, chunkTexts(chunks))
	assert.Equal(t, []string{"atomic unit exceeds chunk size"}, logger.warns)
}

func TestRecursiveCharacterSplitter_StartIndex(t *testing.T) {
	t.Parallel()

	splitter := NewRecursiveCharacter(
		WithSeparators(Literals(" ")),
		WithChunkSize(10),
		WithChunkOverlap(4),
		WithStripWhitespace(false),
		WithAddStartIndex(true),
	)

	chunks, err := splitter.SplitText("one two three four five")
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	starts := make([]any, len(chunks))
	for i, chunk := range chunks {
		starts[i] = chunk.Metadata[StartIndexKey]
	}
	assert.Equal(t, []any{0, 4, 10, 15}, starts)
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}

	testCases := []testCase{
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative size", size: -1, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
		{name: "overlap equal to size", size: 10, overlap: 10, wantErr: true},
		{name: "overlap larger than size", size: 10, overlap: 11, wantErr: true},
		{name: "smallest valid", size: 1, overlap: 0},
		{name: "largest overlap", size: 10, overlap: 9},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			options := DefaultOptions()
			options.ChunkSize = tc.size
			options.ChunkOverlap = tc.overlap

			// validation happens even when there is nothing to split
			docs, err := Split(nil, options)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfiguration)
				assert.Nil(t, docs)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, docs)

			_, err = newRecursiveCharacter(options).SplitText("some text to split")
			assert.NoError(t, err)
		})
	}
}

func TestSplit_Documents(t *testing.T) {
	t.Parallel()

	options := DefaultOptions()
	options.ChunkSize = 12
	options.ChunkOverlap = 0
	options.Separators = Literals("\n\n", " ")

	docs := []schema.Document{
		{
			PageContent: "first paragraph\n\nsecond one here",
			Metadata: map[string]any{
				"title":   "Machine Minds",
				"authors": []string{"Sidharta Chatterjee"},
				"page":    0,
			},
		},
		{
			PageContent: "another document",
			Metadata:    map[string]any{"title": "Other", "page": 1},
		},
		{
			PageContent: "",
			Metadata:    map[string]any{"title": "Empty"},
		},
	}

	chunks, err := Split(docs, options)
	require.NoError(t, err)

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.PageContent
	}
	assert.Equal(t, []string{"first", "paragraph", "second one", "here", "another", "document"}, contents)

	for _, chunk := range chunks[:4] {
		assert.Equal(t, docs[0].Metadata, chunk.Metadata)
	}
	for _, chunk := range chunks[4:] {
		assert.Equal(t, docs[1].Metadata, chunk.Metadata)
	}

	// every chunk owns its metadata
	chunks[0].Metadata["authors"].([]string)[0] = "changed"
	chunks[0].Metadata["page"] = 42
	assert.Equal(t, []string{"Sidharta Chatterjee"}, docs[0].Metadata["authors"])
	assert.Equal(t, 0, docs[0].Metadata["page"])
	assert.Equal(t, []string{"Sidharta Chatterjee"}, chunks[1].Metadata["authors"])
}

func TestSplit_NilMetadata(t *testing.T) {
	t.Parallel()

	options := DefaultOptions()
	options.ChunkSize = 5
	options.ChunkOverlap = 0

	chunks, err := Split([]schema.Document{{PageContent: "alpha beta"}}, options)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.NotNil(t, chunk.Metadata)
		assert.Equal(t, map[string]any{}, chunk.Metadata)
	}
}

func TestSplit_EmptyDocuments(t *testing.T) {
	t.Parallel()

	chunks, err := Split([]schema.Document{}, DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRecursiveCharacterSplitter_ConcurrentUse(t *testing.T) {
	t.Parallel()

	splitter := NewRecursiveCharacter(
		WithSeparators(SentenceSeparators()),
		WithChunkSize(40),
		WithChunkOverlap(5),
	)
	text := strings.Repeat("The quick brown fox jumps. Over the lazy dog!\n\n", 20)
	want, err := splitter.SplitText(text)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := splitter.SplitText(text)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
