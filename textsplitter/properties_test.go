package textsplitter

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vocabulary = []string{
	"agent", "memory", "Planning", "a", "loop", "Cognitive", "architecture",
	"of", "language", "models", "retrieval", "x", "symbolic", "Reasoning",
}

var punctuation = []string{" ", " ", " ", ". ", "! ", "\n", "\n\n", ", "}

// randomText builds deterministic prose with sentences, lines and paragraphs.
func randomText(rng *rand.Rand, words int) string {
	var sb strings.Builder
	for i := 0; i < words; i++ {
		sb.WriteString(vocabulary[rng.Intn(len(vocabulary))])
		sb.WriteString(punctuation[rng.Intn(len(punctuation))])
	}
	return sb.String()
}

func TestRecursiveCharacterSplitter_Properties(t *testing.T) {
	t.Parallel()

	type config struct {
		size, overlap int
		separators    []Separator
	}

	configs := []config{
		{size: 5, overlap: 0, separators: Literals("\n\n", "\n", " ", "")},
		{size: 5, overlap: 2, separators: Literals("\n\n", "\n", " ", "")},
		{size: 16, overlap: 4, separators: Literals("\n\n", "\n", " ", "")},
		{size: 40, overlap: 10, separators: SentenceSeparators()},
		{size: 64, overlap: 0, separators: SentenceSeparators()},
		{size: 7, overlap: 6, separators: Literals(". ", " ", "")},
	}

	rng := rand.New(rand.NewSource(1))
	for _, cfg := range configs {
		cfg := cfg
		for i := 0; i < 10; i++ {
			text := randomText(rng, 5+rng.Intn(60))
			t.Run(fmt.Sprintf("size=%d overlap=%d #%d", cfg.size, cfg.overlap, i), func(t *testing.T) {
				t.Parallel()
				checkSplitProperties(t, text, cfg.size, cfg.overlap, cfg.separators)
			})
		}
	}
}

// checkSplitProperties verifies size bounds, overlap, reconstruction and
// idempotence for a lossless configuration.
func checkSplitProperties(t *testing.T, text string, size, overlap int, separators []Separator) {
	t.Helper()

	splitter := NewRecursiveCharacter(
		WithChunkSize(size),
		WithChunkOverlap(overlap),
		WithSeparators(separators),
		WithStripWhitespace(false),
		WithAddStartIndex(true),
	)
	chunks, err := splitter.SplitText(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	src := []rune(text)
	var rebuilt strings.Builder
	prevEnd := 0
	for i, chunk := range chunks {
		runes := []rune(chunk.Text)
		start, ok := chunk.Metadata[StartIndexKey].(int)
		require.True(t, ok)
		end := start + len(runes)

		assert.LessOrEqual(t, len(runes), size, "chunk %d too long", i)
		require.LessOrEqual(t, end, len(src))
		assert.Equal(t, string(src[start:end]), chunk.Text, "chunk %d is not a source substring", i)

		if i == 0 {
			assert.Equal(t, 0, start)
		} else {
			// no gap, and the shared prefix is at most ChunkOverlap long
			assert.LessOrEqual(t, start, prevEnd)
			assert.LessOrEqual(t, prevEnd-start, overlap)
			shared := prevEnd - start
			prev := []rune(chunks[i-1].Text)
			assert.Equal(t, string(prev[len(prev)-shared:]), string(runes[:shared]))
		}
		rebuilt.WriteString(string(src[max(start, prevEnd):end]))
		prevEnd = end

		again, err := splitter.SplitText(chunk.Text)
		require.NoError(t, err)
		assert.Equal(t, []string{chunk.Text}, chunkTexts(again), "chunk %d is not stable", i)
	}
	assert.Equal(t, len(src), prevEnd)
	assert.Equal(t, text, rebuilt.String())
}

func TestRecursiveCharacterSplitter_StrippedProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2))
	for _, cfg := range []struct{ size, overlap int }{{5, 0}, {5, 2}, {8, 7}, {16, 4}, {30, 10}} {
		cfg := cfg
		for i := 0; i < 10; i++ {
			text := randomText(rng, 5+rng.Intn(60))
			t.Run(fmt.Sprintf("size=%d overlap=%d #%d", cfg.size, cfg.overlap, i), func(t *testing.T) {
				t.Parallel()
				checkStrippedProperties(t, text, cfg.size, cfg.overlap)
			})
		}
	}
}

// checkStrippedProperties verifies that trimmed chunks cover the normalized
// text up to whitespace, stay within size and overlap, and never repeat the
// previous chunk entirely.
func checkStrippedProperties(t *testing.T, text string, size, overlap int) {
	t.Helper()

	splitter := NewRecursiveCharacter(
		WithChunkSize(size),
		WithChunkOverlap(overlap),
		WithAddStartIndex(true),
	)
	chunks, err := splitter.SplitText(text)
	require.NoError(t, err)

	src := []rune(NormalizeNewlines(text))
	prevStart, prevEnd := -1, 0
	for i, chunk := range chunks {
		runes := []rune(chunk.Text)
		start, ok := chunk.Metadata[StartIndexKey].(int)
		require.True(t, ok)
		end := start + len(runes)

		require.NotEmpty(t, runes)
		assert.LessOrEqual(t, len(runes), size, "chunk %d too long", i)
		require.LessOrEqual(t, end, len(src))
		assert.Equal(t, string(src[start:end]), chunk.Text, "chunk %d is not a source substring", i)
		assert.Equal(t, strings.TrimSpace(chunk.Text), chunk.Text)

		assert.Greater(t, start, prevStart, "chunk %d starts before the previous one", i)
		if start >= prevEnd {
			assert.True(t, isBlank(src[prevEnd:start]), "chunk %d leaves text uncovered", i)
		} else {
			assert.LessOrEqual(t, prevEnd-start, overlap)
			assert.Greater(t, end, prevEnd)
		}
		prevStart, prevEnd = start, end

		again, err := splitter.SplitText(chunk.Text)
		require.NoError(t, err)
		assert.Equal(t, []string{chunk.Text}, chunkTexts(again), "chunk %d is not stable", i)
	}
	assert.True(t, isBlank(src[prevEnd:]))
}

func TestRecursiveCharacterSplitter_DroppedSeparatorProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for _, cfg := range []struct{ size, overlap int }{{5, 0}, {5, 2}, {16, 4}, {30, 10}} {
		cfg := cfg
		for i := 0; i < 10; i++ {
			text := randomText(rng, 5+rng.Intn(60))
			t.Run(fmt.Sprintf("size=%d overlap=%d #%d", cfg.size, cfg.overlap, i), func(t *testing.T) {
				t.Parallel()

				splitter := NewRecursiveCharacter(
					WithChunkSize(cfg.size),
					WithChunkOverlap(cfg.overlap),
					WithKeepSeparator(false),
					WithStripWhitespace(false),
					WithAddStartIndex(true),
				)
				chunks, err := splitter.SplitText(text)
				require.NoError(t, err)

				src := []rune(text)
				prevEnd := 0
				for j, chunk := range chunks {
					runes := []rune(chunk.Text)
					start, ok := chunk.Metadata[StartIndexKey].(int)
					require.True(t, ok)
					end := start + len(runes)

					assert.LessOrEqual(t, len(runes), cfg.size, "chunk %d too long", j)
					require.LessOrEqual(t, end, len(src))
					assert.Equal(t, string(src[start:end]), chunk.Text, "chunk %d is not a source substring", j)
					if start >= prevEnd {
						// only dropped whitespace separators lie between chunks
						assert.True(t, isBlank(src[prevEnd:start]), "chunk %d leaves text uncovered", j)
					} else {
						assert.LessOrEqual(t, prevEnd-start, cfg.overlap)
					}
					prevEnd = max(prevEnd, end)
				}
				assert.True(t, isBlank(src[prevEnd:]))
			})
		}
	}
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
