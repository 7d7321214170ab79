package textsplitter

import (
	"errors"

	"github.com/mohae/deepcopy"
	"github.com/noodnik2/docsplit/schema"
)

var (
	// ErrInvalidConfiguration is returned before any splitting starts when the
	// chunk size or overlap cannot produce a valid chunking.
	ErrInvalidConfiguration = errors.New("textsplitter: invalid configuration")
	// ErrMismatchMetadatasAndText is returned when the number of texts and
	// metadatas passed to CreateDocuments differ.
	ErrMismatchMetadatasAndText = errors.New("textsplitter: number of texts and metadatas does not match")
)

// StartIndexKey is the metadata key written when Options.AddStartIndex is set.
const StartIndexKey = "start_index"

// Chunk associates metadata with a chunk of text.
type Chunk struct {
	Text     string
	Metadata map[string]any
}

// TextSplitter is the standard interface for splitting texts.
type TextSplitter interface {
	SplitText(string) ([]Chunk, error)
}

// Logger receives diagnostics from the splitters. It is satisfied by the
// project's structured logger.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// SplitDocuments splits documents using a textsplitter. Chunks keep the order
// of the input documents and carry a copy of their source's metadata. Nil
// metadata becomes an empty map, so every chunk has its own writable map.
func SplitDocuments(textSplitter TextSplitter, documents []schema.Document) ([]schema.Document, error) {
	texts := make([]string, 0, len(documents))
	metadatas := make([]map[string]any, 0, len(documents))
	for _, document := range documents {
		texts = append(texts, document.PageContent)
		metadatas = append(metadatas, document.Metadata)
	}

	return CreateDocuments(textSplitter, texts, metadatas)
}

// CreateDocuments creates documents from texts and metadatas with a text splitter. If
// the length of the metadatas is zero, the result documents will contain no metadata.
// Otherwise, the numbers of texts and metadatas must match.
func CreateDocuments(textSplitter TextSplitter, texts []string, metadatas []map[string]any) ([]schema.Document, error) {
	if len(metadatas) == 0 {
		metadatas = make([]map[string]any, len(texts))
	}

	if len(texts) != len(metadatas) {
		return nil, ErrMismatchMetadatasAndText
	}

	documents := make([]schema.Document, 0)

	for i := 0; i < len(texts); i++ {
		chunks, err := textSplitter.SplitText(texts[i])
		if err != nil {
			return nil, err
		}

		for _, chunk := range chunks {
			metadata := copyMetadata(metadatas[i])
			for key, value := range chunk.Metadata {
				metadata[key] = value
			}

			documents = append(documents, schema.Document{
				PageContent: chunk.Text,
				Metadata:    metadata,
			})
		}
	}

	return documents, nil
}

// copyMetadata deep copies metadata so no chunk shares nested values with
// its source document or its siblings. Nil and empty maps both yield a new
// empty map.
func copyMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	copied, ok := deepcopy.Copy(metadata).(map[string]any)
	if !ok {
		copied = make(map[string]any, len(metadata))
		for key, value := range metadata {
			copied[key] = value
		}
	}
	return copied
}
