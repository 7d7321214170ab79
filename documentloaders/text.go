package documentloaders

import (
	"context"

	"github.com/noodnik2/docsplit/schema"
)

// Text loads a whole file as a single document.
type Text struct {
	path string
}

var _ Loader = Text{}

// NewText creates a new text loader for the file at path.
func NewText(path string) Text {
	return Text{path: path}
}

// Load reads the file and returns it as one document with the path as source.
func (l Text) Load(ctx context.Context) ([]schema.Document, error) {
	data, err := readFile(ctx, l.path)
	if err != nil {
		return nil, err
	}
	return []schema.Document{{
		PageContent: string(data),
		Metadata:    map[string]any{SourceKey: l.path},
	}}, nil
}
