package documentloaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/noodnik2/docsplit/schema"
)

// PageKey is the metadata key holding the zero-based PDF page number.
const PageKey = "page"

// PDF loads one document per non-empty page of a PDF file.
type PDF struct {
	path string
}

var _ Loader = PDF{}

// NewPDF creates a new PDF loader for the file at path.
func NewPDF(path string) PDF {
	return PDF{path: path}
}

// Load extracts the plain text of every page.
func (l PDF) Load(ctx context.Context) ([]schema.Document, error) {
	data, err := readFile(ctx, l.path)
	if err != nil {
		return nil, err
	}
	return loadPDF(ctx, data, l.path)
}

func loadPDF(ctx context.Context, data []byte, source string) ([]schema.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("documentloaders: open pdf %s: %w", source, err)
	}

	fonts := make(map[string]*pdf.Font)
	docs := make([]schema.Document, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("documentloaders: pdf %s page %d: %w", source, i, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: content,
			Metadata: map[string]any{
				SourceKey: source,
				PageKey:   i - 1,
			},
		})
	}
	return docs, nil
}
