// Package documentloaders turns local files into schema.Document values for
// the text splitters. Fetching remote content is left to callers.
package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/noodnik2/docsplit/schema"
)

var (
	// ErrUnsupportedFormat is returned when no loader handles a file.
	ErrUnsupportedFormat = errors.New("documentloaders: unsupported format")
	// ErrInvalidPublishedDate is returned when Info.Published is not a
	// YYYY-MM-DD date.
	ErrInvalidPublishedDate = errors.New("documentloaders: invalid published date")
)

// SourceKey is the metadata key holding where a document came from.
const SourceKey = "source"

// Loader is the interface for loading documents.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// ForFile returns a loader for path chosen by its extension: PDF, HTML, or
// plain text for anything else.
func ForFile(path string) (Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(path), nil
	case ".html", ".htm":
		return NewHTML(path), nil
	default:
		return NewText(path), nil
	}
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: read %s: %w", path, err)
	}
	return data, nil
}
