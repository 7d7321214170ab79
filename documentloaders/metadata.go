package documentloaders

import (
	"fmt"
	"time"

	"github.com/noodnik2/docsplit/schema"
)

// Metadata keys written by Annotate.
const (
	AuthorsKey   = "authors"
	PublishedKey = "published"
)

const publishedLayout = "2006-01-02"

// Info describes the publication a set of documents belongs to.
type Info struct {
	Title   string
	Authors string
	// Published is a YYYY-MM-DD date. Empty leaves the key unset.
	Published string
}

// Annotate returns copies of docs with the non-empty Info fields merged into
// their metadata.
func Annotate(docs []schema.Document, info Info) ([]schema.Document, error) {
	extra := make(map[string]any, 3)
	if info.Title != "" {
		extra[TitleKey] = info.Title
	}
	if info.Authors != "" {
		extra[AuthorsKey] = info.Authors
	}
	if info.Published != "" {
		published, err := time.Parse(publishedLayout, info.Published)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPublishedDate, info.Published, err)
		}
		extra[PublishedKey] = published.Format(publishedLayout)
	}

	out := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		metadata := cloneFlat(doc.Metadata)
		for k, v := range extra {
			metadata[k] = v
		}
		out = append(out, schema.Document{PageContent: doc.PageContent, Metadata: metadata})
	}
	return out, nil
}

// FilterMetadata returns copies of docs keeping only the allow-listed
// metadata keys. No keys keeps the metadata as is.
func FilterMetadata(docs []schema.Document, keys ...string) []schema.Document {
	out := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if len(keys) == 0 {
			out = append(out, schema.Document{PageContent: doc.PageContent, Metadata: cloneFlat(doc.Metadata)})
			continue
		}
		metadata := make(map[string]any, len(keys))
		for _, key := range keys {
			if v, ok := doc.Metadata[key]; ok {
				metadata[key] = v
			}
		}
		out = append(out, schema.Document{PageContent: doc.PageContent, Metadata: metadata})
	}
	return out
}
