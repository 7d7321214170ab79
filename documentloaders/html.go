package documentloaders

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/noodnik2/docsplit/schema"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Metadata keys filled from the HTML head.
const (
	TitleKey       = "title"
	DescriptionKey = "description"
	LanguageKey    = "language"
)

// HTML loads a saved web page as one document per blank-line separated
// section of its sanitized body text. Every section carries the page
// metadata.
type HTML struct {
	path string
}

var _ Loader = HTML{}

// NewHTML creates a new HTML loader for the file at path.
func NewHTML(path string) HTML {
	return HTML{path: path}
}

// Load parses the page and returns its sections.
func (l HTML) Load(ctx context.Context) ([]schema.Document, error) {
	data, err := readFile(ctx, l.path)
	if err != nil {
		return nil, err
	}
	return LoadHTML(bytes.NewReader(data), l.path)
}

// LoadHTML parses HTML from r. source is stored as the documents' source.
func LoadHTML(r io.Reader, source string) ([]schema.Document, error) {
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: parse html %s: %w", source, err)
	}

	metadata := map[string]any{SourceKey: source}
	extractHead(page, metadata)

	bodyHTML, err := page.Find("body").First().Html()
	if err != nil {
		return nil, fmt.Errorf("documentloaders: render body %s: %w", source, err)
	}
	body, err := html.Parse(strings.NewReader(textPolicy.Sanitize(bodyHTML)))
	if err != nil {
		return nil, fmt.Errorf("documentloaders: parse body %s: %w", source, err)
	}

	var sb strings.Builder
	if n := findElement(body, atom.Body); n != nil {
		writeText(&sb, n)
	}

	sections := strings.Split(SanitizeWebText(sb.String()), "\n\n")
	docs := make([]schema.Document, 0, len(sections))
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: section,
			Metadata:    cloneFlat(metadata),
		})
	}
	return docs, nil
}

// textPolicy keeps only the elements that shape the text layout. Scripts,
// styles and other non-text content are dropped with their content.
var textPolicy = bluemonday.NewPolicy().AllowElements(
	"p", "div", "section", "article", "header", "footer", "main", "nav",
	"aside", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table",
	"tr", "blockquote", "pre", "figure", "figcaption", "hr", "br",
)

var repeatedNewlines = regexp2.MustCompile(`\n{2,}`, regexp2.None)

// SanitizeWebText collapses repeated newlines into one blank line and strips
// leading and trailing whitespace from every line.
func SanitizeWebText(raw string) string {
	collapsed, err := repeatedNewlines.Replace(raw, "\n\n", -1, -1)
	if err != nil {
		collapsed = raw
	}
	lines := strings.Split(collapsed, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}

// extractHead fills metadata from <html lang>, <title> and description meta
// tags.
func extractHead(page *goquery.Document, metadata map[string]any) {
	if lang, ok := page.Find("html").Attr("lang"); ok && lang != "" {
		metadata[LanguageKey] = lang
	}
	if title := strings.TrimSpace(page.Find("head title").First().Text()); title != "" {
		metadata[TitleKey] = title
	}
	page.Find(`meta[name="description"], meta[property="og:description"]`).
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if content, ok := s.Attr("content"); ok && content != "" {
				metadata[DescriptionKey] = content
				return false
			}
			return true
		})
}

// writeText appends visible text, putting block elements on their own lines.
func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		sb.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteString("\n\n")
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Main, atom.Nav, atom.Aside, atom.H1, atom.H2, atom.H3, atom.H4,
		atom.H5, atom.H6, atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr,
		atom.Blockquote, atom.Pre, atom.Figure, atom.Figcaption, atom.Hr:
		return true
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func cloneFlat(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
