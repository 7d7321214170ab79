// Package report summarizes chunked documents for humans.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/noodnik2/docsplit/schema"
)

const (
	exampleIndex   = 5
	previewLength  = 150
	exampleHeading = "Example chunk:"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
)

// Stats describes a set of chunks.
type Stats struct {
	Name         string
	Total        int
	TotalChars   int
	Average      float64
	Min          int
	Max          int
	MetadataKeys []string
	// Example is the sixth chunk, or the last one when there are fewer.
	Example *schema.Document
}

// Compute gathers Stats over chunks. Sizes are counted in characters.
func Compute(name string, chunks []schema.Document) Stats {
	stats := Stats{Name: name, Total: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}

	keys := make(map[string]struct{})
	stats.Min = -1
	for _, chunk := range chunks {
		n := utf8.RuneCountInString(chunk.PageContent)
		stats.TotalChars += n
		if stats.Min < 0 || n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
		for k := range chunk.Metadata {
			keys[k] = struct{}{}
		}
	}
	stats.Average = float64(stats.TotalChars) / float64(stats.Total)

	stats.MetadataKeys = make([]string, 0, len(keys))
	for k := range keys {
		stats.MetadataKeys = append(stats.MetadataKeys, k)
	}
	sort.Strings(stats.MetadataKeys)

	example := chunks[min(exampleIndex, len(chunks)-1)]
	stats.Example = &example
	return stats
}

// Render writes the statistics block.
func Render(w io.Writer, stats Stats) error {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("=== %s Statistics ===", stats.Name)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s %d\n", labelStyle.Render("Total number of chunks:"), stats.Total)
	fmt.Fprintf(&sb, "%s %.2f characters\n", labelStyle.Render("Average chunk size:"), stats.Average)
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Metadata keys preserved:"), strings.Join(stats.MetadataKeys, ", "))

	if stats.Example != nil {
		sb.WriteString("\n")
		sb.WriteString(titleStyle.Render(exampleHeading))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s %s...\n", labelStyle.Render("Content (first 150 chars):"), preview(stats.Example.PageContent))
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("Metadata:"), formatMetadata(stats.Example.Metadata))
		fmt.Fprintf(&sb, "%s %d characters\n", labelStyle.Render("Min chunk size:"), stats.Min)
		fmt.Fprintf(&sb, "%s %d characters\n", labelStyle.Render("Max chunk size:"), stats.Max)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes)
}

func formatMetadata(metadata map[string]any) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, metadata[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
