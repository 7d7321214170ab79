package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noodnik2/docsplit/internal/logger"
)

// record is one line of split output.
type record struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

func splitCmd(a *app) *cobra.Command {
	f := &docFlags{}
	var out, format string

	cmd := &cobra.Command{
		Use:   "split FILE...",
		Short: "Split files and write the chunks as JSON Lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			write := writeRecord
			if format != "" {
				tmpl, parseErr := template.New("chunk").
					Option("missingkey=error").
					Funcs(sprig.TxtFuncMap()).
					Parse(format)
				if parseErr != nil {
					return fmt.Errorf("parse template: %w", parseErr)
				}
				write = templateWriter(tmpl)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				file, createErr := os.Create(out)
				if createErr != nil {
					return fmt.Errorf("create %s: %w", out, createErr)
				}
				defer func() {
					if cerr := file.Close(); err == nil {
						err = cerr
					}
				}()
				w = file
			}

			written := 0
			for _, path := range args {
				chunks, err := a.chunkFile(cmd.Context(), path, f)
				if err != nil {
					return err
				}
				for _, chunk := range chunks {
					if err := write(w, record{
						ID:       uuid.NewString(),
						Content:  chunk.PageContent,
						Metadata: chunk.Metadata,
					}); err != nil {
						return err
					}
				}
				written += len(chunks)
			}
			logger.FromContext(cmd.Context()).Debug("wrote chunks", "count", written)
			return nil
		},
	}

	addDocFlags(cmd, f)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&format, "template", "", "Render each chunk with a Go template instead of JSON")
	return cmd
}

func writeRecord(w io.Writer, r record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}
	line = append(line, '\n')
	_, err = w.Write(line)
	return err
}

// templateWriter renders one line per chunk. Templates see the record
// fields, e.g. {{ .ID }} or {{ .Content | trunc 40 }}.
func templateWriter(tmpl *template.Template) func(io.Writer, record) error {
	return func(w io.Writer, r record) error {
		if err := tmpl.Execute(w, r); err != nil {
			return fmt.Errorf("render chunk: %w", err)
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
}
