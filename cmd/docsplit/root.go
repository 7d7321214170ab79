package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noodnik2/docsplit/documentloaders"
	"github.com/noodnik2/docsplit/internal/config"
	"github.com/noodnik2/docsplit/internal/logger"
	"github.com/noodnik2/docsplit/schema"
	"github.com/noodnik2/docsplit/textsplitter"
)

// app is the state shared by all subcommands once the root has run.
type app struct {
	cfg *config.Config
}

type rootFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

// docFlags select and annotate the documents to split.
type docFlags struct {
	title     string
	authors   string
	published string
	keepMeta  []string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "docsplit",
		Short:        "Split documents into overlapping chunks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if cmd.Flags().Changed("log-level") {
				level = flags.logLevel
			}
			a.cfg = cfg
			log := logger.NewLogger(&logger.Config{
				Level:      logger.ParseLevel(level),
				Output:     cmd.ErrOrStderr(),
				JSON:       flags.logJSON || cfg.Log.JSON,
				TimeFormat: "15:04:05",
			})
			cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "Log as JSON")

	root.AddCommand(
		splitCmd(a),
		statsCmd(a),
	)
	return root
}

func addDocFlags(cmd *cobra.Command, f *docFlags) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title stored in every chunk's metadata")
	cmd.Flags().StringVar(&f.authors, "authors", "", "Authors stored in every chunk's metadata")
	cmd.Flags().StringVar(&f.published, "published", "", "Publication date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.keepMeta, "keep-meta", nil, "Only keep these source metadata keys")
}

// chunkFile loads, annotates and splits one file. Markdown files are split
// by heading first.
func (a *app) chunkFile(ctx context.Context, path string, f *docFlags) ([]schema.Document, error) {
	loader, err := documentloaders.ForFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	docs, err = documentloaders.Annotate(docs, documentloaders.Info{
		Title:     f.title,
		Authors:   f.authors,
		Published: f.published,
	})
	if err != nil {
		return nil, err
	}
	docs = documentloaders.FilterMetadata(docs, f.keepMeta...)

	log := logger.FromContext(ctx).With("path", path)
	options, err := a.cfg.SplitterOptions(log)
	if err != nil {
		return nil, err
	}

	var chunks []schema.Document
	if isMarkdown(path) {
		splitter := textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(options.ChunkSize),
			textsplitter.WithChunkOverlap(options.ChunkOverlap),
			textsplitter.WithLenFunc(options.LenFunc),
			textsplitter.WithAddStartIndex(options.AddStartIndex),
			textsplitter.WithLogger(log),
			textsplitter.WithLevelHeaderFn(headerMetadata),
			textsplitter.WithSecondSplitter(textsplitter.NewRecursiveCharacter(
				textsplitter.WithChunkSize(options.ChunkSize),
				textsplitter.WithChunkOverlap(options.ChunkOverlap),
				textsplitter.WithSeparators(options.Separators),
				textsplitter.WithKeepSeparator(options.KeepSeparator),
				textsplitter.WithStripWhitespace(options.StripWhitespace),
				textsplitter.WithAddStartIndex(options.AddStartIndex),
				textsplitter.WithLenFunc(options.LenFunc),
				textsplitter.WithLogger(log),
			)),
		)
		chunks, err = textsplitter.SplitDocuments(splitter, docs)
	} else {
		chunks, err = textsplitter.Split(docs, options)
	}
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}

	log.Info("split file", "documents", len(docs), "chunks", len(chunks))
	return chunks, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func headerMetadata(level int, text string) map[string]any {
	return map[string]any{fmt.Sprintf("header_%d", level): text}
}
