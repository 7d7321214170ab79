package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noodnik2/docsplit/internal/report"
)

func statsCmd(a *app) *cobra.Command {
	f := &docFlags{}

	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Print chunk statistics for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, path := range args {
				chunks, err := a.chunkFile(cmd.Context(), path, f)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := report.Render(cmd.OutOrStdout(), report.Compute(filepath.Base(path), chunks)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addDocFlags(cmd, f)
	return cmd
}
