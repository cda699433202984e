package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-pdfs...>",
	Short: "Process multiple PDF documents",
	Long: `Batch processes every PDF given on the command line, or every PDF in
a directory argument. Runs are resumable: documents that already have a
final result are skipped, and per-document failures never stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectPDFs(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no PDF files found in %s", strings.Join(args, ", "))
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		summary, err := p.ProcessBatch(cmd.Context(), paths)
		if err != nil {
			// Still report what completed before the interruption.
			if summary != nil {
				_ = output(summary)
			}
			return err
		}
		return output(summary)
	},
}

// collectPDFs expands directory arguments into their PDF files.
func collectPDFs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
