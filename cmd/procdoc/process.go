package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <pdf>",
	Short: "Process a single PDF document",
	Long: `Process runs one PDF through the full pipeline: page extraction,
header and section detection, per-section extraction, and validation.

Approved documents land in the final output directory; anything else is
queued for human review.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}

		result, err := p.ProcessDocument(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}
		return output(result)
	},
}
