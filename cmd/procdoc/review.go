package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rejectReason string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage the human review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents awaiting review",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		pending, err := store.PendingReviews()
		if err != nil {
			return err
		}

		type entry struct {
			DocumentID string  `json:"document_id"`
			Status     string  `json:"status"`
			Confidence float64 `json:"aggregate_confidence"`
			Sections   int     `json:"sections"`
			Reason     string  `json:"reason,omitempty"`
		}
		entries := make([]entry, len(pending))
		for i, r := range pending {
			entries[i] = entry{
				DocumentID: r.DocumentID,
				Status:     string(r.ValidationStatus),
				Confidence: r.Metadata.AggregateConfidence,
				Sections:   r.Metadata.SectionCount,
				Reason:     r.ReviewReason,
			}
		}
		return output(entries)
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <document-id>",
	Short: "Approve a reviewed document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.Approve(args[0]); err != nil {
			return err
		}
		fmt.Printf("approved %s\n", args[0])
		return nil
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <document-id>",
	Short: "Reject a reviewed document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		if err := store.Reject(args[0], rejectReason); err != nil {
			return err
		}
		fmt.Printf("rejected %s\n", args[0])
		return nil
	},
}

func init() {
	reviewRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "reason for rejection")
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
}
