package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/document"
)

var (
	combineBase     string
	combineExtra    string
	combineProvider string
	combineOut      string
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Replace one provider's results with those from another run",
	Long:  "Takes the named provider's results from --extra and everything else from --base. Scores are carried over; run rerank on the output to score the merged groups together.",
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := document.LoadResults(combineBase)
		if err != nil {
			return err
		}
		extra, err := document.LoadResults(combineExtra)
		if err != nil {
			return err
		}

		out := document.Combine(base, extra, combineProvider)
		if err := document.SaveResults(combineOut, out); err != nil {
			return err
		}
		zap.L().Info("results combined",
			zap.String("provider", combineProvider),
			zap.Int("groups", len(out.Results)),
			zap.String("run_id", out.RunID),
		)
		return nil
	},
}

func init() {
	combineCmd.Flags().StringVar(&combineBase, "base", "", "results document to start from (required)")
	combineCmd.Flags().StringVar(&combineExtra, "extra", "", "results document to take the provider's results from (required)")
	combineCmd.Flags().StringVar(&combineProvider, "provider", "", "provider whose results to replace (required)")
	combineCmd.Flags().StringVar(&combineOut, "out", "results.yaml", "combined results document to write")
	_ = combineCmd.MarkFlagRequired("base")
	_ = combineCmd.MarkFlagRequired("extra")
	_ = combineCmd.MarkFlagRequired("provider")
	rootCmd.AddCommand(combineCmd)
}
