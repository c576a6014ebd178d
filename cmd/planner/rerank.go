package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/document"
)

var (
	rerankPlan string
	rerankIn   string
	rerankOut  string
)

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Score a results document again with a plan's ranking",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := document.LoadPlan(rerankPlan)
		if err != nil {
			return err
		}
		res, err := document.LoadResults(rerankIn)
		if err != nil {
			return err
		}

		out, err := document.Rerank(res, plan.Ranking)
		if err != nil {
			return err
		}
		if err := document.SaveResults(rerankOut, out); err != nil {
			return err
		}
		zap.L().Info("results reranked", zap.String("from", res.RunID), zap.String("run_id", out.RunID))
		return nil
	},
}

func init() {
	rerankCmd.Flags().StringVar(&rerankPlan, "plan", "", "plan document whose ranking to apply (required)")
	rerankCmd.Flags().StringVar(&rerankIn, "in", "", "results document to rerank (required)")
	rerankCmd.Flags().StringVar(&rerankOut, "out", "results.yaml", "reranked results document to write")
	_ = rerankCmd.MarkFlagRequired("plan")
	_ = rerankCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(rerankCmd)
}
