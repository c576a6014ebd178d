package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/document"
	"github.com/dharmasatrya/flightplanner/internal/planner"
	"github.com/dharmasatrya/flightplanner/internal/store"
)

var (
	runPlan   string
	runOut    string
	runReport string
	runTop    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a search plan and write the ranked results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		plan, err := document.LoadPlan(runPlan)
		if err != nil {
			return err
		}

		ps, err := initProviders()
		if err != nil {
			return err
		}

		var opts []planner.Option
		if plan.Concurrency == 0 {
			opts = append(opts, planner.WithConcurrency(cfg.Planner.Concurrency))
		}
		eng, err := document.Engine(plan, ps, opts...)
		if err != nil {
			return err
		}

		report, err := eng.Run(ctx, plan.Options)
		if err != nil {
			return eris.Wrap(err, "run plan")
		}
		res := document.NewResults(report.Results, &report.Stats)

		if err := document.SaveResults(runOut, res); err != nil {
			return err
		}
		zap.L().Info("results written", zap.String("run_id", res.RunID), zap.String("path", runOut))

		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(ctx, res); err != nil {
			zap.L().Warn("store results", zap.String("run_id", res.RunID), zap.Error(err))
		}

		if runReport == "" {
			return nil
		}
		return writeReportFile(runReport, res, runTop)
	},
}

func writeReportFile(path string, res *document.Results, limit int) error {
	if path == "-" {
		return document.WriteReport(os.Stdout, res.Results, limit)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create report %s", path)
	}
	defer f.Close()
	return document.WriteReport(f, res.Results, limit)
}

func init() {
	runCmd.Flags().StringVar(&runPlan, "plan", "", "search plan document (required)")
	runCmd.Flags().StringVar(&runOut, "out", "results.yaml", "results document to write")
	runCmd.Flags().StringVar(&runReport, "report", "", "also write a text report to this path (- for stdout)")
	runCmd.Flags().IntVar(&runTop, "top", 10, "entries per template in the report (0 for all)")
	_ = runCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(runCmd)
}
