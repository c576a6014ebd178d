package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/config"
	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/ratelimit"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flightplanner",
	Short: "Plan, run and rank multi-provider flight searches",
	Long:  "Expands search plan templates into provider queries, collects and filters the trips each provider offers, and ranks every template's results with weighted scoring properties.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// initProviders builds the configured providers behind one shared limiter.
func initProviders() ([]providers.Provider, error) {
	limiter := ratelimit.NewProviderLimiter(cfg.RateLimit)
	ps, err := providers.BuildAll(cfg.Providers, limiter)
	if err != nil {
		return nil, eris.Wrap(err, "init providers")
	}
	zap.L().Info("providers ready", zap.Int("count", len(ps)))
	return ps, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
