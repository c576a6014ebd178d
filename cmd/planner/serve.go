package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/handler"
	"github.com/dharmasatrya/flightplanner/internal/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the plan search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ps, err := initProviders()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()
		zap.L().Info("store ready", zap.String("driver", cfg.Store.Driver))

		e := newServer(handler.NewPlanHandler(ps, st, cfg.Planner.Concurrency))

		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newServer(h *handler.PlanHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	h.Register(e.Group("/api/v1"))
	e.GET("/health", handler.HealthHandler)
	return e
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
