package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dharmasatrya/flightplanner/internal/document"
	"github.com/dharmasatrya/flightplanner/internal/planner"
	"github.com/dharmasatrya/flightplanner/internal/providers"
	"github.com/dharmasatrya/flightplanner/internal/ranking"
	"github.com/dharmasatrya/flightplanner/internal/store"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RerankRequest carries a finished run and the ranking to apply to it.
type RerankRequest struct {
	Ranking []ranking.PropertyConfig `json:"ranking"`
	Results *document.Results        `json:"results"`
}

type PlanHandler struct {
	providers   []providers.Provider
	store       store.Store
	concurrency int
	logger      *zap.Logger
}

func NewPlanHandler(ps []providers.Provider, s store.Store, concurrency int) *PlanHandler {
	return &PlanHandler{
		providers:   ps,
		store:       s,
		concurrency: concurrency,
		logger:      zap.L().Named("handler"),
	}
}

// Register mounts the plan routes on g.
func (h *PlanHandler) Register(g *echo.Group) {
	g.POST("/plans/search", h.Search)
	g.POST("/plans/rerank", h.Rerank)
	g.GET("/plans/:id", h.Get)
}

func (h *PlanHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var plan document.Plan
	if err := c.Bind(&plan); err != nil {
		return badRequest(c, "invalid_request", "Failed to parse request body: "+err.Error())
	}
	if err := plan.Validate(); err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	opts := []planner.Option{planner.WithLogger(h.logger)}
	if plan.Concurrency == 0 && h.concurrency > 0 {
		opts = append(opts, planner.WithConcurrency(h.concurrency))
	}
	eng, err := document.Engine(&plan, h.providers, opts...)
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}

	report, err := eng.Run(ctx, plan.Options)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "search_error",
			Message: "Failed to run plan: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	res := document.NewResults(report.Results, &report.Stats)
	if err := h.store.Save(ctx, res); err != nil {
		h.logger.Warn("handler: store results", zap.String("run_id", res.RunID), zap.Error(err))
	}

	h.logger.Info("handler: plan searched",
		zap.String("run_id", res.RunID),
		zap.Int("templates", len(plan.Options)),
		zap.Int64("search_time_ms", time.Since(startTime).Milliseconds()),
	)
	return c.JSON(http.StatusOK, res)
}

func (h *PlanHandler) Rerank(c echo.Context) error {
	var req RerankRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Failed to parse request body: "+err.Error())
	}
	if req.Results == nil {
		return badRequest(c, "validation_error", "results are required")
	}

	res, err := document.Rerank(req.Results, req.Ranking)
	if err != nil {
		return badRequest(c, "validation_error", err.Error())
	}
	if err := h.store.Save(c.Request().Context(), res); err != nil {
		h.logger.Warn("handler: store results", zap.String("run_id", res.RunID), zap.Error(err))
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PlanHandler) Get(c echo.Context) error {
	res, err := h.store.Load(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No plan run with id " + c.Param("id"),
			Code:    http.StatusNotFound,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, res)
}

func badRequest(c echo.Context, kind, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   kind,
		Message: msg,
		Code:    http.StatusBadRequest,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
