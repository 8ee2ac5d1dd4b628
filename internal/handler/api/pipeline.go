package api

import (
	"errors"
	"net/http"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/service/ratelimit"
	"RegimeNews/internal/usecase"
	xhttp "RegimeNews/pkg/http"
	applogger "RegimeNews/pkg/logger"

	"github.com/labstack/echo/v4"
)

const serviceName = "regime-news-model"

// PipelineHandler exposes the pipeline and overlay runner over HTTP.
type PipelineHandler struct {
	pipeline *usecase.Pipeline
	overlay  *usecase.OverlayRunner
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

// NewPipelineHandler accepts a nil limiter to disable rate limiting.
func NewPipelineHandler(p *usecase.Pipeline, o *usecase.OverlayRunner, rl *ratelimit.Limiter, l *applogger.Logger) *PipelineHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &PipelineHandler{pipeline: p, overlay: o, rl: rl, l: l.Component("api")}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/run", h.Run, h.rateLimit)
	e.POST("/api/overlay", h.Overlay, h.rateLimit)
}

func (h *PipelineHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
		"message": "API is running. Use POST /run",
	})
}

func (h *PipelineHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// Run answers with the bare report document.
func (h *PipelineHandler) Run(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}

	report, err := h.pipeline.Run(c.Request().Context(), *req)
	if err != nil {
		h.l.Error("run failed", applogger.String("ticker", req.Ticker), applogger.Error(err))
		return xhttp.Fail(c, toAppError(err))
	}
	return c.JSON(http.StatusOK, report)
}

func (h *PipelineHandler) Overlay(c echo.Context) error {
	req := &models.OverlayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}

	report, err := h.overlay.Run(c.Request().Context(), *req)
	if err != nil {
		h.l.Error("overlay failed", applogger.String("ticker", req.Ticker), applogger.Error(err))
		return xhttp.Fail(c, toAppError(err))
	}
	return c.JSON(http.StatusOK, report)
}

func (h *PipelineHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()+":"+c.Path()) {
			h.l.Warn("rate limited", applogger.String("remote", c.RealIP()), applogger.String("path", c.Path()))
			return xhttp.RateLimited(c)
		}
		return next(c)
	}
}

var kindStatus = map[errs.Kind]int{
	errs.KindInsufficientData: http.StatusUnprocessableEntity,
	errs.KindConfiguration:    http.StatusBadRequest,
	errs.KindUpstreamFetch:    http.StatusBadGateway,
}

// toAppError maps pipeline error kinds onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var e *errs.Error
	if !errors.As(err, &e) {
		return xhttp.NewAppError(http.StatusInternalServerError, "", "pipeline failed").WithError(err)
	}
	status, ok := kindStatus[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	appErr := xhttp.NewAppError(status, "ERR_"+string(e.Kind), err.Error()).WithError(err)
	if e.Kind == errs.KindInsufficientData {
		appErr.WithParam("observed", e.Observed).WithParam("required", e.Required)
	}
	return appErr
}
