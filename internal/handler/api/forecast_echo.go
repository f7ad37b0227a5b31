package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/internal/service/metrics"
	"TrendCast/internal/services/forecast"
	"TrendCast/internal/usecase"
	xhttp "TrendCast/pkg/http"
	xlogger "TrendCast/pkg/logger"
)

// ForecastService is what the handler needs from the use case.
type ForecastService interface {
	Run(ctx context.Context, p usecase.ForecastParams) (*usecase.ForecastReport, error)
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

// ForecastEchoHandler serves the forecast API.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	svc     ForecastService
	timeout time.Duration
	mws     []echo.MiddlewareFunc
}

func NewForecastEchoHandler(logger *xlogger.Logger, svc ForecastService, timeout time.Duration, mws ...echo.MiddlewareFunc) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ForecastEchoHandler{logger: logger, svc: svc, timeout: timeout, mws: mws}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mws...)
	g.GET("/forecast", h.Forecast)
	g.GET("/instruments", h.Instruments)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues(endpoint, strconv.Itoa(http.StatusBadRequest)).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.svc.Run(ctx, usecase.ForecastParams{
		Instrument: req.Instrument,
		Months:     req.Months,
		Method:     req.Method,
	})
	if err != nil {
		appErr := toAppError(err)
		metrics.APIErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("forecast usecase error", xlogger.String("instrument", req.Instrument), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ForecastEchoHandler) Instruments(c echo.Context) error {
	const endpoint = "instruments"
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	list, err := h.svc.Instruments(c.Request().Context())
	if err != nil {
		appErr := toAppError(err)
		metrics.APIErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()
		h.logger.Error("instruments usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appErr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, list)
}

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var ide *forecast.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		return xhttp.UnprocessableError("not enough price history for this horizon").
			WithField("months").
			WithParam("required", ide.Required).
			WithParam("available", ide.Available).
			WithError(err)
	case errors.Is(err, forecast.ErrInsufficientData):
		return xhttp.UnprocessableError("not enough price history for this horizon").WithError(err)
	case errors.Is(err, domrepo.ErrInstrumentNotFound):
		return xhttp.NotFoundError("instrument not found").WithField("instrument").WithError(err)
	case errors.Is(err, forecast.ErrUnknownMethod):
		return xhttp.BadRequestError("unknown forecast method").WithField("method").WithError(err)
	case errors.Is(err, forecast.ErrInvalidHorizon), errors.Is(err, usecase.ErrHorizonTooLong):
		return xhttp.BadRequestError(err.Error()).WithField("months").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
