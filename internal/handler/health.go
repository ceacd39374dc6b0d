package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/workstations/internal/middleware"
	"github.com/deppfellow/workstations/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const defaultCheckTimeout = 5 * time.Second

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth probes the configured dependencies and answers 200 when all
// required ones respond, 503 otherwise. Redis is only required while
// background jobs are enabled.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	cfg := h.server.Config
	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: cfg.Primary.Env,
		Checks:      map[string]checkResult{},
	}

	timeout := defaultCheckTimeout
	checks := cfg.Observability.HealthChecks
	if checks.Timeout > 0 {
		timeout = checks.Timeout
	}

	if checks.Has("database") && h.server.DB != nil {
		result, err := h.probe(c.Request().Context(), timeout, h.server.DB.Ping)
		response.Checks["database"] = result
		if err != nil {
			response.Status = "unhealthy"
			h.reportFailure(logger, "database", err)
		}
	}

	if checks.Has("redis") && h.server.Redis != nil {
		result, err := h.probe(c.Request().Context(), timeout, func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
		response.Checks["redis"] = result
		if err != nil {
			if cfg.Jobs.Enabled {
				response.Status = "unhealthy"
			}
			h.reportFailure(logger, "redis", err)
		}
	}

	if response.Status != "healthy" {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) probe(parent context.Context, timeout time.Duration, ping func(context.Context) error) (checkResult, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	if err := ping(ctx); err != nil {
		return checkResult{
			Status:       "unhealthy",
			ResponseTime: time.Since(start).String(),
			Error:        err.Error(),
		}, err
	}
	return checkResult{Status: "healthy", ResponseTime: time.Since(start).String()}, nil
}

func (h *HealthHandler) reportFailure(logger zerolog.Logger, check string, err error) {
	logger.Error().Err(err).Str("check", check).Msg("health check failed")

	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]interface{}{
		"check_type":    check,
		"operation":     "health_check",
		"error_type":    check + "_unhealthy",
		"error_message": err.Error(),
	})
}
