// Package router builds the echo instance: the global middleware chain, the
// system routes and the versioned API.
package router

import (
	"github.com/deppfellow/workstations/internal/handler"
	"github.com/deppfellow/workstations/internal/middleware"
	"github.com/deppfellow/workstations/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Metrics.Collect(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1")
	registerWorkstationRoutes(v1, h, middlewares.Auth)
	registerCityRoutes(v1, h, middlewares.Auth)

	return router
}

// Reads are public; writes need a session.
func registerWorkstationRoutes(g *echo.Group, h *handler.Handlers, auth *middleware.AuthMiddleware) {
	workstations := g.Group("/workstations")
	workstations.GET("", h.Workstation.ListWorkstations)
	workstations.GET("/:id", h.Workstation.GetWorkstation)
	workstations.POST("", h.Workstation.CreateWorkstation, auth.RequireAuth)
	workstations.PATCH("/:id", h.Workstation.UpdateWorkstation, auth.RequireAuth)
	workstations.DELETE("/:id", h.Workstation.DeleteWorkstation, auth.RequireAuth)
}

func registerCityRoutes(g *echo.Group, h *handler.Handlers, auth *middleware.AuthMiddleware) {
	cities := g.Group("/cities")
	cities.GET("", h.City.ListCities)
	cities.GET("/:id", h.City.GetCity)
	cities.POST("", h.City.CreateCity, auth.RequireAuth)
}
