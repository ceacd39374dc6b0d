package handler

import (
	"net/http"

	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/server"
	"github.com/deppfellow/workstations/internal/service"
	"github.com/labstack/echo/v4"
)

type CityHandler struct {
	Handler
	cities *service.CityService
}

func NewCityHandler(s *server.Server, cities *service.CityService) *CityHandler {
	return &CityHandler{
		Handler: NewHandler(s),
		cities:  cities,
	}
}

func (h *CityHandler) CreateCity(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, payload *model.CreateCityDto) (*model.City, error) {
		return h.cities.CreateCity(c.Request().Context(), payload)
	}, http.StatusCreated)(c)
}

func (h *CityHandler) ListCities(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, _ *model.ListCitiesRequest) ([]model.City, error) {
		return h.cities.ListCities(c.Request().Context())
	}, http.StatusOK)(c)
}

func (h *CityHandler) GetCity(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, req *model.GetCityRequest) (*model.City, error) {
		return h.cities.GetCity(c.Request().Context(), req)
	}, http.StatusOK)(c)
}
