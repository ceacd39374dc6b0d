package handler

import (
	"net/http"

	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/server"
	"github.com/deppfellow/workstations/internal/service"
	"github.com/labstack/echo/v4"
)

type WorkstationHandler struct {
	Handler
	workstations *service.WorkstationService
}

func NewWorkstationHandler(s *server.Server, workstations *service.WorkstationService) *WorkstationHandler {
	return &WorkstationHandler{
		Handler:      NewHandler(s),
		workstations: workstations,
	}
}

func (h *WorkstationHandler) CreateWorkstation(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, payload *model.CreateWorkstationDto) (*model.Workstation, error) {
		return h.workstations.CreateWorkstation(c.Request().Context(), payload)
	}, http.StatusCreated)(c)
}

func (h *WorkstationHandler) ListWorkstations(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, _ *model.ListWorkstationsRequest) ([]model.Workstation, error) {
		return h.workstations.FindAll(c.Request().Context())
	}, http.StatusOK)(c)
}

func (h *WorkstationHandler) GetWorkstation(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, req *model.GetWorkstationRequest) (*model.Workstation, error) {
		return h.workstations.FindOne(c.Request().Context(), req)
	}, http.StatusOK)(c)
}

func (h *WorkstationHandler) UpdateWorkstation(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, payload *model.UpdateWorkstationDto) (*model.Workstation, error) {
		return h.workstations.UpdateWorkstation(c.Request().Context(), payload)
	}, http.StatusOK)(c)
}

// DeleteWorkstation accepts an optional body listing where children go.
func (h *WorkstationHandler) DeleteWorkstation(c echo.Context) error {
	return Handle(h.Handler, func(c echo.Context, payload *model.DeleteWorkstationDto) (*model.DeleteWorkstationResponse, error) {
		return h.workstations.DeleteWorkstation(c.Request().Context(), payload)
	}, http.StatusOK)(c)
}
