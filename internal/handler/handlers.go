package handler

import (
	"github.com/deppfellow/workstations/internal/server"
	"github.com/deppfellow/workstations/internal/service"
)

type Handlers struct {
	Health      *HealthHandler
	OpenAPI     *OpenAPIHandler
	Workstation *WorkstationHandler
	City        *CityHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(s),
		OpenAPI:     NewOpenAPIHandler(s),
		Workstation: NewWorkstationHandler(s, services.Workstation),
		City:        NewCityHandler(s, services.City),
	}
}
