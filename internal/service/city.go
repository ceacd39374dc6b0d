package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/workstations/internal/errs"
	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const CodeCityNotFound = "CITY_NOT_FOUND"

type CityRepository interface {
	Create(ctx context.Context, city *model.City) (*model.City, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.City, error)
	FindAll(ctx context.Context) ([]model.City, error)
}

type CityService struct {
	repo CityRepository
}

func NewCityService(repo CityRepository) *CityService {
	return &CityService{repo: repo}
}

// FindCityByID returns the city or a 404 CITY_NOT_FOUND.
func (s *CityService) FindCityByID(ctx context.Context, id uuid.UUID) (*model.City, error) {
	city, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return nil, errs.NewNotFoundError("City not found", true, errs.Code(CodeCityNotFound))
		}
		return nil, fmt.Errorf("looking up city %s: %w", id, err)
	}
	return city, nil
}

func (s *CityService) GetCity(ctx context.Context, req *model.GetCityRequest) (*model.City, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	return s.FindCityByID(ctx, id)
}

func (s *CityService) ListCities(ctx context.Context) ([]model.City, error) {
	cities, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}
	return cities, nil
}

func (s *CityService) CreateCity(ctx context.Context, payload *model.CreateCityDto) (*model.City, error) {
	city, err := s.repo.Create(ctx, model.NewCity(payload))
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", "city_created").
		Str("city_id", city.ID.String()).
		Msg("city created")

	return city, nil
}
