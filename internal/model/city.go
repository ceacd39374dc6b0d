package model

import (
	"strings"

	"github.com/google/uuid"
)

type City struct {
	Base
	Name  string `json:"name" db:"name"`
	State string `json:"state" db:"state"`
}

type CreateCityDto struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	State string `json:"state" validate:"required,len=2,alpha"`
}

func (d *CreateCityDto) Validate() error {
	return validate.Struct(d)
}

type GetCityRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *GetCityRequest) Validate() error {
	return validate.Struct(r)
}

type ListCitiesRequest struct{}

func (r *ListCitiesRequest) Validate() error {
	return nil
}

// NewCity prepares a city row from a create request. The state code is
// stored upper-case.
func NewCity(d *CreateCityDto) *City {
	return &City{
		Base:  Base{ID: uuid.New()},
		Name:  d.Name,
		State: strings.ToUpper(d.State),
	}
}
