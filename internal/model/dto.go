package model

import (
	"fmt"

	"github.com/deppfellow/workstations/internal/validation"
)

type CreateWorkstationDto struct {
	Name                string   `json:"name" validate:"required,min=1,max=255"`
	Phone               *string  `json:"phone" validate:"omitnil,max=32"`
	IP                  *string  `json:"ip" validate:"omitnil,ip"`
	Gateway             *string  `json:"gateway" validate:"omitnil,ip"`
	VPN                 bool     `json:"vpn"`
	CityID              string   `json:"city_id" validate:"required,uuid"`
	ParentWorkstationID *string  `json:"parent_workstation_id" validate:"omitnil,uuid"`
	ChildWorkstationIDs []string `json:"child_workstation_ids" validate:"omitempty,dive,uuid"`
}

func (d *CreateWorkstationDto) Validate() error {
	return validate.Struct(d)
}

// UpdateWorkstationDto replaces only the attributes that are present. An
// absent parent keeps the current one; an absent child list detaches every
// current child.
type UpdateWorkstationDto struct {
	ID                  string   `param:"id" json:"-" validate:"required,uuid"`
	Name                *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Phone               *string  `json:"phone" validate:"omitnil,max=32"`
	IP                  *string  `json:"ip" validate:"omitnil,ip"`
	Gateway             *string  `json:"gateway" validate:"omitnil,ip"`
	VPN                 *bool    `json:"vpn"`
	CityID              *string  `json:"city_id" validate:"omitnil,uuid"`
	ParentWorkstationID *string  `json:"parent_workstation_id" validate:"omitnil,uuid"`
	ChildWorkstationIDs []string `json:"child_workstation_ids" validate:"omitempty,dive,uuid"`
}

func (d *UpdateWorkstationDto) Validate() error {
	return validate.Struct(d)
}

// Reallocation moves ReallocatedID under DestinationID before its parent is
// deleted.
type Reallocation struct {
	ReallocatedID string `json:"reallocatedId" validate:"required,uuid"`
	DestinationID string `json:"destinationId" validate:"required,uuid"`
}

type DeleteWorkstationDto struct {
	ID   string         `param:"id" json:"-" validate:"required,uuid"`
	Data []Reallocation `json:"data" validate:"omitempty,dive"`
}

// Validate also rejects a child listed in more than one reallocation.
func (d *DeleteWorkstationDto) Validate() error {
	if err := validate.Struct(d); err != nil {
		return err
	}

	var dup validation.CustomValidationErrors
	seen := make(map[string]bool, len(d.Data))
	for i, r := range d.Data {
		if seen[r.ReallocatedID] {
			dup = append(dup, validation.CustomValidationError{
				Field:   fmt.Sprintf("data[%d].reallocatedId", i),
				Message: "is reallocated more than once",
			})
		}
		seen[r.ReallocatedID] = true
	}
	if len(dup) > 0 {
		return dup
	}
	return nil
}

type DeleteWorkstationResponse struct {
	Message string `json:"message"`
}

type GetWorkstationRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *GetWorkstationRequest) Validate() error {
	return validate.Struct(r)
}

type ListWorkstationsRequest struct{}

func (r *ListWorkstationsRequest) Validate() error {
	return nil
}
