package model

import "github.com/google/uuid"

// Workstation is a node of the workstation tree. City, ParentWorkstation and
// ChildWorkstations are only populated when the matching Relations are
// requested from the store. A loaded but empty child list is still
// rendered as [].
type Workstation struct {
	Base
	Name                string     `json:"name" db:"name"`
	Phone               *string    `json:"phone" db:"phone"`
	IP                  *string    `json:"ip" db:"ip"`
	Gateway             *string    `json:"gateway" db:"gateway"`
	VPN                 bool       `json:"vpn" db:"vpn"`
	CityID              uuid.UUID  `json:"city_id" db:"city_id"`
	ParentWorkstationID *uuid.UUID `json:"parent_workstation_id" db:"parent_workstation_id"`

	City              *City         `json:"city,omitempty" db:"-"`
	ParentWorkstation *Workstation  `json:"parent_workstation,omitempty" db:"-"`
	ChildWorkstations []Workstation `json:"child_workstations,omitzero" db:"-"`
}

// Relations selects which related rows a lookup loads.
type Relations uint8

const (
	RelCity Relations = 1 << iota
	RelParent
	RelChildren

	RelNone Relations = 0
	RelAll            = RelCity | RelParent | RelChildren
)

func (r Relations) Has(other Relations) bool {
	return r&other == other
}

// Link returns the tree edge of w.
func (w *Workstation) Link() TreeLink {
	return TreeLink{ID: w.ID, ParentID: w.ParentWorkstationID}
}
