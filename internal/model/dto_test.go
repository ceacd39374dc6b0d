package model

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validator errors, got %v", err)
	out := map[string]string{}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestCreateWorkstationDtoValidate(t *testing.T) {
	valid := CreateWorkstationDto{
		Name:    "front desk",
		IP:      strPtr("10.0.0.5"),
		Gateway: strPtr("10.0.0.1"),
		CityID:  uuid.NewString(),
	}
	require.NoError(t, valid.Validate())

	bad := CreateWorkstationDto{
		IP:                  strPtr("not-an-ip"),
		CityID:              "nope",
		ChildWorkstationIDs: []string{"x"},
	}
	got := fieldErrors(t, bad.Validate())
	assert.Equal(t, "required", got["name"])
	assert.Equal(t, "ip", got["ip"])
	assert.Equal(t, "uuid", got["city_id"])
	assert.Equal(t, "uuid", got["child_workstation_ids[0]"])
}

func TestUpdateWorkstationDtoValidate(t *testing.T) {
	ok := UpdateWorkstationDto{ID: uuid.NewString()}
	require.NoError(t, ok.Validate())

	empty := UpdateWorkstationDto{ID: uuid.NewString(), Name: strPtr("")}
	got := fieldErrors(t, empty.Validate())
	assert.Equal(t, "min", got["name"])

	badID := UpdateWorkstationDto{ID: "123"}
	got = fieldErrors(t, badID.Validate())
	assert.Equal(t, "uuid", got["id"])
}

func TestDeleteWorkstationDtoValidate(t *testing.T) {
	d := DeleteWorkstationDto{ID: uuid.NewString()}
	require.NoError(t, d.Validate())

	d.Data = []Reallocation{{ReallocatedID: uuid.NewString()}}
	got := fieldErrors(t, d.Validate())
	assert.Equal(t, "required", got["destinationId"])
}

func TestCreateCityDtoValidate(t *testing.T) {
	require.NoError(t, (&CreateCityDto{Name: "Recife", State: "pe"}).Validate())

	got := fieldErrors(t, (&CreateCityDto{Name: "Recife", State: "PER"}).Validate())
	assert.Equal(t, "len", got["state"])

	c := NewCity(&CreateCityDto{Name: "Recife", State: "pe"})
	assert.Equal(t, "PE", c.State)
	assert.NotEqual(t, uuid.Nil, c.ID)
}
