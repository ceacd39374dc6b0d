package service

import (
	"context"
	"testing"

	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityService(t *testing.T) {
	store := testutil.NewMemStore()
	svc := NewCityService(store.Cities())
	ctx := context.Background()

	created, err := svc.CreateCity(ctx, &model.CreateCityDto{Name: "Recife", State: "pe"})
	require.NoError(t, err)
	assert.Equal(t, "PE", created.State)

	got, err := svc.GetCity(ctx, &model.GetCityRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Recife", got.Name)

	_, err = svc.GetCity(ctx, &model.GetCityRequest{ID: uuid.NewString()})
	requireHTTPError(t, err, 404, CodeCityNotFound)

	_, err = svc.GetCity(ctx, &model.GetCityRequest{ID: "nope"})
	requireHTTPError(t, err, 400, "")

	list, err := svc.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
