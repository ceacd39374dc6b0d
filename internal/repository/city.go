package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cityColumns = `id, name, state, created_at, updated_at`

type CityRepository struct {
	pool *pgxpool.Pool
}

func NewCityRepository(pool *pgxpool.Pool) *CityRepository {
	return &CityRepository{pool: pool}
}

func (r *CityRepository) Create(ctx context.Context, city *model.City) (*model.City, error) {
	stmt := `
		INSERT INTO cities (id, name, state)
		VALUES (@id, @name, @state)
		RETURNING ` + cityColumns

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, pgx.NamedArgs{
		"id":    city.ID,
		"name":  city.Name,
		"state": city.State,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute create city query for name=%s: %w", city.Name, err)
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.City])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from cities for name=%s: %w", city.Name, err)
	}
	return &created, nil
}

func (r *CityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.City, error) {
	stmt := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute get city query for id=%s: %w", id, err)
	}

	city, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.City])
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return nil, sqlerr.NoRows("cities", err)
		}
		return nil, fmt.Errorf("failed to collect row from cities for id=%s: %w", id, err)
	}
	return &city, nil
}

func (r *CityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.City, error) {
	if len(ids) == 0 {
		return []model.City{}, nil
	}

	stmt := `SELECT ` + cityColumns + ` FROM cities WHERE id = ANY($1::text[]::uuid[])`

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to execute get cities query: %w", err)
	}

	cities, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.City])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from cities: %w", err)
	}
	return cities, nil
}

func (r *CityRepository) FindAll(ctx context.Context) ([]model.City, error) {
	stmt := `SELECT ` + cityColumns + ` FROM cities ORDER BY state, name`

	rows, err := conn(ctx, r.pool).Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute list cities query: %w", err)
	}

	cities, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.City])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from cities: %w", err)
	}
	return cities, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
