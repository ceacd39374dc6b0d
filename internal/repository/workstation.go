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

const workstationColumns = `id, name, phone, ip, gateway, vpn, city_id, parent_workstation_id, created_at, updated_at`

type WorkstationRepository struct {
	pool *pgxpool.Pool
}

func NewWorkstationRepository(pool *pgxpool.Pool) *WorkstationRepository {
	return &WorkstationRepository{pool: pool}
}

func (r *WorkstationRepository) Create(ctx context.Context, w *model.Workstation) (*model.Workstation, error) {
	stmt := `
		INSERT INTO workstations (id, name, phone, ip, gateway, vpn, city_id, parent_workstation_id)
		VALUES (@id, @name, @phone, @ip, @gateway, @vpn, @city_id, @parent_workstation_id)
		RETURNING ` + workstationColumns

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, workstationArgs(w))
	if err != nil {
		return nil, fmt.Errorf("failed to execute create workstation query for name=%s: %w", w.Name, err)
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Workstation])
	if err != nil {
		return nil, fmt.Errorf("failed to collect row from workstations for name=%s: %w", w.Name, err)
	}
	return &created, nil
}

// Update writes every column of w except the children, which are owned by
// ReplaceChildren.
func (r *WorkstationRepository) Update(ctx context.Context, w *model.Workstation) (*model.Workstation, error) {
	stmt := `
		UPDATE workstations
		SET name = @name,
			phone = @phone,
			ip = @ip,
			gateway = @gateway,
			vpn = @vpn,
			city_id = @city_id,
			parent_workstation_id = @parent_workstation_id,
			updated_at = now()
		WHERE id = @id
		RETURNING ` + workstationColumns

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, workstationArgs(w))
	if err != nil {
		return nil, fmt.Errorf("failed to execute update workstation query for id=%s: %w", w.ID, err)
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Workstation])
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return nil, sqlerr.NoRows("workstations", err)
		}
		return nil, fmt.Errorf("failed to collect row from workstations for id=%s: %w", w.ID, err)
	}
	return &updated, nil
}

func workstationArgs(w *model.Workstation) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                    w.ID,
		"name":                  w.Name,
		"phone":                 w.Phone,
		"ip":                    w.IP,
		"gateway":               w.Gateway,
		"vpn":                   w.VPN,
		"city_id":               w.CityID,
		"parent_workstation_id": w.ParentWorkstationID,
	}
}

func (r *WorkstationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Workstation, error) {
	stmt := `SELECT ` + workstationColumns + ` FROM workstations WHERE id = $1`

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute get workstation query for id=%s: %w", id, err)
	}

	w, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Workstation])
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return nil, sqlerr.NoRows("workstations", err)
		}
		return nil, fmt.Errorf("failed to collect row from workstations for id=%s: %w", id, err)
	}
	return &w, nil
}

// FindByIDs returns the rows matching ids; unknown ids are skipped.
func (r *WorkstationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Workstation, error) {
	if len(ids) == 0 {
		return []model.Workstation{}, nil
	}

	stmt := `SELECT ` + workstationColumns + ` FROM workstations WHERE id = ANY($1::text[]::uuid[]) ORDER BY name, id`
	return r.collect(ctx, stmt, idStrings(ids))
}

// Find lists every workstation ordered by name with the requested relations.
func (r *WorkstationRepository) Find(ctx context.Context, rel model.Relations) ([]model.Workstation, error) {
	stmt := `SELECT ` + workstationColumns + ` FROM workstations ORDER BY name, id`

	ws, err := r.collect(ctx, stmt)
	if err != nil {
		return nil, err
	}

	if err := r.loadRelations(ctx, ws, rel); err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *WorkstationRepository) FindOne(ctx context.Context, id uuid.UUID, rel model.Relations) (*model.Workstation, error) {
	w, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ws := []model.Workstation{*w}
	if err := r.loadRelations(ctx, ws, rel); err != nil {
		return nil, err
	}
	return &ws[0], nil
}

func (r *WorkstationRepository) collect(ctx context.Context, stmt string, args ...any) ([]model.Workstation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute list workstations query: %w", err)
	}

	ws, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Workstation])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from workstations: %w", err)
	}
	return ws, nil
}

// loadRelations fills the requested relations of ws with one query per
// relation.
func (r *WorkstationRepository) loadRelations(ctx context.Context, ws []model.Workstation, rel model.Relations) error {
	if len(ws) == 0 || rel == model.RelNone {
		return nil
	}

	if rel.Has(model.RelCity) {
		cityIDs := make([]uuid.UUID, 0, len(ws))
		for _, w := range ws {
			cityIDs = append(cityIDs, w.CityID)
		}

		cities, err := NewCityRepository(r.pool).FindByIDs(ctx, cityIDs)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*model.City, len(cities))
		for i := range cities {
			byID[cities[i].ID] = &cities[i]
		}
		for i := range ws {
			ws[i].City = byID[ws[i].CityID]
		}
	}

	if rel.Has(model.RelParent) {
		var parentIDs []uuid.UUID
		for _, w := range ws {
			if w.ParentWorkstationID != nil {
				parentIDs = append(parentIDs, *w.ParentWorkstationID)
			}
		}

		parents, err := r.FindByIDs(ctx, parentIDs)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*model.Workstation, len(parents))
		for i := range parents {
			byID[parents[i].ID] = &parents[i]
		}
		for i := range ws {
			if ws[i].ParentWorkstationID != nil {
				ws[i].ParentWorkstation = byID[*ws[i].ParentWorkstationID]
			}
		}
	}

	if rel.Has(model.RelChildren) {
		ids := make([]uuid.UUID, 0, len(ws))
		for _, w := range ws {
			ids = append(ids, w.ID)
		}

		stmt := `SELECT ` + workstationColumns + ` FROM workstations WHERE parent_workstation_id = ANY($1::text[]::uuid[]) ORDER BY name, id`
		children, err := r.collect(ctx, stmt, idStrings(ids))
		if err != nil {
			return err
		}

		byParent := make(map[uuid.UUID][]model.Workstation, len(ws))
		for _, c := range children {
			byParent[*c.ParentWorkstationID] = append(byParent[*c.ParentWorkstationID], c)
		}
		for i := range ws {
			ws[i].ChildWorkstations = byParent[ws[i].ID]
			if ws[i].ChildWorkstations == nil {
				ws[i].ChildWorkstations = []model.Workstation{}
			}
		}
	}

	return nil
}

// SetParent points id at parentID, or detaches it when parentID is nil.
func (r *WorkstationRepository) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	stmt := `UPDATE workstations SET parent_workstation_id = $2, updated_at = now() WHERE id = $1`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, id, parentID)
	if err != nil {
		return fmt.Errorf("failed to set parent of workstation id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.NoRows("workstations", pgx.ErrNoRows)
	}
	return nil
}

// ReplaceChildren makes childIDs the complete child list of parentID.
// Current children missing from childIDs become roots.
func (r *WorkstationRepository) ReplaceChildren(ctx context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error {
	q := conn(ctx, r.pool)

	detach := `
		UPDATE workstations
		SET parent_workstation_id = NULL, updated_at = now()
		WHERE parent_workstation_id = $1 AND NOT (id = ANY($2::text[]::uuid[]))`
	if _, err := q.Exec(ctx, detach, parentID, idStrings(childIDs)); err != nil {
		return fmt.Errorf("failed to detach children of workstation id=%s: %w", parentID, err)
	}

	if len(childIDs) == 0 {
		return nil
	}

	attach := `
		UPDATE workstations
		SET parent_workstation_id = $1, updated_at = now()
		WHERE id = ANY($2::text[]::uuid[])
			AND parent_workstation_id IS DISTINCT FROM $1`
	if _, err := q.Exec(ctx, attach, parentID, idStrings(childIDs)); err != nil {
		return fmt.Errorf("failed to attach children to workstation id=%s: %w", parentID, err)
	}
	return nil
}

// Lineage returns id together with all of its ancestors, in no particular
// order. UNION drops repeated rows, so the walk ends even on a corrupted,
// cyclic chain.
func (r *WorkstationRepository) Lineage(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	stmt := `
		WITH RECURSIVE chain (id, parent_workstation_id) AS (
			SELECT id, parent_workstation_id
			FROM workstations
			WHERE id = $1
			UNION
			SELECT w.id, w.parent_workstation_id
			FROM workstations w
			JOIN chain c ON w.id = c.parent_workstation_id
		)
		SELECT id FROM chain`

	rows, err := conn(ctx, r.pool).Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute lineage query for id=%s: %w", id, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to collect lineage of workstation id=%s: %w", id, err)
	}
	return ids, nil
}

func (r *WorkstationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM workstations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workstation id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.NoRows("workstations", pgx.ErrNoRows)
	}
	return nil
}

// ListLinks returns the parent edge of every workstation.
func (r *WorkstationRepository) ListLinks(ctx context.Context) ([]model.TreeLink, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, parent_workstation_id FROM workstations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute list links query: %w", err)
	}

	links, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.TreeLink])
	if err != nil {
		return nil, fmt.Errorf("failed to collect links from workstations: %w", err)
	}
	return links, nil
}
