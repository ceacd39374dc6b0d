package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/deppfellow/workstations/internal/errs"
	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	CodeWorkstationNotFound            = "WORKSTATION_NOT_FOUND"
	CodeParentWorkstationNotFound      = "PARENT_WORKSTATION_NOT_FOUND"
	CodeDestinationWorkstationNotFound = "DESTINATION_WORKSTATION_NOT_FOUND"
	CodeReallocatedWorkstationNotFound = "REALLOCATED_WORKSTATION_NOT_FOUND"
	CodeWorkstationTreeCycle           = "WORKSTATION_TREE_CYCLE"
	CodeInvalidReallocation            = "INVALID_REALLOCATION"
)

type WorkstationRepository interface {
	Create(ctx context.Context, w *model.Workstation) (*model.Workstation, error)
	Update(ctx context.Context, w *model.Workstation) (*model.Workstation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workstation, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Workstation, error)
	Find(ctx context.Context, rel model.Relations) ([]model.Workstation, error)
	FindOne(ctx context.Context, id uuid.UUID, rel model.Relations) (*model.Workstation, error)
	SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	ReplaceChildren(ctx context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error
	Lineage(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Transactor runs fn in a single database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TreeAuditEnqueuer schedules a background integrity check of the tree.
type TreeAuditEnqueuer interface {
	EnqueueTreeAudit(ctx context.Context, reason string, workstationID uuid.UUID) error
}

type WorkstationService struct {
	repo   WorkstationRepository
	cities *CityService
	tx     Transactor
	audit  TreeAuditEnqueuer
}

// NewWorkstationService wires the service. audit may be nil.
func NewWorkstationService(repo WorkstationRepository, cities *CityService, tx Transactor, audit TreeAuditEnqueuer) *WorkstationService {
	return &WorkstationService{
		repo:   repo,
		cities: cities,
		tx:     tx,
		audit:  audit,
	}
}

// notFoundAs turns a missing-row error into a 404 with the given code and
// wraps anything else.
func notFoundAs(err error, message, code, action string) error {
	if sqlerr.IsNotFound(err) {
		return errs.NewNotFoundError(message, true, errs.Code(code))
	}
	return fmt.Errorf("%s: %w", action, err)
}

func treeCycleError(message string) error {
	return errs.NewBadRequestError(message, true, errs.Code(CodeWorkstationTreeCycle), nil, nil)
}

func idsOf(ws []model.Workstation) []uuid.UUID {
	out := make([]uuid.UUID, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

// detachedLineage cuts the lineage of a new parent at self. Reaching self
// means the new parent sits below one of its current children; that is only
// allowed when the child is detached by the update, which makes it a root.
func detachedLineage(self uuid.UUID, lineage, children []uuid.UUID) ([]uuid.UUID, error) {
	idx := slices.Index(lineage, self)
	if idx < 0 {
		return lineage, nil
	}
	if idx == 0 || slices.Contains(children, lineage[idx-1]) {
		return nil, treeCycleError("A workstation cannot be moved under one of its descendants")
	}
	return lineage[:idx], nil
}

// checkChildren rejects children that would close a loop: the node itself
// or any node on the lineage above it.
func checkChildren(self uuid.UUID, children, lineage []uuid.UUID) error {
	for _, c := range children {
		if c == self {
			return treeCycleError("A workstation cannot be its own child")
		}
		if slices.Contains(lineage, c) {
			return treeCycleError(fmt.Sprintf("Workstation %s is an ancestor and cannot be attached as a child", c))
		}
	}
	return nil
}

// CreateWorkstation inserts a workstation under an optional parent and
// attaches the listed children to it. Child ids that match no workstation
// are dropped silently; a child that is already an ancestor of the new
// node is rejected as a cycle.
func (s *WorkstationService) CreateWorkstation(ctx context.Context, payload *model.CreateWorkstationDto) (*model.Workstation, error) {
	logger := zerolog.Ctx(ctx)

	cityID, err := parseID("city_id", payload.CityID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID("parent_workstation_id", payload.ParentWorkstationID)
	if err != nil {
		return nil, err
	}
	childIDs, err := parseIDs("child_workstation_ids", payload.ChildWorkstationIDs)
	if err != nil {
		return nil, err
	}

	workstation := &model.Workstation{
		Base:                model.Base{ID: uuid.New()},
		Name:                payload.Name,
		Phone:               payload.Phone,
		IP:                  payload.IP,
		Gateway:             payload.Gateway,
		VPN:                 payload.VPN,
		CityID:              cityID,
		ParentWorkstationID: parentID,
	}

	var created *model.Workstation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.cities.FindCityByID(ctx, cityID); err != nil {
			return err
		}

		var lineage []uuid.UUID
		if parentID != nil {
			if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
				return notFoundAs(err, "Parent workstation not found", CodeParentWorkstationNotFound, "looking up parent workstation")
			}
			if lineage, err = s.repo.Lineage(ctx, *parentID); err != nil {
				return fmt.Errorf("loading lineage: %w", err)
			}
		}

		// Unknown child ids are dropped silently.
		children, err := s.repo.FindByIDs(ctx, childIDs)
		if err != nil {
			return fmt.Errorf("resolving child workstations: %w", err)
		}
		resolved := idsOf(children)

		if err := checkChildren(workstation.ID, resolved, lineage); err != nil {
			return err
		}

		if _, err := s.repo.Create(ctx, workstation); err != nil {
			return err
		}

		if len(resolved) > 0 {
			if err := s.repo.ReplaceChildren(ctx, workstation.ID, resolved); err != nil {
				return err
			}
		}

		created, err = s.repo.FindOne(ctx, workstation.ID, model.RelAll)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("event", "workstation_created").
		Str("workstation_id", created.ID.String()).
		Int("children", len(created.ChildWorkstations)).
		Msg("workstation created")

	s.enqueueAudit(ctx, "create", created.ID)

	return created, nil
}

// FindAll lists every workstation with its city, parent and children.
func (s *WorkstationService) FindAll(ctx context.Context) ([]model.Workstation, error) {
	ws, err := s.repo.Find(ctx, model.RelAll)
	if err != nil {
		return nil, fmt.Errorf("listing workstations: %w", err)
	}
	return ws, nil
}

// FindOne returns a workstation with its parent and children.
func (s *WorkstationService) FindOne(ctx context.Context, req *model.GetWorkstationRequest) (*model.Workstation, error) {
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	w, err := s.repo.FindOne(ctx, id, model.RelParent|model.RelChildren)
	if err != nil {
		return nil, notFoundAs(err, "Workstation not found", CodeWorkstationNotFound, "looking up workstation")
	}
	return w, nil
}

// UpdateWorkstation applies the fields present in payload and replaces the
// child list. Child ids that match no workstation are dropped silently, and
// an absent list detaches every current child, which lets a workstation move
// under one of its own descendants when the path to it is detached.
func (s *WorkstationService) UpdateWorkstation(ctx context.Context, payload *model.UpdateWorkstationDto) (*model.Workstation, error) {
	logger := zerolog.Ctx(ctx)

	id, err := parseID("id", payload.ID)
	if err != nil {
		return nil, err
	}
	cityID, err := parseOptionalID("city_id", payload.CityID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseOptionalID("parent_workstation_id", payload.ParentWorkstationID)
	if err != nil {
		return nil, err
	}
	childIDs, err := parseIDs("child_workstation_ids", payload.ChildWorkstationIDs)
	if err != nil {
		return nil, err
	}

	var updated *model.Workstation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "Workstation not found", CodeWorkstationNotFound, "looking up workstation")
		}

		if cityID != nil {
			if _, err := s.cities.FindCityByID(ctx, *cityID); err != nil {
				return err
			}
			existing.CityID = *cityID
		}

		if parentID != nil {
			if *parentID == id {
				return treeCycleError("A workstation cannot be its own parent")
			}
			if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
				return notFoundAs(err, "Parent workstation not found", CodeParentWorkstationNotFound, "looking up parent workstation")
			}
			existing.ParentWorkstationID = parentID
		}

		if payload.Name != nil {
			existing.Name = *payload.Name
		}
		if payload.Phone != nil {
			existing.Phone = payload.Phone
		}
		if payload.IP != nil {
			existing.IP = payload.IP
		}
		if payload.Gateway != nil {
			existing.Gateway = payload.Gateway
		}
		if payload.VPN != nil {
			existing.VPN = *payload.VPN
		}

		// The child list is always replaced: an absent list detaches every
		// current child.
		children, err := s.repo.FindByIDs(ctx, childIDs)
		if err != nil {
			return fmt.Errorf("resolving child workstations: %w", err)
		}
		resolved := idsOf(children)

		var lineage []uuid.UUID
		if existing.ParentWorkstationID != nil {
			if lineage, err = s.repo.Lineage(ctx, *existing.ParentWorkstationID); err != nil {
				return fmt.Errorf("loading lineage: %w", err)
			}
			if lineage, err = detachedLineage(id, lineage, resolved); err != nil {
				return err
			}
		}

		if err := checkChildren(id, resolved, lineage); err != nil {
			return err
		}

		if _, err := s.repo.Update(ctx, existing); err != nil {
			return err
		}

		if err := s.repo.ReplaceChildren(ctx, id, resolved); err != nil {
			return err
		}

		updated, err = s.repo.FindOne(ctx, id, model.RelAll)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("event", "workstation_updated").
		Str("workstation_id", id.String()).
		Int("children", len(updated.ChildWorkstations)).
		Msg("workstation updated")

	s.enqueueAudit(ctx, "update", id)

	return updated, nil
}

type reallocation struct {
	child       uuid.UUID
	destination uuid.UUID
}

// DeleteWorkstation moves the listed children under their destinations and
// then removes the workstation. Children not listed become roots.
func (s *WorkstationService) DeleteWorkstation(ctx context.Context, payload *model.DeleteWorkstationDto) (*model.DeleteWorkstationResponse, error) {
	logger := zerolog.Ctx(ctx)

	id, err := parseID("id", payload.ID)
	if err != nil {
		return nil, err
	}

	moves := make([]reallocation, 0, len(payload.Data))
	for _, r := range payload.Data {
		child, err := parseID("reallocatedId", r.ReallocatedID)
		if err != nil {
			return nil, err
		}
		destination, err := parseID("destinationId", r.DestinationID)
		if err != nil {
			return nil, err
		}
		moves = append(moves, reallocation{child: child, destination: destination})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return notFoundAs(err, "Workstation not found", CodeWorkstationNotFound, "looking up workstation")
		}

		for _, m := range moves {
			if m.destination == id || m.child == id {
				return errs.NewBadRequestError(
					"The deleted workstation cannot take part in a reallocation", true,
					errs.Code(CodeInvalidReallocation), nil, nil,
				)
			}
			if m.destination == m.child {
				return treeCycleError("A workstation cannot be reallocated under itself")
			}

			if _, err := s.repo.FindOne(ctx, m.destination, model.RelParent|model.RelChildren); err != nil {
				return notFoundAs(err, "Destination workstation not found", CodeDestinationWorkstationNotFound, "looking up destination workstation")
			}
			if _, err := s.repo.FindByID(ctx, m.child); err != nil {
				return notFoundAs(err, "Reallocated workstation not found", CodeReallocatedWorkstationNotFound, "looking up reallocated workstation")
			}

			lineage, err := s.repo.Lineage(ctx, m.destination)
			if err != nil {
				return fmt.Errorf("loading lineage: %w", err)
			}
			if slices.Contains(lineage, m.child) {
				return treeCycleError("A workstation cannot be reallocated under one of its descendants")
			}

			if err := s.repo.SetParent(ctx, m.child, &m.destination); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("event", "workstation_deleted").
		Str("workstation_id", id.String()).
		Int("reallocated", len(moves)).
		Msg("workstation deleted")

	s.enqueueAudit(ctx, "delete", id)

	return &model.DeleteWorkstationResponse{Message: "Workstation deleted successfully"}, nil
}

// enqueueAudit failures are logged only; the write has already committed.
func (s *WorkstationService) enqueueAudit(ctx context.Context, reason string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	if err := s.audit.EnqueueTreeAudit(ctx, reason, id); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("workstation_id", id.String()).
			Msg("failed to enqueue tree audit")
	}
}
