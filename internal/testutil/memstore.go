// Package testutil provides an in-memory store that satisfies the
// repository contracts of the service layer, for tests that do not need
// PostgreSQL.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// MemStore keeps cities and workstations in maps. WithinTx snapshots both
// maps and restores them when the function fails.
type MemStore struct {
	mu           sync.Mutex
	cities       map[uuid.UUID]model.City
	workstations map[uuid.UUID]model.Workstation
	failures     map[string]*failure
}

type failure struct {
	after int
	err   error
}

func NewMemStore() *MemStore {
	return &MemStore{
		cities:       map[uuid.UUID]model.City{},
		workstations: map[uuid.UUID]model.Workstation{},
		failures:     map[string]*failure{},
	}
}

// FailAfter makes method succeed n more times and then return err.
func (m *MemStore) FailAfter(method string, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = &failure{after: n, err: err}
}

// fail must be called with mu held.
func (m *MemStore) fail(method string) error {
	f, ok := m.failures[method]
	if !ok {
		return nil
	}
	if f.after > 0 {
		f.after--
		return nil
	}
	return f.err
}

func (m *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	cities := cloneMap(m.cities)
	workstations := cloneMap(m.workstations)
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.mu.Lock()
		m.cities = cities
		m.workstations = workstations
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func notFound(table string) error {
	return sqlerr.NoRows(table, pgx.ErrNoRows)
}

func copyWorkstation(w model.Workstation) model.Workstation {
	if w.ParentWorkstationID != nil {
		p := *w.ParentWorkstationID
		w.ParentWorkstationID = &p
	}
	w.City = nil
	w.ParentWorkstation = nil
	w.ChildWorkstations = nil
	return w
}

func byNameThenID(a, b model.Workstation) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// AddCity inserts a city directly.
func (m *MemStore) AddCity(name, state string) model.City {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	c := model.City{Base: model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}, Name: name, State: state}
	m.cities[c.ID] = c
	return c
}

// AddWorkstation inserts a workstation directly, bypassing every check.
func (m *MemStore) AddWorkstation(name string, cityID uuid.UUID, parentID *uuid.UUID) model.Workstation {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	w := model.Workstation{
		Base:                model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:                name,
		CityID:              cityID,
		ParentWorkstationID: parentID,
	}
	m.workstations[w.ID] = copyWorkstation(w)
	return w
}

// Parent returns the stored parent id of id.
func (m *MemStore) Parent(id uuid.UUID) *uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyWorkstation(m.workstations[id]).ParentWorkstationID
}

func (m *MemStore) Exists(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.workstations[id]
	return ok
}

func (m *MemStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workstations)
}

// Cities returns the city side of the store.
func (m *MemStore) Cities() *CityStore {
	return &CityStore{m: m}
}

type CityStore struct {
	m *MemStore
}

func (s *CityStore) Create(ctx context.Context, city *model.City) (*model.City, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("CreateCity"); err != nil {
		return nil, err
	}
	now := time.Now()
	c := *city
	c.CreatedAt, c.UpdatedAt = now, now
	s.m.cities[c.ID] = c
	return &c, nil
}

func (s *CityStore) FindAll(ctx context.Context) ([]model.City, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]model.City, 0, len(s.m.cities))
	for _, c := range s.m.cities {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.City) int {
		if c := strings.Compare(a.State, b.State); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *CityStore) FindByID(ctx context.Context, id uuid.UUID) (*model.City, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.cities[id]
	if !ok {
		return nil, notFound("cities")
	}
	return &c, nil
}

// Workstations returns the workstation side of the store.
func (m *MemStore) Workstations() *WorkstationStore {
	return &WorkstationStore{m: m}
}

type WorkstationStore struct {
	m *MemStore
}

func (s *WorkstationStore) Create(ctx context.Context, w *model.Workstation) (*model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("Create"); err != nil {
		return nil, err
	}
	if _, ok := s.m.cities[w.CityID]; !ok {
		return nil, fmt.Errorf("insert workstation: city %s does not exist", w.CityID)
	}
	now := time.Now()
	created := copyWorkstation(*w)
	created.CreatedAt, created.UpdatedAt = now, now
	s.m.workstations[created.ID] = created
	out := copyWorkstation(created)
	return &out, nil
}

func (s *WorkstationStore) Update(ctx context.Context, w *model.Workstation) (*model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("Update"); err != nil {
		return nil, err
	}
	existing, ok := s.m.workstations[w.ID]
	if !ok {
		return nil, notFound("workstations")
	}
	updated := copyWorkstation(*w)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	s.m.workstations[w.ID] = updated
	out := copyWorkstation(updated)
	return &out, nil
}

func (s *WorkstationStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	w, ok := s.m.workstations[id]
	if !ok {
		return nil, notFound("workstations")
	}
	out := copyWorkstation(w)
	return &out, nil
}

func (s *WorkstationStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Workstation{}
	for _, id := range ids {
		if w, ok := s.m.workstations[id]; ok {
			out = append(out, copyWorkstation(w))
		}
	}
	slices.SortFunc(out, byNameThenID)
	return out, nil
}

func (s *WorkstationStore) Find(ctx context.Context, rel model.Relations) ([]model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]model.Workstation, 0, len(s.m.workstations))
	for _, w := range s.m.workstations {
		out = append(out, copyWorkstation(w))
	}
	slices.SortFunc(out, byNameThenID)
	for i := range out {
		s.loadRelations(&out[i], rel)
	}
	return out, nil
}

func (s *WorkstationStore) FindOne(ctx context.Context, id uuid.UUID, rel model.Relations) (*model.Workstation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	w, ok := s.m.workstations[id]
	if !ok {
		return nil, notFound("workstations")
	}
	out := copyWorkstation(w)
	s.loadRelations(&out, rel)
	return &out, nil
}

// loadRelations must be called with mu held.
func (s *WorkstationStore) loadRelations(w *model.Workstation, rel model.Relations) {
	if rel.Has(model.RelCity) {
		if c, ok := s.m.cities[w.CityID]; ok {
			w.City = &c
		}
	}
	if rel.Has(model.RelParent) && w.ParentWorkstationID != nil {
		if p, ok := s.m.workstations[*w.ParentWorkstationID]; ok {
			parent := copyWorkstation(p)
			w.ParentWorkstation = &parent
		}
	}
	if rel.Has(model.RelChildren) {
		w.ChildWorkstations = []model.Workstation{}
		for _, c := range s.m.workstations {
			if c.ParentWorkstationID != nil && *c.ParentWorkstationID == w.ID {
				w.ChildWorkstations = append(w.ChildWorkstations, copyWorkstation(c))
			}
		}
		slices.SortFunc(w.ChildWorkstations, byNameThenID)
	}
}

func (s *WorkstationStore) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("SetParent"); err != nil {
		return err
	}
	w, ok := s.m.workstations[id]
	if !ok {
		return notFound("workstations")
	}
	if parentID != nil {
		p := *parentID
		parentID = &p
	}
	w.ParentWorkstationID = parentID
	w.UpdatedAt = time.Now()
	s.m.workstations[id] = w
	return nil
}

func (s *WorkstationStore) ReplaceChildren(ctx context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("ReplaceChildren"); err != nil {
		return err
	}
	for id, w := range s.m.workstations {
		isChild := w.ParentWorkstationID != nil && *w.ParentWorkstationID == parentID
		listed := slices.Contains(childIDs, id)
		switch {
		case isChild && !listed:
			w.ParentWorkstationID = nil
		case listed && !isChild:
			p := parentID
			w.ParentWorkstationID = &p
		default:
			continue
		}
		w.UpdatedAt = time.Now()
		s.m.workstations[id] = w
	}
	return nil
}

func (s *WorkstationStore) Lineage(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.workstations[id]; !ok {
		return []uuid.UUID{}, nil
	}
	return model.Ancestors(s.links(), id), nil
}

func (s *WorkstationStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("Delete"); err != nil {
		return err
	}
	if _, ok := s.m.workstations[id]; !ok {
		return notFound("workstations")
	}
	delete(s.m.workstations, id)
	for cid, c := range s.m.workstations {
		if c.ParentWorkstationID != nil && *c.ParentWorkstationID == id {
			c.ParentWorkstationID = nil
			s.m.workstations[cid] = c
		}
	}
	return nil
}

func (s *WorkstationStore) ListLinks(ctx context.Context) ([]model.TreeLink, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.links(), nil
}

// links must be called with mu held.
func (s *WorkstationStore) links() []model.TreeLink {
	out := make([]model.TreeLink, 0, len(s.m.workstations))
	for _, w := range s.m.workstations {
		c := copyWorkstation(w)
		out = append(out, c.Link())
	}
	return out
}
