package service

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/workstations/internal/errs"
	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditCall struct {
	reason string
	id     uuid.UUID
}

type recordingAudit struct {
	calls []auditCall
	err   error
}

func (r *recordingAudit) EnqueueTreeAudit(_ context.Context, reason string, id uuid.UUID) error {
	r.calls = append(r.calls, auditCall{reason: reason, id: id})
	return r.err
}

type fixture struct {
	store *testutil.MemStore
	svc   *WorkstationService
	audit *recordingAudit
	city  model.City
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	audit := &recordingAudit{}
	return &fixture{
		store: store,
		svc:   NewWorkstationService(store.Workstations(), NewCityService(store.Cities()), store, audit),
		audit: audit,
		city:  store.AddCity("Recife", "PE"),
	}
}

func (f *fixture) add(name string, parent *uuid.UUID) uuid.UUID {
	return f.store.AddWorkstation(name, f.city.ID, parent).ID
}

func requireHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	assert.Equal(t, status, httpErr.Status)
	if code != "" {
		assert.Equal(t, code, httpErr.Code)
	}
}

func ptr[T any](v T) *T { return &v }

func childIDs(w *model.Workstation) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(w.ChildWorkstations))
	for _, c := range w.ChildWorkstations {
		out = append(out, c.ID)
	}
	return out
}

func TestCreateWorkstationRoot(t *testing.T) {
	f := newFixture(t)

	w, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:   "reception",
		IP:     ptr("10.0.0.10"),
		VPN:    true,
		CityID: f.city.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "reception", w.Name)
	assert.Nil(t, w.ParentWorkstationID)
	assert.Nil(t, w.ParentWorkstation)
	assert.NotNil(t, w.ChildWorkstations)
	assert.Empty(t, w.ChildWorkstations)
	require.NotNil(t, w.City)
	assert.Equal(t, f.city.ID, w.City.ID)

	require.Len(t, f.audit.calls, 1)
	assert.Equal(t, auditCall{reason: "create", id: w.ID}, f.audit.calls[0])
}

func TestCreateWorkstationWithParentAndChildren(t *testing.T) {
	f := newFixture(t)
	parent := f.add("parent", nil)
	orphan := f.add("orphan", nil)

	w, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:                "middle",
		CityID:              f.city.ID.String(),
		ParentWorkstationID: ptr(parent.String()),
		ChildWorkstationIDs: []string{orphan.String(), uuid.NewString()},
	})
	require.NoError(t, err)

	require.NotNil(t, w.ParentWorkstation)
	assert.Equal(t, parent, w.ParentWorkstation.ID)
	// The unknown child id is dropped without an error.
	assert.Equal(t, []uuid.UUID{orphan}, childIDs(w))
	assert.Equal(t, w.ID, *f.store.Parent(orphan))
}

func TestCreateWorkstationUnknownCity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:   "x",
		CityID: uuid.NewString(),
	})
	requireHTTPError(t, err, 404, CodeCityNotFound)
	assert.Zero(t, f.store.Count())
	assert.Empty(t, f.audit.calls)
}

func TestCreateWorkstationUnknownParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:                "x",
		CityID:              f.city.ID.String(),
		ParentWorkstationID: ptr(uuid.NewString()),
	})
	requireHTTPError(t, err, 404, CodeParentWorkstationNotFound)
	assert.Zero(t, f.store.Count())
}

func TestCreateWorkstationRejectsAncestorAsChild(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	leaf := f.add("leaf", &root)

	_, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:                "loop",
		CityID:              f.city.ID.String(),
		ParentWorkstationID: ptr(leaf.String()),
		ChildWorkstationIDs: []string{root.String()},
	})
	requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	assert.Equal(t, 2, f.store.Count())
	assert.Nil(t, f.store.Parent(root))
}

func TestFindOneMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindOne(context.Background(), &model.GetWorkstationRequest{ID: uuid.NewString()})
	requireHTTPError(t, err, 404, CodeWorkstationNotFound)
}

func TestFindOneLoadsParentAndChildren(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	mid := f.add("mid", &root)
	leaf := f.add("leaf", &mid)

	w, err := f.svc.FindOne(context.Background(), &model.GetWorkstationRequest{ID: mid.String()})
	require.NoError(t, err)
	require.NotNil(t, w.ParentWorkstation)
	assert.Equal(t, root, w.ParentWorkstation.ID)
	assert.Equal(t, []uuid.UUID{leaf}, childIDs(w))
	assert.Nil(t, w.City)
}

func TestFindAllOrdersByNameWithRelations(t *testing.T) {
	f := newFixture(t)
	b := f.add("b", nil)
	f.add("a", &b)

	ws, err := f.svc.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "a", ws[0].Name)
	assert.Equal(t, "b", ws[1].Name)
	require.NotNil(t, ws[0].City)
	require.NotNil(t, ws[0].ParentWorkstation)
	assert.Len(t, ws[1].ChildWorkstations, 1)
}

func TestUpdateWithoutChildrenResetsChildrenAndKeepsParent(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	target := f.add("target", &root)
	child := f.add("child", &target)

	w, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:   target.String(),
		Name: ptr("renamed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", w.Name)
	require.NotNil(t, w.ParentWorkstationID)
	assert.Equal(t, root, *w.ParentWorkstationID)
	assert.Empty(t, w.ChildWorkstations)
	assert.Nil(t, f.store.Parent(child))

	require.Len(t, f.audit.calls, 1)
	assert.Equal(t, "update", f.audit.calls[0].reason)
}

func TestUpdateReplacesRelationsAndScalars(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddCity("Olinda", "PE")
	oldParent := f.add("old parent", nil)
	newParent := f.add("new parent", nil)
	target := f.add("target", &oldParent)
	keep := f.add("keep", &target)
	drop := f.add("drop", &target)
	adopt := f.add("adopt", nil)

	w, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:                  target.String(),
		Phone:               ptr("+55 81 5555-0000"),
		VPN:                 ptr(true),
		CityID:              ptr(other.ID.String()),
		ParentWorkstationID: ptr(newParent.String()),
		ChildWorkstationIDs: []string{keep.String(), adopt.String()},
	})
	require.NoError(t, err)

	assert.Equal(t, "target", w.Name)
	assert.Equal(t, "+55 81 5555-0000", *w.Phone)
	assert.True(t, w.VPN)
	assert.Equal(t, other.ID, w.CityID)
	require.NotNil(t, w.City)
	assert.Equal(t, "Olinda", w.City.Name)
	assert.Equal(t, newParent, w.ParentWorkstation.ID)
	assert.ElementsMatch(t, []uuid.UUID{keep, adopt}, childIDs(w))
	assert.Nil(t, f.store.Parent(drop))
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{ID: uuid.NewString()})
	requireHTTPError(t, err, 404, CodeWorkstationNotFound)
}

func TestUpdateUnknownCityOrParent(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)

	_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:     target.String(),
		CityID: ptr(uuid.NewString()),
	})
	requireHTTPError(t, err, 404, CodeCityNotFound)

	_, err = f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:                  target.String(),
		ParentWorkstationID: ptr(uuid.NewString()),
	})
	requireHTTPError(t, err, 404, CodeParentWorkstationNotFound)
}

func TestUpdateMovesUnderDetachedChild(t *testing.T) {
	f := newFixture(t)
	x := f.add("x", nil)
	y := f.add("y", &x)
	z := f.add("z", &y)

	w, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:                  x.String(),
		ParentWorkstationID: ptr(y.String()),
	})
	require.NoError(t, err)
	require.NotNil(t, w.ParentWorkstationID)
	assert.Equal(t, y, *w.ParentWorkstationID)
	assert.Empty(t, w.ChildWorkstations)

	assert.Nil(t, f.store.Parent(y))
	assert.Equal(t, y, *f.store.Parent(x))
	assert.Equal(t, y, *f.store.Parent(z))
}

func TestUpdateMovesUnderDeepDescendantOfDetachedChild(t *testing.T) {
	f := newFixture(t)
	x := f.add("x", nil)
	y := f.add("y", &x)
	z := f.add("z", &y)

	_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
		ID:                  x.String(),
		ParentWorkstationID: ptr(z.String()),
	})
	require.NoError(t, err)

	assert.Nil(t, f.store.Parent(y))
	assert.Equal(t, z, *f.store.Parent(x))
}

func TestUpdateRejectsCycles(t *testing.T) {
	f := newFixture(t)
	root := f.add("root", nil)
	mid := f.add("mid", &root)
	leaf := f.add("leaf", &mid)

	t.Run("own parent", func(t *testing.T) {
		_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
			ID:                  root.String(),
			ParentWorkstationID: ptr(root.String()),
		})
		requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	})

	t.Run("parent is a descendant", func(t *testing.T) {
		_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
			ID:                  root.String(),
			ParentWorkstationID: ptr(leaf.String()),
			ChildWorkstationIDs: []string{mid.String()},
		})
		requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	})

	t.Run("own child", func(t *testing.T) {
		_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
			ID:                  mid.String(),
			ChildWorkstationIDs: []string{mid.String()},
		})
		requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	})

	t.Run("ancestor as child", func(t *testing.T) {
		_, err := f.svc.UpdateWorkstation(context.Background(), &model.UpdateWorkstationDto{
			ID:                  leaf.String(),
			ChildWorkstationIDs: []string{root.String()},
		})
		requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	})

	// Nothing moved.
	assert.Nil(t, f.store.Parent(root))
	assert.Equal(t, root, *f.store.Parent(mid))
	assert.Equal(t, mid, *f.store.Parent(leaf))
	assert.Empty(t, f.audit.calls)
}

func TestDeleteWithoutReallocations(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)
	child := f.add("child", &target)

	res, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{ID: target.String()})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)

	assert.False(t, f.store.Exists(target))
	assert.True(t, f.store.Exists(child))
	assert.Nil(t, f.store.Parent(child))

	require.Len(t, f.audit.calls, 1)
	assert.Equal(t, auditCall{reason: "delete", id: target}, f.audit.calls[0])
}

func TestDeleteWithReallocations(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)
	a := f.add("a", &target)
	b := f.add("b", &target)
	destA := f.add("dest a", nil)
	destB := f.add("dest b", nil)

	_, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID: target.String(),
		Data: []model.Reallocation{
			{ReallocatedID: a.String(), DestinationID: destA.String()},
			{ReallocatedID: b.String(), DestinationID: destB.String()},
		},
	})
	require.NoError(t, err)

	assert.False(t, f.store.Exists(target))
	assert.Equal(t, destA, *f.store.Parent(a))
	assert.Equal(t, destB, *f.store.Parent(b))
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{ID: uuid.NewString()})
	requireHTTPError(t, err, 404, CodeWorkstationNotFound)
}

func TestDeleteReallocationLookups(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)
	child := f.add("child", &target)
	dest := f.add("dest", nil)

	_, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID:   target.String(),
		Data: []model.Reallocation{{ReallocatedID: child.String(), DestinationID: uuid.NewString()}},
	})
	requireHTTPError(t, err, 404, CodeDestinationWorkstationNotFound)

	_, err = f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID:   target.String(),
		Data: []model.Reallocation{{ReallocatedID: uuid.NewString(), DestinationID: dest.String()}},
	})
	requireHTTPError(t, err, 404, CodeReallocatedWorkstationNotFound)

	_, err = f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID:   target.String(),
		Data: []model.Reallocation{{ReallocatedID: child.String(), DestinationID: target.String()}},
	})
	requireHTTPError(t, err, 400, CodeInvalidReallocation)

	assert.True(t, f.store.Exists(target))
	assert.Equal(t, target, *f.store.Parent(child))
}

func TestDeleteRejectsReallocationIntoOwnSubtree(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)
	child := f.add("child", &target)
	grandchild := f.add("grandchild", &child)

	_, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID:   target.String(),
		Data: []model.Reallocation{{ReallocatedID: child.String(), DestinationID: grandchild.String()}},
	})
	requireHTTPError(t, err, 400, CodeWorkstationTreeCycle)
	assert.True(t, f.store.Exists(target))
}

func TestDeleteRollsBackPartialReallocation(t *testing.T) {
	f := newFixture(t)
	target := f.add("target", nil)
	a := f.add("a", &target)
	b := f.add("b", &target)
	dest := f.add("dest", nil)

	f.store.FailAfter("SetParent", 1, errors.New("connection reset"))

	_, err := f.svc.DeleteWorkstation(context.Background(), &model.DeleteWorkstationDto{
		ID: target.String(),
		Data: []model.Reallocation{
			{ReallocatedID: a.String(), DestinationID: dest.String()},
			{ReallocatedID: b.String(), DestinationID: dest.String()},
		},
	})
	require.Error(t, err)
	assert.Zero(t, errs.StatusOf(err))

	assert.True(t, f.store.Exists(target))
	assert.Equal(t, target, *f.store.Parent(a))
	assert.Equal(t, target, *f.store.Parent(b))
	assert.Empty(t, f.audit.calls)
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("redis down")

	_, err := f.svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:   "x",
		CityID: f.city.ID.String(),
	})
	require.NoError(t, err)
	assert.Len(t, f.audit.calls, 1)
}

func TestNilAuditIsSkipped(t *testing.T) {
	store := testutil.NewMemStore()
	city := store.AddCity("Recife", "PE")
	svc := NewWorkstationService(store.Workstations(), NewCityService(store.Cities()), store, nil)

	_, err := svc.CreateWorkstation(context.Background(), &model.CreateWorkstationDto{
		Name:   "x",
		CityID: city.ID.String(),
	})
	require.NoError(t, err)
}
