package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func link(id uuid.UUID, parent *uuid.UUID) TreeLink {
	return TreeLink{ID: id, ParentID: parent}
}

func TestFindCyclesForest(t *testing.T) {
	n := ids(4)
	links := []TreeLink{
		link(n[0], nil),
		link(n[1], &n[0]),
		link(n[2], &n[1]),
		link(n[3], nil),
	}
	assert.Empty(t, FindCycles(links))
}

func TestFindCyclesDetectsLoop(t *testing.T) {
	n := ids(4)
	links := []TreeLink{
		link(n[0], &n[2]),
		link(n[1], &n[0]),
		link(n[2], &n[1]),
		// n[3] hangs off the loop without being part of it.
		link(n[3], &n[0]),
	}

	cycles := FindCycles(links)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []uuid.UUID{n[0], n[1], n[2]}, cycles[0])
}

func TestFindCyclesSelfParent(t *testing.T) {
	n := ids(1)
	cycles := FindCycles([]TreeLink{link(n[0], &n[0])})
	require.Len(t, cycles, 1)
	assert.Equal(t, []uuid.UUID{n[0]}, cycles[0])
}

func TestFindCyclesUnknownParent(t *testing.T) {
	n := ids(2)
	assert.Empty(t, FindCycles([]TreeLink{link(n[0], &n[1])}))
}

func TestAncestors(t *testing.T) {
	n := ids(3)
	links := []TreeLink{
		link(n[0], nil),
		link(n[1], &n[0]),
		link(n[2], &n[1]),
	}
	assert.Equal(t, []uuid.UUID{n[2], n[1], n[0]}, Ancestors(links, n[2]))
	assert.Equal(t, []uuid.UUID{n[0]}, Ancestors(links, n[0]))

	// A loop terminates instead of spinning.
	loop := []TreeLink{link(n[0], &n[1]), link(n[1], &n[0])}
	assert.Equal(t, []uuid.UUID{n[0], n[1]}, Ancestors(loop, n[0]))
}

func TestRelations(t *testing.T) {
	assert.True(t, RelAll.Has(RelCity))
	assert.True(t, (RelParent | RelChildren).Has(RelChildren))
	assert.False(t, RelParent.Has(RelCity))
	assert.True(t, RelNone.Has(RelNone))
}
