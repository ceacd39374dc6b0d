package model

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// TreeLink is a single parent edge of the workstation forest.
type TreeLink struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	ParentID *uuid.UUID `json:"parent_id" db:"parent_workstation_id"`
}

// FindCycles returns every cycle formed by the parent edges in links, each
// listed from the node reached first when walking in id order. Parents that
// are not in links end a walk. The result is empty for a proper forest.
func FindCycles(links []TreeLink) [][]uuid.UUID {
	parent := make(map[uuid.UUID]*uuid.UUID, len(links))
	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		if _, dup := parent[l.ID]; !dup {
			ids = append(ids, l.ID)
		}
		parent[l.ID] = l.ParentID
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[uuid.UUID]int, len(ids))
	var cycles [][]uuid.UUID

	for _, start := range ids {
		if state[start] != unvisited {
			continue
		}

		var path []uuid.UUID
		cur := start
		for {
			if state[cur] == onPath {
				i := slices.Index(path, cur)
				cycles = append(cycles, slices.Clone(path[i:]))
				break
			}
			if state[cur] == done {
				break
			}
			state[cur] = onPath
			path = append(path, cur)

			p, known := parent[cur]
			if !known || p == nil {
				break
			}
			if _, exists := parent[*p]; !exists {
				break
			}
			cur = *p
		}

		for _, id := range path {
			state[id] = done
		}
	}

	return cycles
}

// Ancestors walks parent edges from id upwards, returning id first. The
// walk stops at a root, at an unknown parent or when it revisits a node.
func Ancestors(links []TreeLink, id uuid.UUID) []uuid.UUID {
	parent := make(map[uuid.UUID]*uuid.UUID, len(links))
	for _, l := range links {
		parent[l.ID] = l.ParentID
	}

	seen := map[uuid.UUID]bool{}
	var chain []uuid.UUID
	cur := id
	for !seen[cur] {
		seen[cur] = true
		chain = append(chain, cur)
		p, ok := parent[cur]
		if !ok || p == nil {
			break
		}
		cur = *p
	}
	return chain
}
