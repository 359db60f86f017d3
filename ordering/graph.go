// SPDX-License-Identifier: MIT

package ordering

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Graph is the symmetric adjacency structure of a square pattern.
// Self loops are dropped; neighbour lists are ascending and duplicate free.
type Graph struct {
	adj [][]int
}

// NewGraph builds the graph of an n×n pattern given row by row: rows[i]
// lists the column indices present in row i. Missing rows are empty.
// Errors: ErrIndexOutOfRange for len(rows) > n or a column outside [0, n).
func NewGraph(n int, rows [][]int) (*Graph, error) {
	if n < 0 || len(rows) > n {
		return nil, fmt.Errorf("NewGraph: %d rows for order %d: %w", len(rows), n, ErrIndexOutOfRange)
	}
	adj := make([][]int, n)
	for i, cols := range rows {
		for _, j := range cols {
			if j < 0 || j >= n {
				return nil, fmt.Errorf("NewGraph: row %d column %d: %w", i, j, ErrIndexOutOfRange)
			}
			if j == i {
				continue
			}
			adj[i] = append(adj[i], j)
			adj[j] = append(adj[j], i)
		}
	}
	for i := range adj {
		slices.Sort(adj[i])
		adj[i] = slices.Compact(adj[i])
	}

	return &Graph{adj: adj}, nil
}

// Order returns the number of vertices.
func (g *Graph) Order() int { return len(g.adj) }

// Degree returns the number of neighbours of v.
func (g *Graph) Degree(v int) int { return len(g.adj[v]) }

// Neighbors returns the neighbours of v, ascending. The slice is shared;
// callers must not modify it.
func (g *Graph) Neighbors(v int) []int { return g.adj[v] }

// Bandwidth returns max |pos(i) − pos(j)| over the edges of g under perm
// (nil perm is the identity).
// Errors: ErrNotPermutation.
func (g *Graph) Bandwidth(perm []int) (int, error) {
	pos := make([]int, g.Order())
	if perm == nil {
		for i := range pos {
			pos[i] = i
		}
	} else {
		inv, err := Inverse(perm)
		if err != nil || len(inv) != g.Order() {
			return 0, fmt.Errorf("Bandwidth: %w", ErrNotPermutation)
		}
		pos = inv
	}
	bw := 0
	for i, nbrs := range g.adj {
		for _, j := range nbrs {
			if d := pos[i] - pos[j]; d > bw {
				bw = d
			}
		}
	}

	return bw, nil
}

// Inverse returns inv with inv[perm[k]] = k.
// Errors: ErrNotPermutation.
func Inverse(perm []int) ([]int, error) {
	inv := make([]int, len(perm))
	for i := range inv {
		inv[i] = -1
	}
	for k, old := range perm {
		if old < 0 || old >= len(perm) || inv[old] != -1 {
			return nil, fmt.Errorf("Inverse: entry %d = %d: %w", k, old, ErrNotPermutation)
		}
		inv[old] = k
	}

	return inv, nil
}
