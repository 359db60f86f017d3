// SPDX-License-Identifier: MIT

// Package solver - gathering a distributed system for redundant factorization.
//
// The built-in backends replicate the whole operator on every rank and
// factor it there, so every rank holds identical factors and can solve for
// its own rows without further communication. The pattern is gathered once
// per symbolic analysis, values once per numeric factorization, the
// right-hand side once per solve.

package solver

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/vector"
)

// patternMsg carries one rank's owned rows (ids and column ids).
type patternMsg struct {
	IDs  []int64
	Cols [][]int64
}

// globalSystem is the replicated index space of the gathered operator.
// Dense index i stands for global id ids[i]; ids are ascending.
type globalSystem struct {
	ids   []int64
	index map[int64]int
	cols  [][]int // per dense row: dense column indices, ascending
	order [][]int // per rank: dense row index of each owned row, in local order
	vals  [][]float64
}

func (g *globalSystem) n() int { return len(g.ids) }

// gatherPattern replicates the sparsity pattern of p.A on every rank.
// Errors: partition.ErrUnmappedEntry if a column id is not a row id.
func gatherPattern(ctx context.Context, p *Problem) (*globalSystem, error) {
	a := p.A
	rowMap := a.RowMap()
	mine := patternMsg{IDs: rowMap.GlobalIDs(), Cols: make([][]int64, rowMap.NumLocal())}
	for i, id := range mine.IDs {
		cols, _, err := a.Row(id)
		if err != nil {
			return nil, err
		}
		mine.Cols[i] = cols
	}
	all, err := comm.AllGatherOf(ctx, rowMap.Comm(), mine)
	if err != nil {
		return nil, err
	}

	g := &globalSystem{index: make(map[int64]int), order: make([][]int, len(all))}
	for _, msg := range all {
		g.ids = append(g.ids, msg.IDs...)
	}
	slices.Sort(g.ids)
	for i, id := range g.ids {
		g.index[id] = i
	}
	g.cols = make([][]int, len(g.ids))
	for r, msg := range all {
		g.order[r] = make([]int, len(msg.IDs))
		for k, id := range msg.IDs {
			row := g.index[id]
			g.order[r][k] = row
			dense := make([]int, len(msg.Cols[k]))
			for c, col := range msg.Cols[k] {
				j, ok := g.index[col]
				if !ok {
					return nil, fmt.Errorf("row %d references column %d: %w", id, col, partition.ErrUnmappedEntry)
				}
				dense[c] = j
			}
			// Column ids are ascending and the id → index mapping is monotone.
			g.cols[row] = dense
		}
	}

	return g, nil
}

// gatherValues replicates the values of p.A in the layout of g.cols.
func gatherValues(ctx context.Context, p *Problem, g *globalSystem) error {
	a := p.A
	ids := a.RowMap().GlobalIDs()
	mine := make([][]float64, len(ids))
	for i, id := range ids {
		_, vals, err := a.Row(id)
		if err != nil {
			return err
		}
		mine[i] = vals
	}
	all, err := comm.AllGatherOf(ctx, a.RowMap().Comm(), mine)
	if err != nil {
		return err
	}
	g.vals = make([][]float64, g.n())
	for r, rows := range all {
		for k, vals := range rows {
			row := g.order[r][k]
			if len(vals) != len(g.cols[row]) {
				return fmt.Errorf("row %d changed shape since symbolic analysis: %w", g.ids[row], ErrStaleSymbolic)
			}
			g.vals[row] = vals
		}
	}

	return nil
}

// gatherVector replicates v in dense index order.
func gatherVector(ctx context.Context, v *vector.Vector, g *globalSystem) ([]float64, error) {
	all, err := comm.AllGatherOf(ctx, v.Map().Comm(), v.Values())
	if err != nil {
		return nil, err
	}
	out := make([]float64, g.n())
	for r, vals := range all {
		for k, x := range vals {
			out[g.order[r][k]] = x
		}
	}

	return out, nil
}

// scatterSolution writes this rank's rows of sol into x.
func scatterSolution(sol []float64, x *vector.Vector, g *globalSystem) error {
	rank := x.Map().Rank()
	local := make([]float64, len(g.order[rank]))
	for k, row := range g.order[rank] {
		local[k] = sol[row]
	}

	return x.SetLocalValues(local)
}
