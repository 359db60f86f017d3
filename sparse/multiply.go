// SPDX-License-Identifier: MIT

package sparse

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/vector"
)

const (
	opColumnMap = "ColumnMap"
	opMultiply  = "Multiply"
)

// multiplyCache is the column layout of the finalized pattern: which x
// entries this rank reads, how to import them, and where each stored entry
// finds its x value.
type multiplyCache struct {
	colMap *partition.Map
	plan   *partition.Plan // row map (domain) → colMap
	colIdx [][]int         // per local row: colMap local index of each stored entry
}

// ColumnMap returns the Overlapping map of every column id referenced by
// this rank's rows. Collective on first use after each Finalize; cached.
func (a *Matrix) ColumnMap(ctx context.Context) (*partition.Map, error) {
	mc, err := a.multiplier(ctx)
	if err != nil {
		return nil, err
	}

	return mc.colMap, nil
}

func (a *Matrix) multiplier(ctx context.Context) (*multiplyCache, error) {
	if a.mult != nil {
		return a.mult, nil
	}
	var local error
	if a.state != Finalized {
		local = wrongState(a.state, Finalized)
	}
	if err := comm.Agree(ctx, a.rowMap.Comm(), local); err != nil {
		return nil, sparseErrorf(opColumnMap, err)
	}

	seen := make(map[int64]struct{})
	for i := range a.rows {
		for _, col := range a.rows[i].cols {
			seen[col] = struct{}{}
		}
	}
	ids := maps.Keys(seen)
	slices.Sort(ids)
	colMap, err := partition.Build(ctx, a.rowMap.Comm(), ids, partition.Overlapping)
	if err != nil {
		return nil, sparseErrorf(opColumnMap, err)
	}
	// Columns must be rows of the square operator: the plan reports any
	// column id no rank owns as partition.ErrUnmappedEntry.
	plan, err := partition.NewPlan(ctx, a.rowMap, colMap)
	if err != nil {
		return nil, sparseErrorf(opColumnMap, err)
	}
	colIdx := make([][]int, len(a.rows))
	for i := range a.rows {
		idx := make([]int, len(a.rows[i].cols))
		for k, col := range a.rows[i].cols {
			idx[k], _ = colMap.LocalIndexOf(col)
		}
		colIdx[i] = idx
	}
	a.mult = &multiplyCache{colMap: colMap, plan: plan, colIdx: colIdx}

	return a.mult, nil
}

// Multiply computes y = A·x. x and y must be laid out on the row map.
// Collective: imports the off-rank x entries this rank's rows reference.
// Errors: ErrNotReady, ErrMapMismatch (both agreed).
func (a *Matrix) Multiply(ctx context.Context, x, y *vector.Vector) error {
	var local error
	if !x.Map().SameAs(a.rowMap) || !y.Map().SameAs(a.rowMap) {
		local = fmt.Errorf("x and y must be on the row map: %w", ErrMapMismatch)
	}
	if err := comm.Agree(ctx, a.rowMap.Comm(), local); err != nil {
		return sparseErrorf(opMultiply, err)
	}
	mc, err := a.multiplier(ctx)
	if err != nil {
		return sparseErrorf(opMultiply, err)
	}

	xc := make([]float64, mc.colMap.NumLocal())
	if err = mc.plan.Apply(ctx, x.LocalValues(), xc, partition.Insert); err != nil {
		return sparseErrorf(opMultiply, err)
	}
	out := make([]float64, len(a.rows))
	var sum float64
	for i := range a.rows {
		sum = 0
		for k, v := range a.rows[i].vals {
			sum += v * xc[mc.colIdx[i][k]]
		}
		out[i] = sum
	}

	return y.SetLocalValues(out)
}
