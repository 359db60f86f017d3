// SPDX-License-Identifier: MIT

// Package sparse - assembly: Contribute, Reduce, Finalize, ResumeFill.
//
// Purpose:
//   - Accept element contributions for any global row on any rank, ship the
//     rows a rank does not own to their owners (Reduce), and freeze the
//     result into sorted compressed rows (Finalize).
//
// Determinism:
//   - Remote entries are packed in ascending (row, col) order and merged in
//     sender rank order, so the assembled values are identical across runs.

package sparse

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/matrix"
	"github.com/katalvlaran/lvdist/partition"
)

const (
	opNew        = "New"
	opContribute = "Contribute"
	opElement    = "ContributeElement"
	opReduce     = "Reduce"
	opFinalize   = "Finalize"
	opResumeFill = "ResumeFill"
)

func sparseErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// stateErr reports an operation attempted in the wrong state.
func stateErr(tag string, got, want State) error {
	return sparseErrorf(tag, wrongState(got, want))
}

// wrongState is the untagged form, for checks whose result goes through
// comm.Agree and is tagged once afterwards.
func wrongState(got, want State) error {
	return fmt.Errorf("state %v, need %v: %w", got, want, ErrNotReady)
}

// Matrix is a distributed sparse matrix whose rows are owned according to a
// row map. Each rank holds the rows it owns; contributions to other rows
// are staged locally until Reduce.
type Matrix struct {
	rowMap  *partition.Map
	state   State
	hint    int
	staging map[int64]map[int64]float64 // row → col → value, Open and Assembled only
	rows    []crsRow                    // committed rows by local index, Finalized only
	version uint64                      // bumped by every Finalize
	mult    *multiplyCache              // column layout for Multiply, built lazily
	opts    options
}

// New returns an empty Open matrix with rows distributed by rowMap.
// nnzPerRow is a capacity hint for each row's staging.
//
// Errors:
//   - ErrInvalidMap if rowMap is nil or not Owned.
//   - ErrInvalidHint if nnzPerRow < 0.
func New(rowMap *partition.Map, nnzPerRow int, opts ...Option) (*Matrix, error) {
	if rowMap == nil {
		return nil, sparseErrorf(opNew, fmt.Errorf("nil row map: %w", ErrInvalidMap))
	}
	if rowMap.Kind() != partition.Owned {
		return nil, sparseErrorf(opNew, fmt.Errorf("row map is %v: %w", rowMap.Kind(), ErrInvalidMap))
	}
	if nnzPerRow < 0 {
		return nil, sparseErrorf(opNew, fmt.Errorf("hint %d: %w", nnzPerRow, ErrInvalidHint))
	}

	return &Matrix{
		rowMap:  rowMap,
		state:   Open,
		hint:    nnzPerRow,
		staging: make(map[int64]map[int64]float64, rowMap.NumLocal()),
		opts:    gatherOptions(opts...),
	}, nil
}

// RowMap returns the row distribution.
func (a *Matrix) RowMap() *partition.Map { return a.rowMap }

// State returns the current lifecycle state.
func (a *Matrix) State() State { return a.state }

// StructureVersion identifies the current sparsity pattern. It changes on
// every Finalize, so an analysis recorded against one version is stale once
// the version moves.
func (a *Matrix) StructureVersion() uint64 { return a.version }

// Contribute adds vals[k] to entry (row, cols[k]) for every k. Duplicate
// entries are summed. row may belong to any rank. Open state only.
//
// Errors:
//   - ErrNotReady outside Open.
//   - ErrDimensionMismatch if len(cols) != len(vals).
//   - ErrNaNInf for a non-finite value (no entry of the call is applied).
func (a *Matrix) Contribute(row int64, cols []int64, vals []float64) error {
	if a.state != Open {
		return stateErr(opContribute, a.state, Open)
	}
	if len(cols) != len(vals) {
		return sparseErrorf(opContribute, fmt.Errorf("%d cols, %d vals: %w", len(cols), len(vals), ErrDimensionMismatch))
	}
	if a.opts.validateNaNInf {
		for k, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return sparseErrorf(opContribute, fmt.Errorf("row %d col %d: %w", row, cols[k], ErrNaNInf))
			}
		}
	}
	r := a.stagedRow(row)
	for k, col := range cols {
		r[col] += vals[k]
	}

	return nil
}

// ContributeElement scatters a dense element matrix: entry (i, j) of elem
// is added to (dofs[i], dofs[j]).
// Errors: ErrDimensionMismatch unless elem is len(dofs)×len(dofs), plus
// those of Contribute.
func (a *Matrix) ContributeElement(dofs []int64, elem *matrix.Dense) error {
	if elem == nil || elem.Rows() != len(dofs) || elem.Cols() != len(dofs) {
		return sparseErrorf(opElement, fmt.Errorf("%d dofs: %w", len(dofs), ErrDimensionMismatch))
	}
	vals := make([]float64, len(dofs))
	var i, j int // loop iterators
	for i = 0; i < len(dofs); i++ {
		for j = 0; j < len(dofs); j++ {
			vals[j], _ = elem.At(i, j) // indices are in range by the check above
		}
		if err := a.Contribute(dofs[i], dofs, vals); err != nil {
			return sparseErrorf(opElement, err)
		}
	}

	return nil
}

func (a *Matrix) stagedRow(row int64) map[int64]float64 {
	r, ok := a.staging[row]
	if !ok {
		r = make(map[int64]float64, a.hint)
		a.staging[row] = r
	}

	return r
}

// Reduce ships every staged row this rank does not own to its owner and
// sums it into the owner's staging. Collective; Open → Assembled.
//
// Implementation:
//   - Stage 1: resolve owners of remote rows; unknown rows are
//     ErrUnmappedEntry. The state check and resolution are agreed.
//   - Stage 2: pack entries per owner in ascending (row, col) order; one
//     AllToAll; merge by summation in sender rank order.
//
// Complexity:
//   - Time O(R log R) for R staged remote entries, one collective round
//     plus the agreement.
func (a *Matrix) Reduce(ctx context.Context) error {
	c := a.rowMap.Comm()
	size, me := a.rowMap.Size(), a.rowMap.Rank()

	// Stage 1: validation.
	var local error
	out := make([][]entry, size)
	remote := make([]int64, 0)
	if a.state != Open {
		local = wrongState(a.state, Open)
	} else {
		rowIDs := maps.Keys(a.staging)
		slices.Sort(rowIDs)
		for _, row := range rowIDs {
			owner, ok := a.rowMap.OwnerOf(row)
			if !ok {
				local = fmt.Errorf("row %d: %w", row, ErrUnmappedEntry)
				break
			}
			if owner == me {
				continue
			}
			remote = append(remote, row)
			cols := maps.Keys(a.staging[row])
			slices.Sort(cols)
			for _, col := range cols {
				out[owner] = append(out[owner], entry{Row: row, Col: col, Val: a.staging[row][col]})
			}
		}
	}
	if err := comm.Agree(ctx, c, local); err != nil {
		return sparseErrorf(opReduce, err)
	}

	// Stage 2: exchange and merge.
	in, err := comm.AllToAllOf(ctx, c, out)
	if err != nil {
		return sparseErrorf(opReduce, err)
	}
	for _, row := range remote {
		delete(a.staging, row)
	}
	shipped := 0
	var peer int // loop iterator
	for peer = 0; peer < size; peer++ {
		if peer != me {
			shipped += len(out[peer])
		}
		for _, e := range in[peer] {
			a.stagedRow(e.Row)[e.Col] += e.Val
		}
	}
	a.opts.metrics.AddRemoteEntries(shipped)
	a.opts.logger.DebugCtx(ctx, "sparse reduce done", "remote_rows", len(remote), "shipped_entries", shipped)
	a.state = Assembled

	return nil
}

// Finalize freezes the owned rows into sorted compressed storage and
// discards the staging. Collective; Assembled → Finalized. Every call
// produces a new StructureVersion.
func (a *Matrix) Finalize(ctx context.Context) error {
	var local error
	if a.state != Assembled {
		local = wrongState(a.state, Assembled)
	}
	if err := comm.Agree(ctx, a.rowMap.Comm(), local); err != nil {
		return sparseErrorf(opFinalize, err)
	}

	ids := a.rowMap.GlobalIDs()
	rows := make([]crsRow, len(ids))
	nnz := 0
	for i, id := range ids {
		staged := a.staging[id]
		cols := maps.Keys(staged)
		slices.Sort(cols)
		vals := make([]float64, len(cols))
		for k, col := range cols {
			vals[k] = staged[col]
		}
		rows[i] = crsRow{cols: cols, vals: vals}
		nnz += len(cols)
	}
	a.rows = rows
	a.staging = nil
	a.mult = nil
	a.version++
	a.state = Finalized
	a.opts.logger.DebugCtx(ctx, "sparse finalize done", "rows", len(rows), "nnz", nnz, "version", a.version)

	return nil
}

// ResumeFill reopens a finalized matrix for further contributions, keeping
// the current entries. Local; Finalized → Open. The next Finalize yields a
// new StructureVersion, so symbolic analyses of the old pattern go stale.
func (a *Matrix) ResumeFill() error {
	if a.state != Finalized {
		return stateErr(opResumeFill, a.state, Finalized)
	}
	ids := a.rowMap.GlobalIDs()
	a.staging = make(map[int64]map[int64]float64, len(ids))
	for i, id := range ids {
		r := make(map[int64]float64, max(a.hint, len(a.rows[i].cols)))
		for k, col := range a.rows[i].cols {
			r[col] = a.rows[i].vals[k]
		}
		a.staging[id] = r
	}
	a.rows = nil
	a.mult = nil
	a.state = Open

	return nil
}
