// SPDX-License-Identifier: MIT

// Package vector - distributed dense vector over a partition.Map.
//
// Purpose:
//   - Hold one float64 per locally held id, in the map's local order.
//   - Offer local element access by global id (never communicates) and
//     collective reductions and redistributions.
//
// Reductions (Dot, Norm2, NormInf) count each id once, at its owner, so
// they are correct for Overlapping maps as well.

package vector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
)

const (
	opGet     = "Vector.Get"
	opSet     = "Vector.Set"
	opSumInto = "Vector.SumInto"
	opImport  = "Vector.Import"
	opExport  = "Vector.Export"
	opDot     = "Vector.Dot"
	opAxpy    = "Vector.Axpy"
	opSetVals = "Vector.SetLocalValues"
)

func vectorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Vector is a distributed array of float64 laid out on a Map. The map is
// shared read-only; the values belong to the vector.
type Vector struct {
	m      *partition.Map
	values []float64
	owned  []bool // owned[i]: this rank owns local entry i
}

// New returns a zero vector on m.
func New(m *partition.Map) *Vector {
	v := &Vector{
		m:      m,
		values: make([]float64, m.NumLocal()),
		owned:  make([]bool, m.NumLocal()),
	}
	for i, id := range m.GlobalIDs() {
		v.owned[i] = m.IsOwned(id)
	}

	return v
}

// Map returns the layout of v.
func (v *Vector) Map() *partition.Map { return v.m }

// Len returns the number of locally held entries.
func (v *Vector) Len() int { return len(v.values) }

// Values returns a copy of the local values in local order.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)

	return out
}

// LocalValues returns the local storage itself. Callers must not modify it;
// it exists so printing and solver collaborators avoid a copy.
func (v *Vector) LocalValues() []float64 { return v.values }

// SetLocalValues overwrites every local entry from vals (local order).
func (v *Vector) SetLocalValues(vals []float64) error {
	if len(vals) != len(v.values) {
		return vectorErrorf(opSetVals, fmt.Errorf("got %d values for %d entries: %w", len(vals), len(v.values), ErrDimensionMismatch))
	}
	copy(v.values, vals)

	return nil
}

// FillConstant sets every local entry to c.
func (v *Vector) FillConstant(c float64) {
	for i := range v.values {
		v.values[i] = c
	}
}

// FillRandom fills the local entries uniformly in [-1, 1). A nil r uses the
// math/rand package source.
func (v *Vector) FillRandom(r *rand.Rand) {
	next := rand.Float64
	if r != nil {
		next = r.Float64
	}
	for i := range v.values {
		v.values[i] = 2*next() - 1
	}
}

func (v *Vector) index(tag string, id int64) (int, error) {
	i, ok := v.m.LocalIndexOf(id)
	if !ok {
		return 0, vectorErrorf(tag, fmt.Errorf("id %d on rank %d: %w", id, v.m.Rank(), ErrNotOwned))
	}

	return i, nil
}

// Get returns the local value of id. Errors: ErrNotOwned.
func (v *Vector) Get(id int64) (float64, error) {
	i, err := v.index(opGet, id)
	if err != nil {
		return 0, err
	}

	return v.values[i], nil
}

// Set overwrites the local value of id. Errors: ErrNotOwned.
func (v *Vector) Set(id int64, val float64) error {
	i, err := v.index(opSet, id)
	if err != nil {
		return err
	}
	v.values[i] = val

	return nil
}

// SumInto adds val to the local value of id. Errors: ErrNotOwned.
func (v *Vector) SumInto(id int64, val float64) error {
	i, err := v.index(opSumInto, id)
	if err != nil {
		return err
	}
	v.values[i] += val

	return nil
}

// Import fills v (on plan.Target()) from src (on plan.Source()). Collective.
// Errors: ErrMapMismatch (agreed across ranks).
func (v *Vector) Import(ctx context.Context, plan *partition.Plan, src *Vector, mode partition.CombineMode) error {
	var local error
	if !plan.Source().SameAs(src.m) || !plan.Target().SameAs(v.m) {
		local = fmt.Errorf("plan does not map source onto this vector: %w", ErrMapMismatch)
	}
	if err := comm.Agree(ctx, v.m.Comm(), local); err != nil {
		return vectorErrorf(opImport, err)
	}
	if err := plan.Apply(ctx, src.values, v.values, mode); err != nil {
		return vectorErrorf(opImport, err)
	}

	return nil
}

// Export moves src (on plan.Target()) back into v (on plan.Source()) along
// plan in reverse. With partition.Add overlapping copies are summed into
// their owners. Collective.
func (v *Vector) Export(ctx context.Context, plan *partition.Plan, src *Vector, mode partition.CombineMode) error {
	var local error
	if !plan.Target().SameAs(src.m) || !plan.Source().SameAs(v.m) {
		local = fmt.Errorf("plan does not map this vector onto source: %w", ErrMapMismatch)
	}
	if err := comm.Agree(ctx, v.m.Comm(), local); err != nil {
		return vectorErrorf(opExport, err)
	}
	if err := plan.Reverse(ctx, src.values, v.values, mode); err != nil {
		return vectorErrorf(opExport, err)
	}

	return nil
}

// Dot returns the global inner product of v and w. Collective.
// Errors: ErrMapMismatch if w is on a different map (agreed).
func (v *Vector) Dot(ctx context.Context, w *Vector) (float64, error) {
	var local error
	if !v.m.SameAs(w.m) {
		local = ErrMapMismatch
	}
	if err := comm.Agree(ctx, v.m.Comm(), local); err != nil {
		return 0, vectorErrorf(opDot, err)
	}
	var sum float64
	for i, x := range v.values {
		if v.owned[i] {
			sum += x * w.values[i]
		}
	}

	return comm.AllReduceSum(ctx, v.m.Comm(), sum)
}

// Norm2 returns the global Euclidean norm. Collective.
func (v *Vector) Norm2(ctx context.Context) (float64, error) {
	var sum float64
	for i, x := range v.values {
		if v.owned[i] {
			sum += x * x
		}
	}
	total, err := comm.AllReduceSum(ctx, v.m.Comm(), sum)
	if err != nil {
		return 0, err
	}

	return math.Sqrt(total), nil
}

// NormInf returns the global maximum absolute entry. Collective.
func (v *Vector) NormInf(ctx context.Context) (float64, error) {
	var best float64
	for i, x := range v.values {
		if v.owned[i] && math.Abs(x) > best {
			best = math.Abs(x)
		}
	}

	return comm.AllReduceMax(ctx, v.m.Comm(), best)
}

// Scale multiplies every local entry by alpha.
func (v *Vector) Scale(alpha float64) {
	for i := range v.values {
		v.values[i] *= alpha
	}
}

// Axpy computes v += alpha·x locally. Errors: ErrMapMismatch.
func (v *Vector) Axpy(alpha float64, x *Vector) error {
	if !v.m.SameAs(x.m) {
		return vectorErrorf(opAxpy, ErrMapMismatch)
	}
	for i := range v.values {
		v.values[i] += alpha * x.values[i]
	}

	return nil
}

// Clone returns a deep copy sharing the map.
func (v *Vector) Clone() *Vector {
	owned := make([]bool, len(v.owned))
	copy(owned, v.owned)

	return &Vector{m: v.m, values: v.Values(), owned: owned}
}

// String renders the local entries as "id: value" lines under a rank header.
func (v *Vector) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vector rank %d/%d (%d local)\n", v.m.Rank(), v.m.Size(), len(v.values))
	for i, id := range v.m.GlobalIDs() {
		fmt.Fprintf(&b, "  %d: %g\n", id, v.values[i])
	}

	return b.String()
}
