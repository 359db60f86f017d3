package sparse_test

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/matrix"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/telemetry"
	"github.com/katalvlaran/lvdist/vector"
)

func runWorld(t *testing.T, size int, fn comm.RankFunc) {
	t.Helper()
	w, err := comm.NewWorld(size)
	require.NoError(t, err)
	require.NoError(t, w.Run(context.Background(), fn))
}

var (
	barOwned    = [][]int64{{0, 1, 2}, {3, 4, 5}}
	barElements = [][][]int64{{{0, 1}, {1, 2}, {2, 3}}, {{3, 4}, {4, 5}}}
)

// assembleBar assembles the 6-DOF bar stiffness on a two-rank world; rank 0
// contributes to row 3, which rank 1 owns.
func assembleBar(t *testing.T, ctx context.Context, c comm.Communicator, opts ...sparse.Option) *sparse.Matrix {
	t.Helper()
	rowMap, err := partition.Build(ctx, c, barOwned[c.Rank()], partition.Owned)
	require.NoError(t, err)
	a, err := sparse.New(rowMap, 3, opts...)
	require.NoError(t, err)
	elem, err := matrix.NewDenseFromRows([][]float64{{1, -1}, {-1, 1}})
	require.NoError(t, err)
	for _, dofs := range barElements[c.Rank()] {
		require.NoError(t, a.ContributeElement(dofs, elem))
	}
	require.NoError(t, a.Reduce(ctx))
	require.NoError(t, a.Finalize(ctx))

	return a
}

func TestBarAssembly(t *testing.T) {
	wantRows := map[int64]struct {
		cols []int64
		vals []float64
	}{
		0: {[]int64{0, 1}, []float64{1, -1}},
		1: {[]int64{0, 1, 2}, []float64{-1, 2, -1}},
		2: {[]int64{1, 2, 3}, []float64{-1, 2, -1}},
		3: {[]int64{2, 3, 4}, []float64{-1, 2, -1}},
		4: {[]int64{3, 4, 5}, []float64{-1, 2, -1}},
		5: {[]int64{4, 5}, []float64{-1, 1}},
	}
	metrics, err := telemetry.NewMetrics(nil)
	require.NoError(t, err)

	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		a := assembleBar(t, ctx, c, sparse.WithMetrics(metrics))
		assert.Equal(t, sparse.Finalized, a.State())
		assert.Equal(t, uint64(1), a.StructureVersion())
		assert.Equal(t, 3, a.NumLocalRows())
		assert.Equal(t, 6, a.NumGlobalRows())

		for _, row := range barOwned[c.Rank()] {
			cols, vals, err := a.Row(row)
			require.NoError(t, err)
			assert.Equal(t, wantRows[row].cols, cols, "row %d", row)
			assert.Equal(t, wantRows[row].vals, vals, "row %d", row)
		}
		nnz, err := a.NumGlobalNonzeros(ctx)
		require.NoError(t, err)
		assert.Equal(t, 16, nnz)

		// Rows owned elsewhere are not readable here.
		_, _, err = a.Row(barOwned[1-c.Rank()][0])
		assert.ErrorIs(t, err, sparse.ErrNotOwned)

		v, err := a.At(barOwned[c.Rank()][0], 99)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v, "structurally absent entries read as zero")

		return nil
	})
}

// TestAssemblyConservation checks that distributed assembly of random
// contributions equals their serial sum.
func TestAssemblyConservation(t *testing.T) {
	const n, size, perRank = 12, 3, 200
	var mu sync.Mutex
	serial := map[[2]int64]float64{}
	assembled := map[[2]int64]float64{}

	runWorld(t, size, func(ctx context.Context, c comm.Communicator) error {
		rowMap, err := partition.BuildLinear(ctx, c, n)
		require.NoError(t, err)
		a, err := sparse.New(rowMap, 4)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(int64(c.Rank() + 1)))
		for k := 0; k < perRank; k++ {
			row, col := int64(rng.Intn(n)), int64(rng.Intn(n))
			val := rng.Float64()*2 - 1
			require.NoError(t, a.Contribute(row, []int64{col}, []float64{val}))
			mu.Lock()
			serial[[2]int64{row, col}] += val
			mu.Unlock()
		}
		require.NoError(t, a.Reduce(ctx))
		require.NoError(t, a.Finalize(ctx))

		for _, row := range rowMap.GlobalIDs() {
			cols, vals, err := a.Row(row)
			require.NoError(t, err)
			mu.Lock()
			for k, col := range cols {
				assembled[[2]int64{row, col}] = vals[k]
			}
			mu.Unlock()
		}

		return nil
	})

	require.Len(t, assembled, len(serial))
	for key, want := range serial {
		assert.InDelta(t, want, assembled[key], 1e-12, "entry %v", key)
	}
}

func TestLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	rowMap, err := partition.BuildLocal([]int64{0, 1})
	require.NoError(t, err)

	_, err = sparse.New(rowMap, -1)
	assert.ErrorIs(t, err, sparse.ErrInvalidHint)
	_, err = sparse.New(nil, 1)
	assert.ErrorIs(t, err, sparse.ErrInvalidMap)
	overlap, err := partition.Build(ctx, comm.Self(), []int64{0}, partition.Overlapping)
	require.NoError(t, err)
	_, err = sparse.New(overlap, 1)
	assert.ErrorIs(t, err, partition.ErrInvalidMap)

	a, err := sparse.New(rowMap, 2)
	require.NoError(t, err)
	require.ErrorIs(t, a.Contribute(0, []int64{0, 1}, []float64{1}), sparse.ErrDimensionMismatch)
	require.ErrorIs(t, a.Contribute(0, []int64{0}, []float64{math.NaN()}), sparse.ErrNaNInf)
	require.NoError(t, a.Contribute(0, []int64{0, 1}, []float64{2, -1}))
	require.NoError(t, a.Contribute(0, []int64{0}, []float64{2}))
	assert.Equal(t, 2, a.NumLocalNonzeros(), "duplicates are summed into one entry")

	_, _, err = a.Row(0)
	assert.ErrorIs(t, err, sparse.ErrNotReady)
	err = a.Finalize(ctx)
	assert.ErrorIs(t, err, sparse.ErrNotReady, "Finalize needs Reduce first")
	assert.Equal(t, 1, strings.Count(err.Error(), "Finalize:"), err.Error())
	_, err = a.NumGlobalNonzeros(ctx)
	assert.Equal(t, 1, strings.Count(err.Error(), "NumGlobalNonzeros:"), err.Error())

	require.NoError(t, a.Reduce(ctx))
	assert.Equal(t, sparse.Assembled, a.State())
	err = a.Reduce(ctx)
	assert.ErrorIs(t, err, sparse.ErrNotReady)
	assert.Equal(t, 1, strings.Count(err.Error(), "Reduce:"), err.Error())
	assert.ErrorIs(t, a.Contribute(1, []int64{1}, []float64{1}), sparse.ErrNotReady)
	require.NoError(t, a.Finalize(ctx))
	assert.ErrorIs(t, a.Finalize(ctx), sparse.ErrNotReady)

	v, err := a.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	assert.Equal(t, "Matrix rank 0/1 state=Finalized rows=2 nnz=2\n  0: (0, 4) (1, -1)\n  1:\n", a.String())
}

func TestEntryWrites(t *testing.T) {
	ctx := context.Background()
	rowMap, err := partition.BuildLocal([]int64{0, 1})
	require.NoError(t, err)
	a, err := sparse.New(rowMap, 2)
	require.NoError(t, err)
	require.NoError(t, a.Contribute(0, []int64{0, 1}, []float64{1, 2}))
	require.NoError(t, a.Contribute(1, []int64{1}, []float64{3}))
	require.ErrorIs(t, a.SetEntry(0, 0, 1), sparse.ErrNotReady)
	require.NoError(t, a.Reduce(ctx))
	require.NoError(t, a.Finalize(ctx))

	require.NoError(t, a.SetEntry(0, 1, 5))
	require.NoError(t, a.AddToEntry(0, 1, 1))
	v, _ := a.At(0, 1)
	assert.Equal(t, 6.0, v)

	assert.ErrorIs(t, a.SetEntry(1, 0, 1), sparse.ErrStructuralViolation)
	assert.ErrorIs(t, a.AddToEntry(7, 0, 1), sparse.ErrNotOwned)
	assert.ErrorIs(t, a.SetEntry(0, 0, math.Inf(-1)), sparse.ErrNaNInf)

	// All-or-nothing: the bad column leaves (0,0) untouched.
	err = a.ReplaceRowValues(0, []int64{0, 2}, []float64{9, 9})
	assert.ErrorIs(t, err, sparse.ErrStructuralViolation)
	v, _ = a.At(0, 0)
	assert.Equal(t, 1.0, v)

	require.NoError(t, a.ReplaceRowValues(0, []int64{1, 0}, []float64{0, 1}))
	cols, vals, err := a.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, cols)
	assert.Equal(t, []float64{1, 0}, vals)
}

func TestNoValidateNaNInf(t *testing.T) {
	rowMap, err := partition.BuildLocal([]int64{0})
	require.NoError(t, err)
	a, err := sparse.New(rowMap, 1, sparse.WithNoValidateNaNInf())
	require.NoError(t, err)
	require.NoError(t, a.Contribute(0, []int64{0}, []float64{math.Inf(1)}))
}

func TestResumeFillChangesStructureVersion(t *testing.T) {
	ctx := context.Background()
	rowMap, err := partition.BuildLocal([]int64{0, 1})
	require.NoError(t, err)
	a, err := sparse.New(rowMap, 2)
	require.NoError(t, err)
	require.NoError(t, a.Contribute(0, []int64{0}, []float64{1}))
	require.NoError(t, a.Reduce(ctx))
	require.NoError(t, a.Finalize(ctx))
	v1 := a.StructureVersion()

	require.NoError(t, a.ResumeFill())
	assert.Equal(t, sparse.Open, a.State())
	assert.ErrorIs(t, a.ResumeFill(), sparse.ErrNotReady)
	require.NoError(t, a.Contribute(0, []int64{1}, []float64{3}))
	require.NoError(t, a.Contribute(0, []int64{0}, []float64{1}))
	require.NoError(t, a.Reduce(ctx))
	require.NoError(t, a.Finalize(ctx))

	assert.Greater(t, a.StructureVersion(), v1)
	cols, vals, err := a.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, cols)
	assert.Equal(t, []float64{2, 3}, vals, "entries survive ResumeFill")
}

func TestReduceUnmappedRow(t *testing.T) {
	errs := make([]error, 2)
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		rowMap, err := partition.Build(ctx, c, barOwned[c.Rank()], partition.Owned)
		require.NoError(t, err)
		a, err := sparse.New(rowMap, 1)
		require.NoError(t, err)
		if c.Rank() == 0 {
			require.NoError(t, a.Contribute(99, []int64{0}, []float64{1}))
		}
		errs[c.Rank()] = a.Reduce(ctx)

		return nil
	})
	assert.ErrorIs(t, errs[0], sparse.ErrUnmappedEntry)
	assert.ErrorIs(t, errs[1], comm.ErrRemoteFailure)
	assert.Equal(t, 1, strings.Count(errs[0].Error(), "Reduce:"), errs[0].Error())
}

func TestMultiplyBar(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		a := assembleBar(t, ctx, c)
		x := vector.New(a.RowMap())
		for _, id := range a.RowMap().GlobalIDs() {
			require.NoError(t, x.Set(id, float64(id)))
		}
		y := vector.New(a.RowMap())
		require.NoError(t, a.Multiply(ctx, x, y))

		want := map[int][]float64{0: {-1, 0, 0}, 1: {0, 0, 1}}
		assert.Equal(t, want[c.Rank()], y.Values())

		cm, err := a.ColumnMap(ctx)
		require.NoError(t, err)
		wantCols := map[int][]int64{0: {0, 1, 2, 3}, 1: {2, 3, 4, 5}}
		assert.Equal(t, wantCols[c.Rank()], cm.GlobalIDs())

		// Second call reuses the cached layout and gives the same result.
		require.NoError(t, a.Multiply(ctx, x, y))
		assert.Equal(t, want[c.Rank()], y.Values())

		return nil
	})
}
