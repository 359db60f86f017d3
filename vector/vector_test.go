package vector_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/vector"
)

func runWorld(t *testing.T, size int, fn comm.RankFunc) {
	t.Helper()
	w, err := comm.NewWorld(size)
	require.NoError(t, err)
	require.NoError(t, w.Run(context.Background(), fn))
}

var (
	ownedIDs = [][]int64{{0, 1, 2}, {3, 4, 5}}
	ghostIDs = [][]int64{{0, 1, 2, 3}, {2, 3, 4, 5}}
)

func TestLocalAccess(t *testing.T) {
	m, err := partition.BuildLocal([]int64{7, 3, 5})
	require.NoError(t, err)
	v := vector.New(m)
	require.Equal(t, 3, v.Len())
	require.Equal(t, []float64{0, 0, 0}, v.Values())

	require.NoError(t, v.Set(3, 2.5))
	require.NoError(t, v.SumInto(3, 0.5))
	got, err := v.Get(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
	assert.Equal(t, []float64{0, 3, 0}, v.LocalValues())

	_, err = v.Get(4)
	assert.ErrorIs(t, err, vector.ErrNotOwned)
	assert.ErrorIs(t, v.Set(4, 1), partition.ErrNotOwned)
	assert.ErrorIs(t, v.SumInto(-1, 1), vector.ErrNotOwned)

	v.FillConstant(2)
	v.Scale(1.5)
	assert.Equal(t, []float64{3, 3, 3}, v.Values())

	w := v.Clone()
	require.NoError(t, w.Set(7, 0))
	require.NoError(t, v.Axpy(2, w))
	assert.Equal(t, []float64{3, 9, 9}, v.Values())

	require.ErrorIs(t, v.SetLocalValues([]float64{1}), vector.ErrDimensionMismatch)
	require.NoError(t, v.SetLocalValues([]float64{1, 2, 3}))
	assert.Equal(t, "Vector rank 0/1 (3 local)\n  7: 1\n  3: 2\n  5: 3\n", v.String())

	other, err := partition.BuildLocal([]int64{3, 5, 7})
	require.NoError(t, err)
	assert.ErrorIs(t, v.Axpy(1, vector.New(other)), vector.ErrMapMismatch)
}

func TestFillRandomRange(t *testing.T) {
	m, err := partition.BuildLocal([]int64{0, 1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	v := vector.New(m)
	v.FillRandom(rand.New(rand.NewSource(1)))
	for _, x := range v.Values() {
		assert.GreaterOrEqual(t, x, -1.0)
		assert.Less(t, x, 1.0)
	}

	w := vector.New(m)
	w.FillRandom(rand.New(rand.NewSource(1)))
	assert.Equal(t, v.Values(), w.Values(), "same seed, same values")

	w.FillRandom(nil)
	assert.Len(t, w.Values(), 8)
}

func TestReductionsCountOwnersOnce(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)
		v := vector.New(ghost)
		for _, id := range ghost.GlobalIDs() {
			require.NoError(t, v.Set(id, float64(id)))
		}
		// 0..5 counted once each.
		dot, err := v.Dot(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, 55.0, dot)

		n2, err := v.Norm2(ctx)
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(55), n2, 1e-12)

		require.NoError(t, v.Set(ghostIDs[c.Rank()][0], -9))
		ninf, err := v.NormInf(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9.0, ninf)

		return nil
	})
}

func TestImportExport(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, ownedIDs[c.Rank()], partition.Owned)
		require.NoError(t, err)
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)
		plan, err := partition.NewPlan(ctx, owned, ghost)
		require.NoError(t, err)

		x := vector.New(owned)
		for _, id := range owned.GlobalIDs() {
			require.NoError(t, x.Set(id, float64(id)/5))
		}
		xg := vector.New(ghost)
		require.NoError(t, xg.Import(ctx, plan, x, partition.Insert))
		for _, id := range ghost.GlobalIDs() {
			got, err := xg.Get(id)
			require.NoError(t, err)
			assert.Equal(t, float64(id)/5, got)
		}

		// Every ghost copy contributes 1 back to its owner.
		xg.FillConstant(1)
		sum := vector.New(owned)
		require.NoError(t, sum.Export(ctx, plan, xg, partition.Add))
		want := map[int][]float64{0: {1, 1, 2}, 1: {2, 1, 1}}
		assert.Equal(t, want[c.Rank()], sum.Values())

		// Wrong direction is a map mismatch on every rank.
		err = x.Import(ctx, plan, xg, partition.Insert)
		assert.ErrorIs(t, err, vector.ErrMapMismatch)

		return nil
	})
}

func TestDotMapMismatch(t *testing.T) {
	errs := make([]error, 2)
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, ownedIDs[c.Rank()], partition.Owned)
		require.NoError(t, err)
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)
		_, errs[c.Rank()] = vector.New(owned).Dot(ctx, vector.New(ghost))

		return nil
	})
	assert.ErrorIs(t, errs[0], vector.ErrMapMismatch)
	assert.ErrorIs(t, errs[1], vector.ErrMapMismatch)
}
