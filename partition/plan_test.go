package partition_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
)

// ghostIDs is the overlapping layout of the bar: each rank also holds the
// neighbouring DOF across the cut.
var ghostIDs = [][]int64{{0, 1, 2, 3}, {2, 3, 4, 5}}

// valueOf is the reference value of a global id.
func valueOf(id int64) float64 { return 10 * float64(id+1) }

func TestPlanInsertOwnedToOverlapping(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, idsByRank[c.Rank()], partition.Owned)
		require.NoError(t, err)
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)

		p, err := partition.NewPlan(ctx, owned, ghost)
		require.NoError(t, err)
		assert.Same(t, owned, p.Source())
		assert.Same(t, ghost, p.Target())
		assert.Equal(t, 1, p.NumSends())
		assert.Equal(t, 1, p.NumRecvs())

		src := make([]float64, owned.NumLocal())
		for i, id := range owned.GlobalIDs() {
			src[i] = valueOf(id)
		}
		before := append([]float64(nil), src...)
		dst := []float64{-1, -1, -1, -1}
		require.NoError(t, p.Apply(ctx, src, dst, partition.Insert))

		for i, id := range ghost.GlobalIDs() {
			assert.Equal(t, valueOf(id), dst[i], "rank %d id %d", c.Rank(), id)
		}
		assert.Equal(t, before, src, "source must not be mutated")

		return nil
	})
}

func TestPlanAddSumsEveryHolder(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)
		owned, err := partition.Build(ctx, c, idsByRank[c.Rank()], partition.Owned)
		require.NoError(t, err)

		// Overlapping → Owned: shared ids 2 and 3 receive one value per holder.
		p, err := partition.NewPlan(ctx, ghost, owned)
		require.NoError(t, err)

		src := []float64{1, 1, 1, 1}
		dst := []float64{100, 100, 100}
		require.NoError(t, p.Apply(ctx, src, dst, partition.Add))

		want := map[int][]float64{0: {101, 101, 102}, 1: {102, 101, 101}}
		assert.Equal(t, want[c.Rank()], dst)

		// Insert keeps only the owner's copy.
		src = []float64{float64(c.Rank() + 1), float64(c.Rank() + 1), float64(c.Rank() + 1), float64(c.Rank() + 1)}
		require.NoError(t, p.Apply(ctx, src, dst, partition.Insert))
		wantInsert := map[int][]float64{0: {1, 1, 1}, 1: {1, 2, 2}}
		assert.Equal(t, wantInsert[c.Rank()], dst)

		return nil
	})
}

func TestPlanReverseFoldsGhosts(t *testing.T) {
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, idsByRank[c.Rank()], partition.Owned)
		require.NoError(t, err)
		ghost, err := partition.Build(ctx, c, ghostIDs[c.Rank()], partition.Overlapping)
		require.NoError(t, err)
		p, err := partition.NewPlan(ctx, owned, ghost)
		require.NoError(t, err)

		// Every copy contributes 1: shared ids end at 2, the rest at 1.
		contrib := []float64{1, 1, 1, 1}
		sum := make([]float64, owned.NumLocal())
		require.NoError(t, p.Reverse(ctx, contrib, sum, partition.Add))

		want := map[int][]float64{0: {1, 1, 2}, 1: {2, 1, 1}}
		assert.Equal(t, want[c.Rank()], sum)

		return nil
	})
}

// TestPlanRandomRedistribution moves random values between two random
// owned layouts of the same id set and back.
func TestPlanRandomRedistribution(t *testing.T) {
	const n, size = 40, 3
	rng := rand.New(rand.NewSource(7))
	perm := rng.Perm(n)
	srcIDs := make([][]int64, size)
	tgtIDs := make([][]int64, size)
	for i, id := range perm {
		srcIDs[i%size] = append(srcIDs[i%size], int64(id))
		tgtIDs[id%size] = append(tgtIDs[id%size], int64(n-1-i))
	}

	runWorld(t, size, func(ctx context.Context, c comm.Communicator) error {
		sm, err := partition.Build(ctx, c, srcIDs[c.Rank()], partition.Owned)
		require.NoError(t, err)
		tm, err := partition.Build(ctx, c, tgtIDs[c.Rank()], partition.Owned)
		require.NoError(t, err)
		p, err := partition.NewPlan(ctx, sm, tm)
		require.NoError(t, err)

		src := make([]float64, sm.NumLocal())
		for i, id := range sm.GlobalIDs() {
			src[i] = valueOf(id)
		}
		dst := make([]float64, tm.NumLocal())
		require.NoError(t, p.Apply(ctx, src, dst, partition.Insert))
		for i, id := range tm.GlobalIDs() {
			assert.Equal(t, valueOf(id), dst[i])
		}

		back := make([]float64, sm.NumLocal())
		require.NoError(t, p.Reverse(ctx, dst, back, partition.Insert))
		assert.Equal(t, src, back)

		return nil
	})
}

func TestPlanErrors(t *testing.T) {
	errs := make([]error, 2)
	runWorld(t, 2, func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, idsByRank[c.Rank()], partition.Owned)
		require.NoError(t, err)

		// Rank 1 asks for id 9, which nobody holds.
		want := [][]int64{{0}, {5, 9}}
		tgt, err := partition.Build(ctx, c, want[c.Rank()], partition.Owned)
		require.NoError(t, err)
		_, errs[c.Rank()] = partition.NewPlan(ctx, owned, tgt)

		p, err := partition.NewPlan(ctx, owned, owned)
		require.NoError(t, err)
		err = p.Apply(ctx, make([]float64, 2), make([]float64, 3), partition.Insert)
		assert.ErrorIs(t, err, partition.ErrDimensionMismatch)
		err = p.Apply(ctx, make([]float64, 3), make([]float64, 3), partition.CombineMode(9))
		assert.ErrorIs(t, err, partition.ErrInvalidMode)

		return nil
	})
	assert.ErrorIs(t, errs[0], comm.ErrRemoteFailure)
	assert.ErrorIs(t, errs[1], partition.ErrUnmappedEntry)

	local, err := partition.BuildLocal([]int64{0})
	require.NoError(t, err)
	_, err = partition.NewPlan(context.Background(), local, nil)
	assert.ErrorIs(t, err, partition.ErrMapMismatch)
}
