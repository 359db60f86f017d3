package femrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvdist/config"
	"github.com/katalvlaran/lvdist/constraint"
	"github.com/katalvlaran/lvdist/femrun"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/telemetry"
)

const runTol = 1e-10

func TestBarScenario(t *testing.T) {
	cases := []struct {
		name  string
		right float64
		want  []float64
	}{
		{"unit load", 1, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{"five", 5, []float64{0, 1, 2, 3, 4, 5}},
	}
	for _, backend := range []string{solver.NameDenseLU, solver.NameSparseLU} {
		for _, tc := range cases {
			t.Run(backend+"/"+tc.name, func(t *testing.T) {
				cfg := config.Default()
				cfg.Backend = backend
				cfg.Constraints[1].Value = tc.right

				res, err := femrun.Run(context.Background(), cfg)
				require.NoError(t, err)
				assert.Equal(t, solver.StatusOK, res.Status)
				assert.Equal(t, backend, res.Backend)
				assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, res.IDs)
				assert.InDeltaSlice(t, tc.want, res.Solution, runTol)
				assert.Less(t, res.Residual, runTol)
				assert.Equal(t, 16, res.NumGlobalNonzeros)
				assert.Equal(t, 1, res.Timings.NumSolve)

				got, ok := res.At(3)
				require.True(t, ok)
				assert.InDelta(t, tc.want[3], got, runTol)
			})
		}
	}
}

func TestLongBarManyRanks(t *testing.T) {
	cfg, err := config.Bar(40, 4)
	require.NoError(t, err)
	cfg.Backend = solver.NameSparseLU

	res, err := femrun.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOK, res.Status)
	require.Len(t, res.Solution, 41)
	for i, v := range res.Solution {
		assert.InDelta(t, float64(i)/40, v, runTol, "dof %d", i)
	}
}

func TestSingleRank(t *testing.T) {
	cfg, err := config.Bar(5, 1)
	require.NoError(t, err)

	res, err := femrun.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, res.Solution, runTol)
}

func TestUnconstrainedIsSingular(t *testing.T) {
	cfg := config.Default()
	cfg.Constraints = nil

	res, err := femrun.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, solver.StatusSingular, res.Status)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, res.Solution, "initial guess kept")
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Backend = "mumps"
	_, err := femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, solver.ErrUnsupportedBackend)

	cfg = config.Default()
	cfg.Ranks = 3
	_, err = femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Default()
	cfg.Partitions[1].Owned = []int64{2, 3, 4, 5}
	_, err = femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, partition.ErrInvalidMap)

	cfg = config.Default()
	cfg.Constraints = append(cfg.Constraints, config.Constraint{DOF: 99, Value: 1})
	_, err = femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, partition.ErrUnmappedEntry)

	cfg = config.Default()
	cfg.Constraints = append(cfg.Constraints, config.Constraint{DOF: 5, Value: 2})
	_, err = femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, constraint.ErrConflictingConstraint)

	cfg = config.Default()
	cfg.Parameters = solver.Params{solver.ParamPivotThreshold: "high"}
	_, err = femrun.Run(ctx, cfg)
	require.ErrorIs(t, err, solver.ErrInvalidParameter)
}

func TestRunMetrics(t *testing.T) {
	m, err := telemetry.NewMetrics(nil)
	require.NoError(t, err)

	_, err = femrun.Run(context.Background(), config.Default(), femrun.WithMetrics(m))
	require.NoError(t, err)

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	// Rank 0 ships (3, 2) and (3, 3) of element [2, 3] to rank 1.
	assert.Equal(t, 2.0, values["lvdist_sparse_reduce_remote_entries_total"])
	assert.Equal(t, 2.0, values["lvdist_solver_solve_status_total"], "one per rank")
	assert.Greater(t, values["lvdist_comm_collectives_total"], 0.0)
}
