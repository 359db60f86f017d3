package solver_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/lvdist/constraint"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/vector"
)

// benchBar assembles a single-rank bar of n elements with both ends fixed.
func benchBar(b *testing.B, n int) (*sparse.Matrix, *vector.Vector, *vector.Vector) {
	b.Helper()
	ctx := context.Background()
	ids := make([]int64, n+1)
	for i := range ids {
		ids[i] = int64(i)
	}
	rows, err := partition.BuildLocal(ids)
	if err != nil {
		b.Fatal(err)
	}
	a, err := sparse.New(rows, 3)
	if err != nil {
		b.Fatal(err)
	}
	for i := int64(0); i < int64(n); i++ {
		_ = a.Contribute(i, []int64{i, i + 1}, []float64{1, -1})
		_ = a.Contribute(i+1, []int64{i, i + 1}, []float64{-1, 1})
	}
	if err = a.Reduce(ctx); err != nil {
		b.Fatal(err)
	}
	if err = a.Finalize(ctx); err != nil {
		b.Fatal(err)
	}
	x, rhs := vector.New(rows), vector.New(rows)
	cs := []constraint.Constraint{{DOF: 0, Value: 0}, {DOF: int64(n), Value: 1}}
	if err = constraint.Apply(ctx, a, rhs, x, cs); err != nil {
		b.Fatal(err)
	}

	return a, x, rhs
}

func benchmarkBackend(b *testing.B, backend string, n int) {
	ctx := context.Background()
	a, x, rhs := benchBar(b, n)
	s, err := solver.Default().Create(backend, a, x, rhs, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err = solveAll(ctx, s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDenseLUBar200(b *testing.B)  { benchmarkBackend(b, solver.NameDenseLU, 200) }
func BenchmarkSparseLUBar200(b *testing.B) { benchmarkBackend(b, solver.NameSparseLU, 200) }
