// SPDX-License-Identifier: MIT

package solver

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvdist/matrix"
)

// NameDenseLU is the registry name of the dense LU backend.
const NameDenseLU = "dense-lu"

// denseLU factors the gathered operator as a dense matrix with threshold
// partial pivoting (matrix.FactorLU). Suited to small systems only: storage
// is O(n²) on every rank.
type denseLU struct{}

func (denseLU) Name() string    { return NameDenseLU }
func (denseLU) Available() bool { return true }

func (denseLU) NewFactorizer(Settings) (Factorizer, error) {
	return &denseFactorizer{}, nil
}

type denseFactorizer struct {
	sys *globalSystem
	lu  *matrix.LU
}

func (f *denseFactorizer) Symbolic(ctx context.Context, p *Problem, _ Settings) error {
	sys, err := gatherPattern(ctx, p)
	if err != nil {
		return err
	}
	f.sys, f.lu = sys, nil

	return nil
}

func (f *denseFactorizer) Numeric(ctx context.Context, p *Problem, s Settings) error {
	f.lu = nil
	if err := gatherValues(ctx, p, f.sys); err != nil {
		return err
	}
	n := f.sys.n()
	if n == 0 {
		return nil
	}
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return err
	}
	var i int // loop iterator
	for i = 0; i < n; i++ {
		for k, j := range f.sys.cols[i] {
			if err = d.Set(i, j, f.sys.vals[i][k]); err != nil {
				return fmt.Errorf("%w: %w", ErrFactorizationFailed, err)
			}
		}
		if s.AddToDiag != 0 {
			if err = d.Add(i, i, s.AddToDiag); err != nil {
				return fmt.Errorf("%w: %w", ErrFactorizationFailed, err)
			}
		}
	}
	lu, err := matrix.FactorLU(d,
		matrix.WithPivotThreshold(s.PivotThreshold),
		matrix.WithSingularTol(s.SingularTol),
	)
	if err != nil {
		return err // matrix.ErrSingular is solver.ErrSingular
	}
	f.lu = lu

	return nil
}

func (f *denseFactorizer) Solve(ctx context.Context, p *Problem, _ Settings) error {
	b, err := gatherVector(ctx, p.B, f.sys)
	if err != nil {
		return err
	}
	if f.sys.n() == 0 {
		return nil
	}
	// b is a private gathered copy; solve in place.
	if err = f.lu.SolveInto(b, b); err != nil {
		return err
	}

	return scatterSolution(b, p.X, f.sys)
}
