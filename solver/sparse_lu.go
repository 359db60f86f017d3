// SPDX-License-Identifier: MIT

// Package solver - sparse-lu backend.
//
// Purpose:
//   - Factor the gathered operator without densifying it: the symbolic
//     stage orders the rows and computes the fill pattern of L and U once,
//     the numeric stage eliminates on that fixed pattern.
//
// Implementation:
//   - Symmetric Reverse Cuthill–McKee permutation of the pattern (parameter
//     Reorder, on by default), then row-oriented elimination in that order
//     without pivoting. A zero pivot is reported as ErrSingular; the
//     tutorial operators (diagonally dominant after constraint
//     elimination) never need row exchanges.
//
// Complexity:
//   - Symbolic O(Σ|row pattern|·fill), Numeric O(flops on the fill
//     pattern), Solve O(nnz(L+U)).

package solver

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/ordering"
)

// NameSparseLU is the registry name of the sparse LU backend.
const NameSparseLU = "sparse-lu"

type sparseLU struct{}

func (sparseLU) Name() string    { return NameSparseLU }
func (sparseLU) Available() bool { return true }

func (sparseLU) NewFactorizer(Settings) (Factorizer, error) {
	return &sparseFactorizer{}, nil
}

// sparseFactorizer works in permuted positions: position k holds dense
// row perm[k] of the gathered system, and inv is the reverse map.
type sparseFactorizer struct {
	sys   *globalSystem
	perm  []int
	inv   []int
	lcols [][]int     // per position: strictly lower columns, ascending
	ucols [][]int     // per position: diagonal first, then upper columns ascending
	lvals [][]float64 // aligned with lcols
	uvals [][]float64 // aligned with ucols
}

// fillPattern computes the L and U patterns of position i by merging, in
// ascending order, the upper pattern of every earlier position it depends
// on. The merge walks a sorted singly linked list threaded through next.
func (f *sparseFactorizer) fillPattern(i int, cols []int, next, mark []int) {
	const end = -1
	head := end
	tail := end
	push := func(j int) {
		mark[j] = i
		next[j] = end
		if head == end {
			head = j
		} else {
			next[tail] = j
		}
		tail = j
	}
	// Own pattern plus the diagonal, in ascending order.
	diagDone := false
	for _, j := range cols {
		if !diagDone && j >= i {
			if j != i {
				push(i)
			}
			diagDone = true
		}
		push(j)
	}
	if !diagDone {
		push(i)
	}

	// Walk lower entries in ascending order; each contributes the upper
	// pattern of its pivot position, whose columns all lie after it.
	for k := head; k != end && k < i; k = next[k] {
		prev := k
		for _, j := range f.ucols[k][1:] {
			if mark[j] == i {
				continue
			}
			for next[prev] != end && next[prev] < j {
				prev = next[prev]
			}
			mark[j] = i
			next[j] = next[prev]
			next[prev] = j
			prev = j
		}
	}

	var lower, upper []int
	for k := head; k != end; k = next[k] {
		if k < i {
			lower = append(lower, k)
		} else {
			upper = append(upper, k)
		}
	}
	f.lcols[i], f.ucols[i] = lower, upper
}

func (f *sparseFactorizer) Symbolic(ctx context.Context, p *Problem, s Settings) error {
	sys, err := gatherPattern(ctx, p)
	if err != nil {
		return err
	}
	n := sys.n()
	f.sys = sys
	f.lvals, f.uvals = nil, nil

	f.perm = make([]int, n)
	for i := range f.perm {
		f.perm[i] = i
	}
	if s.Reorder && n > 0 {
		g, err := ordering.NewGraph(n, sys.cols)
		if err != nil {
			return err
		}
		f.perm = ordering.ReverseCuthillMcKee(g)
	}
	if f.inv, err = ordering.Inverse(f.perm); err != nil {
		return err
	}

	f.lcols, f.ucols = make([][]int, n), make([][]int, n)
	next, mark := make([]int, n), make([]int, n)
	for i := range mark {
		mark[i] = -1
	}
	var cols []int
	for i := 0; i < n; i++ {
		cols = cols[:0]
		for _, j := range sys.cols[f.perm[i]] {
			cols = append(cols, f.inv[j])
		}
		slices.Sort(cols)
		f.fillPattern(i, cols, next, mark)
	}

	return nil
}

func (f *sparseFactorizer) Numeric(ctx context.Context, p *Problem, s Settings) error {
	f.lvals, f.uvals = nil, nil
	if err := gatherValues(ctx, p, f.sys); err != nil {
		return err
	}
	n := f.sys.n()
	lvals, uvals := make([][]float64, n), make([][]float64, n)
	w := make([]float64, n)

	var i, k, j, row int // loop iterators
	var l float64
	for i = 0; i < n; i++ {
		// Scatter the row placed at position i (plus the diagonal shift).
		row = f.perm[i]
		for k, j = range f.sys.cols[row] {
			w[f.inv[j]] = f.sys.vals[row][k]
		}
		w[i] += s.AddToDiag

		lv := make([]float64, len(f.lcols[i]))
		for k, j = range f.lcols[i] {
			l = w[j] / uvals[j][0]
			lv[k] = l
			w[j] = 0
			for c, col := range f.ucols[j][1:] {
				w[col] -= l * uvals[j][c+1]
			}
		}
		uv := make([]float64, len(f.ucols[i]))
		for k, j = range f.ucols[i] {
			uv[k] = w[j]
			w[j] = 0
		}
		if math.IsNaN(uv[0]) || math.IsInf(uv[0], 0) {
			return fmt.Errorf("row %d: non-finite pivot: %w", f.sys.ids[row], ErrFactorizationFailed)
		}
		if math.Abs(uv[0]) <= s.SingularTol {
			return fmt.Errorf("row %d: zero pivot: %w", f.sys.ids[row], ErrSingular)
		}
		lvals[i], uvals[i] = lv, uv
	}
	f.lvals, f.uvals = lvals, uvals

	return nil
}

func (f *sparseFactorizer) Solve(ctx context.Context, p *Problem, _ Settings) error {
	b, err := gatherVector(ctx, p.B, f.sys)
	if err != nil {
		return err
	}
	n := f.sys.n()
	y := make([]float64, n)
	var i, k int // loop iterators
	var sum float64
	// Forward substitution with the unit lower triangle, in permuted order.
	for i = 0; i < n; i++ {
		sum = b[f.perm[i]]
		for k = range f.lcols[i] {
			sum -= f.lvals[i][k] * y[f.lcols[i][k]]
		}
		y[i] = sum
	}
	// Backward substitution.
	for i = n - 1; i >= 0; i-- {
		sum = y[i]
		for k = 1; k < len(f.ucols[i]); k++ {
			sum -= f.uvals[i][k] * y[f.ucols[i][k]]
		}
		y[i] = sum / f.uvals[i][0]
	}
	for i = 0; i < n; i++ {
		b[f.perm[i]] = y[i]
	}

	return scatterSolution(b, p.X, f.sys)
}
