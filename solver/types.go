// SPDX-License-Identifier: MIT

package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/vector"
)

// Phase is the position of a Session in the staged protocol.
type Phase int

const (
	// Created: bound to a problem, nothing computed yet.
	Created Phase = iota
	// SymbolicDone: structure analysed.
	SymbolicDone
	// NumericDone: factors computed (or numeric failure recorded).
	NumericDone
	// Solved: at least one successful solve with the current factors.
	Solved
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Created:
		return "Created"
	case SymbolicDone:
		return "SymbolicDone"
	case NumericDone:
		return "NumericDone"
	case Solved:
		return "Solved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Status is the numerical outcome of a solve.
type Status int

const (
	// StatusOK: the solution vector holds A⁻¹·b.
	StatusOK Status = iota
	// StatusSingular: a zero pivot was met; the solution was not touched.
	StatusSingular
	// StatusFactorizationFailed: elimination broke down; the solution was not touched.
	StatusFactorizationFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSingular:
		return "singular"
	case StatusFactorizationFailed:
		return "factorization-failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Problem is the linear system a session works on. All three parts are
// borrowed: the caller keeps ownership and must keep them alive and on the
// same row map for the life of the session.
type Problem struct {
	A *sparse.Matrix
	X *vector.Vector // solution, written by Solve
	B *vector.Vector // right-hand side
}

// Backend is one factorization package behind the staged protocol.
type Backend interface {
	// Name is the registry key.
	Name() string
	// Available reports whether this build can run the backend.
	Available() bool
	// NewFactorizer returns fresh per-session factorization state.
	NewFactorizer(s Settings) (Factorizer, error)
}

// Factorizer carries one session's analysis and factors. Every stage is a
// collective over the problem's communicator.
type Factorizer interface {
	// Symbolic analyses the structure of p.A.
	Symbolic(ctx context.Context, p *Problem, s Settings) error
	// Numeric factors the values of p.A. A zero pivot is ErrSingular, any
	// other breakdown ErrFactorizationFailed.
	Numeric(ctx context.Context, p *Problem, s Settings) error
	// Solve writes the owned part of A⁻¹·p.B into p.X.
	Solve(ctx context.Context, p *Problem, s Settings) error
}

// Timings accumulates wall time per stage over the life of a session.
type Timings struct {
	Symbolic    time.Duration
	Numeric     time.Duration
	Solve       time.Duration
	NumSymbolic int
	NumNumeric  int
	NumSolve    int
}
