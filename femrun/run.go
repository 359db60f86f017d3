// SPDX-License-Identifier: MIT

// Package femrun replays a finite element scenario described by a
// config.Config on an in-process world of ranks: assemble the global
// operator from element matrices, eliminate the Dirichlet constraints,
// solve through the requested backend and collect the solution on rank 0.
package femrun

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/config"
	"github.com/katalvlaran/lvdist/constraint"
	"github.com/katalvlaran/lvdist/matrix"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/vector"
)

// Result is what rank 0 reports after a run. IDs are the global DOF ids in
// ascending order and Solution is aligned with them. Residual is
// ||A·x − b||₂ of the constrained system.
type Result struct {
	IDs               []int64
	Solution          []float64
	Status            solver.Status
	Residual          float64
	NumGlobalNonzeros int
	Backend           string
	Timings           solver.Timings
}

// At returns the solution value of DOF id.
func (r *Result) At(id int64) (float64, bool) {
	for k, got := range r.IDs {
		if got == id {
			return r.Solution[k], true
		}
	}

	return 0, false
}

// Run executes cfg and returns rank 0's report.
//
// A numerically singular system is not an error: Result.Status carries it
// and the solution keeps its initial guess (zero plus constrained values).
//
// Errors: config.ErrInvalidConfig, solver.ErrUnsupportedBackend, and any
// error of the assembly, constraint or solver stages (agreed over ranks).
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := gatherOptions(opts...)
	if !o.registry.Query(cfg.Backend) {
		return nil, fmt.Errorf("femrun: backend %q: %w", cfg.Backend, solver.ErrUnsupportedBackend)
	}
	elem, err := matrix.NewDenseFromRows(cfg.ElementMatrix)
	if err != nil {
		return nil, fmt.Errorf("femrun: element matrix: %w", err)
	}
	world, err := comm.NewWorld(cfg.Ranks, comm.WithLogger(o.logger), comm.WithMetrics(o.metrics))
	if err != nil {
		return nil, fmt.Errorf("femrun: %w", err)
	}

	r := &runner{cfg: cfg, opts: o, elem: elem}
	o.logger.InfoCtx(ctx, "femrun start", "ranks", cfg.Ranks, "backend", cfg.Backend, "dofs", cfg.NumDOFs())
	if err = world.Run(ctx, r.rank); err != nil {
		return nil, err
	}
	o.logger.InfoCtx(ctx, "femrun done", "status", r.result.Status, "residual", r.result.Residual)

	return r.result, nil
}

// runner holds what every rank shares. Only rank 0 writes result.
type runner struct {
	cfg    *config.Config
	opts   options
	elem   *matrix.Dense
	result *Result
}

// rank is the SPMD body: every step below is either local or a collective
// that all ranks reach in the same order.
func (r *runner) rank(ctx context.Context, c comm.Communicator) error {
	log := r.opts.logger
	part := r.cfg.Partitions[c.Rank()]

	// Stage 1: row map and assembly.
	rowMap, err := partition.Build(ctx, c, part.Owned, partition.Owned, partition.WithLogger(log))
	if err != nil {
		return err
	}
	a, err := sparse.New(rowMap, r.elem.Rows()+1, sparse.WithLogger(log), sparse.WithMetrics(r.opts.metrics))
	if err != nil {
		return err
	}
	var local error
	for _, dofs := range part.Elements {
		if local = a.ContributeElement(dofs, r.elem); local != nil {
			break
		}
	}
	if err = comm.Agree(ctx, c, local); err != nil {
		return err
	}
	if err = a.Reduce(ctx); err != nil {
		return err
	}
	if err = a.Finalize(ctx); err != nil {
		return err
	}
	nnz, err := a.NumGlobalNonzeros(ctx)
	if err != nil {
		return err
	}
	log.DebugCtx(ctx, "assembled", "local_rows", a.NumLocalRows(), "global_nnz", nnz)

	// Stage 2: constraints, each declared by the rank owning its DOF.
	x, b := vector.New(rowMap), vector.New(rowMap)
	if err = constraint.Apply(ctx, a, b, x, r.declared(c.Rank()), constraint.WithLogger(log)); err != nil {
		return err
	}

	// Stage 3: staged solve.
	s, local := r.opts.registry.Create(r.cfg.Backend, a, x, b, r.cfg.Parameters)
	if err = comm.Agree(ctx, c, local); err != nil {
		return err
	}
	if err = s.SymbolicFactorize(ctx); err != nil {
		return err
	}
	if err = s.NumericFactorize(ctx); err != nil {
		return err
	}
	status, err := s.Solve(ctx)
	if err != nil {
		return err
	}

	// Stage 4: residual of the constrained system.
	ax := vector.New(rowMap)
	if err = a.Multiply(ctx, x, ax); err != nil {
		return err
	}
	if err = ax.Axpy(-1, b); err != nil {
		return err
	}
	residual, err := ax.Norm2(ctx)
	if err != nil {
		return err
	}

	// Stage 5: collect the solution on rank 0.
	var ids []int64
	if c.Rank() == 0 {
		ids = r.cfg.DOFs()
	}
	target, err := partition.Build(ctx, c, ids, partition.Owned, partition.WithLogger(log))
	if err != nil {
		return err
	}
	plan, err := partition.NewPlan(ctx, rowMap, target)
	if err != nil {
		return err
	}
	gathered := vector.New(target)
	if err = gathered.Import(ctx, plan, x, partition.Insert); err != nil {
		return err
	}

	if c.Rank() == 0 {
		r.result = &Result{
			IDs:               target.GlobalIDs(),
			Solution:          gathered.Values(),
			Status:            status,
			Residual:          residual,
			NumGlobalNonzeros: nnz,
			Backend:           s.Backend(),
			Timings:           s.Timings(),
		}
	}

	return nil
}

// declared returns the constraints rank declares: those whose DOF it owns,
// plus, on rank 0, those no rank owns (Apply then reports them).
func (r *runner) declared(rank int) []constraint.Constraint {
	var out []constraint.Constraint
	for _, cs := range r.cfg.Constraints {
		owner, ok := r.cfg.OwnerOf(cs.DOF)
		if !ok {
			owner = 0
		}
		if owner == rank {
			out = append(out, constraint.Constraint{DOF: cs.DOF, Value: cs.Value})
		}
	}

	return out
}
