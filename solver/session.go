// SPDX-License-Identifier: MIT

package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/telemetry"
)

// Stage labels used in logs and metrics.
const (
	stageSymbolic = "symbolic"
	stageNumeric  = "numeric"
	stageSolve    = "solve"
)

// Session drives one backend through symbolic analysis, numeric
// factorization and solves of a bound problem. Every stage is a collective:
// all ranks of the row map's communicator call the same stages in the same
// order. A Session is not safe for concurrent use.
type Session struct {
	id       uuid.UUID
	shared   bool
	backend  Backend
	problem  *Problem
	params   Params
	settings Settings
	fact     Factorizer
	phase    Phase
	version  uint64 // structure version seen by the last symbolic analysis
	numeric  Status // outcome of the last numeric factorization
	status   Status // outcome of the last solve
	timings  Timings
	logger   telemetry.Logger
	metrics  *telemetry.Metrics
}

// ID returns the session id. Create assigns a rank-local id; the first
// SymbolicFactorize replaces it with rank 0's, so from then on the id is
// the same on every rank and correlates their log lines.
func (s *Session) ID() uuid.UUID { return s.id }

// Backend returns the backend name.
func (s *Session) Backend() string { return s.backend.Name() }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Status returns the outcome of the last Solve (StatusOK before any).
func (s *Session) Status() Status { return s.status }

// Timings returns the accumulated stage timings.
func (s *Session) Timings() Timings { return s.timings }

// Parameters returns a copy of the parameter list.
func (s *Session) Parameters() Params {
	out := make(Params, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}

	return out
}

// SetParameters merges params into the session's list; later stages see
// the new values. Local.
// Errors: ErrInvalidParameter, in which case nothing changes.
func (s *Session) SetParameters(params Params) error {
	merged := s.Parameters()
	for k, v := range params {
		merged[k] = v
	}
	settings, unknown, err := merged.Apply(DefaultSettings())
	if err != nil {
		return fmt.Errorf("SetParameters: %w", err)
	}
	s.params, s.settings = merged, settings
	s.logIgnored(unknown)

	return nil
}

func (s *Session) logIgnored(unknown []string) {
	for _, k := range unknown {
		s.logger.Debug("ignoring unknown solver parameter",
			"session", s.id, "backend", s.backend.Name(), "parameter", k)
	}
}

func (s *Session) communicator() comm.Communicator { return s.problem.A.RowMap().Comm() }

// ready checks what every stage needs locally: a finalized matrix and, past
// the symbolic stage, an unchanged structure.
func (s *Session) ready(tag string, need Phase) error {
	a := s.problem.A
	if a.State() != sparse.Finalized {
		return fmt.Errorf("%s: matrix is %s: %w", tag, a.State(), sparse.ErrNotReady)
	}
	if s.phase < need {
		return fmt.Errorf("%s: phase %s, need %s: %w", tag, s.phase, need, ErrInvalidPhase)
	}
	if need > Created && a.StructureVersion() != s.version {
		return fmt.Errorf("%s: structure version %d, analysed %d: %w",
			tag, a.StructureVersion(), s.version, ErrStaleSymbolic)
	}

	return nil
}

// observe records a finished stage in timings, metrics and, with
// PrintTiming, the log.
func (s *Session) observe(ctx context.Context, stage string, d time.Duration) {
	switch stage {
	case stageSymbolic:
		s.timings.Symbolic += d
		s.timings.NumSymbolic++
	case stageNumeric:
		s.timings.Numeric += d
		s.timings.NumNumeric++
	case stageSolve:
		s.timings.Solve += d
		s.timings.NumSolve++
	}
	s.metrics.ObserveStage(s.backend.Name(), stage, d)
	if s.settings.PrintTiming {
		s.logger.InfoCtx(ctx, "solver stage",
			"session", s.id, "backend", s.backend.Name(), "stage", stage, "elapsed", d)
	}
}

// SymbolicFactorize analyses the structure of A. Allowed in any phase;
// restarts the protocol and records A's structure version. Collective.
func (s *Session) SymbolicFactorize(ctx context.Context) error {
	const tag = "SymbolicFactorize"
	if err := comm.Agree(ctx, s.communicator(), s.ready(tag, Created)); err != nil {
		return err
	}
	if !s.shared {
		ids, err := comm.AllGatherOf(ctx, s.communicator(), s.id)
		if err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
		s.id, s.shared = ids[0], true
	}

	start := time.Now()
	err := s.fact.Symbolic(ctx, s.problem, s.settings)
	if err = comm.Agree(ctx, s.communicator(), err); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	s.observe(ctx, stageSymbolic, time.Since(start))
	s.version = s.problem.A.StructureVersion()
	s.numeric = StatusOK
	s.phase = SymbolicDone

	return nil
}

// NumericFactorize factors the current values of A. Requires a symbolic
// analysis of the current structure. A singular or otherwise failed
// factorization is not an error: the session moves to NumericDone and the
// next Solve reports the failure as its Status. Collective.
//
// Errors: ErrInvalidPhase, ErrStaleSymbolic, sparse.ErrNotReady.
func (s *Session) NumericFactorize(ctx context.Context) error {
	const tag = "NumericFactorize"
	if err := comm.Agree(ctx, s.communicator(), s.ready(tag, SymbolicDone)); err != nil {
		return err
	}

	start := time.Now()
	outcome := StatusOK
	err := s.fact.Numeric(ctx, s.problem, s.settings)
	switch {
	case errors.Is(err, ErrSingular):
		outcome, err = StatusSingular, nil
	case errors.Is(err, ErrFactorizationFailed):
		outcome, err = StatusFactorizationFailed, nil
	}
	if err = comm.Agree(ctx, s.communicator(), err); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	s.observe(ctx, stageNumeric, time.Since(start))
	if outcome != StatusOK {
		s.logger.DebugCtx(ctx, "numeric factorization failed",
			"session", s.id, "backend", s.backend.Name(), "status", outcome)
	}
	s.numeric = outcome
	s.phase = NumericDone

	return nil
}

// Solve writes A⁻¹·b into the bound solution vector using the current
// factors. Repeatable with new right-hand side values. When the last
// numeric factorization failed the solution is left untouched and the
// failure is returned as Status with a nil error. Collective.
//
// Errors: ErrInvalidPhase, ErrStaleSymbolic, sparse.ErrNotReady.
func (s *Session) Solve(ctx context.Context) (Status, error) {
	const tag = "Solve"
	if err := comm.Agree(ctx, s.communicator(), s.ready(tag, NumericDone)); err != nil {
		return s.status, err
	}

	if s.numeric != StatusOK {
		s.finish(ctx, s.numeric)
		return s.status, nil
	}

	start := time.Now()
	err := s.fact.Solve(ctx, s.problem, s.settings)
	if err = comm.Agree(ctx, s.communicator(), err); err != nil {
		return s.status, fmt.Errorf("%s: %w", tag, err)
	}
	s.observe(ctx, stageSolve, time.Since(start))
	s.phase = Solved
	s.finish(ctx, StatusOK)

	return s.status, nil
}

func (s *Session) finish(ctx context.Context, st Status) {
	s.status = st
	s.metrics.CountStatus(s.backend.Name(), st.String())
	if s.settings.PrintStatus {
		s.logger.InfoCtx(ctx, "solver status",
			"session", s.id, "backend", s.backend.Name(), "status", st, "phase", s.phase)
	}
}
