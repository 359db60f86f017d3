// SPDX-License-Identifier: MIT

package comm

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/lvdist/telemetry"
)

// RankFunc is the SPMD body executed once per rank by World.Run.
type RankFunc func(ctx context.Context, c Communicator) error

// World is an in-process distributed world of a fixed number of ranks.
// Each Run starts a fresh set of links, so a World can be reused.
type World struct {
	size int
	opts options
}

// NewWorld returns a world of size ranks. Returns ErrBadSize if size < 1.
func NewWorld(size int, opts ...Option) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("NewWorld(%d): %w", size, ErrBadSize)
	}

	return &World{size: size, opts: gatherOptions(opts...)}, nil
}

// Size returns the number of ranks.
func (w *World) Size() int { return w.size }

// Run executes fn on every rank concurrently and waits for all of them.
//
// Any rank error, panic or early exit aborts the world: collectives still
// blocked on other ranks return ErrAborted. A cancelled ctx aborts as well;
// there is no per-collective timeout. Run returns the root cause, preferring
// a rank's own error over ErrRemoteFailure/ErrAborted echoes from its peers.
func (w *World) Run(ctx context.Context, fn RankFunc) error {
	if fn == nil {
		panic("comm: World.Run: nil RankFunc")
	}
	r := newRun(w.size, &w.opts)
	errs := make([]error, w.size)

	g, gctx := errgroup.WithContext(ctx)
	var rank int // loop iterator
	for rank = 0; rank < w.size; rank++ {
		ep := &endpoint{run: r, rank: rank}
		g.Go(func() error {
			defer close(r.exited[ep.rank])
			rctx := telemetry.WithDefaultArgs(gctx, "rank", ep.rank)
			err := safeCall(rctx, ep, fn)
			if err != nil {
				errs[ep.rank] = err
				r.abort(err)
				w.opts.logger.DebugCtx(rctx, "rank finished with error", "err", err)
			}

			return err
		})
	}
	waitErr := g.Wait()

	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrRemoteFailure) && !errors.Is(err, ErrAborted) {
			return err
		}
	}
	if waitErr != nil {
		if cause := r.rootCause(); cause != nil {
			return cause
		}
	}

	return waitErr
}

// safeCall runs fn and converts a panic into an error carrying a stack.
func safeCall(ctx context.Context, c Communicator, fn RankFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("comm: rank %d panicked: %v", c.Rank(), p)
		}
	}()

	return fn(ctx, c)
}

// envelope is one message on a directed link.
type envelope struct {
	op      string
	seq     uint64
	payload any
}

// run holds the per-Run shared state: links[src][dst] carries messages
// from src to dst, exited[r] closes when rank r's function returns.
type run struct {
	size   int
	links  [][]chan envelope
	exited []chan struct{}
	done   chan struct{}
	once   sync.Once
	cause  error
	opts   *options
}

func newRun(size int, opts *options) *run {
	r := &run{
		size:   size,
		links:  make([][]chan envelope, size),
		exited: make([]chan struct{}, size),
		done:   make(chan struct{}),
		opts:   opts,
	}
	var src, dst int // loop iterators
	for src = 0; src < size; src++ {
		r.links[src] = make([]chan envelope, size)
		for dst = 0; dst < size; dst++ {
			if src != dst {
				r.links[src][dst] = make(chan envelope, opts.linkBuffer)
			}
		}
		r.exited[src] = make(chan struct{})
	}

	return r
}

// abort records the first cause and releases every blocked collective.
func (r *run) abort(cause error) {
	r.once.Do(func() {
		r.cause = cause
		close(r.done)
	})
}

func (r *run) rootCause() error {
	select {
	case <-r.done:
		return r.cause
	default:
		return nil
	}
}

// abortErr is returned by collectives observing an aborted world.
func (r *run) abortErr() error {
	return errors.WithStack(fmt.Errorf("%w: %w", ErrAborted, r.cause))
}

// fail aborts the world with cause and returns the abort error.
func (r *run) fail(cause error) error {
	r.abort(cause)

	return r.abortErr()
}

// endpoint is one rank's Communicator within a run.
type endpoint struct {
	run  *run
	rank int
	seq  uint64
}

var _ Communicator = (*endpoint)(nil)

func (e *endpoint) Rank() int { return e.rank }
func (e *endpoint) Size() int { return e.run.size }

func (e *endpoint) AllGather(ctx context.Context, v any) ([]any, error) {
	out := make([]any, e.run.size)
	for i := range out {
		out[i] = v
	}

	return e.exchange(ctx, OpAllGather, out)
}

func (e *endpoint) AllToAll(ctx context.Context, out []any) ([]any, error) {
	if len(out) != e.run.size {
		return nil, fmt.Errorf("%s: got %d payloads for %d ranks: %w", OpAllToAll, len(out), e.run.size, ErrPayloadCount)
	}

	return e.exchange(ctx, OpAllToAll, out)
}

func (e *endpoint) Barrier(ctx context.Context) error {
	_, err := e.exchange(ctx, OpBarrier, make([]any, e.run.size))

	return err
}

// exchange is the single rendezvous all collectives reduce to: send one
// envelope to every peer, then receive one from every peer.
func (e *endpoint) exchange(ctx context.Context, op string, out []any) ([]any, error) {
	r := e.run
	e.seq++
	seq := e.seq

	select {
	case <-r.done:
		return nil, r.abortErr()
	default:
	}

	in := make([]any, r.size)
	var peer int // loop iterator

	// Stage 1: post to every peer (self-delivery is direct).
	for peer = 0; peer < r.size; peer++ {
		if peer == e.rank {
			in[peer] = out[peer]
			continue
		}
		env := envelope{op: op, seq: seq, payload: out[peer]}
		select {
		case r.links[e.rank][peer] <- env:
		case <-r.exited[peer]:
			return nil, r.fail(errors.Wrapf(ErrCollectiveMismatch,
				"%s #%d: rank %d left before receiving from rank %d", op, seq, peer, e.rank))
		case <-r.done:
			return nil, r.abortErr()
		case <-ctx.Done():
			return nil, r.fail(ctx.Err())
		}
	}

	// Stage 2: collect from every peer, checking that it ran the same collective.
	for peer = 0; peer < r.size; peer++ {
		if peer == e.rank {
			continue
		}
		env, err := e.receive(ctx, peer, op, seq)
		if err != nil {
			return nil, err
		}
		in[peer] = env.payload
	}

	r.opts.metrics.ObserveCollective(op, r.size)

	return in, nil
}

func (e *endpoint) receive(ctx context.Context, src int, op string, seq uint64) (envelope, error) {
	r := e.run
	link := r.links[src][e.rank]

	var env envelope
	select {
	case env = <-link:
	case <-r.exited[src]:
		// src may have posted before leaving; drain before declaring it gone.
		select {
		case env = <-link:
		default:
			return envelope{}, r.fail(errors.Wrapf(ErrCollectiveMismatch,
				"%s #%d: rank %d left before sending to rank %d", op, seq, src, e.rank))
		}
	case <-r.done:
		return envelope{}, r.abortErr()
	case <-ctx.Done():
		return envelope{}, r.fail(ctx.Err())
	}

	if env.op != op || env.seq != seq {
		return envelope{}, r.fail(errors.Wrapf(ErrCollectiveMismatch,
			"rank %d is in %s #%d, rank %d is in %s #%d", e.rank, op, seq, src, env.op, env.seq))
	}

	return env, nil
}
