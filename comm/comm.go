// SPDX-License-Identifier: MIT

package comm

import (
	"context"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Collective kinds, used for tagging, mismatch detection and metrics.
const (
	OpAllGather = "AllGather"
	OpAllToAll  = "AllToAll"
	OpBarrier   = "Barrier"
)

// Communicator is the rank-local view of a distributed world.
// Collectives block until every rank has made the matching call.
type Communicator interface {
	// Rank returns this process's rank, 0 <= Rank() < Size().
	Rank() int

	// Size returns the number of ranks.
	Size() int

	// AllGather contributes v and returns every rank's contribution,
	// indexed by rank.
	AllGather(ctx context.Context, v any) ([]any, error)

	// AllToAll sends out[dst] to rank dst and returns in[src], the value
	// rank src addressed to this rank. len(out) must equal Size().
	AllToAll(ctx context.Context, out []any) ([]any, error)

	// Barrier returns once every rank has entered it.
	Barrier(ctx context.Context) error
}

// self is the single-rank communicator.
type self struct{}

// Self returns a communicator for a world of one rank.
func Self() Communicator { return self{} }

func (self) Rank() int { return 0 }
func (self) Size() int { return 1 }

func (self) AllGather(_ context.Context, v any) ([]any, error) {
	return []any{v}, nil
}

func (self) AllToAll(_ context.Context, out []any) ([]any, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: got %d payloads: %w", OpAllToAll, len(out), ErrPayloadCount)
	}

	return []any{out[0]}, nil
}

func (self) Barrier(context.Context) error { return nil }

// AllGatherOf is the typed form of Communicator.AllGather.
func AllGatherOf[T any](ctx context.Context, c Communicator, v T) ([]T, error) {
	raw, err := c.AllGather(ctx, v)
	if err != nil {
		return nil, err
	}

	return castAll[T](OpAllGather, raw)
}

// AllToAllOf is the typed form of Communicator.AllToAll.
func AllToAllOf[T any](ctx context.Context, c Communicator, out []T) ([]T, error) {
	if len(out) != c.Size() {
		return nil, fmt.Errorf("%s: got %d payloads for %d ranks: %w", OpAllToAll, len(out), c.Size(), ErrPayloadCount)
	}
	raw := make([]any, len(out))
	for i := range out {
		raw[i] = out[i]
	}
	in, err := c.AllToAll(ctx, raw)
	if err != nil {
		return nil, err
	}

	return castAll[T](OpAllToAll, in)
}

// Number is the element type accepted by the reductions.
type Number interface {
	constraints.Integer | constraints.Float
}

// AllReduceSum returns the sum of v over all ranks, on every rank.
// Summation runs in rank order, so every rank gets the identical result.
func AllReduceSum[T Number](ctx context.Context, c Communicator, v T) (T, error) {
	all, err := AllGatherOf(ctx, c, v)
	if err != nil {
		return 0, err
	}
	var sum T
	for _, x := range all {
		sum += x
	}

	return sum, nil
}

// AllReduceMax returns the maximum of v over all ranks, on every rank.
func AllReduceMax[T Number](ctx context.Context, c Communicator, v T) (T, error) {
	all, err := AllGatherOf(ctx, c, v)
	if err != nil {
		return 0, err
	}
	best := all[0]
	for _, x := range all[1:] {
		if x > best {
			best = x
		}
	}

	return best, nil
}

// vote is the payload exchanged by Agree.
type vote struct {
	Failed bool
	Msg    string
}

// Agree is the cross-rank error agreement step. Every rank passes its local
// outcome; if any rank failed, every rank returns an error. The failing
// rank gets its own error back, the others get ErrRemoteFailure naming the
// lowest failing rank. Agree is itself a collective.
func Agree(ctx context.Context, c Communicator, local error) error {
	v := vote{}
	if local != nil {
		v = vote{Failed: true, Msg: local.Error()}
	}
	votes, err := AllGatherOf(ctx, c, v)
	if err != nil {
		if local != nil {
			return local
		}
		return err
	}
	if local != nil {
		return local
	}
	for r, got := range votes {
		if got.Failed {
			return fmt.Errorf("%w: rank %d: %s", ErrRemoteFailure, r, got.Msg)
		}
	}

	return nil
}

func castAll[T any](op string, raw []any) ([]T, error) {
	out := make([]T, len(raw))
	for i, x := range raw {
		t, ok := x.(T)
		if !ok {
			return nil, fmt.Errorf("%s: rank %d sent %T: %w", op, i, x, ErrPayloadType)
		}
		out[i] = t
	}

	return out, nil
}
