// SPDX-License-Identifier: MIT

// Package partition - Plan: a reusable redistribution between two maps.
//
// Purpose:
//   - Precompute, once, which source entries each rank must send to which
//     peer so that values laid out on a source map can be moved onto a
//     target map (Apply, "import") and back (Reverse, "export").
//
// Determinism:
//   - Per-peer lists follow the target's local order and the holder order,
//     and incoming peers are combined in rank order, so Add results are
//     bit-identical across runs.

package partition

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvdist/comm"
)

const (
	opNewPlan = "NewPlan"
	opApply   = "Plan.Apply"
	opReverse = "Plan.Reverse"
)

// recvSlot is where one incoming value lands in the target layout.
type recvSlot struct {
	local   int  // target local index
	primary bool // value comes from the owner (lowest holder) of the id
}

// Plan moves values between two maps on the same communicator. It is
// immutable after NewPlan and may be applied any number of times.
type Plan struct {
	source, target *Map
	sends          [][]int      // per peer: source local indices, in request order
	recvs          [][]recvSlot // per peer: target slots, aligned with that peer's sends
	numSends       int
	numRecvs       int
}

// NewPlan builds the redistribution from source to target. Collective.
//
// Implementation:
//   - Stage 1: resolve every local target id to its source holders; an id
//     with no holder is ErrUnmappedEntry (agreed across ranks).
//   - Stage 2: one AllToAll carries, per peer, the ids this rank wants from
//     it; each sender translates them to its source local indices.
//
// Errors:
//   - ErrMapMismatch if the maps live on different worlds.
//   - ErrUnmappedEntry (or comm.ErrRemoteFailure on the other ranks).
func NewPlan(ctx context.Context, source, target *Map) (*Plan, error) {
	if source == nil || target == nil {
		return nil, partitionErrorf(opNewPlan, fmt.Errorf("nil map: %w", ErrMapMismatch))
	}
	c := source.comm
	if source.Size() != target.Size() || source.Rank() != target.Rank() {
		return nil, partitionErrorf(opNewPlan, fmt.Errorf("source %d/%d, target %d/%d: %w",
			source.Rank(), source.Size(), target.Rank(), target.Size(), ErrMapMismatch))
	}
	size := source.Size()

	// Stage 1: local resolution.
	p := &Plan{
		source: source,
		target: target,
		sends:  make([][]int, size),
		recvs:  make([][]recvSlot, size),
	}
	requests := make([][]int64, size)
	var localErr error
	for t, id := range target.ids {
		hs := source.holders[id]
		if len(hs) == 0 {
			localErr = fmt.Errorf("target id %d: %w", id, ErrUnmappedEntry)
			break
		}
		for k, h := range hs {
			requests[h] = append(requests[h], id)
			p.recvs[h] = append(p.recvs[h], recvSlot{local: t, primary: k == 0})
		}
	}
	if err := comm.Agree(ctx, c, localErr); err != nil {
		return nil, partitionErrorf(opNewPlan, err)
	}

	// Stage 2: tell each holder what to send.
	incoming, err := comm.AllToAllOf(ctx, c, requests)
	if err != nil {
		return nil, partitionErrorf(opNewPlan, err)
	}
	var peer int // loop iterator
	for peer = 0; peer < size; peer++ {
		idx := make([]int, len(incoming[peer]))
		for k, id := range incoming[peer] {
			// Holders were resolved against the replicated directory, so the
			// id is always present locally.
			idx[k] = source.local[id]
		}
		p.sends[peer] = idx
		if peer != c.Rank() {
			p.numSends += len(idx)
			p.numRecvs += len(p.recvs[peer])
		}
	}
	source.opts.logger.DebugCtx(ctx, "redistribution plan built",
		"sends", p.numSends, "recvs", p.numRecvs)

	return p, nil
}

// Source returns the map the plan reads from.
func (p *Plan) Source() *Map { return p.source }

// Target returns the map the plan writes to.
func (p *Plan) Target() *Map { return p.target }

// NumSends returns how many values this rank sends to other ranks per Apply.
func (p *Plan) NumSends() int { return p.numSends }

// NumRecvs returns how many values this rank receives from other ranks per Apply.
func (p *Plan) NumRecvs() int { return p.numRecvs }

// checkArgs validates lengths and mode against the given layouts.
func checkArgs(src, dst []float64, srcMap, dstMap *Map, mode CombineMode) error {
	if !mode.valid() {
		return fmt.Errorf("%v: %w", mode, ErrInvalidMode)
	}
	if len(src) != srcMap.NumLocal() {
		return fmt.Errorf("src has %d values, map holds %d: %w", len(src), srcMap.NumLocal(), ErrDimensionMismatch)
	}
	if len(dst) != dstMap.NumLocal() {
		return fmt.Errorf("dst has %d values, map holds %d: %w", len(dst), dstMap.NumLocal(), ErrDimensionMismatch)
	}

	return nil
}

// Apply moves src (laid out on Source) into dst (laid out on Target).
// Collective; src is never modified.
//
// Insert overwrites dst with the owner's copy of each id; entries of dst are
// all overwritten. Add sums the copy of every source holder into the value
// already in dst.
func (p *Plan) Apply(ctx context.Context, src, dst []float64, mode CombineMode) error {
	c := p.source.comm
	if err := comm.Agree(ctx, c, checkArgs(src, dst, p.source, p.target, mode)); err != nil {
		return partitionErrorf(opApply, err)
	}

	size := p.source.Size()
	out := make([][]float64, size)
	var peer, k int // loop iterators
	for peer = 0; peer < size; peer++ {
		vals := make([]float64, len(p.sends[peer]))
		for k = range vals {
			vals[k] = src[p.sends[peer][k]]
		}
		out[peer] = vals
	}
	in, err := comm.AllToAllOf(ctx, c, out)
	if err != nil {
		return partitionErrorf(opApply, err)
	}

	for peer = 0; peer < size; peer++ {
		for k = range in[peer] {
			slot := p.recvs[peer][k]
			switch mode {
			case Insert:
				if slot.primary {
					dst[slot.local] = in[peer][k]
				}
			case Add:
				dst[slot.local] += in[peer][k]
			}
		}
	}

	return nil
}

// Reverse moves src (laid out on Target) back onto dst (laid out on Source)
// along the same links. Collective; src is never modified.
//
// With Add every target copy is summed into its source entry: the usual way
// to fold ghost contributions back into their owners. With Insert the value
// arriving last (highest rank, then latest target index) wins.
func (p *Plan) Reverse(ctx context.Context, src, dst []float64, mode CombineMode) error {
	c := p.source.comm
	if err := comm.Agree(ctx, c, checkArgs(src, dst, p.target, p.source, mode)); err != nil {
		return partitionErrorf(opReverse, err)
	}

	size := p.source.Size()
	out := make([][]float64, size)
	var peer, k int // loop iterators
	for peer = 0; peer < size; peer++ {
		vals := make([]float64, len(p.recvs[peer]))
		for k = range vals {
			vals[k] = src[p.recvs[peer][k].local]
		}
		out[peer] = vals
	}
	in, err := comm.AllToAllOf(ctx, c, out)
	if err != nil {
		return partitionErrorf(opReverse, err)
	}

	for peer = 0; peer < size; peer++ {
		for k = range in[peer] {
			switch mode {
			case Insert:
				dst[p.sends[peer][k]] = in[peer][k]
			case Add:
				dst[p.sends[peer][k]] += in[peer][k]
			}
		}
	}

	return nil
}
