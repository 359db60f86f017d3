// SPDX-License-Identifier: MIT

// Package partition - Map: the assignment of global ids to ranks.
//
// Purpose:
//   - Record, on every rank, which global ids this rank holds (in local
//     order) and, for every id in the world, which ranks hold it.
//   - Answer ownership and local-index queries without communication.
//
// Storage:
//   - The global directory is replicated on each rank (id → sorted holder
//     ranks). This keeps OwnerOf/HoldersOf local and is sized for problems
//     whose id set fits in one process.

package partition

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/comm"
)

const (
	opBuild       = "Build"
	opBuildLinear = "BuildLinear"
	opGlobalID    = "Map.GlobalID"
)

// partitionErrorf wraps err with an operation tag, preserving the sentinel via %w.
func partitionErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Map is an immutable distribution of global ids over the ranks of a
// communicator. It is safe for concurrent read-only use.
type Map struct {
	comm    comm.Communicator
	kind    Kind
	ids     []int64         // local ids in local order
	local   map[int64]int   // id → local index
	holders map[int64][]int // global directory: id → ascending holder ranks
	counts  []int           // local id count per rank
	total   int             // sum of counts
	minID   int64
	maxID   int64
	opts    options
}

// buildMsg is the payload all-gathered by Build.
type buildMsg struct {
	IDs  []int64
	Kind Kind
}

// Build constructs a map from every rank's local id list. Collective.
//
// Implementation:
//   - Stage 1: validate locally (negative ids, duplicates, kind) and agree.
//   - Stage 2: all-gather ids and kinds; build the directory. Cross-rank
//     checks (kind agreement, Owned exclusivity) run on identical data on
//     every rank, so all ranks reach the same verdict without another round.
//
// Errors:
//   - ErrInvalidMap for any declaration error; comm.ErrRemoteFailure on
//     ranks whose own input was fine while a peer's was not.
//
// Complexity:
//   - Time O(N) for N ids in the world, Space O(N) per rank.
func Build(ctx context.Context, c comm.Communicator, localIDs []int64, kind Kind, opts ...Option) (*Map, error) {
	// Stage 1: local validation, agreed across ranks.
	var localErr error
	if !kind.valid() {
		localErr = fmt.Errorf("%w: kind %v", ErrInvalidMap, kind)
	}
	seen := make(map[int64]int, len(localIDs))
	for i, id := range localIDs {
		if localErr != nil {
			break
		}
		if id < 0 {
			localErr = fmt.Errorf("%w: negative id %d at local index %d", ErrInvalidMap, id, i)
			break
		}
		if prev, dup := seen[id]; dup {
			localErr = fmt.Errorf("%w: id %d repeated at local indices %d and %d", ErrInvalidMap, id, prev, i)
			break
		}
		seen[id] = i
	}
	if err := comm.Agree(ctx, c, localErr); err != nil {
		return nil, partitionErrorf(opBuild, err)
	}

	// Stage 2: gather everyone's ids (fresh slice: the transport does not copy).
	all, err := comm.AllGatherOf(ctx, c, buildMsg{IDs: slices.Clone(localIDs), Kind: kind})
	if err != nil {
		return nil, partitionErrorf(opBuild, err)
	}

	m := &Map{
		comm:    c,
		kind:    kind,
		ids:     slices.Clone(localIDs),
		local:   seen,
		holders: make(map[int64][]int),
		counts:  make([]int, len(all)),
		minID:   math.MaxInt64,
		maxID:   math.MinInt64,
		opts:    gatherOptions(opts...),
	}
	var r int // loop iterator
	for r = 0; r < len(all); r++ {
		if all[r].Kind != kind {
			return nil, partitionErrorf(opBuild, fmt.Errorf("%w: rank %d declared %v, rank %d declared %v",
				ErrInvalidMap, c.Rank(), kind, r, all[r].Kind))
		}
		m.counts[r] = len(all[r].IDs)
		m.total += len(all[r].IDs)
		for _, id := range all[r].IDs {
			// Ranks are visited in order, so holder lists stay ascending.
			m.holders[id] = append(m.holders[id], r)
			if id < m.minID {
				m.minID = id
			}
			if id > m.maxID {
				m.maxID = id
			}
		}
	}
	if kind == Owned {
		// Report the smallest offending id so every rank prints the same message.
		bad := int64(-1)
		for id, hs := range m.holders {
			if len(hs) > 1 && (bad < 0 || id < bad) {
				bad = id
			}
		}
		if bad >= 0 {
			return nil, partitionErrorf(opBuild, fmt.Errorf("%w: id %d held by ranks %v in an Owned map",
				ErrInvalidMap, bad, m.holders[bad]))
		}
	}
	if len(m.holders) == 0 {
		m.minID, m.maxID = 0, 0
	}
	m.opts.logger.DebugCtx(ctx, "partition map built",
		"kind", kind, "local", len(m.ids), "global", m.total, "unique", len(m.holders))

	return m, nil
}

// BuildLinear builds an Owned map of ids 0..numGlobal-1 split into
// contiguous blocks, the first numGlobal%size ranks taking one extra id.
// Collective.
func BuildLinear(ctx context.Context, c comm.Communicator, numGlobal int, opts ...Option) (*Map, error) {
	if numGlobal < 0 {
		// Every rank sees the same argument, so every rank fails here.
		return nil, partitionErrorf(opBuildLinear, fmt.Errorf("%w: numGlobal %d", ErrInvalidMap, numGlobal))
	}
	size, rank := c.Size(), c.Rank()
	base, rem := numGlobal/size, numGlobal%size
	n, start := base, rank*base+min(rank, rem)
	if rank < rem {
		n++
	}
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(start + i)
	}

	return Build(ctx, c, ids, Owned, opts...)
}

// BuildLocal builds an Owned map on a single-rank communicator.
// No communication takes place.
func BuildLocal(localIDs []int64, opts ...Option) (*Map, error) {
	return Build(context.Background(), comm.Self(), localIDs, Owned, opts...)
}

// Comm returns the communicator the map was built on.
func (m *Map) Comm() comm.Communicator { return m.comm }

// Kind returns Owned or Overlapping.
func (m *Map) Kind() Kind { return m.kind }

// Rank returns the rank this view belongs to.
func (m *Map) Rank() int { return m.comm.Rank() }

// Size returns the number of ranks.
func (m *Map) Size() int { return len(m.counts) }

// NumLocal returns the number of ids held by this rank.
func (m *Map) NumLocal() int { return len(m.ids) }

// NumLocalOf returns the number of ids held by rank r (0 if r is out of range).
func (m *Map) NumLocalOf(r int) int {
	if r < 0 || r >= len(m.counts) {
		return 0
	}

	return m.counts[r]
}

// NumGlobal returns the sum of local counts over all ranks. For an
// Overlapping map replicated ids are counted once per holder.
func (m *Map) NumGlobal() int { return m.total }

// NumUnique returns the number of distinct ids in the world.
func (m *Map) NumUnique() int { return len(m.holders) }

// MinGlobalID returns the smallest id in the world (0 for an empty map).
func (m *Map) MinGlobalID() int64 { return m.minID }

// MaxGlobalID returns the largest id in the world (0 for an empty map).
func (m *Map) MaxGlobalID() int64 { return m.maxID }

// OwnerOf returns the rank owning id: its only holder for Owned maps, the
// lowest holder rank for Overlapping maps. ok is false if no rank holds id.
func (m *Map) OwnerOf(id int64) (rank int, ok bool) {
	hs, ok := m.holders[id]
	if !ok {
		return -1, false
	}

	return hs[0], true
}

// HoldersOf returns every rank holding id in ascending order (nil if none).
func (m *Map) HoldersOf(id int64) []int {
	return slices.Clone(m.holders[id])
}

// Contains reports whether any rank holds id.
func (m *Map) Contains(id int64) bool {
	_, ok := m.holders[id]

	return ok
}

// IsOwned reports whether this rank is the owner of id.
func (m *Map) IsOwned(id int64) bool {
	r, ok := m.OwnerOf(id)

	return ok && r == m.comm.Rank()
}

// LocalIndexOf returns the local index of id on this rank.
func (m *Map) LocalIndexOf(id int64) (int, bool) {
	i, ok := m.local[id]

	return i, ok
}

// GlobalID returns the id stored at local index i.
// Errors: ErrDimensionMismatch if i is outside [0, NumLocal()).
func (m *Map) GlobalID(i int) (int64, error) {
	if i < 0 || i >= len(m.ids) {
		return 0, partitionErrorf(opGlobalID, fmt.Errorf("local index %d of %d: %w", i, len(m.ids), ErrDimensionMismatch))
	}

	return m.ids[i], nil
}

// GlobalIDs returns a copy of the local ids in local order.
func (m *Map) GlobalIDs() []int64 { return slices.Clone(m.ids) }

// SameAs reports whether m and other describe the same distribution: same
// kind, same world size, same local ids in the same order on this rank, and
// the same directory. It needs no communication because the directory is
// replicated.
func (m *Map) SameAs(other *Map) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	if m.kind != other.kind || m.total != other.total || len(m.holders) != len(other.holders) {
		return false
	}
	if !slices.Equal(m.counts, other.counts) || !slices.Equal(m.ids, other.ids) {
		return false
	}
	for id, hs := range m.holders {
		if !slices.Equal(hs, other.holders[id]) {
			return false
		}
	}

	return true
}

// String renders this rank's view for diagnostics.
func (m *Map) String() string {
	return fmt.Sprintf("Map{kind=%v rank=%d/%d local=%d global=%d unique=%d ids=%v}",
		m.kind, m.comm.Rank(), len(m.counts), len(m.ids), m.total, len(m.holders), m.ids)
}
