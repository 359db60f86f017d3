// SPDX-License-Identifier: MIT

// Package comm defines the communicator collaborator used by the distributed
// lvdist components, together with two implementations.
//
// A Communicator gives a rank its identity (Rank, Size) and the blocking
// collectives everything else is built on: AllGather, AllToAll and Barrier.
// Every rank must call the same collectives in the same order; this is a
// protocol invariant, not an optimisation.
//
//   - Self() is the single-rank communicator: every collective is the
//     identity and nothing blocks.
//   - NewWorld(n) runs n ranks as goroutines inside one process. Each
//     collective is tagged with its kind and a sequence number, so a rank
//     that diverges from its peers is detected (ErrCollectiveMismatch) and
//     the whole world is aborted instead of deadlocking.
//
// Typed helpers (AllGatherOf, AllToAllOf, AllReduceSum, AllReduceMax) wrap
// the untyped interface, and Agree implements the cross-rank error
// agreement used by every collective operation in the core: if one rank
// fails, all ranks fail.
//
// The in-process transport passes payloads by reference. Senders must not
// mutate a slice after handing it to a collective.
//
// Example:
//
//	w, _ := comm.NewWorld(2)
//	err := w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
//	    sizes, err := comm.AllGatherOf(ctx, c, c.Rank()+1)
//	    if err != nil {
//	        return err
//	    }
//	    _ = sizes // [1 2] on every rank
//	    return nil
//	})
package comm
