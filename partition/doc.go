// Package partition describes how global ids are spread over the ranks of a
// distributed world, and how values move between two such layouts.
//
// A Map is built collectively from every rank's list of local ids. An Owned
// map assigns each id to exactly one rank; an Overlapping map lets several
// ranks hold the same id (ghost copies around a partition cut), the lowest
// holder rank being the owner. Every rank keeps the whole id → holders
// directory, so ownership queries never communicate.
//
// A Plan is the precomputed communication pattern between a source and a
// target map. Apply moves values from the source layout to the target one
// ("import"): Insert takes the owner's copy, Add sums every holder's copy.
// Reverse moves values back ("export"), typically with Add to fold ghost
// contributions into their owners.
//
//	owned, _ := partition.Build(ctx, c, []int64{0, 1, 2}, partition.Owned)
//	ghost, _ := partition.Build(ctx, c, []int64{0, 1, 2, 3}, partition.Overlapping)
//	plan, _ := partition.NewPlan(ctx, owned, ghost)
//	_ = plan.Apply(ctx, ownedVals, ghostVals, partition.Insert)
//
// Build, NewPlan, Apply and Reverse are collectives: every rank must call
// them in the same order. Errors found on one rank are agreed, so all ranks
// fail together.
package partition
