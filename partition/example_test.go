package partition_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvdist/comm"
	"github.com/katalvlaran/lvdist/partition"
)

// ExampleNewPlan gathers a two-rank distributed array onto rank 0.
func ExampleNewPlan() {
	w, _ := comm.NewWorld(2)
	ids := [][]int64{{0, 1, 2}, {3, 4, 5}}
	gathered := make([]float64, 6)

	_ = w.Run(context.Background(), func(ctx context.Context, c comm.Communicator) error {
		owned, err := partition.Build(ctx, c, ids[c.Rank()], partition.Owned)
		if err != nil {
			return err
		}
		var all []int64
		if c.Rank() == 0 {
			all = []int64{0, 1, 2, 3, 4, 5}
		}
		root, err := partition.Build(ctx, c, all, partition.Owned)
		if err != nil {
			return err
		}
		plan, err := partition.NewPlan(ctx, owned, root)
		if err != nil {
			return err
		}

		vals := make([]float64, owned.NumLocal())
		for i, id := range owned.GlobalIDs() {
			vals[i] = float64(id) * 1.5
		}
		dst := make([]float64, root.NumLocal())
		if err = plan.Apply(ctx, vals, dst, partition.Insert); err != nil {
			return err
		}
		if c.Rank() == 0 {
			copy(gathered, dst)
		}

		return nil
	})
	fmt.Println(gathered)
	// Output:
	// [0 1.5 3 4.5 6 7.5]
}
