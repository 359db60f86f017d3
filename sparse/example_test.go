package sparse_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvdist/matrix"
	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/sparse"
)

// ExampleMatrix_ContributeElement assembles two bar elements sharing DOF 1.
func ExampleMatrix_ContributeElement() {
	ctx := context.Background()
	rows, _ := partition.BuildLocal([]int64{0, 1, 2})
	a, _ := sparse.New(rows, 3)
	elem, _ := matrix.NewDenseFromRows([][]float64{{1, -1}, {-1, 1}})

	_ = a.ContributeElement([]int64{0, 1}, elem)
	_ = a.ContributeElement([]int64{1, 2}, elem)
	_ = a.Reduce(ctx)
	_ = a.Finalize(ctx)

	fmt.Print(a)
	// Output:
	// Matrix rank 0/1 state=Finalized rows=3 nnz=7
	//   0: (0, 1) (1, -1)
	//   1: (0, -1) (1, 2) (2, -1)
	//   2: (1, -1) (2, 1)
}
