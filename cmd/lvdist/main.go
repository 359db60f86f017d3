// SPDX-License-Identifier: MIT

// Command lvdist runs distributed finite element scenarios on an
// in-process world of ranks.
//
//	lvdist run --config bar.yaml --backend sparse-lu --metrics
//	lvdist run --elements 40 --ranks 4
//	lvdist backends
//	lvdist config > bar.yaml
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "lvdist:", err)
		os.Exit(1)
	}
}
