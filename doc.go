// Package lvdist assembles and solves finite element systems whose rows are
// spread over the ranks of a communicator.
//
// What is lvdist?
//
//	An in-process SPMD toolkit that brings together:
//		• Partition maps & redistribution plans over global ids
//		• Distributed vectors with owned and shared entries
//		• A sparse matrix with a fill / reduce / finalize lifecycle
//		• Dirichlet constraint elimination
//		• A registry of direct solvers driven through sessions
//
// Every rank runs the same code against its own communicator; collective
// calls must be entered by all ranks in the same order. comm.World runs the
// ranks as goroutines, comm.Self is the single-rank case.
//
// Packages:
//
//	comm/       communicator, World runner, typed collectives
//	telemetry/  slog-based logger, Prometheus metrics
//	partition/  Map (id → ranks) and Plan (Import/Export between maps)
//	vector/     distributed dense vector
//	sparse/     distributed sparse matrix, element assembly
//	constraint/ elimination of fixed-value DOFs
//	ordering/   BFS, components, Reverse Cuthill–McKee
//	matrix/     dense LU kernel
//	solver/     backend registry, sessions, dense-lu & sparse-lu
//	config/     YAML scenario description
//	femrun/     end-to-end driver: assemble → constrain → solve
//	cmd/lvdist  command line front end
//
// Quick ASCII example (two ranks, four bar elements):
//
//	rank 0: 0───1───2
//	rank 1:         2───3───4
//
// DOF 2 is shared; its element contributions are summed on the owner
// during Reduce.
//
//	go run ./cmd/lvdist run --ranks 2 --elements 4
package lvdist
