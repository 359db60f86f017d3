// Package config describes a finite element run as data: the rank count,
// the solver backend and its parameters, one element matrix shared by all
// elements, the per-rank DOF ownership and element connectivity, and the
// Dirichlet constraints.
//
// Problem files are YAML and decoded strictly: unknown keys are errors.
//
//	ranks: 2
//	backend: dense-lu
//	element_matrix: [[1, -1], [-1, 1]]
//	partitions:
//	  - owned: [0, 1, 2]
//	    elements: [[0, 1], [1, 2], [2, 3]]
//	  - owned: [3, 4, 5]
//	    elements: [[3, 4], [4, 5]]
//	constraints:
//	  - {dof: 0, value: 0}
//	  - {dof: 5, value: 1}
//
// Elements may reference DOFs owned by another rank; assembly moves those
// contributions to the owner.
package config
