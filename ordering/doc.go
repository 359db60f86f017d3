// Package ordering computes symmetric reorderings of sparse matrix
// patterns.
//
// A pattern is viewed as an undirected graph on the dense row indices
// 0..n-1: i and j are adjacent when (i, j) or (j, i) is structurally
// nonzero. On that graph the package offers
//
//   - BFS: level-by-level traversal with depth limit, visit hook and an
//     optional ascending-degree neighbour order;
//   - Components: connected components (decoupled diagonal blocks);
//   - ReverseCuthillMcKee: a bandwidth-reducing permutation, which bounds
//     the fill of an LU factorization without pivoting to the envelope.
//
// Permutations map new positions to old indices: perm[k] is the row placed
// at position k. Inverse returns the old → new direction.
package ordering
