// Package constraint eliminates Dirichlet (fixed-value) conditions from an
// assembled system A·x = b.
//
// Apply rewrites the finalized matrix, the right-hand side and the initial
// guess in place so that the solution of the modified system takes the
// prescribed value at every constrained DOF and satisfies the original
// equations everywhere else. By default the constrained columns are moved
// to the right-hand side as well, which keeps a symmetric operator
// symmetric; WithKeepSymmetric(false) rewrites the constrained rows only.
//
// Constraints may be declared on any rank: Apply gathers them, so every
// rank works from the same merged set.
package constraint
