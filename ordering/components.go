// SPDX-License-Identifier: MIT

package ordering

// Components returns the connected components of g. Each component is
// ascending; components are ordered by their smallest vertex.
//
// Time:   O(n + edges).
// Memory: O(n) for the visited flags and output.
func Components(g *Graph) [][]int {
	n := g.Order()
	seen := make([]bool, n)
	var comps [][]int
	for v := 0; v < n; v++ {
		if seen[v] {
			continue
		}
		// v is in range and unseen, so BFS cannot fail here.
		res, _ := BFS(g, v, withVisited(seen))
		comp := make([]int, 0, len(res.Order))
		for u := v; u < n && len(comp) < len(res.Order); u++ {
			if res.Depth[u] >= 0 {
				comp = append(comp, u)
			}
		}
		comps = append(comps, comp)
	}

	return comps
}
