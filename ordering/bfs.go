// SPDX-License-Identifier: MIT

package ordering

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Option configures BFS via functional arguments. An invalid Option is
// recorded and surfaced as ErrOptionViolation when BFS runs.
type Option func(*bfsOptions)

type bfsOptions struct {
	maxDepth int                      // 0 disables the limit
	byDegree bool                     // enqueue neighbours by ascending degree
	visited  []bool                   // shared visited set, nil for a private one
	onVisit  func(v, depth int) error // called once per vertex in BFS order
	err      error                    // recorded option violation
}

// WithMaxDepth stops exploring beyond depth d (> 0). Zero disables the limit.
func WithMaxDepth(d int) Option {
	return func(o *bfsOptions) {
		if d < 0 {
			o.err = fmt.Errorf("WithMaxDepth(%d): %w", d, ErrOptionViolation)
			return
		}
		o.maxDepth = d
	}
}

// WithDegreeOrder enqueues the unvisited neighbours of each vertex in
// ascending degree order (ties by index), the Cuthill–McKee rule.
func WithDegreeOrder() Option {
	return func(o *bfsOptions) { o.byDegree = true }
}

// WithOnVisit registers a hook called for each vertex as it is dequeued.
// A non-nil error aborts the search and is returned wrapped.
func WithOnVisit(fn func(v, depth int) error) Option {
	return func(o *bfsOptions) {
		if fn != nil {
			o.onVisit = fn
		}
	}
}

// withVisited shares a visited set across searches; vertices already
// marked are treated as absent. Used to sweep components one by one.
func withVisited(seen []bool) Option {
	return func(o *bfsOptions) { o.visited = seen }
}

// BFSResult holds the visit order and the depth of each reached vertex
// (-1 for unreached ones).
type BFSResult struct {
	Order []int
	Depth []int
}

// Levels returns the vertices of Order grouped by depth.
func (r *BFSResult) Levels() [][]int {
	var levels [][]int
	for _, v := range r.Order {
		d := r.Depth[v]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], v)
	}

	return levels
}

// walker encapsulates mutable BFS state.
type walker struct {
	g       *Graph
	opts    bfsOptions
	queue   []int
	visited []bool
	res     *BFSResult
	scratch []int // neighbour buffer for degree ordering
}

// BFS runs breadth-first search on g from start.
// Errors: ErrIndexOutOfRange, ErrOptionViolation, or the OnVisit error.
func BFS(g *Graph, start int, opts ...Option) (*BFSResult, error) {
	o := bfsOptions{onVisit: func(int, int) error { return nil }}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	n := g.Order()
	if start < 0 || start >= n {
		return nil, fmt.Errorf("BFS: start %d of %d: %w", start, n, ErrIndexOutOfRange)
	}

	w := &walker{
		g:       g,
		opts:    o,
		queue:   make([]int, 0, n),
		visited: o.visited,
		res:     &BFSResult{Depth: make([]int, n)},
	}
	if w.visited == nil {
		w.visited = make([]bool, n)
	}
	for i := range w.res.Depth {
		w.res.Depth[i] = -1
	}
	if w.visited[start] {
		return w.res, nil
	}
	w.enqueue(start, 0)

	return w.res, w.loop()
}

func (w *walker) enqueue(v, depth int) {
	w.visited[v] = true
	w.res.Depth[v] = depth
	w.queue = append(w.queue, v)
}

// loop processes the queue until it is empty or a hook fails.
func (w *walker) loop() error {
	for head := 0; head < len(w.queue); head++ {
		v := w.queue[head]
		depth := w.res.Depth[v]
		w.res.Order = append(w.res.Order, v)
		if err := w.opts.onVisit(v, depth); err != nil {
			return fmt.Errorf("ordering: OnVisit error at %d: %w", v, err)
		}
		if w.opts.maxDepth > 0 && depth+1 > w.opts.maxDepth {
			continue
		}
		w.enqueueNeighbors(v, depth+1)
	}

	return nil
}

// enqueueNeighbors adds every unseen neighbour of v at the given depth.
func (w *walker) enqueueNeighbors(v, depth int) {
	nbrs := w.g.Neighbors(v)
	if w.opts.byDegree {
		w.scratch = append(w.scratch[:0], nbrs...)
		slices.SortStableFunc(w.scratch, func(a, b int) int {
			return w.g.Degree(a) - w.g.Degree(b)
		})
		nbrs = w.scratch
	}
	for _, u := range nbrs {
		if !w.visited[u] {
			w.enqueue(u, depth)
		}
	}
}
