// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/lvdist/partition"
	"github.com/katalvlaran/lvdist/sparse"
	"github.com/katalvlaran/lvdist/vector"
)

// Well-known direct solver packages that this build does not ship. They are
// registered as unavailable so Query answers false for them by name.
var unavailableBackends = []string{
	"umfpack", "mumps", "superlu-dist", "pardiso", "scalapack", "taucs", "dscpack",
}

// unavailable is a placeholder for a backend missing from this build.
type unavailable struct{ name string }

func (u unavailable) Name() string  { return u.name }
func (unavailable) Available() bool { return false }

func (u unavailable) NewFactorizer(Settings) (Factorizer, error) {
	return nil, fmt.Errorf("%s: %w", u.name, ErrUnsupportedBackend)
}

// BackendInfo describes one registered backend.
type BackendInfo struct {
	Name      string
	Available bool
}

// Registry maps backend names to backends. Safe for concurrent use; every
// rank may share one registry.
type Registry struct {
	backends *xsync.MapOf[string, Backend]
	opts     options
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		backends: xsync.NewMapOf[string, Backend](),
		opts:     gatherOptions(opts...),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry holding dense-lu, sparse-lu
// and the unavailable placeholders.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewBuiltinRegistry()
	})

	return defaultRegistry
}

// NewBuiltinRegistry returns a fresh registry populated like Default, with
// its own logging and metrics options.
func NewBuiltinRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	// Names are distinct, so registration cannot fail here.
	_ = r.Register(denseLU{})
	_ = r.Register(sparseLU{})
	for _, name := range unavailableBackends {
		_ = r.Register(unavailable{name: name})
	}

	return r
}

// Register adds b under b.Name().
// Errors: ErrDuplicateBackend if the name is taken.
func (r *Registry) Register(b Backend) error {
	if _, loaded := r.backends.LoadOrStore(b.Name(), b); loaded {
		return fmt.Errorf("Register(%q): %w", b.Name(), ErrDuplicateBackend)
	}

	return nil
}

// Query reports whether name is registered and available. It has no side
// effects and never creates anything.
func (r *Registry) Query(name string) bool {
	b, ok := r.backends.Load(name)

	return ok && b.Available()
}

// Names returns the available backend names in ascending order.
func (r *Registry) Names() []string {
	var names []string
	r.backends.Range(func(name string, b Backend) bool {
		if b.Available() {
			names = append(names, name)
		}
		return true
	})
	slices.Sort(names)

	return names
}

// KnownBackends lists every registered backend, available or not, by name.
func (r *Registry) KnownBackends() []BackendInfo {
	var out []BackendInfo
	r.backends.Range(func(name string, b Backend) bool {
		out = append(out, BackendInfo{Name: name, Available: b.Available()})
		return true
	})
	slices.SortFunc(out, func(a, b BackendInfo) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})

	return out
}

// Create binds a new session of backend name to the system A·x = b. Local:
// no communication happens until the first stage.
//
// Errors:
//   - ErrUnsupportedBackend for an unknown or unavailable name.
//   - ErrInvalidParameter for a malformed parameter.
//   - partition.ErrMapMismatch if x or b is not on A's row map.
func (r *Registry) Create(name string, a *sparse.Matrix, x, b *vector.Vector, params Params) (*Session, error) {
	be, ok := r.backends.Load(name)
	if !ok || !be.Available() {
		return nil, fmt.Errorf("Create(%q): %w", name, ErrUnsupportedBackend)
	}
	if a == nil || x == nil || b == nil {
		return nil, fmt.Errorf("Create(%q): nil matrix or vector: %w", name, partition.ErrMapMismatch)
	}
	if !x.Map().SameAs(a.RowMap()) || !b.Map().SameAs(a.RowMap()) {
		return nil, fmt.Errorf("Create(%q): x and b must be on the row map: %w", name, partition.ErrMapMismatch)
	}
	settings, unknown, err := params.Apply(DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("Create(%q): %w", name, err)
	}
	fact, err := be.NewFactorizer(settings)
	if err != nil {
		return nil, fmt.Errorf("Create(%q): %w", name, err)
	}

	s := &Session{
		id:       uuid.Must(uuid.NewV7()),
		backend:  be,
		problem:  &Problem{A: a, X: x, B: b},
		params:   Params{},
		settings: settings,
		fact:     fact,
		phase:    Created,
		logger:   r.opts.logger,
		metrics:  r.opts.metrics,
	}
	for k, v := range params {
		s.params[k] = v
	}
	s.logIgnored(unknown)

	return s, nil
}
