// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvdist/solver"
	"github.com/katalvlaran/lvdist/telemetry"
)

// Defaults filled in by Parse for omitted keys.
const (
	DefaultBackend  = solver.NameDenseLU
	DefaultLogLevel = "info"
)

// Config is one problem description.
type Config struct {
	Ranks         int           `yaml:"ranks"`
	Backend       string        `yaml:"backend"`
	Parameters    solver.Params `yaml:"parameters,omitempty"`
	ElementMatrix [][]float64   `yaml:"element_matrix"`
	Partitions    []Partition   `yaml:"partitions"`
	Constraints   []Constraint  `yaml:"constraints,omitempty"`
	LogLevel      string        `yaml:"log_level,omitempty"`
}

// Partition is what one rank owns and assembles.
type Partition struct {
	Owned    []int64   `yaml:"owned"`
	Elements [][]int64 `yaml:"elements"`
}

// Constraint fixes one DOF.
type Constraint struct {
	DOF   int64   `yaml:"dof"`
	Value float64 `yaml:"value"`
}

// Load reads and parses the problem file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Parse decodes a YAML problem description, fills defaults and validates it.
// Errors: ErrInvalidConfig.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return buf.Bytes(), nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
}

// Validate checks the description for internal consistency. Ownership
// conflicts and unknown DOFs are left to the run itself, which reports
// them with the partition and constraint errors.
// Errors: ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Ranks < 1 {
		return invalidf("ranks = %d, need at least 1", c.Ranks)
	}
	if len(c.Partitions) != c.Ranks {
		return invalidf("%d partitions for %d ranks", len(c.Partitions), c.Ranks)
	}
	if c.Backend == "" {
		return invalidf("backend is empty")
	}
	if _, ok := telemetry.ParseLevel(c.LogLevel); !ok {
		return invalidf("log_level %q", c.LogLevel)
	}

	n := len(c.ElementMatrix)
	if n == 0 {
		return invalidf("element_matrix is empty")
	}
	for i, row := range c.ElementMatrix {
		if len(row) != n {
			return invalidf("element_matrix row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf("element_matrix[%d][%d] is not finite", i, j)
			}
		}
	}
	for r, p := range c.Partitions {
		for e, dofs := range p.Elements {
			if len(dofs) != n {
				return invalidf("partition %d element %d has %d DOFs, element matrix is %dx%d", r, e, len(dofs), n, n)
			}
		}
	}
	for k, cs := range c.Constraints {
		if math.IsNaN(cs.Value) || math.IsInf(cs.Value, 0) {
			return invalidf("constraint %d (dof %d) value is not finite", k, cs.DOF)
		}
	}

	return nil
}

// OwnerOf returns the first rank whose partition owns dof.
func (c *Config) OwnerOf(dof int64) (int, bool) {
	for r, p := range c.Partitions {
		for _, id := range p.Owned {
			if id == dof {
				return r, true
			}
		}
	}

	return 0, false
}

// DOFs returns the distinct owned DOFs over all partitions, ascending.
func (c *Config) DOFs() []int64 {
	seen := make(map[int64]struct{})
	for _, p := range c.Partitions {
		for _, id := range p.Owned {
			seen[id] = struct{}{}
		}
	}
	ids := maps.Keys(seen)
	slices.Sort(ids)

	return ids
}

// NumDOFs counts the distinct owned DOFs over all partitions.
func (c *Config) NumDOFs() int { return len(c.DOFs()) }

// Default returns the two-rank, six-DOF bar: five unit elements, DOF 0
// held at 0 and DOF 5 at 1.
func Default() *Config {
	c, err := Bar(5, 2)
	if err != nil {
		panic(err) // fixed arguments
	}
	c.Parameters = solver.Params{
		solver.ParamPrintTiming: false,
		solver.ParamPrintStatus: false,
	}

	return c
}

// Bar generates a linear 1-D bar of numElements unit elements over ranks.
// The numElements+1 DOFs are split into contiguous blocks (the remainder
// going to the lowest ranks); element [i, i+1] is assembled on the rank
// owning DOF i. DOF 0 is fixed at 0 and the last DOF at 1.
// Errors: ErrInvalidConfig for numElements < 1 or more ranks than DOFs.
func Bar(numElements, ranks int) (*Config, error) {
	if numElements < 1 {
		return nil, invalidf("bar needs at least one element, got %d", numElements)
	}
	numDOFs := numElements + 1
	if ranks < 1 || ranks > numDOFs {
		return nil, invalidf("bar of %d DOFs cannot be split over %d ranks", numDOFs, ranks)
	}

	c := &Config{
		Ranks:         ranks,
		Backend:       DefaultBackend,
		ElementMatrix: [][]float64{{1, -1}, {-1, 1}},
		Partitions:    make([]Partition, ranks),
		Constraints: []Constraint{
			{DOF: 0, Value: 0},
			{DOF: int64(numElements), Value: 1},
		},
		LogLevel: DefaultLogLevel,
	}
	base, extra := numDOFs/ranks, numDOFs%ranks
	var next int64
	var r, k int // loop iterators
	for r = 0; r < ranks; r++ {
		count := base
		if r < extra {
			count++
		}
		p := &c.Partitions[r]
		p.Owned = make([]int64, count)
		for k = 0; k < count; k++ {
			p.Owned[k] = next
			if next < int64(numElements) {
				p.Elements = append(p.Elements, []int64{next, next + 1})
			}
			next++
		}
	}

	return c, nil
}
