package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvdist/config"
	"github.com/katalvlaran/lvdist/solver"
)

const barYAML = `
ranks: 2
backend: dense-lu
parameters: {PrintTiming: false, PrintStatus: false}
element_matrix: [[1, -1], [-1, 1]]
partitions:
  - owned: [0, 1, 2]
    elements: [[0, 1], [1, 2], [2, 3]]
  - owned: [3, 4, 5]
    elements: [[3, 4], [4, 5]]
constraints:
  - {dof: 0, value: 0.0}
  - {dof: 5, value: 1.0}
log_level: info
`

func TestParseMatchesDefault(t *testing.T) {
	c, err := config.Parse([]byte(barYAML))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
	assert.Equal(t, 6, c.NumDOFs())

	owner, ok := c.OwnerOf(3)
	require.True(t, ok)
	assert.Equal(t, 1, owner)
	_, ok = c.OwnerOf(42)
	assert.False(t, ok)
}

func TestParseFillsDefaults(t *testing.T) {
	c, err := config.Parse([]byte(`
ranks: 1
element_matrix: [[2]]
partitions:
  - owned: [0]
    elements: [[0]]
parameters: {AddToDiag: 1, PivotThreshold: 0.5}
`))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBackend, c.Backend)
	assert.Equal(t, config.DefaultLogLevel, c.LogLevel)
	assert.Empty(t, c.Constraints)

	// YAML integers reach the solver as int and are accepted there.
	s, _, err := c.Parameters.Apply(solver.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.AddToDiag)
	assert.Equal(t, 0.5, s.PivotThreshold)
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"unknown key", "ranks: 1\nmesh: fine\n"},
		{"wrong type", "ranks: two\n"},
		{"no ranks", "element_matrix: [[1]]\npartitions: []\n"},
		{"partition count", "ranks: 2\nelement_matrix: [[1]]\npartitions:\n  - owned: [0]\n"},
		{"empty element matrix", "ranks: 1\npartitions:\n  - owned: [0]\n"},
		{"ragged element matrix", "ranks: 1\nelement_matrix: [[1, 2], [3]]\npartitions:\n  - owned: [0]\n"},
		{"non-finite entry", "ranks: 1\nelement_matrix: [[.nan]]\npartitions:\n  - owned: [0]\n"},
		{"element arity", "ranks: 1\nelement_matrix: [[1]]\npartitions:\n  - owned: [0, 1]\n    elements: [[0, 1]]\n"},
		{"non-finite constraint", "ranks: 1\nelement_matrix: [[1]]\npartitions:\n  - owned: [0]\nconstraints:\n  - {dof: 0, value: .inf}\n"},
		{"log level", "ranks: 1\nelement_matrix: [[1]]\npartitions:\n  - owned: [0]\nlog_level: chatty\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.doc))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(barYAML), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Ranks)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	want, err := config.Bar(7, 3)
	require.NoError(t, err)
	data, err := want.Marshal()
	require.NoError(t, err)
	got, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBar(t *testing.T) {
	c, err := config.Bar(10, 3)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, []int64{0, 1, 2, 3}, c.Partitions[0].Owned)
	assert.Equal(t, []int64{4, 5, 6, 7}, c.Partitions[1].Owned)
	assert.Equal(t, []int64{8, 9, 10}, c.Partitions[2].Owned)
	assert.Len(t, c.Partitions[2].Elements, 2, "last DOF starts no element")
	assert.Equal(t, []int64{7, 8}, c.Partitions[1].Elements[3])
	assert.Equal(t, []config.Constraint{{DOF: 0, Value: 0}, {DOF: 10, Value: 1}}, c.Constraints)
	assert.Equal(t, 11, c.NumDOFs())

	_, err = config.Bar(0, 1)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = config.Bar(2, 4)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = config.Bar(2, 0)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
