package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAxes() []Axis {
	return []Axis{
		{Name: "dataset", Values: []string{"A", "B"}},
		{Name: "dim", Values: []string{"5", "10"}},
		{Name: "seed", Values: []string{"0", "1"}},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		axes        []Axis
		shouldError bool
		errContains string
	}{
		{
			name: "Valid axes",
			axes: testAxes(),
		},
		{
			name:        "No axes",
			axes:        nil,
			shouldError: true,
			errContains: "at least one axis",
		},
		{
			name: "Empty axis",
			axes: []Axis{
				{Name: "dataset", Values: nil},
			},
			shouldError: true,
			errContains: `axis "dataset" has no values`,
		},
		{
			name: "Unnamed axis",
			axes: []Axis{
				{Name: "", Values: []string{"x"}},
			},
			shouldError: true,
			errContains: "name is required",
		},
		{
			name: "Duplicate axis name",
			axes: []Axis{
				{Name: "seed", Values: []string{"0"}},
				{Name: "seed", Values: []string{"1"}},
			},
			shouldError: true,
			errContains: `duplicate axis name "seed"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := New(tc.axes)
			if tc.shouldError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, g)
			}
		})
	}
}

func TestDecodeHandTable(t *testing.T) {
	// 2x2x2 grid, seed varies fastest, dataset slowest.
	g, err := New(testAxes())
	assert.NoError(t, err)
	assert.Equal(t, 8, g.Size())

	expected := []struct {
		dataset, dim, seed string
	}{
		{"A", "5", "0"},  // 0
		{"A", "5", "1"},  // 1
		{"A", "10", "0"}, // 2
		{"A", "10", "1"}, // 3
		{"B", "5", "0"},  // 4
		{"B", "5", "1"},  // 5
		{"B", "10", "0"}, // 6
		{"B", "10", "1"}, // 7
	}

	for i, want := range expected {
		p, err := g.Decode(i)
		assert.NoError(t, err)
		assert.Equal(t, want.dataset, p.Value("dataset"), "index %d", i)
		assert.Equal(t, want.dim, p.Value("dim"), "index %d", i)
		assert.Equal(t, want.seed, p.Value("seed"), "index %d", i)
	}
}

func TestDecodeBoundaries(t *testing.T) {
	g, err := New(testAxes())
	assert.NoError(t, err)

	first, err := g.Decode(0)
	assert.NoError(t, err)
	for _, s := range first.Selections {
		assert.Equal(t, 0, s.Index)
	}

	last, err := g.Decode(g.Size() - 1)
	assert.NoError(t, err)
	for i, s := range last.Selections {
		assert.Equal(t, g.Axes()[i].Len()-1, s.Index)
	}

	_, err = g.Decode(g.Size())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = g.Decode(-1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestDecodeBijection(t *testing.T) {
	g, err := New([]Axis{
		{Name: "dataset", Values: []string{"cora_ml", "citeseer", "pubmed"}},
		{Name: "alpha", Values: []string{"0", "50", "100"}},
		{Name: "seed", Values: []string{"0", "1", "2", "3", "4"}},
		{Name: "dim", Values: []string{"5", "10"}},
	})
	assert.NoError(t, err)

	seen := make(map[string]int)
	for i := 0; i < g.Size(); i++ {
		p, err := g.Decode(i)
		assert.NoError(t, err)

		key := ""
		for _, s := range p.Selections {
			key += s.Value + "|"
		}
		prev, dup := seen[key]
		assert.False(t, dup, "indices %d and %d decode to the same tuple", prev, i)
		seen[key] = i
	}
	assert.Len(t, seen, g.Size())
}

func TestEncodeRoundTrip(t *testing.T) {
	g, err := New(testAxes())
	assert.NoError(t, err)

	for i := 0; i < g.Size(); i++ {
		p, err := g.Decode(i)
		assert.NoError(t, err)

		sels := make([]int, len(p.Selections))
		for j, s := range p.Selections {
			sels[j] = s.Index
		}

		back, err := g.Encode(sels)
		assert.NoError(t, err)
		assert.Equal(t, i, back)
	}
}

func TestEncodeErrors(t *testing.T) {
	g, err := New(testAxes())
	assert.NoError(t, err)

	_, err = g.Encode([]int{0, 0})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 selections")

	_, err = g.Encode([]int{0, 2, 0})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `axis "dim"`)
}

func TestPointValueUnknownAxis(t *testing.T) {
	g, err := New(testAxes())
	assert.NoError(t, err)

	p, err := g.Decode(0)
	assert.NoError(t, err)
	assert.Equal(t, "", p.Value("nope"))
	assert.False(t, p.Has("nope"))
	assert.True(t, p.Has("seed"))
}
