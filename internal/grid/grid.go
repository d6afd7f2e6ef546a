package grid

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a task index does not address any
// combination in the grid. It usually means the scheduler array size and the
// sweep definition have drifted apart.
var ErrIndexOutOfRange = errors.New("task index out of range")

// Axis is one sweep dimension: a named, ordered, non-empty list of values.
// The order is load-bearing - task indices decode against it, so reordering
// values silently remaps every previously-run index.
type Axis struct {
	Name   string
	Values []string
}

// Len returns the number of values on the axis.
func (a Axis) Len() int { return len(a.Values) }

// Grid is an ordered list of axes. The last axis varies fastest as the task
// index increments, the first slowest.
type Grid struct {
	axes []Axis
}

// New builds a Grid from the given axes. Every axis must be non-empty and
// axis names must be unique.
func New(axes []Axis) (*Grid, error) {
	if len(axes) == 0 {
		return nil, errors.New("grid requires at least one axis")
	}
	seen := make(map[string]bool, len(axes))
	for i, ax := range axes {
		if ax.Name == "" {
			return nil, fmt.Errorf("axis[%d]: name is required", i)
		}
		if len(ax.Values) == 0 {
			return nil, fmt.Errorf("axis %q has no values", ax.Name)
		}
		if seen[ax.Name] {
			return nil, fmt.Errorf("duplicate axis name %q", ax.Name)
		}
		seen[ax.Name] = true
	}
	g := &Grid{axes: make([]Axis, len(axes))}
	copy(g.axes, axes)
	return g, nil
}

// Axes returns the axes in declaration order.
func (g *Grid) Axes() []Axis { return g.axes }

// Size returns the total number of combinations: the product of all axis
// lengths. Every task index in [0, Size()) addresses exactly one combination.
func (g *Grid) Size() int {
	size := 1
	for _, ax := range g.axes {
		size *= len(ax.Values)
	}
	return size
}

// Selection is the chosen value (and its position) on one axis.
type Selection struct {
	Axis  string
	Index int
	Value string
}

// Point is one fully decoded combination: one selection per axis, in axis
// declaration order.
type Point struct {
	Index      int
	Selections []Selection
}

// Value returns the selected value for the named axis, or "" if the grid has
// no such axis.
func (p Point) Value(axis string) string {
	for _, s := range p.Selections {
		if s.Axis == axis {
			return s.Value
		}
	}
	return ""
}

// Has reports whether the point carries a selection for the named axis.
func (p Point) Has(axis string) bool {
	for _, s := range p.Selections {
		if s.Axis == axis {
			return true
		}
	}
	return false
}

// Decode maps a task index to its combination by mixed-radix decoding: each
// axis is a digit whose radix is the axis length, with the last axis as the
// least significant digit. Pure; no side effects.
func (g *Grid) Decode(index int) (Point, error) {
	size := g.Size()
	if index < 0 || index >= size {
		return Point{}, fmt.Errorf("%w: index %d, grid size %d", ErrIndexOutOfRange, index, size)
	}

	p := Point{
		Index:      index,
		Selections: make([]Selection, len(g.axes)),
	}

	rem := index
	for i := len(g.axes) - 1; i >= 0; i-- {
		ax := g.axes[i]
		sel := rem % len(ax.Values)
		rem /= len(ax.Values)
		p.Selections[i] = Selection{
			Axis:  ax.Name,
			Index: sel,
			Value: ax.Values[sel],
		}
	}

	return p, nil
}

// Encode is the inverse of Decode: it maps per-axis value indices back to the
// task index. selections must hold one in-range index per axis, in axis
// declaration order.
func (g *Grid) Encode(selections []int) (int, error) {
	if len(selections) != len(g.axes) {
		return 0, fmt.Errorf("expected %d selections, got %d", len(g.axes), len(selections))
	}

	index := 0
	for i, ax := range g.axes {
		sel := selections[i]
		if sel < 0 || sel >= len(ax.Values) {
			return 0, fmt.Errorf("axis %q: selection %d out of range [0, %d)", ax.Name, sel, len(ax.Values))
		}
		index = index*len(ax.Values) + sel
	}
	return index, nil
}
