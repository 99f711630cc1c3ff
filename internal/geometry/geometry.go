// Package geometry holds the rectangle arithmetic shared by selection,
// capture and resolution: the "<x>,<y> <w>x<h>" wire form spoken by the
// selection and capture tools, logical-to-physical scaling, and clipping
// to monitor bounds.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Region is a physical-pixel rectangle. Scale records the factor used for
// the logical-to-physical conversion that produced it (1 when none was
// applied).
type Region struct {
	X, Y  int
	W, H  int
	Scale float64
}

// String renders the region in the form consumed by the selection and
// capture tools: "<x>,<y> <w>x<h>".
func (r Region) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the point lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Scaled returns the region with every coordinate multiplied by factor and
// rounded, recording factor as the region's scale.
func (r Region) Scaled(factor float64) Region {
	round := func(v int) int {
		return int(math.Round(float64(v) * factor))
	}
	return Region{
		X:     round(r.X),
		Y:     round(r.Y),
		W:     round(r.W),
		H:     round(r.H),
		Scale: factor,
	}
}

// ClipTo clamps the region to the given bounds. The second return is false
// when nothing of the region remains inside the bounds.
func (r Region) ClipTo(bounds Region) (Region, bool) {
	x1 := max(r.X, bounds.X)
	y1 := max(r.Y, bounds.Y)
	x2 := min(r.X+r.W, bounds.X+bounds.W)
	y2 := min(r.Y+r.H, bounds.Y+bounds.H)

	clipped := Region{X: x1, Y: y1, W: x2 - x1, H: y2 - y1, Scale: r.Scale}
	if clipped.Empty() {
		return Region{}, false
	}
	return clipped, true
}

// Parse parses a "<x>,<y> <w>x<h>" line, the single-line protocol spoken by
// the selection tool on success. Whitespace around the line is ignored.
// Parsing the String form of a Region yields the same rectangle back.
func Parse(line string) (Region, error) {
	line = strings.TrimSpace(line)
	pos, dim, ok := strings.Cut(line, " ")
	if !ok {
		return Region{}, fmt.Errorf("malformed geometry %q: expected \"x,y wxh\"", line)
	}

	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return Region{}, fmt.Errorf("malformed geometry %q: missing \",\" in position", line)
	}
	ws, hs, ok := strings.Cut(dim, "x")
	if !ok {
		return Region{}, fmt.Errorf("malformed geometry %q: missing \"x\" in size", line)
	}

	var (
		r   Region
		err error
	)
	if r.X, err = strconv.Atoi(xs); err != nil {
		return Region{}, fmt.Errorf("malformed geometry %q: %w", line, err)
	}
	if r.Y, err = strconv.Atoi(ys); err != nil {
		return Region{}, fmt.Errorf("malformed geometry %q: %w", line, err)
	}
	if r.W, err = strconv.Atoi(ws); err != nil {
		return Region{}, fmt.Errorf("malformed geometry %q: %w", line, err)
	}
	if r.H, err = strconv.Atoi(hs); err != nil {
		return Region{}, fmt.Errorf("malformed geometry %q: %w", line, err)
	}
	r.Scale = 1
	return r, nil
}
