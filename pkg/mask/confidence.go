package mask

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f32"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrDimensions is returned when values do not match width*height
	ErrDimensions = errors.New("mask: dimensions do not match value count")
	// ErrEmptyMap is returned for a map with no pixels
	ErrEmptyMap = errors.New("mask: confidence map is empty")
)

// ConfidenceMap is a per-pixel subject probability grid produced by a
// segmenter. Values are row-major and clamped to [0,1]. A map is never
// modified after construction.
type ConfidenceMap struct {
	width  int
	height int
	values []float32
}

// NewConfidenceMap copies values into a new map, clamping them to [0,1]
func NewConfidenceMap(width, height int, values []float32) (*ConfidenceMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyMap, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrDimensions, width, height, width*height, len(values))
	}
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = clamp01(v)
	}
	return &ConfidenceMap{width: width, height: height, values: out}, nil
}

func clamp01(v float32) float32 {
	if math.IsNaN(float64(v)) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Width returns the map width
func (c *ConfidenceMap) Width() int {
	return c.width
}

// Height returns the map height
func (c *ConfidenceMap) Height() int {
	return c.height
}

// At returns the confidence at (x, y)
func (c *ConfidenceMap) At(x, y int) float32 {
	return c.values[y*c.width+x]
}

// Row returns row y. The slice aliases the map and must not be modified.
func (c *ConfidenceMap) Row(y int) []float32 {
	return c.values[y*c.width : (y+1)*c.width]
}

// Values returns a copy of all values
func (c *ConfidenceMap) Values() []float32 {
	return append([]float32(nil), c.values...)
}

// Mean returns the average confidence
func (c *ConfidenceMap) Mean() float64 {
	var sum float64
	for y := 0; y < c.height; y++ {
		sum += float64(f32.Sum(c.Row(y)))
	}
	return sum / float64(len(c.values))
}

// StdDev returns the standard deviation of the confidences
func (c *ConfidenceMap) StdDev() float64 {
	vals := make([]float64, len(c.values))
	for i, v := range c.values {
		vals[i] = float64(v)
	}
	_, std := stat.MeanStdDev(vals, nil)
	return std
}

// Coverage returns the fraction of pixels with confidence >= threshold
func (c *ConfidenceMap) Coverage(threshold float32) float64 {
	n := 0
	for _, v := range c.values {
		if v >= threshold {
			n++
		}
	}
	return float64(n) / float64(len(c.values))
}

// Resize resamples the map bilinearly to width x height. The same map is
// returned when the size already matches.
func (c *ConfidenceMap) Resize(width, height int) (*ConfidenceMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyMap, width, height)
	}
	if width == c.width && height == c.height {
		return c, nil
	}

	out := make([]float32, width*height)
	sx := float64(c.width) / float64(width)
	sy := float64(c.height) / float64(height)
	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(math.Floor(fy))
		ty := float32(fy - float64(y0))
		y1 := clampIndex(y0+1, c.height)
		y0 = clampIndex(y0, c.height)
		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(math.Floor(fx))
			tx := float32(fx - float64(x0))
			x1 := clampIndex(x0+1, c.width)
			x0 = clampIndex(x0, c.width)

			top := c.At(x0, y0)*(1-tx) + c.At(x1, y0)*tx
			bottom := c.At(x0, y1)*(1-tx) + c.At(x1, y1)*tx
			out[y*width+x] = clamp01(top*(1-ty) + bottom*ty)
		}
	}
	return &ConfidenceMap{width: width, height: height, values: out}, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
