package warp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxPoints is the capacity of a PointSet
const MaxPoints = 16

var (
	// ErrTooManyPoints is returned when a PointSet is already full
	ErrTooManyPoints = errors.New("warp: point set is full")
	// ErrInvalidRadius is returned for a point whose radius is not positive
	ErrInvalidRadius = errors.New("warp: radius must be positive")
	// ErrDegenerateFace is returned when landmarks yield a zero face width
	ErrDegenerateFace = errors.New("warp: face width is zero")
)

// Type selects the coordinate remap applied by a point
type Type int

const (
	Push Type = iota
	Enlarge
	Shrink
	Sphere
)

func (t Type) String() string {
	switch t {
	case Push:
		return "push"
	case Enlarge:
		return "enlarge"
	case Shrink:
		return "shrink"
	case Sphere:
		return "sphere"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Group selects which global multiplier scales a point's intensity
type Group int

const (
	GroupSlim Group = iota
	GroupEye
	GroupChin
)

func (g Group) String() string {
	switch g {
	case GroupSlim:
		return "slim"
	case GroupEye:
		return "eye"
	case GroupChin:
		return "chin"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// Point is a warp control point in normalized texture space
type Point struct {
	Center    r2.Vec  `json:"center"`
	Direction r2.Vec  `json:"direction"`
	Radius    float64 `json:"radius"`
	Intensity float64 `json:"intensity"`
	Type      Type    `json:"type"`
	Group     Group   `json:"group"`
}

// PointSet is a bounded, ordered list of warp points. The zero value is an
// empty set with HasFace false.
type PointSet struct {
	points  [MaxPoints]Point
	count   int
	hasFace bool
}

// NewPointSet returns an empty set flagged as having a face
func NewPointSet() PointSet {
	return PointSet{hasFace: true}
}

// Add appends a point. The intensity is clamped to [0,1].
func (s *PointSet) Add(p Point) error {
	if p.Radius <= 0 {
		return fmt.Errorf("%w: %s point has radius %g", ErrInvalidRadius, p.Type, p.Radius)
	}
	if s.count == MaxPoints {
		return ErrTooManyPoints
	}
	p.Intensity = ClampIntensity(p.Intensity)
	s.points[s.count] = p
	s.count++
	return nil
}

// Len returns the number of points
func (s PointSet) Len() int {
	return s.count
}

// At returns point i
func (s PointSet) At(i int) Point {
	if i < 0 || i >= s.count {
		panic(fmt.Sprintf("warp: point index %d out of range [0,%d)", i, s.count))
	}
	return s.points[i]
}

// Points returns a copy of the active points in order
func (s PointSet) Points() []Point {
	return append([]Point(nil), s.points[:s.count]...)
}

// HasFace reports whether the set was generated from a detected face
func (s PointSet) HasFace() bool {
	return s.hasFace
}
