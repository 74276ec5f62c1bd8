// Package landmarks holds face mesh landmark types and the index registry that
// maps semantic facial regions to landmark positions.
package landmarks

import (
	"math"

	"github.com/menta2k/portrait-fx/pkg/types"
)

const (
	// MinFaceLandmarks is the smallest landmark count treated as a detected face
	MinFaceLandmarks = 468
	// IrisLandmarkCount is the landmark count when iris refinement is present
	IrisLandmarkCount = 478
)

// Landmark is a face mesh point. X and Y are normalized to [0,1], Z is depth
// relative to the face center.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HasFace reports whether a landmark list describes a face
func HasFace(lms []Landmark) bool {
	return len(lms) >= MinFaceLandmarks
}

// Face is a validated, read-only view of a landmark list
type Face struct {
	points   []Landmark
	registry *Registry
}

// NewFace wraps a landmark list. ok is false when the list is too short to be
// a face, in which case the caller should fall back to the no-face state.
func NewFace(lms []Landmark, registry *Registry) (Face, bool) {
	if !HasFace(lms) {
		return Face{}, false
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	if registry.MaxIndex() >= len(lms) {
		return Face{}, false
	}
	return Face{points: append([]Landmark(nil), lms...), registry: registry}, true
}

// Len returns the number of landmarks
func (f Face) Len() int {
	return len(f.points)
}

// At returns the landmark at index i
func (f Face) At(i int) Landmark {
	return f.points[i]
}

// HasIris reports whether the iris points (468..477) are present
func (f Face) HasIris() bool {
	return len(f.points) >= IrisLandmarkCount
}

// Point returns the representative landmark of a region
func (f Face) Point(region Region) Landmark {
	idx, ok := f.registry.Anchor(region)
	if !ok || idx >= len(f.points) {
		return Landmark{}
	}
	return f.points[idx]
}

// Mean averages every landmark of a region
func (f Face) Mean(region Region) Landmark {
	var sum Landmark
	n := 0
	for _, idx := range f.registry.Indices(region) {
		if idx >= len(f.points) {
			continue
		}
		p := f.points[idx]
		sum.X += p.X
		sum.Y += p.Y
		sum.Z += p.Z
		n++
	}
	if n == 0 {
		return Landmark{}
	}
	return Landmark{X: sum.X / float64(n), Y: sum.Y / float64(n), Z: sum.Z / float64(n)}
}

// EyeCenter returns the iris center when iris points exist, else the mean of
// the eye contour.
func (f Face) EyeCenter(eye Region) Landmark {
	iris := LeftIris
	if eye == RightEye {
		iris = RightIris
	}
	if f.HasIris() {
		return f.Point(iris)
	}
	return f.Mean(eye)
}

// FaceWidth is the horizontal distance between the cheek anchors in
// normalized units
func (f Face) FaceWidth() float64 {
	return math.Abs(f.Point(RightCheekAnchor).X - f.Point(LeftCheekAnchor).X)
}

// Bounds returns the normalized bounding box of the first 468 landmarks
func (f Face) Bounds() types.Box {
	if len(f.points) == 0 {
		return types.Box{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range f.points[:MinFaceLandmarks] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return types.Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
