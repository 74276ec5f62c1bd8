package landmarks

import "fmt"

// Region names a semantic facial area that maps to a set of landmark indices
type Region int

const (
	LeftCheek Region = iota
	RightCheek
	LeftCheekAnchor
	RightCheekAnchor
	FaceCenter
	Chin
	LeftEye
	RightEye
	LeftIris
	RightIris
)

var regionNames = map[Region]string{
	LeftCheek:        "left_cheek",
	RightCheek:       "right_cheek",
	LeftCheekAnchor:  "left_cheek_anchor",
	RightCheekAnchor: "right_cheek_anchor",
	FaceCenter:       "face_center",
	Chin:             "chin",
	LeftEye:          "left_eye",
	RightEye:         "right_eye",
	LeftIris:         "left_iris",
	RightIris:        "right_iris",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("region(%d)", int(r))
}

// Face mesh indices. Left and right refer to image sides.
var (
	leftEyeContour  = []int{33, 7, 163, 144, 145, 153, 154, 155, 133, 173, 157, 158, 159, 160, 161, 246}
	rightEyeContour = []int{362, 382, 381, 380, 374, 373, 390, 249, 263, 466, 388, 387, 386, 385, 384, 398}
)

// Registry maps regions to landmark index sets. The first index of a set is
// its representative point; Mean averages the whole set.
type Registry struct {
	regions map[Region][]int
}

// DefaultRegistry returns the registry for the 468 point face mesh with the
// optional 10 iris points (468..477).
func DefaultRegistry() *Registry {
	return &Registry{
		regions: map[Region][]int{
			LeftCheek:        {205},
			RightCheek:       {425},
			LeftCheekAnchor:  {234},
			RightCheekAnchor: {454},
			FaceCenter:       {1},
			Chin:             {152},
			LeftEye:          leftEyeContour,
			RightEye:         rightEyeContour,
			LeftIris:         {468, 469, 470, 471, 472},
			RightIris:        {473, 474, 475, 476, 477},
		},
	}
}

// NewRegistry builds a registry from an explicit region table
func NewRegistry(regions map[Region][]int) (*Registry, error) {
	r := &Registry{regions: make(map[Region][]int, len(regions))}
	for region, indices := range regions {
		if len(indices) == 0 {
			return nil, fmt.Errorf("region %s has no indices", region)
		}
		for _, idx := range indices {
			if idx < 0 {
				return nil, fmt.Errorf("region %s has negative index %d", region, idx)
			}
		}
		r.regions[region] = append([]int(nil), indices...)
	}
	return r, nil
}

// Indices returns a copy of the index set for a region
func (r *Registry) Indices(region Region) []int {
	return append([]int(nil), r.regions[region]...)
}

// Anchor returns the representative index of a region
func (r *Registry) Anchor(region Region) (int, bool) {
	indices := r.regions[region]
	if len(indices) == 0 {
		return 0, false
	}
	return indices[0], true
}

// MaxIndex returns the highest index referenced by any region except the iris
// sets, which are optional.
func (r *Registry) MaxIndex() int {
	maxIdx := 0
	for region, indices := range r.regions {
		if region == LeftIris || region == RightIris {
			continue
		}
		for _, idx := range indices {
			if idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	return maxIdx
}
