package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center of the box in normalized coordinates
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Empty reports whether the box has no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Size is the pixel size of a buffer
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AspectRatio returns width divided by height, or 1 for a degenerate size
func (s Size) AspectRatio() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	return float64(s.Width) / float64(s.Height)
}

// Equal reports whether both sizes match
func (s Size) Equal(o Size) bool {
	return s.Width == o.Width && s.Height == o.Height
}
