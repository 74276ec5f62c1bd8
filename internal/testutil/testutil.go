// Package testutil provides shared fixtures for tests: synthetic face meshes,
// images and confidence values.
package testutil

import (
	"image"
	"image/color"
	"math"

	"github.com/menta2k/portrait-fx/pkg/landmarks"
)

// Face layout used by SyntheticFace. Eye contour points sit on a circle of
// EyeContourRadius around the eye centers.
const (
	FaceCenterX      = 0.5
	FaceCenterY      = 0.5
	EyeOffsetX       = 0.1
	EyeY             = 0.42
	EyeContourRadius = 0.02
	CheekY           = 0.58
	ChinY            = 0.8
)

var (
	leftEye  = []int{33, 7, 163, 144, 145, 153, 154, 155, 133, 173, 157, 158, 159, 160, 161, 246}
	rightEye = []int{362, 382, 381, 380, 374, 373, 390, 249, 263, 466, 388, 387, 386, 385, 384, 398}
)

// SyntheticFace returns a 478 point mesh whose cheek anchors are faceWidth
// apart, centered on the image.
func SyntheticFace(faceWidth float64) []landmarks.Landmark {
	lms := make([]landmarks.Landmark, landmarks.IrisLandmarkCount)
	for i := range lms {
		lms[i] = landmarks.Landmark{X: FaceCenterX, Y: FaceCenterY}
	}

	half := faceWidth / 2
	lms[234] = landmarks.Landmark{X: FaceCenterX - half, Y: FaceCenterY}
	lms[454] = landmarks.Landmark{X: FaceCenterX + half, Y: FaceCenterY}
	lms[205] = landmarks.Landmark{X: FaceCenterX - half*0.6, Y: CheekY}
	lms[425] = landmarks.Landmark{X: FaceCenterX + half*0.6, Y: CheekY}
	lms[1] = landmarks.Landmark{X: FaceCenterX, Y: FaceCenterY}
	lms[152] = landmarks.Landmark{X: FaceCenterX, Y: ChinY}

	placeEye(lms, leftEye, FaceCenterX-EyeOffsetX, EyeY)
	placeEye(lms, rightEye, FaceCenterX+EyeOffsetX, EyeY)
	for i := 468; i < 473; i++ {
		lms[i] = landmarks.Landmark{X: FaceCenterX - EyeOffsetX, Y: EyeY}
	}
	for i := 473; i < 478; i++ {
		lms[i] = landmarks.Landmark{X: FaceCenterX + EyeOffsetX, Y: EyeY}
	}
	return lms
}

// SyntheticFaceWithoutIris returns the 468 point variant of SyntheticFace
func SyntheticFaceWithoutIris(faceWidth float64) []landmarks.Landmark {
	return SyntheticFace(faceWidth)[:landmarks.MinFaceLandmarks]
}

func placeEye(lms []landmarks.Landmark, indices []int, cx, cy float64) {
	for i, idx := range indices {
		angle := 2 * math.Pi * float64(i) / float64(len(indices))
		lms[idx] = landmarks.Landmark{
			X: cx + EyeContourRadius*math.Cos(angle),
			Y: cy + EyeContourRadius*math.Sin(angle),
		}
	}
}

// GradientImage creates an opaque image with a horizontal red ramp and a
// vertical green ramp
func GradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / max(width-1, 1)),
				G: uint8((y * 255) / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// UniformImage creates an image filled with a single color
func UniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// CheckerImage creates a black and white checkerboard with the given cell size
func CheckerImage(width, height, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

// UniformConfidence returns width*height copies of v
func UniformConfidence(width, height int, v float32) []float32 {
	values := make([]float32, width*height)
	for i := range values {
		values[i] = v
	}
	return values
}

// SplitConfidence returns a map that is 1 on the left half and 0 on the right
func SplitConfidence(width, height int) []float32 {
	values := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width/2; x++ {
			values[y*width+x] = 1
		}
	}
	return values
}

// DiscConfidence returns a map that is 1 inside a centered disc of the given
// radius in pixels and 0 outside
func DiscConfidence(width, height int, radius float64) []float32 {
	values := make([]float32, width*height)
	cx, cy := float64(width)/2, float64(height)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= radius*radius {
				values[y*width+x] = 1
			}
		}
	}
	return values
}

// SameImage reports whether two NRGBA images have equal bounds and pixels
func SameImage(a, b *image.NRGBA) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}
