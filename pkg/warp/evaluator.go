// Package warp turns face landmarks into warp control points and remaps image
// coordinates around them to slim the face and enlarge the eyes.
//
// Points are applied in order for every output pixel: the coordinate produced
// by one point is the input of the next. The final coordinate is clamped into
// [0.001, 0.999] and the source image is sampled there bilinearly.
package warp

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/portrait-fx/internal/parallel"
)

// Intensities are global multipliers applied to point intensities at
// evaluation time
type Intensities struct {
	Slim float64 `json:"slim"`
	Eye  float64 `json:"eye"`
	Chin float64 `json:"chin"`
}

// DefaultIntensities returns full strength for every group
func DefaultIntensities() Intensities {
	return Intensities{Slim: 1, Eye: 1, Chin: 1}
}

// Clamp returns a copy with every multiplier clamped to [0,1]
func (in Intensities) Clamp() Intensities {
	return Intensities{
		Slim: ClampIntensity(in.Slim),
		Eye:  ClampIntensity(in.Eye),
		Chin: ClampIntensity(in.Chin),
	}
}

// Zero reports whether every multiplier is zero
func (in Intensities) Zero() bool {
	return in.Slim == 0 && in.Eye == 0 && in.Chin == 0
}

func (in Intensities) multiplier(g Group) float64 {
	switch g {
	case GroupSlim:
		return in.Slim
	case GroupEye:
		return in.Eye
	case GroupChin:
		return in.Chin
	default:
		return 0
	}
}

// ClampIntensity clamps an intensity into the accepted range [0,1]. NaN maps
// to 0.
func ClampIntensity(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EvaluatorConfig holds tuning for the per-pixel remap
type EvaluatorConfig struct {
	// PushStrength is the displacement constant k of push points
	PushStrength float64
	// EdgeMargin keeps final coordinates inside [EdgeMargin, 1-EdgeMargin]
	EdgeMargin float64
	// Workers is the number of row workers, 0 for one per CPU
	Workers int
}

// DefaultEvaluatorConfig returns the configuration used by NewEvaluator
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		PushStrength: 0.45,
		EdgeMargin:   0.001,
	}
}

// Evaluator applies a PointSet to images
type Evaluator struct {
	config EvaluatorConfig
}

// NewEvaluator creates an Evaluator with default configuration
func NewEvaluator() *Evaluator {
	return &Evaluator{config: DefaultEvaluatorConfig()}
}

// NewEvaluatorWithConfig creates an Evaluator with custom configuration
func NewEvaluatorWithConfig(config EvaluatorConfig) *Evaluator {
	return &Evaluator{config: config}
}

// active is a point with its effective intensity resolved
type active struct {
	Point
	intensity float64
}

// activePoints resolves effective intensities and drops points that would
// not move anything
func activePoints(set PointSet, intensities Intensities) []active {
	if !set.HasFace() {
		return nil
	}
	intensities = intensities.Clamp()
	out := make([]active, 0, set.Len())
	for _, p := range set.Points() {
		if p.Radius <= 0 {
			panic(fmt.Sprintf("warp: %s point with radius %g", p.Type, p.Radius))
		}
		eff := ClampIntensity(p.Intensity) * intensities.multiplier(p.Group)
		if eff == 0 {
			continue
		}
		out = append(out, active{Point: p, intensity: eff})
	}
	return out
}

// Remap returns the source coordinate sampled for the output coordinate
// coord. aspect is image width divided by height.
func (e *Evaluator) Remap(coord r2.Vec, set PointSet, intensities Intensities, aspect float64) r2.Vec {
	points := activePoints(set, intensities)
	if len(points) == 0 {
		return coord
	}
	return e.remap(coord, points, aspect)
}

func (e *Evaluator) remap(coord r2.Vec, points []active, aspect float64) r2.Vec {
	for _, p := range points {
		coord = apply(coord, p.Point, p.intensity, aspect, e.config.PushStrength)
	}
	lo, hi := e.config.EdgeMargin, 1-e.config.EdgeMargin
	coord.X = math.Min(math.Max(coord.X, lo), hi)
	coord.Y = math.Min(math.Max(coord.Y, lo), hi)
	return coord
}

// Evaluate warps img with the point set. Without a face, with no points or
// with every effective intensity at zero the result is an exact copy of img.
func (e *Evaluator) Evaluate(ctx context.Context, img image.Image, set PointSet, intensities Intensities) (*image.NRGBA, error) {
	src := imaging.Clone(img)
	points := activePoints(set, intensities)
	if len(points) == 0 {
		return src, nil
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return src, nil
	}
	aspect := float64(w) / float64(h)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	err := parallel.Rows(ctx, h, e.config.Workers, func(y int) {
		v := (float64(y) + 0.5) / float64(h)
		i := y * dst.Stride
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			c := e.remap(r2.Vec{X: u, Y: v}, points, aspect)
			px := sampleBilinear(src, c.X*float64(w)-0.5, c.Y*float64(h)-0.5)
			copy(dst.Pix[i:i+4], px[:])
			i += 4
		}
	})
	if err != nil {
		return nil, fmt.Errorf("warp evaluation cancelled: %w", err)
	}
	return dst, nil
}

// sampleBilinear reads src at fractional pixel coordinates, clamping to the
// border
func sampleBilinear(src *image.NRGBA, fx, fy float64) [4]uint8 {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clampIndex(x0+1, w)
	y1 := clampIndex(y0+1, h)
	x0 = clampIndex(x0, w)
	y0 = clampIndex(y0, h)

	i00 := y0*src.Stride + x0*4
	i10 := y0*src.Stride + x1*4
	i01 := y1*src.Stride + x0*4
	i11 := y1*src.Stride + x1*4

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-tx) + float64(src.Pix[i10+c])*tx
		bottom := float64(src.Pix[i01+c])*(1-tx) + float64(src.Pix[i11+c])*tx
		v := top*(1-ty) + bottom*ty
		out[c] = uint8(math.Min(math.Max(math.Round(v), 0), 255))
	}
	return out
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
