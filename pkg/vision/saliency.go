// Package vision estimates subject confidence from image content alone. It
// is a fallback segmenter for images that come without a segmentation mask:
// edge energy, brightness and a centered prior are combined into a
// low-resolution confidence map.
package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/portrait-fx/pkg/mask"
)

// ErrNilImage is returned when there is no image to segment
var ErrNilImage = errors.New("vision: nil or empty image")

// Config holds configuration for saliency segmentation. MaxSide bounds the
// longer side of the working resolution, CenterSigma is the spread of the
// centered prior in normalized units and Smoothing is the blur sigma applied
// to the edge map, in working pixels.
type Config struct {
	MaxSide          int
	EdgeWeight       float64
	BrightnessWeight float64
	CenterWeight     float64
	CenterSigma      float64
	Smoothing        float64
}

// DefaultConfig returns the default saliency weights
func DefaultConfig() Config {
	return Config{
		MaxSide:          160,
		EdgeWeight:       0.5,
		BrightnessWeight: 0.1,
		CenterWeight:     0.4,
		CenterSigma:      0.3,
		Smoothing:        2,
	}
}

// SaliencySegmenter produces confidence maps without a segmentation model
type SaliencySegmenter struct {
	config Config
}

// New creates a SaliencySegmenter with default configuration
func New() *SaliencySegmenter {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a SaliencySegmenter with custom configuration
func NewWithConfig(config Config) *SaliencySegmenter {
	if config.MaxSide <= 0 {
		config.MaxSide = DefaultConfig().MaxSide
	}
	return &SaliencySegmenter{config: config}
}

var neighbors = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

// Segment returns a confidence map no larger than MaxSide on either side,
// normalized so the most salient pixel is 1
func (s *SaliencySegmenter) Segment(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNilImage
	}

	small := imaging.Fit(img, s.config.MaxSide, s.config.MaxSide, imaging.Box)
	width, height := small.Bounds().Dx(), small.Bounds().Dy()

	edges, err := s.edgeMap(ctx, small)
	if err != nil {
		return nil, err
	}

	values := make([]float32, width*height)
	sigma2 := 2 * s.config.CenterSigma * s.config.CenterSigma
	var maxV float64
	for y := 0; y < height; y++ {
		if y%16 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		dy := (float64(y)+0.5)/float64(height) - 0.5
		for x := 0; x < width; x++ {
			dx := (float64(x)+0.5)/float64(width) - 0.5
			var prior float64
			if sigma2 > 0 {
				prior = math.Exp(-(dx*dx + dy*dy) / sigma2)
			}

			i := small.PixOffset(x, y)
			brightness := (float64(small.Pix[i]) + float64(small.Pix[i+1]) + float64(small.Pix[i+2])) / (3 * 255)
			edge := float64(edges.Pix[edges.PixOffset(x, y)]) / 255

			v := s.config.EdgeWeight*edge + s.config.BrightnessWeight*brightness + s.config.CenterWeight*prior
			values[y*width+x] = float32(v)
			maxV = math.Max(maxV, v)
		}
	}

	if maxV > 0 {
		for i := range values {
			values[i] = float32(math.Min(1, float64(values[i])/maxV))
		}
	}

	cm, err := mask.NewConfidenceMap(width, height, values)
	if err != nil {
		return nil, fmt.Errorf("failed to build confidence map: %w", err)
	}
	return cm, nil
}

// edgeMap measures the mean color distance of each pixel to its eight
// neighbors, rescaled so the strongest edge is 255 and then blurred
func (s *SaliencySegmenter) edgeMap(ctx context.Context, img *image.NRGBA) (*image.NRGBA, error) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	raw := make([]float64, width*height)
	var maxEdge float64

	for y := 0; y < height; y++ {
		if y%16 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := 0; x < width; x++ {
			i := img.PixOffset(x, y)
			r1, g1, b1 := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])

			var strength float64
			for _, off := range neighbors {
				nx, ny := clampIndex(x+off[0], width), clampIndex(y+off[1], height)
				j := img.PixOffset(nx, ny)
				dr := r1 - float64(img.Pix[j])
				dg := g1 - float64(img.Pix[j+1])
				db := b1 - float64(img.Pix[j+2])
				strength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			strength /= 8 * math.Sqrt(3) * 255

			raw[y*width+x] = strength
			maxEdge = math.Max(maxEdge, strength)
		}
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	if maxEdge > 0 {
		for i, v := range raw {
			gray.Pix[i] = uint8(math.Round(v / maxEdge * 255))
		}
	}

	if s.config.Smoothing > 0 {
		return imaging.Blur(gray, s.config.Smoothing), nil
	}
	return imaging.Clone(gray), nil
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
