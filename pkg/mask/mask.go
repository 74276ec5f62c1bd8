// Package mask converts segmentation confidence maps into binary, soft and
// alpha mask images.
//
// Masks are derived views: building one never modifies the ConfidenceMap,
// and any mask can be rebuilt from the map at any time.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/tphakala/simd/f32"
)

// Kind selects the mask representation
type Kind int

const (
	// Binary masks hold 255 where confidence >= threshold, else 0
	Binary Kind = iota
	// Soft masks hold round(confidence*255) as a gray level
	Soft
	// Alpha masks hold round(confidence*255) in the alpha channel over a fixed color
	Alpha
)

func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Soft:
		return "soft"
	case Alpha:
		return "alpha"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "binary":
		return Binary, nil
	case "soft":
		return Soft, nil
	case "alpha":
		return Alpha, nil
	default:
		return 0, fmt.Errorf("unknown mask kind: %s", s)
	}
}

const (
	// Foreground is the binary mask level for subject pixels
	Foreground uint8 = 255
	// Background is the binary mask level for background pixels
	Background uint8 = 0
)

// Options controls mask generation
type Options struct {
	// Threshold is the binary cut: confidence >= Threshold is foreground
	Threshold float32
	// Color is the RGB used under an alpha mask
	Color color.NRGBA
}

// DefaultOptions returns a 0.5 threshold and a white alpha color
func DefaultOptions() Options {
	return Options{
		Threshold: 0.5,
		Color:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Mask is an 8-bit mask image with its representation
type Mask struct {
	Kind  Kind
	Image *image.NRGBA
}

// Width returns the mask width
func (m *Mask) Width() int {
	return m.Image.Bounds().Dx()
}

// Height returns the mask height
func (m *Mask) Height() int {
	return m.Image.Bounds().Dy()
}

// Value returns the mask level at (x, y): the gray level for binary and soft
// masks, the alpha for alpha masks
func (m *Mask) Value(x, y int) uint8 {
	i := y*m.Image.Stride + x*4
	if m.Kind == Alpha {
		return m.Image.Pix[i+3]
	}
	return m.Image.Pix[i]
}

// Weight returns the mask level at (x, y) normalized to [0,1]
func (m *Mask) Weight(x, y int) float64 {
	return float64(m.Value(x, y)) / 255
}

// Resize rescales the mask. Binary masks use nearest-neighbour sampling so
// they stay binary; the others are resampled bilinearly.
func (m *Mask) Resize(width, height int) *Mask {
	if m.Width() == width && m.Height() == height {
		return m
	}
	filter := imaging.Linear
	if m.Kind == Binary {
		filter = imaging.NearestNeighbor
	}
	return &Mask{Kind: m.Kind, Image: imaging.Resize(m.Image, width, height, filter)}
}

// Invert returns a new mask with every level replaced by 255 - level
func (m *Mask) Invert() *Mask {
	if m.Kind != Alpha {
		return &Mask{Kind: m.Kind, Image: imaging.Invert(m.Image)}
	}
	out := imaging.Clone(m.Image)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = InvertValue(out.Pix[i])
	}
	return &Mask{Kind: m.Kind, Image: out}
}

// InvertValue inverts one mask channel level
func InvertValue(v uint8) uint8 {
	return 255 - v
}

// BinaryValues thresholds the map: 1 where confidence >= threshold, else 0
func BinaryValues(c *ConfidenceMap, threshold float32) []uint8 {
	out := make([]uint8, c.width*c.height)
	for i, v := range c.values {
		if v >= threshold {
			out[i] = 1
		}
	}
	return out
}

// SoftValues returns round(confidence*255) for every pixel
func SoftValues(c *ConfidenceMap) []uint8 {
	out := make([]uint8, c.width*c.height)
	scaled := make([]float32, c.width)
	for y := 0; y < c.height; y++ {
		f32.Scale(scaled, c.Row(y), 255)
		row := out[y*c.width : (y+1)*c.width]
		for x, v := range scaled {
			row[x] = uint8(math.Min(math.Max(math.Round(float64(v)), 0), 255))
		}
	}
	return out
}

// Build creates a mask of the given kind at the confidence map resolution
func Build(c *ConfidenceMap, kind Kind, opts Options) (*Mask, error) {
	if c == nil || len(c.values) == 0 {
		return nil, ErrEmptyMap
	}

	img := image.NewNRGBA(image.Rect(0, 0, c.width, c.height))
	switch kind {
	case Binary:
		for i, b := range BinaryValues(c, opts.Threshold) {
			level := Background
			if b == 1 {
				level = Foreground
			}
			setGray(img.Pix[i*4:i*4+4], level)
		}
	case Soft:
		for i, level := range SoftValues(c) {
			setGray(img.Pix[i*4:i*4+4], level)
		}
	case Alpha:
		for i, level := range SoftValues(c) {
			px := img.Pix[i*4 : i*4+4]
			px[0], px[1], px[2], px[3] = opts.Color.R, opts.Color.G, opts.Color.B, level
		}
	default:
		return nil, fmt.Errorf("unsupported mask kind: %s", kind)
	}
	return &Mask{Kind: kind, Image: img}, nil
}

// BuildSized creates a mask and rescales it to width x height when the map
// resolution differs
func BuildSized(c *ConfidenceMap, kind Kind, opts Options, width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrEmptyMap, width, height)
	}
	m, err := Build(c, kind, opts)
	if err != nil {
		return nil, err
	}
	return m.Resize(width, height), nil
}

func setGray(px []uint8, level uint8) {
	px[0], px[1], px[2], px[3] = level, level, level, 255
}
