// Package composite blends a foreground and a background image through a
// per-pixel mask and builds the mask-driven portrait effects on top of it:
// background blur, band gradient blur, color pop, background replacement and
// edge glow.
package composite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/portrait-fx/internal/parallel"
	"github.com/menta2k/portrait-fx/pkg/mask"
)

// ErrNilImage is returned when a required image or mask is nil
var ErrNilImage = errors.New("composite: nil image")

// Mode selects how the mask weight combines foreground and background
type Mode int

const (
	// Linear: background*(1-w) + foreground*w
	Linear Mode = iota
	// Inverted: as Linear with the mask inverted (255 - level)
	Inverted
	// Additive: background + foreground*w, clamped per channel
	Additive
)

func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Inverted:
		return "inverted"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Config holds compositor settings
type Config struct {
	BlurRadius         float64 // gaussian sigma for the background blur
	GradientMaxBlur    float64 // sigma of the heaviest gradient band
	GlowRadius         float64 // sigma used to spread the mask edge
	GlowNoiseThreshold uint8   // glow levels below this are transparent
	GlowColor          color.NRGBA
	Workers            int // row workers, 0 means one per CPU
}

// DefaultConfig returns default compositor configuration
func DefaultConfig() Config {
	return Config{
		BlurRadius:         12,
		GradientMaxBlur:    20,
		GlowRadius:         8,
		GlowNoiseThreshold: 10,
		GlowColor:          color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Workers:            0,
	}
}

// Compositor runs mask-weighted blends
type Compositor struct {
	config Config
}

// New creates a compositor with default configuration
func New() *Compositor {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a compositor with custom configuration
func NewWithConfig(config Config) *Compositor {
	return &Compositor{config: config}
}

// Config returns the compositor configuration
func (c *Compositor) Config() Config {
	return c.config
}

// Blend mixes one pixel: bg*(1-w) + fg*w per channel, w clamped to [0,1]
func Blend(fg, bg color.NRGBA, w float64) color.NRGBA {
	w = clampWeight(w)
	return color.NRGBA{
		R: mix(fg.R, bg.R, w),
		G: mix(fg.G, bg.G, w),
		B: mix(fg.B, bg.B, w),
		A: mix(fg.A, bg.A, w),
	}
}

func mix(fg, bg uint8, w float64) uint8 {
	return uint8(math.Round(float64(bg)*(1-w) + float64(fg)*w))
}

func add(bg, fg uint8, w float64) uint8 {
	return uint8(math.Min(math.Round(float64(bg)+float64(fg)*w), 255))
}

func clampWeight(w float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Composite blends fg and bg through m. The output has the foreground's
// dimensions; a background or mask of another size is rescaled first.
func (c *Compositor) Composite(ctx context.Context, fg, bg image.Image, m *mask.Mask, mode Mode) (*image.NRGBA, error) {
	if fg == nil || bg == nil || m == nil || m.Image == nil {
		return nil, ErrNilImage
	}

	front := toNRGBA(fg)
	width, height := front.Rect.Dx(), front.Rect.Dy()
	back := Fit(bg, width, height)
	weights := m.Resize(width, height)

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := parallel.Rows(ctx, height, c.config.Workers, func(y int) {
		row := y * out.Stride
		for x := 0; x < width; x++ {
			i := row + x*4
			level := weights.Value(x, y)
			if mode == Inverted {
				level = mask.InvertValue(level)
			}
			w := float64(level) / 255

			f, b, d := front.Pix[i:i+4:i+4], back.Pix[i:i+4:i+4], out.Pix[i:i+4:i+4]
			if mode == Additive {
				d[0], d[1], d[2], d[3] = add(b[0], f[0], w), add(b[1], f[1], w), add(b[2], f[2], w), b[3]
				continue
			}
			d[0], d[1], d[2], d[3] = mix(f[0], b[0], w), mix(f[1], b[1], w), mix(f[2], b[2], w), mix(f[3], b[3], w)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("composite cancelled: %w", err)
	}
	return out, nil
}

// Fit returns img as an origin-anchored NRGBA of width x height, scaling it
// bilinearly when the size differs
func Fit(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return toNRGBA(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}

// toNRGBA returns img when it is a tightly packed, origin-anchored NRGBA and
// a packed copy otherwise
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	return imaging.Clone(img)
}
