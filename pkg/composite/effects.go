package composite

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/portrait-fx/internal/parallel"
	"github.com/menta2k/portrait-fx/pkg/mask"
)

// BackgroundBlur keeps the subject sharp over a blurred copy of the image
func (c *Compositor) BackgroundBlur(ctx context.Context, img image.Image, m *mask.Mask) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	return c.Composite(ctx, img, imaging.Blur(img, c.config.BlurRadius), m, Linear)
}

// ColorPop keeps the subject in color over a grayscale background
func (c *Compositor) ColorPop(ctx context.Context, img image.Image, m *mask.Mask) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	return c.Composite(ctx, img, imaging.Grayscale(img), m, Linear)
}

// InverseColorPop desaturates the subject and keeps the background in color
func (c *Compositor) InverseColorPop(ctx context.Context, img image.Image, m *mask.Mask) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	return c.Composite(ctx, img, imaging.Grayscale(img), m, Inverted)
}

// BackgroundReplace places the subject over background, which is scaled to
// the image size
func (c *Compositor) BackgroundReplace(ctx context.Context, img, background image.Image, m *mask.Mask) (*image.NRGBA, error) {
	if img == nil || background == nil {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	return c.Composite(ctx, img, Fit(background, b.Dx(), b.Dy()), m, Linear)
}

// Band is a confidence interval of the gradient blur
type Band int

const (
	BandSharp  Band = iota // [0.7, 1]
	BandLight              // (0.4, 0.7]
	BandMedium             // (0.2, 0.4]
	BandHeavy              // [0, 0.2]
)

func (b Band) String() string {
	switch b {
	case BandSharp:
		return "sharp"
	case BandLight:
		return "light"
	case BandMedium:
		return "medium"
	case BandHeavy:
		return "heavy"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// BandFor returns the band holding confidence v and the position of v inside
// it, 0 at the band's lower edge and 1 at its upper edge. v is clamped to [0,1].
func BandFor(v float64) (Band, float64) {
	v = clampWeight(v)
	switch {
	case v >= 0.7:
		return BandSharp, 1
	case v > 0.4:
		return BandLight, (v - 0.4) / 0.3
	case v > 0.2:
		return BandMedium, (v - 0.2) / 0.2
	default:
		return BandHeavy, v / 0.2
	}
}

// GradientBlur blurs the image progressively with distance from the subject.
// Three blurred copies at 0.3, 0.6 and 1.0 of GradientMaxBlur are mixed by
// the band of each pixel's mask weight.
func (c *Compositor) GradientBlur(ctx context.Context, img image.Image, m *mask.Mask) (*image.NRGBA, error) {
	if img == nil || m == nil || m.Image == nil {
		return nil, ErrNilImage
	}

	orig := toNRGBA(img)
	width, height := orig.Rect.Dx(), orig.Rect.Dy()
	weights := m.Resize(width, height)

	maxBlur := c.config.GradientMaxBlur
	light := imaging.Blur(orig, maxBlur*0.3)
	medium := imaging.Blur(orig, maxBlur*0.6)
	heavy := imaging.Blur(orig, maxBlur)

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := parallel.Rows(ctx, height, c.config.Workers, func(y int) {
		for x := 0; x < width; x++ {
			band, t := BandFor(weights.Weight(x, y))
			var px color.NRGBA
			switch band {
			case BandSharp:
				px = orig.NRGBAAt(x, y)
			case BandLight:
				px = Blend(orig.NRGBAAt(x, y), light.NRGBAAt(x, y), t)
			case BandMedium:
				px = Blend(light.NRGBAAt(x, y), medium.NRGBAAt(x, y), t)
			default:
				px = Blend(medium.NRGBAAt(x, y), heavy.NRGBAAt(x, y), t)
			}
			out.SetNRGBA(x, y, px)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("gradient blur cancelled: %w", err)
	}
	return out, nil
}
