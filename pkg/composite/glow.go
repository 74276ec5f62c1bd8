package composite

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/portrait-fx/pkg/mask"
)

// EdgeGlowLayer isolates the transition band of m: the blurred mask minus the
// mask itself, clamped to [0,255]. Levels under GlowNoiseThreshold are fully
// transparent; the rest carry glow at alpha equal to the level. A mask with
// no edges yields a fully transparent layer.
func (c *Compositor) EdgeGlowLayer(m *mask.Mask, glow color.NRGBA) (*image.NRGBA, error) {
	if m == nil || m.Image == nil {
		return nil, ErrNilImage
	}

	blurred := &mask.Mask{Kind: m.Kind, Image: imaging.Blur(m.Image, c.config.GlowRadius)}
	width, height := m.Width(), m.Height()
	layer := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			diff := int(blurred.Value(x, y)) - int(m.Value(x, y))
			if diff < max(int(c.config.GlowNoiseThreshold), 1) {
				continue
			}
			layer.SetNRGBA(x, y, color.NRGBA{R: glow.R, G: glow.G, B: glow.B, A: uint8(min(diff, 255))})
		}
	}
	return layer, nil
}

// EdgeGlow paints a glow of the given color around the subject outline and
// adds it onto img
func (c *Compositor) EdgeGlow(ctx context.Context, img image.Image, m *mask.Mask, glow color.NRGBA) (*image.NRGBA, error) {
	if img == nil || m == nil || m.Image == nil {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	layer, err := c.EdgeGlowLayer(m.Resize(b.Dx(), b.Dy()), glow)
	if err != nil {
		return nil, err
	}
	return c.Composite(ctx, layer, img, &mask.Mask{Kind: mask.Alpha, Image: layer}, Additive)
}
