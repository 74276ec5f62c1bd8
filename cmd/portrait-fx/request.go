package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/portrait-fx/internal/config"
	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/effects"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/vision"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

// requestFlags are the effect options shared by apply and batch
type requestFlags struct {
	Effect     string
	Slim       float64
	Eye        float64
	Chin       float64
	MaskKind   string
	Background string
	Glow       string
	Format     string
	Quality    int
	Saliency   bool
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Effect, "effect", "e", string(effects.FullBeauty), fmt.Sprintf("Effect to apply: %v", effects.Effects()))
	cmd.Flags().Float64Var(&f.Slim, "slim", 1, "Face slimming intensity (0-1)")
	cmd.Flags().Float64Var(&f.Eye, "eye", 1, "Eye enlargement intensity (0-1)")
	cmd.Flags().Float64Var(&f.Chin, "chin", 1, "Chin intensity (0-1)")
	cmd.Flags().StringVar(&f.MaskKind, "mask-kind", "", "Mask representation: binary, soft, alpha (default from config)")
	cmd.Flags().StringVar(&f.Background, "background", "", "Background image for background-replace")
	cmd.Flags().StringVar(&f.Glow, "glow", "", "Edge glow color as hex, e.g. #ffcc00 (default from config)")
	cmd.Flags().StringVarP(&f.Format, "format", "f", "", "Output format: jpg, png, webp (default from config)")
	cmd.Flags().BoolVar(&f.Saliency, "saliency", false, "Estimate the mask from image content when no mask file exists")
	cmd.Flags().IntVarP(&f.Quality, "quality", "q", 0, "JPEG/WebP output quality 1-100 (default from config)")
}

// request builds an effect request, loading the background image if one is
// needed
func (f *requestFlags) request(c *config.Config) (effects.Request, error) {
	effect, err := effects.ParseEffect(f.Effect)
	if err != nil {
		return effects.Request{}, err
	}

	req := effects.NewRequest(effect)
	req.Intensities = warp.Intensities{Slim: f.Slim, Eye: f.Eye, Chin: f.Chin}.Clamp()

	req.MaskKind = c.MaskKind()
	if f.MaskKind != "" {
		if req.MaskKind, err = mask.ParseKind(f.MaskKind); err != nil {
			return effects.Request{}, err
		}
	}

	if f.Glow != "" {
		glow, err := config.ParseColor(f.Glow)
		if err != nil {
			return effects.Request{}, fmt.Errorf("invalid glow color %q: %w", f.Glow, err)
		}
		req.GlowColor = &glow
	}

	if f.Background != "" {
		bg, err := editor.LoadImage(f.Background)
		if err != nil {
			return effects.Request{}, fmt.Errorf("failed to load background: %w", err)
		}
		req.Background = bg
	} else if effect == effects.BackgroundReplace {
		return effects.Request{}, fmt.Errorf("%s requires --background", effect)
	}

	return req, nil
}

// fallback returns the segmenter used for images without a mask file
func (f *requestFlags) fallback() client.Segmenter {
	if !f.Saliency {
		return nil
	}
	return vision.New()
}

func (f *requestFlags) format(c *config.Config) string {
	if f.Format != "" {
		return f.Format
	}
	return c.Output.DefaultFormat
}

func (f *requestFlags) quality(c *config.Config) int {
	if f.Quality > 0 {
		return f.Quality
	}
	return c.Output.Quality
}
