package effects

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

type job struct {
	id      string
	seq     uint64
	req     Request
	img     *image.NRGBA
	imageID string
}

func (s *Session) run(ctx context.Context, j job) Result {
	start := time.Now()
	logger := s.logger.With("job", j.id, "effect", string(j.req.Effect))
	logger.Debug("job started", "image", j.imageID)

	res := Result{JobID: j.id, Effect: j.req.Effect, State: Loading, seq: j.seq}
	img, err := s.render(ctx, j, &res)
	res.Timing.Total = time.Since(start)

	switch {
	case ctx.Err() != nil:
		res.State = Cancelled
		res.Err = ctx.Err()
		logger.Debug("job cancelled", "duration", res.Timing.Total)
	case err != nil:
		res.State = Failure
		res.Err = err
		logger.Warn("job failed", "error", err, "duration", res.Timing.Total)
	default:
		res.State = Success
		res.Image = img
		logger.Info("job finished",
			"duration", res.Timing.Total,
			"has_face", res.HasFace,
			"warp_points", res.Points.Len(),
		)
	}
	return res
}

func (s *Session) render(ctx context.Context, j job, res *Result) (*image.NRGBA, error) {
	req := j.req
	src := j.img

	if req.Effect.NeedsLandmarks() {
		warped, err := s.beautify(ctx, j, res)
		if err != nil {
			return nil, err
		}
		if !req.Effect.NeedsMask() {
			return warped, nil
		}
		src = warped
	}

	// Edge glow is defined on the hard subject outline.
	kind := req.MaskKind
	if req.Effect == EdgeGlow {
		kind = mask.Binary
	}

	started := time.Now()
	m, err := s.buildMask(ctx, j.imageID, j.img, kind)
	res.Timing.Segment = time.Since(started)
	if err != nil {
		return nil, err
	}

	started = time.Now()
	defer func() { res.Timing.Composite = time.Since(started) }()

	switch req.Effect {
	case BackgroundBlur, FullBeauty:
		return s.compositor.BackgroundBlur(ctx, src, m)
	case GradientBlur:
		return s.compositor.GradientBlur(ctx, src, m)
	case ColorPop:
		return s.compositor.ColorPop(ctx, src, m)
	case InverseColorPop:
		return s.compositor.InverseColorPop(ctx, src, m)
	case BackgroundReplace:
		return s.compositor.BackgroundReplace(ctx, src, req.Background, m)
	case EdgeGlow:
		glow := s.config.Compositor.GlowColor
		if req.GlowColor != nil {
			glow = *req.GlowColor
		}
		return s.compositor.EdgeGlow(ctx, src, m, glow)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, req.Effect)
}

// beautify warps the face. A failed detection or unusable geometry falls back
// to the no-face state, which leaves the image unchanged.
func (s *Session) beautify(ctx context.Context, j job, res *Result) (*image.NRGBA, error) {
	started := time.Now()
	lms, err := s.detect(ctx, j.imageID, j.img)
	res.Timing.Detect = time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("landmark detection failed, continuing without face", "job", j.id, "error", err)
		lms = nil
	}

	set, err := s.generator.Generate(lms)
	if err != nil {
		s.logger.Warn("no usable face geometry", "job", j.id, "error", err)
		set = warp.PointSet{}
	}
	res.HasFace = set.HasFace()
	res.Points = set

	started = time.Now()
	out, err := s.evaluator.Evaluate(ctx, j.img, set, j.req.Intensities.Clamp())
	res.Timing.Warp = time.Since(started)
	return out, err
}
