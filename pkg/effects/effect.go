// Package effects turns the warp and compositing engines into named portrait
// effects run inside an editing session.
//
// A Session owns the current source image, its cached landmarks and
// confidence map, and at most one active job. Submitting a new request
// cancels the job in flight.
package effects

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

var (
	// ErrSegmentation wraps segmenter failures; mask effects cannot proceed
	ErrSegmentation = errors.New("effects: segmentation failed")
	// ErrNoImage is returned when a request is submitted before SetImage
	ErrNoImage = errors.New("effects: no source image")
	// ErrUnknownEffect is returned for an effect name the session does not know
	ErrUnknownEffect = errors.New("effects: unknown effect")
	// ErrNoBackground is returned for a background replacement without a background
	ErrNoBackground = errors.New("effects: background image required")
	// ErrSessionClosed is returned once Close has been called
	ErrSessionClosed = errors.New("effects: session closed")
)

// Effect names a portrait effect
type Effect string

const (
	FaceBeauty        Effect = "face-beauty"
	BackgroundBlur    Effect = "background-blur"
	GradientBlur      Effect = "gradient-blur"
	ColorPop          Effect = "color-pop"
	InverseColorPop   Effect = "inverse-color-pop"
	BackgroundReplace Effect = "background-replace"
	EdgeGlow          Effect = "edge-glow"
	FullBeauty        Effect = "full-beauty"
)

var allEffects = []Effect{
	FaceBeauty,
	BackgroundBlur,
	GradientBlur,
	ColorPop,
	InverseColorPop,
	BackgroundReplace,
	EdgeGlow,
	FullBeauty,
}

// Effects lists every supported effect
func Effects() []Effect {
	return append([]Effect(nil), allEffects...)
}

// ParseEffect validates an effect name
func ParseEffect(name string) (Effect, error) {
	for _, e := range allEffects {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// NeedsLandmarks reports whether the effect warps the face
func (e Effect) NeedsLandmarks() bool {
	return e == FaceBeauty || e == FullBeauty
}

// NeedsMask reports whether the effect depends on segmentation
func (e Effect) NeedsMask() bool {
	return e != FaceBeauty
}

// State is the lifecycle state of a job result
type State int

const (
	Loading State = iota
	Success
	Failure
	Cancelled
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request describes one effect invocation
type Request struct {
	Effect      Effect
	Intensities warp.Intensities
	// MaskKind is the mask representation used for blending
	MaskKind mask.Kind
	// Background is required for BackgroundReplace
	Background image.Image
	// GlowColor overrides the configured glow color when set
	GlowColor *color.NRGBA
}

// NewRequest returns a request for effect with full intensities and a soft mask
func NewRequest(effect Effect) Request {
	return Request{
		Effect:      effect,
		Intensities: warp.DefaultIntensities(),
		MaskKind:    mask.Soft,
	}
}

// Timing breaks a job down by stage
type Timing struct {
	Detect    time.Duration `json:"detect"`
	Segment   time.Duration `json:"segment"`
	Warp      time.Duration `json:"warp"`
	Composite time.Duration `json:"composite"`
	Total     time.Duration `json:"total"`
}

// Result is the outcome of one job
type Result struct {
	JobID   string
	Effect  Effect
	State   State
	Image   *image.NRGBA
	HasFace bool
	Points  warp.PointSet
	Err     error
	Timing  Timing

	seq uint64
}
