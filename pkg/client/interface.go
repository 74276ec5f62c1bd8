// Package client defines the external collaborators the editor consumes:
// a facial landmark detector and a portrait segmenter. Implementations may be
// slow; both calls take a context and should stop when it is cancelled.
package client

import (
	"context"
	"image"

	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/mask"
)

// LandmarkDetector locates facial landmarks in an image. An empty or short
// result means no face was found and is not an error.
type LandmarkDetector interface {
	DetectLandmarks(ctx context.Context, img image.Image) ([]landmarks.Landmark, error)
}

// Segmenter produces a per-pixel subject confidence map. The map may have a
// different resolution than the image.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error)
}

// DetectorFunc adapts a function to LandmarkDetector
type DetectorFunc func(ctx context.Context, img image.Image) ([]landmarks.Landmark, error)

// DetectLandmarks calls f
func (f DetectorFunc) DetectLandmarks(ctx context.Context, img image.Image) ([]landmarks.Landmark, error) {
	return f(ctx, img)
}

// SegmenterFunc adapts a function to Segmenter
type SegmenterFunc func(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error)

// Segment calls f
func (f SegmenterFunc) Segment(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error) {
	return f(ctx, img)
}
