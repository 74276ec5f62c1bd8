// Package portraitfx provides face warping and mask-based portrait effects.
//
// Two pixel engines do the work. The warp engine places control points on a
// detected face (cheeks, eyes, chin) and remaps every pixel through them to
// slim the face and enlarge the eyes. The compositing engine blends a subject
// over an alternate background through a segmentation confidence mask:
// background blur, band gradient blur, color pop, background replacement and
// edge glow.
//
// Landmark detection and segmentation are external: callers supply a
// client.LandmarkDetector and a client.Segmenter, or pass their outputs in
// directly.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		portraitfx "github.com/menta2k/portrait-fx"
//		"github.com/menta2k/portrait-fx/pkg/warp"
//	)
//
//	func main() {
//		editor := portraitfx.New()
//
//		img, err := editor.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		lms, err := editor.LoadLandmarks("photo.landmarks.json")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		out, err := editor.Beautify(context.Background(), img, lms, warp.DefaultIntensities())
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := editor.SaveImage(out, "photo_fx.jpg", "jpg", 90); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package is organized as:
//
//  1. Landmarks (pkg/landmarks): face mesh regions and derived geometry
//  2. Warp (pkg/warp): warp point generation and per-pixel evaluation
//  3. Mask (pkg/mask): confidence maps and binary, soft and alpha masks
//  4. Composite (pkg/composite): mask blends and the compositing effects
//  5. Effects (pkg/effects): named effects run in a cancellable session
//
// For interactive use, create an effects.Session with NewSession: it caches
// the landmarks and confidence map of the current image and cancels the
// running job whenever a new effect is requested.
package portraitfx

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/menta2k/portrait-fx/internal/sources"
	"github.com/menta2k/portrait-fx/internal/utils"
	"github.com/menta2k/portrait-fx/pkg/analyzer"
	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/composite"
	"github.com/menta2k/portrait-fx/pkg/effects"
	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/processing"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

// Version of the portrait-fx library
const Version = "1.0.0"

// Editor provides a high-level interface over the warp and compositing engines
type Editor struct {
	config     effects.Config
	analyzer   *analyzer.ImageAnalyzer
	processor  *processing.Processor
	generator  *warp.Generator
	evaluator  *warp.Evaluator
	compositor *composite.Compositor
	fallback   client.Segmenter
}

// New creates a new Editor with default configuration
func New() *Editor {
	return NewWithConfig(effects.DefaultConfig())
}

// NewWithConfig creates a new Editor with custom configuration
func NewWithConfig(config effects.Config) *Editor {
	return &Editor{
		config:     config,
		analyzer:   analyzer.New(),
		processor:  processing.NewProcessor(),
		generator:  warp.NewGeneratorWithConfig(config.Generator, nil),
		evaluator:  warp.NewEvaluatorWithConfig(config.Evaluator),
		compositor: composite.NewWithConfig(config.Compositor),
	}
}

// Config returns the editor configuration
func (e *Editor) Config() effects.Config {
	return e.config
}

// SetFallbackSegmenter sets the segmenter ProcessImageFile uses for images
// without a mask sidecar, such as vision.New(). nil restores the default of
// failing mask effects on those images.
func (e *Editor) SetFallbackSegmenter(s client.Segmenter) {
	e.fallback = s
}

// LoadImage loads an image from file (jpg, png, webp)
func (e *Editor) LoadImage(path string) (image.Image, error) {
	return e.processor.LoadImage(path)
}

// SaveImage saves an image in the given format
func (e *Editor) SaveImage(img image.Image, path, format string, quality int) error {
	return e.processor.SaveImage(img, path, format, quality, false)
}

// LoadLandmarks reads landmarks from a JSON file
func (e *Editor) LoadLandmarks(path string) ([]landmarks.Landmark, error) {
	return e.processor.LoadLandmarks(path)
}

// LoadConfidenceMap reads a confidence map from a grayscale image file
func (e *Editor) LoadConfidenceMap(path string) (*mask.ConfidenceMap, error) {
	return e.processor.LoadConfidenceMap(path)
}

// GetImageInfo returns basic information about an image
func (e *Editor) GetImageInfo(img image.Image) analyzer.ImageInfo {
	return e.analyzer.GetImageInfo(img)
}

// ValidateImage checks if an image meets the size requirements
func (e *Editor) ValidateImage(img image.Image) error {
	return e.analyzer.ValidateImage(img)
}

// AnalyzeFace describes the face described by lms in img
func (e *Editor) AnalyzeFace(img image.Image, lms []landmarks.Landmark) analyzer.FaceInfo {
	return e.analyzer.AnalyzeFace(img, lms)
}

// GenerateWarpPoints places warp points on a face. Fewer than 468 landmarks
// yield an empty set with HasFace false.
func (e *Editor) GenerateWarpPoints(lms []landmarks.Landmark) (warp.PointSet, error) {
	return e.generator.Generate(lms)
}

// EvaluateWarp remaps img through the warp points
func (e *Editor) EvaluateWarp(ctx context.Context, img image.Image, set warp.PointSet, intensities warp.Intensities) (*image.NRGBA, error) {
	return e.evaluator.Evaluate(ctx, img, set, intensities)
}

// Beautify generates warp points from lms and applies them to img. Landmarks
// that yield no usable face geometry leave img unchanged, as in a Session.
func (e *Editor) Beautify(ctx context.Context, img image.Image, lms []landmarks.Landmark, intensities warp.Intensities) (*image.NRGBA, error) {
	set, err := e.GenerateWarpPoints(lms)
	if err != nil {
		set = warp.PointSet{}
	}
	return e.EvaluateWarp(ctx, img, set, intensities)
}

// BuildMask converts a confidence map using the configured threshold
func (e *Editor) BuildMask(cm *mask.ConfidenceMap, kind mask.Kind) (*mask.Mask, error) {
	return mask.Build(cm, kind, e.config.Mask)
}

// BuildMaskWithThreshold converts a confidence map with an explicit binary
// threshold
func (e *Editor) BuildMaskWithThreshold(cm *mask.ConfidenceMap, kind mask.Kind, threshold float32) (*mask.Mask, error) {
	opts := e.config.Mask
	opts.Threshold = threshold
	return mask.Build(cm, kind, opts)
}

// Composite blends fg over bg through m
func (e *Editor) Composite(ctx context.Context, fg, bg image.Image, m *mask.Mask, mode composite.Mode) (*image.NRGBA, error) {
	return e.compositor.Composite(ctx, fg, bg, m, mode)
}

// NewSession creates an editing session sharing the editor configuration
func (e *Editor) NewSession(detector client.LandmarkDetector, segmenter client.Segmenter, opts ...effects.Option) *effects.Session {
	opts = append([]effects.Option{effects.WithConfig(e.config)}, opts...)
	return effects.NewSession(detector, segmenter, opts...)
}

// ProcessImageFile applies effect to one image file, reading landmarks and
// mask from the image's sidecar files, and writes the result to outputDir.
// It returns the output path and the job result.
func (e *Editor) ProcessImageFile(ctx context.Context, inputPath, outputDir string, req effects.Request, format string, quality int) (string, effects.Result, error) {
	img, err := e.LoadImage(inputPath)
	if err != nil {
		return "", effects.Result{}, fmt.Errorf("failed to load image: %w", err)
	}
	if err := e.ValidateImage(img); err != nil {
		return "", effects.Result{}, err
	}

	detector, segmenter := sources.Sidecars(inputPath, "", "")
	segmenter.Fallback = e.fallback
	session := e.NewSession(detector, segmenter)
	defer session.Close()

	if _, err := session.SetImage(img); err != nil {
		return "", effects.Result{}, err
	}
	res, err := session.Apply(ctx, req)
	if err != nil {
		return "", res, err
	}
	if res.State != effects.Success {
		return "", res, fmt.Errorf("%s on %s: %w", req.Effect, getBaseName(inputPath), res.Err)
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return "", res, fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := utils.GenerateOutputFilename(inputPath, outputDir, "", "_"+string(req.Effect), format)
	if err := e.SaveImage(res.Image, outPath, utils.GetFileExtension(outPath), quality); err != nil {
		return "", res, fmt.Errorf("failed to save %s: %w", outPath, err)
	}
	return outPath, res, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func getBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
