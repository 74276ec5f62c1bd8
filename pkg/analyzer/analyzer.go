// Package analyzer checks source images before editing and summarizes their
// geometry and detected face.
package analyzer

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/types"
)

// ImageAnalyzer validates and describes source images
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
	MaxMegapixels    float64
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "webp"},
			MinImageSize:     32,
			MaxMegapixels:    64,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// LoadImage loads an image from file
func (a *ImageAnalyzer) LoadImage(filepath string) (image.Image, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return a.LoadImageFromReader(file)
}

// LoadImageFromReader loads an image from an io.Reader
func (a *ImageAnalyzer) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !a.isFormatSupported(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return img, nil
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
}

// Size returns the image dimensions
func (i ImageInfo) Size() types.Size {
	return types.Size{Width: i.Width, Height: i.Height}
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// FaceInfo summarizes a landmark set against its image
type FaceInfo struct {
	HasFace     bool            `json:"has_face"`
	HasIris     bool            `json:"has_iris"`
	Landmarks   int             `json:"landmarks"`
	FaceWidth   float64         `json:"face_width"`
	Bounds      types.Box       `json:"bounds"`
	PixelBounds image.Rectangle `json:"pixel_bounds"`
}

// AnalyzeFace describes the face found by lms in img. A short landmark set
// yields HasFace=false.
func (a *ImageAnalyzer) AnalyzeFace(img image.Image, lms []landmarks.Landmark) FaceInfo {
	info := FaceInfo{Landmarks: len(lms)}
	face, ok := landmarks.NewFace(lms, nil)
	if !ok {
		return info
	}

	b := img.Bounds()
	box := face.Bounds()
	info.HasFace = true
	info.HasIris = face.HasIris()
	info.FaceWidth = face.FaceWidth()
	info.Bounds = box
	info.PixelBounds = image.Rect(
		int(box.X*float64(b.Dx())+0.5),
		int(box.Y*float64(b.Dy())+0.5),
		int((box.X+box.W)*float64(b.Dx())+0.5),
		int((box.Y+box.H)*float64(b.Dy())+0.5),
	).Add(b.Min).Intersect(b)
	return info
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets the size requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	if a.config.MaxMegapixels > 0 {
		mp := float64(bounds.Dx()*bounds.Dy()) / 1e6
		if mp > a.config.MaxMegapixels {
			return fmt.Errorf("image too large: %.1f MP (maximum: %.1f MP)", mp, a.config.MaxMegapixels)
		}
	}
	return nil
}
