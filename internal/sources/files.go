// Package sources satisfies the landmark detector and segmenter from files
// stored next to each image: <name>.landmarks.json and <name>.mask.png.
package sources

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"

	"github.com/menta2k/portrait-fx/internal/utils"
	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/processing"
)

// ErrNoMaskFile is returned when the mask sidecar of an image is missing
var ErrNoMaskFile = errors.New("sources: mask file not found")

// LandmarkFile reads landmarks from a JSON file. A missing file means no
// face was detected.
type LandmarkFile struct {
	Path      string
	processor *processing.Processor
}

// NewLandmarkFile creates a detector backed by path
func NewLandmarkFile(path string) *LandmarkFile {
	return &LandmarkFile{Path: path, processor: processing.NewProcessor()}
}

// DetectLandmarks loads the landmark file; img is not inspected
func (f *LandmarkFile) DetectLandmarks(ctx context.Context, img image.Image) ([]landmarks.Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utils.FileExists(f.Path) {
		return nil, nil
	}
	return f.processor.LoadLandmarks(f.Path)
}

// MaskFile reads a confidence map from a grayscale image file. When the file
// is missing and Fallback is set, the fallback segmenter runs instead.
type MaskFile struct {
	Path      string
	Fallback  client.Segmenter
	processor *processing.Processor
}

// NewMaskFile creates a segmenter backed by path
func NewMaskFile(path string) *MaskFile {
	return &MaskFile{Path: path, processor: processing.NewProcessor()}
}

// Segment loads the mask file; img is not inspected
func (f *MaskFile) Segment(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utils.FileExists(f.Path) {
		if f.Fallback != nil {
			return f.Fallback.Segment(ctx, img)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNoMaskFile, f.Path, fs.ErrNotExist)
	}
	return f.processor.LoadConfidenceMap(f.Path)
}

// Sidecars returns the landmark and mask files for imagePath. Explicit paths
// win over the sidecar naming convention.
func Sidecars(imagePath, landmarksPath, maskPath string) (*LandmarkFile, *MaskFile) {
	if landmarksPath == "" {
		landmarksPath = utils.SidecarPath(imagePath, "landmarks", "json")
	}
	if maskPath == "" {
		maskPath = utils.SidecarPath(imagePath, "mask", "png")
	}
	return NewLandmarkFile(landmarksPath), NewMaskFile(maskPath)
}
