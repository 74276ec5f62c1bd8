package sources

import (
	"context"
	"image"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/portrait-fx/internal/testutil"
	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/processing"
)

var (
	_ client.LandmarkDetector = (*LandmarkFile)(nil)
	_ client.Segmenter        = (*MaskFile)(nil)
)

func TestSidecars(t *testing.T) {
	lf, mf := Sidecars(filepath.Join("in", "photo.jpg"), "", "")
	assert.Equal(t, filepath.Join("in", "photo.landmarks.json"), lf.Path)
	assert.Equal(t, filepath.Join("in", "photo.mask.png"), mf.Path)

	lf, mf = Sidecars("photo.jpg", "lm.json", "m.png")
	assert.Equal(t, "lm.json", lf.Path)
	assert.Equal(t, "m.png", mf.Path)
}

func TestLandmarkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.landmarks.json")
	img := testutil.GradientImage(4, 4)

	lms, err := NewLandmarkFile(path).DetectLandmarks(context.Background(), img)
	require.NoError(t, err)
	assert.Empty(t, lms, "missing file means no face")

	require.NoError(t, processing.NewProcessor().SaveLandmarks(path, testutil.SyntheticFace(0.3)))
	lms, err = NewLandmarkFile(path).DetectLandmarks(context.Background(), img)
	require.NoError(t, err)
	assert.Len(t, lms, 478)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLandmarkFile(path).DetectLandmarks(ctx, img)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaskFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mask.png")
	img := testutil.GradientImage(4, 4)

	_, err := NewMaskFile(path).Segment(context.Background(), img)
	assert.ErrorIs(t, err, ErrNoMaskFile)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	cm, err := mask.NewConfidenceMap(8, 4, testutil.SplitConfidence(8, 4))
	require.NoError(t, err)
	m, err := mask.Build(cm, mask.Soft, mask.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, processing.NewProcessor().SaveMask(m, path))

	fallback := NewMaskFile(filepath.Join(dir, "missing.mask.png"))
	fallback.Fallback = client.SegmenterFunc(func(ctx context.Context, img image.Image) (*mask.ConfidenceMap, error) {
		return mask.NewConfidenceMap(2, 2, testutil.UniformConfidence(2, 2, 0.25))
	})
	fromFallback, err := fallback.Segment(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), fromFallback.At(1, 1))

	loaded, err := NewMaskFile(path).Segment(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Width())
	assert.Equal(t, float32(1), loaded.At(0, 0))
	assert.Equal(t, float32(0), loaded.At(7, 0))
}
