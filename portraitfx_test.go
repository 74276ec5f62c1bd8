package portraitfx

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/internal/testutil"
	"github.com/menta2k/portrait-fx/pkg/composite"
	"github.com/menta2k/portrait-fx/pkg/effects"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/processing"
	"github.com/menta2k/portrait-fx/pkg/vision"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

func TestNew(t *testing.T) {
	editor := New()
	require.NotNil(t, editor)
	assert.NotNil(t, editor.analyzer)
	assert.NotNil(t, editor.processor)
	assert.NotNil(t, editor.generator)
	assert.NotNil(t, editor.evaluator)
	assert.NotNil(t, editor.compositor)
	assert.Equal(t, effects.DefaultConfig(), editor.Config())
}

func TestNewWithConfig(t *testing.T) {
	cfg := effects.DefaultConfig()
	cfg.Generator.CheekRadiusFactor = 0.25
	cfg.Mask.Threshold = 0.8

	editor := NewWithConfig(cfg)
	set, err := editor.GenerateWarpPoints(testutil.SyntheticFace(0.4))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, set.At(0).Radius, 1e-9)

	cm, err := mask.NewConfidenceMap(2, 1, []float32{0.9, 0.7})
	require.NoError(t, err)
	m, err := editor.BuildMask(cm, mask.Binary)
	require.NoError(t, err)
	assert.Equal(t, mask.Foreground, m.Value(0, 0))
	assert.Equal(t, mask.Background, m.Value(1, 0))
}

func TestGenerateWarpPoints(t *testing.T) {
	set, err := New().GenerateWarpPoints(testutil.SyntheticFace(0.30))
	require.NoError(t, err)
	assert.InDelta(t, 0.084, set.At(0).Radius, 1e-9)
	assert.InDelta(t, 0.039, set.At(2).Radius, 1e-9)

	set, err = New().GenerateWarpPoints(nil)
	require.NoError(t, err)
	assert.False(t, set.HasFace())
}

func TestBeautify(t *testing.T) {
	editor := New()
	img := testutil.GradientImage(120, 90)

	out, err := editor.Beautify(context.Background(), img, nil, warp.DefaultIntensities())
	require.NoError(t, err)
	assert.True(t, testutil.SameImage(img, out), "no face is identity")

	out, err = editor.Beautify(context.Background(), img, testutil.SyntheticFace(0.4), warp.DefaultIntensities())
	require.NoError(t, err)
	assert.False(t, testutil.SameImage(img, out))

	_, err = editor.GenerateWarpPoints(testutil.SyntheticFace(0))
	assert.ErrorIs(t, err, warp.ErrDegenerateFace)
	out, err = editor.Beautify(context.Background(), img, testutil.SyntheticFace(0), warp.DefaultIntensities())
	require.NoError(t, err)
	assert.True(t, testutil.SameImage(img, out), "degenerate face is identity")
}

func TestBuildMaskWithThreshold(t *testing.T) {
	cm, err := mask.NewConfidenceMap(4, 1, []float32{0.9, 0.5, 0.3, 0.1})
	require.NoError(t, err)

	m, err := New().BuildMaskWithThreshold(cm, mask.Binary, 0.5)
	require.NoError(t, err)
	got := []uint8{m.Value(0, 0), m.Value(1, 0), m.Value(2, 0), m.Value(3, 0)}
	assert.Equal(t, []uint8{255, 255, 0, 0}, got)

	soft, err := New().BuildMask(cm, mask.Soft)
	require.NoError(t, err)
	assert.Equal(t, uint8(128), soft.Value(1, 0))
}

func TestComposite(t *testing.T) {
	editor := New()
	fg := testutil.GradientImage(20, 20)
	bg := testutil.UniformImage(20, 20, color.NRGBA{B: 255, A: 255})
	cm, err := mask.NewConfidenceMap(20, 20, testutil.UniformConfidence(20, 20, 1))
	require.NoError(t, err)
	m, err := editor.BuildMask(cm, mask.Soft)
	require.NoError(t, err)

	out, err := editor.Composite(context.Background(), fg, bg, m, composite.Linear)
	require.NoError(t, err)
	assert.True(t, testutil.SameImage(fg, out))
}

func writeFixture(t *testing.T, dir string, withMask bool) string {
	t.Helper()
	p := processing.NewProcessor()
	imgPath := filepath.Join(dir, "portrait.png")
	require.NoError(t, p.SaveImage(testutil.GradientImage(96, 64), imgPath, "png", 90, false))
	require.NoError(t, p.SaveLandmarks(filepath.Join(dir, "portrait.landmarks.json"), testutil.SyntheticFace(0.4)))

	if withMask {
		cm, err := mask.NewConfidenceMap(48, 32, testutil.DiscConfidence(48, 32, 12))
		require.NoError(t, err)
		m, err := mask.Build(cm, mask.Soft, mask.DefaultOptions())
		require.NoError(t, err)
		require.NoError(t, p.SaveMask(m, filepath.Join(dir, "portrait.mask.png")))
	}
	return imgPath
}

func TestProcessImageFile(t *testing.T) {
	log.Init("error")
	dir := t.TempDir()
	input := writeFixture(t, dir, true)
	outDir := filepath.Join(dir, "out")

	outPath, res, err := New().ProcessImageFile(context.Background(), input, outDir, effects.NewRequest(effects.FullBeauty), "png", 90)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "portrait_full-beauty.png"), outPath)
	assert.Equal(t, effects.Success, res.State)
	assert.True(t, res.HasFace)

	_, err = os.Stat(outPath)
	assert.NoError(t, err)
}

func TestProcessImageFileWithoutMask(t *testing.T) {
	log.Init("error")
	dir := t.TempDir()
	input := writeFixture(t, dir, false)

	_, res, err := New().ProcessImageFile(context.Background(), input, filepath.Join(dir, "out"), effects.NewRequest(effects.ColorPop), "jpg", 90)
	assert.ErrorIs(t, err, effects.ErrSegmentation)
	assert.Equal(t, effects.Failure, res.State)

	outPath, _, err := New().ProcessImageFile(context.Background(), input, filepath.Join(dir, "out"), effects.NewRequest(effects.FaceBeauty), "", 90)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(outPath))

	editor := New()
	editor.SetFallbackSegmenter(vision.New())
	outPath, res, err = editor.ProcessImageFile(context.Background(), input, filepath.Join(dir, "out"), effects.NewRequest(effects.ColorPop), "jpg", 90)
	require.NoError(t, err)
	assert.Equal(t, effects.Success, res.State)
	assert.Equal(t, ".jpg", filepath.Ext(outPath))
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}

func TestGetBaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.jpg", "photo"},
		{"path/to/photo.jpg", "photo"},
		{"image", "image"},
		{"test.image.jpg", "test.image"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, getBaseName(test.input), "input %s", test.input)
	}
}

func BenchmarkBeautify(b *testing.B) {
	editor := New()
	img := testutil.GradientImage(1280, 720)
	lms := testutil.SyntheticFace(0.3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		editor.Beautify(context.Background(), img, lms, warp.DefaultIntensities())
	}
}
