package vision

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/portrait-fx/internal/testutil"
	"github.com/menta2k/portrait-fx/pkg/client"
)

var _ client.Segmenter = (*SaliencySegmenter)(nil)

func TestNewWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSide = 0
	s := NewWithConfig(cfg)
	assert.Equal(t, DefaultConfig().MaxSide, s.config.MaxSide)
}

func TestSegmentUniformImageIsCenterPrior(t *testing.T) {
	img := testutil.UniformImage(300, 200, color.NRGBA{A: 255})

	cm, err := New().Segment(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 160, cm.Width())
	assert.LessOrEqual(t, cm.Height(), 107)

	center := cm.At(cm.Width()/2, cm.Height()/2)
	assert.Greater(t, center, float32(0.95))
	assert.Less(t, cm.At(0, 0), float32(0.3))
	assert.Less(t, cm.At(0, 0), center)
	for _, v := range cm.Values() {
		assert.True(t, v >= 0 && v <= 1)
	}
}

func TestSegmentFavorsEdges(t *testing.T) {
	img := testutil.UniformImage(160, 160, color.NRGBA{A: 255})
	for y := 60; y < 100; y++ {
		for x := 20; x < 60; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}

	cm, err := New().Segment(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 160, cm.Width())

	// (20,80) and (139,80) sit at the same distance from the center
	assert.Greater(t, cm.At(20, 80), cm.At(139, 80))
}

func TestSegmentErrors(t *testing.T) {
	_, err := New().Segment(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilImage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Segment(ctx, testutil.GradientImage(64, 64))
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkSegment(b *testing.B) {
	img := testutil.GradientImage(1280, 720)
	s := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Segment(context.Background(), img)
	}
}
