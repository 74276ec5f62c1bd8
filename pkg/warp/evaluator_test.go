package warp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/portrait-fx/internal/testutil"
)

func faceSet(t *testing.T, faceWidth float64) PointSet {
	t.Helper()
	set, err := NewGenerator().Generate(testutil.SyntheticFace(faceWidth))
	require.NoError(t, err)
	return set
}

func TestEvaluateIdentity(t *testing.T) {
	img := testutil.GradientImage(640, 480)
	eval := NewEvaluator()

	tests := []struct {
		name        string
		set         PointSet
		intensities Intensities
	}{
		{name: "no face", set: PointSet{}, intensities: DefaultIntensities()},
		{name: "empty set", set: NewPointSet(), intensities: DefaultIntensities()},
		{name: "zero intensities", set: faceSet(t, 0.3), intensities: Intensities{}},
		{name: "negative intensities clamp to zero", set: faceSet(t, 0.3), intensities: Intensities{Slim: -1, Eye: -0.5, Chin: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := eval.Evaluate(context.Background(), img, tt.set, tt.intensities)
			require.NoError(t, err)
			assert.True(t, testutil.SameImage(img, out), "expected identity transform")
		})
	}
}

func TestEvaluateChangesPixelsWithFace(t *testing.T) {
	img := testutil.CheckerImage(200, 200, 8)
	out, err := NewEvaluator().Evaluate(context.Background(), img, faceSet(t, 0.4), DefaultIntensities())
	require.NoError(t, err)
	assert.False(t, testutil.SameImage(img, out))
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestEvaluateParallelMatchesSequential(t *testing.T) {
	img := testutil.GradientImage(160, 120)
	set := faceSet(t, 0.35)

	seq, err := NewEvaluatorWithConfig(EvaluatorConfig{PushStrength: 0.45, EdgeMargin: 0.001, Workers: 1}).
		Evaluate(context.Background(), img, set, DefaultIntensities())
	require.NoError(t, err)
	par, err := NewEvaluatorWithConfig(EvaluatorConfig{PushStrength: 0.45, EdgeMargin: 0.001, Workers: 4}).
		Evaluate(context.Background(), img, set, DefaultIntensities())
	require.NoError(t, err)

	assert.True(t, testutil.SameImage(seq, par))
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator().Evaluate(ctx, testutil.GradientImage(64, 64), faceSet(t, 0.3), DefaultIntensities())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnlargeAtCenterKeepsCoordinate(t *testing.T) {
	center := r2.Vec{X: 0.4, Y: 0.42}
	p := Point{Center: center, Radius: 0.039, Intensity: 1, Type: Enlarge}

	assert.Equal(t, center, enlarge(center, p, 1.0, 1.0))

	// Next to the center the weight is ~1, so the offset is scaled by 0.7.
	delta := 1e-7
	got := enlarge(r2.Vec{X: center.X + delta, Y: center.Y}, p, 1.0, 1.0)
	assert.InDelta(t, 0.7, (got.X-center.X)/delta, 1e-6)
}

func TestShrinkPushesOutward(t *testing.T) {
	center := r2.Vec{X: 0.5, Y: 0.5}
	p := Point{Center: center, Radius: 0.1, Type: Shrink}
	coord := r2.Vec{X: 0.52, Y: 0.5}

	got := shrink(coord, p, 1.0, 1.0)
	assert.Greater(t, got.X, coord.X)
	assert.Equal(t, coord.Y, got.Y)
}

func TestSphereFactor(t *testing.T) {
	center := r2.Vec{X: 0.5, Y: 0.5}
	p := Point{Center: center, Radius: 0.1, Type: Sphere}
	coord := r2.Vec{X: 0.56, Y: 0.5}

	got := sphere(coord, p, 1.0, 1.0)
	z := math.Sqrt(0.1*0.1 - 0.06*0.06)
	factor := (0.1 + z*0.5) / (0.1 + z)
	assert.InDelta(t, 0.5+0.06*factor, got.X, 1e-12)
}

func TestPushDisplacement(t *testing.T) {
	p := Point{
		Center:    r2.Vec{X: 0.5, Y: 0.5},
		Direction: r2.Vec{X: 1, Y: 0},
		Radius:    0.1,
		Type:      Push,
	}

	t.Run("at center", func(t *testing.T) {
		got := push(p.Center, p, 1.0, 1.0, 0.45)
		assert.InDelta(t, 0.5-1.0*0.1*1.0*0.45, got.X, 1e-12)
		assert.Equal(t, 0.5, got.Y)
	})

	t.Run("outside radius", func(t *testing.T) {
		coord := r2.Vec{X: 0.65, Y: 0.5}
		assert.Equal(t, coord, push(coord, p, 1.0, 1.0, 0.45))
	})

	t.Run("aspect divides the x displacement", func(t *testing.T) {
		got := push(p.Center, p, 1.0, 2.0, 0.45)
		assert.InDelta(t, 0.5-0.045/2, got.X, 1e-12)
	})
}

func TestRemapIsSequential(t *testing.T) {
	a := Point{Center: r2.Vec{X: 0.5, Y: 0.5}, Direction: r2.Vec{X: 1}, Radius: 0.2, Intensity: 1, Type: Push}
	b := Point{Center: r2.Vec{X: 0.45, Y: 0.5}, Radius: 0.2, Intensity: 1, Type: Enlarge, Group: GroupEye}

	set := NewPointSet()
	require.NoError(t, set.Add(a))
	require.NoError(t, set.Add(b))

	eval := NewEvaluator()
	coord := r2.Vec{X: 0.52, Y: 0.51}
	got := eval.Remap(coord, set, DefaultIntensities(), 1.0)

	want := enlarge(push(coord, a, 1, 1, 0.45), b, 1, 1)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
}

func TestRemapClampsToEdge(t *testing.T) {
	set := NewPointSet()
	require.NoError(t, set.Add(Point{Center: r2.Vec{X: 0.01, Y: 0.5}, Direction: r2.Vec{X: 1}, Radius: 0.2, Intensity: 1, Type: Push}))

	got := NewEvaluator().Remap(r2.Vec{X: 0.01, Y: 0.5}, set, DefaultIntensities(), 1.0)
	assert.Equal(t, 0.001, got.X)
}

func TestGroupMultiplierScalesIntensity(t *testing.T) {
	set := faceSet(t, 0.3)
	eye := set.At(2)
	coord := r2.Vec{X: eye.Center.X + eye.Radius/2, Y: eye.Center.Y}

	eval := NewEvaluator()
	onlySlim := eval.Remap(coord, set, Intensities{Slim: 1}, 1.0)
	withEye := eval.Remap(coord, set, Intensities{Slim: 1, Eye: 1}, 1.0)
	assert.NotEqual(t, onlySlim, withEye)
}

func TestClampIntensity(t *testing.T) {
	assert.Equal(t, 0.0, ClampIntensity(math.NaN()))
	assert.Equal(t, 0.0, ClampIntensity(-0.1))
	assert.Equal(t, 0.25, ClampIntensity(0.25))
	assert.Equal(t, 1.0, ClampIntensity(1.5))
}

func BenchmarkEvaluate(b *testing.B) {
	img := testutil.GradientImage(1280, 720)
	set, _ := NewGenerator().Generate(testutil.SyntheticFace(0.3))
	eval := NewEvaluator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eval.Evaluate(context.Background(), img, set, DefaultIntensities())
	}
}
