package warp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/portrait-fx/internal/testutil"
	"github.com/menta2k/portrait-fx/pkg/landmarks"
)

const radiusTolerance = 1e-9

func TestGenerateRadiiScaleWithFaceWidth(t *testing.T) {
	set, err := NewGenerator().Generate(testutil.SyntheticFace(0.30))
	require.NoError(t, err)
	require.True(t, set.HasFace())
	require.Equal(t, 5, set.Len())

	for _, p := range set.Points() {
		switch {
		case p.Group == GroupSlim:
			assert.InDelta(t, 0.084, p.Radius, radiusTolerance)
			assert.Equal(t, Push, p.Type)
		case p.Group == GroupEye:
			assert.InDelta(t, 0.039, p.Radius, radiusTolerance)
			assert.Equal(t, Enlarge, p.Type)
		case p.Group == GroupChin:
			assert.InDelta(t, 0.045, p.Radius, radiusTolerance)
		}
	}
}

func TestGenerateNoFace(t *testing.T) {
	tests := []struct {
		name string
		lms  []landmarks.Landmark
	}{
		{name: "nil", lms: nil},
		{name: "empty", lms: []landmarks.Landmark{}},
		{name: "467 points", lms: testutil.SyntheticFace(0.3)[:467]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewGenerator().Generate(tt.lms)
			require.NoError(t, err)
			assert.False(t, set.HasFace())
			assert.Equal(t, 0, set.Len())
		})
	}
}

func TestGenerateCheekDirectionPointsToFaceCenter(t *testing.T) {
	set, err := NewGenerator().Generate(testutil.SyntheticFace(0.4))
	require.NoError(t, err)

	left, right := set.At(0), set.At(1)
	assert.Greater(t, left.Direction.X, 0.0, "left cheek should push toward +x")
	assert.Less(t, right.Direction.X, 0.0, "right cheek should push toward -x")
	assert.InDelta(t, 1.0, left.Direction.X*left.Direction.X+left.Direction.Y*left.Direction.Y, 1e-9)
}

func TestGenerateEyeCenters(t *testing.T) {
	t.Run("iris", func(t *testing.T) {
		set, err := NewGenerator().Generate(testutil.SyntheticFace(0.3))
		require.NoError(t, err)
		eye := set.At(2)
		assert.InDelta(t, testutil.FaceCenterX-testutil.EyeOffsetX, eye.Center.X, 1e-12)
		assert.InDelta(t, testutil.EyeY, eye.Center.Y, 1e-12)
	})

	t.Run("contour mean", func(t *testing.T) {
		set, err := NewGenerator().Generate(testutil.SyntheticFaceWithoutIris(0.3))
		require.NoError(t, err)
		eye := set.At(3)
		assert.InDelta(t, testutil.FaceCenterX+testutil.EyeOffsetX, eye.Center.X, 1e-9)
		assert.InDelta(t, testutil.EyeY, eye.Center.Y, 1e-9)
	})
}

func TestGenerateChinPoint(t *testing.T) {
	set, err := NewGenerator().Generate(testutil.SyntheticFace(0.3))
	require.NoError(t, err)

	chin := set.At(4)
	assert.Equal(t, GroupChin, chin.Group)
	assert.Equal(t, Push, chin.Type)
	assert.Equal(t, 0.5, chin.Intensity)
	assert.Equal(t, -1.0, chin.Direction.Y)
	assert.Equal(t, testutil.ChinY, chin.Center.Y)

	cfg := DefaultGeneratorConfig()
	cfg.IncludeChin = false
	set, err = NewGeneratorWithConfig(cfg, nil).Generate(testutil.SyntheticFace(0.3))
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())
}

func TestGenerateDegenerateFace(t *testing.T) {
	_, err := NewGenerator().Generate(testutil.SyntheticFace(0))
	assert.ErrorIs(t, err, ErrDegenerateFace)
}

func TestPointSetBounds(t *testing.T) {
	set := NewPointSet()
	for i := 0; i < MaxPoints; i++ {
		require.NoError(t, set.Add(Point{Radius: 0.1, Intensity: 1}))
	}
	assert.ErrorIs(t, set.Add(Point{Radius: 0.1}), ErrTooManyPoints)
	assert.Equal(t, MaxPoints, set.Len())
}

func TestPointSetRejectsNonPositiveRadius(t *testing.T) {
	set := NewPointSet()
	assert.ErrorIs(t, set.Add(Point{Radius: 0}), ErrInvalidRadius)
	assert.ErrorIs(t, set.Add(Point{Radius: -0.2}), ErrInvalidRadius)
	assert.Equal(t, 0, set.Len())
}

func TestPointSetClampsIntensity(t *testing.T) {
	set := NewPointSet()
	require.NoError(t, set.Add(Point{Radius: 0.1, Intensity: 1.5}))
	require.NoError(t, set.Add(Point{Radius: 0.1, Intensity: -2}))
	assert.Equal(t, 1.0, set.At(0).Intensity)
	assert.Equal(t, 0.0, set.At(1).Intensity)
}
