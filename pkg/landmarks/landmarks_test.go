package landmarks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/portrait-fx/internal/testutil"
	"github.com/menta2k/portrait-fx/pkg/landmarks"
)

func TestDefaultRegistry(t *testing.T) {
	r := landmarks.DefaultRegistry()

	tests := []struct {
		region landmarks.Region
		anchor int
	}{
		{landmarks.LeftCheek, 205},
		{landmarks.RightCheek, 425},
		{landmarks.LeftCheekAnchor, 234},
		{landmarks.RightCheekAnchor, 454},
		{landmarks.FaceCenter, 1},
		{landmarks.Chin, 152},
		{landmarks.LeftIris, 468},
		{landmarks.RightIris, 473},
	}
	for _, tt := range tests {
		t.Run(tt.region.String(), func(t *testing.T) {
			idx, ok := r.Anchor(tt.region)
			require.True(t, ok)
			assert.Equal(t, tt.anchor, idx)
		})
	}

	assert.Len(t, r.Indices(landmarks.LeftEye), 16)
	assert.Len(t, r.Indices(landmarks.RightIris), 5)
	assert.Equal(t, 466, r.MaxIndex(), "iris sets are optional")
}

func TestRegistryIndicesAreCopies(t *testing.T) {
	r := landmarks.DefaultRegistry()
	indices := r.Indices(landmarks.LeftEye)
	indices[0] = -1
	assert.Equal(t, 33, r.Indices(landmarks.LeftEye)[0])
}

func TestNewRegistry(t *testing.T) {
	r, err := landmarks.NewRegistry(map[landmarks.Region][]int{landmarks.Chin: {10, 11}})
	require.NoError(t, err)
	idx, ok := r.Anchor(landmarks.Chin)
	assert.True(t, ok)
	assert.Equal(t, 10, idx)

	_, ok = r.Anchor(landmarks.LeftEye)
	assert.False(t, ok)

	_, err = landmarks.NewRegistry(map[landmarks.Region][]int{landmarks.Chin: {}})
	assert.Error(t, err)
	_, err = landmarks.NewRegistry(map[landmarks.Region][]int{landmarks.Chin: {-3}})
	assert.Error(t, err)
}

func TestRegionString(t *testing.T) {
	assert.Equal(t, "left_cheek", landmarks.LeftCheek.String())
	assert.Equal(t, "region(99)", landmarks.Region(99).String())
}

func TestNewFace(t *testing.T) {
	_, ok := landmarks.NewFace(nil, nil)
	assert.False(t, ok)

	_, ok = landmarks.NewFace(testutil.SyntheticFace(0.3)[:100], nil)
	assert.False(t, ok)
	assert.False(t, landmarks.HasFace(testutil.SyntheticFace(0.3)[:467]))

	face, ok := landmarks.NewFace(testutil.SyntheticFaceWithoutIris(0.3), nil)
	require.True(t, ok)
	assert.Equal(t, 468, face.Len())
	assert.False(t, face.HasIris())

	wide, err := landmarks.NewRegistry(map[landmarks.Region][]int{landmarks.Chin: {470}})
	require.NoError(t, err)
	_, ok = landmarks.NewFace(testutil.SyntheticFaceWithoutIris(0.3), wide)
	assert.False(t, ok, "registry indices beyond the mesh")
}

func TestFaceGeometry(t *testing.T) {
	face, ok := landmarks.NewFace(testutil.SyntheticFace(0.4), nil)
	require.True(t, ok)
	assert.True(t, face.HasIris())

	assert.InDelta(t, 0.4, face.FaceWidth(), 1e-9)

	left := face.EyeCenter(landmarks.LeftEye)
	assert.InDelta(t, testutil.FaceCenterX-testutil.EyeOffsetX, left.X, 1e-9)
	assert.InDelta(t, testutil.EyeY, left.Y, 1e-9)

	chin := face.Point(landmarks.Chin)
	assert.InDelta(t, testutil.ChinY, chin.Y, 1e-9)

	box := face.Bounds()
	assert.InDelta(t, 0.3, box.X, 1e-9)
	assert.InDelta(t, testutil.EyeY-testutil.EyeContourRadius, box.Y, 1e-9)
	assert.InDelta(t, 0.4, box.W, 1e-9)
	assert.InDelta(t, testutil.ChinY-(testutil.EyeY-testutil.EyeContourRadius), box.H, 1e-9)
}

func TestEyeCenterWithoutIris(t *testing.T) {
	face, ok := landmarks.NewFace(testutil.SyntheticFaceWithoutIris(0.4), nil)
	require.True(t, ok)

	right := face.EyeCenter(landmarks.RightEye)
	assert.InDelta(t, testutil.FaceCenterX+testutil.EyeOffsetX, right.X, 1e-9)
	assert.InDelta(t, testutil.EyeY, right.Y, 1e-9)
}

func TestFaceCopiesLandmarks(t *testing.T) {
	lms := testutil.SyntheticFace(0.4)
	face, ok := landmarks.NewFace(lms, nil)
	require.True(t, ok)

	lms[152].Y = 0
	assert.InDelta(t, testutil.ChinY, face.Point(landmarks.Chin).Y, 1e-9)
}
