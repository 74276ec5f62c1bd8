package warp

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/portrait-fx/pkg/landmarks"
)

// GeneratorConfig holds the radius factors (relative to face width) and base
// intensities used to derive warp points from landmarks
type GeneratorConfig struct {
	CheekRadiusFactor float64
	EyeRadiusFactor   float64
	ChinRadiusFactor  float64
	SlimIntensity     float64
	EyeIntensity      float64
	ChinIntensity     float64
	IncludeChin       bool
}

// DefaultGeneratorConfig returns the factors used by New
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		CheekRadiusFactor: 0.28,
		EyeRadiusFactor:   0.13,
		ChinRadiusFactor:  0.15,
		SlimIntensity:     1.0,
		EyeIntensity:      1.0,
		ChinIntensity:     0.5,
		IncludeChin:       true,
	}
}

// Generator derives warp points from a face mesh
type Generator struct {
	config   GeneratorConfig
	registry *landmarks.Registry
}

// NewGenerator creates a Generator with the default registry and factors
func NewGenerator() *Generator {
	return &Generator{
		config:   DefaultGeneratorConfig(),
		registry: landmarks.DefaultRegistry(),
	}
}

// NewGeneratorWithConfig creates a Generator with custom factors. A nil
// registry selects the default one.
func NewGeneratorWithConfig(config GeneratorConfig, registry *landmarks.Registry) *Generator {
	if registry == nil {
		registry = landmarks.DefaultRegistry()
	}
	return &Generator{config: config, registry: registry}
}

// Config returns the generator configuration
func (g *Generator) Config() GeneratorConfig {
	return g.config
}

// Generate returns the warp points for a landmark list. Fewer than 468
// landmarks yield an empty set with HasFace false and no error.
func (g *Generator) Generate(lms []landmarks.Landmark) (PointSet, error) {
	face, ok := landmarks.NewFace(lms, g.registry)
	if !ok {
		return PointSet{}, nil
	}

	faceWidth := face.FaceWidth()
	if faceWidth <= 0 {
		return PointSet{}, ErrDegenerateFace
	}

	set := NewPointSet()
	center := vec(face.Point(landmarks.FaceCenter))

	for _, cheek := range []landmarks.Region{landmarks.LeftCheek, landmarks.RightCheek} {
		c := vec(face.Point(cheek))
		if err := set.Add(Point{
			Center:    c,
			Direction: unit(r2.Sub(center, c)),
			Radius:    faceWidth * g.config.CheekRadiusFactor,
			Intensity: g.config.SlimIntensity,
			Type:      Push,
			Group:     GroupSlim,
		}); err != nil {
			return PointSet{}, fmt.Errorf("%s point: %w", cheek, err)
		}
	}

	for _, eye := range []landmarks.Region{landmarks.LeftEye, landmarks.RightEye} {
		if err := set.Add(Point{
			Center:    vec(face.EyeCenter(eye)),
			Radius:    faceWidth * g.config.EyeRadiusFactor,
			Intensity: g.config.EyeIntensity,
			Type:      Enlarge,
			Group:     GroupEye,
		}); err != nil {
			return PointSet{}, fmt.Errorf("%s point: %w", eye, err)
		}
	}

	if g.config.IncludeChin {
		if err := set.Add(Point{
			Center:    vec(face.Point(landmarks.Chin)),
			Direction: r2.Vec{X: 0, Y: -1},
			Radius:    faceWidth * g.config.ChinRadiusFactor,
			Intensity: g.config.ChinIntensity,
			Type:      Push,
			Group:     GroupChin,
		}); err != nil {
			return PointSet{}, fmt.Errorf("chin point: %w", err)
		}
	}

	return set, nil
}

func vec(l landmarks.Landmark) r2.Vec {
	return r2.Vec{X: l.X, Y: l.Y}
}

// unit normalizes v, mapping the zero vector to itself
func unit(v r2.Vec) r2.Vec {
	if r2.Norm(v) == 0 {
		return r2.Vec{}
	}
	return r2.Unit(v)
}
