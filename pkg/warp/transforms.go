package warp

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	enlargeStrength = 0.3
	shrinkStrength  = 0.2
	sphereStrength  = 0.5
)

// aspectDistance returns |coord-center| with the x component scaled by the
// image aspect ratio, keeping the influence region circular on screen.
func aspectDistance(coord, center r2.Vec, aspect float64) float64 {
	d := r2.Sub(coord, center)
	d.X *= aspect
	return r2.Norm(d)
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Min(math.Max((x-edge0)/(edge1-edge0), 0), 1)
	return t * t * (3 - 2*t)
}

// push moves the sample coordinate backward along the point direction, which
// drags image content forward along it.
func push(coord r2.Vec, p Point, intensity, aspect, k float64) r2.Vec {
	dist := aspectDistance(coord, p.Center, aspect)
	if dist >= p.Radius {
		return coord
	}
	falloff := 1 - smoothstep(0, 1, dist/p.Radius)
	falloff *= falloff
	displacement := intensity * p.Radius * falloff * k
	return r2.Vec{
		X: coord.X - p.Direction.X/aspect*displacement,
		Y: coord.Y - p.Direction.Y*displacement,
	}
}

func radialWeight(dist, radius float64) float64 {
	t := dist / radius
	w := 1 - t*t
	return w * w
}

// enlarge pulls the sample coordinate toward the center, magnifying the region
func enlarge(coord r2.Vec, p Point, intensity, aspect float64) r2.Vec {
	dist := aspectDistance(coord, p.Center, aspect)
	if dist >= p.Radius {
		return coord
	}
	scale := 1 - intensity*radialWeight(dist, p.Radius)*enlargeStrength
	return r2.Add(p.Center, r2.Scale(scale, r2.Sub(coord, p.Center)))
}

// shrink pushes the sample coordinate away from the center
func shrink(coord r2.Vec, p Point, intensity, aspect float64) r2.Vec {
	dist := aspectDistance(coord, p.Center, aspect)
	if dist >= p.Radius {
		return coord
	}
	scale := 1 + intensity*radialWeight(dist, p.Radius)*shrinkStrength
	return r2.Add(p.Center, r2.Scale(scale, r2.Sub(coord, p.Center)))
}

// sphere projects the region onto a spherical cap
func sphere(coord r2.Vec, p Point, intensity, aspect float64) r2.Vec {
	dist := aspectDistance(coord, p.Center, aspect)
	if dist >= p.Radius {
		return coord
	}
	z := math.Sqrt(p.Radius*p.Radius - dist*dist)
	factor := (p.Radius + z*intensity*sphereStrength) / (p.Radius + z)
	return r2.Add(p.Center, r2.Scale(factor, r2.Sub(coord, p.Center)))
}

// apply dispatches on the point type
func apply(coord r2.Vec, p Point, intensity, aspect, k float64) r2.Vec {
	switch p.Type {
	case Push:
		return push(coord, p, intensity, aspect, k)
	case Enlarge:
		return enlarge(coord, p, intensity, aspect)
	case Shrink:
		return shrink(coord, p, intensity, aspect)
	case Sphere:
		return sphere(coord, p, intensity, aspect)
	default:
		return coord
	}
}
