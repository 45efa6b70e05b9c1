package core

import (
	"image/color"
	"math"
)

// RotationStep is how far every shape turns about each axis per frame, in radians.
const RotationStep = 0.01

// nearPlane is the closest distance to the camera a point is still drawn at.
const nearPlane = 0.1

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Rotation holds the angles about the X and Y axes.
type Rotation struct {
	X, Y float64
}

// Apply rotates v about X, then about Y.
func (r Rotation) Apply(v Vec3) Vec3 {
	sx, cx := math.Sincos(r.X)
	y := v.Y*cx - v.Z*sx
	z := v.Y*sx + v.Z*cx
	v.Y, v.Z = y, z

	sy, cy := math.Sincos(r.Y)
	x := v.X*cy + v.Z*sy
	z = -v.X*sy + v.Z*cy
	v.X, v.Z = x, z
	return v
}

type Segment struct {
	A, B Vec3
}

// Shape is a wireframe in model space plus its pose in the scene.
type Shape struct {
	Name     string
	Color    color.NRGBA
	Position Vec3
	Rotation Rotation
	Edges    []Segment
}

// NewCube builds the 12 edges of a cube with the given side length.
func NewCube(size float64, position Vec3) *Shape {
	h := size / 2
	var corners []Vec3
	for _, x := range []float64{-h, h} {
		for _, y := range []float64{-h, h} {
			for _, z := range []float64{-h, h} {
				corners = append(corners, Vec3{x, y, z})
			}
		}
	}

	var edges []Segment
	for i := range corners {
		for j := i + 1; j < len(corners); j++ {
			a, b := corners[i], corners[j]
			diff := 0
			if a.X != b.X {
				diff++
			}
			if a.Y != b.Y {
				diff++
			}
			if a.Z != b.Z {
				diff++
			}
			if diff == 1 {
				edges = append(edges, Segment{a, b})
			}
		}
	}

	return &Shape{Name: "cube", Position: position, Edges: edges}
}

// NewSphere approximates a sphere with rings-1 circles of latitude and
// segments/2 meridians, each circle split into segments pieces.
func NewSphere(radius float64, rings, segments int, position Vec3) *Shape {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}

	point := func(lat, lon float64) Vec3 {
		return Vec3{
			X: radius * math.Sin(lat) * math.Cos(lon),
			Y: radius * math.Cos(lat),
			Z: radius * math.Sin(lat) * math.Sin(lon),
		}
	}

	var edges []Segment
	for i := 1; i < rings; i++ {
		lat := math.Pi * float64(i) / float64(rings)
		for j := 0; j < segments; j++ {
			lon0 := 2 * math.Pi * float64(j) / float64(segments)
			lon1 := 2 * math.Pi * float64(j+1) / float64(segments)
			edges = append(edges, Segment{point(lat, lon0), point(lat, lon1)})
		}
	}

	meridians := segments / 2
	for m := 0; m < meridians; m++ {
		lon := 2 * math.Pi * float64(m) / float64(meridians)
		for i := 0; i < rings; i++ {
			lat0 := math.Pi * float64(i) / float64(rings)
			lat1 := math.Pi * float64(i+1) / float64(rings)
			edges = append(edges, Segment{point(lat0, lon), point(lat1, lon)})
		}
	}

	return &Shape{Name: "sphere", Position: position, Edges: edges}
}

// WorldEdges returns the edges rotated and moved into place.
func (s *Shape) WorldEdges() []Segment {
	out := make([]Segment, len(s.Edges))
	for i, e := range s.Edges {
		out[i] = Segment{
			A: s.Rotation.Apply(e.A).Add(s.Position),
			B: s.Rotation.Apply(e.B).Add(s.Position),
		}
	}
	return out
}

// Camera looks down -Z from (0, 0, Z). FOV is the vertical field of view in degrees.
type Camera struct {
	Z   float64
	FOV float64
}

// Project maps v onto a width x height viewport. ok is false when v is too
// close to or behind the camera.
func (c Camera) Project(v Vec3, width, height float64) (x, y float64, ok bool) {
	depth := c.Z - v.Z
	if depth < nearPlane {
		return 0, 0, false
	}
	focal := (height / 2) / math.Tan(c.FOV*math.Pi/360)
	x = width/2 + v.X*focal/depth
	y = height/2 - v.Y*focal/depth
	return x, y, true
}

// Scene is the decorative backdrop of the login screen.
type Scene struct {
	Camera Camera
	Shapes []*Shape
}

// NewDefaultScene returns the pink cube and blue sphere backdrop.
func NewDefaultScene() *Scene {
	cube := NewCube(2, Vec3{})
	cube.Color = color.NRGBA{R: 0xff, G: 0x69, B: 0xb4, A: 0xff}

	sphere := NewSphere(1.5, 8, 16, Vec3{X: 3})
	sphere.Color = color.NRGBA{R: 0xad, G: 0xd8, B: 0xe6, A: 0xff}

	return &Scene{
		Camera: Camera{Z: 5, FOV: 75},
		Shapes: []*Shape{cube, sphere},
	}
}

// Step advances the animation by one frame.
func (s *Scene) Step() {
	for _, shape := range s.Shapes {
		shape.Rotation.X += RotationStep
		shape.Rotation.Y += RotationStep
	}
}

// EdgeCount is the total number of edges across all shapes.
func (s *Scene) EdgeCount() int {
	n := 0
	for _, shape := range s.Shapes {
		n += len(shape.Edges)
	}
	return n
}
