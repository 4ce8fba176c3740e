// Package view holds the small amount of 3D math the visualiser needs:
// instance transforms, a look-at camera for drawing, and the pointer ray
// used to paint onto a grid's local plane.
package view

import "github.com/chewxy/math32"

// Vec3 is a float32 3-vector.
type Vec3 [3]float32

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec3) Scale(s float32) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}
func (a Vec3) Dot(b Vec3) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Len() float32 { return math32.Sqrt(a.Dot(a)) }

// Normalize returns a unit vector, or the zero vector unchanged.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Transform places an instance in world space. Rotation holds Euler angles
// in radians applied in X, Y, Z order.
type Transform struct {
	Position Vec3
	Rotation Vec3
}

// rotate applies R = Rz*Ry*Rx to p.
func rotate(p, euler Vec3) Vec3 {
	sx, cx := math32.Sincos(euler[0])
	sy, cy := math32.Sincos(euler[1])
	sz, cz := math32.Sincos(euler[2])

	// X
	y := p[1]*cx - p[2]*sx
	z := p[1]*sx + p[2]*cx
	x := p[0]
	// Y
	x, z = x*cy+z*sy, -x*sy+z*cy
	// Z
	x, y = x*cz-y*sz, x*sz+y*cz
	return Vec3{x, y, z}
}

// unrotate applies the inverse of rotate.
func unrotate(p, euler Vec3) Vec3 {
	sx, cx := math32.Sincos(-euler[0])
	sy, cy := math32.Sincos(-euler[1])
	sz, cz := math32.Sincos(-euler[2])

	x, y, z := p[0], p[1], p[2]
	// Z
	x, y = x*cz-y*sz, x*sz+y*cz
	// Y
	x, z = x*cy+z*sy, -x*sy+z*cy
	// X
	y, z = y*cx-z*sx, y*sx+z*cx
	return Vec3{x, y, z}
}

// ToWorld maps a point from the instance's local frame into world space.
func (t Transform) ToWorld(p Vec3) Vec3 {
	return rotate(p, t.Rotation).Add(t.Position)
}

// ToLocal maps a world point into the instance's local frame.
func (t Transform) ToLocal(p Vec3) Vec3 {
	return unrotate(p.Sub(t.Position), t.Rotation)
}

// DirToLocal maps a world direction into the local frame (no translation).
func (t Transform) DirToLocal(d Vec3) Vec3 {
	return unrotate(d, t.Rotation)
}
