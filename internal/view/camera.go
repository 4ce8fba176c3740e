package view

import "github.com/chewxy/math32"

// Camera is a pinhole look-at camera over a Width x Height screen.
type Camera struct {
	Eye    Vec3
	Target Vec3
	Up     Vec3
	// FovY is the vertical field of view in radians.
	FovY   float32
	Width  int
	Height int
	Near   float32
}

// NewCamera returns the default framing: looking down at the origin from
// above and in front, similar to a three.js PerspectiveCamera(75) placed
// at (0, 12, 18).
func NewCamera(width, height int) Camera {
	return Camera{
		Eye:    Vec3{0, 12, 18},
		Target: Vec3{0, 0, 0},
		Up:     Vec3{0, 1, 0},
		FovY:   75 * math32.Pi / 180,
		Width:  width,
		Height: height,
		Near:   0.1,
	}
}

// basis returns the camera's right, up and forward unit vectors.
func (c Camera) basis() (right, up, forward Vec3) {
	forward = c.Target.Sub(c.Eye).Normalize()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

func (c Camera) focal() float32 {
	return float32(c.Height) / 2 / math32.Tan(c.FovY/2)
}

// Project maps a world point to screen pixels. ok is false for points
// behind the near plane. depth grows with distance from the eye.
func (c Camera) Project(p Vec3) (sx, sy, depth float32, ok bool) {
	right, up, forward := c.basis()
	d := p.Sub(c.Eye)
	z := d.Dot(forward)
	if z < c.Near {
		return 0, 0, z, false
	}
	f := c.focal()
	sx = float32(c.Width)/2 + d.Dot(right)*f/z
	sy = float32(c.Height)/2 - d.Dot(up)*f/z
	return sx, sy, z, true
}

// Ray is a half line from Origin along the unit vector Dir.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// Ray returns the world ray through screen pixel (sx, sy).
func (c Camera) Ray(sx, sy float32) Ray {
	right, up, forward := c.basis()
	f := c.focal()
	px := (sx - float32(c.Width)/2) / f
	py := (float32(c.Height)/2 - sy) / f
	dir := forward.Add(right.Scale(px)).Add(up.Scale(py)).Normalize()
	return Ray{Origin: c.Eye, Dir: dir}
}

// Orbit rotates the eye around the target by yaw radians about the up axis
// and raises it by pitch radians, keeping the distance.
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Eye.Sub(c.Target)
	dist := offset.Len()
	if dist == 0 {
		return
	}
	theta := math32.Atan2(offset[0], offset[2]) + yaw
	phi := math32.Asin(offset[1]/dist) + pitch
	const limit = 1.5
	if phi > limit {
		phi = limit
	} else if phi < -limit {
		phi = -limit
	}
	sp, cp := math32.Sincos(phi)
	st, ct := math32.Sincos(theta)
	c.Eye = c.Target.Add(Vec3{dist * cp * st, dist * sp, dist * cp * ct})
}

// Zoom scales the eye distance by factor, clamped to a sane range.
func (c *Camera) Zoom(factor float32) {
	offset := c.Eye.Sub(c.Target)
	dist := offset.Len() * factor
	if dist < 2 || dist > 200 {
		return
	}
	c.Eye = c.Target.Add(offset.Normalize().Scale(dist))
}

// PickPlane intersects r with the local y = 0 plane of t and returns the
// hit in local plane coordinates.
func PickPlane(r Ray, t Transform) (x, z float32, ok bool) {
	o := t.ToLocal(r.Origin)
	d := t.DirToLocal(r.Dir)
	if math32.Abs(d[1]) < 1e-6 {
		return 0, 0, false
	}
	s := -o[1] / d[1]
	if s < 0 {
		return 0, 0, false
	}
	return o[0] + d[0]*s, o[2] + d[2]*s, true
}
