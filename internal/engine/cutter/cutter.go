package cutter

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Axis indices into UVW.
const (
	AxisU = 0
	AxisV = 1
	AxisW = 2
)

// Cutter is an oriented box with axes U, V, W. A world point p maps to
// box-local coordinates uvw[a] = Dot(p, dir[a]) - dist[a], which lie in
// [0,1] exactly when p is inside the box.
type Cutter struct {
	length   [3]float32   // Full edge length along U, V, W
	axis     [3]math.Vec3 // Unit axes
	dir      [3]math.Vec3 // axis / length
	dist     [3]float32
	position math.Vec3
	backDir  math.Vec3
	bounds   geometry.AABB

	// Scratch buffers reused across clip passes.
	bufA []Vert
	bufB []Vert
}

// New creates a unit cutter at the origin aligned with the world axes.
func New() *Cutter {
	c := &Cutter{
		length: [3]float32{1, 1, 1},
		axis:   [3]math.Vec3{math.UnitX, math.UnitY, math.UnitZ},
	}
	c.rebuild()
	return c
}

// SetLength sets the full box extents along U, V and W.
func (c *Cutter) SetLength(u, v, w float32) {
	c.length = [3]float32{u, v, w}
	c.rebuild()
}

// Length returns the full box extents along U, V and W.
func (c *Cutter) Length() (u, v, w float32) {
	return c.length[0], c.length[1], c.length[2]
}

// SetVolume centers the box at pos. W points against up (into the surface),
// V follows forward projected off up, and U completes the frame. flip
// mirrors U, used when the cutting direction is reversed such as left and
// right footprints.
func (c *Cutter) SetVolume(pos, forward, up math.Vec3, flip bool) {
	up = up.Normalize()
	w := up.Neg()
	v := forward.Sub(up.Scale(forward.Dot(up))).Normalize()
	if v.LengthSq() == 0 {
		v = anyPerpendicular(up)
	}
	u := w.Cross(v)
	if flip {
		u = u.Neg()
	}
	c.setAxes(pos, u, v, w)
}

// SetTransform takes the box frame from a local-to-world matrix laid out
// like SetVolume's arguments: column 0 is U, column 1 is V, column 2 is up
// and W points against it. The translation gives the center. Axis scale is
// ignored; extents come from SetLength.
func (c *Cutter) SetTransform(l2w math.Mat4) {
	c.setAxes(l2w.Translation(),
		l2w.Column(0).Normalize(),
		l2w.Column(1).Normalize(),
		l2w.Column(2).Normalize().Neg())
}

func (c *Cutter) setAxes(pos, u, v, w math.Vec3) {
	c.position = pos
	c.axis = [3]math.Vec3{u, v, w}
	c.rebuild()
}

func (c *Cutter) rebuild() {
	half := math.Vec3{}
	for a := 0; a < 3; a++ {
		c.dir[a] = c.axis[a].Scale(1 / c.length[a])
		c.dist[a] = c.position.Dot(c.dir[a]) - 0.5

		ext := c.axis[a].Scale(c.length[a] * 0.5)
		half = half.Add(math.Vec3{X: math32.Abs(ext.X), Y: math32.Abs(ext.Y), Z: math32.Abs(ext.Z)})
	}
	c.backDir = c.axis[AxisW].Neg()
	c.bounds = geometry.AABB{Min: c.position.Sub(half), Max: c.position.Add(half)}
}

// Position returns the box center.
func (c *Cutter) Position() math.Vec3 { return c.position }

// Axis returns the unit direction of axis a.
func (c *Cutter) Axis(a int) math.Vec3 { return c.axis[a] }

// BackDir returns the direction pointing out of the cut surface, -W. It is
// the up axis constant heights are measured along.
func (c *Cutter) BackDir() math.Vec3 { return c.backDir }

// WorldBounds returns the world AABB enclosing the box.
func (c *Cutter) WorldBounds() geometry.AABB { return c.bounds }

// UVW maps a world point into box-local coordinates.
func (c *Cutter) UVW(p math.Vec3) math.Vec3 {
	return math.Vec3{
		X: p.Dot(c.dir[AxisU]) - c.dist[AxisU],
		Y: p.Dot(c.dir[AxisV]) - c.dist[AxisV],
		Z: p.Dot(c.dir[AxisW]) - c.dist[AxisW],
	}
}

// Intersects reports whether the box can touch a world-space AABB.
func (c *Cutter) Intersects(b geometry.AABB) bool {
	return c.bounds.Intersects(b)
}

func anyPerpendicular(n math.Vec3) math.Vec3 {
	if math32.Abs(n.X) < 0.9 {
		return math.UnitX.Sub(n.Scale(n.X)).Normalize()
	}
	return math.UnitY.Sub(n.Scale(n.Y)).Normalize()
}
