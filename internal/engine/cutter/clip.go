package cutter

import (
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Cutout clips every triangle of the open span against the box and appends
// the surviving polygons to dst. It reports whether anything was appended.
func (c *Cutter) Cutout(v *geometry.View, dst []Poly) ([]Poly, bool) {
	return c.cutout(v, dst, nil)
}

// CutoutConstHeight is Cutout with every source position first projected
// along BackDir onto the plane at height, measured as Dot(p, BackDir). With
// BackDir along world +Z that is the world height.
// Output normals are BackDir. Used for flat surfaces like water.
func (c *Cutter) CutoutConstHeight(v *geometry.View, height float32, dst []Poly) ([]Poly, bool) {
	return c.cutout(v, dst, &height)
}

func (c *Cutter) cutout(v *geometry.View, dst []Poly, height *float32) ([]Poly, bool) {
	if v == nil {
		return dst, false
	}
	baseAlpha := v.Props().HasAlpha
	start := len(dst)

	nTris := v.NumTris()
	for t := 0; t < nTris; t++ {
		idx := v.Triangle(t)

		c.bufA = c.bufA[:0]
		for _, i := range idx {
			vert := Vert{
				Pos:   v.WorldPosition(int(i)),
				Norm:  v.WorldNormal(int(i)),
				Color: v.Color(int(i)),
			}
			if height != nil {
				vert.Pos = c.projectToHeight(vert.Pos, *height)
				vert.Norm = c.backDir
			}
			vert.UVW = c.UVW(vert.Pos)
			c.bufA = append(c.bufA, vert)
		}

		if trivialReject(c.bufA) {
			continue
		}

		out := c.clipBox()
		if len(out) < 3 {
			continue
		}
		verts := make([]Vert, len(out))
		copy(verts, out)
		dst = append(dst, Poly{Verts: verts, BaseHasAlpha: baseAlpha})
	}
	return dst, len(dst) > start
}

// trivialReject reports whether all vertices lie strictly outside the same
// face of the unit box.
func trivialReject(verts []Vert) bool {
	for a := 0; a < 3; a++ {
		below, above := true, true
		for i := range verts {
			x := verts[i].UVW.Axis(a)
			below = below && x < 0
			above = above && x > 1
		}
		if below || above {
			return true
		}
	}
	return false
}

// clipBox clips bufA against the six faces, low faces first. The result
// aliases one of the scratch buffers.
func (c *Cutter) clipBox() []Vert {
	in, out := c.bufA, c.bufB
	for _, face := range boxFaces {
		out = clipAxis(in, out[:0], face.axis, face.bound, face.low)
		in, out = out, in
		if len(in) < 3 {
			break
		}
	}
	c.bufA, c.bufB = in, out
	return in
}

var boxFaces = [6]struct {
	axis  int
	bound float32
	low   bool
}{
	{AxisU, 0, true},
	{AxisV, 0, true},
	{AxisW, 0, true},
	{AxisU, 1, false},
	{AxisV, 1, false},
	{AxisW, 1, false},
}

// clipAxis is one Sutherland-Hodgman pass keeping the side of the plane
// uvw[axis] = bound selected by low (keep >= bound) or !low (keep <= bound).
func clipAxis(in, out []Vert, axis int, bound float32, low bool) []Vert {
	n := len(in)
	inside := func(v *Vert) bool {
		if low {
			return v.UVW.Axis(axis) >= bound
		}
		return v.UVW.Axis(axis) <= bound
	}
	for i := 0; i < n; i++ {
		cur := &in[i]
		prev := &in[(i+n-1)%n]
		curIn, prevIn := inside(cur), inside(prev)
		switch {
		case curIn && prevIn:
			out = append(out, *cur)
		case curIn:
			out = append(out, intersect(prev, cur, axis, bound), *cur)
		case prevIn:
			out = append(out, intersect(cur, prev, axis, bound))
		}
	}
	return out
}

// intersect returns the point on segment (outside, inside) where the given
// UVW axis equals bound. All attributes are interpolated with the same
// parameter; normals are renormalized.
func intersect(outside, inside *Vert, axis int, bound float32) Vert {
	o := outside.UVW.Axis(axis)
	t := (bound - o) / (inside.UVW.Axis(axis) - o)

	v := Vert{
		Pos:   outside.Pos.Lerp(inside.Pos, t),
		Norm:  outside.Norm.Lerp(inside.Norm, t).Normalize(),
		Color: outside.Color.Lerp(inside.Color, t),
		UVW:   outside.UVW.Lerp(inside.UVW, t),
	}
	switch axis {
	case AxisU:
		v.UVW.X = bound
	case AxisV:
		v.UVW.Y = bound
	default:
		v.UVW.Z = bound
	}
	return v
}

func (c *Cutter) projectToHeight(p math.Vec3, height float32) math.Vec3 {
	return p.Sub(c.backDir.Scale(p.Dot(c.backDir) - height))
}

// CutoutGrid builds a flat grid of nWid by nLen cells spanning the box's U/V
// extents through its center. UVW runs 0..1 across the grid at depth 0.5.
func (c *Cutter) CutoutGrid(nWid, nLen int) FlatGrid {
	nWid = max(nWid, 1)
	nLen = max(nLen, 1)
	nu, nv := nWid+1, nLen+1

	g := FlatGrid{
		NumU:    nu,
		NumV:    nv,
		Verts:   make([]Vert, 0, nu*nv),
		Indices: make([]uint16, 0, nWid*nLen*6),
	}

	du := c.axis[AxisU].Scale(c.length[AxisU])
	dv := c.axis[AxisV].Scale(c.length[AxisV])
	corner := c.position.Sub(du.Scale(0.5)).Sub(dv.Scale(0.5))

	for j := 0; j < nv; j++ {
		tv := float32(j) / float32(nLen)
		for i := 0; i < nu; i++ {
			tu := float32(i) / float32(nWid)
			g.Verts = append(g.Verts, Vert{
				Pos:   corner.Add(du.Scale(tu)).Add(dv.Scale(tv)),
				Norm:  c.backDir,
				Color: math.White,
				UVW:   math.Vec3{X: tu, Y: tv, Z: 0.5},
			})
		}
	}

	for j := 0; j < nLen; j++ {
		for i := 0; i < nWid; i++ {
			bl := uint16(j*nu + i)
			br := bl + 1
			tl := bl + uint16(nu)
			tr := tl + 1
			g.Indices = append(g.Indices, bl, br, tr, bl, tr, tl)
		}
	}
	return g
}
