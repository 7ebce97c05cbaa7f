package cutter

import "github.com/Faultbox/dynadecal/pkg/math"

// FindHitPoints recovers one contact per polygon: the point where the
// polygon crosses the box's center line U = V = 0.5. Polygons that miss the
// center line yield nothing. It reports whether any hit was appended.
func (c *Cutter) FindHitPoints(polys []Poly, dst []Hit) ([]Hit, bool) {
	return c.findHits(polys, dst, nil)
}

// FindHitPointsConstHeight is FindHitPoints with hits projected onto the
// plane at height along BackDir, with BackDir as the normal.
func (c *Cutter) FindHitPointsConstHeight(polys []Poly, height float32, dst []Hit) ([]Hit, bool) {
	return c.findHits(polys, dst, &height)
}

func (c *Cutter) findHits(polys []Poly, dst []Hit, height *float32) ([]Hit, bool) {
	start := len(dst)
	for i := range polys {
		hit, ok := c.centerHit(polys[i].Verts)
		if !ok {
			continue
		}
		if height != nil {
			hit.Pos = c.projectToHeight(hit.Pos, *height)
			hit.Norm = c.backDir
		}
		dst = append(dst, hit)
	}
	return dst, len(dst) > start
}

// centerHit clips the polygon down to the degenerate region U = V = 0.5 and
// averages what remains.
func (c *Cutter) centerHit(verts []Vert) (Hit, bool) {
	c.bufA = append(c.bufA[:0], verts...)
	in, out := c.bufA, c.bufB
	for _, face := range centerFaces {
		out = clipAxis(in, out[:0], face.axis, 0.5, face.low)
		in, out = out, in
		if len(in) == 0 {
			break
		}
	}
	c.bufA, c.bufB = in, out
	if len(in) == 0 {
		return Hit{}, false
	}

	var pos, norm math.Vec3
	for i := range in {
		pos = pos.Add(in[i].Pos)
		norm = norm.Add(in[i].Norm)
	}
	pos = pos.Scale(1 / float32(len(in)))
	if norm.LengthSq() == 0 {
		norm = c.backDir
	}
	return Hit{Pos: pos, Norm: norm.Normalize()}, true
}

var centerFaces = [4]struct {
	axis int
	low  bool
}{
	{AxisU, true},
	{AxisU, false},
	{AxisV, true},
	{AxisV, false},
}
