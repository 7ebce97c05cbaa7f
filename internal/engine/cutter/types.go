// Package cutter clips scene geometry against an oriented box volume and
// maps the surviving polygons into the box's normalized UVW space.
package cutter

import "github.com/Faultbox/dynadecal/pkg/math"

// Vert is a clipped vertex. UVW.X and UVW.Y are box-local coordinates in
// [0,1]; UVW.Z is the normalized penetration depth along the W axis.
type Vert struct {
	Pos   math.Vec3
	Norm  math.Vec3
	Color math.Color
	UVW   math.Vec3
}

// Poly is a convex polygon produced by clipping one source triangle.
type Poly struct {
	Verts []Vert
	// BaseHasAlpha records that the source material already carried
	// translucency, which must be folded into the decal opacity.
	BaseHasAlpha bool
}

// Hit is a representative contact point recovered from a clipped polygon.
type Hit struct {
	Pos  math.Vec3
	Norm math.Vec3
}

// FlatGrid is a regular grid covering the cutter's U/V extents.
type FlatGrid struct {
	NumU    int // Vertices along U
	NumV    int // Vertices along V
	Verts   []Vert
	Indices []uint16
}

// CountPolys returns the vertex and triangle-fan index totals for polys.
func CountPolys(polys []Poly) (numVerts, numIdx int) {
	for i := range polys {
		n := len(polys[i].Verts)
		numVerts += n
		if n > 2 {
			numIdx += (n - 2) * 3
		}
	}
	return numVerts, numIdx
}
