// Package vertexbuffer provides dynamic vertex/index storage groups for decal
// geometry and pushes their dirty ranges to a rendering device.
package vertexbuffer

import (
	"unsafe"

	"github.com/Faultbox/dynadecal/pkg/math"
)

// Vertex is the decal vertex layout shared by every storage group.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Diffuse  uint32       // Packed 0xAARRGGBB
	UVW      [2]math.Vec3 // [0] texture coordinates, [1] per-decal side channel
}

// VertexSize is the byte size of one Vertex.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// IndexSize is the byte size of one index.
const IndexSize = 2

// Range is a half-open element range [Start, Start+Count).
type Range struct {
	Start int
	Count int
}

// End returns the first element past the range.
func (r Range) End() int {
	return r.Start + r.Count
}

// Empty reports whether the range covers nothing.
func (r Range) Empty() bool {
	return r.Count <= 0
}

// Union returns the smallest range covering r and other.
func (r Range) Union(other Range) Range {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	start := min(r.Start, other.Start)
	end := max(r.End(), other.End())
	return Range{Start: start, Count: end - start}
}

// Cell is a reservation of vertices and indices inside one Group.
type Cell struct {
	Group *Group
	Verts Range
	Index Range
}
