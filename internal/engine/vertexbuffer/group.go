package vertexbuffer

import "fmt"

// Group is a fixed-capacity block of decal vertices and indices backed by one
// device buffer pair. Storage is reserved front to back and never moves.
type Group struct {
	id int

	Verts   []Vertex
	Indices []uint16

	vertUsed int
	idxUsed  int

	dirtyVerts Range
	dirtyIdx   Range
}

// ID returns the pool-unique group identifier.
func (g *Group) ID() int {
	return g.id
}

// VertCapacity returns the total vertex capacity.
func (g *Group) VertCapacity() int {
	return len(g.Verts)
}

// IndexCapacity returns the total index capacity.
func (g *Group) IndexCapacity() int {
	return len(g.Indices)
}

// Free returns the unreserved vertex and index counts.
func (g *Group) Free() (verts, indices int) {
	return len(g.Verts) - g.vertUsed, len(g.Indices) - g.idxUsed
}

// Reserve carves numVerts vertices and numIdx indices out of the group.
// It returns false when either does not fit; nothing is reserved in that case.
func (g *Group) Reserve(numVerts, numIdx int) (Cell, bool) {
	if numVerts < 0 || numIdx < 0 {
		return Cell{}, false
	}
	freeV, freeI := g.Free()
	if numVerts > freeV || numIdx > freeI {
		return Cell{}, false
	}
	cell := Cell{
		Group: g,
		Verts: Range{Start: g.vertUsed, Count: numVerts},
		Index: Range{Start: g.idxUsed, Count: numIdx},
	}
	g.vertUsed += numVerts
	g.idxUsed += numIdx
	return cell, true
}

// MarkVertsDirty flags a vertex range for upload on the next Flush.
func (g *Group) MarkVertsDirty(r Range) {
	g.dirtyVerts = g.dirtyVerts.Union(g.clip(r, len(g.Verts)))
}

// MarkIndicesDirty flags an index range for upload on the next Flush.
func (g *Group) MarkIndicesDirty(r Range) {
	g.dirtyIdx = g.dirtyIdx.Union(g.clip(r, len(g.Indices)))
}

// Dirty returns the pending vertex and index ranges.
func (g *Group) Dirty() (verts, indices Range) {
	return g.dirtyVerts, g.dirtyIdx
}

func (g *Group) clearDirty() {
	g.dirtyVerts = Range{}
	g.dirtyIdx = Range{}
}

func (g *Group) clip(r Range, limit int) Range {
	if r.Start < 0 || r.End() > limit {
		panic(fmt.Sprintf("vertexbuffer: range [%d,%d) outside group %d capacity %d", r.Start, r.End(), g.id, limit))
	}
	return r
}
