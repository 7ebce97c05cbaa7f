package geometry

import (
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Source exposes one span's vertices and triangles in local space.
type Source interface {
	NumVerts() int
	NumTris() int
	Position(i int) math.Vec3
	Normal(i int) math.Vec3
	Color(i int) math.Color
	UVW(i int) math.Vec3
	Triangle(t int) [3]uint16
}

// WritableSource is a Source whose vertices can be modified in place.
type WritableSource interface {
	Source
	SetPosition(i int, p math.Vec3)
	SetNormal(i int, n math.Vec3)
	SetColor(i int, c math.Color)
	SetUVW(i int, uvw math.Vec3)
}

// MeshStorage is authoring-time geometry held in plain arrays.
type MeshStorage struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Color // Optional, defaults to white
	UVWs      []math.Vec3  // Optional, defaults to zero
	Indices   []uint16
}

// NumVerts implements Source.
func (m *MeshStorage) NumVerts() int { return len(m.Positions) }

// NumTris implements Source.
func (m *MeshStorage) NumTris() int { return len(m.Indices) / 3 }

// Position implements Source.
func (m *MeshStorage) Position(i int) math.Vec3 { return m.Positions[i] }

// Normal implements Source.
func (m *MeshStorage) Normal(i int) math.Vec3 {
	if i < len(m.Normals) {
		return m.Normals[i]
	}
	return math.UnitZ
}

// Color implements Source.
func (m *MeshStorage) Color(i int) math.Color {
	if i < len(m.Colors) {
		return m.Colors[i]
	}
	return math.White
}

// UVW implements Source.
func (m *MeshStorage) UVW(i int) math.Vec3 {
	if i < len(m.UVWs) {
		return m.UVWs[i]
	}
	return math.Vec3{}
}

// Triangle implements Source.
func (m *MeshStorage) Triangle(t int) [3]uint16 {
	return [3]uint16{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}
}

// SetPosition implements WritableSource.
func (m *MeshStorage) SetPosition(i int, p math.Vec3) { m.Positions[i] = p }

// SetNormal implements WritableSource.
func (m *MeshStorage) SetNormal(i int, n math.Vec3) {
	m.grow(&m.Normals, math.UnitZ)
	m.Normals[i] = n
}

// SetColor implements WritableSource.
func (m *MeshStorage) SetColor(i int, c math.Color) {
	if len(m.Colors) < len(m.Positions) {
		colors := make([]math.Color, len(m.Positions))
		for j := range colors {
			colors[j] = math.White
		}
		copy(colors, m.Colors)
		m.Colors = colors
	}
	m.Colors[i] = c
}

// SetUVW implements WritableSource.
func (m *MeshStorage) SetUVW(i int, uvw math.Vec3) {
	m.grow(&m.UVWs, math.Vec3{})
	m.UVWs[i] = uvw
}

func (m *MeshStorage) grow(s *[]math.Vec3, fill math.Vec3) {
	if len(*s) >= len(m.Positions) {
		return
	}
	out := make([]math.Vec3, len(m.Positions))
	for j := range out {
		out[j] = fill
	}
	copy(out, *s)
	*s = out
}

// BufferStorage views a cell of a live vertexbuffer.Group. Writes mark the
// touched vertices dirty so the next Flush re-uploads them.
type BufferStorage struct {
	Cell vertexbuffer.Cell
}

func (b *BufferStorage) vert(i int) *vertexbuffer.Vertex {
	return &b.Cell.Group.Verts[b.Cell.Verts.Start+i]
}

// NumVerts implements Source.
func (b *BufferStorage) NumVerts() int { return b.Cell.Verts.Count }

// NumTris implements Source.
func (b *BufferStorage) NumTris() int { return b.Cell.Index.Count / 3 }

// Position implements Source.
func (b *BufferStorage) Position(i int) math.Vec3 { return b.vert(i).Position }

// Normal implements Source.
func (b *BufferStorage) Normal(i int) math.Vec3 { return b.vert(i).Normal }

// Color implements Source.
func (b *BufferStorage) Color(i int) math.Color { return math.ColorFromARGB(b.vert(i).Diffuse) }

// UVW implements Source.
func (b *BufferStorage) UVW(i int) math.Vec3 { return b.vert(i).UVW[0] }

// Triangle implements Source. Indices in the group are relative to the cell's
// first vertex.
func (b *BufferStorage) Triangle(t int) [3]uint16 {
	idx := b.Cell.Group.Indices[b.Cell.Index.Start+t*3:]
	base := uint16(b.Cell.Verts.Start)
	return [3]uint16{idx[0] - base, idx[1] - base, idx[2] - base}
}

// SetPosition implements WritableSource.
func (b *BufferStorage) SetPosition(i int, p math.Vec3) {
	b.vert(i).Position = p
	b.dirty(i)
}

// SetNormal implements WritableSource.
func (b *BufferStorage) SetNormal(i int, n math.Vec3) {
	b.vert(i).Normal = n
	b.dirty(i)
}

// SetColor implements WritableSource.
func (b *BufferStorage) SetColor(i int, c math.Color) {
	b.vert(i).Diffuse = c.ARGB()
	b.dirty(i)
}

// SetUVW implements WritableSource.
func (b *BufferStorage) SetUVW(i int, uvw math.Vec3) {
	b.vert(i).UVW[0] = uvw
	b.dirty(i)
}

func (b *BufferStorage) dirty(i int) {
	b.Cell.Group.MarkVertsDirty(vertexbuffer.Range{Start: b.Cell.Verts.Start + i, Count: 1})
}
