package decal

import (
	"github.com/Faultbox/dynadecal/internal/engine/cutter"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Normal falloff against the cutter back direction: at or above normFull
// opacity is kept, at or below normZero the vertex is transparent.
const (
	normFull float32 = 0.5
	normZero float32 = 0.25
)

// Quadrant thresholds for hit coverage.
const (
	quadLow  float32 = 0.25
	quadHigh float32 = 0.75
)

type quadrants struct {
	loU, hiU, loV, hiV bool
}

func (q *quadrants) add(uvw math.Vec3) {
	switch {
	case uvw.X < quadLow:
		q.loU = true
	case uvw.X > quadHigh:
		q.hiU = true
	}
	switch {
	case uvw.Y < quadLow:
		q.loV = true
	case uvw.Y > quadHigh:
		q.hiV = true
	}
}

func (q quadrants) full() bool {
	return q.loU && q.hiU && q.loV && q.hiV
}

// opacity combines depth and normal falloff for a clipped vertex.
func (m *Manager) opacity(v *cutter.Vert, backDir math.Vec3, baseAlpha bool) float32 {
	depth := v.UVW.Z
	var opac float32 = 1
	switch {
	case depth < m.cfg.MinDepth:
		opac = depth / m.cfg.MinDepth
	case depth > m.cfg.MaxDepth:
		opac = (1 - depth) / (1 - m.cfg.MaxDepth)
	}

	dot := v.Norm.Dot(backDir)
	switch {
	case dot <= normZero:
		opac = 0
	case dot < normFull:
		opac *= (dot - normZero) / (normFull - normZero)
	}

	if baseAlpha {
		opac *= v.Color.A
	}
	return math.Clamp(opac, 0, 1)
}

// ConvertPolys writes polys into the decal's vertex and index ranges using
// the aux span's colorization and reports whether the decal covers all
// four UV quadrants. The decal must have been sized with
// cutter.CountPolys.
func (m *Manager) ConvertPolys(aux *AuxSpan, slot int, polys []cutter.Poly) bool {
	if len(polys) == 0 {
		return false
	}
	d := m.decals.get(slot)
	backDir := m.cutter.BackDir()

	var q quadrants
	vi := d.vStart
	for p := range polys {
		poly := &polys[p]
		for k := range poly.Verts {
			cv := &poly.Verts[k]
			q.add(cv.UVW)

			v := aux.vert(vi)
			v.Position = cv.Pos
			v.Normal = cv.Norm
			v.UVW[0] = math.Vec3{X: cv.UVW.X, Y: cv.UVW.Y}
			v.UVW[1] = cv.UVW
			aux.origPos[vi] = cv.Pos
			aux.origUVW[vi] = math.Vec3{X: cv.UVW.X, Y: cv.UVW.Y}

			switch aux.style.colorize() {
			case colorizeVS:
				v.UVW[0].Z = float32(d.birth)
				v.Diffuse = math.White.ARGB()
			case colorizeColor:
				aux.origUVW[vi].Z = m.opacity(cv, backDir, poly.BaseHasAlpha)
				v.Diffuse = math.GrayARGB(0)
			default:
				aux.origUVW[vi].Z = m.opacity(cv, backDir, poly.BaseHasAlpha)
				v.Diffuse = math.WithAlphaByte(math.White.ARGB(), 0)
			}
			vi++
		}
	}

	m.writeFanIndices(aux, d, polys)
	return q.full()
}

// writeFanIndices emits (0, i, i+1) per polygon offset by its first vertex.
func (m *Manager) writeFanIndices(aux *AuxSpan, d *Decal, polys []cutter.Poly) {
	idx := aux.cell.Group.Indices
	base := aux.cell.Verts.Start + d.vStart
	ii := aux.cell.Index.Start + d.iStart
	for p := range polys {
		n := len(polys[p].Verts)
		for k := 1; k+1 < n; k++ {
			idx[ii] = uint16(base)
			idx[ii+1] = uint16(base + k)
			idx[ii+2] = uint16(base + k + 1)
			ii += 3
		}
		base += n
	}
}

// ConvertFlatGrid writes a flat grid into the decal. Opacity is full; the
// grid's UVs are kept as the originals ripples rescale from.
func (m *Manager) ConvertFlatGrid(aux *AuxSpan, slot int, grid *cutter.FlatGrid) bool {
	if len(grid.Verts) == 0 {
		return false
	}
	d := m.decals.get(slot)

	for k := range grid.Verts {
		gv := &grid.Verts[k]
		vi := d.vStart + k

		v := aux.vert(vi)
		v.Position = gv.Pos
		v.Normal = gv.Norm
		v.UVW[0] = math.Vec3{X: gv.UVW.X, Y: gv.UVW.Y}
		v.UVW[1] = gv.UVW
		aux.origPos[vi] = gv.Pos
		aux.origUVW[vi] = math.Vec3{X: gv.UVW.X, Y: gv.UVW.Y, Z: 1}

		switch aux.style.colorize() {
		case colorizeVS:
			v.UVW[0].Z = float32(d.birth)
			v.Diffuse = math.White.ARGB()
		case colorizeColor:
			v.Diffuse = math.GrayARGB(0)
		default:
			v.Diffuse = math.WithAlphaByte(math.White.ARGB(), 0)
		}
	}

	idx := aux.cell.Group.Indices
	base := aux.cell.Verts.Start + d.vStart
	ii := aux.cell.Index.Start + d.iStart
	for k, gi := range grid.Indices {
		idx[ii+k] = uint16(base + int(gi))
	}
	return true
}
