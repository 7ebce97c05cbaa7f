package decal

import (
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/engine/cutter"
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// CutoutTargets cuts every target span the cutter overlaps and turns the
// result into one decal per span. It reports whether any decal covered
// the full footprint.
func (m *Manager) CutoutTargets(t float64) bool {
	covered, _ := m.cutoutTargets(t, m.cfg.Intensity)
	return covered
}

// cutoutTargets reports full coverage, and whether anything was left
// behind: a stored decal or a contact point.
func (m *Manager) cutoutTargets(t float64, intensity float32) (covered, made bool) {
	m.hits = m.hits[:0]
	for _, host := range m.targets {
		for span := 0; span < host.NumSpans(); span++ {
			if !m.cutter.Intersects(host.WorldBounds(span)) {
				continue
			}
			v, ok := m.access.OpenReadOnly(host, span)
			if !ok {
				continue
			}
			m.polys, _ = m.cutter.Cutout(v, m.polys[:0])
			m.access.Close(v)
			if len(m.polys) == 0 {
				continue
			}

			m.hits, _ = m.cutter.FindHitPoints(m.polys, m.hits)
			full, stored := m.addSplot(host, span, t, intensity)
			covered = covered || full
			made = made || stored
		}
	}
	m.emitParticles(t)
	return covered, made || len(m.hits) > 0
}

// addSplot stores m.polys as a decal on the host span. Without room it
// falls back to reporting coverage only.
func (m *Manager) addSplot(host geometry.AuxHost, span int, t float64, intensity float32) (covered, stored bool) {
	nv, ni := cutter.CountPolys(m.polys)
	if nv == 0 {
		return false, false
	}
	aux := m.GetAuxSpan(host, span, nv, ni)
	if aux == nil {
		return coverage(m.polys), false
	}
	slot := m.InitDecal(aux, t, nv, ni, KindSplot)
	m.decals.get(slot).intensity = intensity
	return m.ConvertPolys(aux, slot, m.polys), true
}

func coverage(polys []cutter.Poly) bool {
	var q quadrants
	for p := range polys {
		for k := range polys[p].Verts {
			q.add(polys[p].Verts[k].UVW)
		}
	}
	return q.full()
}

// AddFootprint leaves a footprint of part under the transform l2w, whose
// Y column points forward and Z column up. flip mirrors the print. Parts
// that are dry, or that printed less than PartyTime ago, leave nothing. A
// step that misses every target does not start the PartyTime wait.
func (m *Manager) AddFootprint(part string, l2w math.Mat4, flip bool, t float64) bool {
	info := m.Info(part)
	wet := m.HowWet(info, t)
	if wet <= 0 {
		return false
	}
	if info.hasDecal && t-info.lastDecal < float64(m.cfg.PartyTime) {
		return false
	}

	m.applyScale()
	m.cutter.SetVolume(l2w.Translation(), l2w.Column(1), l2w.Column(2), flip)

	covered, made := m.cutoutTargets(t, wet)
	if made {
		info.lastDecal, info.hasDecal = t, true
	}
	return covered
}

// AddRipple starts a ripple ring for part at pos on the water plane at
// waterHeight. The first target span whose surface, flattened onto that
// plane, lies under the ripple hosts it, and particles spawn where the
// ripple center meets the water.
func (m *Manager) AddRipple(part string, pos math.Vec3, t float64, waterHeight float32) bool {
	info := m.Info(part)
	if info.hasDecal && t-info.lastDecal < float64(m.cfg.PartyTime) {
		return false
	}

	m.applyScale()
	m.cutter.SetTransform(math.Translate(pos.X, pos.Y, waterHeight))
	m.hits = m.hits[:0]

	for _, host := range m.targets {
		for span := 0; span < host.NumSpans(); span++ {
			if !m.cutter.Intersects(host.WorldBounds(span)) {
				continue
			}
			v, ok := m.access.OpenReadOnly(host, span)
			if !ok {
				continue
			}
			m.polys, _ = m.cutter.CutoutConstHeight(v, waterHeight, m.polys[:0])
			m.access.Close(v)
			if len(m.polys) == 0 {
				continue
			}
			m.hits, _ = m.cutter.FindHitPointsConstHeight(m.polys, waterHeight, m.hits)
			m.emitParticles(t)

			stored := m.addRipple(host, span, t)
			if stored || len(m.hits) > 0 {
				info.lastDecal, info.hasDecal = t, true
			}
			return stored
		}
	}
	return false
}

func (m *Manager) addRipple(host geometry.AuxHost, span int, t float64) bool {
	grid := m.cutter.CutoutGrid(m.cfg.GridSizeU, m.cfg.GridSizeV)
	aux := m.GetAuxSpan(host, span, len(grid.Verts), len(grid.Indices))
	if aux == nil {
		return false
	}
	slot := m.InitDecal(aux, t, len(grid.Verts), len(grid.Indices), KindRipple)
	return m.ConvertFlatGrid(aux, slot, &grid)
}

func (m *Manager) emitParticles(t float64) {
	if len(m.hits) == 0 || m.cfg.ParticlesPerHit <= 0 {
		return
	}
	for _, e := range m.particles {
		for _, h := range m.hits {
			e.Emit(h.Pos, h.Norm, m.cfg.ParticlesPerHit, t)
		}
	}
	m.log.Debug("particles emitted",
		zap.Int("hits", len(m.hits)),
		zap.Int("systems", len(m.particles)),
	)
}
