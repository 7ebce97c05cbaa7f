package decal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// AuxSpan is a ring of decal vertices and indices reserved from one storage
// group. Decals append at the tail and retire from the head, so the live
// range stays contiguous.
type AuxSpan struct {
	index int // Slot in the manager arena

	host     geometry.AuxHost // nil while in the free pool
	hostSpan int

	cell vertexbuffer.Cell // Whole reservation

	vStart, vLength int // Live vertex range, relative to cell
	iStart, iLength int // Live index range, relative to cell

	material *Material
	style    Style

	// Shadows of the live vertices. origUVW.Z holds computed opacity for
	// re-application during aging.
	origPos []math.Vec3
	origUVW []math.Vec3
}

// Index returns the span's arena slot.
func (a *AuxSpan) Index() int { return a.index }

// Host returns the attached host span, or nil while pooled.
func (a *AuxSpan) Host() (geometry.AuxHost, int) { return a.host, a.hostSpan }

// Style returns the span's rendering style.
func (a *AuxSpan) Style() Style { return a.style }

// Material returns the span's material, which may be nil.
func (a *AuxSpan) Material() *Material { return a.material }

// MaxVerts returns the vertex capacity.
func (a *AuxSpan) MaxVerts() int { return a.cell.Verts.Count }

// MaxIndices returns the index capacity.
func (a *AuxSpan) MaxIndices() int { return a.cell.Index.Count }

// Live returns the live vertex and index counts.
func (a *AuxSpan) Live() (verts, indices int) { return a.vLength, a.iLength }

// Head returns the live range starts, relative to the reservation.
func (a *AuxSpan) Head() (vert, index int) { return a.vStart, a.iStart }

// Tail returns the first free vertex and index, relative to the reservation.
func (a *AuxSpan) Tail() (vert, index int) {
	return a.vStart + a.vLength, a.iStart + a.iLength
}

// HasRoom reports whether numVerts and numIdx fit after the tail.
func (a *AuxSpan) HasRoom(numVerts, numIdx int) bool {
	vt, it := a.Tail()
	return vt+numVerts <= a.cell.Verts.Count && it+numIdx <= a.cell.Index.Count
}

// Storage exposes the live range as a geometry source. Triangles are
// relative to the live head.
func (a *AuxSpan) Storage() *geometry.BufferStorage {
	return &geometry.BufferStorage{Cell: vertexbuffer.Cell{
		Group: a.cell.Group,
		Verts: vertexbuffer.Range{Start: a.cell.Verts.Start + a.vStart, Count: a.vLength},
		Index: vertexbuffer.Range{Start: a.cell.Index.Start + a.iStart, Count: a.iLength},
	}}
}

func (a *AuxSpan) vert(i int) *vertexbuffer.Vertex {
	return &a.cell.Group.Verts[a.cell.Verts.Start+i]
}

// markLiveDirty flags the live range for re-upload.
func (a *AuxSpan) markLiveDirty() {
	if a.vLength == 0 {
		return
	}
	g := a.cell.Group
	g.MarkVertsDirty(vertexbuffer.Range{Start: a.cell.Verts.Start + a.vStart, Count: a.vLength})
	g.MarkIndicesDirty(vertexbuffer.Range{Start: a.cell.Index.Start + a.iStart, Count: a.iLength})
}

func (m *Manager) auxRef(a *AuxSpan) geometry.AuxRef {
	return geometry.AuxRef{Owner: m.id, Index: a.index}
}

// GetAuxSpan finds room for numVerts and numIdx on the host span. It tries,
// in order: spans already attached there by this manager, the free pool,
// and a fresh allocation when NeverRunOut is set. It returns nil when the
// request exceeds the per-span maximum or nothing is available.
func (m *Manager) GetAuxSpan(host geometry.AuxHost, span, numVerts, numIdx int) *AuxSpan {
	if numVerts > m.cfg.MaxVerts || numIdx > m.cfg.MaxIndices {
		m.log.Warn("decal exceeds aux span capacity",
			zap.Int("verts", numVerts),
			zap.Int("indices", numIdx),
		)
		return nil
	}

	for _, ref := range host.AuxSpans(span) {
		if ref.Owner != m.id {
			continue
		}
		if aux := m.aux[ref.Index]; aux.HasRoom(numVerts, numIdx) {
			return aux
		}
	}

	for i, idx := range m.free {
		aux := m.aux[idx]
		if !aux.HasRoom(numVerts, numIdx) {
			continue
		}
		m.free = append(m.free[:i], m.free[i+1:]...)
		m.attach(aux, host, span)
		return aux
	}

	if !m.cfg.NeverRunOut {
		m.log.Debug("aux spans exhausted", zap.String("host", host.Key()))
		return nil
	}

	aux, err := m.allocAuxSpan()
	if err != nil {
		m.log.Warn("allocating aux span", zap.Error(err))
		return nil
	}
	m.attach(aux, host, span)
	return aux
}

// allocAuxSpan reserves a new span in a fresh storage group. The span
// starts unattached.
func (m *Manager) allocAuxSpan() (*AuxSpan, error) {
	g, err := m.pool.NewGroup(m.cfg.MaxVerts, m.cfg.MaxIndices)
	if err != nil {
		return nil, fmt.Errorf("creating storage group: %w", err)
	}
	cell, ok := g.Reserve(m.cfg.MaxVerts, m.cfg.MaxIndices)
	if !ok {
		return nil, fmt.Errorf("group %d cannot hold %d verts / %d indices", g.ID(), m.cfg.MaxVerts, m.cfg.MaxIndices)
	}

	aux := &AuxSpan{
		index:   len(m.aux),
		cell:    cell,
		origPos: make([]math.Vec3, m.cfg.MaxVerts),
		origUVW: make([]math.Vec3, m.cfg.MaxVerts),
	}
	m.aux = append(m.aux, aux)

	m.log.Info("aux span allocated",
		zap.Int("aux", aux.index),
		zap.Int("group", g.ID()),
	)
	return aux, nil
}

func (m *Manager) attach(aux *AuxSpan, host geometry.AuxHost, span int) {
	aux.host = host
	aux.hostSpan = span
	host.AttachAux(span, m.auxRef(aux))
	m.setAuxMaterial(aux, host.SpanProps(span))

	m.log.Debug("aux span attached",
		zap.Int("aux", aux.index),
		zap.String("host", host.Key()),
		zap.Int("span", span),
		zap.Stringer("style", aux.style),
	)
}

// release detaches an empty span and returns it to the free pool.
func (m *Manager) release(aux *AuxSpan) {
	if aux.host != nil {
		aux.host.DetachAux(aux.hostSpan, m.auxRef(aux))
		aux.host = nil
		aux.hostSpan = 0
	}
	m.free = append(m.free, aux.index)
}
