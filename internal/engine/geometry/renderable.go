package geometry

import (
	"github.com/google/uuid"

	"github.com/Faultbox/dynadecal/pkg/math"
)

// SpanProps describes how a span's material is lit and blended.
type SpanProps struct {
	RuntimeLit  bool // Lit every frame instead of pre-shaded
	OverrideLit bool // Material forces its own lighting model
	HasAlpha    bool // Material already carries a translucency channel
}

// Renderable is a scene object whose spans can be opened for geometry access.
type Renderable interface {
	Key() string
	NumSpans() int
	// Span returns the span's storage, or false while it is not loaded.
	Span(i int) (Source, bool)
	SpanProps(i int) SpanProps
	LocalToWorld(i int) math.Mat4
	WorldBounds(i int) AABB
}

// AuxRef is a weak reference from a host span to an aux span held in the
// arena of the manager identified by Owner.
type AuxRef struct {
	Owner uuid.UUID
	Index int
}

// AuxHost is a Renderable that can carry aux spans on its spans.
type AuxHost interface {
	Renderable
	AuxSpans(span int) []AuxRef
	AttachAux(span int, ref AuxRef)
	DetachAux(span int, ref AuxRef)
}

// MeshSpan is one span of a Mesh.
type MeshSpan struct {
	Storage Source
	Props   SpanProps
	Loaded  bool
}

// Mesh is a simple AuxHost made of one transform and several spans.
type Mesh struct {
	key   string
	spans []MeshSpan
	l2w   math.Mat4
	aux   map[int][]AuxRef
}

// NewMesh creates an identity-transformed mesh.
func NewMesh(key string, spans ...MeshSpan) *Mesh {
	return &Mesh{
		key:   key,
		spans: spans,
		l2w:   math.Identity(),
		aux:   make(map[int][]AuxRef),
	}
}

// SetTransform sets the local-to-world transform of every span.
func (m *Mesh) SetTransform(l2w math.Mat4) {
	m.l2w = l2w
}

// SetLoaded toggles whether a span is paged in.
func (m *Mesh) SetLoaded(i int, loaded bool) {
	m.spans[i].Loaded = loaded
}

// Key implements Renderable.
func (m *Mesh) Key() string { return m.key }

// NumSpans implements Renderable.
func (m *Mesh) NumSpans() int { return len(m.spans) }

// Span implements Renderable.
func (m *Mesh) Span(i int) (Source, bool) {
	if i < 0 || i >= len(m.spans) || !m.spans[i].Loaded || m.spans[i].Storage == nil {
		return nil, false
	}
	return m.spans[i].Storage, true
}

// SpanProps implements Renderable.
func (m *Mesh) SpanProps(i int) SpanProps {
	if i < 0 || i >= len(m.spans) {
		return SpanProps{}
	}
	return m.spans[i].Props
}

// LocalToWorld implements Renderable.
func (m *Mesh) LocalToWorld(int) math.Mat4 { return m.l2w }

// WorldBounds implements Renderable.
func (m *Mesh) WorldBounds(i int) AABB {
	src, ok := m.Span(i)
	if !ok {
		return EmptyAABB()
	}
	local := EmptyAABB()
	for v := 0; v < src.NumVerts(); v++ {
		local = local.Extend(src.Position(v))
	}
	return local.Transform(m.l2w)
}

// AuxSpans implements AuxHost.
func (m *Mesh) AuxSpans(span int) []AuxRef {
	return m.aux[span]
}

// AttachAux implements AuxHost.
func (m *Mesh) AttachAux(span int, ref AuxRef) {
	m.aux[span] = append(m.aux[span], ref)
}

// DetachAux implements AuxHost.
func (m *Mesh) DetachAux(span int, ref AuxRef) {
	refs := m.aux[span]
	for i, r := range refs {
		if r == ref {
			m.aux[span] = append(refs[:i], refs[i+1:]...)
			return
		}
	}
}
