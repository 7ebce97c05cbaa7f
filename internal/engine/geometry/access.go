// Package geometry provides uniform read and read-write access to renderable
// span geometry, regardless of whether it lives in authoring arrays or live
// vertex buffers.
package geometry

import (
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/logger"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Accessor opens views on renderable spans. After DeInit every Open call
// fails and every open view reads as empty, so stale holders during shutdown
// degrade to no-ops.
type Accessor struct {
	live      bool
	openViews int
	log       *zap.Logger
}

// NewAccessor returns a live accessor.
func NewAccessor() *Accessor {
	return &Accessor{
		live: true,
		log:  logger.Named("geometry"),
	}
}

var global *Accessor

// Init creates the process-wide accessor used at the system boundary.
func Init() *Accessor {
	global = NewAccessor()
	return global
}

// DeInit shuts the process-wide accessor down.
func DeInit() {
	if global != nil {
		global.DeInit()
	}
}

// Global returns the process-wide accessor, or nil before Init. A nil
// *Accessor is valid and refuses every Open.
func Global() *Accessor {
	return global
}

// DeInit marks the accessor dead. Views opened earlier stay safe to call.
func (a *Accessor) DeInit() {
	if a == nil || !a.live {
		return
	}
	if a.openViews > 0 {
		a.log.Warn("geometry accessor shut down with open views", zap.Int("open", a.openViews))
	}
	a.live = false
}

// Live reports whether the accessor accepts Open calls.
func (a *Accessor) Live() bool {
	return a != nil && a.live
}

// OpenReadOnly opens span i of r for reading.
func (a *Accessor) OpenReadOnly(r Renderable, span int) (*View, bool) {
	return a.open(r, span, false)
}

// OpenReadWrite opens span i of r for reading and writing. It fails when the
// span's storage is not writable.
func (a *Accessor) OpenReadWrite(r Renderable, span int) (*View, bool) {
	return a.open(r, span, true)
}

func (a *Accessor) open(r Renderable, span int, write bool) (*View, bool) {
	if !a.Live() || r == nil {
		return nil, false
	}
	src, ok := r.Span(span)
	if !ok || src == nil {
		return nil, false
	}
	v := &View{
		owner: a,
		src:   src,
		props: r.SpanProps(span),
		l2w:   r.LocalToWorld(span),
	}
	v.identity = v.l2w.IsIdentity()
	if write {
		w, ok := src.(WritableSource)
		if !ok {
			return nil, false
		}
		v.dst = w
	}
	a.openViews++
	return v, true
}

// Close releases a view. Closing twice or closing nil is harmless.
func (a *Accessor) Close(v *View) {
	if v == nil || v.src == nil {
		return
	}
	v.src = nil
	v.dst = nil
	if v.owner != nil && v.owner.openViews > 0 {
		v.owner.openViews--
	}
}

// View is an opened span. Accessors on a closed view, or one whose accessor
// was shut down, return zero values.
type View struct {
	owner    *Accessor
	src      Source
	dst      WritableSource
	props    SpanProps
	l2w      math.Mat4
	identity bool
}

func (v *View) valid() bool {
	return v != nil && v.src != nil && v.owner.Live()
}

// Props returns the span's material properties.
func (v *View) Props() SpanProps { return v.props }

// LocalToWorld returns the span transform.
func (v *View) LocalToWorld() math.Mat4 { return v.l2w }

// IsIdentity reports whether the span transform is the identity.
func (v *View) IsIdentity() bool { return v.identity }

// Writable reports whether the view was opened read-write.
func (v *View) Writable() bool { return v.valid() && v.dst != nil }

// NumVerts returns the vertex count.
func (v *View) NumVerts() int {
	if !v.valid() {
		return 0
	}
	return v.src.NumVerts()
}

// NumTris returns the triangle count.
func (v *View) NumTris() int {
	if !v.valid() {
		return 0
	}
	return v.src.NumTris()
}

// Position returns a local-space position.
func (v *View) Position(i int) math.Vec3 {
	if !v.valid() {
		return math.Vec3{}
	}
	return v.src.Position(i)
}

// WorldPosition returns a position transformed to world space.
func (v *View) WorldPosition(i int) math.Vec3 {
	p := v.Position(i)
	if v.identity {
		return p
	}
	return v.l2w.TransformPoint(p)
}

// Normal returns a local-space normal.
func (v *View) Normal(i int) math.Vec3 {
	if !v.valid() {
		return math.Vec3{}
	}
	return v.src.Normal(i)
}

// WorldNormal returns a normal transformed to world space.
func (v *View) WorldNormal(i int) math.Vec3 {
	n := v.Normal(i)
	if v.identity {
		return n
	}
	return v.l2w.TransformNormal(n)
}

// Color returns the vertex color.
func (v *View) Color(i int) math.Color {
	if !v.valid() {
		return math.Color{}
	}
	return v.src.Color(i)
}

// UVW returns the vertex texture coordinate.
func (v *View) UVW(i int) math.Vec3 {
	if !v.valid() {
		return math.Vec3{}
	}
	return v.src.UVW(i)
}

// Triangle returns the vertex indices of triangle t.
func (v *View) Triangle(t int) [3]uint16 {
	if !v.valid() {
		return [3]uint16{}
	}
	return v.src.Triangle(t)
}

// SetPosition writes a local-space position. It reports false on read-only views.
func (v *View) SetPosition(i int, p math.Vec3) bool {
	if !v.Writable() {
		return false
	}
	v.dst.SetPosition(i, p)
	return true
}

// SetNormal writes a local-space normal. It reports false on read-only views.
func (v *View) SetNormal(i int, n math.Vec3) bool {
	if !v.Writable() {
		return false
	}
	v.dst.SetNormal(i, n)
	return true
}

// SetColor writes a vertex color. It reports false on read-only views.
func (v *View) SetColor(i int, c math.Color) bool {
	if !v.Writable() {
		return false
	}
	v.dst.SetColor(i, c)
	return true
}

// SetUVW writes a texture coordinate. It reports false on read-only views.
func (v *View) SetUVW(i int, uvw math.Vec3) bool {
	if !v.Writable() {
		return false
	}
	v.dst.SetUVW(i, uvw)
	return true
}
