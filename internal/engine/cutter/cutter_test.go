package cutter

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/pkg/math"
)

const eps = 1e-4

func triangleView(t *testing.T, props geometry.SpanProps, a, b, c math.Vec3) *geometry.View {
	t.Helper()
	mesh := geometry.NewMesh("tri", geometry.MeshSpan{
		Storage: &geometry.MeshStorage{
			Positions: []math.Vec3{a, b, c},
			Indices:   []uint16{0, 1, 2},
		},
		Props:  props,
		Loaded: true,
	})
	acc := geometry.NewAccessor()
	v, ok := acc.OpenReadOnly(mesh, 0)
	if !ok {
		t.Fatal("failed to open triangle span")
	}
	t.Cleanup(func() { acc.Close(v) })
	return v
}

// unitBox returns a 2x2x2 cutter centered at the origin with world axes.
func unitBox() *Cutter {
	c := New()
	c.SetLength(2, 2, 2)
	c.SetTransform(math.Identity())
	return c
}

func TestUVWMapsBoxToUnitCube(t *testing.T) {
	c := unitBox()

	tests := []struct {
		name string
		p    math.Vec3
		want math.Vec3
	}{
		{"center", math.Vec3{}, math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}},
		{"min corner", math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{Z: 1}},
		{"max corner", math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3{X: 1, Y: 1}},
		{"top face", math.Vec3{Z: 1}, math.Vec3{X: 0.5, Y: 0.5}},
		{"outside", math.Vec3{X: 3}, math.Vec3{X: 2, Y: 0.5, Z: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.UVW(tt.p); !got.ApproxEqual(tt.want, eps) {
				t.Errorf("UVW(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestSetVolumeFrame(t *testing.T) {
	c := New()
	c.SetLength(1, 2, 3)
	c.SetVolume(math.Vec3{X: 5}, math.Vec3{Y: 1}, math.Vec3{Z: 1}, false)

	if !c.Axis(AxisW).ApproxEqual(math.Vec3{Z: -1}, eps) {
		t.Errorf("W = %v, want -Z", c.Axis(AxisW))
	}
	if !c.Axis(AxisV).ApproxEqual(math.Vec3{Y: 1}, eps) {
		t.Errorf("V = %v, want +Y", c.Axis(AxisV))
	}
	if !c.BackDir().ApproxEqual(math.Vec3{Z: 1}, eps) {
		t.Errorf("BackDir = %v, want +Z", c.BackDir())
	}
	if u, v, w := c.Length(); u != 1 || v != 2 || w != 3 {
		t.Errorf("Length() = %v %v %v", u, v, w)
	}

	u := c.Axis(AxisU)
	c.SetVolume(math.Vec3{X: 5}, math.Vec3{Y: 1}, math.Vec3{Z: 1}, true)
	if !c.Axis(AxisU).ApproxEqual(u.Neg(), eps) {
		t.Errorf("flip should mirror U: got %v, had %v", c.Axis(AxisU), u)
	}

	// Forward with an up component is orthogonalized.
	c.SetVolume(math.Vec3{}, math.Vec3{Y: 1, Z: 1}, math.Vec3{Z: 1}, false)
	if d := c.Axis(AxisV).Dot(c.Axis(AxisW)); math32.Abs(d) > eps {
		t.Errorf("V·W = %v, want 0", d)
	}
}

func TestSetTransformMatchesSetVolume(t *testing.T) {
	pos := math.Vec3{X: 2, Y: -1, Z: 0.5}
	byVolume := New()
	byVolume.SetLength(1, 2, 3)
	byVolume.SetVolume(pos, math.UnitY, math.UnitZ, false)

	byMatrix := New()
	byMatrix.SetLength(1, 2, 3)
	byMatrix.SetTransform(math.Translate(pos.X, pos.Y, pos.Z))

	for a := AxisU; a <= AxisW; a++ {
		if !byMatrix.Axis(a).ApproxEqual(byVolume.Axis(a), eps) {
			t.Errorf("axis %d = %v, want %v", a, byMatrix.Axis(a), byVolume.Axis(a))
		}
	}
	if !byMatrix.BackDir().ApproxEqual(math.UnitZ, eps) {
		t.Errorf("BackDir = %v, want +Z", byMatrix.BackDir())
	}
	p := math.Vec3{X: 2.2, Y: -0.4, Z: 1}
	if got, want := byMatrix.UVW(p), byVolume.UVW(p); !got.ApproxEqual(want, eps) {
		t.Errorf("UVW(%v) = %v, want %v", p, got, want)
	}
}

func TestWorldBounds(t *testing.T) {
	c := New()
	c.SetLength(2, 4, 6)
	c.SetTransform(math.Translate(10, 0, 0))

	b := c.WorldBounds()
	want := geometry.AABB{Min: math.Vec3{X: 9, Y: -2, Z: -3}, Max: math.Vec3{X: 11, Y: 2, Z: 3}}
	if !b.Min.ApproxEqual(want.Min, eps) || !b.Max.ApproxEqual(want.Max, eps) {
		t.Errorf("WorldBounds() = %+v, want %+v", b, want)
	}
	if c.Intersects(geometry.AABB{Min: math.Vec3{X: 20}, Max: math.Vec3{X: 21}}) {
		t.Error("far box should not intersect")
	}
}

func TestCutoutEarlyReject(t *testing.T) {
	c := unitBox()

	tests := []struct {
		name    string
		a, b, d math.Vec3
	}{
		{"beyond +X", math.Vec3{X: 2}, math.Vec3{X: 3}, math.Vec3{X: 2, Y: 1}},
		{"below -Z", math.Vec3{Z: -2}, math.Vec3{X: 1, Z: -3}, math.Vec3{Y: 1, Z: -2}},
		{"beyond +Y", math.Vec3{Y: 5}, math.Vec3{X: 1, Y: 5}, math.Vec3{X: 0.5, Y: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := triangleView(t, geometry.SpanProps{}, tt.a, tt.b, tt.d)
			polys, ok := c.Cutout(v, nil)
			if ok || len(polys) != 0 {
				t.Errorf("expected rejection, got %d polys", len(polys))
			}
		})
	}
}

func TestCutoutInsideTriangleUnchanged(t *testing.T) {
	c := unitBox()
	a := math.Vec3{X: -0.5, Y: -0.5}
	b := math.Vec3{X: 0.5, Y: -0.5}
	d := math.Vec3{X: 0, Y: 0.5}
	v := triangleView(t, geometry.SpanProps{HasAlpha: true}, a, b, d)

	polys, ok := c.Cutout(v, nil)
	if !ok || len(polys) != 1 {
		t.Fatalf("expected one polygon, got %d", len(polys))
	}
	p := polys[0]
	if !p.BaseHasAlpha {
		t.Error("expected BaseHasAlpha to follow span props")
	}
	if len(p.Verts) != 3 {
		t.Fatalf("expected 3 verts, got %d", len(p.Verts))
	}
	for i, want := range []math.Vec3{a, b, d} {
		if !p.Verts[i].Pos.ApproxEqual(want, eps) {
			t.Errorf("vert %d = %v, want %v", i, p.Verts[i].Pos, want)
		}
		if p.Verts[i].UVW != c.UVW(want) {
			t.Errorf("vert %d UVW = %v, want %v", i, p.Verts[i].UVW, c.UVW(want))
		}
	}
}

func TestClipIdempotent(t *testing.T) {
	c := unitBox()
	v := triangleView(t, geometry.SpanProps{},
		math.Vec3{X: -0.8, Y: -0.6, Z: 0.2}, math.Vec3{X: 0.7, Y: -0.4}, math.Vec3{X: 0.1, Y: 0.9, Z: -0.3})

	polys, _ := c.Cutout(v, nil)
	if len(polys) != 1 {
		t.Fatalf("expected one polygon, got %d", len(polys))
	}
	first := polys[0].Verts

	for pass := 0; pass < 2; pass++ {
		c.bufA = append(c.bufA[:0], first...)
		again := c.clipBox()
		if len(again) != len(first) {
			t.Fatalf("pass %d changed vertex count %d -> %d", pass, len(first), len(again))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Errorf("pass %d vert %d changed: %+v -> %+v", pass, i, first[i], again[i])
			}
		}
	}
}

func TestCutoutLargeTriangle(t *testing.T) {
	c := unitBox()
	v := triangleView(t, geometry.SpanProps{},
		math.Vec3{X: -10, Y: -10}, math.Vec3{X: 10, Y: -10}, math.Vec3{X: 10, Y: 10})

	polys, ok := c.Cutout(v, nil)
	if !ok || len(polys) != 1 {
		t.Fatalf("expected one polygon, got %d", len(polys))
	}
	p := polys[0]
	if n := len(p.Verts); n < 3 || n > 5 {
		t.Errorf("expected 3..5 verts, got %d", n)
	}
	for i, vert := range p.Verts {
		if vert.UVW.X < -eps || vert.UVW.X > 1+eps || vert.UVW.Y < -eps || vert.UVW.Y > 1+eps {
			t.Errorf("vert %d UVW %v outside [0,1]", i, vert.UVW)
		}
		if math32.Abs(vert.UVW.Z-0.5) > eps {
			t.Errorf("vert %d depth = %v, want 0.5", i, vert.UVW.Z)
		}
		if math32.Abs(vert.Pos.X) > 1+eps || math32.Abs(vert.Pos.Y) > 1+eps {
			t.Errorf("vert %d at %v outside box", i, vert.Pos)
		}
		if !vert.Norm.ApproxEqual(math.UnitZ, eps) {
			t.Errorf("vert %d normal = %v", i, vert.Norm)
		}
	}

	nv, ni := CountPolys(polys)
	if nv != len(p.Verts) || ni != (len(p.Verts)-2)*3 {
		t.Errorf("CountPolys() = %d, %d", nv, ni)
	}
}

func TestCutoutTransformedSource(t *testing.T) {
	c := unitBox()
	mesh := geometry.NewMesh("moved", geometry.MeshSpan{
		Storage: &geometry.MeshStorage{
			Positions: []math.Vec3{{X: 9.5, Y: -0.5}, {X: 10.5, Y: -0.5}, {X: 10, Y: 0.5}},
			Indices:   []uint16{0, 1, 2},
		},
		Loaded: true,
	})
	mesh.SetTransform(math.Translate(-10, 0, 0))

	acc := geometry.NewAccessor()
	v, ok := acc.OpenReadOnly(mesh, 0)
	if !ok {
		t.Fatal("open failed")
	}
	defer acc.Close(v)

	polys, ok := c.Cutout(v, nil)
	if !ok || len(polys) != 1 || len(polys[0].Verts) != 3 {
		t.Fatalf("expected translated triangle inside box, got %+v", polys)
	}
	if got := polys[0].Verts[0].Pos; !got.ApproxEqual(math.Vec3{X: -0.5, Y: -0.5}, eps) {
		t.Errorf("first vertex = %v", got)
	}
}

func TestCutoutDeadView(t *testing.T) {
	c := unitBox()
	if polys, ok := c.Cutout(nil, nil); ok || len(polys) != 0 {
		t.Error("nil view should produce nothing")
	}

	mesh := geometry.NewMesh("tri", geometry.MeshSpan{
		Storage: &geometry.MeshStorage{
			Positions: []math.Vec3{{X: -0.5}, {X: 0.5}, {Y: 0.5}},
			Indices:   []uint16{0, 1, 2},
		},
		Loaded: true,
	})
	acc := geometry.NewAccessor()
	v, ok := acc.OpenReadOnly(mesh, 0)
	if !ok {
		t.Fatal("open failed")
	}
	acc.DeInit()

	if polys, ok := c.Cutout(v, nil); ok || len(polys) != 0 {
		t.Errorf("view of a torn-down accessor should produce nothing, got %d polys", len(polys))
	}
}

func TestCutoutConstHeight(t *testing.T) {
	c := unitBox()
	// A slanted triangle flattened onto z = 0.25 along BackDir (+Z).
	v := triangleView(t, geometry.SpanProps{},
		math.Vec3{X: -0.5, Y: -0.5, Z: -5}, math.Vec3{X: 0.5, Y: -0.5, Z: 5}, math.Vec3{Y: 0.5, Z: 3})

	polys, ok := c.CutoutConstHeight(v, 0.25, nil)
	if !ok || len(polys) != 1 {
		t.Fatalf("expected one polygon, got %d", len(polys))
	}
	for i, vert := range polys[0].Verts {
		if math32.Abs(vert.Pos.Z-0.25) > eps {
			t.Errorf("vert %d z = %v, want 0.25", i, vert.Pos.Z)
		}
		if !vert.Norm.ApproxEqual(c.BackDir(), eps) {
			t.Errorf("vert %d normal = %v, want BackDir", i, vert.Norm)
		}
	}
}

func TestCutoutGrid(t *testing.T) {
	c := unitBox()
	g := c.CutoutGrid(2, 3)

	if g.NumU != 3 || g.NumV != 4 {
		t.Fatalf("grid dims = %dx%d, want 3x4", g.NumU, g.NumV)
	}
	if len(g.Verts) != 12 {
		t.Errorf("expected 12 verts, got %d", len(g.Verts))
	}
	if len(g.Indices) != 2*3*6 {
		t.Errorf("expected 36 indices, got %d", len(g.Indices))
	}
	if !g.Verts[0].Pos.ApproxEqual(math.Vec3{X: -1, Y: -1}, eps) {
		t.Errorf("first vert = %v", g.Verts[0].Pos)
	}
	last := g.Verts[len(g.Verts)-1]
	if !last.Pos.ApproxEqual(math.Vec3{X: 1, Y: 1}, eps) || last.UVW != (math.Vec3{X: 1, Y: 1, Z: 0.5}) {
		t.Errorf("last vert = %+v", last)
	}
	for _, idx := range g.Indices {
		if int(idx) >= len(g.Verts) {
			t.Fatalf("index %d out of range", idx)
		}
	}

	if g := c.CutoutGrid(0, -1); g.NumU != 2 || g.NumV != 2 {
		t.Errorf("degenerate request should clamp to one cell, got %dx%d", g.NumU, g.NumV)
	}
}

func TestFindHitPoints(t *testing.T) {
	c := unitBox()
	v := triangleView(t, geometry.SpanProps{},
		math.Vec3{X: -10, Y: -10}, math.Vec3{X: 10, Y: -10}, math.Vec3{Y: 10})
	polys, _ := c.Cutout(v, nil)

	hits, ok := c.FindHitPoints(polys, nil)
	if !ok || len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if !hits[0].Pos.ApproxEqual(math.Vec3{}, eps) {
		t.Errorf("hit at %v, want origin", hits[0].Pos)
	}
	if !hits[0].Norm.ApproxEqual(math.UnitZ, eps) {
		t.Errorf("hit normal = %v", hits[0].Norm)
	}

	hits, ok = c.FindHitPointsConstHeight(polys, 0.75, nil)
	if !ok || len(hits) != 1 {
		t.Fatalf("expected one const-height hit, got %d", len(hits))
	}
	if !hits[0].Pos.ApproxEqual(math.Vec3{Z: 0.75}, eps) {
		t.Errorf("const-height hit at %v, want (0, 0, 0.75)", hits[0].Pos)
	}
	if !hits[0].Norm.ApproxEqual(math.UnitZ, eps) {
		t.Errorf("const-height hit normal = %v, want +Z", hits[0].Norm)
	}
}

func TestFindHitPointsMissesOffCenter(t *testing.T) {
	c := unitBox()
	v := triangleView(t, geometry.SpanProps{},
		math.Vec3{X: 0.2, Y: 0.2}, math.Vec3{X: 0.9, Y: 0.2}, math.Vec3{X: 0.2, Y: 0.9})
	polys, _ := c.Cutout(v, nil)
	if len(polys) != 1 {
		t.Fatalf("expected one polygon, got %d", len(polys))
	}

	if hits, ok := c.FindHitPoints(polys, nil); ok || len(hits) != 0 {
		t.Errorf("polygon off the center line should not hit, got %+v", hits)
	}
}
