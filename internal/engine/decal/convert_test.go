package decal

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/dynadecal/internal/engine/cutter"
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/pkg/math"
)

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name  string
		mat   *Material
		props geometry.SpanProps
		want  Style
	}{
		{"vertex shader wins", &Material{VertexShader: true, Blend: BlendAdd, OverrideLit: true}, geometry.SpanProps{RuntimeLit: true}, StyleVS},
		{"additive", &Material{Blend: BlendAdd}, geometry.SpanProps{RuntimeLit: true}, StyleAttenColor},
		{"multiplicative", &Material{Blend: BlendMult}, geometry.SpanProps{}, StyleAttenColor},
		{"material override lit", &Material{OverrideLit: true}, geometry.SpanProps{RuntimeLit: true}, StyleOverrideLit},
		{"host override lit", nil, geometry.SpanProps{OverrideLit: true}, StyleOverrideLit},
		{"runtime lit", &Material{}, geometry.SpanProps{RuntimeLit: true}, StyleRTLit},
		{"pre-shaded", nil, geometry.SpanProps{}, StylePreShaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := styleFor(tt.mat, tt.props); got != tt.want {
				t.Errorf("styleFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPickMaterial(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	pre := &Material{Key: "pre"}
	rt := &Material{Key: "rt", VertexShader: true}
	m.SetMaterials(pre, rt)

	if got := m.pickMaterial(geometry.SpanProps{RuntimeLit: true}); got != rt {
		t.Errorf("runtime-lit host got %v", got)
	}
	if got := m.pickMaterial(geometry.SpanProps{}); got != pre {
		t.Errorf("pre-shaded host got %v", got)
	}

	m.SetMaterials(pre, nil)
	if got := m.pickMaterial(geometry.SpanProps{RuntimeLit: true}); got != pre {
		t.Errorf("missing runtime material should fall back, got %v", got)
	}
}

func TestOpacity(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	back := math.UnitZ

	tests := []struct {
		name      string
		depth     float32
		norm      math.Vec3
		alpha     float32
		baseAlpha bool
		want      float32
	}{
		{"mid depth facing", 0.5, math.UnitZ, 1, false, 1},
		{"shallow", 0.1, math.UnitZ, 1, false, 0.4},
		{"deep", 0.9, math.UnitZ, 1, false, 0.4},
		{"grazing", 0.5, math.Vec3{X: 0.927, Z: 0.375}, 1, false, 0.5},
		{"perpendicular", 0.5, math.UnitX, 1, false, 0},
		{"facing away", 0.5, math.UnitZ.Neg(), 1, false, 0},
		{"base alpha", 0.5, math.UnitZ, 0.5, true, 0.5},
		{"base alpha ignored", 0.5, math.UnitZ, 0.5, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cutter.Vert{
				Norm:  tt.norm,
				Color: math.Color{R: 1, G: 1, B: 1, A: tt.alpha},
				UVW:   math.Vec3{X: 0.5, Y: 0.5, Z: tt.depth},
			}
			if got := m.opacity(&v, back, tt.baseAlpha); math32.Abs(got-tt.want) > 1e-3 {
				t.Errorf("opacity = %v, want %v", got, tt.want)
			}
		})
	}
}

// cutGround sets up a manager cutting a flat ground with a unit cutter at
// the origin.
func cutGround(t *testing.T, pre *Material, props geometry.SpanProps) (*Manager, *AuxSpan) {
	t.Helper()
	m, _ := newTestManager(t, testConfig())
	m.SetMaterials(pre, nil)
	host := groundHost("ground", props)
	m.AddTarget(host)
	m.Cutter().SetVolume(math.Vec3{}, math.UnitY, math.UnitZ, false)

	if !m.CutoutTargets(0) {
		t.Fatal("expected a full-coverage hit")
	}
	refs := host.AuxSpans(0)
	if len(refs) != 1 {
		t.Fatalf("expected one attached span, got %v", refs)
	}
	return m, m.AuxSpan(refs[0].Index)
}

func TestConvertPolysAlpha(t *testing.T) {
	m, aux := cutGround(t, nil, geometry.SpanProps{})
	if aux.Style() != StylePreShaded {
		t.Fatalf("style = %s", aux.Style())
	}

	src := aux.Storage()
	if src.NumVerts() == 0 || src.NumTris() == 0 {
		t.Fatalf("expected decal geometry, got %d verts %d tris", src.NumVerts(), src.NumTris())
	}
	for tri := 0; tri < src.NumTris(); tri++ {
		for _, i := range src.Triangle(tri) {
			if int(i) >= src.NumVerts() {
				t.Fatalf("triangle %d index %d out of %d", tri, i, src.NumVerts())
			}
		}
	}
	for i := 0; i < src.NumVerts(); i++ {
		if a := src.Color(i).A; a != 0 {
			t.Fatalf("vert %d alpha = %v before aging, want 0", i, a)
		}
		p := src.Position(i)
		if math32.Abs(p.X) > 0.5+1e-4 || math32.Abs(p.Y) > 0.5+1e-4 || p.Z != 0 {
			t.Fatalf("vert %d at %v outside cutter", i, p)
		}
	}

	m.UpdateDecals(1)
	for i := 0; i < src.NumVerts(); i++ {
		if a := src.Color(i).A; a != 1 {
			t.Errorf("vert %d alpha = %v after aging, want 1", i, a)
		}
	}
}

func TestConvertPolysColor(t *testing.T) {
	m, aux := cutGround(t, &Material{Key: "glow", Blend: BlendAdd}, geometry.SpanProps{})
	if aux.Style() != StyleAttenColor {
		t.Fatalf("style = %s", aux.Style())
	}
	src := aux.Storage()
	if got := src.Color(0); got.R != 0 || got.A != 1 {
		t.Errorf("fresh color = %+v, want opaque black", got)
	}

	m.UpdateDecals(1)
	if got := src.Color(0); got.R != 1 || got.A != 1 {
		t.Errorf("aged color = %+v, want opaque white", got)
	}
}

func TestConvertPolysVS(t *testing.T) {
	m, aux := cutGround(t, &Material{Key: "wave", VertexShader: true}, geometry.SpanProps{})
	if aux.Style() != StyleVS {
		t.Fatalf("style = %s", aux.Style())
	}
	src := aux.Storage()
	before := src.Color(0)

	m.UpdateDecals(5)
	if got := src.Color(0); got != before {
		t.Errorf("vertex-shaded decal should not be touched by aging: %+v -> %+v", before, got)
	}
	if got := src.Color(0); got.A != 1 {
		t.Errorf("alpha = %v, want 1", got.A)
	}
	if m.Decal(m.decals.head).Flags()&FlagVS == 0 {
		t.Error("expected FlagVS")
	}
}

func TestConvertPolysEmpty(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	if m.ConvertPolys(nil, 0, nil) {
		t.Error("empty polygon set should not report a hit")
	}
}

func TestCoverageNeedsAllQuadrants(t *testing.T) {
	poly := func(uvs ...math.Vec3) cutter.Poly {
		p := cutter.Poly{}
		for _, uv := range uvs {
			p.Verts = append(p.Verts, cutter.Vert{UVW: uv})
		}
		return p
	}
	full := []cutter.Poly{poly(math.Vec3{}, math.Vec3{X: 1}, math.Vec3{X: 1, Y: 1}, math.Vec3{Y: 1})}
	if !coverage(full) {
		t.Error("full square should cover all quadrants")
	}
	partial := []cutter.Poly{poly(math.Vec3{}, math.Vec3{X: 1}, math.Vec3{X: 0.5, Y: 0.5})}
	if coverage(partial) {
		t.Error("lower half should not report full coverage")
	}
}
