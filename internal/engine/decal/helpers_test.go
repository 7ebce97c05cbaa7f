package decal

import (
	"testing"

	"github.com/Faultbox/dynadecal/internal/config"
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/pkg/math"
)

func testConfig() config.DecalConfig {
	return config.Default().Decal
}

func newTestManager(t *testing.T, cfg config.DecalConfig) (*Manager, *vertexbuffer.MemoryDevice) {
	t.Helper()
	dev := vertexbuffer.NewMemoryDevice()
	m, err := New(cfg, Options{
		Key:      "test",
		Accessor: geometry.NewAccessor(),
		Pool:     vertexbuffer.NewPool(dev),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m, dev
}

func groundHost(key string, props geometry.SpanProps) *geometry.Mesh {
	return geometry.NewMesh(key, geometry.MeshSpan{
		Storage: geometry.BuildGround(10, 2, 0),
		Props:   props,
		Loaded:  true,
	})
}

// checkAuxInvariants verifies every span's live range against capacity.
func checkAuxInvariants(t *testing.T, m *Manager) {
	t.Helper()
	for _, aux := range m.aux {
		lv, li := aux.Live()
		vt, it := aux.Tail()
		if lv < 0 || li < 0 || vt > aux.MaxVerts() || it > aux.MaxIndices() {
			t.Fatalf("aux %d out of bounds: live %d/%d tail %d/%d cap %d/%d",
				aux.index, lv, li, vt, it, aux.MaxVerts(), aux.MaxIndices())
		}
		if (lv == 0) != (li == 0) {
			t.Fatalf("aux %d live verts %d but live indices %d", aux.index, lv, li)
		}
	}
}

type countingEmitter struct {
	calls     int
	particles int
	last      math.Vec3
}

func (e *countingEmitter) Emit(pos, dir math.Vec3, count int, t float64) {
	e.calls++
	e.particles += count
	e.last = pos
}
