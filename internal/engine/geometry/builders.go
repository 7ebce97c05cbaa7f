package geometry

import "github.com/Faultbox/dynadecal/pkg/math"

// BuildGround creates a flat tessellated ground storage of segs x segs quads
// covering [-size/2, size/2] in X and Y at the given Z height, facing +Z.
func BuildGround(size float32, segs int, height float32) *MeshStorage {
	if segs < 1 {
		segs = 1
	}
	stride := segs + 1
	step := size / float32(segs)
	half := size / 2

	m := &MeshStorage{}
	for y := 0; y < stride; y++ {
		for x := 0; x < stride; x++ {
			m.Positions = append(m.Positions, math.Vec3{
				X: -half + float32(x)*step,
				Y: -half + float32(y)*step,
				Z: height,
			})
			m.Normals = append(m.Normals, math.UnitZ)
			m.UVWs = append(m.UVWs, math.Vec3{X: float32(x) / float32(segs), Y: float32(y) / float32(segs)})
		}
	}

	for y := 0; y < segs; y++ {
		for x := 0; x < segs; x++ {
			bl := uint16(y*stride + x)
			br := bl + 1
			tl := bl + uint16(stride)
			tr := tl + 1
			// Two triangles per quad, counter-clockwise seen from +Z
			m.Indices = append(m.Indices,
				bl, br, tr,
				bl, tr, tl,
			)
		}
	}
	return m
}

// BuildWaterPlane creates a single quad at a constant height covering the
// given bounds, extended by padding on every side.
func BuildWaterPlane(minX, maxX, minY, maxY, height, padding float32) *MeshStorage {
	minX -= padding
	maxX += padding
	minY -= padding
	maxY += padding

	// Order: BL, BR, TR, TL
	return &MeshStorage{
		Positions: []math.Vec3{
			{X: minX, Y: minY, Z: height},
			{X: maxX, Y: minY, Z: height},
			{X: maxX, Y: maxY, Z: height},
			{X: minX, Y: maxY, Z: height},
		},
		Normals: []math.Vec3{math.UnitZ, math.UnitZ, math.UnitZ, math.UnitZ},
		Colors: []math.Color{
			{R: 0.2, G: 0.4, B: 0.6, A: 0.6},
			{R: 0.2, G: 0.4, B: 0.6, A: 0.6},
			{R: 0.2, G: 0.4, B: 0.6, A: 0.6},
			{R: 0.2, G: 0.4, B: 0.6, A: 0.6},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// DefaultWaterPadding extends water planes beyond the area they cover.
const DefaultWaterPadding = 50.0
