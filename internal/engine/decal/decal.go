package decal

import (
	"fmt"

	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Kind selects a decal's aging behavior.
type Kind uint8

// Decal kinds.
const (
	KindSplot  Kind = iota // Clipped from geometry; fades in and out
	KindRipple             // Flat grid; fades out while its ring grows
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindRipple {
		return "ripple"
	}
	return "splot"
}

// Flags record how a decal's vertices are attenuated.
type Flags uint8

// Decal flags.
const (
	FlagFresh      Flags = 1 << iota // Created this tick; not aged yet
	FlagVS                           // Decay computed by a vertex program
	FlagAttenColor                   // Opacity carried in vertex color
)

// Decal is a range of one aux span's live vertices and indices.
type Decal struct {
	aux    int // Arena slot of the aux span
	vStart int // Relative to the aux reservation
	vCount int
	iStart int
	iCount int

	birth     float64
	flags     Flags
	kind      Kind
	intensity float32

	// Intrusive list links, arena slots or -1.
	prev, next int
}

// Aux returns the arena slot of the decal's aux span.
func (d *Decal) Aux() int { return d.aux }

// Birth returns the creation time.
func (d *Decal) Birth() float64 { return d.birth }

// Kind returns the decal kind.
func (d *Decal) Kind() Kind { return d.kind }

// Flags returns the decal flags.
func (d *Decal) Flags() Flags { return d.flags }

// Verts returns the vertex range relative to the aux reservation.
func (d *Decal) Verts() vertexbuffer.Range {
	return vertexbuffer.Range{Start: d.vStart, Count: d.vCount}
}

// Indices returns the index range relative to the aux reservation.
func (d *Decal) Indices() vertexbuffer.Range {
	return vertexbuffer.Range{Start: d.iStart, Count: d.iCount}
}

// decalList owns decals in an arena. Live decals form a doubly linked
// list in creation order; retired slots are recycled.
type decalList struct {
	nodes      []Decal
	free       []int
	head, tail int
	n          int
}

func newDecalList() decalList {
	return decalList{head: -1, tail: -1}
}

func (l *decalList) len() int { return l.n }

func (l *decalList) get(i int) *Decal { return &l.nodes[i] }

// pushBack stores d at the end of the list and returns its slot.
func (l *decalList) pushBack(d Decal) int {
	var slot int
	if n := len(l.free); n > 0 {
		slot = l.free[n-1]
		l.free = l.free[:n-1]
	} else {
		slot = len(l.nodes)
		l.nodes = append(l.nodes, Decal{})
	}
	d.prev, d.next = l.tail, -1
	l.nodes[slot] = d
	if l.tail >= 0 {
		l.nodes[l.tail].next = slot
	} else {
		l.head = slot
	}
	l.tail = slot
	l.n++
	return slot
}

// remove unlinks slot and recycles it.
func (l *decalList) remove(slot int) {
	d := &l.nodes[slot]
	if d.prev >= 0 {
		l.nodes[d.prev].next = d.next
	} else {
		l.head = d.next
	}
	if d.next >= 0 {
		l.nodes[d.next].prev = d.prev
	} else {
		l.tail = d.prev
	}
	*d = Decal{prev: -1, next: -1}
	l.free = append(l.free, slot)
	l.n--
}

// InitDecal appends a decal of numVerts and numIdx at the aux span's tail
// and returns its slot. Overrunning the span's capacity panics.
func (m *Manager) InitDecal(aux *AuxSpan, t float64, numVerts, numIdx int, kind Kind) int {
	if !aux.HasRoom(numVerts, numIdx) {
		panic(fmt.Sprintf("decal: aux span %d overrun: %d+%d verts of %d, %d+%d indices of %d",
			aux.index, aux.vStart+aux.vLength, numVerts, aux.MaxVerts(),
			aux.iStart+aux.iLength, numIdx, aux.MaxIndices()))
	}

	vt, it := aux.Tail()
	d := Decal{
		aux:       aux.index,
		vStart:    vt,
		vCount:    numVerts,
		iStart:    it,
		iCount:    numIdx,
		birth:     t,
		flags:     FlagFresh,
		kind:      kind,
		intensity: m.cfg.Intensity,
	}
	switch aux.style.colorize() {
	case colorizeVS:
		d.flags |= FlagVS
	case colorizeColor:
		d.flags |= FlagAttenColor
	}

	aux.vLength += numVerts
	aux.iLength += numIdx

	g := aux.cell.Group
	g.MarkVertsDirty(vertexbuffer.Range{Start: aux.cell.Verts.Start + vt, Count: numVerts})
	g.MarkIndicesDirty(vertexbuffer.Range{Start: aux.cell.Index.Start + it, Count: numIdx})

	return m.decals.pushBack(d)
}

// KillDecal retires the decal in slot by advancing its aux span's head.
// Decals of one span must retire in creation order; anything else panics.
// A span emptied this way resets its head and returns to the free pool.
func (m *Manager) KillDecal(slot int) {
	d := m.decals.get(slot)
	aux := m.aux[d.aux]
	if d.vStart != aux.vStart || d.iStart != aux.iStart {
		panic(fmt.Sprintf("decal: out-of-order retirement on aux span %d: decal at %d/%d, head at %d/%d",
			aux.index, d.vStart, d.iStart, aux.vStart, aux.iStart))
	}

	aux.vStart += d.vCount
	aux.vLength -= d.vCount
	aux.iStart += d.iCount
	aux.iLength -= d.iCount
	m.decals.remove(slot)

	if aux.vLength == 0 || aux.iLength == 0 {
		if aux.vLength != aux.iLength {
			panic(fmt.Sprintf("decal: aux span %d has %d live verts but %d live indices",
				aux.index, aux.vLength, aux.iLength))
		}
		aux.vStart, aux.iStart = 0, 0
		m.release(aux)
	}
}

// UpdateDecals ages every live decal at time t, retires the expired ones,
// and marks spans that still hold decals for re-upload.
func (m *Manager) UpdateDecals(t float64) {
	for slot := m.decals.head; slot >= 0; {
		d := m.decals.get(slot)
		next := d.next

		if d.flags&FlagFresh != 0 {
			d.flags &^= FlagFresh
			m.ageDecal(d, t)
		} else if !m.ageDecal(d, t) {
			m.KillDecal(slot)
		}
		slot = next
	}

	for _, aux := range m.aux {
		aux.markLiveDirty()
	}
}

// ageDecal rewrites the decal's attenuated vertices for time t and reports
// whether it is still alive.
func (m *Manager) ageDecal(d *Decal, t float64) bool {
	atten, alive := m.age(d, t)
	if !alive {
		return false
	}
	if d.flags&FlagVS != 0 {
		return true
	}

	aux := m.aux[d.aux]
	if d.kind == KindRipple {
		m.scaleRipple(aux, d, t)
	}
	for i := d.vStart; i < d.vStart+d.vCount; i++ {
		opac := aux.origUVW[i].Z * atten
		v := aux.vert(i)
		if d.flags&FlagAttenColor != 0 {
			v.Diffuse = math.GrayARGB(math.UnitToByte(opac))
		} else {
			v.Diffuse = math.WithAlphaByte(v.Diffuse, math.UnitToByte(opac))
		}
	}
	return true
}

// age returns the decal's attenuation at time t, and false once it has
// expired. Expiry is permanent: a decal dead at t is dead at every later
// time.
func (m *Manager) age(d *Decal, t float64) (float32, bool) {
	age := float32(t - d.birth)
	life := m.cfg.LifeSpan
	if age >= life {
		return 0, false
	}
	if age < 0 {
		age = 0
	}

	var atten float32
	switch d.kind {
	case KindRipple:
		atten = 1 - age/life
	default:
		switch {
		case age < m.cfg.RampEnd:
			atten = age / m.cfg.RampEnd
		case age > m.cfg.DecayStart:
			atten = (life - age) / (life - m.cfg.DecayStart)
		default:
			atten = 1
		}
	}
	return math.Clamp(atten*d.intensity, 0, 1), true
}

// scaleRipple grows the ripple ring by shrinking its UVs about the center.
func (m *Manager) scaleRipple(aux *AuxSpan, d *Decal, t float64) {
	frac := math.Clamp(float32(t-d.birth)/m.cfg.LifeSpan, 0, 1)
	scale := math.Lerp(m.cfg.RippleInitScale, m.cfg.RippleFinalScale, frac)
	if scale <= 0 {
		return
	}
	inv := 1 / scale
	for i := d.vStart; i < d.vStart+d.vCount; i++ {
		orig := aux.origUVW[i]
		v := aux.vert(i)
		v.UVW[0].X = 0.5 + (orig.X-0.5)*inv
		v.UVW[0].Y = 0.5 + (orig.Y-0.5)*inv
	}
}
