// Package decal manages dynamic decals: it cuts footprints and ripples out
// of target geometry, packs them into recyclable aux spans, ages them, and
// tracks the wetness of the parts that leave them.
package decal

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/config"
	"github.com/Faultbox/dynadecal/internal/engine/cutter"
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/internal/logger"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// ParticleEmitter spawns particles at decal contact points.
type ParticleEmitter interface {
	Emit(pos, dir math.Vec3, count int, t float64)
}

// Resolver looks up collaborators by key.
type Resolver interface {
	Material(key string) (*Material, bool)
	Target(key string) (geometry.AuxHost, bool)
	ParticleSystem(key string) (ParticleEmitter, bool)
}

// Options wires a Manager to its collaborators. Zero fields get defaults.
type Options struct {
	Key      string             // Name used in notifications and logs
	Accessor *geometry.Accessor // Defaults to geometry.Global, then a private accessor
	Pool     *vertexbuffer.Pool // Defaults to an in-memory pool
	Resolver Resolver
	Notifier Notifier
}

// Manager is a dynamic decal manager. It is not safe for concurrent use;
// one simulation thread drives it.
type Manager struct {
	key string
	id  uuid.UUID
	cfg config.DecalConfig
	log *zap.Logger

	access   *geometry.Accessor
	pool     *vertexbuffer.Pool
	resolver Resolver
	notifier Notifier
	cutter   *cutter.Cutter

	matPreShade *Material
	matRTShade  *Material
	targets     []geometry.AuxHost
	targetKeys  []string // Persisted target keys, resolved or not
	partyKeys   []string
	particles   []ParticleEmitter
	notifies    []string

	aux    []*AuxSpan // Arena; slots are never reused
	free   []int      // Unattached spans
	decals decalList
	infos  map[string]*DecalInfo
	parts  []*DecalInfo // infos in creation order

	polys []cutter.Poly
	hits  []cutter.Hit
}

// New creates a manager. Unless NoInitAlloc is set, InitAuxSpans spans are
// allocated into the free pool up front.
func New(cfg config.DecalConfig, opts Options) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Accessor == nil {
		opts.Accessor = geometry.Global()
	}
	if opts.Accessor == nil {
		opts.Accessor = geometry.NewAccessor()
	}
	if opts.Pool == nil {
		opts.Pool = vertexbuffer.NewPool(vertexbuffer.NewMemoryDevice())
	}
	if opts.Key == "" {
		opts.Key = "dynadecal"
	}

	m := &Manager{
		key:      opts.Key,
		id:       uuid.New(),
		cfg:      cfg,
		access:   opts.Accessor,
		pool:     opts.Pool,
		resolver: opts.Resolver,
		notifier: opts.Notifier,
		cutter:   cutter.New(),
		decals:   newDecalList(),
		infos:    make(map[string]*DecalInfo),
	}
	m.log = logger.Manager(m.key, m.id)
	m.applyScale()

	if !cfg.NoInitAlloc {
		for i := 0; i < cfg.InitAuxSpans; i++ {
			aux, err := m.allocAuxSpan()
			if err != nil {
				return nil, fmt.Errorf("pre-allocating aux spans: %w", err)
			}
			m.free = append(m.free, aux.index)
		}
	}

	m.log.Info("decal manager created",
		zap.Int("max_verts", cfg.MaxVerts),
		zap.Int("max_indices", cfg.MaxIndices),
		zap.Int("preallocated", len(m.free)),
	)
	return m, nil
}

// ID returns the owner token stamped on aux span references.
func (m *Manager) ID() uuid.UUID { return m.id }

// Key returns the manager name.
func (m *Manager) Key() string { return m.key }

// Config returns the active tuning.
func (m *Manager) Config() config.DecalConfig { return m.cfg }

// SetConfig replaces the tuning. Live decals keep their storage; new
// limits apply to later allocations.
func (m *Manager) SetConfig(cfg config.DecalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.cfg = cfg
	m.applyScale()
	m.log.Info("tuning updated",
		zap.Int("max_verts", cfg.MaxVerts),
		zap.Float32("life_span", cfg.LifeSpan),
	)
	return nil
}

// Cutter returns the manager's cutter volume.
func (m *Manager) Cutter() *cutter.Cutter { return m.cutter }

// AuxSpan returns the span in an arena slot.
func (m *Manager) AuxSpan(index int) *AuxSpan { return m.aux[index] }

// Decal returns the decal in a list slot.
func (m *Manager) Decal(slot int) *Decal { return m.decals.get(slot) }

// SetMaterials sets the pre-shade and runtime-shade materials. Either may
// be nil.
func (m *Manager) SetMaterials(preShade, rtShade *Material) {
	m.matPreShade = preShade
	m.matRTShade = rtShade
}

// AddTarget adds a renderable decals are cut from.
func (m *Manager) AddTarget(host geometry.AuxHost) {
	m.targetKeys = editKeys(m.targetKeys, RefAdd, host.Key())
	for _, t := range m.targets {
		if t.Key() == host.Key() {
			return
		}
	}
	m.targets = append(m.targets, host)
}

// AddParticleSystem adds an emitter fed from decal hit points.
func (m *Manager) AddParticleSystem(e ParticleEmitter) {
	m.particles = append(m.particles, e)
}

// AddNotify adds a wetness listener.
func (m *Manager) AddNotify(listener string) {
	m.notifies = editKeys(m.notifies, RefAdd, listener)
}

func (m *Manager) applyScale() {
	s := m.cfg.Scale
	m.cutter.SetLength(s[0], s[1], s[2])
}

// Flush uploads every dirty storage range to the device.
func (m *Manager) Flush() error {
	return m.pool.Flush()
}

// Stats is a snapshot of manager occupancy.
type Stats struct {
	Decals      int
	AuxSpans    int
	Attached    int
	Free        int
	LiveVerts   int
	LiveIndices int
	Parts       int
}

// Stats reports current occupancy.
func (m *Manager) Stats() Stats {
	s := Stats{
		Decals:   m.decals.len(),
		AuxSpans: len(m.aux),
		Free:     len(m.free),
		Parts:    len(m.infos),
	}
	for _, aux := range m.aux {
		if aux.host != nil {
			s.Attached++
		}
		s.LiveVerts += aux.vLength
		s.LiveIndices += aux.iLength
	}
	return s
}
