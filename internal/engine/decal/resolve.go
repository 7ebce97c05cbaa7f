package decal

import (
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/engine/geometry"
)

// Registry is a map-backed Resolver.
type Registry struct {
	Materials map[string]*Material
	Targets   map[string]geometry.AuxHost
	Particles map[string]ParticleEmitter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Materials: make(map[string]*Material),
		Targets:   make(map[string]geometry.AuxHost),
		Particles: make(map[string]ParticleEmitter),
	}
}

// Material implements Resolver.
func (r *Registry) Material(key string) (*Material, bool) {
	m, ok := r.Materials[key]
	return m, ok
}

// Target implements Resolver.
func (r *Registry) Target(key string) (geometry.AuxHost, bool) {
	t, ok := r.Targets[key]
	return t, ok
}

// ParticleSystem implements Resolver.
func (r *Registry) ParticleSystem(key string) (ParticleEmitter, bool) {
	p, ok := r.Particles[key]
	return p, ok
}

func (m *Manager) resolveMaterial(key string) (*Material, bool) {
	if key == "" || m.resolver == nil {
		return nil, false
	}
	mat, ok := m.resolver.Material(key)
	if !ok {
		m.log.Warn("material not found", zap.String("key", key))
	}
	return mat, ok
}

func (m *Manager) addTarget(key string) bool {
	if m.resolver == nil {
		return false
	}
	host, ok := m.resolver.Target(key)
	if !ok {
		m.log.Warn("target not found", zap.String("key", key))
		return false
	}
	m.AddTarget(host)
	return true
}

func (m *Manager) removeTarget(key string) {
	m.targetKeys = editKeys(m.targetKeys, RefRemove, key)
	for i, t := range m.targets {
		if t.Key() == key {
			m.targets = append(m.targets[:i], m.targets[i+1:]...)
			return
		}
	}
}

// resolveParticles looks up every configured party object. Missing ones
// are skipped until the next age load.
func (m *Manager) resolveParticles() {
	m.particles = m.particles[:0]
	if m.resolver == nil {
		return
	}
	for _, key := range m.partyKeys {
		e, ok := m.resolver.ParticleSystem(key)
		if !ok {
			m.log.Warn("particle system not found", zap.String("key", key))
			continue
		}
		m.particles = append(m.particles, e)
	}
}
