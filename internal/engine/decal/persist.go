package decal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/pkg/formats"
)

// ErrNilRecord is returned by Load for a nil record.
var ErrNilRecord = errors.New("nil decal record")

// Load applies a persisted record: tuning replaces the manager's, and
// materials and targets resolve through the manager's Resolver. Party
// objects resolve on the next AgeLoadedMsg. Unresolvable targets are logged
// and skipped for cutting but kept in the record.
func (m *Manager) Load(rec *formats.DynaDecal) error {
	if rec == nil {
		return ErrNilRecord
	}

	cfg := m.cfg
	cfg.MaxVerts = int(rec.MaxVerts)
	cfg.MaxIndices = int(rec.MaxIndices)
	cfg.WaitOnEnable = rec.WaitOnEnable
	cfg.Intensity = rec.Intensity
	cfg.WetLength = rec.WetLength
	cfg.RampEnd = rec.RampEnd
	cfg.DecayStart = rec.DecayStart
	cfg.LifeSpan = rec.LifeSpan
	cfg.GridSizeU = int(rec.GridSizeU)
	cfg.GridSizeV = int(rec.GridSizeV)
	cfg.Scale = rec.Scale
	cfg.PartyTime = rec.PartyTime
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("loading decal record: %w", err)
	}
	m.cfg = cfg
	m.applyScale()

	m.matPreShade, _ = m.resolveMaterial(rec.MatPreShade)
	m.matRTShade, _ = m.resolveMaterial(rec.MatRTShade)

	m.targets = m.targets[:0]
	m.targetKeys = append([]string(nil), rec.Targets...)
	for _, key := range rec.Targets {
		m.addTarget(key)
	}
	m.partyKeys = append([]string(nil), rec.PartyObjects...)
	m.particles = nil
	m.notifies = append([]string(nil), rec.Notifies...)

	m.log.Info("decal record loaded",
		zap.Int("targets", len(m.targets)),
		zap.Int("unresolved_targets", len(m.targetKeys)-len(m.targets)),
		zap.Int("party_objects", len(m.partyKeys)),
		zap.Int("notifies", len(m.notifies)),
	)
	return nil
}

// Record snapshots the manager's persisted state.
func (m *Manager) Record() *formats.DynaDecal {
	rec := &formats.DynaDecal{
		Version:      formats.CurrentDDMVersion,
		MaxVerts:     uint32(m.cfg.MaxVerts),
		MaxIndices:   uint32(m.cfg.MaxIndices),
		WaitOnEnable: m.cfg.WaitOnEnable,
		Intensity:    m.cfg.Intensity,
		WetLength:    m.cfg.WetLength,
		RampEnd:      m.cfg.RampEnd,
		DecayStart:   m.cfg.DecayStart,
		LifeSpan:     m.cfg.LifeSpan,
		GridSizeU:    uint32(m.cfg.GridSizeU),
		GridSizeV:    uint32(m.cfg.GridSizeV),
		Scale:        m.cfg.Scale,
		PartyTime:    m.cfg.PartyTime,
		PartyObjects: append([]string(nil), m.partyKeys...),
		Targets:      append([]string(nil), m.targetKeys...),
		Notifies:     append([]string(nil), m.notifies...),
	}
	if m.matPreShade != nil {
		rec.MatPreShade = m.matPreShade.Key
	}
	if m.matRTShade != nil {
		rec.MatRTShade = m.matRTShade.Key
	}
	return rec
}
