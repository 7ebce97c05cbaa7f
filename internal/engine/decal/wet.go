package decal

import (
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/pkg/math"
)

// DecalInfo tracks the wetness of one body part.
type DecalInfo struct {
	Part     string
	Owner    string // Scene object the part belongs to
	Armature bool   // Part is a bone of an armature rather than a single shape

	WetTime   float64 // Last contact
	WetLength float32 // Seconds to dry after contact ends
	Wetted    bool
	Immersed  bool // Contact is ongoing
	Active    bool // Last notified state

	lastDecal float64
	hasDecal  bool
}

// WetNotification is sent to listeners when a part starts or stops being
// wet.
type WetNotification struct {
	Target    string // Manager key
	Armature  string
	Part      string
	Time      float64
	WetLength float32
	Enter     bool
}

// Notifier delivers wetness transitions.
type Notifier interface {
	Notify(listener string, n WetNotification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(listener string, n WetNotification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(listener string, n WetNotification) { f(listener, n) }

// Info returns the tracking record of a part, creating it on first use.
func (m *Manager) Info(part string) *DecalInfo {
	info, ok := m.infos[part]
	if !ok {
		info = &DecalInfo{Part: part, WetLength: m.cfg.WetLength}
		m.infos[part] = info
		m.parts = append(m.parts, info)
	}
	return info
}

// dropParts forgets the parts named key or owned by the object key.
func (m *Manager) dropParts(key string) {
	kept := m.parts[:0]
	for _, info := range m.parts {
		if info.Owner == key || info.Part == key {
			delete(m.infos, info.Part)
			continue
		}
		kept = append(kept, info)
	}
	clear(m.parts[len(kept):])
	m.parts = kept
}

// HowWet returns the part's wetness at time t in [0, Intensity]: full while
// immersed, zero if never wetted, otherwise fading linearly to zero over
// WetLength seconds after the last contact. Contacts in the future count
// as full.
func (m *Manager) HowWet(info *DecalInfo, t float64) float32 {
	intensity := m.cfg.Intensity
	if !m.cfg.WaitOnEnable {
		return intensity
	}
	if info == nil || !info.Wetted {
		return 0
	}
	if info.Immersed {
		return intensity
	}
	if info.WetLength <= 0 {
		return 0
	}
	since := float32(t - info.WetTime)
	wet := intensity * (1 - since/info.WetLength)
	return math.Clamp(wet, 0, intensity)
}

// updateActive notifies listeners when the part's wet state flips.
func (m *Manager) updateActive(info *DecalInfo, t float64) {
	active := m.HowWet(info, t) > 0
	if active == info.Active {
		return
	}
	info.Active = active

	m.log.Debug("wetness changed",
		zap.String("part", info.Part),
		zap.Bool("wet", active),
		zap.Float64("t", t),
	)
	if m.notifier == nil {
		return
	}
	n := WetNotification{
		Target:    m.key,
		Armature:  info.Owner,
		Part:      info.Part,
		Time:      t,
		WetLength: info.WetLength,
		Enter:     active,
	}
	for _, l := range m.notifies {
		m.notifier.Notify(l, n)
	}
}
