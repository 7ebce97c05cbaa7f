package decal

import "go.uber.org/zap"

// Msg is a message the manager accepts.
type Msg interface {
	isMsg()
}

// EvalMsg is the per-tick evaluation that ages decals.
type EvalMsg struct {
	Time float64
}

// EnableMsg reports a part touching (or leaving) a wetting surface.
type EnableMsg struct {
	Part       string
	Armature   string
	Time       float64
	WetLength  float32 // Zero uses the configured length
	IsArmature bool
	AtEnd      bool // Contact has ended
}

// AgeLoadedMsg reports the scene age being paged in or out.
type AgeLoadedMsg struct {
	Loaded bool
}

// RefOp adds or removes a reference.
type RefOp uint8

// Reference operations.
const (
	RefAdd RefOp = iota
	RefRemove
)

// RefRole tags what a reference is used for.
type RefRole uint8

// Reference roles.
const (
	RoleMatPreShade RefRole = iota
	RoleMatRTShade
	RoleTarget
	RolePartyObject
	RoleNotify
)

// RefMsg attaches or detaches a collaborator by key.
type RefMsg struct {
	Op   RefOp
	Role RefRole
	Key  string
}

// ObjectGoneMsg reports a scene object being destroyed.
type ObjectGoneMsg struct {
	Key string
}

func (EvalMsg) isMsg()       {}
func (EnableMsg) isMsg()     {}
func (AgeLoadedMsg) isMsg()  {}
func (RefMsg) isMsg()        {}
func (ObjectGoneMsg) isMsg() {}

// MsgReceive dispatches a message and reports whether it was handled.
func (m *Manager) MsgReceive(msg Msg) bool {
	switch msg := msg.(type) {
	case EvalMsg:
		m.UpdateDecals(msg.Time)
		for _, info := range m.parts {
			m.updateActive(info, msg.Time)
		}
		return true

	case EnableMsg:
		info := m.Info(msg.Part)
		info.Owner = msg.Armature
		info.Armature = msg.IsArmature
		info.Wetted = true
		info.WetTime = msg.Time
		info.Immersed = !msg.AtEnd
		if msg.WetLength > 0 {
			info.WetLength = msg.WetLength
		}
		m.updateActive(info, msg.Time)
		return true

	case AgeLoadedMsg:
		if msg.Loaded {
			m.resolveParticles()
		} else {
			m.particles = nil
		}
		return true

	case RefMsg:
		return m.handleRef(msg)

	case ObjectGoneMsg:
		m.dropParts(msg.Key)
		m.removeTarget(msg.Key)
		return true
	}
	return false
}

func (m *Manager) handleRef(msg RefMsg) bool {
	switch msg.Role {
	case RoleMatPreShade, RoleMatRTShade:
		var mat *Material
		if msg.Op == RefAdd {
			var ok bool
			if mat, ok = m.resolveMaterial(msg.Key); !ok {
				return false
			}
		}
		if msg.Role == RoleMatPreShade {
			m.matPreShade = mat
		} else {
			m.matRTShade = mat
		}
		return true

	case RoleTarget:
		if msg.Op == RefRemove {
			m.removeTarget(msg.Key)
			return true
		}
		return m.addTarget(msg.Key)

	case RolePartyObject:
		m.partyKeys = editKeys(m.partyKeys, msg.Op, msg.Key)
		return true

	case RoleNotify:
		m.notifies = editKeys(m.notifies, msg.Op, msg.Key)
		return true
	}

	m.log.Warn("unknown reference role", zap.Uint8("role", uint8(msg.Role)))
	return false
}

func editKeys(keys []string, op RefOp, key string) []string {
	for i, k := range keys {
		if k == key {
			if op == RefRemove {
				return append(keys[:i], keys[i+1:]...)
			}
			return keys
		}
	}
	if op == RefAdd {
		keys = append(keys, key)
	}
	return keys
}
