package decal

import "github.com/Faultbox/dynadecal/internal/engine/geometry"

// Blend is a material's framebuffer blend mode.
type Blend uint8

// Blend modes.
const (
	BlendAlpha Blend = iota
	BlendAdd
	BlendMult
)

// Material is the subset of a decal material the manager inspects.
type Material struct {
	Key          string
	VertexShader bool // A vertex program computes decay on the GPU
	Blend        Blend
	OverrideLit  bool // Forces its own lighting model
}

// Style selects how decal vertices are colorized. Exactly one bit is set
// on an aux span.
type Style uint8

// Rendering styles, highest priority first.
const (
	StyleVS Style = 1 << iota
	StyleAttenColor
	StyleOverrideLit
	StyleRTLit
	StylePreShaded
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleVS:
		return "vertex-shader"
	case StyleAttenColor:
		return "atten-color"
	case StyleOverrideLit:
		return "override-lit"
	case StyleRTLit:
		return "rt-lit"
	case StylePreShaded:
		return "pre-shaded"
	default:
		return "none"
	}
}

// colorize reports which conversion writes decals for this style.
func (s Style) colorize() colorizer {
	switch s {
	case StyleVS:
		return colorizeVS
	case StyleAttenColor, StyleOverrideLit:
		return colorizeColor
	default:
		return colorizeAlpha
	}
}

type colorizer uint8

const (
	colorizeAlpha colorizer = iota
	colorizeColor
	colorizeVS
)

// pickMaterial returns the material a host span gets: runtime-lit hosts
// use the runtime-shade material when one is set.
func (m *Manager) pickMaterial(props geometry.SpanProps) *Material {
	if props.RuntimeLit && m.matRTShade != nil {
		return m.matRTShade
	}
	return m.matPreShade
}

// styleFor applies the style priority to a material on a host span.
func styleFor(mat *Material, props geometry.SpanProps) Style {
	switch {
	case mat != nil && mat.VertexShader:
		return StyleVS
	case mat != nil && (mat.Blend == BlendAdd || mat.Blend == BlendMult):
		return StyleAttenColor
	case (mat != nil && mat.OverrideLit) || props.OverrideLit:
		return StyleOverrideLit
	case props.RuntimeLit:
		return StyleRTLit
	default:
		return StylePreShaded
	}
}

// setAuxMaterial assigns material and style to a span newly attached to a
// host span.
func (m *Manager) setAuxMaterial(aux *AuxSpan, props geometry.SpanProps) {
	aux.material = m.pickMaterial(props)
	aux.style = styleFor(aux.material, props)
}
