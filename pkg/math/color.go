package math

// Color is a linear RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float32
}

// White is opaque white.
var White = Color{1, 1, 1, 1}

// Lerp interpolates between c and other.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		c.R + (other.R-c.R)*t,
		c.G + (other.G-c.G)*t,
		c.B + (other.B-c.B)*t,
		c.A + (other.A-c.A)*t,
	}
}

// ARGB packs the color as 0xAARRGGBB.
func (c Color) ARGB() uint32 {
	return uint32(toByte(c.A))<<24 | uint32(toByte(c.R))<<16 | uint32(toByte(c.G))<<8 | uint32(toByte(c.B))
}

// ColorFromARGB unpacks a 0xAARRGGBB value.
func ColorFromARGB(argb uint32) Color {
	return Color{
		R: float32((argb>>16)&0xff) / 255,
		G: float32((argb>>8)&0xff) / 255,
		B: float32(argb&0xff) / 255,
		A: float32(argb>>24) / 255,
	}
}

// WithAlphaByte replaces the alpha byte of a packed 0xAARRGGBB color.
func WithAlphaByte(argb uint32, a uint8) uint32 {
	return argb&0x00ffffff | uint32(a)<<24
}

// GrayARGB returns an opaque gray 0xffLLLLLL with the given level.
func GrayARGB(level uint8) uint32 {
	l := uint32(level)
	return 0xff000000 | l<<16 | l<<8 | l
}

// UnitToByte converts v in [0,1] to a byte, clamping out-of-range input.
func UnitToByte(v float32) uint8 {
	return toByte(v)
}

func toByte(v float32) uint8 {
	return uint8(Clamp(v, 0, 1) * 255.99)
}
