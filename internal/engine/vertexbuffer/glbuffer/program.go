package glbuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/pkg/math"
)

// Decals in the vertex-shader style carry their birth time in uvw0.z and are
// faded here instead of being rewritten by the CPU every tick.
const decayVertexSrc = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec4 aDiffuse;
layout(location = 3) in vec3 aUVW0;
layout(location = 4) in vec3 aUVW1;

uniform mat4 uViewProj;
uniform float uTime;
uniform float uRampEnd;
uniform float uDecayStart;
uniform float uLifeSpan;
uniform float uIntensity;
uniform bool uDecay;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
    float age = uTime - aUVW0.z;
    float atten = 1.0;
    if (!uDecay) {
        atten = 1.0;
    } else if (age < uRampEnd) {
        atten = age / max(uRampEnd, 1e-6);
    } else if (age > uDecayStart) {
        atten = (uLifeSpan - age) / max(uLifeSpan - uDecayStart, 1e-6);
    }
    if (uDecay) {
        atten = clamp(atten, 0.0, 1.0) * uIntensity;
    }

    vTexCoord = aUVW0.xy;
    vColor = vec4(aDiffuse.rgb, aDiffuse.a * atten);
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const decayFragmentSrc = `#version 410 core
in vec2 vTexCoord;
in vec4 vColor;
out vec4 FragColor;

void main() {
    // Round splot without a texture bound.
    vec2 d = vTexCoord - vec2(0.5);
    float edge = 1.0 - smoothstep(0.4, 0.5, length(d));
    FragColor = vec4(vColor.rgb, vColor.a * edge);
}
`

// Aging is the decay timing uploaded to the program. With Decay unset the
// vertex colors are drawn as written by the CPU.
type Aging struct {
	Decay      bool
	RampEnd    float32
	DecayStart float32
	LifeSpan   float32
	Intensity  float32
}

// DecayProgram draws decal cells and fades them by age on the GPU.
type DecayProgram struct {
	program uint32

	locViewProj   int32
	locTime       int32
	locRampEnd    int32
	locDecayStart int32
	locLifeSpan   int32
	locIntensity  int32
	locDecay      int32
}

// NewDecayProgram compiles the decay program. A GL context must be current.
func NewDecayProgram() (*DecayProgram, error) {
	program, err := compileProgram(decayVertexSrc, decayFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("decay program: %w", err)
	}
	return &DecayProgram{
		program:       program,
		locViewProj:   uniform(program, "uViewProj"),
		locTime:       uniform(program, "uTime"),
		locRampEnd:    uniform(program, "uRampEnd"),
		locDecayStart: uniform(program, "uDecayStart"),
		locLifeSpan:   uniform(program, "uLifeSpan"),
		locIntensity:  uniform(program, "uIntensity"),
		locDecay:      uniform(program, "uDecay"),
	}, nil
}

// Use binds the program with the given camera and aging at time t.
func (p *DecayProgram) Use(viewProj math.Mat4, t float64, a Aging) {
	gl.UseProgram(p.program)
	gl.UniformMatrix4fv(p.locViewProj, 1, false, &viewProj[0])
	gl.Uniform1f(p.locTime, float32(t))
	gl.Uniform1f(p.locRampEnd, a.RampEnd)
	gl.Uniform1f(p.locDecayStart, a.DecayStart)
	gl.Uniform1f(p.locLifeSpan, a.LifeSpan)
	gl.Uniform1f(p.locIntensity, a.Intensity)
	decay := int32(0)
	if a.Decay {
		decay = 1
	}
	gl.Uniform1i(p.locDecay, decay)
}

// Delete frees the GL program.
func (p *DecayProgram) Delete() {
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}

// BeginFrame clears the framebuffer and sets up alpha blending.
func (d *Device) BeginFrame(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0.35, 0.3, 0.25, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// DrawCell draws the triangles of a reserved cell. Indices are absolute
// within the cell's group.
func (d *Device) DrawCell(c vertexbuffer.Cell) error {
	if c.Index.Empty() {
		return nil
	}
	b, ok := d.buffers[c.Group]
	if !ok {
		return ErrUnknownGroup
	}
	gl.BindVertexArray(b.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(c.Index.Count), gl.UNSIGNED_SHORT,
		uintptr(c.Index.Start*vertexbuffer.IndexSize))
	gl.BindVertexArray(0)
	return nil
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", programLog(program))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}
	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := make([]byte, logLen+1)
	gl.GetProgramInfoLog(program, logLen, nil, &log[0])
	return gl.GoStr(&log[0])
}

// uniform returns -1 for inactive uniforms, which GL ignores on upload.
func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
