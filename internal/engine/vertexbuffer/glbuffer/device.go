// Package glbuffer implements a vertexbuffer.Device on OpenGL buffer objects.
// All calls must happen on the thread that owns the current GL context.
package glbuffer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/internal/logger"
)

// ErrUnknownGroup is returned when uploading a group that Create never saw.
var ErrUnknownGroup = errors.New("glbuffer: group has no GL storage")

type buffers struct {
	vao uint32
	vbo uint32
	ibo uint32
}

// Device stores each group in a dynamic VBO/IBO pair.
type Device struct {
	buffers map[*vertexbuffer.Group]buffers
	log     *zap.Logger
}

// New initializes the GL function pointers and returns a Device.
// IMPORTANT: Must be called AFTER an OpenGL context is current!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		buffers: make(map[*vertexbuffer.Group]buffers),
		log:     logger.Named("glbuffer"),
	}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return d, nil
}

// Create implements vertexbuffer.Device.
func (d *Device) Create(g *vertexbuffer.Group) error {
	var b buffers

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, g.VertCapacity()*vertexbuffer.VertexSize, nil, gl.DYNAMIC_DRAW)

	gl.GenBuffers(1, &b.ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, g.IndexCapacity()*vertexbuffer.IndexSize, nil, gl.DYNAMIC_DRAW)

	stride := int32(vertexbuffer.VertexSize)
	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)
	// Diffuse (BGRA bytes in memory on little-endian hosts)
	gl.VertexAttribPointerWithOffset(2, gl.BGRA, gl.UNSIGNED_BYTE, true, stride, 24)
	gl.EnableVertexAttribArray(2)
	// UVW channels
	gl.VertexAttribPointerWithOffset(3, 3, gl.FLOAT, false, stride, 28)
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointerWithOffset(4, 3, gl.FLOAT, false, stride, 40)
	gl.EnableVertexAttribArray(4)

	gl.BindVertexArray(0)

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		d.deleteBuffers(b)
		return fmt.Errorf("GL error 0x%x creating buffers", errCode)
	}

	d.buffers[g] = b
	return nil
}

// Upload implements vertexbuffer.Device.
func (d *Device) Upload(g *vertexbuffer.Group, verts, indices vertexbuffer.Range) error {
	b, ok := d.buffers[g]
	if !ok {
		return ErrUnknownGroup
	}

	if !verts.Empty() {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER,
			verts.Start*vertexbuffer.VertexSize,
			verts.Count*vertexbuffer.VertexSize,
			unsafe.Pointer(&g.Verts[verts.Start]))
	}
	if !indices.Empty() {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ibo)
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER,
			indices.Start*vertexbuffer.IndexSize,
			indices.Count*vertexbuffer.IndexSize,
			unsafe.Pointer(&g.Indices[indices.Start]))
	}

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		return fmt.Errorf("GL error 0x%x uploading group %d", errCode, g.ID())
	}
	return nil
}

// Release implements vertexbuffer.Device.
func (d *Device) Release(g *vertexbuffer.Group) {
	b, ok := d.buffers[g]
	if !ok {
		return
	}
	d.deleteBuffers(b)
	delete(d.buffers, g)
}

// VAO returns the vertex array object bound to the group, or 0.
func (d *Device) VAO(g *vertexbuffer.Group) uint32 {
	return d.buffers[g].vao
}

func (d *Device) deleteBuffers(b buffers) {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.ibo != 0 {
		gl.DeleteBuffers(1, &b.ibo)
	}
}
