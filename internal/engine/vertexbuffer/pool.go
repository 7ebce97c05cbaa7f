package vertexbuffer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/logger"
)

// Device owns the GPU-side copies of storage groups.
type Device interface {
	// Create allocates device storage sized to the group's capacity.
	Create(g *Group) error
	// Upload copies the given element ranges of the group to the device.
	Upload(g *Group, verts, indices Range) error
	// Release frees the device storage of the group.
	Release(g *Group)
}

// Pool creates storage groups on a device and flushes their dirty ranges.
type Pool struct {
	device Device
	groups []*Group
	nextID int
	log    *zap.Logger
}

// NewPool creates a pool on the given device.
func NewPool(device Device) *Pool {
	return &Pool{
		device: device,
		log:    logger.Named("vertexbuffer"),
	}
}

// NewGroup creates a group holding maxVerts vertices and maxIdx indices.
func (p *Pool) NewGroup(maxVerts, maxIdx int) (*Group, error) {
	if maxVerts <= 0 || maxIdx <= 0 {
		return nil, fmt.Errorf("invalid group capacity %d verts / %d indices", maxVerts, maxIdx)
	}
	g := &Group{
		id:      p.nextID,
		Verts:   make([]Vertex, maxVerts),
		Indices: make([]uint16, maxIdx),
	}
	if err := p.device.Create(g); err != nil {
		return nil, fmt.Errorf("creating device storage for group %d: %w", g.id, err)
	}
	p.nextID++
	p.groups = append(p.groups, g)

	p.log.Debug("storage group created",
		zap.Int("group", g.id),
		zap.Int("max_verts", maxVerts),
		zap.Int("max_indices", maxIdx),
	)
	return g, nil
}

// Groups returns the live groups in creation order.
func (p *Pool) Groups() []*Group {
	return p.groups
}

// Flush uploads every dirty range and clears the dirty state. Groups that
// fail to upload stay dirty and are retried on the next Flush.
func (p *Pool) Flush() error {
	var errs []error
	for _, g := range p.groups {
		verts, idx := g.Dirty()
		if verts.Empty() && idx.Empty() {
			continue
		}
		if err := p.device.Upload(g, verts, idx); err != nil {
			errs = append(errs, fmt.Errorf("group %d: %w", g.id, err))
			continue
		}
		g.clearDirty()
	}
	return errors.Join(errs...)
}

// Release frees every group's device storage.
func (p *Pool) Release() {
	for _, g := range p.groups {
		p.device.Release(g)
	}
	p.groups = nil
}
