package vertexbuffer

// MemoryDevice is a Device without GPU storage. It records upload traffic,
// which makes it the default for headless runs and tests.
type MemoryDevice struct {
	Created       int
	Released      int
	Uploads       int
	VertsUploaded int
	IdxUploaded   int
}

// NewMemoryDevice creates an empty MemoryDevice.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{}
}

// Create implements Device.
func (d *MemoryDevice) Create(g *Group) error {
	d.Created++
	return nil
}

// Upload implements Device.
func (d *MemoryDevice) Upload(g *Group, verts, indices Range) error {
	d.Uploads++
	d.VertsUploaded += verts.Count
	d.IdxUploaded += indices.Count
	return nil
}

// Release implements Device.
func (d *MemoryDevice) Release(g *Group) {
	d.Released++
}

// BytesUploaded returns the total byte volume pushed through Upload.
func (d *MemoryDevice) BytesUploaded() int {
	return d.VertsUploaded*VertexSize + d.IdxUploaded*IndexSize
}
