package vertexbuffer

import (
	"errors"
	"testing"
)

func TestRangeUnion(t *testing.T) {
	tests := []struct {
		a, b, want Range
	}{
		{Range{}, Range{4, 2}, Range{4, 2}},
		{Range{4, 2}, Range{}, Range{4, 2}},
		{Range{0, 3}, Range{10, 5}, Range{0, 15}},
		{Range{5, 10}, Range{6, 2}, Range{5, 10}},
	}
	for _, tc := range tests {
		if got := tc.a.Union(tc.b); got != tc.want {
			t.Errorf("%v.Union(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestGroupReserve(t *testing.T) {
	pool := NewPool(NewMemoryDevice())
	g, err := pool.NewGroup(100, 150)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}

	cell, ok := g.Reserve(60, 90)
	if !ok {
		t.Fatal("expected first reservation to fit")
	}
	if cell.Verts != (Range{0, 60}) || cell.Index != (Range{0, 90}) {
		t.Errorf("unexpected cell %+v", cell)
	}

	if _, ok := g.Reserve(41, 10); ok {
		t.Error("expected vertex overflow to be refused")
	}
	if _, ok := g.Reserve(10, 61); ok {
		t.Error("expected index overflow to be refused")
	}

	cell, ok = g.Reserve(40, 60)
	if !ok {
		t.Fatal("expected exact fit to succeed")
	}
	if cell.Verts.Start != 60 || cell.Index.Start != 90 {
		t.Errorf("expected second cell after first, got %+v", cell)
	}
	if v, i := g.Free(); v != 0 || i != 0 {
		t.Errorf("expected group full, free = %d/%d", v, i)
	}
}

func TestFlushUploadsDirtyRanges(t *testing.T) {
	dev := NewMemoryDevice()
	pool := NewPool(dev)
	g, _ := pool.NewGroup(10, 10)

	g.MarkVertsDirty(Range{2, 3})
	g.MarkVertsDirty(Range{7, 1})
	g.MarkIndicesDirty(Range{0, 6})

	if err := pool.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if dev.Uploads != 1 {
		t.Errorf("expected 1 upload, got %d", dev.Uploads)
	}
	if dev.VertsUploaded != 6 {
		t.Errorf("expected merged vertex range of 6, got %d", dev.VertsUploaded)
	}
	if dev.IdxUploaded != 6 {
		t.Errorf("expected 6 indices uploaded, got %d", dev.IdxUploaded)
	}
	if want := 6*VertexSize + 6*IndexSize; dev.BytesUploaded() != want {
		t.Errorf("BytesUploaded() = %d, want %d", dev.BytesUploaded(), want)
	}

	// Clean groups are skipped.
	if err := pool.Flush(); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	if dev.Uploads != 1 {
		t.Errorf("expected no upload for clean group, got %d uploads", dev.Uploads)
	}
}

type failingDevice struct {
	MemoryDevice
}

func (d *failingDevice) Upload(*Group, Range, Range) error {
	return errors.New("device lost")
}

func TestFlushKeepsDirtyOnError(t *testing.T) {
	pool := NewPool(&failingDevice{})
	g, _ := pool.NewGroup(4, 4)
	g.MarkVertsDirty(Range{0, 4})

	if err := pool.Flush(); err == nil {
		t.Fatal("expected Flush to report the device error")
	}
	if v, _ := g.Dirty(); v != (Range{0, 4}) {
		t.Errorf("expected dirty range kept for retry, got %v", v)
	}
}

func TestMarkDirtyOutOfRangePanics(t *testing.T) {
	pool := NewPool(NewMemoryDevice())
	g, _ := pool.NewGroup(4, 4)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range dirty mark")
		}
	}()
	g.MarkVertsDirty(Range{3, 2})
}

func TestPoolRelease(t *testing.T) {
	dev := NewMemoryDevice()
	pool := NewPool(dev)
	pool.NewGroup(4, 4)
	pool.NewGroup(4, 4)

	pool.Release()
	if dev.Created != 2 || dev.Released != 2 {
		t.Errorf("expected 2 created and released, got %d/%d", dev.Created, dev.Released)
	}
	if len(pool.Groups()) != 0 {
		t.Error("expected no groups after Release")
	}
}

func TestVertexSize(t *testing.T) {
	if VertexSize != 52 {
		t.Errorf("VertexSize = %d, want 52", VertexSize)
	}
}
