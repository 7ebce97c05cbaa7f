package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTestKey(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

// createTestDDM creates a minimal valid DDM file for testing.
func createTestDDM(targets []string) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("DDMG")
	buf.WriteByte(0) // minor
	buf.WriteByte(1) // major

	writeTestKey(buf, "mat/foot")
	writeTestKey(buf, "")

	binary.Write(buf, binary.LittleEndian, uint32(len(targets)))
	for _, t := range targets {
		writeTestKey(buf, t)
	}
	binary.Write(buf, binary.LittleEndian, uint32(0)) // party objects

	binary.Write(buf, binary.LittleEndian, uint32(1000)) // max verts
	binary.Write(buf, binary.LittleEndian, uint32(1500)) // max indices
	buf.WriteByte(1)                                     // wait on enable
	binary.Write(buf, binary.LittleEndian, float32(0.8)) // intensity
	binary.Write(buf, binary.LittleEndian, float32(10))  // wet length
	binary.Write(buf, binary.LittleEndian, float32(0.5)) // ramp end
	binary.Write(buf, binary.LittleEndian, float32(20))  // decay start
	binary.Write(buf, binary.LittleEndian, float32(30))  // life span
	binary.Write(buf, binary.LittleEndian, uint32(4))    // grid u
	binary.Write(buf, binary.LittleEndian, uint32(3))    // grid v
	binary.Write(buf, binary.LittleEndian, [3]float32{0.5, 1, 0.25})
	binary.Write(buf, binary.LittleEndian, float32(0.2)) // party time

	binary.Write(buf, binary.LittleEndian, uint32(1))
	writeTestKey(buf, "listener")

	return buf.Bytes()
}

func TestParseDynaDecal_ValidFile(t *testing.T) {
	data := createTestDDM([]string{"ground", "rock"})

	d, err := ParseDynaDecal(data)
	if err != nil {
		t.Fatalf("ParseDynaDecal failed: %v", err)
	}

	if d.Version.String() != "1.0" {
		t.Errorf("expected version 1.0, got %s", d.Version)
	}
	if d.MatPreShade != "mat/foot" || d.MatRTShade != "" {
		t.Errorf("unexpected materials %q %q", d.MatPreShade, d.MatRTShade)
	}
	if !reflect.DeepEqual(d.Targets, []string{"ground", "rock"}) {
		t.Errorf("unexpected targets %v", d.Targets)
	}
	if len(d.PartyObjects) != 0 {
		t.Errorf("expected no party objects, got %v", d.PartyObjects)
	}
	if d.MaxVerts != 1000 || d.MaxIndices != 1500 {
		t.Errorf("unexpected capacity %d/%d", d.MaxVerts, d.MaxIndices)
	}
	if !d.WaitOnEnable {
		t.Error("expected WaitOnEnable")
	}
	if d.Intensity != 0.8 || d.WetLength != 10 || d.LifeSpan != 30 {
		t.Errorf("unexpected timing %v %v %v", d.Intensity, d.WetLength, d.LifeSpan)
	}
	if d.GridSizeU != 4 || d.GridSizeV != 3 {
		t.Errorf("unexpected grid %dx%d", d.GridSizeU, d.GridSizeV)
	}
	if d.Scale != [3]float32{0.5, 1, 0.25} {
		t.Errorf("unexpected scale %v", d.Scale)
	}
	if d.PartyTime != 0.2 {
		t.Errorf("unexpected party time %v", d.PartyTime)
	}
	if !reflect.DeepEqual(d.Notifies, []string{"listener"}) {
		t.Errorf("unexpected notifies %v", d.Notifies)
	}
}

func TestParseDynaDecal_InvalidMagic(t *testing.T) {
	data := createTestDDM(nil)
	copy(data, "XXXX")

	_, err := ParseDynaDecal(data)
	if !errors.Is(err, ErrInvalidDDMMagic) {
		t.Errorf("expected ErrInvalidDDMMagic, got %v", err)
	}
}

func TestParseDynaDecal_UnsupportedVersion(t *testing.T) {
	data := createTestDDM(nil)
	data[5] = 2

	_, err := ParseDynaDecal(data)
	if !errors.Is(err, ErrUnsupportedDDMVersion) {
		t.Errorf("expected ErrUnsupportedDDMVersion, got %v", err)
	}
}

func TestParseDynaDecal_Truncated(t *testing.T) {
	data := createTestDDM([]string{"ground"})

	// Every strict prefix must fail cleanly.
	for _, n := range []int{0, 3, 6, 8, 12, 20, 40, len(data) - 1} {
		_, err := ParseDynaDecal(data[:n])
		if !errors.Is(err, ErrTruncatedDDMData) {
			t.Errorf("prefix %d: expected ErrTruncatedDDMData, got %v", n, err)
		}
	}
}

func TestParseDynaDecal_HugeListCount(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString("DDMG")
	buf.Write([]byte{0, 1})
	writeTestKey(buf, "")
	writeTestKey(buf, "")
	binary.Write(buf, binary.LittleEndian, uint32(0xFFFFFFFF))

	_, err := ParseDynaDecal(buf.Bytes())
	if !errors.Is(err, ErrTruncatedDDMData) {
		t.Errorf("expected ErrTruncatedDDMData, got %v", err)
	}
}

func TestEncodeMatchesHandBuiltFile(t *testing.T) {
	want := createTestDDM([]string{"ground"})

	d, err := ParseDynaDecal(want)
	if err != nil {
		t.Fatalf("ParseDynaDecal failed: %v", err)
	}
	got, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encoded %d bytes differ from fixture of %d bytes", len(got), len(want))
	}
}

func TestEncodeRejectsLongKey(t *testing.T) {
	d := &DynaDecal{MatPreShade: string(make([]byte, 0x10000))}
	if _, err := d.Encode(); err == nil {
		t.Error("expected error for oversized key")
	}
}

func TestDynaDecalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foot.ddm")
	d := &DynaDecal{
		MatPreShade: "mat/foot",
		Targets:     []string{"ground"},
		MaxVerts:    500,
		MaxIndices:  750,
		LifeSpan:    12,
		Scale:       [3]float32{1, 1, 1},
	}
	if err := WriteDynaDecalFile(path, d); err != nil {
		t.Fatalf("WriteDynaDecalFile failed: %v", err)
	}

	got, err := ParseDynaDecalFile(path)
	if err != nil {
		t.Fatalf("ParseDynaDecalFile failed: %v", err)
	}
	if got.MaxVerts != 500 || got.LifeSpan != 12 || got.Targets[0] != "ground" {
		t.Errorf("unexpected record %+v", got)
	}

	if _, err := ParseDynaDecalFile(filepath.Join(t.TempDir(), "missing.ddm")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
