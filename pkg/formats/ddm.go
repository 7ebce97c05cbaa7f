// Package formats provides binary codecs for persisted decal data.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// DDM format errors.
var (
	ErrInvalidDDMMagic       = errors.New("invalid DDM magic: expected 'DDMG'")
	ErrUnsupportedDDMVersion = errors.New("unsupported DDM version")
	ErrTruncatedDDMData      = errors.New("truncated DDM data")
)

// DDMMagic starts every .ddm file.
const DDMMagic = "DDMG"

// DDMVersion represents the DDM file version.
type DDMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v DDMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentDDMVersion is written by Encode.
var CurrentDDMVersion = DDMVersion{Major: 1, Minor: 0}

// DynaDecal is the persisted state of one dynamic decal manager.
// Fields are stored in declaration order.
type DynaDecal struct {
	Version DDMVersion

	MatPreShade string // Material for pre-shaded hosts
	MatRTShade  string // Material for runtime-lit hosts

	Targets      []string // Renderables decals are cut from
	PartyObjects []string // Particle systems spawned at hit points

	MaxVerts   uint32
	MaxIndices uint32

	WaitOnEnable bool
	Intensity    float32
	WetLength    float32
	RampEnd      float32
	DecayStart   float32
	LifeSpan     float32

	GridSizeU uint32
	GridSizeV uint32
	Scale     [3]float32

	PartyTime float32

	Notifies []string // Listeners of wetness transitions
}

// ParseDynaDecal parses a .ddm record from raw bytes.
func ParseDynaDecal(data []byte) (*DynaDecal, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedDDMData
	}
	if string(data[0:4]) != DDMMagic {
		return nil, ErrInvalidDDMMagic
	}

	// Version is stored as [minor, major]
	version := DDMVersion{
		Major: data[5],
		Minor: data[4],
	}
	if version.Major != CurrentDDMVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDDMVersion, version)
	}

	r := bytes.NewReader(data[6:])
	d := &DynaDecal{Version: version}

	var err error
	if d.MatPreShade, err = readKey(r); err != nil {
		return nil, fmt.Errorf("reading pre-shade material: %w", err)
	}
	if d.MatRTShade, err = readKey(r); err != nil {
		return nil, fmt.Errorf("reading runtime-shade material: %w", err)
	}
	if d.Targets, err = readKeyList(r); err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}
	if d.PartyObjects, err = readKeyList(r); err != nil {
		return nil, fmt.Errorf("reading party objects: %w", err)
	}

	var wait uint8
	fields := []struct {
		name string
		ptr  any
	}{
		{"max verts", &d.MaxVerts},
		{"max indices", &d.MaxIndices},
		{"wait on enable", &wait},
		{"intensity", &d.Intensity},
		{"wet length", &d.WetLength},
		{"ramp end", &d.RampEnd},
		{"decay start", &d.DecayStart},
		{"life span", &d.LifeSpan},
		{"grid size u", &d.GridSizeU},
		{"grid size v", &d.GridSizeV},
		{"scale", &d.Scale},
		{"party time", &d.PartyTime},
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f.ptr); err != nil {
			return nil, fmt.Errorf("%w: reading %s", ErrTruncatedDDMData, f.name)
		}
	}
	d.WaitOnEnable = wait != 0

	if d.Notifies, err = readKeyList(r); err != nil {
		return nil, fmt.Errorf("reading notifies: %w", err)
	}

	return d, nil
}

// ParseDynaDecalFile parses a .ddm file from disk.
func ParseDynaDecalFile(path string) (*DynaDecal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DDM file: %w", err)
	}
	return ParseDynaDecal(data)
}

// readKey reads a u16 length-prefixed string.
func readKey(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: reading key length", ErrTruncatedDDMData)
	}
	if int(n) > r.Len() {
		return "", fmt.Errorf("%w: key of %d bytes", ErrTruncatedDDMData, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: reading key", ErrTruncatedDDMData)
	}
	return string(buf), nil
}

// readKeyList reads a u32 count followed by that many keys.
func readKeyList(r *bytes.Reader) ([]string, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading list count", ErrTruncatedDDMData)
	}
	// Every key needs at least its length prefix.
	if int64(count)*2 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: list of %d keys", ErrTruncatedDDMData, count)
	}
	keys := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		k, err := readKey(r)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Encode serializes the record with CurrentDDMVersion.
func (d *DynaDecal) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString(DDMMagic)
	buf.WriteByte(CurrentDDMVersion.Minor)
	buf.WriteByte(CurrentDDMVersion.Major)

	if err := writeKey(buf, d.MatPreShade); err != nil {
		return nil, err
	}
	if err := writeKey(buf, d.MatRTShade); err != nil {
		return nil, err
	}
	if err := writeKeyList(buf, d.Targets); err != nil {
		return nil, err
	}
	if err := writeKeyList(buf, d.PartyObjects); err != nil {
		return nil, err
	}

	var wait uint8
	if d.WaitOnEnable {
		wait = 1
	}
	for _, v := range []any{
		d.MaxVerts, d.MaxIndices, wait,
		d.Intensity, d.WetLength, d.RampEnd, d.DecayStart, d.LifeSpan,
		d.GridSizeU, d.GridSizeV, d.Scale, d.PartyTime,
	} {
		// Writes to a bytes.Buffer cannot fail.
		_ = binary.Write(buf, binary.LittleEndian, v)
	}

	if err := writeKeyList(buf, d.Notifies); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDynaDecalFile encodes the record to path.
func WriteDynaDecalFile(path string, d *DynaDecal) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing DDM file: %w", err)
	}
	return nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	if len(key) > 0xFFFF {
		return fmt.Errorf("key too long: %d bytes", len(key))
	}
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(key)))
	buf.WriteString(key)
	return nil
}

func writeKeyList(buf *bytes.Buffer, keys []string) error {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(keys)))
	for _, k := range keys {
		if err := writeKey(buf, k); err != nil {
			return err
		}
	}
	return nil
}
