// Package config handles decal subsystem configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate for inconsistent settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Decal   DecalConfig   `yaml:"decal"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecalConfig holds the tuning of one dynamic decal manager.
type DecalConfig struct {
	MaxVerts     int  `yaml:"max_verts"`      // Vertex capacity of each aux span
	MaxIndices   int  `yaml:"max_indices"`    // Index capacity of each aux span
	NeverRunOut  bool `yaml:"never_run_out"`  // Allocate new aux spans when the pool is exhausted
	NoInitAlloc  bool `yaml:"no_init_alloc"`  // Skip pre-allocating the free pool
	InitAuxSpans int  `yaml:"init_aux_spans"` // Spans pre-allocated unless no_init_alloc

	WaitOnEnable bool    `yaml:"wait_on_enable"` // Only decal parts that have been wetted
	Intensity    float32 `yaml:"intensity"`
	WetLength    float32 `yaml:"wet_length"`  // Seconds a part stays wet after contact
	RampEnd      float32 `yaml:"ramp_end"`    // Seconds to fade in
	DecayStart   float32 `yaml:"decay_start"` // Seconds before fading out
	LifeSpan     float32 `yaml:"life_span"`   // Seconds until retirement
	PartyTime    float32 `yaml:"party_time"`  // Minimum seconds between decals of one part

	GridSizeU int        `yaml:"grid_size_u"` // Flat grid segments along U
	GridSizeV int        `yaml:"grid_size_v"` // Flat grid segments along V
	Scale     [3]float32 `yaml:"scale"`       // Cutter volume lengths along U, V, W

	MinDepth float32 `yaml:"min_depth"` // Normalized depth where opacity finishes ramping in
	MaxDepth float32 `yaml:"max_depth"` // Normalized depth where opacity starts ramping out

	RippleInitScale  float32 `yaml:"ripple_init_scale"`
	RippleFinalScale float32 `yaml:"ripple_final_scale"`

	ParticlesPerHit int `yaml:"particles_per_hit"`
}

// StorageConfig selects the vertex storage device.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory" or "gl"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"` // Write the log file as JSON lines
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decal: DecalConfig{
			MaxVerts:     1000,
			MaxIndices:   1000,
			NeverRunOut:  true,
			NoInitAlloc:  false,
			InitAuxSpans: 2,

			WaitOnEnable: false,
			Intensity:    1.0,
			WetLength:    10.0,
			RampEnd:      0.1,
			DecayStart:   20.0,
			LifeSpan:     30.0,
			PartyTime:    0,

			GridSizeU: 2,
			GridSizeV: 2,
			Scale:     [3]float32{1, 1, 1},

			MinDepth: 0.25,
			MaxDepth: 0.75,

			RippleInitScale:  0.25,
			RippleFinalScale: 1.0,

			ParticlesPerHit: 4,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that cannot be combined.
func (c *Config) Validate() error {
	return c.Decal.Validate()
}

// Validate checks the decal tuning for inconsistent settings.
func (d *DecalConfig) Validate() error {
	if d.NoInitAlloc && !d.NeverRunOut {
		return fmt.Errorf("%w: no_init_alloc requires never_run_out", ErrInvalidConfig)
	}
	if d.MaxVerts <= 0 || d.MaxIndices <= 0 {
		return fmt.Errorf("%w: max_verts and max_indices must be positive", ErrInvalidConfig)
	}
	if d.MaxVerts > 1<<16 {
		return fmt.Errorf("%w: max_verts %d exceeds 16-bit index range", ErrInvalidConfig, d.MaxVerts)
	}
	if d.LifeSpan <= 0 {
		return fmt.Errorf("%w: life_span must be positive", ErrInvalidConfig)
	}
	if d.RampEnd < 0 || d.RampEnd > d.DecayStart || d.DecayStart > d.LifeSpan {
		return fmt.Errorf("%w: need 0 <= ramp_end <= decay_start <= life_span", ErrInvalidConfig)
	}
	if d.MinDepth < 0 || d.MinDepth > d.MaxDepth || d.MaxDepth > 1 {
		return fmt.Errorf("%w: need 0 <= min_depth <= max_depth <= 1", ErrInvalidConfig)
	}
	for i, s := range d.Scale {
		if !(s > 0) {
			return fmt.Errorf("%w: scale[%d] = %v must be positive", ErrInvalidConfig, i, s)
		}
	}
	return d.validateGrid()
}

// validateGrid checks that one ripple grid fits in an aux span. Sizes below
// one count as one cell, as the grid builder treats them.
func (d *DecalConfig) validateGrid() error {
	nu, nv := max(d.GridSizeU, 1), max(d.GridSizeV, 1)
	// Each side is bounded first so the products cannot overflow.
	if nu+1 > d.MaxVerts || nv+1 > d.MaxVerts ||
		(nu+1)*(nv+1) > d.MaxVerts || 6*nu*nv > d.MaxIndices {
		return fmt.Errorf("%w: %dx%d grid does not fit %d verts / %d indices",
			ErrInvalidConfig, d.GridSizeU, d.GridSizeV, d.MaxVerts, d.MaxIndices)
	}
	return nil
}
