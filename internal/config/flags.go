package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMaxVerts   = flag.Int("max-verts", 0, "Vertex capacity per aux span")
	flagMaxIndices = flag.Int("max-indices", 0, "Index capacity per aux span")
	flagLifeSpan   = flag.Float64("lifespan", 0, "Decal life span in seconds")
	flagBackend    = flag.String("backend", "", "Vertex storage backend (memory, gl)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMaxVerts > 0 {
		cfg.Decal.MaxVerts = *flagMaxVerts
	}
	if *flagMaxIndices > 0 {
		cfg.Decal.MaxIndices = *flagMaxIndices
	}
	if *flagLifeSpan > 0 {
		cfg.Decal.LifeSpan = float32(*flagLifeSpan)
		if cfg.Decal.DecayStart > cfg.Decal.LifeSpan {
			cfg.Decal.DecayStart = cfg.Decal.LifeSpan
		}
		if cfg.Decal.RampEnd > cfg.Decal.DecayStart {
			cfg.Decal.RampEnd = cfg.Decal.DecayStart
		}
	}
	if *flagBackend != "" {
		cfg.Storage.Backend = *flagBackend
	}
}

// ParseArgs parses flags from args instead of os.Args, for subcommands.
func ParseArgs(args []string) error {
	return flag.CommandLine.Parse(args)
}
