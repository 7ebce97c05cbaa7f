// decaltool is a CLI utility for dynamic decal records and simulations.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/dynadecal/internal/config"
	"github.com/Faultbox/dynadecal/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "encode":
		cmdEncode(args)
	case "config":
		cmdConfig(args)
	case "sim", "run":
		cmdSim(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`decaltool - dynamic decal utility

Usage:
  decaltool <command> [options]

Commands:
  info <file.ddm>               Show a decal manager record
  encode [options] <file.ddm>   Write a record from config and flags
  config [options] [file.yaml]  Write a tuning file (defaults or -config)
  sim [options]                 Run a footprint and ripple simulation

Examples:
  decaltool info foot.ddm
  decaltool encode -config decal.yaml -targets ground -mat mat/foot foot.ddm
  decaltool config -lifespan 12 decal.yaml
  decaltool sim -steps 600 -ddm foot.ddm
  decaltool sim -config decal.yaml -watch`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: decaltool info <file.ddm>")
		os.Exit(1)
	}

	rec, err := formats.ParseDynaDecalFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Record:    %s (v%s)\n", args[0], rec.Version)
	fmt.Printf("Materials: pre-shade %q, runtime %q\n", rec.MatPreShade, rec.MatRTShade)
	fmt.Printf("Targets:   %s\n", listOrNone(rec.Targets))
	fmt.Printf("Particles: %s\n", listOrNone(rec.PartyObjects))
	fmt.Printf("Notifies:  %s\n", listOrNone(rec.Notifies))
	fmt.Println()
	fmt.Printf("Capacity:  %d verts / %d indices per span\n", rec.MaxVerts, rec.MaxIndices)
	fmt.Printf("Wetness:   wait=%v intensity=%.2f length=%.2fs\n", rec.WaitOnEnable, rec.Intensity, rec.WetLength)
	fmt.Printf("Aging:     ramp %.2fs, decay %.2fs, life %.2fs\n", rec.RampEnd, rec.DecayStart, rec.LifeSpan)
	fmt.Printf("Grid:      %dx%d\n", rec.GridSizeU, rec.GridSizeV)
	fmt.Printf("Scale:     %.2f x %.2f x %.2f\n", rec.Scale[0], rec.Scale[1], rec.Scale[2])
	fmt.Printf("Party:     %.2fs\n", rec.PartyTime)
}

func listOrNone(keys []string) string {
	if len(keys) == 0 {
		return "(none)"
	}
	return strings.Join(keys, ", ")
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func cmdEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file providing the tuning (defaults when empty)")
	targets := fs.String("targets", "", "Comma-separated target keys")
	mat := fs.String("mat", "", "Pre-shade material key")
	rtMat := fs.String("rt-mat", "", "Runtime-shade material key")
	party := fs.String("party", "", "Comma-separated particle system keys")
	notify := fs.String("notify", "", "Comma-separated wetness listener keys")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: decaltool encode [options] <file.ddm>")
		os.Exit(1)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadFile(*cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	rec := recordFromConfig(cfg.Decal)
	rec.MatPreShade = *mat
	rec.MatRTShade = *rtMat
	rec.Targets = splitKeys(*targets)
	rec.PartyObjects = splitKeys(*party)
	rec.Notifies = splitKeys(*notify)

	if err := formats.WriteDynaDecalFile(fs.Arg(0), rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", fs.Arg(0))
}

func recordFromConfig(d config.DecalConfig) *formats.DynaDecal {
	return &formats.DynaDecal{
		Version:      formats.CurrentDDMVersion,
		MaxVerts:     uint32(d.MaxVerts),
		MaxIndices:   uint32(d.MaxIndices),
		WaitOnEnable: d.WaitOnEnable,
		Intensity:    d.Intensity,
		WetLength:    d.WetLength,
		RampEnd:      d.RampEnd,
		DecayStart:   d.DecayStart,
		LifeSpan:     d.LifeSpan,
		GridSizeU:    uint32(d.GridSizeU),
		GridSizeV:    uint32(d.GridSizeV),
		Scale:        d.Scale,
		PartyTime:    d.PartyTime,
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file to start from")
	lifeSpan := fs.Float64("lifespan", 0, "Decal life span in seconds")
	fs.Parse(args)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadFile(*cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *lifeSpan > 0 {
		cfg.Decal.LifeSpan = float32(*lifeSpan)
		cfg.Decal.DecayStart = min(cfg.Decal.DecayStart, cfg.Decal.LifeSpan)
		cfg.Decal.RampEnd = min(cfg.Decal.RampEnd, cfg.Decal.DecayStart)
	}

	// Without a path the file goes where Load looks for it.
	out := filepath.Join(config.ConfigDir(), "config.yaml")
	save := cfg.Save
	if fs.NArg() > 0 {
		out = fs.Arg(0)
		save = func() error { return cfg.SaveTo(out) }
	}
	if err := save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote: %s\n", out)
}
