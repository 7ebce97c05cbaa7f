package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dynadecal/internal/config"
	"github.com/Faultbox/dynadecal/internal/engine/decal"
	"github.com/Faultbox/dynadecal/internal/engine/geometry"
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer"
	"github.com/Faultbox/dynadecal/internal/engine/vertexbuffer/glbuffer"
	"github.com/Faultbox/dynadecal/internal/engine/window"
	"github.com/Faultbox/dynadecal/internal/logger"
	"github.com/Faultbox/dynadecal/pkg/formats"
	"github.com/Faultbox/dynadecal/pkg/math"
)

var (
	flagSteps = flag.Int("steps", 600, "Simulation ticks (0 runs until interrupted)")
	flagDt    = flag.Float64("dt", 1.0/30, "Seconds per tick")
	flagWatch = flag.Bool("watch", false, "Reload the config file on change and run in real time")
	flagGPU   = flag.Bool("gpu", false, "Upload decal geometry to OpenGL buffers")
	flagShow  = flag.Bool("show", false, "Show the GPU preview window (implies -gpu)")
	flagDDM   = flag.String("ddm", "", "Decal manager record for the footprint manager")
)

// Scene layout: the walker starts in a pond and walks out along +X.
const (
	waterHeight = 0.2
	waterMaxX   = -2.0
	walkStartX  = -8.0
	walkSpeed   = 1.2  // Meters per second
	strideTime  = 0.45 // Seconds between footfalls
	footOffset  = 0.15 // Half the distance between the feet
	walkerKey   = "walker"
)

var footParts = [2]string{"lfoot", "rfoot"}

type loggingEmitter struct {
	log   *zap.Logger
	count int
}

func (e *loggingEmitter) Emit(pos, dir math.Vec3, count int, t float64) {
	e.count += count
	e.log.Debug("dust",
		zap.Float32("x", pos.X), zap.Float32("y", pos.Y), zap.Float32("z", pos.Z),
		zap.Int("count", count), zap.Float64("t", t))
}

type simulation struct {
	log     *zap.Logger
	pool    *vertexbuffer.Pool
	feet    *decal.Manager
	ripples *decal.Manager
	splash  *loggingEmitter
	gpu     *gpuView

	inWater  bool
	nextFoot int
	nextStep float64
}

func cmdSim(args []string) {
	if err := config.ParseArgs(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Dynamic decal simulation ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runSim(ctx, cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

// gpuView owns the hidden window used for GL uploads and preview draws.
type gpuView struct {
	win  *window.Window
	dev  *glbuffer.Device
	prog *glbuffer.DecayProgram
}

func newGPUView() (*gpuView, error) {
	win, err := window.New(window.Config{
		Title:  "decaltool",
		Width:  512,
		Height: 512,
		Hidden: !*flagShow,
		VSync:  true,
	})
	if err != nil {
		return nil, err
	}
	dev, err := glbuffer.New()
	if err != nil {
		win.Close()
		return nil, err
	}
	prog, err := glbuffer.NewDecayProgram()
	if err != nil {
		win.Close()
		return nil, err
	}
	return &gpuView{win: win, dev: dev, prog: prog}, nil
}

func (g *gpuView) Close() {
	g.prog.Delete()
	g.win.Close()
}

// draw renders every attached aux span from above.
func (g *gpuView) draw(t float64, managers ...*decal.Manager) error {
	w, h := g.win.DrawableSize()
	g.dev.BeginFrame(w, h)
	viewProj := math.Scale(1.0/20, 1.0/20, -0.1)

	for _, m := range managers {
		cfg := m.Config()
		for i := 0; i < m.Stats().AuxSpans; i++ {
			aux := m.AuxSpan(i)
			if host, _ := aux.Host(); host == nil {
				continue
			}
			g.prog.Use(viewProj, t, glbuffer.Aging{
				Decay:      aux.Style() == decal.StyleVS,
				RampEnd:    cfg.RampEnd,
				DecayStart: cfg.DecayStart,
				LifeSpan:   cfg.LifeSpan,
				Intensity:  cfg.Intensity,
			})
			if err := g.dev.DrawCell(aux.Storage().Cell); err != nil {
				return err
			}
		}
	}
	g.win.SwapBuffers()
	return nil
}

func newPool(cfg *config.Config) (*vertexbuffer.Pool, *gpuView, error) {
	if !*flagGPU && !*flagShow && cfg.Storage.Backend != "gl" {
		return vertexbuffer.NewPool(vertexbuffer.NewMemoryDevice()), nil, nil
	}
	gpu, err := newGPUView()
	if err != nil {
		return nil, nil, err
	}
	return vertexbuffer.NewPool(gpu.dev), gpu, nil
}

func initLogger(c config.LoggingConfig) error {
	if c.LogFile == "" {
		return logger.Init(c.Level, "")
	}
	fc := logger.DefaultFileConfig(c.LogFile)
	fc.JSON = c.JSON
	return logger.InitWithFileConfig(c.Level, fc, true)
}

func runSim(ctx context.Context, cfg *config.Config) error {
	pool, gpu, err := newPool(cfg)
	if err != nil {
		return fmt.Errorf("creating vertex storage: %w", err)
	}
	if gpu != nil {
		defer gpu.Close()
	}
	defer pool.Release()

	sim, err := newSimulation(cfg, pool, gpu != nil)
	if err != nil {
		return err
	}
	sim.gpu = gpu

	var updates <-chan *config.Config
	if *flagWatch {
		path := config.ConfigPath()
		if path == "" {
			return fmt.Errorf("-watch needs -config")
		}
		if updates, err = config.Watch(ctx, path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	dt := *flagDt
	if dt <= 0 {
		return fmt.Errorf("invalid tick length %v", dt)
	}

	var tick <-chan time.Time
	if *flagWatch || *flagShow {
		ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	t := 0.0
	for step := 0; *flagSteps <= 0 || step < *flagSteps; step++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				sim.report(t)
				return nil
			case next, ok := <-updates:
				if !ok {
					updates = nil
				} else {
					sim.reconfigure(next.Decal)
				}
				step--
				continue
			case <-tick:
			}
		} else if ctx.Err() != nil {
			break
		}
		if gpu != nil && gpu.win.PollQuit() {
			break
		}

		if err := sim.step(t); err != nil {
			return err
		}
		t += dt
	}

	sim.report(t)
	return nil
}

// With a GPU the footprints fade in the vertex program instead of on the CPU.
func newSimulation(cfg *config.Config, pool *vertexbuffer.Pool, gpu bool) (*simulation, error) {
	log := logger.Named("sim")

	ground := geometry.NewMesh("ground", geometry.MeshSpan{
		Storage: geometry.BuildGround(40, 8, 0),
		Loaded:  true,
	})
	water := geometry.NewMesh("pond", geometry.MeshSpan{
		Storage: geometry.BuildWaterPlane(-12, waterMaxX, -4, 4, waterHeight, 0),
		Props:   geometry.SpanProps{HasAlpha: true},
		Loaded:  true,
	})

	splash := &loggingEmitter{log: log}
	reg := decal.NewRegistry()
	reg.Targets["ground"] = ground
	reg.Targets["pond"] = water
	reg.Materials["mat/footprint"] = &decal.Material{Key: "mat/footprint", VertexShader: gpu}
	reg.Materials["mat/ripple"] = &decal.Material{Key: "mat/ripple", Blend: decal.BlendAdd}
	reg.Particles["splash"] = splash

	notifier := decal.NotifierFunc(func(listener string, n decal.WetNotification) {
		log.Info("wetness changed",
			zap.String("listener", listener),
			zap.String("part", n.Part),
			zap.Bool("enter", n.Enter),
			zap.Float64("t", n.Time))
	})

	footCfg := cfg.Decal
	footCfg.WaitOnEnable = true
	feet, err := decal.New(footCfg, decal.Options{
		Key:      "footprints",
		Pool:     pool,
		Resolver: reg,
		Notifier: notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("creating footprint manager: %w", err)
	}

	if *flagDDM != "" {
		rec, err := formats.ParseDynaDecalFile(*flagDDM)
		if err != nil {
			return nil, err
		}
		if err := feet.Load(rec); err != nil {
			return nil, fmt.Errorf("loading %s: %w", *flagDDM, err)
		}
	} else {
		feet.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RoleMatPreShade, Key: "mat/footprint"})
		feet.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RoleTarget, Key: "ground"})
		feet.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RoleNotify, Key: "footsteps-audio"})
		feet.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RolePartyObject, Key: "splash"})
	}

	rippleCfg := rippleConfig(cfg.Decal)
	ripples, err := decal.New(rippleCfg, decal.Options{
		Key:      "ripples",
		Pool:     pool,
		Resolver: reg,
		Notifier: notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ripple manager: %w", err)
	}
	ripples.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RoleMatPreShade, Key: "mat/ripple"})
	ripples.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RoleTarget, Key: "pond"})
	ripples.MsgReceive(decal.RefMsg{Op: decal.RefAdd, Role: decal.RolePartyObject, Key: "splash"})
	ripples.MsgReceive(decal.AgeLoadedMsg{Loaded: true})
	feet.MsgReceive(decal.AgeLoadedMsg{Loaded: true})

	log.Info("scene ready",
		zap.Stringer("footprints", feet.ID()),
		zap.Stringer("ripples", ripples.ID()))

	return &simulation{
		log:     log,
		pool:    pool,
		feet:    feet,
		ripples: ripples,
		splash:  splash,
		inWater: true,
	}, nil
}

// rippleConfig derives short lived, expanding decals from the base tuning.
func rippleConfig(base config.DecalConfig) config.DecalConfig {
	c := base
	c.WaitOnEnable = false
	c.RampEnd = 0
	c.DecayStart = 0
	c.LifeSpan = 2
	c.PartyTime = 0.3
	c.GridSizeU, c.GridSizeV = 4, 4
	c.Scale = [3]float32{0.6, 0.6, 1}
	if c.RippleFinalScale <= c.RippleInitScale {
		c.RippleInitScale, c.RippleFinalScale = 0.2, 1
	}
	return c
}

func (s *simulation) reconfigure(d config.DecalConfig) {
	d.WaitOnEnable = true
	if err := s.feet.SetConfig(d); err != nil {
		s.log.Warn("footprint config rejected", zap.Error(err))
	}
	if err := s.ripples.SetConfig(rippleConfig(d)); err != nil {
		s.log.Warn("ripple config rejected", zap.Error(err))
	}
}

func (s *simulation) step(t float64) error {
	x := float32(walkStartX + walkSpeed*t)
	wet := x < waterMaxX

	if wet {
		for _, part := range footParts {
			s.feet.MsgReceive(decal.EnableMsg{Part: part, Armature: walkerKey, IsArmature: true, Time: t})
		}
	} else if s.inWater {
		for _, part := range footParts {
			s.feet.MsgReceive(decal.EnableMsg{Part: part, Armature: walkerKey, IsArmature: true, Time: t, AtEnd: true})
		}
		s.log.Info("walker left the water", zap.Float64("t", t))
	}
	s.inWater = wet

	if t >= s.nextStep {
		part := footParts[s.nextFoot]
		side := float32(1 - 2*s.nextFoot)
		pos := math.Vec3{X: x, Y: side * footOffset}
		if wet {
			s.ripples.AddRipple(part, pos, t, waterHeight)
		} else {
			// Right foot prints are mirrored.
			l2w := math.FromAxes(math.UnitY.Neg(), math.UnitX, math.UnitZ, pos)
			s.feet.AddFootprint(part, l2w, s.nextFoot == 1, t)
		}
		s.nextFoot = 1 - s.nextFoot
		s.nextStep = t + strideTime
	}

	s.feet.MsgReceive(decal.EvalMsg{Time: t})
	s.ripples.MsgReceive(decal.EvalMsg{Time: t})
	if err := s.pool.Flush(); err != nil {
		return err
	}
	if s.gpu != nil {
		return s.gpu.draw(t, s.feet, s.ripples)
	}
	return nil
}

func (s *simulation) report(t float64) {
	fmt.Printf("Simulated %.2fs\n", t)
	for _, m := range []*decal.Manager{s.feet, s.ripples} {
		st := m.Stats()
		fmt.Printf("  %-10s decals=%d spans=%d (attached %d, free %d) verts=%d indices=%d parts=%d\n",
			m.Key(), st.Decals, st.AuxSpans, st.Attached, st.Free, st.LiveVerts, st.LiveIndices, st.Parts)
	}
	fmt.Printf("  particles  %d\n", s.splash.count)
}
